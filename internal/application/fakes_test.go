package application

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bnema/sessionkeys/internal/domain"
	"github.com/bnema/sessionkeys/internal/ports"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func mockAnyContext() any {
	return mock.MatchedBy(func(context.Context) bool { return true })
}

type fixedClock struct {
	now time.Time
}

func (f fixedClock) Now() time.Time {
	return f.now
}

type inMemoryDelegationStore struct {
	mu      sync.Mutex
	records map[domain.UserKey][]domain.StoredDelegation
	saves   int
	saveErr error
	// beforeSave runs ahead of each Save without the lock held, so a test
	// can land a competing write.
	beforeSave func()
}

func newInMemoryDelegationStore() *inMemoryDelegationStore {
	return &inMemoryDelegationStore{records: make(map[domain.UserKey][]domain.StoredDelegation)}
}

func (s *inMemoryDelegationStore) Save(_ context.Context, userKey domain.UserKey, delegation domain.StoredDelegation) error {
	if hook := s.beforeSave; hook != nil {
		s.beforeSave = nil
		hook()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.saveErr != nil {
		return s.saveErr
	}
	for _, record := range s.records[userKey] {
		if record.Status == domain.DelegationActive && record.SessionKeyAddress != delegation.SessionKeyAddress {
			return fmt.Errorf("%w: chain %d", domain.ErrSessionKeyConflict, record.ChainID)
		}
	}
	s.saves++
	kept := s.records[userKey][:0:0]
	for _, record := range s.records[userKey] {
		if record.ChainID == delegation.ChainID && record.Status == domain.DelegationActive {
			continue
		}
		kept = append(kept, record)
	}
	s.records[userKey] = append(kept, delegation)

	return nil
}

func (s *inMemoryDelegationStore) Get(_ context.Context, userKey domain.UserKey) ([]domain.StoredDelegation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var active []domain.StoredDelegation
	for _, record := range s.records[userKey] {
		if record.Status == domain.DelegationActive {
			active = append(active, record)
		}
	}

	return active, nil
}

func (s *inMemoryDelegationStore) Revoke(_ context.Context, userKey domain.UserKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.records[userKey]
	if len(records) == 0 {
		return domain.ErrDelegationNotFound
	}
	for i := range records {
		records[i].Status = domain.DelegationRevoked
		records[i].SerializedPermission = ""
		records[i].SessionKeyPrivateKey = ""
	}

	return nil
}

func (s *inMemoryDelegationStore) active(userKey domain.UserKey) []domain.StoredDelegation {
	records, _ := s.Get(context.Background(), userKey)
	return records
}

type fakeOwner struct {
	address common.Address
	signErr error
}

func (o fakeOwner) Address() common.Address {
	return o.address
}

func (o fakeOwner) SignMessage(_ context.Context, message []byte) ([]byte, error) {
	if o.signErr != nil {
		return nil, o.signErr
	}

	return crypto.Keccak256(o.address.Bytes(), message), nil
}

// fakeProvider derives the account from the owner address and serializes
// permissions as "chain|sessionKey|account".
type fakeProvider struct {
	mu        sync.Mutex
	approvals int
	override  *common.Address
}

func accountForOwner(owner common.Address) common.Address {
	return common.BytesToAddress(crypto.Keccak256(owner.Bytes()))
}

func (p *fakeProvider) AccountAddress(_ context.Context, owner common.Address, _ domain.ChainConfig) (common.Address, error) {
	return accountForOwner(owner), nil
}

func (p *fakeProvider) ApproveSession(ctx context.Context, owner ports.OwnerSigner, sessionKey common.Address, chain domain.ChainConfig, _ domain.Policy) (domain.Permission, error) {
	if _, err := owner.SignMessage(ctx, sessionKey.Bytes()); err != nil {
		return domain.Permission{}, err
	}

	p.mu.Lock()
	p.approvals++
	p.mu.Unlock()

	account := accountForOwner(owner.Address())
	if p.override != nil {
		account = *p.override
	}

	return domain.Permission{
		Serialized:     fmt.Sprintf("%d|%s|%s", uint64(chain.ID), sessionKey.Hex(), account.Hex()),
		AccountAddress: account,
	}, nil
}

func (p *fakeProvider) DeserializePermission(_ context.Context, pair domain.SessionKeyPair, _ domain.ChainConfig, serialized string) (ports.SmartAccount, error) {
	parts := strings.Split(serialized, "|")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: malformed blob", domain.ErrDeserializationFailed)
	}
	chainID, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDeserializationFailed, err)
	}

	return fakeAccount{
		address:    common.HexToAddress(parts[2]),
		chainID:    domain.ChainID(chainID),
		sessionKey: common.HexToAddress(parts[1]),
		pair:       pair,
	}, nil
}

type fakeAccount struct {
	address    common.Address
	chainID    domain.ChainID
	sessionKey common.Address
	pair       domain.SessionKeyPair
}

func (a fakeAccount) Address() common.Address                   { return a.address }
func (a fakeAccount) ChainID() domain.ChainID                   { return a.chainID }
func (a fakeAccount) EntryPoint() common.Address                { return domain.EntryPointV06 }
func (a fakeAccount) SessionKey() common.Address                { return a.sessionKey }
func (a fakeAccount) InitCode() ([]byte, error)                 { return nil, nil }
func (a fakeAccount) DummySignature() []byte                    { return make([]byte, 65) }
func (a fakeAccount) EncodeCalls([]domain.Call) ([]byte, error) { return []byte{0x01}, nil }
func (a fakeAccount) SignUserOpHash(hash common.Hash) ([]byte, error) {
	return crypto.Sign(hash.Bytes(), a.pair.PrivateKey)
}

type fakeChain struct {
	mu          sync.Mutex
	balances    map[common.Address][]*big.Int
	decimals    map[common.Address]uint8
	readErr     map[common.Address]error
	allowance   *big.Int
	submitted   [][]domain.Call
	submitErrAt map[int]error
	// sentErrAt fails after the operation went out, so the call is recorded
	// and its hash is returned with the error.
	sentErrAt map[int]error
	reads     map[common.Address]int
	closed    bool
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		balances:    make(map[common.Address][]*big.Int),
		decimals:    make(map[common.Address]uint8),
		readErr:     make(map[common.Address]error),
		allowance:   new(big.Int),
		submitErrAt: make(map[int]error),
		sentErrAt:   make(map[int]error),
		reads:       make(map[common.Address]int),
	}
}

// setBalances queues successive balanceOf results; the last one repeats.
func (c *fakeChain) setBalances(token common.Address, values ...int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	seq := make([]*big.Int, 0, len(values))
	for _, v := range values {
		seq = append(seq, big.NewInt(v))
	}
	c.balances[token] = seq
}

func (c *fakeChain) TokenBalance(_ context.Context, token, _ common.Address) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.reads[token]++
	if err := c.readErr[token]; err != nil {
		return nil, err
	}
	seq := c.balances[token]
	if len(seq) == 0 {
		return new(big.Int), nil
	}
	value := seq[0]
	if len(seq) > 1 {
		c.balances[token] = seq[1:]
	}

	return new(big.Int).Set(value), nil
}

func (c *fakeChain) TokenDecimals(_ context.Context, token common.Address) (uint8, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	decimals, ok := c.decimals[token]
	if !ok {
		return 0, errors.New("decimals reverted")
	}

	return decimals, nil
}

func (c *fakeChain) Allowance(context.Context, common.Address, common.Address, common.Address) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return new(big.Int).Set(c.allowance), nil
}

func (c *fakeChain) Submit(_ context.Context, calls []domain.Call) (common.Hash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	index := len(c.submitted)
	if err := c.submitErrAt[index]; err != nil {
		return common.Hash{}, err
	}
	c.submitted = append(c.submitted, calls)
	hash := common.BigToHash(big.NewInt(int64(index + 1)))

	return hash, c.sentErrAt[index]
}

func (c *fakeChain) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *fakeChain) submissions() [][]domain.Call {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([][]domain.Call(nil), c.submitted...)
}

type fakeBackend struct {
	chains     map[domain.ChainID]*fakeChain
	connectErr map[domain.ChainID]error
}

func newFakeBackend(ids ...domain.ChainID) *fakeBackend {
	backend := &fakeBackend{chains: make(map[domain.ChainID]*fakeChain), connectErr: make(map[domain.ChainID]error)}
	for _, id := range ids {
		backend.chains[id] = newFakeChain()
	}

	return backend
}

func (b *fakeBackend) Connect(_ context.Context, chain domain.ChainConfig, _ ports.SmartAccount) (ports.ChainConnection, error) {
	if err := b.connectErr[chain.ID]; err != nil {
		return nil, err
	}
	c, ok := b.chains[chain.ID]
	if !ok {
		return nil, errors.New("dial refused")
	}

	return c, nil
}

type fakeBridge struct {
	fee      int64
	quoteErr error
}

var fakeBridgeSpender = common.HexToAddress("0xb41d6e")

func (b fakeBridge) Spender(domain.ChainConfig) common.Address {
	return fakeBridgeSpender
}

func (b fakeBridge) Quote(_ context.Context, req ports.BridgeRequest) (ports.BridgeQuote, error) {
	if b.quoteErr != nil {
		return ports.BridgeQuote{}, b.quoteErr
	}

	return ports.BridgeQuote{
		OutputAmount: new(big.Int).Sub(req.Amount, big.NewInt(b.fee)),
		TotalFee:     big.NewInt(b.fee),
	}, nil
}

func (b fakeBridge) BuildDeposit(req ports.BridgeRequest, quote ports.BridgeQuote) (domain.Call, error) {
	return domain.Call{To: req.Source.SpokePool, Data: append([]byte("deposit:"), quote.OutputAmount.Bytes()...)}, nil
}

type fakeMarket struct{}

func (fakeMarket) Spender(chain domain.ChainConfig) common.Address {
	return chain.LendingPool
}

func (fakeMarket) BuildSupply(chain domain.ChainConfig, _ domain.TokenDescriptor, amount *big.Int, _ common.Address) (domain.Call, error) {
	return domain.Call{To: chain.LendingPool, Data: append([]byte("supply:"), amount.Bytes()...)}, nil
}

type testEnv struct {
	store    *inMemoryDelegationStore
	provider *fakeProvider
	backend  *fakeBackend
	owner    fakeOwner
	account  common.Address
	deps     ManagerDeps
}

func newTestEnv(t *testing.T, chains ...domain.ChainID) *testEnv {
	t.Helper()

	ownerKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	owner := fakeOwner{address: crypto.PubkeyToAddress(ownerKey.PublicKey)}

	env := &testEnv{
		store:    newInMemoryDelegationStore(),
		provider: &fakeProvider{},
		backend:  newFakeBackend(chains...),
		owner:    owner,
		account:  accountForOwner(owner.address),
	}
	env.deps = ManagerDeps{
		Store:    env.store,
		Provider: env.provider,
		Backend:  env.backend,
		Bridge:   fakeBridge{fee: 1_000},
		Market:   fakeMarket{},
		Clock:    fixedClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
		Poll:     PollConfig{MaxAttempts: 3, Delay: time.Millisecond},
	}

	return env
}

func (e *testEnv) manager() *SessionManager {
	return NewManagerFactory(e.deps).ForUser("user-1")
}

func (e *testEnv) setup(t *testing.T, m *SessionManager, chains ...domain.ChainID) {
	t.Helper()

	require.NoError(t, m.SetupForChains(context.Background(), chains, e.owner, e.owner.address, e.account, "user-1"))
}

func tokenAddress(t *testing.T, chainID domain.ChainID, symbol domain.TokenSymbol) common.Address {
	t.Helper()

	cfg, err := domain.LookupChain(chainID)
	require.NoError(t, err)
	token, err := cfg.Token(symbol)
	require.NoError(t, err)

	return token.Address
}
