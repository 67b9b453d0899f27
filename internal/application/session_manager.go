package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bnema/sessionkeys/internal/domain"
	"github.com/bnema/sessionkeys/internal/ports"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultPollAttempts = 30
	DefaultPollDelay    = 10 * time.Second

	balanceReadConcurrency = 8
)

type ManagerDeps struct {
	Store      ports.DelegationStore
	Provider   ports.AccountAbstractionProvider
	Backend    ports.ChainBackend
	Bridge     ports.BridgeRoute
	Market     ports.YieldMarket
	Recorder   ports.WorkflowRecorder
	Clock      ports.Clock
	Logger     *zap.Logger
	KeyGen     KeyGenerator
	PolicyKind domain.PolicyKind
	Poll       PollConfig
}

// SessionManager owns one user's session key and per-chain clients. It holds
// secret material and must not be shared between users or requests; build
// one per request with ManagerFactory.ForUser and Close it afterwards.
type SessionManager struct {
	store         ports.DelegationStore
	provider      ports.AccountAbstractionProvider
	approver      *DelegationApprover
	reconstructor *Reconstructor
	bridge        ports.BridgeRoute
	market        ports.YieldMarket
	recorder      ports.WorkflowRecorder
	clock         ports.Clock
	logger        *zap.Logger
	keygen        KeyGenerator
	policyKind    domain.PolicyKind
	poll          PollConfig

	mu      sync.RWMutex
	data    *domain.UnifiedSessionKeyData
	clients map[domain.ChainID]*SessionChainClient
}

func NewSessionManager(deps ManagerDeps) *SessionManager {
	if deps.Clock == nil {
		deps.Clock = ports.SystemClock{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Recorder == nil {
		deps.Recorder = ports.NopRecorder{}
	}
	if deps.KeyGen == nil {
		deps.KeyGen = GenerateSessionKeyPair
	}
	if deps.PolicyKind == "" {
		deps.PolicyKind = domain.PolicyScoped
	}
	if deps.Poll.MaxAttempts <= 0 {
		deps.Poll.MaxAttempts = DefaultPollAttempts
	}
	if deps.Poll.Delay <= 0 {
		deps.Poll.Delay = DefaultPollDelay
	}

	return &SessionManager{
		store:         deps.Store,
		provider:      deps.Provider,
		approver:      NewDelegationApprover(deps.Provider),
		reconstructor: NewReconstructor(deps.Provider, deps.Backend),
		bridge:        deps.Bridge,
		market:        deps.Market,
		recorder:      deps.Recorder,
		clock:         deps.Clock,
		logger:        deps.Logger,
		keygen:        deps.KeyGen,
		policyKind:    deps.PolicyKind,
		poll:          deps.Poll,
		clients:       make(map[domain.ChainID]*SessionChainClient),
	}
}

// SetupForChains makes sure every chain in chainIDs has a live client for
// smartAccountAddress. Stored delegations are reused; missing chains are
// approved with the user's existing session key, and a new key is only
// minted when the store has no usable one. If a concurrent setup stores a
// different key first, the setup runs once more and adopts that key.
func (m *SessionManager) SetupForChains(ctx context.Context, chainIDs []domain.ChainID, owner ports.OwnerSigner, ownerAddress, smartAccountAddress common.Address, userKey domain.UserKey) error {
	if owner != nil && owner.Address() != ownerAddress {
		err := fmt.Errorf("%w: owner signer is %s, expected %s", domain.ErrDelegationFailed, owner.Address().Hex(), ownerAddress.Hex())
		m.recorder.RecordSetup(setupOutcome(err))
		return err
	}

	err := m.setup(ctx, chainIDs, owner, smartAccountAddress, userKey, true)
	if errors.Is(err, domain.ErrSessionKeyConflict) {
		m.logger.Info("session key changed during setup, adopting stored key", zap.Error(err))
		err = m.setup(ctx, chainIDs, owner, smartAccountAddress, userKey, true)
	}
	m.recorder.RecordSetup(setupOutcome(err))

	return err
}

// Restore rebuilds clients from stored delegations only. It never approves.
// Requested chains without a stored delegation are skipped, and IsReady
// reports them as not ready. ErrDelegationNotFound is returned only when
// none of the requested chains has one.
func (m *SessionManager) Restore(ctx context.Context, chainIDs []domain.ChainID, smartAccountAddress common.Address, userKey domain.UserKey) error {
	return m.setup(ctx, chainIDs, nil, smartAccountAddress, userKey, false)
}

func (m *SessionManager) setup(ctx context.Context, chainIDs []domain.ChainID, owner ports.OwnerSigner, smartAccountAddress common.Address, userKey domain.UserKey, approveMissing bool) error {
	if err := userKey.Validate(); err != nil {
		return err
	}
	if len(chainIDs) == 0 {
		return errors.New("no chains requested")
	}
	for _, id := range chainIDs {
		if _, err := domain.LookupChain(id); err != nil {
			return err
		}
	}
	if smartAccountAddress == (common.Address{}) {
		return errors.New("smart account address is required")
	}

	stored, err := m.store.Get(ctx, userKey)
	if err != nil && !errors.Is(err, domain.ErrDelegationNotFound) {
		return fmt.Errorf("get stored delegations: %w", err)
	}

	byChain := make(map[domain.ChainID]domain.StoredDelegation, len(stored))
	var pair *domain.SessionKeyPair
	for _, record := range stored {
		if record.Usable() != nil {
			continue
		}
		if record.SmartAccountAddress != smartAccountAddress {
			return fmt.Errorf("%w: stored delegation on %s targets %s, expected %s", domain.ErrSmartAccountMismatch, record.ChainID, record.SmartAccountAddress.Hex(), smartAccountAddress.Hex())
		}
		recordPair, err := record.KeyPair()
		if err != nil {
			return fmt.Errorf("load session key for %s: %w", record.ChainID, err)
		}
		if pair != nil && pair.Address != recordPair.Address {
			return fmt.Errorf("%w: stored delegations use more than one session key", domain.ErrDeserializationFailed)
		}
		pair = &recordPair
		byChain[record.ChainID] = record
	}

	if pair == nil {
		if !approveMissing {
			return fmt.Errorf("%w: user %s has no active delegation", domain.ErrDelegationNotFound, userKey)
		}
		if len(stored) > 0 {
			if err := m.store.Revoke(ctx, userKey); err != nil && !errors.Is(err, domain.ErrDelegationNotFound) {
				return fmt.Errorf("revoke unusable delegations: %w", err)
			}
			m.logger.Info("revoked unusable delegations", zap.Int("count", len(stored)))
		}
		fresh, err := m.keygen()
		if err != nil {
			return fmt.Errorf("generate session key pair: %w", err)
		}
		pair = &fresh
		m.logger.Info("generated session key", zap.Object("session_key", fresh))
	}

	ready := make([]domain.ChainID, 0, len(chainIDs))
	var missing []domain.ChainID
	for _, id := range chainIDs {
		if _, ok := byChain[id]; ok {
			ready = append(ready, id)
			continue
		}
		if !approveMissing {
			missing = append(missing, id)
			continue
		}
		if owner == nil {
			return fmt.Errorf("%w: owner signer required to approve %s", domain.ErrDelegationFailed, id)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		record, err := m.approveChain(ctx, owner, *pair, id, smartAccountAddress, userKey)
		if err != nil {
			return err
		}
		byChain[id] = record
		ready = append(ready, id)
	}
	if len(ready) == 0 {
		return fmt.Errorf("%w: user %s has no delegation on %v", domain.ErrDelegationNotFound, userKey, chainIDs)
	}
	if len(missing) > 0 {
		m.logger.Info("chains without delegation", zap.Stringers("chains", missing))
	}

	clients := make(map[domain.ChainID]*SessionChainClient, len(ready))
	for _, id := range ready {
		client, err := m.reconstructor.Reconstruct(ctx, *pair, id, byChain[id].SerializedPermission)
		if err == nil && client.Address() != smartAccountAddress {
			client.Close()
			err = fmt.Errorf("%w: %s reconstructed %s, expected %s", domain.ErrSmartAccountMismatch, id, client.Address().Hex(), smartAccountAddress.Hex())
		}
		if err != nil {
			closeClients(clients)
			m.Close()
			return fmt.Errorf("reconstruct %s: %w", id, err)
		}
		clients[id] = client
	}

	delegations := make(map[domain.ChainID]domain.ChainDelegation, len(byChain))
	for id, record := range byChain {
		delegations[id] = domain.ChainDelegation{
			ChainID:              id,
			SmartAccountAddress:  record.SmartAccountAddress,
			SerializedPermission: record.SerializedPermission,
			IsApproved:           true,
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.data != nil && m.data.KeyPair.Address != pair.Address {
		closeClients(m.clients)
		m.clients = make(map[domain.ChainID]*SessionChainClient)
	}
	for id, client := range clients {
		if previous, ok := m.clients[id]; ok {
			previous.Close()
		}
		m.clients[id] = client
	}
	m.data = &domain.UnifiedSessionKeyData{KeyPair: *pair, Delegations: delegations}

	m.logger.Info("session ready",
		zap.Object("session_key", *pair),
		zap.String("smart_account", smartAccountAddress.Hex()),
		zap.Stringers("chains", ready),
	)

	return nil
}

func (m *SessionManager) approveChain(ctx context.Context, owner ports.OwnerSigner, pair domain.SessionKeyPair, chainID domain.ChainID, smartAccountAddress common.Address, userKey domain.UserKey) (domain.StoredDelegation, error) {
	cfg, err := domain.LookupChain(chainID)
	if err != nil {
		return domain.StoredDelegation{}, err
	}

	permission, err := m.approver.Approve(ctx, owner, pair.Address, chainID, domain.PolicyFor(m.policyKind, cfg))
	if err != nil {
		return domain.StoredDelegation{}, err
	}
	if permission.AccountAddress != smartAccountAddress {
		return domain.StoredDelegation{}, fmt.Errorf("%w: approval on %s yields %s, expected %s", domain.ErrSmartAccountMismatch, cfg.Name, permission.AccountAddress.Hex(), smartAccountAddress.Hex())
	}

	record := domain.StoredDelegation{
		ChainID:              chainID,
		SessionKeyAddress:    pair.Address,
		SessionKeyPrivateKey: pair.PrivateKeyHex(),
		SerializedPermission: permission.Serialized,
		SmartAccountAddress:  permission.AccountAddress,
		UserAddress:          owner.Address(),
		Status:               domain.DelegationActive,
		CreatedAt:            m.clock.Now(),
	}
	if err := m.store.Save(ctx, userKey, record); err != nil {
		return domain.StoredDelegation{}, fmt.Errorf("save delegation for %s: %w", cfg.Name, err)
	}

	m.logger.Info("approved session key",
		zap.String("chain", cfg.Name),
		zap.String("policy", string(m.policyKind)),
		zap.String("smart_account", permission.AccountAddress.Hex()),
	)

	return record, nil
}

// IsReady reports whether every chain in chainIDs has a live client.
func (m *SessionManager) IsReady(chainIDs []domain.ChainID) bool {
	if len(chainIDs) == 0 {
		return false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, id := range chainIDs {
		if m.clients[id] == nil {
			return false
		}
	}

	return true
}

func (m *SessionManager) GetStatus() domain.SessionStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.data == nil {
		return domain.SessionStatus{}
	}

	chains := make([]domain.ChainID, 0, len(m.data.Delegations))
	for id, delegation := range m.data.Delegations {
		if delegation.IsApproved {
			chains = append(chains, id)
		}
	}
	sort.Slice(chains, func(i, j int) bool { return chains[i] < chains[j] })

	return domain.SessionStatus{
		HasSessionKey:     true,
		SessionKeyAddress: m.data.KeyPair.Address,
		ApprovedChains:    chains,
	}
}

func (m *SessionManager) Client(chainID domain.ChainID) (*SessionChainClient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	client, ok := m.clients[chainID]
	if !ok {
		return nil, fmt.Errorf("%w: no client for %s", domain.ErrSessionNotReady, chainID)
	}

	return client, nil
}

func (m *SessionManager) Operations(chainID domain.ChainID) (*TokenOperations, error) {
	client, err := m.Client(chainID)
	if err != nil {
		return nil, err
	}

	return NewTokenOperations(client), nil
}

// GetBalances reads every registry token on every live chain concurrently.
// A failed read only marks its own slot.
func (m *SessionManager) GetBalances(ctx context.Context) domain.Balances {
	m.mu.RLock()
	clients := make([]*SessionChainClient, 0, len(m.clients))
	for _, client := range m.clients {
		clients = append(clients, client)
	}
	m.mu.RUnlock()

	balances := domain.Balances{}
	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(balanceReadConcurrency)

	for _, client := range clients {
		ops := NewTokenOperations(client)
		for _, token := range client.Config.Tokens {
			g.Go(func() error {
				snapshot, err := ops.BalanceOf(ctx, token.Symbol, client.Address())
				if err != nil {
					m.logger.Warn("balance read failed",
						zap.String("chain", client.Config.Name),
						zap.String("token", string(token.Symbol)),
						zap.Error(err),
					)
				}

				mu.Lock()
				balances.Set(client.ChainID, token.Symbol, domain.BalanceSlot{Snapshot: snapshot, Err: err})
				mu.Unlock()
				return nil
			})
		}
	}
	_ = g.Wait()

	return balances
}

// Availability combines readiness with the balance of one token.
func (m *SessionManager) Availability(ctx context.Context, chainID domain.ChainID, symbol domain.TokenSymbol) (domain.Availability, error) {
	availability := domain.Availability{Chain: chainID, Token: symbol, Ready: m.IsReady([]domain.ChainID{chainID})}
	availability.Chains = m.GetStatus().ApprovedChains
	if !availability.Ready {
		return availability, nil
	}

	ops, err := m.Operations(chainID)
	if err != nil {
		return availability, err
	}
	client, err := m.Client(chainID)
	if err != nil {
		return availability, err
	}
	snapshot, err := ops.BalanceOf(ctx, symbol, client.Address())
	if err != nil {
		return availability, err
	}
	availability.Balance = snapshot

	return availability, nil
}

// Reset revokes the user's stored delegations and drops in-memory clients so
// the next setup mints a fresh session key.
func (m *SessionManager) Reset(ctx context.Context, ownerAddress, smartAccountAddress common.Address, userKey domain.UserKey) error {
	if err := userKey.Validate(); err != nil {
		return err
	}

	stored, err := m.store.Get(ctx, userKey)
	if err != nil && !errors.Is(err, domain.ErrDelegationNotFound) {
		return fmt.Errorf("get stored delegations: %w", err)
	}
	for _, record := range stored {
		if record.SmartAccountAddress != smartAccountAddress {
			return fmt.Errorf("%w: delegation on %s targets %s, not %s", domain.ErrSmartAccountMismatch, record.ChainID, record.SmartAccountAddress.Hex(), smartAccountAddress.Hex())
		}
		if ownerAddress != (common.Address{}) && record.UserAddress != ownerAddress {
			return fmt.Errorf("delegation on %s belongs to owner %s, not %s", record.ChainID, record.UserAddress.Hex(), ownerAddress.Hex())
		}
	}

	if err := m.store.Revoke(ctx, userKey); err != nil && !errors.Is(err, domain.ErrDelegationNotFound) {
		return fmt.Errorf("revoke delegations: %w", err)
	}
	m.Close()

	m.logger.Info("session reset", zap.String("smart_account", smartAccountAddress.Hex()))

	return nil
}

// Close releases every client and forgets the session key.
func (m *SessionManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	closeClients(m.clients)
	m.clients = make(map[domain.ChainID]*SessionChainClient)
	m.data = nil
}

func closeClients(clients map[domain.ChainID]*SessionChainClient) {
	for _, client := range clients {
		client.Close()
	}
}

func setupOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrSmartAccountMismatch):
		return "account_mismatch"
	case errors.Is(err, domain.ErrDelegationFailed):
		return "delegation_failed"
	case errors.Is(err, domain.ErrDeserializationFailed):
		return "deserialization_failed"
	case errors.Is(err, domain.ErrSessionKeyConflict):
		return "key_conflict"
	case errors.Is(err, domain.ErrNetworkUnavailable):
		return "network_unavailable"
	default:
		return "error"
	}
}
