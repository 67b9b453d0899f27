package kernel

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math/big"
	"testing"

	"github.com/bnema/sessionkeys/internal/adapters/signer/local"
	"github.com/bnema/sessionkeys/internal/contracts"
	"github.com/bnema/sessionkeys/internal/domain"
	"github.com/bnema/sessionkeys/internal/ports/mocks"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newOwner(t *testing.T) *local.Signer {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	return local.NewSigner(key)
}

func newPair(t *testing.T) domain.SessionKeyPair {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	return domain.SessionKeyPair{Address: crypto.PubkeyToAddress(key.PublicKey), PrivateKey: key}
}

func chain(t *testing.T, id domain.ChainID) domain.ChainConfig {
	t.Helper()

	cfg, err := domain.LookupChain(id)
	require.NoError(t, err)

	return cfg
}

func TestApproveThenDeserializeRoundTrip(t *testing.T) {
	provider := NewProvider()
	owner := newOwner(t)
	pair := newPair(t)

	for _, policy := range []domain.Policy{domain.ScopedPolicyFor(chain(t, domain.ChainBase)), domain.SudoPolicy()} {
		t.Run(string(policy.Kind), func(t *testing.T) {
			permission, err := provider.ApproveSession(context.Background(), owner, pair.Address, chain(t, domain.ChainBase), policy)
			require.NoError(t, err)

			expected, err := provider.AccountAddress(context.Background(), owner.Address(), chain(t, domain.ChainBase))
			require.NoError(t, err)
			assert.Equal(t, expected, permission.AccountAddress)

			account, err := provider.DeserializePermission(context.Background(), pair, chain(t, domain.ChainBase), permission.Serialized)
			require.NoError(t, err)
			assert.Equal(t, permission.AccountAddress, account.Address())
			assert.Equal(t, pair.Address, account.SessionKey())
			assert.Equal(t, domain.ChainBase, account.ChainID())
			assert.Equal(t, domain.EntryPointV06, account.EntryPoint())
		})
	}
}

func TestAccountAddressIgnoresSessionKeyAndChain(t *testing.T) {
	provider := NewProvider()
	owner := newOwner(t)

	first, err := provider.ApproveSession(context.Background(), owner, newPair(t).Address, chain(t, domain.ChainBase), domain.SudoPolicy())
	require.NoError(t, err)
	second, err := provider.ApproveSession(context.Background(), owner, newPair(t).Address, chain(t, domain.ChainArbitrum), domain.SudoPolicy())
	require.NoError(t, err)

	assert.Equal(t, first.AccountAddress, second.AccountAddress)

	other, err := NewProvider(WithIndex(1)).AccountAddress(context.Background(), owner.Address(), chain(t, domain.ChainBase))
	require.NoError(t, err)
	assert.NotEqual(t, first.AccountAddress, other)
}

func TestDeserializeRejectsForeignInputs(t *testing.T) {
	provider := NewProvider()
	owner := newOwner(t)
	pair := newPair(t)

	permission, err := provider.ApproveSession(context.Background(), owner, pair.Address, chain(t, domain.ChainArbitrum), domain.SudoPolicy())
	require.NoError(t, err)

	tests := []struct {
		name       string
		pair       domain.SessionKeyPair
		chain      domain.ChainID
		serialized string
	}{
		{name: "other chain", pair: pair, chain: domain.ChainBase, serialized: permission.Serialized},
		{name: "other session key", pair: newPair(t), chain: domain.ChainArbitrum, serialized: permission.Serialized},
		{name: "not base64", pair: pair, chain: domain.ChainArbitrum, serialized: "%%%"},
		{name: "not json", pair: pair, chain: domain.ChainArbitrum, serialized: base64.RawURLEncoding.EncodeToString([]byte("nope"))},
		{name: "zero blob", pair: pair, chain: domain.ChainArbitrum, serialized: base64.RawURLEncoding.EncodeToString(make([]byte, 64))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := provider.DeserializePermission(context.Background(), tt.pair, chain(t, tt.chain), tt.serialized)
			assert.ErrorIs(t, err, domain.ErrDeserializationFailed)
		})
	}
}

func mutateBlob(t *testing.T, serialized string, mutate func(*permissionBlob)) string {
	t.Helper()

	blob, err := decodeBlob(serialized)
	require.NoError(t, err)
	mutate(&blob)
	out, err := encodeBlob(blob)
	require.NoError(t, err)

	return out
}

func TestDeserializeDetectsTampering(t *testing.T) {
	provider := NewProvider()
	owner := newOwner(t)
	pair := newPair(t)
	cfg := chain(t, domain.ChainOptimism)

	permission, err := provider.ApproveSession(context.Background(), owner, pair.Address, cfg, domain.ScopedPolicyFor(cfg))
	require.NoError(t, err)

	widened := mutateBlob(t, permission.Serialized, func(b *permissionBlob) {
		b.Policy = policyJSON{Kind: domain.PolicySudo}
	})
	_, err = provider.DeserializePermission(context.Background(), pair, cfg, widened)
	assert.ErrorIs(t, err, domain.ErrDeserializationFailed)

	otherOwner := newOwner(t).Address()
	hijacked := mutateBlob(t, permission.Serialized, func(b *permissionBlob) {
		b.Owner = otherOwner
	})
	_, err = provider.DeserializePermission(context.Background(), pair, cfg, hijacked)
	assert.ErrorIs(t, err, domain.ErrDeserializationFailed)

	redirected := mutateBlob(t, permission.Serialized, func(b *permissionBlob) {
		b.Account = common.HexToAddress("0xdead")
	})
	_, err = provider.DeserializePermission(context.Background(), pair, cfg, redirected)
	assert.ErrorIs(t, err, domain.ErrDeserializationFailed)
}

func TestDeserializeRejectsUnknownFields(t *testing.T) {
	provider := NewProvider()
	owner := newOwner(t)
	pair := newPair(t)
	cfg := chain(t, domain.ChainBase)

	permission, err := provider.ApproveSession(context.Background(), owner, pair.Address, cfg, domain.SudoPolicy())
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(permission.Serialized)
	require.NoError(t, err)
	var generic map[string]any
	require.NoError(t, json.Unmarshal(raw, &generic))
	generic["extra"] = true
	raw, err = json.Marshal(generic)
	require.NoError(t, err)

	_, err = provider.DeserializePermission(context.Background(), pair, cfg, base64.RawURLEncoding.EncodeToString(raw))
	assert.ErrorIs(t, err, domain.ErrDeserializationFailed)
}

func TestApproveSessionOwnerFailures(t *testing.T) {
	provider := NewProvider()
	cfg := chain(t, domain.ChainBase)
	pair := newPair(t)

	refusing := mocks.NewMockOwnerSigner(t)
	refusing.EXPECT().Address().Return(common.HexToAddress("0x01"))
	refusing.EXPECT().SignMessage(mock.Anything, mock.Anything).Return(nil, errors.New("hsm offline")).Once()
	_, err := provider.ApproveSession(context.Background(), refusing, pair.Address, cfg, domain.SudoPolicy())
	assert.ErrorIs(t, err, domain.ErrDelegationFailed)

	impostor := newOwner(t)
	lying := mocks.NewMockOwnerSigner(t)
	lying.EXPECT().Address().Return(common.HexToAddress("0x02"))
	lying.EXPECT().SignMessage(mock.Anything, mock.Anything).RunAndReturn(impostor.SignMessage).Once()
	_, err = provider.ApproveSession(context.Background(), lying, pair.Address, cfg, domain.SudoPolicy())
	assert.ErrorIs(t, err, domain.ErrDelegationFailed)

	_, err = provider.ApproveSession(context.Background(), newOwner(t), pair.Address, cfg, domain.Policy{Kind: domain.PolicyScoped})
	assert.ErrorIs(t, err, domain.ErrDelegationFailed)
}

func deserialized(t *testing.T, policy domain.Policy, cfg domain.ChainConfig) (*Account, domain.SessionKeyPair) {
	t.Helper()

	provider := NewProvider()
	pair := newPair(t)
	permission, err := provider.ApproveSession(context.Background(), newOwner(t), pair.Address, cfg, policy)
	require.NoError(t, err)
	account, err := provider.DeserializePermission(context.Background(), pair, cfg, permission.Serialized)
	require.NoError(t, err)

	return account.(*Account), pair
}

func TestAccountEncodeCallsEnforcesScopedPolicy(t *testing.T) {
	cfg := chain(t, domain.ChainBase)
	usdc, err := cfg.Token(domain.TokenUSDC)
	require.NoError(t, err)
	policy := domain.ScopedPolicyFor(cfg)
	policy.SpendLimits = map[common.Address]*big.Int{usdc.Address: big.NewInt(1_000_000)}
	account, _ := deserialized(t, policy, cfg)

	withinLimit, err := contracts.PackApprove(cfg.LendingPool, big.NewInt(1_000_000))
	require.NoError(t, err)
	overLimit, err := contracts.PackApprove(cfg.LendingPool, big.NewInt(1_000_001))
	require.NoError(t, err)

	single, err := account.EncodeCalls([]domain.Call{{To: usdc.Address, Data: withinLimit}})
	require.NoError(t, err)
	assert.Equal(t, contracts.Kernel.Methods["execute"].ID, single[:4])

	batch, err := account.EncodeCalls([]domain.Call{{To: usdc.Address, Data: withinLimit}, {To: cfg.LendingPool, Data: []byte{0x01}}})
	require.NoError(t, err)
	assert.Equal(t, contracts.Kernel.Methods["executeBatch"].ID, batch[:4])

	_, err = account.EncodeCalls([]domain.Call{{To: usdc.Address, Data: overLimit}})
	assert.ErrorIs(t, err, domain.ErrPolicyViolation)

	_, err = account.EncodeCalls([]domain.Call{{To: common.HexToAddress("0xbeef"), Data: []byte{0x01}}})
	assert.ErrorIs(t, err, domain.ErrPolicyViolation)

	transfer, err := contracts.PackTransfer(common.HexToAddress("0x5742"), big.NewInt(1))
	require.NoError(t, err)
	_, err = account.EncodeCalls([]domain.Call{{To: usdc.Address, Data: transfer}})
	assert.ErrorIs(t, err, domain.ErrPolicyViolation)

	strangerApproval, err := contracts.PackApprove(common.HexToAddress("0x5742"), big.NewInt(1))
	require.NoError(t, err)
	_, err = account.EncodeCalls([]domain.Call{{To: usdc.Address, Data: strangerApproval}})
	assert.ErrorIs(t, err, domain.ErrPolicyViolation)

	bridgeApproval, err := contracts.PackApprove(cfg.SpokePool, big.NewInt(1))
	require.NoError(t, err)
	_, err = account.EncodeCalls([]domain.Call{{To: usdc.Address, Data: bridgeApproval}})
	assert.NoError(t, err)

	_, err = account.EncodeCalls(nil)
	assert.Error(t, err)
}

func TestAccountSignatureLayout(t *testing.T) {
	cfg := chain(t, domain.ChainArbitrum)
	account, pair := deserialized(t, domain.SudoPolicy(), cfg)
	hash := crypto.Keccak256Hash([]byte("user operation"))

	sig, err := account.SignUserOpHash(hash)
	require.NoError(t, err)

	prefixLen := len(enableModePrefix) + common.AddressLength + common.HashLength + crypto.SignatureLength
	require.Len(t, sig, prefixLen+crypto.SignatureLength)
	assert.Equal(t, enableModePrefix, sig[:4])
	assert.Equal(t, pair.Address.Bytes(), sig[4:24])
	assert.Len(t, account.DummySignature(), len(sig))

	sessionSig := append([]byte(nil), sig[prefixLen:]...)
	sessionSig[64] -= 27
	pub, err := crypto.SigToPub(accounts.TextHash(hash.Bytes()), sessionSig)
	require.NoError(t, err)
	assert.Equal(t, pair.Address, crypto.PubkeyToAddress(*pub))
}

func TestAccountInitCodeTargetsFactory(t *testing.T) {
	cfg := chain(t, domain.ChainOptimism)
	account, _ := deserialized(t, domain.SudoPolicy(), cfg)

	initCode, err := account.InitCode()
	require.NoError(t, err)

	assert.Equal(t, cfg.AccountFactory.Bytes(), initCode[:20])
	assert.Equal(t, contracts.KernelFactory.Methods["createAccount"].ID, initCode[20:24])
}
