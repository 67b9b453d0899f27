package application

import (
	"context"
	"errors"
	"testing"

	"github.com/bnema/sessionkeys/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func approveFor(t *testing.T, env *testEnv, pair domain.SessionKeyPair, chainID domain.ChainID) domain.Permission {
	t.Helper()

	cfg, err := domain.LookupChain(chainID)
	require.NoError(t, err)
	permission, err := NewDelegationApprover(env.provider).Approve(context.Background(), env.owner, pair.Address, chainID, domain.ScopedPolicyFor(cfg))
	require.NoError(t, err)

	return permission
}

func TestReconstructRoundTrip(t *testing.T) {
	env := newTestEnv(t, domain.ChainBase, domain.ChainArbitrum)
	reconstructor := NewReconstructor(env.provider, env.backend)

	for _, chainID := range []domain.ChainID{domain.ChainBase, domain.ChainArbitrum} {
		pair, err := GenerateSessionKeyPair()
		require.NoError(t, err)

		permission := approveFor(t, env, pair, chainID)
		client, err := reconstructor.Reconstruct(context.Background(), pair, chainID, permission.Serialized)
		require.NoError(t, err)

		assert.Equal(t, permission.AccountAddress, client.Address())
		assert.Equal(t, chainID, client.ChainID)
		assert.Equal(t, chainID, client.Config.ID)
	}
}

func TestReconstructRejectsForeignChainPermission(t *testing.T) {
	env := newTestEnv(t, domain.ChainBase, domain.ChainArbitrum)
	reconstructor := NewReconstructor(env.provider, env.backend)
	pair, err := GenerateSessionKeyPair()
	require.NoError(t, err)

	arbitrumPermission := approveFor(t, env, pair, domain.ChainArbitrum)

	_, err = reconstructor.Reconstruct(context.Background(), pair, domain.ChainBase, arbitrumPermission.Serialized)
	assert.ErrorIs(t, err, domain.ErrDeserializationFailed)
}

func TestReconstructRejectsDifferentKeyPair(t *testing.T) {
	env := newTestEnv(t, domain.ChainBase)
	reconstructor := NewReconstructor(env.provider, env.backend)
	pair, err := GenerateSessionKeyPair()
	require.NoError(t, err)
	other, err := GenerateSessionKeyPair()
	require.NoError(t, err)

	permission := approveFor(t, env, pair, domain.ChainBase)

	_, err = reconstructor.Reconstruct(context.Background(), other, domain.ChainBase, permission.Serialized)
	assert.ErrorIs(t, err, domain.ErrDeserializationFailed)
}

func TestReconstructFailures(t *testing.T) {
	env := newTestEnv(t, domain.ChainBase)
	env.backend.connectErr[domain.ChainBase] = errors.New("connection refused")
	reconstructor := NewReconstructor(env.provider, env.backend)
	pair, err := GenerateSessionKeyPair()
	require.NoError(t, err)
	permission := approveFor(t, env, pair, domain.ChainBase)

	_, err = reconstructor.Reconstruct(context.Background(), pair, domain.ChainID(137), permission.Serialized)
	assert.ErrorIs(t, err, domain.ErrUnsupportedChain)

	_, err = reconstructor.Reconstruct(context.Background(), pair, domain.ChainBase, "garbage")
	assert.ErrorIs(t, err, domain.ErrDeserializationFailed)

	_, err = reconstructor.Reconstruct(context.Background(), pair, domain.ChainBase, "")
	assert.ErrorIs(t, err, domain.ErrDeserializationFailed)

	_, err = reconstructor.Reconstruct(context.Background(), domain.SessionKeyPair{Address: pair.Address}, domain.ChainBase, permission.Serialized)
	assert.ErrorIs(t, err, domain.ErrDeserializationFailed)

	_, err = reconstructor.Reconstruct(context.Background(), pair, domain.ChainBase, permission.Serialized)
	assert.ErrorIs(t, err, domain.ErrNetworkUnavailable)
}

func TestGenerateSessionKeyPairIsUnique(t *testing.T) {
	first, err := GenerateSessionKeyPair()
	require.NoError(t, err)
	second, err := GenerateSessionKeyPair()
	require.NoError(t, err)

	require.NoError(t, first.Validate())
	assert.NotEqual(t, first.Address, second.Address)
}
