package application

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/bnema/sessionkeys/internal/contracts"
	"github.com/bnema/sessionkeys/internal/domain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readyOperations(t *testing.T) (*TokenOperations, *fakeChain) {
	t.Helper()

	env := newTestEnv(t, domain.ChainBase)
	manager := env.manager()
	env.setup(t, manager, domain.ChainBase)
	ops, err := manager.Operations(domain.ChainBase)
	require.NoError(t, err)

	return ops, env.backend.chains[domain.ChainBase]
}

func TestTransferSubmitsSingleTokenCall(t *testing.T) {
	ops, chain := readyOperations(t)
	recipient := common.HexToAddress("0x7e57")

	hash, err := ops.Transfer(context.Background(), domain.TokenUSDC, recipient, big.NewInt(2_500_000))
	require.NoError(t, err)
	assert.Equal(t, common.BigToHash(big.NewInt(1)), hash)

	want, err := contracts.PackTransfer(recipient, big.NewInt(2_500_000))
	require.NoError(t, err)
	submissions := chain.submissions()
	require.Len(t, submissions, 1)
	require.Len(t, submissions[0], 1)
	assert.Equal(t, tokenAddress(t, domain.ChainBase, domain.TokenUSDC), submissions[0][0].To)
	assert.Equal(t, want, submissions[0][0].Data)
}

func TestApproveSubmitsSingleTokenCall(t *testing.T) {
	ops, chain := readyOperations(t)
	spender := common.HexToAddress("0x5907")

	hash, err := ops.Approve(context.Background(), domain.TokenUSDC, spender, big.NewInt(42))
	require.NoError(t, err)
	assert.Equal(t, common.BigToHash(big.NewInt(1)), hash)

	submissions := chain.submissions()
	require.Len(t, submissions, 1)
	require.Len(t, submissions[0], 1)
	amount, ok := contracts.DecodeTokenAmount(submissions[0][0].Data)
	require.True(t, ok)
	assert.Equal(t, int64(42), amount.Int64())
}

func TestTokenCallsSurfaceUnconfirmedOperations(t *testing.T) {
	ops, chain := readyOperations(t)
	notConfirmed := fmt.Errorf("%w: user operation not included after 3m0s", domain.ErrCallNotConfirmed)
	chain.sentErrAt[0] = notConfirmed
	chain.sentErrAt[1] = notConfirmed

	hash, err := ops.Transfer(context.Background(), domain.TokenUSDC, common.HexToAddress("0x7e57"), big.NewInt(1))
	assert.ErrorIs(t, err, domain.ErrCallNotConfirmed)
	assert.Equal(t, common.BigToHash(big.NewInt(1)), hash)

	hash, err = ops.Approve(context.Background(), domain.TokenUSDC, common.HexToAddress("0x5907"), big.NewInt(1))
	assert.ErrorIs(t, err, domain.ErrCallNotConfirmed)
	assert.Equal(t, common.BigToHash(big.NewInt(2)), hash)
}

func TestTokenCallsRejectedBeforeSending(t *testing.T) {
	ops, chain := readyOperations(t)
	chain.submitErrAt[0] = domain.ErrCallNotConfirmed

	hash, err := ops.Transfer(context.Background(), domain.TokenUSDC, common.HexToAddress("0x7e57"), big.NewInt(1))
	assert.ErrorIs(t, err, domain.ErrCallNotConfirmed)
	assert.Equal(t, common.Hash{}, hash)

	_, err = ops.Transfer(context.Background(), "DOGE", common.HexToAddress("0x7e57"), big.NewInt(1))
	assert.ErrorIs(t, err, domain.ErrUnknownToken)

	_, err = ops.Execute(context.Background())
	assert.ErrorContains(t, err, "no calls")
	assert.Empty(t, chain.submissions())
}
