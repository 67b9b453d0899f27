package ports

import (
	"context"
	"math/big"

	"github.com/bnema/sessionkeys/internal/domain"
	"github.com/ethereum/go-ethereum/common"
)

type ChainReader interface {
	TokenBalance(ctx context.Context, token, account common.Address) (*big.Int, error)
	TokenDecimals(ctx context.Context, token common.Address) (uint8, error)
	Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error)
}

// CallSubmitter submits calls as one batched operation and returns the
// transaction hash once it is confirmed on-chain. A submission that was sent
// but not confirmed returns a non-zero hash along with the error.
type CallSubmitter interface {
	Submit(ctx context.Context, calls []domain.Call) (common.Hash, error)
}

type ChainConnection interface {
	ChainReader
	CallSubmitter
	Close()
}

type ChainBackend interface {
	Connect(ctx context.Context, chain domain.ChainConfig, account SmartAccount) (ChainConnection, error)
}
