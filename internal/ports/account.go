package ports

import (
	"context"

	"github.com/bnema/sessionkeys/internal/domain"
	"github.com/ethereum/go-ethereum/common"
)

// SmartAccount is a deserialized session-key account bound to one chain.
type SmartAccount interface {
	Address() common.Address
	ChainID() domain.ChainID
	EntryPoint() common.Address
	SessionKey() common.Address
	// InitCode deploys the account when it has no code yet.
	InitCode() ([]byte, error)
	EncodeCalls(calls []domain.Call) ([]byte, error)
	SignUserOpHash(hash common.Hash) ([]byte, error)
	DummySignature() []byte
}

type AccountAbstractionProvider interface {
	AccountAddress(ctx context.Context, owner common.Address, chain domain.ChainConfig) (common.Address, error)
	ApproveSession(ctx context.Context, owner OwnerSigner, sessionKey common.Address, chain domain.ChainConfig, policy domain.Policy) (domain.Permission, error)
	DeserializePermission(ctx context.Context, pair domain.SessionKeyPair, chain domain.ChainConfig, serialized string) (SmartAccount, error)
}
