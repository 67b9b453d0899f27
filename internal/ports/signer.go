package ports

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// OwnerSigner holds owner authority over a smart account. SignMessage
// produces an EIP-191 personal-message signature.
type OwnerSigner interface {
	Address() common.Address
	SignMessage(ctx context.Context, message []byte) ([]byte, error)
}

type CustodialSigner interface {
	SignerFor(ctx context.Context, orgID string, address common.Address) (OwnerSigner, error)
}
