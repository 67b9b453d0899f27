package local

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/sessionkeys/internal/domain"
	"github.com/bnema/sessionkeys/internal/ports"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer is an owner signer over an in-memory secp256k1 key.
type Signer struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

func NewSigner(key *ecdsa.PrivateKey) *Signer {
	return &Signer{key: key, address: crypto.PubkeyToAddress(key.PublicKey)}
}

func (s *Signer) Address() common.Address {
	return s.address
}

// SignMessage returns an EIP-191 personal signature with v in {27, 28}.
func (s *Signer) SignMessage(ctx context.Context, message []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sig, err := crypto.Sign(accounts.TextHash(message), s.key)
	if err != nil {
		return nil, fmt.Errorf("sign message: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27

	return sig, nil
}

// Custodian keeps owner keys in a secret store, one per (org, address).
type Custodian struct {
	store ports.SecretStore
}

func NewCustodian(store ports.SecretStore) *Custodian {
	return &Custodian{store: store}
}

func OwnerKeyRef(orgID string, address common.Address) string {
	return "owners/" + orgID + "/" + strings.ToLower(address.Hex())
}

// Create generates and stores a new owner key for orgID.
func (c *Custodian) Create(ctx context.Context, orgID string) (common.Address, error) {
	if err := domain.UserKey(orgID).Validate(); err != nil {
		return common.Address{}, fmt.Errorf("org id: %w", err)
	}

	key, err := crypto.GenerateKey()
	if err != nil {
		return common.Address{}, fmt.Errorf("generate owner key: %w", err)
	}
	address := crypto.PubkeyToAddress(key.PublicKey)

	if err := c.store.Put(ctx, OwnerKeyRef(orgID, address), fmt.Sprintf("%x", crypto.FromECDSA(key))); err != nil {
		return common.Address{}, fmt.Errorf("store owner key: %w", err)
	}

	return address, nil
}

func (c *Custodian) SignerFor(ctx context.Context, orgID string, address common.Address) (ports.OwnerSigner, error) {
	if err := domain.UserKey(orgID).Validate(); err != nil {
		return nil, fmt.Errorf("org id: %w", err)
	}

	raw, err := c.store.Get(ctx, OwnerKeyRef(orgID, address))
	if err != nil {
		if errors.Is(err, domain.ErrSecretNotFound) {
			return nil, fmt.Errorf("%w: no owner key for %s in %s", domain.ErrDelegationFailed, address.Hex(), orgID)
		}
		return nil, fmt.Errorf("load owner key: %w", err)
	}

	key, err := crypto.HexToECDSA(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("decode owner key: %w", err)
	}
	signer := NewSigner(key)
	if signer.Address() != address {
		return nil, fmt.Errorf("owner key for %s derives %s", address.Hex(), signer.Address().Hex())
	}

	return signer, nil
}
