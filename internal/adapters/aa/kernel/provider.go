// Package kernel implements session-key accounts modeled on Kernel smart
// accounts: an ECDSA owner validator plus a session-key validator enabled by
// an owner signature carried in the serialized permission.
package kernel

import (
	"context"
	"fmt"
	"math/big"

	"github.com/bnema/sessionkeys/internal/domain"
	"github.com/bnema/sessionkeys/internal/ports"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

type Provider struct {
	index *big.Int
}

type Option func(*Provider)

// WithIndex selects which of the owner's accounts is used.
func WithIndex(index uint64) Option {
	return func(p *Provider) {
		p.index = new(big.Int).SetUint64(index)
	}
}

func NewProvider(opts ...Option) *Provider {
	p := &Provider{index: new(big.Int)}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

func (p *Provider) AccountAddress(_ context.Context, owner common.Address, chain domain.ChainConfig) (common.Address, error) {
	return counterfactualAddress(chain, owner, p.index)
}

func (p *Provider) ApproveSession(ctx context.Context, owner ports.OwnerSigner, sessionKey common.Address, chain domain.ChainConfig, policy domain.Policy) (domain.Permission, error) {
	if err := policy.Validate(); err != nil {
		return domain.Permission{}, fmt.Errorf("%w: %w", domain.ErrDelegationFailed, err)
	}

	ownerAddress := owner.Address()
	account, err := counterfactualAddress(chain, ownerAddress, p.index)
	if err != nil {
		return domain.Permission{}, err
	}
	policyDigest, err := policyHash(policy)
	if err != nil {
		return domain.Permission{}, err
	}
	digest, err := enableDigest(chain.ID, account, sessionKey, policyDigest)
	if err != nil {
		return domain.Permission{}, err
	}

	signature, err := owner.SignMessage(ctx, digest.Bytes())
	if err != nil {
		return domain.Permission{}, fmt.Errorf("%w: owner signature: %w", domain.ErrDelegationFailed, err)
	}
	recovered, err := recoverPersonalSigner(digest.Bytes(), signature)
	if err != nil {
		return domain.Permission{}, fmt.Errorf("%w: %w", domain.ErrDelegationFailed, err)
	}
	if recovered != ownerAddress {
		return domain.Permission{}, fmt.Errorf("%w: owner signature recovers %s, expected %s", domain.ErrDelegationFailed, recovered.Hex(), ownerAddress.Hex())
	}
	signature = append([]byte(nil), signature...)
	if signature[64] < 27 {
		signature[64] += 27
	}

	serialized, err := encodeBlob(permissionBlob{
		Version:    blobVersion,
		ChainID:    uint64(chain.ID),
		Account:    account,
		Owner:      ownerAddress,
		Index:      (*hexutil.Big)(new(big.Int).Set(p.index)),
		SessionKey: sessionKey,
		Policy:     policyToJSON(policy),
		EnableSig:  signature,
	})
	if err != nil {
		return domain.Permission{}, err
	}

	return domain.Permission{Serialized: serialized, AccountAddress: account}, nil
}

// DeserializePermission verifies the blob against pair and chain and returns
// an account that signs with the session key. Every failure wraps
// domain.ErrDeserializationFailed.
func (p *Provider) DeserializePermission(_ context.Context, pair domain.SessionKeyPair, chain domain.ChainConfig, serialized string) (ports.SmartAccount, error) {
	account, err := p.deserialize(pair, chain, serialized)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDeserializationFailed, err)
	}

	return account, nil
}

func (p *Provider) deserialize(pair domain.SessionKeyPair, chain domain.ChainConfig, serialized string) (*Account, error) {
	if err := pair.Validate(); err != nil {
		return nil, err
	}

	blob, err := decodeBlob(serialized)
	if err != nil {
		return nil, err
	}
	if domain.ChainID(blob.ChainID) != chain.ID {
		return nil, fmt.Errorf("permission is for chain %d, not %s", blob.ChainID, chain.Name)
	}
	if blob.SessionKey != pair.Address {
		return nil, fmt.Errorf("permission was issued to %s", blob.SessionKey.Hex())
	}

	index := blob.Index.ToInt()
	account, err := counterfactualAddress(chain, blob.Owner, index)
	if err != nil {
		return nil, err
	}
	if account != blob.Account {
		return nil, fmt.Errorf("permission account %s does not derive from owner %s", blob.Account.Hex(), blob.Owner.Hex())
	}

	policy := blob.Policy.toDomain()
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	policyDigest, err := policyHash(policy)
	if err != nil {
		return nil, err
	}
	digest, err := enableDigest(chain.ID, account, pair.Address, policyDigest)
	if err != nil {
		return nil, err
	}
	recovered, err := recoverPersonalSigner(digest.Bytes(), blob.EnableSig)
	if err != nil {
		return nil, err
	}
	if recovered != blob.Owner {
		return nil, fmt.Errorf("enable signature recovers %s, not owner %s", recovered.Hex(), blob.Owner.Hex())
	}

	return &Account{
		address:    account,
		owner:      blob.Owner,
		index:      index,
		chain:      chain,
		session:    pair,
		policy:     policy,
		policyHash: policyDigest,
		enableSig:  append([]byte(nil), blob.EnableSig...),
	}, nil
}
