package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnema/sessionkeys/internal/domain"
	"github.com/bnema/sessionkeys/internal/ports"
	"github.com/ethereum/go-ethereum/common"
)

type DelegationApprover struct {
	provider ports.AccountAbstractionProvider
}

func NewDelegationApprover(provider ports.AccountAbstractionProvider) *DelegationApprover {
	return &DelegationApprover{provider: provider}
}

// Approve authorizes sessionKey to act for the owner's smart account on one
// chain. Only the public address of the session key is involved.
func (a *DelegationApprover) Approve(ctx context.Context, owner ports.OwnerSigner, sessionKey common.Address, chainID domain.ChainID, policy domain.Policy) (domain.Permission, error) {
	cfg, err := domain.LookupChain(chainID)
	if err != nil {
		return domain.Permission{}, err
	}
	if owner == nil {
		return domain.Permission{}, fmt.Errorf("%w: no owner signer", domain.ErrDelegationFailed)
	}
	if sessionKey == (common.Address{}) {
		return domain.Permission{}, fmt.Errorf("%w: empty session key", domain.ErrDelegationFailed)
	}
	if err := policy.Validate(); err != nil {
		return domain.Permission{}, fmt.Errorf("%w: %w", domain.ErrDelegationFailed, err)
	}

	permission, err := a.provider.ApproveSession(ctx, owner, sessionKey, cfg, policy)
	if err != nil {
		if errors.Is(err, domain.ErrDelegationFailed) {
			return domain.Permission{}, fmt.Errorf("approve session on %s: %w", cfg.Name, err)
		}
		return domain.Permission{}, fmt.Errorf("approve session on %s: %w: %w", cfg.Name, domain.ErrDelegationFailed, err)
	}
	if permission.Serialized == "" || permission.AccountAddress == (common.Address{}) {
		return domain.Permission{}, fmt.Errorf("%w: provider returned empty permission for %s", domain.ErrDelegationFailed, cfg.Name)
	}

	return permission, nil
}
