package ports

import (
	"context"

	"github.com/bnema/sessionkeys/internal/domain"
)

// DelegationStore is the source of truth for whether a user already has a
// delegation. Get returns active records only, one per chain.
type DelegationStore interface {
	Save(ctx context.Context, userKey domain.UserKey, delegation domain.StoredDelegation) error
	Get(ctx context.Context, userKey domain.UserKey) ([]domain.StoredDelegation, error)
	Revoke(ctx context.Context, userKey domain.UserKey) error
}
