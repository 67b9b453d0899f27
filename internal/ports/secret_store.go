package ports

import "context"

// SecretStore holds session and owner private keys. Implementations return
// domain.ErrSecretNotFound for missing keys and treat Delete of a missing key
// as success.
type SecretStore interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}
