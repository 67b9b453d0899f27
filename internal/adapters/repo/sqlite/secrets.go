package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bnema/sessionkeys/internal/domain"
	"github.com/bnema/sessionkeys/internal/ports"
)

// SecretTable is a ports.SecretStore over the database's secrets table.
type SecretTable struct {
	store *Store
}

var _ ports.SecretStore = SecretTable{}

func (s *Store) Secrets() SecretTable {
	return SecretTable{store: s}
}

func (t SecretTable) Put(ctx context.Context, key string, value string) error {
	if _, err := t.store.db.ExecContext(ctx,
		`INSERT INTO secrets (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, t.store.clock.Now().UTC().UnixMilli(),
	); err != nil {
		return fmt.Errorf("put secret %q: %w", key, err)
	}

	return nil
}

func (t SecretTable) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := t.store.db.QueryRowContext(ctx, `SELECT value FROM secrets WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("secret %q: %w", key, domain.ErrSecretNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get secret %q: %w", key, err)
	}

	return value, nil
}

func (t SecretTable) Delete(ctx context.Context, key string) error {
	if _, err := t.store.db.ExecContext(ctx, `DELETE FROM secrets WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete secret %q: %w", key, err)
	}

	return nil
}
