// Package sqlite persists delegations in SQLite. The same database also
// backs a secret table so a single file can hold the whole session state;
// wrap Secrets() with the sealed store to keep keys encrypted at rest.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bnema/sessionkeys/internal/adapters/repo/sqlite/migrations"
	"github.com/bnema/sessionkeys/internal/domain"
	"github.com/bnema/sessionkeys/internal/ports"
	"github.com/ethereum/go-ethereum/common"
	_ "modernc.org/sqlite"
)

const dbDirMode = 0o700

type Store struct {
	db      *sql.DB
	secrets ports.SecretStore
	clock   ports.Clock
}

var _ ports.DelegationStore = (*Store)(nil)

// Open opens or creates the database at path and applies migrations. When
// secrets is nil the store keeps session keys in its own secret table.
func Open(ctx context.Context, path string, secrets ports.SecretStore, clock ports.Clock) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}

	dsn := filepath.Clean(path)
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dsn), dbDirMode); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
		dsn += "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_txlock=immediate"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	store := &Store{db: db, clock: clock}
	store.secrets = secrets
	if store.secrets == nil {
		store.secrets = store.Secrets()
	}

	return store, nil
}

// UseSecrets replaces the secret store, typically with a sealing wrapper
// around Secrets().
func (s *Store) UseSecrets(secrets ports.SecretStore) {
	s.secrets = secrets
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

// Save stores the key, then swaps the chain's active row inside a
// transaction. The new key is deleted again if the transaction fails.
// A session key other than the one the user's active rows use is rejected
// with domain.ErrSessionKeyConflict.
func (s *Store) Save(ctx context.Context, userKey domain.UserKey, delegation domain.StoredDelegation) error {
	if err := userKey.Validate(); err != nil {
		return err
	}
	if delegation.Status == "" {
		delegation.Status = domain.DelegationActive
	}
	if err := delegation.Validate(); err != nil {
		return fmt.Errorf("invalid delegation: %w", err)
	}
	if delegation.Status != domain.DelegationActive {
		return errors.New("only active delegations can be saved")
	}
	if _, err := delegation.KeyPair(); err != nil {
		return fmt.Errorf("invalid delegation: %w", err)
	}

	if err := checkSessionKey(ctx, s.db, userKey, delegation.SessionKeyAddress); err != nil {
		return err
	}

	ref := domain.SessionKeyRef(userKey, delegation.ChainID, delegation.SessionKeyAddress)
	if err := s.secrets.Put(ctx, ref, delegation.SessionKeyPrivateKey); err != nil {
		return fmt.Errorf("store session key: %w", err)
	}

	if err := s.swapActive(ctx, userKey, delegation, ref); err != nil {
		if delErr := s.secrets.Delete(context.WithoutCancel(ctx), ref); delErr != nil {
			return errors.Join(err, fmt.Errorf("rollback session key: %w", delErr))
		}
		return err
	}

	return nil
}

func (s *Store) swapActive(ctx context.Context, userKey domain.UserKey, d domain.StoredDelegation, ref string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := checkSessionKey(ctx, tx, userKey, d.SessionKeyAddress); err != nil {
		return err
	}

	now := s.clock.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`UPDATE delegations SET status = 'revoked', serialized_permission = '', session_key_ref = '', revoked_at = ?
		 WHERE user_key = ? AND chain_id = ? AND status = 'active'`,
		now.UnixMilli(), string(userKey), int64(d.ChainID),
	); err != nil {
		return fmt.Errorf("retire active delegation: %w", err)
	}

	created := d.CreatedAt
	if created.IsZero() {
		created = now
	}
	userAddress := ""
	if d.UserAddress != (common.Address{}) {
		userAddress = d.UserAddress.Hex()
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO delegations (user_key, chain_id, session_key_address, session_key_ref, serialized_permission,
		 smart_account_address, user_address, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 'active', ?)`,
		string(userKey), int64(d.ChainID), d.SessionKeyAddress.Hex(), ref, d.SerializedPermission,
		d.SmartAccountAddress.Hex(), userAddress, created.UTC().UnixMilli(),
	); err != nil {
		return fmt.Errorf("insert delegation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}

	return nil
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func checkSessionKey(ctx context.Context, q rowQuerier, userKey domain.UserKey, sessionKey common.Address) error {
	var current string
	var chainID int64
	err := q.QueryRowContext(ctx,
		`SELECT session_key_address, chain_id FROM delegations
		 WHERE user_key = ? AND status = 'active' AND session_key_address <> ? LIMIT 1`,
		string(userKey), sessionKey.Hex(),
	).Scan(&current, &chainID)
	switch {
	case err == nil:
		return fmt.Errorf("%w: user %s uses %s on chain %d", domain.ErrSessionKeyConflict, userKey, current, chainID)
	case errors.Is(err, sql.ErrNoRows):
		return nil
	default:
		return fmt.Errorf("check session key: %w", err)
	}
}

// Get returns active delegations with private keys loaded. A row whose key
// is gone from the secret store comes back without key material.
func (s *Store) Get(ctx context.Context, userKey domain.UserKey) ([]domain.StoredDelegation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT chain_id, session_key_address, session_key_ref, serialized_permission, smart_account_address,
		 user_address, created_at
		 FROM delegations WHERE user_key = ? AND status = 'active' ORDER BY chain_id`,
		string(userKey),
	)
	if err != nil {
		return nil, fmt.Errorf("query delegations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	type row struct {
		delegation domain.StoredDelegation
		ref        string
	}
	var found []row
	for rows.Next() {
		var (
			chainID, createdAt                                    int64
			sessionAddress, ref, permission, account, userAddress string
		)
		if err := rows.Scan(&chainID, &sessionAddress, &ref, &permission, &account, &userAddress, &createdAt); err != nil {
			return nil, fmt.Errorf("scan delegation: %w", err)
		}
		d := domain.StoredDelegation{
			ChainID:              domain.ChainID(chainID),
			SessionKeyAddress:    common.HexToAddress(sessionAddress),
			SerializedPermission: permission,
			SmartAccountAddress:  common.HexToAddress(account),
			Status:               domain.DelegationActive,
			CreatedAt:            time.UnixMilli(createdAt).UTC(),
		}
		if userAddress != "" {
			d.UserAddress = common.HexToAddress(userAddress)
		}
		found = append(found, row{delegation: d, ref: ref})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate delegations: %w", err)
	}
	_ = rows.Close()

	if len(found) == 0 {
		return nil, fmt.Errorf("%w: user %s", domain.ErrDelegationNotFound, userKey)
	}

	out := make([]domain.StoredDelegation, 0, len(found))
	for _, r := range found {
		if r.ref != "" {
			secret, err := s.secrets.Get(ctx, r.ref)
			switch {
			case err == nil:
				r.delegation.SessionKeyPrivateKey = secret
			case !errors.Is(err, domain.ErrSecretNotFound):
				return nil, fmt.Errorf("load session key for chain %d: %w", r.delegation.ChainID, err)
			}
		}
		out = append(out, r.delegation)
	}

	return out, nil
}

// Revoke tombstones the user's active rows and deletes their keys.
func (s *Store) Revoke(ctx context.Context, userKey domain.UserKey) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin revoke: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx,
		`SELECT session_key_ref FROM delegations WHERE user_key = ? AND status = 'active'`, string(userKey))
	if err != nil {
		return fmt.Errorf("query active delegations: %w", err)
	}
	var refs []string
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scan delegation: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Close(); err != nil {
		return fmt.Errorf("close rows: %w", err)
	}
	if len(refs) == 0 {
		return fmt.Errorf("%w: user %s", domain.ErrDelegationNotFound, userKey)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE delegations SET status = 'revoked', serialized_permission = '', session_key_ref = '', revoked_at = ?
		 WHERE user_key = ? AND status = 'active'`,
		s.clock.Now().UTC().UnixMilli(), string(userKey),
	); err != nil {
		return fmt.Errorf("revoke delegations: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit revoke: %w", err)
	}

	var errs []error
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		if err := s.secrets.Delete(ctx, ref); err != nil {
			errs = append(errs, fmt.Errorf("delete session key %s: %w", ref, err))
		}
	}

	return errors.Join(errs...)
}
