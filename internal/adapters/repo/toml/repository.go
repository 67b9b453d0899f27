// Package toml persists delegation records in a TOML file. Session private
// keys live in a ports.SecretStore and the file only holds references.
package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bnema/sessionkeys/internal/domain"
	"github.com/bnema/sessionkeys/internal/ports"
	"github.com/ethereum/go-ethereum/common"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	configName          = "config"
	configType          = "toml"
	DelegationsPathKey  = "delegations.path"
	delegationsFileMode = 0o600
	delegationsDirMode  = 0o700
	ConfigDir           = ".sessionkeys"
	delegationsFile     = "delegations.toml"
	tempFilePattern     = ".delegations-*.toml.tmp"
)

type Repository struct {
	path    string
	secrets ports.SecretStore
	clock   ports.Clock
	mu      *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.DelegationStore = (*Repository)(nil)

func NewRepository(cfg *viper.Viper, secrets ports.SecretStore, clock ports.Clock) (*Repository, error) {
	if secrets == nil {
		return nil, errors.New("secret store is nil")
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if cfg == nil {
		cfg = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(filepath.Join(homeDir, ConfigDir))
	cfg.SetDefault(DelegationsPathKey, filepath.Join(homeDir, ConfigDir, delegationsFile))

	err = cfg.ReadInConfig()
	if err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	path := cfg.GetString(DelegationsPathKey)
	if path == "" {
		return nil, errors.New("delegations path is empty")
	}
	path, err = normalizePath(path)
	if err != nil {
		return nil, err
	}

	return &Repository{path: path, secrets: secrets, clock: clock, mu: lockForPath(path)}, nil
}

// Save stores the private key first, then replaces the user's active record
// for the chain. If the file write fails the new key is deleted again.
func (r *Repository) Save(ctx context.Context, userKey domain.UserKey, delegation domain.StoredDelegation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := userKey.Validate(); err != nil {
		return err
	}
	if delegation.Status == "" {
		delegation.Status = domain.DelegationActive
	}
	if err := delegation.Validate(); err != nil {
		return fmt.Errorf("invalid delegation: %w", err)
	}
	if delegation.Status == domain.DelegationActive {
		if _, err := delegation.KeyPair(); err != nil {
			return fmt.Errorf("invalid delegation: %w", err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	ref := domain.SessionKeyRef(userKey, delegation.ChainID, delegation.SessionKeyAddress)
	if delegation.Status == domain.DelegationActive {
		if err := checkSessionKey(file, userKey, delegation.SessionKeyAddress); err != nil {
			return err
		}
		if err := r.secrets.Put(ctx, ref, delegation.SessionKeyPrivateKey); err != nil {
			return fmt.Errorf("store session key: %w", err)
		}
	}

	encoded := toSchema(userKey, delegation, ref, r.clock.Now())
	kept := file.Delegations[:0]
	for _, entry := range file.Delegations {
		if entry.UserKey == string(userKey) && entry.ChainID == uint64(delegation.ChainID) && entry.Status == string(domain.DelegationActive) {
			continue
		}
		kept = append(kept, entry)
	}
	file.Delegations = append(kept, encoded)

	if err := ctx.Err(); err != nil {
		return r.compensate(ctx, delegation, ref, err)
	}
	if err := r.writeSchema(file); err != nil {
		return r.compensate(ctx, delegation, ref, err)
	}

	return nil
}

// checkSessionKey rejects a session key that differs from the one the
// user's active records already use.
func checkSessionKey(file fileSchema, userKey domain.UserKey, sessionKey common.Address) error {
	for _, entry := range file.Delegations {
		if entry.UserKey != string(userKey) || entry.Status != string(domain.DelegationActive) {
			continue
		}
		if current := common.HexToAddress(entry.SessionKeyAddress); current != sessionKey {
			return fmt.Errorf("%w: user %s uses %s on chain %d", domain.ErrSessionKeyConflict, userKey, current.Hex(), entry.ChainID)
		}
	}

	return nil
}

func (r *Repository) compensate(ctx context.Context, delegation domain.StoredDelegation, ref string, cause error) error {
	if delegation.Status != domain.DelegationActive {
		return cause
	}
	if err := r.secrets.Delete(context.WithoutCancel(ctx), ref); err != nil {
		return errors.Join(cause, fmt.Errorf("rollback session key: %w", err))
	}

	return cause
}

// Get returns the user's active delegations with their private keys loaded.
// A record whose key is missing from the secret store comes back without
// key material, which makes it unusable rather than failing the whole read.
func (r *Repository) Get(ctx context.Context, userKey domain.UserKey) ([]domain.StoredDelegation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	file, err := r.readSchema()
	r.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	var active []domain.StoredDelegation
	for _, entry := range file.Delegations {
		if entry.UserKey != string(userKey) || entry.Status != string(domain.DelegationActive) {
			continue
		}
		delegation := fromSchema(entry)
		if entry.SessionKeyRef != "" {
			secret, err := r.secrets.Get(ctx, entry.SessionKeyRef)
			switch {
			case err == nil:
				delegation.SessionKeyPrivateKey = secret
			case !errors.Is(err, domain.ErrSecretNotFound):
				return nil, fmt.Errorf("load session key for chain %d: %w", entry.ChainID, err)
			}
		}
		active = append(active, delegation)
	}
	if len(active) == 0 {
		return nil, fmt.Errorf("%w: user %s", domain.ErrDelegationNotFound, userKey)
	}

	return active, nil
}

// Revoke tombstones every active record of the user and deletes the
// referenced private keys.
func (r *Repository) Revoke(ctx context.Context, userKey domain.UserKey) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	now := formatTime(r.clock.Now())
	var refs []string
	revoked := 0
	for i := range file.Delegations {
		entry := &file.Delegations[i]
		if entry.UserKey != string(userKey) || entry.Status != string(domain.DelegationActive) {
			continue
		}
		revoked++
		if entry.SessionKeyRef != "" {
			refs = append(refs, entry.SessionKeyRef)
		}
		entry.Status = string(domain.DelegationRevoked)
		entry.SerializedPermission = ""
		entry.SessionKeyRef = ""
		entry.RevokedAt = now
	}
	if revoked == 0 {
		return fmt.Errorf("%w: user %s", domain.ErrDelegationNotFound, userKey)
	}

	if err := r.writeSchema(file); err != nil {
		return err
	}

	var errs []error
	for _, ref := range refs {
		if err := r.secrets.Delete(ctx, ref); err != nil {
			errs = append(errs, fmt.Errorf("delete session key %s: %w", ref, err))
		}
	}

	return errors.Join(errs...)
}

func (r *Repository) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileSchema{Version: currentSchemaVersion}, nil
		}
		return fileSchema{}, fmt.Errorf("read delegations file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("decode delegations file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func (r *Repository) writeSchema(file fileSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(r.path), delegationsDirMode); err != nil {
		return fmt.Errorf("create delegations directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode delegations file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(r.path), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp delegations file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if err := tempFile.Chmod(delegationsFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp delegations file: %w", err)
	}
	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp delegations file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp delegations file: %w", err)
	}
	if err := os.Rename(tempName, r.path); err != nil {
		return fmt.Errorf("replace delegations file: %w", err)
	}
	cleanup = false

	return nil
}

func normalizePath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve delegations path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

func toSchema(userKey domain.UserKey, d domain.StoredDelegation, ref string, now time.Time) delegationSchema {
	created := d.CreatedAt
	if created.IsZero() {
		created = now
	}
	entry := delegationSchema{
		UserKey:              string(userKey),
		ChainID:              uint64(d.ChainID),
		SessionKeyAddress:    d.SessionKeyAddress.Hex(),
		SerializedPermission: d.SerializedPermission,
		SmartAccountAddress:  d.SmartAccountAddress.Hex(),
		Status:               string(d.Status),
		CreatedAt:            formatTime(created),
	}
	if d.UserAddress != (common.Address{}) {
		entry.UserAddress = d.UserAddress.Hex()
	}
	if d.Status == domain.DelegationActive {
		entry.SessionKeyRef = ref
	}
	if d.RevokedAt != nil {
		entry.RevokedAt = formatTime(*d.RevokedAt)
	}

	return entry
}

func fromSchema(entry delegationSchema) domain.StoredDelegation {
	d := domain.StoredDelegation{
		ChainID:              domain.ChainID(entry.ChainID),
		SessionKeyAddress:    common.HexToAddress(entry.SessionKeyAddress),
		SerializedPermission: entry.SerializedPermission,
		SmartAccountAddress:  common.HexToAddress(entry.SmartAccountAddress),
		Status:               domain.DelegationStatus(entry.Status),
		CreatedAt:            parseTime(entry.CreatedAt),
	}
	if entry.UserAddress != "" {
		d.UserAddress = common.HexToAddress(entry.UserAddress)
	}
	if revoked := parseTime(entry.RevokedAt); !revoked.IsZero() {
		d.RevokedAt = &revoked
	}

	return d
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}

	return parsed
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}

	return value.UTC().Format(time.RFC3339)
}
