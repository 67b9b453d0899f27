package toml

import "fmt"

const currentSchemaVersion = 1

type fileSchema struct {
	Version     int                `toml:"version"`
	Delegations []delegationSchema `toml:"delegations"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported delegations schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

// delegationSchema never carries the private key itself; SessionKeyRef
// points into the secret store.
type delegationSchema struct {
	UserKey              string `toml:"user_key"`
	ChainID              uint64 `toml:"chain_id"`
	SessionKeyAddress    string `toml:"session_key_address"`
	SessionKeyRef        string `toml:"session_key_ref,omitempty"`
	SerializedPermission string `toml:"serialized_permission,omitempty"`
	SmartAccountAddress  string `toml:"smart_account_address"`
	UserAddress          string `toml:"user_address,omitempty"`
	Status               string `toml:"status"`
	CreatedAt            string `toml:"created_at,omitempty"`
	RevokedAt            string `toml:"revoked_at,omitempty"`
}
