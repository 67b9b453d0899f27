package domain

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap/zapcore"
)

// UserKey identifies the owner of a stored delegation. It is used as a
// storage key, so path-like values are rejected.
type UserKey string

func (k UserKey) Validate() error {
	trimmed := strings.TrimSpace(string(k))
	switch {
	case trimmed == "":
		return fmt.Errorf("%w: empty", ErrInvalidUserKey)
	case trimmed != string(k):
		return fmt.Errorf("%w: surrounding whitespace", ErrInvalidUserKey)
	case trimmed == "." || trimmed == "..":
		return fmt.Errorf("%w: %q", ErrInvalidUserKey, trimmed)
	case strings.ContainsAny(trimmed, "/\\"):
		return fmt.Errorf("%w: contains path separator", ErrInvalidUserKey)
	}

	return nil
}

// SessionKeyPair is the delegate identity. String and MarshalLogObject only
// ever expose the address.
type SessionKeyPair struct {
	Address    common.Address
	PrivateKey *ecdsa.PrivateKey
}

func (p SessionKeyPair) Validate() error {
	if p.PrivateKey == nil {
		return errors.New("session key pair has no private key")
	}
	if crypto.PubkeyToAddress(p.PrivateKey.PublicKey) != p.Address {
		return fmt.Errorf("session key pair address %s does not match private key", p.Address.Hex())
	}

	return nil
}

func (p SessionKeyPair) String() string {
	return "session-key(" + p.Address.Hex() + ")"
}

func (p SessionKeyPair) GoString() string {
	return p.String()
}

func (p SessionKeyPair) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("address", p.Address.Hex())
	return nil
}

// PrivateKeyHex encodes the private key for the storage collaborator only.
func (p SessionKeyPair) PrivateKeyHex() string {
	if p.PrivateKey == nil {
		return ""
	}

	return fmt.Sprintf("%x", crypto.FromECDSA(p.PrivateKey))
}

func SessionKeyPairFromHex(raw string) (SessionKeyPair, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(raw), "0x"))
	if err != nil {
		return SessionKeyPair{}, fmt.Errorf("decode session private key: %w", err)
	}

	return SessionKeyPair{Address: crypto.PubkeyToAddress(key.PublicKey), PrivateKey: key}, nil
}

type ChainDelegation struct {
	ChainID              ChainID
	SmartAccountAddress  common.Address
	SerializedPermission string
	IsApproved           bool
}

type DelegationStatus string

const (
	DelegationActive  DelegationStatus = "active"
	DelegationRevoked DelegationStatus = "revoked"
)

// StoredDelegation is the record exchanged with the delegation store, one per
// (user, chain).
type StoredDelegation struct {
	ChainID              ChainID
	SessionKeyAddress    common.Address
	SessionKeyPrivateKey string
	SerializedPermission string
	SmartAccountAddress  common.Address
	UserAddress          common.Address
	Status               DelegationStatus
	CreatedAt            time.Time
	RevokedAt            *time.Time
}

func (d StoredDelegation) Validate() error {
	if _, err := LookupChain(d.ChainID); err != nil {
		return err
	}
	if d.SessionKeyAddress == (common.Address{}) {
		return errors.New("stored delegation missing session key address")
	}
	if d.SmartAccountAddress == (common.Address{}) {
		return errors.New("stored delegation missing smart account address")
	}
	if d.Status == DelegationActive && strings.TrimSpace(d.SerializedPermission) == "" {
		return errors.New("active delegation missing serialized permission")
	}

	return nil
}

// Usable reports whether the record can feed reconstruction.
func (d StoredDelegation) Usable() error {
	if d.Status == DelegationRevoked {
		return fmt.Errorf("%w: chain %s", ErrDelegationRevoked, d.ChainID)
	}
	if strings.TrimSpace(d.SerializedPermission) == "" || strings.TrimSpace(d.SessionKeyPrivateKey) == "" {
		return fmt.Errorf("%w: chain %s has no permission material", ErrDelegationNotFound, d.ChainID)
	}

	return nil
}

func (d StoredDelegation) KeyPair() (SessionKeyPair, error) {
	pair, err := SessionKeyPairFromHex(d.SessionKeyPrivateKey)
	if err != nil {
		return SessionKeyPair{}, err
	}
	if pair.Address != d.SessionKeyAddress {
		return SessionKeyPair{}, fmt.Errorf("%w: stored key does not match session key address %s", ErrDeserializationFailed, d.SessionKeyAddress.Hex())
	}

	return pair, nil
}

type UnifiedSessionKeyData struct {
	KeyPair     SessionKeyPair
	Delegations map[ChainID]ChainDelegation
}

// Permission is what the account-abstraction provider returns on approval.
type Permission struct {
	Serialized     string
	AccountAddress common.Address
}

type SessionStatus struct {
	HasSessionKey     bool
	SessionKeyAddress common.Address
	ApprovedChains    []ChainID
}

// SessionKeyRef is the secret-store key holding one chain's session private
// key. The session address is part of it so a replacement key never
// overwrites the one an existing record still points at.
func SessionKeyRef(userKey UserKey, chainID ChainID, sessionKey common.Address) string {
	return fmt.Sprintf("sessions/%s/%d/%s", userKey, uint64(chainID), strings.ToLower(sessionKey.Hex()))
}
