// Package sealed encrypts values with XChaCha20-Poly1305 before handing
// them to another secret store. The secret key is bound as associated data,
// so a ciphertext copied to a different key does not open.
package sealed

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/sessionkeys/internal/ports"
	"golang.org/x/crypto/chacha20poly1305"
)

const envelopePrefix = "xc20p1:"

var ErrInvalidSealingKey = errors.New("sealing key must be 32 bytes, hex or base64 encoded")

type Store struct {
	inner ports.SecretStore
	aead  cipher.AEAD
}

var _ ports.SecretStore = (*Store)(nil)

func NewStore(inner ports.SecretStore, key []byte) (*Store, error) {
	if inner == nil {
		return nil, errors.New("inner secret store is nil")
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSealingKey, err)
	}

	return &Store{inner: inner, aead: aead}, nil
}

// ParseKey accepts a 32-byte key as hex (optionally 0x-prefixed) or base64.
func ParseKey(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if decoded, err := hex.DecodeString(strings.TrimPrefix(raw, "0x")); err == nil && len(decoded) == chacha20poly1305.KeySize {
		return decoded, nil
	}
	if decoded, err := base64.StdEncoding.DecodeString(raw); err == nil && len(decoded) == chacha20poly1305.KeySize {
		return decoded, nil
	}

	return nil, ErrInvalidSealingKey
}

func (s *Store) Put(ctx context.Context, key string, value string) error {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(value)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}
	sealed := s.aead.Seal(nonce, nonce, []byte(value), []byte(key))

	return s.inner.Put(ctx, key, envelopePrefix+base64.RawStdEncoding.EncodeToString(sealed))
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	envelope, err := s.inner.Get(ctx, key)
	if err != nil {
		return "", err
	}

	encoded, ok := strings.CutPrefix(envelope, envelopePrefix)
	if !ok {
		return "", fmt.Errorf("secret %q is not sealed", key)
	}
	raw, err := base64.RawStdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decode sealed secret %q: %w", key, err)
	}
	if len(raw) < s.aead.NonceSize()+s.aead.Overhead() {
		return "", fmt.Errorf("sealed secret %q is truncated", key)
	}

	nonce, ciphertext := raw[:s.aead.NonceSize()], raw[s.aead.NonceSize():]
	plain, err := s.aead.Open(nil, nonce, ciphertext, []byte(key))
	if err != nil {
		return "", fmt.Errorf("open sealed secret %q: %w", key, err)
	}

	return string(plain), nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}
