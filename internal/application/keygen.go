package application

import (
	"fmt"

	"github.com/bnema/sessionkeys/internal/domain"
	"github.com/ethereum/go-ethereum/crypto"
)

// KeyGenerator mints a fresh session key pair.
type KeyGenerator func() (domain.SessionKeyPair, error)

// GenerateSessionKeyPair draws a secp256k1 key from crypto/rand.
func GenerateSessionKeyPair() (domain.SessionKeyPair, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return domain.SessionKeyPair{}, fmt.Errorf("generate session key: %w", err)
	}

	return domain.SessionKeyPair{Address: crypto.PubkeyToAddress(key.PublicKey), PrivateKey: key}, nil
}
