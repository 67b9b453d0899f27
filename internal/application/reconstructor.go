package application

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bnema/sessionkeys/internal/domain"
	"github.com/bnema/sessionkeys/internal/ports"
	"github.com/ethereum/go-ethereum/common"
)

// SessionChainClient is the live session-key handle for one chain. Submit is
// serialized so only one nonce-consuming operation is in flight per account.
type SessionChainClient struct {
	ChainID domain.ChainID
	Config  domain.ChainConfig
	Account ports.SmartAccount

	conn ports.ChainConnection
	mu   sync.Mutex
}

func (c *SessionChainClient) Address() common.Address {
	return c.Account.Address()
}

func (c *SessionChainClient) Reader() ports.ChainReader {
	return c.conn
}

func (c *SessionChainClient) Submit(ctx context.Context, calls []domain.Call) (common.Hash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.conn.Submit(ctx, calls)
}

func (c *SessionChainClient) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}

type Reconstructor struct {
	provider ports.AccountAbstractionProvider
	backend  ports.ChainBackend
}

func NewReconstructor(provider ports.AccountAbstractionProvider, backend ports.ChainBackend) *Reconstructor {
	return &Reconstructor{provider: provider, backend: backend}
}

// Reconstruct rebuilds a client from the session private key and a permission
// serialized at approval time. The account address it reports is the source
// of truth for this (user, chain).
func (r *Reconstructor) Reconstruct(ctx context.Context, pair domain.SessionKeyPair, chainID domain.ChainID, serialized string) (*SessionChainClient, error) {
	cfg, err := domain.LookupChain(chainID)
	if err != nil {
		return nil, err
	}
	if err := pair.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDeserializationFailed, err)
	}
	if serialized == "" {
		return nil, fmt.Errorf("%w: empty permission for %s", domain.ErrDeserializationFailed, cfg.Name)
	}

	account, err := r.provider.DeserializePermission(ctx, pair, cfg, serialized)
	if err != nil {
		if errors.Is(err, domain.ErrDeserializationFailed) {
			return nil, fmt.Errorf("deserialize permission on %s: %w", cfg.Name, err)
		}
		return nil, fmt.Errorf("deserialize permission on %s: %w: %w", cfg.Name, domain.ErrDeserializationFailed, err)
	}
	if account.ChainID() != chainID {
		return nil, fmt.Errorf("%w: permission is bound to chain %s, not %s", domain.ErrDeserializationFailed, account.ChainID(), cfg.Name)
	}
	if account.SessionKey() != pair.Address {
		return nil, fmt.Errorf("%w: permission was issued to %s, not %s", domain.ErrDeserializationFailed, account.SessionKey().Hex(), pair.Address.Hex())
	}

	conn, err := r.backend.Connect(ctx, cfg, account)
	if err != nil {
		if errors.Is(err, domain.ErrNetworkUnavailable) {
			return nil, fmt.Errorf("connect %s: %w", cfg.Name, err)
		}
		return nil, fmt.Errorf("connect %s: %w: %w", cfg.Name, domain.ErrNetworkUnavailable, err)
	}

	return &SessionChainClient{ChainID: chainID, Config: cfg, Account: account, conn: conn}, nil
}
