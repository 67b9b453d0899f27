package evm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bnema/sessionkeys/internal/adapters/bundler"
	"github.com/bnema/sessionkeys/internal/domain"
	"github.com/bnema/sessionkeys/internal/ports"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

// Endpoints are the per-chain URLs a connection dials. PaymasterURL is
// optional.
type Endpoints struct {
	RPCURL       string `mapstructure:"rpc_url" toml:"rpc_url"`
	BundlerURL   string `mapstructure:"bundler_url" toml:"bundler_url"`
	PaymasterURL string `mapstructure:"paymaster_url" toml:"paymaster_url"`
}

type Backend struct {
	Endpoints       map[domain.ChainID]Endpoints
	ReceiptInterval time.Duration
	ReceiptTimeout  time.Duration
	Logger          *zap.Logger
}

type connection struct {
	*Reader
	*bundler.Submitter
	closers []func()
}

func (c *connection) Close() {
	for _, closeFn := range c.closers {
		closeFn()
	}
}

// Connect dials the chain node and bundler for chain and verifies the node
// reports the expected chain id. Failures wrap domain.ErrNetworkUnavailable.
func (b *Backend) Connect(ctx context.Context, chain domain.ChainConfig, account ports.SmartAccount) (ports.ChainConnection, error) {
	endpoints, ok := b.Endpoints[chain.ID]
	if !ok || endpoints.RPCURL == "" || endpoints.BundlerURL == "" {
		return nil, fmt.Errorf("%w: no rpc or bundler endpoint configured for %s", domain.ErrNetworkUnavailable, chain.Name)
	}

	conn := &connection{}
	fail := func(err error) (ports.ChainConnection, error) {
		conn.Close()
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrNetworkUnavailable, chain.Name, err)
	}

	eth, err := ethclient.DialContext(ctx, endpoints.RPCURL)
	if err != nil {
		return fail(err)
	}
	conn.closers = append(conn.closers, eth.Close)

	reported, err := eth.ChainID(ctx)
	if err != nil {
		return fail(fmt.Errorf("read chain id: %w", err))
	}
	if !reported.IsUint64() || domain.ChainID(reported.Uint64()) != chain.ID {
		return fail(errors.New("node reports chain id " + reported.String()))
	}

	bundlerClient, err := bundler.Dial(ctx, endpoints.BundlerURL)
	if err != nil {
		return fail(err)
	}
	conn.closers = append(conn.closers, bundlerClient.Close)

	submitter := &bundler.Submitter{
		Chain:           eth,
		Bundler:         bundlerClient,
		Account:         account,
		ReceiptInterval: b.ReceiptInterval,
		ReceiptTimeout:  b.ReceiptTimeout,
		Logger:          b.logger().With(zap.Stringer("chain", chain.ID)),
	}
	if endpoints.PaymasterURL != "" {
		paymaster, err := bundler.Dial(ctx, endpoints.PaymasterURL)
		if err != nil {
			return fail(err)
		}
		conn.closers = append(conn.closers, paymaster.Close)
		submitter.Paymaster = paymaster
	}

	conn.Reader = NewReader(eth)
	conn.Submitter = submitter

	return conn, nil
}

func (b *Backend) logger() *zap.Logger {
	if b.Logger != nil {
		return b.Logger
	}

	return zap.NewNop()
}
