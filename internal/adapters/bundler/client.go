package bundler

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
)

// Client speaks the bundler and paymaster JSON-RPC methods.
type Client struct {
	rpc *rpc.Client
}

func NewClient(client *rpc.Client) *Client {
	return &Client{rpc: client}
}

func Dial(ctx context.Context, url string) (*Client, error) {
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dial bundler: %w", err)
	}

	return NewClient(client), nil
}

func (c *Client) EstimateGas(ctx context.Context, op UserOperation, entryPoint common.Address) (GasEstimate, error) {
	var estimate GasEstimate
	if err := c.rpc.CallContext(ctx, &estimate, "eth_estimateUserOperationGas", op, entryPoint); err != nil {
		return GasEstimate{}, fmt.Errorf("estimate user operation gas: %w", err)
	}
	if estimate.CallGasLimit == nil || estimate.VerificationGasLimit == nil || estimate.PreVerificationGas == nil {
		return GasEstimate{}, fmt.Errorf("estimate user operation gas: incomplete response")
	}

	return estimate, nil
}

func (c *Client) Sponsor(ctx context.Context, op UserOperation, entryPoint common.Address) (Sponsorship, error) {
	var sponsorship Sponsorship
	if err := c.rpc.CallContext(ctx, &sponsorship, "pm_sponsorUserOperation", op, entryPoint); err != nil {
		return Sponsorship{}, fmt.Errorf("sponsor user operation: %w", err)
	}
	if len(sponsorship.PaymasterAndData) == 0 {
		return Sponsorship{}, fmt.Errorf("sponsor user operation: empty paymasterAndData")
	}

	return sponsorship, nil
}

func (c *Client) Send(ctx context.Context, op UserOperation, entryPoint common.Address) (common.Hash, error) {
	var hash common.Hash
	if err := c.rpc.CallContext(ctx, &hash, "eth_sendUserOperation", op, entryPoint); err != nil {
		return common.Hash{}, fmt.Errorf("send user operation: %w", err)
	}

	return hash, nil
}

// Receipt returns nil without error while the operation is still pending.
func (c *Client) Receipt(ctx context.Context, hash common.Hash) (*Receipt, error) {
	var receipt *Receipt
	if err := c.rpc.CallContext(ctx, &receipt, "eth_getUserOperationReceipt", hash); err != nil {
		return nil, fmt.Errorf("get user operation receipt: %w", err)
	}

	return receipt, nil
}

func (c *Client) Close() {
	c.rpc.Close()
}
