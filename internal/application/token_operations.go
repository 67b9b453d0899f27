package application

import (
	"context"
	"fmt"
	"math/big"

	"github.com/bnema/sessionkeys/internal/contracts"
	"github.com/bnema/sessionkeys/internal/domain"
	"github.com/ethereum/go-ethereum/common"
)

// TokenOperations resolves token symbols against one chain's registry entry
// and drives reads and calls through its session client.
type TokenOperations struct {
	client *SessionChainClient
}

func NewTokenOperations(client *SessionChainClient) *TokenOperations {
	return &TokenOperations{client: client}
}

func (o *TokenOperations) Token(symbol domain.TokenSymbol) (domain.TokenDescriptor, error) {
	return o.client.Config.Token(symbol)
}

// Decimals prefers the on-chain value and falls back to the registry.
func (o *TokenOperations) Decimals(ctx context.Context, token domain.TokenDescriptor) uint8 {
	decimals, err := o.client.Reader().TokenDecimals(ctx, token.Address)
	if err != nil {
		return token.FallbackDecimals
	}

	return decimals
}

func (o *TokenOperations) BalanceOf(ctx context.Context, symbol domain.TokenSymbol, account common.Address) (domain.BalanceSnapshot, error) {
	token, err := o.Token(symbol)
	if err != nil {
		return domain.BalanceSnapshot{}, err
	}

	raw, err := o.client.Reader().TokenBalance(ctx, token.Address, account)
	if err != nil {
		return domain.BalanceSnapshot{}, fmt.Errorf("read %s balance on %s: %w", token.Symbol, o.client.Config.Name, err)
	}

	return domain.NewBalanceSnapshot(raw, o.Decimals(ctx, token)), nil
}

func (o *TokenOperations) Allowance(ctx context.Context, symbol domain.TokenSymbol, owner, spender common.Address) (*big.Int, error) {
	token, err := o.Token(symbol)
	if err != nil {
		return nil, err
	}

	allowance, err := o.client.Reader().Allowance(ctx, token.Address, owner, spender)
	if err != nil {
		return nil, fmt.Errorf("read %s allowance on %s: %w", token.Symbol, o.client.Config.Name, err)
	}

	return allowance, nil
}

func (o *TokenOperations) ApproveCall(symbol domain.TokenSymbol, spender common.Address, amount *big.Int) (domain.Call, error) {
	token, err := o.Token(symbol)
	if err != nil {
		return domain.Call{}, err
	}
	data, err := contracts.PackApprove(spender, amount)
	if err != nil {
		return domain.Call{}, fmt.Errorf("pack approve: %w", err)
	}

	return domain.Call{To: token.Address, Data: data}, nil
}

func (o *TokenOperations) Approve(ctx context.Context, symbol domain.TokenSymbol, spender common.Address, amount *big.Int) (common.Hash, error) {
	call, err := o.ApproveCall(symbol, spender, amount)
	if err != nil {
		return common.Hash{}, err
	}

	return o.Execute(ctx, call)
}

func (o *TokenOperations) Transfer(ctx context.Context, symbol domain.TokenSymbol, to common.Address, amount *big.Int) (common.Hash, error) {
	token, err := o.Token(symbol)
	if err != nil {
		return common.Hash{}, err
	}
	data, err := contracts.PackTransfer(to, amount)
	if err != nil {
		return common.Hash{}, fmt.Errorf("pack transfer: %w", err)
	}

	return o.Execute(ctx, domain.Call{To: token.Address, Data: data})
}

// Execute submits calls as one batched operation and waits for its receipt.
// The submitter's hash is returned even when err is set.
func (o *TokenOperations) Execute(ctx context.Context, calls ...domain.Call) (common.Hash, error) {
	if len(calls) == 0 {
		return common.Hash{}, fmt.Errorf("execute on %s: no calls", o.client.Config.Name)
	}

	hash, err := o.client.Submit(ctx, calls)
	if err != nil {
		return hash, fmt.Errorf("execute on %s: %w", o.client.Config.Name, err)
	}

	return hash, nil
}
