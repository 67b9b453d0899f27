// Package evm reads token state over JSON-RPC and connects session accounts
// to a chain node and bundler.
package evm

import (
	"context"
	"fmt"
	"math/big"

	"github.com/bnema/sessionkeys/internal/contracts"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

// Reader implements ports.ChainReader with eth_call.
type Reader struct {
	caller ethereum.ContractCaller
}

func NewReader(caller ethereum.ContractCaller) *Reader {
	return &Reader{caller: caller}
}

func (r *Reader) TokenBalance(ctx context.Context, token, account common.Address) (*big.Int, error) {
	data, err := contracts.PackBalanceOf(account)
	if err != nil {
		return nil, err
	}
	out, err := r.call(ctx, token, data)
	if err != nil {
		return nil, fmt.Errorf("balanceOf %s: %w", token.Hex(), err)
	}

	return contracts.UnpackUint256(contracts.ERC20, "balanceOf", out)
}

func (r *Reader) TokenDecimals(ctx context.Context, token common.Address) (uint8, error) {
	data, err := contracts.PackDecimals()
	if err != nil {
		return 0, err
	}
	out, err := r.call(ctx, token, data)
	if err != nil {
		return 0, fmt.Errorf("decimals %s: %w", token.Hex(), err)
	}

	return contracts.UnpackDecimals(out)
}

func (r *Reader) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	data, err := contracts.PackAllowance(owner, spender)
	if err != nil {
		return nil, err
	}
	out, err := r.call(ctx, token, data)
	if err != nil {
		return nil, fmt.Errorf("allowance %s: %w", token.Hex(), err)
	}

	return contracts.UnpackUint256(contracts.ERC20, "allowance", out)
}

func (r *Reader) call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	out, err := r.caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty return data, no contract at %s", to.Hex())
	}

	return out, nil
}
