// Package aave builds Aave v3 Pool supply calls.
package aave

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/bnema/sessionkeys/internal/contracts"
	"github.com/bnema/sessionkeys/internal/domain"
	"github.com/bnema/sessionkeys/internal/ports"
	"github.com/ethereum/go-ethereum/common"
)

var _ ports.YieldMarket = Market{}

type Market struct {
	ReferralCode uint16
}

func (Market) Spender(chain domain.ChainConfig) common.Address {
	return chain.LendingPool
}

func (m Market) BuildSupply(chain domain.ChainConfig, token domain.TokenDescriptor, amount *big.Int, onBehalfOf common.Address) (domain.Call, error) {
	if chain.LendingPool == (common.Address{}) {
		return domain.Call{}, fmt.Errorf("no lending pool configured on %s", chain.Name)
	}
	if amount == nil || amount.Sign() <= 0 {
		return domain.Call{}, fmt.Errorf("%w: supply amount must be positive", domain.ErrInvalidAmount)
	}
	if onBehalfOf == (common.Address{}) {
		return domain.Call{}, errors.New("supply beneficiary is required")
	}

	data, err := contracts.PackSupply(token.Address, amount, onBehalfOf, m.ReferralCode)
	if err != nil {
		return domain.Call{}, fmt.Errorf("pack supply: %w", err)
	}

	return domain.Call{To: chain.LendingPool, Data: data}, nil
}
