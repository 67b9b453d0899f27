package domain

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

type PolicyKind string

const (
	PolicySudo   PolicyKind = "sudo"
	PolicyScoped PolicyKind = "scoped"
)

func ParsePolicyKind(raw string) (PolicyKind, error) {
	switch PolicyKind(strings.ToLower(strings.TrimSpace(raw))) {
	case "", PolicyScoped:
		return PolicyScoped, nil
	case PolicySudo:
		return PolicySudo, nil
	default:
		return "", fmt.Errorf("unknown policy %q", raw)
	}
}

// Policy constrains what a session key may do on one chain. A scoped policy
// only permits zero-value calls to AllowedTargets, and caps approve/transfer
// amounts for tokens listed in SpendLimits. When Spenders is set, targets
// outside it only accept an approve toward one of the Spenders.
type Policy struct {
	Kind           PolicyKind
	AllowedTargets []common.Address
	Spenders       []common.Address
	SpendLimits    map[common.Address]*big.Int
	ValidUntil     uint64
}

// TokenMovement is a decoded ERC-20 approve or transfer.
type TokenMovement struct {
	Approve      bool
	Counterparty common.Address
	Amount       *big.Int
}

func SudoPolicy() Policy {
	return Policy{Kind: PolicySudo}
}

// ScopedPolicyFor allows the chain's tokens and protocol contracts, with
// token calls limited to approvals for the bridge and the lending pool.
func ScopedPolicyFor(cfg ChainConfig) Policy {
	var spenders []common.Address
	for _, protocol := range []common.Address{cfg.SpokePool, cfg.LendingPool} {
		if protocol != (common.Address{}) {
			spenders = append(spenders, protocol)
		}
	}

	return Policy{Kind: PolicyScoped, AllowedTargets: cfg.ContractTargets(), Spenders: spenders}
}

// PolicyFor builds the policy of the given kind for a chain.
func PolicyFor(kind PolicyKind, cfg ChainConfig) Policy {
	if kind == PolicySudo {
		return SudoPolicy()
	}

	return ScopedPolicyFor(cfg)
}

func (p Policy) Validate() error {
	switch p.Kind {
	case PolicySudo:
		if len(p.AllowedTargets) > 0 || len(p.Spenders) > 0 || len(p.SpendLimits) > 0 {
			return errors.New("sudo policy cannot carry restrictions")
		}
		return nil
	case PolicyScoped:
		if len(p.AllowedTargets) == 0 {
			return errors.New("scoped policy requires at least one allowed target")
		}
		for _, spender := range p.Spenders {
			if !p.AllowsTarget(spender) {
				return fmt.Errorf("spender %s is not an allowed target", spender.Hex())
			}
		}
		for token, limit := range p.SpendLimits {
			if limit == nil || limit.Sign() < 0 {
				return fmt.Errorf("invalid spend limit for %s", token.Hex())
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown policy kind %q", p.Kind)
	}
}

func (p Policy) AllowsTarget(target common.Address) bool {
	if p.Kind == PolicySudo {
		return true
	}
	for _, allowed := range p.AllowedTargets {
		if allowed == target {
			return true
		}
	}

	return false
}

func (p Policy) isSpender(address common.Address) bool {
	for _, spender := range p.Spenders {
		if spender == address {
			return true
		}
	}

	return false
}

// CheckCall applies the policy to one call. movement is the decoded
// approve/transfer carried by the call, nil for other calls.
func (p Policy) CheckCall(call Call, movement *TokenMovement) error {
	if p.Kind == PolicySudo {
		return nil
	}
	if !p.AllowsTarget(call.To) {
		return fmt.Errorf("%w: target %s not allowed", ErrPolicyViolation, call.To.Hex())
	}
	if call.Value != nil && call.Value.Sign() != 0 {
		return fmt.Errorf("%w: native value transfers not allowed", ErrPolicyViolation)
	}
	if len(p.Spenders) > 0 && !p.isSpender(call.To) {
		if movement == nil || !movement.Approve || !p.isSpender(movement.Counterparty) {
			return fmt.Errorf("%w: %s only accepts approvals for protocol contracts", ErrPolicyViolation, call.To.Hex())
		}
	}
	if movement == nil || movement.Amount == nil {
		return nil
	}
	if limit, ok := p.SpendLimits[call.To]; ok && movement.Amount.Cmp(limit) > 0 {
		return fmt.Errorf("%w: amount %s exceeds limit %s for %s", ErrPolicyViolation, movement.Amount, limit, call.To.Hex())
	}

	return nil
}

// Call is one entry of a batched smart-account execution.
type Call struct {
	To    common.Address
	Value *big.Int
	Data  []byte
}
