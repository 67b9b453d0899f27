package domain

import (
	"fmt"
	"math/big"
	"strings"
)

type BalanceSnapshot struct {
	Raw       *big.Int
	Formatted string
	Decimals  uint8
}

func NewBalanceSnapshot(raw *big.Int, decimals uint8) BalanceSnapshot {
	if raw == nil {
		raw = new(big.Int)
	}

	return BalanceSnapshot{Raw: new(big.Int).Set(raw), Formatted: FormatUnits(raw, decimals), Decimals: decimals}
}

// BalanceSlot holds either a snapshot or the error that prevented reading it.
type BalanceSlot struct {
	Snapshot BalanceSnapshot
	Err      error
}

func (s BalanceSlot) OK() bool {
	return s.Err == nil
}

type Balances map[ChainID]map[TokenSymbol]BalanceSlot

func (b Balances) Set(chainID ChainID, symbol TokenSymbol, slot BalanceSlot) {
	if b[chainID] == nil {
		b[chainID] = make(map[TokenSymbol]BalanceSlot)
	}
	b[chainID][symbol] = slot
}

// FormatUnits renders raw as a decimal string with trailing zeros trimmed.
func FormatUnits(raw *big.Int, decimals uint8) string {
	if raw == nil {
		return "0"
	}

	negative := raw.Sign() < 0
	digits := new(big.Int).Abs(raw).String()
	if decimals > 0 {
		if len(digits) <= int(decimals) {
			digits = strings.Repeat("0", int(decimals)-len(digits)+1) + digits
		}
		split := len(digits) - int(decimals)
		whole, fraction := digits[:split], strings.TrimRight(digits[split:], "0")
		digits = whole
		if fraction != "" {
			digits += "." + fraction
		}
	}
	if negative {
		return "-" + digits
	}

	return digits
}

// ParseUnits converts a non-negative decimal string into base units.
func ParseUnits(value string, decimals uint8) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}

	whole, fraction, _ := strings.Cut(trimmed, ".")
	if whole == "" {
		whole = "0"
	}
	if len(fraction) > int(decimals) {
		return nil, fmt.Errorf("%w: %q has more than %d decimals", ErrInvalidAmount, value, decimals)
	}
	fraction += strings.Repeat("0", int(decimals)-len(fraction))

	out, ok := new(big.Int).SetString(whole+fraction, 10)
	if !ok || out.Sign() < 0 || strings.ContainsAny(whole+fraction, "+-") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, value)
	}

	return out, nil
}
