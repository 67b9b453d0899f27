package domain

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatUnits(t *testing.T) {
	tests := []struct {
		name     string
		raw      *big.Int
		decimals uint8
		want     string
	}{
		{name: "nil", raw: nil, decimals: 6, want: "0"},
		{name: "zero", raw: big.NewInt(0), decimals: 6, want: "0"},
		{name: "whole", raw: big.NewInt(5_000_000), decimals: 6, want: "5"},
		{name: "fraction", raw: big.NewInt(1_234_500), decimals: 6, want: "1.2345"},
		{name: "below one", raw: big.NewInt(42), decimals: 6, want: "0.000042"},
		{name: "no decimals", raw: big.NewInt(42), decimals: 0, want: "42"},
		{name: "negative", raw: big.NewInt(-1_500_000), decimals: 6, want: "-1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatUnits(tt.raw, tt.decimals))
		})
	}
}

func TestParseUnits(t *testing.T) {
	got, err := ParseUnits("12.5", 6)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(12_500_000), got)

	got, err = ParseUnits(".01", 18)
	require.NoError(t, err)
	assert.Equal(t, "10000000000000000", got.String())

	for _, bad := range []string{"", "abc", "-1", "1.1234567", "+3"} {
		_, err := ParseUnits(bad, 6)
		assert.ErrorIs(t, err, ErrInvalidAmount, bad)
	}
}

func TestBalancesSetCreatesChainMap(t *testing.T) {
	balances := Balances{}
	balances.Set(ChainBase, TokenUSDC, BalanceSlot{Snapshot: NewBalanceSnapshot(big.NewInt(1), 6)})

	slot := balances[ChainBase][TokenUSDC]
	require.True(t, slot.OK())
	assert.Equal(t, "0.000001", slot.Snapshot.Formatted)
}

func TestWorkflowResultOutcome(t *testing.T) {
	assert.Equal(t, "success", WorkflowResult{Success: true}.Outcome())
	assert.Equal(t, "pending", WorkflowResult{FailedStage: FailedArrival}.Outcome())
	assert.Equal(t, "pending", WorkflowResult{FailedStage: FailedBridgeUnconfirmed}.Outcome())
	assert.Equal(t, "failed", WorkflowResult{FailedStage: FailedBridge}.Outcome())
	assert.Equal(t, "failed", WorkflowResult{FailedStage: FailedBalance}.Outcome())
}
