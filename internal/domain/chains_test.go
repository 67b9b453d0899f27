package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupChainUnknownIsUnsupported(t *testing.T) {
	_, err := LookupChain(ChainID(1))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedChain)
}

func TestLookupChainReturnsIndependentCopy(t *testing.T) {
	cfg, err := LookupChain(ChainBase)
	require.NoError(t, err)

	cfg.Tokens[0].Symbol = "MUTATED"

	again, err := LookupChain(ChainBase)
	require.NoError(t, err)
	assert.Equal(t, TokenUSDC, again.Tokens[0].Symbol)
}

func TestParseChain(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    ChainID
		wantErr bool
	}{
		{name: "name", raw: "base", want: ChainBase},
		{name: "name is case-insensitive", raw: " Arbitrum ", want: ChainArbitrum},
		{name: "numeric id", raw: "10", want: ChainOptimism},
		{name: "unknown numeric id", raw: "1", wantErr: true},
		{name: "unknown name", raw: "polygon", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseChain(tt.raw)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnsupportedChain)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseChainsDeduplicates(t *testing.T) {
	got, err := ParseChains([]string{"base", "8453", "optimism"})

	require.NoError(t, err)
	assert.Equal(t, []ChainID{ChainBase, ChainOptimism}, got)
}

func TestChainTokenLookup(t *testing.T) {
	cfg, err := LookupChain(ChainArbitrum)
	require.NoError(t, err)

	usdc, err := cfg.Token("usdc")
	require.NoError(t, err)
	assert.Equal(t, uint8(6), usdc.FallbackDecimals)

	weth, err := cfg.Token(TokenWETH)
	require.NoError(t, err)
	assert.Equal(t, uint8(18), weth.FallbackDecimals)

	_, err = cfg.Token("DAI")
	assert.ErrorIs(t, err, ErrUnknownToken)
}

func TestContractTargetsCoverTokensAndProtocols(t *testing.T) {
	for _, id := range SupportedChains() {
		cfg, err := LookupChain(id)
		require.NoError(t, err)

		targets := cfg.ContractTargets()
		assert.Contains(t, targets, cfg.SpokePool, id.String())
		assert.Contains(t, targets, cfg.LendingPool, id.String())
		for _, token := range cfg.Tokens {
			assert.Contains(t, targets, token.Address, id.String())
		}
	}
}

func TestSupportedChainsSorted(t *testing.T) {
	assert.Equal(t, []ChainID{ChainOptimism, ChainBase, ChainArbitrum}, SupportedChains())
}
