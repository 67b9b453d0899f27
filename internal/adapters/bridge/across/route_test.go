package across

import (
	"context"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bnema/sessionkeys/internal/contracts"
	"github.com/bnema/sessionkeys/internal/domain"
	"github.com/bnema/sessionkeys/internal/ports"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bridgeRequest(t *testing.T) ports.BridgeRequest {
	t.Helper()

	source, err := domain.LookupChain(domain.ChainBase)
	require.NoError(t, err)
	destination, err := domain.LookupChain(domain.ChainArbitrum)
	require.NoError(t, err)
	input, err := source.Token(domain.TokenUSDC)
	require.NoError(t, err)
	output, err := destination.Token(domain.TokenUSDC)
	require.NoError(t, err)

	account := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	return ports.BridgeRequest{
		Source:      source,
		Destination: destination,
		InputToken:  input,
		OutputToken: output,
		Amount:      big.NewInt(10_000_000),
		Depositor:   account,
		Recipient:   account,
	}
}

func TestQuoteParsesSuggestedFees(t *testing.T) {
	t.Parallel()

	req := bridgeRequest(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, suggestedFeesPath, r.URL.Path)
		query := r.URL.Query()
		assert.Equal(t, "8453", query.Get("originChainId"))
		assert.Equal(t, "42161", query.Get("destinationChainId"))
		assert.Equal(t, "10000000", query.Get("amount"))
		assert.Equal(t, req.InputToken.Address.Hex(), query.Get("inputToken"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"totalRelayFee":{"pct":"1000","total":"12000"},"timestamp":"1700000000","fillDeadline":"1700010000","exclusiveRelayer":"0x0000000000000000000000000000000000000000","exclusivityDeadline":0}`))
	}))
	t.Cleanup(server.Close)

	route := &Route{BaseURL: server.URL, HTTPClient: server.Client()}
	quote, err := route.Quote(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "12000", quote.TotalFee.String())
	assert.Equal(t, "9988000", quote.OutputAmount.String())
	assert.Equal(t, uint32(1_700_000_000), quote.QuoteTimestamp)
	assert.Equal(t, uint32(1_700_010_000), quote.FillDeadline)
}

func TestQuotePrefersExplicitOutputAmountAndDefaultsFillDeadline(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"totalRelayFee":{"total":"12000"},"outputAmount":"9980000","timestamp":1700000000}`))
	}))
	t.Cleanup(server.Close)

	route := &Route{BaseURL: server.URL, HTTPClient: server.Client()}
	quote, err := route.Quote(context.Background(), bridgeRequest(t))
	require.NoError(t, err)

	assert.Equal(t, "9980000", quote.OutputAmount.String())
	assert.Equal(t, uint32(1_700_000_000+6*3600), quote.FillDeadline)
}

func TestQuoteRejectsBadResponses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
		is     error
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{"message":"boom"}`},
		{name: "amount too low", status: http.StatusOK, body: `{"isAmountTooLow":true,"totalRelayFee":{"total":"1"},"timestamp":"1"}`, is: domain.ErrInvalidAmount},
		{name: "fee exceeds amount", status: http.StatusOK, body: `{"totalRelayFee":{"total":"10000000"},"timestamp":"1"}`, is: domain.ErrInvalidAmount},
		{name: "bad fee", status: http.StatusOK, body: `{"totalRelayFee":{"total":"abc"},"timestamp":"1"}`},
		{name: "missing timestamp", status: http.StatusOK, body: `{"totalRelayFee":{"total":"1"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			t.Cleanup(server.Close)

			route := &Route{BaseURL: server.URL, HTTPClient: server.Client()}
			_, err := route.Quote(context.Background(), bridgeRequest(t))
			require.Error(t, err)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}

func TestQuoteRejectsNonPositiveAmount(t *testing.T) {
	t.Parallel()

	req := bridgeRequest(t)
	req.Amount = big.NewInt(0)

	_, err := (&Route{}).Quote(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestBuildDepositTargetsSourceSpokePool(t *testing.T) {
	t.Parallel()

	req := bridgeRequest(t)
	route := &Route{}
	call, err := route.BuildDeposit(req, ports.BridgeQuote{
		OutputAmount:   big.NewInt(9_988_000),
		TotalFee:       big.NewInt(12_000),
		QuoteTimestamp: 1_700_000_000,
		FillDeadline:   1_700_021_600,
	})
	require.NoError(t, err)

	assert.Equal(t, req.Source.SpokePool, call.To)
	assert.Equal(t, req.Source.SpokePool, route.Spender(req.Source))
	assert.Equal(t, contracts.SpokePool.Methods["depositV3"].ID, call.Data[:4])

	args, err := contracts.SpokePool.Methods["depositV3"].Inputs.Unpack(call.Data[4:])
	require.NoError(t, err)
	assert.Equal(t, req.Recipient, args[1])
	assert.Equal(t, "9988000", args[5].(*big.Int).String())
	assert.Equal(t, "42161", args[6].(*big.Int).String())
}
