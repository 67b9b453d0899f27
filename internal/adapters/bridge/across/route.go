// Package across quotes and builds Across SpokePool deposits.
package across

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bnema/sessionkeys/internal/contracts"
	"github.com/bnema/sessionkeys/internal/domain"
	"github.com/bnema/sessionkeys/internal/ports"
	"github.com/ethereum/go-ethereum/common"
)

const (
	DefaultBaseURL      = "https://app.across.to"
	suggestedFeesPath   = "/api/suggested-fees"
	maxQuoteBytes       = 1 << 20
	defaultFillWindow   = 6 * time.Hour
	defaultQuoteTimeout = 15 * time.Second
)

var _ ports.BridgeRoute = (*Route)(nil)

type Route struct {
	BaseURL        string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
	// FillWindow is used when the quote carries no fill deadline.
	FillWindow time.Duration
}

type suggestedFees struct {
	TotalRelayFee struct {
		Total string `json:"total"`
	} `json:"totalRelayFee"`
	OutputAmount        string         `json:"outputAmount"`
	Timestamp           flexUint       `json:"timestamp"`
	FillDeadline        flexUint       `json:"fillDeadline"`
	ExclusiveRelayer    common.Address `json:"exclusiveRelayer"`
	ExclusivityDeadline flexUint       `json:"exclusivityDeadline"`
	IsAmountTooLow      bool           `json:"isAmountTooLow"`
}

// flexUint accepts a JSON number or a decimal string.
type flexUint uint64

func (f *flexUint) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("parse %q: %w", raw, err)
	}
	*f = flexUint(v)

	return nil
}

func (r *Route) Spender(source domain.ChainConfig) common.Address {
	return source.SpokePool
}

func (r *Route) Quote(ctx context.Context, req ports.BridgeRequest) (ports.BridgeQuote, error) {
	if req.Amount == nil || req.Amount.Sign() <= 0 {
		return ports.BridgeQuote{}, fmt.Errorf("%w: bridge amount must be positive", domain.ErrInvalidAmount)
	}

	endpoint, err := r.endpoint(req)
	if err != nil {
		return ports.BridgeQuote{}, err
	}

	requestCtx, cancel := r.requestContext(ctx)
	defer cancel()
	httpReq, err := http.NewRequestWithContext(requestCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return ports.BridgeQuote{}, fmt.Errorf("create quote request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := r.httpClient().Do(httpReq)
	if err != nil {
		return ports.BridgeQuote{}, fmt.Errorf("%w: request bridge quote: %w", domain.ErrNetworkUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxQuoteBytes))
	if err != nil {
		return ports.BridgeQuote{}, fmt.Errorf("read bridge quote: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return ports.BridgeQuote{}, fmt.Errorf("request bridge quote: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var fees suggestedFees
	if err := json.Unmarshal(body, &fees); err != nil {
		return ports.BridgeQuote{}, fmt.Errorf("decode bridge quote: %w", err)
	}

	return r.toQuote(req, fees)
}

func (r *Route) toQuote(req ports.BridgeRequest, fees suggestedFees) (ports.BridgeQuote, error) {
	if fees.IsAmountTooLow {
		return ports.BridgeQuote{}, fmt.Errorf("%w: amount below bridge minimum", domain.ErrInvalidAmount)
	}

	totalFee, ok := new(big.Int).SetString(fees.TotalRelayFee.Total, 10)
	if !ok {
		return ports.BridgeQuote{}, fmt.Errorf("decode bridge quote: invalid relay fee %q", fees.TotalRelayFee.Total)
	}

	output := new(big.Int).Sub(req.Amount, totalFee)
	if fees.OutputAmount != "" {
		quoted, ok := new(big.Int).SetString(fees.OutputAmount, 10)
		if !ok {
			return ports.BridgeQuote{}, fmt.Errorf("decode bridge quote: invalid output amount %q", fees.OutputAmount)
		}
		output = quoted
	}
	if output.Sign() <= 0 {
		return ports.BridgeQuote{}, fmt.Errorf("%w: relay fee %s consumes the whole amount", domain.ErrInvalidAmount, totalFee)
	}
	if fees.Timestamp == 0 {
		return ports.BridgeQuote{}, errors.New("decode bridge quote: missing timestamp")
	}

	fillDeadline := uint64(fees.FillDeadline)
	if fillDeadline == 0 {
		window := r.FillWindow
		if window <= 0 {
			window = defaultFillWindow
		}
		fillDeadline = uint64(fees.Timestamp) + uint64(window/time.Second)
	}

	return ports.BridgeQuote{
		OutputAmount:        output,
		TotalFee:            totalFee,
		QuoteTimestamp:      uint32(fees.Timestamp),
		FillDeadline:        uint32(fillDeadline),
		ExclusiveRelayer:    fees.ExclusiveRelayer,
		ExclusivityDeadline: uint32(fees.ExclusivityDeadline),
	}, nil
}

// BuildDeposit encodes a depositV3 on the source SpokePool that delivers
// the quoted output amount to the recipient on the destination chain.
func (r *Route) BuildDeposit(req ports.BridgeRequest, quote ports.BridgeQuote) (domain.Call, error) {
	if req.Source.SpokePool == (common.Address{}) {
		return domain.Call{}, fmt.Errorf("no spoke pool configured on %s", req.Source.Name)
	}
	if quote.OutputAmount == nil {
		return domain.Call{}, errors.New("quote has no output amount")
	}

	data, err := contracts.PackDepositV3(contracts.DepositV3Params{
		Depositor:           req.Depositor,
		Recipient:           req.Recipient,
		InputToken:          req.InputToken.Address,
		OutputToken:         req.OutputToken.Address,
		InputAmount:         req.Amount,
		OutputAmount:        quote.OutputAmount,
		DestinationChainID:  new(big.Int).SetUint64(uint64(req.Destination.ID)),
		ExclusiveRelayer:    quote.ExclusiveRelayer,
		QuoteTimestamp:      quote.QuoteTimestamp,
		FillDeadline:        quote.FillDeadline,
		ExclusivityDeadline: quote.ExclusivityDeadline,
	})
	if err != nil {
		return domain.Call{}, fmt.Errorf("pack depositV3: %w", err)
	}

	return domain.Call{To: req.Source.SpokePool, Data: data}, nil
}

func (r *Route) endpoint(req ports.BridgeRequest) (string, error) {
	base := r.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse bridge api url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", errors.New("bridge api url must use http or https")
	}
	endpoint, err := parsed.Parse(suggestedFeesPath)
	if err != nil {
		return "", fmt.Errorf("parse bridge api path: %w", err)
	}

	query := url.Values{}
	query.Set("inputToken", req.InputToken.Address.Hex())
	query.Set("outputToken", req.OutputToken.Address.Hex())
	query.Set("originChainId", strconv.FormatUint(uint64(req.Source.ID), 10))
	query.Set("destinationChainId", strconv.FormatUint(uint64(req.Destination.ID), 10))
	query.Set("amount", req.Amount.String())
	query.Set("recipient", req.Recipient.Hex())
	endpoint.RawQuery = query.Encode()

	return endpoint.String(), nil
}

func (r *Route) httpClient() *http.Client {
	if r.HTTPClient != nil {
		return r.HTTPClient
	}
	return http.DefaultClient
}

func (r *Route) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}

	timeout := r.RequestTimeout
	if timeout <= 0 {
		timeout = defaultQuoteTimeout
	}

	return context.WithTimeout(ctx, timeout)
}
