package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bnema/sessionkeys/internal/domain"
	"github.com/bnema/sessionkeys/internal/ports"
	portmocks "github.com/bnema/sessionkeys/internal/ports/mocks"
	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	ownerAddress   = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	accountAddress = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	sessionAddress = common.HexToAddress("0x00000000000000000000000000000000000000c3")
)

type fakeSession struct {
	setupErr    error
	restoreErr  error
	resetErr    error
	status      domain.SessionStatus
	available   domain.Availability
	result      domain.WorkflowResult
	closed      bool
	setupOwner  ports.OwnerSigner
	restored    []domain.ChainID
	bridgeReq   domain.BridgeAndSupplyRequest
	supplyReq   domain.SupplyRequest
	resetOwner  common.Address
	resetTarget common.Address
}

func (f *fakeSession) SetupForChains(_ context.Context, chainIDs []domain.ChainID, owner ports.OwnerSigner, _, _ common.Address, _ domain.UserKey) error {
	f.setupOwner = owner
	if f.setupErr != nil {
		return f.setupErr
	}
	f.status = domain.SessionStatus{HasSessionKey: true, SessionKeyAddress: sessionAddress, ApprovedChains: chainIDs}
	return nil
}

func (f *fakeSession) Restore(_ context.Context, chainIDs []domain.ChainID, _ common.Address, _ domain.UserKey) error {
	f.restored = chainIDs
	return f.restoreErr
}

func (f *fakeSession) GetStatus() domain.SessionStatus { return f.status }

func (f *fakeSession) Availability(_ context.Context, chainID domain.ChainID, symbol domain.TokenSymbol) (domain.Availability, error) {
	available := f.available
	available.Chain, available.Token = chainID, symbol
	return available, nil
}

func (f *fakeSession) BridgeAndSupply(_ context.Context, req domain.BridgeAndSupplyRequest) domain.WorkflowResult {
	f.bridgeReq = req
	return f.result
}

func (f *fakeSession) Supply(_ context.Context, req domain.SupplyRequest) domain.WorkflowResult {
	f.supplyReq = req
	return f.result
}

func (f *fakeSession) Reset(_ context.Context, owner, account common.Address, _ domain.UserKey) error {
	f.resetOwner, f.resetTarget = owner, account
	return f.resetErr
}

func (f *fakeSession) Close() { f.closed = true }

func newTestServer(t *testing.T, session *fakeSession, custodian ports.CustodialSigner) *httptest.Server {
	t.Helper()

	server := &Server{
		Sessions:  func(domain.UserKey) Session { return session },
		Custodian: custodian,
		Gatherer:  prometheus.NewRegistry(),
	}
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)

	return ts
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	req, err := http.NewRequest(method, url, &payload)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	decoded := map[string]any{}
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	}
	return resp, decoded
}

func TestSetupUsesCustodialOwnerSigner(t *testing.T) {
	session := &fakeSession{}
	owner := portmocks.NewMockOwnerSigner(t)
	custodian := portmocks.NewMockCustodialSigner(t)
	custodian.EXPECT().SignerFor(mock.Anything, "org-1", ownerAddress).Return(owner, nil).Once()
	ts := newTestServer(t, session, custodian)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/v1/sessions", map[string]any{
		"user_key":              "user-1",
		"org_id":                "org-1",
		"owner_address":         ownerAddress.Hex(),
		"smart_account_address": accountAddress.Hex(),
		"chains":                []string{"base", "arbitrum"},
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["has_session_key"])
	assert.Equal(t, sessionAddress.Hex(), body["session_key_address"])
	assert.Equal(t, []any{"base", "arbitrum"}, body["approved_chains"])
	assert.Same(t, owner, session.setupOwner)
	assert.True(t, session.closed)
}

func TestSetupMapsErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "mismatch", err: fmt.Errorf("reconstruct: %w", domain.ErrSmartAccountMismatch), want: http.StatusConflict},
		{name: "key conflict", err: fmt.Errorf("save delegation: %w", domain.ErrSessionKeyConflict), want: http.StatusConflict},
		{name: "delegation", err: domain.ErrDelegationFailed, want: http.StatusBadGateway},
		{name: "network", err: domain.ErrNetworkUnavailable, want: http.StatusServiceUnavailable},
		{name: "user key", err: domain.ErrInvalidUserKey, want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			custodian := portmocks.NewMockCustodialSigner(t)
			custodian.EXPECT().SignerFor(mock.Anything, "user-1", ownerAddress).Return(portmocks.NewMockOwnerSigner(t), nil)
			ts := newTestServer(t, &fakeSession{setupErr: tt.err}, custodian)

			resp, body := doJSON(t, http.MethodPost, ts.URL+"/v1/sessions", map[string]any{
				"user_key":              "user-1",
				"owner_address":         ownerAddress.Hex(),
				"smart_account_address": accountAddress.Hex(),
				"chains":                []string{"base"},
			})
			assert.Equal(t, tt.want, resp.StatusCode)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestSetupRejectsBadInput(t *testing.T) {
	ts := newTestServer(t, &fakeSession{}, portmocks.NewMockCustodialSigner(t))

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/v1/sessions", map[string]any{
		"user_key":              "user-1",
		"owner_address":         "nope",
		"smart_account_address": accountAddress.Hex(),
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/v1/sessions", map[string]any{
		"user_key":              "user-1",
		"owner_address":         ownerAddress.Hex(),
		"smart_account_address": accountAddress.Hex(),
		"chains":                []string{"solana"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/v1/sessions", map[string]any{"unexpected": true})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStatusWithoutDelegationIsEmpty(t *testing.T) {
	session := &fakeSession{restoreErr: fmt.Errorf("%w: user-1", domain.ErrDelegationNotFound)}
	ts := newTestServer(t, session, nil)

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/v1/sessions/user-1?account="+accountAddress.Hex(), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["has_session_key"])
	assert.Equal(t, domain.SupportedChains(), session.restored)
}

func TestStatusRestoresRequestedChains(t *testing.T) {
	session := &fakeSession{status: domain.SessionStatus{HasSessionKey: true, SessionKeyAddress: sessionAddress, ApprovedChains: []domain.ChainID{domain.ChainOptimism}}}
	ts := newTestServer(t, session, nil)

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/v1/sessions/user-1?account="+accountAddress.Hex()+"&chains=optimism", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{"optimism"}, body["approved_chains"])
	assert.Equal(t, []domain.ChainID{domain.ChainOptimism}, session.restored)
}

func TestResetRevokes(t *testing.T) {
	session := &fakeSession{}
	ts := newTestServer(t, session, nil)

	resp, _ := doJSON(t, http.MethodDelete, ts.URL+"/v1/sessions/user-1?account="+accountAddress.Hex()+"&owner="+ownerAddress.Hex(), nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, ownerAddress, session.resetOwner)
	assert.Equal(t, accountAddress, session.resetTarget)

	session.resetErr = domain.ErrSmartAccountMismatch
	resp, _ = doJSON(t, http.MethodDelete, ts.URL+"/v1/sessions/user-1?account="+accountAddress.Hex(), nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAvailabilityReportsNotReadyWithoutSession(t *testing.T) {
	session := &fakeSession{restoreErr: domain.ErrDelegationNotFound}
	ts := newTestServer(t, session, nil)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/v1/availability", map[string]any{
		"user_key":              "user-1",
		"smart_account_address": accountAddress.Hex(),
		"chain":                 "base",
		"token":                 "usdc",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["ready"])
	assert.Equal(t, "USDC", body["token"])
	assert.NotContains(t, body, "balance")
}

func TestAvailabilityIncludesBalance(t *testing.T) {
	session := &fakeSession{available: domain.Availability{
		Ready:   true,
		Chains:  []domain.ChainID{domain.ChainBase},
		Balance: domain.NewBalanceSnapshot(big.NewInt(1_500_000), 6),
	}}
	ts := newTestServer(t, session, nil)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/v1/availability", map[string]any{
		"user_key":              "user-1",
		"smart_account_address": accountAddress.Hex(),
		"chain":                 "8453",
		"token":                 "USDC",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["ready"])
	assert.Equal(t, "1.5", body["balance"])
	assert.Equal(t, "1500000", body["balance_raw"])
}

func TestBridgeAndSupplyStatuses(t *testing.T) {
	bridgeHash := common.HexToHash("0xb1")
	depositHash := common.HexToHash("0xd1")

	tests := []struct {
		name    string
		result  domain.WorkflowResult
		want    int
		outcome string
	}{
		{
			name:    "success",
			result:  domain.WorkflowResult{Success: true, StepHashes: domain.StepHashes{Bridge: &bridgeHash, Deposit: &depositHash}, Deposited: big.NewInt(990)},
			want:    http.StatusOK,
			outcome: "success",
		},
		{
			name:    "arrival pending",
			result:  domain.WorkflowResult{FailedStage: domain.FailedArrival, StepHashes: domain.StepHashes{Bridge: &bridgeHash}, Error: "arrival timeout", Err: domain.ErrArrivalTimeout},
			want:    http.StatusAccepted,
			outcome: "pending",
		},
		{
			name:    "insufficient balance",
			result:  domain.WorkflowResult{FailedStage: domain.FailedBalance, Error: "insufficient balance", Err: domain.ErrInsufficientBalance},
			want:    http.StatusUnprocessableEntity,
			outcome: "failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := &fakeSession{result: tt.result}
			ts := newTestServer(t, session, nil)

			resp, body := doJSON(t, http.MethodPost, ts.URL+"/v1/bridge-and-supply", map[string]any{
				"user_key":              "user-1",
				"smart_account_address": accountAddress.Hex(),
				"source_chain":          "base",
				"destination_chain":     "arbitrum",
				"token":                 "usdc",
				"amount":                "1000",
			})
			assert.Equal(t, tt.want, resp.StatusCode)
			assert.Equal(t, tt.outcome, body["outcome"])
			assert.Equal(t, []domain.ChainID{domain.ChainBase, domain.ChainArbitrum}, session.restored)
			assert.Equal(t, domain.TokenUSDC, session.bridgeReq.Token)
			assert.Equal(t, big.NewInt(1000), session.bridgeReq.Amount)

			hashes := body["step_hashes"].(map[string]any)
			if tt.result.StepHashes.Bridge != nil {
				assert.Equal(t, bridgeHash.Hex(), hashes["bridge"])
			}
		})
	}
}

func TestBridgeAndSupplyRejectsBadRequests(t *testing.T) {
	ts := newTestServer(t, &fakeSession{}, nil)

	for name, body := range map[string]map[string]any{
		"same chain":  {"user_key": "u", "smart_account_address": accountAddress.Hex(), "source_chain": "base", "destination_chain": "8453", "token": "USDC", "amount": "1"},
		"zero amount": {"user_key": "u", "smart_account_address": accountAddress.Hex(), "source_chain": "base", "destination_chain": "arbitrum", "token": "USDC", "amount": "0"},
		"decimal":     {"user_key": "u", "smart_account_address": accountAddress.Hex(), "source_chain": "base", "destination_chain": "arbitrum", "token": "USDC", "amount": "1.5"},
	} {
		t.Run(name, func(t *testing.T) {
			resp, _ := doJSON(t, http.MethodPost, ts.URL+"/v1/bridge-and-supply", body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestSupplyRequiresRestoredSession(t *testing.T) {
	session := &fakeSession{restoreErr: fmt.Errorf("%w: chain base", domain.ErrDelegationNotFound)}
	ts := newTestServer(t, session, nil)

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/v1/supply", map[string]any{
		"user_key":              "user-1",
		"smart_account_address": accountAddress.Hex(),
		"chain":                 "base",
		"token":                 "WETH",
		"amount":                "5",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Nil(t, session.supplyReq.Amount)
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t, &fakeSession{}, nil)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain"))
}
