package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/bnema/sessionkeys/internal/domain"
	"github.com/bnema/sessionkeys/internal/ports"
	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const maxRequestBytes = 1 << 16

// Session is the per-user surface the handlers drive. It is satisfied by
// *application.SessionManager.
type Session interface {
	SetupForChains(ctx context.Context, chainIDs []domain.ChainID, owner ports.OwnerSigner, ownerAddress, smartAccountAddress common.Address, userKey domain.UserKey) error
	Restore(ctx context.Context, chainIDs []domain.ChainID, smartAccountAddress common.Address, userKey domain.UserKey) error
	GetStatus() domain.SessionStatus
	Availability(ctx context.Context, chainID domain.ChainID, symbol domain.TokenSymbol) (domain.Availability, error)
	BridgeAndSupply(ctx context.Context, req domain.BridgeAndSupplyRequest) domain.WorkflowResult
	Supply(ctx context.Context, req domain.SupplyRequest) domain.WorkflowResult
	Reset(ctx context.Context, ownerAddress, smartAccountAddress common.Address, userKey domain.UserKey) error
	Close()
}

type SessionFactory func(userKey domain.UserKey) Session

type Server struct {
	Sessions  SessionFactory
	Custodian ports.CustodialSigner
	Gatherer  prometheus.Gatherer
	Logger    *zap.Logger
}

func (s *Server) Handler() http.Handler {
	if s.Logger == nil {
		s.Logger = zap.NewNop()
	}
	if s.Gatherer == nil {
		s.Gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1", func(api chi.Router) {
		api.Post("/sessions", s.setup)
		api.Get("/sessions/{user_key}", s.status)
		api.Delete("/sessions/{user_key}", s.reset)
		api.Post("/availability", s.availability)
		api.Post("/bridge-and-supply", s.bridgeAndSupply)
		api.Post("/supply", s.supply)
	})

	return r
}

type setupRequest struct {
	UserKey             string   `json:"user_key"`
	OrgID               string   `json:"org_id"`
	OwnerAddress        string   `json:"owner_address"`
	SmartAccountAddress string   `json:"smart_account_address"`
	Chains              []string `json:"chains"`
}

type statusResponse struct {
	UserKey           string   `json:"user_key"`
	HasSessionKey     bool     `json:"has_session_key"`
	SessionKeyAddress string   `json:"session_key_address,omitempty"`
	ApprovedChains    []string `json:"approved_chains"`
}

func (s *Server) setup(w http.ResponseWriter, r *http.Request) {
	var req setupRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	owner, err := parseAddress("owner_address", req.OwnerAddress)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	account, err := parseAddress("smart_account_address", req.SmartAccountAddress)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	chains, err := domain.ParseChains(req.Chains)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if s.Custodian == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("no custodial signer configured"))
		return
	}
	orgID := req.OrgID
	if orgID == "" {
		orgID = req.UserKey
	}
	signer, err := s.Custodian.SignerFor(r.Context(), orgID, owner)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	userKey := domain.UserKey(req.UserKey)
	session := s.Sessions(userKey)
	defer session.Close()

	if err := session.SetupForChains(r.Context(), chains, signer, owner, account, userKey); err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusOK, newStatusResponse(userKey, session.GetStatus()))
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	userKey := domain.UserKey(chi.URLParam(r, "user_key"))
	account, err := parseAddress("account", r.URL.Query().Get("account"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	chains, err := queryChains(r)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	session := s.Sessions(userKey)
	defer session.Close()

	if err := session.Restore(r.Context(), chains, account, userKey); err != nil {
		if errors.Is(err, domain.ErrDelegationNotFound) {
			writeJSON(w, http.StatusOK, newStatusResponse(userKey, domain.SessionStatus{}))
			return
		}
		writeError(w, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusOK, newStatusResponse(userKey, session.GetStatus()))
}

func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	userKey := domain.UserKey(chi.URLParam(r, "user_key"))
	account, err := parseAddress("account", r.URL.Query().Get("account"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var owner common.Address
	if raw := r.URL.Query().Get("owner"); raw != "" {
		if owner, err = parseAddress("owner", raw); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	session := s.Sessions(userKey)
	defer session.Close()

	if err := session.Reset(r.Context(), owner, account, userKey); err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type availabilityRequest struct {
	UserKey             string `json:"user_key"`
	SmartAccountAddress string `json:"smart_account_address"`
	Chain               string `json:"chain"`
	Token               string `json:"token"`
}

type availabilityResponse struct {
	Ready          bool     `json:"ready"`
	ApprovedChains []string `json:"approved_chains"`
	Chain          string   `json:"chain"`
	Token          string   `json:"token"`
	Balance        string   `json:"balance,omitempty"`
	BalanceRaw     string   `json:"balance_raw,omitempty"`
}

// availability never fails on a missing session: it reports ready=false.
func (s *Server) availability(w http.ResponseWriter, r *http.Request) {
	var req availabilityRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	account, err := parseAddress("smart_account_address", req.SmartAccountAddress)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	chainID, err := domain.ParseChain(req.Chain)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	userKey := domain.UserKey(req.UserKey)
	session := s.Sessions(userKey)
	defer session.Close()

	if err := session.Restore(r.Context(), []domain.ChainID{chainID}, account, userKey); err != nil && !errors.Is(err, domain.ErrDelegationNotFound) {
		writeError(w, statusFor(err), err)
		return
	}

	availability, err := session.Availability(r.Context(), chainID, domain.TokenSymbol(strings.ToUpper(req.Token)))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	resp := availabilityResponse{
		Ready:          availability.Ready,
		ApprovedChains: chainNames(availability.Chains),
		Chain:          availability.Chain.String(),
		Token:          string(availability.Token),
	}
	if availability.Ready {
		resp.Balance = availability.Balance.Formatted
		resp.BalanceRaw = availability.Balance.Raw.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

type bridgeAndSupplyRequest struct {
	UserKey             string `json:"user_key"`
	SmartAccountAddress string `json:"smart_account_address"`
	SourceChain         string `json:"source_chain"`
	DestinationChain    string `json:"destination_chain"`
	Token               string `json:"token"`
	// Amount is in the token's base units.
	Amount string `json:"amount"`
}

type supplyRequest struct {
	UserKey             string `json:"user_key"`
	SmartAccountAddress string `json:"smart_account_address"`
	Chain               string `json:"chain"`
	Token               string `json:"token"`
	Amount              string `json:"amount"`
}

type workflowResponse struct {
	Success     bool              `json:"success"`
	Outcome     string            `json:"outcome"`
	FailedStage string            `json:"failed_stage,omitempty"`
	Error       string            `json:"error,omitempty"`
	Deposited   string            `json:"deposited,omitempty"`
	StepHashes  map[string]string `json:"step_hashes"`
}

func (s *Server) bridgeAndSupply(w http.ResponseWriter, r *http.Request) {
	var req bridgeAndSupplyRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	account, err := parseAddress("smart_account_address", req.SmartAccountAddress)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	chains, err := domain.ParseChains([]string{req.SourceChain, req.DestinationChain})
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if len(chains) != 2 {
		writeError(w, http.StatusBadRequest, errors.New("source and destination chains must differ"))
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	userKey := domain.UserKey(req.UserKey)
	session := s.Sessions(userKey)
	defer session.Close()

	if err := session.Restore(r.Context(), chains, account, userKey); err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	result := session.BridgeAndSupply(r.Context(), domain.BridgeAndSupplyRequest{
		UserKey:             userKey,
		SmartAccountAddress: account,
		SourceChain:         chains[0],
		DestinationChain:    chains[1],
		Token:               domain.TokenSymbol(strings.ToUpper(req.Token)),
		Amount:              amount,
	})
	s.writeWorkflow(w, r, result)
}

func (s *Server) supply(w http.ResponseWriter, r *http.Request) {
	var req supplyRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	account, err := parseAddress("smart_account_address", req.SmartAccountAddress)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	chainID, err := domain.ParseChain(req.Chain)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	userKey := domain.UserKey(req.UserKey)
	session := s.Sessions(userKey)
	defer session.Close()

	if err := session.Restore(r.Context(), []domain.ChainID{chainID}, account, userKey); err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	result := session.Supply(r.Context(), domain.SupplyRequest{
		UserKey:             userKey,
		SmartAccountAddress: account,
		Chain:               chainID,
		Token:               domain.TokenSymbol(strings.ToUpper(req.Token)),
		Amount:              amount,
	})
	s.writeWorkflow(w, r, result)
}

// writeWorkflow answers 200 on success, 202 while bridged funds are still in
// flight and the mapped error status otherwise. The body always carries the
// hashes collected so far.
func (s *Server) writeWorkflow(w http.ResponseWriter, r *http.Request, result domain.WorkflowResult) {
	resp := workflowResponse{
		Success:     result.Success,
		Outcome:     result.Outcome(),
		FailedStage: string(result.FailedStage),
		Error:       result.Error,
		StepHashes:  map[string]string{},
	}
	if result.Deposited != nil {
		resp.Deposited = result.Deposited.String()
	}
	for name, hash := range map[string]*common.Hash{
		"approval": result.StepHashes.Approval,
		"bridge":   result.StepHashes.Bridge,
		"deposit":  result.StepHashes.Deposit,
	} {
		if hash != nil {
			resp.StepHashes[name] = hash.Hex()
		}
	}

	status := http.StatusOK
	switch resp.Outcome {
	case "pending":
		status = http.StatusAccepted
	case "failed":
		status = statusFor(result.Err)
		s.Logger.Warn("workflow failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("stage", resp.FailedStage),
			zap.String("error", result.Error),
		)
	}

	writeJSON(w, status, resp)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()
		next.ServeHTTP(ww, r)

		s.Logger.Info("request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(started)),
		)
	})
}

func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusInternalServerError
	case errors.Is(err, domain.ErrInvalidUserKey),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrUnknownToken),
		errors.Is(err, domain.ErrUnsupportedChain):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrPolicyViolation):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrDelegationNotFound),
		errors.Is(err, domain.ErrDelegationRevoked):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrSmartAccountMismatch),
		errors.Is(err, domain.ErrSessionNotReady),
		errors.Is(err, domain.ErrSessionKeyConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNetworkUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrArrivalTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, domain.ErrCallNotConfirmed),
		errors.Is(err, domain.ErrDelegationFailed):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func readJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func parseAddress(field, raw string) (common.Address, error) {
	raw = strings.TrimSpace(raw)
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("%s must be a hex address", field)
	}
	return common.HexToAddress(raw), nil
}

func parseAmount(raw string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
	if !ok || amount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: amount must be a positive integer in base units", domain.ErrInvalidAmount)
	}
	return amount, nil
}

func queryChains(r *http.Request) ([]domain.ChainID, error) {
	raw := r.URL.Query().Get("chains")
	if raw == "" {
		return domain.SupportedChains(), nil
	}
	return domain.ParseChains(strings.Split(raw, ","))
}

func newStatusResponse(userKey domain.UserKey, status domain.SessionStatus) statusResponse {
	resp := statusResponse{
		UserKey:        string(userKey),
		HasSessionKey:  status.HasSessionKey,
		ApprovedChains: chainNames(status.ApprovedChains),
	}
	if status.HasSessionKey {
		resp.SessionKeyAddress = status.SessionKeyAddress.Hex()
	}
	return resp
}

func chainNames(ids []domain.ChainID) []string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		names = append(names, id.String())
	}
	return names
}
