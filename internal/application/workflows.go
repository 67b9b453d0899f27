package application

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/bnema/sessionkeys/internal/domain"
	"github.com/bnema/sessionkeys/internal/ports"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	WorkflowBridgeAndSupply = "bridge_and_supply"
	WorkflowSupply          = "supply"
)

type workflowRun struct {
	logger *zap.Logger
	stage  domain.WorkflowStage
	result domain.WorkflowResult
}

func (m *SessionManager) newRun(workflow string) *workflowRun {
	return &workflowRun{
		logger: m.logger.With(zap.String("workflow", workflow), zap.String("run_id", uuid.NewString())),
		stage:  domain.StageIdle,
	}
}

func (r *workflowRun) enter(stage domain.WorkflowStage) {
	r.logger.Debug("workflow stage", zap.String("from", string(r.stage)), zap.String("to", string(stage)))
	r.stage = stage
}

func (r *workflowRun) fail(stage domain.FailureStage, err error) domain.WorkflowResult {
	r.result.Success = false
	r.result.FailedStage = stage
	r.result.Error = err.Error()
	r.result.Err = err
	r.logger.Warn("workflow failed", zap.String("stage", string(stage)), zap.Error(err))

	return r.result
}

func (r *workflowRun) complete() domain.WorkflowResult {
	r.enter(domain.StageCompleted)
	r.result.Success = true
	r.logger.Info("workflow completed", zap.String("deposited", r.result.Deposited.String()))

	return r.result
}

// BridgeAndSupply bridges req.Amount from the source chain and supplies
// whatever actually arrives on the destination chain. Steps run strictly in
// order; cancellation is honored only between steps. Hashes obtained before
// a failure are always returned.
func (m *SessionManager) BridgeAndSupply(ctx context.Context, req domain.BridgeAndSupplyRequest) domain.WorkflowResult {
	run := m.newRun(WorkflowBridgeAndSupply)
	result := m.bridgeAndSupply(ctx, run, req)
	m.recorder.RecordWorkflow(WorkflowBridgeAndSupply, result)

	return result
}

func (m *SessionManager) bridgeAndSupply(ctx context.Context, run *workflowRun, req domain.BridgeAndSupplyRequest) domain.WorkflowResult {
	if err := validateAmount(req.Amount); err != nil {
		return run.fail(domain.FailedRequest, err)
	}
	if req.SourceChain == req.DestinationChain {
		return run.fail(domain.FailedRequest, fmt.Errorf("source and destination are both %s", req.SourceChain))
	}
	if m.bridge == nil || m.market == nil {
		return run.fail(domain.FailedRequest, errors.New("bridge route and yield market are required"))
	}

	src, err := m.workflowClient(req.SourceChain, req.SmartAccountAddress)
	if err != nil {
		return run.fail(domain.FailedSetup, err)
	}
	dst, err := m.workflowClient(req.DestinationChain, req.SmartAccountAddress)
	if err != nil {
		return run.fail(domain.FailedSetup, err)
	}
	srcOps, dstOps := NewTokenOperations(src), NewTokenOperations(dst)

	inputToken, err := srcOps.Token(req.Token)
	if err != nil {
		return run.fail(domain.FailedRequest, err)
	}
	outputToken, err := dstOps.Token(req.Token)
	if err != nil {
		return run.fail(domain.FailedRequest, err)
	}
	account := req.SmartAccountAddress

	run.enter(domain.StageCheckingBalance)
	balance, err := srcOps.BalanceOf(ctx, inputToken.Symbol, account)
	if err != nil {
		return run.fail(domain.FailedBalance, err)
	}
	if balance.Raw.Cmp(req.Amount) < 0 {
		return run.fail(domain.FailedBalance, fmt.Errorf("%w: %s has %s %s on %s, need %s",
			domain.ErrInsufficientBalance, account.Hex(), balance.Formatted, inputToken.Symbol, src.Config.Name,
			domain.FormatUnits(req.Amount, balance.Decimals)))
	}
	baseline, err := dstOps.BalanceOf(ctx, outputToken.Symbol, account)
	if err != nil {
		return run.fail(domain.FailedBalance, fmt.Errorf("read destination baseline: %w", err))
	}

	if err := ctx.Err(); err != nil {
		return run.fail(domain.FailedBridge, err)
	}
	run.enter(domain.StageBridging)
	bridgeReq := ports.BridgeRequest{
		Source:      src.Config,
		Destination: dst.Config,
		InputToken:  inputToken,
		OutputToken: outputToken,
		Amount:      new(big.Int).Set(req.Amount),
		Depositor:   account,
		Recipient:   account,
	}
	quote, err := m.bridge.Quote(ctx, bridgeReq)
	if err != nil {
		return run.fail(domain.FailedBridge, fmt.Errorf("quote bridge: %w", err))
	}

	spender := m.bridge.Spender(src.Config)
	allowance, err := srcOps.Allowance(ctx, inputToken.Symbol, account, spender)
	if err != nil {
		return run.fail(domain.FailedApproval, err)
	}
	if allowance.Cmp(req.Amount) < 0 {
		hash, err := srcOps.Approve(ctx, inputToken.Symbol, spender, req.Amount)
		run.result.StepHashes.Approval = hashIfSet(hash)
		if err != nil {
			return run.fail(domain.FailedApproval, fmt.Errorf("approve bridge: %w", err))
		}
		run.logger.Info("bridge approval confirmed", zap.Stringer("tx", hash))
	}

	depositCall, err := m.bridge.BuildDeposit(bridgeReq, quote)
	if err != nil {
		return run.fail(domain.FailedBridge, fmt.Errorf("build bridge deposit: %w", err))
	}
	bridgeHash, err := srcOps.Execute(ctx, depositCall)
	run.result.StepHashes.Bridge = hashIfSet(bridgeHash)
	if err != nil {
		stage := domain.FailedBridge
		if run.result.StepHashes.Bridge != nil && !errors.Is(err, domain.ErrCallReverted) {
			stage = domain.FailedBridgeUnconfirmed
		}
		return run.fail(stage, fmt.Errorf("submit bridge deposit: %w", err))
	}
	run.logger.Info("bridge deposit confirmed", zap.Stringer("tx", bridgeHash), zap.String("expected_output", quote.OutputAmount.String()))

	if err := ctx.Err(); err != nil {
		return run.fail(domain.FailedArrival, err)
	}
	run.enter(domain.StageAwaitingArrival)
	poll := m.poll
	if poll.Dust == nil {
		poll.Dust = DustThreshold(baseline.Decimals)
	}
	increase, attempts, err := PollForIncrease(ctx, dst.Reader(), outputToken.Address, account, baseline.Raw, poll)
	m.recorder.RecordPollAttempts(attempts)
	if err != nil {
		return run.fail(domain.FailedArrival, err)
	}
	run.logger.Info("bridged funds arrived", zap.String("increase", increase.String()), zap.Int("attempts", attempts))

	if err := ctx.Err(); err != nil {
		return run.fail(domain.FailedDeposit, err)
	}
	run.enter(domain.StageDepositing)
	depositHash, err := m.deposit(ctx, dstOps, dst.Config, outputToken, increase, account)
	run.result.StepHashes.Deposit = hashIfSet(depositHash)
	if err != nil {
		return run.fail(domain.FailedDeposit, err)
	}
	run.result.Deposited = increase

	return run.complete()
}

// Supply deposits funds already present on one chain into its yield market.
func (m *SessionManager) Supply(ctx context.Context, req domain.SupplyRequest) domain.WorkflowResult {
	run := m.newRun(WorkflowSupply)
	result := m.supply(ctx, run, req)
	m.recorder.RecordWorkflow(WorkflowSupply, result)

	return result
}

func (m *SessionManager) supply(ctx context.Context, run *workflowRun, req domain.SupplyRequest) domain.WorkflowResult {
	if err := validateAmount(req.Amount); err != nil {
		return run.fail(domain.FailedRequest, err)
	}
	if m.market == nil {
		return run.fail(domain.FailedRequest, errors.New("yield market is required"))
	}

	client, err := m.workflowClient(req.Chain, req.SmartAccountAddress)
	if err != nil {
		return run.fail(domain.FailedSetup, err)
	}
	ops := NewTokenOperations(client)
	token, err := ops.Token(req.Token)
	if err != nil {
		return run.fail(domain.FailedRequest, err)
	}

	run.enter(domain.StageCheckingBalance)
	balance, err := ops.BalanceOf(ctx, token.Symbol, req.SmartAccountAddress)
	if err != nil {
		return run.fail(domain.FailedBalance, err)
	}
	if balance.Raw.Cmp(req.Amount) < 0 {
		return run.fail(domain.FailedBalance, fmt.Errorf("%w: %s has %s %s on %s, need %s",
			domain.ErrInsufficientBalance, req.SmartAccountAddress.Hex(), balance.Formatted, token.Symbol, client.Config.Name,
			domain.FormatUnits(req.Amount, balance.Decimals)))
	}

	if err := ctx.Err(); err != nil {
		return run.fail(domain.FailedDeposit, err)
	}
	run.enter(domain.StageDepositing)
	hash, err := m.deposit(ctx, ops, client.Config, token, req.Amount, req.SmartAccountAddress)
	run.result.StepHashes.Deposit = hashIfSet(hash)
	if err != nil {
		return run.fail(domain.FailedDeposit, err)
	}
	run.result.Deposited = new(big.Int).Set(req.Amount)

	return run.complete()
}

// deposit approves the market and supplies amount in one batched operation.
func (m *SessionManager) deposit(ctx context.Context, ops *TokenOperations, cfg domain.ChainConfig, token domain.TokenDescriptor, amount *big.Int, onBehalfOf common.Address) (common.Hash, error) {
	approve, err := ops.ApproveCall(token.Symbol, m.market.Spender(cfg), amount)
	if err != nil {
		return common.Hash{}, err
	}
	supply, err := m.market.BuildSupply(cfg, token, amount, onBehalfOf)
	if err != nil {
		return common.Hash{}, fmt.Errorf("build supply: %w", err)
	}

	hash, err := ops.Execute(ctx, approve, supply)
	if err != nil {
		return hash, fmt.Errorf("submit supply: %w", err)
	}

	return hash, nil
}

func (m *SessionManager) workflowClient(chainID domain.ChainID, account common.Address) (*SessionChainClient, error) {
	client, err := m.Client(chainID)
	if err != nil {
		return nil, err
	}
	if client.Address() != account {
		return nil, fmt.Errorf("%w: session on %s controls %s, request names %s", domain.ErrSmartAccountMismatch, chainID, client.Address().Hex(), account.Hex())
	}

	return client, nil
}

func hashIfSet(h common.Hash) *common.Hash {
	if h == (common.Hash{}) {
		return nil
	}

	return domain.HashRef(h)
}

func validateAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("%w: amount must be positive", domain.ErrInvalidAmount)
	}

	return nil
}
