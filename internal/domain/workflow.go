package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

type WorkflowStage string

const (
	StageIdle            WorkflowStage = "idle"
	StageCheckingBalance WorkflowStage = "checking_balance"
	StageBridging        WorkflowStage = "bridging"
	StageAwaitingArrival WorkflowStage = "awaiting_arrival"
	StageDepositing      WorkflowStage = "depositing"
	StageCompleted       WorkflowStage = "completed"
)

// FailureStage names the step a failed workflow stopped at.
type FailureStage string

const (
	FailedRequest  FailureStage = "request"
	FailedSetup    FailureStage = "setup"
	FailedBalance  FailureStage = "balance"
	FailedApproval FailureStage = "approval"
	FailedBridge   FailureStage = "bridge"
	// FailedBridgeUnconfirmed means the deposit was sent but its inclusion
	// was not observed; the funds may still move.
	FailedBridgeUnconfirmed FailureStage = "bridge_unconfirmed"
	FailedArrival           FailureStage = "arrival"
	FailedDeposit           FailureStage = "deposit"
)

type StepHashes struct {
	Approval *common.Hash
	Bridge   *common.Hash
	Deposit  *common.Hash
}

type WorkflowResult struct {
	Success     bool
	StepHashes  StepHashes
	FailedStage FailureStage
	Error       string
	// Deposited is the amount supplied to the market, which may differ from
	// the requested amount after bridge fees.
	Deposited *big.Int
	// Err keeps the typed cause for errors.Is; it is not serialized.
	Err error
}

func (r WorkflowResult) Outcome() string {
	switch {
	case r.Success:
		return "success"
	case r.FailedStage == FailedArrival, r.FailedStage == FailedBridgeUnconfirmed:
		return "pending"
	default:
		return "failed"
	}
}

type BridgeAndSupplyRequest struct {
	UserKey             UserKey
	SmartAccountAddress common.Address
	SourceChain         ChainID
	DestinationChain    ChainID
	Token               TokenSymbol
	Amount              *big.Int
}

type SupplyRequest struct {
	UserKey             UserKey
	SmartAccountAddress common.Address
	Chain               ChainID
	Token               TokenSymbol
	Amount              *big.Int
}

type Availability struct {
	Ready   bool
	Chains  []ChainID
	Balance BalanceSnapshot
	Token   TokenSymbol
	Chain   ChainID
}

// HashRef returns a pointer to a copy of h, for StepHashes fields.
func HashRef(h common.Hash) *common.Hash {
	return &h
}
