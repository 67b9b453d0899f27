package ports

import (
	"context"
	"math/big"

	"github.com/bnema/sessionkeys/internal/domain"
	"github.com/ethereum/go-ethereum/common"
)

type BridgeRequest struct {
	Source      domain.ChainConfig
	Destination domain.ChainConfig
	InputToken  domain.TokenDescriptor
	OutputToken domain.TokenDescriptor
	Amount      *big.Int
	Depositor   common.Address
	Recipient   common.Address
}

type BridgeQuote struct {
	OutputAmount        *big.Int
	TotalFee            *big.Int
	QuoteTimestamp      uint32
	FillDeadline        uint32
	ExclusiveRelayer    common.Address
	ExclusivityDeadline uint32
}

type BridgeRoute interface {
	Spender(source domain.ChainConfig) common.Address
	Quote(ctx context.Context, req BridgeRequest) (BridgeQuote, error)
	BuildDeposit(req BridgeRequest, quote BridgeQuote) (domain.Call, error)
}

type YieldMarket interface {
	Spender(chain domain.ChainConfig) common.Address
	BuildSupply(chain domain.ChainConfig, token domain.TokenDescriptor, amount *big.Int, onBehalfOf common.Address) (domain.Call, error)
}

type WorkflowRecorder interface {
	RecordWorkflow(workflow string, result domain.WorkflowResult)
	RecordPollAttempts(attempts int)
	RecordSetup(outcome string)
}

type NopRecorder struct{}

func (NopRecorder) RecordWorkflow(string, domain.WorkflowResult) {}
func (NopRecorder) RecordPollAttempts(int)                       {}
func (NopRecorder) RecordSetup(string)                           {}
