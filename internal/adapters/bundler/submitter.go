package bundler

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/bnema/sessionkeys/internal/contracts"
	"github.com/bnema/sessionkeys/internal/domain"
	"github.com/bnema/sessionkeys/internal/ports"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

const (
	defaultReceiptInterval = 2 * time.Second
	defaultReceiptTimeout  = 3 * time.Minute
)

// ChainRPC is the subset of ethclient.Client the submitter reads from.
type ChainRPC interface {
	ethereum.ContractCaller
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
}

// Operations is implemented by Client; bundler and paymaster may be
// different endpoints.
type Operations interface {
	EstimateGas(ctx context.Context, op UserOperation, entryPoint common.Address) (GasEstimate, error)
	Sponsor(ctx context.Context, op UserOperation, entryPoint common.Address) (Sponsorship, error)
	Send(ctx context.Context, op UserOperation, entryPoint common.Address) (common.Hash, error)
	Receipt(ctx context.Context, hash common.Hash) (*Receipt, error)
}

type Submitter struct {
	Chain   ChainRPC
	Bundler Operations
	// Paymaster is optional; without it the account pays its own gas.
	Paymaster       Operations
	Account         ports.SmartAccount
	ReceiptInterval time.Duration
	ReceiptTimeout  time.Duration
	Logger          *zap.Logger
}

// Submit sends calls as one user operation and returns the hash of the
// transaction that included it. Failures after policy checks wrap
// domain.ErrCallNotConfirmed. Once the bundler accepted the operation a
// hash is returned even on failure: the transaction hash when it reverted
// (also domain.ErrCallReverted), otherwise the user operation hash.
func (s *Submitter) Submit(ctx context.Context, calls []domain.Call) (common.Hash, error) {
	callData, err := s.Account.EncodeCalls(calls)
	if err != nil {
		return common.Hash{}, err
	}

	op, err := s.buildOperation(ctx, callData)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: %w", domain.ErrCallNotConfirmed, err)
	}

	chainID := new(big.Int).SetUint64(uint64(s.Account.ChainID()))
	opHash, err := op.Hash(s.Account.EntryPoint(), chainID)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: %w", domain.ErrCallNotConfirmed, err)
	}
	signature, err := s.Account.SignUserOpHash(opHash)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: %w", domain.ErrCallNotConfirmed, err)
	}
	op.Signature = signature

	sent, err := s.Bundler.Send(ctx, op, s.Account.EntryPoint())
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: %w", domain.ErrCallNotConfirmed, err)
	}
	if sent != opHash {
		s.logger().Warn("bundler returned unexpected user operation hash",
			zap.Stringer("expected", opHash),
			zap.Stringer("got", sent),
		)
	}
	s.logger().Debug("user operation sent",
		zap.Stringer("user_op_hash", sent),
		zap.Stringer("sender", op.Sender),
		zap.Int("calls", len(calls)),
	)

	return s.waitForReceipt(ctx, sent)
}

func (s *Submitter) buildOperation(ctx context.Context, callData []byte) (UserOperation, error) {
	sender := s.Account.Address()
	entryPoint := s.Account.EntryPoint()

	nonce, err := s.nonce(ctx, sender, entryPoint)
	if err != nil {
		return UserOperation{}, err
	}

	var initCode []byte
	code, err := s.Chain.CodeAt(ctx, sender, nil)
	if err != nil {
		return UserOperation{}, fmt.Errorf("read account code: %w", err)
	}
	if len(code) == 0 {
		initCode, err = s.Account.InitCode()
		if err != nil {
			return UserOperation{}, err
		}
	}

	maxFee, tip, err := s.fees(ctx)
	if err != nil {
		return UserOperation{}, err
	}

	op := UserOperation{
		Sender:               sender,
		Nonce:                (*hexutil.Big)(nonce),
		InitCode:             initCode,
		CallData:             callData,
		CallGasLimit:         (*hexutil.Big)(new(big.Int)),
		VerificationGasLimit: (*hexutil.Big)(new(big.Int)),
		PreVerificationGas:   (*hexutil.Big)(new(big.Int)),
		MaxFeePerGas:         (*hexutil.Big)(maxFee),
		MaxPriorityFeePerGas: (*hexutil.Big)(tip),
		PaymasterAndData:     []byte{},
		Signature:            s.Account.DummySignature(),
	}

	if s.Paymaster != nil {
		sponsorship, err := s.Paymaster.Sponsor(ctx, op, entryPoint)
		if err != nil {
			return UserOperation{}, err
		}
		op.PaymasterAndData = sponsorship.PaymasterAndData
		if sponsorship.CallGasLimit != nil && sponsorship.VerificationGasLimit != nil && sponsorship.PreVerificationGas != nil {
			op.CallGasLimit = sponsorship.CallGasLimit
			op.VerificationGasLimit = sponsorship.VerificationGasLimit
			op.PreVerificationGas = sponsorship.PreVerificationGas
			return op, nil
		}
	}

	estimate, err := s.Bundler.EstimateGas(ctx, op, entryPoint)
	if err != nil {
		return UserOperation{}, err
	}
	op.CallGasLimit = estimate.CallGasLimit
	op.VerificationGasLimit = estimate.VerificationGasLimit
	op.PreVerificationGas = estimate.PreVerificationGas

	return op, nil
}

func (s *Submitter) nonce(ctx context.Context, sender, entryPoint common.Address) (*big.Int, error) {
	data, err := contracts.PackGetNonce(sender)
	if err != nil {
		return nil, err
	}
	out, err := s.Chain.CallContract(ctx, ethereum.CallMsg{To: &entryPoint, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("read nonce: %w", err)
	}

	return contracts.UnpackUint256(contracts.EntryPoint, "getNonce", out)
}

// fees returns maxFeePerGas = 2*baseFee + tip, leaving headroom for a
// couple of base fee increases.
func (s *Submitter) fees(ctx context.Context) (*big.Int, *big.Int, error) {
	tip, err := s.Chain.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("suggest gas tip: %w", err)
	}
	header, err := s.Chain.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("read latest header: %w", err)
	}
	baseFee := new(big.Int)
	if header.BaseFee != nil {
		baseFee.Set(header.BaseFee)
	}

	maxFee := new(big.Int).Mul(baseFee, big.NewInt(2))
	maxFee.Add(maxFee, tip)

	return maxFee, tip, nil
}

func (s *Submitter) waitForReceipt(ctx context.Context, opHash common.Hash) (common.Hash, error) {
	interval := s.ReceiptInterval
	if interval <= 0 {
		interval = defaultReceiptInterval
	}
	timeout := s.ReceiptTimeout
	if timeout <= 0 {
		timeout = defaultReceiptTimeout
	}

	deadline := time.Now().Add(timeout)
	for {
		receipt, err := s.Bundler.Receipt(ctx, opHash)
		switch {
		case err != nil:
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return opHash, fmt.Errorf("%w: user operation %s: %w", domain.ErrCallNotConfirmed, opHash.Hex(), err)
			}
			s.logger().Debug("receipt lookup failed", zap.Stringer("user_op_hash", opHash), zap.Error(err))
		case receipt != nil && !receipt.Success:
			return receipt.Receipt.TransactionHash, fmt.Errorf("%w: %w: user operation %s: %s", domain.ErrCallNotConfirmed, domain.ErrCallReverted, opHash.Hex(), receipt.Reason)
		case receipt != nil:
			return receipt.Receipt.TransactionHash, nil
		}

		if time.Now().Add(interval).After(deadline) {
			return opHash, fmt.Errorf("%w: user operation %s not included after %s", domain.ErrCallNotConfirmed, opHash.Hex(), timeout)
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return opHash, fmt.Errorf("%w: user operation %s: %w", domain.ErrCallNotConfirmed, opHash.Hex(), ctx.Err())
		case <-timer.C:
		}
	}
}

func (s *Submitter) logger() *zap.Logger {
	if s.Logger != nil {
		return s.Logger
	}

	return zap.NewNop()
}
