// Package contracts holds the ABI fragments this module calls and typed
// packers around them.
package contracts

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const erc20JSON = `[
 {"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
 {"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
 {"type":"function","name":"allowance","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
 {"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
 {"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]}
]`

const entryPointJSON = `[
 {"type":"function","name":"getNonce","stateMutability":"view","inputs":[{"name":"sender","type":"address"},{"name":"key","type":"uint192"}],"outputs":[{"name":"nonce","type":"uint256"}]}
]`

const kernelJSON = `[
 {"type":"function","name":"execute","stateMutability":"payable","inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"},{"name":"data","type":"bytes"},{"name":"operation","type":"uint8"}],"outputs":[]},
 {"type":"function","name":"executeBatch","stateMutability":"payable","inputs":[{"name":"calls","type":"tuple[]","components":[{"name":"to","type":"address"},{"name":"value","type":"uint256"},{"name":"data","type":"bytes"}]}],"outputs":[]}
]`

const kernelFactoryJSON = `[
 {"type":"function","name":"createAccount","stateMutability":"nonpayable","inputs":[{"name":"validator","type":"address"},{"name":"data","type":"bytes"},{"name":"index","type":"uint256"}],"outputs":[{"name":"proxy","type":"address"}]}
]`

const spokePoolJSON = `[
 {"type":"function","name":"depositV3","stateMutability":"payable","inputs":[
  {"name":"depositor","type":"address"},
  {"name":"recipient","type":"address"},
  {"name":"inputToken","type":"address"},
  {"name":"outputToken","type":"address"},
  {"name":"inputAmount","type":"uint256"},
  {"name":"outputAmount","type":"uint256"},
  {"name":"destinationChainId","type":"uint256"},
  {"name":"exclusiveRelayer","type":"address"},
  {"name":"quoteTimestamp","type":"uint32"},
  {"name":"fillDeadline","type":"uint32"},
  {"name":"exclusivityDeadline","type":"uint32"},
  {"name":"message","type":"bytes"}],"outputs":[]}
]`

const lendingPoolJSON = `[
 {"type":"function","name":"supply","stateMutability":"nonpayable","inputs":[{"name":"asset","type":"address"},{"name":"amount","type":"uint256"},{"name":"onBehalfOf","type":"address"},{"name":"referralCode","type":"uint16"}],"outputs":[]}
]`

var (
	ERC20         = mustParse("erc20", erc20JSON)
	EntryPoint    = mustParse("entrypoint", entryPointJSON)
	Kernel        = mustParse("kernel", kernelJSON)
	KernelFactory = mustParse("kernel factory", kernelFactoryJSON)
	SpokePool     = mustParse("spoke pool", spokePoolJSON)
	LendingPool   = mustParse("lending pool", lendingPoolJSON)
)

func mustParse(name, raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("parse %s abi: %v", name, err))
	}

	return parsed
}

// BatchCall mirrors the executeBatch tuple; field names follow the ABI
// component names.
type BatchCall struct {
	To    common.Address
	Value *big.Int
	Data  []byte
}

func PackBalanceOf(account common.Address) ([]byte, error) {
	return ERC20.Pack("balanceOf", account)
}

func PackDecimals() ([]byte, error) {
	return ERC20.Pack("decimals")
}

func PackAllowance(owner, spender common.Address) ([]byte, error) {
	return ERC20.Pack("allowance", owner, spender)
}

func PackApprove(spender common.Address, amount *big.Int) ([]byte, error) {
	return ERC20.Pack("approve", spender, amount)
}

func PackTransfer(to common.Address, amount *big.Int) ([]byte, error) {
	return ERC20.Pack("transfer", to, amount)
}

func UnpackUint256(contract abi.ABI, method string, output []byte) (*big.Int, error) {
	values, err := contract.Unpack(method, output)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("unpack %s: expected 1 value, got %d", method, len(values))
	}
	out, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unpack %s: unexpected type %T", method, values[0])
	}

	return out, nil
}

func UnpackDecimals(output []byte) (uint8, error) {
	values, err := ERC20.Unpack("decimals", output)
	if err != nil {
		return 0, fmt.Errorf("unpack decimals: %w", err)
	}
	if len(values) != 1 {
		return 0, fmt.Errorf("unpack decimals: expected 1 value, got %d", len(values))
	}
	out, ok := values[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("unpack decimals: unexpected type %T", values[0])
	}

	return out, nil
}

func PackGetNonce(sender common.Address) ([]byte, error) {
	return EntryPoint.Pack("getNonce", sender, new(big.Int))
}

func PackExecute(to common.Address, value *big.Int, data []byte) ([]byte, error) {
	if value == nil {
		value = new(big.Int)
	}

	return Kernel.Pack("execute", to, value, data, uint8(0))
}

func PackExecuteBatch(calls []BatchCall) ([]byte, error) {
	normalized := make([]BatchCall, len(calls))
	for i, call := range calls {
		normalized[i] = call
		if normalized[i].Value == nil {
			normalized[i].Value = new(big.Int)
		}
		if normalized[i].Data == nil {
			normalized[i].Data = []byte{}
		}
	}

	return Kernel.Pack("executeBatch", normalized)
}

func PackCreateAccount(validator common.Address, validatorData []byte, index *big.Int) ([]byte, error) {
	return KernelFactory.Pack("createAccount", validator, validatorData, index)
}

type DepositV3Params struct {
	Depositor           common.Address
	Recipient           common.Address
	InputToken          common.Address
	OutputToken         common.Address
	InputAmount         *big.Int
	OutputAmount        *big.Int
	DestinationChainID  *big.Int
	ExclusiveRelayer    common.Address
	QuoteTimestamp      uint32
	FillDeadline        uint32
	ExclusivityDeadline uint32
	Message             []byte
}

func PackDepositV3(p DepositV3Params) ([]byte, error) {
	message := p.Message
	if message == nil {
		message = []byte{}
	}

	return SpokePool.Pack("depositV3",
		p.Depositor,
		p.Recipient,
		p.InputToken,
		p.OutputToken,
		p.InputAmount,
		p.OutputAmount,
		p.DestinationChainID,
		p.ExclusiveRelayer,
		p.QuoteTimestamp,
		p.FillDeadline,
		p.ExclusivityDeadline,
		message,
	)
}

func PackSupply(asset common.Address, amount *big.Int, onBehalfOf common.Address, referralCode uint16) ([]byte, error) {
	return LendingPool.Pack("supply", asset, amount, onBehalfOf, referralCode)
}

// TokenCall is decoded approve or transfer calldata. Counterparty is the
// spender or the recipient.
type TokenCall struct {
	Method       string
	Counterparty common.Address
	Amount       *big.Int
}

// DecodeTokenCall decodes approve/transfer calldata. ok is false for any
// other selector.
func DecodeTokenCall(data []byte) (TokenCall, bool) {
	if len(data) < 4 {
		return TokenCall{}, false
	}
	method, err := ERC20.MethodById(data[:4])
	if err != nil || (method.Name != "approve" && method.Name != "transfer") {
		return TokenCall{}, false
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil || len(args) != 2 {
		return TokenCall{}, false
	}
	counterparty, ok := args[0].(common.Address)
	if !ok {
		return TokenCall{}, false
	}
	amount, ok := args[1].(*big.Int)
	if !ok {
		return TokenCall{}, false
	}

	return TokenCall{Method: method.Name, Counterparty: counterparty, Amount: amount}, true
}

// DecodeTokenAmount extracts the amount argument from approve/transfer
// calldata.
func DecodeTokenAmount(data []byte) (*big.Int, bool) {
	decoded, ok := DecodeTokenCall(data)
	if !ok {
		return nil, false
	}

	return decoded.Amount, true
}
