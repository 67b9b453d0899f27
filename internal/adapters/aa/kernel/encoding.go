package kernel

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"sort"

	"github.com/bnema/sessionkeys/internal/domain"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

const blobVersion = 1

var (
	// Keccak of the Kernel proxy creation code with its implementation
	// argument, fixed for the factory deployment used by the registry.
	proxyInitCodeHash = common.HexToHash("0xee9d4a24b5a18bf1ba2be0bcb6f80a4ec5d8b1d7f6e0c4f6a1d02b7d7e09c7a1")

	enableTypeHash = crypto.Keccak256Hash([]byte("EnableSession(uint256 chainId,address account,address sessionKey,bytes32 policyHash)"))
	policyTypeHash = crypto.Keccak256Hash([]byte("SessionPolicy(string kind,address[] targets,address[] spenders,address[] limitTokens,uint256[] limits,uint64 validUntil)"))

	// Kernel signature mode selecting the session-key validator with an
	// inline enable payload.
	enableModePrefix = []byte{0x00, 0x00, 0x00, 0x02}
)

var (
	tAddress      = mustType("address")
	tAddressArray = mustType("address[]")
	tBytes32      = mustType("bytes32")
	tString       = mustType("string")
	tUint64       = mustType("uint64")
	tUint256      = mustType("uint256")
	tUint256Array = mustType("uint256[]")
)

func mustType(name string) abi.Type {
	t, err := abi.NewType(name, "", nil)
	if err != nil {
		panic(err)
	}

	return t
}

func args(types ...abi.Type) abi.Arguments {
	out := make(abi.Arguments, len(types))
	for i, t := range types {
		out[i] = abi.Argument{Type: t}
	}

	return out
}

// accountSalt binds the counterfactual address to the owner validator, the
// owner and the account index. The session key is not part of it.
func accountSalt(validator, owner common.Address, index *big.Int) ([32]byte, error) {
	packed, err := args(tAddress, tAddress, tUint256).Pack(validator, owner, index)
	if err != nil {
		return [32]byte{}, fmt.Errorf("pack account salt: %w", err)
	}

	return crypto.Keccak256Hash(packed), nil
}

func counterfactualAddress(cfg domain.ChainConfig, owner common.Address, index *big.Int) (common.Address, error) {
	salt, err := accountSalt(cfg.OwnerValidator, owner, index)
	if err != nil {
		return common.Address{}, err
	}

	return crypto.CreateAddress2(cfg.AccountFactory, salt, proxyInitCodeHash.Bytes()), nil
}

type spendLimit struct {
	Token common.Address
	Limit *big.Int
}

func sortedLimits(policy domain.Policy) []spendLimit {
	limits := make([]spendLimit, 0, len(policy.SpendLimits))
	for token, limit := range policy.SpendLimits {
		limits = append(limits, spendLimit{Token: token, Limit: limit})
	}
	sort.Slice(limits, func(i, j int) bool { return bytes.Compare(limits[i].Token[:], limits[j].Token[:]) < 0 })

	return limits
}

func policyHash(policy domain.Policy) (common.Hash, error) {
	targets := append([]common.Address(nil), policy.AllowedTargets...)
	sort.Slice(targets, func(i, j int) bool { return bytes.Compare(targets[i][:], targets[j][:]) < 0 })

	spenders := append([]common.Address(nil), policy.Spenders...)
	sort.Slice(spenders, func(i, j int) bool { return bytes.Compare(spenders[i][:], spenders[j][:]) < 0 })

	limits := sortedLimits(policy)
	tokens := make([]common.Address, len(limits))
	amounts := make([]*big.Int, len(limits))
	for i, limit := range limits {
		tokens[i] = limit.Token
		amounts[i] = limit.Limit
	}

	packed, err := args(tBytes32, tString, tAddressArray, tAddressArray, tAddressArray, tUint256Array, tUint64).
		Pack([32]byte(policyTypeHash), string(policy.Kind), targets, spenders, tokens, amounts, policy.ValidUntil)
	if err != nil {
		return common.Hash{}, fmt.Errorf("pack policy: %w", err)
	}

	return crypto.Keccak256Hash(packed), nil
}

// enableDigest is what the owner signs (as an EIP-191 message) to let
// sessionKey act for account on one chain under policy.
func enableDigest(chainID domain.ChainID, account, sessionKey common.Address, policyDigest common.Hash) (common.Hash, error) {
	packed, err := args(tBytes32, tUint256, tAddress, tAddress, tBytes32).
		Pack([32]byte(enableTypeHash), new(big.Int).SetUint64(uint64(chainID)), account, sessionKey, [32]byte(policyDigest))
	if err != nil {
		return common.Hash{}, fmt.Errorf("pack enable digest: %w", err)
	}

	return crypto.Keccak256Hash(packed), nil
}

// recoverPersonalSigner returns the address that produced an EIP-191
// signature over message. v may be 0/1 or 27/28.
func recoverPersonalSigner(message, signature []byte) (common.Address, error) {
	if len(signature) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("signature length %d", len(signature))
	}
	sig := append([]byte(nil), signature...)
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(accounts.TextHash(message), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("recover signer: %w", err)
	}

	return crypto.PubkeyToAddress(*pub), nil
}

type policyJSON struct {
	Kind           domain.PolicyKind `json:"kind"`
	AllowedTargets []common.Address  `json:"targets,omitempty"`
	Spenders       []common.Address  `json:"spenders,omitempty"`
	SpendLimits    []limitJSON       `json:"limits,omitempty"`
	ValidUntil     uint64            `json:"validUntil,omitempty"`
}

type limitJSON struct {
	Token common.Address `json:"token"`
	Limit *hexutil.Big   `json:"limit"`
}

type permissionBlob struct {
	Version    int            `json:"v"`
	ChainID    uint64         `json:"chainId"`
	Account    common.Address `json:"account"`
	Owner      common.Address `json:"owner"`
	Index      *hexutil.Big   `json:"index"`
	SessionKey common.Address `json:"sessionKey"`
	Policy     policyJSON     `json:"policy"`
	EnableSig  hexutil.Bytes  `json:"enableSig"`
}

func policyToJSON(policy domain.Policy) policyJSON {
	out := policyJSON{Kind: policy.Kind, AllowedTargets: policy.AllowedTargets, Spenders: policy.Spenders, ValidUntil: policy.ValidUntil}
	for _, limit := range sortedLimits(policy) {
		out.SpendLimits = append(out.SpendLimits, limitJSON{Token: limit.Token, Limit: (*hexutil.Big)(limit.Limit)})
	}

	return out
}

func (p policyJSON) toDomain() domain.Policy {
	policy := domain.Policy{Kind: p.Kind, AllowedTargets: p.AllowedTargets, Spenders: p.Spenders, ValidUntil: p.ValidUntil}
	if len(p.SpendLimits) > 0 {
		policy.SpendLimits = make(map[common.Address]*big.Int, len(p.SpendLimits))
		for _, limit := range p.SpendLimits {
			policy.SpendLimits[limit.Token] = limit.Limit.ToInt()
		}
	}

	return policy
}

func encodeBlob(blob permissionBlob) (string, error) {
	raw, err := json.Marshal(blob)
	if err != nil {
		return "", fmt.Errorf("marshal permission: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func decodeBlob(serialized string) (permissionBlob, error) {
	raw, err := base64.RawURLEncoding.DecodeString(serialized)
	if err != nil {
		return permissionBlob{}, fmt.Errorf("decode permission: %w", err)
	}

	var blob permissionBlob
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&blob); err != nil {
		return permissionBlob{}, fmt.Errorf("unmarshal permission: %w", err)
	}
	if blob.Version != blobVersion {
		return permissionBlob{}, fmt.Errorf("unsupported permission version %d", blob.Version)
	}
	if blob.Index == nil {
		return permissionBlob{}, fmt.Errorf("permission missing account index")
	}

	return blob, nil
}
