package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

type ChainID uint64

const (
	ChainOptimism ChainID = 10
	ChainBase     ChainID = 8453
	ChainArbitrum ChainID = 42161
)

type TokenSymbol string

const (
	TokenUSDC TokenSymbol = "USDC"
	TokenWETH TokenSymbol = "WETH"
)

const (
	stablecoinFallbackDecimals uint8 = 6
	nativeFallbackDecimals     uint8 = 18
)

// EntryPointV06 is the canonical ERC-4337 v0.6 EntryPoint, deployed at the
// same address on every supported chain.
var EntryPointV06 = common.HexToAddress("0x5FF137D4b0FDCD49DcA30c7CF57E578a026d2789")

type TokenDescriptor struct {
	Symbol  TokenSymbol
	Address common.Address
	// FallbackDecimals is used only when decimals() cannot be read on-chain.
	FallbackDecimals uint8
}

type ChainConfig struct {
	ID             ChainID
	Name           string
	EntryPoint     common.Address
	AccountFactory common.Address
	OwnerValidator common.Address
	SpokePool      common.Address
	LendingPool    common.Address
	Tokens         []TokenDescriptor
}

func (c ChainConfig) Token(symbol TokenSymbol) (TokenDescriptor, error) {
	normalized := TokenSymbol(strings.ToUpper(strings.TrimSpace(string(symbol))))
	for _, token := range c.Tokens {
		if token.Symbol == normalized {
			return token, nil
		}
	}

	return TokenDescriptor{}, fmt.Errorf("%w: %s on %s", ErrUnknownToken, symbol, c.Name)
}

// ContractTargets lists every contract a session key needs to call on this chain.
func (c ChainConfig) ContractTargets() []common.Address {
	targets := make([]common.Address, 0, len(c.Tokens)+2)
	for _, token := range c.Tokens {
		targets = append(targets, token.Address)
	}
	if c.SpokePool != (common.Address{}) {
		targets = append(targets, c.SpokePool)
	}
	if c.LendingPool != (common.Address{}) {
		targets = append(targets, c.LendingPool)
	}

	return targets
}

var (
	kernelFactory        = common.HexToAddress("0x5de4839a76cf55d0c90e2061ef4386d962E15ae3")
	kernelECDSAValidator = common.HexToAddress("0xd9AB5096a832b9ce79914329DAEE236f8Eea0390")
	canonicalWETH        = common.HexToAddress("0x4200000000000000000000000000000000000006")
	aaveV3PoolL2         = common.HexToAddress("0x794a61358D6845594F94dc1DB02A252b5b4814aD")
)

var chainRegistry = map[ChainID]ChainConfig{
	ChainBase: {
		ID:             ChainBase,
		Name:           "base",
		EntryPoint:     EntryPointV06,
		AccountFactory: kernelFactory,
		OwnerValidator: kernelECDSAValidator,
		SpokePool:      common.HexToAddress("0x09aea4b2242abC8bb4BB78D537A67a245A7bEC64"),
		LendingPool:    common.HexToAddress("0xA238Dd80C259a72e81d7e4664a9801593F98d1c5"),
		Tokens: []TokenDescriptor{
			{Symbol: TokenUSDC, Address: common.HexToAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"), FallbackDecimals: stablecoinFallbackDecimals},
			{Symbol: TokenWETH, Address: canonicalWETH, FallbackDecimals: nativeFallbackDecimals},
		},
	},
	ChainArbitrum: {
		ID:             ChainArbitrum,
		Name:           "arbitrum",
		EntryPoint:     EntryPointV06,
		AccountFactory: kernelFactory,
		OwnerValidator: kernelECDSAValidator,
		SpokePool:      common.HexToAddress("0xe35e9842fceaCA96570B734083f4a58e8F7C5f2A"),
		LendingPool:    aaveV3PoolL2,
		Tokens: []TokenDescriptor{
			{Symbol: TokenUSDC, Address: common.HexToAddress("0xaf88d065e77c8cC2239327C5EDb3A432268e5831"), FallbackDecimals: stablecoinFallbackDecimals},
			{Symbol: TokenWETH, Address: common.HexToAddress("0x82aF49447D8a07e3bd95BD0d56f35241523fBab1"), FallbackDecimals: nativeFallbackDecimals},
		},
	},
	ChainOptimism: {
		ID:             ChainOptimism,
		Name:           "optimism",
		EntryPoint:     EntryPointV06,
		AccountFactory: kernelFactory,
		OwnerValidator: kernelECDSAValidator,
		SpokePool:      common.HexToAddress("0x6f26Bf09B1C792e3228e5467807a900A503c0281"),
		LendingPool:    aaveV3PoolL2,
		Tokens: []TokenDescriptor{
			{Symbol: TokenUSDC, Address: common.HexToAddress("0x0b2C639c533813f4Aa9D7837CAf62653d097Ff85"), FallbackDecimals: stablecoinFallbackDecimals},
			{Symbol: TokenWETH, Address: canonicalWETH, FallbackDecimals: nativeFallbackDecimals},
		},
	},
}

// LookupChain returns a copy of the static configuration for id.
func LookupChain(id ChainID) (ChainConfig, error) {
	cfg, ok := chainRegistry[id]
	if !ok {
		return ChainConfig{}, fmt.Errorf("%w: %d", ErrUnsupportedChain, uint64(id))
	}

	cfg.Tokens = append([]TokenDescriptor(nil), cfg.Tokens...)
	return cfg, nil
}

func SupportedChains() []ChainID {
	ids := make([]ChainID, 0, len(chainRegistry))
	for id := range chainRegistry {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids
}

// ParseChain accepts either a registry name ("base") or a numeric chain id.
func ParseChain(raw string) (ChainID, error) {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return 0, fmt.Errorf("%w: empty chain", ErrUnsupportedChain)
	}

	for id, cfg := range chainRegistry {
		if cfg.Name == trimmed {
			return id, nil
		}
	}

	value, err := strconv.ParseUint(trimmed, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedChain, raw)
	}
	if _, ok := chainRegistry[ChainID(value)]; !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedChain, value)
	}

	return ChainID(value), nil
}

func ParseChains(raw []string) ([]ChainID, error) {
	ids := make([]ChainID, 0, len(raw))
	seen := make(map[ChainID]struct{}, len(raw))
	for _, entry := range raw {
		id, err := ParseChain(entry)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	return ids, nil
}

func (id ChainID) String() string {
	if cfg, ok := chainRegistry[id]; ok {
		return cfg.Name
	}

	return strconv.FormatUint(uint64(id), 10)
}
