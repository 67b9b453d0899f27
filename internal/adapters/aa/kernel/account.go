package kernel

import (
	"fmt"
	"math/big"

	"github.com/bnema/sessionkeys/internal/contracts"
	"github.com/bnema/sessionkeys/internal/domain"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Account is a session-key view of one smart account on one chain.
type Account struct {
	address    common.Address
	owner      common.Address
	index      *big.Int
	chain      domain.ChainConfig
	session    domain.SessionKeyPair
	policy     domain.Policy
	policyHash common.Hash
	enableSig  []byte
}

func (a *Account) Address() common.Address {
	return a.address
}

func (a *Account) ChainID() domain.ChainID {
	return a.chain.ID
}

func (a *Account) EntryPoint() common.Address {
	return a.chain.EntryPoint
}

func (a *Account) SessionKey() common.Address {
	return a.session.Address
}

func (a *Account) Owner() common.Address {
	return a.owner
}

func (a *Account) Policy() domain.Policy {
	return a.policy
}

func (a *Account) InitCode() ([]byte, error) {
	data, err := contracts.PackCreateAccount(a.chain.OwnerValidator, a.owner.Bytes(), a.index)
	if err != nil {
		return nil, fmt.Errorf("pack createAccount: %w", err)
	}

	return append(a.chain.AccountFactory.Bytes(), data...), nil
}

// EncodeCalls checks every call against the session policy and encodes them
// as a single execute or an executeBatch.
func (a *Account) EncodeCalls(calls []domain.Call) ([]byte, error) {
	if len(calls) == 0 {
		return nil, fmt.Errorf("no calls to encode")
	}

	batch := make([]contracts.BatchCall, 0, len(calls))
	for _, call := range calls {
		var movement *domain.TokenMovement
		if decoded, ok := contracts.DecodeTokenCall(call.Data); ok {
			movement = &domain.TokenMovement{
				Approve:      decoded.Method == "approve",
				Counterparty: decoded.Counterparty,
				Amount:       decoded.Amount,
			}
		}
		if err := a.policy.CheckCall(call, movement); err != nil {
			return nil, err
		}
		batch = append(batch, contracts.BatchCall{To: call.To, Value: call.Value, Data: call.Data})
	}

	if len(batch) == 1 {
		return contracts.PackExecute(batch[0].To, batch[0].Value, batch[0].Data)
	}

	return contracts.PackExecuteBatch(batch)
}

// SignUserOpHash signs with the session key and prepends the enable payload
// so the validator can check the owner's authorization on first use.
func (a *Account) SignUserOpHash(hash common.Hash) ([]byte, error) {
	sig, err := crypto.Sign(accounts.TextHash(hash.Bytes()), a.session.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("sign user operation: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27

	return a.wrapSignature(sig), nil
}

func (a *Account) DummySignature() []byte {
	dummy := make([]byte, crypto.SignatureLength)
	for i := range dummy {
		dummy[i] = 0xff
	}
	dummy[crypto.RecoveryIDOffset] = 0x1c

	return a.wrapSignature(dummy)
}

func (a *Account) wrapSignature(sig []byte) []byte {
	out := make([]byte, 0, len(enableModePrefix)+common.AddressLength+common.HashLength+len(a.enableSig)+len(sig))
	out = append(out, enableModePrefix...)
	out = append(out, a.session.Address.Bytes()...)
	out = append(out, a.policyHash.Bytes()...)
	out = append(out, a.enableSig...)

	return append(out, sig...)
}
