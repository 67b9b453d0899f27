package domain

import "errors"

var (
	ErrDelegationFailed      = errors.New("delegation failed")
	ErrUnsupportedChain      = errors.New("unsupported chain")
	ErrDeserializationFailed = errors.New("permission deserialization failed")
	ErrNetworkUnavailable    = errors.New("network unavailable")
	ErrCallNotConfirmed      = errors.New("call not confirmed")
	ErrCallReverted          = errors.New("call reverted")
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrSmartAccountMismatch  = errors.New("smart account address mismatch")
	ErrArrivalTimeout        = errors.New("arrival timeout")

	ErrDelegationNotFound = errors.New("delegation not found")
	ErrDelegationRevoked  = errors.New("delegation revoked")
	ErrSessionKeyConflict = errors.New("user already delegates to another session key")
	ErrSessionNotReady    = errors.New("session not ready")
	ErrPolicyViolation    = errors.New("call rejected by session policy")
	ErrUnknownToken       = errors.New("unknown token")
	ErrSecretNotFound     = errors.New("secret not found")
	ErrInvalidUserKey     = errors.New("invalid user key")
	ErrInvalidAmount      = errors.New("invalid amount")
)
