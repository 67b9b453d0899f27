package application

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/bnema/sessionkeys/internal/domain"
	"github.com/bnema/sessionkeys/internal/ports"
	"github.com/cenkalti/backoff/v5"
	"github.com/ethereum/go-ethereum/common"
)

var ErrRetryExhausted = errors.New("retry attempts exhausted")

var errConditionNotMet = errors.New("condition not met")

// Predicate is evaluated once per attempt. done stops the loop with value;
// a returned error counts as a failed attempt unless wrapped by StopRetry.
type Predicate[T any] func(ctx context.Context, attempt int) (value T, done bool, err error)

// StopRetry marks err as terminal so no further attempts are made.
func StopRetry(err error) error {
	return backoff.Permanent(err)
}

// RetryWithBackoff runs predicate at most maxAttempts times with a constant
// delay between attempts. It returns the number of attempts made.
func RetryWithBackoff[T any](ctx context.Context, maxAttempts int, delay time.Duration, predicate Predicate[T]) (T, int, error) {
	var zero T
	if maxAttempts <= 0 {
		return zero, 0, fmt.Errorf("max attempts must be positive, got %d", maxAttempts)
	}
	if delay < 0 {
		delay = 0
	}

	attempts := 0
	var stopped error
	value, err := backoff.Retry(ctx, func() (T, error) {
		attempts++
		value, done, err := predicate(ctx, attempts)
		if err != nil {
			var permanent *backoff.PermanentError
			if errors.As(err, &permanent) {
				stopped = permanent.Unwrap()
			}
			return value, err
		}
		if !done {
			return value, errConditionNotMet
		}
		return value, nil
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(delay)),
		backoff.WithMaxTries(uint(maxAttempts)),
		backoff.WithMaxElapsedTime(0),
	)
	switch {
	case err == nil:
		return value, attempts, nil
	case stopped != nil:
		return value, attempts, stopped
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return value, attempts, err
	case errors.Is(err, errConditionNotMet):
		return value, attempts, fmt.Errorf("%w after %d attempts", ErrRetryExhausted, attempts)
	default:
		return value, attempts, fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, attempts, err)
	}
}

type PollConfig struct {
	MaxAttempts int
	Delay       time.Duration
	// Dust is the increase that must be exceeded before arrival counts.
	Dust *big.Int
}

// DustThreshold is 10^(decimals-4) base units, or zero for tokens with fewer
// than four decimals.
func DustThreshold(decimals uint8) *big.Int {
	if decimals < 4 {
		return new(big.Int)
	}

	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)-4), nil)
}

// PollForIncrease re-reads the balance of account until it exceeds baseline
// by more than the dust threshold. On exhaustion it returns
// domain.ErrArrivalTimeout with the attempt count; a read error only spends
// the attempt.
func PollForIncrease(ctx context.Context, reader ports.ChainReader, token, account common.Address, baseline *big.Int, cfg PollConfig) (*big.Int, int, error) {
	if baseline == nil {
		baseline = new(big.Int)
	}
	dust := cfg.Dust
	if dust == nil {
		dust = new(big.Int)
	}

	increase, attempts, err := RetryWithBackoff(ctx, cfg.MaxAttempts, cfg.Delay, func(ctx context.Context, _ int) (*big.Int, bool, error) {
		current, err := reader.TokenBalance(ctx, token, account)
		if err != nil {
			return nil, false, fmt.Errorf("read balance: %w", err)
		}

		delta := new(big.Int).Sub(current, baseline)
		return delta, delta.Cmp(dust) > 0, nil
	})
	if err != nil {
		if errors.Is(err, ErrRetryExhausted) {
			return nil, attempts, fmt.Errorf("%w: no increase above %s after %d attempts: %w", domain.ErrArrivalTimeout, dust, attempts, err)
		}
		return nil, attempts, err
	}

	return increase, attempts, nil
}
