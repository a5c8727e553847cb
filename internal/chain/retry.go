package chain

import (
	"context"
	"errors"
	"time"

	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
)

// JSON-RPC codes that mean the request itself is wrong; asking again
// returns the same answer.
var permanentRPCCodes = map[int]bool{
	-32700: true, // parse error
	-32600: true, // invalid request
	-32601: true, // method not found
	-32602: true, // invalid params
}

// withRetry runs fn until it succeeds, maxRetries extra attempts are spent
// or the failure is one that a retry cannot fix. The delay doubles after
// every failed attempt.
func withRetry(ctx context.Context, logger *zap.Logger, op string, maxRetries int, baseDelay time.Duration, fn func(context.Context) error) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}

	delay := baseDelay
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !retryable(err) || attempt >= maxRetries {
			return err
		}

		logger.Warn("rpc call failed, retrying",
			zap.String("op", op),
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
	}
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrValueOutOfRange) {
		return false
	}
	var rpcErr gethrpc.Error
	if errors.As(err, &rpcErr) && permanentRPCCodes[rpcErr.ErrorCode()] {
		return false
	}
	return true
}
