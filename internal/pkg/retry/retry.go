package retry

import (
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	defaultMaxRetries = 3
	defaultDelay      = 200 * time.Millisecond
	defaultMaxDelay   = 5 * time.Second
	defaultMaxJitter  = 100 * time.Millisecond
)

// RetryConfig drives exponential, capped, jittered backoff.
// MaxRetries counts retries after the first attempt.
type RetryConfig struct {
	MaxRetries uint          `env:"MAX_RETRIES" envDefault:"3"`
	Delay      time.Duration `env:"BACKOFF_BASE" envDefault:"200ms"`
	MaxDelay   time.Duration `env:"BACKOFF_MAX" envDefault:"5s"`
	MaxJitter  time.Duration `env:"BACKOFF_JITTER" envDefault:"100ms"`
}

// HintFunc extracts a server-suggested wait from an error, 0 when absent.
type HintFunc func(error) time.Duration

func (rc *RetryConfig) ToRetryOptions(hint HintFunc) []retry.Option {
	var delayType retry.DelayTypeFunc = retry.BackOffDelay
	if rc.MaxJitter > 0 {
		delayType = retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)
	}
	if hint != nil {
		delayType = atLeast(hint, delayType)
	}

	return []retry.Option{
		retry.Attempts(rc.MaxRetries + 1),
		retry.Delay(rc.Delay),
		retry.MaxDelay(rc.MaxDelay),
		retry.MaxJitter(rc.MaxJitter),
		retry.DelayType(delayType),
		retry.LastErrorOnly(true),
	}
}

// atLeast waits no less than the hint. MaxDelay still caps the result.
func atLeast(hint HintFunc, next retry.DelayTypeFunc) retry.DelayTypeFunc {
	return func(n uint, err error, config *retry.Config) time.Duration {
		d := next(n, err, config)
		if h := hint(err); h > d {
			return h
		}
		return d
	}
}

func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries: defaultMaxRetries,
		Delay:      defaultDelay,
		MaxDelay:   defaultMaxDelay,
		MaxJitter:  defaultMaxJitter,
	}
}
