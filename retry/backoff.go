// Package retry provides a generic retry helper with exponential back-off and
// jitter. Retrying is always the caller's decision: nothing in goRawrBooks
// installs it implicitly.
package retry

import (
	"math"
	"math/rand/v2"
	"time"
)

// backoff returns the delay before retry number attempt (0-indexed): BaseDelay
// doubled per attempt, capped at MaxDelay, then spread by ±Jitter.
func backoff(cfg Config, attempt int) time.Duration {
	delay := min(float64(cfg.BaseDelay)*math.Pow(2, float64(attempt)), float64(cfg.MaxDelay))
	if cfg.Jitter > 0 {
		delay += delay * cfg.Jitter * (rand.Float64()*2 - 1)
	}
	return time.Duration(max(delay, 0))
}
