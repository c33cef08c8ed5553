// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package reembed

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryWithBackoff retries an operation with exponential backoff.
// maxAttempts: maximum number of attempts (must be > 0)
// baseDelay: base delay between retries (doubles on each retry)
// Returns the error from the last attempt if all attempts fail.
func RetryWithBackoff(ctx context.Context, operation func() error, maxAttempts int, baseDelay time.Duration) error {
	if maxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	schedule := backoff.NewExponentialBackOff()
	schedule.InitialInterval = baseDelay
	schedule.Multiplier = 2
	schedule.RandomizationFactor = 0
	schedule.MaxInterval = baseDelay << min(maxAttempts, 16)
	schedule.MaxElapsedTime = 0

	attempt := 0
	err := backoff.RetryNotify(
		func() error {
			attempt++
			return operation()
		},
		backoff.WithContext(backoff.WithMaxRetries(schedule, uint64(maxAttempts-1)), ctx),
		func(err error, next time.Duration) {
			slog.Debug("operation failed, will retry", "attempt", attempt, "maxAttempts", maxAttempts, "delay", next, "error", err)
		},
	)
	if err == nil && attempt > 1 {
		slog.Debug("operation succeeded after retry", "attempt", attempt)
	}
	return err
}
