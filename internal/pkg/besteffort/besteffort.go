// Package besteffort centralizes the swallow-and-log policy used by
// bookkeeping paths (status writes, metadata stamping, janitor repairs).
// Failures on these paths are logged at debug level and discarded; they must
// never abort the surrounding operation.
package besteffort

import (
	"github.com/kiosk404/relayn/pkg/logger"
)

// Do runs fn and logs a failure at debug level instead of returning it.
func Do(op string, fn func() error) {
	if err := fn(); err != nil {
		logger.Debug("[BestEffort] %s: %v", op, err)
	}
}

// Go runs fn on its own goroutine with the same policy, recovering panics.
func Go(op string, fn func() error) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Warn("[BestEffort] %s panicked: %v", op, r)
			}
		}()
		Do(op, fn)
	}()
}
