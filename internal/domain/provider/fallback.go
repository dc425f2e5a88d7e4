package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// ErrExhausted is returned when every ranked provider failed its attempt.
var ErrExhausted = errors.New("provider: all providers failed")

// AttemptFunc performs one attempt against a single provider. A nil return
// marks the attempt successful.
type AttemptFunc func(ctx context.Context, name string) error

// Fallback attempts the given providers in scorer order, recording each
// outcome, and stops at the first success. Failed attempts are not retried
// within a provider; exhausting the list is a terminal failure carrying the
// last attempt error. Context cancellation is honored between attempts and
// is not recorded against the provider that would have run next.
func Fallback(ctx context.Context, scorer *Scorer, names []string, attempt AttemptFunc) (string, error) {
	if len(names) == 0 {
		return "", errors.New("provider: no providers to attempt")
	}

	var lastErr error
	for _, name := range scorer.Order(names) {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		err := attempt(ctx, name)
		scorer.RecordOutcome(name, err == nil)
		if err == nil {
			return name, nil
		}

		lastErr = err
		log.Warn().
			Err(err).
			Str("provider", name).
			Msg("provider attempt failed, falling back")
	}

	return "", fmt.Errorf("%w: last error: %v", ErrExhausted, lastErr)
}
