package database

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// connectRetry calls connect until it succeeds or attempts run out. The
// delay doubles after every failure. Containers started alongside the
// server are often not accepting connections yet.
func connectRetry(ctx context.Context, log zerolog.Logger, store string, attempts int, delay time.Duration, connect func(context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 1; i <= attempts; i++ {
		if err = connect(ctx); err == nil {
			return nil
		}
		if i == attempts {
			break
		}
		log.Warn().Err(err).
			Str("store", store).
			Int("attempt", i).
			Dur("retry_in", delay).
			Msg("Connect failed, retrying")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("connect %s: %w", store, ctx.Err())
		}
		delay *= 2
	}
	return fmt.Errorf("connect %s after %d attempts: %w", store, attempts, err)
}
