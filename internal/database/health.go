package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Pinger is anything that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a function to Pinger.
type PingerFunc func(ctx context.Context) error

// Ping calls f.
func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthChecker pings every backing store with a short timeout.
type HealthChecker struct {
	checks  map[string]Pinger
	timeout time.Duration
}

// NewHealthChecker builds a checker for PostgreSQL and Redis. Either may be nil.
func NewHealthChecker(pool *pgxpool.Pool, rdb *redis.Client) *HealthChecker {
	h := &HealthChecker{checks: make(map[string]Pinger), timeout: 2 * time.Second}
	if pool != nil {
		h.checks["postgres"] = pool
	}
	if rdb != nil {
		h.checks["redis"] = PingerFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	}
	return h
}

// Register adds a named check.
func (h *HealthChecker) Register(name string, p Pinger) {
	h.checks[name] = p
}

// Check returns "ok" or the error text per store, and the first failure.
func (h *HealthChecker) Check(ctx context.Context) (map[string]string, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	status := make(map[string]string, len(h.checks))
	var firstErr error
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			status[name] = err.Error()
			if firstErr == nil {
				firstErr = fmt.Errorf("%s unhealthy: %w", name, err)
			}
			continue
		}
		status[name] = "ok"
	}
	return status, firstErr
}
