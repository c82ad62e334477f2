package worker

import (
	"context"
	"encoding/json"
	"time"

	"stockroom/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// withRetry calls fn up to maxAttempts times with exponential backoff.
// Backoff schedule: attempt 1 = immediate, 2 = base, 3 = 2*base.
// Returns nil if any attempt succeeds; last error otherwise.
func withRetry(ctx context.Context, maxAttempts int, base time.Duration, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := time.Duration(1<<uint(i-1)) * base
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := fn(i); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}

const (
	replayTickInterval = 30 * time.Second
	replayBatchSize    = 10
)

// ReplayConfig holds the dependencies of the DLQ replay loop.
type ReplayConfig struct {
	RDB         *redis.Client
	CB          *infra.CircuitBreaker
	Queue       string
	MaxAttempts int
}

// StartDLQReplay re-enqueues dead-lettered email jobs every 30s while the SMTP
// circuit breaker is not open. Jobs that reached MaxAttempts stay in the DLQ.
func StartDLQReplay(ctx context.Context, cfg ReplayConfig) {
	go func() {
		ticker := time.NewTicker(replayTickInterval)
		defer ticker.Stop()

		log.Info().Str("queue", cfg.Queue).Msg("dlq_replay: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("dlq_replay: shutting down")
				return
			case <-ticker.C:
				replayDLQ(ctx, cfg)
			}
		}
	}()
}

func replayDLQ(ctx context.Context, cfg ReplayConfig) {
	if cfg.CB != nil && cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("dlq_replay: circuit breaker is open, skipping tick")
		return
	}
	d := NewDispatcher(cfg.RDB)
	key := DLQPrefix + cfg.Queue
	for i := 0; i < replayBatchSize; i++ {
		raw, err := cfg.RDB.RPop(ctx, key).Result()
		if err != nil {
			return // redis.Nil: empty
		}
		var entry DLQEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			log.Error().Err(err).Msg("dlq_replay: dropping malformed entry")
			continue
		}
		if entry.Attempts >= cfg.MaxAttempts {
			// Parked for manual inspection.
			_ = cfg.RDB.LPush(ctx, key+":parked", raw).Err()
			continue
		}
		job := Job{Type: entry.JobType, Payload: entry.Payload, Attempts: entry.Attempts}
		if err := d.push(ctx, cfg.Queue, job); err != nil {
			log.Error().Err(err).Msg("dlq_replay: re-enqueue failed")
			_ = cfg.RDB.LPush(ctx, key, raw).Err()
			return
		}
	}
}
