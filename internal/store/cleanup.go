package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/founderport/angel/internal/shared"
)

const cleanupInterval = 5 * time.Minute

// StartCleanupWorker periodically removes interview sessions that have been
// idle longer than ttl. SQLITE_BUSY failures are retried with exponential
// backoff on the next attempt rather than tight-looping.
func StartCleanupWorker(ctx context.Context, repo Repository, ttl time.Duration) {
	go func() {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				slog.Info("Session cleanup worker stopped")
				return
			case <-ticker.C:
				cleanupOnce(ctx, repo, ttl)
			}
		}
	}()
}

func cleanupOnce(ctx context.Context, repo Repository, ttl time.Duration) {
	const maxRetries = 3
	baseDelay := 100 * time.Millisecond

	for i := 0; i < maxRetries; i++ {
		removed, err := repo.CleanupExpiredSessions(ctx, ttl)
		if err == nil {
			if removed > 0 {
				slog.Info("Removed expired interview sessions", "count", removed, "ttl", ttl)
			}
			return
		}

		if shared.IsSQLiteConflictError(err) && i < maxRetries-1 {
			delay := baseDelay * time.Duration(1<<i)
			slog.Debug("Session cleanup hit a busy database, retrying", "attempt", i+1, "delay", delay)
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			continue
		}

		slog.Error("Session cleanup failed", "error", err)
		return
	}
}
