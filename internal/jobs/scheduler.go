// Package jobs runs periodic maintenance tasks on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"kaizen/internal/middleware"

	"github.com/robfig/cron/v3"
)

const flushTimeout = time.Minute

// BlacklistFlusher drops revocation entries of tokens that already expired.
type BlacklistFlusher interface {
	FlushExpired(ctx context.Context) (int64, error)
}

// Scheduler wraps a cron runner whose jobs log through slog and survive panics.
type Scheduler struct {
	cron *cron.Cron
}

func NewScheduler() *Scheduler {
	logger := cronLogger{log: middleware.Logger.With(slog.String("component", "cron"))}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
	}
}

// AddBlacklistFlush schedules f with a standard cron spec or a descriptor
// such as "@hourly".
func (s *Scheduler) AddBlacklistFlush(spec string, f BlacklistFlusher) error {
	if _, err := s.cron.AddFunc(spec, func() { FlushBlacklist(context.Background(), f) }); err != nil {
		return fmt.Errorf("schedule blacklist flush %q: %w", spec, err)
	}
	return nil
}

// Len reports the number of scheduled jobs.
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// FlushBlacklist runs one flush and logs the outcome.
func FlushBlacklist(ctx context.Context, f BlacklistFlusher) {
	ctx, cancel := context.WithTimeout(ctx, flushTimeout)
	defer cancel()

	removed, err := f.FlushExpired(ctx)
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "blacklist flush failed", slog.String("error", err.Error()))
		return
	}
	middleware.Logger.InfoContext(ctx, "blacklist flushed", slog.Int64("removed", removed))
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append(keysAndValues, "error", err)...)
}
