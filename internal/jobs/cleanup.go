// Package jobs holds periodic maintenance tasks run by the server's cron
// scheduler.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ExpiredDeleter removes cached search results that expired before now.
type ExpiredDeleter interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// CacheJanitor deletes expired showtime search cache rows. Fresh rows are
// never touched, so it only reclaims space.
type CacheJanitor struct {
	store   ExpiredDeleter
	log     *zap.Logger
	now     func() time.Time
	timeout time.Duration
}

// NewCacheJanitor returns a janitor over store.
func NewCacheJanitor(store ExpiredDeleter, log *zap.Logger) *CacheJanitor {
	return &CacheJanitor{store: store, log: log, now: time.Now, timeout: time.Minute}
}

// RunOnce performs one cleanup pass and returns the number of rows removed.
func (j *CacheJanitor) RunOnce(ctx context.Context) (int64, error) {
	n, err := j.store.DeleteExpired(ctx, j.now().UTC())
	if err != nil {
		j.log.Error("search cache cleanup failed", zap.Error(err))
		return 0, err
	}
	j.log.Info("search cache cleanup done", zap.Int64("deleted", n))
	return n, nil
}

// Schedule registers the janitor on c with a cron spec such as "@hourly"
// or "0 */6 * * *".
func (j *CacheJanitor) Schedule(c *cron.Cron, spec string) (cron.EntryID, error) {
	return c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
		defer cancel()
		_, _ = j.RunOnce(ctx)
	})
}

// NewScheduler returns a UTC cron scheduler that logs through log and
// skips a run while the previous one of the same job is still going.
func NewScheduler(log *zap.Logger) *cron.Cron {
	l := cronLogger{log.Sugar()}
	return cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(l),
		cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
	)
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
