// Package schedule re-runs a job on a cron schedule until cancelled.
package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	appLog "moncal/internal/log"
)

// Run calls fn once straight away and then at every tick of spec, a
// standard five-field cron expression or descriptor such as "@daily",
// evaluated in loc. fn receives the time reported by now, or time.Now
// when now is nil. Ticks that arrive while fn is still running are
// skipped. Run blocks until ctx is done and any running call has
// returned.
func Run(ctx context.Context, spec string, loc *time.Location, now func() time.Time, fn func(time.Time)) error {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return fmt.Errorf("schedule: %q: %w", spec, err)
	}

	logger := cronLogger{}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	c.Schedule(sched, cron.FuncJob(func() {
		fn(now().In(loc))
	}))

	fn(now().In(loc))
	appLog.Debug("schedule started", "spec", spec, "next", sched.Next(now().In(loc)).Format(time.RFC3339))

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	appLog.Debug("schedule stopped", "spec", spec)
	return nil
}

// cronLogger routes cron's own logging into the application logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, kv ...any) {
	appLog.Debug("cron: "+msg, kv...)
}

func (cronLogger) Error(err error, msg string, kv ...any) {
	appLog.Error("cron: "+msg, err, kv...)
}
