// Package watcher runs the appointment workflow on a schedule, with a
// reachability probe in front of it and a status api beside it.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"vfsbot/lib/telemetry"
	"vfsbot/lib/vfs"
)

var tracer = telemetry.Tracer("vfsbot.services.watcher")
var meter = otel.Meter("vfsbot.services.watcher")

const DefaultInterval = time.Minute * 30

// tickTimeout bounds one run. The anti-bot challenge alone is allowed five
// minutes, so this stays generous.
const tickTimeout = time.Minute * 15

// Runner executes one appointment check. *vfs.Bot satisfies this.
type Runner interface {
	Execute(ctx context.Context, provided map[string]string) (vfs.Result, error)
}

type Options struct {
	// Identity is the workflow being watched, for logs and /status.
	Identity string
	// URL is probed before every run. An unreachable portal skips the
	// tick instead of burning a browser launch on it.
	URL string
	// Query is the appointment search, collected once up front so ticks
	// never block on a terminal.
	Query map[string]string
	// Interval between runs. Defaults to DefaultInterval.
	Interval time.Duration
	// CronSpec schedules runs by cron expression instead of Interval.
	CronSpec string
	// Immediate runs the first check at startup instead of waiting out
	// a full interval.
	Immediate bool
	// StatusPort serves the status api when non-zero.
	StatusPort int
}

type Service struct {
	runner Runner
	opts   Options
	status *statusTracker
	probe  *preflightProbe

	runCounter       metric.Int64Counter
	foundCounter     metric.Int64Counter
	failedCounter    metric.Int64Counter
	preflightCounter metric.Int64Counter
}

func NewService(runner Runner, opts Options) (*Service, error) {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}

	runCounter, err := meter.Int64Counter(
		"watcher_runs_total",
		metric.WithDescription("The total amount of appointment checks attempted."),
	)
	if err != nil {
		return nil, err
	}
	foundCounter, err := meter.Int64Counter(
		"watcher_found_total",
		metric.WithDescription("The total amount of runs that found at least one appointment."),
	)
	if err != nil {
		return nil, err
	}
	failedCounter, err := meter.Int64Counter(
		"watcher_failed_total",
		metric.WithDescription("The total amount of runs that failed before the check concluded."),
	)
	if err != nil {
		return nil, err
	}
	preflightCounter, err := meter.Int64Counter(
		"watcher_preflight_skips_total",
		metric.WithDescription("The total amount of ticks skipped because the portal was unreachable."),
	)
	if err != nil {
		return nil, err
	}

	probe, err := newPreflightProbe(opts.URL)
	if err != nil {
		return nil, err
	}

	return &Service{
		runner:           runner,
		opts:             opts,
		status:           newStatusTracker(opts.Identity),
		probe:            probe,
		runCounter:       runCounter,
		foundCounter:     foundCounter,
		failedCounter:    failedCounter,
		preflightCounter: preflightCounter,
	}, nil
}

// Start blocks running checks on the configured schedule until ctx is
// cancelled. At most one check is in flight at a time: a tick firing while
// the previous run is still going is dropped, not queued behind it.
func (s *Service) Start(ctx context.Context) error {
	if s.opts.StatusPort > 0 {
		go s.serveStatus(ctx)
	}

	slog.InfoContext(ctx, "watching for appointments",
		"identity", s.opts.Identity,
		"interval", s.opts.Interval.String(),
		"cron", s.opts.CronSpec,
	)

	if s.opts.CronSpec != "" {
		return s.startCron(ctx)
	}

	if s.opts.Immediate {
		s.tick(ctx)
	}
	ticker := time.NewTicker(s.opts.Interval)
	for {
		select {
		case <-ctx.Done():
			ticker.Stop()
			return nil
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Service) startCron(ctx context.Context) error {
	logger := cronLogger{}
	schedule := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.SkipIfStillRunning(logger)),
	)
	_, err := schedule.AddFunc(s.opts.CronSpec, func() {
		s.tick(ctx)
	})
	if err != nil {
		return fmt.Errorf("parse cron spec %q: %w", s.opts.CronSpec, err)
	}

	if s.opts.Immediate {
		s.tick(ctx)
	}
	schedule.Start()
	<-ctx.Done()
	// let an in-flight run finish before reporting stopped
	<-schedule.Stop().Done()
	return nil
}

func (s *Service) tick(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, tickTimeout)
	defer cancel()

	ctx, span := tracer.Start(ctx, "watcher:tick")
	defer span.End()

	started := time.Now()

	if s.probe != nil && !s.probe.Check(ctx) {
		s.preflightCounter.Add(ctx, 1)
		slog.WarnContext(ctx, "portal unreachable, skipping this check",
			"identity", s.opts.Identity)
		s.status.Record(TickStatus{
			Time:    started,
			Outcome: "skipped_unreachable",
		})
		return
	}

	s.runCounter.Add(ctx, 1)
	result, err := s.runner.Execute(ctx, s.opts.Query)
	if err != nil {
		s.failedCounter.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "appointment check failed")
		slog.ErrorContext(ctx, "appointment check failed", "err", err.Error())
		s.status.Record(TickStatus{
			Time:    started,
			Outcome: "failed",
			Error:   err.Error(),
		})
		return
	}

	if result.Found {
		s.foundCounter.Add(ctx, 1)
	}
	s.status.Record(TickStatus{
		Time:    started,
		Outcome: string(result.Outcome),
		RunID:   result.RunID,
		Dates:   result.Dates,
	})
}

// cronLogger adapts the cron library's logging onto slog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	args := append([]any{"err", err.Error()}, keysAndValues...)
	slog.Error("cron: "+msg, args...)
}
