// Package scheduler provides cron-based scheduling for the price polling cycle.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dealwatch/backend/internal/tracker"
)

// parser matches cron.WithSeconds
var parser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Config holds the scheduler configuration
type Config struct {
	// Schedule is a standard 5-field cron expression (e.g., "0 */4 * * *" for every four hours)
	// or a descriptor such as "@daily" or "@every 4h"
	Schedule string
	// Timeout is the maximum duration for a complete polling cycle
	Timeout time.Duration
	// Enabled determines if the scheduler should run
	Enabled bool
	// RunOnStart triggers one cycle as soon as the scheduler starts
	RunOnStart bool
}

// DefaultConfig returns the default scheduler configuration
func DefaultConfig() Config {
	return Config{
		Schedule:   "0 */4 * * *", // Every four hours, midnight included
		Timeout:    10 * time.Minute,
		Enabled:    true,
		RunOnStart: true,
	}
}

// Runner executes one polling cycle
type Runner interface {
	RunOnce(ctx context.Context) (tracker.CycleReport, error)
}

// Scheduler manages the scheduled polling job
type Scheduler struct {
	cron    *cron.Cron
	runner  Runner
	config  Config
	logger  *slog.Logger
	entryID cron.EntryID
}

// New creates a new Scheduler instance
func New(cfg Config, runner Runner, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		cron:   cron.New(cron.WithParser(parser)),
		runner: runner,
		config: cfg,
		logger: logger,
	}
}

// Start begins the scheduler
func (s *Scheduler) Start() error {
	if !s.config.Enabled {
		s.logger.Info("Scheduler is disabled, skipping start")
		return nil
	}

	entryID, err := s.cron.AddFunc(cronSpec(s.config.Schedule), func() {
		s.runJob()
	})
	if err != nil {
		return err
	}

	s.entryID = entryID
	s.cron.Start()

	s.logger.Info("Scheduler started",
		slog.String("schedule", s.config.Schedule),
		slog.Duration("timeout", s.config.Timeout),
		slog.Bool("run_on_start", s.config.RunOnStart),
	)

	if s.config.RunOnStart {
		s.RunNow()
	}

	return nil
}

// Stop gracefully stops the scheduler. The returned context is done when running jobs finish.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("Stopping scheduler...")
	return s.cron.Stop()
}

// RunNow triggers an immediate polling cycle in the background
func (s *Scheduler) RunNow() {
	go s.runJob()
}

func (s *Scheduler) runJob() {
	ctx := context.Background()
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	startTime := time.Now()
	s.logger.Info("Starting scheduled polling cycle", slog.Time("start_time", startTime))

	report, err := s.runner.RunOnce(ctx)
	duration := time.Since(startTime)

	if errors.Is(err, tracker.ErrCycleInProgress) {
		s.logger.Warn("Previous polling cycle still running, skipping")
		return
	}
	if errors.Is(err, tracker.ErrShuttingDown) {
		s.logger.Info("Tracker is shutting down, skipping polling cycle")
		return
	}
	if err != nil {
		s.logger.Error("Polling cycle failed",
			slog.String("error", err.Error()),
			slog.Duration("duration", duration),
		)
		return
	}

	s.logger.Info("Polling cycle finished",
		slog.String("cycle_id", report.CycleID),
		slog.Int("events", report.Events),
		slog.Int("sent", report.Sent),
		slog.Duration("duration", duration),
	)
}

// ValidateSchedule reports whether Start would accept schedule
func ValidateSchedule(schedule string) error {
	_, err := parser.Parse(cronSpec(schedule))
	return err
}

// cronSpec adds the seconds field to a standard 5-field expression.
// Descriptors have no fields and pass through.
func cronSpec(schedule string) string {
	schedule = strings.TrimSpace(schedule)
	if strings.HasPrefix(schedule, "@") {
		return schedule
	}
	return "0 " + schedule
}

// GetNextRunTime returns the next scheduled run time
func (s *Scheduler) GetNextRunTime() time.Time {
	if s.entryID == 0 {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}

// GetLastRunTime returns the last scheduled run time
func (s *Scheduler) GetLastRunTime() time.Time {
	if s.entryID == 0 {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Prev
}

// IsRunning returns true if the scheduler has a registered job
func (s *Scheduler) IsRunning() bool {
	return s.cron != nil && len(s.cron.Entries()) > 0
}
