// Package jobs runs periodic catalog maintenance.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/pap-cedram/pap-backend/internal/catalog/service"
	"github.com/pap-cedram/pap-backend/internal/logging"
)

// Auditor is the part of the catalog service the scheduler needs.
type Auditor interface {
	Audit(ctx context.Context) (service.AuditReport, error)
}

// Scheduler runs the integrity audit on a cron schedule (with seconds).
type Scheduler struct {
	cron    *cron.Cron
	auditor Auditor
	log     *zap.Logger
	timeout time.Duration
}

// NewScheduler registers the audit job on schedule, e.g. "0 0 3 * * *".
func NewScheduler(schedule string, auditor Auditor, log *zap.Logger) (*Scheduler, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Scheduler{
		cron:    cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		auditor: auditor,
		log:     log,
		timeout: time.Minute,
	}
	if _, err := s.cron.AddFunc(schedule, s.RunAudit); err != nil {
		return nil, fmt.Errorf("invalid audit schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start runs the scheduler in the background.
func (s *Scheduler) Start() {
	s.log.Info("audit scheduler started")
	s.cron.Start()
}

// Stop halts the scheduler and waits for a running audit to finish or ctx
// to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.log.Warn("audit still running at shutdown")
	}
}

// RunAudit performs one audit and logs its findings.
func (s *Scheduler) RunAudit() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	ctx = logging.WithLogger(ctx, s.log.With(zap.String("job", "audit")))

	start := time.Now()
	report, err := s.auditor.Audit(ctx)
	if err != nil {
		s.log.Error("audit failed", zap.Error(err))
		return
	}
	s.log.Info("audit finished",
		zap.Bool("clean", report.Clean()),
		zap.Int("orphans", len(report.Orphans)),
		zap.Int("duplicate_names", len(report.DuplicateNames)),
		zap.Int("missing_columns", len(report.MissingColumns)),
		zap.Int("non_canonical", report.NonCanonical),
		zap.Duration("took", time.Since(start)),
	)
}
