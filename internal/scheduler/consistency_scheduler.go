package scheduler

import (
	"context"
	"time"

	"github.com/ikkim/ridehail-backend/internal/app/service"
	"github.com/ikkim/ridehail-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

const auditTimeout = 2 * time.Minute

// FlagAuditor is the part of the verification service the scheduler drives.
type FlagAuditor interface {
	AuditFlagConsistency(ctx context.Context) (*service.ConsistencyReport, error)
}

// ConsistencyScheduler periodically audits verification flags against
// verification statuses. It only reports; it never repairs.
type ConsistencyScheduler struct {
	cron     *cron.Cron
	auditor  FlagAuditor
	schedule string
}

func NewConsistencyScheduler(auditor FlagAuditor, schedule string) *ConsistencyScheduler {
	return &ConsistencyScheduler{
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		auditor:  auditor,
		schedule: schedule,
	}
}

// Start registers the audit job. An empty or "off" schedule disables it.
func (s *ConsistencyScheduler) Start() error {
	if s.schedule == "" || s.schedule == "off" {
		logger.Info("Verification flag audit disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, s.RunOnce); err != nil {
		logger.Error("Failed to add cron job for verification flag audit", err, map[string]interface{}{
			"schedule": s.schedule,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Verification flag audit scheduler started", map[string]interface{}{
		"schedule": s.schedule,
	})
	return nil
}

// RunOnce performs a single audit.
func (s *ConsistencyScheduler) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), auditTimeout)
	defer cancel()

	report, err := s.auditor.AuditFlagConsistency(ctx)
	if err != nil {
		logger.Error("Scheduled verification flag audit failed", err)
		return
	}

	if len(report.Drift) > 0 {
		logger.Warn("Scheduled verification flag audit found drift", map[string]interface{}{
			"drift": len(report.Drift),
		})
		return
	}
	logger.Info("Scheduled verification flag audit clean")
}

// Stop waits for a running audit to finish.
func (s *ConsistencyScheduler) Stop() {
	logger.Info("Stopping verification flag audit scheduler...")
	<-s.cron.Stop().Done()
	logger.Info("Verification flag audit scheduler stopped")
}
