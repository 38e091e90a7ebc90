package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/ikkim/ridehail-backend/internal/app/repository"
	"github.com/ikkim/ridehail-backend/internal/app/service"
	"github.com/stretchr/testify/assert"
)

type countingAuditor struct {
	calls atomic.Int32
	err   error
}

func (a *countingAuditor) AuditFlagConsistency(context.Context) (*service.ConsistencyReport, error) {
	a.calls.Add(1)
	if a.err != nil {
		return nil, a.err
	}
	return &service.ConsistencyReport{Drift: []repository.FlagDrift{{VerificationID: 1}}}, nil
}

func TestConsistencyScheduler_RunOnce(t *testing.T) {
	auditor := &countingAuditor{}
	NewConsistencyScheduler(auditor, "@hourly").RunOnce()
	assert.Equal(t, int32(1), auditor.calls.Load())

	failing := &countingAuditor{err: errors.New("db down")}
	NewConsistencyScheduler(failing, "@hourly").RunOnce()
	assert.Equal(t, int32(1), failing.calls.Load())
}

func TestConsistencyScheduler_Start(t *testing.T) {
	t.Run("valid schedule", func(t *testing.T) {
		s := NewConsistencyScheduler(&countingAuditor{}, "*/5 * * * *")
		assert.NoError(t, s.Start())
		s.Stop()
	})

	t.Run("invalid schedule", func(t *testing.T) {
		s := NewConsistencyScheduler(&countingAuditor{}, "every now and then")
		assert.Error(t, s.Start())
	})

	t.Run("disabled", func(t *testing.T) {
		auditor := &countingAuditor{}
		s := NewConsistencyScheduler(auditor, "off")
		assert.NoError(t, s.Start())
		s.Stop()
		assert.Equal(t, int32(0), auditor.calls.Load())
	})
}
