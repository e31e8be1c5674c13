package jobs

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"videoearn/internal/service"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReconciler struct {
	calls int
	err   error
}

func (f *fakeReconciler) All(ctx context.Context) (*service.ReconcileSummary, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &service.ReconcileSummary{Checked: 3, Drifted: 1, DriftedIDs: []uint{2}}, nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestScheduleReconcileRejectsBadSpec(t *testing.T) {
	s, err := NewScheduler(&fakeReconciler{}, time.UTC, quietLogger())
	require.NoError(t, err)
	defer s.Shutdown()

	assert.Error(t, s.ScheduleReconcile("not a cron"))
	assert.NoError(t, s.ScheduleReconcile("30 2 * * *"))
}

func TestRunReconcile(t *testing.T) {
	f := &fakeReconciler{}
	s, err := NewScheduler(f, nil, quietLogger())
	require.NoError(t, err)
	defer s.Shutdown()

	s.RunReconcile()
	assert.Equal(t, 1, f.calls)

	f.err = errors.New("boom")
	s.RunReconcile()
	assert.Equal(t, 2, f.calls)
}
