package cron

import (
	"context"
	"errors"
	"testing"

	"supportdesk/config"
	"supportdesk/internal/telemetry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeReleaser struct {
	released int64
	err      error
	calls    int
}

func (f *fakeReleaser) ReleaseInactiveStaffAssignments(context.Context) (int64, error) {
	f.calls++
	return f.released, f.err
}

func TestReleaseAssignmentsJob_Execute(t *testing.T) {
	releaser := &fakeReleaser{released: 3}
	job := &ReleaseAssignmentsJob{logger: zap.NewNop(), trace: &telemetry.Trace{}, releaser: releaser}

	released, err := job.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), released)

	releaser.err = errors.New("mongo down")
	_, err = job.Execute(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 2, releaser.calls)
}

func TestCron_RejectsInvalidSpec(t *testing.T) {
	conf := &config.Configuration{}
	conf.Cron.ReleaseAssignmentsSpec = "not a spec"
	job := &ReleaseAssignmentsJob{logger: zap.NewNop(), trace: &telemetry.Trace{}, releaser: &fakeReleaser{}}

	c := NewCron(zap.NewNop(), conf, job)
	assert.Error(t, c.Run())
}

func TestCron_RunsWithoutSpec(t *testing.T) {
	job := &ReleaseAssignmentsJob{logger: zap.NewNop(), trace: &telemetry.Trace{}, releaser: &fakeReleaser{}}
	c := NewCron(zap.NewNop(), &config.Configuration{}, job)

	require.NoError(t, c.Run())
	assert.NoError(t, c.Stop(context.Background()))
}
