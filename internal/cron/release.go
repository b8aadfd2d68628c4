package cron

import (
	"context"
	"time"

	"supportdesk/internal/core"
	"supportdesk/internal/service"
	"supportdesk/internal/telemetry"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const releaseJobTimeout = time.Minute

type assignmentReleaser interface {
	ReleaseInactiveStaffAssignments(ctx context.Context) (int64, error)
}

// ReleaseAssignmentsJob 把指派給已停用或已非客服帳號的對話退回未指派
type ReleaseAssignmentsJob struct {
	logger   *zap.Logger
	trace    *telemetry.Trace
	releaser assignmentReleaser
}

func NewReleaseAssignmentsJob(logger *zap.Logger, trace *telemetry.Trace, releaser *service.ConversationService) *ReleaseAssignmentsJob {
	return &ReleaseAssignmentsJob{logger: logger, trace: trace, releaser: releaser}
}

func (job *ReleaseAssignmentsJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), releaseJobTimeout)
	defer cancel()
	_, _ = job.Execute(ctx)
}

// Execute 回傳被釋放的對話數
func (job *ReleaseAssignmentsJob) Execute(ctx context.Context) (int64, error) {
	ctx, span, end := job.trace.WithSpan(ctx, string(core.SpanReleaseAssignmentJob))
	released, err := job.releaser.ReleaseInactiveStaffAssignments(ctx)
	span.SetAttributes(attribute.Int64("job.released", released))
	end(err)
	if err != nil {
		job.logger.Error("release assignments failed", zap.Error(err))
		return 0, err
	}
	if released > 0 {
		job.logger.Info("released stale assignments", zap.Int64("released", released))
	}
	return released, nil
}
