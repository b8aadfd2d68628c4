package command

import (
	"context"
	"time"

	"supportdesk/internal/cron"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const DefaultReleaseTimeout = time.Minute

type ReleaseAssignmentsHandler struct {
	logger *zap.Logger
	job    *cron.ReleaseAssignmentsJob
}

func NewReleaseAssignmentsHandler(logger *zap.Logger, job *cron.ReleaseAssignmentsJob) *ReleaseAssignmentsHandler {
	return &ReleaseAssignmentsHandler{
		logger: logger,
		job:    job,
	}
}

// Run 手動執行一次釋放指派，給維運補跑用
func (handler *ReleaseAssignmentsHandler) Run(cmd *cobra.Command, args []string) error {
	timeout, err := cmd.Flags().GetDuration("timeout")
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	released, err := handler.job.Execute(ctx)
	if err != nil {
		return err
	}
	cmd.Printf("released %d conversation(s)\n", released)
	return nil
}
