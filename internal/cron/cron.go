package cron

import (
	"context"

	"supportdesk/config"

	"github.com/google/wire"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var ProviderSet = wire.NewSet(NewCron, NewReleaseAssignmentsJob)

type Cron struct {
	logger     *zap.Logger
	config     *config.Configuration
	server     *cron.Cron
	releaseJob *ReleaseAssignmentsJob
}

// NewCron .
func NewCron(logger *zap.Logger, config *config.Configuration, releaseJob *ReleaseAssignmentsJob) *Cron {
	server := cron.New(
		cron.WithSeconds(),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	return &Cron{
		logger:     logger,
		config:     config,
		server:     server,
		releaseJob: releaseJob,
	}
}

func (c *Cron) Run() error {
	if spec := c.config.Cron.ReleaseAssignmentsSpec; spec != "" {
		if _, err := c.server.AddFunc(spec, c.releaseJob.Run); err != nil {
			return err
		}
		c.logger.Info("cron job registered", zap.String("job", "release-assignments"), zap.String("spec", spec))
	}

	c.server.Start()
	return nil
}

// Stop 等正在跑的 job 結束或 ctx 到期
func (c *Cron) Stop(ctx context.Context) error {
	done := c.server.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
