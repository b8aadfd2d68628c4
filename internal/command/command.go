package command

import (
	commandHandler "supportdesk/internal/command/handler"
	"supportdesk/internal/cron"

	"github.com/google/wire"
	"github.com/spf13/cobra"
)

var ProviderSet = wire.NewSet(NewCommand, commandHandler.NewReleaseAssignmentsHandler, cron.NewReleaseAssignmentsJob)

type Command struct {
	releaseAssignmentsHandler *commandHandler.ReleaseAssignmentsHandler
}

// NewCommand .
func NewCommand(
	releaseAssignmentsHandler *commandHandler.ReleaseAssignmentsHandler,
) *Command {
	return &Command{
		releaseAssignmentsHandler: releaseAssignmentsHandler,
	}
}

func Register(rootCmd *cobra.Command, newCmd func() (*Command, func(), error)) {
	release := &cobra.Command{
		Use:   "release-assignments",
		Short: "把指派給停用或非客服帳號的對話退回未指派",
		RunE: func(cmd *cobra.Command, args []string) error {
			command, cleanup, err := newCmd()
			if err != nil {
				return err
			}
			defer cleanup()

			return command.releaseAssignmentsHandler.Run(cmd, args)
		},
	}
	release.Flags().Duration("timeout", commandHandler.DefaultReleaseTimeout, "執行逾時")
	rootCmd.AddCommand(release)
}
