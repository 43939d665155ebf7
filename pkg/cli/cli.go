package cli

import (
	"context"

	"github.com/urfave/cli/v3"
)

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	cmd := &cli.Command{
		Name:  "hieagent",
		Usage: "HIE support chat agent with per-user history",
		Commands: []*cli.Command{
			chatCommand(),
			recordCommand(),
			historyCommand(),
			infoCommand(),
			forgetCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}
