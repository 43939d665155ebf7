package cli

import (
	"context"
	"fmt"

	"github.com/gnandy18/hieagent/pkg/usecase/history"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func forgetCommand() *cli.Command {
	var (
		cfg   config
		email string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "email",
			Aliases:     []string{"e"},
			Usage:       "Email address identifying the user",
			Sources:     cli.EnvVars("HIEAGENT_EMAIL"),
			Destination: &email,
			Required:    true,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, knowledgeFlags(&cfg)...)

	return &cli.Command{
		Name:  "forget",
		Usage: "Delete all stored history for a user",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.setupLogger()

			if err := validateEmail(email); err != nil {
				return err
			}

			store, err := cfg.newKnowledge()
			if err != nil {
				return err
			}

			uc := history.New(store, nil)
			existed, err := uc.Forget(ctx, email)
			if err != nil {
				return goerr.Wrap(err, "failed to delete stored history")
			}

			if existed {
				fmt.Fprintf(c.Root().Writer, "Deleted stored history for %s\n", email)
			} else {
				fmt.Fprintf(c.Root().Writer, "No stored history for %s\n", email)
			}
			return nil
		},
	}
}
