package cli

import (
	"context"
	"fmt"

	"github.com/gnandy18/hieagent/pkg/usecase/history"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func historyCommand() *cli.Command {
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
		Name:  "history",
		Usage: "Show a user's stored history",
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
			record, err := uc.Fetch(ctx, email)
			if err != nil {
				return goerr.Wrap(err, "failed to fetch history")
			}

			if len(record.Entries) == 0 {
				fmt.Fprintf(c.Root().Writer, "No stored history for %s\n", email)
				return nil
			}

			if record.DisplayName != "" {
				fmt.Fprintf(c.Root().Writer, "Name: %s\n", record.DisplayName)
			}
			for _, entry := range record.Entries {
				fmt.Fprintf(c.Root().Writer, "%s\t%s\t%s\n",
					entry.Timestamp.Format("2006-01-02 15:04:05"),
					entry.Role,
					entry.Summary,
				)
			}

			return nil
		},
	}
}
