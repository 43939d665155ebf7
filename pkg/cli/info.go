package cli

import (
	"context"
	"fmt"

	"github.com/gnandy18/hieagent/pkg/usecase/history"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func infoCommand() *cli.Command {
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
		Name:  "info",
		Usage: "Show what data is stored about a user",
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
			info, err := uc.Info(ctx, email)
			if err != nil {
				return goerr.Wrap(err, "failed to get stored info")
			}

			if !info.Exists {
				fmt.Fprintf(c.Root().Writer, "No stored data for %s\n", email)
				return nil
			}

			fmt.Fprintf(c.Root().Writer, "User: %s\n", email)
			if info.DisplayName != "" {
				fmt.Fprintf(c.Root().Writer, "Name: %s\n", info.DisplayName)
			}
			fmt.Fprintf(c.Root().Writer, "Entries: %d\n", info.EntryCount)
			fmt.Fprintf(c.Root().Writer, "First interaction: %s\n", info.FirstInteraction.Format("2006-01-02 15:04:05"))
			fmt.Fprintf(c.Root().Writer, "Last interaction: %s\n", info.LastInteraction.Format("2006-01-02 15:04:05"))
			for _, topic := range info.RecentTopics {
				fmt.Fprintf(c.Root().Writer, "Recent topic: %s\n", topic)
			}

			return nil
		},
	}
}
