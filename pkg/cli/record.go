package cli

import (
	"context"
	"fmt"

	"github.com/gnandy18/hieagent/pkg/model"
	"github.com/gnandy18/hieagent/pkg/usecase/history"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func recordCommand() *cli.Command {
	var (
		cfg            config
		email          string
		role           string
		message        string
		conversationID string
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
		&cli.StringFlag{
			Name:        "role",
			Aliases:     []string{"r"},
			Usage:       "Role of the message (user or assistant)",
			Value:       "user",
			Destination: &role,
		},
		&cli.StringFlag{
			Name:        "message",
			Aliases:     []string{"m"},
			Usage:       "Message to append to the user's history",
			Destination: &message,
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "conversation-id",
			Usage:       "Conversation ID to associate with the entry",
			Destination: &conversationID,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, knowledgeFlags(&cfg)...)
	flags = append(flags, summarizerFlags(&cfg)...)

	return &cli.Command{
		Name:  "record",
		Usage: "Append one summarized message to a user's stored history",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.setupLogger()

			if err := validateEmail(email); err != nil {
				return err
			}

			uc, err := cfg.newHistory(ctx)
			if err != nil {
				return err
			}

			record, err := uc.Record(ctx, &history.RecordInput{
				UserKey:        email,
				Role:           model.Role(role),
				Message:        message,
				ConversationID: conversationID,
			})
			if err != nil {
				return goerr.Wrap(err, "failed to record message")
			}

			fmt.Fprintf(c.Root().Writer, "Recorded entry %d for %s\n", len(record.Entries), email)
			return nil
		},
	}
}
