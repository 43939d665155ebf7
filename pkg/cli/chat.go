package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"
	"github.com/gnandy18/hieagent/pkg/model"
	"github.com/gnandy18/hieagent/pkg/usecase/chat"
	"github.com/gnandy18/hieagent/pkg/usecase/history"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func chatCommand() *cli.Command {
	var (
		cfg        config
		email      string
		inputsPath string
		noHistory  bool
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
			Name:        "inputs",
			Aliases:     []string{"i"},
			Usage:       "Path to YAML file with chat app input variables",
			Sources:     cli.EnvVars("HIEAGENT_INPUTS"),
			Destination: &inputsPath,
		},
		&cli.BoolFlag{
			Name:        "no-history",
			Usage:       "Disable history persistence for this session",
			Sources:     cli.EnvVars("HIEAGENT_NO_HISTORY"),
			Destination: &noHistory,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, relayFlags(&cfg)...)
	flags = append(flags, knowledgeFlags(&cfg)...)
	flags = append(flags, summarizerFlags(&cfg)...)

	return &cli.Command{
		Name:  "chat",
		Usage: "Start an interactive support conversation",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.setupLogger()

			if err := validateEmail(email); err != nil {
				return err
			}

			relay, err := cfg.newRelay()
			if err != nil {
				return err
			}

			var hist *history.UseCase
			if !noHistory {
				if hist, err = cfg.newHistory(ctx); err != nil {
					return err
				}
			}

			inputs, err := loadInputs(inputsPath)
			if err != nil {
				return err
			}

			session, err := chat.New(&chat.NewInput{
				Relay:   relay,
				History: hist,
				UserKey: email,
				Inputs:  inputs,
			})
			if err != nil {
				return goerr.Wrap(err, "failed to create chat session")
			}

			record, err := session.Resume(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to load stored history")
			}
			printGreeting(c, record)

			rl, err := readline.New("> ")
			if err != nil {
				return goerr.Wrap(err, "failed to open terminal")
			}
			defer rl.Close()

			fmt.Fprintf(c.Root().Writer, "Type 'exit' or 'quit' to leave.\n")

			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return goerr.Wrap(err, "failed to read input")
				}

				message := strings.TrimSpace(line)
				if message == "" {
					continue
				}
				if message == "exit" || message == "quit" {
					break
				}

				resp, err := sendWithSpinner(ctx, session, message)
				if err != nil {
					return goerr.Wrap(err, "failed to send message")
				}

				fmt.Fprintf(c.Root().Writer, "%s\n", resp.Answer)
				printCitations(c, session, resp)
			}

			fmt.Fprintf(c.Root().Writer, "\nBye.\n")
			session.Wait()
			return nil
		},
	}
}

// sendWithSpinner relays one message while showing a terminal spinner.
func sendWithSpinner(ctx context.Context, session *chat.Session, message string) (*model.ChatResponse, error) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " thinking..."
	s.Start()
	defer s.Stop()

	return session.Send(ctx, message)
}

// printGreeting welcomes a returning user based on their stored record.
func printGreeting(c *cli.Command, record *model.HistoryRecord) {
	if record == nil || len(record.Entries) == 0 {
		fmt.Fprintf(c.Root().Writer, "Hello! How can I help you today?\n")
		return
	}

	name := record.DisplayName
	if name == "" {
		name = "there"
	}
	fmt.Fprintf(c.Root().Writer, "Welcome back, %s!\n", name)

	for i := len(record.Entries) - 1; i >= 0; i-- {
		if e := record.Entries[i]; e.Role == model.RoleUser && e.Summary != "" {
			fmt.Fprintf(c.Root().Writer, "Last time we talked about: %s\n", e.Summary)
			break
		}
	}
}

// printCitations shows the answer's sources unless the question was
// classified as off-topic.
func printCitations(c *cli.Command, session *chat.Session, resp *model.ChatResponse) {
	if len(resp.Citations) == 0 || !session.ShowSources() {
		return
	}

	fmt.Fprintf(c.Root().Writer, "Sources:\n")
	for _, citation := range resp.Citations {
		fmt.Fprintf(c.Root().Writer, "  - %s\n", citation.DisplayLabel())
	}
}

// validateEmail checks the minimal shape of a user email: one "@" that is
// neither the first nor the last character.
func validateEmail(email string) error {
	at := strings.Index(email, "@")
	if at <= 0 || at != strings.LastIndex(email, "@") || at == len(email)-1 {
		return goerr.New("invalid email address", goerr.V("email", email))
	}
	return nil
}
