package cli

import (
	"context"
	"os"
	"time"

	"github.com/gnandy18/hieagent/pkg/adapter"
	"github.com/gnandy18/hieagent/pkg/usecase/history"
	"github.com/gnandy18/hieagent/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// config holds configuration values
type config struct {
	logLevel string

	// Dify chat app (relay)
	difyURL    string
	difyAPIKey string

	// Dify knowledge dataset (segment store)
	knowledgeURL    string
	knowledgeAPIKey string
	datasetID       string
	documentID      string

	// Summarizer
	summarizer     string
	summaryURL     string
	summaryAPIKey  string
	geminiProject  string
	geminiLocation string
	geminiModel    string

	timeout time.Duration
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("HIEAGENT_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
		&cli.DurationFlag{
			Name:        "timeout",
			Usage:       "HTTP timeout for Dify API calls",
			Value:       30 * time.Second,
			Sources:     cli.EnvVars("DIFY_TIMEOUT"),
			Destination: &cfg.timeout,
		},
	}
}

// relayFlags returns flags for the Dify chat app
func relayFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "dify-url",
			Usage:       "Base URL of the Dify chat app",
			Sources:     cli.EnvVars("DIFY_URL"),
			Destination: &cfg.difyURL,
		},
		&cli.StringFlag{
			Name:        "dify-api-key",
			Usage:       "API key of the Dify chat app",
			Sources:     cli.EnvVars("DIFY_API"),
			Destination: &cfg.difyAPIKey,
		},
	}
}

// knowledgeFlags returns flags for the Dify knowledge dataset that stores
// user history
func knowledgeFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "knowledge-url",
			Usage:       "Base URL of the Dify knowledge API (defaults to --dify-url)",
			Sources:     cli.EnvVars("DIFY_KNOWLEDGE_URL"),
			Destination: &cfg.knowledgeURL,
		},
		&cli.StringFlag{
			Name:        "knowledge-api-key",
			Usage:       "API key of the Dify knowledge API (defaults to --dify-api-key)",
			Sources:     cli.EnvVars("DIFY_KNOWLEDGE_API"),
			Destination: &cfg.knowledgeAPIKey,
		},
		&cli.StringFlag{
			Name:        "dataset-id",
			Usage:       "Dify dataset ID holding user history",
			Sources:     cli.EnvVars("DIFY_DATASET_ID"),
			Destination: &cfg.datasetID,
		},
		&cli.StringFlag{
			Name:        "document-id",
			Usage:       "Dify document ID holding user history segments",
			Sources:     cli.EnvVars("DIFY_DOCUMENT_ID"),
			Destination: &cfg.documentID,
		},
	}
}

// summarizerFlags returns flags for the summarization backend
func summarizerFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "summarizer",
			Usage:       "Summarization backend: dify, gemini or none",
			Value:       "dify",
			Sources:     cli.EnvVars("HIEAGENT_SUMMARIZER"),
			Destination: &cfg.summarizer,
		},
		&cli.StringFlag{
			Name:        "summary-url",
			Usage:       "Base URL of the Dify summarizer app (defaults to --dify-url)",
			Sources:     cli.EnvVars("DIFY_SUMMARY_URL"),
			Destination: &cfg.summaryURL,
		},
		&cli.StringFlag{
			Name:        "summary-api-key",
			Usage:       "API key of the Dify summarizer app",
			Sources:     cli.EnvVars("DIFY_SUMMARY_API_KEY"),
			Destination: &cfg.summaryAPIKey,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "gemini-model",
			Usage:       "Gemini model ID for summarization",
			Value:       "gemini-2.5-flash",
			Sources:     cli.EnvVars("GEMINI_MODEL"),
			Destination: &cfg.geminiModel,
		},
	}
}

// setupLogger installs the default logger at the configured level
func (cfg *config) setupLogger() {
	logging.SetDefault(logging.New(cfg.logLevel, os.Stderr))
}

// newRelay creates a Dify chat relay instance
func (cfg *config) newRelay() (adapter.ChatRelay, error) {
	return adapter.NewRelay(adapter.RelayConfig{
		BaseURL: cfg.difyURL,
		APIKey:  cfg.difyAPIKey,
		Timeout: cfg.timeout,
	})
}

// newKnowledge creates a segment store instance. The knowledge API reuses
// the chat app's URL and key unless dedicated ones are set.
func (cfg *config) newKnowledge() (adapter.SegmentStore, error) {
	baseURL := cfg.knowledgeURL
	if baseURL == "" {
		baseURL = cfg.difyURL
	}
	apiKey := cfg.knowledgeAPIKey
	if apiKey == "" {
		apiKey = cfg.difyAPIKey
	}

	return adapter.NewKnowledge(adapter.KnowledgeConfig{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		DatasetID:  cfg.datasetID,
		DocumentID: cfg.documentID,
		Timeout:    cfg.timeout,
	})
}

// newSummarizer creates the configured summarization backend. "none"
// returns nil, which stores messages raw.
func (cfg *config) newSummarizer(ctx context.Context) (adapter.Summarizer, error) {
	switch cfg.summarizer {
	case "none":
		return nil, nil

	case "dify":
		baseURL := cfg.summaryURL
		if baseURL == "" {
			baseURL = cfg.difyURL
		}
		return adapter.NewSummarizer(adapter.SummaryConfig{
			BaseURL: baseURL,
			APIKey:  cfg.summaryAPIKey,
			Timeout: cfg.timeout,
		})

	case "gemini":
		return adapter.NewGeminiSummarizer(ctx, cfg.geminiProject, cfg.geminiLocation,
			adapter.WithGenerativeModel(cfg.geminiModel))

	default:
		return nil, goerr.New("unknown summarizer backend", goerr.V("summarizer", cfg.summarizer))
	}
}

// newHistory creates the history synchronizer with its store and summarizer
func (cfg *config) newHistory(ctx context.Context) (*history.UseCase, error) {
	store, err := cfg.newKnowledge()
	if err != nil {
		return nil, err
	}

	summarizer, err := cfg.newSummarizer(ctx)
	if err != nil {
		return nil, err
	}

	return history.New(store, summarizer), nil
}
