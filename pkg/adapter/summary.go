package adapter

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gnandy18/hieagent/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// Summarizer compresses and privacy-filters a single chat message. It also
// extracts the speaker's display name when revealed, and classifies the
// message against the HIE domain.
type Summarizer interface {
	Summarize(ctx context.Context, input *SummarizeInput) (*model.SummaryResult, error)
}

// SummarizeInput is one message to summarize. KnownName is the display name
// already on record, so the summarizer can keep it when the message reveals
// nothing new.
type SummarizeInput struct {
	Role      model.Role
	Message   string
	KnownName string
}

//go:embed prompt/summarize.md
var summarizePromptRaw string

// buildSummarizePrompt renders the full instruction + message prompt shared
// by all summarizer backends.
func buildSummarizePrompt(input *SummarizeInput) string {
	knownName := input.KnownName
	if knownName == "" {
		knownName = `""`
	}

	return fmt.Sprintf("%s\n\nExisting known user name: %s\nSpeaker role: %s\nMessage:\n<<<\n%s\n>>>",
		strings.TrimSpace(summarizePromptRaw), knownName, input.Role, input.Message)
}

// summaryPayload is the strict-JSON shape the prompt demands.
type summaryPayload struct {
	Summary   string `json:"summary"`
	Name      string `json:"name"`
	Relevance string `json:"question_hie_related"`
}

// parseSummaryAnswer interprets a model answer. The prompt forbids markdown
// fences, but models add them anyway, so fences are stripped before JSON
// decoding. A non-JSON answer degrades to using the whole answer as the
// summary rather than failing the append.
func parseSummaryAnswer(answer, fallbackName string) *model.SummaryResult {
	cleaned := strings.TrimSpace(answer)
	if cleaned == "" {
		return &model.SummaryResult{Name: fallbackName, Relevance: model.RelevanceYes}
	}

	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimLeft(cleaned, "`")
		if idx := strings.Index(cleaned, "```"); idx >= 0 {
			cleaned = cleaned[:idx]
		}
		// Drop a possible language hint such as "json".
		if idx := strings.IndexByte(cleaned, '\n'); idx >= 0 && !strings.HasPrefix(strings.TrimSpace(cleaned[:idx]), "{") {
			cleaned = cleaned[idx+1:]
		}
		cleaned = strings.TrimSpace(cleaned)
	}

	var payload summaryPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return &model.SummaryResult{
			Summary:   cleaned,
			Name:      fallbackName,
			Relevance: model.RelevanceYes,
		}
	}

	name := payload.Name
	if name == "" {
		name = fallbackName
	}
	return &model.SummaryResult{
		Summary:   payload.Summary,
		Name:      name,
		Relevance: model.NormalizeRelevance(strings.ToLower(strings.TrimSpace(payload.Relevance))),
	}
}

// SummaryConfig holds the connection settings of the Dify text-generation
// app used as summarizer.
type SummaryConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
}

type difySummarizer struct {
	config SummaryConfig
	client *http.Client
}

// NewSummarizer creates a summarizer backed by a Dify completion-messages
// app.
func NewSummarizer(config SummaryConfig) (Summarizer, error) {
	if config.BaseURL == "" {
		return nil, goerr.New("summary base URL is required", goerr.T(model.TagConfiguration))
	}
	if config.APIKey == "" {
		return nil, goerr.New("summary API key is required", goerr.T(model.TagConfiguration))
	}

	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}

	client := config.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: config.Timeout}
	}

	return &difySummarizer{
		config: config,
		client: client,
	}, nil
}

type completionRequest struct {
	Inputs       map[string]string `json:"inputs"`
	Query        string            `json:"query"`
	ResponseMode string            `json:"response_mode"`
	User         string            `json:"user"`
}

type completionResponse struct {
	Answer string `json:"answer"`
}

func (x *difySummarizer) Summarize(ctx context.Context, input *SummarizeInput) (*model.SummaryResult, error) {
	if input.Message == "" {
		return &model.SummaryResult{Name: input.KnownName, Relevance: model.RelevanceYes}, nil
	}

	prompt := buildSummarizePrompt(input)
	payload, err := json.Marshal(completionRequest{
		Inputs: map[string]string{
			"query":         prompt,
			"role":          string(input.Role),
			"message":       input.Message,
			"existing_name": input.KnownName,
		},
		Query:        prompt,
		ResponseMode: "blocking",
		User:         "summary-agent",
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal summarize request")
	}

	endpoint := x.config.BaseURL + "/v1/completion-messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build summarize request")
	}
	req.Header.Set("Authorization", "Bearer "+x.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := x.client.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "summarize request failed", goerr.T(model.TagTransient))
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, "summarize request"); err != nil {
		return nil, err
	}

	var parsed completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, goerr.Wrap(err, "failed to decode summarize response")
	}

	return parseSummaryAnswer(parsed.Answer, input.KnownName), nil
}
