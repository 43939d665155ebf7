package adapter

import (
	"context"
	"strings"

	"github.com/gnandy18/hieagent/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

// GeminiSummarizer implements Summarizer directly on Gemini, for
// deployments that do not run a Dify summary app. Structured output keeps
// the response on the same strict JSON schema the Dify prompt demands.
type GeminiSummarizer struct {
	client          *genai.Client
	generativeModel string
}

type GeminiOption func(*GeminiSummarizer)

func WithGenerativeModel(modelID string) GeminiOption {
	return func(g *GeminiSummarizer) {
		g.generativeModel = modelID
	}
}

func NewGeminiSummarizer(ctx context.Context, projectID, location string, opts ...GeminiOption) (*GeminiSummarizer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create genai client")
	}

	g := &GeminiSummarizer{
		client:          client,
		generativeModel: "gemini-2.5-flash",
	}

	for _, opt := range opts {
		opt(g)
	}

	return g, nil
}

func (x *GeminiSummarizer) Summarize(ctx context.Context, input *SummarizeInput) (*model.SummaryResult, error) {
	if input.Message == "" {
		return &model.SummaryResult{Name: input.KnownName, Relevance: model.RelevanceYes}, nil
	}

	temperature := float32(0)
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(strings.TrimSpace(summarizePromptRaw), ""),
		Temperature:       &temperature,
		ResponseMIMEType:  "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"summary": {
					Type:        genai.TypeString,
					Description: "concise privacy-filtered summary of the message",
				},
				"name": {
					Type:        genai.TypeString,
					Description: "user name if explicitly provided, otherwise empty string",
				},
				"question_hie_related": {
					Type:        genai.TypeString,
					Description: "whether the message is about HIE: yes or no",
					Enum:        []string{"yes", "no"},
				},
			},
			Required: []string{"summary", "name", "question_hie_related"},
		},
	}

	contents := []*genai.Content{
		genai.NewContentFromText(buildSummarizePrompt(input), genai.RoleUser),
	}

	resp, err := x.client.Models.GenerateContent(ctx, x.generativeModel, contents, config)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate summary", goerr.T(model.TagTransient))
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, goerr.New("no summary generated")
	}

	var answer strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			answer.WriteString(part.Text)
		}
	}
	if answer.Len() == 0 {
		return nil, goerr.New("empty summary generated")
	}

	return parseSummaryAnswer(answer.String(), input.KnownName), nil
}
