package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gnandy18/hieagent/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// ChatRelay is the contract of the hosted conversational-AI platform. One
// call is one blocking chat turn; all language understanding happens on the
// remote side.
type ChatRelay interface {
	Send(ctx context.Context, input *RelaySendInput) (*model.ChatResponse, error)
}

// RelaySendInput carries one user message to the relay.
type RelaySendInput struct {
	Message        string
	ConversationID string
	// User is an arbitrary caller identifier shown in the platform's logs.
	User string
	// Inputs are structured variables the remote chat app expects.
	Inputs map[string]string
}

// RelayConfig holds the connection settings of the Dify chat app.
type RelayConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
}

type relayClient struct {
	config RelayConfig
	client *http.Client
}

// NewRelay creates a chat relay client for a Dify chat-messages endpoint.
func NewRelay(config RelayConfig) (ChatRelay, error) {
	if config.BaseURL == "" {
		return nil, goerr.New("relay base URL is required", goerr.T(model.TagConfiguration))
	}
	if config.APIKey == "" {
		return nil, goerr.New("relay API key is required", goerr.T(model.TagConfiguration))
	}

	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}

	client := config.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: config.Timeout}
	}

	return &relayClient{
		config: config,
		client: client,
	}, nil
}

type chatMessageRequest struct {
	Inputs         map[string]string `json:"inputs"`
	Query          string            `json:"query"`
	ResponseMode   string            `json:"response_mode"`
	ConversationID string            `json:"conversation_id,omitempty"`
	User           string            `json:"user"`
}

type chatMessageResponse struct {
	Answer         string         `json:"answer"`
	ConversationID string         `json:"conversation_id"`
	Metadata       map[string]any `json:"metadata"`
}

func (x *relayClient) Send(ctx context.Context, input *RelaySendInput) (*model.ChatResponse, error) {
	if input.Message == "" {
		return nil, goerr.New("message is empty")
	}

	inputs := input.Inputs
	if inputs == nil {
		inputs = map[string]string{}
	}
	user := input.User
	if user == "" {
		user = "local-user"
	}

	payload, err := json.Marshal(chatMessageRequest{
		Inputs:         inputs,
		Query:          input.Message,
		ResponseMode:   "blocking",
		ConversationID: input.ConversationID,
		User:           user,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal chat request")
	}

	endpoint := x.config.BaseURL + "/v1/chat-messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build chat request")
	}
	req.Header.Set("Authorization", "Bearer "+x.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := x.client.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "chat request failed", goerr.T(model.TagTransient))
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, "chat request"); err != nil {
		return nil, err
	}

	var parsed chatMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, goerr.Wrap(err, "failed to decode chat response")
	}

	conversationID := parsed.ConversationID
	if conversationID == "" {
		conversationID = input.ConversationID
	}

	return &model.ChatResponse{
		Answer:         parsed.Answer,
		ConversationID: conversationID,
		Citations:      ExtractCitations(parsed.Metadata),
		Metadata:       parsed.Metadata,
	}, nil
}
