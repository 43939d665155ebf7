package model

// ChatResponse is the relay's answer to a single chat turn.
type ChatResponse struct {
	Answer         string
	ConversationID string
	Citations      []*Citation
	Metadata       map[string]any
}

// SummaryResult is the structured output of the summarization service for
// one message.
type SummaryResult struct {
	// Summary is the privacy-filtered compression of the message.
	Summary string
	// Name is the best-known display name after considering the message.
	// Empty when the message revealed none and no name was known before.
	Name string
	// Relevance classifies whether the message concerns the HIE domain.
	Relevance Relevance
}
