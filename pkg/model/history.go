package model

import (
	"encoding/json"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

var (
	ErrInvalidRole   = goerr.New("invalid role")
	ErrEmptyUserKey  = goerr.New("user key is empty")
	ErrBrokenPayload = goerr.New("broken history payload")
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Validate checks if the role is valid
func (r Role) Validate() error {
	switch r {
	case RoleUser, RoleAssistant:
		return nil
	default:
		return goerr.Wrap(ErrInvalidRole, "unknown role", goerr.V("role", r))
	}
}

// Relevance is the tri-state classification of whether a message concerns
// the HIE subject domain. Unknown means the message was not classified
// (assistant turns, disabled summarizer).
type Relevance string

const (
	RelevanceYes     Relevance = "yes"
	RelevanceNo      Relevance = "no"
	RelevanceUnknown Relevance = ""
)

// NormalizeRelevance coerces free-form summarizer output into a valid
// Relevance. Anything that is not exactly "yes" or "no" counts as "yes",
// matching the convention that unclassified user questions are treated as
// on-topic.
func NormalizeRelevance(s string) Relevance {
	switch Relevance(s) {
	case RelevanceYes, RelevanceNo:
		return Relevance(s)
	default:
		return RelevanceYes
	}
}

// RecordVersion is the current schema version of the serialized record.
const RecordVersion = 1

// HistoryRecord is the logical unit of stored chat history for one user,
// the decoded form of a segment's content blob.
type HistoryRecord struct {
	Version     int             `json:"version,omitempty"`
	UserKey     string          `json:"email"`
	DisplayName string          `json:"name"`
	Entries     []*HistoryEntry `json:"history"`
}

// HistoryEntry is one summarized chat turn.
type HistoryEntry struct {
	Timestamp      time.Time `json:"timestamp"`
	Role           Role      `json:"role"`
	Summary        string    `json:"summary"`
	ConversationID string    `json:"conversation_id,omitempty"`
	Relevance      Relevance `json:"question_hie_related,omitempty"`
}

// NewHistoryRecord creates an empty record for a user without a stored
// segment.
func NewHistoryRecord(userKey string) *HistoryRecord {
	return &HistoryRecord{
		Version: RecordVersion,
		UserKey: userKey,
	}
}

// Append adds an entry to the record. Entry timestamps must never decrease
// within a record, so a timestamp earlier than the last entry's is clamped
// to it.
func (x *HistoryRecord) Append(entry *HistoryEntry) {
	if n := len(x.Entries); n > 0 {
		if last := x.Entries[n-1].Timestamp; entry.Timestamp.Before(last) {
			entry.Timestamp = last
		}
	}
	x.Entries = append(x.Entries, entry)
}

// RefineName updates the display name with a last-non-empty-wins policy: a
// non-empty name always replaces the stored one, an empty name never erases
// it.
func (x *HistoryRecord) RefineName(name string) {
	if name != "" {
		x.DisplayName = name
	}
}

// LastEntry returns the most recent entry, or nil for an empty record.
func (x *HistoryRecord) LastEntry() *HistoryEntry {
	if len(x.Entries) == 0 {
		return nil
	}
	return x.Entries[len(x.Entries)-1]
}

// LastConversationID returns the conversation id of the most recent entry
// that has one, or an empty string.
func (x *HistoryRecord) LastConversationID() string {
	for i := len(x.Entries) - 1; i >= 0; i-- {
		if id := x.Entries[i].ConversationID; id != "" {
			return id
		}
	}
	return ""
}

// Encode serializes the record into the content blob stored in a segment.
func (x *HistoryRecord) Encode() ([]byte, error) {
	if x.UserKey == "" {
		return nil, ErrEmptyUserKey
	}
	x.Version = RecordVersion

	data, err := json.Marshal(x)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal history record", goerr.V("user_key", x.UserKey))
	}
	return data, nil
}

// rawRecord and rawEntry are the lenient wire forms. Stored payloads predate
// the versioned schema and may carry entries with missing fields, loosely
// formatted timestamps, or "content" instead of "summary".
type rawRecord struct {
	Version int             `json:"version"`
	Email   string          `json:"email"`
	Name    string          `json:"name"`
	History json.RawMessage `json:"history"`
}

type rawEntry struct {
	Timestamp      string `json:"timestamp"`
	Role           string `json:"role"`
	Summary        string `json:"summary"`
	Content        string `json:"content"`
	ConversationID string `json:"conversation_id"`
	Relevance      string `json:"question_hie_related"`
}

// DecodeHistoryRecord parses a segment content blob into a HistoryRecord.
// userKey is the key the caller looked the segment up by and takes
// precedence over whatever the payload claims. Legacy payloads that are a
// single bare entry are coerced into a one-entry record.
func DecodeHistoryRecord(userKey string, content []byte) (*HistoryRecord, error) {
	var raw rawRecord
	if err := json.Unmarshal(content, &raw); err != nil {
		return nil, goerr.Wrap(ErrBrokenPayload, "segment content is not a JSON object",
			goerr.V("user_key", userKey))
	}
	if raw.Version > RecordVersion {
		return nil, goerr.Wrap(ErrBrokenPayload, "record version is newer than supported",
			goerr.V("user_key", userKey), goerr.V("version", raw.Version))
	}

	record := &HistoryRecord{
		Version:     RecordVersion,
		UserKey:     userKey,
		DisplayName: raw.Name,
	}

	if len(raw.History) > 0 {
		var rawEntries []json.RawMessage
		if err := json.Unmarshal(raw.History, &rawEntries); err != nil {
			return nil, goerr.Wrap(ErrBrokenPayload, "history field is not an array",
				goerr.V("user_key", userKey))
		}
		for _, data := range rawEntries {
			if entry := coerceEntry(data); entry != nil {
				record.Entries = append(record.Entries, entry)
			}
		}
		return record, nil
	}

	// No history array: the payload may be a legacy single-entry blob.
	var legacy rawEntry
	if err := json.Unmarshal(content, &legacy); err == nil {
		if entry := coerceRawEntry(legacy); entry != nil {
			record.Entries = append(record.Entries, entry)
		}
	}
	return record, nil
}

func coerceEntry(data json.RawMessage) *HistoryEntry {
	var raw rawEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	return coerceRawEntry(raw)
}

func coerceRawEntry(raw rawEntry) *HistoryEntry {
	summary := raw.Summary
	if summary == "" {
		summary = raw.Content
	}
	if summary == "" {
		return nil
	}

	role := Role(raw.Role)
	if role.Validate() != nil {
		role = RoleUser
	}

	entry := &HistoryEntry{
		Role:           role,
		Summary:        summary,
		ConversationID: raw.ConversationID,
	}
	if raw.Relevance != "" {
		entry.Relevance = NormalizeRelevance(raw.Relevance)
	}
	if ts, err := time.Parse(time.RFC3339, raw.Timestamp); err == nil {
		entry.Timestamp = ts
	}
	return entry
}
