package model_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/gnandy18/hieagent/pkg/model"
	"github.com/m-mizutani/gt"
)

func TestAppendKeepsTimestampsMonotonic(t *testing.T) {
	record := model.NewHistoryRecord("alice@example.com")
	t1 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	record.Append(&model.HistoryEntry{Timestamp: t1, Role: model.RoleUser, Summary: "first"})
	record.Append(&model.HistoryEntry{Timestamp: t1.Add(-time.Hour), Role: model.RoleAssistant, Summary: "second"})

	gt.A(t, record.Entries).Length(2)
	gt.V(t, record.Entries[1].Timestamp).Equal(t1)
}

func TestRefineNameNeverErases(t *testing.T) {
	record := model.NewHistoryRecord("alice@example.com")

	record.RefineName("Alice")
	gt.V(t, record.DisplayName).Equal("Alice")

	record.RefineName("")
	gt.V(t, record.DisplayName).Equal("Alice")

	record.RefineName("Alice B.")
	gt.V(t, record.DisplayName).Equal("Alice B.")
}

func TestEncodeRequiresUserKey(t *testing.T) {
	record := &model.HistoryRecord{}
	_, err := record.Encode()
	gt.Error(t, err)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	record := model.NewHistoryRecord("alice@example.com")
	record.RefineName("Alice")
	record.Append(&model.HistoryEntry{
		Timestamp:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Role:           model.RoleUser,
		Summary:        "asked about HIE data sharing",
		ConversationID: "conv-1",
		Relevance:      model.RelevanceYes,
	})
	record.Append(&model.HistoryEntry{
		Timestamp: time.Date(2025, 6, 1, 12, 0, 5, 0, time.UTC),
		Role:      model.RoleAssistant,
		Summary:   "explained consent options",
	})

	content, err := record.Encode()
	gt.NoError(t, err)

	decoded, err := model.DecodeHistoryRecord("alice@example.com", content)
	gt.NoError(t, err)
	gt.V(t, decoded.UserKey).Equal("alice@example.com")
	gt.V(t, decoded.DisplayName).Equal("Alice")
	gt.A(t, decoded.Entries).Length(2)
	gt.V(t, decoded.Entries[0].Summary).Equal("asked about HIE data sharing")
	gt.V(t, decoded.Entries[0].ConversationID).Equal("conv-1")
	gt.V(t, decoded.Entries[0].Relevance).Equal(model.RelevanceYes)
	gt.V(t, decoded.Entries[1].Role).Equal(model.RoleAssistant)

	// A second round trip must produce the same bytes so an untouched
	// record never looks modified.
	content2, err := decoded.Encode()
	gt.NoError(t, err)
	gt.V(t, string(content2)).Equal(string(content))
}

func TestDecodeUserKeyOverridesPayload(t *testing.T) {
	content := []byte(`{"email":"impostor@example.com","name":"X","history":[]}`)

	record, err := model.DecodeHistoryRecord("alice@example.com", content)
	gt.NoError(t, err)
	gt.V(t, record.UserKey).Equal("alice@example.com")
}

func TestDecodeLenientEntries(t *testing.T) {
	content := []byte(`{
		"email": "alice@example.com",
		"name": "Alice",
		"history": [
			{"timestamp": "2025-06-01T12:00:00Z", "role": "user", "summary": "ok"},
			{"content": "legacy content field", "role": "bogus-role"},
			{"role": "assistant"},
			{"summary": "no timestamp", "question_hie_related": "maybe"}
		]
	}`)

	record, err := model.DecodeHistoryRecord("alice@example.com", content)
	gt.NoError(t, err)

	// The empty-summary entry is dropped, everything else is coerced.
	gt.A(t, record.Entries).Length(3)
	gt.V(t, record.Entries[0].Timestamp).Equal(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	gt.V(t, record.Entries[1].Summary).Equal("legacy content field")
	gt.V(t, record.Entries[1].Role).Equal(model.RoleUser)
	gt.V(t, record.Entries[2].Relevance).Equal(model.RelevanceYes)
}

func TestDecodeLegacySingleEntry(t *testing.T) {
	content := []byte(`{"timestamp":"2025-06-01T12:00:00Z","role":"user","summary":"single legacy entry"}`)

	record, err := model.DecodeHistoryRecord("alice@example.com", content)
	gt.NoError(t, err)
	gt.A(t, record.Entries).Length(1)
	gt.V(t, record.Entries[0].Summary).Equal("single legacy entry")
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := model.DecodeHistoryRecord("alice@example.com", []byte("not json at all"))
	gt.Error(t, err)
}

func TestDecodeRejectsNewerVersion(t *testing.T) {
	content, err := json.Marshal(map[string]any{
		"version": model.RecordVersion + 1,
		"email":   "alice@example.com",
		"history": []any{},
	})
	gt.NoError(t, err)

	_, err = model.DecodeHistoryRecord("alice@example.com", content)
	gt.Error(t, err)
}

func TestLastConversationID(t *testing.T) {
	record := model.NewHistoryRecord("alice@example.com")
	gt.V(t, record.LastConversationID()).Equal("")

	record.Append(&model.HistoryEntry{Role: model.RoleUser, Summary: "a", ConversationID: "conv-1"})
	record.Append(&model.HistoryEntry{Role: model.RoleAssistant, Summary: "b"})
	gt.V(t, record.LastConversationID()).Equal("conv-1")
}

func TestNormalizeRelevance(t *testing.T) {
	gt.V(t, model.NormalizeRelevance("yes")).Equal(model.RelevanceYes)
	gt.V(t, model.NormalizeRelevance("no")).Equal(model.RelevanceNo)
	gt.V(t, model.NormalizeRelevance("maybe")).Equal(model.RelevanceYes)
	gt.V(t, model.NormalizeRelevance("")).Equal(model.RelevanceYes)
}

func TestRoleValidate(t *testing.T) {
	gt.NoError(t, model.RoleUser.Validate())
	gt.NoError(t, model.RoleAssistant.Validate())
	gt.Error(t, model.Role("system").Validate())
}
