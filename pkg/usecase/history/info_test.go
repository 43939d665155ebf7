package history_test

import (
	"testing"
	"time"

	"github.com/gnandy18/hieagent/pkg/adapter"
	"github.com/gnandy18/hieagent/pkg/model"
	"github.com/gnandy18/hieagent/pkg/usecase/history"
	"github.com/m-mizutani/gt"
)

func TestInfoUnknownUser(t *testing.T) {
	uc := history.New(newMemStore(), nil)

	info, err := uc.Info(t.Context(), testUser)
	gt.NoError(t, err)
	gt.True(t, !info.Exists)
	gt.V(t, info.EntryCount).Equal(0)
}

func TestInfoSummarizesStoredData(t *testing.T) {
	store := newMemStore()
	summarizer := &mockSummarizer{fn: func(input *adapter.SummarizeInput) (*model.SummaryResult, error) {
		return &model.SummaryResult{Summary: "topic: " + input.Message, Name: "Alice", Relevance: model.RelevanceYes}, nil
	}}

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	turn := 0
	uc := history.New(store, summarizer, history.WithClock(func() time.Time {
		turn++
		return base.Add(time.Duration(turn) * time.Minute)
	}))

	for _, message := range []string{"one", "two", "three", "four"} {
		_, err := uc.Record(t.Context(), &history.RecordInput{UserKey: testUser, Role: model.RoleUser, Message: message})
		gt.NoError(t, err)
		_, err = uc.Record(t.Context(), &history.RecordInput{UserKey: testUser, Role: model.RoleAssistant, Message: "answer"})
		gt.NoError(t, err)
	}

	info, err := uc.Info(t.Context(), testUser)
	gt.NoError(t, err)
	gt.True(t, info.Exists)
	gt.V(t, info.DisplayName).Equal("Alice")
	gt.V(t, info.EntryCount).Equal(8)
	gt.V(t, info.FirstInteraction).Equal(base.Add(time.Minute))
	gt.V(t, info.LastInteraction).Equal(base.Add(8 * time.Minute))

	// Only the latest few user-side topics, newest first.
	gt.A(t, info.RecentTopics).Length(3)
	gt.V(t, info.RecentTopics[0]).Equal("topic: four")
	gt.V(t, info.RecentTopics[2]).Equal("topic: two")
}
