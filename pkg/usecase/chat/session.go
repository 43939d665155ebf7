// Package chat runs one interactive support conversation: relaying user
// messages to the hosted chat app and persisting each exchange into the
// user's stored history in the background.
package chat

import (
	"context"
	"sync"

	"github.com/gnandy18/hieagent/pkg/adapter"
	"github.com/gnandy18/hieagent/pkg/model"
	"github.com/gnandy18/hieagent/pkg/usecase/history"
	"github.com/gnandy18/hieagent/pkg/utils/logging"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// Session is one conversation with one user. It is not safe for concurrent
// Send calls; the interactive loop drives it one turn at a time.
type Session struct {
	relay   adapter.ChatRelay
	history *history.UseCase

	userKey   string
	relayUser string
	inputs    map[string]string

	conversationID string

	// pending is the completion signal of the most recently started
	// background recording. Each recording waits for its predecessor, so
	// exchanges land in the stored history in conversation order.
	pending <-chan struct{}
	wg      sync.WaitGroup

	mu            sync.Mutex
	lastRelevance model.Relevance
}

// NewInput configures a session. History may be nil, in which case nothing
// is persisted and the session is a plain relay front end.
type NewInput struct {
	Relay   adapter.ChatRelay
	History *history.UseCase
	UserKey string
	// Inputs are structured variables forwarded to the remote chat app on
	// every turn.
	Inputs map[string]string
}

// New creates a session. The relay-side user identifier is a fresh UUID per
// session so the user key never appears in the remote platform's logs.
func New(input *NewInput) (*Session, error) {
	if input.Relay == nil {
		return nil, goerr.New("chat relay is required")
	}
	if input.History != nil && input.UserKey == "" {
		return nil, model.ErrEmptyUserKey
	}

	return &Session{
		relay:     input.Relay,
		history:   input.History,
		userKey:   input.UserKey,
		relayUser: "session-" + uuid.NewString(),
		inputs:    input.Inputs,
	}, nil
}

// Resume loads the user's stored record and, when the most recent entry
// carries a conversation id, continues that conversation instead of
// starting a new one. It returns the record so the caller can greet a
// returning user; a nil record means history is disabled.
func (x *Session) Resume(ctx context.Context) (*model.HistoryRecord, error) {
	if x.history == nil {
		return nil, nil
	}

	record, err := x.history.Fetch(ctx, x.userKey)
	if err != nil {
		return nil, err
	}

	x.conversationID = record.LastConversationID()
	return record, nil
}

// Send relays one user message and returns the answer. The exchange is
// persisted in the background; a recording failure never disturbs the
// conversation.
func (x *Session) Send(ctx context.Context, message string) (*model.ChatResponse, error) {
	resp, err := x.relay.Send(ctx, &adapter.RelaySendInput{
		Message:        message,
		ConversationID: x.conversationID,
		User:           x.relayUser,
		Inputs:         x.inputs,
	})
	if err != nil {
		return nil, err
	}

	if resp.ConversationID != "" {
		x.conversationID = resp.ConversationID
	}

	x.recordExchange(ctx, message, resp)
	return resp, nil
}

// recordExchange persists the user turn and the assistant turn as one unit,
// off the conversation's critical path. The recording context is detached
// from the turn's context so an answered exchange is still stored after the
// caller moves on.
func (x *Session) recordExchange(ctx context.Context, message string, resp *model.ChatResponse) {
	if x.history == nil {
		return
	}

	ctx = context.WithoutCancel(ctx)
	conversationID := x.conversationID
	prev := x.pending
	done := make(chan struct{})
	x.pending = done

	x.wg.Add(1)
	go func() {
		defer x.wg.Done()
		defer close(done)
		if prev != nil {
			<-prev
		}

		record, err := x.history.Record(ctx, &history.RecordInput{
			UserKey:        x.userKey,
			Role:           model.RoleUser,
			Message:        message,
			ConversationID: conversationID,
		})
		if err != nil {
			logging.From(ctx).Warn("failed to record user turn",
				"user_key", x.userKey, "error", err)
		} else if last := record.LastEntry(); last != nil {
			x.mu.Lock()
			x.lastRelevance = last.Relevance
			x.mu.Unlock()
		}

		if _, err := x.history.Record(ctx, &history.RecordInput{
			UserKey:        x.userKey,
			Role:           model.RoleAssistant,
			Message:        resp.Answer,
			ConversationID: conversationID,
		}); err != nil {
			logging.From(ctx).Warn("failed to record assistant turn",
				"user_key", x.userKey, "error", err)
		}
	}()
}

// ShowSources reports whether citations for the latest answered exchange
// should be shown. Sources are hidden only when the user's question was
// classified as off-topic. It waits for the classification of the latest
// exchange, so it must not be called concurrently with Send.
func (x *Session) ShowSources() bool {
	if x.pending != nil {
		<-x.pending
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	return x.lastRelevance != model.RelevanceNo
}

// ConversationID returns the id of the ongoing remote conversation, empty
// until the first answered turn.
func (x *Session) ConversationID() string {
	return x.conversationID
}

// Wait blocks until all background recordings are flushed. Call it before
// exiting the interactive loop.
func (x *Session) Wait() {
	x.wg.Wait()
}
