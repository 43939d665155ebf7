package history

import (
	"context"
	"time"

	"github.com/gnandy18/hieagent/pkg/adapter"
	"github.com/gnandy18/hieagent/pkg/model"
	"github.com/gnandy18/hieagent/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// RecordInput is one logical append: a single chat turn to persist.
type RecordInput struct {
	UserKey        string
	Role           model.Role
	Message        string
	ConversationID string
}

// Validate checks if the input is appendable.
func (x *RecordInput) Validate() error {
	if x.UserKey == "" {
		return model.ErrEmptyUserKey
	}
	if err := x.Role.Validate(); err != nil {
		return err
	}
	if x.Message == "" {
		return goerr.New("message is empty", goerr.V("user_key", x.UserKey))
	}
	return nil
}

// Record appends one summarized turn to the user's stored history:
// locate the current segment, summarize the message, merge the entry into
// the record, then replace the segment (create new, delete old).
//
// Failures are surfaced to the caller and the whole append may be retried
// as a unit; a retried append re-reads current state, so the guarantee is
// at-least-once (a retry after a failure that already reached the create
// step can duplicate one entry). Nothing is retried internally.
func (u *UseCase) Record(ctx context.Context, input *RecordInput) (*model.HistoryRecord, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	unlock := u.locks.Lock(input.UserKey)
	defer unlock()

	oldSegment, record, err := u.load(ctx, input.UserKey)
	if err != nil {
		return nil, err
	}

	result, err := u.summarize(ctx, input, record.DisplayName)
	if err != nil {
		return nil, err
	}

	entry := &model.HistoryEntry{
		Timestamp:      u.now().UTC().Truncate(time.Second),
		Role:           input.Role,
		Summary:        result.Summary,
		ConversationID: input.ConversationID,
	}
	if input.Role == model.RoleUser {
		entry.Relevance = result.Relevance
	}

	record.Append(entry)
	record.RefineName(result.Name)

	if err := u.replace(ctx, oldSegment, record); err != nil {
		return nil, err
	}

	return record, nil
}

// summarize runs the message through the summarization service. With no
// summarizer configured the raw message is stored as its own summary and
// the known name is carried through unchanged.
func (u *UseCase) summarize(ctx context.Context, input *RecordInput, knownName string) (*model.SummaryResult, error) {
	if u.summarizer == nil {
		return &model.SummaryResult{
			Summary:   input.Message,
			Name:      knownName,
			Relevance: model.RelevanceYes,
		}, nil
	}

	result, err := u.summarizer.Summarize(ctx, &adapter.SummarizeInput{
		Role:      input.Role,
		Message:   input.Message,
		KnownName: knownName,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to summarize message", goerr.V("user_key", input.UserKey))
	}

	if result.Summary == "" {
		result.Summary = input.Message
	}
	return result, nil
}

// replace swaps the stored segment for the updated record. The new segment
// is created first: if that fails the old record is untouched and the
// append can be retried cleanly. A delete failure afterwards leaves two
// live segments, which the next read resolves by recency; it is reported
// as a warning, not a failed append.
func (u *UseCase) replace(ctx context.Context, oldSegment *model.Segment, record *model.HistoryRecord) error {
	content, err := record.Encode()
	if err != nil {
		return err
	}

	if _, err := u.store.Create(ctx, record.UserKey, content); err != nil {
		return goerr.Wrap(err, "failed to create history segment", goerr.V("user_key", record.UserKey))
	}

	if oldSegment == nil {
		return nil
	}

	if err := u.store.Delete(ctx, oldSegment.ID); err != nil {
		logging.From(ctx).Warn("created new history segment but failed to delete old one",
			"user_key", record.UserKey,
			"old_segment_id", oldSegment.ID,
			"error", err,
			"tag", model.TagInconsistentReplace,
		)
	}
	return nil
}
