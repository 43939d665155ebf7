// Package history implements the user-history synchronization pipeline:
// appending summarized chat turns to a per-user record stored as a whole
// segment in the external knowledge store. The store has no atomic update,
// so a record replace is a create-then-delete pair with documented
// consistency windows, and appends for the same user are serialized by an
// in-process keyed lock.
package history

import (
	"context"
	"time"

	"github.com/gnandy18/hieagent/pkg/adapter"
	"github.com/gnandy18/hieagent/pkg/model"
	"github.com/gnandy18/hieagent/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// UseCase is the only component with write access to history segments.
type UseCase struct {
	store      adapter.SegmentStore
	summarizer adapter.Summarizer
	locks      keyedLock
	now        func() time.Time
}

type Option func(*UseCase)

// WithClock replaces the timestamp source. Test use only.
func WithClock(now func() time.Time) Option {
	return func(u *UseCase) {
		u.now = now
	}
}

// New creates the synchronizer. summarizer may be nil, in which case
// messages are stored raw (no privacy filtering, no name detection) and
// user turns default to on-topic.
func New(store adapter.SegmentStore, summarizer adapter.Summarizer, opts ...Option) *UseCase {
	u := &UseCase{
		store:      store,
		summarizer: summarizer,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// load finds the current segment and record for a user. A missing segment
// is the new-user case: it returns a nil segment and a fresh empty record.
// Multiple live segments are an anomaly left behind by an interrupted
// replace; the most recently created one wins deterministically and the
// rest are reported, never merged.
func (u *UseCase) load(ctx context.Context, userKey string) (*model.Segment, *model.HistoryRecord, error) {
	segments, err := u.store.Find(ctx, userKey)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to find history segment", goerr.V("user_key", userKey))
	}

	if len(segments) == 0 {
		return nil, model.NewHistoryRecord(userKey), nil
	}

	segment := latestSegment(segments)
	if len(segments) > 1 {
		logging.From(ctx).Warn("multiple live segments for one user, picking most recent",
			"user_key", userKey,
			"count", len(segments),
			"picked", segment.ID,
			"tag", model.TagAmbiguousState,
		)
	}

	record, err := model.DecodeHistoryRecord(userKey, segment.Content)
	if err != nil {
		// An undecodable blob must not block future appends; start over
		// and let the replace step retire it.
		logging.From(ctx).Warn("stored history payload is unreadable, starting fresh",
			"user_key", userKey,
			"segment_id", segment.ID,
			"error", err,
		)
		record = model.NewHistoryRecord(userKey)
	}

	return segment, record, nil
}

// latestSegment picks the most recently created segment, breaking created-at
// ties by id so the choice is stable across readers.
func latestSegment(segments []*model.Segment) *model.Segment {
	picked := segments[0]
	for _, s := range segments[1:] {
		if s.CreatedAt.After(picked.CreatedAt) ||
			(s.CreatedAt.Equal(picked.CreatedAt) && s.ID > picked.ID) {
			picked = s
		}
	}
	return picked
}
