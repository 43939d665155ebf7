package history_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gnandy18/hieagent/pkg/adapter"
	"github.com/gnandy18/hieagent/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// memStore is an in-memory SegmentStore mirroring the remote contract:
// whole-segment create and delete only, and deleting a gone segment is not
// an error.
type memStore struct {
	mu       sync.Mutex
	seq      int
	segments map[model.SegmentID]*model.Segment

	findHook   func()
	failCreate bool
	failDelete bool
}

func newMemStore() *memStore {
	return &memStore{
		segments: map[model.SegmentID]*model.Segment{},
	}
}

func (m *memStore) Find(ctx context.Context, userKey string) ([]*model.Segment, error) {
	m.mu.Lock()
	var matched []*model.Segment
	for _, seg := range m.segments {
		if seg.UserKey() == userKey {
			matched = append(matched, seg)
		}
	}
	m.mu.Unlock()

	// Runs after the snapshot is taken so tests can hold a reader on a
	// stale view of the store.
	if m.findHook != nil {
		m.findHook()
	}
	return matched, nil
}

func (m *memStore) Create(ctx context.Context, userKey string, content []byte) (*model.Segment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failCreate {
		return nil, goerr.New("create failed")
	}

	m.seq++
	seg := &model.Segment{
		ID:        model.SegmentID(fmt.Sprintf("seg-%d", m.seq)),
		Metadata:  map[string]string{model.MetaUserKey: userKey},
		Content:   content,
		CreatedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(m.seq) * time.Second),
	}
	m.segments[seg.ID] = seg
	return seg, nil
}

func (m *memStore) Delete(ctx context.Context, id model.SegmentID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failDelete {
		return goerr.New("delete failed")
	}

	delete(m.segments, id)
	return nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.segments)
}

type mockSummarizer struct {
	fn func(input *adapter.SummarizeInput) (*model.SummaryResult, error)
}

func (m *mockSummarizer) Summarize(ctx context.Context, input *adapter.SummarizeInput) (*model.SummaryResult, error) {
	return m.fn(input)
}
