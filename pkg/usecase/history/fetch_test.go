package history_test

import (
	"testing"

	"github.com/gnandy18/hieagent/pkg/model"
	"github.com/gnandy18/hieagent/pkg/usecase/history"
	"github.com/m-mizutani/gt"
)

func TestFetchUnknownUserIsEmpty(t *testing.T) {
	uc := history.New(newMemStore(), nil)

	record, err := uc.Fetch(t.Context(), testUser)
	gt.NoError(t, err)
	gt.V(t, record.UserKey).Equal(testUser)
	gt.A(t, record.Entries).Length(0)
}

func TestFetchRequiresUserKey(t *testing.T) {
	uc := history.New(newMemStore(), nil)

	_, err := uc.Fetch(t.Context(), "")
	gt.Error(t, err)
}

func TestFetchPicksMostRecentSegment(t *testing.T) {
	store := newMemStore()

	stale := model.NewHistoryRecord(testUser)
	stale.Append(&model.HistoryEntry{Role: model.RoleUser, Summary: "stale"})
	content, err := stale.Encode()
	gt.NoError(t, err)
	_, err = store.Create(t.Context(), testUser, content)
	gt.NoError(t, err)

	current := model.NewHistoryRecord(testUser)
	current.Append(&model.HistoryEntry{Role: model.RoleUser, Summary: "current"})
	content, err = current.Encode()
	gt.NoError(t, err)
	_, err = store.Create(t.Context(), testUser, content)
	gt.NoError(t, err)

	uc := history.New(store, nil)
	record, err := uc.Fetch(t.Context(), testUser)
	gt.NoError(t, err)
	gt.A(t, record.Entries).Length(1)
	gt.V(t, record.Entries[0].Summary).Equal("current")
}

func TestFetchUnreadablePayloadIsEmptyRecord(t *testing.T) {
	store := newMemStore()
	_, err := store.Create(t.Context(), testUser, []byte("not json"))
	gt.NoError(t, err)

	uc := history.New(store, nil)
	record, err := uc.Fetch(t.Context(), testUser)
	gt.NoError(t, err)
	gt.A(t, record.Entries).Length(0)
}
