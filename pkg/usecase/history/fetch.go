package history

import (
	"context"

	"github.com/gnandy18/hieagent/pkg/model"
)

// Fetch returns the stored record for a user, oldest entry first. A user
// with no stored history gets an empty record, not an error. Reads use the
// same most-recent-segment rule as appends, so a stale segment left by an
// interrupted replace stays invisible.
func (u *UseCase) Fetch(ctx context.Context, userKey string) (*model.HistoryRecord, error) {
	if userKey == "" {
		return nil, model.ErrEmptyUserKey
	}

	_, record, err := u.load(ctx, userKey)
	if err != nil {
		return nil, err
	}
	return record, nil
}
