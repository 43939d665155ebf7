package history

import (
	"context"

	"github.com/gnandy18/hieagent/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// Forget deletes all stored history for a user and reports whether any
// existed. Every live segment is removed, so it also heals the
// multiple-segment anomaly. Retention scheduling is out of scope; this is
// the explicit user-driven erasure path.
func (u *UseCase) Forget(ctx context.Context, userKey string) (bool, error) {
	if userKey == "" {
		return false, model.ErrEmptyUserKey
	}

	unlock := u.locks.Lock(userKey)
	defer unlock()

	segments, err := u.store.Find(ctx, userKey)
	if err != nil {
		return false, goerr.Wrap(err, "failed to find history segments", goerr.V("user_key", userKey))
	}
	if len(segments) == 0 {
		return false, nil
	}

	for _, segment := range segments {
		if err := u.store.Delete(ctx, segment.ID); err != nil {
			return false, goerr.Wrap(err, "failed to delete history segment",
				goerr.V("user_key", userKey),
				goerr.V("segment_id", segment.ID),
			)
		}
	}
	return true, nil
}
