package history

import (
	"context"
	"time"

	"github.com/gnandy18/hieagent/pkg/model"
)

// StoredInfo summarizes what the system holds about a user without dumping
// the full history.
type StoredInfo struct {
	Exists           bool
	DisplayName      string
	EntryCount       int
	FirstInteraction time.Time
	LastInteraction  time.Time
	// RecentTopics are the summaries of the last few user messages.
	RecentTopics []string
}

const maxRecentTopics = 3

// Info reports the stored-data summary for a user.
func (u *UseCase) Info(ctx context.Context, userKey string) (*StoredInfo, error) {
	record, err := u.Fetch(ctx, userKey)
	if err != nil {
		return nil, err
	}

	info := &StoredInfo{
		Exists:      len(record.Entries) > 0,
		DisplayName: record.DisplayName,
		EntryCount:  len(record.Entries),
	}
	if !info.Exists {
		return info, nil
	}

	info.FirstInteraction = record.Entries[0].Timestamp
	info.LastInteraction = record.Entries[len(record.Entries)-1].Timestamp

	for i := len(record.Entries) - 1; i >= 0 && len(info.RecentTopics) < maxRecentTopics; i-- {
		entry := record.Entries[i]
		if entry.Role == model.RoleUser && entry.Summary != "" {
			info.RecentTopics = append(info.RecentTopics, entry.Summary)
		}
	}
	return info, nil
}
