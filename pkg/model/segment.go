package model

import "time"

type SegmentID string

// MetaUserKey is the segment metadata key that carries the owning user's
// key. Legacy segments may lack it, in which case the key is recovered from
// the content payload.
const MetaUserKey = "user_email"

// Segment is the physical envelope a record travels in: opaque content plus
// the metadata map the store indexes it by. Exactly one live segment should
// exist per user key outside of a replace window.
type Segment struct {
	ID        SegmentID
	Metadata  map[string]string
	Content   []byte
	CreatedAt time.Time
}

// UserKey returns the owning user's key from metadata, if present.
func (x *Segment) UserKey() string {
	if x.Metadata == nil {
		return ""
	}
	return x.Metadata[MetaUserKey]
}
