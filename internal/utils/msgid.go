package utils

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// NewMessageID returns a ULID string. IDs created by one process within the same
// millisecond are strictly increasing, so they sort in creation order.
func NewMessageID(at time.Time) string {
	return ulid.MustNew(ulid.Timestamp(at), ulid.DefaultEntropy()).String()
}

// MessageIDTime extracts the timestamp embedded in a message id.
func MessageIDTime(id string) (time.Time, error) {
	parsed, err := ulid.ParseStrict(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()).UTC(), nil
}
