package domain

import "time"

// ReplayTuple is the (request id, timestamp) pair sealed under the MasterKey and carried
// next to, never inside, an envelope.
type ReplayTuple struct {
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
}

// Time returns the tuple timestamp as a time.Time in UTC.
func (r ReplayTuple) Time() time.Time {
	return time.UnixMilli(r.Timestamp).UTC()
}

// WithinWindow reports whether the tuple timestamp is within window of now, in either direction.
func (r ReplayTuple) WithinWindow(now time.Time, window time.Duration) bool {
	delta := now.Sub(r.Time())
	if delta < 0 {
		delta = -delta
	}
	return delta <= window
}

// NowMillis returns the current time in epoch milliseconds.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
