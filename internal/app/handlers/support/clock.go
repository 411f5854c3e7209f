package support

import "time"

// NowOr returns t in UTC, or the current time when t is zero.
func NowOr(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}
