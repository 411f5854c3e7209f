package availability

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidClock = errors.New("availability: invalid time of day")

// Clock is a time of day expressed in minutes since midnight.
type Clock int

const endOfDay Clock = 24 * 60

// ParseClock accepts "HH:MM" and "HH:MM:SS" with unsigned digits. Seconds are
// validated and then dropped. "24:00" is accepted as the end of the day.
func ParseClock(raw string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, raw)
	}
	h, ok := clockField(parts[0], 1, 24)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, raw)
	}
	m, ok := clockField(parts[1], 2, 59)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, raw)
	}
	sec := 0
	if len(parts) == 3 {
		if sec, ok = clockField(parts[2], 2, 59); !ok {
			return 0, fmt.Errorf("%w: %q", ErrInvalidClock, raw)
		}
	}
	c := Clock(h*60 + m)
	if c > endOfDay || (c == endOfDay && sec > 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, raw)
	}
	return c, nil
}

// clockField parses one or two ASCII digits, at least minDigits of them, no
// greater than limit.
func clockField(s string, minDigits, limit int) (int, bool) {
	if len(s) < minDigits || len(s) > 2 {
		return 0, false
	}
	v := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		v = v*10 + int(r-'0')
	}
	return v, v <= limit
}

func MustParseClock(raw string) Clock {
	c, err := ParseClock(raw)
	if err != nil {
		panic(err)
	}
	return c
}

// ClockOf returns the time of day of t in its own location.
func ClockOf(t time.Time) Clock {
	return Clock(t.Hour()*60 + t.Minute())
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

func (c Clock) Add(d time.Duration) Clock {
	return c + Clock(d/time.Minute)
}

// Interval is a half-open time-of-day range [Start, End).
type Interval struct {
	Start Clock
	End   Clock
}

func ParseInterval(start, end string) (Interval, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Interval{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return Interval{}, err
	}
	i := Interval{Start: s, End: e}
	if !i.Valid() {
		return Interval{}, fmt.Errorf("%w: %s-%s", ErrInvalidInterval, start, end)
	}
	return i, nil
}

func (i Interval) Valid() bool {
	return i.Start >= 0 && i.End <= endOfDay && i.Start < i.End
}

// Fits reports whether a slot of length d starting at start ends inside the interval.
func (i Interval) Fits(start Clock, d time.Duration) bool {
	return start >= i.Start && start.Add(d) <= i.End
}

// Conflicts reports whether a slot starting at start clashes with the reserved
// interval i once buffer is kept clear ahead of it. Starts in
// [i.Start-buffer, i.End) conflict.
func (i Interval) Conflicts(start Clock, buffer time.Duration) bool {
	return start >= i.Start.Add(-buffer) && start < i.End
}
