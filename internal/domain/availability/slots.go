package availability

import (
	"sort"
	"time"
)

// SlotStride is the distance between consecutive candidate starts. It does not
// depend on the slot duration, so offered slots may overlap each other.
const SlotStride = 30 * time.Minute

const DefaultSlotDuration = 60 * time.Minute

// GenerateSlots lists the open start times of date as "HH:MM" strings in
// ascending order.
func GenerateSlots(date string, settings *Settings, reservations []Reservation, slotDuration time.Duration) []string {
	starts := openStarts(date, settings, reservations, slotDuration)
	out := make([]string, 0, len(starts))
	for _, c := range starts {
		out = append(out, c.String())
	}
	return out
}

// IsSlotAvailable checks one candidate start against the same rules GenerateSlots applies.
func IsSlotAvailable(date string, start Clock, settings *Settings, reservations []Reservation, slotDuration time.Duration) bool {
	if settings == nil || settings.IsBlocked(date) {
		return false
	}
	intervals, err := settings.Intervals(date)
	if err != nil {
		return false
	}
	slotDuration = normalizeDuration(slotDuration)
	booked := reservationsOn(date, reservations)
	for _, interval := range intervals {
		if interval.Fits(start, slotDuration) {
			return !conflicts(start, booked, settings.Buffer)
		}
	}
	return false
}

func openStarts(date string, settings *Settings, reservations []Reservation, slotDuration time.Duration) []Clock {
	if settings == nil || settings.IsBlocked(date) {
		return nil
	}
	intervals, err := settings.Intervals(date)
	if err != nil || len(intervals) == 0 {
		return nil
	}
	slotDuration = normalizeDuration(slotDuration)
	booked := reservationsOn(date, reservations)

	seen := make(map[Clock]struct{})
	var starts []Clock
	for _, interval := range intervals {
		for start := interval.Start; interval.Fits(start, slotDuration); start = start.Add(SlotStride) {
			if _, dup := seen[start]; dup {
				continue
			}
			if conflicts(start, booked, settings.Buffer) {
				continue
			}
			seen[start] = struct{}{}
			starts = append(starts, start)
		}
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i] < starts[j] })
	return starts
}

func conflicts(start Clock, booked []Reservation, buffer time.Duration) bool {
	for _, r := range booked {
		if r.interval().Conflicts(start, buffer) {
			return true
		}
	}
	return false
}

func normalizeDuration(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultSlotDuration
	}
	return d
}
