// Package match scores candidate rooms against meeting requirements.
package match

import "github.com/roomflow-ai/booking-platform/internal/model"

// Overlaps reports whether two half-open intervals [aStart, aStart+aDur)
// and [bStart, bStart+bDur) intersect. Symmetric, no side effects.
func Overlaps(aStart, aDur, bStart, bDur float64) bool {
	return !(aStart+aDur <= bStart || aStart >= bStart+bDur)
}

// RoomFree reports whether the room has no meeting overlapping the slot.
func RoomFree(room model.Room, start, duration float64) bool {
	for _, m := range room.Meetings {
		if Overlaps(start, duration, m.StartTime, m.Duration) {
			return false
		}
	}
	return true
}
