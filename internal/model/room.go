// Package model defines data structures for the booking platform.
package model

// RoomStatus represents the availability state of a room.
type RoomStatus string

const (
	RoomAvailable RoomStatus = "available"
	RoomOccupied  RoomStatus = "occupied"
	RoomOffline   RoomStatus = "offline"
)

// Room is one entry in the room catalogue.
type Room struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Capacity    int        `json:"capacity"`
	Floor       int        `json:"floor"`
	Status      RoomStatus `json:"status"`
	Features    []string   `json:"features"`
	RequestOnly bool       `json:"request_only,omitempty"`
	Meetings    []Meeting  `json:"meetings"`
}

// Meeting occupies the interval [StartTime, StartTime+Duration) in each of
// its rooms. Times are hours of day.
type Meeting struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Organizer       string   `json:"organizer"`
	StartTime       float64  `json:"start_time"`
	Duration        float64  `json:"duration"`
	Attendees       int      `json:"attendees"`
	Rooms           []string `json:"rooms"`
	PendingApproval bool     `json:"pending_approval,omitempty"`
	Syncing         bool     `json:"syncing,omitempty"`
}

// EndTime returns the exclusive end of the meeting interval.
func (m Meeting) EndTime() float64 {
	return m.StartTime + m.Duration
}

// HasFeature reports whether the room carries the named feature exactly.
func (r Room) HasFeature(name string) bool {
	for _, f := range r.Features {
		if f == name {
			return true
		}
	}
	return false
}
