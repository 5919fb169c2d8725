package model

// MeetingRequirements is the structured form of a booking utterance.
// Derived once per extraction and treated as immutable afterwards, except
// for the title which the suggestion widget lets the user edit.
type MeetingRequirements struct {
	Title     string   `json:"title"`
	Type      string   `json:"type,omitempty"`
	Attendees int      `json:"attendees"`  // always >= 1
	Duration  float64  `json:"duration"`   // hours, always > 0
	StartTime float64  `json:"start_time"` // hours of day, 0-24
	Features  []string `json:"features"`   // canonical names, fixed order, no duplicates
}

// RoomSuggestion is one ranked candidate in the suggestion carousel.
// Ephemeral: recomputed whenever requirements or the catalogue change.
type RoomSuggestion struct {
	RoomID       string   `json:"room_id"`
	RoomName     string   `json:"room_name"`
	RoomCapacity int      `json:"room_capacity"`
	RoomFeatures []string `json:"room_features"`
	Floor        int      `json:"floor"`
	Score        int      `json:"score"`
}
