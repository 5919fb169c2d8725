package store

import "github.com/roomflow-ai/booking-platform/internal/model"

// DefaultClockHours is the simulated wall clock the demo catalogue starts
// at, half past ten in the morning.
const DefaultClockHours = 10.5

// DefaultRooms returns the demo office catalogue.
func DefaultRooms() []model.Room {
	return []model.Room{
		{
			ID:       "room-aurora",
			Name:     "Aurora",
			Capacity: 4,
			Floor:    1,
			Status:   model.RoomAvailable,
			Features: []string{"Whiteboard", "TV"},
		},
		{
			ID:       "room-borealis",
			Name:     "Borealis",
			Capacity: 6,
			Floor:    1,
			Status:   model.RoomAvailable,
			Features: []string{"Projector", "Whiteboard"},
			Meetings: []model.Meeting{
				{
					ID:        "meeting-design-sync",
					Title:     "Design Sync",
					Organizer: "Priya",
					StartTime: 9.0,
					Duration:  1.0,
					Attendees: 5,
					Rooms:     []string{"room-borealis"},
				},
			},
		},
		{
			ID:       "room-cascade",
			Name:     "Cascade",
			Capacity: 8,
			Floor:    2,
			Status:   model.RoomAvailable,
			Features: []string{"Video Conf", "Projector", "Whiteboard"},
		},
		{
			ID:       "room-dune",
			Name:     "Dune",
			Capacity: 10,
			Floor:    2,
			Status:   model.RoomOccupied,
			Features: []string{"Video Conf", "TV", "Audio System"},
			Meetings: []model.Meeting{
				{
					ID:        "meeting-all-hands-prep",
					Title:     "All Hands Prep",
					Organizer: "Marcus",
					StartTime: 10.0,
					Duration:  2.0,
					Attendees: 8,
					Rooms:     []string{"room-dune"},
				},
			},
		},
		{
			ID:       "room-ember",
			Name:     "Ember",
			Capacity: 12,
			Floor:    3,
			Status:   model.RoomAvailable,
			Features: []string{"Projector", "Audio System", "Video Conf"},
		},
		{
			ID:          "room-frontier",
			Name:        "Frontier Boardroom",
			Capacity:    16,
			Floor:       3,
			Status:      model.RoomAvailable,
			Features:    []string{"Video Conf", "Projector", "Whiteboard", "Audio System", "TV"},
			RequestOnly: true,
		},
		{
			ID:       "room-glacier",
			Name:     "Glacier",
			Capacity: 2,
			Floor:    1,
			Status:   model.RoomAvailable,
			Features: []string{"TV"},
		},
	}
}
