package match

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roomflow-ai/booking-platform/internal/config"
	"github.com/roomflow-ai/booking-platform/internal/model"
)

// RoomFit classifies one available, conflict-free room against the
// requirements.
type RoomFit struct {
	Room            model.Room
	Score           int
	MatchedFeatures int
	Reason          string // populated for poor fits only
}

// Result is the matcher output: the ranked carousel list plus the good/poor
// breakdown that feeds the thinking-reveal explanation.
type Result struct {
	Suggestions []model.RoomSuggestion
	GoodFits    []RoomFit
	PoorFits    []RoomFit
}

// Matcher ranks catalogue rooms for a set of requirements.
type Matcher struct {
	tuning config.MatchTuning
}

// New creates a matcher with the given tuning constants.
func New(tuning config.MatchTuning) *Matcher {
	return &Matcher{tuning: tuning}
}

// Match filters, classifies, scores, and ranks the catalogue. A room never
// appears in both lists, and a room with a scheduling conflict appears in
// neither. Ties keep catalogue order.
func (m *Matcher) Match(req model.MeetingRequirements, rooms []model.Room) Result {
	var result Result
	seen := make(map[string]bool)

	for _, room := range rooms {
		if seen[room.ID] {
			continue
		}
		seen[room.ID] = true

		if room.Status != model.RoomAvailable {
			continue
		}
		if !RoomFree(room, req.StartTime, req.Duration) {
			continue
		}

		matched, missing := matchFeatures(room, req.Features)
		fit := RoomFit{
			Room:            room,
			MatchedFeatures: len(matched),
			Score:           m.score(room, req, len(matched), len(req.Features)),
		}

		switch {
		case len(missing) > 0:
			fit.Reason = "missing " + strings.Join(missing, ", ")
			result.PoorFits = append(result.PoorFits, fit)
		case room.Capacity < req.Attendees:
			fit.Reason = fmt.Sprintf("seats %d, too small for %d", room.Capacity, req.Attendees)
			result.PoorFits = append(result.PoorFits, fit)
		case room.Capacity > req.Attendees+m.tuning.GoodFitSlack:
			fit.Reason = fmt.Sprintf("seats %d, larger than needed for %d", room.Capacity, req.Attendees)
			result.PoorFits = append(result.PoorFits, fit)
		default:
			result.GoodFits = append(result.GoodFits, fit)
		}
	}

	ranked := make([]RoomFit, 0, len(result.GoodFits)+len(result.PoorFits))
	ranked = append(ranked, result.GoodFits...)
	ranked = append(ranked, result.PoorFits...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	result.Suggestions = make([]model.RoomSuggestion, len(ranked))
	for i, fit := range ranked {
		result.Suggestions[i] = model.RoomSuggestion{
			RoomID:       fit.Room.ID,
			RoomName:     fit.Room.Name,
			RoomCapacity: fit.Room.Capacity,
			RoomFeatures: fit.Room.Features,
			Floor:        fit.Room.Floor,
			Score:        fit.Score,
		}
	}

	return result
}

func (m *Matcher) score(room model.Room, req model.MeetingRequirements, matchedFeatures, requiredFeatures int) int {
	score := 0

	extraSeats := room.Capacity - req.Attendees
	if extraSeats >= 0 && extraSeats <= m.tuning.GoodFitSlack {
		score += m.tuning.CapacityBase - m.tuning.SeatPenalty*extraSeats
	} else if capScore := m.tuning.FallbackBase - extraSeats; capScore > 0 {
		score += capScore
	}

	score += m.tuning.FeatureWeight * matchedFeatures
	if requiredFeatures > 0 && matchedFeatures == requiredFeatures {
		score += m.tuning.AllFeatureBonus
	}

	if room.Floor == 1 {
		score += m.tuning.FirstFloorBonus
	}

	return score
}

// matchFeatures checks every required feature against the room's feature
// list using case-insensitive, bidirectional substring matching, so
// "video conf" matches "Video Conferencing" and vice versa.
func matchFeatures(room model.Room, required []string) (matched, missing []string) {
	for _, want := range required {
		if roomHasFeature(room, want) {
			matched = append(matched, want)
		} else {
			missing = append(missing, want)
		}
	}
	return matched, missing
}

func roomHasFeature(room model.Room, want string) bool {
	w := strings.ToLower(want)
	for _, have := range room.Features {
		h := strings.ToLower(have)
		if strings.Contains(h, w) || strings.Contains(w, h) {
			return true
		}
	}
	return false
}
