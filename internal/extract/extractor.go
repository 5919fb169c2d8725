// Package extract turns a raw booking utterance into structured meeting
// requirements. Extraction is rule-based and deterministic: identical input
// always yields an identical structure, and every field falls back to a
// documented default rather than failing.
package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/roomflow-ai/booking-platform/internal/model"
)

// Defaults used when the utterance carries no matching detail.
const (
	DefaultAttendees = 1
	DefaultDuration  = 1.0
	DefaultStartTime = 14.0
	DefaultTitle     = "Team Meeting"
)

var (
	attendeesRe = regexp.MustCompile(`(?i)(\d+)\s*(?:people|persons?|attendees?|participants?)\b`)
	hoursRe     = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:hours?|hrs?|h)\b`)
	minutesRe   = regexp.MustCompile(`(?i)(\d+)\s*(?:minutes?|mins?|m)\b`)
	clockRe     = regexp.MustCompile(`(?i)(\d{1,2})(?::(\d{2}))?\s*(am|pm)\b`)
)

// titleRule maps a keyword hit to a meeting title and type. First match wins.
type titleRule struct {
	keywords []string
	title    string
	kind     string
}

var titleRules = []titleRule{
	{[]string{"standup", "stand-up", "daily"}, "Daily Standup", "standup"},
	{[]string{"presentation", "demo"}, "Presentation", "presentation"},
	{[]string{"workshop"}, "Workshop", "workshop"},
	{[]string{"training"}, "Training Session", "training"},
	{[]string{"interview"}, "Interview", "interview"},
	{[]string{"review", "retro"}, "Review Meeting", "review"},
	{[]string{"brainstorm"}, "Brainstorming Session", "brainstorm"},
	{[]string{"1:1", "one-on-one", "1 on 1"}, "1:1 Meeting", "one-on-one"},
	{[]string{"check-in", "checkin", "sync"}, "Team Sync", "sync"},
	{[]string{"meeting"}, "Team Meeting", "meeting"},
}

// featureRule maps synonym hits to a canonical feature name. Rules are
// evaluated independently, in fixed order, and each feature is added at
// most once.
type featureRule struct {
	name     string
	keywords []string
}

var featureRules = []featureRule{
	{"Video Conf", []string{"video conf", "video conferencing", "video call", "video", "teleconference"}},
	{"Projector", []string{"projector", "projection"}},
	{"Whiteboard", []string{"whiteboard", "white board"}},
	{"Audio System", []string{"audio system", "audio", "speakers", "sound system", "microphone"}},
	{"TV", []string{"tv", "television", "big screen", "display screen"}},
}

// Extract parses an utterance into meeting requirements. nowHours is the
// current hour of day, used only for the "now" keyword fallback.
func Extract(text string, nowHours float64) model.MeetingRequirements {
	lower := strings.ToLower(text)

	req := model.MeetingRequirements{
		Title:     DefaultTitle,
		Attendees: DefaultAttendees,
		Duration:  DefaultDuration,
		StartTime: DefaultStartTime,
		Features:  []string{},
	}

	if m := attendeesRe.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n >= 1 {
			req.Attendees = n
		}
	}

	if m := hoursRe.FindStringSubmatch(text); m != nil {
		if h, err := strconv.ParseFloat(m[1], 64); err == nil && h > 0 {
			req.Duration = h
		}
	} else if m := minutesRe.FindStringSubmatch(text); m != nil {
		if mins, err := strconv.Atoi(m[1]); err == nil && mins > 0 {
			req.Duration = float64(mins) / 60.0
		}
	}

	req.StartTime = extractStartTime(lower, nowHours)

	for _, rule := range titleRules {
		if containsAny(lower, rule.keywords) {
			req.Title = rule.title
			req.Type = rule.kind
			break
		}
	}

	for _, rule := range featureRules {
		if containsAny(lower, rule.keywords) {
			req.Features = append(req.Features, rule.name)
		}
	}

	return req
}

func extractStartTime(lower string, nowHours float64) float64 {
	if m := clockRe.FindStringSubmatch(lower); m != nil {
		hour, err := strconv.Atoi(m[1])
		if err == nil && hour >= 1 && hour <= 12 {
			minutes := 0
			if m[2] != "" {
				minutes, _ = strconv.Atoi(m[2])
			}
			if strings.EqualFold(m[3], "pm") {
				if hour != 12 {
					hour += 12
				}
			} else if hour == 12 {
				hour = 0
			}
			return float64(hour) + float64(minutes)/60.0
		}
	}

	switch {
	case strings.Contains(lower, "now"):
		// Round up to the next half hour.
		rounded := math.Ceil(nowHours*2) / 2
		if rounded >= 24 {
			rounded = 23.5
		}
		return rounded
	case strings.Contains(lower, "morning"):
		return 9
	case strings.Contains(lower, "afternoon"):
		return 14
	case strings.Contains(lower, "evening"):
		return 17
	case strings.Contains(lower, "noon"), strings.Contains(lower, "lunch"):
		return 12
	}

	return DefaultStartTime
}

// HasExplicitAttendees reports whether the utterance names a head count.
func HasExplicitAttendees(text string) bool {
	return attendeesRe.MatchString(text)
}

// HasExplicitTime reports whether the utterance names a start time, either
// as a clock time or as one of the time-of-day keywords.
func HasExplicitTime(text string) bool {
	lower := strings.ToLower(text)
	if clockRe.MatchString(lower) {
		return true
	}
	return containsAny(lower, []string{"now", "morning", "afternoon", "evening", "noon", "lunch"})
}

// HasAmenity reports whether the utterance names a room feature.
func HasAmenity(text string) bool {
	lower := strings.ToLower(text)
	for _, rule := range featureRules {
		if containsAny(lower, rule.keywords) {
			return true
		}
	}
	return false
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
