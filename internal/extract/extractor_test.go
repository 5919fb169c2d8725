package extract

import (
	"reflect"
	"testing"
)

func TestExtractDefaults(t *testing.T) {
	req := Extract("find me a room", 10.5)

	if req.Attendees != DefaultAttendees {
		t.Errorf("attendees = %d, want %d", req.Attendees, DefaultAttendees)
	}
	if req.Duration != DefaultDuration {
		t.Errorf("duration = %v, want %v", req.Duration, DefaultDuration)
	}
	if req.StartTime != DefaultStartTime {
		t.Errorf("start time = %v, want %v", req.StartTime, DefaultStartTime)
	}
	if req.Title != DefaultTitle {
		t.Errorf("title = %q, want %q", req.Title, DefaultTitle)
	}
	if len(req.Features) != 0 {
		t.Errorf("features = %v, want none", req.Features)
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	text := "I need a room for 8 people at 3pm for 2 hours with a projector and whiteboard"
	first := Extract(text, 10.5)
	second := Extract(text, 10.5)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("extraction not deterministic:\n%+v\n%+v", first, second)
	}
}

func TestExtractFullUtterance(t *testing.T) {
	req := Extract("I need a room for 8 people at 3pm for 2 hours with a projector and whiteboard", 10.5)

	if req.Attendees != 8 {
		t.Errorf("attendees = %d, want 8", req.Attendees)
	}
	if req.StartTime != 15.0 {
		t.Errorf("start time = %v, want 15", req.StartTime)
	}
	if req.Duration != 2.0 {
		t.Errorf("duration = %v, want 2", req.Duration)
	}
	want := []string{"Projector", "Whiteboard"}
	if !reflect.DeepEqual(req.Features, want) {
		t.Errorf("features = %v, want %v", req.Features, want)
	}
}

func TestExtractClockTimes(t *testing.T) {
	tests := []struct {
		text string
		want float64
	}{
		{"at 9am", 9.0},
		{"at 9:30 am", 9.5},
		{"at 3pm", 15.0},
		{"at 12pm", 12.0},
		{"at 12am", 0.0},
		{"at 12:45pm", 12.75},
	}
	for _, tt := range tests {
		if got := Extract(tt.text, 10.5).StartTime; got != tt.want {
			t.Errorf("Extract(%q) start time = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestExtractTimeKeywords(t *testing.T) {
	tests := []struct {
		text     string
		nowHours float64
		want     float64
	}{
		{"this morning", 10.5, 9.0},
		{"this afternoon", 10.5, 14.0},
		{"this evening", 10.5, 17.0},
		{"around noon", 10.5, 12.0},
		{"over lunch", 10.5, 12.0},
		{"right now", 10.25, 10.5},
		{"right now", 10.5, 10.5},
		{"right now", 23.75, 23.5},
	}
	for _, tt := range tests {
		if got := Extract(tt.text, tt.nowHours).StartTime; got != tt.want {
			t.Errorf("Extract(%q, %v) start time = %v, want %v", tt.text, tt.nowHours, got, tt.want)
		}
	}
}

func TestExtractMinutesDuration(t *testing.T) {
	req := Extract("book something for 90 minutes", 10.5)
	if req.Duration != 1.5 {
		t.Errorf("duration = %v, want 1.5", req.Duration)
	}

	req = Extract("quick 30 min sync", 10.5)
	if req.Duration != 0.5 {
		t.Errorf("duration = %v, want 0.5", req.Duration)
	}
}

func TestExtractTitleFirstMatchWins(t *testing.T) {
	req := Extract("daily review with the team", 10.5)
	if req.Title != "Daily Standup" || req.Type != "standup" {
		t.Errorf("title = %q type = %q, want Daily Standup/standup", req.Title, req.Type)
	}

	req = Extract("training workshop", 10.5)
	if req.Title != "Workshop" {
		t.Errorf("title = %q, want Workshop", req.Title)
	}
}

func TestExtractFeatureDedupe(t *testing.T) {
	req := Extract("need video conferencing and a video call setup", 10.5)
	want := []string{"Video Conf"}
	if !reflect.DeepEqual(req.Features, want) {
		t.Errorf("features = %v, want %v", req.Features, want)
	}
}

func TestHasExplicitSignals(t *testing.T) {
	if !HasExplicitAttendees("room for 6 people") {
		t.Error("expected explicit attendees")
	}
	if HasExplicitAttendees("a big room") {
		t.Error("did not expect explicit attendees")
	}

	if !HasExplicitTime("at 4pm") {
		t.Error("expected explicit clock time")
	}
	if !HasExplicitTime("this afternoon") {
		t.Error("expected time-of-day keyword")
	}
	if HasExplicitTime("a quiet room") {
		t.Error("did not expect explicit time")
	}

	if !HasAmenity("with a whiteboard") {
		t.Error("expected amenity")
	}
	if HasAmenity("somewhere comfortable") {
		t.Error("did not expect amenity")
	}
}
