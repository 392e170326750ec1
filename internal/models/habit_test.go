package models

import "testing"

func TestWithMinutesAdded(t *testing.T) {
	base := Habit{
		ID:      "h1",
		Title:   "Leer",
		History: map[string]int{"2025-01-01": 30, "2025-01-02": 15},
	}

	tests := []struct {
		name    string
		day     string
		delta   int
		applied bool
		want    map[string]int
	}{
		{
			name:    "adds to existing day",
			day:     "2025-01-02",
			delta:   20,
			applied: true,
			want:    map[string]int{"2025-01-01": 30, "2025-01-02": 35},
		},
		{
			name:    "creates new day",
			day:     "2025-01-03",
			delta:   10,
			applied: true,
			want:    map[string]int{"2025-01-01": 30, "2025-01-02": 15, "2025-01-03": 10},
		},
		{
			name:    "zero delta is ignored",
			day:     "2025-01-02",
			delta:   0,
			applied: false,
			want:    map[string]int{"2025-01-01": 30, "2025-01-02": 15},
		},
		{
			name:    "negative delta is ignored",
			day:     "2025-01-01",
			delta:   -5,
			applied: false,
			want:    map[string]int{"2025-01-01": 30, "2025-01-02": 15},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, applied := base.WithMinutesAdded(tt.day, tt.delta)
			if applied != tt.applied {
				t.Errorf("applied = %v, want %v", applied, tt.applied)
			}
			if len(got.History) != len(tt.want) {
				t.Fatalf("history = %v, want %v", got.History, tt.want)
			}
			for k, v := range tt.want {
				if got.History[k] != v {
					t.Errorf("history[%s] = %d, want %d", k, got.History[k], v)
				}
			}
			if base.History["2025-01-02"] != 15 || len(base.History) != 2 {
				t.Errorf("original habit history mutated: %v", base.History)
			}
		})
	}
}

func TestWithMinutesAddedNilHistory(t *testing.T) {
	h := Habit{ID: "h1"}
	got, ok := h.WithMinutesAdded("2025-03-01", 25)
	if !ok {
		t.Fatal("expected delta to be applied")
	}
	if got.MinutesOn("2025-03-01") != 25 {
		t.Errorf("MinutesOn() = %d, want 25", got.MinutesOn("2025-03-01"))
	}
}

func TestGoalReachedAndTotals(t *testing.T) {
	habits := []Habit{
		{DailyGoal: 30, History: map[string]int{"2025-01-01": 30}},
		{DailyGoal: 60, History: map[string]int{"2025-01-01": 20, "2025-01-02": 5}},
	}

	if !habits[0].GoalReached("2025-01-01") {
		t.Error("expected goal reached for first habit")
	}
	if habits[1].GoalReached("2025-01-01") {
		t.Error("expected goal not reached for second habit")
	}
	if got := TotalMinutesOn(habits, "2025-01-01"); got != 50 {
		t.Errorf("TotalMinutesOn() = %d, want 50", got)
	}
	if got := TotalMinutesOn(habits, "2025-02-01"); got != 0 {
		t.Errorf("TotalMinutesOn() for empty day = %d, want 0", got)
	}
}

func TestParsePriority(t *testing.T) {
	tests := []struct {
		in      string
		want    Priority
		wantErr bool
	}{
		{"Alta", PriorityHigh, false},
		{"Media", PriorityMedium, false},
		{"Baja", PriorityLow, false},
		{"", PriorityLow, false},
		{"alta", "", true},
		{"Urgente", "", true},
	}

	for _, tt := range tests {
		got, err := ParsePriority(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePriority(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePriority(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEmotionCatalog(t *testing.T) {
	if len(Emotions) != 5 {
		t.Fatalf("expected 5 emotions, got %d", len(Emotions))
	}
	for _, e := range Emotions {
		if len(e.Adjectives) != 6 {
			t.Errorf("emotion %s has %d adjectives, want 6", e.ID, len(e.Adjectives))
		}
	}

	e, ok := EmotionByID("triste")
	if !ok || e.Emoji != "😢" {
		t.Errorf("EmotionByID(triste) = %+v, %v", e, ok)
	}
	if !e.HasAdjective("Nostálgico") || e.HasAdjective("Contento") {
		t.Error("HasAdjective mismatch for triste")
	}
	if _, ok := EmotionByID("feliz"); ok {
		t.Error("unknown emotion should not be found")
	}

	if EmotionEntryID("u1", "2025-01-01") != "u1_2025-01-01" {
		t.Error("EmotionEntryID format mismatch")
	}
	if SleepEntryID("u1", "2025-01-01") != "u1_2025-01-01" {
		t.Error("SleepEntryID format mismatch")
	}
}
