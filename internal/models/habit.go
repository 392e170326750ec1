package models

import (
	"time"
)

// HabitCategories are the categories offered by the habit editor.
var HabitCategories = []string{"Ejercicio", "Estudiar", "Comer sano", "Leer", "Descanso", "Otro"}

type Habit struct {
	ID          string         `json:"-"`
	UserID      string         `json:"userId"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	DailyGoal   int            `json:"dailyGoal"` // minutes
	History     map[string]int `json:"history"`   // YYYY-MM-DD -> minutes
	CreatedAt   time.Time      `json:"createdAt"`
}

// MinutesOn returns the minutes logged for day, or 0.
func (h Habit) MinutesOn(day string) int {
	return h.History[day]
}

// GoalReached reports whether the minutes logged for day meet the daily goal.
func (h Habit) GoalReached(day string) bool {
	return h.DailyGoal > 0 && h.MinutesOn(day) >= h.DailyGoal
}

// WithMinutesAdded returns a copy of h with delta added to day's total.
// A non-positive delta leaves the habit untouched and reports false.
// The history map is copied, so h itself is never mutated.
func (h Habit) WithMinutesAdded(day string, delta int) (Habit, bool) {
	if delta <= 0 {
		return h, false
	}

	history := make(map[string]int, len(h.History)+1)
	for k, v := range h.History {
		history[k] = v
	}
	history[day] = history[day] + delta

	h.History = history
	return h, true
}

// TotalMinutesOn sums the minutes logged for day across habits.
func TotalMinutesOn(habits []Habit, day string) int {
	total := 0
	for _, h := range habits {
		total += h.MinutesOn(day)
	}
	return total
}
