// Package validation checks stored records for values the controllers would
// never write: unknown emotions, malformed dates, impossible sleep intervals.
package validation

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/modtrackin/modtrackin/internal/constants"
	"github.com/modtrackin/modtrackin/internal/models"
	"github.com/modtrackin/modtrackin/internal/utils"
)

// ConflictType represents the kind of problem found.
type ConflictType string

const (
	ConflictInvalidDate      ConflictType = "invalid_date"
	ConflictMissingTitle     ConflictType = "missing_title"
	ConflictInvalidPriority  ConflictType = "invalid_priority"
	ConflictUnknownEmotion   ConflictType = "unknown_emotion"
	ConflictUnknownAdjective ConflictType = "unknown_adjective"
	ConflictMismatchedID     ConflictType = "mismatched_id"
	ConflictNegativeMinutes  ConflictType = "negative_minutes"
	ConflictInvalidGoal      ConflictType = "invalid_goal"
	ConflictInvalidQuality   ConflictType = "invalid_quality"
	ConflictInvalidInterval  ConflictType = "invalid_interval"
	ConflictDuplicateTitle   ConflictType = "duplicate_title"
)

// Conflict is one problem in one record.
type Conflict struct {
	Type        ConflictType
	Collection  string
	ID          string
	Description string
}

// ValidationResult contains all detected conflicts
type ValidationResult struct {
	Conflicts []Conflict
}

// HasConflicts returns true if there are any conflicts
func (vr *ValidationResult) HasConflicts() bool {
	return len(vr.Conflicts) > 0
}

// Merge appends other's conflicts.
func (vr *ValidationResult) Merge(other ValidationResult) {
	vr.Conflicts = append(vr.Conflicts, other.Conflicts...)
}

// FormatReport returns a human-readable report of all conflicts
func (vr *ValidationResult) FormatReport() string {
	if !vr.HasConflicts() {
		return "No conflicts detected."
	}

	var b strings.Builder
	b.WriteString("Conflicts detected:\n")
	for _, c := range vr.Conflicts {
		fmt.Fprintf(&b, "- [%s/%s] %s\n", c.Collection, c.ID, c.Description)
	}
	return b.String()
}

func (vr *ValidationResult) add(t ConflictType, coll, id, format string, args ...any) {
	vr.Conflicts = append(vr.Conflicts, Conflict{
		Type:        t,
		Collection:  coll,
		ID:          id,
		Description: fmt.Sprintf(format, args...),
	})
}

// Validator validates stored records.
type Validator struct{}

// New creates a new Validator
func New() *Validator {
	return &Validator{}
}

func validDate(s string) bool {
	_, err := utils.ParseDate(s, time.UTC)
	return err == nil
}

func (v *Validator) ValidateTasks(tasks []models.Task) ValidationResult {
	var res ValidationResult
	for _, t := range tasks {
		if strings.TrimSpace(t.Title) == "" {
			res.add(ConflictMissingTitle, constants.CollectionTasks, t.ID, "task has no title")
		}
		if t.DueDate != "" && !validDate(t.DueDate) {
			res.add(ConflictInvalidDate, constants.CollectionTasks, t.ID, "task %q has invalid due date %q", t.Title, t.DueDate)
		}
		if _, err := models.ParsePriority(string(t.Priority)); err != nil {
			res.add(ConflictInvalidPriority, constants.CollectionTasks, t.ID, "task %q has invalid priority %q", t.Title, t.Priority)
		}
	}
	return res
}

func (v *Validator) ValidateHabits(habits []models.Habit) ValidationResult {
	var res ValidationResult
	seen := make(map[string]string)
	for _, h := range habits {
		if strings.TrimSpace(h.Title) == "" {
			res.add(ConflictMissingTitle, constants.CollectionHabits, h.ID, "habit has no title")
		} else if other, ok := seen[strings.ToLower(h.Title)]; ok {
			res.add(ConflictDuplicateTitle, constants.CollectionHabits, h.ID, "habit %q has the same name as %s", h.Title, other)
		} else {
			seen[strings.ToLower(h.Title)] = h.ID
		}
		if h.DailyGoal <= 0 {
			res.add(ConflictInvalidGoal, constants.CollectionHabits, h.ID, "habit %q has daily goal %d", h.Title, h.DailyGoal)
		}

		days := make([]string, 0, len(h.History))
		for day := range h.History {
			days = append(days, day)
		}
		sort.Strings(days)
		for _, day := range days {
			if !validDate(day) {
				res.add(ConflictInvalidDate, constants.CollectionHabits, h.ID, "habit %q has history entry for invalid day %q", h.Title, day)
			}
			if h.History[day] < 0 {
				res.add(ConflictNegativeMinutes, constants.CollectionHabits, h.ID, "habit %q has %d minutes on %s", h.Title, h.History[day], day)
			}
		}
	}
	return res
}

func (v *Validator) ValidateEmotions(entries []models.EmotionEntry) ValidationResult {
	var res ValidationResult
	for _, e := range entries {
		if !validDate(e.DateString) {
			res.add(ConflictInvalidDate, constants.CollectionEmotions, e.ID, "entry has invalid date %q", e.DateString)
		} else if e.ID != models.EmotionEntryID(e.UserID, e.DateString) {
			res.add(ConflictMismatchedID, constants.CollectionEmotions, e.ID, "entry for %s is stored under the wrong id", e.DateString)
		}
		emotion, ok := models.EmotionByID(e.EmotionID)
		if !ok {
			res.add(ConflictUnknownEmotion, constants.CollectionEmotions, e.ID, "entry for %s has unknown emotion %q", e.DateString, e.EmotionID)
			continue
		}
		if !emotion.HasAdjective(e.Adjective) {
			res.add(ConflictUnknownAdjective, constants.CollectionEmotions, e.ID, "entry for %s has adjective %q outside %s", e.DateString, e.Adjective, emotion.Text)
		}
	}
	return res
}

func (v *Validator) ValidateSleeps(entries []models.SleepEntry) ValidationResult {
	var res ValidationResult
	for _, s := range entries {
		if s.Quality < constants.MinSleepQuality || s.Quality > constants.MaxSleepQuality {
			res.add(ConflictInvalidQuality, constants.CollectionSleeps, s.ID, "night of %s has quality %d", s.Date, s.Quality)
		}
		if !s.EndTime.After(s.StartTime) {
			res.add(ConflictInvalidInterval, constants.CollectionSleeps, s.ID, "night of %s ends before it starts", s.Date)
		}
	}
	return res
}
