package controller

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/modtrackin/modtrackin/internal/constants"
	apperrors "github.com/modtrackin/modtrackin/internal/errors"
	"github.com/modtrackin/modtrackin/internal/identity"
	"github.com/modtrackin/modtrackin/internal/logger"
	"github.com/modtrackin/modtrackin/internal/models"
	"github.com/modtrackin/modtrackin/internal/repository"
)

// HabitEditor holds the fields of the habit being created or edited.
// An empty ID means a new habit.
type HabitEditor struct {
	Open        bool
	ID          string
	Title       string
	Description string
	Category    string
	// TargetMinutes is the raw daily goal input; it only ever holds digits.
	TargetMinutes string
}

type HabitState struct {
	Habits       []models.Habit
	SelectedDate string
	Editor       HabitEditor
	IsLoading    bool
	ErrorMessage string
}

type HabitController struct {
	repo *repository.HabitRepository
	feed *feed[models.Habit]

	mu    sync.Mutex
	state HabitState
}

func NewHabitController(ctx context.Context, repo *repository.HabitRepository, oracle identity.Oracle) *HabitController {
	c := &HabitController{repo: repo}
	c.state.SelectedDate = repo.Today()
	if _, ok := oracle.CurrentUser(); ok {
		if err := c.Refresh(ctx); err != nil {
			logger.Debug("initial habit load failed", "error", err)
		}
	}
	c.feed = startFeed[models.Habit]("habits", oracle, repo.Listen, c.setHabits)
	return c
}

func (c *HabitController) setHabits(habits []models.Habit) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Habits = habits
}

func (c *HabitController) Refresh(ctx context.Context) error {
	habits, err := c.repo.List(ctx)
	if err != nil {
		c.fail(err)
		return err
	}
	c.setHabits(habits)
	return nil
}

func (c *HabitController) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.IsLoading = false
	c.state.ErrorMessage = messageFor(err)
}

func (c *HabitController) State() HabitState {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	s.Habits = append([]models.Habit(nil), c.state.Habits...)
	return s
}

// SelectDate changes the day progress is shown and logged for.
func (c *HabitController) SelectDate(day string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.SelectedDate = day
}

func (c *HabitController) OpenNew() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Editor = HabitEditor{Open: true}
	c.state.ErrorMessage = ""
}

func (c *HabitController) OpenEdit(h models.Habit) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Editor = HabitEditor{
		Open:          true,
		ID:            h.ID,
		Title:         h.Title,
		Description:   h.Description,
		Category:      h.Category,
		TargetMinutes: strconv.Itoa(h.DailyGoal),
	}
	c.state.ErrorMessage = ""
}

func (c *HabitController) CloseEditor() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Editor = HabitEditor{}
}

func (c *HabitController) SetTitle(title string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Editor.Title = title
}

func (c *HabitController) SetDescription(desc string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Editor.Description = desc
}

// SetCategory picks a category and uses it as the title when none was typed.
func (c *HabitController) SetCategory(category string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Editor.Category = category
	if strings.TrimSpace(c.state.Editor.Title) == "" {
		c.state.Editor.Title = category
	}
}

// SetTargetMinutes accepts only digit input and reports whether it was taken.
func (c *HabitController) SetTargetMinutes(input string) bool {
	for _, r := range input {
		if r < '0' || r > '9' {
			return false
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Editor.TargetMinutes = input
	return true
}

// SaveEditor stores the editor contents. Editing keeps the habit's logged
// history and creation time.
func (c *HabitController) SaveEditor(ctx context.Context) error {
	c.mu.Lock()
	ed := c.state.Editor
	c.mu.Unlock()

	if strings.TrimSpace(ed.Title) == "" {
		err := apperrors.Invalid("title", "habit name is required")
		c.fail(err)
		return err
	}

	goal, err := strconv.Atoi(ed.TargetMinutes)
	if err != nil || goal <= 0 {
		goal = constants.DefaultHabitGoalMin
	}
	habit := models.Habit{
		ID:          ed.ID,
		Title:       strings.TrimSpace(ed.Title),
		Description: ed.Description,
		Category:    ed.Category,
		DailyGoal:   goal,
	}
	if ed.ID != "" {
		existing, err := c.repo.Get(ctx, ed.ID)
		if err != nil {
			c.fail(err)
			return err
		}
		habit.History = existing.History
		habit.CreatedAt = existing.CreatedAt
	}

	if _, err := c.repo.Save(ctx, habit); err != nil {
		c.fail(err)
		return err
	}
	c.mu.Lock()
	c.state.Editor = HabitEditor{}
	c.state.ErrorMessage = ""
	c.mu.Unlock()
	return c.Refresh(ctx)
}

// DeleteEditing deletes the habit open in the editor.
func (c *HabitController) DeleteEditing(ctx context.Context) error {
	c.mu.Lock()
	id := c.state.Editor.ID
	c.mu.Unlock()
	if id == "" {
		return nil
	}
	if err := c.repo.Delete(ctx, id); err != nil {
		c.fail(err)
		return err
	}
	c.CloseEditor()
	return c.Refresh(ctx)
}

// AddMinutes logs delta minutes for the habit on the selected date.
func (c *HabitController) AddMinutes(ctx context.Context, habitID string, delta int) error {
	c.mu.Lock()
	day := c.state.SelectedDate
	var habit models.Habit
	found := false
	for _, h := range c.state.Habits {
		if h.ID == habitID {
			habit, found = h, true
			break
		}
	}
	c.mu.Unlock()
	if !found {
		err := apperrors.Invalid("habit", "unknown habit")
		c.fail(err)
		return err
	}

	updated, applied, err := c.repo.AddMinutes(ctx, habit, day, delta)
	if err != nil {
		c.fail(err)
		return err
	}
	if !applied {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.state.Habits {
		if c.state.Habits[i].ID == updated.ID {
			c.state.Habits[i] = updated
		}
	}
	return nil
}

// TotalMinutes sums the minutes logged on the selected date across habits.
func (c *HabitController) TotalMinutes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return models.TotalMinutesOn(c.state.Habits, c.state.SelectedDate)
}

func (c *HabitController) Close() {
	c.feed.close()
}
