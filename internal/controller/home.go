package controller

import (
	"context"
	"sync"

	"github.com/modtrackin/modtrackin/internal/models"
	"github.com/modtrackin/modtrackin/internal/repository"
)

// HomeState summarises the current day.
type HomeState struct {
	Day          string
	TodayEmotion *models.EmotionEntry
	// Suggestion is a tip for today's emotion, empty without one.
	Suggestion   string
	PendingToday []models.Task
	HabitMinutes int
	Quote        string
	ErrorMessage string
}

type HomeController struct {
	emotions *EmotionController
	tasks    *repository.TaskRepository
	habits   *repository.HabitRepository

	mu    sync.Mutex
	state HomeState
	quote int
}

// NewHomeController reads today's emotion from emotions, which it does not own.
func NewHomeController(emotions *EmotionController, tasks *repository.TaskRepository, habits *repository.HabitRepository) *HomeController {
	c := &HomeController{emotions: emotions, tasks: tasks, habits: habits}
	c.quote = tasks.Now().YearDay() % len(models.Quotes)
	c.state.Quote = models.Quotes[c.quote]
	return c
}

// Load refreshes the day summary.
func (c *HomeController) Load(ctx context.Context) error {
	today := c.tasks.Today()

	due, err := c.tasks.DueBetween(ctx, today, today)
	if err != nil {
		c.setError(err)
		return err
	}
	pending := make([]models.Task, 0, len(due))
	for _, t := range due {
		if !t.IsCompleted {
			pending = append(pending, t)
		}
	}
	habits, err := c.habits.List(ctx)
	if err != nil {
		c.setError(err)
		return err
	}

	emotion := c.emotions.State().Today

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Day = today
	c.state.PendingToday = pending
	c.state.HabitMinutes = models.TotalMinutesOn(habits, today)
	c.state.TodayEmotion = emotion
	c.state.Suggestion = ""
	c.state.ErrorMessage = ""
	if emotion != nil {
		if e, ok := models.EmotionByID(emotion.EmotionID); ok && len(e.Suggestions) > 0 {
			c.state.Suggestion = e.Suggestions[c.quote%len(e.Suggestions)]
		}
	}
	return nil
}

// NextQuote rotates to the following motivational quote.
func (c *HomeController) NextQuote() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.quote = (c.quote + 1) % len(models.Quotes)
	c.state.Quote = models.Quotes[c.quote]
	return c.state.Quote
}

func (c *HomeController) State() HomeState {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	s.PendingToday = append([]models.Task(nil), c.state.PendingToday...)
	return s
}

func (c *HomeController) setError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.ErrorMessage = messageFor(err)
}
