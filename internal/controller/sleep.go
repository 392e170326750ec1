package controller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/modtrackin/modtrackin/internal/constants"
	apperrors "github.com/modtrackin/modtrackin/internal/errors"
	"github.com/modtrackin/modtrackin/internal/identity"
	"github.com/modtrackin/modtrackin/internal/logger"
	"github.com/modtrackin/modtrackin/internal/models"
	"github.com/modtrackin/modtrackin/internal/repository"
	"github.com/modtrackin/modtrackin/internal/utils"
)

// SleepForm holds the raw inputs for a night. Day is the day the user woke
// up; an empty Day means today.
type SleepForm struct {
	Day     string
	Start   string
	End     string
	Quality int
}

type SleepState struct {
	Form         SleepForm
	History      []models.SleepEntry
	IsLoading    bool
	ErrorMessage string
}

type SleepController struct {
	repo       *repository.SleepRepository
	cancelAuth func()

	mu    sync.Mutex
	state SleepState
}

func defaultSleepForm() SleepForm {
	return SleepForm{
		Start:   constants.DefaultSleepStart,
		End:     constants.DefaultSleepEnd,
		Quality: constants.DefaultSleepQuality,
	}
}

func NewSleepController(ctx context.Context, repo *repository.SleepRepository, oracle identity.Oracle) *SleepController {
	c := &SleepController{repo: repo, state: SleepState{Form: defaultSleepForm()}}
	c.cancelAuth = oracle.OnAuthStateChange(func(uid string) {
		if uid == "" {
			c.mu.Lock()
			c.state = SleepState{Form: defaultSleepForm()}
			c.mu.Unlock()
			return
		}
		if err := c.LoadHistory(context.Background()); err != nil {
			logger.Debug("sleep history reload failed", "error", err)
		}
	})
	if _, ok := oracle.CurrentUser(); ok {
		if err := c.LoadHistory(ctx); err != nil {
			logger.Debug("initial sleep history load failed", "error", err)
		}
	}
	return c
}

func (c *SleepController) LoadHistory(ctx context.Context) error {
	c.mu.Lock()
	c.state.IsLoading = true
	c.mu.Unlock()

	history, err := c.repo.History(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.IsLoading = false
	if err != nil {
		c.state.ErrorMessage = "failed to load sleep history"
		return err
	}
	c.state.History = history
	return nil
}

func (c *SleepController) State() SleepState {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	s.History = append([]models.SleepEntry(nil), c.state.History...)
	return s
}

func (c *SleepController) SetForm(f SleepForm) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Form = f
}

// PreviewHours is the duration the current inputs would record.
func (c *SleepController) PreviewHours() (float64, error) {
	c.mu.Lock()
	f := c.state.Form
	c.mu.Unlock()
	return utils.SleepHours(f.Start, f.End)
}

// Interval turns the form into bedtime and wake instants in loc. The wake
// time is on the form's day; when the end is not after the start, bedtime
// is on the previous day.
func (f SleepForm) Interval(today string, loc *time.Location) (time.Time, time.Time, error) {
	day := f.Day
	if day == "" {
		day = today
	}
	end, err := utils.CombineDateAndTime(day, f.End, loc)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.Invalid("end", fmt.Sprintf("invalid wake time %q", f.End))
	}
	start, err := utils.CombineDateAndTime(day, f.Start, loc)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.Invalid("start", fmt.Sprintf("invalid bedtime %q", f.Start))
	}
	if !end.After(start) {
		start = start.AddDate(0, 0, -1)
	}
	return start, end, nil
}

// Save records the night from the form and reloads the history.
func (c *SleepController) Save(ctx context.Context) (models.SleepEntry, error) {
	c.mu.Lock()
	f := c.state.Form
	c.mu.Unlock()

	if f.Quality < constants.MinSleepQuality || f.Quality > constants.MaxSleepQuality {
		err := apperrors.Invalid("quality", fmt.Sprintf("quality must be between %d and %d", constants.MinSleepQuality, constants.MaxSleepQuality))
		c.setError(messageFor(err))
		return models.SleepEntry{}, err
	}
	now := c.repo.Now()
	start, end, err := f.Interval(utils.DateString(now), now.Location())
	if err != nil {
		c.setError(messageFor(err))
		return models.SleepEntry{}, err
	}

	saved, err := c.repo.Save(ctx, models.SleepEntry{StartTime: start, EndTime: end, Quality: f.Quality})
	if err != nil {
		c.setError("failed to save sleep entry")
		return models.SleepEntry{}, err
	}
	c.setError("")
	return saved, c.LoadHistory(ctx)
}

func (c *SleepController) Delete(ctx context.Context, id string) error {
	if err := c.repo.Delete(ctx, id); err != nil {
		c.setError("failed to delete sleep entry")
		return err
	}
	return c.LoadHistory(ctx)
}

func (c *SleepController) setError(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.ErrorMessage = msg
}

func (c *SleepController) Close() {
	if c.cancelAuth != nil {
		c.cancelAuth()
	}
}
