package controller

import (
	"context"
	"sync"
	"time"

	apperrors "github.com/modtrackin/modtrackin/internal/errors"
	"github.com/modtrackin/modtrackin/internal/models"
	"github.com/modtrackin/modtrackin/internal/repository"
	"github.com/modtrackin/modtrackin/internal/utils"
)

type CalendarState struct {
	// Month is the first day of the shown month.
	Month        time.Time
	SelectedDate string
	// Tasks are the tasks due on SelectedDate.
	Tasks []models.Task
	// PendingDays holds the days of Month with unfinished tasks.
	PendingDays  map[string]bool
	ErrorMessage string
}

type CalendarController struct {
	tasks *repository.TaskRepository

	mu    sync.Mutex
	state CalendarState
	// monthTasks caches every task due in the shown month.
	monthTasks []models.Task
}

// NewCalendarController starts on today's date.
func NewCalendarController(tasks *repository.TaskRepository) *CalendarController {
	now := tasks.Now()
	return &CalendarController{
		tasks: tasks,
		state: CalendarState{
			Month:        firstOfMonth(now),
			SelectedDate: utils.DateString(now),
			PendingDays:  map[string]bool{},
		},
	}
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// Load fetches the shown month's tasks.
func (c *CalendarController) Load(ctx context.Context) error {
	c.mu.Lock()
	month := c.state.Month
	c.mu.Unlock()

	from := utils.DateString(month)
	to := utils.DateString(month.AddDate(0, 1, -1))
	tasks, err := c.tasks.DueBetween(ctx, from, to)
	if err != nil {
		c.mu.Lock()
		c.state.ErrorMessage = messageFor(err)
		c.mu.Unlock()
		return err
	}

	pending := make(map[string]bool)
	for _, t := range tasks {
		if !t.IsCompleted {
			pending[t.DueDate] = true
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.monthTasks = tasks
	c.state.PendingDays = pending
	c.state.ErrorMessage = ""
	c.selectLocked()
	return nil
}

func (c *CalendarController) selectLocked() {
	c.state.Tasks = nil
	for _, t := range c.monthTasks {
		if t.DueDate == c.state.SelectedDate {
			c.state.Tasks = append(c.state.Tasks, t)
		}
	}
}

// SelectDate shows the tasks due on day, switching months when needed.
func (c *CalendarController) SelectDate(ctx context.Context, day string) error {
	d, err := utils.ParseDate(day, c.tasks.Now().Location())
	if err != nil {
		return apperrors.Invalid("date", err.Error())
	}
	c.mu.Lock()
	c.state.SelectedDate = day
	if month := firstOfMonth(d); !month.Equal(c.state.Month) {
		c.state.Month = month
		c.mu.Unlock()
		return c.Load(ctx)
	}
	c.selectLocked()
	c.mu.Unlock()
	return nil
}

// NextMonth and PrevMonth move the shown month, keeping the selected date.
func (c *CalendarController) NextMonth(ctx context.Context) error {
	return c.shiftMonth(ctx, 1)
}

func (c *CalendarController) PrevMonth(ctx context.Context) error {
	return c.shiftMonth(ctx, -1)
}

func (c *CalendarController) shiftMonth(ctx context.Context, n int) error {
	c.mu.Lock()
	c.state.Month = c.state.Month.AddDate(0, n, 0)
	c.mu.Unlock()
	return c.Load(ctx)
}

func (c *CalendarController) State() CalendarState {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	s.Tasks = append([]models.Task(nil), c.state.Tasks...)
	s.PendingDays = make(map[string]bool, len(c.state.PendingDays))
	for k, v := range c.state.PendingDays {
		s.PendingDays[k] = v
	}
	return s
}
