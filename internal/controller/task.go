package controller

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/modtrackin/modtrackin/internal/constants"
	apperrors "github.com/modtrackin/modtrackin/internal/errors"
	"github.com/modtrackin/modtrackin/internal/identity"
	"github.com/modtrackin/modtrackin/internal/logger"
	"github.com/modtrackin/modtrackin/internal/models"
	"github.com/modtrackin/modtrackin/internal/repository"
)

// TaskReminders is told about every saved task that has a due date.
type TaskReminders interface {
	ScheduleTask(task models.Task)
}

// TaskEditor holds the task being created or edited. Base is the record
// the editor was opened from, zero for a new task.
type TaskEditor struct {
	Open        bool
	Base        models.Task
	Title       string
	Description string
	Category    string
	Priority    models.Priority
	DueDate     string
	Reminder    string
}

type TaskState struct {
	Tasks        []models.Task
	Editor       TaskEditor
	IsLoading    bool
	ErrorMessage string
}

type TaskController struct {
	repo      *repository.TaskRepository
	reminders TaskReminders
	feed      *feed[models.Task]

	mu    sync.Mutex
	state TaskState
}

// NewTaskController loads the task list and keeps it live. reminders may be nil.
func NewTaskController(ctx context.Context, repo *repository.TaskRepository, oracle identity.Oracle, reminders TaskReminders) *TaskController {
	c := &TaskController{repo: repo, reminders: reminders}
	if _, ok := oracle.CurrentUser(); ok {
		if err := c.Refresh(ctx); err != nil {
			logger.Debug("initial task load failed", "error", err)
		}
	}
	c.feed = startFeed[models.Task]("tasks", oracle, repo.Listen, c.setTasks)
	return c
}

func (c *TaskController) setTasks(tasks []models.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Tasks = tasks
}

func (c *TaskController) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.state.IsLoading = true
	c.mu.Unlock()

	tasks, err := c.repo.List(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.IsLoading = false
	if err != nil {
		c.state.ErrorMessage = messageFor(err)
		return err
	}
	c.state.Tasks = tasks
	return nil
}

func (c *TaskController) State() TaskState {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	s.Tasks = append([]models.Task(nil), c.state.Tasks...)
	return s
}

func (c *TaskController) OpenNew() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Editor = TaskEditor{
		Open:     true,
		Category: constants.DefaultTaskCategory,
		Priority: models.PriorityLow,
	}
	c.state.ErrorMessage = ""
}

func (c *TaskController) OpenEdit(t models.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Editor = TaskEditor{
		Open:        true,
		Base:        t,
		Title:       t.Title,
		Description: t.Description,
		Category:    t.Category,
		Priority:    t.Priority,
		DueDate:     t.DueDate,
		Reminder:    t.Reminder,
	}
	c.state.ErrorMessage = ""
}

func (c *TaskController) CloseEditor() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Editor = TaskEditor{}
}

// Edit applies fn to the editor fields.
func (c *TaskController) Edit(fn func(*TaskEditor)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.state.Editor)
}

// Save validates and stores the editor contents, then closes the editor.
// A missing user is returned as is and does not set ErrorMessage.
func (c *TaskController) Save(ctx context.Context) error {
	c.mu.Lock()
	ed := c.state.Editor
	c.mu.Unlock()

	if strings.TrimSpace(ed.Title) == "" {
		err := apperrors.Invalid("title", "title is required")
		c.setError(err)
		return err
	}

	task := ed.Base
	task.Title = strings.TrimSpace(ed.Title)
	task.Description = ed.Description
	task.Category = ed.Category
	task.Priority = ed.Priority
	task.DueDate = ed.DueDate
	task.Reminder = ed.Reminder

	saved, err := c.repo.Save(ctx, task)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotAuthenticated) {
			c.setError(err)
		}
		return err
	}
	c.schedule(saved)

	c.mu.Lock()
	c.state.Editor = TaskEditor{}
	c.state.ErrorMessage = ""
	c.mu.Unlock()
	return c.Refresh(ctx)
}

func (c *TaskController) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := c.repo.Delete(ctx, id); err != nil {
		c.setError(err)
		return err
	}
	return c.Refresh(ctx)
}

// ToggleCompletion flips the completion flag of a task and stores it.
func (c *TaskController) ToggleCompletion(ctx context.Context, t models.Task) error {
	t.IsCompleted = !t.IsCompleted
	if _, err := c.repo.Save(ctx, t); err != nil {
		c.setError(err)
		return err
	}
	return c.Refresh(ctx)
}

func (c *TaskController) schedule(t models.Task) {
	if c.reminders == nil || t.DueDate == "" || t.IsCompleted {
		return
	}
	c.reminders.ScheduleTask(t)
}

func (c *TaskController) setError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.ErrorMessage = messageFor(err)
}

func (c *TaskController) ClearError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.ErrorMessage = ""
}

func (c *TaskController) Close() {
	c.feed.close()
}
