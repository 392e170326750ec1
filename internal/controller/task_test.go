package controller

import (
	"errors"
	"sync"
	"testing"

	apperrors "github.com/modtrackin/modtrackin/internal/errors"
	"github.com/modtrackin/modtrackin/internal/identity"
	"github.com/modtrackin/modtrackin/internal/models"
	"github.com/modtrackin/modtrackin/internal/repository"
)

type recordingReminders struct {
	mu    sync.Mutex
	tasks []models.Task
}

func (r *recordingReminders) ScheduleTask(t models.Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = append(r.tasks, t)
}

func TestTaskSaveAndToggle(t *testing.T) {
	env := setupEnv(t, "u1")
	reminders := &recordingReminders{}
	repo := repository.NewTaskRepository(env.deps)
	c := NewTaskController(bg, repo, env.oracle, reminders)
	t.Cleanup(c.Close)

	c.OpenNew()
	if ed := c.State().Editor; ed.Category != "🎓 Académica" || ed.Priority != models.PriorityLow {
		t.Errorf("new editor defaults = %+v", ed)
	}
	c.Edit(func(ed *TaskEditor) {
		ed.Title = "Entregar reporte"
		ed.Priority = models.PriorityHigh
		ed.DueDate = "2025-03-12"
	})
	if err := c.Save(bg); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	eventually(t, func() bool { return len(c.State().Tasks) == 1 }, "task never listed")
	st := c.State()
	if st.Editor.Open {
		t.Fatal("editor should close after save")
	}
	task := st.Tasks[0]
	if task.Title != "Entregar reporte" || task.Priority != models.PriorityHigh || task.ID == "" {
		t.Errorf("saved task = %+v", task)
	}
	if len(reminders.tasks) != 1 || reminders.tasks[0].ID != task.ID {
		t.Errorf("reminders = %+v", reminders.tasks)
	}

	if err := c.ToggleCompletion(bg, task); err != nil {
		t.Fatalf("ToggleCompletion() error: %v", err)
	}
	eventually(t, func() bool {
		tasks := c.State().Tasks
		return len(tasks) == 1 && tasks[0].IsCompleted
	}, "task never shown as completed")

	if err := c.Delete(bg, task.ID); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	eventually(t, func() bool { return len(c.State().Tasks) == 0 }, "deleted task still listed")
}

func TestTaskSaveBlankTitle(t *testing.T) {
	env := setupEnv(t, "u1")
	repo := repository.NewTaskRepository(env.deps)
	c := NewTaskController(bg, repo, env.oracle, nil)
	t.Cleanup(c.Close)

	c.OpenNew()
	err := c.Save(bg)
	if _, ok := apperrors.IsValidation(err); !ok {
		t.Fatalf("Save() error = %v, want validation error", err)
	}
	if got := c.State().ErrorMessage; got != "title is required" {
		t.Errorf("ErrorMessage = %q", got)
	}
	if tasks, _ := repo.List(bg); len(tasks) != 0 {
		t.Error("nothing should have been stored")
	}
}

func TestTaskSaveNotAuthenticatedLeavesMessageUnset(t *testing.T) {
	env := setupEnv(t, "u1")
	deps := env.deps
	deps.Oracle = identity.NewStatic("")
	c := NewTaskController(bg, repository.NewTaskRepository(deps), env.oracle, nil)
	t.Cleanup(c.Close)
	c.ClearError()

	c.OpenNew()
	c.Edit(func(ed *TaskEditor) { ed.Title = "Sin sesión" })
	if err := c.Save(bg); !errors.Is(err, apperrors.ErrNotAuthenticated) {
		t.Fatalf("Save() error = %v, want ErrNotAuthenticated", err)
	}
	st := c.State()
	if st.ErrorMessage != "" {
		t.Errorf("ErrorMessage = %q, want empty", st.ErrorMessage)
	}
	if !st.Editor.Open {
		t.Error("editor should stay open")
	}
}

func TestTaskEditKeepsCreatedAt(t *testing.T) {
	env := setupEnv(t, "u1")
	repo := repository.NewTaskRepository(env.deps)
	c := NewTaskController(bg, repo, env.oracle, nil)
	t.Cleanup(c.Close)

	orig, err := repo.Save(bg, models.Task{Title: "Leer capítulo", Category: "📚 Personal"})
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	c.OpenEdit(orig)
	c.Edit(func(ed *TaskEditor) { ed.Description = "capítulo 4" })
	if err := c.Save(bg); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	got, _ := repo.Get(bg, orig.ID)
	if got.Description != "capítulo 4" || got.Category != "📚 Personal" || !got.CreatedAt.Equal(orig.CreatedAt) {
		t.Errorf("edited task = %+v", got)
	}
}
