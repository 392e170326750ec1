package controller

import (
	"testing"

	"github.com/modtrackin/modtrackin/internal/models"
	"github.com/modtrackin/modtrackin/internal/repository"
)

func TestCalendarMonthNavigation(t *testing.T) {
	env := setupEnv(t, "u1")
	tasks := repository.NewTaskRepository(env.deps)
	for _, task := range []models.Task{
		{Title: "Examen", DueDate: "2025-03-10"},
		{Title: "Proyecto", DueDate: "2025-03-21", IsCompleted: true},
		{Title: "Tarea", DueDate: "2025-03-31"},
		{Title: "Abril", DueDate: "2025-04-02"},
		{Title: "Febrero", DueDate: "2025-02-28"},
	} {
		if _, err := tasks.Save(bg, task); err != nil {
			t.Fatalf("Save() error: %v", err)
		}
	}

	c := NewCalendarController(tasks)
	if err := c.Load(bg); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	st := c.State()
	if st.SelectedDate != "2025-03-10" || len(st.Tasks) != 1 || st.Tasks[0].Title != "Examen" {
		t.Errorf("initial state = %+v", st)
	}
	if !st.PendingDays["2025-03-10"] || !st.PendingDays["2025-03-31"] || st.PendingDays["2025-03-21"] || len(st.PendingDays) != 2 {
		t.Errorf("PendingDays = %v", st.PendingDays)
	}

	if err := c.SelectDate(bg, "2025-03-21"); err != nil {
		t.Fatalf("SelectDate() error: %v", err)
	}
	if got := c.State().Tasks; len(got) != 1 || got[0].Title != "Proyecto" {
		t.Errorf("tasks on 21st = %+v", got)
	}

	if err := c.NextMonth(bg); err != nil {
		t.Fatalf("NextMonth() error: %v", err)
	}
	st = c.State()
	if st.Month.Month() != 4 || !st.PendingDays["2025-04-02"] || len(st.PendingDays) != 1 {
		t.Errorf("april state = %+v", st)
	}

	if err := c.SelectDate(bg, "2025-02-28"); err != nil {
		t.Fatalf("SelectDate() error: %v", err)
	}
	st = c.State()
	if st.Month.Month() != 2 || len(st.Tasks) != 1 || st.Tasks[0].Title != "Febrero" {
		t.Errorf("february state = %+v", st)
	}

	if err := c.SelectDate(bg, "28/02/2025"); err == nil {
		t.Error("expected error for malformed date")
	}
}
