package controller

import (
	"testing"

	"github.com/modtrackin/modtrackin/internal/models"
	"github.com/modtrackin/modtrackin/internal/repository"
)

func TestHomeSummary(t *testing.T) {
	env := setupEnv(t, "u1")
	tasks := repository.NewTaskRepository(env.deps)
	habits := repository.NewHabitRepository(env.deps)
	emotions := repository.NewEmotionRepository(env.deps)

	for _, task := range []models.Task{
		{Title: "Hoy pendiente", DueDate: "2025-03-10"},
		{Title: "Hoy hecha", DueDate: "2025-03-10", IsCompleted: true},
		{Title: "Mañana", DueDate: "2025-03-11"},
		{Title: "Sin fecha"},
	} {
		if _, err := tasks.Save(bg, task); err != nil {
			t.Fatalf("Save() error: %v", err)
		}
	}
	if _, err := habits.Save(bg, models.Habit{Title: "Leer", History: map[string]int{"2025-03-10": 25}}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if _, err := habits.Save(bg, models.Habit{Title: "Correr", History: map[string]int{"2025-03-10": 10, "2025-03-09": 40}}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if _, err := emotions.Save(bg, models.EmotionEntry{EmotionID: "nervioso", EmotionEmoji: "😰"}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	ec := NewEmotionController(bg, emotions, env.oracle)
	t.Cleanup(ec.Close)
	home := NewHomeController(ec, tasks, habits)
	if err := home.Load(bg); err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	st := home.State()
	if st.Day != "2025-03-10" {
		t.Errorf("Day = %q", st.Day)
	}
	if len(st.PendingToday) != 1 || st.PendingToday[0].Title != "Hoy pendiente" {
		t.Errorf("PendingToday = %+v", st.PendingToday)
	}
	if st.HabitMinutes != 35 {
		t.Errorf("HabitMinutes = %d, want 35", st.HabitMinutes)
	}
	if st.TodayEmotion == nil || st.TodayEmotion.EmotionID != "nervioso" || st.Suggestion == "" {
		t.Errorf("emotion summary = %+v, %q", st.TodayEmotion, st.Suggestion)
	}

	first := st.Quote
	if next := home.NextQuote(); next == first {
		t.Error("NextQuote() should rotate")
	}
}
