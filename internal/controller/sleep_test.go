package controller

import (
	"math"
	"testing"
	"time"

	"github.com/modtrackin/modtrackin/internal/repository"
)

func TestSleepFormInterval(t *testing.T) {
	tests := []struct {
		name      string
		form      SleepForm
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "overnight",
			form:      SleepForm{Start: "22:00", End: "07:00"},
			wantStart: time.Date(2025, 3, 9, 22, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2025, 3, 10, 7, 0, 0, 0, time.UTC),
		},
		{
			name:      "nap",
			form:      SleepForm{Start: "13:00", End: "14:30"},
			wantStart: time.Date(2025, 3, 10, 13, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC),
		},
		{
			name:      "equal times span a day",
			form:      SleepForm{Start: "08:00", End: "08:00"},
			wantStart: time.Date(2025, 3, 9, 8, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC),
		},
		{
			name:      "explicit day",
			form:      SleepForm{Day: "2025-02-01", Start: "23:30", End: "00:15"},
			wantStart: time.Date(2025, 1, 31, 23, 30, 0, 0, time.UTC),
			wantEnd:   time.Date(2025, 2, 1, 0, 15, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, err := tt.form.Interval("2025-03-10", time.UTC)
			if err != nil {
				t.Fatalf("Interval() error: %v", err)
			}
			if !start.Equal(tt.wantStart) || !end.Equal(tt.wantEnd) {
				t.Errorf("Interval() = %v, %v, want %v, %v", start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}

	if _, _, err := (SleepForm{Start: "25:00", End: "07:00"}).Interval("2025-03-10", time.UTC); err == nil {
		t.Error("expected error for invalid bedtime")
	}
}

func TestSleepSaveOverwritesNight(t *testing.T) {
	env := setupEnv(t, "u1")
	repo := repository.NewSleepRepository(env.deps)
	c := NewSleepController(bg, repo, env.oracle)
	t.Cleanup(c.Close)

	c.SetForm(SleepForm{Start: "22:00", End: "07:00", Quality: 4})
	if h, _ := c.PreviewHours(); h != 9 {
		t.Errorf("PreviewHours() = %v, want 9", h)
	}
	first, err := c.Save(bg)
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if first.Date != "2025-03-09" || first.DurationHours != 9 {
		t.Errorf("first entry = %+v", first)
	}

	c.SetForm(SleepForm{Start: "23:30", End: "06:15", Quality: 2})
	if _, err := c.Save(bg); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	st := c.State()
	if len(st.History) != 1 {
		t.Fatalf("history len = %d, want 1", len(st.History))
	}
	if got := st.History[0]; got.Quality != 2 || math.Abs(got.DurationHours-6.75) > 1e-9 {
		t.Errorf("overwritten entry = %+v", got)
	}

	if err := c.Delete(bg, st.History[0].ID); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if got := len(c.State().History); got != 0 {
		t.Errorf("history after delete = %d, want 0", got)
	}
}

func TestSleepSaveRejectsQuality(t *testing.T) {
	env := setupEnv(t, "u1")
	c := NewSleepController(bg, repository.NewSleepRepository(env.deps), env.oracle)
	t.Cleanup(c.Close)

	for _, q := range []int{0, 6} {
		c.SetForm(SleepForm{Start: "22:00", End: "07:00", Quality: q})
		if _, err := c.Save(bg); err == nil {
			t.Errorf("Save() with quality %d should fail", q)
		}
	}
	if c.State().ErrorMessage == "" {
		t.Error("expected ErrorMessage")
	}
}
