package notifier

import (
	"sync"
	"testing"
	"time"

	"github.com/modtrackin/modtrackin/internal/models"
	"github.com/modtrackin/modtrackin/internal/utils"
)

type fakeTimer struct {
	d       time.Duration
	fire    func()
	stopped bool
}

func (f *fakeTimer) Stop() bool {
	was := !f.stopped
	f.stopped = true
	return was
}

type fakeTimers struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (f *fakeTimers) after(d time.Duration, fn func()) stopper {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTimer{d: d, fire: fn}
	f.timers = append(f.timers, t)
	return t
}

func (f *fakeTimers) last() *fakeTimer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.timers[len(f.timers)-1]
}

func newTestScheduler(now time.Time) (*Scheduler, *recordingSender, *fakeTimers) {
	sender := &recordingSender{}
	timers := &fakeTimers{}
	s := NewScheduler(sender, WithClock(utils.FixedClock(now)), WithLocation(time.UTC))
	s.after = timers.after
	return s, sender, timers
}

func TestNextDaily(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"before", time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC), time.Date(2025, 3, 10, 20, 0, 0, 0, time.UTC)},
		{"exactly at", time.Date(2025, 3, 10, 20, 0, 0, 0, time.UTC), time.Date(2025, 3, 11, 20, 0, 0, 0, time.UTC)},
		{"after", time.Date(2025, 3, 31, 21, 0, 0, 0, time.UTC), time.Date(2025, 4, 1, 20, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextDaily(tt.now, 20); !got.Equal(tt.want) {
				t.Errorf("NextDaily() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMoodReminderReschedules(t *testing.T) {
	now := time.Date(2025, 3, 10, 18, 30, 0, 0, time.UTC)
	s, sender, timers := newTestScheduler(now)

	s.ScheduleMoodReminder()
	first := timers.last()
	if first.d != 90*time.Minute {
		t.Errorf("first delay = %v, want 1h30m", first.d)
	}

	first.fire()
	if len(sender.sent) != 1 || sender.sent[0].Title != moodReminder.Title {
		t.Errorf("sent = %+v", sender.sent)
	}
	if len(timers.timers) != 2 {
		t.Fatalf("expected mood reminder to be rescheduled, timers=%d", len(timers.timers))
	}
	if p := s.Pending(); len(p) != 1 || p[0].Key != "mood" {
		t.Errorf("pending = %+v", p)
	}
}

func TestScheduleTask(t *testing.T) {
	now := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	s, sender, timers := newTestScheduler(now)

	s.ScheduleTask(models.Task{ID: "t1", Title: "Examen", DueDate: "2025-03-12"})
	if got := timers.last().d; got != 47*time.Hour {
		t.Errorf("delay = %v, want 47h", got)
	}

	// Already past 09:00 today.
	s.ScheduleTask(models.Task{ID: "t2", Title: "Hoy", DueDate: "2025-03-10"})
	s.ScheduleTask(models.Task{ID: "t3", Title: "Sin fecha"})
	s.ScheduleTask(models.Task{ID: "t4", Title: "Hecha", DueDate: "2025-03-20", IsCompleted: true})
	if p := s.Pending(); len(p) != 1 || p[0].Key != "task:t1" {
		t.Fatalf("pending = %+v", p)
	}

	// Rescheduling replaces the pending reminder.
	first := timers.last()
	s.ScheduleTask(models.Task{ID: "t1", Title: "Examen final", DueDate: "2025-03-13"})
	if !first.stopped {
		t.Error("previous timer should be stopped")
	}
	first.fire()
	if len(sender.sent) != 0 {
		t.Error("a replaced timer must not send")
	}
	timers.last().fire()
	if len(sender.sent) != 1 || sender.sent[0].Title != "⏳ Task due: Examen final" {
		t.Errorf("sent = %+v", sender.sent)
	}

	// Completing the task clears its reminder.
	s.ScheduleTask(models.Task{ID: "t5", DueDate: "2025-03-15"})
	s.ScheduleTask(models.Task{ID: "t5", DueDate: "2025-03-15", IsCompleted: true})
	if len(s.Pending()) != 0 {
		t.Errorf("pending = %+v", s.Pending())
	}
}

func TestStopIgnoresLaterSchedules(t *testing.T) {
	s, _, timers := newTestScheduler(time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC))
	s.ScheduleMoodReminder()
	s.Stop()
	if !timers.last().stopped {
		t.Error("Stop should stop pending timers")
	}
	s.ScheduleMoodReminder()
	if len(timers.timers) != 1 || len(s.Pending()) != 0 {
		t.Error("schedules after Stop must be ignored")
	}
}

func TestScheduleTasksDropsRemovedTasks(t *testing.T) {
	s, _, _ := newTestScheduler(time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC))
	s.ScheduleMoodReminder()
	s.ScheduleTasks([]models.Task{
		{ID: "a", DueDate: "2025-03-11"},
		{ID: "b", DueDate: "2025-03-12"},
	})
	if got := len(s.Pending()); got != 3 {
		t.Fatalf("pending = %d, want 3", got)
	}

	s.ScheduleTasks([]models.Task{{ID: "b", DueDate: "2025-03-12"}})
	pending := s.Pending()
	if len(pending) != 2 || pending[0].Key != "mood" || pending[1].Key != "task:b" {
		t.Errorf("pending = %+v, want mood then task:b", pending)
	}
}
