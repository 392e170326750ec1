package notifier

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/modtrackin/modtrackin/internal/constants"
	"github.com/modtrackin/modtrackin/internal/logger"
	"github.com/modtrackin/modtrackin/internal/models"
	"github.com/modtrackin/modtrackin/internal/utils"
)

const (
	moodKey       = "mood"
	taskKeyPrefix = "task:"
	sendTimeout   = 10 * time.Second
)

var moodReminder = Reminder{
	Title:   "New day, new emotions! 😁",
	Message: "You can now log how you feel today.",
}

func taskReminder(t models.Task) Reminder {
	return Reminder{
		Title:   "⏳ Task due: " + t.Title,
		Message: "Today is the deadline. You've got this!",
	}
}

type stopper interface {
	Stop() bool
}

type afterFunc func(d time.Duration, f func()) stopper

func realAfter(d time.Duration, f func()) stopper {
	return time.AfterFunc(d, f)
}

type pending struct {
	at    time.Time
	timer stopper
}

// Scheduler fires reminders at wall-clock times. Scheduling a key that is
// already pending replaces it.
type Scheduler struct {
	sender Sender
	clock  utils.Clock
	loc    *time.Location
	after  afterFunc

	mu      sync.Mutex
	pending map[string]pending
	stopped bool
}

type Option func(*Scheduler)

func WithClock(c utils.Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) { s.loc = loc }
}

func NewScheduler(sender Sender, opts ...Option) *Scheduler {
	s := &Scheduler{
		sender:  sender,
		clock:   utils.SystemClock,
		loc:     time.Local,
		after:   realAfter,
		pending: make(map[string]pending),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NextDaily returns the next instant at hour:00 strictly after now.
func NextDaily(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// TaskReminderAt is 09:00 on the task's due date in loc. Tasks without a
// valid due date have no reminder.
func TaskReminderAt(t models.Task, loc *time.Location) (time.Time, bool) {
	if t.DueDate == "" {
		return time.Time{}, false
	}
	day, err := utils.ParseDate(t.DueDate, loc)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(day.Year(), day.Month(), day.Day(), constants.TaskReminderHour, 0, 0, 0, loc), true
}

func (s *Scheduler) now() time.Time {
	return s.clock().In(s.loc)
}

// ScheduleMoodReminder fires the mood reminder every day at 20:00.
func (s *Scheduler) ScheduleMoodReminder() {
	at := NextDaily(s.now(), constants.MoodReminderHour)
	s.schedule(moodKey, at, func() {
		s.send(moodReminder)
		s.ScheduleMoodReminder()
	})
}

// ScheduleTask sets the task's due-date reminder. Completed tasks and
// reminders already in the past only clear an existing one.
func (s *Scheduler) ScheduleTask(t models.Task) {
	key := taskKeyPrefix + t.ID
	at, ok := TaskReminderAt(t, s.loc)
	if !ok || t.IsCompleted || at.Before(s.now()) {
		s.Cancel(key)
		return
	}
	s.schedule(key, at, func() { s.send(taskReminder(t)) })
}

// ScheduleTasks makes the task reminders match tasks. Reminders of tasks
// missing from the list are cancelled.
func (s *Scheduler) ScheduleTasks(tasks []models.Task) {
	keep := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		keep[taskKeyPrefix+t.ID] = true
		s.ScheduleTask(t)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for k, p := range s.pending {
		if strings.HasPrefix(k, taskKeyPrefix) && !keep[k] {
			p.timer.Stop()
			delete(s.pending, k)
		}
	}
}

func (s *Scheduler) schedule(key string, at time.Time, fire func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if p, ok := s.pending[key]; ok {
		p.timer.Stop()
	}
	var timer stopper
	timer = s.after(at.Sub(s.now()), func() {
		s.mu.Lock()
		if p, ok := s.pending[key]; !ok || p.timer != timer {
			s.mu.Unlock()
			return
		}
		delete(s.pending, key)
		s.mu.Unlock()
		fire()
	})
	s.pending[key] = pending{at: at, timer: timer}
	logger.Debug("reminder scheduled", "key", key, "at", at.Format(time.RFC3339))
}

func (s *Scheduler) send(r Reminder) {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	if err := s.sender.Send(ctx, r); err != nil {
		logger.Warn("failed to deliver reminder", "title", r.Title, "error", err)
	}
}

func (s *Scheduler) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.pending[key]; ok {
		p.timer.Stop()
		delete(s.pending, key)
	}
}

// Entry is a pending reminder.
type Entry struct {
	Key string
	At  time.Time
}

// Pending lists pending reminders, soonest first.
func (s *Scheduler) Pending() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, 0, len(s.pending))
	for k, p := range s.pending {
		out = append(out, Entry{Key: k, At: p.at})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].At.Equal(out[j].At) {
			return out[i].Key < out[j].Key
		}
		return out[i].At.Before(out[j].At)
	})
	return out
}

// Stop cancels every pending reminder; later calls to schedule are ignored.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for k, p := range s.pending {
		p.timer.Stop()
		delete(s.pending, k)
	}
}

// Run keeps the scheduler alive until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	<-ctx.Done()
	s.Stop()
}
