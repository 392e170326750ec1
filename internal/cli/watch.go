package cli

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/modtrackin/modtrackin/internal/docstore"
	"github.com/modtrackin/modtrackin/internal/logger"
	"github.com/modtrackin/modtrackin/internal/models"
	"github.com/modtrackin/modtrackin/internal/utils"
)

type WatchCmd struct {
	Tasks  WatchTasksCmd  `cmd:"" help:"Print the task list whenever it changes."`
	Notes  WatchNotesCmd  `cmd:"" help:"Print the note list whenever it changes."`
	Habits WatchHabitsCmd `cmd:"" help:"Print today's habit progress whenever it changes."`
}

type listenFn[T any] func(ctx context.Context, fn func([]T, error)) (docstore.Subscription, error)

// watch prints every snapshot delivered by listen until ctx.Ctx is done.
func watch[T any](ctx *Context, name string, listen listenFn[T], render func([]T) string) error {
	if _, err := ctx.requireUser(); err != nil {
		return err
	}

	var mu sync.Mutex
	sub, err := listen(ctx.Ctx, func(items []T, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			logger.Warn("watch delivery failed", "feature", name, "error", err)
			fmt.Fprintf(ctx.Out, "! %v\n", err)
			return
		}
		fmt.Fprintf(ctx.Out, "── %s · %s ──\n", name, time.Now().Format("15:04:05"))
		fmt.Fprintln(ctx.Out, render(items))
	})
	if err != nil {
		return err
	}
	defer sub.Close()

	<-ctx.Ctx.Done()
	return nil
}

type WatchTasksCmd struct{}

func (cmd *WatchTasksCmd) Run(ctx *Context) error {
	return watch[models.Task](ctx, "tasks", ctx.Tasks().Listen, func(tasks []models.Task) string {
		if len(tasks) == 0 {
			return "No tasks."
		}
		rows := make([][]string, len(tasks))
		for i, t := range tasks {
			rows[i] = []string{shortID(t.ID), check(t.IsCompleted), t.Title, string(t.Priority), t.DueDate}
		}
		return renderTable([]string{"ID", "", "Title", "Priority", "Due"}, rows)
	})
}

type WatchNotesCmd struct{}

func (cmd *WatchNotesCmd) Run(ctx *Context) error {
	return watch[models.Note](ctx, "notes", ctx.Notes().Listen, func(notes []models.Note) string {
		if len(notes) == 0 {
			return "No notes."
		}
		rows := make([][]string, len(notes))
		for i, n := range notes {
			rows[i] = []string{shortID(n.ID), n.Title, preview(n.Content, 40)}
		}
		return renderTable([]string{"ID", "Title", "Content"}, rows)
	})
}

type WatchHabitsCmd struct{}

func (cmd *WatchHabitsCmd) Run(ctx *Context) error {
	repo := ctx.Habits()
	return watch[models.Habit](ctx, "habits", repo.Listen, func(habits []models.Habit) string {
		if len(habits) == 0 {
			return "No habits."
		}
		day := repo.Today()
		rows := make([][]string, len(habits))
		for i, h := range habits {
			rows[i] = []string{check(h.GoalReached(day)), h.Title,
				utils.FormatMinutes(h.MinutesOn(day)) + " / " + utils.FormatMinutes(h.DailyGoal)}
		}
		return renderTable([]string{"", "Habit", "Today"}, rows)
	})
}
