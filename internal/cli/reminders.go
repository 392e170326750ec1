package cli

import (
	"time"

	"github.com/modtrackin/modtrackin/internal/constants"
	"github.com/modtrackin/modtrackin/internal/logger"
	"github.com/modtrackin/modtrackin/internal/models"
	"github.com/modtrackin/modtrackin/internal/notifier"
)

type RemindersCmd struct {
	List bool `help:"Print the reminders that would be scheduled and exit."`
}

func (cmd *RemindersCmd) Run(ctx *Context) error {
	if _, err := ctx.requireUser(); err != nil {
		return err
	}
	s := notifier.NewScheduler(notifier.DefaultSender(), notifier.WithLocation(ctx.location()))
	defer s.Stop()
	s.ScheduleMoodReminder()

	if cmd.List {
		tasks, err := ctx.Tasks().List(ctx.Ctx)
		if err != nil {
			return err
		}
		s.ScheduleTasks(tasks)
		for _, e := range s.Pending() {
			ctx.printf("%s  %s\n", e.At.Format("2006-01-02 15:04"), e.Key)
		}
		return nil
	}

	sub, err := ctx.Tasks().Listen(ctx.Ctx, func(tasks []models.Task, err error) {
		if err != nil {
			logger.Warn("task feed failed", "error", err)
			return
		}
		s.ScheduleTasks(tasks)
	})
	if err != nil {
		return err
	}
	defer sub.Close()

	ctx.printf("Reminders running (mood check at %02d:00, tasks at %02d:00). Press Ctrl+C to stop.\n",
		constants.MoodReminderHour, constants.TaskReminderHour)
	logger.Info("reminder scheduler started", "at", time.Now().Format(time.RFC3339))
	s.Run(ctx.Ctx)
	return nil
}
