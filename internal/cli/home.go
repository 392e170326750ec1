package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/modtrackin/modtrackin/internal/controller"
	apperrors "github.com/modtrackin/modtrackin/internal/errors"
	"github.com/modtrackin/modtrackin/internal/utils"
)

type HomeCmd struct {
	NextQuote bool `help:"Show the following quote instead of today's."`
}

func (cmd *HomeCmd) Run(ctx *Context) error {
	if _, err := ctx.requireUser(); err != nil {
		return err
	}
	emotions := controller.NewEmotionController(ctx.Ctx, ctx.Emotions(), ctx.Oracle)
	defer emotions.Close()

	home := controller.NewHomeController(emotions, ctx.Tasks(), ctx.Habits())
	if err := home.Load(ctx.Ctx); err != nil {
		return uiError(home.State().ErrorMessage, err)
	}
	if cmd.NextQuote {
		home.NextQuote()
	}
	st := home.State()

	ctx.printf("📅 %s\n\n", st.Day)
	if e := st.TodayEmotion; e != nil {
		ctx.printf("Today you feel %s %s · %s\n", e.EmotionEmoji, e.EmotionText, e.Adjective)
		if st.Suggestion != "" {
			ctx.printf("💡 %s\n", st.Suggestion)
		}
	} else {
		ctx.println("No emotion recorded today. Run 'modtrackin emotion'.")
	}

	ctx.println()
	if len(st.PendingToday) == 0 {
		ctx.println("No pending tasks for today.")
	} else {
		ctx.printf("Pending today (%d):\n", len(st.PendingToday))
		for _, t := range st.PendingToday {
			ctx.printf("  • %s [%s]\n", t.Title, t.Priority)
		}
	}
	ctx.printf("\nHabits today: %s\n", utils.FormatMinutes(st.HabitMinutes))
	ctx.printf("\n%s\n", mutedStyle.Render("“"+st.Quote+"”"))
	return nil
}

type CalendarCmd struct {
	Month string `help:"Month to show (YYYY-MM). Defaults to the current month."`
	Day   string `help:"Day whose tasks to list (YYYY-MM-DD)."`
}

func (cmd *CalendarCmd) Run(ctx *Context) error {
	if _, err := ctx.requireUser(); err != nil {
		return err
	}
	day := ""
	switch {
	case cmd.Day != "":
		var err error
		if day, err = ctx.resolveDay(cmd.Day); err != nil {
			return err
		}
	case cmd.Month != "":
		if _, err := time.Parse("2006-01", cmd.Month); err != nil {
			return apperrors.Invalid("month", fmt.Sprintf("invalid month %q (expected YYYY-MM)", cmd.Month))
		}
		day = cmd.Month + "-01"
	}

	c := controller.NewCalendarController(ctx.Tasks())
	err := c.Load(ctx.Ctx)
	if err == nil && day != "" {
		err = c.SelectDate(ctx.Ctx, day)
	}
	if err != nil {
		return uiError(c.State().ErrorMessage, err)
	}

	st := c.State()
	ctx.println(renderMonth(st))
	ctx.println()
	if len(st.Tasks) == 0 {
		ctx.printf("No tasks due on %s.\n", st.SelectedDate)
		return nil
	}
	ctx.printf("Tasks due on %s:\n", st.SelectedDate)
	for _, t := range st.Tasks {
		ctx.printf("  [%s] %s (%s)\n", check(t.IsCompleted), t.Title, t.Priority)
	}
	return nil
}

// renderMonth draws a Monday-first month grid. Days with pending tasks carry
// a trailing asterisk and the selected day is bracketed.
func renderMonth(st controller.CalendarState) string {
	var b strings.Builder
	month := st.Month
	fmt.Fprintf(&b, "%s %d\n", month.Month(), month.Year())
	for _, wd := range []string{"Mo", "Tu", "We", "Th", "Fr", "Sa", "Su"} {
		fmt.Fprintf(&b, " %-4s", wd)
	}
	b.WriteString("\n")

	offset := (int(month.Weekday()) + 6) % 7
	b.WriteString(strings.Repeat("     ", offset))
	col := offset
	for d := month; d.Month() == month.Month(); d = d.AddDate(0, 0, 1) {
		day := utils.DateString(d)
		cell := fmt.Sprintf("%2d", d.Day())
		mark := " "
		if st.PendingDays[day] {
			mark = "*"
		}
		if day == st.SelectedDate {
			cell = "[" + cell + "]"
		} else {
			cell = " " + cell + mark
		}
		b.WriteString(cell + " ")
		col++
		if col == 7 {
			b.WriteString("\n")
			col = 0
		}
	}
	return strings.TrimRight(b.String(), "\n ")
}
