package cli

import (
	"fmt"
	"strings"

	"github.com/modtrackin/modtrackin/internal/controller"
	"github.com/modtrackin/modtrackin/internal/models"
)

type SleepCmd struct {
	Log     SleepLogCmd     `cmd:"" help:"Record a night of sleep."`
	History SleepHistoryCmd `cmd:"" help:"Show recent nights."`
	Delete  SleepDeleteCmd  `cmd:"" help:"Delete a night."`
}

func (ctx *Context) sleepController() (*controller.SleepController, error) {
	if _, err := ctx.requireUser(); err != nil {
		return nil, err
	}
	return controller.NewSleepController(ctx.Ctx, ctx.Sleeps(), ctx.Oracle), nil
}

type SleepLogCmd struct {
	Day     string `help:"Day you woke up (YYYY-MM-DD, today or yesterday)."`
	Start   string `short:"s" help:"Bedtime (HH:MM)." default:"22:00"`
	End     string `short:"e" help:"Wake time (HH:MM)." default:"07:00"`
	Quality int    `short:"q" help:"Quality from 1 to 5." default:"3"`
}

func (cmd *SleepLogCmd) Run(ctx *Context) error {
	day, err := ctx.resolveDay(cmd.Day)
	if err != nil {
		return err
	}
	c, err := ctx.sleepController()
	if err != nil {
		return err
	}
	defer c.Close()

	c.SetForm(controller.SleepForm{Day: day, Start: cmd.Start, End: cmd.End, Quality: cmd.Quality})
	entry, err := c.Save(ctx.Ctx)
	if err != nil {
		return uiError(c.State().ErrorMessage, err)
	}
	ctx.printf("✓ Slept %.1fh (%s → %s), quality %s\n",
		entry.DurationHours,
		entry.StartTime.In(ctx.location()).Format("Mon 15:04"),
		entry.EndTime.In(ctx.location()).Format("Mon 15:04"),
		stars(entry.Quality))
	return nil
}

func stars(q int) string {
	if q < 0 {
		q = 0
	}
	if q > 5 {
		q = 5
	}
	return strings.Repeat("★", q) + strings.Repeat("☆", 5-q)
}

type SleepHistoryCmd struct{}

func (cmd *SleepHistoryCmd) Run(ctx *Context) error {
	c, err := ctx.sleepController()
	if err != nil {
		return err
	}
	defer c.Close()

	st := c.State()
	if st.ErrorMessage != "" {
		return fmt.Errorf("%s", st.ErrorMessage)
	}
	if len(st.History) == 0 {
		ctx.println("No nights recorded yet.")
		return nil
	}

	rows := make([][]string, len(st.History))
	total := 0.0
	for i, s := range st.History {
		total += s.DurationHours
		rows[i] = []string{
			s.Date,
			s.StartTime.In(ctx.location()).Format("15:04") + " → " + s.EndTime.In(ctx.location()).Format("15:04"),
			fmt.Sprintf("%.1fh", s.DurationHours),
			stars(s.Quality),
		}
	}
	ctx.println(renderTable([]string{"Night of", "Time", "Hours", "Quality"}, rows))
	ctx.printf("Average: %.1fh over %d nights\n", total/float64(len(st.History)), len(st.History))
	return nil
}

type SleepDeleteCmd struct {
	Night string `arg:"" help:"Night to delete, as shown by 'sleep history' (YYYY-MM-DD)."`
	Yes   bool   `short:"y" help:"Do not ask for confirmation."`
}

func (cmd *SleepDeleteCmd) Run(ctx *Context) error {
	c, err := ctx.sleepController()
	if err != nil {
		return err
	}
	defer c.Close()

	night, err := ctx.resolveDay(cmd.Night)
	if err != nil {
		return err
	}
	var s models.SleepEntry
	for _, e := range c.State().History {
		if e.Date == night {
			s = e
			break
		}
	}
	if s.ID == "" {
		return fmt.Errorf("no sleep entry for the night of %s", night)
	}
	ok, err := confirm("Delete the night of "+s.Date+"?", cmd.Yes)
	if err != nil || !ok {
		if err == nil {
			ctx.println("Delete cancelled.")
		}
		return err
	}
	if err := c.Delete(ctx.Ctx, s.ID); err != nil {
		return uiError(c.State().ErrorMessage, err)
	}
	ctx.printf("✓ Deleted the night of %s\n", s.Date)
	return nil
}
