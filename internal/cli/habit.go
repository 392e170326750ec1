package cli

import (
	"fmt"
	"strconv"

	"github.com/modtrackin/modtrackin/internal/controller"
	apperrors "github.com/modtrackin/modtrackin/internal/errors"
	"github.com/modtrackin/modtrackin/internal/models"
	"github.com/modtrackin/modtrackin/internal/utils"
)

type HabitCmd struct {
	Add    HabitAddCmd    `cmd:"" help:"Create a habit."`
	List   HabitListCmd   `cmd:"" help:"Show habits and progress for a day."`
	Edit   HabitEditCmd   `cmd:"" help:"Edit a habit."`
	Log    HabitLogCmd    `cmd:"" help:"Add minutes to a habit."`
	Delete HabitDeleteCmd `cmd:"" help:"Delete a habit."`
}

func habitID(h models.Habit) string { return h.ID }

func (ctx *Context) habitController() (*controller.HabitController, error) {
	if _, err := ctx.requireUser(); err != nil {
		return nil, err
	}
	return controller.NewHabitController(ctx.Ctx, ctx.Habits(), ctx.Oracle), nil
}

func validCategory(category string) error {
	for _, c := range models.HabitCategories {
		if c == category {
			return nil
		}
	}
	return apperrors.Invalid("category", fmt.Sprintf("unknown category %q (expected one of %v)", category, models.HabitCategories))
}

type HabitAddCmd struct {
	Title       string `arg:"" optional:"" help:"Habit name. Defaults to the category name."`
	Category    string `short:"c" help:"Category." default:"Otro"`
	Goal        string `short:"g" help:"Daily goal in minutes." default:"60"`
	Description string `short:"d" help:"Description."`
}

func (cmd *HabitAddCmd) Run(ctx *Context) error {
	if err := validCategory(cmd.Category); err != nil {
		return err
	}
	c, err := ctx.habitController()
	if err != nil {
		return err
	}
	defer c.Close()

	c.OpenNew()
	c.SetTitle(cmd.Title)
	c.SetCategory(cmd.Category)
	c.SetDescription(cmd.Description)
	if !c.SetTargetMinutes(cmd.Goal) {
		return apperrors.Invalid("goal", "daily goal must be a whole number of minutes")
	}
	title := c.State().Editor.Title
	if err := c.SaveEditor(ctx.Ctx); err != nil {
		return uiError(c.State().ErrorMessage, err)
	}
	ctx.printf("✓ Habit created: %s\n", title)
	return nil
}

type HabitListCmd struct {
	Date string `help:"Day to show progress for (YYYY-MM-DD, today or yesterday)."`
}

func (cmd *HabitListCmd) Run(ctx *Context) error {
	day, err := ctx.resolveDay(cmd.Date)
	if err != nil {
		return err
	}
	c, err := ctx.habitController()
	if err != nil {
		return err
	}
	defer c.Close()
	c.SelectDate(day)

	st := c.State()
	if len(st.Habits) == 0 {
		ctx.println("No habits yet. Create one with 'modtrackin habit add'.")
		return nil
	}
	rows := make([][]string, len(st.Habits))
	for i, h := range st.Habits {
		rows[i] = []string{
			shortID(h.ID),
			check(h.GoalReached(day)),
			h.Title,
			h.Category,
			fmt.Sprintf("%s / %s", utils.FormatMinutes(h.MinutesOn(day)), utils.FormatMinutes(h.DailyGoal)),
		}
	}
	ctx.printf("Habits for %s\n", day)
	ctx.println(renderTable([]string{"ID", "", "Habit", "Category", "Progress"}, rows))
	ctx.printf("Total: %s\n", utils.FormatMinutes(c.TotalMinutes()))
	return nil
}

type HabitEditCmd struct {
	ID          string `arg:"" help:"Habit id or unique prefix."`
	Title       string `help:"New name."`
	Category    string `help:"New category."`
	Goal        string `help:"New daily goal in minutes."`
	Description string `help:"New description."`
}

func (cmd *HabitEditCmd) Run(ctx *Context) error {
	if cmd.Category != "" {
		if err := validCategory(cmd.Category); err != nil {
			return err
		}
	}
	c, err := ctx.habitController()
	if err != nil {
		return err
	}
	defer c.Close()

	h, err := matchID(c.State().Habits, habitID, cmd.ID, "habit")
	if err != nil {
		return err
	}
	c.OpenEdit(h)
	if cmd.Title != "" {
		c.SetTitle(cmd.Title)
	}
	if cmd.Category != "" {
		c.SetCategory(cmd.Category)
	}
	if cmd.Description != "" {
		c.SetDescription(cmd.Description)
	}
	if cmd.Goal != "" && !c.SetTargetMinutes(cmd.Goal) {
		return apperrors.Invalid("goal", "daily goal must be a whole number of minutes")
	}
	if err := c.SaveEditor(ctx.Ctx); err != nil {
		return uiError(c.State().ErrorMessage, err)
	}
	ctx.printf("✓ Habit updated: %s\n", shortID(h.ID))
	return nil
}

type HabitLogCmd struct {
	ID      string `arg:"" help:"Habit id or unique prefix."`
	Minutes string `arg:"" help:"Minutes to add."`
	Date    string `help:"Day to log for (YYYY-MM-DD, today or yesterday)."`
}

func (cmd *HabitLogCmd) Run(ctx *Context) error {
	minutes, err := strconv.Atoi(cmd.Minutes)
	if err != nil || minutes <= 0 {
		return apperrors.Invalid("minutes", "minutes must be a positive whole number")
	}
	day, err := ctx.resolveDay(cmd.Date)
	if err != nil {
		return err
	}
	c, err := ctx.habitController()
	if err != nil {
		return err
	}
	defer c.Close()

	h, err := matchID(c.State().Habits, habitID, cmd.ID, "habit")
	if err != nil {
		return err
	}
	c.SelectDate(day)
	if err := c.AddMinutes(ctx.Ctx, h.ID, minutes); err != nil {
		return uiError(c.State().ErrorMessage, err)
	}

	updated, err := matchID(c.State().Habits, habitID, h.ID, "habit")
	if err != nil {
		return err
	}
	ctx.printf("✓ %s: %s / %s on %s\n", updated.Title,
		utils.FormatMinutes(updated.MinutesOn(day)), utils.FormatMinutes(updated.DailyGoal), day)
	if updated.GoalReached(day) && !h.GoalReached(day) {
		ctx.println("🎉 Daily goal reached!")
	}
	return nil
}

type HabitDeleteCmd struct {
	ID  string `arg:"" help:"Habit id or unique prefix."`
	Yes bool   `short:"y" help:"Do not ask for confirmation."`
}

func (cmd *HabitDeleteCmd) Run(ctx *Context) error {
	c, err := ctx.habitController()
	if err != nil {
		return err
	}
	defer c.Close()

	h, err := matchID(c.State().Habits, habitID, cmd.ID, "habit")
	if err != nil {
		return err
	}
	ok, err := confirm("Delete habit \""+h.Title+"\" and its history?", cmd.Yes)
	if err != nil || !ok {
		if err == nil {
			ctx.println("Delete cancelled.")
		}
		return err
	}
	c.OpenEdit(h)
	if err := c.DeleteEditing(ctx.Ctx); err != nil {
		return uiError(c.State().ErrorMessage, err)
	}
	ctx.printf("✓ Habit deleted: %s\n", h.Title)
	return nil
}
