package cli

import (
	"fmt"
	"strings"

	"github.com/modtrackin/modtrackin/internal/validation"
)

type ValidateCmd struct{}

func (cmd *ValidateCmd) Run(ctx *Context) error {
	if _, err := ctx.requireUser(); err != nil {
		return err
	}
	res, err := validateAll(ctx)
	if err != nil {
		return err
	}
	ctx.println(strings.TrimSuffix(res.FormatReport(), "\n"))
	if res.HasConflicts() {
		return fmt.Errorf("%d problems found", len(res.Conflicts))
	}
	return nil
}

// validateAll checks every record the signed-in user owns.
func validateAll(ctx *Context) (validation.ValidationResult, error) {
	v := validation.New()
	var res validation.ValidationResult

	tasks, err := ctx.Tasks().List(ctx.Ctx)
	if err != nil {
		return res, err
	}
	res.Merge(v.ValidateTasks(tasks))

	habits, err := ctx.Habits().List(ctx.Ctx)
	if err != nil {
		return res, err
	}
	res.Merge(v.ValidateHabits(habits))

	emotions, err := ctx.Emotions().History(ctx.Ctx)
	if err != nil {
		return res, err
	}
	res.Merge(v.ValidateEmotions(emotions))

	sleeps, err := ctx.Sleeps().History(ctx.Ctx)
	if err != nil {
		return res, err
	}
	res.Merge(v.ValidateSleeps(sleeps))

	return res, nil
}
