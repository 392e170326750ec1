package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/modtrackin/modtrackin/internal/controller"
	apperrors "github.com/modtrackin/modtrackin/internal/errors"
	"github.com/modtrackin/modtrackin/internal/models"
	"github.com/modtrackin/modtrackin/internal/tui"
)

type EmotionCmd struct {
	Wizard  EmotionWizardCmd  `cmd:"" default:"1" help:"Record today's emotion interactively."`
	Log     EmotionLogCmd     `cmd:"" help:"Record today's emotion."`
	Today   EmotionTodayCmd   `cmd:"" help:"Show today's entry."`
	History EmotionHistoryCmd `cmd:"" help:"List every recorded day."`
}

type EmotionWizardCmd struct{}

func (cmd *EmotionWizardCmd) Run(ctx *Context) error {
	if _, err := ctx.requireUser(); err != nil {
		return err
	}
	c := controller.NewEmotionController(ctx.Ctx, ctx.Emotions(), ctx.Oracle)
	defer c.Close()

	p := tea.NewProgram(tui.NewModel(ctx.Ctx, c), tea.WithAltScreen(), tea.WithContext(ctx.Ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("emotion wizard failed: %w", err)
	}
	return nil
}

type EmotionLogCmd struct {
	Emotion   string `arg:"" help:"Emotion id (alegre, neutral, triste, molesto, nervioso)."`
	Adjective string `arg:"" help:"One of the emotion's adjectives."`
	Note      string `short:"n" help:"Optional note."`
}

func (cmd *EmotionLogCmd) Run(ctx *Context) error {
	if _, err := ctx.requireUser(); err != nil {
		return err
	}
	c := controller.NewEmotionController(ctx.Ctx, ctx.Emotions(), ctx.Oracle)
	defer c.Close()

	if c.State().Step == controller.StepSaved {
		if err := c.Reset(); err != nil {
			return err
		}
	}
	id := strings.ToLower(cmd.Emotion)
	if _, ok := models.EmotionByID(id); !ok {
		return errUnknownEmotion(cmd.Emotion)
	}
	if err := c.SelectEmotion(id); err != nil {
		return err
	}
	if err := c.SelectAdjective(matchAdjective(c.State().Emotion, cmd.Adjective)); err != nil {
		return err
	}
	c.UpdateNote(cmd.Note)
	if err := c.Save(ctx.Ctx); err != nil {
		return uiError(c.State().ErrorMessage, err)
	}

	entry := c.State().Today
	ctx.printf("✓ Saved %s %s · %s for %s\n", entry.EmotionEmoji, entry.EmotionText, entry.Adjective, entry.DateString)
	return nil
}

// matchAdjective maps a case-insensitive input onto the catalog spelling.
func matchAdjective(e *models.Emotion, input string) string {
	if e == nil {
		return input
	}
	for _, a := range e.Adjectives {
		if strings.EqualFold(a, input) {
			return a
		}
	}
	return input
}

type EmotionTodayCmd struct{}

func (cmd *EmotionTodayCmd) Run(ctx *Context) error {
	if _, err := ctx.requireUser(); err != nil {
		return err
	}
	entry, ok, err := ctx.Emotions().GetToday(ctx.Ctx)
	if err != nil {
		return err
	}
	if !ok {
		ctx.println("No entry for today. Record one with 'modtrackin emotion'.")
		return nil
	}
	ctx.printf("%s  %s %s · %s\n", entry.DateString, entry.EmotionEmoji, entry.EmotionText, entry.Adjective)
	if entry.Note != "" {
		ctx.printf("   %s\n", entry.Note)
	}
	if emotion, ok := models.EmotionByID(entry.EmotionID); ok {
		ctx.println("\nSuggestions:")
		for _, s := range emotion.Suggestions {
			ctx.printf("  • %s\n", s)
		}
	}
	return nil
}

type EmotionHistoryCmd struct{}

func (cmd *EmotionHistoryCmd) Run(ctx *Context) error {
	if _, err := ctx.requireUser(); err != nil {
		return err
	}
	c := controller.NewEmotionController(ctx.Ctx, ctx.Emotions(), ctx.Oracle)
	defer c.Close()

	if err := c.GoToHistory(ctx.Ctx); err != nil {
		return uiError(c.State().ErrorMessage, err)
	}
	history := c.State().History
	if len(history) == 0 {
		ctx.println("No entries yet.")
		return nil
	}
	for _, e := range history {
		line := fmt.Sprintf("%s  %s %-8s %s", e.DateString, e.EmotionEmoji, e.EmotionText, e.Adjective)
		if e.Note != "" {
			line += "  " + e.Note
		}
		ctx.println(line)
	}
	return nil
}

// errUnknownEmotion lists the catalog when an id is not recognised.
func errUnknownEmotion(id string) error {
	ids := make([]string, len(models.Emotions))
	for i, e := range models.Emotions {
		ids[i] = e.ID
	}
	return apperrors.Invalid("emotion", fmt.Sprintf("unknown emotion %q (expected one of %s)", id, strings.Join(ids, ", ")))
}
