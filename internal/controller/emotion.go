package controller

import (
	"context"
	"fmt"
	"sync"

	apperrors "github.com/modtrackin/modtrackin/internal/errors"
	"github.com/modtrackin/modtrackin/internal/identity"
	"github.com/modtrackin/modtrackin/internal/logger"
	"github.com/modtrackin/modtrackin/internal/models"
	"github.com/modtrackin/modtrackin/internal/repository"
)

// Step is a screen of the emotion entry flow.
type Step int

const (
	StepMain Step = iota + 1
	StepAdjective
	StepSaved
	StepNotes
	StepHistory
)

func (s Step) String() string {
	switch s {
	case StepMain:
		return "main"
	case StepAdjective:
		return "adjective"
	case StepSaved:
		return "saved"
	case StepNotes:
		return "notes"
	case StepHistory:
		return "history"
	default:
		return fmt.Sprintf("Step(%d)", int(s))
	}
}

// EmotionState is a snapshot of the flow.
type EmotionState struct {
	Step Step
	// Emotion is the selected catalog emotion, nil until one is picked.
	Emotion   *models.Emotion
	Adjective string
	Note      string
	// Today is the stored entry for today, nil when none is known.
	Today        *models.EmotionEntry
	History      []models.EmotionEntry
	IsLoading    bool
	ErrorMessage string
}

type EmotionController struct {
	repo *repository.EmotionRepository

	mu         sync.Mutex
	state      EmotionState
	cancelAuth func()
}

// NewEmotionController loads today's entry and re-runs that check on every
// sign-in reported by oracle. Sign-out clears all state.
func NewEmotionController(ctx context.Context, repo *repository.EmotionRepository, oracle identity.Oracle) *EmotionController {
	c := &EmotionController{repo: repo, state: EmotionState{Step: StepMain}}
	c.cancelAuth = oracle.OnAuthStateChange(func(uid string) {
		if uid == "" {
			c.mu.Lock()
			c.state = EmotionState{Step: StepMain}
			c.mu.Unlock()
			return
		}
		if err := c.Load(context.Background()); err != nil {
			logger.Debug("emotion reload after sign-in failed", "error", err)
		}
	})
	if _, ok := oracle.CurrentUser(); ok {
		if err := c.Load(ctx); err != nil {
			logger.Debug("initial emotion load failed", "error", err)
		}
	}
	return c
}

// Load resets the flow and starts at Saved when today already has an entry,
// otherwise at Main.
func (c *EmotionController) Load(ctx context.Context) error {
	c.mu.Lock()
	c.state = EmotionState{Step: StepMain, IsLoading: true}
	c.mu.Unlock()

	entry, ok, err := c.repo.GetToday(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.IsLoading = false
	if err != nil {
		c.state.ErrorMessage = "failed to load today's entry"
		return err
	}
	if ok {
		c.state.Today = &entry
		c.state.Step = StepSaved
	}
	return nil
}

func (c *EmotionController) State() EmotionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	s.History = append([]models.EmotionEntry(nil), c.state.History...)
	if c.state.Today != nil {
		today := *c.state.Today
		s.Today = &today
	}
	return s
}

// SelectEmotion picks a catalog emotion on the Main step.
func (c *EmotionController) SelectEmotion(id string) error {
	emotion, ok := models.EmotionByID(id)
	if !ok {
		return apperrors.Invalid("emotion", fmt.Sprintf("unknown emotion %q", id))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Step != StepMain {
		return fmt.Errorf("%w: select emotion from %s", ErrInvalidTransition, c.state.Step)
	}
	c.state.Emotion = &emotion
	c.state.Step = StepAdjective
	return nil
}

// SelectAdjective picks one of the selected emotion's adjectives.
func (c *EmotionController) SelectAdjective(adj string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Step != StepAdjective {
		return fmt.Errorf("%w: select adjective from %s", ErrInvalidTransition, c.state.Step)
	}
	if c.state.Emotion == nil || !c.state.Emotion.HasAdjective(adj) {
		return apperrors.Invalid("adjective", fmt.Sprintf("%q does not describe this emotion", adj))
	}
	c.state.Adjective = adj
	c.state.Step = StepNotes
	return nil
}

func (c *EmotionController) UpdateNote(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Note = text
}

// Save upserts today's entry from the current selections. Without a selected
// emotion it does nothing. On failure only ErrorMessage changes.
func (c *EmotionController) Save(ctx context.Context) error {
	c.mu.Lock()
	if c.state.Emotion == nil {
		c.mu.Unlock()
		return nil
	}
	if c.state.Step != StepNotes {
		step := c.state.Step
		c.mu.Unlock()
		return fmt.Errorf("%w: save from %s", ErrInvalidTransition, step)
	}
	entry := models.EmotionEntry{
		EmotionID:    c.state.Emotion.ID,
		EmotionEmoji: c.state.Emotion.Emoji,
		EmotionText:  c.state.Emotion.Text,
		Adjective:    c.state.Adjective,
		Note:         c.state.Note,
	}
	c.state.IsLoading = true
	c.mu.Unlock()

	saved, err := c.repo.Save(ctx, entry)
	if err != nil {
		c.mu.Lock()
		c.state.IsLoading = false
		c.state.ErrorMessage = messageFor(err)
		c.mu.Unlock()
		return err
	}

	history, herr := c.repo.History(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.IsLoading = false
	c.state.ErrorMessage = ""
	c.state.Today = &saved
	c.state.Step = StepSaved
	if herr != nil {
		logger.Debug("history refresh after save failed", "error", herr)
	} else {
		c.state.History = history
	}
	return nil
}

// GoToHistory re-fetches every entry and shows the history step.
func (c *EmotionController) GoToHistory(ctx context.Context) error {
	c.mu.Lock()
	if c.state.Step != StepMain && c.state.Step != StepSaved {
		step := c.state.Step
		c.mu.Unlock()
		return fmt.Errorf("%w: history from %s", ErrInvalidTransition, step)
	}
	c.state.IsLoading = true
	c.mu.Unlock()

	history, err := c.repo.History(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.IsLoading = false
	if err != nil {
		c.state.ErrorMessage = "failed to load history"
		return err
	}
	c.state.History = history
	c.state.Step = StepHistory
	return nil
}

// Back moves one step back. Selections are kept so the user can revise them.
func (c *EmotionController) Back() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state.Step {
	case StepAdjective:
		c.state.Step = StepMain
	case StepNotes:
		c.state.Step = StepAdjective
	case StepHistory:
		if c.state.Today != nil {
			c.state.Step = StepSaved
		} else {
			c.state.Step = StepMain
		}
	case StepMain, StepSaved:
		c.state.Step = StepMain
	default:
		return fmt.Errorf("%w: back from %s", ErrInvalidTransition, c.state.Step)
	}
	return nil
}

// Reset starts a new entry from Saved. The stored entry is untouched.
func (c *EmotionController) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Step != StepSaved {
		return fmt.Errorf("%w: reset from %s", ErrInvalidTransition, c.state.Step)
	}
	c.state.Step = StepMain
	c.state.Emotion = nil
	c.state.Adjective = ""
	c.state.Note = ""
	c.state.Today = nil
	return nil
}

func (c *EmotionController) ClearError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.ErrorMessage = ""
}

// Close stops following auth changes.
func (c *EmotionController) Close() {
	if c.cancelAuth != nil {
		c.cancelAuth()
	}
}
