// Package cli holds the modtrackin command implementations. Each command is
// a kong struct with a Run(*Context) method.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/modtrackin/modtrackin/internal/config"
	"github.com/modtrackin/modtrackin/internal/constants"
	"github.com/modtrackin/modtrackin/internal/docstore"
	apperrors "github.com/modtrackin/modtrackin/internal/errors"
	"github.com/modtrackin/modtrackin/internal/identity"
	"github.com/modtrackin/modtrackin/internal/repository"
	"github.com/modtrackin/modtrackin/internal/utils"
)

// Context is shared by every command. Docs and Oracle are nil for commands
// that run without a store.
type Context struct {
	Ctx       context.Context
	ConfigDir string
	Store     config.Store
	Docs      docstore.Store
	Oracle    identity.Oracle
	Deps      repository.Deps
	Out       io.Writer
}

// NewContext wires the local identity oracle to docs, persisting sessions in
// the OS keyring.
func NewContext(ctx context.Context, configDir string, store config.Store, docs docstore.Store) *Context {
	oracle := identity.NewLocalOracle(docs.Collection(constants.CollectionAccounts), identity.KeyringSessions{})
	return &Context{
		Ctx:       ctx,
		ConfigDir: configDir,
		Store:     store,
		Docs:      docs,
		Oracle:    oracle,
		Deps:      repository.Deps{Store: docs, Oracle: oracle},
		Out:       os.Stdout,
	}
}

func (c *Context) Close() error {
	if c.Docs == nil {
		return nil
	}
	return c.Docs.Close()
}

func (c *Context) printf(format string, args ...any) {
	fmt.Fprintf(c.Out, format, args...)
}

func (c *Context) println(args ...any) {
	fmt.Fprintln(c.Out, args...)
}

// requireUser fails with a login hint when nobody is signed in.
func (c *Context) requireUser() (string, error) {
	uid, ok := c.Oracle.CurrentUser()
	if !ok {
		return "", fmt.Errorf("%w: run 'modtrackin login' first", apperrors.ErrNotAuthenticated)
	}
	return uid, nil
}

func (c *Context) Tasks() *repository.TaskRepository {
	return repository.NewTaskRepository(c.Deps)
}

func (c *Context) Notes() *repository.NoteRepository {
	return repository.NewNoteRepository(c.Deps)
}

func (c *Context) Habits() *repository.HabitRepository {
	return repository.NewHabitRepository(c.Deps)
}

func (c *Context) Emotions() *repository.EmotionRepository {
	return repository.NewEmotionRepository(c.Deps)
}

func (c *Context) Sleeps() *repository.SleepRepository {
	return repository.NewSleepRepository(c.Deps)
}

func (c *Context) Users() *repository.UserRepository {
	return repository.NewUserRepository(c.Deps)
}

func (c *Context) location() *time.Location {
	if c.Deps.Location != nil {
		return c.Deps.Location
	}
	return time.Local
}

// resolveDay accepts YYYY-MM-DD, "today" or "yesterday". Empty means today.
func (c *Context) resolveDay(day string) (string, error) {
	clock := c.Deps.Clock
	if clock == nil {
		clock = utils.SystemClock
	}
	now := clock().In(c.location())
	switch strings.ToLower(day) {
	case "", "today":
		return utils.DateString(now), nil
	case "yesterday":
		return utils.DateString(now.AddDate(0, 0, -1)), nil
	}
	if _, err := utils.ParseDate(day, c.location()); err != nil {
		return "", apperrors.Invalid("date", err.Error())
	}
	return day, nil
}

// matchID finds the item whose id equals ref or, failing that, the only one
// whose id starts with it.
func matchID[T any](items []T, id func(T) string, ref, kind string) (T, error) {
	var zero T
	if ref == "" {
		return zero, apperrors.Invalid("id", kind+" id is required")
	}
	var found []T
	for _, it := range items {
		if id(it) == ref {
			return it, nil
		}
		if strings.HasPrefix(id(it), ref) {
			found = append(found, it)
		}
	}
	switch len(found) {
	case 0:
		return zero, fmt.Errorf("%s not found: %s", kind, ref)
	case 1:
		return found[0], nil
	default:
		return zero, fmt.Errorf("%s id %q is ambiguous (%d matches)", kind, ref, len(found))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// confirm asks a yes/no question unless assumeYes is set.
func confirm(title string, assumeYes bool) (bool, error) {
	if assumeYes {
		return true, nil
	}
	ok := false
	err := huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&ok).
		Run()
	return ok, err
}

// uiError prefers the message a controller shows the user over the raw error.
func uiError(message string, err error) error {
	if message == "" {
		return err
	}
	return errors.New(message)
}
