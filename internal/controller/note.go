package controller

import (
	"context"
	"sync"

	"github.com/modtrackin/modtrackin/internal/identity"
	"github.com/modtrackin/modtrackin/internal/logger"
	"github.com/modtrackin/modtrackin/internal/models"
	"github.com/modtrackin/modtrackin/internal/repository"
)

type NoteEditor struct {
	Open    bool
	Base    models.Note
	Title   string
	Content string
}

type NoteState struct {
	Notes        []models.Note
	Editor       NoteEditor
	ErrorMessage string
}

type NoteController struct {
	repo *repository.NoteRepository
	feed *feed[models.Note]

	mu    sync.Mutex
	state NoteState
}

func NewNoteController(ctx context.Context, repo *repository.NoteRepository, oracle identity.Oracle) *NoteController {
	c := &NoteController{repo: repo}
	if _, ok := oracle.CurrentUser(); ok {
		if err := c.Refresh(ctx); err != nil {
			logger.Debug("initial note load failed", "error", err)
		}
	}
	c.feed = startFeed[models.Note]("notes", oracle, repo.Listen, c.setNotes)
	return c
}

func (c *NoteController) setNotes(notes []models.Note) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Notes = notes
}

func (c *NoteController) Refresh(ctx context.Context) error {
	notes, err := c.repo.List(ctx)
	if err != nil {
		c.setError("failed to load notes")
		return err
	}
	c.setNotes(notes)
	return nil
}

func (c *NoteController) State() NoteState {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	s.Notes = append([]models.Note(nil), c.state.Notes...)
	return s
}

func (c *NoteController) OpenNew() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Editor = NoteEditor{Open: true}
	c.state.ErrorMessage = ""
}

func (c *NoteController) OpenEdit(n models.Note) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Editor = NoteEditor{Open: true, Base: n, Title: n.Title, Content: n.Content}
	c.state.ErrorMessage = ""
}

func (c *NoteController) CloseEditor() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Editor = NoteEditor{}
}

func (c *NoteController) SetTitle(title string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Editor.Title = title
}

func (c *NoteController) SetContent(content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Editor.Content = content
}

// Save stores the editor contents and closes the editor. Edited notes get a
// fresh timestamp.
func (c *NoteController) Save(ctx context.Context) error {
	c.mu.Lock()
	ed := c.state.Editor
	c.mu.Unlock()

	note := ed.Base
	note.Title = ed.Title
	note.Content = ed.Content
	note.Timestamp = c.repo.Now()
	if _, err := c.repo.Save(ctx, note); err != nil {
		c.setError("failed to save note")
		return err
	}

	c.mu.Lock()
	c.state.Editor = NoteEditor{}
	c.state.ErrorMessage = ""
	c.mu.Unlock()
	return c.Refresh(ctx)
}

// Delete removes the note and closes the editor.
func (c *NoteController) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := c.repo.Delete(ctx, id); err != nil {
		c.setError("failed to delete note")
		return err
	}
	c.CloseEditor()
	return c.Refresh(ctx)
}

func (c *NoteController) setError(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.ErrorMessage = msg
}

func (c *NoteController) Close() {
	c.feed.close()
}
