package cli

import (
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/modtrackin/modtrackin/internal/controller"
	"github.com/modtrackin/modtrackin/internal/models"
)

type NoteCmd struct {
	Add    NoteAddCmd    `cmd:"" help:"Write a note."`
	List   NoteListCmd   `cmd:"" help:"List notes, newest first."`
	Show   NoteShowCmd   `cmd:"" help:"Print a note."`
	Edit   NoteEditCmd   `cmd:"" help:"Edit a note."`
	Delete NoteDeleteCmd `cmd:"" help:"Delete a note."`
}

func noteID(n models.Note) string { return n.ID }

func (ctx *Context) noteController() (*controller.NoteController, error) {
	if _, err := ctx.requireUser(); err != nil {
		return nil, err
	}
	return controller.NewNoteController(ctx.Ctx, ctx.Notes(), ctx.Oracle), nil
}

type NoteAddCmd struct {
	Title   string `arg:"" optional:"" help:"Note title."`
	Content string `short:"m" help:"Note body. An editor opens when omitted."`
}

func (cmd *NoteAddCmd) Run(ctx *Context) error {
	c, err := ctx.noteController()
	if err != nil {
		return err
	}
	defer c.Close()

	title, content := cmd.Title, cmd.Content
	if content == "" {
		if err := promptNote(&title, &content); err != nil {
			return err
		}
	}

	c.OpenNew()
	c.SetTitle(title)
	c.SetContent(content)
	if err := c.Save(ctx.Ctx); err != nil {
		return uiError(c.State().ErrorMessage, err)
	}
	ctx.println("✓ Note saved")
	return nil
}

func promptNote(title, content *string) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Title").Value(title),
			huh.NewText().Title("Note").Value(content),
		),
	).Run()
}

type NoteListCmd struct{}

func (cmd *NoteListCmd) Run(ctx *Context) error {
	if _, err := ctx.requireUser(); err != nil {
		return err
	}
	notes, err := ctx.Notes().List(ctx.Ctx)
	if err != nil {
		return err
	}
	if len(notes) == 0 {
		ctx.println("No notes yet.")
		return nil
	}
	rows := make([][]string, len(notes))
	for i, n := range notes {
		rows[i] = []string{shortID(n.ID), n.Timestamp.In(ctx.location()).Format("2006-01-02 15:04"), n.Title, preview(n.Content, 40)}
	}
	ctx.println(renderTable([]string{"ID", "Updated", "Title", "Content"}, rows))
	return nil
}

// preview returns the first line of s cut to n runes.
func preview(s string, n int) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i] + " …"
	}
	r := []rune(s)
	if len(r) > n {
		return string(r[:n-1]) + "…"
	}
	return s
}

type NoteShowCmd struct {
	ID string `arg:"" help:"Note id or unique prefix."`
}

func (cmd *NoteShowCmd) Run(ctx *Context) error {
	c, err := ctx.noteController()
	if err != nil {
		return err
	}
	defer c.Close()

	n, err := matchID(c.State().Notes, noteID, cmd.ID, "note")
	if err != nil {
		return err
	}
	if n.Title != "" {
		ctx.println(headerStyle.Render(n.Title))
	}
	ctx.println(mutedStyle.Render(n.Timestamp.In(ctx.location()).Format(time.RFC1123)))
	ctx.println()
	ctx.println(n.Content)
	return nil
}

type NoteEditCmd struct {
	ID      string `arg:"" help:"Note id or unique prefix."`
	Title   string `help:"New title."`
	Content string `short:"m" help:"New body. An editor opens when neither flag is set."`
}

func (cmd *NoteEditCmd) Run(ctx *Context) error {
	c, err := ctx.noteController()
	if err != nil {
		return err
	}
	defer c.Close()

	n, err := matchID(c.State().Notes, noteID, cmd.ID, "note")
	if err != nil {
		return err
	}
	c.OpenEdit(n)

	title, content := n.Title, n.Content
	if cmd.Title == "" && cmd.Content == "" {
		if err := promptNote(&title, &content); err != nil {
			return err
		}
	} else {
		if cmd.Title != "" {
			title = cmd.Title
		}
		if cmd.Content != "" {
			content = cmd.Content
		}
	}
	c.SetTitle(title)
	c.SetContent(content)
	if err := c.Save(ctx.Ctx); err != nil {
		return uiError(c.State().ErrorMessage, err)
	}
	ctx.printf("✓ Note updated: %s\n", shortID(n.ID))
	return nil
}

type NoteDeleteCmd struct {
	ID  string `arg:"" help:"Note id or unique prefix."`
	Yes bool   `short:"y" help:"Do not ask for confirmation."`
}

func (cmd *NoteDeleteCmd) Run(ctx *Context) error {
	c, err := ctx.noteController()
	if err != nil {
		return err
	}
	defer c.Close()

	n, err := matchID(c.State().Notes, noteID, cmd.ID, "note")
	if err != nil {
		return err
	}
	ok, err := confirm("Delete this note?", cmd.Yes)
	if err != nil || !ok {
		if err == nil {
			ctx.println("Delete cancelled.")
		}
		return err
	}
	if err := c.Delete(ctx.Ctx, n.ID); err != nil {
		return uiError(c.State().ErrorMessage, err)
	}
	ctx.println("✓ Note deleted")
	return nil
}
