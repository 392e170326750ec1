// Package tui is the interactive emotion entry wizard.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/modtrackin/modtrackin/internal/controller"
)

type savedMsg struct{ err error }

type historyMsg struct{ err error }

// Model renders the emotion controller's current step. All step changes go
// through the controller.
type Model struct {
	ctx      context.Context
	ctrl     *controller.EmotionController
	keys     KeyMap
	help     help.Model
	note     textarea.Model
	cursor   int
	status   string
	width    int
	height   int
	quitting bool
}

func NewModel(ctx context.Context, ctrl *controller.EmotionController) Model {
	note := textarea.New()
	note.Placeholder = "What happened today?"
	note.ShowLineNumbers = false
	note.SetHeight(4)
	return Model{
		ctx:  ctx,
		ctrl: ctrl,
		keys: DefaultKeyMap(),
		help: help.New(),
		note: note,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) save() tea.Cmd {
	return func() tea.Msg {
		return savedMsg{err: m.ctrl.Save(m.ctx)}
	}
}

func (m Model) history() tea.Cmd {
	return func() tea.Msg {
		return historyMsg{err: m.ctrl.GoToHistory(m.ctx)}
	}
}
