package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/modtrackin/modtrackin/internal/controller"
	"github.com/modtrackin/modtrackin/internal/models"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.note.SetWidth(min(msg.Width-6, 60))
		return m, nil

	case savedMsg:
		if msg.err != nil {
			m.status = m.ctrl.State().ErrorMessage
		} else {
			m.status = "Saved."
			m.note.Blur()
		}
		return m, nil

	case historyMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		m.status = ""
		st := m.ctrl.State()
		switch st.Step {
		case controller.StepNotes:
			return m.updateNotes(msg)
		case controller.StepMain:
			return m.updateList(msg, len(models.Emotions), func(i int) error {
				return m.ctrl.SelectEmotion(models.Emotions[i].ID)
			})
		case controller.StepAdjective:
			if st.Emotion == nil {
				return m, nil
			}
			adjectives := st.Emotion.Adjectives
			return m.updateList(msg, len(adjectives), func(i int) error {
				return m.ctrl.SelectAdjective(adjectives[i])
			})
		default:
			return m.updateGlobal(msg)
		}
	}
	return m, nil
}

// updateList moves the cursor over n items and calls pick on enter.
func (m Model) updateList(msg tea.KeyMsg, n int, pick func(int) error) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < n-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Enter):
		if err := pick(m.cursor); err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.cursor = 0
		if st := m.ctrl.State(); st.Step == controller.StepNotes {
			m.note.SetValue(st.Note)
			cmd := m.note.Focus()
			return m, cmd
		}
	default:
		return m.updateGlobal(msg)
	}
	return m, nil
}

func (m Model) updateNotes(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Save):
		m.ctrl.UpdateNote(m.note.Value())
		return m, m.save()
	case key.Matches(msg, m.keys.Back):
		m.ctrl.UpdateNote(m.note.Value())
		m.note.Blur()
		_ = m.ctrl.Back()
		return m, nil
	}
	var cmd tea.Cmd
	m.note, cmd = m.note.Update(msg)
	return m, cmd
}

func (m Model) updateGlobal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Back):
		_ = m.ctrl.Back()
		m.cursor = 0
	case key.Matches(msg, m.keys.History):
		step := m.ctrl.State().Step
		if step == controller.StepMain || step == controller.StepSaved {
			return m, m.history()
		}
	case key.Matches(msg, m.keys.New):
		if err := m.ctrl.Reset(); err == nil {
			m.note.SetValue("")
			m.cursor = 0
		}
	}
	return m, nil
}
