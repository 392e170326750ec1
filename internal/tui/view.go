package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/modtrackin/modtrackin/internal/controller"
	"github.com/modtrackin/modtrackin/internal/models"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	st := m.ctrl.State()
	var content string
	switch st.Step {
	case controller.StepMain:
		content = m.viewMain()
	case controller.StepAdjective:
		content = m.viewAdjective(st)
	case controller.StepNotes:
		content = m.viewNotes(st)
	case controller.StepSaved:
		content = m.viewSaved(st)
	case controller.StepHistory:
		content = m.viewHistory(st)
	}

	status := ""
	if m.status != "" {
		status = mutedStyle.Render(m.status)
	}
	if st.ErrorMessage != "" {
		status = dangerStyle.Render(st.ErrorMessage)
	}

	return docStyle.Render(lipgloss.JoinVertical(
		lipgloss.Left,
		content,
		"",
		status,
		m.help.View(m.keys),
	))
}

func (m Model) renderList(items []string) string {
	rows := make([]string, len(items))
	for i, item := range items {
		if i == m.cursor {
			rows[i] = selectedStyle.Render("› " + item)
		} else {
			rows[i] = itemStyle.Render("  " + item)
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) viewMain() string {
	items := make([]string, len(models.Emotions))
	for i, e := range models.Emotions {
		items[i] = e.Emoji + " " + e.Text
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("How do you feel today?"),
		m.renderList(items),
	)
}

func (m Model) viewAdjective(st controller.EmotionState) string {
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(fmt.Sprintf("%s %s: which word fits best?", st.Emotion.Emoji, st.Emotion.Text)),
		m.renderList(st.Emotion.Adjectives),
	)
}

func (m Model) viewNotes(st controller.EmotionState) string {
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(fmt.Sprintf("%s %s · %s", st.Emotion.Emoji, st.Emotion.Text, st.Adjective)),
		"Anything to add?",
		m.note.View(),
	)
}

func (m Model) viewSaved(st controller.EmotionState) string {
	if st.Today == nil {
		return m.viewMain()
	}
	e := st.Today
	lines := []string{
		titleStyle.Render("Today's entry"),
		fmt.Sprintf("%s %s · %s", e.EmotionEmoji, e.EmotionText, e.Adjective),
	}
	if e.Note != "" {
		lines = append(lines, mutedStyle.Render(e.Note))
	}
	if emotion, ok := models.EmotionByID(e.EmotionID); ok && len(emotion.Suggestions) > 0 {
		lines = append(lines, "", "Suggestions:")
		for _, s := range emotion.Suggestions {
			lines = append(lines, "  • "+s)
		}
	}
	return cardStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) viewHistory(st controller.EmotionState) string {
	if len(st.History) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("History"),
			mutedStyle.Render("No entries yet."),
		)
	}
	rows := []string{titleStyle.Render("History")}
	for _, e := range st.History {
		row := fmt.Sprintf("%s  %s %s · %s", e.DateString, e.EmotionEmoji, e.EmotionText, e.Adjective)
		if e.Note != "" {
			row += mutedStyle.Render("  " + e.Note)
		}
		rows = append(rows, row)
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
