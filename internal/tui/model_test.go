package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/modtrackin/modtrackin/internal/controller"
	"github.com/modtrackin/modtrackin/internal/docstore"
	"github.com/modtrackin/modtrackin/internal/identity"
	"github.com/modtrackin/modtrackin/internal/repository"
	"github.com/modtrackin/modtrackin/internal/utils"
)

func newTestModel(t *testing.T) (Model, *controller.EmotionController, *repository.EmotionRepository) {
	t.Helper()
	store := docstore.NewMemory()
	t.Cleanup(func() { store.Close() })
	oracle := identity.NewStatic("u1")
	repo := repository.NewEmotionRepository(repository.Deps{
		Store:    store,
		Oracle:   oracle,
		Clock:    utils.FixedClock(time.Date(2025, 3, 10, 21, 30, 0, 0, time.UTC)),
		Location: time.UTC,
	})
	ctrl := controller.NewEmotionController(context.Background(), repo, oracle)
	t.Cleanup(ctrl.Close)
	return NewModel(context.Background(), ctrl), ctrl, repo
}

func press(t *testing.T, m Model, msgs ...tea.KeyMsg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

var (
	down  = tea.KeyMsg{Type: tea.KeyDown}
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestWizardSavesEntry(t *testing.T) {
	m, ctrl, repo := newTestModel(t)
	if !strings.Contains(m.View(), "How do you feel today?") {
		t.Fatalf("initial view:\n%s", m.View())
	}

	// Second emotion, then its third adjective.
	m = press(t, m, down, enter)
	if st := ctrl.State(); st.Step != controller.StepAdjective || st.Emotion.ID != "neutral" {
		t.Fatalf("after picking emotion: step %s, emotion %+v", st.Step, st.Emotion)
	}
	m = press(t, m, down, down, enter)
	if st := ctrl.State(); st.Step != controller.StepNotes || st.Adjective != "Tranquilo" {
		t.Fatalf("after picking adjective: step %s, adjective %q", st.Step, st.Adjective)
	}

	m = press(t, m, runes("todo bien"))
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	m = next.(Model)
	if cmd == nil {
		t.Fatal("ctrl+s should return a save command")
	}
	next, _ = m.Update(cmd())
	m = next.(Model)

	if ctrl.State().Step != controller.StepSaved {
		t.Fatalf("step = %s, want saved", ctrl.State().Step)
	}
	entry, ok, err := repo.GetToday(context.Background())
	if err != nil || !ok {
		t.Fatalf("GetToday() = %v, %v", ok, err)
	}
	if entry.EmotionID != "neutral" || entry.Adjective != "Tranquilo" || entry.Note != "todo bien" {
		t.Errorf("saved entry = %+v", entry)
	}
	view := m.View()
	if !strings.Contains(view, "Today's entry") || !strings.Contains(view, "Suggestions:") {
		t.Errorf("saved view:\n%s", view)
	}
}

func TestWizardBackKeepsSelections(t *testing.T) {
	m, ctrl, _ := newTestModel(t)
	m = press(t, m, enter, enter, runes("nota"), esc)
	st := ctrl.State()
	if st.Step != controller.StepAdjective {
		t.Fatalf("step = %s, want adjective", st.Step)
	}
	if st.Note != "nota" || st.Adjective != "Contento" {
		t.Errorf("selections lost: note %q, adjective %q", st.Note, st.Adjective)
	}

	m = press(t, m, esc)
	if ctrl.State().Step != controller.StepMain {
		t.Errorf("step = %s, want main", ctrl.State().Step)
	}
}

func TestWizardHistoryAndNewEntry(t *testing.T) {
	m, ctrl, _ := newTestModel(t)
	m = press(t, m, enter, enter)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	m = next.(Model)
	next, _ = m.Update(cmd())
	m = next.(Model)

	next, cmd = m.Update(runes("h"))
	m = next.(Model)
	if cmd == nil {
		t.Fatal("h should return a history command")
	}
	next, _ = m.Update(cmd())
	m = next.(Model)
	if ctrl.State().Step != controller.StepHistory {
		t.Fatalf("step = %s, want history", ctrl.State().Step)
	}
	if !strings.Contains(m.View(), "2025-03-10") {
		t.Errorf("history view:\n%s", m.View())
	}

	m = press(t, m, esc, runes("n"))
	if st := ctrl.State(); st.Step != controller.StepMain || st.Emotion != nil {
		t.Errorf("after new entry: step %s, emotion %+v", st.Step, st.Emotion)
	}
}

func TestQuit(t *testing.T) {
	m, _, _ := newTestModel(t)
	next, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if next.(Model).View() != "" {
		t.Error("view should be empty after quitting")
	}
}
