package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotx/internal/services"
)

// PickerModel lets the user choose one track from a list.
type PickerModel struct {
	list     list.Model
	help     help.Model
	keys     keyMap
	selected *services.Track
	quitting bool
}

// NewPicker creates a picker over tracks.
func NewPicker(title string, tracks []services.Track) *PickerModel {
	l := list.New(trackItems(tracks), list.NewDefaultDelegate(), 80, 20)
	l.Title = title
	l.SetShowHelp(false)

	return &PickerModel{
		list: l,
		help: help.New(),
		keys: newKeyMap(),
	}
}

// Selected returns the chosen track, or false when the picker was cancelled.
func (m *PickerModel) Selected() (services.Track, bool) {
	if m.selected == nil {
		return services.Track{}, false
	}
	return *m.selected, true
}

func (m *PickerModel) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width-4, msg.Height-4)
		return m, nil

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}

		switch {
		case key.Matches(msg, m.keys.quit), key.Matches(msg, m.keys.back):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.enter):
			if item, ok := m.list.SelectedItem().(trackItem); ok {
				t := item.track
				m.selected = &t
			}
			m.quitting = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the list with a short help line.
func (m *PickerModel) View() string {
	if m.quitting {
		return ""
	}
	return fmt.Sprintf("%s\n%s", m.list.View(), m.help.ShortHelpView(m.keys.ShortHelp()))
}

// Pick runs the picker full screen and returns the chosen track.
func Pick(in io.Reader, out io.Writer, title string, tracks []services.Track) (services.Track, bool, error) {
	m := NewPicker(title, tracks)
	p := tea.NewProgram(m, tea.WithInput(in), tea.WithOutput(out), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return services.Track{}, false, fmt.Errorf("track picker failed: %w", err)
	}
	t, ok := m.Selected()
	return t, ok, nil
}
