package ui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotx/internal/tasks"
)

// ReplaceRunner is implemented by [tasks.PlaylistEngine].
type ReplaceRunner interface {
	Run(ctx context.Context, progress chan<- tasks.ProgressUpdate, playlistID string, queries []tasks.Query, opts tasks.ResolveOpts) (*tasks.ReplaceResult, error)
}

// ReplaceModel shows progress while a playlist is replaced.
type ReplaceModel struct {
	ctx        context.Context
	runner     ReplaceRunner
	playlistID string
	queries    []tasks.Query
	opts       tasks.ResolveOpts

	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate
	lines        []string
	result       *tasks.ReplaceResult
	err          error
	done         bool
	keys         keyMap
}

// NewReplaceModel prepares a replacement; nothing runs until Init.
func NewReplaceModel(ctx context.Context, runner ReplaceRunner, playlistID string, queries []tasks.Query, opts tasks.ResolveOpts) *ReplaceModel {
	return &ReplaceModel{
		ctx:        ctx,
		runner:     runner,
		playlistID: playlistID,
		queries:    queries,
		opts:       opts,
		keys:       newKeyMap(),
	}
}

// Result returns the outcome once the model has finished.
func (m *ReplaceModel) Result() (*tasks.ReplaceResult, error) {
	return m.result, m.err
}

// Init starts the replacement in the background.
func (m *ReplaceModel) Init() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	progress := m.progressChan
	done := make(chan replaceOutcome, 1)

	go func() {
		result, err := m.runner.Run(m.ctx, progress, m.playlistID, m.queries, m.opts)
		done <- replaceOutcome{result, err}
		close(progress)
	}()

	return m.waitForProgress(progress, done)
}

func (m *ReplaceModel) waitForProgress(progress <-chan tasks.ProgressUpdate, done <-chan replaceOutcome) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-progress
		if !ok {
			out := <-done
			return replaceCompleteMsg(out.result, out.err)
		}
		return waitingMsg{update: progressUpdateMsg(update), next: m.waitForProgress(progress, done)}
	}
}

// waitingMsg carries a message plus the command that reads the next one.
type waitingMsg struct {
	update Msg
	next   tea.Cmd
}

// Update handles incoming messages and updates the model state.
func (m *ReplaceModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.quit) {
			return m, tea.Quit
		}
	case waitingMsg:
		m.apply(msg.update)
		return m, msg.next
	case Msg:
		m.apply(msg)
		if m.done {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *ReplaceModel) apply(msg Msg) {
	switch msg.kind {
	case MsgProgressUpdate:
		update := msg.data.(tasks.ProgressUpdate)
		m.progress = update
		if update.Phase == tasks.SearchTracks {
			m.lines = append(m.lines, update.Message)
		}
	case MsgReplaceComplete:
		out := msg.data.(replaceOutcome)
		m.result, m.err = out.result, out.err
		m.done = true
	}
}

// View renders the current phase and the resolved queries so far.
func (m *ReplaceModel) View() string {
	var b strings.Builder
	b.WriteString(styles.Title(fmt.Sprintf("Replacing playlist %s", m.playlistID)))
	b.WriteString("\n")

	switch m.progress.Phase {
	case tasks.Authorize:
		b.WriteString("Checking access token...\n")
	case tasks.SearchTracks:
		b.WriteString(fmt.Sprintf("Searching tracks (%d/%d)\n", m.progress.Step, m.progress.Total))
	case tasks.ReplacePlaylist:
		b.WriteString(m.progress.Message + "\n")
	}

	for _, line := range m.lines {
		b.WriteString("  " + line + "\n")
	}

	if m.done {
		b.WriteString("\n")
		if m.err != nil {
			b.WriteString(styles.Err(fmt.Sprintf("Replace failed: %v", m.err)))
		} else if m.result != nil {
			b.WriteString(styles.OK(fmt.Sprintf("✓ Playlist now has %d tracks", m.result.Replaced)))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// RunReplace runs a [ReplaceModel] inline and returns its outcome.
func RunReplace(ctx context.Context, in io.Reader, out io.Writer, runner ReplaceRunner, playlistID string, queries []tasks.Query, opts tasks.ResolveOpts) (*tasks.ReplaceResult, error) {
	m := NewReplaceModel(ctx, runner, playlistID, queries, opts)
	p := tea.NewProgram(m, tea.WithContext(ctx), tea.WithInput(in), tea.WithOutput(out))
	if _, err := p.Run(); err != nil {
		return nil, fmt.Errorf("progress view failed: %w", err)
	}
	if !m.done {
		return nil, context.Canceled
	}
	return m.Result()
}
