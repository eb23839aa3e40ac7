package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotx/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgProgressUpdate MsgKind = iota
	MsgReplaceComplete
)

type replaceOutcome struct {
	result *tasks.ReplaceResult
	err    error
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// replaceCompleteMsg is the constructor for [MsgReplaceComplete]
func replaceCompleteMsg(result *tasks.ReplaceResult, err error) Msg {
	return Msg{kind: MsgReplaceComplete, data: replaceOutcome{result, err}}
}
