// Package ui implements the interactive pieces of the CLI with bubbletea's Elm architecture.
//
//  1. [PickerModel] : choose one track from search results
//  2. [ReplaceModel] : follow a playlist replacement while queries resolve
//
// Both models implement bubbletea's Init/Update/View pattern. Progress for a
// replacement flows through a channel from tasks.PlaylistEngine and is drained
// one message at a time, so the engine never blocks on the UI.
//
// The [Palette] styles status lines printed by the non-interactive commands.
package ui
