package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/spotx/internal/services"
)

var _ list.Item = trackItem{}

// trackItem wraps [services.Track] to implement [list.Item].
type trackItem struct {
	track services.Track
}

func (i trackItem) FilterValue() string { return i.track.Artist + " " + i.track.Title }
func (i trackItem) Title() string       { return i.track.Title }
func (i trackItem) Description() string {
	desc := i.track.Artist
	if i.track.Album != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Album)
	}
	return desc
}

func trackItems(tracks []services.Track) []list.Item {
	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = trackItem{track: t}
	}
	return items
}
