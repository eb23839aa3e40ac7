package tasks

import (
	"fmt"

	"github.com/desertthunder/spotx/internal/services"
)

// ProgressUpdate is one step of a playlist replace, sent to whoever renders progress.
// Data holds the [Resolution] during [SearchTracks] and the matched tracks during [ReplacePlaylist].
type ProgressUpdate struct {
	Phase   Phase
	Step    int
	Total   int
	Message string
	Data    any
}

// Phase names the stage of a replace run.
type Phase int

const (
	Authorize Phase = iota
	SearchTracks
	ReplacePlaylist
)

func (p Phase) String() string {
	switch p {
	case Authorize:
		return "authorize"
	case SearchTracks:
		return "search_tracks"
	case ReplacePlaylist:
		return "replace_playlist"
	default:
		return ""
	}
}

func authorizeUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   Authorize,
		Step:    1,
		Total:   1,
		Message: "Checking access token...",
	}
}

func searchTracksUpdate(step, total int, res Resolution) ProgressUpdate {
	var msg string
	switch {
	case res.Err != nil:
		msg = fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.Query, res.Err)
	case res.Track == nil:
		msg = fmt.Sprintf("[%d/%d] ? %s: no match", step, total, res.Query)
	default:
		msg = fmt.Sprintf("[%d/%d] ✓ %s", step, total, res.Track)
	}
	return ProgressUpdate{Phase: SearchTracks, Step: step, Total: total, Message: msg, Data: res}
}

func replacePlaylistUpdate(playlistID string, tracks []services.Track) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ReplacePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Replacing playlist %s with %d tracks...", playlistID, len(tracks)),
		Data:    tracks,
	}
}
