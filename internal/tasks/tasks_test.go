package tasks

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/spotx/internal/services"
	"github.com/desertthunder/spotx/internal/shared"
	th "github.com/desertthunder/spotx/internal/testing"
)

type fakeCatalog struct {
	mu       sync.Mutex
	tracks   map[string]services.Track
	failures map[string]error
	delay    func(title string) time.Duration
	searches int
	replaced map[string][]services.Track
	replErr  error
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		tracks:   map[string]services.Track{},
		failures: map[string]error{},
		replaced: map[string][]services.Track{},
	}
}

func (f *fakeCatalog) add(artist, title, id string) {
	f.tracks[artist+"|"+title] = services.Track{Artist: artist, Title: title, URI: id}
}

func (f *fakeCatalog) SearchTrack(ctx context.Context, artist, title string) (*services.Track, error) {
	if f.delay != nil {
		time.Sleep(f.delay(title))
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches++

	if err, ok := f.failures[artist+"|"+title]; ok {
		return nil, err
	}
	if t, ok := f.tracks[artist+"|"+title]; ok {
		return &t, nil
	}
	return nil, nil
}

func (f *fakeCatalog) ReplacePlaylist(ctx context.Context, playlistID string, tracks []services.Track) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.replErr != nil {
		return f.replErr
	}
	f.replaced[playlistID] = tracks
	return nil
}

var fastOpts = ResolveOpts{NumWorkers: 3, RateLimit: 1000}

func TestParseQueries(t *testing.T) {
	text := `
# scraped from the radio page
Daft Punk - One More Time

Justice - D.A.N.C.E.
Untitled
`
	got := ParseQueries(text)
	want := []Query{
		{Artist: "Daft Punk", Title: "One More Time"},
		{Artist: "Justice", Title: "D.A.N.C.E."},
		{Title: "Untitled"},
	}

	if len(got) != len(want) {
		t.Fatalf("ParseQueries() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("query[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
	if want[0].String() != "Daft Punk - One More Time" || want[2].String() != "Untitled" {
		t.Errorf("unexpected String() output")
	}
}

func TestResolve(t *testing.T) {
	t.Run("keeps input order and counts outcomes", func(t *testing.T) {
		catalog := newFakeCatalog()
		catalog.add("A", "slow", "1")
		catalog.add("B", "fast", "2")
		catalog.failures["C|broken"] = &shared.APIError{StatusCode: 500, Status: "Internal Server Error"}
		catalog.delay = func(title string) time.Duration {
			if title == "slow" {
				return 30 * time.Millisecond
			}
			return 0
		}
		tokens := &th.MockTokens{Token: "tok"}
		engine := NewPlaylistEngine(catalog, tokens)

		queries := []Query{
			{Artist: "A", Title: "slow"},
			{Artist: "B", Title: "fast"},
			{Artist: "C", Title: "broken"},
			{Artist: "D", Title: "missing"},
		}

		progress := make(chan ProgressUpdate, 16)
		result, err := engine.Resolve(context.Background(), progress, queries, fastOpts)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}

		if result.Found != 2 || result.Missed != 1 || result.Failed != 1 {
			t.Errorf("counts = found %d missed %d failed %d", result.Found, result.Missed, result.Failed)
		}
		for i, res := range result.Resolutions {
			if res.Index != i || res.Query != queries[i] {
				t.Errorf("resolution[%d] = %+v, out of order", i, res)
			}
		}

		tracks := result.Tracks()
		if len(tracks) != 2 || tracks[0].URI != "1" || tracks[1].URI != "2" {
			t.Errorf("Tracks() = %+v", tracks)
		}
		if misses := result.Misses(); len(misses) != 2 {
			t.Errorf("Misses() = %+v", misses)
		}

		if tokens.Calls != 1 {
			t.Errorf("CurrentToken called %d times, want 1", tokens.Calls)
		}

		close(progress)
		var phases []Phase
		for u := range progress {
			phases = append(phases, u.Phase)
		}
		if len(phases) != 5 || phases[0] != Authorize {
			t.Errorf("progress phases = %v", phases)
		}
	})

	t.Run("token failure stops before searching", func(t *testing.T) {
		catalog := newFakeCatalog()
		tokens := &th.MockTokens{Err: shared.ErrMissingCredentials}
		engine := NewPlaylistEngine(catalog, tokens)

		_, err := engine.Resolve(context.Background(), nil, []Query{{Title: "x"}}, fastOpts)
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Fatalf("expected ErrMissingCredentials, got %v", err)
		}
		if catalog.searches != 0 {
			t.Errorf("searches = %d, want 0", catalog.searches)
		}
	})

	t.Run("no queries", func(t *testing.T) {
		engine := NewPlaylistEngine(newFakeCatalog(), nil)
		if _, err := engine.Resolve(context.Background(), nil, nil, fastOpts); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		catalog := newFakeCatalog()
		engine := NewPlaylistEngine(catalog, nil)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		result, err := engine.Resolve(ctx, nil, []Query{{Title: "a"}, {Title: "b"}}, fastOpts)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if result == nil || len(result.Resolutions) != 2 {
			t.Fatalf("expected partial result with 2 resolutions, got %+v", result)
		}
	})
}

func TestRun(t *testing.T) {
	t.Run("replaces with matches only", func(t *testing.T) {
		catalog := newFakeCatalog()
		catalog.add("Daft Punk", "One More Time", "id1")
		catalog.add("Justice", "Genesis", "id2")
		engine := NewPlaylistEngine(catalog, &th.MockTokens{Token: "tok"})

		queries := ParseQueries("Daft Punk - One More Time\nNobody - Nothing\nJustice - Genesis")
		result, err := engine.Run(context.Background(), nil, "pl1", queries, fastOpts)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		if result.Replaced != 2 {
			t.Errorf("Replaced = %d, want 2", result.Replaced)
		}
		got := catalog.replaced["pl1"]
		if len(got) != 2 || got[0].URI != "id1" || got[1].URI != "id2" {
			t.Errorf("replaced with %+v", got)
		}
	})

	t.Run("nothing matched", func(t *testing.T) {
		catalog := newFakeCatalog()
		engine := NewPlaylistEngine(catalog, nil)

		_, err := engine.Run(context.Background(), nil, "pl1", []Query{{Title: "none"}}, fastOpts)
		if !errors.Is(err, shared.ErrTrackNotFound) {
			t.Errorf("expected ErrTrackNotFound, got %v", err)
		}
		if _, ok := catalog.replaced["pl1"]; ok {
			t.Error("playlist should not be replaced")
		}
	})

	t.Run("replace failure is returned", func(t *testing.T) {
		catalog := newFakeCatalog()
		catalog.add("A", "B", "id")
		catalog.replErr = &shared.APIError{StatusCode: 200, Status: "OK"}
		engine := NewPlaylistEngine(catalog, nil)

		result, err := engine.Run(context.Background(), nil, "pl1", []Query{{Artist: "A", Title: "B"}}, fastOpts)
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
		if result == nil || result.Replaced != 0 {
			t.Errorf("result = %+v", result)
		}
	})

	t.Run("missing playlist id", func(t *testing.T) {
		engine := NewPlaylistEngine(newFakeCatalog(), nil)
		if _, err := engine.Run(context.Background(), nil, "", []Query{{Title: "a"}}, fastOpts); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestProgressMessages(t *testing.T) {
	found := searchTracksUpdate(1, 3, Resolution{Query: Query{Artist: "A", Title: "B"}, Track: &services.Track{Artist: "A", Title: "B"}})
	if !strings.Contains(found.Message, "✓ A - B") {
		t.Errorf("found message = %q", found.Message)
	}

	miss := searchTracksUpdate(2, 3, Resolution{Query: Query{Artist: "A", Title: "C"}})
	if !strings.Contains(miss.Message, "no match") {
		t.Errorf("miss message = %q", miss.Message)
	}

	if SearchTracks.String() != "search_tracks" || Phase(99).String() != "" {
		t.Error("unexpected Phase.String()")
	}
}
