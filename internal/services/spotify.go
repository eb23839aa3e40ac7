package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotx/internal/shared"
	"github.com/zmb3/spotify/v2"
	"golang.org/x/time/rate"
)

// DefaultAPIURL is the Spotify Web API base.
const DefaultAPIURL = "https://api.spotify.com/v1"

// SpotifyService issues authenticated catalog requests.
//
// Every request asks the [TokenProvider] for a token first and waits on the rate limiter.
type SpotifyService struct {
	baseURL    string
	tokens     TokenProvider
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      TrackCache
	logger     *log.Logger
}

// SpotifyOption configures a [SpotifyService].
type SpotifyOption func(*SpotifyService)

// WithBaseURL overrides [DefaultAPIURL].
func WithBaseURL(u string) SpotifyOption {
	return func(s *SpotifyService) { s.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient sets the client used for API requests.
func WithHTTPClient(c *http.Client) SpotifyOption {
	return func(s *SpotifyService) { s.httpClient = c }
}

// WithRateLimit caps outgoing requests per second. Zero or less disables the cap.
func WithRateLimit(perSecond float64) SpotifyOption {
	return func(s *SpotifyService) {
		if perSecond <= 0 {
			s.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		s.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithCache consults c before searching and stores results after.
func WithCache(c TrackCache) SpotifyOption {
	return func(s *SpotifyService) { s.cache = c }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) SpotifyOption {
	return func(s *SpotifyService) { s.logger = l }
}

// NewSpotifyService creates the facade over tokens.
func NewSpotifyService(tokens TokenProvider, opts ...SpotifyOption) *SpotifyService {
	s := &SpotifyService{
		baseURL:    DefaultAPIURL,
		tokens:     tokens,
		httpClient: http.DefaultClient,
		limiter:    rate.NewLimiter(rate.Inf, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = shared.NewLogger(nil)
	}
	return s
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// SearchQuery combines the artist: and track: filters, omitting empty ones.
func SearchQuery(artist, title string) string {
	var parts []string
	if artist = strings.TrimSpace(artist); artist != "" {
		parts = append(parts, "artist:"+artist)
	}
	if title = strings.TrimSpace(title); title != "" {
		parts = append(parts, "track:"+title)
	}
	return strings.Join(parts, " ")
}

// encodeQuery percent-encodes q with spaces as %20 and colons left as is.
func encodeQuery(q string) string {
	escaped := url.QueryEscape(q)
	escaped = strings.ReplaceAll(escaped, "+", "%20")
	return strings.ReplaceAll(escaped, "%3A", ":")
}

// CacheKey identifies a search in the [TrackCache].
func CacheKey(artist, title string, limit int) string {
	return fmt.Sprintf("%s|%d", shared.NormalizeTrackKey(title, artist), limit)
}

// Search returns up to limit tracks matching artist and title, in API order.
// An empty slice means nothing matched.
func (s *SpotifyService) Search(ctx context.Context, artist, title string, limit int) ([]Track, error) {
	q := SearchQuery(artist, title)
	if q == "" {
		return nil, fmt.Errorf("%w: artist or title required", shared.ErrMissingArgument)
	}
	if limit <= 0 {
		limit = 1
	}

	key := CacheKey(artist, title, limit)
	if s.cache != nil {
		tracks, found, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn("search cache read failed", "error", err)
		} else if found {
			s.logger.Debug("search cache hit", "query", q, "results", len(tracks))
			return tracks, nil
		}
	}

	endpoint := fmt.Sprintf("/search?limit=%d&type=track&q=%s", limit, encodeQuery(q))

	var result spotify.SearchResult
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, http.StatusOK, &result); err != nil {
		return nil, err
	}

	tracks := []Track{}
	if result.Tracks != nil {
		for _, item := range result.Tracks.Tracks {
			tracks = append(tracks, trackFrom(item))
		}
	}
	s.logger.Debug("search", "query", q, "results", len(tracks))

	if s.cache != nil {
		if err := s.cache.Put(ctx, key, tracks); err != nil {
			s.logger.Warn("search cache write failed", "error", err)
		}
	}
	return tracks, nil
}

// SearchTrack returns the best match, or nil when nothing matched.
func (s *SpotifyService) SearchTrack(ctx context.Context, artist, title string) (*Track, error) {
	tracks, err := s.Search(ctx, artist, title, 1)
	if err != nil {
		return nil, err
	}
	if len(tracks) == 0 {
		return nil, nil
	}
	return &tracks[0], nil
}

type replaceRequest struct {
	URIs []string `json:"uris"`
}

// ReplacePlaylist replaces every item of the playlist with tracks, in order.
// The API must answer 201; anything else is a [*shared.APIError].
func (s *SpotifyService) ReplacePlaylist(ctx context.Context, playlistID string, tracks []Track) error {
	if playlistID == "" {
		return fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	body := replaceRequest{URIs: make([]string, 0, len(tracks))}
	for _, t := range tracks {
		body.URIs = append(body.URIs, t.SpotifyURI())
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	if err := s.doRequest(ctx, http.MethodPut, endpoint, body, http.StatusCreated, nil); err != nil {
		return err
	}

	s.logger.Info("playlist replaced", "playlist", playlistID, "tracks", len(tracks))
	return nil
}

// doRequest performs an authenticated request and decodes the response into result when non-nil.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body any, want int, result any) error {
	token, err := s.tokens.CurrentToken(ctx)
	if err != nil {
		return err
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	s.logger.Debug("api request", "method", method, "endpoint", req.URL.Path)
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != want {
		return &shared.APIError{
			StatusCode: resp.StatusCode,
			Status:     http.StatusText(resp.StatusCode),
			Body:       string(data),
		}
	}

	if result != nil {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func trackFrom(ft spotify.FullTrack) Track {
	t := Track{
		Title: ft.Name,
		Album: ft.Album.Name,
		URI:   string(ft.ID),
	}
	if len(ft.Artists) > 0 {
		t.Artist = ft.Artists[0].Name
	}
	return t
}
