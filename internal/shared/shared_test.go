package shared

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNormalizeTrackKey(t *testing.T) {
	tc := []struct {
		name   string
		title  string
		artist string
		want   string
	}{
		{
			name:   "basic normalization",
			title:  "Song Title",
			artist: "Artist Name",
			want:   "song title|artist name",
		},
		{
			name:   "extra whitespace",
			title:  "  Song   Title  ",
			artist: "  Artist   Name  ",
			want:   "song title|artist name",
		},
		{
			name:   "mixed case",
			title:  "SoNg TiTlE",
			artist: "ArTiSt NaMe",
			want:   "song title|artist name",
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeTrackKey(tt.title, tt.artist)
			if got != tt.want {
				t.Errorf("NormalizeTrackKey() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLogger(t *testing.T) {
	t.Run("writes to the given writer", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		WithLogger(logger, "component", "test").Info("hello")

		out := buf.String()
		if !strings.Contains(out, "hello") || !strings.Contains(out, "component=test") {
			t.Errorf("unexpected log output: %q", out)
		}
	})

	t.Run("respects level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		SetLogLevel(logger, log.WarnLevel)
		logger.Info("hidden")

		if buf.Len() != 0 {
			t.Errorf("expected no output below warn level, got %q", buf.String())
		}
	})

	t.Run("ParseLogLevel", func(t *testing.T) {
		if got := ParseLogLevel("debug"); got != log.DebugLevel {
			t.Errorf("ParseLogLevel(debug) = %v", got)
		}
		if got := ParseLogLevel("nonsense"); got != log.InfoLevel {
			t.Errorf("ParseLogLevel(nonsense) = %v, want info", got)
		}
	})

	t.Run("file writer", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "spotx.log")
		w := NewFileWriter(path)
		logger := NewLogger(w)
		logger.Info("to file", "component", "test")
		if err := w.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("log file not written: %v", err)
		}
		if !strings.Contains(string(data), "to file") {
			t.Errorf("log file = %q", data)
		}
	})
}

func TestOpenBrowser(t *testing.T) {
	orig := openURL
	t.Cleanup(func() { openURL = orig })

	t.Run("passes url through", func(t *testing.T) {
		var got string
		openURL = func(u string) error { got = u; return nil }

		if err := OpenBrowser("https://example.com"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "https://example.com" {
			t.Errorf("opened %q", got)
		}
	})

	t.Run("wraps failures", func(t *testing.T) {
		boom := errors.New("no display")
		openURL = func(string) error { return boom }

		err := OpenBrowser("https://example.com")
		if !errors.Is(err, boom) {
			t.Errorf("expected wrapped error, got %v", err)
		}
	})
}

func TestErrors(t *testing.T) {
	t.Run("UnknownParameterError", func(t *testing.T) {
		err := error(&UnknownParameterError{Key: "colour"})
		if !errors.Is(err, ErrUnknownParameter) {
			t.Error("expected errors.Is ErrUnknownParameter")
		}
		if err.Error() != "'colour' is not a valid configuration parameter" {
			t.Errorf("unexpected message %q", err.Error())
		}
	})

	t.Run("AuthenticationError", func(t *testing.T) {
		err := error(&AuthenticationError{StatusCode: 400, Body: `{"error":"invalid_grant"}`})
		if !errors.Is(err, ErrAuthFailed) {
			t.Error("expected errors.Is ErrAuthFailed")
		}
		if StatusCode(err) != 400 {
			t.Errorf("StatusCode() = %d", StatusCode(err))
		}
		if !strings.Contains(err.Error(), "invalid_grant") {
			t.Errorf("expected body in message, got %q", err.Error())
		}
	})

	t.Run("APIError", func(t *testing.T) {
		err := error(&APIError{StatusCode: 200, Status: "OK", Body: "{}"})
		if !errors.Is(err, ErrAPIRequest) {
			t.Error("expected errors.Is ErrAPIRequest")
		}
		if StatusCode(err) != 200 {
			t.Errorf("StatusCode() = %d", StatusCode(err))
		}
	})

	t.Run("ListenerBindError", func(t *testing.T) {
		cause := errors.New("address already in use")
		err := error(&ListenerBindError{Addr: ":8888", Err: cause})
		if !errors.Is(err, ErrListenerBind) || !errors.Is(err, cause) {
			t.Error("expected both sentinel and cause to match")
		}
	})
}
