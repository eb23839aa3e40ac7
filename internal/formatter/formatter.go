// package formatter renders track lists as plain text, JSON, CSV or Markdown
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/spotx/internal/services"
	"github.com/desertthunder/spotx/internal/shared"
)

// Format names an output format.
type Format string

const (
	Text     Format = "text"
	JSON     Format = "json"
	CSV      Format = "csv"
	Markdown Format = "markdown"
)

// Formats lists the accepted format names.
func Formats() []string {
	return []string{string(Text), string(JSON), string(CSV), string(Markdown)}
}

// ParseFormat maps a name (or its short alias) to a [Format].
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "text", "txt":
		return Text, nil
	case "json":
		return JSON, nil
	case "csv":
		return CSV, nil
	case "markdown", "md":
		return Markdown, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want one of %s)", shared.ErrInvalidArgument, name, strings.Join(Formats(), ", "))
	}
}

// Extension returns the file extension for f, including the dot.
func (f Format) Extension() string {
	switch f {
	case JSON:
		return ".json"
	case CSV:
		return ".csv"
	case Markdown:
		return ".md"
	default:
		return ".txt"
	}
}

// ExportToCSV renders tracks with columns: Artist, Title, Album, URI
func ExportToCSV(tracks []services.Track) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Artist", "Title", "Album", "URI"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range tracks {
		record := []string{track.Artist, track.Title, track.Album, track.SpotifyURI()}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders tracks as a numbered list under an optional heading.
func ExportToMarkdown(title string, tracks []services.Track) ([]byte, error) {
	var buf bytes.Buffer

	if title != "" {
		buf.WriteString(fmt.Sprintf("# %s\n\n", title))
	}
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n\n", len(tracks)))

	for i, track := range tracks {
		albumPart := ""
		if track.Album != "" {
			albumPart = fmt.Sprintf(" (%s)", track.Album)
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s%s `%s`\n", i+1, track.Artist, track.Title, albumPart, track.SpotifyURI()))
	}

	return buf.Bytes(), nil
}

// ExportToText renders one numbered "Artist - Title (Album) uri" line per track.
func ExportToText(tracks []services.Track) ([]byte, error) {
	var buf bytes.Buffer

	for i, track := range tracks {
		line := fmt.Sprintf("%d. %s - %s", i+1, track.Artist, track.Title)
		if track.Album != "" {
			line += fmt.Sprintf(" (%s)", track.Album)
		}
		buf.WriteString(fmt.Sprintf("%s  %s\n", line, track.SpotifyURI()))
	}

	return buf.Bytes(), nil
}

// Render converts tracks to f. The title is used by Markdown only.
func Render(f Format, title string, tracks []services.Track) ([]byte, error) {
	switch f {
	case JSON:
		if tracks == nil {
			tracks = []services.Track{}
		}
		data, err := shared.MarshalJSON(tracks, true)
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case CSV:
		return ExportToCSV(tracks)
	case Markdown:
		return ExportToMarkdown(title, tracks)
	default:
		return ExportToText(tracks)
	}
}

// Write renders tracks to w.
func Write(w io.Writer, f Format, title string, tracks []services.Track) error {
	data, err := Render(f, title, tracks)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// WriteFile renders tracks to path, creating parent directories. The format
// is taken from the extension when f is empty.
func WriteFile(path string, f Format, title string, tracks []services.Track) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: output path", shared.ErrMissingArgument)
	}
	if f == "" {
		parsed, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
		if err != nil {
			return "", err
		}
		f = parsed
	}

	data, err := Render(f, title, tracks)
	if err != nil {
		return "", err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
