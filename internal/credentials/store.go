// Package credentials implements the file-backed store for the application identity and OAuth tokens.
//
// The schema is fixed to five keys. Reads load the file at most once per [Store];
// every mutation rewrites the whole file before it becomes visible in memory.
package credentials

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotx/internal/shared"
)

const (
	KeyClientID     = "client_id"
	KeyClientSecret = "client_secret"
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyExpiryTime   = "expiry_time"
)

// Keys returns the recognized keys in file order.
func Keys() []string {
	return []string{KeyClientID, KeyClientSecret, KeyAccessToken, KeyRefreshToken, KeyExpiryTime}
}

// Credentials is the persisted record.
type Credentials struct {
	ClientID     string    `toml:"client_id" json:"client_id"`
	ClientSecret string    `toml:"client_secret" json:"client_secret"`
	AccessToken  string    `toml:"access_token" json:"access_token"`
	RefreshToken string    `toml:"refresh_token" json:"refresh_token"`
	ExpiryTime   time.Time `toml:"expiry_time" json:"expiry_time"`
}

// HasClient reports whether both halves of the application identity are set.
func (c Credentials) HasClient() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

func (c Credentials) value(key string) (string, bool) {
	switch key {
	case KeyClientID:
		return c.ClientID, true
	case KeyClientSecret:
		return c.ClientSecret, true
	case KeyAccessToken:
		return c.AccessToken, true
	case KeyRefreshToken:
		return c.RefreshToken, true
	case KeyExpiryTime:
		return FormatExpiry(c.ExpiryTime), true
	}
	return "", false
}

func (c *Credentials) assign(key, value string) error {
	switch key {
	case KeyClientID:
		c.ClientID = value
	case KeyClientSecret:
		c.ClientSecret = value
	case KeyAccessToken:
		c.AccessToken = value
	case KeyRefreshToken:
		c.RefreshToken = value
	case KeyExpiryTime:
		t, err := ParseExpiry(value)
		if err != nil {
			return err
		}
		c.ExpiryTime = t
	default:
		return &shared.UnknownParameterError{Key: key}
	}
	return nil
}

// ParseExpiry accepts RFC 3339 timestamps or unix seconds; "" is the zero time.
func ParseExpiry(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	secs, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be RFC 3339 or unix seconds, got %q", shared.ErrInvalidValue, KeyExpiryTime, value)
	}
	return unixFloat(secs), nil
}

// FormatExpiry renders t the way [Store.Get] reports expiry_time: RFC 3339 in UTC,
// keeping fractional seconds. Unix-seconds input comes back in this form.
func FormatExpiry(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func unixFloat(secs float64) time.Time {
	whole := int64(secs)
	return time.Unix(whole, int64((secs-float64(whole))*float64(time.Second))).UTC()
}

// Store is the single owner of the credentials file.
type Store struct {
	path       string
	legacyPath string
	logger     *log.Logger

	mu     sync.Mutex
	loaded bool
	data   Credentials
}

// Option configures a [Store].
type Option func(*Store)

// WithLegacyPath names a settings file from the previous client to import when path does not exist yet.
func WithLegacyPath(path string) Option {
	return func(s *Store) { s.legacyPath = path }
}

// WithLogger sets the logger used for load and write events.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Open returns a store for path. Nothing is read until [Store.Load] or the first access.
func Open(path string, opts ...Option) *Store {
	s := &Store{path: path}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = shared.NewLogger(nil)
	}
	return s
}

// Path returns the credentials file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the credentials file into memory. Subsequent calls are no-ops.
//
// A missing file yields an empty record.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() error {
	if s.loaded {
		return nil
	}

	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		creds, imported, err := readLegacy(s.legacyPath)
		if err != nil {
			return err
		}
		if imported {
			s.logger.Info("importing legacy settings", "path", s.legacyPath)
		}
		s.data = creds
	case err != nil:
		return fmt.Errorf("failed to read credentials file: %w", err)
	default:
		s.logger.Debug("reading credentials file", "path", s.path)
		var creds Credentials
		md, err := toml.Decode(string(data), &creds)
		if err != nil {
			return fmt.Errorf("%w: failed to parse %s: %v", shared.ErrInvalidConfig, s.path, err)
		}
		for _, key := range md.Undecoded() {
			s.logger.Warn("ignoring unknown key in credentials file", "key", key.String())
		}
		s.data = creds
	}

	s.loaded = true
	return nil
}

// Get returns the current value for key, loading the file on first use.
func (s *Store) Get(key string) (string, error) {
	if !isKey(key) {
		return "", &shared.UnknownParameterError{Key: key}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return "", err
	}
	v, _ := s.data.value(key)
	return v, nil
}

// Set updates a single key. See [Store.Update].
func (s *Store) Set(key, value string) error {
	return s.Update(map[string]string{key: value})
}

// Update validates every key and value, then persists the whole record.
//
// The batch is rejected before any write if a key is unknown or a value does not parse;
// in that case neither the file nor the in-memory record changes.
func (s *Store) Update(values map[string]string) error {
	for key := range values {
		if !isKey(key) {
			return &shared.UnknownParameterError{Key: key}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return err
	}

	next := s.data
	for key, value := range values {
		if err := next.assign(key, value); err != nil {
			return err
		}
	}

	if err := s.write(next); err != nil {
		return err
	}
	s.data = next
	return nil
}

// Credentials returns a typed snapshot of the record.
func (s *Store) Credentials() (Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return Credentials{}, err
	}
	return s.data, nil
}

func (s *Store) write(creds Credentials) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create credentials directory: %w", err)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(creds); err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}

	s.logger.Debug("writing credentials file", "path", s.path)
	if err := os.WriteFile(s.path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	return nil
}

func isKey(key string) bool {
	for _, k := range Keys() {
		if k == key {
			return true
		}
	}
	return false
}
