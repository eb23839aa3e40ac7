// Package auth manages the access token lifecycle against the Spotify accounts service.
//
// The [Manager] reads and writes through a [credentials.Store] and never keeps its own copy.
// Each call to [Manager.CurrentToken] computes a [State] from the stored record and
// takes one of three paths:
//
//   - [NoCredentials]: run the authorization-code flow ([Manager.Authorize])
//   - [ExpiredToken]: exchange the refresh token ([Manager.Refresh])
//   - [ValidToken]: return the stored token without touching the network
//
// Failures from the token endpoint surface as [*shared.AuthenticationError] and are never retried.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotx/internal/credentials"
	"github.com/desertthunder/spotx/internal/server"
	"github.com/desertthunder/spotx/internal/shared"
	"golang.org/x/oauth2"
)

const (
	DefaultAccountsURL = "https://accounts.spotify.com"
	DefaultRedirectURI = "http://localhost:8888"
	DefaultScope       = "playlist-modify-public"
)

// State is the token state derived from the stored credentials.
type State int

const (
	NoCredentials State = iota
	ExpiredToken
	ValidToken
)

func (s State) String() string {
	switch s {
	case NoCredentials:
		return "no credentials"
	case ExpiredToken:
		return "expired"
	case ValidToken:
		return "valid"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Listener captures the authorization redirect. [*server.CallbackListener] implements it.
type Listener interface {
	Listen() error
	Capture(ctx context.Context) (server.Callback, error)
}

// Status describes the stored token without refreshing it.
type Status struct {
	State     State
	ExpiresAt time.Time
	HasClient bool
	HasToken  bool
	CanRenew  bool
}

// Manager drives authorization and refresh for a single user.
// Concurrent [Manager.CurrentToken] calls share one authorization or refresh.
type Manager struct {
	mu sync.Mutex

	store        *credentials.Store
	accountsURL  string
	redirectURI  string
	scopes       []string
	callbackAddr string

	httpClient  *http.Client
	openBrowser func(string) error
	newListener func(addr string) Listener
	newState    func() string
	now         func() time.Time
	logger      *log.Logger
}

// Option configures a [Manager].
type Option func(*Manager)

// WithHTTPClient sets the client used for token endpoint requests.
func WithHTTPClient(c *http.Client) Option {
	return func(m *Manager) { m.httpClient = c }
}

// WithBrowser replaces the function that opens the authorization URL.
func WithBrowser(open func(string) error) Option {
	return func(m *Manager) { m.openBrowser = open }
}

// WithListener replaces the callback listener factory.
func WithListener(fn func(addr string) Listener) Option {
	return func(m *Manager) { m.newListener = fn }
}

// WithStateGenerator replaces the OAuth state generator.
func WithStateGenerator(fn func() string) Option {
	return func(m *Manager) { m.newState = fn }
}

// WithClock replaces [time.Now].
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates a manager for store using the endpoints in cfg. Empty fields take defaults.
func NewManager(store *credentials.Store, cfg shared.SpotifyConfig, opts ...Option) *Manager {
	m := &Manager{
		store:        store,
		accountsURL:  strings.TrimRight(valueOr(cfg.AccountsURL, DefaultAccountsURL), "/"),
		redirectURI:  valueOr(cfg.RedirectURI, DefaultRedirectURI),
		scopes:       strings.Fields(valueOr(cfg.Scope, DefaultScope)),
		callbackAddr: valueOr(cfg.CallbackAddr, server.DefaultCallbackAddr),
		httpClient:   http.DefaultClient,
		openBrowser:  shared.OpenBrowser,
		newState:     shared.GenerateID,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = shared.NewLogger(nil)
	}
	if m.newListener == nil {
		logger := m.logger
		m.newListener = func(addr string) Listener {
			return server.NewCallbackListener(addr, logger)
		}
	}
	return m
}

// Endpoint returns the accounts service endpoints in use.
func (m *Manager) Endpoint() oauth2.Endpoint {
	return oauth2.Endpoint{
		AuthURL:  m.accountsURL + "/authorize",
		TokenURL: m.accountsURL + "/api/token",
	}
}

func (m *Manager) oauthConfig(creds credentials.Credentials, style oauth2.AuthStyle) *oauth2.Config {
	endpoint := m.Endpoint()
	endpoint.AuthStyle = style
	return &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  m.redirectURI,
		Scopes:       m.scopes,
		Endpoint:     endpoint,
	}
}

func (m *Manager) clientCredentials() (credentials.Credentials, error) {
	creds, err := m.store.Credentials()
	if err != nil {
		return creds, err
	}
	if !creds.HasClient() {
		return creds, fmt.Errorf("%w: set %s and %s first", shared.ErrMissingCredentials,
			credentials.KeyClientID, credentials.KeyClientSecret)
	}
	return creds, nil
}

func (m *Manager) stateOf(creds credentials.Credentials) State {
	switch {
	case creds.AccessToken == "":
		return NoCredentials
	case !creds.ExpiryTime.After(m.now()):
		return ExpiredToken
	default:
		return ValidToken
	}
}

// State reports which path [Manager.CurrentToken] would take.
func (m *Manager) State() (State, error) {
	creds, err := m.store.Credentials()
	if err != nil {
		return NoCredentials, err
	}
	return m.stateOf(creds), nil
}

// Status summarizes the stored record.
func (m *Manager) Status() (Status, error) {
	creds, err := m.store.Credentials()
	if err != nil {
		return Status{}, err
	}
	return Status{
		State:     m.stateOf(creds),
		ExpiresAt: creds.ExpiryTime,
		HasClient: creds.HasClient(),
		HasToken:  creds.AccessToken != "",
		CanRenew:  creds.RefreshToken != "",
	}, nil
}

// CurrentToken returns a usable bearer token, authorizing or refreshing first when needed.
func (m *Manager) CurrentToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	creds, err := m.clientCredentials()
	if err != nil {
		return "", err
	}

	switch state := m.stateOf(creds); state {
	case ValidToken:
		m.logger.Debug("using stored access token", "expires", creds.ExpiryTime)
		return creds.AccessToken, nil
	case ExpiredToken:
		m.logger.Debug("access token expired", "expired", creds.ExpiryTime)
		if err := m.Refresh(ctx); err != nil {
			return "", err
		}
	default:
		m.logger.Debug("no access token stored")
		if err := m.Authorize(ctx); err != nil {
			return "", err
		}
	}

	creds, err = m.store.Credentials()
	if err != nil {
		return "", err
	}
	return creds.AccessToken, nil
}

// AuthURL builds the authorization request URL for state.
func (m *Manager) AuthURL(state string) (string, error) {
	creds, err := m.clientCredentials()
	if err != nil {
		return "", err
	}
	return m.oauthConfig(creds, oauth2.AuthStyleInParams).AuthCodeURL(state), nil
}

// Authorize runs the full authorization-code flow: bind the callback listener,
// open the browser, wait for the redirect, then [Manager.Authenticate].
// A redirect without state is accepted; one with a different state is not.
func (m *Manager) Authorize(ctx context.Context) error {
	state := m.newState()
	authURL, err := m.AuthURL(state)
	if err != nil {
		return err
	}

	listener := m.newListener(m.callbackAddr)
	if err := listener.Listen(); err != nil {
		return err
	}

	m.logger.Info("opening browser for authorization")
	if err := m.openBrowser(authURL); err != nil {
		m.logger.Warn("could not open browser, visit the URL manually", "url", authURL, "error", err)
	}

	cb, err := listener.Capture(ctx)
	if err != nil {
		return err
	}

	switch {
	case cb.Error != "":
		if cb.ErrorDescription != "" {
			return fmt.Errorf("%w: %s (%s)", shared.ErrAuthorizationDenied, cb.Error, cb.ErrorDescription)
		}
		return fmt.Errorf("%w: %s", shared.ErrAuthorizationDenied, cb.Error)
	case cb.State != "" && cb.State != state:
		return shared.ErrStateMismatch
	case cb.Code == "":
		return fmt.Errorf("%w: callback carried no code", shared.ErrAuthFailed)
	}

	return m.Authenticate(ctx, cb.Code)
}

// Authenticate exchanges an authorization code for tokens and stores them.
//
// Client credentials travel in the form body.
func (m *Manager) Authenticate(ctx context.Context, code string) error {
	creds, err := m.clientCredentials()
	if err != nil {
		return err
	}

	cfg := m.oauthConfig(creds, oauth2.AuthStyleInParams)
	tok, err := cfg.Exchange(m.withClient(ctx), code)
	if err != nil {
		return authError(err)
	}

	m.logger.Info("authorization succeeded")
	return m.store.Update(map[string]string{
		credentials.KeyAccessToken:  tok.AccessToken,
		credentials.KeyRefreshToken: tok.RefreshToken,
		credentials.KeyExpiryTime:   credentials.FormatExpiry(m.expiry(tok)),
	})
}

// Refresh exchanges the stored refresh token for a new access token.
//
// Client credentials travel in a Basic authorization header. The stored refresh
// token is replaced only when the response carries a different one.
func (m *Manager) Refresh(ctx context.Context) error {
	creds, err := m.clientCredentials()
	if err != nil {
		return err
	}
	if creds.RefreshToken == "" {
		return shared.ErrNoRefreshToken
	}

	cfg := m.oauthConfig(creds, oauth2.AuthStyleInHeader)
	tok, err := cfg.TokenSource(m.withClient(ctx), &oauth2.Token{RefreshToken: creds.RefreshToken}).Token()
	if err != nil {
		return authError(err)
	}

	updates := map[string]string{
		credentials.KeyAccessToken: tok.AccessToken,
		credentials.KeyExpiryTime:  credentials.FormatExpiry(m.expiry(tok)),
	}
	if tok.RefreshToken != "" && tok.RefreshToken != creds.RefreshToken {
		m.logger.Debug("refresh token rotated")
		updates[credentials.KeyRefreshToken] = tok.RefreshToken
	}

	m.logger.Info("access token refreshed")
	return m.store.Update(updates)
}

func (m *Manager) withClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
}

// expiry is now + expires_in measured on the manager's clock.
func (m *Manager) expiry(tok *oauth2.Token) time.Time {
	if secs, ok := tok.Extra("expires_in").(float64); ok && secs > 0 {
		return m.now().Add(time.Duration(secs) * time.Second)
	}
	if tok.ExpiresIn > 0 {
		return m.now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	}
	return tok.Expiry
}

func authError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		return &shared.AuthenticationError{
			StatusCode: re.Response.StatusCode,
			Body:       string(re.Body),
			Err:        err,
		}
	}
	return &shared.AuthenticationError{Err: err}
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
