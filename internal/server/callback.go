package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotx/internal/shared"
)

// DefaultCallbackAddr is where the authorization server redirects the browser.
const DefaultCallbackAddr = ":8888"

// Callback is what the authorization redirect carried.
type Callback struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

// ParseCallback extracts the redirect parameters from r.
//
// Query parameters are read by name. When neither code nor error is present,
// the code is taken as everything after the last '=' of the request target.
func ParseCallback(r *http.Request) Callback {
	q := r.URL.Query()
	cb := Callback{
		Code:             q.Get("code"),
		State:            q.Get("state"),
		Error:            q.Get("error"),
		ErrorDescription: q.Get("error_description"),
	}
	if cb.Code == "" && cb.Error == "" {
		target := r.URL.RequestURI()
		if i := strings.LastIndex(target, "="); i >= 0 {
			cb.Code = target[i+1:]
		}
	}
	return cb
}

// CallbackHandler honors the first request it sees and rejects the rest.
// Implements the [Handler] interface for registration with a Router.
type CallbackHandler struct {
	deliver func(Callback)

	mu          sync.Mutex
	callbackHit bool
}

// NewCallbackHandler returns a handler that passes the first callback to deliver.
func NewCallbackHandler(deliver func(Callback)) *CallbackHandler {
	return &CallbackHandler{deliver: deliver}
}

// Routes returns the HTTP routes this handler serves.
func (h *CallbackHandler) Routes() []string {
	return []string{"/"}
}

// ServeHTTP answers the first request with 200 and an empty HTML body.
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	cb := ParseCallback(r)

	w.Header().Set("Content-Type", "text/html")
	w.Header().Set("Connection", "close")
	w.WriteHeader(http.StatusOK)

	h.deliver(cb)
}

// CallbackListener is a single-request HTTP server for the authorization redirect.
//
// A listener is good for one [CallbackListener.Capture].
type CallbackListener struct {
	addr   string
	logger *log.Logger
	ln     net.Listener
}

// NewCallbackListener prepares a listener for addr. Nothing is bound until
// [CallbackListener.Listen] or [CallbackListener.Capture].
func NewCallbackListener(addr string, logger *log.Logger) *CallbackListener {
	if addr == "" {
		addr = DefaultCallbackAddr
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &CallbackListener{addr: addr, logger: logger}
}

// Listen binds the socket. It fails with [*shared.ListenerBindError] when the port is taken.
func (l *CallbackListener) Listen() error {
	if l.ln != nil {
		return nil
	}
	ln, err := net.Listen("tcp", l.addr)
	if err != nil {
		return &shared.ListenerBindError{Addr: l.addr, Err: err}
	}
	l.ln = ln
	l.logger.Debug("callback listener bound", "addr", ln.Addr().String())
	return nil
}

// Addr returns the bound address, or the configured one before [CallbackListener.Listen].
func (l *CallbackListener) Addr() string {
	if l.ln != nil {
		return l.ln.Addr().String()
	}
	return l.addr
}

// Capture serves until one request arrives, then returns its [Callback]
// after the server has fully stopped.
//
// There is no timeout. Cancelling ctx closes the server and returns ctx.Err().
func (l *CallbackListener) Capture(ctx context.Context) (Callback, error) {
	if err := l.Listen(); err != nil {
		return Callback{}, err
	}

	result := make(chan Callback, 1)
	stopped := make(chan struct{})
	srv := &http.Server{ReadHeaderTimeout: 10 * time.Second}

	handler := NewCallbackHandler(func(cb Callback) {
		result <- cb
		go func() {
			defer close(stopped)
			if err := srv.Shutdown(context.Background()); err != nil {
				l.logger.Warn("callback listener shutdown", "error", err)
			}
		}()
	})

	router := NewBasicRouter(RequestLogger(l.logger))
	router.Handler(handler)
	srv.Handler = router

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(l.ln) }()

	l.logger.Info("waiting for authorization callback", "addr", l.Addr())

	select {
	case <-ctx.Done():
		_ = srv.Close()
		<-serveErr
		return Callback{}, ctx.Err()
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return Callback{}, fmt.Errorf("callback listener stopped: %w", err)
		}
	}

	select {
	case <-stopped:
	case <-ctx.Done():
		_ = srv.Close()
		return Callback{}, ctx.Err()
	}

	l.logger.Debug("callback listener stopped")
	return <-result, nil
}
