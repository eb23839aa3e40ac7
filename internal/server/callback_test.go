package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/desertthunder/spotx/internal/shared"
)

type captureResult struct {
	cb  Callback
	err error
}

func startCapture(t *testing.T, ctx context.Context) (*CallbackListener, <-chan captureResult) {
	t.Helper()
	l := NewCallbackListener("127.0.0.1:0", shared.NewLogger(io.Discard))
	if err := l.Listen(); err != nil {
		t.Fatalf("Listen() error = %v", err)
	}

	done := make(chan captureResult, 1)
	go func() {
		cb, err := l.Capture(ctx)
		done <- captureResult{cb, err}
	}()
	return l, done
}

func waitCapture(t *testing.T, done <-chan captureResult) captureResult {
	t.Helper()
	select {
	case res := <-done:
		return res
	case <-time.After(5 * time.Second):
		t.Fatal("Capture did not return")
		return captureResult{}
	}
}

func TestParseCallback(t *testing.T) {
	tests := []struct {
		name   string
		target string
		want   Callback
	}{
		{name: "code only", target: "/?code=abc123", want: Callback{Code: "abc123"}},
		{name: "state before code", target: "/?state=xyz&code=abc123", want: Callback{Code: "abc123", State: "xyz"}},
		{name: "code before state", target: "/callback?code=abc123&state=xyz", want: Callback{Code: "abc123", State: "xyz"}},
		{
			name:   "denied",
			target: "/?error=access_denied&state=xyz",
			want:   Callback{Error: "access_denied", State: "xyz"},
		},
		{name: "unnamed suffix", target: "/?token=abc123", want: Callback{Code: "abc123"}},
		{name: "no query", target: "/", want: Callback{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if got := ParseCallback(req); got != tt.want {
				t.Errorf("ParseCallback(%q) = %+v, want %+v", tt.target, got, tt.want)
			}
		})
	}
}

func TestCallbackHandler(t *testing.T) {
	t.Run("first request delivered, second rejected", func(t *testing.T) {
		var delivered []Callback
		h := NewCallbackHandler(func(cb Callback) { delivered = append(delivered, cb) })

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/?code=first", nil))

		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
		if ct := w.Header().Get("Content-Type"); ct != "text/html" {
			t.Errorf("Content-Type = %q, want text/html", ct)
		}
		if w.Body.Len() != 0 {
			t.Errorf("body = %q, want empty", w.Body.String())
		}

		w = httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/?code=second", nil))
		if w.Code != http.StatusBadRequest {
			t.Errorf("second status = %d, want 400", w.Code)
		}

		if len(delivered) != 1 || delivered[0].Code != "first" {
			t.Errorf("delivered = %+v, want only the first callback", delivered)
		}
	})
}

func TestCallbackListener(t *testing.T) {
	t.Run("captures code and stops", func(t *testing.T) {
		l, done := startCapture(t, context.Background())
		addr := l.Addr()

		resp, err := http.Get("http://" + addr + "/?code=AQB-code")
		if err != nil {
			t.Fatalf("GET error = %v", err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("status = %d, want 200", resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); ct != "text/html" {
			t.Errorf("Content-Type = %q, want text/html", ct)
		}
		if len(body) != 0 {
			t.Errorf("body = %q, want empty", body)
		}

		res := waitCapture(t, done)
		if res.err != nil {
			t.Fatalf("Capture() error = %v", res.err)
		}
		if res.cb.Code != "AQB-code" {
			t.Errorf("Code = %q, want AQB-code", res.cb.Code)
		}

		if conn, err := net.DialTimeout("tcp", addr, time.Second); err == nil {
			conn.Close()
			t.Error("expected connection to be refused after capture")
		}
	})

	t.Run("any path is accepted", func(t *testing.T) {
		l, done := startCapture(t, context.Background())

		resp, err := http.Get("http://" + l.Addr() + "/some/path?state=s1&code=c1")
		if err != nil {
			t.Fatalf("GET error = %v", err)
		}
		resp.Body.Close()

		res := waitCapture(t, done)
		if res.err != nil {
			t.Fatalf("Capture() error = %v", res.err)
		}
		if res.cb.Code != "c1" || res.cb.State != "s1" {
			t.Errorf("Callback = %+v", res.cb)
		}
	})

	t.Run("port already bound", func(t *testing.T) {
		taken, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("setup listen: %v", err)
		}
		defer taken.Close()

		l := NewCallbackListener(taken.Addr().String(), shared.NewLogger(io.Discard))
		err = l.Listen()
		if !errors.Is(err, shared.ErrListenerBind) {
			t.Fatalf("expected ErrListenerBind, got %v", err)
		}

		var bindErr *shared.ListenerBindError
		if !errors.As(err, &bindErr) || bindErr.Addr != taken.Addr().String() {
			t.Errorf("expected ListenerBindError for %s, got %v", taken.Addr(), err)
		}

		if _, err := l.Capture(context.Background()); !errors.Is(err, shared.ErrListenerBind) {
			t.Errorf("Capture() expected ErrListenerBind, got %v", err)
		}
	})

	t.Run("context cancel closes the server", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		l, done := startCapture(t, ctx)
		addr := l.Addr()

		cancel()
		res := waitCapture(t, done)
		if !errors.Is(res.err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", res.err)
		}

		if conn, err := net.DialTimeout("tcp", addr, time.Second); err == nil {
			conn.Close()
			t.Error("expected connection to be refused after cancel")
		}
	})
}

func TestBasicRouter(t *testing.T) {
	t.Run("method filtering", func(t *testing.T) {
		r := NewBasicRouter()
		r.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if w.Code != http.StatusNoContent {
			t.Errorf("GET status = %d, want 204", w.Code)
		}

		w = httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/ping", nil))
		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("POST status = %d, want 405", w.Code)
		}
	})

	t.Run("middleware order", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		r := NewBasicRouter(mark("first"))
		r.Use(mark("second"))
		r.Handler(NewCallbackHandler(func(Callback) { order = append(order, "handler") }))

		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/?code=x", nil))

		want := []string{"first", "second", "handler"}
		if len(order) != len(want) {
			t.Fatalf("order = %v, want %v", order, want)
		}
		for i := range want {
			if order[i] != want[i] {
				t.Errorf("order[%d] = %s, want %s", i, order[i], want[i])
			}
		}
	})
}
