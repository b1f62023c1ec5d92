package server

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

type groupHandler struct {
	routes []string
}

func (g groupHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("group:" + r.URL.Path))
}

func (g groupHandler) Routes() []string { return g.routes }

func TestBasicRouter(t *testing.T) {
	t.Run("method patterns", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle("get", "/tracks/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("tracks"))
		}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tracks/", nil))
		if rec.Code != http.StatusOK || rec.Body.String() != "tracks" {
			t.Errorf("unexpected response %d %q", rec.Code, rec.Body.String())
		}

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/tracks/", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
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

		router := NewBasicRouter()
		router.Use(mark("outer"), mark("inner"))
		router.Handle(http.MethodGet, "/x", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		}))
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

		if strings.Join(order, ",") != "outer,inner,handler" {
			t.Errorf("unexpected order %v", order)
		}
	})

	t.Run("Handler registers every route", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handler(groupHandler{routes: []string{"/ws/sync", "GET /qr/"}})

		for _, path := range []string{"/ws/sync", "/qr/"} {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			if rec.Body.String() != "group:"+path {
				t.Errorf("%s: unexpected body %q", path, rec.Body.String())
			}
		}

		if got := router.Routes(); len(got) != 2 || got[0] != "/ws/sync" {
			t.Errorf("unexpected routes %v", got)
		}
	})
}

func TestMiddleware(t *testing.T) {
	t.Run("Logging records status", func(t *testing.T) {
		var buf bytes.Buffer
		logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})

		h := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/brew", nil))

		out := buf.String()
		if !strings.Contains(out, "status=418") || !strings.Contains(out, "path=/brew") {
			t.Errorf("unexpected log line %q", out)
		}
	})

	t.Run("Logging passes websocket upgrades", func(t *testing.T) {
		logger := log.NewWithOptions(&bytes.Buffer{}, log.Options{})
		upgrader := websocket.Upgrader{}
		h := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			conn, err := upgrader.Upgrade(w, r, nil)
			if err != nil {
				return
			}
			defer conn.Close()
			conn.WriteMessage(websocket.TextMessage, []byte("hi"))
		}))

		srv := httptest.NewServer(h)
		defer srv.Close()

		conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
		if err != nil {
			t.Fatalf("dial through logging middleware: %v", err)
		}
		defer conn.Close()
		if _, msg, err := conn.ReadMessage(); err != nil || string(msg) != "hi" {
			t.Errorf("unexpected message %q (%v)", msg, err)
		}
	})

	t.Run("Recover", func(t *testing.T) {
		logger := log.NewWithOptions(&bytes.Buffer{}, log.Options{})
		h := Recover(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
	})

	t.Run("CORS", func(t *testing.T) {
		ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

		tc := []struct {
			name    string
			origins []string
			origin  string
			method  string
			want    string
			code    int
		}{
			{"wildcard", nil, "http://a", http.MethodGet, "*", http.StatusOK},
			{"allowed", []string{"http://a"}, "http://a", http.MethodGet, "http://a", http.StatusOK},
			{"denied", []string{"http://a"}, "http://b", http.MethodGet, "", http.StatusOK},
			{"preflight", []string{"http://a"}, "http://a", http.MethodOptions, "http://a", http.StatusNoContent},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				req := httptest.NewRequest(tt.method, "/", nil)
				req.Header.Set("Origin", tt.origin)
				rec := httptest.NewRecorder()
				CORS(tt.origins)(ok).ServeHTTP(rec, req)

				if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
					t.Errorf("expected origin %q, got %q", tt.want, got)
				}
				if rec.Code != tt.code {
					t.Errorf("expected %d, got %d", tt.code, rec.Code)
				}
			})
		}
	})

	t.Run("ClientIP", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		if got := ClientIP(req); got != "10.0.0.1" {
			t.Errorf("expected remote host, got %s", got)
		}
		req.Header.Set("X-Real-IP", "10.0.0.2")
		if got := ClientIP(req); got != "10.0.0.2" {
			t.Errorf("expected real ip, got %s", got)
		}
		req.Header.Set("X-Forwarded-For", "1.2.3.4, 10.0.0.3")
		if got := ClientIP(req); got != "1.2.3.4" {
			t.Errorf("expected first forwarded hop, got %s", got)
		}
	})
}

func TestServer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	srv := New(ServerOpts{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("ok"))
		}),
		Logger:          log.NewWithOptions(&bytes.Buffer{}, log.Options{}),
		ShutdownTimeout: time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}

	t.Run("Run reports listen errors", func(t *testing.T) {
		bad := New(ServerOpts{Addr: "256.0.0.1:99999", Logger: log.NewWithOptions(&bytes.Buffer{}, log.Options{})})
		if err := bad.Run(context.Background()); err == nil {
			t.Error("expected listen error")
		}
	})
}
