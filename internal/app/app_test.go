package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/simp-lee/logger"

	"github.com/simp-lee/dataconsole/internal/config"
	"github.com/simp-lee/dataconsole/internal/route"
)

type fakeHTTPServer struct {
	listenErr      error
	listenStarted  chan struct{}
	shutdownCalled bool
	stopCh         chan struct{}
	mu             sync.Mutex
}

func (f *fakeHTTPServer) ListenAndServe() error {
	if f.listenStarted != nil {
		close(f.listenStarted)
	}
	if f.listenErr != nil {
		return f.listenErr
	}
	if f.stopCh != nil {
		<-f.stopCh
	}
	return http.ErrServerClosed
}

func (f *fakeHTTPServer) Shutdown(context.Context) error {
	f.mu.Lock()
	f.shutdownCalled = true
	f.mu.Unlock()
	if f.stopCh != nil {
		close(f.stopCh)
	}
	return nil
}

func (f *fakeHTTPServer) wasShutdownCalled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.shutdownCalled
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Server.Mode = gin.TestMode
	cfg.Log.Level = "error"
	cfg.Metrics.Namespace = "apptest"
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(func() { _ = a.logger.Close() })
	return a
}

func TestResolveCORSConfig(t *testing.T) {
	tests := []struct {
		name            string
		mode            string
		cfg             config.CORSConfig
		wantOrigins     []string
		wantCredentials bool
		wantMaxAge      string
	}{
		{
			name:        "debug mode uses permissive default when not configured",
			mode:        gin.DebugMode,
			wantOrigins: []string{"*"},
			wantMaxAge:  "86400",
		},
		{
			name:        "release mode denies cross-origin when not configured",
			mode:        gin.ReleaseMode,
			wantOrigins: []string{},
			wantMaxAge:  "86400",
		},
		{
			name: "release mode uses explicit allowlist with credentials",
			mode: gin.ReleaseMode,
			cfg: config.CORSConfig{
				AllowOrigins:     []string{"https://console.example.com"},
				AllowCredentials: true,
				MaxAge:           "12h",
			},
			wantOrigins:     []string{"https://console.example.com"},
			wantCredentials: true,
			wantMaxAge:      "43200",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveCORSConfig(tt.mode, tt.cfg)
			if err != nil {
				t.Fatalf("resolveCORSConfig() error: %v", err)
			}
			if strings.Join(got.AllowOrigins, ",") != strings.Join(tt.wantOrigins, ",") {
				t.Errorf("AllowOrigins = %v, want %v", got.AllowOrigins, tt.wantOrigins)
			}
			if got.AllowCredentials != tt.wantCredentials {
				t.Errorf("AllowCredentials = %v, want %v", got.AllowCredentials, tt.wantCredentials)
			}
			if got.MaxAge != tt.wantMaxAge {
				t.Errorf("MaxAge = %q, want %q", got.MaxAge, tt.wantMaxAge)
			}
		})
	}
}

func TestResolveCORSConfig_InvalidMaxAge(t *testing.T) {
	if _, err := resolveCORSConfig(gin.ReleaseMode, config.CORSConfig{MaxAge: "forever"}); err == nil {
		t.Fatal("expected error for invalid max age")
	}
}

func TestValidateGinMode(t *testing.T) {
	for _, mode := range []string{gin.DebugMode, gin.ReleaseMode, gin.TestMode} {
		if err := validateGinMode(mode); err != nil {
			t.Errorf("validateGinMode(%q) error: %v", mode, err)
		}
	}
	if err := validateGinMode("production"); err == nil {
		t.Error("validateGinMode(production) expected error")
	}
}

type fakeTemplates map[string]bool

func (f fakeTemplates) Missing(names ...string) []string {
	var missing []string
	for _, n := range names {
		if !f[n] {
			missing = append(missing, n)
		}
	}
	return missing
}

func TestCheckPageTemplates(t *testing.T) {
	all := fakeTemplates{"database/manager.html": true, "chat/index.html": true}
	if err := checkPageTemplates(route.Default(), all); err != nil {
		t.Fatalf("checkPageTemplates() error: %v", err)
	}

	err := checkPageTemplates(route.Default(), fakeTemplates{"database/manager.html": true})
	if err == nil || !strings.Contains(err.Error(), "chat/index.html") {
		t.Fatalf("checkPageTemplates() error = %v, want missing chat/index.html", err)
	}
}

func TestNew_NilConfig(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("New(nil) expected error")
	}
}

func TestNew_InvalidSettings(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{"gin mode", func(c *config.Config) { c.Server.Mode = "production" }, "server.mode"},
		{"history", func(c *config.Config) { c.Router.History = "hash" }, "history"},
		{"base", func(c *config.Config) { c.Router.Base = "console" }, "base"},
		{"cors max age", func(c *config.Config) { c.Server.CORS.MaxAge = "later" }, "max_age"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(cfg)
			_, err := New(cfg)
			if err == nil {
				t.Fatal("New() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("New() error = %v, want contains %q", err, tt.wantErr)
			}
		})
	}
}

func TestNew_ServesConsole(t *testing.T) {
	a := newTestApp(t, testConfig())
	h := a.Handler()

	w := do(h, http.MethodGet, "/", "text/html")
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/database" {
		t.Fatalf("GET / = %d %q, want 302 /database", w.Code, w.Header().Get("Location"))
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}

	w = do(h, http.MethodGet, "/database", "text/html")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /database = %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{"<title>Database Manager</title>", `id="database-manager"`, `href="/chat"`} {
		if !strings.Contains(body, want) {
			t.Errorf("/database body missing %q", want)
		}
	}

	w = do(h, http.MethodGet, "/chat", "text/html")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `id="chat"`) {
		t.Fatalf("GET /chat = %d", w.Code)
	}

	w = do(h, http.MethodGet, "/nowhere", "text/html")
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), "404 Not Found") {
		t.Fatalf("GET /nowhere = %d", w.Code)
	}

	w = do(h, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /metrics = %d", w.Code)
	}
	for _, want := range []string{
		`apptest_navigations_total{outcome="redirected",route="/"} 1`,
		`apptest_navigations_total{outcome="rendered",route="DatabaseManager"} 1`,
		`apptest_http_request_duration_seconds_count{method="GET",route="/chat",status="200"} 1`,
	} {
		if !strings.Contains(w.Body.String(), want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestNew_TrailingSlashAndCase(t *testing.T) {
	a := newTestApp(t, testConfig())

	w := do(a.Handler(), http.MethodGet, "/chat/", "text/html")
	if w.Code != http.StatusMovedPermanently || w.Header().Get("Location") != "/chat" {
		t.Fatalf("GET /chat/ = %d %q", w.Code, w.Header().Get("Location"))
	}

	w = do(a.Handler(), http.MethodGet, "/DataBase", "text/html")
	if w.Code != http.StatusMovedPermanently || w.Header().Get("Location") != "/database" {
		t.Fatalf("GET /DataBase = %d %q", w.Code, w.Header().Get("Location"))
	}
}

func TestNew_StrictSensitive(t *testing.T) {
	cfg := testConfig()
	cfg.Router.Strict = true
	cfg.Router.Sensitive = true
	a := newTestApp(t, cfg)

	for _, p := range []string{"/chat/", "/DataBase"} {
		if w := do(a.Handler(), http.MethodGet, p, "application/json"); w.Code != http.StatusNotFound {
			t.Errorf("GET %s = %d, want 404", p, w.Code)
		}
	}
}

func TestNew_BaseAndMetricsDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Router.Base = "/console"
	cfg.Metrics.Enabled = false
	a := newTestApp(t, cfg)

	w := do(a.Handler(), http.MethodGet, "/console", "text/html")
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/console/database" {
		t.Fatalf("GET /console = %d %q", w.Code, w.Header().Get("Location"))
	}
	if w := do(a.Handler(), http.MethodGet, "/metrics", "application/json"); w.Code != http.StatusNotFound {
		t.Fatalf("GET /metrics = %d, want 404", w.Code)
	}
}

func TestRun_ReturnsError_WhenListenFails(t *testing.T) {
	originalNewHTTPServer := newHTTPServer
	originalNotifyContext := notifyContext
	defer func() {
		newHTTPServer = originalNewHTTPServer
		notifyContext = originalNotifyContext
	}()

	listenErr := errors.New("listen failed")
	newHTTPServer = func(string, http.Handler) httpServer {
		return &fakeHTTPServer{listenErr: listenErr}
	}
	notifyContext = func(context.Context, ...os.Signal) (context.Context, context.CancelFunc) {
		return context.WithCancel(context.Background())
	}

	a := &App{
		engine: gin.New(),
		logger: logger.Default(),
		cfg:    config.Default(),
	}

	err := a.Run()
	if err == nil {
		t.Fatal("Run() error = nil, want error")
	}
	if !strings.Contains(err.Error(), "server error") || !errors.Is(err, listenErr) {
		t.Fatalf("Run() error = %v, want server error wrapping %v", err, listenErr)
	}
}

func TestRun_ShutdownSignal(t *testing.T) {
	originalNewHTTPServer := newHTTPServer
	originalNotifyContext := notifyContext
	defer func() {
		newHTTPServer = originalNewHTTPServer
		notifyContext = originalNotifyContext
	}()

	server := &fakeHTTPServer{listenStarted: make(chan struct{}), stopCh: make(chan struct{})}
	var gotAddr string
	newHTTPServer = func(addr string, _ http.Handler) httpServer {
		gotAddr = addr
		return server
	}

	ctx, cancel := context.WithCancel(context.Background())
	notifyContext = func(context.Context, ...os.Signal) (context.Context, context.CancelFunc) {
		return ctx, cancel
	}

	cfg := config.Default()
	cfg.Server.Port = 9191
	a := &App{engine: gin.New(), logger: logger.Default(), cfg: cfg}

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.Run()
	}()

	select {
	case <-server.listenStarted:
	case <-time.After(2 * time.Second):
		t.Fatal("server did not start listening in time")
	}

	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run() error = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return in time after shutdown signal")
	}

	if !server.wasShutdownCalled() {
		t.Fatal("expected server Shutdown() to be called")
	}
	if gotAddr != "127.0.0.1:9191" {
		t.Fatalf("addr = %q, want %q", gotAddr, "127.0.0.1:9191")
	}
}

func TestRun_NilApp(t *testing.T) {
	var a *App
	if err := a.Run(); err == nil {
		t.Fatal("Run() on nil app expected error")
	}
	if err := (&App{}).Run(); err == nil {
		t.Fatal("Run() without config expected error")
	}
}

func TestHandler_ServesHTTPTestRequest(t *testing.T) {
	a := newTestApp(t, testConfig())
	srv := httptest.NewServer(a.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /health = %d", resp.StatusCode)
	}
}
