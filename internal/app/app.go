package app

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/simp-lee/logger"

	"github.com/simp-lee/dataconsole/internal/config"
	"github.com/simp-lee/dataconsole/internal/metrics"
	"github.com/simp-lee/dataconsole/internal/middleware"
	"github.com/simp-lee/dataconsole/internal/route"
	"github.com/simp-lee/dataconsole/internal/router"
	"github.com/simp-lee/dataconsole/web"
)

// App holds the wired engine and the resources released by Run.
type App struct {
	engine *gin.Engine
	router *router.Router
	logger *logger.Logger
	cfg    *config.Config
}

type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

var newHTTPServer = func(addr string, handler http.Handler) httpServer {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

var notifyContext = func(parent context.Context, signals ...os.Signal) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, signals...)
}

// New builds the console from cfg: logger, gin engine and middleware, metrics,
// route table, router, template renderer and routes.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	success := false

	log, err := config.SetupLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}
	defer func() {
		if success {
			return
		}
		if err := log.Close(); err != nil {
			slog.Error("logger close error", slog.Any("error", err))
		}
	}()

	if cfg.Server.Mode == gin.DebugMode && cfg.Server.Host == "0.0.0.0" {
		log.Warn("insecure server config: debug mode on 0.0.0.0 exposes hot reload and permissive CORS")
	}

	if err := validateGinMode(cfg.Server.Mode); err != nil {
		return nil, err
	}
	gin.SetMode(cfg.Server.Mode)
	engine := gin.New()

	corsConfig, err := resolveCORSConfig(cfg.Server.Mode, cfg.Server.CORS)
	if err != nil {
		return nil, err
	}

	engine.Use(
		middleware.Recovery(log.Logger),
		middleware.RequestIDWithConfig(middleware.RequestIDConfig{
			TrustUpstream: false,
		}),
		middleware.Logger(log.Logger),
		middleware.CORSWithConfig(corsConfig),
	)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(cfg.Metrics.Namespace)
		engine.Use(m.Middleware())
	}

	table, err := route.New(route.Console(),
		route.WithSensitive(cfg.Router.Sensitive),
		route.WithStrict(cfg.Router.Strict),
	)
	if err != nil {
		return nil, fmt.Errorf("build route table: %w", err)
	}

	history, err := router.ParseHistory(cfg.Router.History)
	if err != nil {
		return nil, err
	}
	routerOpts := []router.Option{
		router.WithHistory(history),
		router.WithBase(cfg.Router.Base),
		router.WithLogger(log.Logger),
	}
	if m != nil {
		routerOpts = append(routerOpts, router.WithRecorder(m))
	}
	rt, err := router.New(table, routerOpts...)
	if err != nil {
		return nil, fmt.Errorf("setup router: %w", err)
	}
	rt.Configure(engine)

	debug := cfg.Server.Mode == gin.DebugMode
	var webFS fs.FS = web.EmbeddedFS
	if debug {
		webFS, err = resolveDebugWebFS()
		if err != nil {
			return nil, fmt.Errorf("resolve debug web fs: %w", err)
		}
	}

	renderer, err := NewTemplateRenderer(webFS, debug, template.FuncMap{"href": rt.Href})
	if err != nil {
		return nil, fmt.Errorf("setup template renderer: %w", err)
	}
	if err := checkPageTemplates(table, renderer); err != nil {
		return nil, err
	}
	engine.HTMLRender = renderer

	if err := RegisterRoutes(engine, &RouteDeps{
		Router:      rt,
		WebFS:       webFS,
		CacheStatic: !debug,
		Templates:   renderer,
		Metrics:     m,
		MetricsPath: cfg.Metrics.Path,
	}); err != nil {
		return nil, fmt.Errorf("register routes: %w", err)
	}

	log.Info("console routes ready",
		slog.Int("routes", table.Len()),
		slog.String("base", rt.Base()),
		slog.String("history", string(history)),
		slog.Bool("metrics", m != nil),
	)

	success = true
	return &App{
		engine: engine,
		router: rt,
		logger: log,
		cfg:    cfg,
	}, nil
}

// checkPageTemplates fails when a page unit of the table has no template.
func checkPageTemplates(t *route.Table, r TemplateChecker) error {
	names, paths := pageTemplates(t)
	if missing := r.Missing(names...); len(missing) > 0 {
		return fmt.Errorf("route %q: page template %q not found", paths[missing[0]], missing[0])
	}
	return nil
}

// pageTemplates returns the template of every page unit of t, keyed to the
// first path that declares it.
func pageTemplates(t *route.Table) (names []string, paths map[string]string) {
	paths = make(map[string]string)
	for _, d := range t.Descriptors() {
		if d.Page == nil {
			continue
		}
		if _, ok := paths[d.Page.Template]; ok {
			continue
		}
		paths[d.Page.Template] = d.Path
		names = append(names, d.Page.Template)
	}
	return names, paths
}

// resolveCORSConfig builds the middleware config. Without an allowlist,
// release mode denies cross-origin requests.
func resolveCORSConfig(mode string, cfg config.CORSConfig) (middleware.CORSConfig, error) {
	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowCredentials = cfg.AllowCredentials

	if cfg.MaxAge != "" {
		d, err := time.ParseDuration(cfg.MaxAge)
		if err != nil {
			return corsConfig, fmt.Errorf("invalid server.cors.max_age %q: %w", cfg.MaxAge, err)
		}
		corsConfig.MaxAge = strconv.Itoa(int(d.Seconds()))
	}

	switch {
	case len(cfg.AllowOrigins) > 0:
		corsConfig.AllowOrigins = cfg.AllowOrigins
	case mode == gin.ReleaseMode:
		corsConfig.AllowOrigins = []string{}
	}

	return corsConfig, nil
}

func validateGinMode(mode string) error {
	switch mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		return nil
	default:
		return fmt.Errorf("invalid server.mode %q: must be one of %q, %q, %q", mode, gin.DebugMode, gin.ReleaseMode, gin.TestMode)
	}
}

// resolveDebugWebFS finds web/ in the source tree, then next to the binary.
func resolveDebugWebFS() (fs.FS, error) {
	if _, file, _, ok := runtime.Caller(0); ok {
		webDir := filepath.Clean(filepath.Join(filepath.Dir(file), "..", "..", "web"))
		if stat, err := os.Stat(webDir); err == nil && stat.IsDir() {
			return os.DirFS(webDir), nil
		}
	}

	exePath, err := os.Executable()
	if err == nil {
		webDir := filepath.Join(filepath.Dir(exePath), "web")
		if stat, err := os.Stat(webDir); err == nil && stat.IsDir() {
			return os.DirFS(webDir), nil
		}
	}

	return nil, errors.New("debug web directory not found")
}

// Handler returns the wired HTTP handler.
func (a *App) Handler() http.Handler {
	return a.engine
}

// Run serves until SIGINT or SIGTERM, then shuts down gracefully within
// server.shutdown_timeout and closes the logger.
func (a *App) Run() error {
	if a == nil {
		return errors.New("app is nil")
	}
	if a.cfg == nil {
		return errors.New("app config is nil")
	}
	if a.engine == nil {
		return errors.New("app engine is nil")
	}

	log := slog.Default()
	if a.logger != nil {
		log = a.logger.Logger
	}

	base := ""
	if a.router != nil {
		base = a.router.Base()
	}

	addr := fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port)
	srv := newHTTPServer(addr, a.engine)

	ctx, stop := notifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server started", slog.String("addr", addr), slog.String("base", base))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		runErr = fmt.Errorf("server error: %w", err)
	}

	if runErr == nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout())
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown error", slog.Any("error", err))
		}
	}

	log.Info("server stopped")
	if a.logger != nil {
		if err := a.logger.Close(); err != nil {
			slog.Error("logger close error", slog.Any("error", err))
		}
	}

	return runErr
}
