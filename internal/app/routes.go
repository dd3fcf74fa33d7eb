package app

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/dataconsole/internal/metrics"
	"github.com/simp-lee/dataconsole/internal/pkg"
	"github.com/simp-lee/dataconsole/internal/router"
)

// RouteDeps holds everything RegisterRoutes wires onto the engine.
type RouteDeps struct {
	Router *router.Router
	// WebFS contains static/; it is the disk in debug mode and the embedded
	// tree otherwise.
	WebFS fs.FS
	// CacheStatic adds a Cache-Control header to static assets.
	CacheStatic bool
	// Templates is checked by /health; nil skips the check.
	Templates TemplateChecker
	// Metrics is nil when metrics are disabled.
	Metrics     *metrics.Metrics
	MetricsPath string
}

// TemplateChecker reports which page templates are absent.
type TemplateChecker interface {
	Missing(names ...string) []string
}

// RegisterRoutes registers static assets, health, metrics, the route API, the
// console pages and the 404 handler.
func RegisterRoutes(r *gin.Engine, deps *RouteDeps) error {
	if r == nil {
		return errors.New("engine is nil")
	}
	if deps == nil {
		return errors.New("route dependencies are nil")
	}
	if deps.Router == nil {
		return errors.New("router is nil")
	}
	if deps.WebFS == nil {
		return errors.New("web filesystem is nil")
	}

	if err := registerStaticRoutes(r, deps.WebFS, deps.CacheStatic); err != nil {
		return fmt.Errorf("register static routes: %w", err)
	}

	r.GET("/health", healthHandler(deps.Router, deps.Templates))

	if deps.Metrics != nil {
		path := deps.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(deps.Metrics.Handler()))
	}

	deps.Router.RegisterAPI(r.Group("/api/v1"))

	if err := deps.Router.Mount(r); err != nil {
		return fmt.Errorf("mount pages: %w", err)
	}

	r.NoRoute(noRouteHandler(deps.Router))

	return nil
}

// healthHandler reports liveness, the size of the route table and whether
// every page unit still has its template.
func healthHandler(rt *router.Router, templates TemplateChecker) gin.HandlerFunc {
	names, _ := pageTemplates(rt.Table())
	return func(c *gin.Context) {
		status, code := "ok", http.StatusOK
		components := gin.H{"routes": rt.Table().Len()}

		if templates != nil {
			templateStatus := "ok"
			if len(templates.Missing(names...)) > 0 {
				templateStatus = "error"
				status, code = "degraded", http.StatusServiceUnavailable
			}
			components["templates"] = templateStatus
		}

		c.JSON(code, gin.H{
			"status":     status,
			"components": components,
		})
	}
}

// noRouteHandler answers 404 with JSON under /api/ and content-negotiated
// elsewhere.
func noRouteHandler(rt *router.Router) gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, pkg.Response{Code: http.StatusNotFound, Message: "not found"})
			return
		}
		renderError(c, http.StatusNotFound, "not found", rt.Nav(""))
	}
}

func registerStaticRoutes(r *gin.Engine, webFS fs.FS, cache bool) error {
	staticFS, err := fs.Sub(webFS, "static")
	if err != nil {
		return fmt.Errorf("create sub filesystem for static assets: %w", err)
	}

	fileServer := http.StripPrefix("/static", http.FileServer(http.FS(staticFS)))
	handler := func(c *gin.Context) {
		if cache {
			c.Header("Cache-Control", "public, max-age=86400")
		}
		fileServer.ServeHTTP(c.Writer, c.Request)
	}
	r.GET("/static/*filepath", handler)
	r.HEAD("/static/*filepath", handler)
	return nil
}
