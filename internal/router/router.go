// Package router mounts a route.Table on a gin engine.
//
// Navigation is path based (HTML5 history): every descriptor path is served
// directly by the server, optionally below a base path. Redirect descriptors
// answer with 302 Found to the final page; page descriptors render their
// template through the engine's HTML renderer.
package router

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/dataconsole/internal/route"
)

// Navigation outcomes passed to a Recorder.
const (
	OutcomeRendered   = "rendered"
	OutcomeRedirected = "redirected"
)

// Recorder observes navigations. *metrics.Metrics satisfies it.
type Recorder interface {
	Navigation(route, outcome string)
}

// Router serves a route table.
type Router struct {
	table    *route.Table
	history  History
	base     string
	recorder Recorder
	logger   *slog.Logger
	nav      []NavItem
}

// Option configures a Router.
type Option func(*Router)

// WithHistory selects the history mode.
func WithHistory(h History) Option {
	return func(r *Router) { r.history = h }
}

// WithBase mounts every route below base, e.g. "/console".
func WithBase(base string) Option {
	return func(r *Router) { r.base = base }
}

// WithRecorder reports navigations to rec.
func WithRecorder(rec Recorder) Option {
	return func(r *Router) { r.recorder = rec }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Router) { r.logger = l }
}

// New creates a Router for t.
func New(t *route.Table, opts ...Option) (*Router, error) {
	if t == nil {
		return nil, errors.New("route table is nil")
	}

	r := &Router{table: t, history: HistoryWeb}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}

	if r.history != HistoryWeb {
		return nil, fmt.Errorf("unsupported history mode %q", r.history)
	}

	base, err := normalizeBase(r.base)
	if err != nil {
		return nil, err
	}
	r.base = base
	r.nav = r.buildNav()

	return r, nil
}

func normalizeBase(base string) (string, error) {
	base = strings.TrimSpace(base)
	if base == "" || base == "/" {
		return "", nil
	}
	if !strings.HasPrefix(base, "/") {
		return "", fmt.Errorf("invalid base %q: must start with '/'", base)
	}
	if strings.ContainsAny(base, "?#:*") {
		return "", fmt.Errorf("invalid base %q: must be a static path", base)
	}
	return strings.TrimRight(base, "/"), nil
}

// Table returns the route table being served.
func (r *Router) Table() *route.Table {
	return r.table
}

// Base returns the normalised base path; empty when mounted at the root.
func (r *Router) Base() string {
	return r.base
}

// Href prefixes an in-app path with the base path.
func (r *Router) Href(p string) string {
	if r.base == "" {
		return p
	}
	if p == "/" {
		return r.base
	}
	return r.base + p
}

// Configure applies the table's matching options to the engine: unless strict,
// a trailing slash redirects to the canonical path; unless sensitive, a
// case-mismatched path redirects to the declared one.
func (r *Router) Configure(e *gin.Engine) {
	opts := r.table.Options()
	e.RedirectTrailingSlash = !opts.Strict
	e.RedirectFixedPath = !opts.Sensitive
}

// Mount registers a GET and HEAD handler for every descriptor of the table.
func (r *Router) Mount(g gin.IRoutes) error {
	if g == nil {
		return errors.New("router group is nil")
	}

	for _, d := range r.table.Descriptors() {
		var h gin.HandlerFunc
		if d.IsRedirect() {
			res, err := r.table.Resolve(d.Path)
			if err != nil {
				return fmt.Errorf("mount %s: %w", d.Path, err)
			}
			h = r.redirect(d, res)
		} else {
			h = r.render(d)
		}

		p := r.Href(d.Path)
		if err := register(g, p, h); err != nil {
			return fmt.Errorf("mount %s: %w", p, err)
		}
		r.logger.Debug("route mounted",
			slog.String("path", p),
			slog.String("name", d.Name),
			slog.Bool("redirect", d.IsRedirect()),
		)
	}
	return nil
}

// register adds the GET and HEAD handlers for p, turning a gin registration
// panic into an error.
func register(g gin.IRoutes, p string, h gin.HandlerFunc) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%v", rec)
		}
	}()
	g.GET(p, h)
	g.HEAD(p, h)
	return nil
}

// redirect answers with 302 Found to the end of the redirect chain, keeping
// the request's query string.
func (r *Router) redirect(d route.Descriptor, res route.Resolution) gin.HandlerFunc {
	target := r.Href(res.FinalPath)
	label := routeLabel(d)
	return func(c *gin.Context) {
		loc := target
		if q := c.Request.URL.RawQuery; q != "" {
			loc += "?" + q
		}
		r.record(label, OutcomeRedirected)
		c.Redirect(http.StatusFound, loc)
	}
}

func (r *Router) render(d route.Descriptor) gin.HandlerFunc {
	label := routeLabel(d)
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, d.Page.Template, r.pageData(c, d))
		r.record(label, OutcomeRendered)
	}
}

func (r *Router) record(label, outcome string) {
	if r.recorder != nil {
		r.recorder.Navigation(label, outcome)
	}
}

// Resolve resolves a request path, including the base path, against the table.
func (r *Router) Resolve(p string) (route.Resolution, error) {
	rel, ok := r.stripBase(p)
	if !ok {
		return route.Resolution{}, fmt.Errorf("%w: %s", route.ErrNoMatch, p)
	}
	return r.table.Resolve(rel)
}

func (r *Router) stripBase(p string) (string, bool) {
	if r.base == "" {
		return p, true
	}

	pathPart, rest := p, ""
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		pathPart, rest = p[:i], p[i:]
	}

	switch {
	case pathPart == r.base:
		return "/" + rest, true
	case strings.HasPrefix(pathPart, r.base+"/"):
		return strings.TrimPrefix(pathPart, r.base) + rest, true
	default:
		return "", false
	}
}

func routeLabel(d route.Descriptor) string {
	if d.Name != "" {
		return d.Name
	}
	return d.Path
}
