package app

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"maps"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin/render"
)

// TemplateRenderer is a gin HTML renderer for page units laid out as
//
//	templates/
//	  layouts/   base skeleton ({{ define "base" }})
//	  partials/  shared fragments such as the navigation bar
//	  <unit>/    page templates, e.g. database/manager.html
//
// Each page is parsed on a clone of layouts+partials so it can fill the
// layout's blocks. In debug mode everything is re-parsed per request.
type TemplateRenderer struct {
	templates map[string]*template.Template
	fs        fs.FS
	funcMap   template.FuncMap
	debug     bool
}

var _ render.HTMLRender = (*TemplateRenderer)(nil)

// NewTemplateRenderer creates a renderer over fsys. funcs are added to, and
// may replace, the default template functions.
func NewTemplateRenderer(fsys fs.FS, debug bool, funcs template.FuncMap) (*TemplateRenderer, error) {
	fm := templateFuncMap()
	maps.Copy(fm, funcs)

	r := &TemplateRenderer{
		fs:      fsys,
		funcMap: fm,
		debug:   debug,
	}

	// Parse eagerly in both modes so a broken template fails startup.
	templates, err := r.parseAllTemplates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	if !debug {
		r.templates = templates
	}

	return r, nil
}

// Instance returns the render.Render for page name, e.g. "chat/index.html".
func (r *TemplateRenderer) Instance(name string, data any) render.Render {
	templates, err := r.current()
	if err != nil {
		return &HTMLInstance{Name: name, err: err}
	}
	return &HTMLInstance{
		Template: templates[name],
		Name:     name,
		Data:     data,
	}
}

// Pages returns the sorted names of all page templates.
func (r *TemplateRenderer) Pages() ([]string, error) {
	templates, err := r.current()
	if err != nil {
		return nil, err
	}
	return slices.Sorted(maps.Keys(templates)), nil
}

// Has reports whether a page template called name exists.
func (r *TemplateRenderer) Has(name string) bool {
	return len(r.Missing(name)) == 0
}

// Missing returns the names that have no page template, in the order given.
// The template tree is read once per call; when it fails to parse every name
// is reported missing.
func (r *TemplateRenderer) Missing(names ...string) []string {
	templates, err := r.current()
	if err != nil {
		return slices.Clone(names)
	}
	var missing []string
	for _, name := range names {
		if _, ok := templates[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

func (r *TemplateRenderer) current() (map[string]*template.Template, error) {
	if r.debug {
		return r.parseAllTemplates()
	}
	return r.templates, nil
}

func (r *TemplateRenderer) parseAllTemplates() (map[string]*template.Template, error) {
	layoutFiles, err := fs.Glob(r.fs, "templates/layouts/*.html")
	if err != nil {
		return nil, fmt.Errorf("glob layouts: %w", err)
	}
	partialFiles, err := fs.Glob(r.fs, "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("glob partials: %w", err)
	}

	base := template.New("").Funcs(r.funcMap)
	for _, f := range slices.Concat(layoutFiles, partialFiles) {
		if err := parseFile(base, r.fs, f, f); err != nil {
			return nil, err
		}
	}

	pageFiles, err := r.discoverPageTemplates()
	if err != nil {
		return nil, fmt.Errorf("discover pages: %w", err)
	}

	templates := make(map[string]*template.Template, len(pageFiles))
	for _, pf := range pageFiles {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone base for %s: %w", pf, err)
		}
		name := strings.TrimPrefix(pf, "templates/")
		if err := parseFile(clone, r.fs, pf, name); err != nil {
			return nil, err
		}
		templates[name] = clone
	}

	return templates, nil
}

func parseFile(set *template.Template, fsys fs.FS, path, name string) error {
	content, err := fs.ReadFile(fsys, path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if _, err := set.New(name).Parse(string(content)); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// discoverPageTemplates lists .html files under templates/ outside layouts/
// and partials/.
func (r *TemplateRenderer) discoverPageTemplates() ([]string, error) {
	var pages []string
	err := fs.WalkDir(r.fs, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".html") {
			return nil
		}
		rel := strings.TrimPrefix(path, "templates/")
		if strings.HasPrefix(rel, "layouts/") || strings.HasPrefix(rel, "partials/") {
			return nil
		}
		pages = append(pages, path)
		return nil
	})
	return pages, err
}

func templateFuncMap() template.FuncMap {
	return template.FuncMap{
		// json embeds v in a script context without re-escaping.
		"json": func(v any) template.JS {
			b, err := json.Marshal(v)
			if err != nil {
				return template.JS("null")
			}
			return template.JS(b)
		},

		// href is replaced by the router's base-aware version at startup.
		"href": func(p string) string {
			return p
		},

		// param reads a route parameter, empty when absent.
		"param": func(params map[string]string, key string) string {
			return params[key]
		},
	}
}

// HTMLInstance executes a single page template.
type HTMLInstance struct {
	Template *template.Template
	Name     string
	Data     any
	err      error
}

const htmlContentType = "text/html; charset=utf-8"

// Render writes the page to w.
func (h *HTMLInstance) Render(w http.ResponseWriter) error {
	h.WriteContentType(w)
	if h.err != nil {
		return h.err
	}
	if h.Template == nil {
		return fmt.Errorf("template %q not found", h.Name)
	}
	return h.Template.ExecuteTemplate(w, h.Name, h.Data)
}

// WriteContentType sets text/html unless a Content-Type is already present.
func (h *HTMLInstance) WriteContentType(w http.ResponseWriter) {
	header := w.Header()
	if val := header["Content-Type"]; len(val) == 0 {
		header["Content-Type"] = []string{htmlContentType}
	}
}
