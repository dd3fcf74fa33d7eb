// Package route declares the console's navigable paths.
//
// A Table is an ordered, immutable list of Descriptors. Each descriptor binds a
// URL path either to a redirect or to a Page. Tables are validated once, at
// construction, and are safe for concurrent reads afterwards.
package route

import (
	"maps"
	"strings"
)

// Page references a page-rendering unit. Template is the page template path
// relative to templates/, e.g. "chat/index.html".
type Page struct {
	Name     string `validate:"required"`
	Template string `validate:"required,endswith=.html"`
	Title    string
}

// Descriptor maps a URL path to a redirect or a page.
//
// Path may contain ":name" segments. Exactly one of Redirect and Page is set;
// Redirect must be a static in-app path.
type Descriptor struct {
	Path     string            `validate:"required,startswith=/,excludesall=?#*"`
	Name     string            `validate:"omitempty,excludesall=/"`
	Redirect string            `validate:"omitempty,startswith=/,excludesall=?#*:,excluded_with=Page"`
	Page     *Page             `validate:"required_without=Redirect"`
	Meta     map[string]string `validate:"-"`
}

// IsRedirect reports whether the descriptor redirects instead of rendering.
func (d Descriptor) IsRedirect() bool {
	return d.Redirect != ""
}

// Title returns the meta "title" entry, falling back to the page title.
func (d Descriptor) Title() string {
	if t := d.Meta["title"]; t != "" {
		return t
	}
	if d.Page != nil {
		return d.Page.Title
	}
	return ""
}

// HasParams reports whether the path contains ":name" segments.
func (d Descriptor) HasParams() bool {
	return strings.Contains(d.Path, "/:")
}

func (d Descriptor) clone() Descriptor {
	out := d
	if d.Page != nil {
		p := *d.Page
		out.Page = &p
	}
	if d.Meta != nil {
		out.Meta = maps.Clone(d.Meta)
	}
	return out
}
