package router

import (
	"github.com/gin-gonic/gin"

	"github.com/simp-lee/dataconsole/internal/middleware"
	"github.com/simp-lee/dataconsole/internal/route"
)

// PageData is the template data of every rendered page.
type PageData struct {
	Title     string
	Name      string
	Page      string
	Path      string
	Base      string
	Params    map[string]string
	Meta      map[string]string
	Nav       []NavItem
	RequestID string
}

// NavItem is one entry of the navigation bar.
type NavItem struct {
	Name   string
	Title  string
	URL    string
	Active bool
}

// buildNav lists named static pages in table order.
func (r *Router) buildNav() []NavItem {
	var items []NavItem
	for _, d := range r.table.Descriptors() {
		if d.Name == "" || d.IsRedirect() || d.HasParams() {
			continue
		}
		items = append(items, NavItem{
			Name:  d.Name,
			Title: d.Title(),
			URL:   r.Href(d.Path),
		})
	}
	return items
}

// Nav returns the navigation bar with the item named active marked.
func (r *Router) Nav(active string) []NavItem {
	items := make([]NavItem, len(r.nav))
	copy(items, r.nav)
	for i := range items {
		items[i].Active = items[i].Name == active
	}
	return items
}

func (r *Router) pageData(c *gin.Context, d route.Descriptor) PageData {
	var params map[string]string
	if len(c.Params) > 0 {
		params = make(map[string]string, len(c.Params))
		for _, p := range c.Params {
			params[p.Key] = p.Value
		}
	}

	return PageData{
		Title:     d.Title(),
		Name:      d.Name,
		Page:      d.Page.Name,
		Path:      c.Request.URL.Path,
		Base:      r.base,
		Params:    params,
		Meta:      d.Meta,
		Nav:       r.Nav(d.Name),
		RequestID: middleware.GetRequestID(c),
	}
}
