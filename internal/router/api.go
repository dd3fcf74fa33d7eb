package router

import (
	"github.com/gin-gonic/gin"

	"github.com/simp-lee/dataconsole/internal/pkg"
)

// RouteView is the JSON form of a descriptor.
type RouteView struct {
	Path     string `json:"path"`
	Href     string `json:"href"`
	Name     string `json:"name,omitempty"`
	Redirect string `json:"redirect,omitempty"`
	Page     string `json:"page,omitempty"`
	Title    string `json:"title,omitempty"`
}

// ResolutionView is the JSON form of a route.Resolution.
type ResolutionView struct {
	Requested  string            `json:"requested"`
	Location   string            `json:"location"`
	Name       string            `json:"name,omitempty"`
	Page       string            `json:"page"`
	Template   string            `json:"template"`
	Params     map[string]string `json:"params,omitempty"`
	Redirects  []string          `json:"redirects,omitempty"`
	Redirected bool              `json:"redirected"`
}

// RegisterAPI registers the route table endpoints on g:
//
//	GET /routes                  list descriptors in table order
//	GET /routes/resolve?path=... resolve a path, following redirects
func (r *Router) RegisterAPI(g gin.IRoutes) {
	g.GET("/routes", r.listRoutes)
	g.GET("/routes/resolve", r.resolveRoute)
}

func (r *Router) listRoutes(c *gin.Context) {
	descs := r.table.Descriptors()
	views := make([]RouteView, 0, len(descs))
	for _, d := range descs {
		v := RouteView{
			Path:  d.Path,
			Href:  r.Href(d.Path),
			Name:  d.Name,
			Title: d.Title(),
		}
		if d.IsRedirect() {
			v.Redirect = r.Href(d.Redirect)
		} else {
			v.Page = d.Page.Name
		}
		views = append(views, v)
	}
	pkg.Success(c, views)
}

func (r *Router) resolveRoute(c *gin.Context) {
	p := c.Query("path")
	if p == "" {
		pkg.BadRequest(c, "query parameter path is required")
		return
	}

	res, err := r.Resolve(p)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	redirects := make([]string, len(res.Redirects))
	for i, rp := range res.Redirects {
		redirects[i] = r.Href(rp)
	}
	if len(redirects) == 0 {
		redirects = nil
	}

	pkg.Success(c, ResolutionView{
		Requested:  res.Requested,
		Location:   r.Href(res.FinalPath) + querySuffix(res.Query),
		Name:       res.Name,
		Page:       res.Page.Name,
		Template:   res.Page.Template,
		Params:     res.Params,
		Redirects:  redirects,
		Redirected: res.Redirected(),
	})
}

func querySuffix(q string) string {
	if q == "" {
		return ""
	}
	return "?" + q
}
