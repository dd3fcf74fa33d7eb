package app

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/dataconsole/internal/middleware"
	"github.com/simp-lee/dataconsole/internal/pkg"
	"github.com/simp-lee/dataconsole/internal/router"
)

var errorTemplates = map[int]string{
	http.StatusBadRequest:          "errors/400.html",
	http.StatusNotFound:            "errors/404.html",
	http.StatusInternalServerError: "errors/500.html",
}

// errorPage is the template data of errors/*.html.
type errorPage struct {
	Title     string
	Status    int
	Message   string
	Nav       []router.NavItem
	RequestID string
}

// renderError answers with an error page for browsers and the JSON envelope
// for everyone else. An explicit application/json Accept wins over */*.
func renderError(c *gin.Context, code int, message string, nav []router.NavItem) {
	accept := strings.ToLower(c.GetHeader("Accept"))
	if strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html") {
		c.JSON(code, pkg.Response{Code: code, Message: message})
		return
	}
	if !acceptsHTML(c) {
		c.JSON(code, pkg.Response{Code: code, Message: message})
		return
	}

	renderHTMLErrorPage(c, code, errorPage{
		Title:     http.StatusText(code),
		Status:    code,
		Message:   message,
		Nav:       nav,
		RequestID: middleware.GetRequestID(c),
	})
}

// renderHTMLErrorPage falls back to errors/500.html for unmapped codes and
// to plain text when rendering panics.
func renderHTMLErrorPage(c *gin.Context, code int, data errorPage) {
	defer func() {
		if r := recover(); r != nil {
			c.Data(code, "text/plain; charset=utf-8",
				[]byte(fmt.Sprintf("%d %s", code, statusText(code))))
		}
	}()

	tmpl, ok := errorTemplates[code]
	if !ok {
		tmpl = errorTemplates[http.StatusInternalServerError]
	}
	c.HTML(code, tmpl, data)
}

// acceptsHTML matches text/html, */* and an absent Accept header.
func acceptsHTML(c *gin.Context) bool {
	accept := strings.ToLower(c.GetHeader("Accept"))
	return strings.Contains(accept, "text/html") ||
		strings.Contains(accept, "*/*") ||
		strings.TrimSpace(accept) == ""
}

func statusText(code int) string {
	if s := http.StatusText(code); s != "" {
		return s
	}
	return "Error"
}
