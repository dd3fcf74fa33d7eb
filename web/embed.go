// Package web embeds the console's page templates and static assets.
package web

import "embed"

// EmbeddedFS holds templates/ and static/ for release builds.
//
//go:embed templates static
var EmbeddedFS embed.FS
