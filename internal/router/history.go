package router

import (
	"fmt"
	"strings"
)

// History selects how navigation state is carried in the URL.
type History string

// HistoryWeb keeps the route in the URL path, with no fragment.
const HistoryWeb History = "web"

// ParseHistory parses a configured history mode. An empty value selects
// HistoryWeb. Fragment-based history is rejected since fragments never reach
// the server.
func ParseHistory(s string) (History, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "web", "html5":
		return HistoryWeb, nil
	case "hash":
		return "", fmt.Errorf("history mode %q is not supported by a server-side router", s)
	default:
		return "", fmt.Errorf("invalid history mode %q: must be %q", s, HistoryWeb)
	}
}
