// Package docs renders reference pages for a catalog and the navigation
// helpers the playground UI uses.
package docs

import (
	"regexp"
	"strings"

	"github.com/yourorg/playground/internal/catalog"
)

var (
	methodMarker = regexp.MustCompile(`(?i)\((GET|POST|PUT|DELETE)\)`)
	methodStrip  = regexp.MustCompile(`(?i)\s*\((GET|POST|PUT|DELETE)\)`)
)

// ParseSidebarLabel finds a "(METHOD)" marker in a navigation label.
// It returns the upper-cased method and the label with the first marker removed.
func ParseSidebarLabel(label string) (method, text string, ok bool) {
	m := methodMarker.FindStringSubmatch(label)
	if m == nil {
		return "", label, false
	}
	loc := methodStrip.FindStringIndex(label)
	return strings.ToUpper(m[1]), label[:loc[0]] + label[loc[1]:], true
}

// Badge is the CSS class for a method badge.
func Badge(method string) string {
	return strings.ToLower(method)
}

// SidebarItem is one navigation entry.
type SidebarItem struct {
	ID     string `json:"id"`
	Method string `json:"method,omitempty"`
	Badge  string `json:"badge,omitempty"`
	Label  string `json:"label"`
	Path   string `json:"path"`
}

// Sidebar lists the catalog endpoints as navigation entries. Labels without
// a method marker fall back to the endpoint's own method.
func Sidebar(c *catalog.Catalog) []SidebarItem {
	items := make([]SidebarItem, 0, len(c.Endpoints))
	for _, ep := range c.Endpoints {
		item := SidebarItem{ID: ep.ID, Path: ep.Path, Label: ep.Label}
		if method, text, ok := ParseSidebarLabel(ep.Label); ok {
			item.Method, item.Label = method, text
		} else {
			item.Method = ep.Method
		}
		if item.Label == "" {
			item.Label = ep.Path
		}
		item.Badge = Badge(item.Method)
		items = append(items, item)
	}
	return items
}
