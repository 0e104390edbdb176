package filter

import (
	"path"
	"strings"

	"github.com/yourorg/playground/internal/config"
	"github.com/yourorg/playground/internal/har"
)

// FilterConfig is an alias of config.FilterConfig.
type FilterConfig = config.FilterConfig

// Apply drops recorded exchanges that are not API calls: preflights, static
// assets, ignored paths and retried 5xx responses.
func Apply(xs []har.Exchange, cfg FilterConfig) []har.Exchange {
	filtered := make([]har.Exchange, 0, len(xs))
	for _, x := range xs {
		if strings.EqualFold(x.Method, "OPTIONS") {
			continue
		}
		if hasIgnoredExtension(x.Path, cfg.IgnoreExtensions) {
			continue
		}
		if matchesContentType(x.ResponseContentType, cfg.IgnoreContentTypes) {
			continue
		}
		if hasIgnoredPath(x.Path, cfg.IgnorePaths) {
			continue
		}
		filtered = append(filtered, x)
	}
	return removeConsecutive5xx(filtered)
}

// SameOrigin keeps the exchanges sent to origin and returns how many were
// dropped.
func SameOrigin(xs []har.Exchange, origin string) ([]har.Exchange, int) {
	out := make([]har.Exchange, 0, len(xs))
	for _, x := range xs {
		if x.Origin() == origin {
			out = append(out, x)
		}
	}
	return out, len(xs) - len(out)
}

// DominantOrigin is the origin most exchanges were sent to. Ties go to the
// origin seen first.
func DominantOrigin(xs []har.Exchange) string {
	counts := map[string]int{}
	best, bestN := "", 0
	for _, x := range xs {
		o := x.Origin()
		counts[o]++
		if counts[o] > bestN {
			best, bestN = o, counts[o]
		}
	}
	return best
}

func hasIgnoredExtension(p string, exts []string) bool {
	ext := strings.ToLower(path.Ext(p))
	if ext == "" {
		return false
	}
	for _, e := range exts {
		if strings.ToLower(strings.TrimSpace(e)) == ext {
			return true
		}
	}
	return false
}

func hasIgnoredPath(p string, fragments []string) bool {
	for _, frag := range fragments {
		frag = strings.TrimSpace(frag)
		if frag == "" {
			continue
		}
		if strings.Contains(p, frag) {
			return true
		}
	}
	return false
}

func matchesContentType(ct string, ignores []string) bool {
	if strings.TrimSpace(ct) == "" {
		return false
	}
	base := strings.ToLower(strings.TrimSpace(strings.Split(ct, ";")[0]))
	for _, p := range ignores {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if strings.HasSuffix(p, "/*") {
			if strings.HasPrefix(base, strings.TrimSuffix(p, "*")) {
				return true
			}
			continue
		}
		if base == p {
			return true
		}
	}
	return false
}

// removeConsecutive5xx keeps the first of a run of identical failing calls.
func removeConsecutive5xx(xs []har.Exchange) []har.Exchange {
	out := make([]har.Exchange, 0, len(xs))
	var prevKey string
	var prevWas5xx bool
	for _, x := range xs {
		key := strings.ToUpper(x.Method) + " " + x.Path + "?" + x.Query.Encode()
		if prevWas5xx && key == prevKey && is5xx(x.StatusCode) {
			continue
		}
		out = append(out, x)
		prevKey = key
		prevWas5xx = is5xx(x.StatusCode)
	}
	return out
}

func is5xx(code int) bool {
	return code >= 500 && code <= 599
}
