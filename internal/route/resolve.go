package route

import (
	"fmt"
	"slices"
	"strings"
)

// Resolution is the outcome of resolving a request path against a Table.
type Resolution struct {
	// Requested is the path as given, including any query.
	Requested string
	// FinalPath is the concrete path of the page that renders.
	FinalPath string
	Name      string
	Page      *Page
	Params    map[string]string
	// Query is the raw query of the request, carried across redirects.
	Query string
	// Redirects lists the paths that redirected, in order.
	Redirects []string
}

// Redirected reports whether at least one redirect was followed.
func (r Resolution) Redirected() bool {
	return len(r.Redirects) > 0
}

// Location returns FinalPath with the preserved query.
func (r Resolution) Location() string {
	if r.Query == "" {
		return r.FinalPath
	}
	return r.FinalPath + "?" + r.Query
}

// Resolve matches p against the table and follows redirects until a page is
// reached. The query string is preserved and the fragment ignored.
func (t *Table) Resolve(p string) (Resolution, error) {
	res := Resolution{Requested: p}

	p, _, _ = strings.Cut(p, "#")
	p, res.Query, _ = strings.Cut(p, "?")
	p = t.trim(p)

	for {
		i, params, ok := t.match(p)
		if !ok {
			return Resolution{}, fmt.Errorf("%w: %s", ErrNoMatch, p)
		}

		d := t.entries[i].desc
		if !d.IsRedirect() {
			res.FinalPath = p
			if len(params) == 0 {
				res.FinalPath = d.Path
			}
			pg := *d.Page
			res.Name = d.Name
			res.Page = &pg
			res.Params = params
			return res, nil
		}

		if slices.Contains(res.Redirects, d.Path) || len(res.Redirects) >= MaxRedirects {
			return Resolution{}, fmt.Errorf("%w: %s", ErrRedirectLoop, strings.Join(append(res.Redirects, d.Path), " -> "))
		}
		res.Redirects = append(res.Redirects, d.Path)
		p = d.Redirect
	}
}

// match returns the index of the first descriptor matching the trimmed path p.
func (t *Table) match(p string) (int, map[string]string, bool) {
	segs := splitPath(t.trim(p))
	for i, e := range t.entries {
		if params, ok := matchSegments(e.segments, segs, t.opts.Sensitive); ok {
			return i, params, true
		}
	}
	return -1, nil, false
}

func matchSegments(pattern, segs []string, sensitive bool) (map[string]string, bool) {
	if len(pattern) != len(segs) {
		return nil, false
	}

	var params map[string]string
	for i, want := range pattern {
		got := segs[i]
		if name, isParam := strings.CutPrefix(want, ":"); isParam {
			if got == "" {
				return nil, false
			}
			if params == nil {
				params = make(map[string]string)
			}
			params[name] = got
			continue
		}
		if sensitive {
			if want != got {
				return nil, false
			}
		} else if !strings.EqualFold(want, got) {
			return nil, false
		}
	}
	return params, true
}
