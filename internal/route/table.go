package route

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MaxRedirects bounds the length of a redirect chain.
const MaxRedirects = 10

var validate = validator.New()

// Options control how request paths are matched against descriptor paths.
type Options struct {
	// Sensitive makes static segments match case-sensitively.
	Sensitive bool
	// Strict makes a trailing slash significant.
	Strict bool
}

// Option configures a Table.
type Option func(*Options)

// WithSensitive toggles case-sensitive matching.
func WithSensitive(on bool) Option {
	return func(o *Options) { o.Sensitive = on }
}

// WithStrict toggles trailing-slash sensitive matching.
func WithStrict(on bool) Option {
	return func(o *Options) { o.Strict = on }
}

type entry struct {
	desc     Descriptor
	segments []string
}

// Table is an ordered, validated, read-only list of descriptors.
type Table struct {
	entries []entry
	byName  map[string]int
	opts    Options
}

// New validates descs and builds a Table. Descriptors are copied, so later
// changes to the caller's slice do not affect the table.
func New(descs []Descriptor, opts ...Option) (*Table, error) {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}

	t := &Table{
		entries: make([]entry, 0, len(descs)),
		byName:  make(map[string]int, len(descs)),
		opts:    o,
	}

	seenPaths := make(map[string]int, len(descs))
	for i, d := range descs {
		if err := validate.Struct(d); err != nil {
			return nil, &ConfigError{Index: i, Path: d.Path, Err: fmt.Errorf("%w: %w", ErrInvalidDescriptor, err)}
		}

		d = d.clone()
		d.Path = t.trim(d.Path)
		key := t.pathKey(d.Path)
		if prev, ok := seenPaths[key]; ok {
			return nil, &ConfigError{Index: i, Path: d.Path, Err: fmt.Errorf("%w: already declared by route[%d]", ErrDuplicatePath, prev)}
		}
		seenPaths[key] = i

		segs := splitPath(d.Path)
		if prev, mine, theirs, ok := t.paramConflict(segs); ok {
			return nil, &ConfigError{Index: i, Path: d.Path, Err: fmt.Errorf("%w: parameter %s conflicts with %s of route[%d]", ErrDuplicatePath, mine, theirs, prev)}
		}

		if d.Name != "" {
			if prev, ok := t.byName[d.Name]; ok {
				return nil, &ConfigError{Index: i, Path: d.Path, Err: fmt.Errorf("%w: %q already declared by route[%d]", ErrDuplicateName, d.Name, prev)}
			}
			t.byName[d.Name] = i
		}

		t.entries = append(t.entries, entry{desc: d, segments: segs})
	}

	if err := t.check(); err != nil {
		return nil, err
	}
	return t, nil
}

// paramConflict finds an earlier entry sharing a prefix with segs whose
// parameter at the next position has a different name. Such pairs cannot be
// mounted side by side on the HTTP router.
func (t *Table) paramConflict(segs []string) (prev int, mine, theirs string, ok bool) {
	for i, e := range t.entries {
		n := min(len(segs), len(e.segments))
		for j := 0; j < n; j++ {
			a, b := segs[j], e.segments[j]
			aParam, bParam := strings.HasPrefix(a, ":"), strings.HasPrefix(b, ":")
			if aParam && bParam {
				if a != b {
					return i, a, b, true
				}
				continue
			}
			if aParam || bParam || a != b {
				break
			}
		}
	}
	return 0, "", "", false
}

// MustNew is like New but panics on an invalid table. It is meant for
// tables written as literals in source code.
func MustNew(descs []Descriptor, opts ...Option) *Table {
	t, err := New(descs, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

// check enforces the table-wide invariants: a redirect at the root, and
// redirect targets that eventually reach a page.
func (t *Table) check() error {
	rootIdx, _, ok := t.match("/")
	if !ok {
		return &ConfigError{Index: -1, Err: ErrMissingRoot}
	}
	if root := t.entries[rootIdx].desc; !root.IsRedirect() {
		return &ConfigError{Index: rootIdx, Path: root.Path, Err: ErrRootNotRedirect}
	}

	for i, e := range t.entries {
		if !e.desc.IsRedirect() {
			continue
		}
		if _, _, ok := t.match(e.desc.Redirect); !ok {
			return &ConfigError{Index: i, Path: e.desc.Path, Err: fmt.Errorf("%w: %s", ErrUnknownTarget, e.desc.Redirect)}
		}
		if _, err := t.Resolve(e.desc.Path); err != nil {
			return &ConfigError{Index: i, Path: e.desc.Path, Err: err}
		}
	}
	return nil
}

// Options returns the matching options the table was built with.
func (t *Table) Options() Options {
	return t.opts
}

// Len returns the number of descriptors.
func (t *Table) Len() int {
	return len(t.entries)
}

// Descriptors returns a copy of the descriptors in declaration order.
func (t *Table) Descriptors() []Descriptor {
	out := make([]Descriptor, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.desc.clone()
	}
	return out
}

// ByName returns the descriptor registered under name.
func (t *Table) ByName(name string) (Descriptor, bool) {
	i, ok := t.byName[name]
	if !ok {
		return Descriptor{}, false
	}
	return t.entries[i].desc.clone(), true
}

// URL builds the path of the named route, substituting params into ":name"
// segments and appending query when non-empty.
func (t *Table) URL(name string, params map[string]string, query url.Values) (string, error) {
	i, ok := t.byName[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownName, name)
	}

	e := t.entries[i]
	if len(e.segments) == 0 {
		return withQuery("/", query), nil
	}

	var b strings.Builder
	for _, seg := range e.segments {
		b.WriteByte('/')
		if p, isParam := strings.CutPrefix(seg, ":"); isParam {
			v := params[p]
			if v == "" {
				return "", fmt.Errorf("%w: %q for route %q", ErrMissingParam, p, name)
			}
			b.WriteString(url.PathEscape(v))
			continue
		}
		b.WriteString(seg)
	}
	return withQuery(b.String(), query), nil
}

func withQuery(p string, query url.Values) string {
	if len(query) == 0 {
		return p
	}
	return p + "?" + query.Encode()
}

// trim drops a trailing slash from non-root paths unless matching is strict.
func (t *Table) trim(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if !t.opts.Strict && len(p) > 1 {
		p = strings.TrimRight(p, "/")
		if p == "" {
			p = "/"
		}
	}
	return p
}

// pathKey identifies paths that would match the same requests.
func (t *Table) pathKey(p string) string {
	segs := splitPath(p)
	for i, s := range segs {
		if strings.HasPrefix(s, ":") {
			segs[i] = ":"
		} else if !t.opts.Sensitive {
			segs[i] = strings.ToLower(s)
		}
	}
	return "/" + strings.Join(segs, "/")
}

func splitPath(p string) []string {
	if p == "/" || p == "" {
		return nil
	}
	return strings.Split(strings.TrimPrefix(p, "/"), "/")
}
