package convert

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// Pattern is a compiled property-name pattern. `*` matches any run of
// characters (including none); everything else matches literally and the
// pattern has to cover the whole key.
type Pattern struct {
	raw string
	g   glob.Glob
}

// CompilePattern ...
func CompilePattern(raw string) (Pattern, error) {
	// literal segments are quoted so only the wildcard keeps a meaning
	segments := strings.Split(raw, "*")
	for i, s := range segments {
		segments[i] = glob.QuoteMeta(s)
	}

	g, err := glob.Compile(strings.Join(segments, "*"))
	if err != nil {
		return Pattern{}, fmt.Errorf("invalid property pattern %q: %v", raw, err)
	}
	return Pattern{raw: raw, g: g}, nil
}

// CompilePatterns compiles every pattern of a list, failing on the first bad one
func CompilePatterns(raw []string) ([]Pattern, error) {
	patterns := make([]Pattern, 0, len(raw))
	for _, r := range raw {
		p, err := CompilePattern(r)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, p)
	}
	return patterns, nil
}

// Match ...
func (p Pattern) Match(key string) bool {
	return p.g.Match(key)
}

// String ...
func (p Pattern) String() string { return p.raw }

// Selection is the ordered, duplicate free list of property keys for one feature
type Selection []string

// Selector decides which properties of a record become feature properties
type Selector struct {
	include []Pattern
	exclude []Pattern
	// suppress is never selected, the WKT source key in WKT mode
	suppress string
}

// NewSelector compiles the include and exclude lists once for a whole export.
// An empty include list selects everything.
func NewSelector(include, exclude []string, suppress string) (*Selector, error) {
	if len(include) == 0 {
		include = []string{"*"}
	}

	inc, err := CompilePatterns(include)
	if err != nil {
		return nil, err
	}
	exc, err := CompilePatterns(exclude)
	if err != nil {
		return nil, err
	}

	return &Selector{include: inc, exclude: exc, suppress: suppress}, nil
}

// Select builds the union of keys matched by the include patterns, in
// pattern order then key order, and removes keys matched by any exclude
// pattern.
func (s *Selector) Select(keys []string) Selection {
	seen := make(map[string]bool, len(keys))
	var union Selection

	for _, p := range s.include {
		for _, k := range keys {
			if seen[k] || (s.suppress != "" && k == s.suppress) {
				continue
			}
			if p.Match(k) {
				seen[k] = true
				union = append(union, k)
			}
		}
	}

	if len(s.exclude) == 0 {
		return union
	}

	selected := union[:0]
	for _, k := range union {
		if !s.excluded(k) {
			selected = append(selected, k)
		}
	}
	return selected
}

func (s *Selector) excluded(key string) bool {
	for _, p := range s.exclude {
		if p.Match(key) {
			return true
		}
	}
	return false
}
