package mapping

import "strings"

// Resolver answers which report line a GL code contributes to. GL codes
// without a mapping resolve to nothing; their amounts are excluded from
// aggregation rather than treated as an error.
type Resolver struct {
	refs map[string]LineRef
}

// NewResolver builds a resolver from the mapping rows of one report type.
func NewResolver(mappings []Mapping) *Resolver {
	refs := make(map[string]LineRef, len(mappings))
	for _, m := range mappings {
		code := strings.TrimSpace(m.GLCode)
		if code == "" {
			continue
		}
		refs[code] = LineRef{LineID: m.LineID, Sign: m.SignMultiplier}
	}
	return &Resolver{refs: refs}
}

// Resolve returns the line reference for a GL code, if mapped.
func (r *Resolver) Resolve(glCode string) (LineRef, bool) {
	if r == nil {
		return LineRef{}, false
	}
	ref, ok := r.refs[strings.TrimSpace(glCode)]
	return ref, ok
}

// Len reports how many GL codes are mapped.
func (r *Resolver) Len() int {
	if r == nil {
		return 0
	}
	return len(r.refs)
}
