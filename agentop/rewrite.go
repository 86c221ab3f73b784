package agentop

import (
	"sort"
	"strings"
)

// Replacement substitutes the span of Request with Text.
type Replacement struct {
	Request Request
	Text    string
}

// Rewrite applies replacements to text by offset. The requests must come
// from Extract on the same text; overlapping or out-of-range replacements are
// skipped.
func Rewrite(text string, replacements []Replacement) string {
	sorted := make([]Replacement, len(replacements))
	copy(sorted, replacements)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Request.Start < sorted[j].Request.Start
	})

	var b strings.Builder
	pos := 0
	for _, r := range sorted {
		req := r.Request
		if req.Start < pos || req.End > len(text) || text[req.Start:req.End] != req.Span {
			continue
		}
		b.WriteString(text[pos:req.Start])
		b.WriteString(r.Text)
		pos = req.End
	}
	b.WriteString(text[pos:])
	return b.String()
}
