package results

import (
	"unicode"
	"unicode/utf8"
)

// FindingGroup is one collapsible section of other findings sharing a type.
type FindingGroup struct {
	Type     string         `json:"type"`
	Title    string         `json:"title"`
	Count    int            `json:"count"`
	Expanded bool           `json:"expanded"`
	Findings []OtherFinding `json:"findings"`
}

// GroupFindings partitions findings by exact type in first-seen order. Only
// the first group starts expanded.
func GroupFindings(findings []OtherFinding) []FindingGroup {
	groups := NewOrderedMap[string, []OtherFinding]()
	for _, f := range findings {
		members, _ := groups.Get(f.Type)
		groups.Set(f.Type, append(members, f))
	}

	out := make([]FindingGroup, 0, groups.Len())
	groups.Each(func(kind string, members []OtherFinding) {
		out = append(out, FindingGroup{
			Type:     kind,
			Title:    capitalize(kind),
			Count:    len(members),
			Expanded: len(out) == 0,
			Findings: members,
		})
	})
	return out
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
