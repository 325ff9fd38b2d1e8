// Package templates renders the dashboard pages and HTMX partials.
package templates

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"reconview/internal/catalog"
	"reconview/pkg/lifecycle"
	"reconview/pkg/results"
)

const maxURLDisplay = 100

// ScanForm is what the submission form needs to render.
type ScanForm struct {
	Target   string
	Tools    []catalog.Tool
	Selected map[string]bool
	// PollSeconds is how often the progress panel refreshes itself.
	PollSeconds int
}

// NewScanForm preselects the catalog defaults.
func NewScanForm(tools []catalog.Tool, pollSeconds int) ScanForm {
	selected := make(map[string]bool)
	for _, t := range tools {
		if t.Default {
			selected[t.Name] = true
		}
	}
	if pollSeconds < 1 {
		pollSeconds = 1
	}
	return ScanForm{Tools: tools, Selected: selected, PollSeconds: pollSeconds}
}

func targetValue(form ScanForm, snap lifecycle.Snapshot) string {
	if snap.Job != nil {
		return snap.Job.Target
	}
	return form.Target
}

func isSelected(form ScanForm, snap lifecycle.Snapshot, name string) bool {
	if snap.Job != nil {
		for _, t := range snap.Job.Tools {
			if t == name {
				return true
			}
		}
		return false
	}
	return form.Selected[name]
}

func statusBadge(s lifecycle.State) string {
	switch s {
	case lifecycle.StateCompleted:
		return "bg-success"
	case lifecycle.StateFailed:
		return "bg-danger"
	default:
		return "bg-primary"
	}
}

// StateQuery encodes st as the query parameters of a full results page.
func StateQuery(st results.State) url.Values {
	return carryQuery(st, "")
}

// carryQuery encodes the cursors of every searchable category except skip,
// so links of one category keep the others in place.
func carryQuery(st results.State, skip results.Category) url.Values {
	q := url.Values{}
	for _, c := range results.SearchableCategories {
		if c == skip {
			continue
		}
		cur, _ := st.Cursor(c)
		if cur.Search != "" {
			q.Set(string(c)+"_q", cur.Search)
		}
		if cur.Page > 1 {
			q.Set(string(c)+"_page", itoa(cur.Page))
		}
	}
	return q
}

type hiddenField struct {
	Name  string
	Value string
}

func hiddenFields(q url.Values) []hiddenField {
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]hiddenField, 0, len(keys))
	for _, k := range keys {
		for _, v := range q[k] {
			fields = append(fields, hiddenField{Name: k, Value: v})
		}
	}
	return fields
}

func sectionID(c results.Category) string {
	return "cat-" + string(c)
}

func categoryPath(jobID string, c results.Category) string {
	return "/results/" + url.PathEscape(jobID) + "/" + string(c)
}

// categoryLink points at page of c under search, carrying the other
// categories' cursors along.
func categoryLink(jobID string, c results.Category, search string, page int, carry url.Values) string {
	q := url.Values{}
	for k, v := range carry {
		q[k] = v
	}
	if search != "" {
		q.Set("q", search)
	}
	if page > 1 {
		q.Set("page", itoa(page))
	}
	path := categoryPath(jobID, c)
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

func exportPath(jobID, format string) string {
	return "/api/results/" + url.PathEscape(jobID) + "/export?format=" + format
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func portBadge(class string) string {
	switch class {
	case "open":
		return "bg-success"
	case "closed":
		return "bg-danger"
	case "filtered":
		return "bg-warning"
	default:
		return "bg-secondary"
	}
}

// TruncateURL shortens long URLs for display.
func TruncateURL(u string) string {
	r := []rune(u)
	if len(r) <= maxURLDisplay {
		return u
	}
	return string(r[:maxURLDisplay]) + "..."
}

func splitTools(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func formatUnix(sec int64) string {
	if sec == 0 {
		return ""
	}
	return time.Unix(sec, 0).UTC().Format("2006-01-02 15:04:05")
}
