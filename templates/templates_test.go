package templates

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"reconview/pkg/lifecycle"
	"reconview/pkg/results"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderString(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func TestTruncateURL(t *testing.T) {
	short := "https://example.com/a"
	assert.Equal(t, short, TruncateURL(short))

	long := "https://example.com/" + strings.Repeat("é", 120)
	got := TruncateURL(long)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, maxURLDisplay+3, len([]rune(got)))
}

func TestStateQuery(t *testing.T) {
	st, err := results.Search(results.NewState(), results.CategoryPorts, "ssh")
	require.NoError(t, err)
	st, err = results.GoTo(st, results.CategoryURLs, 3)
	require.NoError(t, err)

	assert.Equal(t, "ports_q=ssh&urls_page=3", StateQuery(st).Encode())
	assert.Empty(t, StateQuery(results.NewState()))
}

func TestUserInputIsEscaped(t *testing.T) {
	snap := lifecycle.Snapshot{
		State: lifecycle.StateRunning,
		Job:   &lifecycle.Job{ID: "abc123", Target: `<script>alert(1)</script>`, Status: "running"},
	}
	out := renderString(t, ScanPanel(NewScanForm(nil, 2), snap))

	assert.NotContains(t, out, "<script>alert(1)</script>")
	assert.Contains(t, out, "&lt;script&gt;")
}

func TestScanPanelStates(t *testing.T) {
	form := NewScanForm(nil, 0)
	assert.Equal(t, 1, form.PollSeconds)

	submitting := renderString(t, ScanPanel(form, lifecycle.Snapshot{State: lifecycle.StateSubmitting}))
	assert.Contains(t, submitting, "Starting...")
	assert.Contains(t, submitting, "disabled")

	idle := renderString(t, ScanPanel(form, lifecycle.Snapshot{State: lifecycle.StateIdle, CanSubmit: true}))
	assert.Contains(t, idle, "Start Scan")
	assert.NotContains(t, idle, "disabled")
}

func TestPaginationHiddenForSinglePage(t *testing.T) {
	out := renderString(t, Pagination("abc123", results.CategoryURLs, "", results.NewControls(1, 1), nil))
	assert.Empty(t, out)

	out = renderString(t, Pagination("abc123", results.CategoryURLs, "api", results.NewControls(2, 3), nil))
	assert.Contains(t, out, `href="/results/abc123/urls?page=3&amp;q=api"`)
	assert.Contains(t, out, `hx-target="#cat-urls"`)
}

func TestOtherSectionExpandsFirstGroup(t *testing.T) {
	v := results.OtherView{
		Count: 2,
		Groups: []results.FindingGroup{
			{Title: "Api Key", Count: 1, Expanded: true},
			{Title: "Endpoint", Count: 1},
		},
	}
	out := renderString(t, OtherSection(v))
	assert.Equal(t, 1, strings.Count(out, "accordion-collapse collapse show"))
	assert.Equal(t, 1, strings.Count(out, "accordion-button collapsed"))
}

func TestCategoryLinksKeepOtherCategories(t *testing.T) {
	st, err := results.Search(results.NewState(), results.CategoryPorts, "ssh")
	require.NoError(t, err)
	st, err = results.GoTo(st, results.CategorySubdomains, 2)
	require.NoError(t, err)
	st, err = results.GoTo(st, results.CategoryURLs, 2)
	require.NoError(t, err)

	carry := carryQuery(st, results.CategoryURLs)
	assert.Equal(t, "ports_q=ssh&subdomains_page=2", carry.Encode())

	out := renderString(t, Pagination("abc123", results.CategoryURLs, "", results.NewControls(2, 3), carry))
	assert.Contains(t, out, `href="/results/abc123/urls?page=3&amp;ports_q=ssh&amp;subdomains_page=2"`)

	v := results.EmptyViews("abc123", "", st)
	out = renderString(t, CategorySection(v, results.CategoryURLs))
	assert.Contains(t, out, `<input type="hidden" name="ports_q" value="ssh">`)
	assert.Contains(t, out, `<input type="hidden" name="subdomains_page" value="2">`)
	assert.NotContains(t, out, `name="urls_page"`)
}
