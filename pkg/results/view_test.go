package results

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func manySubdomains(n int) []Record {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("host%02d.example.com", i)
	}
	data, _ := json.Marshal(names)
	return []Record{{Tool: "subfinder", ResultType: TypeSubdomains, Data: data}}
}

func TestSearchResetsPage(t *testing.T) {
	st, err := GoTo(NewState(), CategorySubdomains, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, st.Subdomains.Page)

	next, err := Search(st, CategorySubdomains, "api")
	require.NoError(t, err)

	assert.Equal(t, Cursor{Search: "api", Page: 1}, next.Subdomains)
	assert.Equal(t, 3, st.Subdomains.Page, "previous state is not modified")
	assert.Equal(t, Cursor{Page: 1}, next.Ports, "other categories are unaffected")
}

func TestSearchTwiceEqualsOnce(t *testing.T) {
	rs := NewResultSet("abc123", sampleRecords())

	once, err := Search(NewState(), CategoryPorts, "tcp")
	require.NoError(t, err)
	twice, err := Search(once, CategoryPorts, "tcp")
	require.NoError(t, err)

	assert.Equal(t, once, twice)
	assert.Equal(t, Render(rs, once), Render(rs, twice))
}

func TestStateRejectsUnsearchableCategory(t *testing.T) {
	_, err := Search(NewState(), CategoryErrors, "x")
	assert.Error(t, err)

	_, err = GoTo(NewState(), CategoryOther, 2)
	assert.Error(t, err)
}

func TestRenderPaginatesCategoriesIndependently(t *testing.T) {
	records := append(manySubdomains(23), sampleRecords()[2:]...)
	rs := NewResultSet("abc123", records)

	st, err := GoTo(NewState(), CategorySubdomains, 3)
	require.NoError(t, err)
	views := Render(rs, st)

	assert.Equal(t, "23 subdomains found", views.Subdomains.Label)
	assert.Len(t, views.Subdomains.Page.Items, 3)
	assert.Equal(t, "host20.example.com", views.Subdomains.Page.Items[0].Subdomain)
	assert.Equal(t, []int{1, 2, 3}, views.Subdomains.Controls.Pages)
	assert.False(t, views.Subdomains.Controls.HasNext)

	assert.Equal(t, 1, views.Ports.Page.Number)
	assert.Equal(t, "4 ports found", views.Ports.Label)
	assert.False(t, views.Ports.Controls.Visible)
	assert.Equal(t, "2 URLs found", views.URLs.Label)
}

func TestRenderEmptyCategories(t *testing.T) {
	rs := NewResultSet("abc123", []Record{rec("nmap", TypeError, `{"message":"Nmap scan failed"}`)})

	views := Render(rs, NewState())

	assert.True(t, views.Subdomains.Empty())
	assert.Equal(t, "No subdomains found", views.Subdomains.Placeholder)
	assert.False(t, views.Subdomains.Controls.Visible)
	assert.Equal(t, 0, views.Ports.Page.Total)
	assert.Equal(t, "No open ports found", views.Ports.Placeholder)
	assert.Equal(t, "No URLs found", views.URLs.Placeholder)
	assert.Empty(t, views.Other.Groups)
	assert.Equal(t, []ScanError{{Tool: "nmap", Message: "Nmap scan failed"}}, views.Errors.Items)
}

func TestEmptyViewsCarryLoadError(t *testing.T) {
	views := EmptyViews("abc123", "Failed to load scan results. Please try refreshing the page.", NewState())

	assert.NotEmpty(t, views.LoadError)
	assert.True(t, views.Subdomains.Empty())
	assert.True(t, views.Ports.Empty())
	assert.True(t, views.URLs.Empty())
	assert.Zero(t, views.Other.Count)
	assert.Empty(t, views.Errors.Items)
}

func TestResultSetOwnsRecords(t *testing.T) {
	records := manySubdomains(2)
	rs := NewResultSet("abc123", records)

	records[0] = rec("other", TypeURLs, `["https://x"]`)

	assert.Len(t, rs.Buckets().Subdomains, 2)
	assert.Empty(t, rs.URLsView(Cursor{Page: 1}).Page.Items)
}

func TestGroupFindings(t *testing.T) {
	findings := []OtherFinding{
		{Type: "secret", Tool: "subdomainizer"},
		{Type: "email", Tool: "subdomainizer"},
		{Type: "secret", Tool: "gospider"},
		{Type: "Secret", Tool: "gospider"},
	}

	groups := GroupFindings(findings)

	require.Len(t, groups, 3)
	assert.Equal(t, "secret", groups[0].Type)
	assert.Equal(t, "Secret", groups[0].Title)
	assert.Equal(t, 2, groups[0].Count)
	assert.True(t, groups[0].Expanded)
	assert.Equal(t, "email", groups[1].Type)
	assert.False(t, groups[1].Expanded)
	assert.Equal(t, "Secret", groups[2].Type)
	assert.False(t, groups[2].Expanded)
	assert.Equal(t, []string{"subdomainizer", "gospider"}, []string{groups[0].Findings[0].Tool, groups[0].Findings[1].Tool})
}

func TestExportCSV(t *testing.T) {
	rs := NewResultSet("abc123", []Record{
		rec("subfinder", TypeSubdomains, `["a.example.com"]`),
		rec("amass", TypeSubdomains, `["a.example.com"]`),
		rec("nmap", TypePortScan, `[{"ip":"10.0.0.1","ports":[{"port":80,"protocol":"tcp","service":"http","state":"open"}]}]`),
		rec("nmap", TypeError, `{"message":"timeout"}`),
	})

	var buf bytes.Buffer
	require.NoError(t, ExportCSV(&buf, rs))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Category", "Value", "Tools/Detail"},
		{"subdomains", "a.example.com", "subfinder;amass"},
		{"ports", "10.0.0.1:80", "tcp http open"},
		{"errors", "timeout", "nmap"},
	}, rows)
}

func TestExportJSON(t *testing.T) {
	rs := NewResultSet("abc123", []Record{rec("gau", TypeURLs, `["https://example.com"]`)})

	var buf bytes.Buffer
	require.NoError(t, ExportJSON(&buf, rs))

	var doc struct {
		ScanID  string `json:"scan_id"`
		Records int    `json:"records"`
		Results struct {
			URLs []URLEntry `json:"urls"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "abc123", doc.ScanID)
	assert.Equal(t, 1, doc.Records)
	assert.Equal(t, []URLEntry{{URL: "https://example.com", Tools: []string{"gau"}}}, doc.Results.URLs)
}
