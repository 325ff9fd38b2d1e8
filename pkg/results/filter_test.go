package results

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords() []Record {
	return []Record{
		rec("subfinder", TypeSubdomains, `["api.example.com","www.example.com","Mail.example.com"]`),
		rec("amass", TypeSubdomains, `["www.example.com","dev.example.com"]`),
		rec("gau", TypeURLs, `["https://www.example.com/Login","https://api.example.com/v1"]`),
		rec("gospider", TypeURLs, `["https://www.example.com/Login"]`),
		rec("nmap", TypePortScan, `[
			{"ip":"10.0.0.180","ports":[{"port":22,"protocol":"tcp","service":"ssh","version":"OpenSSH 8.9","state":"open"}]},
			{"ip":"10.0.0.5","ports":[
				{"port":8080,"protocol":"tcp","service":"http-proxy","version":"","state":"open"},
				{"port":443,"protocol":"tcp","service":"https","version":"nginx 1.24","state":"open"},
				{"port":53,"protocol":"UDP","service":"domain","version":"","state":"filtered"}
			]}
		]`),
	}
}

func TestFilterSubdomains(t *testing.T) {
	records := sampleRecords()

	tests := []struct {
		name string
		term string
		want []SubdomainEntry
	}{
		{
			name: "empty term returns merged bucket",
			term: "",
			want: Classify(records).Subdomains,
		},
		{
			name: "case-insensitive substring",
			term: "WWW",
			want: []SubdomainEntry{{Subdomain: "www.example.com", Tools: []string{"subfinder", "amass"}}},
		},
		{
			name: "matches mixed case keys",
			term: "mail",
			want: []SubdomainEntry{{Subdomain: "Mail.example.com", Tools: []string{"subfinder"}}},
		},
		{
			name: "no match",
			term: "staging",
			want: []SubdomainEntry{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterSubdomains(records, tt.term))
		})
	}
}

func TestFilterURLs(t *testing.T) {
	records := sampleRecords()

	assert.Equal(t, Classify(records).URLs, FilterURLs(records, ""))

	got := FilterURLs(records, "login")
	require.Len(t, got, 1)
	assert.Equal(t, URLEntry{URL: "https://www.example.com/Login", Tools: []string{"gau", "gospider"}}, got[0])
}

func TestFilterPorts(t *testing.T) {
	records := sampleRecords()

	tests := []struct {
		name  string
		term  string
		ports []int
	}{
		{name: "empty term", term: "", ports: []int{22, 8080, 443, 53}},
		{name: "port substring or ip substring", term: "80", ports: []int{22, 8080}},
		{name: "service ignores case", term: "SSH", ports: []int{22}},
		{name: "protocol ignores case", term: "udp", ports: []int{53}},
		{name: "version", term: "nginx", ports: []int{443}},
		{name: "ip uses raw term", term: "10.0.0.5", ports: []int{8080, 443, 53}},
		{name: "no match", term: "rdp", ports: []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterPorts(records, tt.term)
			numbers := make([]int, 0, len(got))
			for _, p := range got {
				numbers = append(numbers, p.Port)
			}
			assert.Equal(t, tt.ports, numbers)
		})
	}
}

func TestFilterPortsMatchesPortAndIPSubstrings(t *testing.T) {
	records := []Record{
		rec("nmap", TypePortScan, `[{"ip":"192.168.1.180","ports":[{"port":22,"protocol":"tcp","service":"ssh","state":"open"}]},{"ip":"192.168.1.2","ports":[{"port":8080,"protocol":"tcp","service":"http","state":"open"}]}]`),
	}

	got := FilterPorts(records, "80")

	require.Len(t, got, 2)
	assert.Equal(t, "192.168.1.180", got[0].IP)
	assert.Equal(t, 8080, got[1].Port)
}

func TestFilterIsIdempotent(t *testing.T) {
	records := sampleRecords()

	assert.Equal(t, FilterSubdomains(records, "example"), FilterSubdomains(records, "example"))
	assert.Equal(t, FilterPorts(records, "tcp"), FilterPorts(records, "tcp"))
	assert.Equal(t, FilterURLs(records, "www"), FilterURLs(records, "www"))
}

func TestParseCategory(t *testing.T) {
	for _, c := range []string{"subdomains", "ports", "urls", "other", "errors"} {
		got, err := ParseCategory(c)
		require.NoError(t, err)
		assert.Equal(t, Category(c), got)
	}

	_, err := ParseCategory("screenshots")
	assert.Error(t, err)

	assert.True(t, CategoryPorts.Searchable())
	assert.False(t, CategoryErrors.Searchable())
}
