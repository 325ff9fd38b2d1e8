package results

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

type exportDocument struct {
	ScanID  string  `json:"scan_id"`
	Records int     `json:"records"`
	Results Buckets `json:"results"`
}

// ExportJSON writes the merged, unfiltered buckets of rs as one JSON document.
func ExportJSON(w io.Writer, rs *ResultSet) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(exportDocument{
		ScanID:  rs.JobID,
		Records: rs.Len(),
		Results: rs.Buckets(),
	})
}

// ExportCSV writes one row per derived entry: category, value, and the
// contributing tools or entry detail.
func ExportCSV(w io.Writer, rs *ResultSet) error {
	cw := csv.NewWriter(w)
	b := rs.Buckets()

	rows := [][]string{{"Category", "Value", "Tools/Detail"}}
	for _, s := range b.Subdomains {
		rows = append(rows, []string{string(CategorySubdomains), s.Subdomain, strings.Join(s.Tools, ";")})
	}
	for _, p := range b.Ports {
		detail := fmt.Sprintf("%s %s %s %s", p.Protocol, p.Service, p.Version, p.State)
		rows = append(rows, []string{string(CategoryPorts), p.IP + ":" + strconv.Itoa(p.Port), strings.Join(strings.Fields(detail), " ")})
	}
	for _, u := range b.URLs {
		rows = append(rows, []string{string(CategoryURLs), u.URL, strings.Join(u.Tools, ";")})
	}
	for _, f := range b.Other {
		rows = append(rows, []string{string(CategoryOther), f.Text(), f.Type + "@" + f.Tool})
	}
	for _, e := range b.Errors {
		rows = append(rows, []string{string(CategoryErrors), e.Message, e.Tool})
	}

	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}
