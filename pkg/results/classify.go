package results

import (
	"bytes"
	"encoding/json"
)

type SubdomainEntry struct {
	Subdomain string   `json:"subdomain"`
	Tools     []string `json:"tools"`
}

type URLEntry struct {
	URL   string   `json:"url"`
	Tools []string `json:"tools"`
}

type PortEntry struct {
	IP       string `json:"ip"`
	Port     int    `json:"port"`
	Protocol string `json:"protocol"`
	Service  string `json:"service"`
	Version  string `json:"version"`
	State    string `json:"state"`
}

// StateClass buckets the free-form port state into open, closed, filtered or other.
func (p PortEntry) StateClass() string {
	switch p.State {
	case "open", "closed", "filtered":
		return p.State
	default:
		return "other"
	}
}

type OtherFinding struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value,omitempty"`
	Tool  string          `json:"tool"`
}

// Text renders the finding value for display: strings unquoted, anything else
// as compact JSON.
func (f OtherFinding) Text() string {
	if isNull(f.Value) {
		return ""
	}
	var s string
	if err := json.Unmarshal(f.Value, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, f.Value); err != nil {
		return string(f.Value)
	}
	return buf.String()
}

type ScanError struct {
	Tool    string `json:"tool"`
	Message string `json:"message"`
}

// IgnoredRecord reports a record whose data did not have the expected shape.
type IgnoredRecord struct {
	Index  int    `json:"index"`
	Tool   string `json:"tool"`
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// Buckets holds every derived collection computed from one result set.
type Buckets struct {
	Subdomains []SubdomainEntry `json:"subdomains"`
	Ports      []PortEntry      `json:"ports"`
	URLs       []URLEntry       `json:"urls"`
	Other      []OtherFinding   `json:"other"`
	Errors     []ScanError      `json:"errors"`
	Ignored    []IgnoredRecord  `json:"ignored,omitempty"`
}

// Classify folds records into buckets in order. It never mutates records and
// returns identical buckets for identical input.
func Classify(records []Record) Buckets {
	subdomains := newAttribution()
	urls := newAttribution()
	b := Buckets{
		Ports:  []PortEntry{},
		Other:  []OtherFinding{},
		Errors: []ScanError{},
	}

	for i, r := range records {
		switch p := Decode(r).(type) {
		case SubdomainsPayload:
			for _, s := range p.Subdomains {
				subdomains.add(s, r.Tool)
			}
		case URLsPayload:
			for _, u := range p.URLs {
				urls.add(u, r.Tool)
			}
		case PortScanPayload:
			for _, host := range p.Hosts {
				b.Ports = append(b.Ports, host.Ports...)
			}
		case FindingsPayload:
			b.Other = append(b.Other, p.Findings...)
		case ErrorPayload:
			b.Errors = append(b.Errors, ScanError{Tool: r.Tool, Message: p.Message})
		case UnknownPayload:
			kind := p.Type
			if kind == "" {
				kind = defaultFindingType
			}
			b.Other = append(b.Other, OtherFinding{Type: kind, Value: p.Raw, Tool: r.Tool})
		case IgnoredPayload:
			b.Ignored = append(b.Ignored, IgnoredRecord{Index: i, Tool: r.Tool, Type: p.Type, Reason: p.Reason})
		}
	}

	b.Subdomains = subdomainEntries(subdomains)
	b.URLs = urlEntries(urls)
	return b
}

func subdomainEntries(a *attribution) []SubdomainEntry {
	out := make([]SubdomainEntry, 0, a.entries.Len())
	a.each(func(key string, tools []string) {
		out = append(out, SubdomainEntry{Subdomain: key, Tools: append([]string(nil), tools...)})
	})
	return out
}

func urlEntries(a *attribution) []URLEntry {
	out := make([]URLEntry, 0, a.entries.Len())
	a.each(func(key string, tools []string) {
		out = append(out, URLEntry{URL: key, Tools: append([]string(nil), tools...)})
	})
	return out
}
