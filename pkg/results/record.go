package results

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Result types declared by the backend.
const (
	TypeSubdomains = "subdomains"
	TypePortScan   = "port_scan"
	TypeURLs       = "urls"
	TypeFindings   = "findings"
	TypeError      = "error"
)

const (
	defaultFindingType  = "unknown"
	defaultErrorMessage = "Unknown error"
)

// Record is one tool's contribution of one typed slice of scan output.
type Record struct {
	Tool       string          `json:"tool"`
	ResultType string          `json:"result_type"`
	Data       json.RawMessage `json:"data"`
	CreatedAt  string          `json:"created_at,omitempty"`
}

// Payload is the decoded, shape-checked form of a record's data. Exactly one
// concrete payload type exists per result type.
type Payload interface {
	payload()
}

type SubdomainsPayload struct {
	Subdomains []string
}

type HostPorts struct {
	IP    string
	Ports []PortEntry
}

type PortScanPayload struct {
	Hosts []HostPorts
}

type URLsPayload struct {
	URLs []string
}

type FindingsPayload struct {
	Findings []OtherFinding
}

type ErrorPayload struct {
	Message string
}

// UnknownPayload carries records whose result type is not recognized.
type UnknownPayload struct {
	Type string
	Raw  json.RawMessage
}

// IgnoredPayload is a known result type whose data had the wrong container shape.
type IgnoredPayload struct {
	Type   string
	Reason string
}

func (SubdomainsPayload) payload() {}
func (PortScanPayload) payload()   {}
func (URLsPayload) payload()       {}
func (FindingsPayload) payload()   {}
func (ErrorPayload) payload()      {}
func (UnknownPayload) payload()    {}
func (IgnoredPayload) payload()    {}

// Decode validates r.Data against the shape its result type requires.
// Malformed containers yield an IgnoredPayload; malformed elements inside a
// well-formed container are skipped.
func Decode(r Record) Payload {
	switch r.ResultType {
	case TypeSubdomains:
		items, ok := decodeArray(r.Data)
		if !ok {
			return IgnoredPayload{Type: r.ResultType, Reason: "data is not an array"}
		}
		return SubdomainsPayload{Subdomains: decodeStrings(items)}

	case TypeURLs:
		items, ok := decodeArray(r.Data)
		if !ok {
			return IgnoredPayload{Type: r.ResultType, Reason: "data is not an array"}
		}
		return URLsPayload{URLs: decodeStrings(items)}

	case TypePortScan:
		items, ok := decodeArray(r.Data)
		if !ok {
			return IgnoredPayload{Type: r.ResultType, Reason: "data is not an array"}
		}
		return PortScanPayload{Hosts: decodeHosts(items)}

	case TypeFindings:
		items, ok := decodeArray(r.Data)
		if !ok {
			return IgnoredPayload{Type: r.ResultType, Reason: "data is not an array"}
		}
		return FindingsPayload{Findings: decodeFindings(items, r.Tool)}

	case TypeError:
		return ErrorPayload{Message: decodeErrorMessage(r.Data)}

	default:
		return UnknownPayload{Type: r.ResultType, Raw: r.Data}
	}
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func decodeArray(data json.RawMessage) ([]json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, false
	}
	return items, true
}

func decodeStrings(items []json.RawMessage) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if isNull(item) {
			continue
		}
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			continue
		}
		out = append(out, s)
	}
	return out
}

type rawHost struct {
	IP    string            `json:"ip"`
	Ports []json.RawMessage `json:"ports"`
}

type rawPort struct {
	Port     json.RawMessage `json:"port"`
	Protocol string          `json:"protocol"`
	Service  string          `json:"service"`
	Version  string          `json:"version"`
	State    string          `json:"state"`
}

func decodeHosts(items []json.RawMessage) []HostPorts {
	hosts := make([]HostPorts, 0, len(items))
	for _, item := range items {
		var host rawHost
		if err := json.Unmarshal(item, &host); err != nil {
			continue
		}
		hp := HostPorts{IP: host.IP}
		for _, rp := range host.Ports {
			var p rawPort
			if err := json.Unmarshal(rp, &p); err != nil {
				continue
			}
			number, ok := parsePortNumber(p.Port)
			if !ok {
				continue
			}
			hp.Ports = append(hp.Ports, PortEntry{
				IP:       host.IP,
				Port:     number,
				Protocol: p.Protocol,
				Service:  p.Service,
				Version:  p.Version,
				State:    p.State,
			})
		}
		hosts = append(hosts, hp)
	}
	return hosts
}

// parsePortNumber accepts a JSON number or a numeric string; the backend's
// nmap parser reports port ids as strings.
func parsePortNumber(raw json.RawMessage) (int, bool) {
	if isNull(raw) {
		return 0, false
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return n, true
}

type rawFinding struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

func decodeFindings(items []json.RawMessage, tool string) []OtherFinding {
	out := make([]OtherFinding, 0, len(items))
	for _, item := range items {
		trimmed := bytes.TrimSpace(item)
		if len(trimmed) == 0 || isNull(trimmed) {
			continue
		}
		// Elements that are not objects still count, as untyped findings
		// without a value.
		if trimmed[0] != '{' {
			out = append(out, OtherFinding{Type: defaultFindingType, Tool: tool})
			continue
		}
		var f rawFinding
		if err := json.Unmarshal(trimmed, &f); err != nil {
			continue
		}
		kind := f.Type
		if kind == "" {
			kind = defaultFindingType
		}
		out = append(out, OtherFinding{Type: kind, Value: f.Value, Tool: tool})
	}
	return out
}

func decodeErrorMessage(data json.RawMessage) string {
	var body struct {
		Message string `json:"message"`
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return defaultErrorMessage
	}
	if err := json.Unmarshal(trimmed, &body); err != nil || body.Message == "" {
		return defaultErrorMessage
	}
	return body.Message
}
