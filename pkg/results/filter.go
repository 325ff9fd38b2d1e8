package results

import (
	"strconv"
	"strings"

	rverrors "reconview/pkg/errors"
)

type Category string

const (
	CategorySubdomains Category = "subdomains"
	CategoryPorts      Category = "ports"
	CategoryURLs       Category = "urls"
	CategoryOther      Category = "other"
	CategoryErrors     Category = "errors"
)

// SearchableCategories are the categories that carry a search box and pagination.
var SearchableCategories = []Category{CategorySubdomains, CategoryPorts, CategoryURLs}

func ParseCategory(s string) (Category, error) {
	switch c := Category(s); c {
	case CategorySubdomains, CategoryPorts, CategoryURLs, CategoryOther, CategoryErrors:
		return c, nil
	}
	return "", rverrors.ErrUnknownCategory
}

func (c Category) Searchable() bool {
	for _, s := range SearchableCategories {
		if s == c {
			return true
		}
	}
	return false
}

// FilterSubdomains recomputes the merged subdomain bucket from records,
// keeping subdomains that contain term case-insensitively.
func FilterSubdomains(records []Record, term string) []SubdomainEntry {
	match := keyMatcher(term)
	a := newAttribution()
	for _, r := range records {
		p, ok := Decode(r).(SubdomainsPayload)
		if !ok {
			continue
		}
		for _, s := range p.Subdomains {
			if match(s) {
				a.add(s, r.Tool)
			}
		}
	}
	return subdomainEntries(a)
}

// FilterURLs is FilterSubdomains for the url bucket.
func FilterURLs(records []Record, term string) []URLEntry {
	match := keyMatcher(term)
	a := newAttribution()
	for _, r := range records {
		p, ok := Decode(r).(URLsPayload)
		if !ok {
			continue
		}
		for _, u := range p.URLs {
			if match(u) {
				a.add(u, r.Tool)
			}
		}
	}
	return urlEntries(a)
}

// FilterPorts keeps port entries where any of port, service, protocol,
// version or ip matches term. Port number and ip are compared against the
// raw term; the text fields ignore case.
func FilterPorts(records []Record, term string) []PortEntry {
	out := []PortEntry{}
	for _, r := range records {
		p, ok := Decode(r).(PortScanPayload)
		if !ok {
			continue
		}
		for _, host := range p.Hosts {
			for _, port := range host.Ports {
				if MatchPort(port, term) {
					out = append(out, port)
				}
			}
		}
	}
	return out
}

func MatchPort(p PortEntry, term string) bool {
	if term == "" {
		return true
	}
	lower := strings.ToLower(term)
	return strings.Contains(strconv.Itoa(p.Port), term) ||
		strings.Contains(strings.ToLower(p.Service), lower) ||
		strings.Contains(strings.ToLower(p.Protocol), lower) ||
		strings.Contains(strings.ToLower(p.Version), lower) ||
		strings.Contains(p.IP, term)
}

func keyMatcher(term string) func(string) bool {
	if term == "" {
		return func(string) bool { return true }
	}
	lower := strings.ToLower(term)
	return func(key string) bool {
		return strings.Contains(strings.ToLower(key), lower)
	}
}
