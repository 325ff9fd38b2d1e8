package results

import (
	"fmt"

	rverrors "reconview/pkg/errors"
)

// Cursor is the search term and current page of one searchable category.
type Cursor struct {
	Search string `json:"search" form:"q"`
	Page   int    `json:"page" form:"page"`
}

// State is the whole view state of a results page. It is a value: every
// update returns a new State and leaves the old one untouched.
type State struct {
	Subdomains Cursor `json:"subdomains"`
	Ports      Cursor `json:"ports"`
	URLs       Cursor `json:"urls"`
}

func NewState() State {
	return State{
		Subdomains: Cursor{Page: 1},
		Ports:      Cursor{Page: 1},
		URLs:       Cursor{Page: 1},
	}
}

func (s State) Cursor(c Category) (Cursor, error) {
	switch c {
	case CategorySubdomains:
		return s.Subdomains, nil
	case CategoryPorts:
		return s.Ports, nil
	case CategoryURLs:
		return s.URLs, nil
	}
	return Cursor{}, fmt.Errorf("%w: %q has no cursor", rverrors.ErrUnknownCategory, c)
}

func (s State) with(c Category, cur Cursor) (State, error) {
	switch c {
	case CategorySubdomains:
		s.Subdomains = cur
	case CategoryPorts:
		s.Ports = cur
	case CategoryURLs:
		s.URLs = cur
	default:
		return s, fmt.Errorf("%w: %q has no cursor", rverrors.ErrUnknownCategory, c)
	}
	return s, nil
}

// Search sets the search term of c and sends it back to page 1.
func Search(s State, c Category, term string) (State, error) {
	return s.with(c, Cursor{Search: term, Page: 1})
}

// GoTo moves c to page. Rendering clamps it into the valid range.
func GoTo(s State, c Category, page int) (State, error) {
	cur, err := s.Cursor(c)
	if err != nil {
		return s, err
	}
	cur.Page = page
	return s.with(c, cur)
}

// ResultSet is the write-once cache of every record fetched for a job.
type ResultSet struct {
	JobID   string
	records []Record
	buckets Buckets
}

func NewResultSet(jobID string, records []Record) *ResultSet {
	owned := make([]Record, len(records))
	copy(owned, records)
	return &ResultSet{
		JobID:   jobID,
		records: owned,
		buckets: Classify(owned),
	}
}

func (rs *ResultSet) Len() int {
	return len(rs.records)
}

// Buckets returns the unfiltered buckets computed when the set was built.
func (rs *ResultSet) Buckets() Buckets {
	return rs.buckets
}

// CategoryView is the rendered, paginated form of one searchable bucket.
type CategoryView[T any] struct {
	Category    Category `json:"category"`
	Search      string   `json:"search"`
	Label       string   `json:"label"`
	Placeholder string   `json:"placeholder"`
	Page        Page[T]  `json:"page"`
	Controls    Controls `json:"controls"`
}

func (v CategoryView[T]) Empty() bool {
	return v.Page.Count == 0
}

type OtherView struct {
	Count       int            `json:"count"`
	Placeholder string         `json:"placeholder"`
	Groups      []FindingGroup `json:"groups"`
}

type ErrorsView struct {
	Placeholder string      `json:"placeholder"`
	Items       []ScanError `json:"items"`
}

// Views is everything a results page shows.
type Views struct {
	JobID      string                       `json:"scan_id"`
	LoadError  string                       `json:"load_error,omitempty"`
	State      State                        `json:"state"`
	Subdomains CategoryView[SubdomainEntry] `json:"subdomains"`
	Ports      CategoryView[PortEntry]      `json:"ports"`
	URLs       CategoryView[URLEntry]       `json:"urls"`
	Other      OtherView                    `json:"other"`
	Errors     ErrorsView                   `json:"errors"`
}

func (rs *ResultSet) SubdomainsView(cur Cursor) CategoryView[SubdomainEntry] {
	return buildView(CategorySubdomains, cur, FilterSubdomains(rs.records, cur.Search), "%d subdomains found", "No subdomains found")
}

func (rs *ResultSet) PortsView(cur Cursor) CategoryView[PortEntry] {
	return buildView(CategoryPorts, cur, FilterPorts(rs.records, cur.Search), "%d ports found", "No open ports found")
}

func (rs *ResultSet) URLsView(cur Cursor) CategoryView[URLEntry] {
	return buildView(CategoryURLs, cur, FilterURLs(rs.records, cur.Search), "%d URLs found", "No URLs found")
}

func (rs *ResultSet) OtherView() OtherView {
	return newOtherView(rs.buckets.Other)
}

func (rs *ResultSet) ErrorsView() ErrorsView {
	return newErrorsView(rs.buckets.Errors)
}

// Render computes every view of rs under st.
func Render(rs *ResultSet, st State) Views {
	return Views{
		JobID:      rs.JobID,
		State:      st,
		Subdomains: rs.SubdomainsView(st.Subdomains),
		Ports:      rs.PortsView(st.Ports),
		URLs:       rs.URLsView(st.URLs),
		Other:      rs.OtherView(),
		Errors:     rs.ErrorsView(),
	}
}

// EmptyViews is what a results page shows when the result set could not be
// loaded: loadErr and no populated category.
func EmptyViews(jobID, loadErr string, st State) Views {
	return Views{
		JobID:      jobID,
		LoadError:  loadErr,
		State:      st,
		Subdomains: buildView(CategorySubdomains, st.Subdomains, []SubdomainEntry{}, "%d subdomains found", "No subdomains found"),
		Ports:      buildView(CategoryPorts, st.Ports, []PortEntry{}, "%d ports found", "No open ports found"),
		URLs:       buildView(CategoryURLs, st.URLs, []URLEntry{}, "%d URLs found", "No URLs found"),
		Other:      newOtherView(nil),
		Errors:     newErrorsView(nil),
	}
}

func buildView[T any](c Category, cur Cursor, items []T, label, placeholder string) CategoryView[T] {
	page := Paginate(items, cur.Page, PageSize)
	return CategoryView[T]{
		Category:    c,
		Search:      cur.Search,
		Label:       fmt.Sprintf(label, len(items)),
		Placeholder: placeholder,
		Page:        page,
		Controls:    NewControls(page.Number, page.Total),
	}
}

func newOtherView(findings []OtherFinding) OtherView {
	return OtherView{
		Count:       len(findings),
		Placeholder: "No additional findings found",
		Groups:      GroupFindings(findings),
	}
}

func newErrorsView(errs []ScanError) ErrorsView {
	if errs == nil {
		errs = []ScanError{}
	}
	return ErrorsView{
		Placeholder: "No errors reported",
		Items:       errs,
	}
}
