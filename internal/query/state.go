package query

import "github.com/leadpilot/lead-dashboard/internal/models"

// State is the query held by a mounted leads view.
type State struct {
	Search string    `json:"search"`
	Status Status    `json:"status"`
	Band   ScoreBand `json:"score"`
	Page   int       `json:"page"`
}

// NewState returns the state of a freshly loaded leads page.
func NewState() State {
	return State{Status: StatusAll, Band: BandAll, Page: 1}
}

// Criteria returns the filtering part of the state.
func (s State) Criteria() Criteria {
	return Criteria{Search: s.Search, Status: s.Status, Band: s.Band}
}

// SetSearch replaces the search term and returns to the first page.
func (s *State) SetSearch(search string) {
	s.Search = search
	s.Page = 1
}

// SetStatus replaces the status filter and returns to the first page.
func (s *State) SetStatus(status Status) {
	s.Status = status
	s.Page = 1
}

// SetScoreBand replaces the score filter and returns to the first page.
func (s *State) SetScoreBand(band ScoreBand) {
	s.Band = band
	s.Page = 1
}

// NextPage advances one page, stopping at totalPages.
func (s *State) NextPage(totalPages int) {
	next := s.Page + 1
	if next > totalPages {
		next = totalPages
	}
	s.Page = next
}

// PrevPage goes back one page, stopping at 1.
func (s *State) PrevPage() {
	prev := s.Page - 1
	if prev < 1 {
		prev = 1
	}
	s.Page = prev
}

// GoTo stores page as given.
func (s *State) GoTo(page int) {
	s.Page = page
}

// Page is one rendered page of the leads table.
type Page struct {
	Leads      []models.Lead `json:"leads"`
	Matched    int           `json:"matched"`
	Page       int           `json:"page"`
	TotalPages int           `json:"total_pages"`
	HasPrev    bool          `json:"has_prev"`
	HasNext    bool          `json:"has_next"`
}

// Evaluate runs filter and pagination for the current state.
func (s State) Evaluate(leads []models.Lead, pageSize int) Page {
	filtered := Filter(leads, s.Criteria())
	slice, total := Paginate(filtered, s.Page, pageSize)
	return Page{
		Leads:      slice,
		Matched:    len(filtered),
		Page:       s.Page,
		TotalPages: total,
		HasPrev:    s.Page > 1,
		HasNext:    s.Page < total,
	}
}
