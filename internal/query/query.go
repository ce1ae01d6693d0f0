// Package query derives the visible page of leads from a resident lead collection.
//
// Every function here is pure: it never mutates its input and never fails on
// well-formed leads.
package query

import (
	"sort"
	"strings"

	"github.com/leadpilot/lead-dashboard/internal/models"
)

const (
	// DefaultPageSize is the number of leads shown per page.
	DefaultPageSize = 10
	// DefaultRecent is the number of leads shown on the dashboard.
	DefaultRecent = 5

	mediumFloor = 60
	highFloor   = 80
)

// ScoreBand partitions the 0-100 score range.
type ScoreBand string

const (
	BandAll    ScoreBand = "all"
	BandLow    ScoreBand = "low"
	BandMedium ScoreBand = "medium"
	BandHigh   ScoreBand = "high"
)

// ParseScoreBand maps user input onto a band. Unknown values map to BandAll.
func ParseScoreBand(v string) ScoreBand {
	switch ScoreBand(strings.ToLower(strings.TrimSpace(v))) {
	case BandLow:
		return BandLow
	case BandMedium:
		return BandMedium
	case BandHigh:
		return BandHigh
	default:
		return BandAll
	}
}

// BandOf returns the band a score falls into.
func BandOf(score float64) ScoreBand {
	switch {
	case score < mediumFloor:
		return BandLow
	case score < highFloor:
		return BandMedium
	default:
		return BandHigh
	}
}

// Matches reports whether score passes the band.
func (b ScoreBand) Matches(score float64) bool {
	switch b {
	case BandLow, BandMedium, BandHigh:
		return BandOf(score) == b
	default:
		return true
	}
}

// Status is the lead status filter offered in the UI.
//
// Leads carry no status attribute yet, so every status matches every lead.
type Status string

const (
	StatusAll       Status = "all"
	StatusQualified Status = "qualified"
	StatusPending   Status = "pending"
	StatusRejected  Status = "rejected"
)

// ParseStatus maps user input onto a status. Unknown values map to StatusAll.
func ParseStatus(v string) Status {
	switch Status(strings.ToLower(strings.TrimSpace(v))) {
	case StatusQualified:
		return StatusQualified
	case StatusPending:
		return StatusPending
	case StatusRejected:
		return StatusRejected
	default:
		return StatusAll
	}
}

// Matches always returns true until leads expose a status attribute.
func (s Status) Matches(models.Lead) bool {
	return true
}

// Criteria is the filtering half of a query.
type Criteria struct {
	Search string
	Status Status
	Band   ScoreBand
}

// Filter returns the leads matching c, preserving input order.
func Filter(leads []models.Lead, c Criteria) []models.Lead {
	needle := strings.ToLower(c.Search)
	out := make([]models.Lead, 0, len(leads))
	for _, lead := range leads {
		if !matchesSearch(lead, needle) {
			continue
		}
		if !c.Status.Matches(lead) {
			continue
		}
		if !c.Band.Matches(lead.Score) {
			continue
		}
		out = append(out, lead)
	}
	return out
}

func matchesSearch(lead models.Lead, needle string) bool {
	if needle == "" {
		return true
	}
	for _, field := range []string{lead.FirstName, lead.LastName, lead.Email, lead.CompanyName} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

// TotalPages returns ceil(n/pageSize), but never less than one.
func TotalPages(n, pageSize int) int {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	pages := (n + pageSize - 1) / pageSize
	if pages < 1 {
		return 1
	}
	return pages
}

// Paginate slices out the requested 1-based page. It does not clamp page: a page
// outside [1, totalPages] yields an empty slice.
func Paginate(filtered []models.Lead, page, pageSize int) ([]models.Lead, int) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	total := TotalPages(len(filtered), pageSize)
	if page < 1 {
		return []models.Lead{}, total
	}

	start := (page - 1) * pageSize
	if start >= len(filtered) {
		return []models.Lead{}, total
	}
	end := start + pageSize
	if end > len(filtered) {
		end = len(filtered)
	}
	return append([]models.Lead(nil), filtered[start:end]...), total
}

// SelectRecent returns the n leads with the highest ids, newest first.
func SelectRecent(leads []models.Lead, n int) []models.Lead {
	if n <= 0 {
		n = DefaultRecent
	}
	sorted := append([]models.Lead(nil), leads...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID > sorted[j].ID })
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
