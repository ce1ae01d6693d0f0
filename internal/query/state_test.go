package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadpilot/lead-dashboard/internal/models"
)

func TestStateFilterChangesResetPage(t *testing.T) {
	s := NewState()
	s.GoTo(3)
	s.SetSearch("acme")
	assert.Equal(t, 1, s.Page)

	s.GoTo(3)
	s.SetStatus(StatusQualified)
	assert.Equal(t, 1, s.Page)

	s.GoTo(3)
	s.SetScoreBand(BandHigh)
	assert.Equal(t, 1, s.Page)
}

func TestStateNavigationClamps(t *testing.T) {
	s := NewState()
	s.PrevPage()
	assert.Equal(t, 1, s.Page)

	s.NextPage(2)
	s.NextPage(2)
	assert.Equal(t, 2, s.Page)
}

func TestSearchOnLastPageResetsInHandler(t *testing.T) {
	leads := numberedLeads(25)
	leads[0].CompanyName = "Acme Inc."

	s := NewState()
	s.NextPage(3)
	s.NextPage(3)
	require.Equal(t, 3, s.Page)

	// Pagination alone does not self-correct a stale page.
	stale := s
	stale.Search = "acme"
	page := stale.Evaluate(leads, 10)
	assert.Equal(t, 1, page.TotalPages)
	assert.Empty(t, page.Leads)

	s.SetSearch("acme")
	page = s.Evaluate(leads, 10)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 1, page.Matched)
	require.Len(t, page.Leads, 1)
	assert.Equal(t, "Acme Inc.", page.Leads[0].CompanyName)
}

func TestEvaluateFlags(t *testing.T) {
	leads := numberedLeads(25)
	s := NewState()
	page := s.Evaluate(leads, 10)
	assert.False(t, page.HasPrev)
	assert.True(t, page.HasNext)
	assert.Equal(t, 25, page.Matched)

	s.GoTo(3)
	page = s.Evaluate(leads, 10)
	assert.True(t, page.HasPrev)
	assert.False(t, page.HasNext)
	assert.Len(t, page.Leads, 5)

	page = NewState().Evaluate([]models.Lead{}, 10)
	assert.Equal(t, 1, page.TotalPages)
	assert.False(t, page.HasNext)
}
