package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leadpilot/lead-dashboard/internal/models"
)

func TestEvaluateAppliesFlags(t *testing.T) {
	leads := []models.Lead{
		{ID: 1, FirstName: "Ann", CompanyName: "Acme Inc.", Score: 90},
		{ID: 2, FirstName: "Bob", CompanyName: "Acme Labs", Score: 40},
		{ID: 3, FirstName: "Cid", CompanyName: "Globex", Score: 95},
	}

	page := evaluate(leads, leadsOptions{search: "acme", status: "pending", score: "high", page: 1}, 10)
	assert.Equal(t, 1, page.Matched)
	assert.Equal(t, 1, page.Leads[0].ID)

	page = evaluate(leads, leadsOptions{score: "bogus", page: 2}, 2)
	assert.Equal(t, 3, page.Matched)
	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Leads, 1)
}

func TestRenderLeadsPlain(t *testing.T) {
	out := renderLeads([]models.Lead{
		{ID: 7, FirstName: "Ann", LastName: "Lee", Email: "ann@acme.io", CompanyName: "Acme Inc.", Score: 88, Category: "Hot", Queue: "Sales"},
	}, false)

	for _, want := range []string{"ID", "Ann Lee", "ann@acme.io", "Acme Inc.", "88", "Hot", "Sales"} {
		assert.Contains(t, out, want)
	}
}
