package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leadpilot/lead-dashboard/internal/models"
)

var errInvalidEmail = errors.New("invalid email address")

const (
	hotThreshold  = 85
	warmThreshold = 60
	baseScore     = 40
	signalWeight  = 15
)

type dimension struct {
	name     string
	keywords []string
	found    string
	missing  string
	question string
}

var dimensions = []dimension{
	{
		name:     "budget",
		keywords: []string{"budget", "approved", "allocated", "funding", "not a concern"},
		found:    "Budget has been discussed or allocated.",
		missing:  "No budget signal in the notes.",
		question: "What budget range has been set aside for this initiative?",
	},
	{
		name:     "authority",
		keywords: []string{"ceo", "cto", "vp", "director", "head of", "founder", "decision"},
		found:    "Contact appears to hold decision-making authority.",
		missing:  "Decision-making authority is unclear.",
		question: "Who else is involved in the purchasing decision?",
	},
	{
		name:     "need",
		keywords: []string{"need", "problem", "pain", "looking for", "replace", "fix"},
		found:    "A concrete business need was described.",
		missing:  "No explicit business need was stated.",
		question: "What problem are you hoping to solve first?",
	},
	{
		name:     "timeline",
		keywords: []string{"asap", "immediately", "this quarter", "next month", "q1", "q2", "q3", "q4"},
		found:    "A near-term timeline was mentioned.",
		missing:  "No timeline was given.",
		question: "When would you like a solution in place?",
	},
}

// analyzer is a deterministic keyword stand-in for the AI scoring pipeline.
type analyzer struct{}

func (analyzer) analyze(input models.LeadInput, settings models.Settings) (models.AnalyzedLead, error) {
	if strings.Contains(strings.ToLower(input.Email), "invalid") {
		return models.AnalyzedLead{}, errInvalidEmail
	}

	notes := strings.ToLower(input.Notes)
	texts := make(map[string]string, len(dimensions))
	score := baseScore
	var hits []string
	for _, d := range dimensions {
		if containsAny(notes, d.keywords) {
			score += signalWeight
			texts[d.name] = d.found
			hits = append(hits, d.name)
			continue
		}
		texts[d.name] = d.missing
	}
	if score > 100 {
		score = 100
	}

	category := categoryFor(float64(score))
	explanation := "No BANT signals were found in the notes."
	if len(hits) > 0 {
		explanation = fmt.Sprintf("Signals found for %s.", strings.Join(hits, ", "))
	}

	enrichment := models.EnrichmentData{EmailValid: true}
	if settings.EnrichmentEnabled {
		enrichment.CompanyInfo = companyInfo(input.CompanyName)
	}

	result := models.AnalyzedLead{
		LeadInput: input,
		BANTAnalysis: models.BANTAnalysis{
			Budget:    texts["budget"],
			Authority: texts["authority"],
			Need:      texts["need"],
			Timeline:  texts["timeline"],
		},
		EnrichmentData: enrichment,
		LeadScore: models.LeadScore{
			Score:       float64(score),
			Category:    category,
			Explanation: explanation,
		},
		RoutingDecision: route(float64(score), category),
	}
	return result, nil
}

func categoryFor(score float64) string {
	switch {
	case score >= hotThreshold:
		return "Hot"
	case score >= warmThreshold:
		return "Warm"
	default:
		return "Cold"
	}
}

func route(score float64, category string) models.RoutingDecision {
	switch category {
	case "Hot":
		return models.RoutingDecision{
			Queue:  "Sales",
			Reason: fmt.Sprintf("Lead is Hot with a score of %.0f. Assigned directly to sales.", score),
		}
	case "Warm":
		return models.RoutingDecision{
			Queue:  "Presales",
			Reason: fmt.Sprintf("Lead is Warm with a score of %.0f. Assigned to presales for qualification.", score),
		}
	default:
		return models.RoutingDecision{
			Queue:  "Nurture",
			Reason: fmt.Sprintf("Lead is Cold with a score of %.0f. Added to the nurture campaign.", score),
		}
	}
}

func companyInfo(company string) map[string]any {
	lower := strings.ToLower(company)
	switch {
	case strings.Contains(lower, "big corp"):
		return map[string]any{"company_name": company, "industry": "Technology", "size": "10,001+ employees", "website": "www.bigcorp.com"}
	case strings.Contains(lower, "startup"):
		return map[string]any{"company_name": company, "industry": "Software", "size": "11-50 employees", "website": "www.startup.io"}
	}
	return map[string]any{"company_name": company, "industry": "Unknown", "size": "Unknown", "website": "Unknown"}
}

func followUps(b models.BANTAnalysis) []string {
	got := map[string]string{
		"budget":    b.Budget,
		"authority": b.Authority,
		"need":      b.Need,
		"timeline":  b.Timeline,
	}
	var out []string
	for _, d := range dimensions {
		if got[d.name] != d.found {
			out = append(out, d.question)
		}
	}
	return out
}

// leadFromAnalysis flattens an analysis into the stored lead shape.
func leadFromAnalysis(result models.AnalyzedLead) models.Lead {
	valid := result.EnrichmentData.EmailValid
	return models.Lead{
		FirstName:         result.LeadInput.FirstName,
		LastName:          result.LeadInput.LastName,
		Email:             result.LeadInput.Email,
		CompanyName:       result.LeadInput.CompanyName,
		Notes:             result.LeadInput.Notes,
		BudgetAnalysis:    result.BANTAnalysis.Budget,
		AuthorityAnalysis: result.BANTAnalysis.Authority,
		NeedAnalysis:      result.BANTAnalysis.Need,
		TimelineAnalysis:  result.BANTAnalysis.Timeline,
		Score:             result.LeadScore.Score,
		Category:          result.LeadScore.Category,
		Explanation:       result.LeadScore.Explanation,
		Queue:             result.RoutingDecision.Queue,
		RoutingReason:     result.RoutingDecision.Reason,
		EmailValid:        &valid,
		CompanyInfo:       result.EnrichmentData.CompanyInfo,
		FollowUpQuestions: followUps(result.BANTAnalysis),
	}
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
