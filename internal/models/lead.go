package models

// Lead is a scored lead as returned by the lead backend. Snapshots are immutable per fetch.
type Lead struct {
	ID          int    `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	CompanyName string `json:"company_name"`
	Notes       string `json:"notes"`

	BudgetAnalysis    string `json:"budget_analysis"`
	AuthorityAnalysis string `json:"authority_analysis"`
	NeedAnalysis      string `json:"need_analysis"`
	TimelineAnalysis  string `json:"timeline_analysis"`

	Score       float64 `json:"score"`
	Category    string  `json:"category"`
	Explanation string  `json:"explanation"`

	Queue         string `json:"queue"`
	RoutingReason string `json:"routing_reason"`

	EmailValid        *bool          `json:"email_valid,omitempty"`
	CompanyInfo       map[string]any `json:"company_info,omitempty"`
	FollowUpQuestions []string       `json:"follow_up_questions,omitempty"`
}

// FullName joins first and last name.
func (l Lead) FullName() string {
	switch {
	case l.FirstName == "":
		return l.LastName
	case l.LastName == "":
		return l.FirstName
	}
	return l.FirstName + " " + l.LastName
}

// CompanyField returns a string value from the enrichment payload, or "" when absent.
func (l Lead) CompanyField(key string) string {
	if l.CompanyInfo == nil {
		return ""
	}
	if v, ok := l.CompanyInfo[key].(string); ok {
		return v
	}
	return ""
}

// LeadInput is the submission forwarded to the analysis endpoint.
type LeadInput struct {
	FirstName   string `json:"first_name" form:"first_name" binding:"required"`
	LastName    string `json:"last_name" form:"last_name" binding:"required"`
	Email       string `json:"email" form:"email" binding:"required,email"`
	CompanyName string `json:"company_name" form:"company_name" binding:"required"`
	Notes       string `json:"notes" form:"notes" binding:"required"`
}

// BANTAnalysis holds the per-dimension analysis text.
type BANTAnalysis struct {
	Budget    string `json:"budget"`
	Authority string `json:"authority"`
	Need      string `json:"need"`
	Timeline  string `json:"timeline"`
}

// EnrichmentData carries third-party enrichment for a submitted lead.
type EnrichmentData struct {
	CompanyInfo map[string]any `json:"company_info,omitempty"`
	EmailValid  bool           `json:"email_valid"`
}

// LeadScore is the numeric score with its category and rationale.
type LeadScore struct {
	Score       float64 `json:"score"`
	Category    string  `json:"category"`
	Explanation string  `json:"explanation"`
}

// RoutingDecision names the queue a lead was routed to.
type RoutingDecision struct {
	Queue  string `json:"queue"`
	Reason string `json:"reason"`
}

// AnalyzedLead is the response of the analysis endpoint.
type AnalyzedLead struct {
	LeadInput       LeadInput       `json:"lead_input"`
	BANTAnalysis    BANTAnalysis    `json:"bant_analysis"`
	EnrichmentData  EnrichmentData  `json:"enrichment_data"`
	LeadScore       LeadScore       `json:"lead_score"`
	RoutingDecision RoutingDecision `json:"routing_decision"`
}
