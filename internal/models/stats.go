package models

// DashboardStats aggregates lead counters for the dashboard cards.
type DashboardStats struct {
	TotalLeads      int             `json:"total_leads"`
	QualifiedLeads  int             `json:"qualified_leads"`
	AvgScore        float64         `json:"avg_score"`
	NewLeadsToday   int             `json:"new_leads_today"`
	LeadsByCategory []CategoryCount `json:"leads_by_category"`
}

// CategoryCount is one bar of the category chart.
type CategoryCount struct {
	Name  string `json:"name"`
	Leads int    `json:"leads"`
}
