package models

// Settings mirrors the backend settings document.
type Settings struct {
	AutoRoutingEnabled bool          `json:"auto_routing_enabled"`
	EnrichmentEnabled  bool          `json:"enrichment_enabled"`
	SelectedModel      string        `json:"selected_model"`
	AvailableModels    []ModelOption `json:"available_models,omitempty"`
}

// ModelOption is a selectable analysis model.
type ModelOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SettingsUpdate is the payload accepted by PUT /settings.
type SettingsUpdate struct {
	SelectedModel      string `json:"selected_model" form:"selected_model"`
	AutoRoutingEnabled bool   `json:"auto_routing_enabled" form:"auto_routing_enabled"`
	EnrichmentEnabled  bool   `json:"enrichment_enabled" form:"enrichment_enabled"`
}
