package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/leadpilot/lead-dashboard/internal/models"
	"github.com/leadpilot/lead-dashboard/internal/utils"
)

type leadRecord struct {
	ID                uint `gorm:"primaryKey"`
	FirstName         string
	LastName          string
	Email             string
	CompanyName       string
	Notes             string
	BudgetAnalysis    string
	AuthorityAnalysis string
	NeedAnalysis      string
	TimelineAnalysis  string
	Score             float64
	Category          string `gorm:"index"`
	Explanation       string
	Queue             string
	RoutingReason     string
	EmailValid        *bool
	CompanyInfo       map[string]any `gorm:"serializer:json"`
	FollowUpQuestions []string       `gorm:"serializer:json"`
	CreatedAt         time.Time      `gorm:"index"`
}

func (leadRecord) TableName() string { return "leads" }

func (r leadRecord) toModel() models.Lead {
	return models.Lead{
		ID:                int(r.ID),
		FirstName:         r.FirstName,
		LastName:          r.LastName,
		Email:             r.Email,
		CompanyName:       r.CompanyName,
		Notes:             r.Notes,
		BudgetAnalysis:    r.BudgetAnalysis,
		AuthorityAnalysis: r.AuthorityAnalysis,
		NeedAnalysis:      r.NeedAnalysis,
		TimelineAnalysis:  r.TimelineAnalysis,
		Score:             r.Score,
		Category:          r.Category,
		Explanation:       r.Explanation,
		Queue:             r.Queue,
		RoutingReason:     r.RoutingReason,
		EmailValid:        r.EmailValid,
		CompanyInfo:       r.CompanyInfo,
		FollowUpQuestions: r.FollowUpQuestions,
	}
}

type settingsRecord struct {
	ID                 uint `gorm:"primaryKey"`
	SelectedModel      string
	AutoRoutingEnabled bool
	EnrichmentEnabled  bool
}

func (settingsRecord) TableName() string { return "settings" }

var availableModels = []models.ModelOption{
	{ID: "gemini-2.5-flash", Name: "Gemini 2.5 Flash (Fast)"},
	{ID: "gemini-1.5-pro", Name: "Gemini 1.5 Pro (Capable)"},
}

func defaultSettings() settingsRecord {
	return settingsRecord{ID: 1, SelectedModel: availableModels[0].ID, AutoRoutingEnabled: true}
}

// store persists mock leads and settings in sqlite.
type store struct {
	db  *gorm.DB
	now func() time.Time
}

func openStore(dsn string) (*store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dsn, err)
	}
	if err := db.AutoMigrate(&leadRecord{}, &settingsRecord{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &store{db: db, now: time.Now}, nil
}

func (s *store) close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *store) listLeads(ctx context.Context) ([]models.Lead, error) {
	var records []leadRecord
	if err := s.db.WithContext(ctx).Order("id").Find(&records).Error; err != nil {
		return nil, err
	}
	leads := make([]models.Lead, 0, len(records))
	for _, r := range records {
		leads = append(leads, r.toModel())
	}
	return leads, nil
}

func (s *store) createLead(ctx context.Context, lead models.Lead) (models.Lead, error) {
	record := leadRecord{
		FirstName:         lead.FirstName,
		LastName:          lead.LastName,
		Email:             lead.Email,
		CompanyName:       lead.CompanyName,
		Notes:             lead.Notes,
		BudgetAnalysis:    lead.BudgetAnalysis,
		AuthorityAnalysis: lead.AuthorityAnalysis,
		NeedAnalysis:      lead.NeedAnalysis,
		TimelineAnalysis:  lead.TimelineAnalysis,
		Score:             lead.Score,
		Category:          lead.Category,
		Explanation:       lead.Explanation,
		Queue:             lead.Queue,
		RoutingReason:     lead.RoutingReason,
		EmailValid:        lead.EmailValid,
		CompanyInfo:       lead.CompanyInfo,
		FollowUpQuestions: lead.FollowUpQuestions,
		CreatedAt:         s.now(),
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return models.Lead{}, err
	}
	return record.toModel(), nil
}

func (s *store) stats(ctx context.Context) (models.DashboardStats, error) {
	db := s.db.WithContext(ctx).Model(&leadRecord{})

	var out models.DashboardStats
	var total, qualified, today int64
	if err := db.Count(&total).Error; err != nil {
		return out, err
	}
	if err := s.db.WithContext(ctx).Model(&leadRecord{}).Where("category = ?", "Hot").Count(&qualified).Error; err != nil {
		return out, err
	}
	if err := s.db.WithContext(ctx).Model(&leadRecord{}).Where("created_at >= ?", utils.StartOfDay(s.now())).Count(&today).Error; err != nil {
		return out, err
	}

	var avg struct{ Avg float64 }
	if err := s.db.WithContext(ctx).Model(&leadRecord{}).Select("COALESCE(AVG(score), 0) AS avg").Scan(&avg).Error; err != nil {
		return out, err
	}

	var byCategory []models.CategoryCount
	err := s.db.WithContext(ctx).Model(&leadRecord{}).
		Select("category AS name, COUNT(*) AS leads").
		Group("category").
		Order("name").
		Scan(&byCategory).Error
	if err != nil {
		return out, err
	}

	out.TotalLeads = int(total)
	out.QualifiedLeads = int(qualified)
	out.AvgScore = math.Round(avg.Avg*10) / 10
	out.NewLeadsToday = int(today)
	out.LeadsByCategory = byCategory
	if out.LeadsByCategory == nil {
		out.LeadsByCategory = []models.CategoryCount{}
	}
	return out, nil
}

func (s *store) settings(ctx context.Context) (models.Settings, error) {
	record, err := s.loadSettings(ctx)
	if err != nil {
		return models.Settings{}, err
	}
	return models.Settings{
		AutoRoutingEnabled: record.AutoRoutingEnabled,
		EnrichmentEnabled:  record.EnrichmentEnabled,
		SelectedModel:      record.SelectedModel,
		AvailableModels:    availableModels,
	}, nil
}

func (s *store) updateSettings(ctx context.Context, update models.SettingsUpdate) (models.Settings, error) {
	record, err := s.loadSettings(ctx)
	if err != nil {
		return models.Settings{}, err
	}
	record.SelectedModel = update.SelectedModel
	record.AutoRoutingEnabled = update.AutoRoutingEnabled
	record.EnrichmentEnabled = update.EnrichmentEnabled
	if err := s.db.WithContext(ctx).Save(&record).Error; err != nil {
		return models.Settings{}, err
	}
	return s.settings(ctx)
}

func (s *store) loadSettings(ctx context.Context) (settingsRecord, error) {
	var record settingsRecord
	err := s.db.WithContext(ctx).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		record = defaultSettings()
		if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
			return settingsRecord{}, err
		}
		return record, nil
	}
	return record, err
}

// seed fills an empty database with demo leads.
func (s *store) seed(ctx context.Context, a *analyzer) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&leadRecord{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	settings, err := s.settings(ctx)
	if err != nil {
		return err
	}
	for _, input := range demoLeads {
		result, err := a.analyze(input, settings)
		if err != nil {
			return fmt.Errorf("seed %s: %w", input.Email, err)
		}
		if _, err := s.createLead(ctx, leadFromAnalysis(result)); err != nil {
			return err
		}
	}
	return nil
}

var demoLeads = []models.LeadInput{
	{FirstName: "Jane", LastName: "Doe", Email: "jane.doe@acme.com", CompanyName: "Acme Inc.", Notes: "VP of Sales. Budget approved for Q3, we need a new CRM to fix our lead leakage problem. Looking to start this quarter."},
	{FirstName: "John", LastName: "Smith", Email: "john.smith@globex.com", CompanyName: "Globex Corp.", Notes: "Interested in a demo. Need better reporting; timeline is next month."},
	{FirstName: "Tony", LastName: "Stark", Email: "tony@stark.com", CompanyName: "Stark Industries", Notes: "CEO. Budget is not a concern. We need this ASAP to replace a failing vendor."},
	{FirstName: "Bruce", LastName: "Wayne", Email: "bruce@wayne.com", CompanyName: "Wayne Enterprises", Notes: "Just browsing, maybe next year."},
	{FirstName: "Sarah", LastName: "Connor", Email: "sarah.connor@cyberdyne.com", CompanyName: "Cyberdyne Systems", Notes: "Director of IT. Looking for a platform to consolidate tools."},
	{FirstName: "Peter", LastName: "Gibbons", Email: "peter@initech.com", CompanyName: "Initech", Notes: "Asked for pricing."},
	{FirstName: "Ellen", LastName: "Ripley", Email: "ripley@weyland.com", CompanyName: "Weyland-Yutani Big Corp", Notes: "Head of Operations. Budget allocated, need a solution immediately for a compliance problem."},
	{FirstName: "Marty", LastName: "McFly", Email: "marty@startup.io", CompanyName: "Hill Valley Startup", Notes: "Founder. Looking for something affordable, timeline next month."},
}
