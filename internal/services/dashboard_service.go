package services

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/leadpilot/lead-dashboard/internal/models"
	"github.com/leadpilot/lead-dashboard/internal/query"
	"github.com/leadpilot/lead-dashboard/internal/views"
)

// Backend defines the lead backend operations used by the dashboard.
type Backend interface {
	ListLeads(ctx context.Context) ([]models.Lead, error)
	Stats(ctx context.Context) (models.DashboardStats, error)
	Analyze(ctx context.Context, input models.LeadInput) (models.AnalyzedLead, error)
	Settings(ctx context.Context) (models.Settings, error)
	UpdateSettings(ctx context.Context, update models.SettingsUpdate) error
	Login(ctx context.Context, creds models.Credentials) (models.Token, error)
}

// Options sizes the rendered lists.
type Options struct {
	PageSize    int
	RecentLeads int
}

// Overview is the dashboard landing content.
type Overview struct {
	Stats  models.DashboardStats `json:"stats"`
	Recent []models.Lead         `json:"recent_leads"`
}

// LeadsPage is the rendered state of a session's leads view.
type LeadsPage struct {
	Loading bool        `json:"loading"`
	Query   query.State `json:"query"`
	Result  query.Page  `json:"result"`
}

// PageDirection is a relative pagination step.
type PageDirection string

const (
	PageNext PageDirection = "next"
	PagePrev PageDirection = "prev"
)

// DashboardService implements the dashboard pages on top of the lead backend.
type DashboardService struct {
	logger  *slog.Logger
	backend Backend
	views   *views.Store
	opts    Options
}

// NewDashboardService constructs the dashboard facade.
func NewDashboardService(logger *slog.Logger, backend Backend, store *views.Store, opts Options) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	if store == nil {
		store = views.NewStore(nil, 0, logger)
	}
	if opts.PageSize <= 0 {
		opts.PageSize = query.DefaultPageSize
	}
	if opts.RecentLeads <= 0 {
		opts.RecentLeads = query.DefaultRecent
	}
	return &DashboardService{logger: logger, backend: backend, views: store, opts: opts}
}

// Overview fetches stats and leads concurrently and returns once both have arrived.
func (s *DashboardService) Overview(ctx context.Context) (Overview, error) {
	var (
		stats models.DashboardStats
		leads []models.Lead
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats, err = s.backend.Stats(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		leads, err = s.backend.ListLeads(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("failed to fetch dashboard data", slog.Any("error", err))
		return Overview{Recent: []models.Lead{}}, fmt.Errorf("load overview: %w", err)
	}

	return Overview{Stats: stats, Recent: query.SelectRecent(leads, s.opts.RecentLeads)}, nil
}

// LoadLeads mounts the session's leads view, fetches the collection and renders the
// first page. Fetch failures end in an empty, loaded view.
func (s *DashboardService) LoadLeads(ctx context.Context, sessionID string) (LeadsPage, error) {
	ticket, err := s.views.Mount(ctx, sessionID)
	if err != nil {
		return LeadsPage{}, fmt.Errorf("mount leads view: %w", err)
	}

	leads, err := s.backend.ListLeads(ctx)
	if err != nil {
		s.logger.Error("failed to fetch leads", slog.Any("error", err))
		leads = nil
	}
	if _, err := s.views.Commit(ctx, ticket, leads); err != nil {
		return LeadsPage{}, fmt.Errorf("commit leads view: %w", err)
	}

	view, err := s.views.Get(ctx, sessionID)
	if err != nil {
		return LeadsPage{}, fmt.Errorf("read leads view: %w", err)
	}
	return s.render(view), nil
}

// CurrentLeads renders the mounted view without touching the backend.
func (s *DashboardService) CurrentLeads(ctx context.Context, sessionID string) (LeadsPage, error) {
	view, err := s.views.Get(ctx, sessionID)
	if err != nil {
		return LeadsPage{}, err
	}
	if !view.Mounted {
		return LeadsPage{}, views.ErrNotMounted
	}
	return s.render(view), nil
}

// Search replaces the search term; the page resets to 1.
func (s *DashboardService) Search(ctx context.Context, sessionID, term string) (LeadsPage, error) {
	return s.update(ctx, sessionID, func(v *views.LeadsView) {
		v.Query.SetSearch(term)
	})
}

// Filter replaces the status and score filters; the page resets to 1.
func (s *DashboardService) Filter(ctx context.Context, sessionID string, status query.Status, band query.ScoreBand) (LeadsPage, error) {
	return s.update(ctx, sessionID, func(v *views.LeadsView) {
		v.Query.SetStatus(status)
		v.Query.SetScoreBand(band)
	})
}

// Step moves one page forward or back, clamped to the current page range.
func (s *DashboardService) Step(ctx context.Context, sessionID string, dir PageDirection) (LeadsPage, error) {
	return s.update(ctx, sessionID, func(v *views.LeadsView) {
		switch dir {
		case PageNext:
			matched := len(query.Filter(v.Leads, v.Query.Criteria()))
			v.Query.NextPage(query.TotalPages(matched, s.opts.PageSize))
		case PagePrev:
			v.Query.PrevPage()
		}
	})
}

// GoToPage stores an explicit page number as given.
func (s *DashboardService) GoToPage(ctx context.Context, sessionID string, page int) (LeadsPage, error) {
	return s.update(ctx, sessionID, func(v *views.LeadsView) {
		v.Query.GoTo(page)
	})
}

// LeadDetails looks a lead up in the session's resident snapshot.
func (s *DashboardService) LeadDetails(ctx context.Context, sessionID string, id int) (models.Lead, bool, error) {
	view, err := s.views.Get(ctx, sessionID)
	if err != nil {
		return models.Lead{}, false, err
	}
	if !view.Mounted {
		return models.Lead{}, false, views.ErrNotMounted
	}
	for _, lead := range view.Leads {
		if lead.ID == id {
			return lead, true, nil
		}
	}
	return models.Lead{}, false, nil
}

// LeaveLeads unmounts the session's leads view.
func (s *DashboardService) LeaveLeads(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.views.Unmount(ctx, sessionID)
}

// EndSession discards all view state of a session that is being retired.
func (s *DashboardService) EndSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.views.Forget(ctx, sessionID)
}

// Analyze forwards a submission to the analysis endpoint.
func (s *DashboardService) Analyze(ctx context.Context, input models.LeadInput) (models.AnalyzedLead, error) {
	result, err := s.backend.Analyze(ctx, input)
	if err != nil {
		s.logger.Error("analysis failed", slog.String("company", input.CompanyName), slog.Any("error", err))
		return models.AnalyzedLead{}, err
	}
	s.logger.Info("lead analyzed",
		slog.String("company", input.CompanyName),
		slog.Float64("score", result.LeadScore.Score),
		slog.String("category", result.LeadScore.Category),
		slog.String("queue", result.RoutingDecision.Queue),
	)
	return result, nil
}

// Settings loads the backend settings.
func (s *DashboardService) Settings(ctx context.Context) (models.Settings, error) {
	settings, err := s.backend.Settings(ctx)
	if err != nil {
		s.logger.Error("failed to load settings", slog.Any("error", err))
		return models.Settings{}, err
	}
	return settings, nil
}

// SaveSettings persists the editable settings.
func (s *DashboardService) SaveSettings(ctx context.Context, update models.SettingsUpdate) error {
	if err := s.backend.UpdateSettings(ctx, update); err != nil {
		s.logger.Error("failed to save settings", slog.Any("error", err))
		return err
	}
	return nil
}

// Login exchanges credentials for a token.
func (s *DashboardService) Login(ctx context.Context, creds models.Credentials) (models.Token, error) {
	token, err := s.backend.Login(ctx, creds)
	if err != nil {
		s.logger.Warn("login failed", slog.String("username", creds.Username), slog.Any("error", err))
		return models.Token{}, err
	}
	return token, nil
}

func (s *DashboardService) update(ctx context.Context, sessionID string, fn func(v *views.LeadsView)) (LeadsPage, error) {
	view, err := s.views.Update(ctx, sessionID, fn)
	if err != nil {
		return LeadsPage{}, err
	}
	return s.render(view), nil
}

func (s *DashboardService) render(view views.LeadsView) LeadsPage {
	return LeadsPage{
		Loading: view.Loading,
		Query:   view.Query,
		Result:  view.Query.Evaluate(view.Leads, s.opts.PageSize),
	}
}
