// Package views keeps per-session view state for the leads page.
//
// A leads view is mounted by a page load and unmounted when the session navigates
// elsewhere. Each mount bumps the view's generation; a fetch result is written only
// while the view is still mounted at the generation its fetch started under.
//
// Every change is a read-modify-write through cache.Provider.Update, which is atomic
// across all processes sharing the provider. The striped locks only serialize callers
// inside one process so they do not retry against each other.
package views

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"github.com/leadpilot/lead-dashboard/internal/cache"
	"github.com/leadpilot/lead-dashboard/internal/metrics"
	"github.com/leadpilot/lead-dashboard/internal/models"
	"github.com/leadpilot/lead-dashboard/internal/query"
)

// ErrNotMounted is returned when a session interacts with a leads view it never loaded.
var ErrNotMounted = errors.New("leads view not mounted")

const lockStripes = 64

// LeadsView is the state behind one session's leads page.
type LeadsView struct {
	Mounted    bool          `json:"mounted"`
	Loading    bool          `json:"loading"`
	Generation uint64        `json:"generation"`
	Leads      []models.Lead `json:"leads"`
	Query      query.State   `json:"query"`
}

// Ticket identifies the fetch started by a mount.
type Ticket struct {
	SessionID  string
	Generation uint64
}

// Store persists leads views through a cache.Provider.
type Store struct {
	provider cache.Provider
	ttl      time.Duration
	logger   *slog.Logger
	locks    [lockStripes]sync.Mutex
}

// NewStore constructs a Store. A nil provider keeps state in process memory.
func NewStore(provider cache.Provider, ttl time.Duration, logger *slog.Logger) *Store {
	if provider == nil {
		provider = cache.NewMemoryProvider()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{provider: provider, ttl: ttl, logger: logger}
}

// Mount starts a page load: the query resets, the snapshot is dropped and the
// generation advances. The returned ticket must accompany the fetch result.
func (s *Store) Mount(ctx context.Context, sessionID string) (Ticket, error) {
	var ticket Ticket
	err := s.mutate(ctx, sessionID, func(v *LeadsView) error {
		v.Generation++
		v.Mounted = true
		v.Loading = true
		v.Leads = nil
		v.Query = query.NewState()
		ticket = Ticket{SessionID: sessionID, Generation: v.Generation}
		return nil
	})
	return ticket, err
}

// Commit applies a fetch result. It reports false, without error, when the view was
// unmounted or re-mounted after the ticket was issued. A nil slice commits an empty
// collection, which is how failed fetches end their loading state.
func (s *Store) Commit(ctx context.Context, t Ticket, leads []models.Lead) (bool, error) {
	applied := false
	err := s.mutate(ctx, t.SessionID, func(v *LeadsView) error {
		applied = false
		if !v.Mounted || v.Generation != t.Generation {
			return nil
		}
		if leads == nil {
			leads = []models.Lead{}
		}
		v.Leads = leads
		v.Loading = false
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if !applied {
		metrics.ObserveStaleWrite()
		s.logger.Debug("discarded stale leads fetch", slog.String("session", t.SessionID), slog.Uint64("generation", t.Generation))
	}
	return applied, nil
}

// Unmount discards the session's query and snapshot. The generation is kept so that
// fetches issued before the unmount can never match a later mount.
func (s *Store) Unmount(ctx context.Context, sessionID string) error {
	return s.mutate(ctx, sessionID, func(v *LeadsView) error {
		if !v.Mounted && v.Generation == 0 {
			return errSkipWrite
		}
		v.Mounted = false
		v.Loading = false
		v.Leads = nil
		v.Query = query.NewState()
		return nil
	})
}

// Forget drops everything stored for a session, generation included. Only call it
// for session ids that will not be reused.
func (s *Store) Forget(ctx context.Context, sessionID string) error {
	mu := s.lock(sessionID)
	mu.Lock()
	defer mu.Unlock()
	if err := s.provider.Del(ctx, key(sessionID)); err != nil {
		return fmt.Errorf("forget view: %w", err)
	}
	return nil
}

// Get returns the current view for a session. Unknown sessions get an unmounted view.
func (s *Store) Get(ctx context.Context, sessionID string) (LeadsView, error) {
	mu := s.lock(sessionID)
	mu.Lock()
	defer mu.Unlock()
	return s.load(ctx, sessionID)
}

// Update applies fn to a mounted view's query and returns the updated view.
func (s *Store) Update(ctx context.Context, sessionID string, fn func(v *LeadsView)) (LeadsView, error) {
	var out LeadsView
	err := s.mutate(ctx, sessionID, func(v *LeadsView) error {
		out = LeadsView{}
		if !v.Mounted {
			return ErrNotMounted
		}
		fn(v)
		out = *v
		return nil
	})
	return out, err
}

var errSkipWrite = errors.New("skip write")

// mutate applies fn to the stored view. fn may run more than once when another
// process writes the same view concurrently, so it must only touch v and locals it resets.
func (s *Store) mutate(ctx context.Context, sessionID string, fn func(v *LeadsView) error) error {
	if sessionID == "" {
		return fmt.Errorf("session id is required")
	}
	mu := s.lock(sessionID)
	mu.Lock()
	defer mu.Unlock()

	err := s.provider.Update(ctx, key(sessionID), s.ttl, func(current []byte, found bool) ([]byte, error) {
		view, err := decode(current, found)
		if err != nil {
			return nil, err
		}
		if err := fn(&view); err != nil {
			return nil, err
		}
		data, err := json.Marshal(view)
		if err != nil {
			return nil, fmt.Errorf("encode view: %w", err)
		}
		return data, nil
	})
	switch {
	case err == nil, errors.Is(err, errSkipWrite):
		return nil
	case errors.Is(err, ErrNotMounted):
		return err
	default:
		return fmt.Errorf("store view: %w", err)
	}
}

func (s *Store) load(ctx context.Context, sessionID string) (LeadsView, error) {
	data, err := s.provider.Get(ctx, key(sessionID))
	if errors.Is(err, cache.ErrCacheMiss) {
		return decode(nil, false)
	}
	if err != nil {
		return LeadsView{}, fmt.Errorf("load view: %w", err)
	}
	return decode(data, true)
}

func decode(data []byte, found bool) (LeadsView, error) {
	if !found {
		return LeadsView{Query: query.NewState()}, nil
	}
	var view LeadsView
	if err := json.Unmarshal(data, &view); err != nil {
		return LeadsView{}, fmt.Errorf("decode view: %w", err)
	}
	return view, nil
}

func (s *Store) lock(sessionID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	return &s.locks[h.Sum32()%lockStripes]
}

func key(sessionID string) string {
	return "lead-dashboard|session:" + sessionID + "|view:leads"
}
