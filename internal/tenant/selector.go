// Package tenant tracks which client the dashboard is currently scoped to.
package tenant

import (
	"context"
	"sync"

	apperrors "agency-dashboard/internal/common/errors"
	"agency-dashboard/internal/common/logger"
	"agency-dashboard/internal/models"
	"agency-dashboard/internal/store"
)

// Snapshot is the tenant context handed to views.
type Snapshot struct {
	Active     *models.Client
	Clients    []*models.Client
	Loading    bool
	Generation uint64
}

// ActiveID returns the selected client id, or false when no client is selected.
func (s Snapshot) ActiveID() (int, bool) {
	if s.Active == nil {
		return 0, false
	}
	return s.Active.ID, true
}

// Selector holds the client list and the active client. Every switch bumps
// the generation so in-flight loads for the previous client can be discarded.
type Selector struct {
	clients store.Collection[*models.Client]
	log     logger.Logger

	mu          sync.RWMutex
	list        []*models.Client
	active      *models.Client
	loading     bool
	generation  uint64
	subscribers []func(Snapshot)
}

func NewSelector(clients store.Collection[*models.Client], log logger.Logger) *Selector {
	return &Selector{clients: clients, log: log}
}

// Load fetches every client. The first client becomes active when none is,
// or when the active one no longer exists.
func (s *Selector) Load(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	list, err := s.clients.GetAll(ctx)

	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.mu.Unlock()
		s.log.Error("Failed to load clients", map[string]interface{}{"error": err})
		return apperrors.NewLoadFailureError(store.ClientsCollection, err)
	}
	s.list = list

	changed := false
	switch {
	case s.active != nil && indexOf(list, s.active.ID) >= 0:
		s.active = list[indexOf(list, s.active.ID)]
	case len(list) > 0:
		s.active = list[0]
		s.generation++
		changed = true
	case s.active != nil:
		s.active = nil
		s.generation++
		changed = true
	}
	snap := s.snapshotLocked()
	subs := s.subscribers
	s.mu.Unlock()

	if changed {
		s.notify(subs, snap)
	}
	return nil
}

// Select switches the active client. Selecting the active client again is a no-op.
func (s *Selector) Select(id int) error {
	s.mu.Lock()
	i := indexOf(s.list, id)
	if i < 0 {
		s.mu.Unlock()
		return apperrors.NewNotFoundError(store.ClientsCollection, id)
	}
	if s.active != nil && s.active.ID == id {
		s.mu.Unlock()
		return nil
	}
	s.active = s.list[i]
	s.generation++
	snap := s.snapshotLocked()
	subs := s.subscribers
	s.mu.Unlock()

	s.log.Info("Switched active client", map[string]interface{}{"clientId": id, "generation": snap.Generation})
	s.notify(subs, snap)
	return nil
}

func (s *Selector) ActiveID() (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active == nil {
		return 0, false
	}
	return s.active.ID, true
}

func (s *Selector) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

func (s *Selector) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// OnChange registers fn to run after every switch of the active client.
func (s *Selector) OnChange(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *Selector) snapshotLocked() Snapshot {
	list := make([]*models.Client, len(s.list))
	copy(list, s.list)
	return Snapshot{
		Active:     s.active,
		Clients:    list,
		Loading:    s.loading,
		Generation: s.generation,
	}
}

func (s *Selector) notify(subs []func(Snapshot), snap Snapshot) {
	for _, fn := range subs {
		fn(snap)
	}
}

func indexOf(list []*models.Client, id int) int {
	for i, c := range list {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// Static is a fixed tenant, used when a request names its client explicitly.
type Static int

func (s Static) ActiveID() (int, bool) { return int(s), s > 0 }

func (s Static) Generation() uint64 { return 0 }
