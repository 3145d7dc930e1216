package dashboard

import (
	"context"

	"agency-dashboard/internal/common/logger"
	"agency-dashboard/internal/models"
	"agency-dashboard/internal/store"
	"agency-dashboard/internal/tenant"
	"agency-dashboard/internal/view"

	"golang.org/x/sync/errgroup"
)

// Session is one operator's dashboard: the client selector and the three list
// pages bound to it. Every switch of the active client reloads the pages.
type Session struct {
	Tenant    *tenant.Selector
	Prospects *view.Collection[*models.Prospect]
	Sequences *view.Collection[*models.Sequence]
	Segments  *view.Collection[*models.Segment]

	ctx context.Context
	st  *store.Store
	log logger.Logger
}

// NewSession binds views to st. ctx bounds the reloads triggered by client switches.
func NewSession(ctx context.Context, st *store.Store, log logger.Logger) *Session {
	sel := tenant.NewSelector(st.Clients, log)
	s := &Session{
		Tenant:    sel,
		Prospects: view.New(ProspectConfig(st.Prospects), sel, log),
		Sequences: view.New(SequenceConfig(st.Sequences), sel, log),
		Segments:  view.New(SegmentConfig(st.Segments), sel, log),
		ctx:       ctx,
		st:        st,
		log:       log,
	}
	sel.OnChange(func(snap tenant.Snapshot) {
		s.log.Debug("Reloading views", map[string]interface{}{"generation": snap.Generation})
		s.Reload(s.ctx)
	})
	return s
}

// Start loads the client list. Views reload through the selector when a
// client becomes active, and directly otherwise.
func (s *Session) Start(ctx context.Context) error {
	gen := s.Tenant.Generation()
	if err := s.Tenant.Load(ctx); err != nil {
		return err
	}
	if s.Tenant.Generation() == gen {
		s.Reload(ctx)
	}
	return nil
}

// SwitchClient makes id the active client.
func (s *Session) SwitchClient(id int) error {
	return s.Tenant.Select(id)
}

// Reload refreshes every page concurrently. Load failures land in each view's
// Error state, so nothing is returned.
func (s *Session) Reload(ctx context.Context) {
	var g errgroup.Group
	g.Go(func() error { return s.Prospects.Reload(ctx) })
	g.Go(func() error { return s.Sequences.Reload(ctx) })
	g.Go(func() error { return s.Segments.Reload(ctx) })
	if err := g.Wait(); err != nil {
		s.log.Warn("View reload failed", map[string]interface{}{"error": err})
	}
}

// ToggleSequence confirms and flips a sequence's status from the sequences page.
func (s *Session) ToggleSequence(ctx context.Context, id int, confirm view.Confirm) (bool, error) {
	return s.Sequences.Mutate(ctx, "Change the status of this sequence?", confirm, func(ctx context.Context) error {
		_, _, err := ToggleSequence(ctx, s.st.Sequences, id)
		return err
	})
}
