// Package activity records prospect engagement and serves the recent-activity feed.
package activity

import (
	"context"
	"fmt"
	"slices"
	"time"

	apperrors "agency-dashboard/internal/common/errors"
	"agency-dashboard/internal/common/logger"
	"agency-dashboard/internal/models"
	"agency-dashboard/internal/store"
)

const DefaultLimit = 10

// Hook observes recorded activities, e.g. to invalidate cached reports.
type Hook func(ctx context.Context, a *models.Activity)

type Service struct {
	store *store.Store
	log   logger.Logger
	now   func() time.Time
	hooks []Hook
}

func NewService(s *store.Store, log logger.Logger) *Service {
	return &Service{
		store: s,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// OnRecord registers a hook run after each successful Record.
func (s *Service) OnRecord(h Hook) {
	s.hooks = append(s.hooks, h)
}

// Recent returns the client's newest activities first. A limit <= 0 uses DefaultLimit.
func (s *Service) Recent(ctx context.Context, clientID, limit int) ([]*models.Activity, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	acts, err := s.store.Activities.GetByClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("recent activities for client %d: %w", clientID, err)
	}
	sortNewestFirst(acts)
	if len(acts) > limit {
		acts = acts[:limit]
	}
	return acts, nil
}

// ForProspect returns every activity of one prospect, newest first.
func (s *Service) ForProspect(ctx context.Context, prospectID int) ([]*models.Activity, error) {
	p, err := s.store.Prospects.GetByID(ctx, prospectID)
	if err != nil {
		return nil, err
	}
	acts, err := s.store.Activities.GetByClient(ctx, p.ClientID)
	if err != nil {
		return nil, fmt.Errorf("activities for prospect %d: %w", prospectID, err)
	}
	out := acts[:0]
	for _, a := range acts {
		if a.ProspectID == prospectID {
			out = append(out, a)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// Record stores a, links it to its prospect and applies its score delta.
// The client is taken from the prospect.
func (s *Service) Record(ctx context.Context, a *models.Activity) (*models.Activity, error) {
	if !a.Type.Valid() {
		return nil, apperrors.NewValidationError(apperrors.FieldError{
			Field:   "type",
			Message: fmt.Sprintf("unknown activity type %q", a.Type),
		})
	}

	p, err := s.store.Prospects.GetByID(ctx, a.ProspectID)
	if err != nil {
		if apperrors.CodeOf(err) == apperrors.ErrCodeNotFound {
			return nil, apperrors.NewInvalidReferenceError(store.ProspectsCollection, a.ProspectID)
		}
		return nil, err
	}

	in := *a
	in.ClientID = p.ClientID
	if in.Timestamp.IsZero() {
		in.Timestamp = s.now()
	}

	created, err := s.store.Activities.Create(ctx, &in)
	if err != nil {
		return nil, fmt.Errorf("record activity: %w", err)
	}

	// back-dated activities never move lastActivity backwards
	last := p.LastActivity
	if created.Timestamp.After(last) {
		last = created.Timestamp
	}
	patch := store.Patch{
		"activities":   append(slices.Clone(p.Activities), created.ID),
		"lastActivity": last,
	}
	if delta := created.ScoreDelta(); delta != 0 {
		patch["score"] = clampScore(p.Score + delta)
	}
	if _, err := s.store.Prospects.Update(ctx, p.ID, patch); err != nil {
		// drop the unlinked activity so it is not counted without its prospect update
		if _, derr := s.store.Activities.Delete(ctx, created.ID); derr != nil {
			s.log.Error("Failed to remove unlinked activity", map[string]interface{}{"activityId": created.ID, "error": derr})
		}
		return nil, fmt.Errorf("link activity %d to prospect %d: %w", created.ID, p.ID, err)
	}

	s.log.Debug("Recorded activity", map[string]interface{}{
		"activityId": created.ID,
		"prospectId": p.ID,
		"clientId":   p.ClientID,
		"type":       created.Type,
	})
	for _, h := range s.hooks {
		h(ctx, created)
	}
	return created, nil
}

func clampScore(v float64) float64 {
	return min(max(v, 0), 100)
}

func sortNewestFirst(acts []*models.Activity) {
	slices.SortStableFunc(acts, func(a, b *models.Activity) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
}
