package search

import (
	"context"

	"agency-dashboard/internal/common/logger"
	"agency-dashboard/internal/models"
	"agency-dashboard/internal/store"
)

// Synced mirrors prospect writes into the search index. Index failures are
// logged; the store stays the source of truth.
type Synced struct {
	store.Collection[*models.Prospect]
	idx *Index
	log logger.Logger
}

func NewSynced(inner store.Collection[*models.Prospect], idx *Index, log logger.Logger) *Synced {
	return &Synced{Collection: inner, idx: idx, log: log}
}

func (s *Synced) Create(ctx context.Context, rec *models.Prospect) (*models.Prospect, error) {
	created, err := s.Collection.Create(ctx, rec)
	if err != nil {
		return nil, err
	}
	s.put(ctx, created)
	return created, nil
}

func (s *Synced) Update(ctx context.Context, id int, patch store.Patch) (*models.Prospect, error) {
	updated, err := s.Collection.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.put(ctx, updated)
	return updated, nil
}

func (s *Synced) Delete(ctx context.Context, id int) (bool, error) {
	ok, err := s.Collection.Delete(ctx, id)
	if err != nil {
		return ok, err
	}
	if err := s.idx.DeleteProspect(ctx, id); err != nil {
		s.log.Warn("Failed to remove prospect from index", map[string]interface{}{"prospectId": id, "error": err})
	}
	return ok, nil
}

func (s *Synced) put(ctx context.Context, p *models.Prospect) {
	if err := s.idx.IndexProspect(ctx, p); err != nil {
		s.log.Warn("Failed to index prospect", map[string]interface{}{"prospectId": p.ID, "error": err})
	}
}

// Reindex writes every stored prospect into the index.
func Reindex(ctx context.Context, prospects store.Collection[*models.Prospect], idx *Index) (int, error) {
	all, err := prospects.GetAll(ctx)
	if err != nil {
		return 0, err
	}
	for _, p := range all {
		if err := idx.IndexProspect(ctx, p); err != nil {
			return 0, err
		}
	}
	return len(all), nil
}
