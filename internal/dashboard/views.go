// Package dashboard wires the per-page collection views to the store and the
// tenant selector.
package dashboard

import (
	"context"
	"time"

	"agency-dashboard/internal/models"
	"agency-dashboard/internal/store"
	"agency-dashboard/internal/view"
)

func ProspectConfig(records store.Collection[*models.Prospect]) view.Config[*models.Prospect] {
	return view.Config[*models.Prospect]{
		Noun:    "prospect",
		Records: records,
		Search: []func(*models.Prospect) string{
			func(p *models.Prospect) string { return p.Email },
			func(p *models.Prospect) string { return p.Company },
		},
		Facets: map[string]func(*models.Prospect) string{
			"segment": func(p *models.Prospect) string { return p.Segment },
			"status":  func(p *models.Prospect) string { return string(p.SequenceStatus.Status) },
		},
		Sorts: map[string]view.Compare[*models.Prospect]{
			"score":        view.ByNumber(func(p *models.Prospect) float64 { return p.Score }),
			"email":        view.ByString(func(p *models.Prospect) string { return p.Email }),
			"company":      view.ByString(func(p *models.Prospect) string { return p.Company }),
			"lastActivity": view.ByTime(func(p *models.Prospect) time.Time { return p.LastActivity }),
			"createdAt":    view.ByTime(func(p *models.Prospect) time.Time { return p.CreatedAt }),
		},
		DefaultSort: "score",
		DefaultDesc: true,
	}
}

func SequenceConfig(records store.Collection[*models.Sequence]) view.Config[*models.Sequence] {
	return view.Config[*models.Sequence]{
		Noun:    "sequence",
		Records: records,
		Search: []func(*models.Sequence) string{
			func(s *models.Sequence) string { return s.Name },
		},
		Facets: map[string]func(*models.Sequence) string{
			"status": func(s *models.Sequence) string { return string(s.Status) },
		},
		Sorts: map[string]view.Compare[*models.Sequence]{
			"name":      view.ByString(func(s *models.Sequence) string { return s.Name }),
			"prospects": view.ByNumber(func(s *models.Sequence) float64 { return float64(s.Metrics.TotalProspects) }),
			"openRate":  view.ByNumber(func(s *models.Sequence) float64 { return s.Metrics.OpenRate }),
			"createdAt": view.ByTime(func(s *models.Sequence) time.Time { return s.CreatedAt }),
		},
		DefaultSort: "createdAt",
		DefaultDesc: true,
	}
}

func SegmentConfig(records store.Collection[*models.Segment]) view.Config[*models.Segment] {
	return view.Config[*models.Segment]{
		Noun:    "segment",
		Records: records,
		Search: []func(*models.Segment) string{
			func(s *models.Segment) string { return s.Name },
		},
		Sorts: map[string]view.Compare[*models.Segment]{
			"name":      view.ByString(func(s *models.Segment) string { return s.Name }),
			"prospects": view.ByNumber(func(s *models.Segment) float64 { return float64(s.Prospects) }),
			"createdAt": view.ByTime(func(s *models.Segment) time.Time { return s.CreatedAt }),
		},
		DefaultSort: "name",
	}
}

// ToggleSequence flips a sequence between active and paused. It returns the
// sequence before and after the change.
func ToggleSequence(ctx context.Context, seqs store.Collection[*models.Sequence], id int) (*models.Sequence, *models.Sequence, error) {
	before, err := seqs.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	after, err := seqs.Update(ctx, id, store.Patch{"status": before.Status.Toggled()})
	if err != nil {
		return nil, nil, err
	}
	return before, after, nil
}
