// Package importer pulls leads from LeadShark into a client's prospects.
package importer

import (
	"context"
	"fmt"
	"strings"

	apperrors "agency-dashboard/internal/common/errors"
	"agency-dashboard/internal/common/leadshark"
	"agency-dashboard/internal/common/logger"
	"agency-dashboard/internal/common/metrics"
	"agency-dashboard/internal/models"
	"agency-dashboard/internal/store"
)

const (
	Source          = "leadshark"
	ImportedSegment = "imported"
)

// LeadSource lists the leads available to an API key.
type LeadSource interface {
	ListLeads(ctx context.Context, apiKey string) ([]leadshark.Lead, error)
}

type Importer struct {
	store  *store.Store
	source LeadSource
	log    logger.Logger
}

func New(s *store.Store, source LeadSource, log logger.Logger) *Importer {
	return &Importer{store: s, source: source, log: log}
}

// Import creates a prospect for every lead whose email the client does not
// already have, and returns the created prospects.
func (i *Importer) Import(ctx context.Context, clientID int) ([]*models.Prospect, error) {
	client, err := i.store.Clients.GetByID(ctx, clientID)
	if err != nil {
		return nil, err
	}

	if err := store.Wait(ctx, i.store.Latency().Import); err != nil {
		return nil, err
	}

	leads, err := i.source.ListLeads(ctx, client.APIKeys.LeadShark)
	if err != nil {
		return nil, apperrors.NewImportFailedError(Source, err)
	}

	existing, err := i.store.Prospects.GetByClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("load existing prospects: %w", err)
	}
	seen := make(map[string]bool, len(existing))
	for _, p := range existing {
		seen[strings.ToLower(p.Email)] = true
	}

	var created []*models.Prospect
	skipped := 0
	for _, lead := range leads {
		email := strings.TrimSpace(lead.Email)
		key := strings.ToLower(email)
		if email == "" || seen[key] {
			skipped++
			continue
		}
		seen[key] = true

		p, err := i.store.Prospects.Create(ctx, &models.Prospect{
			ClientID: clientID,
			Email:    email,
			Company:  lead.Company,
			Score:    min(max(lead.Score, 0), 100),
			Segment:  ImportedSegment,
			SequenceStatus: models.EnrollmentStatus{
				Status: models.ProspectNew,
			},
		})
		if err != nil {
			metrics.ProspectsImported.WithLabelValues(Source).Add(float64(len(created)))
			return created, apperrors.NewImportFailedError(Source, err)
		}
		created = append(created, p)
	}

	metrics.ProspectsImported.WithLabelValues(Source).Add(float64(len(created)))
	i.log.Info("Imported leads", map[string]interface{}{
		"clientId": clientID,
		"created":  len(created),
		"skipped":  skipped,
	})
	return created, nil
}
