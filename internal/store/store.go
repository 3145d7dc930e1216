package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	apperrors "agency-dashboard/internal/common/errors"
	"agency-dashboard/internal/common/logger"
	"agency-dashboard/internal/common/observability"
	"agency-dashboard/internal/models"

	"github.com/redis/go-redis/v9"
)

// Collections is the raw set of backends before integrity guards are applied.
type Collections struct {
	Clients    Collection[*models.Client]
	Prospects  Collection[*models.Prospect]
	Sequences  Collection[*models.Sequence]
	Segments   Collection[*models.Segment]
	Activities Collection[*models.Activity]
}

// Seed preloads the memory backend.
type Seed struct {
	Clients    []*models.Client
	Prospects  []*models.Prospect
	Sequences  []*models.Sequence
	Segments   []*models.Segment
	Activities []*models.Activity
}

func MemoryCollections(latency Latency, seed Seed) Collections {
	return Collections{
		Clients:    NewMemory(ClientsCollection, latency, seed.Clients...),
		Prospects:  NewMemory(ProspectsCollection, latency, seed.Prospects...),
		Sequences:  NewMemory(SequencesCollection, latency, seed.Sequences...),
		Segments:   NewMemory(SegmentsCollection, latency, seed.Segments...),
		Activities: NewMemory(ActivitiesCollection, latency, seed.Activities...),
	}
}

func PostgresCollections(db *sql.DB, latency Latency) Collections {
	return Collections{
		Clients:    NewPostgres[*models.Client](db, ClientsCollection, latency),
		Prospects:  NewPostgres[*models.Prospect](db, ProspectsCollection, latency),
		Sequences:  NewPostgres[*models.Sequence](db, SequencesCollection, latency),
		Segments:   NewPostgres[*models.Segment](db, SegmentsCollection, latency),
		Activities: NewPostgres[*models.Activity](db, ActivitiesCollection, latency),
	}
}

// WithCache wraps every collection in a Redis list cache.
func (c Collections) WithCache(rdb *redis.Client, ttl time.Duration, log logger.Logger) Collections {
	return Collections{
		Clients:    NewCached(c.Clients, rdb, ttl, log),
		Prospects:  NewCached(c.Prospects, rdb, ttl, log),
		Sequences:  NewCached(c.Sequences, rdb, ttl, log),
		Segments:   NewCached(c.Segments, rdb, ttl, log),
		Activities: NewCached(c.Activities, rdb, ttl, log),
	}
}

func (c Collections) WithInstrumentation(obs *observability.Observability) Collections {
	return Collections{
		Clients:    NewInstrumented(c.Clients, obs),
		Prospects:  NewInstrumented(c.Prospects, obs),
		Sequences:  NewInstrumented(c.Sequences, obs),
		Segments:   NewInstrumented(c.Segments, obs),
		Activities: NewInstrumented(c.Activities, obs),
	}
}

// Store is the single record store shared by every page of the dashboard.
//
// Children of a client cannot be created for a client that does not exist.
// Deleting a client removes its prospects, sequences, segments and activities.
// Deleting a sequence detaches the prospects enrolled in it.
type Store struct {
	Clients    Collection[*models.Client]
	Prospects  Collection[*models.Prospect]
	Sequences  Collection[*models.Sequence]
	Segments   Collection[*models.Segment]
	Activities Collection[*models.Activity]

	raw     Collections
	latency Latency
	log     logger.Logger
}

func New(c Collections, latency Latency, log logger.Logger) *Store {
	s := &Store{raw: c, latency: latency, log: log}

	s.Clients = &guarded[*models.Client]{Collection: c.Clients, beforeDelete: s.cascadeClient}
	s.Prospects = &guarded[*models.Prospect]{Collection: c.Prospects, beforeCreate: requireClient[*models.Prospect](c.Clients)}
	s.Sequences = &guarded[*models.Sequence]{
		Collection:   c.Sequences,
		beforeCreate: requireClient[*models.Sequence](c.Clients),
		beforeDelete: s.detachSequence,
	}
	s.Segments = &guarded[*models.Segment]{Collection: c.Segments, beforeCreate: requireClient[*models.Segment](c.Clients)}
	s.Activities = &guarded[*models.Activity]{Collection: c.Activities, beforeCreate: requireClient[*models.Activity](c.Clients)}
	return s
}

// Latency exposes the configured delays, e.g. for lead imports.
func (s *Store) Latency() Latency { return s.latency }

// DeleteClient removes a client together with everything it owns.
func (s *Store) DeleteClient(ctx context.Context, id int) (bool, error) {
	return s.Clients.Delete(ctx, id)
}

// DeleteSequence removes a sequence and detaches its enrolled prospects.
func (s *Store) DeleteSequence(ctx context.Context, id int) (bool, error) {
	return s.Sequences.Delete(ctx, id)
}

// guarded runs integrity hooks around the wrapped collection.
type guarded[T Record] struct {
	Collection[T]
	beforeCreate func(ctx context.Context, rec T) error
	beforeDelete func(ctx context.Context, id int) error
}

func (g *guarded[T]) Create(ctx context.Context, rec T) (T, error) {
	if g.beforeCreate != nil {
		if err := g.beforeCreate(ctx, rec); err != nil {
			var zero T
			return zero, err
		}
	}
	return g.Collection.Create(ctx, rec)
}

func (g *guarded[T]) Delete(ctx context.Context, id int) (bool, error) {
	if g.beforeDelete != nil {
		if err := g.beforeDelete(ctx, id); err != nil {
			return false, err
		}
	}
	return g.Collection.Delete(ctx, id)
}

func requireClient[T Record](clients Collection[*models.Client]) func(context.Context, T) error {
	return func(ctx context.Context, rec T) error {
		clientID := rec.TenantID()
		if clientID <= 0 {
			return apperrors.NewInvalidReferenceError(ClientsCollection, clientID)
		}
		if _, err := clients.GetByID(ctx, clientID); err != nil {
			if apperrors.CodeOf(err) == apperrors.ErrCodeNotFound {
				return apperrors.NewInvalidReferenceError(ClientsCollection, clientID)
			}
			return err
		}
		return nil
	}
}

func (s *Store) cascadeClient(ctx context.Context, clientID int) error {
	if _, err := s.raw.Clients.GetByID(ctx, clientID); err != nil {
		return err
	}

	if err := deleteOwned(ctx, s.raw.Activities, clientID); err != nil {
		return err
	}
	if err := deleteOwned(ctx, s.raw.Prospects, clientID); err != nil {
		return err
	}
	if err := deleteOwned(ctx, s.raw.Sequences, clientID); err != nil {
		return err
	}
	if err := deleteOwned(ctx, s.raw.Segments, clientID); err != nil {
		return err
	}

	s.log.Info("Cascaded client delete", map[string]interface{}{"clientId": clientID})
	return nil
}

func deleteOwned[T Record](ctx context.Context, c Collection[T], clientID int) error {
	recs, err := c.GetByClient(ctx, clientID)
	if err != nil {
		return fmt.Errorf("cascade %s: %w", c.Name(), err)
	}
	for _, rec := range recs {
		if _, err := c.Delete(ctx, rec.RecordID()); err != nil && apperrors.CodeOf(err) != apperrors.ErrCodeNotFound {
			return fmt.Errorf("cascade %s %d: %w", c.Name(), rec.RecordID(), err)
		}
	}
	return nil
}

func (s *Store) detachSequence(ctx context.Context, sequenceID int) error {
	seq, err := s.raw.Sequences.GetByID(ctx, sequenceID)
	if err != nil {
		return err
	}
	prospects, err := s.raw.Prospects.GetByClient(ctx, seq.ClientID)
	if err != nil {
		return fmt.Errorf("detach sequence %d: %w", sequenceID, err)
	}
	for _, p := range prospects {
		if !p.InSequence(sequenceID) {
			continue
		}
		status := p.SequenceStatus
		status.SequenceID = nil
		status.CurrentStep = 0
		if _, err := s.raw.Prospects.Update(ctx, p.ID, Patch{"sequenceStatus": status}); err != nil {
			return fmt.Errorf("detach prospect %d: %w", p.ID, err)
		}
	}
	return nil
}
