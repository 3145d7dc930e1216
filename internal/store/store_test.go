package store

import (
	"context"
	"testing"

	apperrors "agency-dashboard/internal/common/errors"
	"agency-dashboard/internal/common/logger"
	"agency-dashboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func newTestStore(t *testing.T) *Store {
	t.Helper()
	seed := Seed{
		Clients: []*models.Client{
			{ID: 1, Name: "TechCorp"},
			{ID: 2, Name: "HealthPlus"},
		},
		Prospects: []*models.Prospect{
			{ID: 1, ClientID: 1, Email: "a@acme.com", SequenceStatus: models.EnrollmentStatus{Status: models.ProspectActive, CurrentStep: 1, SequenceID: intPtr(1)}},
			{ID: 2, ClientID: 1, Email: "b@acme.com", SequenceStatus: models.EnrollmentStatus{Status: models.ProspectActive, SequenceID: intPtr(2)}},
			{ID: 3, ClientID: 2, Email: "c@health.com"},
		},
		Sequences: []*models.Sequence{
			{ID: 1, ClientID: 1, Name: "Welcome"},
			{ID: 2, ClientID: 1, Name: "Nurture"},
			{ID: 3, ClientID: 2, Name: "Onboarding"},
		},
		Segments: []*models.Segment{
			{ID: 1, ClientID: 1, Name: "Hot"},
		},
		Activities: []*models.Activity{
			{ID: 1, ClientID: 1, ProspectID: 1, Type: models.ActivityEmailOpen},
			{ID: 2, ClientID: 2, ProspectID: 3, Type: models.ActivityEmailClick},
		},
	}
	return New(MemoryCollections(Latency{}, seed), Latency{}, logger.NewTestLogger(t))
}

func TestStore_CreateRequiresExistingClient(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Prospects.Create(ctx, &models.Prospect{ClientID: 42, Email: "x@y.com"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidReference)

	_, err = s.Segments.Create(ctx, &models.Segment{Name: "orphan"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidReference)

	created, err := s.Prospects.Create(ctx, &models.Prospect{ClientID: 2, Email: "x@y.com"})
	require.NoError(t, err)
	assert.Equal(t, 4, created.ID)
}

func TestStore_DeleteClientCascades(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	ok, err := s.DeleteClient(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	prospects, err := s.Prospects.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, prospects, 1)
	assert.Equal(t, 2, prospects[0].ClientID)

	seqs, err := s.Sequences.GetByClient(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, seqs)

	segs, err := s.Segments.GetByClient(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, segs)

	acts, err := s.Activities.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, acts, 1)

	_, err = s.Clients.Delete(ctx, 1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestStore_DeleteSequenceDetachesProspects(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.DeleteSequence(ctx, 1)
	require.NoError(t, err)

	p1, err := s.Prospects.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, p1.SequenceStatus.SequenceID)
	assert.Equal(t, models.ProspectActive, p1.SequenceStatus.Status)

	p2, err := s.Prospects.GetByID(ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, p2.SequenceStatus.SequenceID)
	assert.Equal(t, 2, *p2.SequenceStatus.SequenceID)

	_, err = s.Sequences.Delete(ctx, 1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestStore_Instrumented(t *testing.T) {
	ctx := context.Background()
	c := MemoryCollections(Latency{}, Seed{Clients: []*models.Client{{ID: 1, Name: "TechCorp"}}}).
		WithInstrumentation(nil)
	s := New(c, Latency{}, logger.NewNoOpLogger())

	clients, err := s.Clients.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, clients, 1)

	_, err = s.Clients.GetByID(ctx, 7)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
