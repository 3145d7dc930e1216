package dashboard

import (
	"context"
	"testing"

	"agency-dashboard/internal/common/logger"
	"agency-dashboard/internal/models"
	"agency-dashboard/internal/store"
	"agency-dashboard/internal/view"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New(store.MemoryCollections(store.Latency{}, store.Seed{
		Clients: []*models.Client{
			{ID: 1, Name: "TechCorp Solutions"},
			{ID: 2, Name: "HealthPlus Clinic"},
		},
		Prospects: []*models.Prospect{
			{ID: 1, ClientID: 1, Email: "john@techstart.io", Company: "TechStart", Score: 45, Segment: "warm"},
			{ID: 2, ClientID: 1, Email: "lisa@cloudnine.com", Company: "CloudNine", Score: 82, Segment: "hot"},
			{ID: 3, ClientID: 2, Email: "mark@medico.org", Company: "Medico", Score: 67, Segment: "warm"},
		},
		Sequences: []*models.Sequence{
			{ID: 1, ClientID: 1, Name: "Welcome", Status: models.SequenceActive},
		},
	}), store.Latency{}, logger.NewNoOpLogger())
}

func rowIDs(rows []*models.Prospect) []int {
	out := make([]int, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func TestSession_StartSelectsFirstClient(t *testing.T) {
	ctx := context.Background()
	s := NewSession(ctx, newStore(t), logger.NewTestLogger(t))

	require.NoError(t, s.Start(ctx))

	id, ok := s.Tenant.ActiveID()
	require.True(t, ok)
	assert.Equal(t, 1, id)
	assert.Equal(t, view.Ready, s.Prospects.State())
	assert.Equal(t, []int{2, 1}, rowIDs(s.Prospects.Rows()))
	assert.Equal(t, view.Ready, s.Sequences.State())
	assert.Equal(t, view.EmptyNoRecords, s.Segments.State())
}

func TestSession_StartWithoutClients(t *testing.T) {
	ctx := context.Background()
	st := store.New(store.MemoryCollections(store.Latency{}, store.Seed{}), store.Latency{}, logger.NewNoOpLogger())
	s := NewSession(ctx, st, logger.NewTestLogger(t))

	require.NoError(t, s.Start(ctx))
	assert.Equal(t, view.EmptyNoTenant, s.Prospects.State())
	assert.Equal(t, view.EmptyNoTenant, s.Sequences.State())
}

func TestSession_SwitchClientReloads(t *testing.T) {
	ctx := context.Background()
	s := NewSession(ctx, newStore(t), logger.NewTestLogger(t))
	require.NoError(t, s.Start(ctx))

	require.NoError(t, s.SwitchClient(2))
	assert.Equal(t, 2, s.Prospects.ClientID())
	assert.Equal(t, []int{3}, rowIDs(s.Prospects.Rows()))
	assert.Equal(t, view.EmptyNoRecords, s.Sequences.State())

	assert.Error(t, s.SwitchClient(99))
	assert.Equal(t, 2, s.Prospects.ClientID())
}

func TestSession_ToggleSequence(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	s := NewSession(ctx, st, logger.NewTestLogger(t))
	require.NoError(t, s.Start(ctx))

	ok, err := s.ToggleSequence(ctx, 1, func(string) bool { return false })
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.ToggleSequence(ctx, 1, nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, models.SequencePaused, s.Sequences.Rows()[0].Status)
	assert.Equal(t, &view.Notice{Level: view.NoticeSuccess, Message: "Sequence updated successfully"}, s.Sequences.Notice())

	_, err = s.ToggleSequence(ctx, 42, nil)
	assert.Error(t, err)
	assert.Equal(t, view.NoticeError, s.Sequences.Notice().Level)
}

func TestToggleSequence(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	before, after, err := ToggleSequence(ctx, st.Sequences, 1)
	require.NoError(t, err)
	assert.Equal(t, models.SequenceActive, before.Status)
	assert.Equal(t, models.SequencePaused, after.Status)

	_, after, err = ToggleSequence(ctx, st.Sequences, 1)
	require.NoError(t, err)
	assert.Equal(t, models.SequenceActive, after.Status)
}
