package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"agency-dashboard/internal/common/logger"
	"agency-dashboard/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCachedProspects(t *testing.T) (*Cached[*models.Prospect], *Memory[*models.Prospect], *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	inner := seededProspects()
	return NewCached[*models.Prospect](inner, rdb, time.Minute, logger.NewTestLogger(t)), inner, mr
}

func TestCached_GetByClientPopulatesCache(t *testing.T) {
	ctx := context.Background()
	c, inner, mr := newCachedProspects(t)

	recs, err := c.GetByClient(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
	assert.True(t, mr.Exists(CacheKey(ProspectsCollection, 1)))

	// a write that bypasses the decorator is not visible until the key expires
	_, err = inner.Create(ctx, &models.Prospect{ClientID: 1})
	require.NoError(t, err)

	cached, err := c.GetByClient(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, cached, 2)

	mr.FastForward(2 * time.Minute)
	fresh, err := c.GetByClient(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, fresh, 3)
}

func TestCached_MutationsInvalidateOwningClient(t *testing.T) {
	ctx := context.Background()
	c, _, mr := newCachedProspects(t)

	_, err := c.GetByClient(ctx, 1)
	require.NoError(t, err)
	_, err = c.GetByClient(ctx, 2)
	require.NoError(t, err)

	_, err = c.Create(ctx, &models.Prospect{ClientID: 1, Email: "new@acme.com"})
	require.NoError(t, err)
	assert.False(t, mr.Exists(CacheKey(ProspectsCollection, 1)))
	assert.True(t, mr.Exists(CacheKey(ProspectsCollection, 2)))

	_, err = c.GetByClient(ctx, 1)
	require.NoError(t, err)
	_, err = c.Update(ctx, 1, Patch{"score": 99})
	require.NoError(t, err)
	assert.False(t, mr.Exists(CacheKey(ProspectsCollection, 1)))

	_, err = c.Delete(ctx, 2)
	require.NoError(t, err)
	assert.False(t, mr.Exists(CacheKey(ProspectsCollection, 2)))
}

func TestCached_RedisDownFallsThrough(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewCached[*models.Prospect](seededProspects(), db, time.Minute, logger.NewNoOpLogger())

	key := CacheKey(ProspectsCollection, 1)
	mock.ExpectGet(key).SetErr(errors.New("connection refused"))
	// the follow-up SET is unexpected, so the mock fails it as well

	recs, err := c.GetByClient(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}
