package database

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"agency-dashboard/internal/common/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresClient_Migrate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	c := &PostgresClient{DB: db}

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS prospects`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE INDEX IF NOT EXISTS prospects_client_id_idx`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, c.Migrate(context.Background(), "prospects"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisClient_Ping(t *testing.T) {
	mr := miniredis.RunT(t)

	c := NewRedis(config.RedisConfig{Address: mr.Addr()})
	defer c.Close()

	assert.NoError(t, c.Ping(context.Background()))

	mr.Close()
	assert.Error(t, c.Ping(context.Background()))
}

func newESClient(t *testing.T, handler http.HandlerFunc) *ElasticsearchClient {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	c, err := NewElasticsearch(config.ElasticsearchConfig{Addresses: []string{srv.URL}, Index: "prospects-test"})
	require.NoError(t, err)
	return c
}

func TestElasticsearchClient_Ping(t *testing.T) {
	var query string
	c := newESClient(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"status":"yellow"}`))
	})

	require.NoError(t, c.Ping(context.Background()))
	assert.Contains(t, query, "wait_for_status=yellow")
}

func TestElasticsearchClient_DropIndex(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{"deleted", http.StatusOK, false},
		{"missing", http.StatusNotFound, false},
		{"forbidden", http.StatusForbidden, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var path string
			c := newESClient(t, func(w http.ResponseWriter, r *http.Request) {
				path = r.URL.Path
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{}`))
			})

			err := c.DropIndex(context.Background())
			assert.Equal(t, "/prospects-test", path)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
