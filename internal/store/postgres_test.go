package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	apperrors "agency-dashboard/internal/common/errors"
	"agency-dashboard/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPostgresProspects(t *testing.T) (*Postgres[*models.Prospect], sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgres[*models.Prospect](db, ProspectsCollection, Latency{}), mock
}

func TestPostgres_GetByClient(t *testing.T) {
	p, mock := newPostgresProspects(t)

	rows := sqlmock.NewRows([]string{"id", "doc"}).
		AddRow(1, []byte(`{"clientId":1,"email":"a@acme.com","company":"Acme","score":80}`)).
		AddRow(3, []byte(`{"clientId":1,"email":"c@initech.com","company":"Initech","score":60}`))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, doc FROM prospects WHERE COALESCE(client_id, id) = $1 ORDER BY id`)).
		WithArgs(1).
		WillReturnRows(rows)

	recs, err := p.GetByClient(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, 1, recs[0].ID)
	assert.Equal(t, 3, recs[1].ID)
	assert.Equal(t, "Initech", recs[1].Company)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetByIDNotFound(t *testing.T) {
	p, mock := newPostgresProspects(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, doc FROM prospects WHERE id = $1`)).
		WithArgs(9).
		WillReturnError(sql.ErrNoRows)

	_, err := p.GetByID(context.Background(), 9)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Create(t *testing.T) {
	p, mock := newPostgresProspects(t)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO prospects (client_id, doc) VALUES (NULLIF($1, 0), $2) RETURNING id`)).
		WithArgs(2, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(4))

	created, err := p.Create(context.Background(), &models.Prospect{ClientID: 2, Email: "d@hooli.com"})
	require.NoError(t, err)
	assert.Equal(t, 4, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Update(t *testing.T) {
	p, mock := newPostgresProspects(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT doc FROM prospects WHERE id = $1 FOR UPDATE`)).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"doc"}).AddRow([]byte(`{"clientId":1,"company":"Acme","score":10}`)))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE prospects SET doc = $1 WHERE id = $2`)).
		WithArgs(sqlmock.AnyArg(), 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	updated, err := p.Update(context.Background(), 1, Patch{"score": 90, "clientId": 5})
	require.NoError(t, err)
	assert.Equal(t, 90.0, updated.Score)
	assert.Equal(t, 1, updated.ClientID)
	assert.Equal(t, "Acme", updated.Company)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpdateMissingRollsBack(t *testing.T) {
	p, mock := newPostgresProspects(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT doc FROM prospects WHERE id = $1 FOR UPDATE`)).
		WithArgs(8).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := p.Update(context.Background(), 8, Patch{"score": 1})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Delete(t *testing.T) {
	p, mock := newPostgresProspects(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM prospects WHERE id = $1`)).
		WithArgs(2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM prospects WHERE id = $1`)).
		WithArgs(2).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := p.Delete(context.Background(), 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.Delete(context.Background(), 2)
	assert.False(t, ok)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_QueryFailureIsRetryable(t *testing.T) {
	p, mock := newPostgresProspects(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, doc FROM prospects ORDER BY id`)).
		WillReturnError(errors.New("connection reset"))

	_, err := p.GetAll(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeQueryExecutionFailed, apperrors.CodeOf(err))
	assert.True(t, apperrors.IsRetryable(err))
}
