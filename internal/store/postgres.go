package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "agency-dashboard/internal/common/errors"
)

// Postgres stores each record as a JSONB document. The id column is
// authoritative; BIGSERIAL keeps ids monotonic and never reused.
type Postgres[T Record] struct {
	db      *sql.DB
	table   string
	latency Latency
	now     func() time.Time
}

func NewPostgres[T Record](db *sql.DB, table string, latency Latency) *Postgres[T] {
	return &Postgres[T]{
		db:      db,
		table:   table,
		latency: latency,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (p *Postgres[T]) Name() string { return p.table }

func (p *Postgres[T]) GetAll(ctx context.Context) ([]T, error) {
	if err := Wait(ctx, p.latency.Read); err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT id, doc FROM %s ORDER BY id`, p.table)
	return p.queryAll(ctx, query)
}

// GetByClient treats a NULL client_id as the row's own id so clients resolve to themselves.
func (p *Postgres[T]) GetByClient(ctx context.Context, clientID int) ([]T, error) {
	if err := Wait(ctx, p.latency.Read); err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT id, doc FROM %s WHERE COALESCE(client_id, id) = $1 ORDER BY id`, p.table)
	return p.queryAll(ctx, query, clientID)
}

func (p *Postgres[T]) GetByID(ctx context.Context, id int) (T, error) {
	var zero T
	if err := Wait(ctx, p.latency.GetByID); err != nil {
		return zero, err
	}
	query := fmt.Sprintf(`SELECT id, doc FROM %s WHERE id = $1`, p.table)

	var (
		rowID int
		doc   []byte
	)
	err := p.db.QueryRowContext(ctx, query, id).Scan(&rowID, &doc)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, apperrors.NewNotFoundError(p.table, id)
	}
	if err != nil {
		return zero, apperrors.NewQueryExecutionFailedError(p.table, err)
	}
	return decodeDoc[T](rowID, doc)
}

func (p *Postgres[T]) Create(ctx context.Context, rec T) (T, error) {
	var zero T
	if err := Wait(ctx, p.latency.Create); err != nil {
		return zero, err
	}
	c, err := Clone(rec)
	if err != nil {
		return zero, err
	}
	c.AssignID(0)
	c.StampCreated(p.now())

	doc, err := json.Marshal(c)
	if err != nil {
		return zero, err
	}

	query := fmt.Sprintf(`INSERT INTO %s (client_id, doc) VALUES (NULLIF($1, 0), $2) RETURNING id`, p.table)
	var id int
	if err := p.db.QueryRowContext(ctx, query, c.TenantID(), doc).Scan(&id); err != nil {
		return zero, apperrors.NewQueryExecutionFailedError(p.table, err)
	}
	c.AssignID(id)
	return c, nil
}

// Update reads, patches and writes the document inside one transaction.
func (p *Postgres[T]) Update(ctx context.Context, id int, patch Patch) (T, error) {
	var zero T
	if err := Wait(ctx, p.latency.Update); err != nil {
		return zero, err
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return zero, apperrors.NewQueryExecutionFailedError(p.table, err)
	}
	defer tx.Rollback()

	var doc []byte
	err = tx.QueryRowContext(ctx, fmt.Sprintf(`SELECT doc FROM %s WHERE id = $1 FOR UPDATE`, p.table), id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, apperrors.NewNotFoundError(p.table, id)
	}
	if err != nil {
		return zero, apperrors.NewQueryExecutionFailedError(p.table, err)
	}

	current, err := decodeDoc[T](id, doc)
	if err != nil {
		return zero, err
	}
	updated, err := ApplyPatch(current, patch)
	if err != nil {
		return zero, err
	}
	next, err := json.Marshal(updated)
	if err != nil {
		return zero, err
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`UPDATE %s SET doc = $1 WHERE id = $2`, p.table), next, id); err != nil {
		return zero, apperrors.NewQueryExecutionFailedError(p.table, err)
	}
	if err := tx.Commit(); err != nil {
		return zero, apperrors.NewQueryExecutionFailedError(p.table, err)
	}
	return updated, nil
}

func (p *Postgres[T]) Delete(ctx context.Context, id int) (bool, error) {
	if err := Wait(ctx, p.latency.Delete); err != nil {
		return false, err
	}
	res, err := p.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, p.table), id)
	if err != nil {
		return false, apperrors.NewQueryExecutionFailedError(p.table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, apperrors.NewQueryExecutionFailedError(p.table, err)
	}
	if n == 0 {
		return false, apperrors.NewNotFoundError(p.table, id)
	}
	return true, nil
}

func (p *Postgres[T]) queryAll(ctx context.Context, query string, args ...interface{}) ([]T, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError(p.table, err)
	}
	defer rows.Close()

	var recs []T
	for rows.Next() {
		var (
			id  int
			doc []byte
		)
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, apperrors.NewQueryExecutionFailedError(p.table, err)
		}
		rec, err := decodeDoc[T](id, doc)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewQueryExecutionFailedError(p.table, err)
	}
	return recs, nil
}

func decodeDoc[T Record](id int, doc []byte) (T, error) {
	var rec T
	if err := json.Unmarshal(doc, &rec); err != nil {
		return rec, fmt.Errorf("decode %T row %d: %w", rec, id, err)
	}
	rec.AssignID(id)
	return rec, nil
}
