// Package store holds the tenant-scoped record collections behind the dashboard.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"agency-dashboard/internal/common/config"
	apperrors "agency-dashboard/internal/common/errors"
)

// Collection names, also used as Postgres table names and cache key segments.
const (
	ClientsCollection    = "clients"
	ProspectsCollection  = "prospects"
	SequencesCollection  = "sequences"
	SegmentsCollection   = "segments"
	ActivitiesCollection = "activities"
)

// CollectionNames lists every collection in creation order.
var CollectionNames = []string{
	ClientsCollection,
	ProspectsCollection,
	SequencesCollection,
	SegmentsCollection,
	ActivitiesCollection,
}

// Record is implemented by pointer entity types.
type Record interface {
	RecordID() int
	AssignID(id int)
	// TenantID is the owning client. A Client is its own tenant.
	TenantID() int
	StampCreated(t time.Time)
}

// Patch is a shallow update keyed by JSON field name.
type Patch map[string]interface{}

// protectedKeys cannot be changed through a Patch.
var protectedKeys = map[string]struct{}{
	"id":       {},
	"clientId": {},
}

// Collection is the CRUD surface every backend and decorator implements.
type Collection[T Record] interface {
	Name() string
	GetAll(ctx context.Context) ([]T, error)
	GetByClient(ctx context.Context, clientID int) ([]T, error)
	GetByID(ctx context.Context, id int) (T, error)
	Create(ctx context.Context, rec T) (T, error)
	Update(ctx context.Context, id int, patch Patch) (T, error)
	Delete(ctx context.Context, id int) (bool, error)
}

// Latency is the artificial delay applied per operation. Zero disables it.
type Latency struct {
	Read    time.Duration
	GetByID time.Duration
	Create  time.Duration
	Update  time.Duration
	Delete  time.Duration
	Import  time.Duration
}

func LatencyFromConfig(cfg config.LatencyConfig) Latency {
	return Latency{
		Read:    config.GetDuration(cfg.Read),
		GetByID: config.GetDuration(cfg.GetByID),
		Create:  config.GetDuration(cfg.Create),
		Update:  config.GetDuration(cfg.Update),
		Delete:  config.GetDuration(cfg.Delete),
		Import:  config.GetDuration(cfg.Import),
	}
}

// Wait blocks for d or until ctx is done.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Clone deep-copies rec through its JSON form.
func Clone[T Record](rec T) (T, error) {
	var out T
	b, err := json.Marshal(rec)
	if err != nil {
		return out, fmt.Errorf("encode %T: %w", rec, err)
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, fmt.Errorf("decode %T: %w", rec, err)
	}
	return out, nil
}

// ApplyPatch returns a copy of rec with the top-level keys of patch replaced.
// The id and client binding of rec survive regardless of the patch.
func ApplyPatch[T Record](rec T, patch Patch) (T, error) {
	var out T
	b, err := json.Marshal(rec)
	if err != nil {
		return out, fmt.Errorf("encode %T: %w", rec, err)
	}
	doc := map[string]json.RawMessage{}
	if err := json.Unmarshal(b, &doc); err != nil {
		return out, fmt.Errorf("decode %T: %w", rec, err)
	}
	for k, v := range patch {
		if _, ok := protectedKeys[k]; ok {
			continue
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return out, fmt.Errorf("encode patch key %s: %w", k, err)
		}
		doc[k] = raw
	}
	merged, err := json.Marshal(doc)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(merged, &out); err != nil {
		// a value of the wrong type is the caller's mistake, not a storage fault
		field := "body"
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			field = typeErr.Field
		}
		return out, apperrors.NewValidationError(apperrors.FieldError{
			Field:   field,
			Message: fmt.Sprintf("expected %s", typeOf(typeErr)),
		})
	}
	return out, nil
}

func typeOf(e *json.UnmarshalTypeError) string {
	if e == nil || e.Type == nil {
		return "a value of the stored type"
	}
	return e.Type.String()
}

func cloneAll[T Record](recs []T) ([]T, error) {
	out := make([]T, 0, len(recs))
	for _, r := range recs {
		c, err := Clone(r)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
