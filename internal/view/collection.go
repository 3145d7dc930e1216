// Package view implements the per-page collection view: load state, client-side
// search, facets and sorting over one client's records, plus confirmed mutations.
package view

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	apperrors "agency-dashboard/internal/common/errors"
	"agency-dashboard/internal/common/logger"
	"agency-dashboard/internal/common/metrics"
	"agency-dashboard/internal/store"

	"golang.org/x/sync/errgroup"
)

type State int

const (
	Loading State = iota
	Ready
	Error
	EmptyNoTenant
	EmptyNoRecords
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Error:
		return "error"
	case EmptyNoTenant:
		return "empty_no_tenant"
	case EmptyNoRecords:
		return "empty_no_records"
	default:
		return "unknown"
	}
}

// Tenant is the active-client source a view is bound to.
type Tenant interface {
	ActiveID() (int, bool)
	Generation() uint64
}

// Confirm approves a destructive action. A nil Confirm approves everything.
type Confirm func(prompt string) bool

type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// Notice is a transient message raised by a mutation.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}

// Config describes one page's collection.
type Config[T store.Record] struct {
	// Noun names a single record in notices, e.g. "prospect".
	Noun    string
	Records store.Collection[T]
	// Load overrides Records.GetByClient.
	Load   func(ctx context.Context, clientID int) ([]T, error)
	Search []func(T) string
	Facets map[string]func(T) string
	Sorts  map[string]Compare[T]

	DefaultSort string
	DefaultDesc bool
}

type Collection[T store.Record] struct {
	cfg    Config[T]
	tenant Tenant
	log    logger.Logger

	mu       sync.RWMutex
	state    State
	clientID int
	records  []T
	err      error
	notice   *Notice
	query    Query
	seq      uint64
}

func New[T store.Record](cfg Config[T], tenant Tenant, log logger.Logger) *Collection[T] {
	if cfg.Load == nil {
		cfg.Load = cfg.Records.GetByClient
	}
	return &Collection[T]{
		cfg:    cfg,
		tenant: tenant,
		log:    log.WithFields(map[string]interface{}{"view": cfg.Records.Name()}),
		state:  Loading,
		query: Query{
			Facets:   map[string]string{},
			SortBy:   cfg.DefaultSort,
			SortDesc: cfg.DefaultDesc,
		},
	}
}

// Reload fetches the active client's records. A result that arrives after a
// newer reload started, or after the tenant changed, is discarded.
func (v *Collection[T]) Reload(ctx context.Context) error {
	clientID, ok := v.tenant.ActiveID()

	v.mu.Lock()
	v.seq++
	seq := v.seq
	if !ok {
		v.state = EmptyNoTenant
		v.records = nil
		v.err = nil
		v.clientID = 0
		v.mu.Unlock()
		metrics.ViewReloads.WithLabelValues(v.cfg.Records.Name(), "no_tenant").Inc()
		return nil
	}
	gen := v.tenant.Generation()
	v.state = Loading
	v.err = nil
	v.mu.Unlock()

	recs, err := v.cfg.Load(ctx, clientID)

	v.mu.Lock()
	defer v.mu.Unlock()

	current, _ := v.tenant.ActiveID()
	if seq != v.seq || gen != v.tenant.Generation() || current != clientID {
		v.log.Debug("Discarding stale load", map[string]interface{}{"clientId": clientID})
		metrics.ViewReloads.WithLabelValues(v.cfg.Records.Name(), "stale").Inc()
		return nil
	}

	if err != nil {
		v.state = Error
		v.err = apperrors.NewLoadFailureError(v.cfg.Records.Name(), err)
		v.records = nil
		v.log.Error("Failed to load records", map[string]interface{}{"clientId": clientID, "error": err})
		metrics.ViewReloads.WithLabelValues(v.cfg.Records.Name(), "error").Inc()
		return v.err
	}

	v.clientID = clientID
	v.records = recs
	if len(recs) == 0 {
		v.state = EmptyNoRecords
		metrics.ViewReloads.WithLabelValues(v.cfg.Records.Name(), "empty").Inc()
	} else {
		v.state = Ready
		metrics.ViewReloads.WithLabelValues(v.cfg.Records.Name(), "ready").Inc()
	}
	return nil
}

// Retry re-runs the load after an Error.
func (v *Collection[T]) Retry(ctx context.Context) error {
	return v.Reload(ctx)
}

func (v *Collection[T]) State() State {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state
}

// Err is the LoadFailure behind an Error state.
func (v *Collection[T]) Err() error {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.err
}

// ClientID is the client whose records are currently held.
func (v *Collection[T]) ClientID() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.clientID
}

// Notice returns and clears the last mutation notice.
func (v *Collection[T]) Notice() *Notice {
	v.mu.Lock()
	defer v.mu.Unlock()
	n := v.notice
	v.notice = nil
	return n
}

func (v *Collection[T]) Query() Query {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.query.clone()
}

func (v *Collection[T]) SetSearch(term string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.query.Search = term
}

// ToggleFacet filters on value; toggling the active value clears the facet.
// An empty value also clears it.
func (v *Collection[T]) ToggleFacet(name, value string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.cfg.Facets[name]; !ok {
		return
	}
	if value == "" || v.query.Facets[name] == value {
		delete(v.query.Facets, name)
		return
	}
	v.query.Facets[name] = value
}

// SortBy flips the direction for the current field, or starts a new field ascending.
func (v *Collection[T]) SortBy(field string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.cfg.Sorts[field]; !ok {
		return
	}
	if v.query.SortBy == field {
		v.query.SortDesc = !v.query.SortDesc
		return
	}
	v.query.SortBy = field
	v.query.SortDesc = false
}

// SetSort sets field and direction explicitly.
func (v *Collection[T]) SetSort(field string, desc bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.cfg.Sorts[field]; !ok {
		return
	}
	v.query.SortBy = field
	v.query.SortDesc = desc
}

// Rows returns the records that pass the query, in sort order.
func (v *Collection[T]) Rows() []T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return apply(v.records, v.query, v.cfg.Search, v.cfg.Facets, v.cfg.Sorts)
}

// Total is the unfiltered record count.
func (v *Collection[T]) Total() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.records)
}

// FacetValues lists the distinct values of a facet across the loaded records.
func (v *Collection[T]) FacetValues(name string) []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	get, ok := v.cfg.Facets[name]
	if !ok {
		return nil
	}
	var vals []string
	for _, r := range v.records {
		if val := get(r); val != "" && !slices.Contains(vals, val) {
			vals = append(vals, val)
		}
	}
	slices.Sort(vals)
	return vals
}

// Delete removes one record after confirmation, then reloads.
func (v *Collection[T]) Delete(ctx context.Context, id int, confirm Confirm) (bool, error) {
	if confirm != nil && !confirm(fmt.Sprintf("Are you sure you want to delete this %s?", v.cfg.Noun)) {
		return false, nil
	}
	if _, err := v.cfg.Records.Delete(ctx, id); err != nil {
		v.fail(fmt.Sprintf("Failed to delete %s", v.cfg.Noun), err)
		return false, apperrors.NewMutationFailedError("delete "+v.cfg.Noun, err)
	}
	v.succeed(fmt.Sprintf("%s deleted successfully", capitalize(v.cfg.Noun)))
	return true, v.Reload(ctx)
}

// BulkDelete deletes every id concurrently and waits for all of them. Any
// failure yields a single notice; the view reloads either way.
func (v *Collection[T]) BulkDelete(ctx context.Context, ids []int, confirm Confirm) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	if confirm != nil && !confirm(fmt.Sprintf("Are you sure you want to delete %d %ss?", len(ids), v.cfg.Noun)) {
		return 0, nil
	}

	var (
		g       errgroup.Group
		deleted atomic.Int64
	)
	for _, id := range ids {
		g.Go(func() error {
			if _, err := v.cfg.Records.Delete(ctx, id); err != nil {
				return fmt.Errorf("delete %s %d: %w", v.cfg.Noun, id, err)
			}
			deleted.Add(1)
			return nil
		})
	}
	err := g.Wait()
	n := int(deleted.Load())

	if err != nil {
		v.fail(fmt.Sprintf("Failed to delete %ss", v.cfg.Noun), err)
		if rerr := v.Reload(ctx); rerr != nil {
			v.log.Warn("Reload after bulk delete failed", map[string]interface{}{"error": rerr})
		}
		return n, apperrors.NewMutationFailedError("delete "+v.cfg.Noun+"s", err)
	}
	v.succeed(fmt.Sprintf("%d %ss deleted successfully", n, v.cfg.Noun))
	return n, v.Reload(ctx)
}

// Mutate runs fn after confirmation, then reloads. Use it for edits such as
// toggling a sequence's status.
func (v *Collection[T]) Mutate(ctx context.Context, prompt string, confirm Confirm, fn func(ctx context.Context) error) (bool, error) {
	if confirm != nil && !confirm(prompt) {
		return false, nil
	}
	if err := fn(ctx); err != nil {
		v.fail(fmt.Sprintf("Failed to update %s", v.cfg.Noun), err)
		return false, apperrors.NewMutationFailedError("update "+v.cfg.Noun, err)
	}
	v.succeed(fmt.Sprintf("%s updated successfully", capitalize(v.cfg.Noun)))
	return true, v.Reload(ctx)
}

func (v *Collection[T]) fail(msg string, err error) {
	v.log.Error(msg, map[string]interface{}{"error": err})
	v.mu.Lock()
	v.notice = &Notice{Level: NoticeError, Message: msg}
	v.mu.Unlock()
}

func (v *Collection[T]) succeed(msg string) {
	v.mu.Lock()
	v.notice = &Notice{Level: NoticeSuccess, Message: msg}
	v.mu.Unlock()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
