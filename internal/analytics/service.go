// Package analytics derives engagement reports from a client's records.
package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	apperrors "agency-dashboard/internal/common/errors"
	"agency-dashboard/internal/common/logger"
	"agency-dashboard/internal/models"
	"agency-dashboard/internal/segmenteval"
	"agency-dashboard/internal/store"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

type Service struct {
	store *store.Store
	rdb   *redis.Client
	ttl   time.Duration
	log   logger.Logger
	now   func() time.Time
}

// NewService builds the analytics service. rdb may be nil to disable caching.
func NewService(s *store.Store, rdb *redis.Client, ttl time.Duration, log logger.Logger) *Service {
	return &Service{
		store: s,
		rdb:   rdb,
		ttl:   ttl,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

type snapshot struct {
	prospects  []*models.Prospect
	sequences  []*models.Sequence
	segments   []*models.Segment
	activities []*models.Activity
}

// load fetches all of a client's collections concurrently.
func (s *Service) load(ctx context.Context, clientID int) (*snapshot, error) {
	var snap snapshot
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		snap.prospects, err = s.store.Prospects.GetByClient(ctx, clientID)
		return err
	})
	g.Go(func() (err error) {
		snap.sequences, err = s.store.Sequences.GetByClient(ctx, clientID)
		return err
	})
	g.Go(func() (err error) {
		snap.segments, err = s.store.Segments.GetByClient(ctx, clientID)
		return err
	})
	g.Go(func() (err error) {
		snap.activities, err = s.store.Activities.GetByClient(ctx, clientID)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, apperrors.NewLoadFailureError("analytics", err)
	}
	return &snap, nil
}

func cacheKey(clientID int, r Range) string {
	return fmt.Sprintf("dash:analytics:client:%d:%s", clientID, r)
}

// Overview reports on a client over the given range. Results are cached.
func (s *Service) Overview(ctx context.Context, clientID int, r Range) (*Overview, error) {
	days, ok := r.Days()
	if !ok {
		return nil, apperrors.NewValidationError(apperrors.FieldError{
			Field:   "range",
			Message: fmt.Sprintf("range must be one of 7d, 30d, 90d, got %q", r),
		})
	}

	if cached := s.cached(ctx, clientID, r); cached != nil {
		return cached, nil
	}

	snap, err := s.load(ctx, clientID)
	if err != nil {
		return nil, err
	}

	to := s.now()
	from := startOfDay(to).AddDate(0, 0, -(days - 1))
	ov := build(clientID, r, from, to, snap)

	s.storeCached(ctx, clientID, r, ov)
	return ov, nil
}

func build(clientID int, r Range, from, to time.Time, snap *snapshot) *Overview {
	ov := &Overview{ClientID: clientID, Range: r, From: from, To: to}

	days := int(to.Sub(from).Hours()/24) + 1
	series := make([]Day, days)
	index := make(map[string]int, days)
	for i := range series {
		d := from.AddDate(0, 0, i).Format(time.DateOnly)
		series[i].Date = d
		index[d] = i
	}

	openers := map[int]bool{}
	clickers := map[int]bool{}
	for _, a := range snap.activities {
		if a.Timestamp.Before(from) || a.Timestamp.After(to) {
			continue
		}
		ov.Totals.Activities++
		i, ok := index[a.Timestamp.UTC().Format(time.DateOnly)]
		switch a.Type {
		case models.ActivityEmailOpen:
			ov.Totals.EmailsOpened++
			openers[a.ProspectID] = true
			if ok {
				series[i].Opens++
			}
		case models.ActivityEmailClick:
			ov.Totals.EmailsClicked++
			clickers[a.ProspectID] = true
			if ok {
				series[i].Clicks++
			}
		case models.ActivityWebsiteVisit:
			if ok {
				series[i].Visits++
			}
		case models.ActivityFormSubmit:
			if ok {
				series[i].Forms++
			}
		}
	}
	ov.Engagement = series

	converted := 0
	for _, p := range snap.prospects {
		if !p.CreatedAt.Before(from) {
			ov.Totals.NewProspects++
		}
		if p.SequenceStatus.Status == models.ProspectConverted {
			converted++
		}
	}
	total := len(snap.prospects)
	ov.Totals.TotalProspects = total
	ov.Totals.OpenRate = percent(len(openers), total)
	ov.Totals.ClickRate = percent(len(clickers), total)
	ov.Totals.ConversionRate = percent(converted, total)

	ov.Sequences = make([]SequenceSummary, 0, len(snap.sequences))
	for _, seq := range snap.sequences {
		ov.Sequences = append(ov.Sequences, SequenceSummary{
			ID:        seq.ID,
			Name:      seq.Name,
			Status:    string(seq.Status),
			Prospects: seq.Metrics.TotalProspects,
			OpenRate:  seq.Metrics.OpenRate,
			ClickRate: seq.Metrics.ClickRate,
		})
	}

	ov.Segments = make([]SegmentSummary, 0, len(snap.segments))
	for _, seg := range snap.segments {
		var (
			n   int
			sum float64
		)
		for _, p := range snap.prospects {
			if segmenteval.Matches(p, seg.Rules, to) {
				n++
				sum += p.Score
			}
		}
		summary := SegmentSummary{ID: seg.ID, Name: seg.Name, Prospects: n}
		if n > 0 {
			summary.AvgScore = round1(sum / float64(n))
		}
		ov.Segments = append(ov.Segments, summary)
	}
	return ov
}

// SequencePerformance reports one sequence's funnel, step by step.
func (s *Service) SequencePerformance(ctx context.Context, sequenceID int) (*SequencePerformance, error) {
	seq, err := s.store.Sequences.GetByID(ctx, sequenceID)
	if err != nil {
		return nil, err
	}
	snap, err := s.load(ctx, seq.ClientID)
	if err != nil {
		return nil, err
	}

	perf := &SequencePerformance{
		SequenceID:         seq.ID,
		TotalProspects:     seq.Metrics.TotalProspects,
		ActiveProspects:    seq.Metrics.ActiveProspects,
		CompletedProspects: seq.Metrics.CompletedProspects,
		Metrics: PerformanceRates{
			OpenRate:       seq.Metrics.OpenRate,
			ClickRate:      seq.Metrics.ClickRate,
			ConversionRate: percent(seq.Metrics.CompletedProspects, seq.Metrics.TotalProspects),
		},
	}

	opened := map[int]int{}
	clicked := map[int]int{}
	for _, a := range snap.activities {
		seqID, stepID, ok := a.SequenceStep()
		if !ok || seqID != seq.ID {
			continue
		}
		switch a.Type {
		case models.ActivityEmailOpen:
			opened[stepID]++
		case models.ActivityEmailClick:
			clicked[stepID]++
		}
	}

	perf.Steps = make([]StepPerformance, 0, len(seq.Steps))
	for i, step := range seq.Steps {
		reached := 0
		for _, p := range snap.prospects {
			if p.InSequence(seq.ID) && p.SequenceStatus.CurrentStep >= i {
				reached++
			}
		}
		perf.Steps = append(perf.Steps, StepPerformance{
			Step:        i + 1,
			StepID:      step.ID,
			Description: step.Describe(),
			Reached:     reached,
			Opened:      opened[step.ID],
			Clicked:     clicked[step.ID],
		})
	}
	return perf, nil
}

// DashboardMetrics returns the four headline cards.
func (s *Service) DashboardMetrics(ctx context.Context, clientID int) ([]Card, error) {
	snap, err := s.load(ctx, clientID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	weekAgo := now.AddDate(0, 0, -7)

	var newThisWeek, converted int
	for _, p := range snap.prospects {
		if p.CreatedAt.After(weekAgo) {
			newThisWeek++
		}
		if p.SequenceStatus.Status == models.ProspectConverted {
			converted++
		}
	}

	var active, paused int
	for _, seq := range snap.sequences {
		switch seq.Status {
		case models.SequenceActive:
			active++
		case models.SequencePaused:
			paused++
		}
	}

	from := startOfDay(now).AddDate(0, 0, -29)
	month := build(clientID, Range30d, from, now, snap)

	return []Card{
		{ID: 1, Title: "Total Prospects", Value: strconv.Itoa(len(snap.prospects)), Subtitle: fmt.Sprintf("%d new this week", newThisWeek)},
		{ID: 2, Title: "Active Sequences", Value: strconv.Itoa(active), Subtitle: fmt.Sprintf("%d paused", paused)},
		{ID: 3, Title: "Open Rate", Value: fmt.Sprintf("%.1f%%", month.Totals.OpenRate), Subtitle: "Last 30 days"},
		{ID: 4, Title: "Conversions", Value: strconv.Itoa(converted), Subtitle: "Converted prospects"},
	}, nil
}

// Invalidate drops every cached overview of the client.
func (s *Service) Invalidate(ctx context.Context, clientID int) {
	if s.rdb == nil {
		return
	}
	keys := make([]string, 0, 3)
	for _, r := range []Range{Range7d, Range30d, Range90d} {
		keys = append(keys, cacheKey(clientID, r))
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		s.log.Warn("Analytics cache invalidation failed", map[string]interface{}{"clientId": clientID, "error": err})
	}
}

// ActivityRecorded is registered with the activity service so new engagement
// shows up in the next overview.
func (s *Service) ActivityRecorded(ctx context.Context, a *models.Activity) {
	s.Invalidate(ctx, a.ClientID)
}

func (s *Service) cached(ctx context.Context, clientID int, r Range) *Overview {
	if s.rdb == nil {
		return nil
	}
	raw, err := s.rdb.Get(ctx, cacheKey(clientID, r)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn("Analytics cache read failed", map[string]interface{}{"clientId": clientID, "error": err})
		}
		return nil
	}
	var ov Overview
	if err := json.Unmarshal(raw, &ov); err != nil {
		return nil
	}
	return &ov
}

func (s *Service) storeCached(ctx context.Context, clientID int, r Range, ov *Overview) {
	if s.rdb == nil {
		return
	}
	b, err := json.Marshal(ov)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, cacheKey(clientID, r), b, s.ttl).Err(); err != nil {
		s.log.Warn("Analytics cache write failed", map[string]interface{}{"clientId": clientID, "error": err})
	}
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return round1(float64(part) / float64(whole) * 100)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
