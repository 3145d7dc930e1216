package builder

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "agency-dashboard/internal/common/errors"
	"agency-dashboard/internal/models"
	"agency-dashboard/internal/segmenteval"
	"agency-dashboard/internal/store"
)

// SegmentBuilder edits a draft segment and caches its match count on save.
type SegmentBuilder struct {
	segments  store.Collection[*models.Segment]
	prospects store.Collection[*models.Prospect]
	clientID  int
	existing  *models.Segment
	now       func() time.Time

	Name  string
	rules *List[models.Rule, *models.Rule]
}

// NewSegment starts a draft with a single "score greater than 50" rule.
func NewSegment(segments store.Collection[*models.Segment], prospects store.Collection[*models.Prospect], clientID int) *SegmentBuilder {
	b := &SegmentBuilder{
		segments:  segments,
		prospects: prospects,
		clientID:  clientID,
		now:       time.Now,
		rules:     NewList[models.Rule, *models.Rule](nil),
	}
	b.rules.Append(models.Rule{Field: models.FieldScore, Operator: models.OpGreaterThan, Value: "50"})
	return b
}

func EditSegment(segments store.Collection[*models.Segment], prospects store.Collection[*models.Prospect], seg *models.Segment) *SegmentBuilder {
	return &SegmentBuilder{
		segments:  segments,
		prospects: prospects,
		clientID:  seg.ClientID,
		existing:  seg,
		now:       time.Now,
		Name:      seg.Name,
		rules:     NewList[models.Rule, *models.Rule](seg.Rules),
	}
}

// AddRule appends a "score greater than" rule with an empty value.
func (b *SegmentBuilder) AddRule() int {
	return b.rules.Append(models.Rule{Field: models.FieldScore, Operator: models.OpGreaterThan})
}

func (b *SegmentBuilder) UpdateRule(id int, field models.RuleField, op models.RuleOperator, value string) error {
	return b.rules.Edit(id, func(r *models.Rule) {
		r.Field = field
		r.Operator = op
		r.Value = value
	})
}

func (b *SegmentBuilder) RemoveRule(id int) error { return b.rules.Remove(id) }

func (b *SegmentBuilder) MoveRule(from, to int) error { return b.rules.Move(from, to) }

func (b *SegmentBuilder) Rules() []models.Rule { return b.rules.Items() }

// SetRules replaces the draft's rules wholesale.
func (b *SegmentBuilder) SetRules(rules []models.Rule) {
	b.rules = NewList[models.Rule, *models.Rule](nil)
	for _, r := range rules {
		if r.ID > 0 {
			b.rules.items = append(b.rules.items, r)
			continue
		}
		b.rules.Append(r)
	}
	b.rules.renumber()
}

func (b *SegmentBuilder) validate() error {
	var fields []apperrors.FieldError
	if b.clientID <= 0 {
		fields = append(fields, apperrors.FieldError{Field: "clientId", Message: "No client selected"})
	}
	if strings.TrimSpace(b.Name) == "" {
		fields = append(fields, apperrors.FieldError{Field: "name", Message: "Segment name is required"})
	}
	if b.rules.Len() == 0 {
		fields = append(fields, apperrors.FieldError{Field: "rules", Message: "At least one rule is required"})
	}
	for i, r := range b.rules.items {
		if err := segmenteval.Validate(r); err != nil {
			fields = append(fields, apperrors.FieldError{Field: fmt.Sprintf("rules[%d]", i), Message: err.Error()})
		}
	}
	if len(fields) > 0 {
		return apperrors.NewValidationError(fields...)
	}
	return nil
}

// Save validates the draft, counts the client's matching prospects and
// creates or updates the segment.
func (b *SegmentBuilder) Save(ctx context.Context) (*models.Segment, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}
	rules := b.rules.Finalize()

	prospects, err := b.prospects.GetByClient(ctx, b.clientID)
	if err != nil {
		return nil, fmt.Errorf("count segment prospects: %w", err)
	}
	count := segmenteval.Count(prospects, rules, b.now().UTC())
	name := strings.TrimSpace(b.Name)

	var seg *models.Segment
	if b.existing == nil {
		seg, err = b.segments.Create(ctx, &models.Segment{
			ClientID:  b.clientID,
			Name:      name,
			Rules:     rules,
			Prospects: count,
		})
		if err != nil {
			return nil, fmt.Errorf("create segment: %w", err)
		}
	} else {
		seg, err = b.segments.Update(ctx, b.existing.ID, store.Patch{
			"name":      name,
			"rules":     rules,
			"prospects": count,
		})
		if err != nil {
			return nil, fmt.Errorf("update segment %d: %w", b.existing.ID, err)
		}
	}
	b.existing = seg
	b.rules = NewList[models.Rule, *models.Rule](seg.Rules)
	return seg, nil
}
