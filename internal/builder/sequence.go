package builder

import (
	"context"
	"fmt"
	"strings"

	apperrors "agency-dashboard/internal/common/errors"
	"agency-dashboard/internal/models"
	"agency-dashboard/internal/store"
)

// SequenceBuilder edits a draft sequence. Nothing reaches the store until Save.
type SequenceBuilder struct {
	sequences store.Collection[*models.Sequence]
	clientID  int
	existing  *models.Sequence

	Name     string
	Triggers models.Triggers
	steps    *List[models.Step, *models.Step]
}

// NewSequence starts an empty draft for clientID.
func NewSequence(sequences store.Collection[*models.Sequence], clientID int) *SequenceBuilder {
	return &SequenceBuilder{
		sequences: sequences,
		clientID:  clientID,
		steps:     NewList[models.Step, *models.Step](nil),
	}
}

// EditSequence loads an existing sequence into a draft.
func EditSequence(sequences store.Collection[*models.Sequence], seq *models.Sequence) *SequenceBuilder {
	return &SequenceBuilder{
		sequences: sequences,
		clientID:  seq.ClientID,
		existing:  seq,
		Name:      seq.Name,
		Triggers:  seq.Triggers,
		steps:     NewList[models.Step, *models.Step](seq.Steps),
	}
}

// AddStep appends a step of type t with its default configuration.
func (b *SequenceBuilder) AddStep(t models.StepType) int {
	return b.steps.Append(models.Step{Type: t, Config: models.DefaultStepConfig(t)})
}

func (b *SequenceBuilder) UpdateStep(id int, cfg models.StepConfig) error {
	return b.steps.Edit(id, func(s *models.Step) { s.Config = cfg })
}

func (b *SequenceBuilder) RemoveStep(id int) error { return b.steps.Remove(id) }

func (b *SequenceBuilder) MoveStep(from, to int) error { return b.steps.Move(from, to) }

func (b *SequenceBuilder) Steps() []models.Step { return b.steps.Items() }

// SetSteps replaces the draft's steps wholesale, keeping positive ids and
// treating the rest as new.
func (b *SequenceBuilder) SetSteps(steps []models.Step) {
	b.steps = NewList[models.Step, *models.Step](nil)
	for _, s := range steps {
		if s.ID > 0 {
			b.steps.items = append(b.steps.items, s)
			continue
		}
		b.steps.Append(s)
	}
	b.steps.renumber()
}

func (b *SequenceBuilder) validate() error {
	var fields []apperrors.FieldError
	if b.clientID <= 0 {
		fields = append(fields, apperrors.FieldError{Field: "clientId", Message: "No client selected"})
	}
	if strings.TrimSpace(b.Name) == "" {
		fields = append(fields, apperrors.FieldError{Field: "name", Message: "Sequence name is required"})
	}
	for i, s := range b.steps.items {
		if !s.Type.Valid() {
			fields = append(fields, apperrors.FieldError{
				Field:   fmt.Sprintf("steps[%d].type", i),
				Message: fmt.Sprintf("unknown step type %q", s.Type),
			})
		}
	}
	if len(fields) > 0 {
		return apperrors.NewValidationError(fields...)
	}
	return nil
}

// Save creates the sequence as a draft with zeroed metrics, or updates the
// name, triggers and steps of an existing one.
func (b *SequenceBuilder) Save(ctx context.Context) (*models.Sequence, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}
	steps := b.steps.Finalize()
	name := strings.TrimSpace(b.Name)

	if b.existing == nil {
		seq, err := b.sequences.Create(ctx, &models.Sequence{
			ClientID: b.clientID,
			Name:     name,
			Steps:    steps,
			Triggers: b.Triggers,
			Status:   models.SequenceDraft,
			Metrics:  models.SequenceMetrics{},
		})
		if err != nil {
			return nil, fmt.Errorf("create sequence: %w", err)
		}
		b.existing = seq
		b.steps = NewList[models.Step, *models.Step](seq.Steps)
		return seq, nil
	}

	seq, err := b.sequences.Update(ctx, b.existing.ID, store.Patch{
		"name":     name,
		"steps":    steps,
		"triggers": b.Triggers,
	})
	if err != nil {
		return nil, fmt.Errorf("update sequence %d: %w", b.existing.ID, err)
	}
	b.existing = seq
	b.steps = NewList[models.Step, *models.Step](seq.Steps)
	return seq, nil
}
