package models

import (
	"fmt"
	"strings"
	"time"
)

type SequenceStatus string

const (
	SequenceDraft     SequenceStatus = "draft"
	SequenceActive    SequenceStatus = "active"
	SequencePaused    SequenceStatus = "paused"
	SequenceCompleted SequenceStatus = "completed"
)

func (s SequenceStatus) Valid() bool {
	switch s {
	case SequenceDraft, SequenceActive, SequencePaused, SequenceCompleted:
		return true
	}
	return false
}

// Toggled flips active to paused; every other status starts the sequence.
func (s SequenceStatus) Toggled() SequenceStatus {
	if s == SequenceActive {
		return SequencePaused
	}
	return SequenceActive
}

type Sequence struct {
	ID        int             `json:"id"`
	ClientID  int             `json:"clientId"`
	Name      string          `json:"name"`
	Steps     []Step          `json:"steps"`
	Triggers  Triggers        `json:"triggers"`
	Status    SequenceStatus  `json:"status"`
	Metrics   SequenceMetrics `json:"metrics"`
	CreatedAt time.Time       `json:"createdAt"`
}

type Triggers struct {
	Entry string `json:"entry,omitempty"`
	Exit  string `json:"exit,omitempty"`
}

type SequenceMetrics struct {
	TotalProspects     int     `json:"totalProspects"`
	ActiveProspects    int     `json:"activeProspects"`
	CompletedProspects int     `json:"completedProspects"`
	OpenRate           float64 `json:"openRate"`
	ClickRate          float64 `json:"clickRate"`
}

// EmailSteps counts the steps that send mail.
func (s *Sequence) EmailSteps() int {
	n := 0
	for _, st := range s.Steps {
		if st.Type == StepEmail {
			n++
		}
	}
	return n
}

func (s *Sequence) RecordID() int      { return s.ID }
func (s *Sequence) AssignID(id int)    { s.ID = id }
func (s *Sequence) TenantID() int      { return s.ClientID }
func (s *Sequence) Created() time.Time { return s.CreatedAt }

func (s *Sequence) StampCreated(t time.Time) {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = t
	}
}

type StepType string

const (
	StepEmail     StepType = "email"
	StepWait      StepType = "wait"
	StepCondition StepType = "condition"
)

func (t StepType) Valid() bool {
	switch t {
	case StepEmail, StepWait, StepCondition:
		return true
	}
	return false
}

// Step is one entry of a sequence. IDs are unique only within the parent sequence.
type Step struct {
	ID     int        `json:"id"`
	Type   StepType   `json:"type"`
	Order  int        `json:"order"`
	Config StepConfig `json:"config"`
}

// StepConfig carries the type-specific settings; unused fields stay empty.
type StepConfig struct {
	Subject     string `json:"subject,omitempty"`
	Template    string `json:"template,omitempty"`
	Delay       *Delay `json:"delay,omitempty"`
	Condition   string `json:"condition,omitempty"`
	TrueAction  string `json:"trueAction,omitempty"`
	FalseAction string `json:"falseAction,omitempty"`
}

type Delay struct {
	Value int    `json:"value"`
	Unit  string `json:"unit"`
}

func (s *Step) ItemID() int        { return s.ID }
func (s *Step) SetItemID(id int)   { s.ID = id }
func (s *Step) SetOrder(order int) { s.Order = order }

// DefaultStepConfig returns the configuration a freshly added step starts with.
func DefaultStepConfig(t StepType) StepConfig {
	switch t {
	case StepEmail:
		return StepConfig{Delay: &Delay{Value: 0, Unit: "days"}}
	case StepWait:
		return StepConfig{Delay: &Delay{Value: 1, Unit: "days"}}
	case StepCondition:
		return StepConfig{
			Condition:   "email_opened",
			TrueAction:  "continue",
			FalseAction: "wait",
		}
	default:
		return StepConfig{}
	}
}

// Describe renders a one-line summary of the step.
func (s Step) Describe() string {
	switch s.Type {
	case StepEmail:
		if s.Config.Delay == nil {
			return "Send email"
		}
		return fmt.Sprintf("Send email after %d %s", s.Config.Delay.Value, s.Config.Delay.Unit)
	case StepWait:
		if s.Config.Delay == nil {
			return "Wait"
		}
		return fmt.Sprintf("Wait %d %s", s.Config.Delay.Value, s.Config.Delay.Unit)
	case StepCondition:
		return "Check if " + strings.Replace(s.Config.Condition, "_", " ", 1)
	default:
		return string(s.Type)
	}
}
