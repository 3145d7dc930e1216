package models

import "time"

// ProspectStatus is the sequence-enrollment status of a prospect.
type ProspectStatus string

const (
	ProspectNew       ProspectStatus = "new"
	ProspectActive    ProspectStatus = "active"
	ProspectNurturing ProspectStatus = "nurturing"
	ProspectPaused    ProspectStatus = "paused"
	ProspectConverted ProspectStatus = "converted"
)

func (s ProspectStatus) Valid() bool {
	switch s {
	case ProspectNew, ProspectActive, ProspectNurturing, ProspectPaused, ProspectConverted:
		return true
	}
	return false
}

type Prospect struct {
	ID             int              `json:"id"`
	ClientID       int              `json:"clientId"`
	Email          string           `json:"email"`
	Company        string           `json:"company"`
	Score          float64          `json:"score"`
	Segment        string           `json:"segment"`
	Activities     []int            `json:"activities"`
	SequenceStatus EnrollmentStatus `json:"sequenceStatus"`
	CreatedAt      time.Time        `json:"createdAt"`
	LastActivity   time.Time        `json:"lastActivity"`
}

// EnrollmentStatus tracks where a prospect is within a sequence. SequenceID is
// nil when the prospect is not enrolled.
type EnrollmentStatus struct {
	Status      ProspectStatus `json:"status"`
	CurrentStep int            `json:"currentStep,omitempty"`
	SequenceID  *int           `json:"sequenceId,omitempty"`
}

// InSequence reports whether the prospect is enrolled in the given sequence.
func (p *Prospect) InSequence(sequenceID int) bool {
	return p.SequenceStatus.SequenceID != nil && *p.SequenceStatus.SequenceID == sequenceID
}

func (p *Prospect) RecordID() int      { return p.ID }
func (p *Prospect) AssignID(id int)    { p.ID = id }
func (p *Prospect) TenantID() int      { return p.ClientID }
func (p *Prospect) Created() time.Time { return p.CreatedAt }

// StampCreated sets the creation and last-activity times when unset.
func (p *Prospect) StampCreated(t time.Time) {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = t
	}
	if p.LastActivity.IsZero() {
		p.LastActivity = t
	}
	if p.SequenceStatus.Status == "" {
		p.SequenceStatus.Status = ProspectNew
	}
}
