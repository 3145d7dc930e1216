package models

import "time"

type ActivityType string

const (
	ActivityEmailOpen        ActivityType = "email_open"
	ActivityEmailClick       ActivityType = "email_click"
	ActivityWebsiteVisit     ActivityType = "website_visit"
	ActivityFormSubmit       ActivityType = "form_submit"
	ActivitySequenceStart    ActivityType = "sequence_start"
	ActivitySequenceComplete ActivityType = "sequence_complete"
)

func (t ActivityType) Valid() bool {
	switch t {
	case ActivityEmailOpen, ActivityEmailClick, ActivityWebsiteVisit,
		ActivityFormSubmit, ActivitySequenceStart, ActivitySequenceComplete:
		return true
	}
	return false
}

// Activity is an engagement event. ClientID duplicates the prospect's client.
type Activity struct {
	ID         int                    `json:"id"`
	ProspectID int                    `json:"prospectId"`
	ClientID   int                    `json:"clientId"`
	Type       ActivityType           `json:"type"`
	Timestamp  time.Time              `json:"timestamp"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// ScoreDelta returns the optional "score" metadata entry.
func (a *Activity) ScoreDelta() float64 {
	return a.metaNumber("score")
}

// SequenceStep returns the sequence and step the activity was attributed to, if any.
func (a *Activity) SequenceStep() (sequenceID, stepID int, ok bool) {
	seq, hasSeq := a.Metadata["sequenceId"]
	step, hasStep := a.Metadata["stepId"]
	if !hasSeq || !hasStep {
		return 0, 0, false
	}
	return int(toFloat(seq)), int(toFloat(step)), true
}

func (a *Activity) metaNumber(key string) float64 {
	if a.Metadata == nil {
		return 0
	}
	return toFloat(a.Metadata[key])
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}

func (a *Activity) RecordID() int      { return a.ID }
func (a *Activity) AssignID(id int)    { a.ID = id }
func (a *Activity) TenantID() int      { return a.ClientID }
func (a *Activity) Created() time.Time { return a.Timestamp }

func (a *Activity) StampCreated(t time.Time) {
	if a.Timestamp.IsZero() {
		a.Timestamp = t
	}
}
