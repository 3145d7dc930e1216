package models

import "time"

type RuleField string

const (
	FieldScore        RuleField = "score"
	FieldSegment      RuleField = "segment"
	FieldCompany      RuleField = "company"
	FieldLastActivity RuleField = "lastActivity"
)

type RuleOperator string

const (
	OpEquals      RuleOperator = "equals"
	OpNotEquals   RuleOperator = "not_equals"
	OpGreaterThan RuleOperator = "greater_than"
	OpLessThan    RuleOperator = "less_than"
	OpContains    RuleOperator = "contains"
)

type Segment struct {
	ID        int       `json:"id"`
	ClientID  int       `json:"clientId"`
	Name      string    `json:"name"`
	Rules     []Rule    `json:"rules"`
	Prospects int       `json:"prospects"`
	CreatedAt time.Time `json:"createdAt"`
}

// Rule is a single field/operator/value predicate. All rules of a segment must hold.
type Rule struct {
	ID       int          `json:"id"`
	Order    int          `json:"order"`
	Field    RuleField    `json:"field"`
	Operator RuleOperator `json:"operator"`
	Value    string       `json:"value"`
}

func (r *Rule) ItemID() int        { return r.ID }
func (r *Rule) SetItemID(id int)   { r.ID = id }
func (r *Rule) SetOrder(order int) { r.Order = order }

func (s *Segment) RecordID() int      { return s.ID }
func (s *Segment) AssignID(id int)    { s.ID = id }
func (s *Segment) TenantID() int      { return s.ClientID }
func (s *Segment) Created() time.Time { return s.CreatedAt }

func (s *Segment) StampCreated(t time.Time) {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = t
	}
}
