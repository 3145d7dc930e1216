// Package segmenteval decides which prospects a segment's rules select.
package segmenteval

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"agency-dashboard/internal/models"
)

var (
	numericOps = map[models.RuleOperator]bool{
		models.OpEquals:      true,
		models.OpNotEquals:   true,
		models.OpGreaterThan: true,
		models.OpLessThan:    true,
	}
	textOps = map[models.RuleOperator]bool{
		models.OpEquals:    true,
		models.OpNotEquals: true,
		models.OpContains:  true,
	}
	Fields = []models.RuleField{
		models.FieldScore,
		models.FieldSegment,
		models.FieldCompany,
		models.FieldLastActivity,
	}
	Operators = []models.RuleOperator{
		models.OpEquals,
		models.OpNotEquals,
		models.OpGreaterThan,
		models.OpLessThan,
		models.OpContains,
	}
)

func numeric(f models.RuleField) bool {
	return f == models.FieldScore || f == models.FieldLastActivity
}

// Validate reports why a rule cannot be evaluated, or nil.
func Validate(r models.Rule) error {
	switch r.Field {
	case models.FieldScore, models.FieldLastActivity:
		if !numericOps[r.Operator] {
			return fmt.Errorf("operator %q is not supported for %s", r.Operator, r.Field)
		}
		if _, err := strconv.ParseFloat(strings.TrimSpace(r.Value), 64); err != nil {
			return fmt.Errorf("value for %s must be a number", r.Field)
		}
	case models.FieldSegment, models.FieldCompany:
		if !textOps[r.Operator] {
			return fmt.Errorf("operator %q is not supported for %s", r.Operator, r.Field)
		}
	default:
		return fmt.Errorf("unknown field %q", r.Field)
	}
	return nil
}

// Matches reports whether p satisfies every rule. Rules that fail Validate never match.
func Matches(p *models.Prospect, rules []models.Rule, now time.Time) bool {
	for _, r := range rules {
		if !matchRule(p, r, now) {
			return false
		}
	}
	return true
}

// Count is the number of prospects matching rules.
func Count(prospects []*models.Prospect, rules []models.Rule, now time.Time) int {
	n := 0
	for _, p := range prospects {
		if Matches(p, rules, now) {
			n++
		}
	}
	return n
}

func matchRule(p *models.Prospect, r models.Rule, now time.Time) bool {
	if Validate(r) != nil {
		return false
	}
	if numeric(r.Field) {
		want, _ := strconv.ParseFloat(strings.TrimSpace(r.Value), 64)
		var got float64
		if r.Field == models.FieldScore {
			got = p.Score
		} else {
			got = float64(DaysSince(p.LastActivity, now))
		}
		switch r.Operator {
		case models.OpEquals:
			return got == want
		case models.OpNotEquals:
			return got != want
		case models.OpGreaterThan:
			return got > want
		case models.OpLessThan:
			return got < want
		}
		return false
	}

	var got string
	if r.Field == models.FieldSegment {
		got = p.Segment
	} else {
		got = p.Company
	}
	switch r.Operator {
	case models.OpEquals:
		return strings.EqualFold(got, r.Value)
	case models.OpNotEquals:
		return !strings.EqualFold(got, r.Value)
	case models.OpContains:
		return strings.Contains(strings.ToLower(got), strings.ToLower(r.Value))
	}
	return false
}

// DaysSince counts whole days between t and now. A zero t counts from the epoch.
func DaysSince(t, now time.Time) int {
	if now.Before(t) {
		return 0
	}
	return int(now.Sub(t).Hours() / 24)
}
