// Package validation checks request payloads against JSON Schemas before they
// are decoded into models.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	apperrors "agency-dashboard/internal/common/errors"

	"github.com/xeipuuv/gojsonschema"
)

// Schema names.
const (
	ProspectCreate = "prospect.create"
	SequenceSave   = "sequence.save"
	SegmentSave    = "segment.save"
	ActivityCreate = "activity.create"
	ClientCreate   = "client.create"
	ProspectPatch  = "prospect.patch"
	ClientPatch    = "client.patch"
)

const stepSchema = `{
	"type": "object",
	"required": ["type"],
	"properties": {
		"id":     {"type": "integer"},
		"type":   {"type": "string", "enum": ["email", "wait", "condition"]},
		"order":  {"type": "integer", "minimum": 0},
		"config": {"type": "object"}
	}
}`

const ruleSchema = `{
	"type": "object",
	"required": ["field", "operator"],
	"properties": {
		"id":       {"type": "integer"},
		"field":    {"type": "string", "enum": ["score", "segment", "company", "lastActivity"]},
		"operator": {"type": "string", "enum": ["equals", "not_equals", "greater_than", "less_than", "contains"]},
		"value":    {"type": "string"}
	}
}`

const prospectProperties = `{
	"email":   {"type": "string", "format": "email"},
	"company": {"type": "string"},
	"score":   {"type": "number", "minimum": 0, "maximum": 100},
	"segment": {"type": "string"},
	"sequenceStatus": {
		"type": "object",
		"properties": {
			"status":      {"type": "string", "enum": ["new", "active", "nurturing", "paused", "converted"]},
			"currentStep": {"type": "integer", "minimum": 0},
			"sequenceId":  {"type": ["integer", "null"], "minimum": 1}
		}
	}
}`

// optionalEmail accepts an empty string, since settings may leave an address unset.
const optionalEmail = `{"type": "string", "pattern": "^$|^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\\.[a-zA-Z]{2,}$"}`

var clientProperties = fmt.Sprintf(`{
	"name":     {"type": "string", "minLength": 1},
	"industry": {"type": "string"},
	"logo":     {"type": "string"},
	"apiKeys": {
		"type": "object",
		"properties": {
			"leadshark": {"type": "string"},
			"sendgrid":  {"type": "string"}
		}
	},
	"subscription": {
		"type": "object",
		"properties": {
			"plan":      {"type": "string"},
			"status":    {"type": "string"},
			"expiresAt": {"type": "string"}
		}
	},
	"settings": {
		"type": "object",
		"properties": {
			"emailSettings": {
				"type": "object",
				"properties": {
					"fromName":  {"type": "string"},
					"fromEmail": %[1]s,
					"replyTo":   %[1]s
				}
			},
			"notifications": {
				"type": "object",
				"properties": {
					"emailReports":     {"type": "boolean"},
					"newProspects":     {"type": "boolean"},
					"sequenceComplete": {"type": "boolean"}
				}
			}
		}
	}
}`, optionalEmail)

var sources = map[string]string{
	ProspectCreate: fmt.Sprintf(`{
		"type": "object",
		"required": ["email"],
		"properties": %s
	}`, prospectProperties),
	// patches carry any subset of the fields
	ProspectPatch: fmt.Sprintf(`{"type": "object", "properties": %s}`, prospectProperties),
	ClientPatch:   fmt.Sprintf(`{"type": "object", "properties": %s}`, clientProperties),
	SequenceSave: fmt.Sprintf(`{
		"type": "object",
		"required": ["name"],
		"properties": {
			"name":  {"type": "string", "minLength": 1},
			"steps": {"type": "array", "items": %s},
			"triggers": {
				"type": "object",
				"properties": {
					"entry": {"type": "string"},
					"exit":  {"type": "string"}
				}
			}
		}
	}`, stepSchema),
	SegmentSave: fmt.Sprintf(`{
		"type": "object",
		"required": ["name", "rules"],
		"properties": {
			"name":  {"type": "string", "minLength": 1},
			"rules": {"type": "array", "items": %s}
		}
	}`, ruleSchema),
	ActivityCreate: `{
		"type": "object",
		"required": ["prospectId", "type"],
		"properties": {
			"prospectId": {"type": "integer", "minimum": 1},
			"type": {"type": "string", "enum": ["email_open", "email_click", "website_visit", "form_submit", "sequence_start", "sequence_complete"]},
			"metadata": {"type": "object"}
		}
	}`,
	ClientCreate: fmt.Sprintf(`{
		"type": "object",
		"required": ["name"],
		"properties": %s
	}`, clientProperties),
}

var schemas = compile()

func compile() map[string]*gojsonschema.Schema {
	out := make(map[string]*gojsonschema.Schema, len(sources))
	for name, src := range sources {
		s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
		if err != nil {
			panic(fmt.Sprintf("validation: schema %s: %v", name, err))
		}
		out[name] = s
	}
	return out
}

// Validate checks a raw JSON document against the named schema. Failures come
// back as a ValidationFailure carrying one FieldError per violation.
func Validate(name string, document []byte) error {
	s, ok := schemas[name]
	if !ok {
		return fmt.Errorf("validation: unknown schema %q", name)
	}

	result, err := s.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return apperrors.NewValidationError(apperrors.FieldError{
			Field:   "body",
			Message: fmt.Sprintf("malformed JSON: %v", err),
		})
	}
	if result.Valid() {
		return nil
	}

	fields := make([]apperrors.FieldError, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		fields = append(fields, apperrors.FieldError{
			Field:   fieldName(e),
			Message: e.Description(),
		})
	}
	return apperrors.NewValidationError(fields...)
}

// fieldName reports the offending property. Missing required properties are
// raised against the parent object, so the property name is appended from the
// error details.
func fieldName(e gojsonschema.ResultError) string {
	field := strings.TrimPrefix(e.Context().String(), "(root)")
	field = strings.TrimPrefix(field, ".")
	if e.Type() == "required" {
		if p, ok := e.Details()["property"].(string); ok {
			if field == "" {
				return p
			}
			return field + "." + p
		}
	}
	if field == "" {
		return "body"
	}
	return field
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail validates email format
func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}
