package validation

import (
	"testing"

	apperrors "agency-dashboard/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		schema    string
		body      string
		wantErr   bool
		wantField string
	}{
		{"valid prospect", ProspectCreate, `{"email":"john@techstart.io","company":"TechStart","score":40}`, false, ""},
		{"prospect missing email", ProspectCreate, `{"company":"TechStart"}`, true, "email"},
		{"prospect bad email", ProspectCreate, `{"email":"nope"}`, true, "email"},
		{"prospect score out of range", ProspectCreate, `{"email":"a@b.io","score":140}`, true, "score"},
		{"valid sequence", SequenceSave, `{"name":"Welcome","steps":[{"type":"email","order":0,"config":{}}]}`, false, ""},
		{"sequence bad step type", SequenceSave, `{"name":"Welcome","steps":[{"type":"sms"}]}`, true, "steps.0.type"},
		{"segment missing rules", SegmentSave, `{"name":"Hot"}`, true, "rules"},
		{"segment bad operator", SegmentSave, `{"name":"Hot","rules":[{"field":"score","operator":"between"}]}`, true, "rules.0.operator"},
		{"valid activity", ActivityCreate, `{"prospectId":3,"type":"email_open","metadata":{"score":5}}`, false, ""},
		{"activity unknown type", ActivityCreate, `{"prospectId":3,"type":"call"}`, true, "type"},
		{"client blank name", ClientCreate, `{"name":""}`, true, "name"},
		{"prospect patch subset", ProspectPatch, `{"segment":"hot"}`, false, ""},
		{"prospect patch bad status", ProspectPatch, `{"sequenceStatus":{"status":"bogus"}}`, true, "sequenceStatus.status"},
		{"prospect patch wrong type", ProspectPatch, `{"score":"abc"}`, true, "score"},
		{"client patch empty reply-to", ClientPatch, `{"settings":{"emailSettings":{"replyTo":""}}}`, false, ""},
		{"client patch bad reply-to", ClientPatch, `{"settings":{"emailSettings":{"replyTo":"bad"}}}`, true, "settings.emailSettings.replyTo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.schema, []byte(tt.body))
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrValidationFailure)

			var fields []string
			for _, f := range apperrors.FieldsOf(err) {
				fields = append(fields, f.Field)
			}
			assert.Contains(t, fields, tt.wantField)
		})
	}
}

func TestValidate_MalformedAndUnknown(t *testing.T) {
	err := Validate(ProspectCreate, []byte(`{"email":`))
	assert.ErrorIs(t, err, apperrors.ErrValidationFailure)

	err = Validate("nope", []byte(`{}`))
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrValidationFailure)
}

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("sarah@techcorp.com"))
	assert.False(t, ValidateEmail("sarah@"))
	assert.False(t, ValidateEmail(""))
}
