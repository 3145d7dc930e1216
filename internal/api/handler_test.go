package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"agency-dashboard/internal/activity"
	"agency-dashboard/internal/analytics"
	"agency-dashboard/internal/common/leadshark"
	"agency-dashboard/internal/common/logger"
	"agency-dashboard/internal/importer"
	"agency-dashboard/internal/models"
	"agency-dashboard/internal/notify"
	"agency-dashboard/internal/store"

	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubLeads []leadshark.Lead

func (s stubLeads) ListLeads(ctx context.Context, apiKey string) ([]leadshark.Lead, error) {
	return s, nil
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, in *sns.PublishInput) (*sns.PublishOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*sns.PublishOutput)
	return out, args.Error(1)
}

func newTestStore() *store.Store {
	seqID := 1
	return store.New(store.MemoryCollections(store.Latency{}, store.Seed{
		Clients: []*models.Client{
			{ID: 1, Name: "TechCorp Solutions", APIKeys: models.APIKeys{LeadShark: "ls_key"},
				Settings: models.Settings{Notifications: models.NotificationSettings{SequenceComplete: true}}},
			{ID: 2, Name: "HealthPlus Clinic"},
		},
		Prospects: []*models.Prospect{
			{ID: 1, ClientID: 1, Email: "john@techstart.io", Company: "TechStart", Score: 45, Segment: "warm",
				SequenceStatus: models.EnrollmentStatus{Status: models.ProspectActive, SequenceID: &seqID}},
			{ID: 2, ClientID: 1, Email: "lisa@cloudnine.com", Company: "CloudNine", Score: 82, Segment: "hot",
				SequenceStatus: models.EnrollmentStatus{Status: models.ProspectNurturing}},
			{ID: 3, ClientID: 1, Email: "dan@acme.com", Company: "Acme", Score: 20, Segment: "cold",
				SequenceStatus: models.EnrollmentStatus{Status: models.ProspectNew}},
			{ID: 4, ClientID: 2, Email: "mark@medico.org", Company: "Medico", Score: 67, Segment: "warm"},
		},
		Sequences: []*models.Sequence{
			{ID: 1, ClientID: 1, Name: "Welcome", Status: models.SequenceActive},
		},
	}), store.Latency{}, logger.NewNoOpLogger())
}

func newTestHandler(t *testing.T, st *store.Store, pub notify.Publisher) *Handler {
	t.Helper()
	log := logger.NewTestLogger(t)
	svc := Services{
		Store:     st,
		Analytics: analytics.NewService(st, nil, 0, log),
		Activity:  activity.NewService(st, log),
		Importer: importer.New(st, stubLeads{
			{Email: "new@lead.io", Company: "Lead Co", Score: 30},
			{Email: "john@techstart.io"},
		}, log),
	}
	svc.Activity.OnRecord(svc.Analytics.ActivityRecorded)
	if pub != nil {
		svc.Notifier = notify.New(st.Clients, svc.Analytics, nil, pub, notify.Config{TopicARN: "arn:aws:sns:us-east-1:1:dash"}, log)
	}
	return NewHandler(svc, log)
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func prospectIDs(list ListResponse[*models.Prospect]) []int {
	out := make([]int, len(list.Data))
	for i, p := range list.Data {
		out[i] = p.ID
	}
	return out
}

func TestHandler_HealthAndRequestID(t *testing.T) {
	h := newTestHandler(t, newTestStore(), nil)

	w := do(h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, w)["status"])
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.Header.Set(RequestIDHeader, "req-123")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
}

func TestHandler_Metrics(t *testing.T) {
	h := newTestHandler(t, newTestStore(), nil)
	do(h, http.MethodGet, "/health", "")

	w := do(h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "dashboard_http_requests_total")
}

func TestHandler_ListProspects(t *testing.T) {
	h := newTestHandler(t, newTestStore(), nil)

	tests := []struct {
		name  string
		query string
		want  []int
	}{
		{"default score desc", "", []int{2, 1, 3}},
		{"search company", "?search=cloud", []int{2}},
		{"blank search", "?search=%20%20", []int{2, 1, 3}},
		{"segment facet", "?segment=warm", []int{1}},
		{"status facet", "?status=new", []int{3}},
		{"sort company asc", "?sort=company", []int{3, 2, 1}},
		{"sort score asc", "?sort=score&dir=asc", []int{3, 1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(h, http.MethodGet, "/clients/1/prospects"+tt.query, "")
			require.Equal(t, http.StatusOK, w.Code)
			list := decode[ListResponse[*models.Prospect]](t, w)
			assert.Equal(t, tt.want, prospectIDs(list))
			assert.Equal(t, []string{"cold", "hot", "warm"}, list.Facets["segment"])
		})
	}
}

func TestHandler_UnknownClient(t *testing.T) {
	h := newTestHandler(t, newTestStore(), nil)

	for _, path := range []string{"/clients/99", "/clients/99/prospects", "/clients/abc/sequences", "/prospects/99"} {
		w := do(h, http.MethodGet, path, "")
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.Equal(t, "NOT_FOUND", string(decode[ErrorResponse](t, w).Error), path)
	}
}

func TestHandler_CreateProspect(t *testing.T) {
	st := newTestStore()
	h := newTestHandler(t, st, nil)

	w := do(h, http.MethodPost, "/clients/2/prospects", `{"email":"ann@clinic.org","company":"Clinic","score":10,"segment":"warm"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	p := decode[models.Prospect](t, w)
	assert.Equal(t, 5, p.ID)
	assert.Equal(t, 2, p.ClientID)
	assert.Equal(t, models.ProspectNew, p.SequenceStatus.Status)

	w = do(h, http.MethodPost, "/clients/2/prospects", `{"email":"not-an-email"}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	resp := decode[ErrorResponse](t, w)
	assert.Equal(t, "VALIDATION_FAILURE", string(resp.Error))
	require.NotEmpty(t, resp.Fields)
	assert.Equal(t, "email", resp.Fields[0].Field)
}

func TestHandler_UpdateProspect(t *testing.T) {
	h := newTestHandler(t, newTestStore(), nil)

	w := do(h, http.MethodPatch, "/prospects/1", `{"score":70,"segment":"hot"}`)
	require.Equal(t, http.StatusOK, w.Code)
	p := decode[models.Prospect](t, w)
	assert.Equal(t, 70.0, p.Score)
	assert.Equal(t, "hot", p.Segment)
	assert.Equal(t, "TechStart", p.Company)

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"unknown status", `{"sequenceStatus":{"status":"bogus"}}`, "sequenceStatus.status"},
		{"score below range", `{"score":-500}`, "score"},
		{"score wrong type", `{"score":"abc"}`, "score"},
		{"bad email", `{"email":"nope"}`, "email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(h, http.MethodPatch, "/prospects/1", tt.body)
			require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
			resp := decode[ErrorResponse](t, w)
			assert.Equal(t, "VALIDATION_FAILURE", string(resp.Error))
			require.NotEmpty(t, resp.Fields)
			assert.Equal(t, tt.field, resp.Fields[0].Field)
		})
	}

	w = do(h, http.MethodGet, "/prospects/1", "")
	p = decode[models.Prospect](t, w)
	assert.Equal(t, 70.0, p.Score)
	assert.Equal(t, models.ProspectActive, p.SequenceStatus.Status)
}

func TestHandler_UpdateClient(t *testing.T) {
	h := newTestHandler(t, newTestStore(), nil)

	w := do(h, http.MethodPatch, "/clients/2", `{"industry":"Healthcare"}`)
	require.Equal(t, http.StatusOK, w.Code)
	c := decode[models.Client](t, w)
	assert.Equal(t, "Healthcare", c.Industry)
	assert.Equal(t, "HealthPlus Clinic", c.Name)

	w = do(h, http.MethodPatch, "/clients/2", `{"name":""}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "name", decode[ErrorResponse](t, w).Fields[0].Field)

	w = do(h, http.MethodPatch, "/clients/2", `{"settings":{"emailSettings":{"replyTo":"bad"}}}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "settings.emailSettings.replyTo", decode[ErrorResponse](t, w).Fields[0].Field)
}

func TestHandler_SequenceLifecycle(t *testing.T) {
	st := newTestStore()
	h := newTestHandler(t, st, nil)

	w := do(h, http.MethodPost, "/clients/1/sequences", `{
		"name": "Onboarding",
		"steps": [
			{"type": "email", "config": {"subject": "Hi", "template": "welcome"}},
			{"type": "wait", "config": {"delay": {"value": 2, "unit": "days"}}}
		]
	}`)
	require.Equal(t, http.StatusCreated, w.Code)
	seq := decode[models.Sequence](t, w)
	assert.Equal(t, 2, seq.ID)
	assert.Equal(t, models.SequenceDraft, seq.Status)
	require.Len(t, seq.Steps, 2)
	assert.Equal(t, 0, seq.Steps[0].Order)
	assert.Equal(t, 1, seq.Steps[1].Order)
	assert.Positive(t, seq.Steps[0].ID)

	w = do(h, http.MethodPost, "/clients/1/sequences", `{"name":"   "}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(h, http.MethodPost, "/sequences/2/toggle", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.SequenceActive, decode[models.Sequence](t, w).Status)

	w = do(h, http.MethodPost, "/sequences/2/toggle", "")
	assert.Equal(t, models.SequencePaused, decode[models.Sequence](t, w).Status)

	w = do(h, http.MethodGet, "/clients/1/sequences?status=paused", "")
	list := decode[ListResponse[*models.Sequence]](t, w)
	require.Len(t, list.Data, 1)
	assert.Equal(t, 2, list.Data[0].ID)

	w = do(h, http.MethodDelete, "/sequences/1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	p, err := st.Prospects.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, p.SequenceStatus.SequenceID)
}

func TestHandler_CompletedSequencePublishes(t *testing.T) {
	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(in *sns.PublishInput) bool {
		return strings.Contains(*in.Message, `"event":"sequence.completed"`)
	})).Return(&sns.PublishOutput{}, nil).Once()
	h := newTestHandler(t, newTestStore(), pub)

	w := do(h, http.MethodPut, "/sequences/1", `{"name":"Welcome","steps":[],"status":"completed"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.SequenceCompleted, decode[models.Sequence](t, w).Status)

	w = do(h, http.MethodPut, "/sequences/1", `{"name":"Welcome","status":"archived"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	pub.AssertExpectations(t)
}

func TestHandler_SegmentSave(t *testing.T) {
	st := newTestStore()
	h := newTestHandler(t, st, nil)

	w := do(h, http.MethodPost, "/clients/1/segments", `{"name":"Engaged","rules":[{"field":"score","operator":"greater_than","value":"40"}]}`)
	require.Equal(t, http.StatusCreated, w.Code)
	seg := decode[models.Segment](t, w)
	assert.Equal(t, 2, seg.Prospects)

	w = do(h, http.MethodPost, "/clients/1/segments", `{"name":"Empty","rules":[]}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	segs, err := st.Segments.GetByClient(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, segs, 1)

	w = do(h, http.MethodPut, "/segments/1", `{"name":"Engaged","rules":[{"field":"company","operator":"contains","value":"acme"}]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[models.Segment](t, w).Prospects)
}

func TestHandler_BulkDelete(t *testing.T) {
	st := newTestStore()
	h := newTestHandler(t, st, nil)

	w := do(h, http.MethodPost, "/clients/1/prospects/bulk-delete", `{"ids":[1,4]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(h, http.MethodPost, "/clients/1/prospects/bulk-delete", `{"ids":[1,3]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decode[map[string]interface{}](t, w)["deleted"])

	left, err := st.Prospects.GetByClient(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, 2, left[0].ID)

	w = do(h, http.MethodPost, "/clients/1/prospects/bulk-delete", `{"ids":[2,2]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(1), decode[map[string]interface{}](t, w)["deleted"])
}

func TestHandler_DeleteClientCascades(t *testing.T) {
	h := newTestHandler(t, newTestStore(), nil)

	w := do(h, http.MethodDelete, "/clients/1", "")
	require.Equal(t, http.StatusNoContent, w.Code)

	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/prospects/1", "").Code)
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/sequences/1", "").Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/prospects/4", "").Code)
}

func TestHandler_Settings(t *testing.T) {
	h := newTestHandler(t, newTestStore(), nil)

	w := do(h, http.MethodPut, "/clients/2/settings", `{"emailSettings":{"fromName":"HealthPlus","fromEmail":"hi@healthplus.com","replyTo":"bad"}}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "emailSettings.replyTo", decode[ErrorResponse](t, w).Fields[0].Field)

	w = do(h, http.MethodPut, "/clients/2/settings", `{"emailSettings":{"fromEmail":"hi@healthplus.com"},"notifications":{"emailReports":true}}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(h, http.MethodGet, "/clients/2/settings", "")
	settings := decode[models.Settings](t, w)
	assert.True(t, settings.Notifications.EmailReports)
	assert.Equal(t, "hi@healthplus.com", settings.EmailSettings.FromEmail)
}

func TestHandler_RecordActivity(t *testing.T) {
	st := newTestStore()
	h := newTestHandler(t, st, nil)

	w := do(h, http.MethodPost, "/activities", `{"prospectId":3,"type":"email_click","metadata":{"score":15}}`)
	require.Equal(t, http.StatusCreated, w.Code)
	a := decode[models.Activity](t, w)
	assert.Equal(t, 1, a.ClientID)

	p, err := st.Prospects.GetByID(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, float64(35), p.Score)
	assert.Equal(t, []int{a.ID}, p.Activities)

	w = do(h, http.MethodGet, "/clients/1/activities?limit=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[ListResponse[*models.Activity]](t, w).Data, 1)

	w = do(h, http.MethodPost, "/activities", `{"prospectId":99,"type":"email_open"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(h, http.MethodGet, "/clients/1/activities?limit=zero", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestHandler_Analytics(t *testing.T) {
	h := newTestHandler(t, newTestStore(), nil)

	w := do(h, http.MethodGet, "/clients/1/analytics", "")
	require.Equal(t, http.StatusOK, w.Code)
	ov := decode[analytics.Overview](t, w)
	assert.Equal(t, analytics.Range30d, ov.Range)
	assert.Equal(t, 3, ov.Totals.TotalProspects)
	assert.Len(t, ov.Engagement, 30)

	w = do(h, http.MethodGet, "/clients/1/analytics?range=1y", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(h, http.MethodGet, "/clients/1/dashboard", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[map[string][]analytics.Card](t, w)["metrics"], 4)

	w = do(h, http.MethodGet, "/sequences/1/performance", "")
	require.Equal(t, http.StatusOK, w.Code)
}

func TestHandler_Import(t *testing.T) {
	h := newTestHandler(t, newTestStore(), nil)

	w := do(h, http.MethodPost, "/clients/1/prospects/import", "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[ListResponse[*models.Prospect]](t, w)
	require.Len(t, list.Data, 1)
	assert.Equal(t, "new@lead.io", list.Data[0].Email)
	assert.Equal(t, importer.ImportedSegment, list.Data[0].Segment)
}
