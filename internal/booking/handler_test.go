package booking

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidbarber/barbershop-platform/pkg/logging"
)

func newBookingRouter(f *wizardFixture) http.Handler {
	h := NewHandler(f.manager, f.bus, logging.New("error"))

	r := chi.NewRouter()
	r.Route("/api/booking", func(r chi.Router) {
		r.Post("/open", h.Open)
		r.Post("/close", h.Close)
		r.Get("/session", h.GetSession)
		r.Post("/service", h.SelectService)
		r.Post("/professional", h.SelectProfessional)
		r.Post("/schedule", h.SetSchedule)
		r.Post("/continue", h.Continue)
		r.Post("/back", h.Back)
		r.Post("/contact", h.SetContact)
		r.Post("/retry-catalog", h.RetryCatalog)
		r.Post("/submit", h.Submit)
	})
	return r
}

func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(VisitorHeader, "v1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestBookingFlowOverHTTP(t *testing.T) {
	f := newWizardFixture(t, 2)
	router := newBookingRouter(f)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go f.manager.Run(ctx)

	rec := do(t, router, http.MethodPost, "/api/booking/open", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)

	require.Eventually(t, func() bool {
		return do(t, router, http.MethodGet, "/api/booking/session", nil).Code == http.StatusOK
	}, time.Second, 5*time.Millisecond)

	rec = do(t, router, http.MethodPost, "/api/booking/service", selectServiceRequest{ServiceID: f.corte.ID})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/booking/professional", selectProfessionalRequest{ProfessionalID: f.carlos.ID})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/booking/schedule", scheduleRequest{Date: "2026-09-10", Time: "09:00"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/booking/continue", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var sess Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))
	assert.Equal(t, StepConfirm, sess.Step)

	rec = do(t, router, http.MethodPost, "/api/booking/contact", contactRequest{Name: "Maria Souza", Phone: "11999990000"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/booking/submit", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp submitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Confirmation)
	assert.NotEmpty(t, resp.Confirmation.AppointmentID)
	assert.Equal(t, StateSubmitted, resp.Session.State)
}

func TestBookingEndpointsRequireVisitorHeader(t *testing.T) {
	f := newWizardFixture(t, 2)
	router := newBookingRouter(f)

	req := httptest.NewRequest(http.MethodGet, "/api/booking/session", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitWithoutSessionIs404(t *testing.T) {
	f := newWizardFixture(t, 2)
	router := newBookingRouter(f)

	rec := do(t, router, http.MethodPost, "/api/booking/submit", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmitBeforeConfirmStepRejected(t *testing.T) {
	f := newWizardFixture(t, 2)
	router := newBookingRouter(f)
	f.open(t, "v1", "")

	rec := do(t, router, http.MethodPost, "/api/booking/submit", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
