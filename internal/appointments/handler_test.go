package appointments

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidbarber/barbershop-platform/internal/events"
	"github.com/davidbarber/barbershop-platform/pkg/logging"
)

func newTestRouter(f *fixture) http.Handler {
	h := NewHandler(f.svc, f.repo, logging.New("error"))

	r := chi.NewRouter()
	r.Get("/api/availability", h.GetAvailability)
	r.Get("/admin/appointments", h.ListAppointments)
	r.Get("/admin/appointments/{appointmentID}", h.GetAppointment)
	r.Patch("/admin/appointments/{appointmentID}/status", h.UpdateStatus)
	return r
}

func TestGetAvailability(t *testing.T) {
	f := newFixture(t, monday)
	router := newTestRouter(f)

	req := httptest.NewRequest(http.MethodGet,
		"/api/availability?professional_id="+f.carlos.ID+"&service_id="+f.corte.ID+"&date=2026-09-08", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Date  string `json:"date"`
		Slots []Slot `json:"slots"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "2026-09-08", resp.Date)
	assert.Len(t, resp.Slots, 13)
	assert.True(t, resp.Slots[0].Available)
}

func TestGetAvailabilityMissingParams(t *testing.T) {
	f := newFixture(t, monday)
	router := newTestRouter(f)

	req := httptest.NewRequest(http.MethodGet, "/api/availability?date=2026-09-08", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetAvailabilityOutOfWindow(t *testing.T) {
	f := newFixture(t, monday)
	router := newTestRouter(f)

	req := httptest.NewRequest(http.MethodGet,
		"/api/availability?professional_id="+f.carlos.ID+"&service_id="+f.corte.ID+"&date=2020-01-01", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListAppointmentsByDate(t *testing.T) {
	f := newFixture(t, monday)
	ctx := context.Background()
	require.NoError(t, f.repo.Create(ctx, &Appointment{
		CustomerID: "c", ProfessionalID: f.carlos.ID, ServiceID: f.corte.ID,
		ServiceName: "Corte Clássico", DurationMins: 30, Date: "2026-09-08", StartTime: "09:00",
	}))

	router := newTestRouter(f)
	req := httptest.NewRequest(http.MethodGet, "/admin/appointments?date=2026-09-08", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Appointments []Appointment `json:"appointments"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Appointments, 1)
	assert.Equal(t, "09:00", resp.Appointments[0].StartTime)
}

func TestUpdateStatusEndpoint(t *testing.T) {
	f := newFixture(t, monday)
	ctx := context.Background()
	appt := Appointment{
		CustomerID: "c", ProfessionalID: f.carlos.ID, ServiceID: f.corte.ID,
		DurationMins: 30, Date: "2026-09-08", StartTime: "09:00",
	}
	require.NoError(t, f.repo.Create(ctx, &appt))

	router := newTestRouter(f)
	body, _ := json.Marshal(updateStatusRequest{Status: StatusCancelled})
	req := httptest.NewRequest(http.MethodPatch, "/admin/appointments/"+appt.ID+"/status", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)

	stored, err := f.repo.GetByID(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, stored.Status)
}

func TestUpdateStatusCancellationRecordsOutbox(t *testing.T) {
	f := newFixture(t, monday)
	ctx := context.Background()
	appt := Appointment{
		CustomerID: "cust-1", ProfessionalID: f.carlos.ID, ServiceID: f.corte.ID,
		DurationMins: 30, Date: "2026-09-08", StartTime: "09:00",
	}
	require.NoError(t, f.repo.Create(ctx, &appt))

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	mock.ExpectExec("INSERT INTO outbox").
		WithArgs(pgxmock.AnyArg(), events.TypeAppointmentCancelled, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	h := NewHandler(f.svc, f.repo, logging.New("error")).
		WithOutbox(events.NewOutboxStoreWithDB(mock))
	r := chi.NewRouter()
	r.Patch("/admin/appointments/{appointmentID}/status", h.UpdateStatus)

	body, _ := json.Marshal(updateStatusRequest{Status: StatusCancelled})
	req := httptest.NewRequest(http.MethodPatch, "/admin/appointments/"+appt.ID+"/status", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusRejectsUnknown(t *testing.T) {
	f := newFixture(t, monday)
	router := newTestRouter(f)

	body, _ := json.Marshal(updateStatusRequest{Status: "postponed"})
	req := httptest.NewRequest(http.MethodPatch, "/admin/appointments/any/status", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
