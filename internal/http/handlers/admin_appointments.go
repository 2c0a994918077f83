package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/davidbarber/barbershop-platform/pkg/logging"
)

// AdminAppointmentsHandler serves the appointments table and the day
// calendar behind the admin area.
type AdminAppointmentsHandler struct {
	db     *sql.DB
	logger *logging.Logger
}

// NewAdminAppointmentsHandler creates a new admin appointments handler.
func NewAdminAppointmentsHandler(db *sql.DB, logger *logging.Logger) *AdminAppointmentsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminAppointmentsHandler{
		db:     db,
		logger: logger,
	}
}

// AppointmentRow is one row in the admin appointments table, denormalized
// with customer and professional names.
type AppointmentRow struct {
	ID               string `json:"id"`
	CustomerName     string `json:"customer_name"`
	CustomerPhone    string `json:"customer_phone"`
	ProfessionalID   string `json:"professional_id"`
	ProfessionalName string `json:"professional_name"`
	ServiceName      string `json:"service_name"`
	PriceCents       int64  `json:"price_cents"`
	DurationMins     int    `json:"duration_mins"`
	Date             string `json:"date"`
	StartTime        string `json:"start_time"`
	Status           string `json:"status"`
}

// ListAppointmentsResponse wraps the filtered table rows.
type ListAppointmentsResponse struct {
	Appointments []AppointmentRow `json:"appointments"`
	Total        int              `json:"total"`
}

const appointmentRowQuery = `
	SELECT a.id, c.name, c.phone, a.professional_id, p.name, a.service_name,
	       a.price_cents, a.duration_mins, a.date, a.start_time, a.status
	FROM appointments a
	JOIN customers c ON c.id = a.customer_id
	JOIN professionals p ON p.id = a.professional_id`

// ListAppointments returns appointments filtered by the query string.
// GET /admin/appointments?from=&to=&professional_id=&status=
func (h *AdminAppointmentsHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	query := appointmentRowQuery
	var (
		conds []string
		args  []any
	)

	addCond := func(cond string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if from := r.URL.Query().Get("from"); from != "" {
		if _, err := time.Parse("2006-01-02", from); err != nil {
			http.Error(w, "invalid from date", http.StatusBadRequest)
			return
		}
		addCond("a.date >= $%d", from)
	}
	if to := r.URL.Query().Get("to"); to != "" {
		if _, err := time.Parse("2006-01-02", to); err != nil {
			http.Error(w, "invalid to date", http.StatusBadRequest)
			return
		}
		addCond("a.date <= $%d", to)
	}
	if pro := r.URL.Query().Get("professional_id"); pro != "" {
		addCond("a.professional_id = $%d", pro)
	}
	if status := r.URL.Query().Get("status"); status != "" {
		addCond("a.status = $%d", status)
	}

	for i, cond := range conds {
		if i == 0 {
			query += "\n\tWHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += "\n\tORDER BY a.date DESC, a.start_time DESC\n\tLIMIT 200"

	rows, err := h.db.QueryContext(r.Context(), query, args...)
	if err != nil {
		h.logger.Error("admin: appointments query failed", "error", err)
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	resp := ListAppointmentsResponse{Appointments: []AppointmentRow{}}
	for rows.Next() {
		var row AppointmentRow
		if err := rows.Scan(&row.ID, &row.CustomerName, &row.CustomerPhone,
			&row.ProfessionalID, &row.ProfessionalName, &row.ServiceName,
			&row.PriceCents, &row.DurationMins, &row.Date, &row.StartTime, &row.Status); err != nil {
			h.logger.Error("admin: appointments scan failed", "error", err)
			http.Error(w, "failed to list appointments", http.StatusInternalServerError)
			return
		}
		resp.Appointments = append(resp.Appointments, row)
	}
	resp.Total = len(resp.Appointments)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// CalendarColumn groups one professional's appointments for the day view.
type CalendarColumn struct {
	ProfessionalID   string           `json:"professional_id"`
	ProfessionalName string           `json:"professional_name"`
	Appointments     []AppointmentRow `json:"appointments"`
}

// CalendarDayResponse is the day calendar: one column per professional.
type CalendarDayResponse struct {
	Date    string           `json:"date"`
	Columns []CalendarColumn `json:"columns"`
}

// GetCalendarDay returns all bookings for one date grouped by professional.
// GET /admin/calendar?date=YYYY-MM-DD
func (h *AdminAppointmentsHandler) GetCalendarDay(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}

	rows, err := h.db.QueryContext(r.Context(),
		appointmentRowQuery+`
	WHERE a.date = $1 AND a.status <> 'cancelled'
	ORDER BY p.name ASC, a.start_time ASC`, date)
	if err != nil {
		h.logger.Error("admin: calendar query failed", "error", err)
		http.Error(w, "failed to load calendar", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	resp := CalendarDayResponse{Date: date, Columns: []CalendarColumn{}}
	for rows.Next() {
		var row AppointmentRow
		if err := rows.Scan(&row.ID, &row.CustomerName, &row.CustomerPhone,
			&row.ProfessionalID, &row.ProfessionalName, &row.ServiceName,
			&row.PriceCents, &row.DurationMins, &row.Date, &row.StartTime, &row.Status); err != nil {
			h.logger.Error("admin: calendar scan failed", "error", err)
			http.Error(w, "failed to load calendar", http.StatusInternalServerError)
			return
		}

		n := len(resp.Columns)
		if n == 0 || resp.Columns[n-1].ProfessionalID != row.ProfessionalID {
			resp.Columns = append(resp.Columns, CalendarColumn{
				ProfessionalID:   row.ProfessionalID,
				ProfessionalName: row.ProfessionalName,
			})
			n++
		}
		resp.Columns[n-1].Appointments = append(resp.Columns[n-1].Appointments, row)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
