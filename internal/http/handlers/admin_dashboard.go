package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/lib/pq"

	"github.com/davidbarber/barbershop-platform/pkg/logging"
)

// AdminDashboardHandler serves the shop owner's overview screen.
type AdminDashboardHandler struct {
	db     *sql.DB
	logger *logging.Logger
}

// NewAdminDashboardHandler creates a new admin dashboard handler.
func NewAdminDashboardHandler(db *sql.DB, logger *logging.Logger) *AdminDashboardHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminDashboardHandler{
		db:     db,
		logger: logger,
	}
}

// DashboardOverviewResponse contains the main dashboard metrics.
type DashboardOverviewResponse struct {
	Period        string                `json:"period"`
	Appointments  AppointmentMetrics    `json:"appointments"`
	Revenue       RevenueMetrics        `json:"revenue"`
	Customers     CustomerMetrics       `json:"customers"`
	TopServices   []ServiceCount        `json:"top_services,omitempty"`
	Professionals []ProfessionalSummary `json:"professionals,omitempty"`
}

// AppointmentMetrics contains appointment counts for the dashboard.
type AppointmentMetrics struct {
	Total     int `json:"total"`
	Today     int `json:"today"`
	ThisWeek  int `json:"this_week"`
	Upcoming  int `json:"upcoming"`
	Completed int `json:"completed"`
	Cancelled int `json:"cancelled"`
}

// RevenueMetrics sums booked prices. Cancelled appointments are excluded.
type RevenueMetrics struct {
	TotalCents    int64 `json:"total_cents"`
	ThisWeekCents int64 `json:"this_week_cents"`
	TodayCents    int64 `json:"today_cents"`
}

// CustomerMetrics contains customer counts.
type CustomerMetrics struct {
	Total       int `json:"total"`
	NewThisWeek int `json:"new_this_week"`
}

// ServiceCount ranks services by bookings.
type ServiceCount struct {
	ServiceName string `json:"service_name"`
	Count       int    `json:"count"`
}

// ProfessionalSummary shows each barber's load for the period.
type ProfessionalSummary struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Specialties  []string `json:"specialties,omitempty"`
	Appointments int      `json:"appointments"`
}

// GetDashboardOverview returns the main dashboard overview.
// GET /admin/dashboard
func (h *AdminDashboardHandler) GetDashboardOverview(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "week"
	}

	dashboard := DashboardOverviewResponse{Period: period}

	now := time.Now()
	today := now.Format("2006-01-02")
	weekAgo := now.AddDate(0, 0, -7).Format("2006-01-02")
	weekAgoTS := now.AddDate(0, 0, -7)

	// Appointment metrics
	h.db.QueryRowContext(r.Context(),
		`SELECT COUNT(*) FROM appointments`,
	).Scan(&dashboard.Appointments.Total)

	h.db.QueryRowContext(r.Context(),
		`SELECT COUNT(*) FROM appointments WHERE date = $1 AND status <> 'cancelled'`, today,
	).Scan(&dashboard.Appointments.Today)

	h.db.QueryRowContext(r.Context(),
		`SELECT COUNT(*) FROM appointments WHERE date >= $1 AND date <= $2 AND status <> 'cancelled'`, weekAgo, today,
	).Scan(&dashboard.Appointments.ThisWeek)

	h.db.QueryRowContext(r.Context(),
		`SELECT COUNT(*) FROM appointments WHERE date > $1 AND status = 'scheduled'`, today,
	).Scan(&dashboard.Appointments.Upcoming)

	h.db.QueryRowContext(r.Context(),
		`SELECT COUNT(*) FROM appointments WHERE status = 'completed'`,
	).Scan(&dashboard.Appointments.Completed)

	h.db.QueryRowContext(r.Context(),
		`SELECT COUNT(*) FROM appointments WHERE status = 'cancelled'`,
	).Scan(&dashboard.Appointments.Cancelled)

	// Revenue metrics
	h.db.QueryRowContext(r.Context(),
		`SELECT COALESCE(SUM(price_cents), 0) FROM appointments WHERE status <> 'cancelled'`,
	).Scan(&dashboard.Revenue.TotalCents)

	h.db.QueryRowContext(r.Context(),
		`SELECT COALESCE(SUM(price_cents), 0) FROM appointments WHERE status <> 'cancelled' AND date >= $1 AND date <= $2`, weekAgo, today,
	).Scan(&dashboard.Revenue.ThisWeekCents)

	h.db.QueryRowContext(r.Context(),
		`SELECT COALESCE(SUM(price_cents), 0) FROM appointments WHERE status <> 'cancelled' AND date = $1`, today,
	).Scan(&dashboard.Revenue.TodayCents)

	// Customer metrics
	h.db.QueryRowContext(r.Context(),
		`SELECT COUNT(*) FROM customers`,
	).Scan(&dashboard.Customers.Total)

	h.db.QueryRowContext(r.Context(),
		`SELECT COUNT(*) FROM customers WHERE created_at >= $1`, weekAgoTS,
	).Scan(&dashboard.Customers.NewThisWeek)

	dashboard.TopServices = h.topServices(r, weekAgo)
	dashboard.Professionals = h.professionalLoad(r, weekAgo, today)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dashboard)
}

func (h *AdminDashboardHandler) topServices(r *http.Request, since string) []ServiceCount {
	rows, err := h.db.QueryContext(r.Context(),
		`SELECT service_name, COUNT(*) AS bookings
		 FROM appointments
		 WHERE status <> 'cancelled' AND date >= $1
		 GROUP BY service_name
		 ORDER BY bookings DESC
		 LIMIT 5`, since)
	if err != nil {
		h.logger.Error("dashboard: top services query failed", "error", err)
		return nil
	}
	defer rows.Close()

	var top []ServiceCount
	for rows.Next() {
		var sc ServiceCount
		if err := rows.Scan(&sc.ServiceName, &sc.Count); err != nil {
			h.logger.Error("dashboard: top services scan failed", "error", err)
			return top
		}
		top = append(top, sc)
	}
	return top
}

func (h *AdminDashboardHandler) professionalLoad(r *http.Request, since, until string) []ProfessionalSummary {
	rows, err := h.db.QueryContext(r.Context(),
		`SELECT p.id, p.name, p.specialties, COUNT(a.id) AS bookings
		 FROM professionals p
		 LEFT JOIN appointments a
		   ON a.professional_id = p.id
		  AND a.status <> 'cancelled'
		  AND a.date >= $1 AND a.date <= $2
		 WHERE p.active
		 GROUP BY p.id, p.name, p.specialties
		 ORDER BY p.name ASC`, since, until)
	if err != nil {
		h.logger.Error("dashboard: professional load query failed", "error", err)
		return nil
	}
	defer rows.Close()

	var pros []ProfessionalSummary
	for rows.Next() {
		var ps ProfessionalSummary
		var specialties pq.StringArray
		if err := rows.Scan(&ps.ID, &ps.Name, &specialties, &ps.Appointments); err != nil {
			h.logger.Error("dashboard: professional load scan failed", "error", err)
			return pros
		}
		ps.Specialties = []string(specialties)
		pros = append(pros, ps)
	}
	return pros
}
