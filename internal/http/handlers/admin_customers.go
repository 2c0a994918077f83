package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/davidbarber/barbershop-platform/pkg/logging"
)

// AdminCustomersHandler serves the customer list for the admin area.
type AdminCustomersHandler struct {
	db     *sql.DB
	logger *logging.Logger
}

// NewAdminCustomersHandler creates a new admin customers handler.
func NewAdminCustomersHandler(db *sql.DB, logger *logging.Logger) *AdminCustomersHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminCustomersHandler{
		db:     db,
		logger: logger,
	}
}

// CustomerRow is one customer with their booking history summary.
type CustomerRow struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Phone     string  `json:"phone"`
	Email     *string `json:"email,omitempty"`
	Visits    int     `json:"visits"`
	LastVisit *string `json:"last_visit,omitempty"`
}

// ListCustomersResponse wraps the customer rows.
type ListCustomersResponse struct {
	Customers []CustomerRow `json:"customers"`
	Total     int           `json:"total"`
}

// ListCustomers returns customers ordered by most recent visit.
// GET /admin/customers
func (h *AdminCustomersHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.QueryContext(r.Context(),
		`SELECT c.id, c.name, c.phone, c.email,
		        COUNT(a.id) FILTER (WHERE a.status <> 'cancelled') AS visits,
		        MAX(a.date) FILTER (WHERE a.status <> 'cancelled') AS last_visit
		 FROM customers c
		 LEFT JOIN appointments a ON a.customer_id = c.id
		 GROUP BY c.id, c.name, c.phone, c.email
		 ORDER BY last_visit DESC NULLS LAST, c.name ASC
		 LIMIT 500`)
	if err != nil {
		h.logger.Error("admin: customers query failed", "error", err)
		http.Error(w, "failed to list customers", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	resp := ListCustomersResponse{Customers: []CustomerRow{}}
	for rows.Next() {
		var row CustomerRow
		var email, lastVisit sql.NullString
		if err := rows.Scan(&row.ID, &row.Name, &row.Phone, &email, &row.Visits, &lastVisit); err != nil {
			h.logger.Error("admin: customers scan failed", "error", err)
			http.Error(w, "failed to list customers", http.StatusInternalServerError)
			return
		}
		if email.Valid {
			row.Email = &email.String
		}
		if lastVisit.Valid {
			row.LastVisit = &lastVisit.String
		}
		resp.Customers = append(resp.Customers, row)
	}
	resp.Total = len(resp.Customers)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
