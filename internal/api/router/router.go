package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/davidbarber/barbershop-platform/internal/appointments"
	"github.com/davidbarber/barbershop-platform/internal/booking"
	"github.com/davidbarber/barbershop-platform/internal/catalog"
	"github.com/davidbarber/barbershop-platform/internal/http/handlers"
	httpmiddleware "github.com/davidbarber/barbershop-platform/internal/http/middleware"
	"github.com/davidbarber/barbershop-platform/internal/realtime"
	"github.com/davidbarber/barbershop-platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger              *logging.Logger
	CatalogHandler      *catalog.Handler
	AppointmentsHandler *appointments.Handler
	BookingHandler      *booking.Handler
	RealtimeHub         *realtime.Hub
	AdminDashboard      *handlers.AdminDashboardHandler
	AdminAppointments   *handlers.AdminAppointmentsHandler
	AdminCustomers      *handlers.AdminCustomersHandler
	AdminAuthSecret     string
	MetricsHandler      http.Handler
	CORSAllowedOrigins  []string

	// Requests per second and burst for the booking submit endpoint.
	SubmitRateLimit float64
	SubmitBurst     int
}

// New creates a Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}

		if cfg.CatalogHandler != nil {
			public.Get("/api/catalog", cfg.CatalogHandler.GetCatalog)
		}
		if cfg.AppointmentsHandler != nil {
			public.Get("/api/availability", cfg.AppointmentsHandler.GetAvailability)
		}

		if cfg.BookingHandler != nil {
			public.Route("/api/booking", func(b chi.Router) {
				b.Post("/open", cfg.BookingHandler.Open)
				b.Post("/close", cfg.BookingHandler.Close)
				b.Get("/session", cfg.BookingHandler.GetSession)
				b.Post("/service", cfg.BookingHandler.SelectService)
				b.Post("/professional", cfg.BookingHandler.SelectProfessional)
				b.Post("/schedule", cfg.BookingHandler.SetSchedule)
				b.Post("/continue", cfg.BookingHandler.Continue)
				b.Post("/back", cfg.BookingHandler.Back)
				b.Post("/contact", cfg.BookingHandler.SetContact)
				b.Post("/retry-catalog", cfg.BookingHandler.RetryCatalog)

				submit := b.With()
				if cfg.SubmitRateLimit > 0 {
					submit = b.With(httpmiddleware.RateLimit(cfg.SubmitRateLimit, cfg.SubmitBurst))
				}
				submit.Post("/submit", cfg.BookingHandler.Submit)
			})
		}

		if cfg.RealtimeHub != nil {
			public.Get("/ws", cfg.RealtimeHub.HandleWebSocket)
		}
	})

	// Admin endpoints behind JWT
	r.Route("/admin", func(admin chi.Router) {
		admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))

		if cfg.AdminDashboard != nil {
			admin.Get("/dashboard", cfg.AdminDashboard.GetDashboardOverview)
		}
		if cfg.AdminAppointments != nil {
			admin.Get("/appointments", cfg.AdminAppointments.ListAppointments)
			admin.Get("/calendar", cfg.AdminAppointments.GetCalendarDay)
		}
		if cfg.AppointmentsHandler != nil {
			admin.Get("/appointments/{appointmentID}", cfg.AppointmentsHandler.GetAppointment)
			admin.Patch("/appointments/{appointmentID}/status", cfg.AppointmentsHandler.UpdateStatus)
		}
		if cfg.AdminCustomers != nil {
			admin.Get("/customers", cfg.AdminCustomers.ListCustomers)
		}
		if cfg.CatalogHandler != nil {
			admin.Route("/services", func(s chi.Router) {
				s.Post("/", cfg.CatalogHandler.CreateService)
				s.Put("/{id}", cfg.CatalogHandler.UpdateService)
				s.Delete("/{id}", cfg.CatalogHandler.DeleteService)
			})
			admin.Route("/professionals", func(p chi.Router) {
				p.Post("/", cfg.CatalogHandler.CreateProfessional)
				p.Put("/{id}", cfg.CatalogHandler.UpdateProfessional)
				p.Delete("/{id}", cfg.CatalogHandler.DeleteProfessional)
			})
		}
	})

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
