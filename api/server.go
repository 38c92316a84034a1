/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend
  5. RequireAuth: Bearer token check on everything except login,
     health, and scenario loading

ROUTE GROUPS:
  /api/auth/*           Login
  /api/employees/*      Employee management, availability, reservations
  /api/projects/*       Project management and bookings
  /api/bookings/*       Dry-run checks and cancellation
  /api/reservations/*   Cancellation
  /api/settings/*       Capacity rules and overrides
  /api/dashboard/*      Rollups
  /api/audit            Audit trail
  /api/scenarios/*      Demo scenarios
  /*                    Static files (frontend)

STATIC FILE SERVING:
  Serves the built frontend from web/dist/ when present, falling back
  to index.html for client-side routing.

SEE ALSO:
  - handlers.go: Handler implementations
  - auth.go: Token middleware
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Post("/auth/login", h.Login)
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		// Scenario routes stay open so a fresh database can be seeded
		// before any user exists.
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})

		// Everything else requires a token.
		r.Group(func(r chi.Router) {
			r.Use(h.Auth.RequireAuth)

			// Employee routes
			r.Route("/employees", func(r chi.Router) {
				r.Get("/", h.ListEmployees)
				r.Post("/", h.CreateEmployee)
				r.Get("/{id}", h.GetEmployee)
				r.Put("/{id}", h.UpdateEmployee)
				r.Delete("/{id}", h.DeleteEmployee)
				r.Get("/{id}/availability", h.EmployeeAvailability)
				r.Get("/{id}/schedule", h.EmployeeSchedule)
				r.Get("/{id}/bookings", h.EmployeeBookings)
				r.Get("/{id}/reservations", h.EmployeeReservations)
				r.Post("/{id}/reservations", h.CreateReservation)
			})

			// Project routes
			r.Route("/projects", func(r chi.Router) {
				r.Get("/", h.ListProjects)
				r.Post("/", h.CreateProject)
				r.Get("/{id}", h.GetProject)
				r.Put("/{id}", h.UpdateProject)
				r.Delete("/{id}", h.DeleteProject)
				r.Get("/{id}/bookings", h.ProjectBookings)
				r.Post("/{id}/bookings", h.CreateBooking)
			})

			// Booking routes
			r.Route("/bookings", func(r chi.Router) {
				r.Post("/check", h.CheckBooking)
				r.Post("/{id}/cancel", h.CancelBooking)
			})

			// Reservation routes
			r.Route("/reservations", func(r chi.Router) {
				r.Post("/{id}/cancel", h.CancelReservation)
			})

			// Settings routes
			r.Route("/settings", func(r chi.Router) {
				r.Get("/rules", h.GetRules)
				r.Put("/rules", h.UpdateRules)
				r.Get("/rules/overrides/{employeeID}", h.GetRuleOverride)
				r.Put("/rules/overrides/{employeeID}", h.SetRuleOverride)
				r.Delete("/rules/overrides/{employeeID}", h.ClearRuleOverride)
			})

			// Dashboard routes
			r.Route("/dashboard", func(r chi.Router) {
				r.Get("/resources", h.ResourceDashboard)
				r.Get("/projects", h.ProjectDashboard)
			})

			// Audit trail
			r.Get("/audit", h.AuditTrail)
		})
	})

	// Serve static files (frontend build)
	// First try ./web/dist (development), then fall back to message
	staticDir := "./web/dist"
	if _, err := os.Stat(staticDir); os.IsNotExist(err) {
		// Try relative to executable
		exe, _ := os.Executable()
		staticDir = filepath.Join(filepath.Dir(exe), "web", "dist")
	}

	if _, err := os.Stat(staticDir); err == nil {
		fileServer := http.FileServer(http.Dir(staticDir))
		r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			fullPath := filepath.Join(staticDir, path)

			// Check if file exists
			if _, err := os.Stat(fullPath); os.IsNotExist(err) {
				// SPA routing: serve index.html
				http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
				return
			}
			fileServer.ServeHTTP(w, r)
		})
	} else {
		r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Staffing Engine</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Staffing Engine API</h1>
<p>The frontend is not built yet. Run <code>cd web && npm install && npm run build</code></p>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/health">/api/health</a> - Health check</li>
<li><a href="/api/scenarios">/api/scenarios</a> - List demo scenarios</li>
</ul>
</body>
</html>`))
		})
	}

	return r
}
