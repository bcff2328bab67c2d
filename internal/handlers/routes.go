package handlers

import "net/http"

// Handlers groups the HTTP handlers registered by RegisterRoutes
type Handlers struct {
	Auth      *AuthHandler
	Species   *SpeciesHandler
	Checklist *ChecklistHandler
	Stats     *StatsHandler
	Health    *HealthHandler
}

// RegisterRoutes wires every API route onto mux
func RegisterRoutes(mux *http.ServeMux, middleware *Middleware, h Handlers) {
	// Public lookups and statistics
	mux.HandleFunc("GET /healthz", h.Health.Health)
	mux.HandleFunc("GET /api/species", h.Species.Suggest)
	mux.HandleFunc("GET /get_species", h.Species.Search)
	mux.HandleFunc("GET /get_random_bird", h.Species.Random)
	mux.HandleFunc("GET /api/density", h.Stats.Density)
	mux.HandleFunc("POST /api/region_stats", h.Stats.RegionStats)
	mux.HandleFunc("GET /api/species_graph", h.Stats.SpeciesGraph)

	// Accounts
	mux.HandleFunc("POST /api/auth/register", middleware.RateLimit(h.Auth.Register))
	mux.HandleFunc("POST /api/auth/login", middleware.RateLimit(h.Auth.Login))
	mux.HandleFunc("POST /api/auth/logout", h.Auth.Logout)
	mux.HandleFunc("GET /api/auth/me", middleware.RequireObserver(h.Auth.Me))
	mux.HandleFunc("POST /api/auth/token", middleware.RequireObserver(middleware.CSRFProtect(h.Auth.Token)))

	// Observer checklists
	mux.HandleFunc("POST /save_checklist", middleware.RequireObserver(middleware.CSRFProtect(h.Checklist.Save)))
	mux.HandleFunc("GET /get_checklists", middleware.RequireObserver(h.Checklist.List))
	mux.HandleFunc("GET /api/my_checklist", middleware.RequireObserver(h.Checklist.Items))
	mux.HandleFunc("DELETE /delete_checklist/{id}", middleware.RequireObserver(middleware.CSRFProtect(h.Checklist.Delete)))
	mux.HandleFunc("GET /api/user_stats/species", middleware.RequireObserver(h.Stats.UserSpecies))
	mux.HandleFunc("GET /api/user_stats/trends", middleware.RequireObserver(h.Stats.UserTrends))
}
