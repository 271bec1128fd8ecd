package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"wordarena/internal/coordinator"
	"wordarena/internal/logging"
	"wordarena/internal/stats"
)

// NewRouter builds the complete REST surface: a mux.Router carrying the
// health and game-data routes, wrapped in the CORS/security/rate-limit/
// logging middleware chain. requestsPerMinute is the REST-side rate limit
// (config.RateConfig.APIRequestsPerMinute); logger may be nil.
func NewRouter(coord *coordinator.Coordinator, statsRepo stats.Repository, allowedOrigins []string, requestsPerMinute int, logger *logging.Logger) http.Handler {
	router := mux.NewRouter()

	NewHealthHandler(statsRepo).RegisterRoutes(router)
	NewGameHandler(coord, statsRepo).RegisterRoutes(router)

	mw := NewAPIMiddleware(allowedOrigins, requestsPerMinute, logger)
	return mw.ApplyMiddlewares(router)
}
