package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"wordarena/internal/coordinator"
	"wordarena/internal/stats"
)

const (
	defaultLeaderboardLimit = 20
	maxLeaderboardLimit     = 100
	// rankScanLimit bounds the full-leaderboard scan used to find a single
	// user's rank; large enough to cover any realistic player base.
	rankScanLimit = 1_000_000
)

// UserStatsResponse is a user's aggregate totals plus their current
// leaderboard rank.
type UserStatsResponse struct {
	stats.UserStats
	Rank int `json:"rank"`
}

// GameHandler serves read-only REST views over live and historical game
// data: the leaderboard, a user's lifetime totals, and a game's current
// (redacted) state.
type GameHandler struct {
	coord     *coordinator.Coordinator
	statsRepo stats.Repository
}

// NewGameHandler returns a GameHandler backed by coord and statsRepo.
func NewGameHandler(coord *coordinator.Coordinator, statsRepo stats.Repository) *GameHandler {
	return &GameHandler{coord: coord, statsRepo: statsRepo}
}

// Leaderboard handles GET /leaderboard?limit=N.
func (h *GameHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := defaultLeaderboardLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}

	entries, err := h.statsRepo.GetLeaderboard(r.Context(), limit)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to load leaderboard")
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

// UserStats handles GET /user/{id}/stats.
func (h *GameHandler) UserStats(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["id"]
	if userID == "" {
		writeJSONError(w, http.StatusBadRequest, "missing user id")
		return
	}

	st, err := h.statsRepo.GetUserStats(r.Context(), userID)
	if err != nil {
		if errors.Is(err, stats.ErrUserNotFound) {
			writeJSONError(w, http.StatusNotFound, "user not found")
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "failed to load user stats")
		return
	}

	rank := 0
	if entries, err := h.statsRepo.GetLeaderboard(r.Context(), rankScanLimit); err == nil {
		for _, e := range entries {
			if e.UserID == userID {
				rank = e.Rank
				break
			}
		}
	}

	writeJSON(w, http.StatusOK, UserStatsResponse{UserStats: *st, Rank: rank})
}

// GameState handles GET /game/{id}/state.
func (h *GameHandler) GameState(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]
	if gameID == "" {
		writeJSONError(w, http.StatusBadRequest, "missing game id")
		return
	}

	state, err := h.coord.GameState(gameID)
	if err != nil {
		if errors.Is(err, coordinator.ErrGameNotFound) {
			writeJSONError(w, http.StatusNotFound, "game not found")
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "failed to load game state")
		return
	}

	writeJSON(w, http.StatusOK, state)
}

// RegisterRoutes binds the game-data endpoints to router.
func (h *GameHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/leaderboard", h.Leaderboard).Methods("GET")
	router.HandleFunc("/user/{id}/stats", h.UserStats).Methods("GET")
	router.HandleFunc("/game/{id}/state", h.GameState).Methods("GET")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
