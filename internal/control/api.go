package control

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/vietddude/swapwatch/internal/core/domain"
	"github.com/vietddude/swapwatch/internal/infra/storage"
	"github.com/vietddude/swapwatch/internal/monitor"
	"github.com/vietddude/swapwatch/internal/swap"
)

const (
	defaultRecentCount = 5
	maxRecentCount     = 100
)

// PoolLookup resolves configured pools by id.
type PoolLookup interface {
	Pool(id string) (domain.PoolConfig, bool)
}

// API exposes the monitor registry over HTTP for the CLI and chat front ends.
type API struct {
	registry *monitor.Registry
	pools    PoolLookup
	history  storage.SwapRepository // optional
	log      *slog.Logger
}

// StartRequest is the body of POST /monitors.
type StartRequest struct {
	ChatID string `json:"chat_id"`
	PoolID string `json:"pool_id"`
}

// RecentResponse is returned by the recent swaps endpoint.
type RecentResponse struct {
	PoolID  string                   `json:"pool_id"`
	Summary string                   `json:"summary"`
	Swaps   []*domain.ClassifiedSwap `json:"swaps"`
}

// StopResponse is returned with 202 when a monitor was unregistered but its
// loop had not exited before the request ended.
type StopResponse struct {
	State domain.MonitorState `json:"state"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewAPI(registry *monitor.Registry, pools PoolLookup, history storage.SwapRepository) *API {
	return &API{
		registry: registry,
		pools:    pools,
		history:  history,
		log:      slog.Default().With("component", "api"),
	}
}

// Routes registers the API handlers through handle.
func (a *API) Routes(handle func(pattern string, h http.Handler)) {
	handle("POST /monitors", http.HandlerFunc(a.handleStart))
	handle("GET /monitors", http.HandlerFunc(a.handleList))
	handle("DELETE /monitors/{chat}/{pool}", http.HandlerFunc(a.handleStop))
	handle("GET /monitors/{chat}/{pool}/recent", http.HandlerFunc(a.handleRecent))
}

func (a *API) handleStart(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ChatID == "" || req.PoolID == "" {
		writeError(w, http.StatusBadRequest, "chat_id and pool_id are required")
		return
	}

	pool, ok := a.pools.Pool(req.PoolID)
	if !ok {
		writeError(w, http.StatusNotFound, domain.ErrUnknownPool.Error()+": "+req.PoolID)
		return
	}

	h, err := a.registry.Start(req.ChatID, pool)
	if err != nil {
		a.writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.Status())
}

func (a *API) handleStop(w http.ResponseWriter, r *http.Request) {
	chatID, poolID := r.PathValue("chat"), r.PathValue("pool")
	state, err := a.registry.Stop(r.Context(), chatID, poolID)
	if err != nil {
		a.writeRegistryError(w, err)
		return
	}
	if state == domain.MonitorStopping {
		writeJSON(w, http.StatusAccepted, StopResponse{State: state})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.registry.Statuses(r.URL.Query().Get("chat_id")))
}

func (a *API) handleRecent(w http.ResponseWriter, r *http.Request) {
	chatID, poolID := r.PathValue("chat"), r.PathValue("pool")

	n := defaultRecentCount
	if raw := r.URL.Query().Get("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			writeError(w, http.StatusBadRequest, "n must be a positive integer")
			return
		}
		n = min(v, maxRecentCount)
	}

	pool, ok := a.pools.Pool(poolID)
	if !ok {
		writeError(w, http.StatusNotFound, domain.ErrUnknownPool.Error()+": "+poolID)
		return
	}

	swaps, err := a.registry.Recent(chatID, poolID, n)
	if errors.Is(err, domain.ErrNotRunning) && a.history != nil {
		// stopped monitors fall back to stored history
		swaps, err = a.history.ListRecent(r.Context(), poolID, n)
	}
	if err != nil {
		a.writeRegistryError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, RecentResponse{
		PoolID:  poolID,
		Summary: swap.FormatRecent(pool, swaps),
		Swaps:   swaps,
	})
}

func (a *API) writeRegistryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrAlreadyRunning):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrNotRunning), errors.Is(err, domain.ErrUnknownPool):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrNetwork):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		a.log.Error("Request failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
