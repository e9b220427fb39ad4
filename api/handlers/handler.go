package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/jusunglee/bahn-go/internal/board"
	"github.com/jusunglee/bahn-go/internal/models"
	"github.com/jusunglee/bahn-go/internal/upstream"
	"github.com/jusunglee/bahn-go/pkg/bahn"
)

// Handler handles HTTP requests
type Handler struct {
	client bahn.Client
}

// NewHandler creates a new HTTP handler
func NewHandler(client bahn.Client) *Handler {
	return &Handler{client: client}
}

// RegisterRoutes registers all routes
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/", h.handleIndex).Methods("GET")
	r.HandleFunc("/stations/{pattern}", h.handleSearch).Methods("GET")
	r.HandleFunc("/resolve/{pattern}", h.handleResolve).Methods("GET")
	r.HandleFunc("/departures/{eva}", h.handleDepartures).Methods("GET")
	r.HandleFunc("/health", h.handleHealth).Methods("GET")
}

// Response wraps API responses
type Response struct {
	Data interface{} `json:"data"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{
		"title":  "bahn-go",
		"readme": "Visit https://github.com/jusunglee/bahn-go for more info",
	}
	h.writeJSON(w, response)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]string{"status": "ok"})
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	pattern := mux.Vars(r)["pattern"]

	limit := 10
	if s := r.URL.Query().Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v <= 0 {
			h.writeError(w, "Invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = v
	}

	stations, err := h.client.SearchStations(r.Context(), pattern, limit)
	if err != nil {
		h.writeMappedError(w, err)
		return
	}

	h.writeJSON(w, Response{Data: stations})
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	pattern := mux.Vars(r)["pattern"]

	eva, err := h.client.ResolveStationEVA(r.Context(), pattern)
	if err != nil {
		h.writeMappedError(w, err)
		return
	}

	h.writeJSON(w, Response{Data: map[string]string{"eva": eva}})
}

func (h *Handler) handleDepartures(w http.ResponseWriter, r *http.Request) {
	eva := mux.Vars(r)["eva"]

	start, end, err := parseInterval(r)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	includeRecent := r.URL.Query().Get("recent") == "true"

	departures, err := h.client.GetDepartures(r.Context(), eva, start, end, includeRecent)
	if err != nil {
		h.writeMappedError(w, err)
		return
	}

	data := make([]models.DepartureResponse, len(departures))
	for i, dep := range departures {
		data[i] = dep.ConvertToResponse()
	}
	h.writeJSON(w, Response{Data: data})
}

// parseInterval reads either explicit start/end query parameters or an
// hours duration counted from now (default: one hour).
func parseInterval(r *http.Request) (time.Time, time.Time, error) {
	q := r.URL.Query()

	if s := q.Get("start"); s != "" {
		start, err := time.Parse(models.TimeLayout, s)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("invalid start parameter")
		}
		end, err := time.Parse(models.TimeLayout, q.Get("end"))
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("invalid end parameter")
		}
		return start, end, nil
	}

	hours := 1.0
	if s := q.Get("hours"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v <= 0 {
			return time.Time{}, time.Time{}, errors.New("invalid hours parameter")
		}
		hours = v
	}
	now := time.Now()
	return now, now.Add(time.Duration(hours * float64(time.Hour))), nil
}

// writeMappedError translates the library error taxonomy to HTTP status
// codes: validation 400, lookup 404, rate limit 429, everything
// upstream-shaped 502.
func (h *Handler) writeMappedError(w http.ResponseWriter, err error) {
	var lookupErr *bahn.StationLookupError
	var rateErr *upstream.RateLimitError
	var authErr *upstream.AuthError
	var upstreamErr *upstream.UpstreamError

	switch {
	case errors.Is(err, board.ErrEmptyStation) || errors.Is(err, board.ErrInvalidInterval):
		h.writeError(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &lookupErr):
		h.writeError(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &rateErr):
		h.writeError(w, err.Error(), http.StatusTooManyRequests)
	case errors.As(err, &authErr), errors.As(err, &upstreamErr):
		h.writeError(w, err.Error(), http.StatusBadGateway)
	default:
		h.writeError(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.writeError(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}
