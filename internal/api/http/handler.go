package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Zereker/skyroute/internal/domain"
	"github.com/Zereker/skyroute/internal/service"
	"github.com/Zereker/skyroute/pkg/log"
)

const maxBodyBytes = 1 << 20

// Handler handles HTTP API requests
type Handler struct {
	logger  *slog.Logger
	service *service.Service
}

// NewHandler creates a new HTTP handler
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		logger:  log.Logger("http.handler"),
		service: svc,
	}
}

// Response represents a standard API response
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Kind    string `json:"kind,omitempty"`
}

// created is returned by registrations.
type created struct {
	ID string `json:"id"`
}

// RegisterRoutes registers all HTTP routes
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Locations
	mux.HandleFunc("POST /api/v1/locations", h.RegisterLocation)
	mux.HandleFunc("GET /api/v1/locations", h.ListLocations)
	mux.HandleFunc("GET /api/v1/locations/{name}", h.GetLocation)
	mux.HandleFunc("GET /api/v1/locations/{name}/hubs", h.ListHubs)

	// Hubs
	mux.HandleFunc("POST /api/v1/hubs", h.RegisterHub)
	mux.HandleFunc("GET /api/v1/hubs/{code}", h.GetHub)

	// Connections
	mux.HandleFunc("POST /api/v1/connections", h.RegisterConnection)
	mux.HandleFunc("GET /api/v1/connections/{identifier}", h.GetConnection)

	// Route search
	mux.HandleFunc("GET /api/v1/routes", h.SearchRoutes)

	mux.HandleFunc("POST /api/v1/reset", h.Reset)

	// Health check
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /api/v1/health", h.Health)

	mux.Handle("GET /metrics", promhttp.Handler())
}

// RegisterLocation handles POST /api/v1/locations
func (h *Handler) RegisterLocation(w http.ResponseWriter, r *http.Request) {
	var req domain.LocationInput
	if !h.decode(w, r, &req) {
		return
	}

	id, err := h.service.RegisterLocation(r.Context(), req)
	if err != nil {
		h.fail(w, "register location", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, Response{Success: true, Data: created{ID: id}})
}

// ListLocations handles GET /api/v1/locations?country=
func (h *Handler) ListLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.service.ListLocations(r.Context(), r.URL.Query().Get("country"))
	if err != nil {
		h.fail(w, "list locations", err)
		return
	}
	h.writeJSON(w, http.StatusOK, Response{Success: true, Data: locations})
}

// GetLocation handles GET /api/v1/locations/{name}
func (h *Handler) GetLocation(w http.ResponseWriter, r *http.Request) {
	location, err := h.service.GetLocation(r.Context(), r.PathValue("name"))
	if err != nil {
		h.fail(w, "get location", err)
		return
	}
	h.writeJSON(w, http.StatusOK, Response{Success: true, Data: location})
}

// ListHubs handles GET /api/v1/locations/{name}/hubs
func (h *Handler) ListHubs(w http.ResponseWriter, r *http.Request) {
	hubs, err := h.service.ListHubs(r.Context(), r.PathValue("name"))
	if err != nil {
		h.fail(w, "list hubs", err)
		return
	}
	h.writeJSON(w, http.StatusOK, Response{Success: true, Data: hubs})
}

// RegisterHub handles POST /api/v1/hubs
func (h *Handler) RegisterHub(w http.ResponseWriter, r *http.Request) {
	var req domain.HubInput
	if !h.decode(w, r, &req) {
		return
	}

	id, err := h.service.RegisterHub(r.Context(), req)
	if err != nil {
		h.fail(w, "register hub", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, Response{Success: true, Data: created{ID: id}})
}

// GetHub handles GET /api/v1/hubs/{code}
func (h *Handler) GetHub(w http.ResponseWriter, r *http.Request) {
	hub, err := h.service.GetHub(r.Context(), r.PathValue("code"))
	if err != nil {
		h.fail(w, "get hub", err)
		return
	}
	h.writeJSON(w, http.StatusOK, Response{Success: true, Data: hub})
}

// RegisterConnection handles POST /api/v1/connections
func (h *Handler) RegisterConnection(w http.ResponseWriter, r *http.Request) {
	var req domain.ConnectionInput
	if !h.decode(w, r, &req) {
		return
	}

	id, err := h.service.RegisterConnection(r.Context(), req)
	if err != nil {
		h.fail(w, "register connection", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, Response{Success: true, Data: created{ID: id}})
}

// GetConnection handles GET /api/v1/connections/{identifier}
func (h *Handler) GetConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := h.service.GetConnection(r.Context(), r.PathValue("identifier"))
	if err != nil {
		h.fail(w, "get connection", err)
		return
	}
	h.writeJSON(w, http.StatusOK, Response{Success: true, Data: conn})
}

// SearchRoutes handles GET /api/v1/routes?from=&to=&max_hops=
func (h *Handler) SearchRoutes(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := domain.SearchRequest{
		From: query.Get("from"),
		To:   query.Get("to"),
	}

	if raw := query.Get("max_hops"); raw != "" {
		hops, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, domain.KindInvalidInput, "max_hops must be an integer")
			return
		}
		req.MaxHops = hops
	}

	resp, err := h.service.SearchRoutes(r.Context(), req)
	if err != nil {
		h.fail(w, "search routes", err)
		return
	}
	h.writeJSON(w, http.StatusOK, Response{Success: true, Data: resp})
}

// Reset handles POST /api/v1/reset
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Reset(r.Context()); err != nil {
		h.fail(w, "reset", err)
		return
	}
	h.writeJSON(w, http.StatusOK, Response{Success: true, Data: map[string]string{"status": "reset"}})
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Health(r.Context()); err != nil {
		h.logger.Warn("health check failed", "error", err)
		h.writeJSON(w, http.StatusServiceUnavailable, Response{
			Success: false,
			Data:    map[string]string{"status": "unhealthy"},
			Error:   err.Error(),
			Kind:    string(domain.KindUnavailable),
		})
		return
	}

	h.writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data: map[string]string{
			"status": "healthy",
		},
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.KindInvalidInput, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// fail maps a service error to its status code.
func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	kind := domain.KindOf(err)
	status := statusOf(kind)
	if status >= http.StatusInternalServerError {
		h.logger.Error(op+" failed", "error", err)
	}
	h.writeError(w, status, kind, err.Error())
}

func statusOf(kind domain.Kind) int {
	switch kind {
	case domain.KindInvalidInput:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindAlreadyExists:
		return http.StatusConflict
	case domain.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response
func (h *Handler) writeError(w http.ResponseWriter, status int, kind domain.Kind, message string) {
	h.writeJSON(w, status, Response{
		Success: false,
		Error:   message,
		Kind:    string(kind),
	})
}
