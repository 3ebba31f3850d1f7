package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/soltrace/soltrace/internal/debugger"
	"github.com/soltrace/soltrace/pkg/common/logger"
)

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

type APIErrorResponse struct {
	Status    string    `json:"status"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

type HTTPHandler struct {
	version string
	dbg     *debugger.Debugger
}

func NewHTTPHandler(version string, dbg *debugger.Debugger) *HTTPHandler {
	return &HTTPHandler{version: version, dbg: dbg}
}

func (h *HTTPHandler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /debug/{signature}", h.handleDebug)
	return mux
}

func (h *HTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Version:   h.version,
	})
}

func (h *HTTPHandler) handleDebug(w http.ResponseWriter, r *http.Request) {
	signature := r.PathValue("signature")
	opts := debugger.DebugOptions{
		Network:         r.URL.Query().Get("network"),
		DisableFallback: r.URL.Query().Get("no_fallback") == "true",
		SkipCache:       r.URL.Query().Get("refresh") == "true",
	}

	trace, err := h.dbg.DebugSignature(r.Context(), signature, opts)
	if err != nil {
		writeJSON(w, statusForError(err), APIErrorResponse{
			Status:    "error",
			Error:     err.Error(),
			Timestamp: time.Now().UTC(),
		})
		return
	}
	writeJSON(w, http.StatusOK, trace)
}

func statusForError(err error) int {
	var (
		input     *debugger.InputError
		notFound  *debugger.NotFoundError
		transport *debugger.TransportError
	)
	switch {
	case errors.As(err, &input):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &transport):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("write response failed", "error", err)
	}
}
