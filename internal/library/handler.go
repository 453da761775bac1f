package library

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/inamate/facefinder/internal/auth"
	"github.com/inamate/facefinder/internal/document"
	"github.com/inamate/facefinder/internal/engine"
)

// TokenIssuer signs tokens that admit guests to one sketch's live room.
type TokenIssuer interface {
	IssueSketchToken(ownerID, sketchID string) (string, time.Time, error)
}

type Handler struct {
	service *Service
	workers int
	tokens  TokenIssuer
}

// NewHandler serves the library. workers bounds parallel solving for batch
// requests.
func NewHandler(service *Service, workers int, tokens TokenIssuer) *Handler {
	return &Handler{service: service, workers: workers, tokens: tokens}
}

type shareResponse struct {
	SketchID  string    `json:"sketchId"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type createRequest struct {
	Name string `json:"name"`
}

type batchRequest struct {
	Sketches []*document.Sketch `json:"sketches"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	sk, err := h.service.Create(r.Context(), req.Name, userID)
	if err != nil {
		slog.Error("create sketch failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusCreated, sk)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	sketchID := mux.Vars(r)["sketchId"]

	sk, err := h.service.Get(r.Context(), sketchID, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sk)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	sketches, err := h.service.List(r.Context(), userID)
	if err != nil {
		slog.Error("list sketches failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, sketches)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	sketchID := mux.Vars(r)["sketchId"]

	if err := h.service.Delete(r.Context(), sketchID, userID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SaveRevision(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	sketchID := mux.Vars(r)["sketchId"]

	var doc document.Sketch
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	sk, err := h.service.SaveRevision(r.Context(), sketchID, userID, &doc)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, sk)
}

func (h *Handler) Latest(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	sketchID := mux.Vars(r)["sketchId"]

	doc, err := h.service.Latest(r.Context(), sketchID, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

func (h *Handler) Solve(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	sketchID := mux.Vars(r)["sketchId"]

	run, err := h.service.Solve(r.Context(), sketchID, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	status := http.StatusCreated
	if run.Error != "" {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, run)
}

func (h *Handler) LatestRun(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	sketchID := mux.Vars(r)["sketchId"]

	run, err := h.service.LatestRun(r.Context(), sketchID, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, run)
}

// Share issues a sketch token the owner can hand to collaborators.
func (h *Handler) Share(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	sketchID := mux.Vars(r)["sketchId"]

	if err := h.service.CanEdit(r.Context(), sketchID, userID); err != nil {
		handleServiceError(w, err)
		return
	}

	token, expires, err := h.tokens.IssueSketchToken(userID, sketchID)
	if err != nil {
		slog.Error("issue sketch token failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusCreated, shareResponse{SketchID: sketchID, Token: token, ExpiresAt: expires})
}

// Faces solves an inline document without storing anything.
func (h *Handler) Faces(w http.ResponseWriter, r *http.Request) {
	var doc document.Sketch
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := h.service.Validate(&doc); err != nil {
		handleServiceError(w, err)
		return
	}

	faces, err := engine.Solve(&doc, h.service.opts...)
	if err != nil {
		writeSolveError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"faces": document.FacesFromCore(faces, doc.Segments)})
}

// FacesBatch solves many inline documents in parallel. Per-sketch failures
// are reported in the results.
func (h *Handler) FacesBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	for _, doc := range req.Sketches {
		if doc == nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "null sketch in batch"})
			return
		}
		if err := h.service.Validate(doc); errors.Is(err, ErrTooLarge) {
			handleServiceError(w, err)
			return
		}
	}

	results, err := engine.SolveBatch(r.Context(), req.Sketches, h.workers, h.service.opts...)
	if err != nil {
		slog.Warn("batch solve aborted", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "request cancelled"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func writeSolveError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
		"error":  engine.ErrorCode(err),
		"detail": err.Error(),
	})
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
	case errors.Is(err, ErrTooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": err.Error()})
	case errors.Is(err, document.ErrUnknownPoint),
		errors.Is(err, document.ErrUnknownSegmentType),
		errors.Is(err, document.ErrMissingTransit):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid document", "detail": err.Error()})
	default:
		slog.Error("service error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
