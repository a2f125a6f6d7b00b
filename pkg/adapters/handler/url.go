package handler

import (
	"net/http"

	"github.com/rs/zerolog"
	"github.com/wadjakorntonsri/shortlink/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlink/pkg/metrics"
	"github.com/wadjakorntonsri/shortlink/pkg/ports"
)

type URLHandler struct {
	service ports.URLService
	log     zerolog.Logger
	metrics *metrics.Metrics
}

type ShortenRequest struct {
	OriginalURL string `json:"originalUrl" validate:"required"`
}

type UpdateURLRequest struct {
	OriginalURL string `json:"originalUrl" validate:"required"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func NewURLHandler(service ports.URLService, log zerolog.Logger, m *metrics.Metrics) *URLHandler {
	return &URLHandler{service: service, log: log, metrics: m}
}

// Shorten creates a short URL, owned by the caller when a token was presented.
func (h *URLHandler) Shorten(w http.ResponseWriter, r *http.Request) {
	var req ShortenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, &h.log, err)
		return
	}

	var ownerID *string
	if identity, ok := IdentityFrom(r.Context()); ok {
		ownerID = &identity.UserID
	}

	view, err := h.service.CreateShortURL(r.Context(), req.OriginalURL, ownerID)
	if err != nil {
		writeError(w, &h.log, err)
		return
	}

	if h.metrics != nil {
		h.metrics.URLCreated(ownerID == nil)
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *URLHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	views, err := h.service.ListForOwner(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, &h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *URLHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	var req UpdateURLRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, &h.log, err)
		return
	}

	view, err := h.service.Update(r.Context(), r.PathValue("id"), req.OriginalURL, identity.UserID)
	if err != nil {
		writeError(w, &h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *URLHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	msg, err := h.service.SoftDelete(r.Context(), r.PathValue("id"), identity.UserID)
	if err != nil {
		writeError(w, &h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: msg})
}

func (h *URLHandler) Stats(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	stats, err := h.service.Stats(r.Context(), r.PathValue("id"), identity.UserID)
	if err != nil {
		writeError(w, &h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// identity is only absent when a route forgot RequireAuth.
func (h *URLHandler) identity(w http.ResponseWriter, r *http.Request) (*domain.Identity, bool) {
	identity, ok := IdentityFrom(r.Context())
	if !ok {
		writeErrorStatus(w, http.StatusUnauthorized, domain.KindUnauthorized, "unauthorized")
	}
	return identity, ok
}
