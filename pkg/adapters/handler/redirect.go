package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/wadjakorntonsri/shortlink/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlink/pkg/core/services"
	"github.com/wadjakorntonsri/shortlink/pkg/metrics"
	"github.com/wadjakorntonsri/shortlink/pkg/ports"
)

type RedirectHandler struct {
	service       ports.URLService
	log           zerolog.Logger
	metrics       *metrics.Metrics
	probeSniffing bool
}

// RedirectPreview is returned instead of a 302 to documentation and tooling clients.
type RedirectPreview struct {
	Message         string `json:"message"`
	OriginalURL     string `json:"originalUrl"`
	ShortCode       string `json:"shortCode"`
	RedirectURL     string `json:"redirectUrl"`
	ClickRegistered bool   `json:"clickRegistered"`
	Note            string `json:"note"`
}

func NewRedirectHandler(service ports.URLService, log zerolog.Logger, m *metrics.Metrics, probeSniffing bool) *RedirectHandler {
	return &RedirectHandler{service: service, log: log, metrics: m, probeSniffing: probeSniffing}
}

func (h *RedirectHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("short_code")

	ip := clientIP(r)
	ua := r.UserAgent()
	originalURL, err := h.service.ResolveAndRecordClick(r.Context(), code, &ip, &ua)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.outcome("not_found")
			writeErrorStatus(w, http.StatusNotFound, domain.KindNotFound, "short url not found")
			return
		}
		h.outcome("error")
		h.log.Error().Err(err).Str("short_code", code).Msg("failed to resolve short code")
		writeErrorStatus(w, http.StatusInternalServerError, domain.KindInternal, "internal server error")
		return
	}

	target, err := services.RedirectTarget(originalURL)
	if err != nil {
		h.outcome("invalid_target")
		h.log.Warn().Str("short_code", code).Str("original_url", originalURL).Msg("stored url is not a valid redirect target")
		writeError(w, &h.log, err)
		return
	}

	if h.isProbe(r) {
		h.outcome("preview")
		writeJSON(w, http.StatusOK, RedirectPreview{
			Message:         "redirect resolved",
			OriginalURL:     target,
			ShortCode:       code,
			RedirectURL:     target,
			ClickRegistered: true,
			Note:            fmt.Sprintf("open %s in a browser to be redirected", requestURL(r, code)),
		})
		return
	}

	h.outcome("redirect")
	http.Redirect(w, r, target, http.StatusFound)
}

// isProbe reports whether the caller wants the JSON preview instead of a redirect.
// Explicit query flags always win; header sniffing can be switched off.
func (h *RedirectHandler) isProbe(r *http.Request) bool {
	q := r.URL.Query()
	if q.Get("format") == "json" || q.Get("preview") == "true" {
		return true
	}
	if !h.probeSniffing {
		return false
	}

	if strings.Contains(strings.ToLower(r.UserAgent()), "swagger") {
		return true
	}
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	referer := strings.ToLower(r.Referer())
	if strings.Contains(referer, "/api") || strings.Contains(referer, "/docs") || strings.Contains(referer, "swagger") {
		return true
	}
	return r.Header.Get("X-Requested-With") == "XMLHttpRequest"
}

func (h *RedirectHandler) outcome(name string) {
	if h.metrics != nil {
		h.metrics.Redirect(name)
	}
}

func requestURL(r *http.Request, code string) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host + "/" + code
}
