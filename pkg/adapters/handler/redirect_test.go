package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wadjakorntonsri/shortlink/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlink/pkg/metrics"
)

// stubURLs resolves every code to target unless err is set.
type stubURLs struct {
	target string
	err    error
	clicks int
}

func (s *stubURLs) CreateShortURL(context.Context, string, *string) (*domain.URLView, error) {
	return nil, errors.New("not implemented")
}

func (s *stubURLs) ResolveAndRecordClick(ctx context.Context, code string, ip, ua *string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.clicks++
	return s.target, nil
}

func (s *stubURLs) ListForOwner(context.Context, string) ([]domain.URLView, error) {
	return nil, errors.New("not implemented")
}

func (s *stubURLs) Update(context.Context, string, string, string) (*domain.URLView, error) {
	return nil, errors.New("not implemented")
}

func (s *stubURLs) SoftDelete(context.Context, string, string) (string, error) {
	return "", errors.New("not implemented")
}

func (s *stubURLs) Stats(context.Context, string, string) (*domain.ClickStats, error) {
	return nil, errors.New("not implemented")
}

func serveRedirect(h *RedirectHandler, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{short_code}", h.Redirect)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func TestRedirect(t *testing.T) {
	urls := &stubURLs{target: "https://example.com/"}
	h := NewRedirectHandler(urls, zerolog.Nop(), metrics.New(), true)

	rr := serveRedirect(h, httptest.NewRequest(http.MethodGet, "/abc123", nil))

	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "https://example.com/", rr.Header().Get("Location"))
	assert.Equal(t, 1, urls.clicks)
}

func TestRedirectSchemelessTarget(t *testing.T) {
	h := NewRedirectHandler(&stubURLs{target: "example.com/path"}, zerolog.Nop(), nil, true)

	rr := serveRedirect(h, httptest.NewRequest(http.MethodGet, "/abc123", nil))

	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "https://example.com/path", rr.Header().Get("Location"))
}

func TestRedirectPreviewReportsValidatedTarget(t *testing.T) {
	h := NewRedirectHandler(&stubURLs{target: "example.com/path"}, zerolog.Nop(), nil, false)

	rr := serveRedirect(h, httptest.NewRequest(http.MethodGet, "/abc123?format=json", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var body RedirectPreview
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, "https://example.com/path", body.OriginalURL)
	assert.Equal(t, "https://example.com/path", body.RedirectURL)
}

func TestRedirectProbes(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		header   string
		value    string
		sniffing bool
		preview  bool
	}{
		{name: "format flag", path: "/abc123?format=json", preview: true},
		{name: "preview flag", path: "/abc123?preview=true", preview: true},
		{name: "swagger agent", path: "/abc123", header: "User-Agent", value: "Swagger-UI", sniffing: true, preview: true},
		{name: "json accept", path: "/abc123", header: "Accept", value: "application/json", sniffing: true, preview: true},
		{name: "docs referer", path: "/abc123", header: "Referer", value: "http://localhost:8080/docs", sniffing: true, preview: true},
		{name: "ajax marker", path: "/abc123", header: "X-Requested-With", value: "XMLHttpRequest", sniffing: true, preview: true},
		{name: "json accept without sniffing", path: "/abc123", header: "Accept", value: "application/json"},
		{name: "browser", path: "/abc123", header: "Accept", value: "text/html", sniffing: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			urls := &stubURLs{target: "https://example.com/"}
			h := NewRedirectHandler(urls, zerolog.Nop(), nil, tt.sniffing)

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rr := serveRedirect(h, req)

			// a click is recorded either way
			assert.Equal(t, 1, urls.clicks)

			if !tt.preview {
				assert.Equal(t, http.StatusFound, rr.Code)
				return
			}

			require.Equal(t, http.StatusOK, rr.Code)
			var body RedirectPreview
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
			assert.Equal(t, "https://example.com/", body.OriginalURL)
			assert.Equal(t, "https://example.com/", body.RedirectURL)
			assert.Equal(t, "abc123", body.ShortCode)
			assert.True(t, body.ClickRegistered)
			assert.Contains(t, body.Note, "/abc123")
		})
	}
}

func TestRedirectErrors(t *testing.T) {
	tests := []struct {
		name    string
		urls    *stubURLs
		status  int
		message string
	}{
		{
			name:    "unknown code",
			urls:    &stubURLs{err: domain.Wrap(domain.KindNotFound, "short url not found", nil)},
			status:  http.StatusNotFound,
			message: "short url not found",
		},
		{
			name:    "storage failure",
			urls:    &stubURLs{err: errors.New("disk on fire")},
			status:  http.StatusInternalServerError,
			message: "internal server error",
		},
		{
			name:    "invalid target",
			urls:    &stubURLs{target: "https://"},
			status:  http.StatusBadRequest,
			message: "invalid redirect target",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewRedirectHandler(tt.urls, zerolog.Nop(), metrics.New(), true)
			rr := serveRedirect(h, httptest.NewRequest(http.MethodGet, "/abc123", nil))

			require.Equal(t, tt.status, rr.Code)
			var body ErrorResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
			assert.Equal(t, tt.status, body.StatusCode)
			assert.Equal(t, http.StatusText(tt.status), body.Error)
			assert.Equal(t, tt.message, body.Message)
			assert.NotContains(t, rr.Body.String(), "disk on fire")
		})
	}
}
