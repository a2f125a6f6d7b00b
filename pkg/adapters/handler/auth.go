package handler

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/wadjakorntonsri/shortlink/pkg/config"
	"github.com/wadjakorntonsri/shortlink/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlink/pkg/ports"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	oauthStateCookie  = "oauthstate"
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

type AuthHandler struct {
	auth         ports.AuthService
	users        ports.UserService
	log          zerolog.Logger
	oauthConfig  *oauth2.Config
	userInfoURL  string
	frontendURL  string
	tokenTTL     time.Duration
	isProduction bool
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type GoogleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

func NewAuthHandler(cfg *config.Config, auth ports.AuthService, users ports.UserService, log zerolog.Logger) *AuthHandler {
	h := &AuthHandler{
		auth:         auth,
		users:        users,
		log:          log,
		userInfoURL:  googleUserInfoURL,
		frontendURL:  cfg.FrontendURL,
		tokenTTL:     cfg.JWTExpiresIn,
		isProduction: cfg.IsProduction(),
	}
	if cfg.GoogleEnabled() {
		h.oauthConfig = &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email"},
			Endpoint:     google.Endpoint,
		}
	}
	return h
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, &h.log, err)
		return
	}

	result, err := h.auth.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, &h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, &h.log, err)
		return
	}

	result, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, &h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFrom(r.Context())
	if !ok {
		writeErrorStatus(w, http.StatusUnauthorized, domain.KindUnauthorized, "unauthorized")
		return
	}

	user, err := h.auth.Profile(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, &h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	state, err := h.generateStateOauthCookie(w)
	if err != nil {
		writeError(w, &h.log, err)
		return
	}
	http.Redirect(w, r, h.oauthConfig.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	oauthState, err := r.Cookie(oauthStateCookie)
	if err != nil {
		h.log.Warn().Err(err).Msg("callback: missing oauth state cookie")
		writeErrorStatus(w, http.StatusBadRequest, domain.KindInvalidInput, "missing oauth state")
		return
	}
	if r.FormValue("state") != oauthState.Value {
		h.log.Warn().Msg("callback: oauth state mismatch")
		writeErrorStatus(w, http.StatusBadRequest, domain.KindInvalidInput, "invalid oauth state")
		return
	}

	googleUser, err := h.fetchGoogleUser(r, r.FormValue("code"))
	if err != nil {
		h.log.Error().Err(err).Msg("callback: google sign-in failed")
		writeErrorStatus(w, http.StatusBadGateway, domain.KindInternal, "google sign-in failed")
		return
	}
	if googleUser.Email == "" || !googleUser.VerifiedEmail {
		writeErrorStatus(w, http.StatusForbidden, domain.KindForbidden, "google account email is not verified")
		return
	}

	user, err := h.users.FindOrCreateExternal(r.Context(), googleUser.Email)
	if err != nil {
		writeError(w, &h.log, err)
		return
	}

	token, err := h.auth.IssueToken(user.Sanitize())
	if err != nil {
		writeError(w, &h.log, err)
		return
	}

	h.setAuthCookie(w, token, time.Now().Add(h.tokenTTL))
	h.log.Info().Str("user_id", user.ID).Msg("google login successful")
	http.Redirect(w, r, h.frontendURL, http.StatusTemporaryRedirect)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.setAuthCookie(w, "", time.Now().Add(-1*time.Hour))
	http.Redirect(w, r, h.frontendURL, http.StatusTemporaryRedirect)
}

func (h *AuthHandler) fetchGoogleUser(r *http.Request, code string) (*GoogleUser, error) {
	tok, err := h.oauthConfig.Exchange(r.Context(), code)
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}

	resp, err := h.oauthConfig.Client(r.Context(), tok).Get(h.userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("failed getting user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info returned status %d", resp.StatusCode)
	}

	var user GoogleUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed decoding user info: %w", err)
	}
	return &user, nil
}

func (h *AuthHandler) setAuthCookie(w http.ResponseWriter, value string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    value,
		Expires:  expires,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) generateStateOauthCookie(w http.ResponseWriter) (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate oauth state: %w", err)
	}
	state := base64.URLEncoding.EncodeToString(b)
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Expires:  time.Now().Add(20 * time.Minute),
		Path:     "/",
		HttpOnly: true,
		Secure:   h.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
	return state, nil
}
