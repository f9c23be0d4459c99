package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/Stewz00/wordwave-auth/internal/apperr"
	"github.com/Stewz00/wordwave-auth/internal/logging"
	"github.com/Stewz00/wordwave-auth/internal/model"
	"github.com/Stewz00/wordwave-auth/internal/service"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// maxBodyBytes bounds request bodies; every auth payload is tiny.
const maxBodyBytes = 1 << 16

type AuthHandler struct {
	authService *service.AuthService
	log         logging.Logger
}

func NewAuthHandler(authService *service.AuthService, log logging.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		log:         log,
	}
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

// LoginRequest accepts either identifier or, for older clients, email.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type AuthResponse struct {
	User  model.AccountView `json:"user"`
	Token string            `json:"token"`
}

type UserResponse struct {
	User model.AccountView `json:"user"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Register handles user registration
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}

	if fields := validateRegister(req); len(fields) > 0 {
		h.writeError(w, r, apperr.Validation(fields))
		return
	}

	res, err := h.authService.Register(r.Context(), req.Email, req.Password, req.Username)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{User: res.Account.View(), Token: res.Token})
}

// Login handles user authentication and returns a JWT token
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Identifier == "" {
		req.Identifier = req.Email
	}

	if fields := validateLogin(req); len(fields) > 0 {
		h.writeError(w, r, apperr.Validation(fields))
		return
	}

	res, err := h.authService.Login(r.Context(), req.Identifier, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{User: res.Account.View(), Token: res.Token})
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	if fields := validateForgotPassword(req); len(fields) > 0 {
		h.writeError(w, r, apperr.Validation(fields))
		return
	}

	msg, err := h.authService.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: msg})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	if fields := validateResetPassword(req); len(fields) > 0 {
		h.writeError(w, r, apperr.Validation(fields))
		return
	}

	msg, err := h.authService.ResetPassword(r.Context(), req.Token, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: msg})
}

// Me returns the account attached by RequireAuth.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	account, ok := AccountFromContext(r.Context())
	if !ok {
		h.writeError(w, r, apperr.New(apperr.KindTokenInvalid, "Invalid token"))
		return
	}
	writeJSON(w, http.StatusOK, UserResponse{User: account.View()})
}

type accountKey struct{}

// AccountFromContext returns the account stored by RequireAuth.
func AccountFromContext(ctx context.Context) (*model.Account, bool) {
	a, ok := ctx.Value(accountKey{}).(*model.Account)
	return a, ok
}

// RequireAuth rejects requests without a valid bearer token and stores the
// token's account in the request context.
func (h *AuthHandler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			w.Header().Set("WWW-Authenticate", "Bearer")
			h.writeError(w, r, apperr.New(apperr.KindTokenInvalid, "No token provided"))
			return
		}

		account, err := h.authService.CurrentAccount(r.Context(), token)
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
			h.writeError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), accountKey{}, account)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Helper function to extract JWT token from Authorization header
func extractToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func (h *AuthHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		msg := "Invalid request body"
		if errors.Is(err, io.EOF) {
			msg = "Request body is required"
		}
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: msg})
		return false
	}
	return true
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusUnprocessableEntity
	case apperr.KindEmailTaken:
		return http.StatusConflict
	case apperr.KindInvalidCredentials,
		apperr.KindTokenInvalid,
		apperr.KindTokenExpired,
		apperr.KindTokenNotFound:
		return http.StatusUnauthorized
	case apperr.KindRateLimitExceeded:
		return http.StatusTooManyRequests
	case apperr.KindHashingFailure, apperr.KindInternal:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

func (h *AuthHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	e := apperr.As(err)
	status := StatusFor(e.Kind)

	if status >= http.StatusInternalServerError {
		h.log.Error(r.Context(), "request failed",
			"request_id", chimiddleware.GetReqID(r.Context()),
			"path", r.URL.Path,
			"kind", e.Kind.String(),
			"error", err)
	}

	writeJSON(w, status, ErrorResponse{Error: e.Message, Fields: e.Fields})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
