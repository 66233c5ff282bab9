package signupserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

// Handle carries the HTTP layer's dependencies
type Handle struct {
	service *SignupService
	jwtAuth *jwtauth.JWTAuth
}

// NewHandle creates the HTTP handler set. The jwtauth instance must be
// built from the same secret the service signs session tokens with.
func NewHandle(service *SignupService, jwtAuth *jwtauth.JWTAuth) Handle {
	return Handle{service: service, jwtAuth: jwtAuth}
}

// Routes mounts the signup backend endpoints on r
func Routes(r chi.Router, h Handle) {
	r.Get("/api/status", h.GetStatus)

	r.Route("/api/v1/signup", func(r chi.Router) {
		r.Post("/code", h.RequestCode)
		r.Post("/verify", h.VerifyCode)
		r.Post("/complete", h.CompleteSignup)
	})

	r.Group(func(r chi.Router) {
		r.Use(jwtauth.Verifier(h.jwtAuth))
		r.Use(jwtauth.Authenticator(h.jwtAuth))
		r.Get("/api/v1/workspace", h.ListWorkspaces)
	})
}

// ErrorResponse is the uniform error body
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse mirrors the server configuration snapshot
type StatusResponse struct {
	EmailConfigured bool `json:"emailConfigured"`
}

// GetStatus handles GET /api/status
func (h Handle) GetStatus(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, StatusResponse{EmailConfigured: h.service.EmailConfigured()})
}

type requestCodeRequest struct {
	Email string `json:"email"`
}

// RequestCode handles POST /api/v1/signup/code
func (h Handle) RequestCode(w http.ResponseWriter, r *http.Request) {
	var req requestCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Invalid request body"})
		return
	}
	if req.Email == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Email is required"})
		return
	}

	if err := h.service.RequestCode(r.Context(), req.Email); err != nil {
		slog.Error("Failed to issue verification code", "err", err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, ErrorResponse{Error: "Failed to issue verification code"})
		return
	}

	render.NoContent(w, r)
}

type verifyCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type verifyCodeResponse struct {
	Token string `json:"token"`
}

// VerifyCode handles POST /api/v1/signup/verify
func (h Handle) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req verifyCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Invalid request body"})
		return
	}

	token, err := h.service.CheckCode(r.Context(), req.Email, req.Code)
	if err != nil {
		slog.Info("Verification code rejected", "email", req.Email, "err", err)
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, ErrorResponse{Error: "Invalid verification code"})
		return
	}

	render.JSON(w, r, verifyCodeResponse{Token: token})
}

type completeSignupRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Password  string `json:"password"`
}

// UserResponse is the provisioned account DTO
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
}

type completeSignupResponse struct {
	User         UserResponse `json:"user"`
	WorkspaceID  string       `json:"workspaceId"`
	SessionToken string       `json:"sessionToken"`
}

// CompleteSignup handles POST /api/v1/signup/complete. The signup token
// from the verify step is presented as a bearer token.
func (h Handle) CompleteSignup(w http.ResponseWriter, r *http.Request) {
	var req completeSignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Invalid request body"})
		return
	}

	result, err := h.service.CompleteSignup(r.Context(), CompleteSignupRequest{
		SignupToken: jwtauth.TokenFromHeader(r),
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Password:    req.Password,
	})
	if err != nil {
		status := http.StatusBadRequest
		message := "Failed to complete signup"

		switch {
		case errors.Is(err, ErrInvalidSignupToken):
			status = http.StatusUnauthorized
			message = "Invalid signup token"
		case errors.Is(err, ErrEmailExists):
			status = http.StatusConflict
			message = "An account with this email already exists"
		default:
			slog.Error("Failed to complete signup", "err", err)
			status = http.StatusInternalServerError
		}

		render.Status(r, status)
		render.JSON(w, r, ErrorResponse{Error: message})
		return
	}

	var userResp UserResponse
	if err := copier.Copy(&userResp, result.User); err != nil {
		slog.Error("Failed to map user response", "err", err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, ErrorResponse{Error: "Failed to complete signup"})
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, completeSignupResponse{
		User:         userResp,
		WorkspaceID:  result.Workspace.ID,
		SessionToken: result.SessionToken,
	})
}

// ListWorkspaces handles GET /api/v1/workspace for authenticated callers
func (h Handle) ListWorkspaces(w http.ResponseWriter, r *http.Request) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, ErrorResponse{Error: "Missing session"})
		return
	}

	email, _ := claims["email"].(string)
	if email == "" {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, ErrorResponse{Error: "Invalid session claims"})
		return
	}

	workspaces, err := h.service.Workspaces(r.Context(), email)
	if err != nil {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, ErrorResponse{Error: "Unknown account"})
		return
	}

	render.JSON(w, r, workspaces)
}
