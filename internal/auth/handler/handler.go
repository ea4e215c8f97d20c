package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cswitzer/OverboardTodosApp/internal/auth"
	"github.com/cswitzer/OverboardTodosApp/internal/auth/token"
	"github.com/cswitzer/OverboardTodosApp/internal/logger"
	"github.com/cswitzer/OverboardTodosApp/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Orchestrator drives the OAuth login flow. Satisfied by
// flow.Orchestrator.
type Orchestrator interface {
	StartLogin(ctx context.Context, provider string) (string, error)
	HandleCallback(
		ctx context.Context,
		provider string,
		code string,
		state string,
	) (string, error)
}

// CredentialService handles password registration and login.
// Satisfied by credentials.Service.
type CredentialService interface {
	Register(ctx context.Context, email, password, displayName string) (string, error)
	Authenticate(ctx context.Context, email, password string) (*auth.User, error)
}

// Handler is the HTTP adapter: it translates requests into
// orchestrator and service calls and error kinds into responses. No
// auth logic lives here.
type Handler struct {
	orchestrator Orchestrator
	credentials  CredentialService
	codec        *token.Codec
	tokenTTL     time.Duration

	// loginURL is where users land after an IdP-side error, to start
	// a fresh attempt.
	loginURL string
}

func NewHandler(
	orchestrator Orchestrator,
	credentialService CredentialService,
	codec *token.Codec,
	tokenTTL time.Duration,
	loginURL string,
) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		credentials:  credentialService,
		codec:        codec,
		tokenTTL:     tokenTTL,
		loginURL:     loginURL,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine, authMW *middleware.AuthMiddleware) {
	r.GET("/auth/:provider/login", h.oauthLogin)
	r.GET("/auth/:provider/callback", h.oauthCallback)
	r.POST("/auth/register", h.Register)
	r.POST("/auth/token", h.Login)

	me := r.Group("/auth")
	me.Use(middleware.GinRequireAuth(authMW))
	me.GET("/me", h.Me)
}

func (h *Handler) oauthLogin(c *gin.Context) {
	providerName := c.Param("provider")

	authURL, err := h.orchestrator.StartLogin(c.Request.Context(), providerName)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.Redirect(http.StatusFound, authURL)
}

func (h *Handler) oauthCallback(c *gin.Context) {
	providerName := c.Param("provider")

	// IdP-side error (user denied consent, expired session, ...).
	// Not an attack: send the user back to start a fresh attempt.
	if errParam := c.Query("error"); errParam != "" {
		logger.Warn("oauth callback returned error", map[string]any{
			"provider": providerName,
			"error":    errParam,
			"desc":     c.Query("error_description"),
		})
		c.Redirect(http.StatusFound, h.loginURL)
		return
	}

	redirect, err := h.orchestrator.HandleCallback(
		c.Request.Context(),
		providerName,
		c.Query("code"),
		c.Query("state"),
	)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.Redirect(http.StatusFound, redirect)
}

// Me returns the identity claims of the presented token.
func (h *Handler) Me(c *gin.Context) {
	userID, _ := middleware.UserIDFromContext(c.Request.Context())
	role, _ := middleware.RoleFromContext(c.Request.Context())

	c.JSON(http.StatusOK, gin.H{
		"user_id": userID,
		"role":    role,
	})
}

// writeError maps a failure kind to a response. Messages stay generic;
// details are in the logs, never in the body.
func (h *Handler) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "authentication failed"

	switch {
	case errors.Is(err, auth.ErrMalformedRequest),
		errors.Is(err, auth.ErrUnknownProvider):
		status = http.StatusBadRequest
		message = "invalid request"
	case errors.Is(err, auth.ErrInvalidState):
		status = http.StatusUnauthorized
		message = "invalid or expired login attempt"
	case errors.Is(err, auth.ErrIdPRejectedCode):
		status = http.StatusUnauthorized
	case errors.Is(err, auth.ErrNetwork),
		errors.Is(err, auth.ErrMalformedIdPResponse):
		status = http.StatusBadGateway
		message = "identity provider unavailable"
	case errors.Is(err, auth.ErrStorageUnavailable):
		status = http.StatusServiceUnavailable
		message = "service unavailable"
	}

	c.JSON(status, gin.H{"error": message})
}
