package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lessonplan-api/internal/middleware"
	"github.com/noah-isme/lessonplan-api/internal/service"
	appErrors "github.com/noah-isme/lessonplan-api/pkg/errors"
	"github.com/noah-isme/lessonplan-api/pkg/response"
)

type tokenIntrospector interface {
	Introspect(ctx context.Context, token string) (*service.TokenInfo, error)
}

// VerifyRequest carries a token to check. The Authorization header is used when empty.
type VerifyRequest struct {
	Token string `json:"token"`
}

// AuthHandler exposes token verification. Sign in happens at the auth provider.
type AuthHandler struct {
	service tokenIntrospector
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc tokenIntrospector) *AuthHandler {
	return &AuthHandler{service: svc}
}

// Verify godoc
// @Summary Verify access token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body VerifyRequest false "Token payload"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/verify [post]
func (h *AuthHandler) Verify(c *gin.Context) {
	var req VerifyRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	token := strings.TrimSpace(req.Token)
	if token == "" {
		token, _ = middleware.BearerToken(c.GetHeader("Authorization"))
	}
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing token"))
		return
	}
	info, err := h.service.Introspect(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, info)
}
