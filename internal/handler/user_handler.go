package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lessonplan-api/internal/models"
	"github.com/noah-isme/lessonplan-api/internal/service"
	appErrors "github.com/noah-isme/lessonplan-api/pkg/errors"
	"github.com/noah-isme/lessonplan-api/pkg/response"
)

type preferenceService interface {
	Me(ctx context.Context, claims *models.JWTClaims) (*models.UserInfo, error)
	SetMode(ctx context.Context, userID string, req service.UpdateModeRequest) (*models.UserPreference, error)
}

// UserHandler serves the current user and their dashboard mode.
type UserHandler struct {
	service preferenceService
}

// NewUserHandler constructs a user handler.
func NewUserHandler(svc preferenceService) *UserHandler {
	return &UserHandler{service: svc}
}

// Me godoc
// @Summary Current user
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /me [get]
func (h *UserHandler) Me(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	info, err := h.service.Me(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, info)
}

// SetMode godoc
// @Summary Change dashboard mode
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.UpdateModeRequest true "Mode payload"
// @Success 200 {object} response.Envelope
// @Router /me/mode [put]
func (h *UserHandler) SetMode(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req service.UpdateModeRequest
	if !bindJSON(c, &req) {
		return
	}
	pref, err := h.service.SetMode(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, pref)
}
