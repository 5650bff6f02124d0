package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lessonplan-api/internal/models"
	"github.com/noah-isme/lessonplan-api/internal/service"
	"github.com/noah-isme/lessonplan-api/pkg/response"
)

type lessonGenerator interface {
	Generate(ctx context.Context, userID string, req service.GenerateLessonRequest) (*models.GeneratedLessonPlan, error)
}

// GenerationHandler drafts lesson plans with the configured AI model.
type GenerationHandler struct {
	service lessonGenerator
}

// NewGenerationHandler constructs a generation handler.
func NewGenerationHandler(svc lessonGenerator) *GenerationHandler {
	return &GenerationHandler{service: svc}
}

// Generate godoc
// @Summary Generate lesson plan draft
// @Description The draft is returned to the caller and never stored.
// @Tags Generation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.GenerateLessonRequest true "Generation payload"
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /generate-lesson [post]
func (h *GenerationHandler) Generate(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req service.GenerateLessonRequest
	if !bindJSON(c, &req) {
		return
	}
	plan, err := h.service.Generate(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, plan)
}
