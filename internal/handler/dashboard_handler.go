package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lessonplan-api/internal/middleware"
	"github.com/noah-isme/lessonplan-api/internal/models"
	"github.com/noah-isme/lessonplan-api/internal/service"
	"github.com/noah-isme/lessonplan-api/pkg/response"
)

type dashboardService interface {
	View(ctx context.Context, userID string, req service.DashboardRequest) (*service.DashboardView, error)
}

// DashboardHandler serves the mode dependent dashboard.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs a dashboard handler.
func NewDashboardHandler(svc dashboardService) *DashboardHandler {
	return &DashboardHandler{service: svc}
}

// View godoc
// @Summary Dashboard
// @Description Without a mode query the stored preference is used.
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Param mode query string false "teacher, tutor, student or detailed"
// @Param variant query string false "teacher or tutor plans in detailed mode"
// @Param student_id query string false "Required in student mode"
// @Param search query string false "Search keyword"
// @Param class query string false "Filter by class"
// @Param subject query string false "Filter by subject"
// @Param year_group query string false "Filter by year group"
// @Param exam_board query string false "Filter by exam board"
// @Param from query string false "Earliest lesson date (YYYY-MM-DD)"
// @Param to query string false "Latest lesson date (YYYY-MM-DD)"
// @Param bucket query string false "today, tomorrow, upcoming or previous"
// @Param sort query string false "Sort field"
// @Param order query string false "ASC or DESC"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) View(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	req := service.DashboardRequest{
		Mode:        models.Mode(strings.ToLower(c.Query("mode"))),
		Variant:     models.Mode(strings.ToLower(c.Query("variant"))),
		StudentID:   c.Query("student_id"),
		Search:      strings.TrimSpace(c.Query("search")),
		Class:       c.Query("class"),
		Subject:     c.Query("subject"),
		YearGroup:   c.Query("year_group"),
		ExamBoard:   c.Query("exam_board"),
		From:        c.Query("from"),
		To:          c.Query("to"),
		Bucket:      models.Bucket(strings.ToLower(c.Query("bucket"))),
		ListOptions: listOptions(c),
	}
	view, err := h.service.View(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, view.CacheHit)
	middleware.SetMeta(c, "mode", view.Mode)
	response.JSON(c, http.StatusOK, view, &view.Pagination, middleware.ExtractMeta(c))
}
