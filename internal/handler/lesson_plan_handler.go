package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lessonplan-api/internal/models"
	"github.com/noah-isme/lessonplan-api/internal/service"
	"github.com/noah-isme/lessonplan-api/pkg/response"
)

type lessonPlanService interface {
	List(ctx context.Context, userID string, filter models.LessonPlanFilter) (*service.PlanList, error)
	Get(ctx context.Context, userID, id string) (*models.LessonPlan, error)
	Create(ctx context.Context, userID string, req service.LessonPlanRequest) (*models.LessonPlan, error)
	Update(ctx context.Context, userID, id string, req service.LessonPlanRequest) (*models.LessonPlan, error)
	Delete(ctx context.Context, userID, id string) error
}

type lessonPrinter interface {
	PrintTeacherPlan(ctx context.Context, userID, id string, format models.ExportFormat) (*service.Rendered, error)
	PrintTutorPlan(ctx context.Context, userID, id string, format models.ExportFormat) (*service.Rendered, error)
}

// LessonPlanHandler exposes the teacher lesson plan endpoints.
type LessonPlanHandler struct {
	service lessonPlanService
	printer lessonPrinter
}

// NewLessonPlanHandler constructs a lesson plan handler.
func NewLessonPlanHandler(svc lessonPlanService, printer lessonPrinter) *LessonPlanHandler {
	return &LessonPlanHandler{service: svc, printer: printer}
}

// List godoc
// @Summary List lesson plans
// @Tags Lesson Plans
// @Produce json
// @Security BearerAuth
// @Param search query string false "Matches topic, class, subject, objectives"
// @Param class query string false "Filter by class"
// @Param subject query string false "Filter by subject"
// @Param year_group query string false "Filter by year group"
// @Param exam_board query string false "Filter by exam board"
// @Param from query string false "Earliest lesson date (YYYY-MM-DD)"
// @Param to query string false "Latest lesson date (YYYY-MM-DD)"
// @Param bucket query string false "today, tomorrow, upcoming or previous"
// @Param view query string false "card or detailed"
// @Param sort query string false "Sort field"
// @Param order query string false "ASC or DESC"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /lesson-plans [get]
func (h *LessonPlanHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	from, to, ok := queryRange(c)
	if !ok {
		return
	}
	bucket, ok := queryBucket(c)
	if !ok {
		return
	}
	filter := models.LessonPlanFilter{
		Search:      strings.TrimSpace(c.Query("search")),
		Class:       c.Query("class"),
		Subject:     c.Query("subject"),
		YearGroup:   c.Query("year_group"),
		ExamBoard:   c.Query("exam_board"),
		From:        from,
		To:          to,
		Bucket:      bucket,
		View:        queryView(c),
		ListOptions: listOptions(c),
	}
	list, err := h.service.List(c.Request.Context(), userID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondList(c, list, list.Pagination, list.CacheHit)
}

// Get godoc
// @Summary Get lesson plan
// @Tags Lesson Plans
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lesson plan ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /lesson-plans/{id} [get]
func (h *LessonPlanHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	plan, err := h.service.Get(c.Request.Context(), userID, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, plan)
}

// Create godoc
// @Summary Create lesson plan
// @Tags Lesson Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.LessonPlanRequest true "Lesson plan payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /lesson-plans [post]
func (h *LessonPlanHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req service.LessonPlanRequest
	if !bindJSON(c, &req) {
		return
	}
	plan, err := h.service.Create(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, plan)
}

// Update godoc
// @Summary Update lesson plan
// @Tags Lesson Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lesson plan ID"
// @Param payload body service.LessonPlanRequest true "Lesson plan payload"
// @Success 200 {object} response.Envelope
// @Router /lesson-plans/{id} [put]
func (h *LessonPlanHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req service.LessonPlanRequest
	if !bindJSON(c, &req) {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	plan, err := h.service.Update(c.Request.Context(), userID, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, plan)
}

// Delete godoc
// @Summary Delete lesson plan
// @Tags Lesson Plans
// @Security BearerAuth
// @Param id path string true "Lesson plan ID"
// @Success 204
// @Router /lesson-plans/{id} [delete]
func (h *LessonPlanHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), userID, id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Print godoc
// @Summary Print lesson plan
// @Tags Lesson Plans
// @Produce application/pdf
// @Produce text/csv
// @Security BearerAuth
// @Param id path string true "Lesson plan ID"
// @Param format query string false "pdf (default) or csv"
// @Success 200 {file} file
// @Router /lesson-plans/{id}/print [get]
func (h *LessonPlanHandler) Print(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	file, err := h.printer.PrintTeacherPlan(c.Request.Context(), userID, id, printFormat(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondFile(c, file.Filename, file.ContentType, file.Body)
}

func printFormat(c *gin.Context) models.ExportFormat {
	return models.ExportFormat(strings.ToLower(c.DefaultQuery("format", string(models.ExportFormatPDF))))
}

