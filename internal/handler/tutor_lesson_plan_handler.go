package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lessonplan-api/internal/models"
	"github.com/noah-isme/lessonplan-api/internal/service"
	"github.com/noah-isme/lessonplan-api/pkg/response"
)

type tutorLessonPlanService interface {
	List(ctx context.Context, userID string, filter models.TutorLessonPlanFilter) (*service.PlanList, error)
	Get(ctx context.Context, userID, id string) (*models.TutorLessonPlan, error)
	Create(ctx context.Context, userID string, req service.TutorLessonPlanRequest) (*models.TutorLessonPlan, error)
	Update(ctx context.Context, userID, id string, req service.TutorLessonPlanRequest) (*models.TutorLessonPlan, error)
	Delete(ctx context.Context, userID, id string) error
}

// TutorLessonPlanHandler exposes the one to one lesson plan endpoints.
type TutorLessonPlanHandler struct {
	service tutorLessonPlanService
	printer lessonPrinter
}

// NewTutorLessonPlanHandler constructs a tutor lesson plan handler.
func NewTutorLessonPlanHandler(svc tutorLessonPlanService, printer lessonPrinter) *TutorLessonPlanHandler {
	return &TutorLessonPlanHandler{service: svc, printer: printer}
}

// List godoc
// @Summary List tutor lesson plans
// @Tags Tutor Lesson Plans
// @Produce json
// @Security BearerAuth
// @Param search query string false "Matches topic, student name, subject"
// @Param student_id query string false "Filter by student"
// @Param subject query string false "Filter by subject"
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
// @Router /tutor/lesson-plans [get]
func (h *TutorLessonPlanHandler) List(c *gin.Context) {
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
	filter := models.TutorLessonPlanFilter{
		Search:      strings.TrimSpace(c.Query("search")),
		StudentID:   c.Query("student_id"),
		Subject:     c.Query("subject"),
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
// @Summary Get tutor lesson plan
// @Tags Tutor Lesson Plans
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lesson plan ID"
// @Success 200 {object} response.Envelope
// @Router /tutor/lesson-plans/{id} [get]
func (h *TutorLessonPlanHandler) Get(c *gin.Context) {
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
// @Summary Create tutor lesson plan
// @Tags Tutor Lesson Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.TutorLessonPlanRequest true "Lesson plan payload"
// @Success 201 {object} response.Envelope
// @Router /tutor/lesson-plans [post]
func (h *TutorLessonPlanHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req service.TutorLessonPlanRequest
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
// @Summary Update tutor lesson plan
// @Tags Tutor Lesson Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lesson plan ID"
// @Param payload body service.TutorLessonPlanRequest true "Lesson plan payload"
// @Success 200 {object} response.Envelope
// @Router /tutor/lesson-plans/{id} [put]
func (h *TutorLessonPlanHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req service.TutorLessonPlanRequest
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
// @Summary Delete tutor lesson plan
// @Tags Tutor Lesson Plans
// @Security BearerAuth
// @Param id path string true "Lesson plan ID"
// @Success 204
// @Router /tutor/lesson-plans/{id} [delete]
func (h *TutorLessonPlanHandler) Delete(c *gin.Context) {
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
// @Summary Print tutor lesson plan
// @Tags Tutor Lesson Plans
// @Produce application/pdf
// @Produce text/csv
// @Security BearerAuth
// @Param id path string true "Lesson plan ID"
// @Param format query string false "pdf (default) or csv"
// @Success 200 {file} file
// @Router /tutor/lesson-plans/{id}/print [get]
func (h *TutorLessonPlanHandler) Print(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	file, err := h.printer.PrintTutorPlan(c.Request.Context(), userID, id, printFormat(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondFile(c, file.Filename, file.ContentType, file.Body)
}
