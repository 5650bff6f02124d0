package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lessonplan-api/internal/models"
	"github.com/noah-isme/lessonplan-api/internal/service"
	"github.com/noah-isme/lessonplan-api/pkg/response"
)

type classService interface {
	List(ctx context.Context, teacherID string, filter models.ClassFilter) (*service.ProfileList[models.ClassSummary], error)
	Get(ctx context.Context, teacherID, classID string) (*models.ClassWithStudents, error)
	Create(ctx context.Context, teacherID string, req service.ClassRequest) (*models.Class, error)
	Update(ctx context.Context, teacherID, classID string, req service.ClassRequest) (*models.Class, error)
	Delete(ctx context.Context, teacherID, classID string) error
	AddStudent(ctx context.Context, teacherID, classID string, req service.ClassStudentRequest) (*models.ClassWithStudents, error)
	RemoveStudent(ctx context.Context, teacherID, classID, studentID string) error
}

// ClassHandler exposes class and membership endpoints.
type ClassHandler struct {
	service classService
}

// NewClassHandler constructs a class handler.
func NewClassHandler(svc classService) *ClassHandler {
	return &ClassHandler{service: svc}
}

// List godoc
// @Summary List classes
// @Tags Classes
// @Produce json
// @Security BearerAuth
// @Param search query string false "Matches class name"
// @Param year_group query string false "Filter by year group"
// @Param sort query string false "class_name, year_group or created_at"
// @Param order query string false "ASC or DESC"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /classes [get]
func (h *ClassHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	filter := models.ClassFilter{
		Search:      strings.TrimSpace(c.Query("search")),
		YearGroup:   c.Query("year_group"),
		ListOptions: listOptions(c),
	}
	list, err := h.service.List(c.Request.Context(), userID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondList(c, list.Items, list.Pagination, list.CacheHit)
}

// Get godoc
// @Summary Get class with students
// @Tags Classes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id} [get]
func (h *ClassHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	class, err := h.service.Get(c.Request.Context(), userID, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, class)
}

// Create godoc
// @Summary Create class
// @Description The creator becomes a teacher of the class.
// @Tags Classes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.ClassRequest true "Class payload"
// @Success 201 {object} response.Envelope
// @Router /classes [post]
func (h *ClassHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req service.ClassRequest
	if !bindJSON(c, &req) {
		return
	}
	class, err := h.service.Create(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, class)
}

// Update godoc
// @Summary Update class
// @Tags Classes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Param payload body service.ClassRequest true "Class payload"
// @Success 200 {object} response.Envelope
// @Router /classes/{id} [put]
func (h *ClassHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req service.ClassRequest
	if !bindJSON(c, &req) {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	class, err := h.service.Update(c.Request.Context(), userID, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, class)
}

// Delete godoc
// @Summary Delete class
// @Tags Classes
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Success 204
// @Router /classes/{id} [delete]
func (h *ClassHandler) Delete(c *gin.Context) {
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

// AddStudent godoc
// @Summary Add student to class
// @Tags Classes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Param payload body service.ClassStudentRequest true "Student reference"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/students [post]
func (h *ClassHandler) AddStudent(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req service.ClassStudentRequest
	if !bindJSON(c, &req) {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	class, err := h.service.AddStudent(c.Request.Context(), userID, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, class)
}

// RemoveStudent godoc
// @Summary Remove student from class
// @Tags Classes
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Param studentId path string true "Student ID"
// @Success 204
// @Router /classes/{id}/students/{studentId} [delete]
func (h *ClassHandler) RemoveStudent(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	studentID, ok := pathID(c, "studentId")
	if !ok {
		return
	}
	if err := h.service.RemoveStudent(c.Request.Context(), userID, id, studentID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
