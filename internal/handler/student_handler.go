package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lessonplan-api/internal/models"
	"github.com/noah-isme/lessonplan-api/internal/service"
	"github.com/noah-isme/lessonplan-api/pkg/response"
)

type studentProfileService interface {
	ListTeacher(ctx context.Context, userID string, filter models.StudentProfileFilter) (*service.ProfileList[models.StudentProfileTeacher], error)
	GetTeacher(ctx context.Context, userID, id string) (*models.StudentProfileTeacher, error)
	CreateTeacher(ctx context.Context, userID string, req service.TeacherProfileRequest) (*models.StudentProfileTeacher, error)
	UpdateTeacher(ctx context.Context, userID, id string, req service.TeacherProfileRequest) (*models.StudentProfileTeacher, error)
	DeleteTeacher(ctx context.Context, userID, id string) error
	ListTutor(ctx context.Context, userID string, filter models.StudentProfileFilter) (*service.ProfileList[models.StudentProfileTutor], error)
	GetTutor(ctx context.Context, userID, id string) (*models.StudentProfileTutor, error)
	CreateTutor(ctx context.Context, userID string, req service.TutorProfileRequest) (*models.StudentProfileTutor, error)
	UpdateTutor(ctx context.Context, userID, id string, req service.TutorProfileRequest) (*models.StudentProfileTutor, error)
	DeleteTutor(ctx context.Context, userID, id string) error
}

// StudentHandler exposes the class student and tutee profile endpoints.
type StudentHandler struct {
	service studentProfileService
}

// NewStudentHandler constructs a student handler.
func NewStudentHandler(svc studentProfileService) *StudentHandler {
	return &StudentHandler{service: svc}
}

func profileFilter(c *gin.Context, groupParam string) models.StudentProfileFilter {
	return models.StudentProfileFilter{
		Search:      strings.TrimSpace(c.Query("search")),
		Group:       c.Query(groupParam),
		ListOptions: listOptions(c),
	}
}

// ListTeacher godoc
// @Summary List class students
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param search query string false "Matches first or last name"
// @Param class_name query string false "Filter by class name"
// @Param sort query string false "last_name, first_name, class_name or created_at"
// @Param order query string false "ASC or DESC"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) ListTeacher(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	list, err := h.service.ListTeacher(c.Request.Context(), userID, profileFilter(c, "class_name"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondList(c, list.Items, list.Pagination, list.CacheHit)
}

// GetTeacher godoc
// @Summary Get class student
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [get]
func (h *StudentHandler) GetTeacher(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	profile, err := h.service.GetTeacher(c.Request.Context(), userID, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, profile)
}

// CreateTeacher godoc
// @Summary Create class student
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.TeacherProfileRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Router /students [post]
func (h *StudentHandler) CreateTeacher(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req service.TeacherProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	profile, err := h.service.CreateTeacher(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, profile)
}

// UpdateTeacher godoc
// @Summary Update class student
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Param payload body service.TeacherProfileRequest true "Student payload"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [put]
func (h *StudentHandler) UpdateTeacher(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req service.TeacherProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	profile, err := h.service.UpdateTeacher(c.Request.Context(), userID, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, profile)
}

// DeleteTeacher godoc
// @Summary Delete class student
// @Tags Students
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 204
// @Router /students/{id} [delete]
func (h *StudentHandler) DeleteTeacher(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteTeacher(c.Request.Context(), userID, id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListTutor godoc
// @Summary List tutees
// @Tags Tutor Students
// @Produce json
// @Security BearerAuth
// @Param search query string false "Matches first or last name"
// @Param level query string false "Filter by level"
// @Param sort query string false "last_name, first_name, level or created_at"
// @Param order query string false "ASC or DESC"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /tutor/students [get]
func (h *StudentHandler) ListTutor(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	list, err := h.service.ListTutor(c.Request.Context(), userID, profileFilter(c, "level"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondList(c, list.Items, list.Pagination, list.CacheHit)
}

// GetTutor godoc
// @Summary Get tutee
// @Tags Tutor Students
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /tutor/students/{id} [get]
func (h *StudentHandler) GetTutor(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	profile, err := h.service.GetTutor(c.Request.Context(), userID, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, profile)
}

// CreateTutor godoc
// @Summary Create tutee
// @Tags Tutor Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.TutorProfileRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Router /tutor/students [post]
func (h *StudentHandler) CreateTutor(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req service.TutorProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	profile, err := h.service.CreateTutor(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, profile)
}

// UpdateTutor godoc
// @Summary Update tutee
// @Description Renaming a tutee also updates the name copied onto their lesson plans.
// @Tags Tutor Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Param payload body service.TutorProfileRequest true "Student payload"
// @Success 200 {object} response.Envelope
// @Router /tutor/students/{id} [put]
func (h *StudentHandler) UpdateTutor(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req service.TutorProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	profile, err := h.service.UpdateTutor(c.Request.Context(), userID, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, profile)
}

// DeleteTutor godoc
// @Summary Delete tutee
// @Description Fails with 409 while lesson plans still reference the student.
// @Tags Tutor Students
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /tutor/students/{id} [delete]
func (h *StudentHandler) DeleteTutor(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteTutor(c.Request.Context(), userID, id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
