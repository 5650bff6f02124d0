package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/lessonplan-api/internal/models"
	"github.com/noah-isme/lessonplan-api/internal/service"
	appErrors "github.com/noah-isme/lessonplan-api/pkg/errors"
	"github.com/noah-isme/lessonplan-api/pkg/response"
)

type exportService interface {
	CreateJob(ctx context.Context, userID string, req service.ExportRequest) (*models.ExportJob, error)
	GetStatus(ctx context.Context, userID, id string) (*models.ExportJob, error)
	ResolveDownload(ctx context.Context, token string) (*service.ExportDownload, error)
}

// ExportHandler exposes asynchronous lesson plan exports.
type ExportHandler struct {
	service exportService
	logger  *zap.Logger
}

// NewExportHandler constructs an export handler.
func NewExportHandler(svc exportService, logger *zap.Logger) *ExportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportHandler{service: svc, logger: logger}
}

// Create godoc
// @Summary Queue export
// @Tags Exports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.ExportRequest true "Export payload"
// @Success 202 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /exports [post]
func (h *ExportHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req service.ExportRequest
	if !bindJSON(c, &req) {
		return
	}
	job, err := h.service.CreateJob(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, job)
}

// Status godoc
// @Summary Export status
// @Tags Exports
// @Produce json
// @Security BearerAuth
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /exports/{id} [get]
func (h *ExportHandler) Status(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	job, err := h.service.GetStatus(c.Request.Context(), userID, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, job)
}

// Download godoc
// @Summary Download export
// @Description The signed token in the path is the only credential.
// @Tags Exports
// @Produce application/pdf
// @Produce text/csv
// @Param token path string true "Signed download token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /exports/download/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	download, err := h.service.ResolveDownload(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close()

	info, err := download.File.Stat()
	if err != nil {
		h.logger.Error("stat export file", zap.String("file", download.Filename), zap.Error(err))
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read export"))
		return
	}
	headers := map[string]string{
		"Content-Disposition": "attachment; filename=\"" + download.Filename + "\"",
		"Cache-Control":       "no-store",
	}
	if !download.ExpiresAt.IsZero() {
		headers["X-Export-Expires-At"] = download.ExpiresAt.UTC().Format(time.RFC3339)
	}
	c.DataFromReader(http.StatusOK, info.Size(), download.ContentType, download.File, headers)
}
