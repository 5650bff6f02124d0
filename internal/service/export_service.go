package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lessonplan-api/internal/models"
	"github.com/noah-isme/lessonplan-api/internal/repository"
	appErrors "github.com/noah-isme/lessonplan-api/pkg/errors"
	"github.com/noah-isme/lessonplan-api/pkg/jobs"
	"github.com/noah-isme/lessonplan-api/pkg/storage"
)

type exportJobStore interface {
	Create(ctx context.Context, job *models.ExportJob) error
	GetByID(ctx context.Context, id string) (*models.ExportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error
	ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error)
	ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type exportFiles interface {
	Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error)
	ParseToken(token string, allowExpired bool) (storage.SignedToken, error)
	Open(relPath string) (*os.File, error)
	Delete(relPath string) error
	Cleanup(ttl time.Duration) ([]string, error)
}

// ExportRequest is the payload of POST /exports.
type ExportRequest struct {
	Kind      models.ExportKind   `json:"kind" validate:"required,oneof=lesson_plans tutor_lesson_plans"`
	Format    models.ExportFormat `json:"format" validate:"required,oneof=csv pdf"`
	Class     string              `json:"class"`
	StudentID string              `json:"student_id"`
	From      string              `json:"from" validate:"omitempty,datetime=2006-01-02"`
	To        string              `json:"to" validate:"omitempty,datetime=2006-01-02"`
}

// ExportServiceConfig governs recovery and cleanup.
type ExportServiceConfig struct {
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// ExportDownload aggregates resolved download data.
type ExportDownload struct {
	File        *os.File
	Filename    string
	ContentType string
	ExpiresAt   time.Time
}

// ExportService orchestrates export job lifecycle management.
type ExportService struct {
	repo      exportJobStore
	queue     jobDispatcher
	files     exportFiles
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ExportServiceConfig
	now       func() time.Time
}

// NewExportService constructs the export service.
func NewExportService(repo exportJobStore, queue jobDispatcher, files exportFiles, validate *validator.Validate, logger *zap.Logger, cfg ExportServiceConfig) *ExportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportService{repo: repo, queue: queue, files: files, validator: validate, logger: logger, cfg: cfg, now: time.Now}
}

// CreateJob validates the request, persists the job and enqueues it.
func (s *ExportService) CreateJob(ctx context.Context, userID string, req ExportRequest) (*models.ExportJob, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid export payload")
	}
	if req.Kind == models.ExportKindLessonPlans && strings.TrimSpace(req.StudentID) != "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student_id only applies to tutor_lesson_plans")
	}
	if _, _, err := dateBounds(req.From, req.To); err != nil {
		return nil, err
	}

	job := &models.ExportJob{
		Kind: req.Kind,
		Params: models.ExportJobParams{
			Format:    req.Format,
			Class:     strings.TrimSpace(req.Class),
			StudentID: strings.TrimSpace(req.StudentID),
			From:      req.From,
			To:        req.To,
		},
		Status:    models.ExportStatusQueued,
		CreatedBy: userID,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Kind)}); err != nil {
		failed := models.ExportStatusFailed
		msg := "failed to enqueue job"
		now := s.now().UTC()
		progress := 100
		if updateErr := s.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
			Status:       &failed,
			Progress:     &progress,
			ErrorMessage: &msg,
			FinishedAt:   &now,
		}); updateErr != nil {
			s.logger.Sugar().Warnw("failed to mark job failed", "job_id", job.ID, "error", updateErr)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrServiceUnavailable.Code, appErrors.ErrServiceUnavailable.Status, "export queue is full")
	}
	s.logger.Info("export job queued", zap.String("job_id", job.ID), zap.String("kind", string(job.Kind)), zap.String("user_id", userID))
	return job, nil
}

// GetStatus reports a job to its creator. Other users see not found.
func (s *ExportService) GetStatus(ctx context.Context, userID, id string) (*models.ExportJob, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "export job not found", "failed to load export job")
	}
	if job.CreatedBy != userID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	return job, nil
}

// ResolveDownload validates a token and opens the stored file.
func (s *ExportService) ResolveDownload(ctx context.Context, token string) (*ExportDownload, error) {
	signed, err := s.files.ParseToken(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, err := s.repo.GetByID(ctx, signed.JobID)
	if err != nil {
		if missingRow(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if job.Status != models.ExportStatusFinished {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "export not ready")
	}
	if job.ResultURL == nil || !strings.HasSuffix(*job.ResultURL, token) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	file, err := s.files.Open(signed.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export file expired")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export file")
	}
	contentType := "text/csv; charset=utf-8"
	if job.Params.Format == models.ExportFormatPDF {
		contentType = "application/pdf"
	}
	return &ExportDownload{
		File:        file,
		Filename:    filepath.Base(signed.Path),
		ContentType: contentType,
		ExpiresAt:   signed.ExpiresAt,
	}, nil
}

// RecoverPendingJobs re-enqueues jobs left QUEUED by a previous process.
func (s *ExportService) RecoverPendingJobs(ctx context.Context) int {
	pending, err := s.repo.ListQueued(ctx, 100)
	if err != nil {
		s.logger.Sugar().Warnw("failed to load queued export jobs", "error", err)
		return 0
	}
	recovered := 0
	for _, job := range pending {
		if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Kind)}); err != nil {
			s.logger.Sugar().Warnw("failed to requeue export job", "job_id", job.ID, "error", err)
			continue
		}
		recovered++
	}
	return recovered
}

// StartCleanup purges expired export files until ctx is cancelled.
func (s *ExportService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.CleanupExpired(ctx)
			}
		}
	}()
}

// CleanupExpired removes files of jobs that finished before the result TTL.
func (s *ExportService) CleanupExpired(ctx context.Context) {
	cutoff := s.now().Add(-s.cfg.ResultTTL)
	expired, err := s.repo.ListFinishedBefore(ctx, cutoff, 200)
	if err != nil {
		s.logger.Sugar().Warnw("export cleanup listing failed", "error", err)
		return
	}
	for _, job := range expired {
		if job.ResultURL == nil {
			continue
		}
		token := extractToken(*job.ResultURL)
		if token == "" {
			continue
		}
		signed, err := s.files.ParseToken(token, true)
		if err != nil {
			continue
		}
		if err := s.files.Delete(signed.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Sugar().Warnw("export cleanup delete failed", "job_id", job.ID, "error", err)
		}
	}
	if _, err := s.files.Cleanup(s.cfg.ResultTTL); err != nil {
		s.logger.Sugar().Warnw("export filesystem cleanup failed", "error", err)
	}
}

func extractToken(url string) string {
	idx := strings.LastIndex(url, "/")
	if idx < 0 {
		return url
	}
	return url[idx+1:]
}

// ExportWorker runs queued export jobs.
type ExportWorker struct {
	repo    exportJobStore
	files   exportFiles
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewExportWorker constructs the worker used as the queue handler.
func NewExportWorker(repo exportJobStore, files exportFiles, metrics *MetricsService, logger *zap.Logger) *ExportWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportWorker{repo: repo, files: files, metrics: metrics, logger: logger, now: time.Now}
}

// Handle processes one attempt. A failed attempt leaves the job QUEUED for the
// queue to retry; Fail settles it once retries run out.
func (w *ExportWorker) Handle(ctx context.Context, job jobs.Job) error {
	record, err := w.repo.GetByID(ctx, job.ID)
	if err != nil {
		return err
	}
	if record.Status == models.ExportStatusFinished || record.Status == models.ExportStatusFailed {
		return nil
	}

	processing := models.ExportStatusProcessing
	progress := 10
	if err := w.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{Status: &processing, Progress: &progress}); err != nil {
		return err
	}

	result, err := w.files.Generate(ctx, record)
	if err != nil {
		queued := models.ExportStatusQueued
		reset := 0
		msg := err.Error()
		if updateErr := w.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
			Status:       &queued,
			Progress:     &reset,
			ErrorMessage: &msg,
		}); updateErr != nil {
			w.logger.Sugar().Warnw("failed to requeue export job", "job_id", job.ID, "error", updateErr)
		}
		w.logger.Warn("export attempt failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt+1), zap.Error(err))
		return err
	}

	finished := models.ExportStatusFinished
	progress = 100
	now := w.now().UTC()
	url := result.URL
	if err := w.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
		Status:     &finished,
		Progress:   &progress,
		ResultURL:  &url,
		FinishedAt: &now,
	}); err != nil {
		return err
	}
	w.metrics.RecordExportJob(models.ExportStatusFinished)
	w.logger.Info("export finished", zap.String("job_id", job.ID), zap.Int("rows", result.Rows))
	return nil
}

// Fail marks a job FAILED after its last attempt.
func (w *ExportWorker) Fail(ctx context.Context, job jobs.Job, cause error) {
	failed := models.ExportStatusFailed
	progress := 100
	now := w.now().UTC()
	msg := "export failed"
	if cause != nil {
		msg = cause.Error()
	}
	if err := w.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
		Status:       &failed,
		Progress:     &progress,
		ErrorMessage: &msg,
		FinishedAt:   &now,
	}); err != nil {
		w.logger.Sugar().Warnw("failed to mark export job failed", "job_id", job.ID, "error", err)
		return
	}
	w.metrics.RecordExportJob(models.ExportStatusFailed)
}
