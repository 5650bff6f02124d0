package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/lessonplan-api/internal/models"
	"github.com/noah-isme/lessonplan-api/internal/repository"
	appErrors "github.com/noah-isme/lessonplan-api/pkg/errors"
	"github.com/noah-isme/lessonplan-api/pkg/jobs"
	"github.com/noah-isme/lessonplan-api/pkg/storage"
)

type exportJobRepoStub struct {
	mu   sync.Mutex
	jobs map[string]*models.ExportJob
	seq  int
}

func newExportJobRepoStub() *exportJobRepoStub {
	return &exportJobRepoStub{jobs: map[string]*models.ExportJob{}}
}

func (s *exportJobRepoStub) Create(ctx context.Context, job *models.ExportJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	job.ID = "job" + padCount(s.seq)
	job.CreatedAt = time.Now()
	cp := *job
	s.jobs[job.ID] = &cp
	return nil
}

func (s *exportJobRepoStub) GetByID(ctx context.Context, id string) (*models.ExportJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *job
	return &cp, nil
}

func (s *exportJobRepoStub) Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Progress != nil {
		job.Progress = *params.Progress
	}
	if params.ResultURL != nil {
		url := *params.ResultURL
		job.ResultURL = &url
	}
	if params.ErrorMessage != nil {
		msg := *params.ErrorMessage
		job.ErrorMessage = &msg
	}
	if params.FinishedAt != nil {
		at := *params.FinishedAt
		job.FinishedAt = &at
	}
	return nil
}

func (s *exportJobRepoStub) ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ExportJob
	for _, job := range s.jobs {
		if job.Status == models.ExportStatusQueued {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (s *exportJobRepoStub) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ExportJob
	for _, job := range s.jobs {
		if job.Status == models.ExportStatusFinished && job.FinishedAt != nil && job.FinishedAt.Before(cutoff) {
			out = append(out, *job)
		}
	}
	return out, nil
}

type dispatcherStub struct {
	jobs []jobs.Job
	err  error
}

func (d *dispatcherStub) Enqueue(job jobs.Job) error {
	if d.err != nil {
		return d.err
	}
	d.jobs = append(d.jobs, job)
	return nil
}

type exportFixture struct {
	repo    *exportJobRepoStub
	queue   *dispatcherStub
	service *ExportService
	worker  *ExportWorker
	metrics *MetricsService
}

func newExportFixture(t *testing.T) *exportFixture {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)

	teacherRepo := newLessonPlanRepoStub(
		teacherPlan(t, "p1", "u1", "2024-05-10", "Fractions", "7A"),
		teacherPlan(t, "p2", "u1", "2024-05-12", "Decimals", "7B"),
		teacherPlan(t, "p3", "u2", "2024-05-12", "Secret", "7B"),
	)
	tutorRepo := newTutorPlanRepoStub(tutorPlan(t, "tp1", "u1", "s1", "2024-05-11", "Forces"))
	generator := NewExportGenerator(teacherRepo, tutorRepo, store, signer, ExportConfig{APIPrefix: "/api/v1"}, zap.NewNop(), nil, nil)

	repo := newExportJobRepoStub()
	queue := &dispatcherStub{}
	metrics := NewMetricsService()
	return &exportFixture{
		repo:    repo,
		queue:   queue,
		metrics: metrics,
		service: NewExportService(repo, queue, generator, nil, zap.NewNop(), ExportServiceConfig{ResultTTL: time.Hour}),
		worker:  NewExportWorker(repo, generator, metrics, zap.NewNop()),
	}
}

func TestExportServiceCreateJobValidates(t *testing.T) {
	f := newExportFixture(t)
	ctx := context.Background()

	_, err := f.service.CreateJob(ctx, "u1", ExportRequest{Kind: "grades", Format: models.ExportFormatCSV})
	assertAppError(t, err, appErrors.ErrValidation.Code)

	_, err = f.service.CreateJob(ctx, "u1", ExportRequest{Kind: models.ExportKindLessonPlans, Format: "xlsx"})
	assertAppError(t, err, appErrors.ErrValidation.Code)

	_, err = f.service.CreateJob(ctx, "u1", ExportRequest{Kind: models.ExportKindLessonPlans, Format: models.ExportFormatCSV, StudentID: "s1"})
	assertAppError(t, err, appErrors.ErrValidation.Code)
	assert.Empty(t, f.queue.jobs)
}

func TestExportServiceCSVLifecycle(t *testing.T) {
	f := newExportFixture(t)
	ctx := context.Background()

	job, err := f.service.CreateJob(ctx, "u1", ExportRequest{Kind: models.ExportKindLessonPlans, Format: models.ExportFormatCSV})
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusQueued, job.Status)
	require.Len(t, f.queue.jobs, 1)

	_, err = f.service.GetStatus(ctx, "u2", job.ID)
	assertAppError(t, err, appErrors.ErrNotFound.Code)

	require.NoError(t, f.worker.Handle(ctx, f.queue.jobs[0]))

	status, err := f.service.GetStatus(ctx, "u1", job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusFinished, status.Status)
	assert.Equal(t, 100, status.Progress)
	require.NotNil(t, status.ResultURL)
	assert.True(t, strings.HasPrefix(*status.ResultURL, "/api/v1/exports/download/"))

	download, err := f.service.ResolveDownload(ctx, extractToken(*status.ResultURL))
	require.NoError(t, err)
	defer download.File.Close()
	assert.Equal(t, "text/csv; charset=utf-8", download.ContentType)
	assert.True(t, strings.HasSuffix(download.Filename, ".csv"))

	body, err := io.ReadAll(download.File)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Fractions")
	assert.Contains(t, string(body), "Decimals")
	assert.NotContains(t, string(body), "Secret")
}

func TestExportServiceTutorPDF(t *testing.T) {
	f := newExportFixture(t)
	ctx := context.Background()

	job, err := f.service.CreateJob(ctx, "u1", ExportRequest{Kind: models.ExportKindTutorLessonPlans, Format: models.ExportFormatPDF, StudentID: "s1"})
	require.NoError(t, err)
	require.NoError(t, f.worker.Handle(ctx, f.queue.jobs[0]))

	status, err := f.service.GetStatus(ctx, "u1", job.ID)
	require.NoError(t, err)
	download, err := f.service.ResolveDownload(ctx, extractToken(*status.ResultURL))
	require.NoError(t, err)
	defer download.File.Close()
	assert.Equal(t, "application/pdf", download.ContentType)
}

func TestExportServiceResolveDownloadRejectsBadTokens(t *testing.T) {
	f := newExportFixture(t)
	ctx := context.Background()

	_, err := f.service.ResolveDownload(ctx, "garbage")
	assertAppError(t, err, appErrors.ErrForbidden.Code)

	job, err := f.service.CreateJob(ctx, "u1", ExportRequest{Kind: models.ExportKindLessonPlans, Format: models.ExportFormatCSV})
	require.NoError(t, err)
	forged, _, err := storage.NewSignedURLSigner("test-secret", time.Hour).Generate(job.ID, "lesson_plans.csv")
	require.NoError(t, err)
	_, err = f.service.ResolveDownload(ctx, forged)
	assertAppError(t, err, appErrors.ErrForbidden.Code)
}

func TestExportServiceEnqueueFailureMarksFailed(t *testing.T) {
	f := newExportFixture(t)
	f.queue.err = errors.New("queue full")

	_, err := f.service.CreateJob(context.Background(), "u1", ExportRequest{Kind: models.ExportKindLessonPlans, Format: models.ExportFormatCSV})
	assertAppError(t, err, appErrors.ErrServiceUnavailable.Code)

	require.Len(t, f.repo.jobs, 1)
	for _, job := range f.repo.jobs {
		assert.Equal(t, models.ExportStatusFailed, job.Status)
	}
}

func TestExportWorkerRetryThenFail(t *testing.T) {
	f := newExportFixture(t)
	ctx := context.Background()

	job, err := f.service.CreateJob(ctx, "u1", ExportRequest{Kind: models.ExportKindLessonPlans, Format: models.ExportFormatCSV})
	require.NoError(t, err)

	// corrupt the stored params so generation fails
	f.repo.jobs[job.ID].Params.From = "not-a-date"
	err = f.worker.Handle(ctx, f.queue.jobs[0])
	require.Error(t, err)

	stored, err := f.repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusQueued, stored.Status)
	require.NotNil(t, stored.ErrorMessage)

	f.worker.Fail(ctx, f.queue.jobs[0], errors.New("gave up"))
	stored, err = f.repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusFailed, stored.Status)
	assert.Equal(t, "gave up", *stored.ErrorMessage)
	assert.NotNil(t, stored.FinishedAt)

	require.NoError(t, f.worker.Handle(ctx, f.queue.jobs[0]))
	stored, _ = f.repo.GetByID(ctx, job.ID)
	assert.Equal(t, models.ExportStatusFailed, stored.Status)
}

func TestExportServiceRecoverAndCleanup(t *testing.T) {
	f := newExportFixture(t)
	ctx := context.Background()

	job, err := f.service.CreateJob(ctx, "u1", ExportRequest{Kind: models.ExportKindLessonPlans, Format: models.ExportFormatCSV})
	require.NoError(t, err)
	f.queue.jobs = nil

	assert.Equal(t, 1, f.service.RecoverPendingJobs(ctx))
	require.Len(t, f.queue.jobs, 1)
	require.NoError(t, f.worker.Handle(ctx, f.queue.jobs[0]))

	past := time.Now().Add(-2 * time.Hour)
	f.repo.jobs[job.ID].FinishedAt = &past
	token := extractToken(*f.repo.jobs[job.ID].ResultURL)

	f.service.CleanupExpired(ctx)
	_, err = f.service.ResolveDownload(ctx, token)
	assertAppError(t, err, appErrors.ErrNotFound.Code)
}
