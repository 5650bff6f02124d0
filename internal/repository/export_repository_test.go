package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lessonplan-api/internal/models"
)

var exportJobRowColumns = []string{"id", "kind", "params", "status", "progress", "result_url", "created_by", "created_at", "finished_at", "error_message"}

func TestExportRepositoryCreateAndGet(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewExportRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO export_jobs")).
		WithArgs(sqlmock.AnyArg(), "lesson_plans", sqlmock.AnyArg(), "QUEUED", 0, nil, "user-1", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	job := &models.ExportJob{
		Kind:      models.ExportKindLessonPlans,
		Params:    models.ExportJobParams{Format: models.ExportFormatCSV, Class: "10B"},
		CreatedBy: "user-1",
	}
	require.NoError(t, repo.Create(context.Background(), job))

	rows := sqlmock.NewRows(exportJobRowColumns).
		AddRow(job.ID, "lesson_plans", `{"format":"csv","class":"10B"}`, "QUEUED", 0, nil, "user-1", time.Now(), nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, kind, params, status, progress, result_url, created_by, created_at, finished_at, error_message FROM export_jobs WHERE id = $1")).
		WithArgs(job.ID).
		WillReturnRows(rows)

	fetched, err := repo.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	require.Equal(t, job.ID, fetched.ID)
	require.Equal(t, "10B", fetched.Params.Class)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExportRepositoryUpdate(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewExportRepository(db)

	now := time.Now()
	status := models.ExportStatusFinished
	progress := 100
	result := "/api/v1/exports/download/token"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE export_jobs SET status = $1, progress = $2, result_url = $3, finished_at = $4 WHERE id = $5")).
		WithArgs(status, progress, result, now, "job-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), "job-1", UpdateExportJobParams{
		Status:     &status,
		Progress:   &progress,
		ResultURL:  &result,
		FinishedAt: &now,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExportRepositoryListFinishedBefore(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewExportRepository(db)

	cutoff := time.Now()
	rows := sqlmock.NewRows(exportJobRowColumns).
		AddRow("job-1", "tutor_lesson_plans", `{"format":"pdf"}`, "FINISHED", 100, "/x", "user-1", cutoff.Add(-time.Hour), cutoff.Add(-time.Minute), nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM export_jobs WHERE status = 'FINISHED' AND finished_at IS NOT NULL AND finished_at < $1 ORDER BY finished_at ASC LIMIT $2")).
		WithArgs(cutoff, 50).
		WillReturnRows(rows)

	jobs, err := repo.ListFinishedBefore(context.Background(), cutoff, 0)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.Equal(t, models.ExportFormatPDF, jobs[0].Params.Format)
	require.NoError(t, mock.ExpectationsWereMet())
}
