package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lessonplan-api/internal/models"
)

func TestPreferenceRepositoryGetAndUpsert(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewPreferenceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT user_id, mode, updated_at FROM user_preferences WHERE user_id = $1")).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "mode", "updated_at"}).AddRow("user-1", "tutor", time.Now()))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO user_preferences (user_id, mode, updated_at)")).
		WithArgs("user-1", models.ModeDetailed, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	pref, err := repo.Get(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.ModeTutor, pref.Mode)

	require.NoError(t, repo.Upsert(context.Background(), &models.UserPreference{UserID: "user-1", Mode: models.ModeDetailed}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_logs")).
		WithArgs(anyArgs(9)...).
		WillReturnResult(sqlmock.NewResult(1, 1))

	userID := "user-1"
	entry := &models.AuditLog{UserID: &userID, Action: models.AuditActionCreate, Resource: "lesson_plans"}
	require.NoError(t, repo.Create(context.Background(), entry))
	assert.NotEmpty(t, entry.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
