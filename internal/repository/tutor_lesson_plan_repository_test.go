package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lessonplan-api/internal/models"
)

var tutorPlanRowColumns = []string{"id", "user_id", "student_id", "first_name", "last_name", "date_of_lesson", "time_of_lesson", "topic", "objectives", "outcomes",
	"resources", "homework", "evaluation", "notes", "lesson_structure", "subject", "exam_board", "created_at", "updated_at"}

func TestTutorLessonPlanRepositoryListByUser(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewTutorLessonPlanRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(tutorPlanRowColumns).
		AddRow("tp-1", "tutor-1", "st-1", "Ada", "Lovelace", time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC), "16:00", "Quadratics", "", "",
			[]byte(`[]`), "", "", "", []byte(`[{"stage":"Recap"}]`), "Maths", "Edexcel", now, now)
	mock.ExpectQuery(`FROM tutor_lesson_plans WHERE user_id = \$1 ORDER BY date_of_lesson ASC`).
		WithArgs("tutor-1").
		WillReturnRows(rows)

	plans, err := repo.ListByUser(context.Background(), "tutor-1")
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, "Ada", plans[0].FirstName)
	assert.Equal(t, "2024-05-10", plans[0].DateOfLesson.String())
	assert.Equal(t, "Recap", plans[0].LessonStructure[0].Stage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTutorLessonPlanRepositoryCountByStudent(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewTutorLessonPlanRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM tutor_lesson_plans WHERE user_id = $1 AND student_id = $2")).
		WithArgs("tutor-1", "st-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	total, err := repo.CountByStudent(context.Background(), "tutor-1", "st-1")
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTutorLessonPlanRepositoryUpdateMissing(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewTutorLessonPlanRepository(db)

	mock.ExpectExec("UPDATE tutor_lesson_plans SET student_id").
		WithArgs(anyArgs(18)...).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.TutorLessonPlan{ID: "tp-1", UserID: "other"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTutorLessonPlanRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewTutorLessonPlanRepository(db)

	mock.ExpectExec("INSERT INTO tutor_lesson_plans").
		WithArgs(anyArgs(19)...).
		WillReturnResult(sqlmock.NewResult(1, 1))

	plan := &models.TutorLessonPlan{UserID: "tutor-1", StudentID: "st-1", Topic: "Quadratics"}
	require.NoError(t, repo.Create(context.Background(), plan))
	assert.NotEmpty(t, plan.ID)
	assert.False(t, plan.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepositoryCreateWithValues(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	mock.ExpectExec("INSERT INTO audit_logs").
		WithArgs(anyArgs(9)...).
		WillReturnResult(sqlmock.NewResult(1, 1))

	userID := "teacher-1"
	entry := &models.AuditLog{UserID: &userID, Action: models.AuditActionCreate, Resource: "lesson_plan", NewValues: []byte(`{}`)}
	require.NoError(t, repo.Create(context.Background(), entry))
	assert.NotEmpty(t, entry.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
