package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lessonplan-api/internal/models"
)

func newLessonRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func anyArgs(n int) []driver.Value {
	args := make([]driver.Value, n)
	for i := range args {
		args[i] = sqlmock.AnyArg()
	}
	return args
}

var lessonPlanRowColumns = []string{"id", "user_id", "class", "date_of_lesson", "time_of_lesson", "topic", "objectives", "outcomes", "resources",
	"homework", "evaluation", "notes", "lesson_structure", "exam_board", "subject", "year_group", "created_at", "updated_at"}

func TestLessonPlanRepositoryListByUser(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewLessonPlanRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(lessonPlanRowColumns).
		AddRow("lp-1", "user-1", "10B", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), "09:00", "Cells", "", "",
			[]byte(`[{"title":"Slides","url":"https://example.com/slides"}]`), "", "", "",
			[]byte(`[{"stage":"Starter","duration":"10"}]`), "AQA", "Biology", "Year 10", now, now)
	mock.ExpectQuery(`SELECT id, user_id, class, .* FROM lesson_plans WHERE user_id = \$1 ORDER BY date_of_lesson ASC, time_of_lesson ASC`).
		WithArgs("user-1").
		WillReturnRows(rows)

	plans, err := repo.ListByUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, "2024-03-01", plans[0].DateOfLesson.String())
	require.Len(t, plans[0].Resources, 1)
	assert.Equal(t, "https://example.com/slides", plans[0].Resources[0].URL)
	assert.Equal(t, "Starter", plans[0].LessonStructure[0].Stage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonPlanRepositoryFindByIDScopesToOwner(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewLessonPlanRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM lesson_plans WHERE id = $1 AND user_id = $2")).
		WithArgs("lp-1", "user-2").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "user-2", "lp-1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonPlanRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewLessonPlanRepository(db)

	mock.ExpectExec("INSERT INTO lesson_plans").
		WithArgs(anyArgs(18)...).
		WillReturnResult(sqlmock.NewResult(1, 1))

	date, _ := models.ParseDate("2024-03-01")
	plan := &models.LessonPlan{UserID: "user-1", Class: "10B", DateOfLesson: date, Topic: "Cells"}
	require.NoError(t, repo.Create(context.Background(), plan))
	assert.NotEmpty(t, plan.ID)
	assert.False(t, plan.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonPlanRepositoryUpdateMissingReturnsNoRows(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewLessonPlanRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE lesson_plans SET")).
		WithArgs(anyArgs(17)...).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.LessonPlan{ID: "lp-1", UserID: "user-1"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonPlanRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewLessonPlanRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM lesson_plans WHERE id = $1 AND user_id = $2")).
		WithArgs("lp-1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "user-1", "lp-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTutorLessonPlanRepositoryCreateAndUpdate(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewTutorLessonPlanRepository(db)

	mock.ExpectExec("INSERT INTO tutor_lesson_plans").
		WithArgs(anyArgs(19)...).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE tutor_lesson_plans SET student_id")).
		WithArgs(anyArgs(18)...).
		WillReturnResult(sqlmock.NewResult(0, 1))

	plan := &models.TutorLessonPlan{UserID: "user-1", StudentID: "stu-1", Topic: "Algebra"}
	require.NoError(t, repo.Create(context.Background(), plan))
	require.NoError(t, repo.Update(context.Background(), plan))
	assert.NoError(t, mock.ExpectationsWereMet())
}
