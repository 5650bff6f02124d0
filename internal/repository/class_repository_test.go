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

func TestClassRepositoryCreateLinksCreator(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO classes").
		WithArgs(anyArgs(6)...).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO teacher_classes (teacher_id, class_id, created_at) VALUES ($1, $2, $3)")).
		WithArgs("teacher-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	class := &models.Class{ClassName: "10B", CreatedBy: "teacher-1"}
	require.NoError(t, repo.Create(context.Background(), class))
	assert.NotEmpty(t, class.ClassID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryListForTeacher(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("JOIN teacher_classes tc ON tc.class_id = c.class_id WHERE tc.teacher_id = $1")).
		WithArgs("teacher-1").
		WillReturnRows(sqlmock.NewRows([]string{"class_id", "class_name", "year_group", "created_by", "created_at", "updated_at", "student_count"}).
			AddRow("class-1", "10B", "Year 10", "teacher-1", now, now, 28))

	classes, err := repo.ListForTeacher(context.Background(), "teacher-1")
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, 28, classes[0].StudentCount)
	assert.Equal(t, "10B", classes[0].ClassName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryFindForTeacherNonMember(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE c.class_id = $1 AND tc.teacher_id = $2")).
		WithArgs("class-1", "teacher-2").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindForTeacher(context.Background(), "teacher-2", "class-1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryMembership(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO class_students (class_id, student_id, created_at) VALUES ($1, $2, $3) ON CONFLICT (class_id, student_id) DO NOTHING")).
		WithArgs("class-1", "stu-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM class_students WHERE class_id = $1 AND student_id = $2")).
		WithArgs("class-1", "stu-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.AddStudent(context.Background(), "class-1", "stu-1"))
	err := repo.RemoveStudent(context.Background(), "class-1", "stu-1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
