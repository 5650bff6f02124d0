package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lessonplan-api/internal/models"
)

func TestTeacherProfileRepositoryListByUser(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewTeacherProfileRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"student_id", "user_id", "first_name", "last_name", "class_name", "goals", "interests", "strengths", "weaknesses",
		"special_educational_needs", "learning_preferences", "notes", "created_at", "updated_at"}).
		AddRow("stu-1", "user-1", "Ada", "Lovelace", "10B", "", "", "", "", "", "", "", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM teacher_student_profiles WHERE user_id = $1 ORDER BY last_name ASC, first_name ASC")).
		WithArgs("user-1").
		WillReturnRows(rows)

	profiles, err := repo.ListByUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "Ada Lovelace", profiles[0].FullName())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherProfileRepositoryDeleteRemovesMemberships(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewTeacherProfileRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM class_students WHERE student_id = $1")).
		WithArgs("stu-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM teacher_student_profiles WHERE student_id = $1 AND user_id = $2")).
		WithArgs("stu-1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), "user-1", "stu-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherProfileRepositoryDeleteForeignRollsBack(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewTeacherProfileRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM class_students")).
		WithArgs("stu-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM teacher_student_profiles")).
		WithArgs("stu-1", "intruder").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), "intruder", "stu-1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherProfileRepositoryCreateAndUpdate(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewTeacherProfileRepository(db)

	mock.ExpectExec("INSERT INTO teacher_student_profiles").
		WithArgs(anyArgs(14)...).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE teacher_student_profiles SET").
		WithArgs(anyArgs(13)...).
		WillReturnResult(sqlmock.NewResult(0, 1))

	profile := &models.StudentProfileTeacher{UserID: "user-1", FirstName: "Ada", LastName: "Lovelace"}
	require.NoError(t, repo.Create(context.Background(), profile))
	assert.NotEmpty(t, profile.StudentID)
	require.NoError(t, repo.Update(context.Background(), profile))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTutorProfileRepositoryCRUD(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewTutorProfileRepository(db)

	mock.ExpectExec("INSERT INTO tutor_student_profiles").
		WithArgs(anyArgs(14)...).
		WillReturnResult(sqlmock.NewResult(1, 1))
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM tutor_student_profiles WHERE student_id = $1 AND user_id = $2")).
		WithArgs(sqlmock.AnyArg(), "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"student_id", "user_id", "first_name", "last_name", "level", "goals", "interests", "strengths",
			"weaknesses", "sen", "learning_preferences", "notes", "created_at", "updated_at"}).
			AddRow("stu-9", "user-1", "Alan", "Turing", "GCSE", "", "", "", "", "", "", "", now, now))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM tutor_student_profiles WHERE student_id = $1 AND user_id = $2")).
		WithArgs("stu-9", "user-1").
		WillReturnError(errors.New("fk violation"))

	profile := &models.StudentProfileTutor{UserID: "user-1", FirstName: "Alan", LastName: "Turing", Level: "GCSE"}
	require.NoError(t, repo.Create(context.Background(), profile))

	found, err := repo.FindByID(context.Background(), "user-1", profile.StudentID)
	require.NoError(t, err)
	assert.Equal(t, "GCSE", found.Level)

	err = repo.Delete(context.Background(), "user-1", "stu-9")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTutorProfileRepositoryUpdateCopiesNameToPlans(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewTutorProfileRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE tutor_student_profiles SET").
		WithArgs(anyArgs(13)...).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE tutor_lesson_plans SET first_name = $3, last_name = $4")).
		WithArgs("user-1", "stu-1", "Ada", "Lovelace", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	profile := &models.StudentProfileTutor{StudentID: "stu-1", UserID: "user-1", FirstName: "Ada", LastName: "Lovelace"}
	require.NoError(t, repo.Update(context.Background(), profile))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTutorProfileRepositoryUpdateRollsBackWhenPlanSyncFails(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewTutorProfileRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE tutor_student_profiles SET").
		WithArgs(anyArgs(13)...).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE tutor_lesson_plans SET first_name = $3, last_name = $4")).
		WithArgs("user-1", "stu-1", "Ada", "Lovelace", sqlmock.AnyArg()).
		WillReturnError(errors.New("db down"))
	mock.ExpectRollback()

	profile := &models.StudentProfileTutor{StudentID: "stu-1", UserID: "user-1", FirstName: "Ada", LastName: "Lovelace"}
	err := repo.Update(context.Background(), profile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sync tutor lesson plan names")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTutorProfileRepositoryUpdateForeignRollsBack(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewTutorProfileRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE tutor_student_profiles SET").
		WithArgs(anyArgs(13)...).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Update(context.Background(), &models.StudentProfileTutor{StudentID: "stu-1", UserID: "intruder"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
