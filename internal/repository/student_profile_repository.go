package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lessonplan-api/internal/models"
)

const teacherProfileColumns = `student_id, user_id, first_name, last_name, class_name, goals, interests, strengths, weaknesses,
        special_educational_needs, learning_preferences, notes, created_at, updated_at`

const tutorProfileColumns = `student_id, user_id, first_name, last_name, level, goals, interests, strengths, weaknesses,
        sen, learning_preferences, notes, created_at, updated_at`

// TeacherProfileRepository persists classroom student profiles.
type TeacherProfileRepository struct {
	db *sqlx.DB
}

// NewTeacherProfileRepository constructs a TeacherProfileRepository.
func NewTeacherProfileRepository(db *sqlx.DB) *TeacherProfileRepository {
	return &TeacherProfileRepository{db: db}
}

// ListByUser returns every profile owned by userID ordered by name.
func (r *TeacherProfileRepository) ListByUser(ctx context.Context, userID string) ([]models.StudentProfileTeacher, error) {
	query := `SELECT ` + teacherProfileColumns + ` FROM teacher_student_profiles WHERE user_id = $1 ORDER BY last_name ASC, first_name ASC`
	var profiles []models.StudentProfileTeacher
	if err := r.db.SelectContext(ctx, &profiles, query, userID); err != nil {
		return nil, fmt.Errorf("list teacher student profiles: %w", err)
	}
	return profiles, nil
}

// FindByID fetches a profile owned by userID.
func (r *TeacherProfileRepository) FindByID(ctx context.Context, userID, id string) (*models.StudentProfileTeacher, error) {
	query := `SELECT ` + teacherProfileColumns + ` FROM teacher_student_profiles WHERE student_id = $1 AND user_id = $2`
	var profile models.StudentProfileTeacher
	if err := r.db.GetContext(ctx, &profile, query, id, userID); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Create inserts a new profile.
func (r *TeacherProfileRepository) Create(ctx context.Context, profile *models.StudentProfileTeacher) error {
	if profile.StudentID == "" {
		profile.StudentID = uuid.NewString()
	}
	now := time.Now().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now
	const query = `INSERT INTO teacher_student_profiles (student_id, user_id, first_name, last_name, class_name, goals, interests, strengths, weaknesses, special_educational_needs, learning_preferences, notes, created_at, updated_at)
        VALUES (:student_id, :user_id, :first_name, :last_name, :class_name, :goals, :interests, :strengths, :weaknesses, :special_educational_needs, :learning_preferences, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, profile); err != nil {
		return fmt.Errorf("create teacher student profile: %w", err)
	}
	return nil
}

// Update overwrites a profile owned by profile.UserID.
func (r *TeacherProfileRepository) Update(ctx context.Context, profile *models.StudentProfileTeacher) error {
	profile.UpdatedAt = time.Now().UTC()
	const query = `UPDATE teacher_student_profiles SET first_name = :first_name, last_name = :last_name, class_name = :class_name, goals = :goals,
        interests = :interests, strengths = :strengths, weaknesses = :weaknesses, special_educational_needs = :special_educational_needs,
        learning_preferences = :learning_preferences, notes = :notes, updated_at = :updated_at
        WHERE student_id = :student_id AND user_id = :user_id`
	res, err := r.db.NamedExecContext(ctx, query, profile)
	if err != nil {
		return fmt.Errorf("update teacher student profile: %w", err)
	}
	return expectAffected(res, "update teacher student profile")
}

// Delete removes a profile and its class memberships in one transaction.
func (r *TeacherProfileRepository) Delete(ctx context.Context, userID, id string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete teacher student profile: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM class_students WHERE student_id = $1`, id); err != nil {
		return fmt.Errorf("delete class memberships: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM teacher_student_profiles WHERE student_id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete teacher student profile: %w", err)
	}
	if err = expectAffected(res, "delete teacher student profile"); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete teacher student profile: %w", err)
	}
	return nil
}

// TutorProfileRepository persists private tutoring student profiles.
type TutorProfileRepository struct {
	db *sqlx.DB
}

// NewTutorProfileRepository constructs a TutorProfileRepository.
func NewTutorProfileRepository(db *sqlx.DB) *TutorProfileRepository {
	return &TutorProfileRepository{db: db}
}

// ListByUser returns every tutor profile owned by userID ordered by name.
func (r *TutorProfileRepository) ListByUser(ctx context.Context, userID string) ([]models.StudentProfileTutor, error) {
	query := `SELECT ` + tutorProfileColumns + ` FROM tutor_student_profiles WHERE user_id = $1 ORDER BY last_name ASC, first_name ASC`
	var profiles []models.StudentProfileTutor
	if err := r.db.SelectContext(ctx, &profiles, query, userID); err != nil {
		return nil, fmt.Errorf("list tutor student profiles: %w", err)
	}
	return profiles, nil
}

// FindByID fetches a tutor profile owned by userID.
func (r *TutorProfileRepository) FindByID(ctx context.Context, userID, id string) (*models.StudentProfileTutor, error) {
	query := `SELECT ` + tutorProfileColumns + ` FROM tutor_student_profiles WHERE student_id = $1 AND user_id = $2`
	var profile models.StudentProfileTutor
	if err := r.db.GetContext(ctx, &profile, query, id, userID); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Create inserts a new tutor profile.
func (r *TutorProfileRepository) Create(ctx context.Context, profile *models.StudentProfileTutor) error {
	if profile.StudentID == "" {
		profile.StudentID = uuid.NewString()
	}
	now := time.Now().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now
	const query = `INSERT INTO tutor_student_profiles (student_id, user_id, first_name, last_name, level, goals, interests, strengths, weaknesses, sen, learning_preferences, notes, created_at, updated_at)
        VALUES (:student_id, :user_id, :first_name, :last_name, :level, :goals, :interests, :strengths, :weaknesses, :sen, :learning_preferences, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, profile); err != nil {
		return fmt.Errorf("create tutor student profile: %w", err)
	}
	return nil
}

// Update overwrites a tutor profile owned by profile.UserID and copies its
// name onto the lesson plans that reference it, in one transaction.
func (r *TutorProfileRepository) Update(ctx context.Context, profile *models.StudentProfileTutor) (err error) {
	profile.UpdatedAt = time.Now().UTC()
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update tutor student profile: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `UPDATE tutor_student_profiles SET first_name = :first_name, last_name = :last_name, level = :level, goals = :goals,
        interests = :interests, strengths = :strengths, weaknesses = :weaknesses, sen = :sen,
        learning_preferences = :learning_preferences, notes = :notes, updated_at = :updated_at
        WHERE student_id = :student_id AND user_id = :user_id`
	res, err := tx.NamedExecContext(ctx, query, profile)
	if err != nil {
		return fmt.Errorf("update tutor student profile: %w", err)
	}
	if err = expectAffected(res, "update tutor student profile"); err != nil {
		return err
	}
	const syncNames = `UPDATE tutor_lesson_plans SET first_name = $3, last_name = $4, updated_at = $5
        WHERE user_id = $1 AND student_id = $2 AND (first_name <> $3 OR last_name <> $4)`
	if _, err = tx.ExecContext(ctx, syncNames, profile.UserID, profile.StudentID, profile.FirstName, profile.LastName, profile.UpdatedAt); err != nil {
		return fmt.Errorf("sync tutor lesson plan names: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit update tutor student profile: %w", err)
	}
	return nil
}

// Delete removes a tutor profile owned by userID.
func (r *TutorProfileRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tutor_student_profiles WHERE student_id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete tutor student profile: %w", err)
	}
	return expectAffected(res, "delete tutor student profile")
}
