package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lessonplan-api/internal/models"
)

const tutorLessonPlanColumns = `id, user_id, student_id, first_name, last_name, date_of_lesson, time_of_lesson, topic, objectives, outcomes,
        resources, homework, evaluation, notes, lesson_structure, subject, exam_board, created_at, updated_at`

// TutorLessonPlanRepository persists private tutoring plans.
type TutorLessonPlanRepository struct {
	db *sqlx.DB
}

// NewTutorLessonPlanRepository constructs a TutorLessonPlanRepository.
func NewTutorLessonPlanRepository(db *sqlx.DB) *TutorLessonPlanRepository {
	return &TutorLessonPlanRepository{db: db}
}

// ListByUser returns every tutor plan owned by userID ordered by lesson date and time.
func (r *TutorLessonPlanRepository) ListByUser(ctx context.Context, userID string) ([]models.TutorLessonPlan, error) {
	query := `SELECT ` + tutorLessonPlanColumns + ` FROM tutor_lesson_plans WHERE user_id = $1 ORDER BY date_of_lesson ASC, time_of_lesson ASC`
	var plans []models.TutorLessonPlan
	if err := r.db.SelectContext(ctx, &plans, query, userID); err != nil {
		return nil, fmt.Errorf("list tutor lesson plans: %w", err)
	}
	return plans, nil
}

// FindByID fetches a tutor plan owned by userID.
func (r *TutorLessonPlanRepository) FindByID(ctx context.Context, userID, id string) (*models.TutorLessonPlan, error) {
	query := `SELECT ` + tutorLessonPlanColumns + ` FROM tutor_lesson_plans WHERE id = $1 AND user_id = $2`
	var plan models.TutorLessonPlan
	if err := r.db.GetContext(ctx, &plan, query, id, userID); err != nil {
		return nil, err
	}
	return &plan, nil
}

// CountByStudent reports how many plans reference a tutor student profile.
func (r *TutorLessonPlanRepository) CountByStudent(ctx context.Context, userID, studentID string) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM tutor_lesson_plans WHERE user_id = $1 AND student_id = $2`, userID, studentID); err != nil {
		return 0, fmt.Errorf("count tutor lesson plans: %w", err)
	}
	return total, nil
}

// Create inserts a new tutor plan.
func (r *TutorLessonPlanRepository) Create(ctx context.Context, plan *models.TutorLessonPlan) error {
	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = now
	}
	plan.UpdatedAt = now
	const query = `INSERT INTO tutor_lesson_plans (id, user_id, student_id, first_name, last_name, date_of_lesson, time_of_lesson, topic, objectives, outcomes, resources, homework, evaluation, notes, lesson_structure, subject, exam_board, created_at, updated_at)
        VALUES (:id, :user_id, :student_id, :first_name, :last_name, :date_of_lesson, :time_of_lesson, :topic, :objectives, :outcomes, :resources, :homework, :evaluation, :notes, :lesson_structure, :subject, :exam_board, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, plan); err != nil {
		return fmt.Errorf("create tutor lesson plan: %w", err)
	}
	return nil
}

// Update overwrites the editable fields of a tutor plan owned by plan.UserID.
func (r *TutorLessonPlanRepository) Update(ctx context.Context, plan *models.TutorLessonPlan) error {
	plan.UpdatedAt = time.Now().UTC()
	const query = `UPDATE tutor_lesson_plans SET student_id = :student_id, first_name = :first_name, last_name = :last_name,
        date_of_lesson = :date_of_lesson, time_of_lesson = :time_of_lesson, topic = :topic, objectives = :objectives, outcomes = :outcomes,
        resources = :resources, homework = :homework, evaluation = :evaluation, notes = :notes, lesson_structure = :lesson_structure,
        subject = :subject, exam_board = :exam_board, updated_at = :updated_at
        WHERE id = :id AND user_id = :user_id`
	res, err := r.db.NamedExecContext(ctx, query, plan)
	if err != nil {
		return fmt.Errorf("update tutor lesson plan: %w", err)
	}
	return expectAffected(res, "update tutor lesson plan")
}

// Delete removes a tutor plan owned by userID.
func (r *TutorLessonPlanRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tutor_lesson_plans WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete tutor lesson plan: %w", err)
	}
	return expectAffected(res, "delete tutor lesson plan")
}
