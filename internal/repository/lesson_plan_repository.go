package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lessonplan-api/internal/models"
)

const lessonPlanColumns = `id, user_id, class, date_of_lesson, time_of_lesson, topic, objectives, outcomes, resources,
        homework, evaluation, notes, lesson_structure, exam_board, subject, year_group, created_at, updated_at`

// LessonPlanRepository persists classroom lesson plans.
type LessonPlanRepository struct {
	db *sqlx.DB
}

// NewLessonPlanRepository constructs a LessonPlanRepository.
func NewLessonPlanRepository(db *sqlx.DB) *LessonPlanRepository {
	return &LessonPlanRepository{db: db}
}

// ListByUser returns every plan owned by userID ordered by lesson date and time.
func (r *LessonPlanRepository) ListByUser(ctx context.Context, userID string) ([]models.LessonPlan, error) {
	query := `SELECT ` + lessonPlanColumns + ` FROM lesson_plans WHERE user_id = $1 ORDER BY date_of_lesson ASC, time_of_lesson ASC`
	var plans []models.LessonPlan
	if err := r.db.SelectContext(ctx, &plans, query, userID); err != nil {
		return nil, fmt.Errorf("list lesson plans: %w", err)
	}
	return plans, nil
}

// FindByID fetches a plan owned by userID. Missing or foreign plans yield sql.ErrNoRows.
func (r *LessonPlanRepository) FindByID(ctx context.Context, userID, id string) (*models.LessonPlan, error) {
	query := `SELECT ` + lessonPlanColumns + ` FROM lesson_plans WHERE id = $1 AND user_id = $2`
	var plan models.LessonPlan
	if err := r.db.GetContext(ctx, &plan, query, id, userID); err != nil {
		return nil, err
	}
	return &plan, nil
}

// Create inserts a new plan.
func (r *LessonPlanRepository) Create(ctx context.Context, plan *models.LessonPlan) error {
	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = now
	}
	plan.UpdatedAt = now
	const query = `INSERT INTO lesson_plans (id, user_id, class, date_of_lesson, time_of_lesson, topic, objectives, outcomes, resources, homework, evaluation, notes, lesson_structure, exam_board, subject, year_group, created_at, updated_at)
        VALUES (:id, :user_id, :class, :date_of_lesson, :time_of_lesson, :topic, :objectives, :outcomes, :resources, :homework, :evaluation, :notes, :lesson_structure, :exam_board, :subject, :year_group, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, plan); err != nil {
		return fmt.Errorf("create lesson plan: %w", err)
	}
	return nil
}

// Update overwrites the editable fields of a plan owned by plan.UserID.
func (r *LessonPlanRepository) Update(ctx context.Context, plan *models.LessonPlan) error {
	plan.UpdatedAt = time.Now().UTC()
	const query = `UPDATE lesson_plans SET class = :class, date_of_lesson = :date_of_lesson, time_of_lesson = :time_of_lesson, topic = :topic,
        objectives = :objectives, outcomes = :outcomes, resources = :resources, homework = :homework, evaluation = :evaluation, notes = :notes,
        lesson_structure = :lesson_structure, exam_board = :exam_board, subject = :subject, year_group = :year_group, updated_at = :updated_at
        WHERE id = :id AND user_id = :user_id`
	res, err := r.db.NamedExecContext(ctx, query, plan)
	if err != nil {
		return fmt.Errorf("update lesson plan: %w", err)
	}
	return expectAffected(res, "update lesson plan")
}

// Delete removes a plan owned by userID.
func (r *LessonPlanRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM lesson_plans WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete lesson plan: %w", err)
	}
	return expectAffected(res, "delete lesson plan")
}

// expectAffected maps a statement that touched no rows to sql.ErrNoRows.
func expectAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
