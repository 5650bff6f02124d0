package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lessonplan-api/internal/models"
)

// ClassRepository manages classes together with their teacher and student memberships.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs a new class repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// ListForTeacher returns the classes teacherID belongs to with their member counts.
func (r *ClassRepository) ListForTeacher(ctx context.Context, teacherID string) ([]models.ClassSummary, error) {
	const query = `SELECT c.class_id, c.class_name, c.year_group, c.created_by, c.created_at, c.updated_at,
        (SELECT COUNT(*) FROM class_students cs WHERE cs.class_id = c.class_id) AS student_count
        FROM classes c
        JOIN teacher_classes tc ON tc.class_id = c.class_id
        WHERE tc.teacher_id = $1
        ORDER BY c.class_name ASC`
	var classes []models.ClassSummary
	if err := r.db.SelectContext(ctx, &classes, query, teacherID); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return classes, nil
}

// FindForTeacher returns a class only when teacherID is a member of it.
func (r *ClassRepository) FindForTeacher(ctx context.Context, teacherID, classID string) (*models.Class, error) {
	const query = `SELECT c.class_id, c.class_name, c.year_group, c.created_by, c.created_at, c.updated_at
        FROM classes c
        JOIN teacher_classes tc ON tc.class_id = c.class_id
        WHERE c.class_id = $1 AND tc.teacher_id = $2`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, classID, teacherID); err != nil {
		return nil, err
	}
	return &class, nil
}

// ListStudents returns the profiles enrolled in a class ordered by name.
func (r *ClassRepository) ListStudents(ctx context.Context, classID string) ([]models.StudentProfileTeacher, error) {
	const query = `SELECT p.student_id, p.user_id, p.first_name, p.last_name, p.class_name, p.goals, p.interests, p.strengths, p.weaknesses,
        p.special_educational_needs, p.learning_preferences, p.notes, p.created_at, p.updated_at
        FROM class_students cs
        JOIN teacher_student_profiles p ON p.student_id = cs.student_id
        WHERE cs.class_id = $1
        ORDER BY p.last_name ASC, p.first_name ASC`
	var students []models.StudentProfileTeacher
	if err := r.db.SelectContext(ctx, &students, query, classID); err != nil {
		return nil, fmt.Errorf("list class students: %w", err)
	}
	return students, nil
}

// Create inserts a class and links its creator as a member in one transaction.
func (r *ClassRepository) Create(ctx context.Context, class *models.Class) (err error) {
	if class.ClassID == "" {
		class.ClassID = uuid.NewString()
	}
	now := time.Now().UTC()
	if class.CreatedAt.IsZero() {
		class.CreatedAt = now
	}
	class.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create class: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insertClass = `INSERT INTO classes (class_id, class_name, year_group, created_by, created_at, updated_at)
        VALUES (:class_id, :class_name, :year_group, :created_by, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, insertClass, class); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `INSERT INTO teacher_classes (teacher_id, class_id, created_at) VALUES ($1, $2, $3)`, class.CreatedBy, class.ClassID, now); err != nil {
		return fmt.Errorf("link class creator: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create class: %w", err)
	}
	return nil
}

// Update renames a class.
func (r *ClassRepository) Update(ctx context.Context, class *models.Class) error {
	class.UpdatedAt = time.Now().UTC()
	const query = `UPDATE classes SET class_name = :class_name, year_group = :year_group, updated_at = :updated_at WHERE class_id = :class_id`
	res, err := r.db.NamedExecContext(ctx, query, class)
	if err != nil {
		return fmt.Errorf("update class: %w", err)
	}
	return expectAffected(res, "update class")
}

// Delete removes a class; memberships cascade.
func (r *ClassRepository) Delete(ctx context.Context, classID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM classes WHERE class_id = $1`, classID)
	if err != nil {
		return fmt.Errorf("delete class: %w", err)
	}
	return expectAffected(res, "delete class")
}

// AddStudent enrols a profile in a class. Adding an existing member is a no-op.
func (r *ClassRepository) AddStudent(ctx context.Context, classID, studentID string) error {
	const query = `INSERT INTO class_students (class_id, student_id, created_at) VALUES ($1, $2, $3) ON CONFLICT (class_id, student_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, classID, studentID, time.Now().UTC()); err != nil {
		return fmt.Errorf("add class student: %w", err)
	}
	return nil
}

// RemoveStudent drops a profile from a class.
func (r *ClassRepository) RemoveStudent(ctx context.Context, classID, studentID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM class_students WHERE class_id = $1 AND student_id = $2`, classID, studentID)
	if err != nil {
		return fmt.Errorf("remove class student: %w", err)
	}
	return expectAffected(res, "remove class student")
}
