package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lessonplan-api/internal/listing"
	"github.com/noah-isme/lessonplan-api/internal/models"
	appErrors "github.com/noah-isme/lessonplan-api/pkg/errors"
)

type classRepository interface {
	ListForTeacher(ctx context.Context, teacherID string) ([]models.ClassSummary, error)
	FindForTeacher(ctx context.Context, teacherID, classID string) (*models.Class, error)
	ListStudents(ctx context.Context, classID string) ([]models.StudentProfileTeacher, error)
	Create(ctx context.Context, class *models.Class) error
	Update(ctx context.Context, class *models.Class) error
	Delete(ctx context.Context, classID string) error
	AddStudent(ctx context.Context, classID, studentID string) error
	RemoveStudent(ctx context.Context, classID, studentID string) error
}

type teacherProfileFinder interface {
	FindByID(ctx context.Context, userID, id string) (*models.StudentProfileTeacher, error)
}

// ClassRequest is the create and update payload of a class.
type ClassRequest struct {
	ClassName string `json:"class_name" validate:"required"`
	YearGroup string `json:"year_group"`
}

// ClassStudentRequest adds a profile to a class.
type ClassStudentRequest struct {
	StudentID string `json:"student_id" validate:"required"`
}

func (r ClassRequest) trimmed() ClassRequest {
	r.ClassName = strings.TrimSpace(r.ClassName)
	r.YearGroup = strings.TrimSpace(r.YearGroup)
	return r
}

var classSortKeys = listing.SortKeys[models.ClassSummary]{
	"class_name":    func(c models.ClassSummary) string { return c.ClassName },
	"year_group":    func(c models.ClassSummary) string { return c.YearGroup },
	"created_at":    func(c models.ClassSummary) string { return timestampKey(c.CreatedAt) },
	"student_count": func(c models.ClassSummary) string { return padCount(c.StudentCount) },
}

func padCount(n int) string {
	return fmt.Sprintf("%010d", n)
}

// ClassService manages classes and their student rosters.
type ClassService struct {
	repo      classRepository
	profiles  teacherProfileFinder
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ListConfig
}

// NewClassService creates a new class service.
func NewClassService(repo classRepository, profiles teacherProfileFinder, cache *CacheService, validate *validator.Validate, logger *zap.Logger, cfg ListConfig) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{repo: repo, profiles: profiles, cache: cache, validator: validate, logger: logger, cfg: cfg.withDefaults()}
}

// List returns a page of the classes the teacher belongs to.
func (s *ClassService) List(ctx context.Context, teacherID string, filter models.ClassFilter) (*ProfileList[models.ClassSummary], error) {
	classes, hit, err := cachedList(ctx, s.cache, cacheKey(cacheNSClasses, teacherID), func(ctx context.Context) ([]models.ClassSummary, error) {
		return s.repo.ListForTeacher(ctx, teacherID)
	})
	if err != nil {
		return nil, repoError(err, "classes not found", "failed to list classes")
	}
	matched := listing.Search(classes, filter.Search, func(c models.ClassSummary) []string {
		return []string{c.ClassName, c.YearGroup}
	})
	matched = listing.Filter(matched, func(c models.ClassSummary) bool { return listing.Equals(c.YearGroup, filter.YearGroup) })
	sorted := make([]models.ClassSummary, len(matched))
	copy(sorted, matched)
	listing.Sort(sorted, classSortKeys, filter.SortBy, filter.SortOrder, "class_name")
	size := filter.PageSize
	if size <= 0 {
		size = s.cfg.DefaultPageSize
	}
	page, meta := listing.Paginate(sorted, filter.Page, size)
	return &ProfileList[models.ClassSummary]{Items: page, Pagination: meta, CacheHit: hit}, nil
}

// Get returns a class with its members.
func (s *ClassService) Get(ctx context.Context, teacherID, classID string) (*models.ClassWithStudents, error) {
	class, err := s.repo.FindForTeacher(ctx, teacherID, classID)
	if err != nil {
		return nil, repoError(err, "class not found", "failed to load class")
	}
	students, err := s.repo.ListStudents(ctx, classID)
	if err != nil {
		return nil, repoError(err, "class not found", "failed to load class students")
	}
	return &models.ClassWithStudents{Class: *class, Students: nonNil(students)}, nil
}

// Create validates and stores a class owned by the teacher.
func (s *ClassService) Create(ctx context.Context, teacherID string, req ClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req.trimmed()); err != nil {
		return nil, validationError(err, "invalid class payload")
	}
	class := &models.Class{
		ClassName: strings.TrimSpace(req.ClassName),
		YearGroup: strings.TrimSpace(req.YearGroup),
		CreatedBy: teacherID,
	}
	if err := s.repo.Create(ctx, class); err != nil {
		return nil, repoError(err, "class not found", "failed to create class")
	}
	invalidate(ctx, s.cache, cacheNSClasses, teacherID)
	s.logger.Info("class created", zap.String("user_id", teacherID), zap.String("class_id", class.ClassID))
	return class, nil
}

// Update renames a class the teacher belongs to.
func (s *ClassService) Update(ctx context.Context, teacherID, classID string, req ClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req.trimmed()); err != nil {
		return nil, validationError(err, "invalid class payload")
	}
	class, err := s.repo.FindForTeacher(ctx, teacherID, classID)
	if err != nil {
		return nil, repoError(err, "class not found", "failed to load class")
	}
	class.ClassName = strings.TrimSpace(req.ClassName)
	class.YearGroup = strings.TrimSpace(req.YearGroup)
	if err := s.repo.Update(ctx, class); err != nil {
		return nil, repoError(err, "class not found", "failed to update class")
	}
	invalidate(ctx, s.cache, cacheNSClasses, teacherID)
	return class, nil
}

// Delete removes a class the teacher belongs to.
func (s *ClassService) Delete(ctx context.Context, teacherID, classID string) error {
	if _, err := s.repo.FindForTeacher(ctx, teacherID, classID); err != nil {
		return repoError(err, "class not found", "failed to load class")
	}
	if err := s.repo.Delete(ctx, classID); err != nil {
		return repoError(err, "class not found", "failed to delete class")
	}
	invalidate(ctx, s.cache, cacheNSClasses, teacherID)
	return nil
}

// AddStudent enrols one of the teacher's own profiles in the class.
func (s *ClassService) AddStudent(ctx context.Context, teacherID, classID string, req ClassStudentRequest) (*models.ClassWithStudents, error) {
	req.StudentID = strings.TrimSpace(req.StudentID)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid class student payload")
	}
	if _, err := s.repo.FindForTeacher(ctx, teacherID, classID); err != nil {
		return nil, repoError(err, "class not found", "failed to load class")
	}
	if _, err := s.profiles.FindByID(ctx, teacherID, req.StudentID); err != nil {
		if missingRow(err) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "student_id does not match one of your students").WithField("student_id", "unknown student")
		}
		return nil, repoError(err, "student not found", "failed to load student")
	}
	if err := s.repo.AddStudent(ctx, classID, req.StudentID); err != nil {
		return nil, repoError(err, "class not found", "failed to add student to class")
	}
	invalidate(ctx, s.cache, cacheNSClasses, teacherID)
	return s.Get(ctx, teacherID, classID)
}

// RemoveStudent drops a profile from the class.
func (s *ClassService) RemoveStudent(ctx context.Context, teacherID, classID, studentID string) error {
	if _, err := s.repo.FindForTeacher(ctx, teacherID, classID); err != nil {
		return repoError(err, "class not found", "failed to load class")
	}
	if err := s.repo.RemoveStudent(ctx, classID, studentID); err != nil {
		return repoError(err, "student not in class", "failed to remove student from class")
	}
	invalidate(ctx, s.cache, cacheNSClasses, teacherID)
	return nil
}
