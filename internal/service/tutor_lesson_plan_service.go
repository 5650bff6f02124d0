package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/noah-isme/lessonplan-api/internal/listing"
	"github.com/noah-isme/lessonplan-api/internal/models"
	appErrors "github.com/noah-isme/lessonplan-api/pkg/errors"
)

type tutorLessonPlanRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.TutorLessonPlan, error)
	FindByID(ctx context.Context, userID, id string) (*models.TutorLessonPlan, error)
	Create(ctx context.Context, plan *models.TutorLessonPlan) error
	Update(ctx context.Context, plan *models.TutorLessonPlan) error
	Delete(ctx context.Context, userID, id string) error
}

type tutorProfileFinder interface {
	FindByID(ctx context.Context, userID, id string) (*models.StudentProfileTutor, error)
}

// TutorLessonPlanRequest is the create and update payload of a tutor lesson plan.
// Student names are taken from the referenced profile.
type TutorLessonPlanRequest struct {
	StudentID       string               `json:"student_id" validate:"required"`
	DateOfLesson    string               `json:"date_of_lesson" validate:"required,datetime=2006-01-02"`
	TimeOfLesson    string               `json:"time_of_lesson" validate:"omitempty,datetime=15:04"`
	Topic           string               `json:"topic" validate:"required"`
	Objectives      string               `json:"objectives"`
	Outcomes        string               `json:"outcomes"`
	Resources       []models.Resource    `json:"resources" validate:"omitempty,dive"`
	Homework        string               `json:"homework"`
	Evaluation      string               `json:"evaluation"`
	Notes           string               `json:"notes"`
	LessonStructure []models.LessonStage `json:"lesson_structure" validate:"omitempty,dive"`
	Subject         string               `json:"subject"`
	ExamBoard       string               `json:"exam_board"`
}

func (r TutorLessonPlanRequest) trimmed() TutorLessonPlanRequest {
	r.StudentID = strings.TrimSpace(r.StudentID)
	r.Topic = strings.TrimSpace(r.Topic)
	r.DateOfLesson = strings.TrimSpace(r.DateOfLesson)
	r.TimeOfLesson = strings.TrimSpace(r.TimeOfLesson)
	return r
}

func (r TutorLessonPlanRequest) apply(plan *models.TutorLessonPlan, date models.Date, clock string, student *models.StudentProfileTutor) {
	plan.StudentID = student.StudentID
	plan.FirstName = student.FirstName
	plan.LastName = student.LastName
	plan.DateOfLesson = date
	plan.TimeOfLesson = clock
	plan.Topic = strings.TrimSpace(r.Topic)
	plan.Objectives = r.Objectives
	plan.Outcomes = r.Outcomes
	plan.Resources = datatypes.NewJSONSlice(nonNil(r.Resources))
	plan.Homework = r.Homework
	plan.Evaluation = r.Evaluation
	plan.Notes = r.Notes
	plan.LessonStructure = datatypes.NewJSONSlice(nonNil(r.LessonStructure))
	plan.Subject = r.Subject
	plan.ExamBoard = r.ExamBoard
}

var tutorLessonQuery = lessonQuery[models.TutorLessonPlan]{
	fields: func(p models.TutorLessonPlan) []string {
		return []string{p.Topic, p.FirstName, p.LastName, p.Subject}
	},
	when: func(p models.TutorLessonPlan) (models.Date, string) {
		return p.DateOfLesson, p.TimeOfLesson
	},
	sortKeys: listing.SortKeys[models.TutorLessonPlan]{
		"date_of_lesson": func(p models.TutorLessonPlan) string { return lessonScheduleKey(p.DateOfLesson, p.TimeOfLesson) },
		"topic":          func(p models.TutorLessonPlan) string { return p.Topic },
		"first_name":     func(p models.TutorLessonPlan) string { return p.FirstName },
		"last_name":      func(p models.TutorLessonPlan) string { return p.LastName },
		"subject":        func(p models.TutorLessonPlan) string { return p.Subject },
		"created_at":     func(p models.TutorLessonPlan) string { return timestampKey(p.CreatedAt) },
		"updated_at":     func(p models.TutorLessonPlan) string { return timestampKey(p.UpdatedAt) },
	},
}

// TutorLessonPlanService handles tutor lesson plan use-cases.
type TutorLessonPlanService struct {
	repo      tutorLessonPlanRepository
	profiles  tutorProfileFinder
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ListConfig
}

// NewTutorLessonPlanService constructs the tutor lesson plan service.
func NewTutorLessonPlanService(repo tutorLessonPlanRepository, profiles tutorProfileFinder, cache *CacheService, validate *validator.Validate, logger *zap.Logger, cfg ListConfig) *TutorLessonPlanService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TutorLessonPlanService{repo: repo, profiles: profiles, cache: cache, validator: validate, logger: logger, cfg: cfg.withDefaults()}
}

// All returns every tutor plan the user owns, served from cache when possible.
func (s *TutorLessonPlanService) All(ctx context.Context, userID string) ([]models.TutorLessonPlan, bool, error) {
	plans, hit, err := cachedList(ctx, s.cache, cacheKey(cacheNSTutorLessons, userID), func(ctx context.Context) ([]models.TutorLessonPlan, error) {
		return s.repo.ListByUser(ctx, userID)
	})
	if err != nil {
		return nil, false, repoError(err, "tutor lesson plans not found", "failed to list tutor lesson plans")
	}
	return plans, hit, nil
}

// Query filters, buckets and pages the user's tutor plans.
func (s *TutorLessonPlanService) Query(ctx context.Context, userID string, filter models.TutorLessonPlanFilter) ([]models.TutorLessonPlan, models.BucketCounts, models.Pagination, bool, error) {
	plans, hit, err := s.All(ctx, userID)
	if err != nil {
		return nil, models.BucketCounts{}, models.Pagination{}, false, err
	}
	var student listing.Predicate[models.TutorLessonPlan]
	if filter.StudentID != "" {
		student = func(p models.TutorLessonPlan) bool { return p.StudentID == filter.StudentID }
	}
	page, counts, meta := tutorLessonQuery.run(plans, s.cfg, filter.Search, filter.Bucket, filter.ListOptions,
		student,
		func(p models.TutorLessonPlan) bool { return listing.Equals(p.Subject, filter.Subject) },
		func(p models.TutorLessonPlan) bool { return listing.Equals(p.ExamBoard, filter.ExamBoard) },
		func(p models.TutorLessonPlan) bool { return listing.InDateRange(p.DateOfLesson, filter.From, filter.To) },
	)
	return page, counts, meta, hit, nil
}

// List returns one page of tutor plans projected onto the requested view.
func (s *TutorLessonPlanService) List(ctx context.Context, userID string, filter models.TutorLessonPlanFilter) (*PlanList, error) {
	plans, counts, meta, hit, err := s.Query(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	return &PlanList{Items: projectTutorPlans(plans, filter.View), Buckets: counts, Pagination: meta, CacheHit: hit}, nil
}

func projectTutorPlans(plans []models.TutorLessonPlan, view models.View) interface{} {
	if view == models.ViewDetailed {
		return plans
	}
	cards := make([]models.TutorLessonPlanCard, 0, len(plans))
	for _, p := range plans {
		cards = append(cards, p.Card())
	}
	return cards
}

func projectStudentPlans(plans []models.TutorLessonPlan) []models.StudentLessonView {
	views := make([]models.StudentLessonView, 0, len(plans))
	for _, p := range plans {
		views = append(views, p.StudentView())
	}
	return views
}

// Get returns a single tutor plan owned by the user.
func (s *TutorLessonPlanService) Get(ctx context.Context, userID, id string) (*models.TutorLessonPlan, error) {
	plan, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, repoError(err, "tutor lesson plan not found", "failed to load tutor lesson plan")
	}
	return plan, nil
}

// Create validates and stores a new tutor plan.
func (s *TutorLessonPlanService) Create(ctx context.Context, userID string, req TutorLessonPlanRequest) (*models.TutorLessonPlan, error) {
	date, clock, student, err := s.prepare(ctx, userID, req)
	if err != nil {
		return nil, err
	}
	plan := &models.TutorLessonPlan{ID: uuid.NewString(), UserID: userID}
	req.apply(plan, date, clock, student)
	if err := s.repo.Create(ctx, plan); err != nil {
		return nil, repoError(err, "tutor lesson plan not found", "failed to create tutor lesson plan")
	}
	invalidate(ctx, s.cache, cacheNSTutorLessons, userID)
	s.logger.Info("tutor lesson plan created", zap.String("user_id", userID), zap.String("lesson_plan_id", plan.ID))
	return plan, nil
}

// Update replaces the editable fields of a tutor plan.
func (s *TutorLessonPlanService) Update(ctx context.Context, userID, id string, req TutorLessonPlanRequest) (*models.TutorLessonPlan, error) {
	date, clock, student, err := s.prepare(ctx, userID, req)
	if err != nil {
		return nil, err
	}
	plan, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	req.apply(plan, date, clock, student)
	if err := s.repo.Update(ctx, plan); err != nil {
		return nil, repoError(err, "tutor lesson plan not found", "failed to update tutor lesson plan")
	}
	invalidate(ctx, s.cache, cacheNSTutorLessons, userID)
	return plan, nil
}

// Delete removes a tutor plan.
func (s *TutorLessonPlanService) Delete(ctx context.Context, userID, id string) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return repoError(err, "tutor lesson plan not found", "failed to delete tutor lesson plan")
	}
	invalidate(ctx, s.cache, cacheNSTutorLessons, userID)
	return nil
}

func (s *TutorLessonPlanService) prepare(ctx context.Context, userID string, req TutorLessonPlanRequest) (models.Date, string, *models.StudentProfileTutor, error) {
	req = req.trimmed()
	if err := s.validator.Struct(req); err != nil {
		return models.Date{}, "", nil, validationError(err, "invalid tutor lesson plan payload")
	}
	date, err := models.ParseDate(req.DateOfLesson)
	if err != nil {
		return models.Date{}, "", nil, appErrors.Validation(err, "invalid tutor lesson plan payload").WithField("date_of_lesson", "must be a YYYY-MM-DD date")
	}
	clock, err := lessonClock(req.TimeOfLesson)
	if err != nil {
		return models.Date{}, "", nil, appErrors.Validation(err, "invalid tutor lesson plan payload").WithField("time_of_lesson", "must be a HH:MM time")
	}
	student, err := s.profiles.FindByID(ctx, userID, req.StudentID)
	if err != nil {
		if missingRow(err) {
			return models.Date{}, "", nil, appErrors.Clone(appErrors.ErrValidation, "student_id does not match one of your students").WithField("student_id", "unknown student")
		}
		return models.Date{}, "", nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student profile")
	}
	return date, clock, student, nil
}
