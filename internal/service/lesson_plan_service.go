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

type lessonPlanRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.LessonPlan, error)
	FindByID(ctx context.Context, userID, id string) (*models.LessonPlan, error)
	Create(ctx context.Context, plan *models.LessonPlan) error
	Update(ctx context.Context, plan *models.LessonPlan) error
	Delete(ctx context.Context, userID, id string) error
}

// LessonPlanRequest is the create and update payload of a teacher lesson plan.
type LessonPlanRequest struct {
	Class           string               `json:"class" validate:"required"`
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
	ExamBoard       string               `json:"exam_board"`
	Subject         string               `json:"subject"`
	YearGroup       string               `json:"year_group"`
}

// trimmed drops surrounding whitespace from the fields validation and
// ordering look at, so a blank value fails "required".
func (r LessonPlanRequest) trimmed() LessonPlanRequest {
	r.Class = strings.TrimSpace(r.Class)
	r.Topic = strings.TrimSpace(r.Topic)
	r.DateOfLesson = strings.TrimSpace(r.DateOfLesson)
	r.TimeOfLesson = strings.TrimSpace(r.TimeOfLesson)
	return r
}

func (r LessonPlanRequest) apply(plan *models.LessonPlan, date models.Date, clock string) {
	plan.Class = strings.TrimSpace(r.Class)
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
	plan.ExamBoard = r.ExamBoard
	plan.Subject = r.Subject
	plan.YearGroup = r.YearGroup
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

var teacherLessonQuery = lessonQuery[models.LessonPlan]{
	fields: func(p models.LessonPlan) []string {
		return []string{p.Topic, p.Class, p.Subject, p.Objectives}
	},
	when: func(p models.LessonPlan) (models.Date, string) {
		return p.DateOfLesson, p.TimeOfLesson
	},
	sortKeys: listing.SortKeys[models.LessonPlan]{
		"date_of_lesson": func(p models.LessonPlan) string { return lessonScheduleKey(p.DateOfLesson, p.TimeOfLesson) },
		"topic":          func(p models.LessonPlan) string { return p.Topic },
		"class":          func(p models.LessonPlan) string { return p.Class },
		"subject":        func(p models.LessonPlan) string { return p.Subject },
		"created_at":     func(p models.LessonPlan) string { return timestampKey(p.CreatedAt) },
		"updated_at":     func(p models.LessonPlan) string { return timestampKey(p.UpdatedAt) },
	},
}

// LessonPlanService handles teacher lesson plan use-cases.
type LessonPlanService struct {
	repo      lessonPlanRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ListConfig
}

// NewLessonPlanService constructs the lesson plan service.
func NewLessonPlanService(repo lessonPlanRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger, cfg ListConfig) *LessonPlanService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LessonPlanService{repo: repo, cache: cache, validator: validate, logger: logger, cfg: cfg.withDefaults()}
}

// All returns every plan the user owns, served from cache when possible.
func (s *LessonPlanService) All(ctx context.Context, userID string) ([]models.LessonPlan, bool, error) {
	plans, hit, err := cachedList(ctx, s.cache, cacheKey(cacheNSTeacherLessons, userID), func(ctx context.Context) ([]models.LessonPlan, error) {
		return s.repo.ListByUser(ctx, userID)
	})
	if err != nil {
		return nil, false, repoError(err, "lesson plans not found", "failed to list lesson plans")
	}
	return plans, hit, nil
}

// Query filters, buckets and pages the user's plans.
func (s *LessonPlanService) Query(ctx context.Context, userID string, filter models.LessonPlanFilter) ([]models.LessonPlan, models.BucketCounts, models.Pagination, bool, error) {
	plans, hit, err := s.All(ctx, userID)
	if err != nil {
		return nil, models.BucketCounts{}, models.Pagination{}, false, err
	}
	page, counts, meta := teacherLessonQuery.run(plans, s.cfg, filter.Search, filter.Bucket, filter.ListOptions,
		func(p models.LessonPlan) bool { return listing.Equals(p.Class, filter.Class) },
		func(p models.LessonPlan) bool { return listing.Equals(p.Subject, filter.Subject) },
		func(p models.LessonPlan) bool { return listing.Equals(p.YearGroup, filter.YearGroup) },
		func(p models.LessonPlan) bool { return listing.Equals(p.ExamBoard, filter.ExamBoard) },
		func(p models.LessonPlan) bool { return listing.InDateRange(p.DateOfLesson, filter.From, filter.To) },
	)
	return page, counts, meta, hit, nil
}

// List returns one page of plans projected onto the requested view.
func (s *LessonPlanService) List(ctx context.Context, userID string, filter models.LessonPlanFilter) (*PlanList, error) {
	plans, counts, meta, hit, err := s.Query(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	return &PlanList{Items: projectTeacherPlans(plans, filter.View), Buckets: counts, Pagination: meta, CacheHit: hit}, nil
}

func projectTeacherPlans(plans []models.LessonPlan, view models.View) interface{} {
	if view == models.ViewDetailed {
		return plans
	}
	cards := make([]models.LessonPlanCard, 0, len(plans))
	for _, p := range plans {
		cards = append(cards, p.Card())
	}
	return cards
}

// Get returns a single plan owned by the user.
func (s *LessonPlanService) Get(ctx context.Context, userID, id string) (*models.LessonPlan, error) {
	plan, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, repoError(err, "lesson plan not found", "failed to load lesson plan")
	}
	return plan, nil
}

// Create validates and stores a new plan.
func (s *LessonPlanService) Create(ctx context.Context, userID string, req LessonPlanRequest) (*models.LessonPlan, error) {
	date, clock, err := s.validate(req)
	if err != nil {
		return nil, err
	}
	plan := &models.LessonPlan{ID: uuid.NewString(), UserID: userID}
	req.apply(plan, date, clock)
	if err := s.repo.Create(ctx, plan); err != nil {
		return nil, repoError(err, "lesson plan not found", "failed to create lesson plan")
	}
	invalidate(ctx, s.cache, cacheNSTeacherLessons, userID)
	s.logger.Info("lesson plan created", zap.String("user_id", userID), zap.String("lesson_plan_id", plan.ID))
	return plan, nil
}

// Update replaces the editable fields of a plan.
func (s *LessonPlanService) Update(ctx context.Context, userID, id string, req LessonPlanRequest) (*models.LessonPlan, error) {
	date, clock, err := s.validate(req)
	if err != nil {
		return nil, err
	}
	plan, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	req.apply(plan, date, clock)
	if err := s.repo.Update(ctx, plan); err != nil {
		return nil, repoError(err, "lesson plan not found", "failed to update lesson plan")
	}
	invalidate(ctx, s.cache, cacheNSTeacherLessons, userID)
	return plan, nil
}

// Delete removes a plan.
func (s *LessonPlanService) Delete(ctx context.Context, userID, id string) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return repoError(err, "lesson plan not found", "failed to delete lesson plan")
	}
	invalidate(ctx, s.cache, cacheNSTeacherLessons, userID)
	s.logger.Info("lesson plan deleted", zap.String("user_id", userID), zap.String("lesson_plan_id", id))
	return nil
}

func (s *LessonPlanService) validate(req LessonPlanRequest) (models.Date, string, error) {
	req = req.trimmed()
	if err := s.validator.Struct(req); err != nil {
		return models.Date{}, "", validationError(err, "invalid lesson plan payload")
	}
	date, err := models.ParseDate(req.DateOfLesson)
	if err != nil {
		return models.Date{}, "", appErrors.Validation(err, "invalid lesson plan payload").WithField("date_of_lesson", "must be a YYYY-MM-DD date")
	}
	clock, err := lessonClock(req.TimeOfLesson)
	if err != nil {
		return models.Date{}, "", appErrors.Validation(err, "invalid lesson plan payload").WithField("time_of_lesson", "must be a HH:MM time")
	}
	return date, clock, nil
}
