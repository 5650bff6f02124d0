package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/lessonplan-api/internal/listing"
	"github.com/noah-isme/lessonplan-api/internal/models"
	appErrors "github.com/noah-isme/lessonplan-api/pkg/errors"
)

type teacherProfileRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.StudentProfileTeacher, error)
	FindByID(ctx context.Context, userID, id string) (*models.StudentProfileTeacher, error)
	Create(ctx context.Context, profile *models.StudentProfileTeacher) error
	Update(ctx context.Context, profile *models.StudentProfileTeacher) error
	Delete(ctx context.Context, userID, id string) error
}

type tutorProfileRepository interface {
	tutorProfileFinder
	ListByUser(ctx context.Context, userID string) ([]models.StudentProfileTutor, error)
	Create(ctx context.Context, profile *models.StudentProfileTutor) error
	Update(ctx context.Context, profile *models.StudentProfileTutor) error
	Delete(ctx context.Context, userID, id string) error
}

type tutorPlanReferences interface {
	CountByStudent(ctx context.Context, userID, studentID string) (int, error)
}

// TeacherProfileRequest is the payload for classroom student profiles.
type TeacherProfileRequest struct {
	FirstName               string `json:"first_name" validate:"required"`
	LastName                string `json:"last_name" validate:"required"`
	ClassName               string `json:"class_name"`
	Goals                   string `json:"goals"`
	Interests               string `json:"interests"`
	Strengths               string `json:"strengths"`
	Weaknesses              string `json:"weaknesses"`
	SpecialEducationalNeeds string `json:"special_educational_needs"`
	LearningPreferences     string `json:"learning_preferences"`
	Notes                   string `json:"notes"`
}

func (r TeacherProfileRequest) trimmed() TeacherProfileRequest {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	return r
}

func (r TeacherProfileRequest) apply(p *models.StudentProfileTeacher) {
	p.FirstName = strings.TrimSpace(r.FirstName)
	p.LastName = strings.TrimSpace(r.LastName)
	p.ClassName = strings.TrimSpace(r.ClassName)
	p.Goals = r.Goals
	p.Interests = r.Interests
	p.Strengths = r.Strengths
	p.Weaknesses = r.Weaknesses
	p.SpecialEducationalNeeds = r.SpecialEducationalNeeds
	p.LearningPreferences = r.LearningPreferences
	p.Notes = r.Notes
}

// TutorProfileRequest is the payload for private tutoring student profiles.
type TutorProfileRequest struct {
	FirstName           string `json:"first_name" validate:"required"`
	LastName            string `json:"last_name" validate:"required"`
	Level               string `json:"level"`
	Goals               string `json:"goals"`
	Interests           string `json:"interests"`
	Strengths           string `json:"strengths"`
	Weaknesses          string `json:"weaknesses"`
	SEN                 string `json:"sen"`
	LearningPreferences string `json:"learning_preferences"`
	Notes               string `json:"notes"`
}

func (r TutorProfileRequest) trimmed() TutorProfileRequest {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	return r
}

func (r TutorProfileRequest) apply(p *models.StudentProfileTutor) {
	p.FirstName = strings.TrimSpace(r.FirstName)
	p.LastName = strings.TrimSpace(r.LastName)
	p.Level = strings.TrimSpace(r.Level)
	p.Goals = r.Goals
	p.Interests = r.Interests
	p.Strengths = r.Strengths
	p.Weaknesses = r.Weaknesses
	p.SEN = r.SEN
	p.LearningPreferences = r.LearningPreferences
	p.Notes = r.Notes
}

type profileQuery[T any] struct {
	fields   func(T) []string
	group    func(T) string
	sortKeys listing.SortKeys[T]
}

func (q profileQuery[T]) run(items []T, filter models.StudentProfileFilter, defaultSize int) ([]T, models.Pagination) {
	matched := listing.Search(items, filter.Search, q.fields)
	matched = listing.Filter(matched, func(item T) bool { return listing.Equals(q.group(item), filter.Group) })
	sorted := make([]T, len(matched))
	copy(sorted, matched)
	listing.Sort(sorted, q.sortKeys, filter.SortBy, filter.SortOrder, "last_name")
	size := filter.PageSize
	if size <= 0 {
		size = defaultSize
	}
	return listing.Paginate(sorted, filter.Page, size)
}

var teacherProfileQuery = profileQuery[models.StudentProfileTeacher]{
	fields: func(p models.StudentProfileTeacher) []string {
		return []string{p.FirstName, p.LastName, p.FullName(), p.Goals, p.Interests}
	},
	group: func(p models.StudentProfileTeacher) string { return p.ClassName },
	sortKeys: listing.SortKeys[models.StudentProfileTeacher]{
		"first_name": func(p models.StudentProfileTeacher) string { return p.FirstName + " " + p.LastName },
		"last_name":  func(p models.StudentProfileTeacher) string { return p.LastName + " " + p.FirstName },
		"class_name": func(p models.StudentProfileTeacher) string { return p.ClassName },
		"created_at": func(p models.StudentProfileTeacher) string { return timestampKey(p.CreatedAt) },
	},
}

var tutorProfileQuery = profileQuery[models.StudentProfileTutor]{
	fields: func(p models.StudentProfileTutor) []string {
		return []string{p.FirstName, p.LastName, p.FullName(), p.Goals, p.Interests}
	},
	group: func(p models.StudentProfileTutor) string { return p.Level },
	sortKeys: listing.SortKeys[models.StudentProfileTutor]{
		"first_name": func(p models.StudentProfileTutor) string { return p.FirstName + " " + p.LastName },
		"last_name":  func(p models.StudentProfileTutor) string { return p.LastName + " " + p.FirstName },
		"level":      func(p models.StudentProfileTutor) string { return p.Level },
		"created_at": func(p models.StudentProfileTutor) string { return timestampKey(p.CreatedAt) },
	},
}

// StudentProfileService manages teacher and tutor student profiles.
type StudentProfileService struct {
	teacher    teacherProfileRepository
	tutor      tutorProfileRepository
	tutorPlans tutorPlanReferences
	cache      *CacheService
	validator  *validator.Validate
	logger     *zap.Logger
	cfg        ListConfig
}

// NewStudentProfileService constructs the profile service.
func NewStudentProfileService(teacher teacherProfileRepository, tutor tutorProfileRepository, tutorPlans tutorPlanReferences, cache *CacheService, validate *validator.Validate, logger *zap.Logger, cfg ListConfig) *StudentProfileService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentProfileService{
		teacher:    teacher,
		tutor:      tutor,
		tutorPlans: tutorPlans,
		cache:      cache,
		validator:  validate,
		logger:     logger,
		cfg:        cfg.withDefaults(),
	}
}

// ListTeacher returns a page of the user's classroom profiles.
func (s *StudentProfileService) ListTeacher(ctx context.Context, userID string, filter models.StudentProfileFilter) (*ProfileList[models.StudentProfileTeacher], error) {
	profiles, hit, err := cachedList(ctx, s.cache, cacheKey(cacheNSTeacherProfiles, userID), func(ctx context.Context) ([]models.StudentProfileTeacher, error) {
		return s.teacher.ListByUser(ctx, userID)
	})
	if err != nil {
		return nil, repoError(err, "students not found", "failed to list students")
	}
	page, meta := teacherProfileQuery.run(profiles, filter, s.cfg.DefaultPageSize)
	return &ProfileList[models.StudentProfileTeacher]{Items: page, Pagination: meta, CacheHit: hit}, nil
}

// GetTeacher returns one classroom profile.
func (s *StudentProfileService) GetTeacher(ctx context.Context, userID, id string) (*models.StudentProfileTeacher, error) {
	profile, err := s.teacher.FindByID(ctx, userID, id)
	if err != nil {
		return nil, repoError(err, "student not found", "failed to load student")
	}
	return profile, nil
}

// CreateTeacher validates and stores a classroom profile.
func (s *StudentProfileService) CreateTeacher(ctx context.Context, userID string, req TeacherProfileRequest) (*models.StudentProfileTeacher, error) {
	if err := s.validator.Struct(req.trimmed()); err != nil {
		return nil, validationError(err, "invalid student payload")
	}
	profile := &models.StudentProfileTeacher{StudentID: uuid.NewString(), UserID: userID}
	req.apply(profile)
	if err := s.teacher.Create(ctx, profile); err != nil {
		return nil, repoError(err, "student not found", "failed to create student")
	}
	invalidate(ctx, s.cache, cacheNSTeacherProfiles, userID)
	return profile, nil
}

// UpdateTeacher replaces a classroom profile.
func (s *StudentProfileService) UpdateTeacher(ctx context.Context, userID, id string, req TeacherProfileRequest) (*models.StudentProfileTeacher, error) {
	if err := s.validator.Struct(req.trimmed()); err != nil {
		return nil, validationError(err, "invalid student payload")
	}
	profile, err := s.GetTeacher(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	req.apply(profile)
	if err := s.teacher.Update(ctx, profile); err != nil {
		return nil, repoError(err, "student not found", "failed to update student")
	}
	invalidate(ctx, s.cache, cacheNSTeacherProfiles, userID)
	invalidate(ctx, s.cache, cacheNSClasses, userID)
	return profile, nil
}

// DeleteTeacher removes a classroom profile and its class memberships.
func (s *StudentProfileService) DeleteTeacher(ctx context.Context, userID, id string) error {
	if err := s.teacher.Delete(ctx, userID, id); err != nil {
		return repoError(err, "student not found", "failed to delete student")
	}
	invalidate(ctx, s.cache, cacheNSTeacherProfiles, userID)
	invalidate(ctx, s.cache, cacheNSClasses, userID)
	return nil
}

// ListTutor returns a page of the user's tutoring profiles.
func (s *StudentProfileService) ListTutor(ctx context.Context, userID string, filter models.StudentProfileFilter) (*ProfileList[models.StudentProfileTutor], error) {
	profiles, hit, err := cachedList(ctx, s.cache, cacheKey(cacheNSTutorProfiles, userID), func(ctx context.Context) ([]models.StudentProfileTutor, error) {
		return s.tutor.ListByUser(ctx, userID)
	})
	if err != nil {
		return nil, repoError(err, "students not found", "failed to list tutor students")
	}
	page, meta := tutorProfileQuery.run(profiles, filter, s.cfg.DefaultPageSize)
	return &ProfileList[models.StudentProfileTutor]{Items: page, Pagination: meta, CacheHit: hit}, nil
}

// GetTutor returns one tutoring profile.
func (s *StudentProfileService) GetTutor(ctx context.Context, userID, id string) (*models.StudentProfileTutor, error) {
	profile, err := s.tutor.FindByID(ctx, userID, id)
	if err != nil {
		return nil, repoError(err, "student not found", "failed to load tutor student")
	}
	return profile, nil
}

// CreateTutor validates and stores a tutoring profile.
func (s *StudentProfileService) CreateTutor(ctx context.Context, userID string, req TutorProfileRequest) (*models.StudentProfileTutor, error) {
	if err := s.validator.Struct(req.trimmed()); err != nil {
		return nil, validationError(err, "invalid student payload")
	}
	profile := &models.StudentProfileTutor{StudentID: uuid.NewString(), UserID: userID}
	req.apply(profile)
	if err := s.tutor.Create(ctx, profile); err != nil {
		return nil, repoError(err, "student not found", "failed to create tutor student")
	}
	invalidate(ctx, s.cache, cacheNSTutorProfiles, userID)
	return profile, nil
}

// UpdateTutor replaces a tutoring profile. The repository copies a rename
// onto the student's lesson plans in the same transaction.
func (s *StudentProfileService) UpdateTutor(ctx context.Context, userID, id string, req TutorProfileRequest) (*models.StudentProfileTutor, error) {
	if err := s.validator.Struct(req.trimmed()); err != nil {
		return nil, validationError(err, "invalid student payload")
	}
	profile, err := s.GetTutor(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	renamed := profile.FirstName != strings.TrimSpace(req.FirstName) || profile.LastName != strings.TrimSpace(req.LastName)
	req.apply(profile)
	if err := s.tutor.Update(ctx, profile); err != nil {
		return nil, repoError(err, "student not found", "failed to update tutor student")
	}
	invalidate(ctx, s.cache, cacheNSTutorProfiles, userID)
	if renamed {
		invalidate(ctx, s.cache, cacheNSTutorLessons, userID)
	}
	return profile, nil
}

// DeleteTutor removes a tutoring profile unless lesson plans still reference it.
func (s *StudentProfileService) DeleteTutor(ctx context.Context, userID, id string) error {
	count, err := s.tutorPlans.CountByStudent(ctx, userID, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check lesson plans")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "student still has lesson plans")
	}
	if err := s.tutor.Delete(ctx, userID, id); err != nil {
		if foreignKeyViolation(err) {
			return appErrors.Clone(appErrors.ErrConflict, "student still has lesson plans")
		}
		return repoError(err, "student not found", "failed to delete tutor student")
	}
	invalidate(ctx, s.cache, cacheNSTutorProfiles, userID)
	return nil
}
