package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/lessonplan-api/internal/models"
	appErrors "github.com/noah-isme/lessonplan-api/pkg/errors"
)

type teacherPlanQuerier interface {
	Query(ctx context.Context, userID string, filter models.LessonPlanFilter) ([]models.LessonPlan, models.BucketCounts, models.Pagination, bool, error)
}

type tutorPlanQuerier interface {
	Query(ctx context.Context, userID string, filter models.TutorLessonPlanFilter) ([]models.TutorLessonPlan, models.BucketCounts, models.Pagination, bool, error)
}

type modeResolver interface {
	Mode(ctx context.Context, userID string) (models.Mode, error)
}

// DashboardRequest carries the dashboard mode and list filters.
type DashboardRequest struct {
	Mode      models.Mode
	Variant   models.Mode
	StudentID string
	Search    string
	Class     string
	Subject   string
	YearGroup string
	ExamBoard string
	From      string
	To        string
	Bucket    models.Bucket
	models.ListOptions
}

// DashboardView is the payload rendered by the dashboard.
type DashboardView struct {
	Mode       models.Mode         `json:"mode"`
	StudentID  string              `json:"student_id,omitempty"`
	Buckets    models.BucketCounts `json:"buckets"`
	Items      interface{}         `json:"items"`
	Pagination models.Pagination   `json:"pagination"`
	CacheHit   bool                `json:"-"`
}

// DashboardService composes the mode specific dashboard views.
type DashboardService struct {
	teacherPlans teacherPlanQuerier
	tutorPlans   tutorPlanQuerier
	students     tutorProfileFinder
	modes        modeResolver
	logger       *zap.Logger
}

// NewDashboardService constructs the dashboard service.
func NewDashboardService(teacherPlans teacherPlanQuerier, tutorPlans tutorPlanQuerier, students tutorProfileFinder, modes modeResolver, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{teacherPlans: teacherPlans, tutorPlans: tutorPlans, students: students, modes: modes, logger: logger}
}

// ResolveMode picks the requested mode, then the stored preference, then teacher.
func (s *DashboardService) ResolveMode(ctx context.Context, userID string, requested models.Mode) (models.Mode, error) {
	if requested != "" {
		if !requested.Valid() {
			return "", appErrors.Clone(appErrors.ErrValidation, "mode must be one of teacher, tutor, student, detailed")
		}
		return requested, nil
	}
	if s.modes == nil {
		return models.ModeTeacher, nil
	}
	mode, err := s.modes.Mode(ctx, userID)
	if err != nil {
		return "", err
	}
	if !mode.Valid() {
		return models.ModeTeacher, nil
	}
	return mode, nil
}

// View builds the dashboard for the resolved mode.
func (s *DashboardService) View(ctx context.Context, userID string, req DashboardRequest) (*DashboardView, error) {
	mode, err := s.ResolveMode(ctx, userID, req.Mode)
	if err != nil {
		return nil, err
	}
	from, to, err := dateBounds(req.From, req.To)
	if err != nil {
		return nil, err
	}
	if req.Bucket != "" && !req.Bucket.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "bucket must be one of today, tomorrow, upcoming, previous")
	}

	view := &DashboardView{Mode: mode}
	switch mode {
	case models.ModeTeacher:
		plans, counts, meta, hit, err := s.teacherPlans.Query(ctx, userID, teacherFilter(req, from, to))
		if err != nil {
			return nil, err
		}
		view.Items, view.Buckets, view.Pagination, view.CacheHit = projectTeacherPlans(plans, models.ViewCard), counts, meta, hit
	case models.ModeTutor:
		plans, counts, meta, hit, err := s.tutorPlans.Query(ctx, userID, tutorFilter(req, from, to))
		if err != nil {
			return nil, err
		}
		view.Items, view.Buckets, view.Pagination, view.CacheHit = projectTutorPlans(plans, models.ViewCard), counts, meta, hit
	case models.ModeStudent:
		if req.StudentID == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "student_id is required in student mode")
		}
		if _, err := s.students.FindByID(ctx, userID, req.StudentID); err != nil {
			return nil, repoError(err, "student not found", "failed to load student")
		}
		plans, counts, meta, hit, err := s.tutorPlans.Query(ctx, userID, tutorFilter(req, from, to))
		if err != nil {
			return nil, err
		}
		view.StudentID = req.StudentID
		view.Items, view.Buckets, view.Pagination, view.CacheHit = projectStudentPlans(plans), counts, meta, hit
	case models.ModeDetailed:
		if req.Variant == models.ModeTutor {
			plans, counts, meta, hit, err := s.tutorPlans.Query(ctx, userID, tutorFilter(req, from, to))
			if err != nil {
				return nil, err
			}
			view.Items, view.Buckets, view.Pagination, view.CacheHit = projectTutorPlans(plans, models.ViewDetailed), counts, meta, hit
			break
		}
		plans, counts, meta, hit, err := s.teacherPlans.Query(ctx, userID, teacherFilter(req, from, to))
		if err != nil {
			return nil, err
		}
		view.Items, view.Buckets, view.Pagination, view.CacheHit = projectTeacherPlans(plans, models.ViewDetailed), counts, meta, hit
	}
	return view, nil
}

func teacherFilter(req DashboardRequest, from, to models.Date) models.LessonPlanFilter {
	return models.LessonPlanFilter{
		Search:      req.Search,
		Class:       req.Class,
		Subject:     req.Subject,
		YearGroup:   req.YearGroup,
		ExamBoard:   req.ExamBoard,
		From:        from,
		To:          to,
		Bucket:      req.Bucket,
		ListOptions: req.ListOptions,
	}
}

func tutorFilter(req DashboardRequest, from, to models.Date) models.TutorLessonPlanFilter {
	return models.TutorLessonPlanFilter{
		Search:      req.Search,
		StudentID:   req.StudentID,
		Subject:     req.Subject,
		ExamBoard:   req.ExamBoard,
		From:        from,
		To:          to,
		Bucket:      req.Bucket,
		ListOptions: req.ListOptions,
	}
}
