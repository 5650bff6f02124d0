package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/lessonplan-api/internal/models"
	appErrors "github.com/noah-isme/lessonplan-api/pkg/errors"
)

type modeStub struct {
	mode models.Mode
	err  error
}

func (m modeStub) Mode(ctx context.Context, userID string) (models.Mode, error) {
	return m.mode, m.err
}

func newDashboardFixture(t *testing.T, mode models.Mode) *DashboardService {
	teacher := NewLessonPlanService(newLessonPlanRepoStub(
		teacherPlan(t, "tp1", "u1", "2024-05-10", "Fractions", "7A"),
		teacherPlan(t, "tp2", "u1", "2024-05-15", "Decimals", "7B"),
	), nil, nil, zap.NewNop(), testListConfig())
	profiles := newTutorProfileRepoStub(tutorStudent("s1", "u1", "Ada", "Lovelace"))
	tutor := NewTutorLessonPlanService(newTutorPlanRepoStub(
		tutorPlan(t, "up1", "u1", "s1", "2024-05-11", "Forces"),
		tutorPlan(t, "up2", "u1", "s2", "2024-05-11", "Waves"),
	), profiles, nil, nil, zap.NewNop(), testListConfig())
	return NewDashboardService(teacher, tutor, profiles, modeStub{mode: mode}, zap.NewNop())
}

func TestDashboardResolveMode(t *testing.T) {
	ctx := context.Background()

	svc := NewDashboardService(nil, nil, nil, modeStub{mode: models.ModeTutor}, nil)
	mode, err := svc.ResolveMode(ctx, "u1", "")
	require.NoError(t, err)
	assert.Equal(t, models.ModeTutor, mode)

	mode, err = svc.ResolveMode(ctx, "u1", models.ModeStudent)
	require.NoError(t, err)
	assert.Equal(t, models.ModeStudent, mode)

	_, err = svc.ResolveMode(ctx, "u1", "parent")
	assertAppError(t, err, appErrors.ErrValidation.Code)

	svc = NewDashboardService(nil, nil, nil, modeStub{mode: "bogus"}, nil)
	mode, err = svc.ResolveMode(ctx, "u1", "")
	require.NoError(t, err)
	assert.Equal(t, models.ModeTeacher, mode)

	svc = NewDashboardService(nil, nil, nil, nil, nil)
	mode, err = svc.ResolveMode(ctx, "u1", "")
	require.NoError(t, err)
	assert.Equal(t, models.ModeTeacher, mode)

	boom := errors.New("db down")
	svc = NewDashboardService(nil, nil, nil, modeStub{err: boom}, nil)
	_, err = svc.ResolveMode(ctx, "u1", "")
	assert.ErrorIs(t, err, boom)
}

func TestDashboardTeacherMode(t *testing.T) {
	svc := newDashboardFixture(t, models.ModeTeacher)

	view, err := svc.View(context.Background(), "u1", DashboardRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.ModeTeacher, view.Mode)
	assert.Equal(t, models.BucketCounts{Today: 1, Upcoming: 1}, view.Buckets)
	cards, ok := view.Items.([]models.LessonPlanCard)
	require.True(t, ok)
	assert.Len(t, cards, 2)
}

func TestDashboardTutorModeFromPreference(t *testing.T) {
	svc := newDashboardFixture(t, models.ModeTutor)

	view, err := svc.View(context.Background(), "u1", DashboardRequest{Bucket: models.BucketTomorrow})
	require.NoError(t, err)
	assert.Equal(t, models.ModeTutor, view.Mode)
	cards, ok := view.Items.([]models.TutorLessonPlanCard)
	require.True(t, ok)
	assert.Len(t, cards, 2)
	assert.Equal(t, 2, view.Buckets.Tomorrow)
}

func TestDashboardStudentMode(t *testing.T) {
	svc := newDashboardFixture(t, models.ModeTeacher)
	ctx := context.Background()

	_, err := svc.View(ctx, "u1", DashboardRequest{Mode: models.ModeStudent})
	assertAppError(t, err, appErrors.ErrValidation.Code)

	_, err = svc.View(ctx, "u1", DashboardRequest{Mode: models.ModeStudent, StudentID: "s2"})
	assertAppError(t, err, appErrors.ErrNotFound.Code)

	view, err := svc.View(ctx, "u1", DashboardRequest{Mode: models.ModeStudent, StudentID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, "s1", view.StudentID)
	items, ok := view.Items.([]models.StudentLessonView)
	require.True(t, ok)
	require.Len(t, items, 1)
	assert.Equal(t, "Forces", items[0].Topic)
}

func TestDashboardDetailedMode(t *testing.T) {
	svc := newDashboardFixture(t, models.ModeTeacher)
	ctx := context.Background()

	view, err := svc.View(ctx, "u1", DashboardRequest{Mode: models.ModeDetailed})
	require.NoError(t, err)
	_, ok := view.Items.([]models.LessonPlan)
	assert.True(t, ok)

	view, err = svc.View(ctx, "u1", DashboardRequest{Mode: models.ModeDetailed, Variant: models.ModeTutor})
	require.NoError(t, err)
	plans, ok := view.Items.([]models.TutorLessonPlan)
	require.True(t, ok)
	assert.Len(t, plans, 2)
}

func TestDashboardRejectsBadFilters(t *testing.T) {
	svc := newDashboardFixture(t, models.ModeTeacher)
	ctx := context.Background()

	_, err := svc.View(ctx, "u1", DashboardRequest{Bucket: "someday"})
	assertAppError(t, err, appErrors.ErrValidation.Code)

	_, err = svc.View(ctx, "u1", DashboardRequest{From: "yesterday"})
	assertAppError(t, err, appErrors.ErrValidation.Code)
}
