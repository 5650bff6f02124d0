package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/lessonplan-api/internal/models"
	appErrors "github.com/noah-isme/lessonplan-api/pkg/errors"
)

type teacherProfileRepoStub struct {
	profiles map[string]models.StudentProfileTeacher
}

func newTeacherProfileRepoStub(profiles ...models.StudentProfileTeacher) *teacherProfileRepoStub {
	stub := &teacherProfileRepoStub{profiles: map[string]models.StudentProfileTeacher{}}
	for _, p := range profiles {
		stub.profiles[p.StudentID] = p
	}
	return stub
}

func (s *teacherProfileRepoStub) ListByUser(ctx context.Context, userID string) ([]models.StudentProfileTeacher, error) {
	var out []models.StudentProfileTeacher
	for _, p := range s.profiles {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudentID < out[j].StudentID })
	return out, nil
}

func (s *teacherProfileRepoStub) FindByID(ctx context.Context, userID, id string) (*models.StudentProfileTeacher, error) {
	p, ok := s.profiles[id]
	if !ok || p.UserID != userID {
		return nil, sql.ErrNoRows
	}
	return &p, nil
}

func (s *teacherProfileRepoStub) Create(ctx context.Context, profile *models.StudentProfileTeacher) error {
	s.profiles[profile.StudentID] = *profile
	return nil
}

func (s *teacherProfileRepoStub) Update(ctx context.Context, profile *models.StudentProfileTeacher) error {
	s.profiles[profile.StudentID] = *profile
	return nil
}

func (s *teacherProfileRepoStub) Delete(ctx context.Context, userID, id string) error {
	p, ok := s.profiles[id]
	if !ok || p.UserID != userID {
		return sql.ErrNoRows
	}
	delete(s.profiles, id)
	return nil
}

type tutorProfileRepoStub struct {
	profiles  map[string]models.StudentProfileTutor
	renamed   []string
	updateErr error
	deleteErr error
}

func newTutorProfileRepoStub(profiles ...models.StudentProfileTutor) *tutorProfileRepoStub {
	stub := &tutorProfileRepoStub{profiles: map[string]models.StudentProfileTutor{}}
	for _, p := range profiles {
		stub.profiles[p.StudentID] = p
	}
	return stub
}

func (s *tutorProfileRepoStub) ListByUser(ctx context.Context, userID string) ([]models.StudentProfileTutor, error) {
	var out []models.StudentProfileTutor
	for _, p := range s.profiles {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudentID < out[j].StudentID })
	return out, nil
}

func (s *tutorProfileRepoStub) FindByID(ctx context.Context, userID, id string) (*models.StudentProfileTutor, error) {
	p, ok := s.profiles[id]
	if !ok || p.UserID != userID {
		return nil, sql.ErrNoRows
	}
	return &p, nil
}

func (s *tutorProfileRepoStub) Create(ctx context.Context, profile *models.StudentProfileTutor) error {
	s.profiles[profile.StudentID] = *profile
	return nil
}

// Update mirrors the transactional repository: the profile and the plan
// names change together or not at all.
func (s *tutorProfileRepoStub) Update(ctx context.Context, profile *models.StudentProfileTutor) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	prev := s.profiles[profile.StudentID]
	if prev.FirstName != profile.FirstName || prev.LastName != profile.LastName {
		s.renamed = append(s.renamed, profile.StudentID+"="+profile.FirstName+" "+profile.LastName)
	}
	s.profiles[profile.StudentID] = *profile
	return nil
}

func (s *tutorProfileRepoStub) Delete(ctx context.Context, userID, id string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	p, ok := s.profiles[id]
	if !ok || p.UserID != userID {
		return sql.ErrNoRows
	}
	delete(s.profiles, id)
	return nil
}

type planReferencesStub struct {
	counts   map[string]int
	countErr error
}

func (s *planReferencesStub) CountByStudent(ctx context.Context, userID, studentID string) (int, error) {
	if s.countErr != nil {
		return 0, s.countErr
	}
	return s.counts[studentID], nil
}

func tutorStudent(id, user, first, last string) models.StudentProfileTutor {
	return models.StudentProfileTutor{StudentID: id, UserID: user, FirstName: first, LastName: last, Level: "GCSE"}
}

func TestStudentProfileServiceCreateTeacher(t *testing.T) {
	repo := newTeacherProfileRepoStub()
	cacheRepo := newMemoryCache()
	svc := NewStudentProfileService(repo, newTutorProfileRepoStub(), &planReferencesStub{}, newTestCache(cacheRepo), nil, zap.NewNop(), testListConfig())

	_, err := svc.CreateTeacher(context.Background(), "u1", TeacherProfileRequest{FirstName: "Ada"})
	assertAppError(t, err, appErrors.ErrValidation.Code)

	profile, err := svc.CreateTeacher(context.Background(), "u1", TeacherProfileRequest{FirstName: " Ada ", LastName: "Lovelace", ClassName: "7A"})
	require.NoError(t, err)
	assert.NotEmpty(t, profile.StudentID)
	assert.Equal(t, "Ada", profile.FirstName)
	assert.Contains(t, repo.profiles, profile.StudentID)
	assert.Contains(t, cacheRepo.invalidated, "profiles:teacher:u1*")
}

func TestStudentProfileServiceListTeacherFiltersAndSorts(t *testing.T) {
	repo := newTeacherProfileRepoStub(
		models.StudentProfileTeacher{StudentID: "s1", UserID: "u1", FirstName: "Zoe", LastName: "Adams", ClassName: "7A"},
		models.StudentProfileTeacher{StudentID: "s2", UserID: "u1", FirstName: "Alan", LastName: "Turing", ClassName: "7B"},
		models.StudentProfileTeacher{StudentID: "s3", UserID: "u1", FirstName: "Grace", LastName: "Hopper", ClassName: "7A"},
		models.StudentProfileTeacher{StudentID: "s4", UserID: "u2", FirstName: "Other", LastName: "User", ClassName: "7A"},
	)
	svc := NewStudentProfileService(repo, newTutorProfileRepoStub(), &planReferencesStub{}, nil, nil, zap.NewNop(), testListConfig())

	list, err := svc.ListTeacher(context.Background(), "u1", models.StudentProfileFilter{})
	require.NoError(t, err)
	require.Len(t, list.Items, 3)
	assert.Equal(t, "Adams", list.Items[0].LastName)
	assert.Equal(t, "Turing", list.Items[2].LastName)

	list, err = svc.ListTeacher(context.Background(), "u1", models.StudentProfileFilter{Group: "7a", ListOptions: models.ListOptions{SortBy: "first_name", SortOrder: models.SortDesc}})
	require.NoError(t, err)
	require.Len(t, list.Items, 2)
	assert.Equal(t, "Zoe", list.Items[0].FirstName)
	assert.Equal(t, "Grace", list.Items[1].FirstName)

	list, err = svc.ListTeacher(context.Background(), "u1", models.StudentProfileFilter{Search: "grace hop"})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "s3", list.Items[0].StudentID)
}

func TestStudentProfileServiceDeleteTeacherInvalidatesClasses(t *testing.T) {
	repo := newTeacherProfileRepoStub(models.StudentProfileTeacher{StudentID: "s1", UserID: "u1", FirstName: "A", LastName: "B"})
	cacheRepo := newMemoryCache()
	svc := NewStudentProfileService(repo, newTutorProfileRepoStub(), &planReferencesStub{}, newTestCache(cacheRepo), nil, zap.NewNop(), testListConfig())

	err := svc.DeleteTeacher(context.Background(), "u2", "s1")
	assertAppError(t, err, appErrors.ErrNotFound.Code)

	require.NoError(t, svc.DeleteTeacher(context.Background(), "u1", "s1"))
	assert.Contains(t, cacheRepo.invalidated, "profiles:teacher:u1*")
	assert.Contains(t, cacheRepo.invalidated, "classes:u1*")
}

func TestStudentProfileServiceUpdateTutorSyncsRename(t *testing.T) {
	repo := newTutorProfileRepoStub(tutorStudent("s1", "u1", "Ada", "Byron"))
	cacheRepo := newMemoryCache()
	svc := NewStudentProfileService(newTeacherProfileRepoStub(), repo, &planReferencesStub{}, newTestCache(cacheRepo), nil, zap.NewNop(), testListConfig())
	ctx := context.Background()

	_, err := svc.UpdateTutor(ctx, "u1", "s1", TutorProfileRequest{FirstName: "Ada", LastName: "Byron", Level: "A-Level"})
	require.NoError(t, err)
	assert.Empty(t, repo.renamed)
	assert.NotContains(t, cacheRepo.invalidated, "lessons:tutor:u1*")

	updated, err := svc.UpdateTutor(ctx, "u1", "s1", TutorProfileRequest{FirstName: "Ada", LastName: "Lovelace"})
	require.NoError(t, err)
	assert.Equal(t, "Lovelace", updated.LastName)
	assert.Equal(t, []string{"s1=Ada Lovelace"}, repo.renamed)
	assert.Contains(t, cacheRepo.invalidated, "lessons:tutor:u1*")
}

func TestStudentProfileServiceDeleteTutorConflict(t *testing.T) {
	repo := newTutorProfileRepoStub(tutorStudent("s1", "u1", "Ada", "Lovelace"), tutorStudent("s2", "u1", "Alan", "Turing"))
	refs := &planReferencesStub{counts: map[string]int{"s1": 2}}
	svc := NewStudentProfileService(newTeacherProfileRepoStub(), repo, refs, nil, nil, zap.NewNop(), testListConfig())
	ctx := context.Background()

	err := svc.DeleteTutor(ctx, "u1", "s1")
	assertAppError(t, err, appErrors.ErrConflict.Code)
	assert.Contains(t, repo.profiles, "s1")

	require.NoError(t, svc.DeleteTutor(ctx, "u1", "s2"))
	assert.NotContains(t, repo.profiles, "s2")

	refs.countErr = errors.New("db down")
	err = svc.DeleteTutor(ctx, "u1", "s1")
	assertAppError(t, err, appErrors.ErrInternal.Code)
}

func TestStudentProfileServiceListTutorByLevel(t *testing.T) {
	a := tutorStudent("s1", "u1", "Ada", "Lovelace")
	b := tutorStudent("s2", "u1", "Alan", "Turing")
	b.Level = "KS3"
	svc := NewStudentProfileService(newTeacherProfileRepoStub(), newTutorProfileRepoStub(a, b), &planReferencesStub{}, nil, nil, zap.NewNop(), testListConfig())

	list, err := svc.ListTutor(context.Background(), "u1", models.StudentProfileFilter{Group: "ks3"})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "s2", list.Items[0].StudentID)
	assert.Equal(t, 1, list.Pagination.TotalCount)
}

func TestStudentProfileServiceUpdateTutorFailureKeepsStoredName(t *testing.T) {
	repo := newTutorProfileRepoStub(tutorStudent("s1", "u1", "Ada", "Byron"))
	repo.updateErr = errors.New("sync tutor lesson plan names: db down")
	cacheRepo := newMemoryCache()
	svc := NewStudentProfileService(newTeacherProfileRepoStub(), repo, &planReferencesStub{}, newTestCache(cacheRepo), nil, zap.NewNop(), testListConfig())

	_, err := svc.UpdateTutor(context.Background(), "u1", "s1", TutorProfileRequest{FirstName: "Ada", LastName: "Lovelace"})
	assertAppError(t, err, appErrors.ErrInternal.Code)
	assert.Equal(t, "Byron", repo.profiles["s1"].LastName)
	assert.Empty(t, repo.renamed)
	assert.Empty(t, cacheRepo.invalidated)
}

func TestStudentProfileServiceDeleteTutorRacingPlanIsConflict(t *testing.T) {
	repo := newTutorProfileRepoStub(tutorStudent("s1", "u1", "Ada", "Lovelace"))
	repo.deleteErr = fmt.Errorf("delete tutor student profile: %w", &pq.Error{Code: "23503"})
	svc := NewStudentProfileService(newTeacherProfileRepoStub(), repo, &planReferencesStub{}, nil, nil, zap.NewNop(), testListConfig())

	err := svc.DeleteTutor(context.Background(), "u1", "s1")
	assertAppError(t, err, appErrors.ErrConflict.Code)
}

func TestStudentProfileServiceRejectsBlankNames(t *testing.T) {
	svc := NewStudentProfileService(newTeacherProfileRepoStub(), newTutorProfileRepoStub(), &planReferencesStub{}, nil, nil, zap.NewNop(), testListConfig())
	ctx := context.Background()

	_, err := svc.CreateTeacher(ctx, "u1", TeacherProfileRequest{FirstName: " ", LastName: "\t"})
	assertAppError(t, err, appErrors.ErrValidation.Code)
	assert.Equal(t, []string{"first_name", "last_name"}, appErrors.FromError(err).FieldNames())

	_, err = svc.CreateTutor(ctx, "u1", TutorProfileRequest{FirstName: "Ada", LastName: "   "})
	assertAppError(t, err, appErrors.ErrValidation.Code)
	assert.Equal(t, []string{"last_name"}, appErrors.FromError(err).FieldNames())
}
