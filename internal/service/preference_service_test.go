package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/lessonplan-api/internal/models"
	appErrors "github.com/noah-isme/lessonplan-api/pkg/errors"
)

type preferenceRepoStub struct {
	stored *models.UserPreference
	err    error
}

func (s *preferenceRepoStub) Get(ctx context.Context, userID string) (*models.UserPreference, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.stored == nil || s.stored.UserID != userID {
		return nil, sql.ErrNoRows
	}
	cp := *s.stored
	return &cp, nil
}

func (s *preferenceRepoStub) Upsert(ctx context.Context, pref *models.UserPreference) error {
	if s.err != nil {
		return s.err
	}
	cp := *pref
	s.stored = &cp
	return nil
}

func TestPreferenceServiceModeDefaultsToTeacher(t *testing.T) {
	svc := NewPreferenceService(&preferenceRepoStub{}, nil, zap.NewNop())
	mode, err := svc.Mode(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, models.ModeTeacher, mode)

	svc = NewPreferenceService(&preferenceRepoStub{stored: &models.UserPreference{UserID: "u1", Mode: "legacy"}}, nil, zap.NewNop())
	mode, err = svc.Mode(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, models.ModeTeacher, mode)

	svc = NewPreferenceService(&preferenceRepoStub{err: errors.New("db down")}, nil, zap.NewNop())
	_, err = svc.Mode(context.Background(), "u1")
	assertAppError(t, err, appErrors.ErrInternal.Code)
}

func TestPreferenceServiceSetMode(t *testing.T) {
	repo := &preferenceRepoStub{}
	svc := NewPreferenceService(repo, nil, zap.NewNop())
	ctx := context.Background()

	_, err := svc.SetMode(ctx, "u1", UpdateModeRequest{Mode: "parent"})
	assertAppError(t, err, appErrors.ErrValidation.Code)
	assert.Nil(t, repo.stored)

	pref, err := svc.SetMode(ctx, "u1", UpdateModeRequest{Mode: models.ModeTutor})
	require.NoError(t, err)
	assert.Equal(t, models.ModeTutor, pref.Mode)

	mode, err := svc.Mode(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.ModeTutor, mode)
}

func TestPreferenceServiceMe(t *testing.T) {
	repo := &preferenceRepoStub{stored: &models.UserPreference{UserID: "u1", Mode: models.ModeDetailed}}
	svc := NewPreferenceService(repo, nil, zap.NewNop())

	claims := &models.JWTClaims{Email: "t@example.com", Role: models.RoleAuthenticated, FullName: "Terry Teacher"}
	claims.Subject = "u1"
	info, err := svc.Me(context.Background(), claims)
	require.NoError(t, err)
	assert.Equal(t, &models.UserInfo{ID: "u1", Email: "t@example.com", Name: "Terry Teacher", Role: models.RoleAuthenticated, Mode: models.ModeDetailed}, info)

	_, err = svc.Me(context.Background(), &models.JWTClaims{RegisteredClaims: jwt.RegisteredClaims{}})
	assertAppError(t, err, appErrors.ErrUnauthorized.Code)
}
