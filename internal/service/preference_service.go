package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lessonplan-api/internal/models"
	appErrors "github.com/noah-isme/lessonplan-api/pkg/errors"
)

type preferenceRepository interface {
	Get(ctx context.Context, userID string) (*models.UserPreference, error)
	Upsert(ctx context.Context, pref *models.UserPreference) error
}

// UpdateModeRequest is the payload of PUT /me/mode.
type UpdateModeRequest struct {
	Mode models.Mode `json:"mode" validate:"required,oneof=teacher tutor student detailed"`
}

// PreferenceService stores the dashboard mode each user works in.
type PreferenceService struct {
	repo      preferenceRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPreferenceService constructs the preference service.
func NewPreferenceService(repo preferenceRepository, validate *validator.Validate, logger *zap.Logger) *PreferenceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PreferenceService{repo: repo, validator: validate, logger: logger}
}

// Mode returns the stored mode for a user, defaulting to teacher.
func (s *PreferenceService) Mode(ctx context.Context, userID string) (models.Mode, error) {
	pref, err := s.repo.Get(ctx, userID)
	if err != nil {
		if missingRow(err) {
			return models.ModeTeacher, nil
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load preference")
	}
	if !pref.Mode.Valid() {
		return models.ModeTeacher, nil
	}
	return pref.Mode, nil
}

// Me describes the authenticated user together with their mode.
func (s *PreferenceService) Me(ctx context.Context, claims *models.JWTClaims) (*models.UserInfo, error) {
	if claims == nil || claims.Identity() == "" {
		return nil, appErrors.ErrUnauthorized
	}
	mode, err := s.Mode(ctx, claims.Identity())
	if err != nil {
		return nil, err
	}
	return &models.UserInfo{
		ID:    claims.Identity(),
		Email: claims.Email,
		Name:  claims.FullName,
		Role:  claims.Role,
		Mode:  mode,
	}, nil
}

// SetMode validates and persists a new mode.
func (s *PreferenceService) SetMode(ctx context.Context, userID string, req UpdateModeRequest) (*models.UserPreference, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid mode payload")
	}
	pref := &models.UserPreference{UserID: userID, Mode: req.Mode, UpdatedAt: time.Now().UTC()}
	if err := s.repo.Upsert(ctx, pref); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save preference")
	}
	s.logger.Debug("mode updated", zap.String("user_id", userID), zap.String("mode", string(req.Mode)))
	return pref, nil
}
