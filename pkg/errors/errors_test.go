package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	wrapped := fmt.Errorf("load: %w", Clone(ErrNotFound, "lesson plan not found"))

	got := FromError(wrapped)

	assert.Equal(t, ErrNotFound.Code, got.Code)
	assert.Equal(t, http.StatusNotFound, got.Status)
	assert.Equal(t, "lesson plan not found", got.Message)
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	got := FromError(errors.New("boom"))

	assert.Equal(t, ErrInternal.Code, got.Code)
	assert.Equal(t, http.StatusInternalServerError, got.Status)
	assert.EqualError(t, got, "internal server error: boom")
}

func TestCloneDoesNotMutateSentinel(t *testing.T) {
	clone := Clone(ErrRateLimited, "slow down")

	assert.Equal(t, "slow down", clone.Message)
	assert.Equal(t, "too many requests", ErrRateLimited.Message)
	assert.True(t, errors.Is(Wrap(ErrCacheMiss, "X", 500, "x"), ErrCacheMiss))
}

func TestIsMatchesClonesByCode(t *testing.T) {
	assert.True(t, errors.Is(Clone(ErrNotFound, "class not found"), ErrNotFound))
	assert.False(t, errors.Is(Clone(ErrNotFound, ""), ErrConflict))
}

type lessonPayload struct {
	Topic           string `validate:"required"`
	DateOfLesson    string `validate:"required"`
	LessonStructure []struct {
		Stage string `validate:"required"`
	} `validate:"dive"`
}

func TestValidationListsFields(t *testing.T) {
	payload := lessonPayload{LessonStructure: []struct {
		Stage string `validate:"required"`
	}{{}}}
	err := validator.New().Struct(payload)

	got := Validation(err, "invalid lesson plan payload")

	assert.Equal(t, http.StatusBadRequest, got.Status)
	assert.Equal(t, []string{"date_of_lesson", "lesson_structure[0].stage", "topic"}, got.FieldNames())
	assert.Equal(t, "is required", got.Fields["topic"])
}

func TestWithFieldCopies(t *testing.T) {
	got := ErrValidation.WithField("student_id", "unknown student")

	assert.Equal(t, "unknown student", got.Fields["student_id"])
	assert.Nil(t, ErrValidation.Fields)
}
