package service

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	appErrors "github.com/noah-isme/lessonplan-api/pkg/errors"
)

func TestRepoErrorMapsPostgresCodes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code string
	}{
		{"no rows", sql.ErrNoRows, appErrors.ErrNotFound.Code},
		{"malformed uuid", fmt.Errorf("find lesson plan: %w", &pq.Error{Code: "22P02"}), appErrors.ErrNotFound.Code},
		{"still referenced", &pq.Error{Code: "23503"}, appErrors.ErrConflict.Code},
		{"other pq error", &pq.Error{Code: "53300"}, appErrors.ErrInternal.Code},
		{"plain error", errors.New("boom"), appErrors.ErrInternal.Code},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := repoError(tc.err, "lesson plan not found", "failed to load lesson plan")
			assert.Equal(t, tc.code, appErrors.FromError(err).Code)
		})
	}
}
