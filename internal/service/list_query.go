package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/noah-isme/lessonplan-api/internal/listing"
	"github.com/noah-isme/lessonplan-api/internal/models"
	appErrors "github.com/noah-isme/lessonplan-api/pkg/errors"
)

// ListConfig carries the calendar and paging defaults shared by list services.
type ListConfig struct {
	Location        *time.Location
	DefaultPageSize int
	Now             func() time.Time
}

func (c ListConfig) withDefaults() ListConfig {
	if c.Location == nil {
		c.Location = time.UTC
	}
	if c.DefaultPageSize <= 0 {
		c.DefaultPageSize = listing.DefaultPageSize
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// PlanList is one page of a lesson list together with bucket counts.
type PlanList struct {
	Items      interface{}         `json:"items"`
	Buckets    models.BucketCounts `json:"buckets"`
	Pagination models.Pagination   `json:"-"`
	CacheHit   bool                `json:"-"`
}

// ProfileList is one page of a profile or class list.
type ProfileList[T any] struct {
	Items      []T
	Pagination models.Pagination
	CacheHit   bool
}

// lessonQuery describes how one lesson type is searched, scheduled and sorted.
type lessonQuery[T any] struct {
	fields   func(T) []string
	when     listing.Scheduled[T]
	sortKeys listing.SortKeys[T]
}

// run filters, buckets, sorts and pages items. Without an explicit sort the
// bucket order is kept.
func (q lessonQuery[T]) run(items []T, cfg ListConfig, term string, bucket models.Bucket, opts models.ListOptions, predicates ...listing.Predicate[T]) ([]T, models.BucketCounts, models.Pagination) {
	matched := listing.Search(items, term, q.fields)
	matched = listing.Filter(matched, predicates...)
	buckets := listing.Bucket(matched, q.when, cfg.Now(), cfg.Location)
	selected := buckets.Get(bucket)
	if opts.SortBy != "" {
		sorted := make([]T, len(selected))
		copy(sorted, selected)
		listing.Sort(sorted, q.sortKeys, opts.SortBy, opts.SortOrder, "date_of_lesson")
		selected = sorted
	}
	size := opts.PageSize
	if size <= 0 {
		size = cfg.DefaultPageSize
	}
	page, meta := listing.Paginate(selected, opts.Page, size)
	return page, buckets.Counts(), meta
}

// lessonClock normalises an optional HH:MM time so that string order is
// chronological ("9:05" becomes "09:05").
func lessonClock(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	t, err := time.Parse("15:04", raw)
	if err != nil {
		return "", err
	}
	return t.Format("15:04"), nil
}

func lessonScheduleKey(date models.Date, clock string) string {
	return date.String() + "T" + clock
}

func timestampKey(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func dateBounds(from, to string) (models.Date, models.Date, error) {
	var lower, upper models.Date
	var err error
	if from != "" {
		if lower, err = models.ParseDate(from); err != nil {
			return lower, upper, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "from must be YYYY-MM-DD")
		}
	}
	if to != "" {
		if upper, err = models.ParseDate(to); err != nil {
			return lower, upper, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "to must be YYYY-MM-DD")
		}
	}
	return lower, upper, nil
}

const (
	pqInvalidTextRepresentation = "22P02"
	pqForeignKeyViolation       = "23503"
)

// missingRow reports lookups that matched nothing. A malformed uuid key can
// never match, so Postgres' invalid_text_representation counts as well.
func missingRow(err error) bool {
	if errors.Is(err, sql.ErrNoRows) {
		return true
	}
	return pqCode(err) == pqInvalidTextRepresentation
}

func foreignKeyViolation(err error) bool {
	return pqCode(err) == pqForeignKeyViolation
}

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// repoError maps repository errors onto typed API errors.
func repoError(err error, notFound, internal string) error {
	switch {
	case missingRow(err):
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	case foreignKeyViolation(err):
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "record is still referenced")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, internal)
}

func validationError(err error, message string) error {
	return appErrors.Validation(err, message)
}

func invalidate(ctx context.Context, cache *CacheService, namespace, userID string) {
	if cache != nil {
		cache.InvalidateUser(ctx, namespace, userID)
	}
}
