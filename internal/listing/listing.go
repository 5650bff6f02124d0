// Package listing holds the search, filter, date bucketing, sort and paging
// rules shared by every dashboard list.
package listing

import (
	"sort"
	"strings"
	"time"

	"github.com/noah-isme/lessonplan-api/internal/models"
)

const (
	// DefaultPageSize fills one three-by-three card grid.
	DefaultPageSize = 9
	// MaxPageSize caps a single page.
	MaxPageSize = 100
)

// Predicate reports whether an item is kept.
type Predicate[T any] func(T) bool

// Search keeps items where any field contains term, ignoring case and
// surrounding whitespace. An empty term keeps everything.
func Search[T any](items []T, term string, fields func(T) []string) []T {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return items
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		for _, field := range fields(item) {
			if strings.Contains(strings.ToLower(field), needle) {
				out = append(out, item)
				break
			}
		}
	}
	return out
}

// Filter keeps items matching every predicate. Nil predicates are skipped.
func Filter[T any](items []T, predicates ...Predicate[T]) []T {
	active := make([]Predicate[T], 0, len(predicates))
	for _, p := range predicates {
		if p != nil {
			active = append(active, p)
		}
	}
	if len(active) == 0 {
		return items
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		keep := true
		for _, p := range active {
			if !p(item) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, item)
		}
	}
	return out
}

// Equals compares case-insensitively; an empty want matches anything.
func Equals(value, want string) bool {
	want = strings.TrimSpace(want)
	if want == "" {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(value), want)
}

// InDateRange reports whether date lies within [from, to]. Zero bounds are open.
func InDateRange(date, from, to models.Date) bool {
	if !from.IsZero() && date.Before(from) {
		return false
	}
	if !to.IsZero() && to.Before(date) {
		return false
	}
	return true
}

// Today returns the calendar day of now in loc.
func Today(now time.Time, loc *time.Location) models.Date {
	if loc == nil {
		loc = time.UTC
	}
	return models.NewDate(now.In(loc))
}

// Classify places date into its bucket relative to today.
func Classify(date, today models.Date) models.Bucket {
	tomorrow := today.AddDays(1)
	switch {
	case date.Equal(today):
		return models.BucketToday
	case date.Equal(tomorrow):
		return models.BucketTomorrow
	case date.Before(today):
		return models.BucketPrevious
	default:
		return models.BucketUpcoming
	}
}

// Buckets holds items grouped by lesson date.
type Buckets[T any] struct {
	Today    []T
	Tomorrow []T
	Upcoming []T
	Previous []T
}

// Counts reports the size of every bucket.
func (b Buckets[T]) Counts() models.BucketCounts {
	return models.BucketCounts{
		Today:    len(b.Today),
		Tomorrow: len(b.Tomorrow),
		Upcoming: len(b.Upcoming),
		Previous: len(b.Previous),
	}
}

// Get returns the items of one bucket. An empty bucket name returns all items
// in today, tomorrow, upcoming, previous order.
func (b Buckets[T]) Get(bucket models.Bucket) []T {
	switch bucket {
	case models.BucketToday:
		return b.Today
	case models.BucketTomorrow:
		return b.Tomorrow
	case models.BucketUpcoming:
		return b.Upcoming
	case models.BucketPrevious:
		return b.Previous
	}
	all := make([]T, 0, len(b.Today)+len(b.Tomorrow)+len(b.Upcoming)+len(b.Previous))
	all = append(all, b.Today...)
	all = append(all, b.Tomorrow...)
	all = append(all, b.Upcoming...)
	return append(all, b.Previous...)
}

// Scheduled exposes the date and time of a lesson for bucketing.
type Scheduled[T any] func(T) (models.Date, string)

// Bucket groups items by calendar date relative to now in loc. Today, tomorrow
// and upcoming are ordered soonest first; previous is ordered most recent first.
func Bucket[T any](items []T, when Scheduled[T], now time.Time, loc *time.Location) Buckets[T] {
	today := Today(now, loc)
	var b Buckets[T]
	for _, item := range items {
		date, _ := when(item)
		switch Classify(date, today) {
		case models.BucketToday:
			b.Today = append(b.Today, item)
		case models.BucketTomorrow:
			b.Tomorrow = append(b.Tomorrow, item)
		case models.BucketPrevious:
			b.Previous = append(b.Previous, item)
		default:
			b.Upcoming = append(b.Upcoming, item)
		}
	}
	ascending := func(list []T) {
		sort.SliceStable(list, func(i, j int) bool {
			return scheduleKey(when(list[i])) < scheduleKey(when(list[j]))
		})
	}
	ascending(b.Today)
	ascending(b.Tomorrow)
	ascending(b.Upcoming)
	sort.SliceStable(b.Previous, func(i, j int) bool {
		return scheduleKey(when(b.Previous[i])) > scheduleKey(when(b.Previous[j]))
	})
	return b
}

func scheduleKey(date models.Date, clock string) string {
	return date.String() + "T" + strings.TrimSpace(clock)
}

// SortKeys maps whitelisted sort names to the string each item sorts by.
type SortKeys[T any] map[string]func(T) string

// Sort orders items in place by the named key. Unknown keys fall back to
// fallback; the order is ASC unless DESC is requested.
func Sort[T any](items []T, keys SortKeys[T], sortBy, order, fallback string) {
	key, ok := keys[sortBy]
	if !ok {
		key, ok = keys[fallback]
		if !ok {
			return
		}
	}
	desc := strings.EqualFold(order, models.SortDesc)
	sort.SliceStable(items, func(i, j int) bool {
		a, b := strings.ToLower(key(items[i])), strings.ToLower(key(items[j]))
		if desc {
			return a > b
		}
		return a < b
	})
}

// Paginate returns one page of items together with its metadata.
func Paginate[T any](items []T, page, size int) ([]T, models.Pagination) {
	page, size = Normalize(page, size, DefaultPageSize)
	total := len(items)
	pages := 0
	if total > 0 {
		pages = (total + size - 1) / size
	}
	meta := models.Pagination{Page: page, PageSize: size, TotalCount: total, TotalPages: pages}
	start := (page - 1) * size
	if start >= total {
		return []T{}, meta
	}
	end := start + size
	if end > total {
		end = total
	}
	return items[start:end], meta
}

// Normalize clamps page and size to valid values.
func Normalize(page, size, fallbackSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if fallbackSize <= 0 {
		fallbackSize = DefaultPageSize
	}
	if size <= 0 {
		size = fallbackSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}
