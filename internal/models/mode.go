package models

import "time"

// Mode selects which dashboard variant a user works in.
type Mode string

const (
	ModeTeacher  Mode = "teacher"
	ModeTutor    Mode = "tutor"
	ModeStudent  Mode = "student"
	ModeDetailed Mode = "detailed"
)

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeTeacher, ModeTutor, ModeStudent, ModeDetailed:
		return true
	default:
		return false
	}
}

// View controls how much of a record list endpoints return.
type View string

const (
	ViewCard     View = "card"
	ViewDetailed View = "detailed"
)

// Bucket groups lessons by calendar date relative to today.
type Bucket string

const (
	BucketToday    Bucket = "today"
	BucketTomorrow Bucket = "tomorrow"
	BucketUpcoming Bucket = "upcoming"
	BucketPrevious Bucket = "previous"
)

// Valid reports whether b names a bucket.
func (b Bucket) Valid() bool {
	switch b {
	case BucketToday, BucketTomorrow, BucketUpcoming, BucketPrevious:
		return true
	default:
		return false
	}
}

// BucketCounts reports how many lessons fall in each bucket.
type BucketCounts struct {
	Today    int `json:"today"`
	Tomorrow int `json:"tomorrow"`
	Upcoming int `json:"upcoming"`
	Previous int `json:"previous"`
}

// UserPreference stores the dashboard mode a user last selected.
type UserPreference struct {
	UserID    string    `db:"user_id" json:"user_id"`
	Mode      Mode      `db:"mode" json:"mode"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
