package models

import "time"

// StudentProfileTeacher describes one pupil in a classroom teacher's roster.
type StudentProfileTeacher struct {
	StudentID               string    `db:"student_id" json:"student_id"`
	UserID                  string    `db:"user_id" json:"user_id"`
	FirstName               string    `db:"first_name" json:"first_name"`
	LastName                string    `db:"last_name" json:"last_name"`
	ClassName               string    `db:"class_name" json:"class_name"`
	Goals                   string    `db:"goals" json:"goals"`
	Interests               string    `db:"interests" json:"interests"`
	Strengths               string    `db:"strengths" json:"strengths"`
	Weaknesses              string    `db:"weaknesses" json:"weaknesses"`
	SpecialEducationalNeeds string    `db:"special_educational_needs" json:"special_educational_needs"`
	LearningPreferences     string    `db:"learning_preferences" json:"learning_preferences"`
	Notes                   string    `db:"notes" json:"notes"`
	CreatedAt               time.Time `db:"created_at" json:"created_at"`
	UpdatedAt               time.Time `db:"updated_at" json:"updated_at"`
}

// FullName joins first and last name.
func (p StudentProfileTeacher) FullName() string {
	return joinName(p.FirstName, p.LastName)
}

// StudentProfileTutor describes one private tutoring student.
type StudentProfileTutor struct {
	StudentID           string    `db:"student_id" json:"student_id"`
	UserID              string    `db:"user_id" json:"user_id"`
	FirstName           string    `db:"first_name" json:"first_name"`
	LastName            string    `db:"last_name" json:"last_name"`
	Level               string    `db:"level" json:"level"`
	Goals               string    `db:"goals" json:"goals"`
	Interests           string    `db:"interests" json:"interests"`
	Strengths           string    `db:"strengths" json:"strengths"`
	Weaknesses          string    `db:"weaknesses" json:"weaknesses"`
	SEN                 string    `db:"sen" json:"sen"`
	LearningPreferences string    `db:"learning_preferences" json:"learning_preferences"`
	Notes               string    `db:"notes" json:"notes"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}

// FullName joins first and last name.
func (p StudentProfileTutor) FullName() string {
	return joinName(p.FirstName, p.LastName)
}

// StudentProfileFilter narrows profile lists. Group matches class_name for
// teacher profiles and level for tutor profiles.
type StudentProfileFilter struct {
	Search string
	Group  string
	ListOptions
}

func joinName(first, last string) string {
	switch {
	case first == "":
		return last
	case last == "":
		return first
	default:
		return first + " " + last
	}
}
