package models

import "time"

// Class is a named teaching group owned by the teacher who created it.
type Class struct {
	ClassID   string    `db:"class_id" json:"class_id"`
	ClassName string    `db:"class_name" json:"class_name"`
	YearGroup string    `db:"year_group" json:"year_group"`
	CreatedBy string    `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ClassSummary adds the member count used by class list cards.
type ClassSummary struct {
	Class
	StudentCount int `db:"student_count" json:"student_count"`
}

// ClassWithStudents is a class together with its member profiles.
type ClassWithStudents struct {
	Class
	Students []StudentProfileTeacher `json:"students"`
}

// ClassFilter narrows class lists.
type ClassFilter struct {
	Search    string
	YearGroup string
	ListOptions
}
