package models

import (
	"time"

	"gorm.io/datatypes"
)

// Resource is a titled link attached to a lesson plan.
type Resource struct {
	Title string `json:"title"`
	URL   string `json:"url" validate:"omitempty,url"`
}

// LessonStage is one row of a lesson's structure table.
type LessonStage struct {
	Stage     string `json:"stage" validate:"required"`
	Duration  string `json:"duration"`
	Teaching  string `json:"teaching"`
	Learning  string `json:"learning"`
	Assessing string `json:"assessing"`
	Adapting  string `json:"adapting"`
}

// LessonPlan is a classroom teacher's plan for a single lesson.
type LessonPlan struct {
	ID              string                           `db:"id" json:"id"`
	UserID          string                           `db:"user_id" json:"user_id"`
	Class           string                           `db:"class" json:"class"`
	DateOfLesson    Date                             `db:"date_of_lesson" json:"date_of_lesson"`
	TimeOfLesson    string                           `db:"time_of_lesson" json:"time_of_lesson"`
	Topic           string                           `db:"topic" json:"topic"`
	Objectives      string                           `db:"objectives" json:"objectives"`
	Outcomes        string                           `db:"outcomes" json:"outcomes"`
	Resources       datatypes.JSONSlice[Resource]    `db:"resources" json:"resources"`
	Homework        string                           `db:"homework" json:"homework"`
	Evaluation      string                           `db:"evaluation" json:"evaluation"`
	Notes           string                           `db:"notes" json:"notes"`
	LessonStructure datatypes.JSONSlice[LessonStage] `db:"lesson_structure" json:"lesson_structure"`
	ExamBoard       string                           `db:"exam_board" json:"exam_board"`
	Subject         string                           `db:"subject" json:"subject"`
	YearGroup       string                           `db:"year_group" json:"year_group"`
	CreatedAt       time.Time                        `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time                        `db:"updated_at" json:"updated_at"`
}

// LessonPlanCard is the summary rendered on dashboard cards.
type LessonPlanCard struct {
	ID           string `json:"id"`
	Class        string `json:"class"`
	DateOfLesson Date   `json:"date_of_lesson"`
	TimeOfLesson string `json:"time_of_lesson"`
	Topic        string `json:"topic"`
	Subject      string `json:"subject"`
	YearGroup    string `json:"year_group"`
	ExamBoard    string `json:"exam_board"`
}

// Card projects the plan onto its card summary.
func (p LessonPlan) Card() LessonPlanCard {
	return LessonPlanCard{
		ID:           p.ID,
		Class:        p.Class,
		DateOfLesson: p.DateOfLesson,
		TimeOfLesson: p.TimeOfLesson,
		Topic:        p.Topic,
		Subject:      p.Subject,
		YearGroup:    p.YearGroup,
		ExamBoard:    p.ExamBoard,
	}
}

// LessonPlanFilter captures dashboard list criteria for teacher plans.
type LessonPlanFilter struct {
	Search    string
	Class     string
	Subject   string
	YearGroup string
	ExamBoard string
	From      Date
	To        Date
	Bucket    Bucket
	View      View
	ListOptions
}

// TutorLessonPlan is a private tutor's plan for a session with one student.
type TutorLessonPlan struct {
	ID              string                           `db:"id" json:"id"`
	UserID          string                           `db:"user_id" json:"user_id"`
	StudentID       string                           `db:"student_id" json:"student_id"`
	FirstName       string                           `db:"first_name" json:"first_name"`
	LastName        string                           `db:"last_name" json:"last_name"`
	DateOfLesson    Date                             `db:"date_of_lesson" json:"date_of_lesson"`
	TimeOfLesson    string                           `db:"time_of_lesson" json:"time_of_lesson"`
	Topic           string                           `db:"topic" json:"topic"`
	Objectives      string                           `db:"objectives" json:"objectives"`
	Outcomes        string                           `db:"outcomes" json:"outcomes"`
	Resources       datatypes.JSONSlice[Resource]    `db:"resources" json:"resources"`
	Homework        string                           `db:"homework" json:"homework"`
	Evaluation      string                           `db:"evaluation" json:"evaluation"`
	Notes           string                           `db:"notes" json:"notes"`
	LessonStructure datatypes.JSONSlice[LessonStage] `db:"lesson_structure" json:"lesson_structure"`
	Subject         string                           `db:"subject" json:"subject"`
	ExamBoard       string                           `db:"exam_board" json:"exam_board"`
	CreatedAt       time.Time                        `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time                        `db:"updated_at" json:"updated_at"`
}

// TutorLessonPlanCard is the tutor dashboard card summary.
type TutorLessonPlanCard struct {
	ID           string `json:"id"`
	StudentID    string `json:"student_id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	DateOfLesson Date   `json:"date_of_lesson"`
	TimeOfLesson string `json:"time_of_lesson"`
	Topic        string `json:"topic"`
	Subject      string `json:"subject"`
	ExamBoard    string `json:"exam_board"`
}

// Card projects the plan onto its card summary.
func (p TutorLessonPlan) Card() TutorLessonPlanCard {
	return TutorLessonPlanCard{
		ID:           p.ID,
		StudentID:    p.StudentID,
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		DateOfLesson: p.DateOfLesson,
		TimeOfLesson: p.TimeOfLesson,
		Topic:        p.Topic,
		Subject:      p.Subject,
		ExamBoard:    p.ExamBoard,
	}
}

// StudentLessonView is what a student sees of a tutor plan: tutor-only
// evaluation and notes are left out.
type StudentLessonView struct {
	ID              string        `json:"id"`
	DateOfLesson    Date          `json:"date_of_lesson"`
	TimeOfLesson    string        `json:"time_of_lesson"`
	Topic           string        `json:"topic"`
	Subject         string        `json:"subject"`
	Objectives      string        `json:"objectives"`
	Outcomes        string        `json:"outcomes"`
	Resources       []Resource    `json:"resources"`
	Homework        string        `json:"homework"`
	LessonStructure []LessonStage `json:"lesson_structure"`
}

// StudentView projects the plan onto the student facing view.
func (p TutorLessonPlan) StudentView() StudentLessonView {
	return StudentLessonView{
		ID:              p.ID,
		DateOfLesson:    p.DateOfLesson,
		TimeOfLesson:    p.TimeOfLesson,
		Topic:           p.Topic,
		Subject:         p.Subject,
		Objectives:      p.Objectives,
		Outcomes:        p.Outcomes,
		Resources:       []Resource(p.Resources),
		Homework:        p.Homework,
		LessonStructure: []LessonStage(p.LessonStructure),
	}
}

// TutorLessonPlanFilter captures dashboard list criteria for tutor plans.
type TutorLessonPlanFilter struct {
	Search    string
	StudentID string
	Subject   string
	ExamBoard string
	From      Date
	To        Date
	Bucket    Bucket
	View      View
	ListOptions
}
