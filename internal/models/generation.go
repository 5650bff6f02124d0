package models

// GeneratedLessonPlan is the AI drafted content used to prefill lesson plan forms.
type GeneratedLessonPlan struct {
	Objectives      string        `json:"objectives"`
	Outcomes        string        `json:"outcomes"`
	Homework        string        `json:"homework"`
	Evaluation      string        `json:"evaluation"`
	Notes           string        `json:"notes"`
	Resources       []Resource    `json:"resources"`
	LessonStructure []LessonStage `json:"lesson_structure"`
}
