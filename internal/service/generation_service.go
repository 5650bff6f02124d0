package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lessonplan-api/internal/models"
	"github.com/noah-isme/lessonplan-api/pkg/ai"
	appErrors "github.com/noah-isme/lessonplan-api/pkg/errors"
)

type completionClient interface {
	Configured() bool
	CompleteJSON(ctx context.Context, messages []ai.Message) (string, error)
}

// GenerateLessonRequest is the payload of POST /generate-lesson.
type GenerateLessonRequest struct {
	Topic           string      `json:"topic" validate:"required,max=500"`
	Subject         string      `json:"subject" validate:"required,max=200"`
	YearGroup       string      `json:"year_group" validate:"max=100"`
	ExamBoard       string      `json:"exam_board" validate:"max=100"`
	Variant         models.Mode `json:"variant" validate:"omitempty,oneof=teacher tutor"`
	DurationMinutes int         `json:"duration_minutes" validate:"omitempty,min=5,max=480"`
	StudentID       string      `json:"student_id"`
	AdditionalNotes string      `json:"additional_notes" validate:"max=2000"`
}

const generationSystemPrompt = `You are an experienced UK teacher writing lesson plans.
Answer with a single JSON object with exactly these keys:
"objectives" (string), "outcomes" (string), "homework" (string), "evaluation" (string), "notes" (string),
"resources" (array of {"title": string, "url": string}),
"lesson_structure" (array of {"stage": string, "duration": string, "teaching": string, "learning": string, "assessing": string, "adapting": string}).
Do not add any other text.`

// GenerationService drafts lesson plan content with an AI model.
type GenerationService struct {
	client    completionClient
	students  tutorProfileFinder
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGenerationService constructs the generation service.
func NewGenerationService(client completionClient, students tutorProfileFinder, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *GenerationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GenerationService{client: client, students: students, metrics: metrics, validator: validate, logger: logger}
}

// Generate asks the model for a lesson plan draft. Failures are not retried.
func (s *GenerationService) Generate(ctx context.Context, userID string, req GenerateLessonRequest) (*models.GeneratedLessonPlan, error) {
	req.Topic = strings.TrimSpace(req.Topic)
	req.Subject = strings.TrimSpace(req.Subject)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid generation payload")
	}
	if s.client == nil || !s.client.Configured() {
		return nil, appErrors.Clone(appErrors.ErrServiceUnavailable, "lesson generation is not configured")
	}

	var student *models.StudentProfileTutor
	if req.Variant == models.ModeTutor && req.StudentID != "" {
		profile, err := s.students.FindByID(ctx, userID, req.StudentID)
		if err != nil {
			return nil, repoError(err, "student not found", "failed to load student")
		}
		student = profile
	}

	messages := []ai.Message{
		{Role: "system", Content: generationSystemPrompt},
		{Role: "user", Content: buildLessonPrompt(req, student)},
	}

	start := time.Now()
	content, err := s.client.CompleteJSON(ctx, messages)
	if err != nil {
		s.metrics.ObserveGeneration(appErrors.ErrUpstream.Code, time.Since(start))
		s.logger.Warn("lesson generation failed", zap.String("user_id", userID), zap.Error(err))
		if errors.Is(err, ai.ErrNotConfigured) {
			return nil, appErrors.Clone(appErrors.ErrServiceUnavailable, "lesson generation is not configured")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "lesson generation failed")
	}

	plan, err := parseGeneratedLesson(content)
	if err != nil {
		s.metrics.ObserveGeneration(appErrors.ErrUpstream.Code, time.Since(start))
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "lesson generation returned an unreadable answer")
	}
	s.metrics.ObserveGeneration("ok", time.Since(start))
	return plan, nil
}

func buildLessonPrompt(req GenerateLessonRequest, student *models.StudentProfileTutor) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a lesson plan on the topic %q for the subject %s.\n", strings.TrimSpace(req.Topic), strings.TrimSpace(req.Subject))
	if req.YearGroup != "" {
		fmt.Fprintf(&b, "Year group: %s.\n", req.YearGroup)
	}
	if req.ExamBoard != "" {
		fmt.Fprintf(&b, "Exam board: %s.\n", req.ExamBoard)
	}
	if req.DurationMinutes > 0 {
		fmt.Fprintf(&b, "The lesson lasts %d minutes; stage durations must add up to it.\n", req.DurationMinutes)
	}
	if req.Variant == models.ModeTutor {
		b.WriteString("This is a one to one private tutoring session.\n")
	} else {
		b.WriteString("This is a whole class lesson.\n")
	}
	if student != nil {
		b.WriteString("About the student:\n")
		writeIfSet(&b, "Level", student.Level)
		writeIfSet(&b, "Goals", student.Goals)
		writeIfSet(&b, "Strengths", student.Strengths)
		writeIfSet(&b, "Weaknesses", student.Weaknesses)
		writeIfSet(&b, "Special educational needs", student.SEN)
		writeIfSet(&b, "Learning preferences", student.LearningPreferences)
	}
	if notes := strings.TrimSpace(req.AdditionalNotes); notes != "" {
		fmt.Fprintf(&b, "Additional notes: %s\n", notes)
	}
	return b.String()
}

func writeIfSet(b *strings.Builder, label, value string) {
	if value = strings.TrimSpace(value); value != "" {
		fmt.Fprintf(b, "- %s: %s\n", label, value)
	}
}

func parseGeneratedLesson(content string) (*models.GeneratedLessonPlan, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	var plan models.GeneratedLessonPlan
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &plan); err != nil {
		return nil, fmt.Errorf("decode generated lesson: %w", err)
	}
	plan.Resources = nonNil(plan.Resources)
	plan.LessonStructure = nonNil(plan.LessonStructure)
	return &plan, nil
}
