package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/lessonplan-api/internal/models"
	appErrors "github.com/noah-isme/lessonplan-api/pkg/errors"
	"github.com/noah-isme/lessonplan-api/pkg/export"
)

type teacherPlanGetter interface {
	Get(ctx context.Context, userID, id string) (*models.LessonPlan, error)
}

type tutorPlanGetter interface {
	Get(ctx context.Context, userID, id string) (*models.TutorLessonPlan, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
	RenderDocument(doc export.Document) ([]byte, error)
}

// Rendered is a file produced for download.
type Rendered struct {
	Filename    string
	ContentType string
	Body        []byte
}

// PrintService renders a single lesson plan for printing.
type PrintService struct {
	teacherPlans teacherPlanGetter
	tutorPlans   tutorPlanGetter
	csv          csvRenderer
	pdf          pdfRenderer
	logger       *zap.Logger
}

// NewPrintService constructs the print service.
func NewPrintService(teacherPlans teacherPlanGetter, tutorPlans tutorPlanGetter, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *PrintService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PrintService{teacherPlans: teacherPlans, tutorPlans: tutorPlans, csv: csv, pdf: pdf, logger: logger}
}

// PrintTeacherPlan renders a teacher plan as PDF or CSV.
func (s *PrintService) PrintTeacherPlan(ctx context.Context, userID, id string, format models.ExportFormat) (*Rendered, error) {
	if err := checkFormat(format); err != nil {
		return nil, err
	}
	plan, err := s.teacherPlans.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	name := planFilename(plan.Topic, plan.DateOfLesson, format)
	if format == models.ExportFormatCSV {
		return s.renderCSV(name, teacherPlansDataset([]models.LessonPlan{*plan}))
	}
	return s.renderPDF(name, teacherPlanDocument(*plan))
}

// PrintTutorPlan renders a tutor plan as PDF or CSV.
func (s *PrintService) PrintTutorPlan(ctx context.Context, userID, id string, format models.ExportFormat) (*Rendered, error) {
	if err := checkFormat(format); err != nil {
		return nil, err
	}
	plan, err := s.tutorPlans.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	name := planFilename(plan.Topic, plan.DateOfLesson, format)
	if format == models.ExportFormatCSV {
		return s.renderCSV(name, tutorPlansDataset([]models.TutorLessonPlan{*plan}))
	}
	return s.renderPDF(name, tutorPlanDocument(*plan))
}

func (s *PrintService) renderCSV(name string, data export.Dataset) (*Rendered, error) {
	body, err := s.csv.Render(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return &Rendered{Filename: name, ContentType: "text/csv; charset=utf-8", Body: body}, nil
}

func (s *PrintService) renderPDF(name string, doc export.Document) (*Rendered, error) {
	body, err := s.pdf.RenderDocument(doc)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	return &Rendered{Filename: name, ContentType: "application/pdf", Body: body}, nil
}

func checkFormat(format models.ExportFormat) error {
	if format != models.ExportFormatCSV && format != models.ExportFormatPDF {
		return appErrors.Clone(appErrors.ErrValidation, "format must be pdf or csv")
	}
	return nil
}

func planFilename(topic string, date models.Date, format models.ExportFormat) string {
	base := sanitizeFilename(strings.ToLower(strings.TrimSpace(topic)))
	if d := date.String(); d != "" {
		base = d + "_" + base
	}
	return fmt.Sprintf("lesson_%s.%s", base, format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "\"", "", "'", "")
	result := replacer.Replace(raw)
	if len(result) > 60 {
		return result[:60]
	}
	return result
}

var lessonStructureHeaders = []string{"Stage", "Duration", "Teaching", "Learning", "Assessing", "Adapting"}

func lessonStructureTable(stages []models.LessonStage) *export.Dataset {
	if len(stages) == 0 {
		return nil
	}
	table := &export.Dataset{Headers: lessonStructureHeaders}
	for _, st := range stages {
		table.Add(st.Stage, st.Duration, st.Teaching, st.Learning, st.Assessing, st.Adapting)
	}
	return table
}

func formatResources(resources []models.Resource) string {
	lines := make([]string, 0, len(resources))
	for _, r := range resources {
		switch {
		case r.Title != "" && r.URL != "":
			lines = append(lines, fmt.Sprintf("%s (%s)", r.Title, r.URL))
		case r.Title != "":
			lines = append(lines, r.Title)
		case r.URL != "":
			lines = append(lines, r.URL)
		}
	}
	return strings.Join(lines, "\n")
}

func formatStages(stages []models.LessonStage) string {
	parts := make([]string, 0, len(stages))
	for _, st := range stages {
		if st.Duration != "" {
			parts = append(parts, fmt.Sprintf("%s (%s)", st.Stage, st.Duration))
			continue
		}
		parts = append(parts, st.Stage)
	}
	return strings.Join(parts, "; ")
}

func scheduleLabel(date models.Date, clock string) string {
	label := date.String()
	if clock != "" {
		label += " " + clock
	}
	return label
}

func teacherPlanDocument(p models.LessonPlan) export.Document {
	subtitle := strings.Join(nonEmpty(p.Class, p.Subject, p.YearGroup, p.ExamBoard, scheduleLabel(p.DateOfLesson, p.TimeOfLesson)), " | ")
	return export.Document{
		Title:    p.Topic,
		Subtitle: subtitle,
		Fields: []export.Field{
			{Label: "Objectives", Value: p.Objectives},
			{Label: "Outcomes", Value: p.Outcomes},
			{Label: "Resources", Value: formatResources(p.Resources)},
			{Label: "Homework", Value: p.Homework},
			{Label: "Evaluation", Value: p.Evaluation},
			{Label: "Notes", Value: p.Notes},
		},
		Table: lessonStructureTable(p.LessonStructure),
	}
}

func tutorPlanDocument(p models.TutorLessonPlan) export.Document {
	student := strings.TrimSpace(p.FirstName + " " + p.LastName)
	subtitle := strings.Join(nonEmpty(student, p.Subject, p.ExamBoard, scheduleLabel(p.DateOfLesson, p.TimeOfLesson)), " | ")
	return export.Document{
		Title:    p.Topic,
		Subtitle: subtitle,
		Fields: []export.Field{
			{Label: "Objectives", Value: p.Objectives},
			{Label: "Outcomes", Value: p.Outcomes},
			{Label: "Resources", Value: formatResources(p.Resources)},
			{Label: "Homework", Value: p.Homework},
			{Label: "Evaluation", Value: p.Evaluation},
			{Label: "Notes", Value: p.Notes},
		},
		Table: lessonStructureTable(p.LessonStructure),
	}
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

func teacherPlansDataset(plans []models.LessonPlan) export.Dataset {
	data := export.Dataset{Headers: []string{"Date", "Time", "Class", "Subject", "Year Group", "Exam Board", "Topic", "Objectives", "Outcomes", "Resources", "Homework", "Evaluation", "Notes", "Lesson Structure"}}
	for _, p := range plans {
		data.Add(p.DateOfLesson.String(), p.TimeOfLesson, p.Class, p.Subject, p.YearGroup, p.ExamBoard, p.Topic,
			p.Objectives, p.Outcomes, formatResources(p.Resources), p.Homework, p.Evaluation, p.Notes, formatStages(p.LessonStructure))
	}
	return data
}

func tutorPlansDataset(plans []models.TutorLessonPlan) export.Dataset {
	data := export.Dataset{Headers: []string{"Date", "Time", "First Name", "Last Name", "Subject", "Exam Board", "Topic", "Objectives", "Outcomes", "Resources", "Homework", "Evaluation", "Notes", "Lesson Structure"}}
	for _, p := range plans {
		data.Add(p.DateOfLesson.String(), p.TimeOfLesson, p.FirstName, p.LastName, p.Subject, p.ExamBoard, p.Topic,
			p.Objectives, p.Outcomes, formatResources(p.Resources), p.Homework, p.Evaluation, p.Notes, formatStages(p.LessonStructure))
	}
	return data
}

// teacherPlansSummary is the narrow table used when many plans go to one PDF.
func teacherPlansSummary(plans []models.LessonPlan) export.Dataset {
	data := export.Dataset{Headers: []string{"Date", "Time", "Class", "Subject", "Topic", "Objectives"}}
	for _, p := range plans {
		data.Add(p.DateOfLesson.String(), p.TimeOfLesson, p.Class, p.Subject, p.Topic, p.Objectives)
	}
	return data
}

func tutorPlansSummary(plans []models.TutorLessonPlan) export.Dataset {
	data := export.Dataset{Headers: []string{"Date", "Time", "Student", "Subject", "Topic", "Objectives"}}
	for _, p := range plans {
		data.Add(p.DateOfLesson.String(), p.TimeOfLesson, strings.TrimSpace(p.FirstName+" "+p.LastName), p.Subject, p.Topic, p.Objectives)
	}
	return data
}
