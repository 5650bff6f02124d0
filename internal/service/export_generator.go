package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lessonplan-api/internal/listing"
	"github.com/noah-isme/lessonplan-api/internal/models"
	"github.com/noah-isme/lessonplan-api/pkg/export"
	"github.com/noah-isme/lessonplan-api/pkg/storage"
)

type teacherPlanSource interface {
	ListByUser(ctx context.Context, userID string) ([]models.LessonPlan, error)
}

type tutorPlanSource interface {
	ListByUser(ctx context.Context, userID string) ([]models.TutorLessonPlan, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ExportFormat
	Rows         int
	ExpiresAt    time.Time
}

// ExportGenerator builds lesson plan datasets and persists rendered files.
type ExportGenerator struct {
	teacherPlans teacherPlanSource
	tutorPlans   tutorPlanSource
	storage      fileStorage
	csv          csvRenderer
	pdf          pdfRenderer
	signer       *storage.SignedURLSigner
	logger       *zap.Logger
	cfg          ExportConfig
	now          func() time.Time
}

// NewExportGenerator constructs an ExportGenerator.
func NewExportGenerator(teacherPlans teacherPlanSource, tutorPlans tutorPlanSource, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = &export.CSVExporter{BOM: true}
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportGenerator{
		teacherPlans: teacherPlans,
		tutorPlans:   tutorPlans,
		storage:      store,
		csv:          csv,
		pdf:          pdf,
		signer:       signer,
		logger:       logger,
		cfg:          cfg,
		now:          time.Now,
	}
}

// Generate builds the dataset a job describes and stores the rendered file.
func (g *ExportGenerator) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	full, summary, title, err := g.buildDataset(ctx, job)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ExportFormatCSV:
		payload, err = g.csv.Render(full)
	case models.ExportFormatPDF:
		payload, err = g.pdf.Render(summary, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	relPath, err := g.storage.Save(g.buildFilename(job), payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := g.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(g.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/exports/download/%s", prefix, token),
		Format:       job.Params.Format,
		Rows:         len(full.Rows),
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (g *ExportGenerator) ParseToken(token string, allowExpired bool) (storage.SignedToken, error) {
	return g.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (g *ExportGenerator) Open(relPath string) (*os.File, error) {
	return g.storage.Open(relPath)
}

// Delete removes a stored export file.
func (g *ExportGenerator) Delete(relPath string) error {
	return g.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (g *ExportGenerator) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = g.cfg.ResultTTL
	}
	return g.storage.CleanupOlderThan(ttl)
}

func (g *ExportGenerator) buildFilename(job *models.ExportJob) string {
	timestamp := g.now().UTC().Format("20060102_150405")
	scope := job.Params.Class
	if scope == "" {
		scope = job.Params.StudentID
	}
	if scope == "" {
		scope = "all"
	}
	return fmt.Sprintf("%s_%s_%s_%s.%s", job.Kind, sanitizeFilename(strings.ToLower(scope)), timestamp, shortID(job.ID), job.Params.Format)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func (g *ExportGenerator) buildDataset(ctx context.Context, job *models.ExportJob) (export.Dataset, export.Dataset, string, error) {
	from, to, err := dateBounds(job.Params.From, job.Params.To)
	if err != nil {
		return export.Dataset{}, export.Dataset{}, "", err
	}
	switch job.Kind {
	case models.ExportKindLessonPlans:
		plans, err := g.teacherPlans.ListByUser(ctx, job.CreatedBy)
		if err != nil {
			return export.Dataset{}, export.Dataset{}, "", err
		}
		plans = listing.Filter(plans,
			func(p models.LessonPlan) bool { return listing.Equals(p.Class, job.Params.Class) },
			func(p models.LessonPlan) bool { return listing.InDateRange(p.DateOfLesson, from, to) },
		)
		listing.Sort(plans, teacherLessonQuery.sortKeys, "date_of_lesson", models.SortAsc, "date_of_lesson")
		return teacherPlansDataset(plans), teacherPlansSummary(plans), exportTitle("Lesson Plans", job.Params.Class, job.Params), nil
	case models.ExportKindTutorLessonPlans:
		plans, err := g.tutorPlans.ListByUser(ctx, job.CreatedBy)
		if err != nil {
			return export.Dataset{}, export.Dataset{}, "", err
		}
		var student listing.Predicate[models.TutorLessonPlan]
		if job.Params.StudentID != "" {
			student = func(p models.TutorLessonPlan) bool { return p.StudentID == job.Params.StudentID }
		}
		plans = listing.Filter(plans, student,
			func(p models.TutorLessonPlan) bool { return listing.InDateRange(p.DateOfLesson, from, to) },
		)
		listing.Sort(plans, tutorLessonQuery.sortKeys, "date_of_lesson", models.SortAsc, "date_of_lesson")
		scope := ""
		if len(plans) > 0 && job.Params.StudentID != "" {
			scope = strings.TrimSpace(plans[0].FirstName + " " + plans[0].LastName)
		}
		return tutorPlansDataset(plans), tutorPlansSummary(plans), exportTitle("Tutor Lesson Plans", scope, job.Params), nil
	default:
		return export.Dataset{}, export.Dataset{}, "", fmt.Errorf("unsupported export kind %s", job.Kind)
	}
}

func exportTitle(base, scope string, params models.ExportJobParams) string {
	title := base
	if scope != "" {
		title += " - " + scope
	}
	switch {
	case params.From != "" && params.To != "":
		title += fmt.Sprintf(" (%s to %s)", params.From, params.To)
	case params.From != "":
		title += fmt.Sprintf(" (from %s)", params.From)
	case params.To != "":
		title += fmt.Sprintf(" (until %s)", params.To)
	}
	return title
}
