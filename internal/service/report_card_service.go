package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/cbc-reportcard/internal/dto"
	"github.com/noah-isme/cbc-reportcard/internal/models"
	appErrors "github.com/noah-isme/cbc-reportcard/pkg/errors"
	"github.com/noah-isme/cbc-reportcard/pkg/export"
)

type reportFormatter interface {
	FormatReport(student models.StudentRecord, term, academicYear int) (*export.Rendered, error)
	FormatBulk(ctx context.Context, students []models.StudentRecord, term, academicYear int) (*export.Rendered, error)
}

// ReportCardConfig supplies the fallbacks used when a request omits term or year.
type ReportCardConfig struct {
	DefaultTerm         int
	DefaultAcademicYear int
}

// ReportCardService validates generation requests and dispatches them to the formatter.
type ReportCardService struct {
	formatter reportFormatter
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       ReportCardConfig
}

// NewReportCardService constructs the service.
func NewReportCardService(formatter reportFormatter, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger, cfg ReportCardConfig) *ReportCardService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultTerm <= 0 {
		cfg.DefaultTerm = 1
	}
	if cfg.DefaultAcademicYear <= 0 {
		cfg.DefaultAcademicYear = 2026
	}
	return &ReportCardService{
		formatter: formatter,
		validator: validate,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
	}
}

// Generate renders the request into a single PDF. Nothing is returned unless
// every requested card rendered.
func (s *ReportCardService) Generate(ctx context.Context, req dto.ReportRequest) (*dto.ReportResult, error) {
	if err := s.validate(req); err != nil {
		s.metrics.RecordRenderFailure()
		return nil, err
	}

	term := intOr(req.Term, s.cfg.DefaultTerm)
	year := intOr(req.AcademicYear, s.cfg.DefaultAcademicYear)
	mode := models.ReportModeBulk
	if req.Mode != nil {
		mode = models.ParseReportMode(*req.Mode)
	}

	start := time.Now()
	var (
		rendered *export.Rendered
		err      error
		cards    int
	)
	switch mode {
	case models.ReportModeSingle:
		cards = 1
		rendered, err = s.formatter.FormatReport(req.Students[0], term, year)
	default:
		cards = len(req.Students)
		rendered, err = s.formatter.FormatBulk(ctx, req.Students, term, year)
	}
	if err != nil {
		s.metrics.RecordRenderFailure()
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			s.logger.Sugar().Warnw("report generation abandoned", "mode", mode, "error", err)
			return nil, err
		}
		s.logger.Sugar().Errorw("report rendering failed", "mode", mode, "students", cards, "error", err)
		return nil, appErrors.Wrap(err, appErrors.ErrRenderFailed.Code, appErrors.ErrRenderFailed.Status, appErrors.ErrRenderFailed.Message)
	}

	elapsed := time.Since(start)
	s.metrics.ObserveRender(mode, cards, rendered.PageCount(), elapsed)
	s.logger.Sugar().Infow("report cards rendered",
		"mode", mode,
		"term", term,
		"academic_year", year,
		"students", cards,
		"pages", rendered.PageCount(),
		"bytes", len(rendered.Bytes),
		"duration", elapsed,
	)

	return &dto.ReportResult{
		PDF:          rendered.Bytes,
		Mode:         mode,
		Term:         term,
		AcademicYear: year,
		Students:     cards,
		Pages:        rendered.PageCount(),
	}, nil
}

func (s *ReportCardService) validate(req dto.ReportRequest) error {
	err := s.validator.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Field() == "Students" {
				return appErrors.ErrNoStudents
			}
		}
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report request")
}

// AllGrades is the grade filter value that selects every student. It is
// matched case-sensitively.
const AllGrades = "all"

// SelectByGrade keeps the students whose current grade equals grade exactly.
// An empty grade or AllGrades keeps everyone.
func SelectByGrade(students []models.StudentRecord, grade string) []models.StudentRecord {
	if grade == "" || grade == AllGrades {
		return students
	}
	selected := make([]models.StudentRecord, 0, len(students))
	for _, st := range students {
		if st.CurrentGrade != nil && *st.CurrentGrade == grade {
			selected = append(selected, st)
		}
	}
	return selected
}

func intOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}
