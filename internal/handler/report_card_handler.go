package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/cbc-reportcard/internal/dto"
	"github.com/noah-isme/cbc-reportcard/internal/service"
	appErrors "github.com/noah-isme/cbc-reportcard/pkg/errors"
	"github.com/noah-isme/cbc-reportcard/pkg/response"
)

const allGrades = "All_Grades"

type reportGenerator interface {
	Generate(ctx context.Context, req dto.ReportRequest) (*dto.ReportResult, error)
}

// ReportCardHandler exposes report card generation over HTTP.
type ReportCardHandler struct {
	reports    reportGenerator
	schoolName string
	maxBody    int64
}

// NewReportCardHandler constructs handler. maxBody <= 0 disables the body limit.
func NewReportCardHandler(reports reportGenerator, schoolName string, maxBody int64) *ReportCardHandler {
	return &ReportCardHandler{reports: reports, schoolName: schoolName, maxBody: maxBody}
}

// Generate godoc
// @Summary Generate report cards
// @Description Renders one report card (mode=single) or a merged batch (default) as a PDF download.
// @Tags Reports
// @Accept json
// @Produce application/pdf
// @Param payload body dto.GenerateReportRequest true "Students and term"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Router /reports/generate [post]
func (h *ReportCardHandler) Generate(c *gin.Context) {
	if h.maxBody > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBody)
	}

	var req dto.GenerateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, appErrors.ErrPayloadTooLarge)
			return
		}
		response.Error(c, appErrors.Wrap(err, appErrors.ErrMalformedPayload.Code, appErrors.ErrMalformedPayload.Status, appErrors.ErrMalformedPayload.Message))
		return
	}

	grade := ""
	if req.Grade != nil {
		grade = *req.Grade
	}
	students := service.SelectByGrade(req.Students, grade)
	if len(students) == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrNoStudents, "No students found for the given filters."))
		return
	}
	req.Students = students

	result, err := h.reports.Generate(c.Request.Context(), req.ReportRequest)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Attachment(c, "application/pdf", reportFilename(h.schoolName, result.Term, result.AcademicYear, grade), result.PDF, map[string]string{
		"X-Student-Count": strconv.Itoa(len(students)),
		"X-Page-Count":    strconv.Itoa(result.Pages),
	})
}

// reportFilename builds "{School}_Reports_Term{t}_{year}_{grade}.pdf".
func reportFilename(school string, term, academicYear int, grade string) string {
	slug := allGrades
	if grade != "" && grade != service.AllGrades {
		slug = underscore(grade, '/')
	}
	return fmt.Sprintf("%s_Reports_Term%d_%d_%s.pdf", underscore(school), term, academicYear, slug)
}

// underscore replaces whitespace and any extra runes with '_'.
func underscore(s string, extra ...rune) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return '_'
		}
		for _, e := range extra {
			if r == e {
				return '_'
			}
		}
		return r
	}, s)
}
