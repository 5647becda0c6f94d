package dto

import "github.com/noah-isme/cbc-reportcard/internal/models"

// ReportRequest is the generator payload read from stdin.
type ReportRequest struct {
	Students     []models.StudentRecord `json:"students" validate:"min=1"`
	Term         *int                   `json:"term,omitempty"`
	AcademicYear *int                   `json:"academic_year,omitempty"`
	Mode         *string                `json:"mode,omitempty"`
}

// GenerateReportRequest captures POST /reports/generate. Grade narrows the
// student list before generation; empty or "all" keeps every student.
type GenerateReportRequest struct {
	ReportRequest
	Grade *string `json:"grade,omitempty"`
}

// ReportResult is a finished document plus the metadata callers report back.
type ReportResult struct {
	PDF          []byte
	Mode         models.ReportMode
	Term         int
	AcademicYear int
	Students     int
	Pages        int
}
