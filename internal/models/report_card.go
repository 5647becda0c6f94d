package models

// StudentRecord is one learner as supplied by the calling application.
// Optional fields are pointers so that absent and null decode the same way.
type StudentRecord struct {
	FullName     string            `json:"full_name"`
	ReadableID   *string           `json:"readable_id,omitempty"`
	DateOfBirth  *string           `json:"date_of_birth,omitempty"`
	Gender       *string           `json:"gender,omitempty"`
	CurrentGrade *string           `json:"current_grade,omitempty"`
	ParentName   *string           `json:"parent_name,omitempty"`
	ParentPhone  *string           `json:"parent_phone,omitempty"`
	Assessments  []AssessmentEntry `json:"assessments"`
}

// AssessmentEntry is a single strand assessment. Term and AcademicYear are
// carried through untouched; selection by term is the caller's job.
type AssessmentEntry struct {
	SubjectName    *string `json:"subject_name,omitempty"`
	StrandID       *string `json:"strand_id,omitempty"`
	Score          *string `json:"score,omitempty"`
	TeacherRemarks *string `json:"teacher_remarks,omitempty"`
	TeacherName    *string `json:"teacher_name,omitempty"`
	Term           *int    `json:"term,omitempty"`
	AcademicYear   *int    `json:"academic_year,omitempty"`
}

// ReportMode selects between a single report card and a merged batch.
type ReportMode string

const (
	ReportModeSingle ReportMode = "single"
	ReportModeBulk   ReportMode = "bulk"
)

// ParseReportMode maps the raw request value onto a mode. Only "single" is
// special; everything else, including an empty value, is a bulk run.
func ParseReportMode(raw string) ReportMode {
	if ReportMode(raw) == ReportModeSingle {
		return ReportModeSingle
	}
	return ReportModeBulk
}

// Competency is one level of the CBC rating scale.
type Competency struct {
	Code       string
	Label      string
	Foreground string
	Background string
}

// Competencies is the closed rating scale in display order.
var Competencies = []Competency{
	{Code: "EE", Label: "Exceeds Expectation", Foreground: "#166534", Background: "#DCFCE7"},
	{Code: "ME", Label: "Meets Expectation", Foreground: "#1D4ED8", Background: "#DBEAFE"},
	{Code: "AE", Label: "Approaching Expectation", Foreground: "#92400E", Background: "#FEF3C7"},
	{Code: "BE", Label: "Below Expectation", Foreground: "#991B1B", Background: "#FEE2E2"},
}

// LookupCompetency resolves an exact, case-sensitive score code.
func LookupCompetency(code string) (Competency, bool) {
	for _, c := range Competencies {
		if c.Code == code {
			return c, true
		}
	}
	return Competency{}, false
}
