package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/noah-isme/cbc-reportcard/internal/models"
	"github.com/noah-isme/cbc-reportcard/pkg/config"
	"github.com/noah-isme/cbc-reportcard/pkg/export"
)

// pt converts typographic points to millimetres.
const pt = 25.4 / 72

const (
	contentWidth    = 210.0 - 2*14
	missingValue    = "—"
	unknownSubject  = "Unknown"
	noAssessments   = "No assessments recorded for this term."
	signatureFooter = "Date: __________________"
)

var (
	colorDark      = export.Hex("#0D1117")
	colorGold      = export.Hex("#C8A84B")
	colorGreen     = export.Hex("#1A4A3A")
	colorMidGray   = export.Hex("#6B7280")
	colorLightGray = export.Hex("#F3F4F6")
	colorBorder    = export.Hex("#E5E7EB")

	pageMargins = export.Margins{Left: 14, Top: 11, Right: 14, Bottom: 11}

	dateLayouts = []string{"2006-01-02", "20060102"}
)

type flowRenderer interface {
	Render(doc export.Document) (*export.Rendered, error)
}

// ReportFormatter turns student records into report card documents.
type ReportFormatter struct {
	school   config.SchoolConfig
	renderer flowRenderer
	now      func() time.Time
}

// NewReportFormatter constructs a formatter. A nil renderer falls back to the
// gofpdf exporter and a nil clock to time.Now.
func NewReportFormatter(school config.SchoolConfig, renderer flowRenderer, now func() time.Time) *ReportFormatter {
	if renderer == nil {
		renderer = export.NewPDFExporter()
	}
	if now == nil {
		now = time.Now
	}
	return &ReportFormatter{school: school, renderer: renderer, now: now}
}

// FormatReport renders one student's report card.
func (f *ReportFormatter) FormatReport(student models.StudentRecord, term, academicYear int) (*export.Rendered, error) {
	day := f.today()
	doc := f.document(day)
	doc.Title = "CBC Report – " + student.FullName
	doc.Flows = []export.Flow{f.Compose(student, term, academicYear, day)}
	return f.renderer.Render(doc)
}

// FormatBulk renders every student's report card into one document, in input
// order. Each card paginates exactly as it would on its own.
func (f *ReportFormatter) FormatBulk(ctx context.Context, students []models.StudentRecord, term, academicYear int) (*export.Rendered, error) {
	day := f.today()
	doc := f.document(day)
	doc.Title = fmt.Sprintf("CBC Reports – Term %d %d", term, academicYear)
	doc.Flows = make([]export.Flow, 0, len(students))
	for _, student := range students {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc.Flows = append(doc.Flows, f.Compose(student, term, academicYear, day))
	}
	return f.renderer.Render(doc)
}

func (f *ReportFormatter) today() time.Time {
	now := f.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

func (f *ReportFormatter) document(day time.Time) export.Document {
	return export.Document{
		Author:  f.school.Name,
		Subject: "Student Progress Report Card",
		Created: day,
		Margins: pageMargins,
	}
}

// Compose lays out one report card. The record is only read.
func (f *ReportFormatter) Compose(student models.StudentRecord, term, academicYear int, reportDate time.Time) export.Flow {
	var flow export.Flow
	f.header(&flow, term, academicYear)
	banner := fmt.Sprintf("STUDENT PROGRESS REPORT CARD  ·  %s  ·  %d", strings.ToUpper(termLabel(term)), academicYear)
	flow.Append(
		sectionBar(15*pt, banner),
		export.Spacer{Height: 6 * pt},
		details(student, reportDate),
		export.Spacer{Height: 8 * pt},
		legend(),
		export.Spacer{Height: 8 * pt},
		sectionBar(14*pt, "SUBJECT ASSESSMENTS"),
		export.Spacer{Height: 4 * pt},
		assessments(student.Assessments),
		export.Spacer{Height: 10 * pt},
		sectionBar(14*pt, "PERFORMANCE SUMMARY"),
		export.Spacer{Height: 4 * pt},
		summary(tally(student.Assessments)),
		export.Spacer{Height: 12 * pt},
		export.SignatureRow{
			Labels:     []string{"Class Teacher:", "Head Teacher:", "Parent / Guardian:"},
			LineLength: 50,
			Gap:        18 * pt,
			Span:       export.Span{Size: 7.5, Color: colorMidGray},
			Stroke:     export.Stroke{Color: colorMidGray, Width: 0.5 * pt},
			Footnote:   signatureFooter,
		},
		export.Spacer{Height: 6 * pt},
		export.Rule{Stroke: export.Stroke{Color: colorBorder, Width: 0.5 * pt}, SpaceAfter: 3 * pt},
		export.Paragraph{Span: export.Span{
			Text:  f.school.Name + "  ·  CBC School Management System  ·  Confidential – For addressee only",
			Size:  7,
			Color: colorMidGray,
			Align: export.AlignCenter,
		}},
	)
	return flow
}

func (f *ReportFormatter) header(flow *export.Flow, term, academicYear int) {
	flow.Append(
		export.Band{
			Widths: []float64{16, contentWidth - 38, 22},
			Cells: [][]export.Span{
				{{Text: f.school.Mark, Size: 22, Bold: true, Color: colorGold, Align: export.AlignCenter}},
				{
					{Text: strings.ToUpper(f.school.Name), Size: 17, Bold: true, Color: colorGreen, Align: export.AlignCenter},
					{Text: f.school.Tagline, Size: 8, Color: colorMidGray, Align: export.AlignCenter},
					{Text: f.school.Contact, Size: 7.5, Color: colorMidGray, Align: export.AlignCenter},
				},
				{
					{Text: fmt.Sprintf("Term %d", term), Size: 9, Color: colorGreen, Align: export.AlignRight},
					{Text: strconv.Itoa(academicYear), Size: 9, Bold: true, Color: colorGreen, Align: export.AlignRight},
				},
			},
		},
		export.Rule{Stroke: export.Stroke{Color: colorGold, Width: 1.5 * pt}, SpaceAfter: 5 * pt},
	)
}

func sectionBar(height float64, caption string) export.Bar {
	return export.Bar{
		Height:  height,
		Fill:    colorGreen,
		Caption: export.Span{Text: caption, Size: 8.5, Bold: true, Color: export.White},
	}
}

func details(student models.StudentRecord, reportDate time.Time) export.Table {
	pairs := [][4]string{
		{"Student Name:", placeholder(&student.FullName), "Student ID:", placeholder(student.ReadableID)},
		{"Date of Birth:", formatDate(student.DateOfBirth), "Gender:", placeholder(student.Gender)},
		{"Grade / Class:", placeholder(student.CurrentGrade), "Parent:", placeholder(student.ParentName)},
		{"Parent Phone:", placeholder(student.ParentPhone), "Report Date:", reportDate.Format("02 January 2006")},
	}

	label := func(text string) export.Span {
		return export.Span{Text: text, Size: 8.5, Bold: true, Color: colorGreen}
	}
	value := func(text string) export.Span {
		return export.Span{Text: text, Size: 8.5, Color: colorDark}
	}

	rows := make([]export.Row, len(pairs))
	for i, p := range pairs {
		fill := colorLightGray
		if i%2 == 1 {
			fill = export.White
		}
		rows[i] = export.Row{
			Cells: []export.Span{label(p[0]), value(p[1]), label(p[2]), value(p[3])},
			Fill:  &fill,
		}
	}

	half := contentWidth / 2
	return export.Table{
		Widths:  []float64{26, half - 26, 26, half - 26},
		Rows:    rows,
		Padding: export.Padding{Top: 3.5 * pt, Right: 6 * pt, Bottom: 3.5 * pt, Left: 6 * pt},
		Grid:    &export.Stroke{Color: colorBorder, Width: 0.3 * pt},
	}
}

func legend() export.Band {
	band := export.Band{}
	labelWidth := contentWidth/float64(len(models.Competencies)) - 11
	for _, c := range models.Competencies {
		bg := export.Hex(c.Background)
		band.Widths = append(band.Widths, 11, labelWidth)
		band.Cells = append(band.Cells,
			[]export.Span{{Text: c.Code, Size: 7, Bold: true, Color: export.Hex(c.Foreground), Align: export.AlignCenter, Badge: &bg}},
			[]export.Span{{Text: c.Label, Size: 7, Color: colorMidGray, Indent: 1}},
		)
	}
	return band
}

func assessments(entries []models.AssessmentEntry) export.Block {
	if len(entries) == 0 {
		return export.Paragraph{Span: export.Span{Text: noAssessments, Size: 8, Color: colorMidGray}}
	}

	th := func(text string, align export.Align) export.Span {
		return export.Span{Text: text, Size: 8, Bold: true, Color: export.White, Align: align}
	}
	table := export.Table{
		Widths: []float64{contentWidth * 0.32, 18, contentWidth * 0.41, contentWidth * 0.17},
		Header: []export.Span{
			th("Subject / Strand", export.AlignLeft),
			th("Score", export.AlignCenter),
			th("Remarks", export.AlignLeft),
			th("Teacher", export.AlignLeft),
		},
		HeaderFill: colorGreen,
		Padding:    export.Padding{Top: 3 * pt, Right: 4 * pt, Bottom: 3 * pt, Left: 5 * pt},
		Grid:       &export.Stroke{Color: colorBorder, Width: 0.3 * pt},
	}

	// Row numbers count the header as row 0; even rows from 2 on are shaded.
	index := 1
	add := func(row export.Row) {
		if index >= 2 && index%2 == 0 {
			fill := colorLightGray
			row.Fill = &fill
		}
		table.Rows = append(table.Rows, row)
		index++
	}

	for _, group := range groupBySubject(entries) {
		add(export.Row{
			Cells:        []export.Span{{Text: group.name, Size: 8, Bold: true, Color: colorGreen}},
			Merged:       true,
			KeepWithNext: true,
		})
		for _, e := range group.entries {
			add(export.Row{Cells: []export.Span{
				{Text: strandLabel(e.StrandID), Size: 8, Color: colorMidGray, Indent: 8 * pt},
				scoreSpan(e.Score),
				{Text: placeholder(e.TeacherRemarks), Size: 7.5, Color: colorDark},
				{Text: placeholder(e.TeacherName), Size: 7.5, Color: colorMidGray},
			}})
		}
	}
	return table
}

func scoreSpan(score *string) export.Span {
	code := ""
	if score != nil {
		code = *score
	}
	if c, ok := models.LookupCompetency(code); ok {
		bg := export.Hex(c.Background)
		return export.Span{Text: c.Code, Size: 8, Bold: true, Color: export.Hex(c.Foreground), Align: export.AlignCenter, Badge: &bg}
	}
	return export.Span{Text: placeholder(score), Size: 8, Color: colorDark, Align: export.AlignCenter}
}

func summary(counts []int) export.Table {
	total := 0
	for _, n := range counts {
		total += n
	}
	if total == 0 {
		total = 1
	}

	rows := make([]export.Row, len(models.Competencies))
	for i, c := range models.Competencies {
		fill := export.White
		if i%2 == 1 {
			fill = colorLightGray
		}
		n := counts[i]
		rows[i] = export.Row{
			Cells: []export.Span{
				{Text: c.Code + "  –  " + c.Label, Size: 8, Color: export.Hex(c.Foreground)},
				{Text: strandCount(n), Size: 8, Color: colorDark},
				{Text: percent(n, total), Size: 8, Color: colorDark, Align: export.AlignRight},
			},
			Fill: &fill,
		}
	}
	return export.Table{
		Widths:  []float64{contentWidth * 0.56, contentWidth * 0.25, contentWidth * 0.19},
		Rows:    rows,
		Padding: export.Padding{Top: 3 * pt, Right: 6 * pt, Bottom: 3 * pt, Left: 6 * pt},
		RowRule: &export.Stroke{Color: colorBorder, Width: 0.3 * pt},
	}
}

type subjectGroup struct {
	name    string
	entries []models.AssessmentEntry
}

// groupBySubject buckets entries by their literal subject string, keeping
// groups in order of first appearance.
func groupBySubject(entries []models.AssessmentEntry) []subjectGroup {
	var groups []subjectGroup
	index := make(map[string]int)
	for _, e := range entries {
		name := unknownSubject
		if e.SubjectName != nil {
			name = *e.SubjectName
		}
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, subjectGroup{name: name})
		}
		groups[i].entries = append(groups[i].entries, e)
	}
	return groups
}

// tally counts recognised scores per competency, in table order.
func tally(entries []models.AssessmentEntry) []int {
	counts := make([]int, len(models.Competencies))
	for _, e := range entries {
		if e.Score == nil {
			continue
		}
		for i, c := range models.Competencies {
			if c.Code == *e.Score {
				counts[i]++
				break
			}
		}
	}
	return counts
}

func strandCount(n int) string {
	if n == 1 {
		return "1 strand"
	}
	return fmt.Sprintf("%d strands", n)
}

func percent(n, total int) string {
	return fmt.Sprintf("%.0f%%", float64(n)/float64(total)*100)
}

func termLabel(term int) string {
	switch term {
	case 1:
		return "Term One"
	case 2:
		return "Term Two"
	case 3:
		return "Term Three"
	default:
		return fmt.Sprintf("Term %d", term)
	}
}

func strandLabel(strand *string) string {
	if strand == nil {
		return ""
	}
	return cases.Title(language.Und).String(strings.ReplaceAll(*strand, "-", " "))
}

// placeholder substitutes the missing-value dash for nil or empty text.
func placeholder(v *string) string {
	if v == nil || *v == "" {
		return missingValue
	}
	return *v
}

// formatDate renders an ISO calendar date as "02 January 2006". Text that is
// not a calendar date is shown as given.
func formatDate(v *string) string {
	if v == nil || *v == "" {
		return missingValue
	}
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, *v); err == nil {
			return d.Format("02 January 2006")
		}
	}
	return *v
}
