package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cbc-reportcard/internal/models"
	"github.com/noah-isme/cbc-reportcard/pkg/config"
	"github.com/noah-isme/cbc-reportcard/pkg/export"
)

var testSchool = config.SchoolConfig{
	Name:    "Kibali Academy",
	Mark:    "KA",
	Tagline: "Competency-Based Curriculum · Nairobi, Kenya",
	Contact: "Tel: +254 700 000 000  ·  admin@kibali.ac.ke",
}

func strPtr(s string) *string { return &s }

func fixedClock() time.Time {
	return time.Date(2026, time.March, 14, 16, 45, 0, 0, time.UTC)
}

func entry(subject, strand, score string) models.AssessmentEntry {
	return models.AssessmentEntry{
		SubjectName:    strPtr(subject),
		StrandID:       strPtr(strand),
		Score:          strPtr(score),
		TeacherRemarks: strPtr("Good progress"),
		TeacherName:    strPtr("Mr. Otieno"),
	}
}

func sampleStudent(name string, entries ...models.AssessmentEntry) models.StudentRecord {
	return models.StudentRecord{
		FullName:     name,
		ReadableID:   strPtr("KA-0001"),
		DateOfBirth:  strPtr("2014-03-09"),
		CurrentGrade: strPtr("Grade 4"),
		Assessments:  entries,
	}
}

func newTestFormatter() *ReportFormatter {
	return NewReportFormatter(testSchool, export.NewPDFExporter(), fixedClock)
}

func findTables(flow export.Flow) []export.Table {
	var tables []export.Table
	for _, b := range flow.Blocks {
		if t, ok := b.(export.Table); ok {
			tables = append(tables, t)
		}
	}
	return tables
}

func cellTexts(row export.Row) []string {
	out := make([]string, len(row.Cells))
	for i, c := range row.Cells {
		out[i] = c.Text
	}
	return out
}

func TestComposeWithoutAssessments(t *testing.T) {
	f := newTestFormatter()
	flow := f.Compose(sampleStudent("Amani Wanjiru"), 1, 2026, fixedClock())

	var placeholderLine bool
	for _, b := range flow.Blocks {
		if p, ok := b.(export.Paragraph); ok && p.Span.Text == noAssessments {
			placeholderLine = true
		}
	}
	require.True(t, placeholderLine)

	// details + summary only; no assessment table
	tables := findTables(flow)
	require.Len(t, tables, 2)
	summary := tables[1]
	require.Len(t, summary.Rows, 4)
	for i, row := range summary.Rows {
		texts := cellTexts(row)
		assert.Equal(t, models.Competencies[i].Code+"  –  "+models.Competencies[i].Label, texts[0])
		assert.Equal(t, "0 strands", texts[1])
		assert.Equal(t, "0%", texts[2])
	}
}

func TestComposeDetailsGrid(t *testing.T) {
	f := newTestFormatter()
	student := models.StudentRecord{FullName: "Baraka Mwangi", DateOfBirth: strPtr("not-a-date")}
	flow := f.Compose(student, 2, 2025, fixedClock())

	details := findTables(flow)[0]
	require.Len(t, details.Rows, 4)
	require.Equal(t, []string{"Student Name:", "Baraka Mwangi", "Student ID:", "—"}, cellTexts(details.Rows[0]))
	require.Equal(t, []string{"Date of Birth:", "not-a-date", "Gender:", "—"}, cellTexts(details.Rows[1]))
	require.Equal(t, []string{"Grade / Class:", "—", "Parent:", "—"}, cellTexts(details.Rows[2]))
	require.Equal(t, []string{"Parent Phone:", "—", "Report Date:", "14 March 2026"}, cellTexts(details.Rows[3]))

	require.Nil(t, student.ReadableID)
	require.Nil(t, student.Assessments)
}

func TestComposeBannerAndHeader(t *testing.T) {
	f := newTestFormatter()
	flow := f.Compose(sampleStudent("Amani"), 3, 2026, fixedClock())

	header, ok := flow.Blocks[0].(export.Band)
	require.True(t, ok)
	require.Equal(t, "KA", header.Cells[0][0].Text)
	require.Equal(t, "KIBALI ACADEMY", header.Cells[1][0].Text)
	require.Equal(t, "Term 3", header.Cells[2][0].Text)
	require.Equal(t, "2026", header.Cells[2][1].Text)

	var captions []string
	for _, b := range flow.Blocks {
		if bar, ok := b.(export.Bar); ok {
			captions = append(captions, bar.Caption.Text)
		}
	}
	require.Equal(t, []string{
		"STUDENT PROGRESS REPORT CARD  ·  TERM THREE  ·  2026",
		"SUBJECT ASSESSMENTS",
		"PERFORMANCE SUMMARY",
	}, captions)

	last, ok := flow.Blocks[len(flow.Blocks)-1].(export.Paragraph)
	require.True(t, ok)
	require.Equal(t, "Kibali Academy  ·  CBC School Management System  ·  Confidential – For addressee only", last.Span.Text)
}

func TestComposeGroupsAssessmentsBySubject(t *testing.T) {
	f := newTestFormatter()
	student := sampleStudent("Amani",
		entry("Mathematics", "number-sense", "EE"),
		entry("English", "reading-fluency", "ME"),
		entry("Mathematics", "geometry", "XX"),
		entry("Mathematics ", "measurement", "BE"),
		models.AssessmentEntry{StrandID: strPtr("oral-skills")},
	)
	flow := f.Compose(student, 1, 2026, fixedClock())
	table := findTables(flow)[1]

	require.Equal(t, "Subject / Strand", table.Header[0].Text)

	var subjects []string
	for _, row := range table.Rows {
		if row.KeepWithNext {
			require.True(t, row.Merged)
			require.Len(t, row.Cells, 1)
			subjects = append(subjects, row.Cells[0].Text)
		}
	}
	require.Equal(t, []string{"Mathematics", "English", "Mathematics ", "Unknown"}, subjects)

	// Mathematics header followed by its two strands in input order.
	require.Equal(t, "Number Sense", table.Rows[1].Cells[0].Text)
	require.Equal(t, "Geometry", table.Rows[2].Cells[0].Text)

	ee := table.Rows[1].Cells[1]
	require.NotNil(t, ee.Badge)
	require.Equal(t, export.Hex("#DCFCE7"), *ee.Badge)
	require.Equal(t, export.Hex("#166534"), ee.Color)

	unknown := table.Rows[2].Cells[1]
	require.Nil(t, unknown.Badge)
	require.Equal(t, "XX", unknown.Text)

	missing := table.Rows[len(table.Rows)-1]
	require.Equal(t, "—", missing.Cells[1].Text)
	require.Equal(t, "—", missing.Cells[2].Text)
	require.Equal(t, "—", missing.Cells[3].Text)

	// Rows 2, 4, ... counting the header as row 0 are shaded.
	for i, row := range table.Rows {
		shaded := i+1 >= 2 && (i+1)%2 == 0
		assert.Equal(t, shaded, row.Fill != nil, "row %d", i+1)
	}
}

func TestComposeSummaryExcludesUnrecognisedScores(t *testing.T) {
	f := newTestFormatter()
	student := sampleStudent("Amani",
		entry("Maths", "a", "EE"),
		entry("Maths", "b", "EE"),
		entry("Maths", "c", "ME"),
		entry("Maths", "d", "ee"),
		entry("Maths", "e", ""),
	)
	summary := findTables(f.Compose(student, 1, 2026, fixedClock()))[2]

	require.Equal(t, []string{"EE  –  Exceeds Expectation", "2 strands", "67%"}, cellTexts(summary.Rows[0]))
	require.Equal(t, []string{"ME  –  Meets Expectation", "1 strand", "33%"}, cellTexts(summary.Rows[1]))
	require.Equal(t, "0%", summary.Rows[2].Cells[2].Text)
	require.Equal(t, "0%", summary.Rows[3].Cells[2].Text)
}

func TestFormatHelpers(t *testing.T) {
	require.Equal(t, "09 March 2014", formatDate(strPtr("2014-03-09")))
	require.Equal(t, "09 March 2014", formatDate(strPtr("20140309")))
	require.Equal(t, "09/03/2014", formatDate(strPtr("09/03/2014")))
	require.Equal(t, "—", formatDate(nil))
	require.Equal(t, "—", formatDate(strPtr("")))

	require.Equal(t, "Term One", termLabel(1))
	require.Equal(t, "Term Two", termLabel(2))
	require.Equal(t, "Term Three", termLabel(3))
	require.Equal(t, "Term 7", termLabel(7))

	require.Equal(t, "Number Sense", strandLabel(strPtr("number-sense")))
	require.Equal(t, "", strandLabel(nil))

	require.Equal(t, "—", placeholder(nil))
	require.Equal(t, "—", placeholder(strPtr("")))
	require.Equal(t, "x", placeholder(strPtr("x")))
}

func TestFormatBulkConcatenatesStudents(t *testing.T) {
	f := newTestFormatter()
	var many []models.AssessmentEntry
	for i := 0; i < 60; i++ {
		many = append(many, entry("Science", "strand", "AE"))
	}
	students := []models.StudentRecord{
		sampleStudent("Amani"),
		sampleStudent("Baraka", many...),
		sampleStudent("Chebet", entry("Art", "drawing", "ME")),
	}

	expected := make([]int, len(students))
	for i, s := range students {
		single, err := f.FormatReport(s, 1, 2026)
		require.NoError(t, err)
		expected[i] = single.PageCount()
	}
	require.Greater(t, expected[1], 1)

	bulk, err := f.FormatBulk(context.Background(), students, 1, 2026)
	require.NoError(t, err)
	require.Equal(t, expected, bulk.Pages)
	require.Equal(t, expected[0]+expected[1]+expected[2], bytes.Count(bulk.Bytes, []byte("<</Type /Page\n")))
}

func TestFormatReportRejectsRemarkLongerThanPage(t *testing.T) {
	long := entry("English", "writing", "ME")
	long.TeacherRemarks = strPtr(strings.Repeat("Remarkably thorough work on every essay this term. ", 400))

	out, err := newTestFormatter().FormatReport(sampleStudent("Amani", long), 1, 2026)
	require.Nil(t, out)
	require.True(t, errors.Is(err, export.ErrBlockTooTall), "got %v", err)
}

func TestFormatIsDeterministic(t *testing.T) {
	students := []models.StudentRecord{
		sampleStudent("Amani", entry("Maths", "a", "EE")),
		sampleStudent("Baraka", entry("English", "b", "BE")),
	}

	a, err := newTestFormatter().FormatBulk(context.Background(), students, 1, 2026)
	require.NoError(t, err)
	b, err := newTestFormatter().FormatBulk(context.Background(), students, 1, 2026)
	require.NoError(t, err)
	require.True(t, bytes.Equal(a.Bytes, b.Bytes))

	c, err := newTestFormatter().FormatReport(students[0], 1, 2026)
	require.NoError(t, err)
	d, err := newTestFormatter().FormatReport(students[0], 1, 2026)
	require.NoError(t, err)
	require.True(t, bytes.Equal(c.Bytes, d.Bytes))
}

func TestFormatBulkHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestFormatter().FormatBulk(ctx, []models.StudentRecord{sampleStudent("Amani")}, 1, 2026)
	require.ErrorIs(t, err, context.Canceled)
}
