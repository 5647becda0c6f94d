package export

import (
	"strconv"
	"strings"
	"time"
)

// Color is an RGB triple in the 0-255 range.
type Color struct {
	R, G, B int
}

// White is the page background.
var White = Color{R: 255, G: 255, B: 255}

// Hex parses "#RRGGBB" (the leading hash is optional). Malformed input yields black.
func Hex(raw string) Color {
	raw = strings.TrimPrefix(raw, "#")
	if len(raw) != 6 {
		return Color{}
	}
	v, err := strconv.ParseUint(raw, 16, 32)
	if err != nil {
		return Color{}
	}
	return Color{R: int(v >> 16 & 0xff), G: int(v >> 8 & 0xff), B: int(v & 0xff)}
}

// Align positions text horizontally inside its box.
type Align string

const (
	AlignLeft   Align = "L"
	AlignCenter Align = "C"
	AlignRight  Align = "R"
)

// Span is a run of uniformly styled text. Text wraps to the width of its box
// unless Badge is set, in which case it is drawn on one line over a filled chip.
type Span struct {
	Text   string
	Size   float64 // points
	Bold   bool
	Color  Color
	Align  Align
	Indent float64 // mm
	Badge  *Color
}

// Stroke describes a ruled line.
type Stroke struct {
	Color Color
	Width float64 // mm
}

// Padding is the inner spacing of a table cell in mm.
type Padding struct {
	Top, Right, Bottom, Left float64
}

// Block is one element of a flow. Blocks are laid out top to bottom.
type Block interface {
	block()
}

// Band is a single row of columns whose stacked spans are vertically centred.
type Band struct {
	Widths []float64
	Cells  [][]Span
}

// Rule is a horizontal line across the content width.
type Rule struct {
	Stroke     Stroke
	SpaceAfter float64
}

// Bar is a solid filled strip with a caption.
type Bar struct {
	Height  float64
	Fill    Color
	Caption Span
}

// Spacer adds vertical space. It is dropped when it would cross a page boundary.
type Spacer struct {
	Height float64
}

// Paragraph is wrapped text across the content width.
type Paragraph struct {
	Span Span
}

// Row is one table row. A merged row draws its first cell across every column.
type Row struct {
	Cells        []Span
	Fill         *Color
	Merged       bool
	KeepWithNext bool
}

// Table lays out rows of cells. The header row, when present, is repeated at
// the top of every page the table continues onto.
type Table struct {
	Widths     []float64
	Header     []Span
	HeaderFill Color
	Rows       []Row
	Padding    Padding
	Grid       *Stroke
	RowRule    *Stroke
}

// SignatureRow draws side-by-side blank signature slots. Footnote, when set, is
// printed under every signature line.
type SignatureRow struct {
	Labels     []string
	LineLength float64
	Gap        float64
	Span       Span
	Stroke     Stroke
	Footnote   string
}

func (Band) block()         {}
func (Rule) block()         {}
func (Bar) block()          {}
func (Spacer) block()       {}
func (Paragraph) block()    {}
func (Table) block()        {}
func (SignatureRow) block() {}

// Margins of every page in mm.
type Margins struct {
	Left, Top, Right, Bottom float64
}

// Flow is a self-contained sequence of blocks. Every flow starts on a fresh page.
type Flow struct {
	Blocks []Block
}

// Append adds blocks to the end of the flow.
func (f *Flow) Append(blocks ...Block) {
	f.Blocks = append(f.Blocks, blocks...)
}

// Document is one output PDF built from one or more flows. Created pins the
// document timestamps so identical input renders identical bytes.
type Document struct {
	Title   string
	Author  string
	Subject string
	Created time.Time
	Margins Margins
	Flows   []Flow
}

// Rendered holds the encoded document and the page count of each flow.
type Rendered struct {
	Bytes []byte
	Pages []int
}

// PageCount returns the total number of pages.
func (r *Rendered) PageCount() int {
	if r == nil {
		return 0
	}
	total := 0
	for _, n := range r.Pages {
		total += n
	}
	return total
}
