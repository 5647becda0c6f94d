package export

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const (
	fontFamily      = "Helvetica"
	defaultFontSize = 9.0
	pointToMM       = 25.4 / 72
	lineSpacing     = 1.4
	badgePadX       = 1.8
	badgePadY       = 0.8
	captionInset    = 2.8
	signatureInset  = 1.4
)

var defaultMargins = Margins{Left: 10, Top: 15, Right: 10, Bottom: 15}

// ErrBlockTooTall reports a block that does not fit on an empty page.
var ErrBlockTooTall = errors.New("block taller than page frame")

// PDFExporter lays out documents onto A4 pages.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render lays out every flow of the document in order. Each flow starts on a
// fresh page and paginates independently of the flows around it, so a
// multi-flow document holds exactly the pages each flow would produce alone.
func (e *PDFExporter) Render(doc Document) (*Rendered, error) {
	if len(doc.Flows) == 0 {
		return nil, fmt.Errorf("pdf requires at least one flow")
	}
	margins := doc.Margins
	if margins == (Margins{}) {
		margins = defaultMargins
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCatalogSort(true)
	if !doc.Created.IsZero() {
		pdf.SetCreationDate(doc.Created)
		pdf.SetModificationDate(doc.Created)
	}
	pdf.SetTitle(doc.Title, true)
	pdf.SetAuthor(doc.Author, true)
	pdf.SetSubject(doc.Subject, true)
	pdf.SetCreator(doc.Author, true)
	pdf.SetMargins(margins.Left, margins.Top, margins.Right)
	pdf.SetAutoPageBreak(false, margins.Bottom)
	pdf.SetCellMargin(0)

	pageW, pageH := pdf.GetPageSize()
	l := &layout{
		pdf:    pdf,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
		left:   margins.Left,
		top:    margins.Top,
		width:  pageW - margins.Left - margins.Right,
		bottom: pageH - margins.Bottom,
	}

	pages := make([]int, 0, len(doc.Flows))
	for _, flow := range doc.Flows {
		start := pdf.PageNo()
		pdf.AddPage()
		for _, b := range flow.Blocks {
			l.draw(b)
		}
		pages = append(pages, pdf.PageNo()-start)
		if pdf.Err() {
			break
		}
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return &Rendered{Bytes: buf.Bytes(), Pages: pages}, nil
}

type layout struct {
	pdf    *gofpdf.Fpdf
	tr     func(string) string
	left   float64
	top    float64
	width  float64
	bottom float64
}

func (l *layout) draw(b Block) {
	switch v := b.(type) {
	case Band:
		l.band(v)
	case Rule:
		l.rule(v)
	case Bar:
		l.bar(v)
	case Spacer:
		l.spacer(v)
	case Paragraph:
		l.paragraph(v)
	case Table:
		l.table(v)
	case SignatureRow:
		l.signatures(v)
	default:
		l.pdf.SetError(fmt.Errorf("unsupported block %T", b))
	}
}

// ensure starts a new page when h does not fit below the cursor. A block that
// cannot fit even on an empty page fails the document.
func (l *layout) ensure(h float64) bool {
	if h > l.frame() {
		l.tooTall(h)
		return false
	}
	if l.pdf.GetY()+h <= l.bottom {
		return false
	}
	l.pdf.AddPage()
	return true
}

func (l *layout) frame() float64 {
	return l.bottom - l.top
}

func (l *layout) tooTall(h float64) {
	l.pdf.SetError(fmt.Errorf("%w: %.1fmm block, %.1fmm frame", ErrBlockTooTall, h, l.frame()))
}

func (l *layout) font(s Span) {
	style := ""
	if s.Bold {
		style = "B"
	}
	l.pdf.SetFont(fontFamily, style, fontSize(s))
	l.pdf.SetTextColor(s.Color.R, s.Color.G, s.Color.B)
}

func (l *layout) stroke(s Stroke) {
	width := s.Width
	if width <= 0 {
		width = 0.2
	}
	l.pdf.SetDrawColor(s.Color.R, s.Color.G, s.Color.B)
	l.pdf.SetLineWidth(width)
}

func fontSize(s Span) float64 {
	if s.Size <= 0 {
		return defaultFontSize
	}
	return s.Size
}

func lineHeight(s Span) float64 {
	return fontSize(s) * pointToMM * lineSpacing
}

// lines returns the translated, wrapped lines of s for a box of width w.
func (l *layout) lines(s Span, w float64) []string {
	l.font(s)
	text := l.tr(s.Text)
	if text == "" {
		return []string{""}
	}
	if s.Badge != nil {
		return []string{text}
	}
	avail := w - s.Indent
	if avail <= 0 {
		avail = w
	}
	raw := l.pdf.SplitLines([]byte(text), avail)
	if len(raw) == 0 {
		return []string{""}
	}
	out := make([]string, len(raw))
	for i, line := range raw {
		out[i] = string(line)
	}
	return out
}

func (l *layout) spanHeight(s Span, w float64) float64 {
	if s.Badge != nil {
		return lineHeight(s) + badgePadY
	}
	return float64(len(l.lines(s, w))) * lineHeight(s)
}

func (l *layout) drawSpan(s Span, x, y, w float64) {
	lines := l.lines(s, w)
	lh := lineHeight(s)
	if s.Badge != nil {
		l.badge(s, lines[0], x, y, w, lh)
		return
	}
	align := s.Align
	if align == "" {
		align = AlignLeft
	}
	for i, line := range lines {
		l.pdf.SetXY(x+s.Indent, y+float64(i)*lh)
		l.pdf.CellFormat(w-s.Indent, lh, line, "", 0, string(align), false, 0, "")
	}
}

func (l *layout) badge(s Span, text string, x, y, w, lh float64) {
	bw := l.pdf.GetStringWidth(text) + 2*badgePadX
	bh := lh + badgePadY
	bx := x + s.Indent
	switch s.Align {
	case AlignCenter:
		bx = x + (w-bw)/2
	case AlignRight:
		bx = x + w - bw
	}
	l.pdf.SetFillColor(s.Badge.R, s.Badge.G, s.Badge.B)
	l.pdf.Rect(bx, y, bw, bh, "F")
	l.pdf.SetXY(bx, y)
	l.pdf.CellFormat(bw, bh, text, "", 0, "C", false, 0, "")
}

func (l *layout) band(b Band) {
	heights := make([]float64, len(b.Cells))
	h := 0.0
	for i, cell := range b.Cells {
		w := columnWidth(b.Widths, i, l.width)
		for _, s := range cell {
			heights[i] += l.spanHeight(s, w)
		}
		if heights[i] > h {
			h = heights[i]
		}
	}
	l.ensure(h)
	y := l.pdf.GetY()
	x := l.left
	for i, cell := range b.Cells {
		w := columnWidth(b.Widths, i, l.width)
		cy := y + (h-heights[i])/2
		for _, s := range cell {
			l.drawSpan(s, x, cy, w)
			cy += l.spanHeight(s, w)
		}
		x += w
	}
	l.pdf.SetXY(l.left, y+h)
}

func (l *layout) rule(r Rule) {
	l.ensure(r.Stroke.Width + r.SpaceAfter)
	y := l.pdf.GetY()
	l.stroke(r.Stroke)
	l.pdf.Line(l.left, y, l.left+l.width, y)
	l.pdf.SetXY(l.left, y+r.Stroke.Width+r.SpaceAfter)
}

func (l *layout) bar(b Bar) {
	l.ensure(b.Height)
	y := l.pdf.GetY()
	l.pdf.SetFillColor(b.Fill.R, b.Fill.G, b.Fill.B)
	l.pdf.Rect(l.left, y, l.width, b.Height, "F")
	if b.Caption.Text != "" {
		w := l.width - 2*captionInset
		line := l.lines(b.Caption, w)[0]
		align := b.Caption.Align
		if align == "" {
			align = AlignLeft
		}
		l.pdf.SetXY(l.left+captionInset, y)
		l.pdf.CellFormat(w, b.Height, line, "", 0, string(align), false, 0, "")
	}
	l.pdf.SetXY(l.left, y+b.Height)
}

func (l *layout) spacer(s Spacer) {
	y := l.pdf.GetY()
	if y+s.Height > l.bottom {
		return
	}
	l.pdf.SetXY(l.left, y+s.Height)
}

func (l *layout) paragraph(p Paragraph) {
	h := l.spanHeight(p.Span, l.width)
	l.ensure(h)
	y := l.pdf.GetY()
	l.drawSpan(p.Span, l.left, y, l.width)
	l.pdf.SetXY(l.left, y+h)
}

func (l *layout) table(t Table) {
	widths := t.Widths
	if len(widths) == 0 {
		widths = []float64{l.width}
	}

	var header *Row
	headerHeight := 0.0
	if len(t.Header) > 0 {
		fill := t.HeaderFill
		header = &Row{Cells: t.Header, Fill: &fill}
		headerHeight = l.rowHeight(t, widths, *header)
	}

	heights := make([]float64, len(t.Rows))
	for i, row := range t.Rows {
		heights[i] = l.rowHeight(t, widths, row)
	}

	for _, h := range heights {
		if headerHeight+h > l.frame() {
			l.tooTall(headerHeight + h)
			return
		}
	}

	// A kept pair only moves together when it fits on a fresh page under the
	// repeated header.
	need := func(i int) float64 {
		h := heights[i]
		if t.Rows[i].KeepWithNext && i+1 < len(t.Rows) && headerHeight+h+heights[i+1] <= l.frame() {
			h += heights[i+1]
		}
		return h
	}

	first := 0.0
	if len(t.Rows) > 0 {
		first = need(0)
	}
	l.ensure(headerHeight + first)
	if header != nil {
		l.row(t, widths, *header, headerHeight)
	}
	for i, row := range t.Rows {
		if l.ensure(need(i)) && header != nil {
			l.row(t, widths, *header, headerHeight)
		}
		l.row(t, widths, row, heights[i])
	}
}

func (l *layout) rowHeight(t Table, widths []float64, row Row) float64 {
	pad := t.Padding
	if row.Merged {
		h := 0.0
		if len(row.Cells) > 0 {
			h = l.spanHeight(row.Cells[0], sum(widths)-pad.Left-pad.Right)
		}
		return h + pad.Top + pad.Bottom
	}
	h := 0.0
	for i, cell := range row.Cells {
		if i >= len(widths) {
			break
		}
		if ch := l.spanHeight(cell, widths[i]-pad.Left-pad.Right); ch > h {
			h = ch
		}
	}
	return h + pad.Top + pad.Bottom
}

func (l *layout) row(t Table, widths []float64, row Row, h float64) {
	pad := t.Padding
	y := l.pdf.GetY()
	total := sum(widths)
	if row.Fill != nil {
		l.pdf.SetFillColor(row.Fill.R, row.Fill.G, row.Fill.B)
		l.pdf.Rect(l.left, y, total, h, "F")
	}

	if row.Merged {
		if len(row.Cells) > 0 {
			l.drawSpan(row.Cells[0], l.left+pad.Left, y+pad.Top, total-pad.Left-pad.Right)
		}
	} else {
		x := l.left
		for i, w := range widths {
			if i < len(row.Cells) {
				l.drawSpan(row.Cells[i], x+pad.Left, y+pad.Top, w-pad.Left-pad.Right)
			}
			x += w
		}
	}

	if t.Grid != nil {
		l.stroke(*t.Grid)
		if row.Merged {
			l.pdf.Rect(l.left, y, total, h, "D")
		} else {
			x := l.left
			for _, w := range widths {
				l.pdf.Rect(x, y, w, h, "D")
				x += w
			}
		}
	}
	if t.RowRule != nil {
		l.stroke(*t.RowRule)
		l.pdf.Line(l.left, y+h, l.left+total, y+h)
	}
	l.pdf.SetXY(l.left, y+h)
}

func (l *layout) signatures(s SignatureRow) {
	if len(s.Labels) == 0 {
		return
	}
	colW := l.width / float64(len(s.Labels))
	inner := colW - 2*signatureInset
	lh := lineHeight(s.Span)
	h := lh + s.Gap + s.Stroke.Width + 1 + lh
	l.ensure(h)

	y := l.pdf.GetY()
	length := s.LineLength
	if length <= 0 || length > inner {
		length = inner
	}
	for i, label := range s.Labels {
		x := l.left + float64(i)*colW + signatureInset
		caption := s.Span
		caption.Text = label
		l.drawSpan(caption, x, y, inner)

		lineY := y + lh + s.Gap
		l.stroke(s.Stroke)
		l.pdf.Line(x, lineY, x+length, lineY)

		if s.Footnote != "" {
			note := s.Span
			note.Text = s.Footnote
			l.drawSpan(note, x, lineY+1, inner)
		}
	}
	l.pdf.SetXY(l.left, y+h)
}

func columnWidth(widths []float64, i int, fallback float64) float64 {
	if i < len(widths) {
		return widths[i]
	}
	return fallback - sum(widths)
}

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}
