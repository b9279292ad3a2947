// Package summary renders the pending-occurrences table as a PNG image for
// the daily briefing of the inspection team.
package summary

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/fogleman/gg"

	"urbfisc/internal/occurrence"
)

// ErrNothingPending is returned when there is no pending occurrence to draw.
var ErrNothingPending = errors.New("no pending occurrences to render")

// Table styling constants, rendered at 2x scale for legibility on phones
const (
	cellPaddingX  = 20
	cellPaddingY  = 16
	minRowHeight  = 76
	headerHeight  = 88
	fontSize      = 26
	headerFontSz  = 26
	titleFontSz   = 40
	titlePadding  = 110
	footerPadding = 80
	minColWidth   = 110
	maxStreetW    = 360.0
	maxDescW      = 440.0
)

const dateLayout = "02/01/2006 15:04"

// Light theme colors
var (
	bgColor         = color.RGBA{R: 245, G: 247, B: 250, A: 255}
	titleColor      = color.RGBA{R: 30, G: 41, B: 59, A: 255}
	headerBgColor   = color.RGBA{R: 185, G: 28, B: 28, A: 255} // pending red
	headerTextColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	rowEvenColor    = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	rowOddColor     = color.RGBA{R: 241, G: 245, B: 249, A: 255}
	textColor       = color.RGBA{R: 30, G: 41, B: 59, A: 255}
	borderColor     = color.RGBA{R: 203, G: 213, B: 225, A: 255}
	footerColor     = color.RGBA{R: 100, G: 116, B: 139, A: 255}
)

// row holds the texts of one table line.
type row struct {
	protocol     string
	date         string
	neighborhood string
	zone         string
	street       string
	origin       string
	description  string
	sortKey      time.Time
}

type column struct {
	header   string
	field    func(r *row) string
	maxWidth float64 // 0 means auto
}

var columns = []column{
	{"Protocolo", func(r *row) string { return r.protocol }, 0},
	{"Data", func(r *row) string { return r.date }, 0},
	{"Bairro", func(r *row) string { return r.neighborhood }, 0},
	{"Zona", func(r *row) string { return r.zone }, 0},
	{"Rua", func(r *row) string { return r.street }, maxStreetW},
	{"Origem", func(r *row) string { return r.origin }, 0},
	{"Descrição", func(r *row) string { return r.description }, maxDescW},
}

// Table draws pending occurrences.
type Table struct {
	Location *time.Location // zone for printed dates; nil keeps the stored zone
}

// pendingRows keeps pending records, oldest first. Records without a parsed
// creation time go last, in their original order.
func (t Table) pendingRows(records []occurrence.Record) []row {
	var rows []row
	for _, rec := range records {
		if !rec.IsPending() {
			continue
		}
		r := row{
			protocol:     rec.ExternalID,
			neighborhood: rec.Neighborhood,
			zone:         rec.Zone,
			street:       strings.TrimSpace(rec.Street + " " + rec.Number),
			origin:       rec.Origin,
			description:  rec.Description,
			sortKey:      rec.CreatedAt.Time,
		}
		switch {
		case !rec.CreatedAt.Time.IsZero():
			ts := rec.CreatedAt.Time
			if t.Location != nil {
				ts = ts.In(t.Location)
			}
			r.date = ts.Format(dateLayout)
		default:
			r.date = rec.CreatedAt.Raw
		}
		rows = append(rows, r)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].sortKey, rows[j].sortKey
		if a.IsZero() || b.IsZero() {
			return !a.IsZero() && b.IsZero()
		}
		return a.Before(b)
	})
	return rows
}

// findFont locates a font file across Linux and Windows paths.
func findFont(bold bool) string {
	var candidates []string
	if runtime.GOOS == "windows" {
		winRoot := os.Getenv("WINDIR")
		if winRoot == "" {
			winRoot = `C:\Windows`
		}
		if bold {
			candidates = []string{
				winRoot + `\Fonts\arialbd.ttf`,
				winRoot + `\Fonts\Arial Bold.ttf`,
			}
		} else {
			candidates = []string{
				winRoot + `\Fonts\arial.ttf`,
				winRoot + `\Fonts\Arial.ttf`,
			}
		}
	} else {
		if bold {
			candidates = []string{
				"/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf",
				"/usr/share/fonts/TTF/DejaVuSans-Bold.ttf",
				"/usr/share/fonts/dejavu/DejaVuSans-Bold.ttf",
			}
		} else {
			candidates = []string{
				"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
				"/usr/share/fonts/TTF/DejaVuSans.ttf",
				"/usr/share/fonts/dejavu/DejaVuSans.ttf",
			}
		}
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return candidates[0]
}

// wrapText splits text into multiple lines to fit within maxWidth.
func wrapText(dc *gg.Context, text string, maxWidth float64) []string {
	text = strings.ReplaceAll(text, "\n", " ")
	text = strings.TrimSpace(text)

	if maxWidth <= 0 {
		return []string{text}
	}

	w, _ := dc.MeasureString(text)
	if w <= maxWidth {
		return []string{text}
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	currentLine := words[0]

	for _, word := range words[1:] {
		testLine := currentLine + " " + word
		tw, _ := dc.MeasureString(testLine)
		if tw > maxWidth {
			lines = append(lines, currentLine)
			currentLine = word
		} else {
			currentLine = testLine
		}
	}
	lines = append(lines, currentLine)
	return lines
}

// computeRowHeights calculates the height of each row based on wrapped text.
func computeRowHeights(dc *gg.Context, rows []row, colWidths []float64) []float64 {
	_, lineH := dc.MeasureString("Ay")
	lineSpacing := lineH + 4

	heights := make([]float64, len(rows))
	for rowIdx := range rows {
		r := &rows[rowIdx]
		maxLines := 1
		for i, col := range columns {
			wrapped := wrapText(dc, col.field(r), colWidths[i]-cellPaddingX*2)
			if len(wrapped) > maxLines {
				maxLines = len(wrapped)
			}
		}
		h := float64(maxLines)*lineSpacing + cellPaddingY*2
		if h < float64(minRowHeight) {
			h = float64(minRowHeight)
		}
		heights[rowIdx] = h
	}
	return heights
}

// Render draws the pending occurrences among records and returns PNG bytes.
// now is printed in the title.
func (t Table) Render(records []occurrence.Record, now time.Time) ([]byte, error) {
	rows := t.pendingRows(records)
	if len(rows) == 0 {
		return nil, ErrNothingPending
	}

	boldFont := findFont(true)
	regularFont := findFont(false)

	// ---- Step 1: Measure column widths ----
	tmpDC := gg.NewContext(1, 1)
	if err := tmpDC.LoadFontFace(boldFont, headerFontSz); err != nil {
		return nil, fmt.Errorf("failed to load bold font: %w", err)
	}

	colWidths := make([]float64, len(columns))
	for i, col := range columns {
		w, _ := tmpDC.MeasureString(col.header)
		colWidths[i] = w + cellPaddingX*2 + 4
		if colWidths[i] < float64(minColWidth) {
			colWidths[i] = float64(minColWidth)
		}
	}

	if err := tmpDC.LoadFontFace(regularFont, fontSize); err != nil {
		return nil, fmt.Errorf("failed to load regular font: %w", err)
	}
	for rowIdx := range rows {
		for i, col := range columns {
			w, _ := tmpDC.MeasureString(col.field(&rows[rowIdx]))
			if needed := w + cellPaddingX*2 + 4; needed > colWidths[i] {
				colWidths[i] = needed
			}
		}
	}
	for i, col := range columns {
		if col.maxWidth > 0 && colWidths[i] > col.maxWidth {
			colWidths[i] = col.maxWidth
		}
	}

	rowHeights := computeRowHeights(tmpDC, rows, colWidths)

	// ---- Step 2: Calculate canvas size ----
	var totalWidth, totalRowHeight float64
	for _, w := range colWidths {
		totalWidth += w
	}
	for _, h := range rowHeights {
		totalRowHeight += h
	}

	canvasWidth := totalWidth + 80 // 40px margin each side
	canvasHeight := float64(titlePadding) + float64(headerHeight) + totalRowHeight + float64(footerPadding)

	// ---- Step 3: Draw ----
	dc := gg.NewContext(int(canvasWidth), int(canvasHeight))
	dc.SetColor(bgColor)
	dc.Clear()

	if err := dc.LoadFontFace(boldFont, titleFontSz); err != nil {
		return nil, fmt.Errorf("failed to load title font: %w", err)
	}
	dc.SetColor(titleColor)
	title := fmt.Sprintf("Ocorrências Pendentes - %s", now.Format(dateLayout))
	dc.DrawStringAnchored(title, canvasWidth/2, float64(titlePadding)/2+2, 0.5, 0.5)

	tableX := 40.0
	tableY := float64(titlePadding)

	dc.SetColor(headerBgColor)
	dc.DrawRoundedRectangle(tableX, tableY, totalWidth, float64(headerHeight), 16)
	dc.Fill()

	if err := dc.LoadFontFace(boldFont, headerFontSz); err != nil {
		return nil, fmt.Errorf("failed to load bold font: %w", err)
	}
	dc.SetColor(headerTextColor)
	x := tableX
	for i, col := range columns {
		dc.DrawStringAnchored(col.header, x+colWidths[i]/2, tableY+float64(headerHeight)/2, 0.5, 0.5)
		x += colWidths[i]
	}

	if err := dc.LoadFontFace(regularFont, fontSize); err != nil {
		return nil, fmt.Errorf("failed to load regular font: %w", err)
	}
	_, lineH := dc.MeasureString("Ay")
	lineSpacing := lineH + 4
	curY := tableY + float64(headerHeight)

	for rowIdx := range rows {
		r := &rows[rowIdx]
		rh := rowHeights[rowIdx]

		if rowIdx%2 == 0 {
			dc.SetColor(rowEvenColor)
		} else {
			dc.SetColor(rowOddColor)
		}
		dc.DrawRectangle(tableX, curY, totalWidth, rh)
		dc.Fill()

		dc.SetColor(borderColor)
		dc.SetLineWidth(0.5)
		dc.DrawLine(tableX, curY+rh, tableX+totalWidth, curY+rh)
		dc.Stroke()

		dc.SetColor(textColor)
		x := tableX
		for i, col := range columns {
			wrapped := wrapText(dc, col.field(r), colWidths[i]-cellPaddingX*2)
			startY := curY + (rh-float64(len(wrapped))*lineSpacing)/2 + lineH // vertically center
			for lineIdx, line := range wrapped {
				dc.DrawString(line, x+cellPaddingX, startY+float64(lineIdx)*lineSpacing)
			}
			x += colWidths[i]
		}
		curY += rh
	}

	dc.SetColor(borderColor)
	dc.SetLineWidth(1)
	totalTableH := float64(headerHeight) + totalRowHeight
	dc.DrawRoundedRectangle(tableX, tableY, totalWidth, totalTableH, 16)
	dc.Stroke()

	dc.SetLineWidth(0.5)
	x = tableX
	for i := 0; i < len(columns)-1; i++ {
		x += colWidths[i]
		dc.DrawLine(x, tableY+float64(headerHeight), x, tableY+totalTableH)
		dc.Stroke()
	}

	if err := dc.LoadFontFace(regularFont, 24); err != nil {
		return nil, fmt.Errorf("failed to load regular font: %w", err)
	}
	dc.SetColor(footerColor)
	dc.DrawStringAnchored(Footer(len(rows)), canvasWidth/2, canvasHeight-30, 0.5, 0.5)

	// ---- Step 4: Encode to PNG ----
	return encodeImage(dc.Image())
}

// Footer is the line printed under the table.
func Footer(n int) string {
	return fmt.Sprintf("Total: %d ocorrências pendentes", n)
}

func encodeImage(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}
