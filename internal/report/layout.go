package report

import (
	"strconv"
	"strings"

	"github.com/go-pdf/fpdf"

	"urbfisc/internal/occurrence"
	"urbfisc/internal/sanitize"
)

// fontFamily is the core font used throughout; fpdf maps Arial to Helvetica.
const fontFamily = "Arial"

const (
	// signatureBreakY is the last y position at which the signature and
	// inspection blocks still start on the current page.
	signatureBreakY = 230.0
	notProvided     = "Não informada"
	notesLabel      = "OBSERVAÇÕES ADMINISTRATIVAS / DE CAMPO"
)

var labelFill = [3]int{220, 220, 220}

func clean(s string) string {
	return sanitize.Text(s)
}

// layout draws the regions of the service order, top to bottom.
type layout struct {
	pdf *fpdf.Fpdf
}

func (l layout) font(style string, size float64) {
	l.pdf.SetFont(fontFamily, style, size)
}

func (l layout) cell(w, h float64, txt, border string, ln int, align string) {
	l.pdf.CellFormat(w, h, clean(txt), border, ln, align, false, 0, "")
}

// sectionLabel prints a full width shaded title row.
func (l layout) sectionLabel(txt string) {
	l.pdf.SetFillColor(labelFill[0], labelFill[1], labelFill[2])
	l.font("B", 9)
	l.pdf.CellFormat(0, 6, clean(txt), "1", 1, "L", true, 0, "")
}

// field prints a bold label cell followed by a regular value cell.
func (l layout) field(labelW float64, label, labelBorder, labelAlign string,
	valueW float64, value, valueBorder, valueAlign string, valueSize float64, ln int) {
	l.font("B", 8)
	l.cell(labelW, 8, label, labelBorder, 0, labelAlign)
	l.font("", valueSize)
	l.cell(valueW, 8, value, valueBorder, ln, valueAlign)
}

func (l layout) identification(rec occurrence.Record, created dateTime) {
	l.sectionLabel("ORDEM DE SERVIÇO - SETOR DE FISCALIZAÇÃO")

	l.field(8, "N", "1", "C", 25, rec.ExternalID, "1", "C", 9, 0)
	l.field(12, "DATA:", "1", "C", 22, created.date, "1", "C", 9, 0)
	l.field(12, "HORA:", "1", "C", 15, created.clock, "1", "C", 9, 0)
	l.field(18, "ORIGEM:", "1", "L", 0, originText(rec), "1", "L", 8, 1)
}

func originText(rec occurrence.Record) string {
	if rec.ReferralNumber == "" {
		return rec.Origin
	}
	if rec.Origin == "" {
		return "Nº " + rec.ReferralNumber
	}
	return rec.Origin + " - Nº " + rec.ReferralNumber
}

func (l layout) neighborhood(rec occurrence.Record) {
	l.field(35, "BAIRRO OU DISTRITO:", "1", "L", 120, rec.Neighborhood, "1", "L", 9, 0)
	l.field(10, "TGS:", "1", "C", 0, rec.Zone, "1", "C", 9, 1)
}

func (l layout) description(rec occurrence.Record) {
	l.sectionLabel("DESCRIÇÃO DA ORDEM DE SERVIÇO")
	l.font("", 9)
	l.pdf.MultiCell(0, 5, clean(rec.Description), "1", "L", false)
}

func (l layout) address(rec occurrence.Record) {
	// partial borders so the rows merge with the description box above
	l.field(30, "LOGRADOURO:", "LTB", "L", 0, rec.Street, "RB", "L", 9, 1)
	l.field(30, "Nº:", "LB", "L", 0, rec.Number, "RB", "L", 9, 1)
	l.field(35, "GEOLOCALIZAÇÃO:", "1", "L", 0, geolocation(rec), "1", "L", 8, 1)

	if rec.ReferencePoint != "" {
		l.field(35, "PONTO DE REFERÊNCIA:", "1", "L", 0, rec.ReferencePoint, "1", "L", 8, 1)
	}
}

// geolocation returns the text of the GEOLOCALIZAÇÃO row.
func geolocation(rec occurrence.Record) string {
	if !rec.HasLocation() {
		return notProvided
	}
	return "Lat: " + formatCoord(*rec.Latitude) + " | Lon: " + formatCoord(*rec.Longitude)
}

// formatCoord prints the shortest exact decimal, always with a fractional
// part (-8 prints as -8.0).
func formatCoord(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func (l layout) signature(rec occurrence.Record) {
	pdf := l.pdf
	pdf.Ln(5)
	y := pdf.GetY()
	if y > signatureBreakY {
		pdf.AddPage()
		y = pdf.GetY()
	}

	pdf.Rect(10, y, 130, 18, "D")
	pdf.Rect(140, y, 60, 18, "D")

	pdf.SetFillColor(labelFill[0], labelFill[1], labelFill[2])
	pdf.SetXY(140, y)
	l.font("B", 8)
	pdf.CellFormat(60, 6, "Rubrica", "1", 0, "C", true, 0, "")

	pdf.SetXY(12, y+2)
	l.font("B", 7)
	l.cell(0, 4, "RECEBIDO POR:", "", 1, "L")

	pdf.SetX(12)
	l.font("", 9)
	l.cell(125, 8, rec.ReceivedBy, "", 0, "L")

	pdf.SetXY(10, y+22)
}

func (l layout) inspection() {
	l.sectionLabel("INFORMAÇÕES DA FISCALIZAÇÃO")

	// values are filled in by hand during the visit
	l.font("B", 8)
	l.cell(90, 10, "DATA DA VISTORIA:            ", "1", 0, "L")
	l.cell(0, 10, "HORA:             ", "1", 1, "L")

	l.font("", 7)
	l.cell(0, 5, "OBSERVAÇÕES E DESCRIÇÃO DA OCORRÊNCIA", "LR", 1, "C")
	l.cell(0, 65, "", "LR", 1, "L")

	l.font("B", 9)
	l.cell(0, 5, "  RUBRICA:                       ", "LR", 1, "L")
	l.cell(0, 10, "", "LRB", 1, "L")
}

func (l layout) administrativeNotes(rec occurrence.Record) {
	l.pdf.Ln(5)
	if strings.TrimSpace(rec.Observations) == "" {
		return
	}
	l.sectionLabel(notesLabel)
	l.font("", 9)
	l.pdf.MultiCell(0, 6, clean(rec.Observations), "1", "L", false)
}
