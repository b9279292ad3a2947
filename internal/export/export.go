// Package export writes the occurrence table as a spreadsheet or CSV file
// for the inspection report ("relatório de fiscalização").
package export

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"urbfisc/internal/occurrence"
)

// SheetName is the worksheet holding the occurrences.
const SheetName = "Denuncias"

// BaseName is the download name without extension.
const BaseName = "relatorio_fiscalizacao"

const dateLayout = "02/01/2006 15:04"

// Columns are the header cells, in table order.
var Columns = []string{
	"id", "external_id", "created_at", "origem", "tipo", "num_encaminhamento",
	"rua", "numero", "bairro", "zona", "ponto_referencia", "latitude",
	"longitude", "link_maps", "descricao", "observacoes", "quem_recebeu",
	"status", "acao_noturna",
}

// Exporter formats records. Location selects the zone used for dates; nil
// keeps the stored zone.
type Exporter struct {
	Location *time.Location
}

// XLSX writes records to w as a workbook with a single sheet.
func (e Exporter) XLSX(w io.Writer, records []occurrence.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := f.SetRowStyle(SheetName, 1, 1, bold); err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	for i, rec := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := e.cells(rec)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// CSV writes records to w with the same columns as the workbook.
func (e Exporter) CSV(w io.Writer, records []occurrence.Record) error {
	buf := bufio.NewWriter(w)
	writer := csv.NewWriter(buf)

	if err := writer.Write(Columns); err != nil {
		return err
	}
	for _, rec := range records {
		if err := writer.Write(e.texts(rec)); err != nil {
			return err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return buf.Flush()
}

// cells returns the typed spreadsheet row. Coordinates stay numeric and
// missing values are left blank.
func (e Exporter) cells(rec occurrence.Record) []any {
	return []any{
		rec.ID,
		rec.ExternalID,
		e.date(rec.CreatedAt),
		rec.Origin,
		rec.Type,
		rec.ReferralNumber,
		rec.Street,
		rec.Number,
		rec.Neighborhood,
		rec.Zone,
		rec.ReferencePoint,
		coord(rec.Latitude),
		coord(rec.Longitude),
		rec.MapsLink,
		rec.Description,
		rec.Observations,
		rec.ReceivedBy,
		rec.Status,
		rec.NightAction,
	}
}

func (e Exporter) texts(rec occurrence.Record) []string {
	out := make([]string, 0, len(Columns))
	for _, v := range e.cells(rec) {
		switch v := v.(type) {
		case nil:
			out = append(out, "")
		case int64:
			out = append(out, strconv.FormatInt(v, 10))
		case float64:
			out = append(out, strconv.FormatFloat(v, 'f', -1, 64))
		case bool:
			out = append(out, strconv.FormatBool(v))
		case string:
			out = append(out, v)
		default:
			out = append(out, fmt.Sprint(v))
		}
	}
	return out
}

func (e Exporter) date(ts occurrence.Timestamp) string {
	if ts.Time.IsZero() {
		return ts.Raw
	}
	t := ts.Time
	if e.Location != nil {
		t = t.In(e.Location)
	}
	return t.Format(dateLayout)
}

func coord(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
