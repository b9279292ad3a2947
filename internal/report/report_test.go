package report

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"urbfisc/internal/occurrence"
	"urbfisc/internal/sanitize"
)

var pageObject = regexp.MustCompile(`/Type\s*/Page[^s]`)

func testRenderer(t *testing.T) *Renderer {
	t.Helper()
	opts := DefaultOptions()
	opts.LogoPath = filepath.Join(t.TempDir(), "missing.png")
	return NewRenderer(opts, nil)
}

func sampleRecord() occurrence.Record {
	return occurrence.Record{
		ID:           7,
		ExternalID:   "007/2026",
		CreatedAt:    occurrence.At(time.Date(2026, 3, 4, 9, 30, 0, 0, time.UTC)),
		Origin:       "WhatsApp",
		Street:       "Rua Vigário Freire",
		Number:       "120",
		Neighborhood: "Maurício de Nassau",
		Zone:         "Norte",
		Latitude:     occurrence.Float(-8.2834),
		Longitude:    occurrence.Float(-35.9761),
		Description:  "Descarte irregular de entulho na calçada.",
		ReceivedBy:   "Maria",
		Status:       occurrence.StatusPending,
	}
}

func render(t *testing.T, r *Renderer, rec occurrence.Record) []byte {
	t.Helper()
	res := r.Render(rec)
	require.True(t, res.OK(), "unexpected diagnostic: %v", res.Err())
	require.True(t, bytes.HasPrefix(res.Document, []byte("%PDF-")))
	return res.Document
}

func latin1(s string) []byte {
	return []byte(sanitize.Text(s))
}

func TestRender_ProducesServiceOrder(t *testing.T) {
	doc := render(t, testRenderer(t), sampleRecord())

	for _, want := range []string{
		"ORDEM DE SERVIÇO - SETOR DE FISCALIZAÇÃO",
		"Autarquia de Urbanização e Meio Ambiente de Caruaru",
		"007/2026",
		"04/03/2026",
		"09:30",
		"WhatsApp",
		"Maurício de Nassau",
		"Descarte irregular de entulho",
		"Rua Vigário Freire",
		"RECEBIDO POR:",
		"Maria",
		"INFORMAÇÕES DA FISCALIZAÇÃO",
		"OBSERVAÇÕES E DESCRIÇÃO DA OCORRÊNCIA",
	} {
		assert.True(t, bytes.Contains(doc, latin1(want)), "missing %q", want)
	}
	assert.Equal(t, 1, len(pageObject.FindAll(doc, -1)))
}

func TestRender_AdministrativeNotesOnlyWhenPresent(t *testing.T) {
	r := testRenderer(t)
	label := latin1(notesLabel)

	tests := []struct {
		name         string
		observations string
		expected     bool
	}{
		{"empty", "", false},
		{"whitespace only", "  \n ", false},
		{"present", "Reincidente; notificar proprietário.", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := sampleRecord()
			rec.Observations = tt.observations
			doc := render(t, r, rec)
			assert.Equal(t, tt.expected, bytes.Contains(doc, label))
		})
	}
}

func TestRender_Geolocation(t *testing.T) {
	r := testRenderer(t)

	tests := []struct {
		name     string
		lat, lon *float64
		expected string
	}{
		{"both present", occurrence.Float(-8.2834), occurrence.Float(-35.9761), "Lat: -8.2834 | Lon: -35.9761"},
		{"whole degrees", occurrence.Float(-8), occurrence.Float(-36), "Lat: -8.0 | Lon: -36.0"},
		{"absent", nil, nil, notProvided},
		{"zero sentinel", occurrence.Float(0), occurrence.Float(0), notProvided},
		{"longitude missing", occurrence.Float(-8.2834), nil, notProvided},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := sampleRecord()
			rec.Latitude, rec.Longitude = tt.lat, tt.lon

			assert.Equal(t, tt.expected, geolocation(rec))
			doc := render(t, r, rec)
			assert.True(t, bytes.Contains(doc, latin1(tt.expected)))
		})
	}
}

func TestRender_SmartPunctuationReplaced(t *testing.T) {
	rec := sampleRecord()
	rec.Description = "Morador relata “barulho” – obra d’água"
	rec.ReceivedBy = "João “Jota”"

	doc := render(t, testRenderer(t), rec)

	for _, glyph := range []string{"“", "”", "–", "’"} {
		assert.False(t, bytes.Contains(doc, []byte(glyph)), "found %q", glyph)
	}
	assert.True(t, bytes.Contains(doc, []byte(`"barulho" - obra d'`)))
}

func TestRender_Idempotent(t *testing.T) {
	r := testRenderer(t)
	rec := sampleRecord()
	rec.Observations = "Segunda visita agendada."

	first := render(t, r, rec)
	second := render(t, r, rec)
	assert.True(t, bytes.Equal(first, second))

	// records without a creation instant are stable too
	rec.CreatedAt = occurrence.Timestamp{}
	assert.True(t, bytes.Equal(render(t, r, rec), render(t, r, rec)))
}

func TestRender_UnparseableTimestamp(t *testing.T) {
	rec := sampleRecord()
	rec.CreatedAt = occurrence.RawTimestamp("not-a-date")

	doc := render(t, testRenderer(t), rec)
	assert.True(t, bytes.Contains(doc, []byte("(not-a-date)")))
	assert.False(t, bytes.Contains(doc, []byte("(09:30)")))
}

func TestRender_MissingLogo(t *testing.T) {
	doc := render(t, testRenderer(t), sampleRecord())
	assert.False(t, bytes.Contains(doc, []byte("/Subtype /Image")))
}

func TestRender_WithLogo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logo.png")
	writePNG(t, path)

	opts := DefaultOptions()
	opts.LogoPath = path
	doc := render(t, NewRenderer(opts, nil), sampleRecord())
	assert.True(t, bytes.Contains(doc, []byte("/Subtype /Image")))
}

func TestRender_CorruptLogoIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logo.png")
	require.NoError(t, os.WriteFile(path, []byte("not a png"), 0o644))

	opts := DefaultOptions()
	opts.LogoPath = path
	doc := render(t, NewRenderer(opts, nil), sampleRecord())
	assert.False(t, bytes.Contains(doc, []byte("/Subtype /Image")))
}

func TestRender_LongDescriptionBreaksPage(t *testing.T) {
	rec := sampleRecord()
	rec.Description = strings.Repeat("Entulho acumulado obstruindo a passagem de pedestres. ", 120)
	rec.Observations = "Encaminhar para a equipe noturna."

	doc := render(t, testRenderer(t), rec)

	pages := len(pageObject.FindAll(doc, -1))
	assert.GreaterOrEqual(t, pages, 2)
	// header repeats on every page
	assert.Equal(t, pages, bytes.Count(doc, latin1("Central de Atendimento")))
}

func TestRender_ReferralAndReferencePoint(t *testing.T) {
	rec := sampleRecord()
	rec.ReferralNumber = "4521"
	rec.ReferencePoint = "Em frente à escola"

	doc := render(t, testRenderer(t), rec)
	assert.True(t, bytes.Contains(doc, latin1("WhatsApp - Nº 4521")))
	assert.True(t, bytes.Contains(doc, latin1("PONTO DE REFERÊNCIA:")))
	assert.True(t, bytes.Contains(doc, latin1("Em frente à escola")))
}

func TestRender_BlankRecord(t *testing.T) {
	doc := render(t, testRenderer(t), occurrence.Record{})
	assert.True(t, bytes.Contains(doc, latin1(notProvided)))
}

func TestRender_DoesNotMutateRecord(t *testing.T) {
	rec := sampleRecord()
	before := rec
	lat := *rec.Latitude

	testRenderer(t).Render(rec)
	assert.Equal(t, before, rec)
	assert.Equal(t, lat, *rec.Latitude)
}

func TestResult(t *testing.T) {
	ok := Result{Document: []byte("%PDF-1.3")}
	assert.True(t, ok.OK())
	assert.NoError(t, ok.Err())
	assert.Equal(t, []byte("%PDF-1.3"), ok.Bytes())

	cause := errors.New("font not found")
	failed := Result{Diagnostic: &RenderDiagnostic{ExternalID: "001/2026", Err: cause}}
	assert.False(t, failed.OK())
	assert.ErrorIs(t, failed.Err(), cause)
	assert.Equal(t, `render service order "001/2026": font not found`, string(failed.Bytes()))
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "OS_007-2026.pdf", Filename(occurrence.Record{ExternalID: "007/2026"}))
	assert.Equal(t, "OS.pdf", Filename(occurrence.Record{}))
}

func TestSplitTimestamp(t *testing.T) {
	recife := time.FixedZone("BRT", -3*60*60)

	tests := []struct {
		name      string
		ts        occurrence.Timestamp
		loc       *time.Location
		wantDate  string
		wantClock string
	}{
		{"time value", occurrence.At(time.Date(2026, 1, 2, 14, 5, 0, 0, time.UTC)), nil, "02/01/2026", "14:05"},
		{"converted to zone", occurrence.At(time.Date(2026, 1, 2, 14, 5, 0, 0, time.UTC)), recife, "02/01/2026", "11:05"},
		{"iso text", occurrence.RawTimestamp("2026-01-02 14:05:33.123456"), nil, "02/01/2026", "14:05"},
		{"rfc3339 text", occurrence.RawTimestamp("2026-01-02T14:05:00Z"), nil, "02/01/2026", "14:05"},
		{"brazilian text", occurrence.RawTimestamp("02/01/2026 14:05"), nil, "02/01/2026", "14:05"},
		{"date only", occurrence.RawTimestamp("2026-01-02"), nil, "02/01/2026", "00:00"},
		{"zoneless text keeps wall clock", occurrence.RawTimestamp("02/01/2026 14:05"), recife, "02/01/2026", "14:05"},
		{"zoneless iso keeps wall clock", occurrence.RawTimestamp("2026-01-02 14:05:33"), recife, "02/01/2026", "14:05"},
		{"date only keeps day", occurrence.RawTimestamp("2026-01-02"), recife, "02/01/2026", "00:00"},
		{"zoned text converted", occurrence.RawTimestamp("2026-01-02T14:05:00Z"), recife, "02/01/2026", "11:05"},
		{"offset text converted", occurrence.RawTimestamp("2026-01-02 02:05:00-05"), recife, "02/01/2026", "04:05"},
		{"garbage kept raw", occurrence.RawTimestamp("not-a-date"), nil, "not-a-date", ""},
		{"empty", occurrence.Timestamp{}, nil, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitTimestamp(tt.ts, tt.loc)
			assert.Equal(t, tt.wantDate, got.date)
			assert.Equal(t, tt.wantClock, got.clock)
		})
	}
}

func TestNewDocument_HeaderCallback(t *testing.T) {
	calls := 0
	setup := serviceOrderPage(false, fallbackStamp, func(pdf *fpdf.Fpdf) { calls++ })
	pdf := newDocument(setup)
	addPage(pdf, setup)
	pdf.AddPage()

	assert.Equal(t, 2, calls)
}

func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 20, G: 90, B: 40, A: 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}
