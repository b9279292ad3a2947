// Package report renders the printable service order ("Ordem de Serviço")
// for a single occurrence.
//
// The layout is a fixed sequence of boxes on an A4 page. The only decisions
// taken at render time are whether a logo is available, whether the
// administrative notes block is printed and whether the signature block still
// fits on the current page.
package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"

	"urbfisc/internal/logging"
	"urbfisc/internal/occurrence"
)

const logoImageName = "logo"

// fallbackStamp is used as document date for records without a creation time.
var fallbackStamp = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// Options configures the renderer.
type Options struct {
	LogoPath string // optional; missing or unreadable files are skipped
	Title    string // first header line
	Subtitle string // second header line
	Compress bool
	Location *time.Location // zone used to print date and time; nil keeps the stored zone
}

// DefaultOptions returns the header used by the inspection sector.
func DefaultOptions() Options {
	return Options{
		LogoPath: "logo.png",
		Title:    "Autarquia de Urbanização e Meio Ambiente de Caruaru",
		Subtitle: "Central de Atendimento",
	}
}

// Renderer produces service orders. It holds no per-document state and is
// safe for concurrent use.
type Renderer struct {
	opts   Options
	logger *zap.Logger
}

// NewRenderer creates a renderer. logger may be nil.
func NewRenderer(opts Options, logger *zap.Logger) *Renderer {
	return &Renderer{opts: opts, logger: logging.OrNop(logger)}
}

// RenderDiagnostic describes why a document could not be produced.
type RenderDiagnostic struct {
	ExternalID string
	Err        error
}

func (d *RenderDiagnostic) Error() string {
	return fmt.Sprintf("render service order %q: %v", d.ExternalID, d.Err)
}

// Unwrap returns the underlying failure
func (d *RenderDiagnostic) Unwrap() error {
	return d.Err
}

// Result is either a PDF document or a diagnostic.
type Result struct {
	Document   []byte
	Diagnostic *RenderDiagnostic
}

// OK reports whether a document was produced.
func (r Result) OK() bool {
	return r.Diagnostic == nil
}

// Err returns the diagnostic as an error, or nil.
func (r Result) Err() error {
	if r.Diagnostic == nil {
		return nil
	}
	return r.Diagnostic
}

// Bytes returns the document, or the diagnostic text when rendering failed.
func (r Result) Bytes() []byte {
	if r.Diagnostic != nil {
		return []byte(r.Diagnostic.Error())
	}
	return r.Document
}

// Filename returns the download name for the record's service order.
func Filename(rec occurrence.Record) string {
	id := strings.TrimSpace(rec.ExternalID)
	if id == "" {
		return "OS.pdf"
	}
	return "OS_" + strings.ReplaceAll(id, "/", "-") + ".pdf"
}

// Render lays out the service order for rec. It never panics: layout
// failures, including panics inside fpdf, come back as a diagnostic.
func (r *Renderer) Render(rec occurrence.Record) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			res = r.fail(rec, fmt.Errorf("panic: %v", p))
		}
	}()

	created := splitTimestamp(rec.CreatedAt, r.opts.Location)
	stamp := fallbackStamp
	if !created.instant.IsZero() {
		stamp = created.instant
	}

	logo := r.loadLogo()
	setup := serviceOrderPage(r.opts.Compress, stamp, r.header(logo != nil))
	pdf := newDocument(setup)
	if logo != nil {
		pdf.RegisterImageOptionsReader(logoImageName, fpdf.ImageOptions{ImageType: logo.kind}, bytes.NewReader(logo.data))
	}

	addPage(pdf, setup)
	l := layout{pdf: pdf}
	l.identification(rec, created)
	l.neighborhood(rec)
	l.description(rec)
	l.address(rec)
	l.signature(rec)
	l.inspection()
	l.administrativeNotes(rec)

	if pdf.Err() {
		return r.fail(rec, pdf.Error())
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return r.fail(rec, err)
	}
	return Result{Document: buf.Bytes()}
}

func (r *Renderer) fail(rec occurrence.Record, err error) Result {
	r.logger.Error("❌ Service order rendering failed",
		zap.String("external_id", rec.ExternalID),
		zap.Error(err))
	return Result{Diagnostic: &RenderDiagnostic{ExternalID: rec.ExternalID, Err: err}}
}

// header returns the page header callback. withLogo selects the full
// header; without it the title starts closer to the top edge.
func (r *Renderer) header(withLogo bool) HeaderFunc {
	title, subtitle := r.opts.Title, r.opts.Subtitle
	return func(pdf *fpdf.Fpdf) {
		if withLogo {
			pdf.ImageOptions(logoImageName, 90, 8, 30, 0, false, fpdf.ImageOptions{}, 0, "")
			pdf.Ln(22)
		} else {
			pdf.Ln(5)
		}

		pdf.SetFont(fontFamily, "B", 14)
		pdf.CellFormat(0, 6, clean(title), "", 1, "C", false, 0, "")
		pdf.SetFont(fontFamily, "B", 12)
		pdf.CellFormat(0, 6, clean(subtitle), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}
}

type logoImage struct {
	data []byte
	kind string
}

// loadLogo reads the configured logo. Any failure means "no logo".
func (r *Renderer) loadLogo() *logoImage {
	if r.opts.LogoPath == "" {
		return nil
	}
	kind := imageKind(r.opts.LogoPath)
	if kind == "" {
		r.logger.Debug("⚠️  Unsupported logo format, skipping", zap.String("path", r.opts.LogoPath))
		return nil
	}
	data, err := os.ReadFile(r.opts.LogoPath)
	if err != nil {
		r.logger.Debug("📋 Logo not available, using compact header", zap.String("path", r.opts.LogoPath), zap.Error(err))
		return nil
	}
	// fpdf only understands a subset of each format (no interlaced PNG, for
	// one), so a file it rejects is treated like a missing one
	probe := fpdf.New("P", "mm", "A4", "")
	probe.RegisterImageOptionsReader(logoImageName, fpdf.ImageOptions{ImageType: kind}, bytes.NewReader(data))
	if probe.Err() {
		r.logger.Debug("⚠️  Logo could not be decoded, using compact header", zap.String("path", r.opts.LogoPath), zap.Error(probe.Error()))
		return nil
	}
	return &logoImage{data: data, kind: kind}
}

func imageKind(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "PNG"
	case ".jpg", ".jpeg":
		return "JPG"
	case ".gif":
		return "GIF"
	default:
		return ""
	}
}
