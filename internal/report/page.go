package report

import (
	"time"

	"github.com/go-pdf/fpdf"
)

// HeaderFunc draws the page header. It is invoked by fpdf at the start of
// every page, including pages opened by automatic page breaks.
type HeaderFunc func(pdf *fpdf.Fpdf)

// PageSetup describes how a blank document is built.
type PageSetup struct {
	Orientation  string  // "P" or "L"
	Unit         string  // "mm", "pt", ...
	Size         string  // "A4", "Letter", ...
	BottomMargin float64 // automatic page break threshold from the bottom edge
	LineWidth    float64
	Compress     bool
	// Stamp fixes the document creation and modification dates, so the
	// same input always yields the same bytes.
	Stamp  time.Time
	Header HeaderFunc
}

// serviceOrderPage is the setup used for every service order.
func serviceOrderPage(compress bool, stamp time.Time, header HeaderFunc) PageSetup {
	return PageSetup{
		Orientation:  "P",
		Unit:         "mm",
		Size:         "A4",
		BottomMargin: 25,
		LineWidth:    0.3,
		Compress:     compress,
		Stamp:        stamp,
		Header:       header,
	}
}

// newDocument builds an empty document from setup. No page is added yet.
func newDocument(setup PageSetup) *fpdf.Fpdf {
	pdf := fpdf.New(setup.Orientation, setup.Unit, setup.Size, "")
	pdf.SetCompression(setup.Compress)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(setup.Stamp)
	pdf.SetModificationDate(setup.Stamp)
	pdf.SetAutoPageBreak(true, setup.BottomMargin)

	if setup.Header != nil {
		header := setup.Header
		pdf.SetHeaderFunc(func() { header(pdf) })
	}
	return pdf
}

// addPage opens a page and applies the configured line width. Later pages
// inherit it.
func addPage(pdf *fpdf.Fpdf, setup PageSetup) {
	pdf.AddPage()
	if setup.LineWidth > 0 {
		pdf.SetLineWidth(setup.LineWidth)
	}
}
