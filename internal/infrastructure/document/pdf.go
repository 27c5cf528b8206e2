// Package document provides the page-oriented PDF surface the report
// assembler draws on. Coordinates and sizes are in millimeters.
package document

import (
	"bytes"
	"fmt"
	"image/png"
	"sync/atomic"

	"github.com/go-pdf/fpdf"
)

// TableStyle controls table rendering.
type TableStyle struct {
	// HeaderFill is the header background color.
	HeaderFill [3]int
	// HeaderText is the header text color.
	HeaderText [3]int
	// FontSize for body rows in points.
	FontSize float64
	// RowHeight in millimeters.
	RowHeight float64
}

// DefaultTableStyle matches the report's blue header look.
func DefaultTableStyle() TableStyle {
	return TableStyle{
		HeaderFill: [3]int{59, 130, 246},
		HeaderText: [3]int{255, 255, 255},
		FontSize:   9,
		RowHeight:  7,
	}
}

// Document is a paginated drawing surface.
type Document interface {
	// PageSize returns the usable width and full height in mm.
	PageSize() (width, height float64)
	// Margin returns the page margin in mm.
	Margin() float64
	// CurrentPage returns the 1-based page number.
	CurrentPage() int
	// AddPage starts a new page.
	AddPage()
	// Text draws a single line at (x, y) with the given size in points.
	Text(x, y float64, size float64, bold bool, text string)
	// Image places a PNG at (x, y) scaled to width w and height h,
	// returning the drawn height in mm. A non-positive h draws at the
	// aspect-preserving height for w.
	Image(pngData []byte, x, y, w, h float64) (float64, error)
	// ImageHeight returns the height the PNG would occupy at width w
	// without drawing it.
	ImageHeight(pngData []byte, w float64) (float64, error)
	// Table draws a header row plus body rows starting at startY,
	// breaking pages as needed, and returns the y position after the
	// last row.
	Table(header []string, widths []float64, rows [][]string, startY float64, style TableStyle) float64
	// Bytes finalizes the document and returns the PDF.
	Bytes() ([]byte, error)
}

const (
	pageMargin = 15.0
)

type pdfDocument struct {
	pdf      *fpdf.Fpdf
	imageSeq atomic.Int64
}

// NewPDF creates an A4 portrait document with the standard margin.
func NewPDF() Document {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, pageMargin)
	pdf.AddPage()
	return &pdfDocument{pdf: pdf}
}

func (d *pdfDocument) PageSize() (float64, float64) {
	w, h := d.pdf.GetPageSize()
	return w - 2*pageMargin, h
}

func (d *pdfDocument) Margin() float64 {
	return pageMargin
}

func (d *pdfDocument) CurrentPage() int {
	return d.pdf.PageNo()
}

func (d *pdfDocument) AddPage() {
	d.pdf.AddPage()
}

func (d *pdfDocument) Text(x, y float64, size float64, bold bool, text string) {
	style := ""
	if bold {
		style = "B"
	}
	d.pdf.SetFont("Helvetica", style, size)
	d.pdf.SetTextColor(17, 24, 39)
	d.pdf.Text(x, y, text)
}

func (d *pdfDocument) Image(pngData []byte, x, y, w, h float64) (float64, error) {
	if h <= 0 {
		natural, err := d.ImageHeight(pngData, w)
		if err != nil {
			return 0, err
		}
		h = natural
	}

	name := fmt.Sprintf("region-%d", d.imageSeq.Add(1))
	d.pdf.RegisterImageOptionsReader(name,
		fpdf.ImageOptions{ImageType: "PNG"},
		bytes.NewReader(pngData))
	if d.pdf.Err() {
		return 0, fmt.Errorf("register image: %w", d.pdf.Error())
	}

	d.pdf.ImageOptions(name, x, y, w, h, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	if d.pdf.Err() {
		return 0, fmt.Errorf("draw image: %w", d.pdf.Error())
	}
	return h, nil
}

func (d *pdfDocument) ImageHeight(pngData []byte, w float64) (float64, error) {
	cfg, err := png.DecodeConfig(bytes.NewReader(pngData))
	if err != nil {
		return 0, fmt.Errorf("decode png: %w", err)
	}
	if cfg.Width <= 0 {
		return 0, fmt.Errorf("png has zero width")
	}
	return w * float64(cfg.Height) / float64(cfg.Width), nil
}

func (d *pdfDocument) Table(header []string, widths []float64, rows [][]string, startY float64, style TableStyle) float64 {
	_, pageH := d.pdf.GetPageSize()
	bottom := pageH - pageMargin

	y := startY
	drawHeader := func() {
		d.pdf.SetFont("Helvetica", "B", style.FontSize)
		d.pdf.SetFillColor(style.HeaderFill[0], style.HeaderFill[1], style.HeaderFill[2])
		d.pdf.SetTextColor(style.HeaderText[0], style.HeaderText[1], style.HeaderText[2])
		d.pdf.SetXY(pageMargin, y)
		for i, cell := range header {
			d.pdf.CellFormat(widths[i], style.RowHeight, cell, "1", 0, "L", true, 0, "")
		}
		y += style.RowHeight
	}

	if y+style.RowHeight > bottom {
		d.pdf.AddPage()
		y = pageMargin
	}
	drawHeader()

	d.pdf.SetFont("Helvetica", "", style.FontSize)
	d.pdf.SetTextColor(17, 24, 39)
	for _, row := range rows {
		if y+style.RowHeight > bottom {
			d.pdf.AddPage()
			y = pageMargin
			drawHeader()
			d.pdf.SetFont("Helvetica", "", style.FontSize)
			d.pdf.SetTextColor(17, 24, 39)
		}
		d.pdf.SetXY(pageMargin, y)
		for i, cell := range row {
			d.pdf.CellFormat(widths[i], style.RowHeight, cell, "1", 0, "L", false, 0, "")
		}
		y += style.RowHeight
	}

	return y
}

func (d *pdfDocument) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("finalize pdf: %w", err)
	}
	return buf.Bytes(), nil
}

var _ Document = (*pdfDocument)(nil)
