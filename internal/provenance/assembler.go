// Package provenance renders shift logs into Statement of Work Accomplished documents.
package provenance

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/fentz26/veritas/internal/models"
)

const (
	// DefaultMaxPhotoWidth is the pixel width above which photos are downscaled.
	DefaultMaxPhotoWidth = 800
	// DefaultPhotoWidthMM is the rendered photo width on the page.
	DefaultPhotoWidthMM = 100.0

	documentTitle = "Statement of Work Accomplished"
	fontFamily    = "Arial"
	ruleLeft      = 10.0
	ruleRight     = 200.0
)

// Options controls document rendering.
type Options struct {
	// MaxPhotoWidth is the downscale threshold in pixels.
	MaxPhotoWidth int
	// PhotoWidthMM is the width photos are drawn at.
	PhotoWidthMM float64
	// CreationDate pins the document dates. Zero means the time of assembly.
	// With a fixed date, identical input renders identical bytes as long as
	// no two embedded photos share a pixel width. Image objects are ordered
	// by width only, so equal-width photos may swap object numbers between
	// renders.
	CreationDate time.Time
	// Uncompressed disables page stream compression.
	Uncompressed bool
}

// DefaultOptions returns the default rendering options.
func DefaultOptions() *Options {
	return &Options{
		MaxPhotoWidth: DefaultMaxPhotoWidth,
		PhotoWidthMM:  DefaultPhotoWidthMM,
	}
}

// Assembler builds PDF documents from shift logs.
type Assembler struct {
	downscaler Downscaler
	opts       Options
}

// NewAssembler creates a new assembler. A nil downscaler embeds photos
// unmodified.
func NewAssembler(downscaler Downscaler, opts *Options) *Assembler {
	if opts == nil {
		opts = DefaultOptions()
	}
	o := *opts
	if o.MaxPhotoWidth <= 0 {
		o.MaxPhotoWidth = DefaultMaxPhotoWidth
	}
	if o.PhotoWidthMM <= 0 {
		o.PhotoWidthMM = DefaultPhotoWidthMM
	}
	return &Assembler{downscaler: downscaler, opts: o}
}

// Assemble renders logs, in the order given, into a PDF at outputPath and
// returns the path written. Parent directories are created as needed.
// A photo that cannot be embedded is replaced by an error line in its
// record; it never fails the document.
func (a *Assembler) Assemble(logs []models.ShiftLog, outputPath string, project *models.ProjectMetadata) (string, error) {
	if len(logs) == 0 {
		return "", ErrNoShiftLogs
	}
	if outputPath == "" {
		return "", ErrNoOutputPath
	}

	pdf := a.newDocument()
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	r := &renderer{pdf: pdf, tr: tr}

	pdf.AddPage()
	pdf.SetFont(fontFamily, "B", 16)
	r.line(10, documentTitle, "C")
	pdf.Ln(5)

	if project != nil {
		r.projectHeader(project)
	}

	for i := range logs {
		r.record(&logs[i])
		if logs[i].PhotoBase64 != "" {
			if err := a.embedPhoto(r, &logs[i]); err != nil {
				log.Printf("Error embedding photo for %s on %s: %v", logs[i].SegmentID, logs[i].Date, err)
				pdf.SetFont(fontFamily, "", 12)
				r.line(8, fmt.Sprintf("[Error embedding photo: %v]", err), "")
			}
		}
		pdf.Ln(5)
		r.rule()
		pdf.Ln(5)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return "", fmt.Errorf("render document: %w", err)
	}

	if err := writeFileAtomic(outputPath, buf.Bytes()); err != nil {
		return "", err
	}
	return outputPath, nil
}

func (a *Assembler) newDocument() *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	created := a.opts.CreationDate
	if created.IsZero() {
		created = time.Now()
	}
	pdf.SetCreationDate(created)
	pdf.SetModificationDate(created)
	pdf.SetCatalogSort(true)
	pdf.SetCompression(!a.opts.Uncompressed)
	pdf.SetTitle(documentTitle, true)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(fontFamily, "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	return pdf
}

// embedPhoto stages the record's photo and draws it below the record block.
func (a *Assembler) embedPhoto(r *renderer, entry *models.ShiftLog) error {
	photo, err := a.stagePhoto(entry.PhotoBase64)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPhotoEmbed, err)
	}
	defer photo.release()

	pdf := r.pdf
	opts := fpdf.ImageOptions{ImageType: photo.format.fpdfType()}
	pdf.RegisterImageOptionsReader(photo.name, opts, photo.buf)
	if pdf.Err() {
		cause := pdf.Error()
		pdf.ClearError()
		return fmt.Errorf("%w: %v", ErrPhotoEmbed, cause)
	}

	pdf.Ln(5)
	pdf.ImageOptions(photo.name, -1, 0, a.opts.PhotoWidthMM, 0, true, opts, 0, "")
	if pdf.Err() {
		cause := pdf.Error()
		pdf.ClearError()
		return fmt.Errorf("%w: %v", ErrPhotoEmbed, cause)
	}
	pdf.Ln(2)
	pdf.SetFont(fontFamily, "I", 10)
	r.line(6, "Field Photo for "+orNA(entry.Date), "")
	pdf.SetFont(fontFamily, "", 12)
	return nil
}

// renderer wraps the PDF with the text helpers shared by all blocks.
type renderer struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

// line writes one full-width cell and moves to the next line.
func (r *renderer) line(h float64, text, align string) {
	r.pdf.CellFormat(0, h, r.tr(text), "", 1, align, false, 0, "")
}

func (r *renderer) rule() {
	y := r.pdf.GetY()
	r.pdf.Line(ruleLeft, y, ruleRight, y)
}

func (r *renderer) projectHeader(p *models.ProjectMetadata) {
	pdf := r.pdf
	pdf.SetFont(fontFamily, "B", 12)
	r.line(8, fmt.Sprintf("Project: %s (ID: %s)", orNA(p.ProjectTitle), orNA(p.ProjectID)), "")

	pdf.SetFont(fontFamily, "", 10)
	r.line(6, "Contract: "+orNA(p.ContractID), "")
	r.line(6, "Contractor: "+orNA(p.ContractorName), "")
	r.line(6, "Owner: "+orNA(p.Owner), "")
	r.line(6, "Type: "+orNA(p.ProjectType), "")
	r.line(6, "Location: "+orNA(p.Location), "")
	r.line(6, fmt.Sprintf("Start Date: %s   End Date: %s", orNA(p.StartDate), orNA(p.EndDate)), "")

	if p.Notes != "" {
		pdf.MultiCell(0, 6, r.tr("Notes: "+p.Notes), "", "", false)
	}

	pdf.Ln(5)
	r.rule()
	pdf.Ln(5)
}

func (r *renderer) record(entry *models.ShiftLog) {
	pdf := r.pdf
	pdf.SetFont(fontFamily, "B", 12)
	r.line(10, "Date: "+orNA(entry.Date), "")
	r.line(10, "Segment: "+orNA(entry.SegmentID), "")
	pdf.Ln(2)

	pdf.SetFont(fontFamily, "", 12)
	r.line(8, "Blocks Completed Today: "+formatBlocks(entry.ShiftOutputBlocks), "")
	r.line(8, "Cumulative Blocks: "+formatBlocks(entry.CumulativeBlocks), "")
	r.line(8, "Remaining Blocks: "+formatBlocks(entry.RemainingBlocks), "")

	crew := "N/A"
	if entry.CrewSize > 0 {
		crew = strconv.Itoa(entry.CrewSize)
	}
	r.line(8, "Crew Size: "+crew, "")
	r.line(8, "Weather: "+orNA(string(entry.Weather)), "")

	if entry.HasGPS() {
		r.line(8, fmt.Sprintf("GPS: (%s, %s)", formatCoord(*entry.Latitude), formatCoord(*entry.Longitude)), "")
	} else {
		r.line(8, "GPS: Not Available", "")
	}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func formatBlocks(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// writeFileAtomic writes data next to path and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".veritas-*.pdf")
	if err != nil {
		return fmt.Errorf("create artifact: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	return nil
}
