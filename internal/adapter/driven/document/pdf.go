package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/ericfisherdev/mydiary/internal/domain/model"
	"github.com/ericfisherdev/mydiary/internal/domain/port/driven"
)

// Page geometry in points: A4 with 40pt side and 60pt top/bottom margins.
const (
	marginSide     = 40.0
	marginTopBot   = 60.0
	titleSize      = 20.0
	bodySize       = 14.0
	bodyLineHeight = 20.0
	imageMaxWidth  = 300.0
	imageMaxHeight = 200.0
	fontFamily     = "diary"
)

var _ driven.DocumentWriter = (*PDFWriter)(nil)

// ErrFontCoverage is returned when the body holds characters the core PDF
// font cannot encode and no TrueType font is configured.
var ErrFontCoverage = errors.New("text not covered by the built-in PDF font")

// systemFonts lists TrueType fonts with Traditional Chinese coverage that
// ship with common desktops, in lookup order.
var systemFonts = []string{
	"/usr/share/fonts/truetype/droid/DroidSansFallbackFull.ttf",
	"/usr/share/fonts/truetype/arphic-gkai00mp/gkai00mp.ttf",
	"/usr/share/fonts/TTF/DroidSansFallbackFull.ttf",
	"/System/Library/Fonts/Supplemental/Arial Unicode.ttf",
	"/Library/Fonts/Arial Unicode.ttf",
	`C:\Windows\Fonts\kaiu.ttf`,
}

// SystemFont returns the first installed font from a list of CJK-capable
// TrueType fonts, or "" when none is present.
func SystemFont() string {
	for _, path := range systemFonts {
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path
		}
	}
	return ""
}

// PDFWriter renders a single-entry A4 document. With a TrueType font that
// covers CJK the labels are written as-is; without one the core Helvetica
// font is used and labels fall back to plain ASCII.
type PDFWriter struct {
	fontPath string
	compress bool
}

// NewPDFWriter returns a writer embedding the TrueType font at fontPath.
// An empty fontPath selects the core font, which only accepts bodies its
// code page can encode.
func NewPDFWriter(fontPath string) *PDFWriter {
	return &PDFWriter{fontPath: fontPath, compress: true}
}

func (*PDFWriter) Format() string      { return "pdf" }
func (*PDFWriter) Extension() string   { return "pdf" }
func (*PDFWriter) ContentType() string { return "application/pdf" }

func (p *PDFWriter) Write(ctx context.Context, doc model.Document, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetCompression(p.compress)
	pdf.SetMargins(marginSide, marginTopBot, marginSide)
	pdf.SetAutoPageBreak(true, marginTopBot)
	pdf.SetTitle(doc.Title, true)
	pdf.SetSubject(doc.Date.String(), true)
	pdf.SetCreator("mydiary", true)

	family, tr := p.setupFont(pdf)
	sep := metaSeparator
	if p.fontPath == "" {
		if err := checkCoverage(doc.Body, tr); err != nil {
			return err
		}
		doc, sep = asciiDocument(doc), ": "
	}

	bg := doc.Background
	pdf.SetHeaderFuncMode(func() {
		pageW, pageH := pdf.GetPageSize()
		pdf.SetFillColor(int(bg.R), int(bg.G), int(bg.B))
		pdf.Rect(0, 0, pageW, pageH, "F")
	}, true)
	pdf.AddPage()

	pdf.SetFont(family, "B", titleSize)
	pdf.SetTextColor(64, 64, 64)
	pdf.CellFormat(0, titleSize+4, tr(doc.Title), "", 1, "C", false, 0, "")
	pdf.Ln(bodySize)

	pdf.SetFont(family, "", bodySize)
	pdf.SetTextColor(0, 0, 0)
	pdf.MultiCell(0, bodyLineHeight, tr(bodyText(doc, sep)), "", "L", false)

	if doc.ImagePath != "" {
		if err := drawImage(pdf, doc.ImagePath); err != nil {
			return err
		}
	}

	if pdf.Err() {
		return pdf.Error()
	}
	return pdf.Output(w)
}

// setupFont registers the configured TrueType font and returns the family
// to select plus the translator applied to every string.
func (p *PDFWriter) setupFont(pdf *fpdf.Fpdf) (string, func(string) string) {
	if p.fontPath == "" {
		return "Helvetica", pdf.UnicodeTranslatorFromDescriptor("")
	}
	pdf.AddUTF8Font(fontFamily, "", p.fontPath)
	pdf.AddUTF8Font(fontFamily, "B", p.fontPath)
	return fontFamily, func(s string) string { return s }
}

// checkCoverage fails on the first rune the code page translator would
// replace, so a document is never written with its text silently dropped.
func checkCoverage(s string, tr func(string) string) error {
	for _, r := range s {
		if r < 0x80 {
			continue
		}
		if out := tr(string(r)); out == "" || out == "." {
			return fmt.Errorf("%w: %q; set MYDIARY_PDF_FONT to a TrueType font that covers it", ErrFontCoverage, r)
		}
	}
	return nil
}

func bodyText(doc model.Document, sep string) string {
	var b strings.Builder
	for _, m := range doc.Meta {
		b.WriteString(m.Label)
		b.WriteString(sep)
		b.WriteString(m.Value)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	b.WriteString(doc.Body)
	return b.String()
}

// asciiDocument swaps the emoji and CJK labels for ones the core fonts can
// encode. The body is left to the code page translator.
func asciiDocument(doc model.Document) model.Document {
	orUnset := func(s string) string {
		if s == "" {
			return "(unset)"
		}
		return s
	}
	doc.Title = "My Diary"
	doc.Meta = []model.MetaLine{
		{Label: "Date", Value: doc.Date.String()},
		{Label: "Mood", Value: orUnset(string(doc.Mood))},
		{Label: "Weather", Value: orUnset(string(doc.Weather))},
	}
	return doc
}

// drawImage scales the image to fit 300x200pt, keeping its aspect ratio, and
// centers it horizontally below the text.
func drawImage(pdf *fpdf.Fpdf, path string) error {
	imageType, err := detectImageType(path)
	if err != nil {
		return err
	}

	opts := fpdf.ImageOptions{ImageType: imageType}
	info := pdf.RegisterImageOptions(path, opts)
	if pdf.Err() {
		return fmt.Errorf("register image: %w", pdf.Error())
	}
	if info == nil {
		return errors.New("register image: no image info")
	}

	iw, ih := info.Extent()
	if iw <= 0 || ih <= 0 {
		return errors.New("image has no extent")
	}
	scale := min(imageMaxWidth/iw, imageMaxHeight/ih)
	w, h := iw*scale, ih*scale

	pageW, _ := pdf.GetPageSize()
	pdf.Ln(bodySize)
	pdf.ImageOptions(path, (pageW-w)/2, 0, w, h, true, opts, 0, "")
	return nil
}

// detectImageType sniffs the file header and maps it to an fpdf image type.
func detectImageType(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read image: %w", err)
	}

	switch http.DetectContentType(head[:n]) {
	case "image/png":
		return "PNG", nil
	case "image/jpeg":
		return "JPG", nil
	case "image/gif":
		return "GIF", nil
	}
	return "", fmt.Errorf("unsupported image format in %s", path)
}
