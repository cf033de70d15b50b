package report

import (
	"bytes"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/user/player_radar_go/internal/analysis"
)

const (
	inchToMm               = 25.4
	pdfPageWidthLandscape  = 11 * inchToMm // Letter landscape
	pdfPageHeightLandscape = 8.5 * inchToMm
	pdfMargin              = 0.5 * inchToMm
	pdfContentWidth        = pdfPageWidthLandscape - (2 * pdfMargin)
)

// Image keys understood by BuildComparisonReport.
const (
	ImageRadar          = "radar"
	ImageOverviewPrefix = "overview_" // followed by the entity index
)

// EntityOverview is the single-entity overview of one compared player.
type EntityOverview struct {
	Name  string
	Items []analysis.OverviewItem
}

// ReportData is everything that goes into a comparison report.
type ReportData struct {
	Title       string
	Comparison  *analysis.Comparison
	Overviews   []EntityOverview
	Images      map[string][]byte // PNG images by key
	GeneratedAt time.Time
}

// pdfStyler holds reusable styling and state for PDF generation
type pdfStyler struct {
	pdf         *gofpdf.Fpdf
	styles      map[string]func() // map of style name to function that sets font, color etc.
	lineHeight  float64
	currentY    float64 // To manually track Y position for flowing content
	pageHeight  float64
	contentTopY float64 // Top Y after margin
}

func newPDFStyler(pdf *gofpdf.Fpdf) *pdfStyler {
	s := &pdfStyler{
		pdf:         pdf,
		styles:      make(map[string]func()),
		lineHeight:  6, // mm
		pageHeight:  pdfPageHeightLandscape - pdfMargin,
		contentTopY: pdfMargin,
	}
	s.currentY = s.contentTopY
	s.defineStyles()
	return s
}

func (s *pdfStyler) defineStyles() {
	s.styles["h1"] = func() {
		s.pdf.SetFont("Arial", "B", 16)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["h2"] = func() {
		s.pdf.SetFont("Arial", "B", 14)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["normal"] = func() {
		s.pdf.SetFont("Arial", "", 10)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["small"] = func() {
		s.pdf.SetFont("Arial", "I", 8)
		s.pdf.SetTextColor(90, 90, 90)
	}
	s.styles["tableHeader"] = func() {
		s.pdf.SetFont("Arial", "B", 9)
		s.pdf.SetFillColor(200, 200, 200) // Light grey
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["tableCell"] = func() {
		s.pdf.SetFont("Arial", "", 9)
		s.pdf.SetTextColor(50, 50, 50)
	}
	s.styles["tableCellMissing"] = func() {
		s.pdf.SetFont("Arial", "I", 9)
		s.pdf.SetTextColor(150, 150, 150)
	}
}

func (s *pdfStyler) applyStyle(styleName string) {
	if fn, ok := s.styles[styleName]; ok {
		fn()
	} else {
		s.styles["normal"]() // Default
	}
}

func (s *pdfStyler) checkAddPage(neededHeight float64) {
	if s.currentY+neededHeight > s.pageHeight {
		s.newPage()
	}
}

func (s *pdfStyler) newPage() {
	s.pdf.AddPage()
	s.currentY = s.contentTopY
}

func (s *pdfStyler) writeParagraph(text string, styleName string, align string) {
	s.applyStyle(styleName)
	lines := s.pdf.SplitLines([]byte(text), pdfContentWidth)
	s.checkAddPage(math.Max(1, float64(len(lines))) * s.lineHeight)

	s.pdf.SetXY(pdfMargin, s.currentY)
	s.pdf.MultiCell(pdfContentWidth, s.lineHeight, text, "", align, false)
	s.currentY = s.pdf.GetY() // Update Y based on what MultiCell consumed
	s.currentY += 1           // Small gap after paragraph
}

func (s *pdfStyler) addSpacer(height float64) {
	s.checkAddPage(height)
	s.currentY += height
}

// writeTable draws a bordered table. widthsRel are fractions of the content
// width; cellStyle picks the style of each body cell.
func (s *pdfStyler) writeTable(headers []string, widthsRel []float64, rows [][]string, cellStyle func(row, col int) string) {
	widths := make([]float64, len(widthsRel))
	for i, rel := range widthsRel {
		widths[i] = rel * pdfContentWidth
	}

	drawHeader := func() {
		sX := pdfMargin
		s.applyStyle("tableHeader")
		for i, header := range headers {
			s.pdf.SetXY(sX, s.currentY)
			s.pdf.CellFormat(widths[i], s.lineHeight, header, "1", 0, "C", true, 0, "")
			sX += widths[i]
		}
		s.currentY += s.lineHeight
	}

	s.checkAddPage(s.lineHeight * 2)
	drawHeader()
	for r, row := range rows {
		if s.currentY+s.lineHeight > s.pageHeight {
			s.newPage()
			drawHeader()
		}
		sX := pdfMargin
		for c, cellData := range row {
			s.applyStyle(cellStyle(r, c))
			s.pdf.SetXY(sX, s.currentY)
			s.pdf.CellFormat(widths[c], s.lineHeight, cellData, "1", 0, "C", false, 0, "")
			sX += widths[c]
		}
		s.currentY += s.lineHeight
	}
}

func (s *pdfStyler) addImage(imageBytes []byte, imageName string, width float64, height float64, caption string, styleName string) {
	// imageName is the registration key gofpdf refers to later.
	s.pdf.RegisterImageReader(imageName, "PNG", bytes.NewReader(imageBytes))
	if s.pdf.Err() {
		log.Printf("[WARN] failed to register image %s: %v", imageName, s.pdf.Error())
		return
	}

	if width == 0 || height == 0 {
		info := s.pdf.GetImageInfo(imageName)
		width = pdfContentWidth / 2
		height = width
		if info != nil && info.Width() > 0 {
			height = width * info.Height() / info.Width()
		}
	}

	if width > pdfContentWidth {
		ratio := pdfContentWidth / width
		width = pdfContentWidth
		height *= ratio
	}

	captionHeight := 0.0
	if caption != "" {
		captionHeight = s.lineHeight + 1
	}
	s.checkAddPage(height + captionHeight)

	x := pdfMargin + (pdfContentWidth-width)/2
	s.pdf.Image(imageName, x, s.currentY, width, height, false, "PNG", 0, "")
	s.currentY += height

	if caption != "" {
		s.addSpacer(1)
		s.writeParagraph(caption, styleName, "C")
	}
	s.addSpacer(2)
}

// pdfText converts text to the code page of the core fonts.
func pdfText(pdf *gofpdf.Fpdf) func(string) string {
	return pdf.UnicodeTranslatorFromDescriptor("")
}

// BuildComparisonReport writes a landscape PDF with the comparison table, the
// radar chart and the per-player overviews.
func BuildComparisonReport(filepath string, data ReportData) error {
	pdf := gofpdf.New("L", "mm", "Letter", "") // Landscape, mm, Letter size
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	pdf.AddPage()
	tr := pdfText(pdf)

	styler := newPDFStyler(pdf)

	title := data.Title
	if title == "" {
		title = "Player Comparison"
	}
	styler.writeParagraph(tr(title), "h1", "C")
	if !data.GeneratedAt.IsZero() {
		styler.writeParagraph("Generated "+data.GeneratedAt.Format("2006-01-02 15:04"), "small", "C")
	}
	styler.addSpacer(4)

	cmp := data.Comparison
	if cmp == nil || len(cmp.Series) == 0 {
		styler.writeParagraph("No comparison to display.", "normal", "L")
		return pdf.OutputFileAndClose(filepath)
	}

	styler.writeParagraph(tr(fmt.Sprintf("Reference population: %s. Values are min-max normalized per attribute against it.", cmp.Reference)), "normal", "L")
	if len(cmp.Dropped) > 0 {
		styler.writeParagraph(tr("Attributes without a reference range (dropped): "+strings.Join(cmp.Dropped, ", ")), "normal", "L")
	}
	if len(cmp.Missing) > 0 {
		missing := make([]string, len(cmp.Missing))
		for i, m := range cmp.Missing {
			missing[i] = fmt.Sprintf("%s: %s", m.Entity, m.Attribute)
		}
		styler.writeParagraph(tr("Missing values: "+strings.Join(missing, "; ")), "normal", "L")
	}
	styler.addSpacer(3)

	if img, ok := data.Images[ImageRadar]; ok && len(img) > 0 {
		side := math.Min(pdfContentWidth*0.6, styler.pageHeight-styler.currentY-styler.lineHeight-4)
		styler.addImage(img, ImageRadar, side, side, "Radar comparison (normalized values)", "small")
	} else {
		styler.writeParagraph("Radar chart not available.", "normal", "L")
	}

	styler.newPage()
	styler.writeParagraph("Attribute Comparison", "h2", "L")
	headers := []string{"Attribute", "Min", "Max"}
	for _, s := range cmp.Series {
		headers = append(headers, tr(s.Label), "Normalized")
	}
	widthsRel := make([]float64, len(headers))
	widthsRel[0], widthsRel[1], widthsRel[2] = 0.16, 0.1, 0.1
	for i := 3; i < len(headers); i++ {
		widthsRel[i] = 0.64 / float64(len(headers)-3)
	}
	var rows [][]string
	for i, attr := range cmp.Categories {
		r := cmp.Ranges[attr]
		row := []string{tr(attr), formatRaw(r.Min), formatRaw(r.Max)}
		for j, s := range cmp.Series {
			raw, ok := cmp.Raw(j, attr)
			rawText := "n/a"
			if ok {
				rawText = formatRaw(raw)
			}
			row = append(row, rawText, formatNorm(s.Points[i].Value))
		}
		rows = append(rows, row)
	}
	styler.writeTable(headers, widthsRel, rows, func(r, c int) string {
		if rows[r][c] == "n/a" || rows[r][c] == "-" {
			return "tableCellMissing"
		}
		return "tableCell"
	})
	styler.addSpacer(5)

	for i, ov := range data.Overviews {
		key := fmt.Sprintf("%s%d", ImageOverviewPrefix, i)
		img, ok := data.Images[key]
		if !ok || len(img) == 0 {
			continue
		}
		styler.newPage()
		styler.writeParagraph(tr(ov.Name+": Attribute Overview"), "h2", "L")
		width := pdfContentWidth * 0.8
		height := math.Min(width*(60+28*float64(len(ov.Items)))/700, styler.pageHeight-styler.currentY-styler.lineHeight-4)
		styler.addImage(img, key, height*700/(60+28*float64(len(ov.Items))), height, "Red < 33% <= orange < 66% <= green, gray = missing", "small")
	}

	return pdf.OutputFileAndClose(filepath)
}
