package render

import (
	"html"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/go-pkgz/lgr"
	"github.com/microcosm-cc/bluemonday"

	"feedbook/pkg/domain"
)

// renderPDF drives the same markup template as the HTML backend and flows its
// output, stripped down to plain text, into a fixed A4 layout
func (r *Renderer) renderPDF(articles []domain.Article, path string) (string, error) {
	var buf strings.Builder
	if err := r.tmpl.ExecuteTemplate(&buf, "feed.html", pageFor(articles)); err != nil {
		lgr.Printf("[ERROR] PDF rendering failed, nothing written: %v", err)
		return "", nil
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("") // core fonts are cp1252
	pdf.SetFont("Helvetica", "", 11)
	pdf.AddPage()

	for _, line := range textLines(buf.String()) {
		pdf.MultiCell(0, 5.5, tr(line), "", "L", false)
	}

	if err := pdf.OutputFileAndClose(path); err != nil {
		lgr.Printf("[ERROR] PDF assembly failed, nothing written: %v", err)
		return "", nil
	}
	lgr.Printf("[INFO] rendered PDF into %s", path)
	return path, nil
}

// stripPolicy reduces the rendered markup to its text content
var stripPolicy = func() *bluemonday.Policy {
	p := bluemonday.StrictPolicy()
	p.SkipElementsContent("style", "script", "head")
	return p
}()

// textLines strips markup from the template output and collapses the result
// into non-empty trimmed lines
func textLines(htmlText string) []string {
	text := html.UnescapeString(stripPolicy.Sanitize(htmlText))
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}
