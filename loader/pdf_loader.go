package loader

import (
	"strings"

	"studydigest/loader/internal"
	"studydigest/logger"

	"github.com/ledongthuc/pdf"
)

// PDFExtractor reads text-based PDFs. Scanned pages yield no text; there is no OCR.
type PDFExtractor struct {
	logger logger.ILogger
}

func NewPDFExtractor(log logger.ILogger) *PDFExtractor {
	if log == nil {
		log = logger.NewNop()
	}
	return &PDFExtractor{logger: log}
}

func (e *PDFExtractor) Format() Format { return FormatPDF }

func (e *PDFExtractor) Extensions() []string { return []string{".pdf"} }

func (e *PDFExtractor) Extract(path string) Result {
	res := guard(FormatPDF, func() (string, error) {
		return readPDFPages(path)
	})
	if res.Failed() {
		return res
	}

	pages, err := internal.PageCount(path)
	if err != nil {
		e.logger.Debug("LOADER", "pdf page count unavailable", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
	}
	res.Pages = pages
	return res
}

// readPDFPages joins per-page text with a blank line. A page without
// readable text contributes an empty string.
func readPDFPages(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	n := r.NumPage()
	pages := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		pages = append(pages, pageText(r.Page(i)))
	}
	return strings.Join(pages, "\n\n"), nil
}

func pageText(p pdf.Page) (text string) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
		}
	}()

	if p.V.IsNull() {
		return ""
	}
	txt, err := p.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(txt)
}
