package loader

import (
	"archive/zip"
	"encoding/xml"
	"io"
	"strings"
)

const docxDocumentPart = "word/document.xml"

type DOCXExtractor struct{}

func NewDOCXExtractor() *DOCXExtractor {
	return &DOCXExtractor{}
}

func (e *DOCXExtractor) Format() Format { return FormatDOCX }

func (e *DOCXExtractor) Extensions() []string { return []string{".docx"} }

// Extract joins the body paragraphs with newlines. Paragraphs inside tables
// are not body paragraphs and are left out.
func (e *DOCXExtractor) Extract(path string) Result {
	return guard(FormatDOCX, func() (string, error) {
		zr, err := zip.OpenReader(path)
		if err != nil {
			return "", err
		}
		defer zr.Close()

		rc, err := openZipEntry(&zr.Reader, docxDocumentPart)
		if err != nil {
			return "", err
		}
		defer rc.Close()

		paragraphs, err := readBodyParagraphs(rc)
		if err != nil {
			return "", err
		}
		return strings.Join(paragraphs, "\n"), nil
	})
}

func readBodyParagraphs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)

	var (
		stack      []string
		paragraphs []string
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		start, isStart := tok.(xml.StartElement)
		if !isStart {
			if _, isEnd := tok.(xml.EndElement); isEnd && len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			continue
		}

		if start.Name.Local == "p" && len(stack) > 0 && stack[len(stack)-1] == "body" {
			var p xmlNode
			if err := dec.DecodeElement(&p, &start); err != nil {
				return nil, err
			}
			var b strings.Builder
			p.text(&b)
			paragraphs = append(paragraphs, b.String())
			continue
		}
		stack = append(stack, start.Name.Local)
	}
	return paragraphs, nil
}
