// Package loader turns uploaded PDF, DOCX and PPTX files into pivot text.
//
// Extraction never fails past this package: every extractor returns a Result,
// which is either the normalized text or an extraction error. Result.Pivot
// renders the error case as an inline marker such as "[Error:PDF] <cause>" so
// the text can be stored and displayed without special-casing.
package loader

import (
	"fmt"
	"path/filepath"
	"strings"
)

type Format string

const (
	FormatPDF  Format = "PDF"
	FormatDOCX Format = "DOCX"
	FormatPPTX Format = "PPTX"
)

// MarkerPrefix starts every inline error marker.
const MarkerPrefix = "[Error:"

// AllowedExtensions lists the upload suffixes accepted by the service.
var AllowedExtensions = []string{".pdf", ".docx", ".pptx"}

// Extractor reads one document format.
type Extractor interface {
	Format() Format
	Extensions() []string
	Extract(path string) Result
}

// Result is the outcome of one extraction: Ok(Text) when Err is nil,
// ExtractionError(Err) otherwise.
type Result struct {
	Format Format
	Text   string
	Err    error
	Pages  int
}

func ok(format Format, text string) Result {
	return Result{Format: format, Text: strings.TrimSpace(text)}
}

func failed(format Format, err error) Result {
	return Result{Format: format, Err: err}
}

func (r Result) Failed() bool {
	return r.Err != nil
}

// Pivot returns the string persisted as pivot text.
func (r Result) Pivot() string {
	if r.Err != nil {
		return Marker(r.Format, r.Err)
	}
	return r.Text
}

func Marker(format Format, err error) string {
	return fmt.Sprintf("%s%s] %v", MarkerPrefix, format, err)
}

// Ext returns the lower-cased extension of name, dot included.
func Ext(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

func IsAllowed(name string) bool {
	ext := Ext(name)
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// guard runs fn and converts a returned error or a panic from the parsing
// libraries into an extraction error.
func guard(format Format, fn func() (string, error)) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = failed(format, fmt.Errorf("unreadable document: %v", r))
		}
	}()

	text, err := fn()
	if err != nil {
		return failed(format, err)
	}
	return ok(format, text)
}
