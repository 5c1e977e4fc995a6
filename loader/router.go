package loader

import (
	"studydigest/logger"
)

// Router picks the extractor matching a file's extension.
type Router struct {
	logger     logger.ILogger
	extractors map[string]Extractor
}

func NewRouter(log logger.ILogger, extractors ...Extractor) *Router {
	if log == nil {
		log = logger.NewNop()
	}
	r := &Router{
		logger:     log,
		extractors: make(map[string]Extractor),
	}
	for _, e := range extractors {
		for _, ext := range e.Extensions() {
			r.extractors[ext] = e
		}
	}
	return r
}

// NewDefaultRouter wires the PDF, DOCX and PPTX extractors.
func NewDefaultRouter(log logger.ILogger) *Router {
	return NewRouter(log, NewPDFExtractor(log), NewDOCXExtractor(), NewPPTXExtractor())
}

// Extract dispatches on the file suffix only; content is not sniffed.
// An unknown extension yields an empty Result.
func (r *Router) Extract(path string) Result {
	ext := Ext(path)
	e, found := r.extractors[ext]
	if !found {
		r.logger.Debug("LOADER", "no extractor for extension", map[string]interface{}{
			"path": path,
			"ext":  ext,
		})
		return Result{}
	}

	res := e.Extract(path)
	if res.Format == "" {
		res.Format = e.Format()
	}
	details := map[string]interface{}{
		"path":   path,
		"format": string(e.Format()),
		"chars":  len(res.Text),
	}
	if res.Failed() {
		details["error"] = res.Err.Error()
		r.logger.Warn("LOADER", "extraction failed", details)
	} else {
		r.logger.Info("LOADER", "text extracted", details)
	}
	return res
}

func (r *Router) ExtractText(path string) string {
	return r.Extract(path).Pivot()
}
