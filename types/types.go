package types

import (
	"time"

	"github.com/google/uuid"
)

// Document is an uploaded file as stored on disk. It is written once and
// never deleted by the service.
type Document struct {
	ID               uuid.UUID
	OriginalName     string // name given by the browser
	StorageName      string // <uuid hex>_<sanitized name>
	StoragePath      string
	Extension        string // lower-cased, dot included
	PivotPath        string // extracted text file
	Pages            int    // PDF only, 0 when unknown
	ExtractionFailed bool
	CreatedAt        time.Time
}

type LLMConfig struct {
	Provider string `json:"llm_provider"`
	Model    string `json:"llm_model"`
	MaxChars int    `json:"max_chars"`
	Points   int    `json:"points"`
}
