package api

import (
	"path/filepath"

	"studydigest/session"
	"studydigest/store"

	"github.com/gofiber/fiber/v2"
)

// FileHandler lets the browser download the extracted text of its document.
type FileHandler struct {
	sessions session.Store
	pivots   *store.PivotStore
}

func NewFileHandler(sessions session.Store, pivots *store.PivotStore) *FileHandler {
	return &FileHandler{
		sessions: sessions,
		pivots:   pivots,
	}
}

func (h *FileHandler) HandlePivot(c *fiber.Ctx) error {
	st, err := loadState(c.UserContext(), h.sessions, c.Cookies(SessionCookie))
	if err != nil {
		return err
	}
	if !st.HasDocument() || !h.pivots.Exists(st.DocTextPath) {
		return ErrNoPivot()
	}

	c.Attachment(filepath.Base(st.DocTextPath))
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(h.pivots.Read(st.DocTextPath))
}
