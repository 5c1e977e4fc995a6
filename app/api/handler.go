package api

import (
	"context"
	"net/url"
	"strings"
	"time"

	"studydigest/app/service"
	"studydigest/app/views"
	"studydigest/loader"
	"studydigest/logger"
	"studydigest/session"
	"studydigest/types"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	SessionCookie       = "sid"
	MsgUnknownAction    = "Action inconnue."
	MsgSelectionTooLong = "Niveau ou domaine trop long."
)

// IndexHandler serves the single page: GET renders the session state, POST
// runs one action and redirects back.
type IndexHandler struct {
	svc      *service.Service
	sessions session.Store
	logger   logger.ILogger
	ttl      time.Duration
}

func NewIndexHandler(svc *service.Service, sessions session.Store, log logger.ILogger, ttl time.Duration) *IndexHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &IndexHandler{
		svc:      svc,
		sessions: sessions,
		logger:   log,
		ttl:      ttl,
	}
}

// HandleIndex only reads: it neither creates a session nor sets a cookie.
func (h *IndexHandler) HandleIndex(c *fiber.Ctx) error {
	st, err := loadState(c.UserContext(), h.sessions, c.Cookies(SessionCookie))
	if err != nil {
		return err
	}
	return c.Render("index", fiber.Map{
		"State":  st,
		"Msg":    c.Query("msg"),
		"Warn":   c.Query("warn"),
		"Levels": views.Levels,
		"Accept": strings.Join(loader.AllowedExtensions, ","),
	})
}

func (h *IndexHandler) HandleAction(c *fiber.Ctx) error {
	var params types.ActionParams
	if err := c.BodyParser(&params); err != nil {
		return ErrBadRequest()
	}
	if errs := types.Validate(&params); len(errs) > 0 {
		h.logger.Debug("API", "Invalid action form", map[string]interface{}{"errors": errs})
		msg := MsgSelectionTooLong
		if _, bad := errs["Action"]; bad {
			msg = MsgUnknownAction
		}
		return redirectWith(c, service.Notice{Level: service.LevelWarning, Message: msg})
	}

	ctx := c.UserContext()
	sid := c.Cookies(SessionCookie)
	if _, err := uuid.Parse(sid); err != nil {
		sid = uuid.NewString()
	}
	st, err := loadState(ctx, h.sessions, sid)
	if err != nil {
		return err
	}
	st = st.WithSelections(params.Niveau, params.Domaine)

	var out service.Outcome
	switch params.Action {
	case types.ActionUpload:
		out, err = h.upload(ctx, c, st)
		if err != nil {
			return err
		}
	case types.ActionResume:
		out = h.svc.Resume(ctx, st)
	}

	if err := h.sessions.Save(ctx, sid, out.State); err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    sid,
		Path:     "/",
		Expires:  time.Now().Add(h.ttl),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return redirectWith(c, out.Notice)
}

func (h *IndexHandler) upload(ctx context.Context, c *fiber.Ctx, st session.State) (service.Outcome, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return h.svc.Upload(ctx, st, nil)
	}
	f, err := fh.Open()
	if err != nil {
		return service.Outcome{}, err
	}
	defer f.Close()

	return h.svc.Upload(ctx, st, &service.UploadedFile{
		Filename: fh.Filename,
		Content:  f,
	})
}

func loadState(ctx context.Context, sessions session.Store, sid string) (session.State, error) {
	if sid == "" {
		return session.Default(), nil
	}
	st, found, err := sessions.Get(ctx, sid)
	if err != nil {
		return session.State{}, err
	}
	if !found {
		return session.Default(), nil
	}
	return st.WithSelections("", ""), nil
}

func redirectWith(c *fiber.Ctx, n service.Notice) error {
	target := "/"
	if n.Message != "" {
		target += "?" + url.Values{string(n.Level): {n.Message}}.Encode()
	}
	return c.Redirect(target, fiber.StatusSeeOther)
}
