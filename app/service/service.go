package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"studydigest/app/agent"
	"studydigest/loader"
	"studydigest/logger"
	"studydigest/session"
	"studydigest/store"
	"studydigest/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	MsgNoFile      = "Choisis un fichier PDF / DOCX / PPTX."
	MsgUnsupported = "Type de fichier non supporté."
	MsgUploaded    = "Fichier importé et texte extrait."
	MsgSummarized  = "Résumé généré."
)

type NoticeLevel string

const (
	LevelInfo    NoticeLevel = "msg"
	LevelWarning NoticeLevel = "warn"
)

// Notice is the one-line message shown after an action.
type Notice struct {
	Level   NoticeLevel
	Message string
}

// Outcome is the state an action leads to and what to tell the user.
type Outcome struct {
	State  session.State
	Notice Notice
}

type UploadedFile struct {
	Filename string
	Content  io.Reader
}

type Service struct {
	uploads    *store.UploadStore
	pivots     *store.PivotStore
	router     *loader.Router
	registry   store.DocumentRegistry
	summarizer *agent.Summarizer
	logger     logger.ILogger
}

type Deps struct {
	Uploads    *store.UploadStore
	Pivots     *store.PivotStore
	Router     *loader.Router
	Registry   store.DocumentRegistry
	Summarizer *agent.Summarizer
	Logger     logger.ILogger
}

func New(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = logger.NewNop()
	}
	if d.Registry == nil {
		d.Registry = store.NopRegistry{}
	}
	if d.Router == nil {
		d.Router = loader.NewDefaultRouter(d.Logger)
	}
	return &Service{
		uploads:    d.Uploads,
		pivots:     d.Pivots,
		router:     d.Router,
		registry:   d.Registry,
		summarizer: d.Summarizer,
		logger:     d.Logger,
	}
}

var tracer = otel.Tracer("studydigest/service")

// Upload stores the file, extracts its text into a pivot file and points the
// state at it. Invalid input leaves st unchanged and returns a warning.
func (s *Service) Upload(ctx context.Context, st session.State, f *UploadedFile) (Outcome, error) {
	ctx, span := tracer.Start(ctx, "service.Upload")
	defer span.End()

	if f == nil || strings.TrimSpace(f.Filename) == "" {
		return warn(st, MsgNoFile), nil
	}
	params := types.UploadParams{Filename: f.Filename}
	if errs := types.Validate(&params); len(errs) > 0 {
		s.logger.Debug("SERVICE", "Upload rejected", map[string]interface{}{
			"filename": f.Filename,
			"errors":   errs,
		})
		return warn(st, MsgUnsupported), nil
	}
	span.SetAttributes(attribute.String("upload.filename", f.Filename))

	doc, err := s.uploads.Save(f.Filename, f.Content)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save upload")
		return Outcome{State: st}, fmt.Errorf("save upload: %w", err)
	}

	res := s.router.Extract(doc.StoragePath)
	pivotPath, err := s.pivots.Write(doc.StoragePath, res.Pivot())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "write pivot")
		return Outcome{State: st}, fmt.Errorf("write pivot: %w", err)
	}

	doc.PivotPath = pivotPath
	doc.Pages = res.Pages
	doc.ExtractionFailed = res.Failed()
	if err := s.registry.SaveDocument(ctx, doc); err != nil {
		s.logger.Warn("SERVICE", "Document registry write failed", map[string]interface{}{
			"document": doc.ID.String(),
			"error":    err.Error(),
		})
	}

	span.SetAttributes(
		attribute.String("document.id", doc.ID.String()),
		attribute.Int("document.text_length", len(res.Text)),
		attribute.Bool("document.extraction_failed", doc.ExtractionFailed),
	)
	s.logger.Info("SERVICE", "Document uploaded", map[string]interface{}{
		"document": doc.ID.String(),
		"name":     doc.StorageName,
		"pivot":    pivotPath,
	})

	return Outcome{
		State:  st.WithDocument(doc.StorageName, pivotPath),
		Notice: Notice{Level: LevelInfo, Message: MsgUploaded},
	}, nil
}

// Resume summarizes the current pivot text with the state's level and domain.
func (s *Service) Resume(ctx context.Context, st session.State) Outcome {
	ctx, span := tracer.Start(ctx, "service.Resume")
	defer span.End()
	span.SetAttributes(
		attribute.String("summary.domain", st.Domaine),
		attribute.String("summary.level", st.Niveau),
	)

	text := s.pivots.Read(st.DocTextPath)
	summary := s.summarizer.Summarize(ctx, text,
		agent.WithDomain(st.Domaine),
		agent.WithLevel(st.Niveau),
	)
	if strings.HasPrefix(summary, agent.ErrorMarker) {
		span.SetStatus(codes.Error, "completion failed")
	}

	return Outcome{
		State:  st.WithSummary(summary),
		Notice: Notice{Level: LevelInfo, Message: MsgSummarized},
	}
}

func warn(st session.State, msg string) Outcome {
	return Outcome{State: st, Notice: Notice{Level: LevelWarning, Message: msg}}
}
