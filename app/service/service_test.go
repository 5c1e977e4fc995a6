package service

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"studydigest/app/agent"
	"studydigest/loader/loadertest"
	"studydigest/session"
	"studydigest/store"
	"studydigest/types"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingCompleter struct {
	calls   int
	prompts []string
}

func (c *countingCompleter) Complete(_ context.Context, prompt, _ string) (string, error) {
	c.calls++
	c.prompts = append(c.prompts, prompt)
	return "# Points clés\n**Titre** explication.\n\n# Résumé\nSynthèse.", nil
}

type recordingRegistry struct {
	store.NopRegistry
	docs []types.Document
}

func (r *recordingRegistry) SaveDocument(_ context.Context, doc types.Document) error {
	r.docs = append(r.docs, doc)
	return nil
}

type fixture struct {
	svc       *Service
	completer *countingCompleter
	registry  *recordingRegistry
	uploadDir string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	base := t.TempDir()
	cc := &countingCompleter{}
	reg := &recordingRegistry{}
	uploadDir := filepath.Join(base, "uploads")

	svc := New(Deps{
		Uploads:    store.NewUploadStore(uploadDir),
		Pivots:     store.NewPivotStore(filepath.Join(uploadDir, "texts")),
		Registry:   reg,
		Summarizer: agent.NewSummarizer(cc, nil),
	})
	return fixture{svc: svc, completer: cc, registry: reg, uploadDir: uploadDir}
}

func TestUploadRejectsMissingFile(t *testing.T) {
	fx := newFixture(t)
	st := session.Default().WithSummary("garde-moi")

	for _, f := range []*UploadedFile{nil, {Filename: "", Content: strings.NewReader("x")}} {
		out, err := fx.svc.Upload(context.Background(), st, f)
		require.NoError(t, err)
		assert.Equal(t, st, out.State)
		assert.Equal(t, Notice{Level: LevelWarning, Message: MsgNoFile}, out.Notice)
	}
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	fx := newFixture(t)
	st := session.Default()

	out, err := fx.svc.Upload(context.Background(), st, &UploadedFile{Filename: "notes.txt", Content: strings.NewReader("x")})
	require.NoError(t, err)
	assert.Equal(t, st, out.State)
	assert.Equal(t, MsgUnsupported, out.Notice.Message)
	assert.Equal(t, LevelWarning, out.Notice.Level)

	_, err = os.Stat(fx.uploadDir)
	assert.True(t, os.IsNotExist(err), "nothing is written for rejected uploads")
}

func TestUploadThenResumePDF(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	out, err := fx.svc.Upload(ctx, session.Default(), &UploadedFile{
		Filename: "cours.pdf",
		Content:  bytes.NewReader(loadertest.PDF("Hello world")),
	})
	require.NoError(t, err)
	assert.Equal(t, Notice{Level: LevelInfo, Message: MsgUploaded}, out.Notice)

	st := out.State
	assert.True(t, strings.HasSuffix(st.Filename, "_cours.pdf"))
	assert.Empty(t, st.Summary)
	pivot, err := os.ReadFile(st.DocTextPath)
	require.NoError(t, err)
	assert.Equal(t, "Hello world", string(pivot))

	require.Len(t, fx.registry.docs, 1)
	doc := fx.registry.docs[0]
	assert.NotEqual(t, uuid.Nil, doc.ID)
	assert.Equal(t, st.DocTextPath, doc.PivotPath)
	assert.False(t, doc.ExtractionFailed)

	st = st.WithSelections("intermédiaire", "biologie")
	res := fx.svc.Resume(ctx, st)
	assert.Equal(t, MsgSummarized, res.Notice.Message)
	assert.NotEmpty(t, res.State.Summary)
	assert.NotEqual(t, agent.NoTextMessage, res.State.Summary)
	assert.Equal(t, "intermédiaire", res.State.Niveau)
	assert.Equal(t, "biologie", res.State.Domaine)

	require.Equal(t, 1, fx.completer.calls)
	assert.Contains(t, fx.completer.prompts[0], "biologie")
	assert.Contains(t, fx.completer.prompts[0], "intermédiaire")
	assert.Contains(t, fx.completer.prompts[0], "Hello world")
}

func TestUploadDOCX(t *testing.T) {
	fx := newFixture(t)

	out, err := fx.svc.Upload(context.Background(), session.Default(), &UploadedFile{
		Filename: "abc.docx",
		Content:  bytes.NewReader(loadertest.DOCX(t, "A", "B", "")),
	})
	require.NoError(t, err)

	pivot, err := os.ReadFile(out.State.DocTextPath)
	require.NoError(t, err)
	assert.Equal(t, "A\nB", string(pivot))
}

func TestUploadCorruptFileKeepsMarker(t *testing.T) {
	fx := newFixture(t)

	out, err := fx.svc.Upload(context.Background(), session.Default(), &UploadedFile{
		Filename: "faux.pptx",
		Content:  strings.NewReader("pas un zip"),
	})
	require.NoError(t, err)

	pivot, err := os.ReadFile(out.State.DocTextPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(pivot), "[Error:PPTX] "))
	require.Len(t, fx.registry.docs, 1)
	assert.True(t, fx.registry.docs[0].ExtractionFailed)
}

func TestUploadReplacesPreviousDocument(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	first, err := fx.svc.Upload(ctx, session.Default(), &UploadedFile{
		Filename: "cours.pdf", Content: bytes.NewReader(loadertest.PDF("un")),
	})
	require.NoError(t, err)
	summarized := fx.svc.Resume(ctx, first.State).State

	second, err := fx.svc.Upload(ctx, summarized, &UploadedFile{
		Filename: "cours.pdf", Content: bytes.NewReader(loadertest.PDF("deux")),
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.State.Filename, second.State.Filename)
	assert.NotEqual(t, first.State.DocTextPath, second.State.DocTextPath)
	assert.Empty(t, second.State.Summary)
}

func TestResumeIsIdempotent(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	out, err := fx.svc.Upload(ctx, session.Default(), &UploadedFile{
		Filename: "abc.docx", Content: bytes.NewReader(loadertest.DOCX(t, "Texte")),
	})
	require.NoError(t, err)

	a := fx.svc.Resume(ctx, out.State)
	b := fx.svc.Resume(ctx, a.State)
	assert.Equal(t, a.State, b.State)
	assert.Equal(t, 2, fx.completer.calls)
	assert.Equal(t, fx.completer.prompts[0], fx.completer.prompts[1])
}

func TestResumeWithoutPivot(t *testing.T) {
	fx := newFixture(t)

	out := fx.svc.Resume(context.Background(), session.Default())
	assert.Equal(t, agent.NoTextMessage, out.State.Summary)

	st := session.Default().WithDocument("x.pdf", filepath.Join(t.TempDir(), "absent.txt"))
	out = fx.svc.Resume(context.Background(), st)
	assert.Equal(t, agent.NoTextMessage, out.State.Summary)
	assert.Zero(t, fx.completer.calls)
}
