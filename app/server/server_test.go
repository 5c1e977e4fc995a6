package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"studydigest/app/agent"
	"studydigest/app/api"
	"studydigest/app/service"
	"studydigest/config"
	"studydigest/loader/loadertest"
	"studydigest/model"
	"studydigest/session"
	"studydigest/store"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/encryptcookie"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fakeSummary = "# Points clés\n**Cellule** unité du vivant.\n\n# Résumé\nSynthèse."

type testServer struct {
	app   *fiber.App
	calls int
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	base := t.TempDir()
	ts := &testServer{}

	cfg := &config.Config{
		App: config.AppConfig{
			Addr:           ":0",
			UploadDir:      filepath.Join(base, "uploads"),
			TextDir:        filepath.Join(base, "uploads", "texts"),
			AudioDir:       filepath.Join(base, "static", "audio"),
			MaxUploadBytes: config.DefaultMaxUploadBytes,
		},
		Session: config.SessionConfig{TTL: time.Hour, Key: encryptcookie.GenerateKey()},
		LLM:     config.LLMConfig{Provider: "openai", Model: "gpt-5", MaxChars: 8000, Points: 5},
	}
	require.NoError(t, store.EnsureDirs(cfg.App.UploadDir, cfg.App.TextDir, cfg.App.AudioDir))

	completer := model.CompleterFunc(func(_ context.Context, prompt, _ string) (string, error) {
		ts.calls++
		return fakeSummary, nil
	})
	pivots := store.NewPivotStore(cfg.App.TextDir)
	svc := service.New(service.Deps{
		Uploads:    store.NewUploadStore(cfg.App.UploadDir),
		Pivots:     pivots,
		Summarizer: agent.NewSummarizer(completer, nil),
	})

	ts.app = NewServer(cfg, Deps{
		Service:  svc,
		Sessions: session.NewMemoryStore(time.Hour),
		Pivots:   pivots,
	}).App()
	return ts
}

func (ts *testServer) do(t *testing.T, req *http.Request, cookies []*http.Cookie) *http.Response {
	t.Helper()
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func uploadRequest(t *testing.T, fields map[string]string, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func formRequest(values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func notice(t *testing.T, resp *http.Response) url.Values {
	t.Helper()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/", loc.Path)
	return loc.Query()
}

func sessionCookie(t *testing.T, resp *http.Response) []*http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == "sid" {
			assert.True(t, c.HttpOnly)
			return []*http.Cookie{{Name: c.Name, Value: c.Value}}
		}
	}
	t.Fatal("no session cookie")
	return nil
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}

func TestIndexIsReadOnly(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, httptest.NewRequest(http.MethodGet, "/?msg=Bonjour", nil), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Cookies())
	body := readBody(t, resp)
	assert.Contains(t, body, "Bonjour")
	assert.Contains(t, body, `value="Informatique"`)
	assert.Contains(t, body, " disabled>")
}

func TestUploadResumeFlow(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, uploadRequest(t, map[string]string{"action": "upload"}, "cours.pdf", loadertest.PDF("Hello world")), nil)
	assert.Equal(t, service.MsgUploaded, notice(t, resp).Get("msg"))
	cookies := sessionCookie(t, resp)

	body := readBody(t, ts.do(t, httptest.NewRequest(http.MethodGet, "/", nil), cookies))
	assert.Contains(t, body, "_cours.pdf")
	assert.NotContains(t, body, " disabled>")

	resp = ts.do(t, httptest.NewRequest(http.MethodGet, "/pivot", nil), cookies)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "_cours.txt")
	assert.Equal(t, "Hello world", readBody(t, resp))

	resp = ts.do(t, formRequest(url.Values{
		"action":  {"resume"},
		"niveau":  {"avancé"},
		"domaine": {"biologie"},
	}), cookies)
	assert.Equal(t, service.MsgSummarized, notice(t, resp).Get("msg"))
	assert.Equal(t, 1, ts.calls)

	body = readBody(t, ts.do(t, httptest.NewRequest(http.MethodGet, "/", nil), cookies))
	assert.Contains(t, body, "Cellule")
	assert.Contains(t, body, `value="biologie"`)
	assert.Contains(t, body, `<option value="avancé" selected>`)

	// displaying again does not call the model
	ts.do(t, httptest.NewRequest(http.MethodGet, "/", nil), cookies)
	assert.Equal(t, 1, ts.calls)
}

func TestUploadWarnings(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, uploadRequest(t, map[string]string{"action": "upload"}, "notes.txt", []byte("x")), nil)
	assert.Equal(t, service.MsgUnsupported, notice(t, resp).Get("warn"))

	resp = ts.do(t, uploadRequest(t, map[string]string{"action": "upload"}, "", nil), nil)
	assert.Equal(t, service.MsgNoFile, notice(t, resp).Get("warn"))

	resp = ts.do(t, formRequest(url.Values{"action": {"qcm"}}), nil)
	q := notice(t, resp)
	assert.NotEmpty(t, q.Get("warn"))
	assert.Empty(t, resp.Cookies())
}

func TestSelectionTooLong(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, formRequest(url.Values{
		"action":  {"resume"},
		"domaine": {strings.Repeat("x", 129)},
	}), nil)
	assert.Equal(t, api.MsgSelectionTooLong, notice(t, resp).Get("warn"))
	assert.Empty(t, resp.Cookies())
	assert.Zero(t, ts.calls)

	resp = ts.do(t, formRequest(url.Values{"action": {"qcm"}}), nil)
	assert.Equal(t, api.MsgUnknownAction, notice(t, resp).Get("warn"))
}

func TestResumeWithoutDocument(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, formRequest(url.Values{"action": {"resume"}}), nil)
	cookies := sessionCookie(t, resp)
	assert.Zero(t, ts.calls)

	body := readBody(t, ts.do(t, httptest.NewRequest(http.MethodGet, "/", nil), cookies))
	assert.Contains(t, body, agent.NoTextMessage)

	resp = ts.do(t, httptest.NewRequest(http.MethodGet, "/pivot", nil), cookies)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPivotWithoutSession(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, httptest.NewRequest(http.MethodGet, "/pivot", nil), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCheckEndpoints(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, httptest.NewRequest(http.MethodGet, "/check/healthy", nil), nil)
	assert.JSONEq(t, `{"result":"ok"}`, readBody(t, resp))

	resp = ts.do(t, httptest.NewRequest(http.MethodGet, "/check/config", nil), nil)
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(readBody(t, resp)), &got))
	assert.Equal(t, "openai", got["llm_provider"])
	assert.Equal(t, "gpt-5", got["llm_model"])
	assert.EqualValues(t, 8000, got["max_chars"])
	assert.NotContains(t, got, "api_key")
}
