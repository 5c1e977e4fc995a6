package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"studydigest/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	calls  int
	prompt string
	model  string
	reply  string
	err    error
}

func (f *fakeCompleter) Complete(_ context.Context, prompt, model string) (string, error) {
	f.calls++
	f.prompt = prompt
	f.model = model
	return f.reply, f.err
}

func TestSummarizeEmptyTextSkipsCompletion(t *testing.T) {
	fc := &fakeCompleter{reply: "x"}
	s := NewSummarizer(fc, nil)

	assert.Equal(t, NoTextMessage, s.Summarize(context.Background(), ""))
	assert.Zero(t, fc.calls)
}

func TestSummarizeTrimsReply(t *testing.T) {
	fc := &fakeCompleter{reply: "\n  # Points clés\n**Titre** texte\n\n# Résumé\nfin  \n"}
	s := NewSummarizer(fc, nil, WithDefaults(WithModel("gpt-test")))

	out := s.Summarize(context.Background(), "Hello world", WithDomain("biologie"), WithLevel("intermédiaire"))
	assert.Equal(t, "# Points clés\n**Titre** texte\n\n# Résumé\nfin", out)
	assert.Equal(t, 1, fc.calls)
	assert.Equal(t, "gpt-test", fc.model)
	assert.Contains(t, fc.prompt, "biologie")
	assert.Contains(t, fc.prompt, "intermédiaire")
	assert.Contains(t, fc.prompt, "--- TEXTE À ANALYSER ---\nHello world\n--- FIN DU TEXTE ---")
}

func TestSummarizeErrorMarker(t *testing.T) {
	fc := &fakeCompleter{err: errors.New("401 invalid api key")}
	out := NewSummarizer(fc, nil).Summarize(context.Background(), "texte")

	assert.True(t, strings.HasPrefix(out, ErrorMarker+" "))
	assert.Contains(t, out, "401 invalid api key")
}

func TestSummarizeDefaults(t *testing.T) {
	fc := &fakeCompleter{reply: "ok"}
	NewSummarizer(fc, nil).Summarize(context.Background(), "texte", WithDomain("  "), WithPoints(0))

	assert.Equal(t, DefaultModel, fc.model)
	assert.Contains(t, fc.prompt, "**domaine** : générale.")
	assert.Contains(t, fc.prompt, "**niveau d'étude** : débutant.")
	assert.Contains(t, fc.prompt, "Identifie les 5 points")
}

func TestSummarizeTruncatesInput(t *testing.T) {
	fc := &fakeCompleter{reply: "ok"}
	s := NewSummarizer(fc, nil, WithDefaults(WithMaxChars(4)))

	s.Summarize(context.Background(), "éèàùXYZ")
	assert.Contains(t, fc.prompt, "--- TEXTE À ANALYSER ---\néèàù\n--- FIN DU TEXTE ---")
}

func TestSummarizeTimeout(t *testing.T) {
	c := model.CompleterFunc(func(ctx context.Context, _, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	out := NewSummarizer(c, nil, WithTimeout(10*time.Millisecond)).Summarize(context.Background(), "texte")
	assert.True(t, strings.HasPrefix(out, ErrorMarker))
	assert.Contains(t, out, "deadline exceeded")
}

func TestSummarizeTokenCounter(t *testing.T) {
	counted := ""
	counter := func(prompt string) (int, error) {
		counted = prompt
		return 42, nil
	}
	fc := &fakeCompleter{reply: "ok"}
	NewSummarizer(fc, nil, WithTokenCounter(counter)).Summarize(context.Background(), "texte")
	assert.Equal(t, fc.prompt, counted)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abcdef", 3))
	assert.Equal(t, "abc", Truncate("abc", 3))
	assert.Equal(t, "ab", Truncate("ab", 8000))
	assert.Equal(t, "été", Truncate("été dernier", 3))
	assert.Equal(t, "abc", Truncate("abc", 0))
}

func TestBuildPromptLayout(t *testing.T) {
	p := BuildPrompt("CORPS", Options{Domain: "cybersécurité", Level: "avancé", Points: 3})

	require.True(t, strings.HasPrefix(p, "Tu es un assistant expert"))
	assert.Contains(t, p, "Identifie les 3 points")
	assert.Contains(t, p, "[Paragraphe 3]\n")
	assert.NotContains(t, p, "[Paragraphe 4]")
	assert.Contains(t, p, "Ne fais pas de liste à puces")
	assert.Contains(t, p, "250 à 350 mots")

	keyPoints := strings.Index(p, "# Points clés")
	summary := strings.Index(p, "# Résumé")
	text := strings.Index(p, "--- TEXTE À ANALYSER ---")
	assert.True(t, keyPoints >= 0 && keyPoints < summary && summary < text)
	assert.True(t, strings.HasSuffix(p, "CORPS\n--- FIN DU TEXTE ---"))
}
