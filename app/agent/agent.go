package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"studydigest/logger"
	"studydigest/model"

	"github.com/pkoukk/tiktoken-go"
)

const (
	NoTextMessage = "Aucun texte détecté dans le document."
	ErrorMarker   = "[Error:LLM]"

	DefaultDomain   = "générale"
	DefaultLevel    = "débutant"
	DefaultPoints   = 5
	DefaultMaxChars = 8000
	DefaultModel    = "gpt-5"
)

// Options parameterize one summary.
type Options struct {
	Domain   string
	Level    string
	Points   int
	MaxChars int
	Model    string
}

type Option func(*Options)

func WithDomain(domain string) Option {
	return func(o *Options) { o.Domain = domain }
}

func WithLevel(level string) Option {
	return func(o *Options) { o.Level = level }
}

func WithPoints(n int) Option {
	return func(o *Options) { o.Points = n }
}

func WithMaxChars(n int) Option {
	return func(o *Options) { o.MaxChars = n }
}

func WithModel(model string) Option {
	return func(o *Options) { o.Model = model }
}

// TokenCounter reports the size of a prompt in tokens.
type TokenCounter func(prompt string) (int, error)

// Summarizer turns pivot text into a markdown study summary.
type Summarizer struct {
	completer model.Completer
	logger    logger.ILogger
	defaults  Options
	timeout   time.Duration
	counter   TokenCounter
}

type SummarizerOption func(*Summarizer)

// WithDefaults sets the options applied before the per-call ones.
func WithDefaults(opts ...Option) SummarizerOption {
	return func(s *Summarizer) {
		for _, opt := range opts {
			opt(&s.defaults)
		}
	}
}

func WithTimeout(d time.Duration) SummarizerOption {
	return func(s *Summarizer) { s.timeout = d }
}

func WithTokenCounter(c TokenCounter) SummarizerOption {
	return func(s *Summarizer) { s.counter = c }
}

func NewSummarizer(completer model.Completer, log logger.ILogger, opts ...SummarizerOption) *Summarizer {
	if log == nil {
		log = logger.NewNop()
	}
	s := &Summarizer{
		completer: completer,
		logger:    log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Summarizer) options(opts []Option) Options {
	o := s.defaults
	for _, opt := range opts {
		opt(&o)
	}
	o.Domain = strings.TrimSpace(o.Domain)
	o.Level = strings.TrimSpace(o.Level)
	if o.Domain == "" {
		o.Domain = DefaultDomain
	}
	if o.Level == "" {
		o.Level = DefaultLevel
	}
	if o.Points <= 0 {
		o.Points = DefaultPoints
	}
	if o.MaxChars <= 0 {
		o.MaxChars = DefaultMaxChars
	}
	if o.Model == "" {
		o.Model = DefaultModel
	}
	return o
}

// Summarize never fails: an empty text yields NoTextMessage and a
// completion failure yields a string starting with ErrorMarker.
func (s *Summarizer) Summarize(ctx context.Context, text string, opts ...Option) string {
	if text == "" {
		return NoTextMessage
	}
	o := s.options(opts)
	prompt := BuildPrompt(Truncate(text, o.MaxChars), o)

	if s.counter != nil {
		if n, err := s.counter(prompt); err == nil {
			s.logger.Debug("SUMMARIZER", "Prompt size", map[string]interface{}{
				"tokens": n,
				"chars":  len([]rune(prompt)),
			})
		}
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := s.completer.Complete(ctx, prompt, o.Model)
	if err != nil {
		s.logger.Error("SUMMARIZER", "Completion failed", map[string]interface{}{
			"model": o.Model,
			"error": err.Error(),
		})
		return fmt.Sprintf("%s %v", ErrorMarker, err)
	}

	s.logger.Info("SUMMARIZER", "Summary generated", map[string]interface{}{
		"model":    o.Model,
		"domain":   o.Domain,
		"level":    o.Level,
		"duration": time.Since(start).String(),
	})
	return strings.TrimSpace(out)
}

// Truncate keeps the first max characters of text.
func Truncate(text string, max int) string {
	if max <= 0 {
		return text
	}
	n := 0
	for i := range text {
		if n == max {
			return text[:i]
		}
		n++
	}
	return text
}

func BuildPrompt(snippet string, o Options) string {
	var b strings.Builder
	b.WriteString("Tu es un assistant expert en pédagogie et en vulgarisation scientifique.\n\n")
	fmt.Fprintf(&b, "Le texte suivant appartient au **domaine** : %s.\n", o.Domain)
	fmt.Fprintf(&b, "L'audience cible est de **niveau d'étude** : %s.\n", o.Level)
	b.WriteString("Lis attentivement ce texte et effectue les étapes suivantes :\n\n")

	b.WriteString("**Points importants**\n")
	fmt.Fprintf(&b, "Identifie les %d points ou idées les plus importants.\n", o.Points)
	b.WriteString("Rédige **chaque point comme un petit paragraphe** (3 à 5 phrases).\n")
	b.WriteString("Commence chaque paragraphe par un **titre court en gras**, suivi d'une explication claire.\n")
	fmt.Fprintf(&b, "Utilise un langage adapté à un étudiant de niveau %s.\n", o.Level)
	b.WriteString("Ne fais pas de liste à puces : uniquement des paragraphes.\n\n")

	b.WriteString("**Résumé global**\n")
	b.WriteString("Rédige ensuite un **résumé de synthèse** (250 à 350 mots maximum).\n")
	fmt.Fprintf(&b, "Adapte le ton, le vocabulaire et le niveau de détail au domaine %s.\n", o.Domain)
	fmt.Fprintf(&b, "Le résumé doit permettre à un étudiant de niveau %s de comprendre facilement les idées principales.\n\n", o.Level)

	b.WriteString("**Format de sortie Markdown attendu :**\n")
	b.WriteString("# Points clés\n")
	for i := 1; i <= o.Points; i++ {
		fmt.Fprintf(&b, "[Paragraphe %d]\n", i)
	}
	b.WriteString("\n# Résumé\n[Paragraphe du résumé final]\n\n")

	b.WriteString("--- TEXTE À ANALYSER ---\n")
	b.WriteString(snippet)
	b.WriteString("\n--- FIN DU TEXTE ---")
	return b.String()
}

// TiktokenCounter counts tokens with the cl100k encoding. The encoding is
// fetched on first use, so callers keep it optional.
func TiktokenCounter() TokenCounter {
	return func(prompt string) (int, error) {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return 0, err
		}
		return len(enc.Encode(prompt, nil, nil)), nil
	}
}
