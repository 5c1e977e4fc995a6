// Package session holds the per-browser study state and its persistence.
package session

import "strings"

const (
	DefaultNiveau  = "débutant"
	DefaultDomaine = "Informatique"
)

// State is the value kept between requests for one browser. Methods return
// updated copies; a State is never changed in place.
type State struct {
	Niveau      string `json:"niveau"`
	Domaine     string `json:"domaine"`
	Filename    string `json:"filename"`
	DocTextPath string `json:"doc_text_path"`
	Summary     string `json:"summary"`
}

func Default() State {
	return State{Niveau: DefaultNiveau, Domaine: DefaultDomaine}
}

// WithSelections merges the level and domain posted with a form. A non-blank
// value wins, then the previous one, then the default.
func (s State) WithSelections(niveau, domaine string) State {
	s.Niveau = pick(niveau, s.Niveau, DefaultNiveau)
	s.Domaine = pick(domaine, s.Domaine, DefaultDomaine)
	return s
}

// WithDocument records a freshly extracted upload and clears the summary.
func (s State) WithDocument(filename, textPath string) State {
	s.Filename = filename
	s.DocTextPath = textPath
	s.Summary = ""
	return s
}

func (s State) WithSummary(summary string) State {
	s.Summary = summary
	return s
}

func (s State) HasDocument() bool {
	return s.DocTextPath != ""
}

func pick(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
