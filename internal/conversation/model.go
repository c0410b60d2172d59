package conversation

import (
	"strings"
	"time"
	"unicode/utf8"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

type BodyKind string

const (
	BodyText   BodyKind = "text"
	BodyAdvice BodyKind = "advice"
	BodyError  BodyKind = "error"
)

const (
	titleMaxRunes       = 30
	titleEllipsis       = "..."
	findingPlaceholder  = "Information unavailable."
	speechPartSeparator = ". "
)

type Advice struct {
	Language string   `json:"advice_language"`
	Heading  string   `json:"summary_heading"`
	Finding  string   `json:"diagnosis_or_market_finding"`
	Steps    []string `json:"actionable_steps"`
	Strategy string   `json:"long_term_strategy"`
}

// WithDefaults fills the fields a model is allowed to omit.
func (a Advice) WithDefaults() Advice {
	out := a.clone()
	if out.Steps == nil {
		out.Steps = []string{}
	}
	if strings.TrimSpace(out.Finding) == "" {
		out.Finding = findingPlaceholder
	}
	return out
}

// SearchText is the text message search runs against.
func (a Advice) SearchText() string {
	parts := []string{a.Heading, a.Finding, a.Strategy}
	parts = append(parts, a.Steps...)
	return strings.Join(parts, " ")
}

// SpeechText is read aloud by the playback controller.
func (a Advice) SpeechText() string {
	return a.Heading + speechPartSeparator +
		a.Finding + speechPartSeparator +
		strings.Join(a.Steps, speechPartSeparator) + speechPartSeparator +
		a.Strategy
}

func (a Advice) clone() Advice {
	if a.Steps != nil {
		steps := make([]string, len(a.Steps))
		copy(steps, a.Steps)
		a.Steps = steps
	}
	return a
}

type Body struct {
	Kind   BodyKind `json:"kind"`
	Text   string   `json:"text,omitempty"`
	Advice *Advice  `json:"advice,omitempty"`
}

func TextBody(text string) Body {
	return Body{Kind: BodyText, Text: text}
}

func ErrorBody(text string) Body {
	return Body{Kind: BodyError, Text: text}
}

func AdviceBody(a Advice) Body {
	c := a.clone()
	return Body{Kind: BodyAdvice, Advice: &c}
}

// SearchText returns the searchable text for either variant.
func (b Body) SearchText() string {
	if b.Kind == BodyAdvice && b.Advice != nil {
		return b.Advice.SearchText()
	}
	return b.Text
}

func (b Body) clone() Body {
	if b.Advice != nil {
		c := b.Advice.clone()
		b.Advice = &c
	}
	return b
}

type Citation struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type Message struct {
	ID        string     `json:"id"`
	Role      Role       `json:"role"`
	Body      Body       `json:"body"`
	Image     string     `json:"image,omitempty"`
	Pending   bool       `json:"pending"`
	Citations []Citation `json:"citations,omitempty"`
}

// Clone returns a deep copy so callers never share slices with the store.
func (m Message) Clone() Message {
	m.Body = m.Body.clone()
	if m.Citations != nil {
		c := make([]Citation, len(m.Citations))
		copy(c, m.Citations)
		m.Citations = c
	}
	return m
}

type Session struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Messages    []Message `json:"messages"`
	LastUpdated time.Time `json:"last_updated"`
}

func (s Session) Clone() Session {
	s.Messages = CloneMessages(s.Messages)
	return s
}

func CloneMessages(msgs []Message) []Message {
	if msgs == nil {
		return nil
	}
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		out[i] = m.Clone()
	}
	return out
}

// Title derives a session title from the first user message.
func Title(text string) string {
	if utf8.RuneCountInString(text) <= titleMaxRunes {
		return text
	}
	runes := []rune(text)
	return string(runes[:titleMaxRunes]) + titleEllipsis
}

// TitleFromMessages uses the first user message, or an empty title when
// there is none.
func TitleFromMessages(msgs []Message) string {
	for _, m := range msgs {
		if m.Role == RoleUser {
			return Title(m.Body.Text)
		}
	}
	return ""
}
