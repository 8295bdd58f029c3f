// Package fallback implements the terminal safety net used whenever an agent
// cannot answer: a deterministic, side-effect free canned responder.
//
// The policy performs no I/O. Its template is parsed once at construction so
// Degrade runs in bounded time even under cascading failure.
package fallback

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hupe1980/agentcrew/core"
	"github.com/hupe1980/agentcrew/internal/util"
	"github.com/hupe1980/agentcrew/normalize"
)

// Reason names why the primary backend was bypassed.
type Reason string

const (
	ReasonUnknownAgent Reason = "unknown_agent"
	ReasonNoBackend    Reason = "no_backend"
	ReasonBackendError Reason = "backend_error"
	ReasonEmptyOutput  Reason = "empty_output"
	ReasonTimeout      Reason = "timeout"
	ReasonCancelled    Reason = "cancelled"
	ReasonPanic        Reason = "panic"
)

// DefaultTemplate is rendered with a Data value.
const DefaultTemplate = `The {{.Agent}} agent is temporarily unavailable, so this is a limited response.` +
	`{{if .Terms}} Your request about {{join ", " .Terms}} has been noted.{{end}}` +
	` Request: "{{.Task}}". Please try again shortly.`

// Data is the template input.
type Data struct {
	Agent  string
	Task   string
	Terms  []string
	Reason Reason
}

// Options configures a Policy.
type Options struct {
	// Template overrides DefaultTemplate.
	Template string
	// MaxEcho bounds how many runes of the task instruction are echoed.
	MaxEcho int
	// MaxTerms bounds the number of key terms listed.
	MaxTerms int
}

// Policy renders fallback responses. It is immutable and safe for concurrent use.
type Policy struct {
	tmpl *util.Template
	opts Options
}

// New parses the configured template.
func New(optFns ...func(o *Options)) (*Policy, error) {
	opts := Options{
		Template: DefaultTemplate,
		MaxEcho:  200,
		MaxTerms: 5,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	tmpl, err := util.ParseTemplate("fallback", opts.Template)
	if err != nil {
		return nil, fmt.Errorf("parse fallback template: %w", err)
	}

	return &Policy{tmpl: tmpl, opts: opts}, nil
}

var defaultPolicy, _ = New()

// Default returns the shared policy using DefaultTemplate.
func Default() *Policy { return defaultPolicy }

// Degrade produces the canned response for agentID. It never fails.
func (p *Policy) Degrade(agentID string, task core.Task, reason Reason) core.CleanResult {
	instruction := sanitize(task.Instruction)
	echo := summarize(instruction, p.opts.MaxEcho)

	agentID = sanitize(agentID)
	if agentID == "" {
		agentID = "requested"
	}

	data := Data{
		Agent:  agentID,
		Task:   echo,
		Terms:  KeyTerms(instruction, p.opts.MaxTerms),
		Reason: reason,
	}

	text, err := p.tmpl.Execute(data)
	text = strings.TrimSpace(text)

	if err != nil || text == "" {
		text = fmt.Sprintf("The %s agent is temporarily unavailable. Request: %q.", agentID, echo)
	}

	return core.CleanResult{Text: text, Source: core.SourceFallback, Reason: string(reason)}
}

// sanitize strips control characters and wrapper markers from caller text
// before it is echoed back.
func sanitize(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}

	return normalize.Clean(s)
}

// summarize collapses whitespace and bounds s to max runes.
func summarize(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if max > 0 && utf8.RuneCountInString(s) > max {
		s = string([]rune(s)[:max]) + "..."
	}

	return s
}

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "that": {}, "this": {}, "from": {},
	"what": {}, "which": {}, "about": {}, "into": {}, "how": {}, "why": {}, "are": {},
	"was": {}, "were": {}, "can": {}, "you": {}, "your": {}, "please": {}, "give": {},
	"some": {}, "make": {}, "does": {}, "explain": {}, "tell": {}, "me": {}, "our": {},
}

// KeyTerms returns up to max distinct lower-cased words of s, skipping
// stop words and words shorter than three runes, in first-seen order.
func KeyTerms(s string, max int) []string {
	if max <= 0 {
		return nil
	}

	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]struct{}, len(words))
	terms := make([]string, 0, max)

	for _, w := range words {
		if utf8.RuneCountInString(w) < 3 {
			continue
		}

		if _, stop := stopWords[w]; stop {
			continue
		}

		if _, dup := seen[w]; dup {
			continue
		}

		seen[w] = struct{}{}
		terms = append(terms, w)

		if len(terms) == max {
			break
		}
	}

	return terms
}
