package normalize

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hupe1980/agentcrew/core"
)

const (
	// DefaultMinUsableLength is the length (in runes) below which an
	// extraction stage hands over to the next one.
	DefaultMinUsableLength = 100
	// DefaultMaxLength bounds the text kept by the last-resort stage.
	DefaultMaxLength = 4000
)

// Stage names the extraction step that produced a result.
type Stage string

const (
	StageEmpty  Stage = "empty"
	StagePlain  Stage = "plain"
	StageRecord Stage = "record"
	StageJSON   Stage = "json"
	StageRegex  Stage = "regex"
	StageScan   Stage = "scan"
	StageLines  Stage = "lines"
	StageStrip  Stage = "strip"
)

// ContentKeys is the priority order used to pull text out of records.
var ContentKeys = []string{"content", "response", "message"}

// secondaryKeys are consulted only when no ContentKeys entry is present.
var secondaryKeys = []string{"text", "output", "answer"}

// maxRecordDepth bounds recursion into nested records such as
// {"message": {"content": "..."}}.
const maxRecordDepth = 2

// Options configures a Normalizer.
type Options struct {
	// MinUsableLength is the hand-over threshold between stages.
	MinUsableLength int
	// MaxLength truncates last-resort output. Zero disables truncation.
	MaxLength int
}

// Report describes how a result was obtained.
type Report struct {
	Stage Stage
	// Err is a *core.MalformedOutputError when every extraction stage failed
	// and the payload was stripped and truncated.
	Err error
}

// Normalizer is stateless after construction and safe for concurrent use.
type Normalizer struct {
	opts Options
}

// New creates a Normalizer with optional overrides.
func New(optFns ...func(o *Options)) *Normalizer {
	opts := Options{
		MinUsableLength: DefaultMinUsableLength,
		MaxLength:       DefaultMaxLength,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.MinUsableLength < 0 {
		opts.MinUsableLength = 0
	}

	return &Normalizer{opts: opts}
}

var defaultNormalizer = New()

// Normalize runs the default Normalizer.
func Normalize(raw core.RawOutput) core.CleanResult {
	return defaultNormalizer.Normalize(raw)
}

// Normalize reduces raw to a CleanResult with SourceBackend.
func (n *Normalizer) Normalize(raw core.RawOutput) core.CleanResult {
	res, _ := n.NormalizeWithReport(raw)
	return res
}

// NormalizeWithReport is Normalize plus a description of the winning stage.
func (n *Normalizer) NormalizeWithReport(raw core.RawOutput) (res core.CleanResult, rep Report) {
	defer func() {
		if r := recover(); r != nil {
			res = core.CleanResult{Text: core.NoContent, Source: core.SourceBackend}
			rep = Report{Stage: StageEmpty, Err: fmt.Errorf("normalize: recovered from panic: %v", r)}
		}
	}()

	text, stage, err := n.extract(raw)
	if strings.TrimSpace(Unescape(text)) == "" {
		stage = StageEmpty
	}

	text = Clean(text)

	return core.CleanResult{Text: text, Source: core.SourceBackend}, Report{Stage: stage, Err: err}
}

func (n *Normalizer) extract(raw core.RawOutput) (string, Stage, error) {
	switch v := raw.(type) {
	case core.StructuredRecord:
		return n.fromRecord(v, 0)
	case core.WrapperObjectString:
		return n.fromWrapper(string(v))
	case core.PlainText:
		return n.fromText(string(v))
	default:
		return "", StageEmpty, nil
	}
}

func (n *Normalizer) fromText(s string) (string, Stage, error) {
	if strings.TrimSpace(s) == "" {
		return "", StageEmpty, nil
	}

	if rec, ok := parseJSONRecord(s); ok {
		text, stage, err := n.fromRecord(rec, 0)
		if stage == StageRecord {
			stage = StageJSON
		}

		return text, stage, err
	}

	if HasWrapperMarker(s) {
		return n.fromWrapper(s)
	}

	return s, StagePlain, nil
}

func (n *Normalizer) fromRecord(rec core.StructuredRecord, depth int) (string, Stage, error) {
	sawKey := false

	for _, keys := range [][]string{ContentKeys, secondaryKeys} {
		for _, key := range keys {
			v, ok := rec[key]
			if !ok {
				continue
			}

			if v == nil {
				sawKey = true
				continue
			}

			switch t := v.(type) {
			case string:
				if strings.TrimSpace(t) == "" {
					sawKey = true
					continue
				}

				if HasWrapperMarker(t) {
					return n.fromWrapper(t)
				}

				return t, StageRecord, nil
			case map[string]any:
				if depth < maxRecordDepth {
					if text, stage, err := n.fromRecord(core.StructuredRecord(t), depth+1); stage != StageEmpty {
						return text, stage, err
					}
				}
			case core.StructuredRecord:
				if depth < maxRecordDepth {
					if text, stage, err := n.fromRecord(t, depth+1); stage != StageEmpty {
						return text, stage, err
					}
				}
			case fmt.Stringer:
				return t.String(), StageRecord, nil
			default:
				return renderValue(t), StageRecord, nil
			}
		}
	}

	// Blank content fields mean the backend produced nothing.
	if sawKey || depth > 0 || len(rec) == 0 {
		return "", StageEmpty, nil
	}

	return renderValue(map[string]any(rec)), StageRecord, nil
}

// fromWrapper mines a stringified wrapper object for its content.
func (n *Normalizer) fromWrapper(s string) (string, Stage, error) {
	if nullContent(s) {
		return "", StageEmpty, nil
	}

	var (
		complete      string
		completeStage Stage
	)

	if v, ok := regexContent(s); ok && strings.TrimSpace(v) != "" {
		if n.usable(v) {
			return v, StageRegex, nil
		}

		complete, completeStage = v, StageRegex
	}

	scanned, closed := scanContent(s)
	if strings.TrimSpace(scanned) != "" {
		if n.usable(scanned) {
			return scanned, StageScan, nil
		}

		if closed && complete == "" {
			complete, completeStage = scanned, StageScan
		}
	}

	// A fully quoted field is authoritative even when short.
	if complete != "" {
		return complete, completeStage, nil
	}

	lines := contentLines(s)
	if n.usable(lines) {
		return lines, StageLines, nil
	}

	if strings.TrimSpace(scanned) != "" {
		return scanned, StageScan, nil
	}

	if strings.TrimSpace(lines) != "" {
		return lines, StageLines, nil
	}

	stripped := n.truncate(stripMetadata(s))
	if strings.TrimSpace(stripped) == "" {
		return "", StageEmpty, nil
	}

	return stripped, StageStrip, &core.MalformedOutputError{
		Stage:  string(StageStrip),
		Length: utf8.RuneCountInString(stripped),
	}
}

func (n *Normalizer) usable(s string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(s)) >= n.opts.MinUsableLength
}

func (n *Normalizer) truncate(s string) string {
	if n.opts.MaxLength <= 0 || utf8.RuneCountInString(s) <= n.opts.MaxLength {
		return s
	}

	runes := []rune(s)

	return string(runes[:n.opts.MaxLength])
}

// Clean applies escape processing, removes control characters and residual
// wrapper markers, and trims. Empty input becomes core.NoContent.
func Clean(s string) string {
	s = Unescape(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, WrapperMarker, "")
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}

		if unicode.IsControl(r) || r == utf8.RuneError {
			return -1
		}

		return r
	}, s)

	s = strings.TrimSpace(s)
	if s == "" {
		return core.NoContent
	}

	return s
}

// Unescape converts the literal two-character escapes \n \t \r \" \' and \\
// to the characters they denote. Other backslash sequences are kept.
func Unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder

	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case 'n':
				b.WriteByte('\n')
				i++

				continue
			case 't':
				b.WriteByte('\t')
				i++

				continue
			case 'r':
				b.WriteByte('\r')
				i++

				continue
			case '"', '\'', '\\':
				b.WriteByte(s[i+1])
				i++

				continue
			}
		}

		b.WriteByte(c)
	}

	return b.String()
}

func renderValue(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}

	return string(data)
}
