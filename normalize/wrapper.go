package normalize

import (
	"regexp"
	"strings"
)

// WrapperMarker is the constructor-call preamble of the most common wrapper
// object emitted by agent frameworks.
const WrapperMarker = "RunResponse("

// MetadataKeys lists attribute names that accompany content in stringified
// wrapper objects and must never reach the caller.
var MetadataKeys = []string{
	"thinking",
	"reasoning_content",
	"messages",
	"metrics",
	"model",
	"model_provider",
	"model_run_id",
	"run_id",
	"agent_id",
	"session_id",
	"workflow_id",
	"team_session_id",
	"tools",
	"formatted_tool_calls",
	"images",
	"videos",
	"audio",
	"response_audio",
	"citations",
	"extra_data",
	"created_at",
	"content_type",
	"event",
	"events",
	"status",
}

var (
	// genericPreambleRe matches a `Name(content=` call opening the payload.
	genericPreambleRe = regexp.MustCompile(`^\s*[A-Za-z_][A-Za-z0-9_.]*\(\s*content\s*=`)
	constructorRe     = regexp.MustCompile(`^\s*[A-Za-z_][A-Za-z0-9_.]*\(`)
	fencedCodeRe      = regexp.MustCompile("(?s)```.*?(?:```|$)")

	quotedValueRe = regexp.MustCompile(`(?s)^(?:"((?:[^"\\]|\\.)*)"|'((?:[^'\\]|\\.)*)')`)
	contentKeyRe  = regexp.MustCompile(`^content\s*=\s*`)
	nullValueRe   = regexp.MustCompile(`^(?i:none|null|nil)\s*(?:[,)]|$)`)
	unquotedEndRe = regexp.MustCompile(`,\s*[A-Za-z_][A-Za-z0-9_]*\s*=|\)\s*$`)

	leadingPreambleRe = regexp.MustCompile(`^\s*[A-Za-z_][A-Za-z0-9_.]*\(\s*(?:content\s*=\s*)?['"]?`)

	metaAlternation  = `(?:` + strings.Join(MetadataKeys, `|`) + `)`
	metadataLineRe   = regexp.MustCompile(`^\s*['"]?\s*,?\s*` + metaAlternation + `\s*=`)
	inlineMetadataRe = regexp.MustCompile(`['"]?\s*,\s*` + metaAlternation + `\s*=.*$`)
	metadataAssignRe = regexp.MustCompile(
		`,?\s*\b` + metaAlternation + `\s*=\s*(?:None|True|False|'(?:[^'\\]|\\.)*'|"(?:[^"\\]|\\.)*"|\[[^\]]*\]|\{[^}]*\}|[^,)]*)`,
	)

	markdownLineRe = regexp.MustCompile(`^(?:#{1,6}\s|[-*+]\s|\d+[.)]\s|>\s|\|)`)
	assignmentRe   = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*\s*=`)
)

// HasWrapperMarker reports whether s looks like a stringified wrapper object.
// Ordinary markdown such as "## Title" or "**bold**" never matches, and
// constructor calls inside fenced code blocks are ignored.
func HasWrapperMarker(s string) bool {
	if !strings.Contains(s, "(") {
		return false
	}

	s = fencedCodeRe.ReplaceAllString(s, "")

	return strings.Contains(s, WrapperMarker) || genericPreambleRe.MatchString(s)
}

// contentValueStart returns the offset of the value of the constructor's own
// content= attribute, or -1. Attributes of nested calls, such as
// messages=[Message(content='...')], are never considered.
func contentValueStart(s string) int {
	open := 0

	if loc := constructorRe.FindStringIndex(s); loc != nil {
		open = loc[1]
	} else if i := strings.Index(s, WrapperMarker); i >= 0 {
		open = i + len(WrapperMarker)
	}

	depth := 0

	for i := open; i < len(s); i++ {
		switch c := s[i]; c {
		case '\'', '"':
			end := closingQuote(s, i)
			if end < 0 {
				return -1
			}

			i = end
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			if depth == 0 {
				return -1
			}

			depth--
		default:
			if depth > 0 || (i > 0 && isIdentByte(s[i-1])) {
				continue
			}

			if loc := contentKeyRe.FindStringIndex(s[i:]); loc != nil {
				return i + loc[1]
			}
		}
	}

	return -1
}

// closingQuote returns the index of the unescaped quote closing the one at
// s[start], or -1.
func closingQuote(s string, start int) int {
	quote := s[start]
	escaped := false

	for i := start + 1; i < len(s); i++ {
		switch c := s[i]; {
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case c == quote:
			return i
		}
	}

	return -1
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// nullContent reports whether the constructor's content= is an unquoted
// None, null or nil.
func nullContent(s string) bool {
	start := contentValueStart(s)
	return start >= 0 && nullValueRe.MatchString(s[start:])
}

// regexContent extracts a quoted content= value with either quote style.
// Escaped quotes inside the value are kept escaped for later unescaping.
func regexContent(s string) (string, bool) {
	start := contentValueStart(s)
	if start < 0 {
		return "", false
	}

	m := quotedValueRe.FindStringSubmatch(s[start:])
	if m == nil {
		return "", false
	}

	if m[1] != "" {
		return m[1], true
	}

	return m[2], true
}

// scanContent walks the content= value byte by byte tracking escape state.
// The second return value reports whether a terminating quote (or, for
// unquoted values, the next attribute) was found.
func scanContent(s string) (string, bool) {
	start := contentValueStart(s)
	if start < 0 {
		return "", false
	}

	rest := s[start:]
	if rest == "" {
		return "", false
	}

	quote := rest[0]
	if quote != '\'' && quote != '"' {
		if end := unquotedEndRe.FindStringIndex(rest); end != nil {
			return strings.TrimSpace(rest[:end[0]]), true
		}

		return strings.TrimSpace(rest), false
	}

	escaped := false

	for i := 1; i < len(rest); i++ {
		c := rest[i]

		switch {
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case c == quote:
			return rest[1:i], true
		}
	}

	return rest[1:], false
}

// contentLines rebuilds content from lines that look like markdown or prose,
// dropping metadata assignments.
func contentLines(s string) string {
	body := leadingPreambleRe.ReplaceAllString(s, "")
	body = strings.ReplaceAll(body, `\r\n`, "\n")
	body = strings.ReplaceAll(body, `\n`, "\n")

	var kept []string

	for _, line := range strings.Split(body, "\n") {
		if metadataLineRe.MatchString(line) {
			continue
		}

		line = inlineMetadataRe.ReplaceAllString(line, "")

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if len(kept) > 0 && kept[len(kept)-1] != "" {
				kept = append(kept, "")
			}

			continue
		}

		if looksLikeContent(trimmed) {
			kept = append(kept, strings.TrimRight(line, " \t"))
		}
	}

	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func looksLikeContent(line string) bool {
	if markdownLineRe.MatchString(line) || strings.Contains(line, "**") || strings.Contains(line, "|") {
		return true
	}

	if assignmentRe.MatchString(line) || HasWrapperMarker(line) {
		return false
	}

	return len(strings.Fields(line)) >= 3
}

// stripMetadata is the last resort: remove every known metadata assignment
// and the constructor preamble, keeping whatever remains.
func stripMetadata(s string) string {
	out := metadataAssignRe.ReplaceAllString(s, "")
	out = leadingPreambleRe.ReplaceAllString(out, "")
	out = genericPreambleRe.ReplaceAllString(out, "")
	out = strings.ReplaceAll(out, WrapperMarker, "")
	out = strings.TrimSpace(out)
	out = strings.TrimRight(out, ")")
	out = strings.TrimSpace(out)
	out = strings.TrimRight(out, `'",`)
	out = strings.TrimLeft(out, " ,'\"")

	return strings.TrimSpace(out)
}
