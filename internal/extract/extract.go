// Package extract recovers a structured JSON object from free-form model
// output: fenced blocks, bare objects embedded in prose, and responses cut
// off mid-generation.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoStructuredData is returned when the response contains no
// brace-delimited span at all. This is the only unrecoverable case.
var ErrNoStructuredData = errors.New("no structured data found in response")

// repair is one rung of the repair ladder. Each rung is pure and idempotent.
type repair func(string) string

// ladder is applied in order; after each rung we retry the parse.
// The truncation rung can produce a structurally valid but semantically
// wrong object on deeply nested truncation; callers accept that over
// losing the whole batch.
var ladder = []repair{
	stripTrailingCommas,
	escapeControlChars,
	closeTruncated,
}

// Object parses the structured object embedded in text into out.
func Object(text string, out any) error {
	span, err := locate(text)
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(span), out); err == nil {
		return nil
	}

	repaired := span
	for _, rung := range ladder {
		repaired = rung(repaired)
		if err := json.Unmarshal([]byte(repaired), out); err == nil {
			return nil
		}
	}
	return fmt.Errorf("structured data unparseable after repair: %q", truncateForError(span))
}

// StringMap parses the embedded object as a flat string-to-string map.
// Non-string values are stringified rather than dropped.
func StringMap(text string) (map[string]string, error) {
	var raw map[string]json.RawMessage
	if err := Object(text, &raw); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			out[k] = s
			continue
		}
		out[k] = strings.Trim(string(v), `"`)
	}
	return out, nil
}

// locate finds the JSON span: the inner text of a code fence if one exists,
// otherwise the first balanced brace-delimited span anywhere in the text.
// Trailing prose after the span is discarded, even when it contains braces
// of its own.
func locate(text string) (string, error) {
	if inner, ok := fencedBlock(text); ok {
		text = inner
	}
	start := strings.Index(text, "{")
	if start < 0 {
		return "", ErrNoStructuredData
	}
	if end := spanEnd(text, start); end >= 0 {
		return text[start : end+1], nil
	}
	// The span never closes: the response was truncated and the tail is
	// kept as-is for the repair ladder.
	return text[start:], nil
}

// spanEnd returns the index of the brace closing the span opened at start,
// or -1 if the span never closes. Braces inside string literals do not
// count toward the depth.
func spanEnd(text string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// fencedBlock returns the inner text of the first ``` fence, if any.
func fencedBlock(text string) (string, bool) {
	open := strings.Index(text, "```")
	if open < 0 {
		return "", false
	}
	rest := text[open+3:]
	// Skip an optional language tag on the fence line.
	if nl := strings.Index(rest, "\n"); nl >= 0 && nl < 20 && !strings.Contains(rest[:nl], "{") {
		rest = rest[nl+1:]
	}
	if close := strings.Index(rest, "```"); close >= 0 {
		return rest[:close], true
	}
	// Unterminated fence: the model was cut off inside the block.
	return rest, true
}

// stripTrailingCommas removes commas that directly precede a closing brace
// or bracket, outside of string literals.
func stripTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			b.WriteByte(c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			b.WriteByte(c)
			continue
		}
		if c == ',' {
			j := i + 1
			for j < len(s) && (s[j] == ' ' || s[j] == '\t' || s[j] == '\n' || s[j] == '\r') {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue // drop the comma
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

// escapeControlChars replaces bare control characters inside string
// literals with their escaped forms.
func escapeControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString && c < 0x20 {
			switch c {
			case '\n':
				b.WriteString(`\n`)
			case '\r':
				b.WriteString(`\r`)
			case '\t':
				b.WriteString(`\t`)
			default:
				fmt.Fprintf(&b, `\u%04x`, c)
			}
			escaped = false
			continue
		}
		b.WriteByte(c)
		if inString {
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
		} else if c == '"' {
			inString = true
			escaped = false
		}
	}
	return b.String()
}

// closeTruncated repairs a response cut off mid-generation: it closes an
// odd trailing quote, drops a dangling comma or colon, and appends enough
// closing brackets and braces to balance the counts.
func closeTruncated(s string) string {
	inString := false
	escaped := false
	var stack []byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
			escaped = false
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) > 0 && stack[len(stack)-1] == c {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if len(stack) == 0 && !inString {
		return s
	}

	var b strings.Builder
	b.WriteString(s)
	if inString {
		b.WriteByte('"')
	}
	trimmed := strings.TrimRight(b.String(), " \t\n\r")
	if strings.HasSuffix(trimmed, ",") {
		trimmed = trimmed[:len(trimmed)-1]
	} else if strings.HasSuffix(trimmed, ":") {
		trimmed += "null"
	}
	b.Reset()
	b.WriteString(trimmed)
	for i := len(stack) - 1; i >= 0; i-- {
		b.WriteByte(stack[i])
	}
	return b.String()
}

func truncateForError(s string) string {
	const max = 120
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
