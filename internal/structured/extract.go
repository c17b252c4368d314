package structured

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"github.com/tidwall/gjson"

	"neuromatch/internal/utils"
)

// Object is a decoded JSON object
type Object = map[string]any

// Outcome reports which stage produced an object
type Outcome int

const (
	Parsed Outcome = iota
	Repaired
	Fallback
)

func (o Outcome) String() string {
	switch o {
	case Parsed:
		return "parsed"
	case Repaired:
		return "repaired"
	default:
		return "fallback"
	}
}

const (
	// FallbackMarker is set to true on placeholder objects
	FallbackMarker = "parse_failed"

	previewRunes = 300
	fallbackNote = "The model response could not be parsed as JSON; showing a raw preview instead."
)

// RepairFunc asks the generation service to rewrite raw into valid JSON.
type RepairFunc func(ctx context.Context, raw string) (string, error)

var (
	fencePattern = regexp.MustCompile("(?s)```[a-zA-Z]*[ \t]*\n?(.*?)```")
	strayFence   = regexp.MustCompile("```[a-zA-Z]*")
)

// Extract turns raw text into an object using local steps only.
// Steps run cumulatively: fence stripping, direct parse, first balanced
// object, trailing comma removal and control character removal.
func Extract(raw string) (Object, bool) {
	candidate := stripFences(raw)
	if obj, ok := decode(candidate); ok {
		return obj, true
	}

	if block, found := firstBalancedObject(candidate); found {
		candidate = block
		if obj, ok := decode(candidate); ok {
			return obj, true
		}
	}

	candidate = stripTrailingCommas(candidate)
	if obj, ok := decode(candidate); ok {
		return obj, true
	}

	candidate = stripControlChars(candidate)
	return decode(candidate)
}

// Resolve runs Extract, then at most one repair request, then falls back
// to a placeholder. It always returns an object.
func Resolve(ctx context.Context, raw string, repair RepairFunc) (Object, Outcome) {
	if obj, ok := Extract(raw); ok {
		return obj, Parsed
	}

	if repair != nil && ctx.Err() == nil {
		if fixed, err := repair(ctx, raw); err == nil {
			if obj, ok := Extract(fixed); ok {
				return obj, Repaired
			}
		}
	}

	return FallbackObject(raw), Fallback
}

// FallbackObject builds the placeholder returned when parsing and repair fail.
func FallbackObject(raw string) Object {
	return Object{
		FallbackMarker: true,
		"raw_preview":  utils.Preview(strings.TrimSpace(raw), previewRunes),
		"note":         fallbackNote,
	}
}

// IsFallback reports whether obj is a placeholder object.
func IsFallback(obj Object) bool {
	v, ok := obj[FallbackMarker].(bool)
	return ok && v
}

// RepairPrompt is the user message sent on the single repair pass.
func RepairPrompt(raw string) string {
	return "The following text was meant to be a single JSON object but is not valid JSON. " +
		"Return only the corrected JSON object with the same keys and values, no commentary.\n\n" +
		utils.Truncate(raw, 8000)
}

// decode accepts only a well-formed top-level JSON object. Numbers decode
// to float64, as with encoding/json.
func decode(s string) (Object, bool) {
	s = strings.TrimSpace(s)
	if s == "" || !gjson.Valid(s) {
		return nil, false
	}
	obj, ok := gjson.Parse(s).Value().(map[string]any)
	return obj, ok
}

func stripFences(s string) string {
	if m := fencePattern.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(strayFence.ReplaceAllString(s, ""))
}

// firstBalancedObject returns the first {...} block whose braces balance,
// ignoring braces inside string literals.
func firstBalancedObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
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
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// stripTrailingCommas drops commas that directly precede a closing
// delimiter outside string literals.
func stripTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			b.WriteByte(c)
			continue
		}
		if c == '"' {
			inString = true
		}
		if c == ',' && closesNext(s[i+1:]) {
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func closesNext(rest string) bool {
	trimmed := strings.TrimLeftFunc(rest, unicode.IsSpace)
	return trimmed != "" && (trimmed[0] == '}' || trimmed[0] == ']')
}

// stripControlChars replaces raw control characters, which are illegal
// inside JSON strings, with spaces.
func stripControlChars(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
}
