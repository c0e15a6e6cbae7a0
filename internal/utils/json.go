package utils

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Pre-compiled regexes for JSON repair.
// NOTE: These handle common LLM output errors but have limitations:
// - Escaped quotes within single-quoted strings are not fully supported
// - Patterns can also match text inside string values
var (
	// Fix missing comma after value before new key: "value" "key" -> "value", "key"
	missingCommaBeforeKeyRegex = regexp.MustCompile(`(")\s*\n\s*("[\w][^"]*"\s*:)`)

	// Fix missing comma after number/bool/null before quote (new key)
	missingCommaAfterValueRegex = regexp.MustCompile(`(\d|true|false|null)\s*\n\s*("[\w][^"]*"\s*:)`)

	// Fix missing comma after closing brace/bracket before quote
	missingCommaAfterBraceRegex = regexp.MustCompile(`([}\]])\s*\n?\s*("[\w])`)

	// Fix trailing commas before closing brace/bracket
	trailingCommaRegex = regexp.MustCompile(`,\s*([}\]])`)

	// Fix single quotes for object keys: {'key': -> {"key":
	singleQuoteKeyRegex = regexp.MustCompile(`([{,]\s*)'(\w+)'(\s*:)`)

	// Fix single quotes for string values after colon: : 'value' -> : "value"
	singleQuoteValueRegex = regexp.MustCompile(`(:\s*)'((?:[^'\\]|\\.)*)'(\s*[,}\]])`)

	// Fix unquoted string values: {"key": value} -> {"key": "value"}
	unquotedValueRegex = regexp.MustCompile(`(:\s*)([a-zA-Z][a-zA-Z0-9_-]*)(\s*[,}\]])`)
)

// ExtractAndParseJSON extracts JSON from LLM responses and unmarshals it.
// Uses stream-based decoding to ignore trailing text.
// Includes JSON repair for common LLM syntax errors.
func ExtractAndParseJSON[T any](response string) (T, error) {
	var result T

	// 1. Basic cleanup (markdown fences)
	cleaned := cleanLLMResponse(response)
	if cleaned == "" {
		return result, fmt.Errorf("no JSON found in response")
	}

	// 2. Find start of JSON structure
	idx := strings.IndexAny(cleaned, "{[")
	if idx == -1 {
		// Maybe it's a quoted string containing JSON?
		var asString string
		if err := json.Unmarshal([]byte(cleaned), &asString); err == nil {
			return ExtractAndParseJSON[T](asString)
		}
		return result, fmt.Errorf("no JSON start ({ or [) found")
	}

	// 3. Decode one JSON value and ignore the rest: {"a":1} some trailing text
	jsonPart := cleaned[idx:]
	err := decodeFirst(jsonPart, &result)
	if err == nil {
		return result, nil
	}

	// 4. Try JSON repair for common LLM errors
	if repaired := repairJSON(jsonPart); repaired != jsonPart {
		var fixed T
		if decodeFirst(repaired, &fixed) == nil {
			return fixed, nil
		}
	}

	// 5. Try unescape fallback for double-encoded output
	if strings.Contains(jsonPart, "\\") {
		unescaped := strings.ReplaceAll(jsonPart, "\\\"", "\"")
		unescaped = strings.ReplaceAll(unescaped, "\\n", "\n")
		for _, candidate := range []string{unescaped, repairJSON(unescaped)} {
			var fixed T
			if decodeFirst(candidate, &fixed) == nil {
				return fixed, nil
			}
		}
	}
	return result, fmt.Errorf("parse JSON: %w", err)
}

func decodeFirst(s string, v any) error {
	return json.NewDecoder(strings.NewReader(s)).Decode(v)
}

// repairJSON attempts to fix common JSON syntax errors from LLMs.
// Handles: control characters, invalid escapes, missing commas, trailing
// commas, single quotes, unquoted values and truncation.
func repairJSON(input string) string {
	result := sanitizeControlChars(input)

	result = missingCommaBeforeKeyRegex.ReplaceAllString(result, `$1, $2`)
	result = missingCommaAfterValueRegex.ReplaceAllString(result, `$1, $2`)
	result = missingCommaAfterBraceRegex.ReplaceAllString(result, `$1, $2`)
	result = trailingCommaRegex.ReplaceAllString(result, `$1`)
	result = singleQuoteKeyRegex.ReplaceAllString(result, `$1"$2"$3`)

	result = singleQuoteValueRegex.ReplaceAllStringFunc(result, func(match string) string {
		parts := singleQuoteValueRegex.FindStringSubmatch(match)
		if len(parts) != 4 {
			return match
		}
		value := parts[2]
		value = strings.ReplaceAll(value, `\'`, `'`)
		value = strings.ReplaceAll(value, `"`, `\"`)
		return parts[1] + `"` + value + `"` + parts[3]
	})

	result = unquotedValueRegex.ReplaceAllStringFunc(result, func(match string) string {
		parts := unquotedValueRegex.FindStringSubmatch(match)
		if len(parts) != 4 {
			return match
		}
		switch parts[2] {
		case "true", "false", "null":
			return match
		}
		return parts[1] + `"` + parts[2] + `"` + parts[3]
	})

	return fixTruncatedJSON(result)
}

// validEscapes are the characters JSON allows after a backslash.
const validEscapes = `"\/bfnrtu`

// sanitizeControlChars escapes literal control characters inside JSON
// strings and doubles backslashes that do not start a valid escape
// (regexes like \s, Windows paths like C:\code).
func sanitizeControlChars(input string) string {
	var result strings.Builder
	result.Grow(len(input))

	inString := false
	for i := 0; i < len(input); i++ {
		c := input[i]

		if c == '\\' && inString {
			if i+1 < len(input) && strings.IndexByte(validEscapes, input[i+1]) >= 0 {
				result.WriteByte(c)
				result.WriteByte(input[i+1])
				i++
				continue
			}
			result.WriteString(`\\`)
			continue
		}

		if c == '"' {
			inString = !inString
			result.WriteByte(c)
			continue
		}

		if !inString {
			result.WriteByte(c)
			continue
		}

		switch c {
		case '\t':
			result.WriteString(`\t`)
		case '\n':
			result.WriteString(`\n`)
		case '\r':
			result.WriteString(`\r`)
		case '\b':
			result.WriteString(`\b`)
		case '\f':
			result.WriteString(`\f`)
		default:
			if c < 0x20 {
				result.WriteString(fmt.Sprintf(`\u%04x`, c))
			} else {
				result.WriteByte(c)
			}
		}
	}

	return result.String()
}

// fixTruncatedJSON closes a string and any structures left open when the
// model's output was cut off.
func fixTruncatedJSON(input string) string {
	var open []byte
	inString := false
	escaped := false
	for i := 0; i < len(input); i++ {
		c := input[i]
		if escaped {
			escaped = false
			continue
		}
		if inString {
			switch c {
			case '\\':
				escaped = true
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			open = append(open, c)
		case '}', ']':
			if len(open) > 0 {
				open = open[:len(open)-1]
			}
		}
	}

	var b strings.Builder
	b.WriteString(input)
	if inString {
		b.WriteByte('"')
	}
	for i := len(open) - 1; i >= 0; i-- {
		if open[i] == '{' {
			b.WriteByte('}')
		} else {
			b.WriteByte(']')
		}
	}
	return b.String()
}

// cleanLLMResponse strips markdown code fences around a response.
func cleanLLMResponse(response string) string {
	response = strings.TrimSpace(response)

	if strings.HasPrefix(response, "```json") {
		response = strings.TrimPrefix(response, "```json")
	} else if strings.HasPrefix(response, "```") {
		response = strings.TrimPrefix(response, "```")
	}
	response = strings.TrimSuffix(response, "```")

	return strings.TrimSpace(response)
}
