package llm

import (
	"encoding/json"
	"strings"

	"github.com/invopop/jsonschema"
)

const (
	maxExtractBytes   = 64 << 10
	maxJSONCandidates = 32
)

// ExtractJSON finds the first balanced JSON object or array in raw model
// output, ignoring code fences and surrounding prose. Only the first
// maxExtractBytes are scanned and at most maxJSONCandidates openers are tried.
func ExtractJSON(raw string) (string, bool) {
	text := stripFences(raw)
	if len(text) > maxExtractBytes {
		text = text[:maxExtractBytes]
	}
	tries := 0
	for start := 0; start < len(text) && tries < maxJSONCandidates; start++ {
		if text[start] != '{' && text[start] != '[' {
			continue
		}
		tries++
		end, ok := matchClose(text, start)
		if !ok {
			continue
		}
		candidate := text[start : end+1]
		if json.Valid([]byte(candidate)) {
			return candidate, true
		}
		// A balanced but invalid span is skipped whole.
		start = end
	}
	return "", false
}

// DecodeJSONLike extracts and unmarshals into v, reporting success.
func DecodeJSONLike(raw string, v any) bool {
	payload, ok := ExtractJSON(raw)
	if !ok {
		return false
	}
	return json.Unmarshal([]byte(payload), v) == nil
}

// matchClose returns the index of the bracket closing the one at start.
func matchClose(text string, start int) (int, bool) {
	var stack []byte
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{', '[':
			stack = append(stack, ch)
		case '}', ']':
			if len(stack) == 0 {
				return 0, false
			}
			open := stack[len(stack)-1]
			if (open == '{' && ch != '}') || (open == '[' && ch != ']') {
				return 0, false
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// stripFences drops a leading ``` line and a trailing ``` marker. Backticks
// elsewhere are left alone since they may sit inside string values.
func stripFences(raw string) string {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		if nl := strings.IndexByte(text, '\n'); nl >= 0 {
			text = text[nl+1:]
		} else {
			text = strings.TrimLeft(text, "`")
		}
	}
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// SchemaHint renders T as an inline JSON schema for prompt instructions.
func SchemaHint[T any]() string {
	reflector := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	b, err := json.Marshal(reflector.Reflect(v))
	if err != nil {
		return ""
	}
	return string(b)
}
