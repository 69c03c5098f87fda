package blackbox

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// entry is one key/value pair of a JSON object, kept in server order.
type entry struct {
	Key   string
	Value json.RawMessage
}

// objectEntries decodes a JSON object into its pairs in document order.
// Arrays are treated like objects keyed by their 0-based indexes.
func objectEntries(body []byte) ([]entry, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		out := make([]entry, len(items))
		for i, item := range items {
			out[i] = entry{Key: strconv.Itoa(i), Value: item}
		}
		return out, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected JSON object, got %v", tok)
	}
	var out []entry
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := keyTok.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("value of %q: %w", key, err)
		}
		out = append(out, entry{Key: key, Value: raw})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return out, nil
}

// fieldOf returns the raw value of a top-level field, or nil when the body
// is not an object or the field is absent or null.
func fieldOf(body []byte, name string) json.RawMessage {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil
	}
	raw, ok := obj[name]
	if !ok || string(bytes.TrimSpace(raw)) == "null" {
		return nil
	}
	return raw
}

// displayText renders a JSON value the way string interpolation shows it:
// strings verbatim, numbers in their shortest form, arrays as comma-joined
// elements, objects as a marker.
func displayText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err == nil {
			parts := make([]string, len(items))
			for i, item := range items {
				if string(bytes.TrimSpace(item)) == "null" {
					continue
				}
				parts[i] = displayText(item)
			}
			return strings.Join(parts, ",")
		}
	case '{':
		return "[object Object]"
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		if f, ok := jsonFloat(raw); ok {
			return formatNumber(f)
		}
	}
	return string(raw)
}

// jsonFloat parses a JSON number. Out of range values become infinities.
func jsonFloat(raw json.RawMessage) (float64, bool) {
	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil && !math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// formatNumber writes f the way a script engine prints a number: integers
// without a fraction and exponent notation outside [1e-6, 1e21).
func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	if abs := math.Abs(f); abs >= 1e21 || abs < 1e-6 {
		mant, exp, _ := strings.Cut(strconv.FormatFloat(f, 'e', -1, 64), "e")
		return mant + "e" + exp[:1] + strings.TrimLeft(exp[1:], "0")
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

var (
	decimalLiteral  = regexp.MustCompile(`^[+-]?(?:Infinity|(?:[0-9]+\.?[0-9]*|\.[0-9]+)(?:[eE][+-]?[0-9]+)?)$`)
	prefixedLiteral = regexp.MustCompile(`^0(?:[xX][0-9a-fA-F]+|[oO][0-7]+|[bB][01]+)$`)
)

// numericString reports whether s converts to a number other than NaN
// under script string-to-number rules: surrounding whitespace is ignored,
// the empty string is zero and hex, octal and binary prefixes are allowed.
func numericString(s string) bool {
	s = strings.TrimFunc(s, func(r rune) bool {
		return r == '\uFEFF' || (unicode.IsSpace(r) && r != '\u0085')
	})
	return s == "" || decimalLiteral.MatchString(s) || prefixedLiteral.MatchString(s)
}

func parseText(body []byte) (string, bool, error) {
	raw := fieldOf(body, "text")
	if raw == nil {
		return "", true, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || s == "" {
		return "", true, nil
	}
	return s, true, nil
}

func parseDescriptions(body []byte) (string, bool, error) {
	entries, err := objectEntries(body)
	if err != nil {
		return "", false, fmt.Errorf("decode descriptions: %w", err)
	}
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = e.Key + ": " + displayText(e.Value)
	}
	return strings.Join(lines, "\n\n"), true, nil
}

// Axis is one generated axis: a title and its phrases.
type Axis struct {
	Title   string   `json:"title"`
	Phrases []string `json:"phrases"`
}

func parseAxes(body []byte) (string, bool, error) {
	raw := fieldOf(body, "axes")
	if raw == nil {
		return "", false, nil
	}
	var axes []Axis
	if err := json.Unmarshal(raw, &axes); err != nil {
		return "", false, fmt.Errorf("decode axes: %w", err)
	}
	for i, axis := range axes {
		if axis.Phrases == nil {
			return "", false, fmt.Errorf("decode axes: axis %d (%q) has no phrases", i, axis.Title)
		}
	}
	return FormatAxes(axes), true, nil
}

// FormatAxes renders each axis as its title followed by 1-based numbered
// phrases; axes are separated by a blank line.
func FormatAxes(axes []Axis) string {
	blocks := make([]string, len(axes))
	for i, axis := range axes {
		var sb strings.Builder
		sb.WriteString(axis.Title)
		sb.WriteString("\n")
		for j, phrase := range axis.Phrases {
			if j > 0 {
				sb.WriteString("\n")
			}
			fmt.Fprintf(&sb, "%d. %s", j+1, phrase)
		}
		blocks[i] = sb.String()
	}
	return strings.Join(blocks, "\n\n")
}

func parseSumLetters(body []byte) (string, bool, error) {
	raw := fieldOf(body, "sums")
	if raw == nil {
		return "", false, nil
	}
	var sums []json.RawMessage
	if err := json.Unmarshal(raw, &sums); err != nil {
		return "", false, fmt.Errorf("decode sums: %w", err)
	}
	return JoinSums(sums), true, nil
}

// JoinSums concatenates the entries of sums that convert to a number,
// with no separator. Each kept entry is written as its string form, so
// numeric strings stay verbatim, booleans print as true or false and null
// contributes nothing. Objects and non-numeric strings or arrays are
// dropped.
func JoinSums(sums []json.RawMessage) string {
	var sb strings.Builder
	for _, raw := range sums {
		if s, ok := sumText(raw); ok {
			sb.WriteString(s)
		}
	}
	return sb.String()
}

func sumText(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", false
	}
	switch raw[0] {
	case '{':
		return "", false
	case '"', '[':
		s := displayText(raw)
		return s, numericString(s)
	case 'n':
		return "", true
	case 't', 'f':
		return string(raw), true
	}
	f, ok := jsonFloat(raw)
	if !ok {
		return "", false
	}
	return formatNumber(f), true
}
