package blackbox

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/marcus/atelier/internal/models"
)

// PrepareTransformDictInput builds the input_dict sent to /transform-dict:
// the criteria in key order with blank keys skipped and values trimmed.
func PrepareTransformDictInput(criteria *models.Criteria) *models.Criteria {
	out := models.NewCriteria()
	for _, k := range criteria.Keys() {
		if strings.TrimSpace(k) == "" {
			continue
		}
		v, _ := criteria.Get(k)
		out.Set(k, strings.TrimSpace(v))
	}
	return out
}

// transformDictWrappers are the envelope fields the service may nest the
// transformed dictionary under.
var transformDictWrappers = []string{"output_dict", "result"}

// FormatTransformDictResponse renders a /transform-dict reply as one
// "key: value" line per entry in server order. Replies that are not
// objects are shown as compact JSON.
func FormatTransformDictResponse(body []byte) string {
	target := body
	for _, name := range transformDictWrappers {
		raw := fieldOf(body, name)
		if raw != nil && len(bytes.TrimSpace(raw)) > 0 && bytes.TrimSpace(raw)[0] == '{' {
			target = raw
			break
		}
	}

	trimmed := bytes.TrimSpace(target)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		var buf bytes.Buffer
		if err := json.Compact(&buf, trimmed); err != nil {
			return string(trimmed)
		}
		return buf.String()
	}

	entries, err := objectEntries(trimmed)
	if err != nil {
		return string(trimmed)
	}
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = e.Key + ": " + dictValueText(e.Value)
	}
	return strings.Join(lines, "\n")
}

func dictValueText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err == nil {
			parts := make([]string, len(items))
			for i, item := range items {
				parts[i] = dictValueText(item)
			}
			return strings.Join(parts, ", ")
		}
	}
	if len(raw) > 0 && raw[0] == '{' {
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err == nil {
			return buf.String()
		}
	}
	return displayText(raw)
}
