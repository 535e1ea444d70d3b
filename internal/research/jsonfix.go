package research

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	fenceRe         = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
	singleQuoteRe   = regexp.MustCompile(`'([^']*)'\s*:`)
	singleValRe     = regexp.MustCompile(`:\s*'([^']*)'`)
)

// cleanJSON strips markdown code fences and surrounding prose from a model
// completion, leaving the innermost JSON payload.
func cleanJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if m := fenceRe.FindStringSubmatch(raw); m != nil {
		raw = m[1]
	}
	if i := strings.Index(raw, "{"); i > 0 {
		raw = raw[i:]
	}
	return strings.TrimSpace(raw)
}

// lenientJSON rewrites common model output defects that strict parsing
// rejects: single-quoted keys and values, trailing commas, and Python
// literals.
func lenientJSON(raw string) string {
	raw = singleQuoteRe.ReplaceAllString(raw, `"$1":`)
	raw = singleValRe.ReplaceAllString(raw, `: "$1"`)
	raw = trailingCommaRe.ReplaceAllString(raw, "$1")
	raw = strings.ReplaceAll(raw, ": None", ": null")
	raw = strings.ReplaceAll(raw, ": True", ": true")
	raw = strings.ReplaceAll(raw, ": False", ": false")
	return raw
}

// RepairJSONMap parses a model completion into a map, repairing malformed
// output in stages. It never fails: unrecoverable input yields an empty map.
func RepairJSONMap(raw string) map[string]any {
	cleaned := cleanJSON(raw)

	var out map[string]any
	if err := json.Unmarshal([]byte(cleaned), &out); err == nil {
		return out
	}
	if err := json.Unmarshal([]byte(lenientJSON(cleaned)), &out); err == nil {
		return out
	}
	// Completions cut off at the token limit often carry a valid prefix.
	if i := strings.LastIndex(cleaned, "}"); i >= 0 {
		truncated := cleaned[:i+1]
		if err := json.Unmarshal([]byte(truncated), &out); err == nil {
			return out
		}
		if err := json.Unmarshal([]byte(lenientJSON(truncated)), &out); err == nil {
			return out
		}
	}
	return map[string]any{}
}
