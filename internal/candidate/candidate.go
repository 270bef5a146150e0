// Package candidate defines the Candidate record the Generator (C6) emits
// and a tolerant decode helper that survives the LLM response wrapping the
// JSON object in prose, or the candidates array being empty or malformed.
package candidate

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// Check is one named self-check the Generator claims to have performed.
type Check struct {
	Name string `json:"name"`
	Pass bool   `json:"pass"`
}

// Candidate is one SQL string with self-check annotations. Repaired is set
// later, by the Minimal Repairer (C8), never by the Generator itself.
type Candidate struct {
	Label      string  `json:"label"`
	SQL        string  `json:"sql"`
	Checks     []Check `json:"checks,omitempty"`
	Confidence float64 `json:"confidence"`
	Repaired   bool    `json:"-"`
}

// ExtractJSONObject locates the first balanced `{...}` object in text,
// tolerating an LLM that wraps its JSON in prose or a markdown code fence.
func ExtractJSONObject(text string) (string, bool) {
	depth := 0
	start := -1
	inString := false
	escaped := false

	for i, r := range text {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			inString = true
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start >= 0 {
					return text[start : i+1], true
				}
			}
		}
	}
	return "", false
}

// DecodeCandidates tolerantly reads the `candidates[]` array out of a raw
// Generator response, mirroring the original implementation's duck-typed
// dict/struct-tolerant conversion: each candidate entry is read field-by-
// field via gjson so a shape mismatch on one optional field never fails the
// whole decode.
func DecodeCandidates(raw string) ([]Candidate, error) {
	obj, ok := ExtractJSONObject(raw)
	if !ok {
		return nil, fmt.Errorf("candidate: no JSON object found in response")
	}

	arr := gjson.Get(obj, "candidates")
	if !arr.Exists() || !arr.IsArray() {
		return nil, nil
	}

	var out []Candidate
	for _, item := range arr.Array() {
		out = append(out, toCandidate(item))
	}
	return out, nil
}

// toCandidate is the duck-typed field reader: tolerant of missing fields,
// of `sql` vs `query` naming, and of `checks` being absent entirely.
func toCandidate(item gjson.Result) Candidate {
	label := firstNonEmpty(item.Get("label").String(), item.Get("name").String())
	sql := firstNonEmpty(item.Get("sql").String(), item.Get("query").String())

	var checks []Check
	for _, c := range item.Get("checks").Array() {
		checks = append(checks, Check{
			Name: c.Get("name").String(),
			Pass: c.Get("pass").Bool(),
		})
	}

	confidence := item.Get("confidence").Float()

	return Candidate{
		Label:      label,
		SQL:        sql,
		Checks:     checks,
		Confidence: confidence,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
