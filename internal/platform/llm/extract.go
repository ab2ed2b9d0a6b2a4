package llm

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// ErrNoJSON is returned when no strategy yields a decodable document.
var ErrNoJSON = errors.New("no JSON document found in model output")

var (
	jsonFence = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")
	anyFence  = regexp.MustCompile("(?s)```[a-zA-Z0-9_-]*\\s*(.*?)\\s*```")
)

// ExtractJSON decodes the first JSON document it can find in text into out.
// Strategies, first success wins: the whole text, a ```json fence, any fence,
// the substring from the first '{' to the last '}', then the same for '[' and ']'.
func ExtractJSON(text string, out any) error {
	for _, candidate := range jsonCandidates(text) {
		if !json.Valid([]byte(candidate)) {
			continue
		}
		if err := json.Unmarshal([]byte(candidate), out); err == nil {
			return nil
		}
	}
	return ErrNoJSON
}

func jsonCandidates(text string) []string {
	trimmed := strings.TrimSpace(text)
	out := []string{trimmed}
	if m := jsonFence.FindStringSubmatch(text); m != nil {
		out = append(out, m[1])
	}
	if m := anyFence.FindStringSubmatch(text); m != nil {
		out = append(out, m[1])
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end > start {
		out = append(out, text[start:end+1])
	}
	start = strings.Index(text, "[")
	end = strings.LastIndex(text, "]")
	if start != -1 && end > start {
		out = append(out, text[start:end+1])
	}
	return out
}
