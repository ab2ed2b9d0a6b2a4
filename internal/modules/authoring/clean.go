package authoring

import "strings"

// CleanResponse trims model prose and strips a ```markdown wrapper around the
// whole answer.
func CleanResponse(text string) string {
	clean := strings.TrimSpace(text)
	if strings.HasPrefix(clean, "```markdown") && strings.HasSuffix(clean, "```") && len(clean) >= len("```markdown")+3 {
		clean = strings.TrimSpace(clean[len("```markdown") : len(clean)-3])
	}
	return clean
}

func firstRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
