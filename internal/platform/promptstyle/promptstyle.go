package promptstyle

import "strings"

const marker = "KNOWLEDGEMAP_PROMPT_STYLE_V1"

// ApplySystem appends output-format guidance to a system prompt according to
// mode ("json", "markdown" or "text"). Applying it twice is a no-op.
func ApplySystem(system string, mode string) string {
	base := strings.TrimSpace(system)
	if base == "" {
		return base
	}
	if strings.Contains(base, marker) {
		return base
	}

	var b strings.Builder
	b.WriteString(base)
	b.WriteString("\n\n<!-- ")
	b.WriteString(marker)
	b.WriteString(" -->")
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "json":
		b.WriteString("\nReturn a single valid JSON value. Do not add commentary before or after it.")
	case "markdown":
		b.WriteString("\nOutput Markdown directly. Do not wrap the whole answer in a code block.")
	default:
		b.WriteString("\nBe concise.")
	}
	return b.String()
}
