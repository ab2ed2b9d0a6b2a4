package memory

import (
	_ "embed"
	"strings"
	"text/template"
)

// MetadataSeparator splits a tutor answer from its trailing JSON metadata.
const MetadataSeparator = "---METADATA---"

//go:embed tutor.tmpl
var tutorTemplateText string

var tutorTemplate = template.Must(template.New("tutor").Parse(tutorTemplateText))

type promptData struct {
	ContentMemory string
	Notes         string
	Mistakes      string
	Preferences   string
	State         string
	Tone          string
	Related       string
	Query         string
	NodeID        string
	NodeName      string

	HistorySummary string
}

func renderTutorPrompt(data promptData) (string, error) {
	var b strings.Builder
	if err := tutorTemplate.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}
