package prompts

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

const (
	ModeJSON     = "json"
	ModeMarkdown = "markdown"
	ModeText     = "text"
)

type Prompt struct {
	Name    string
	Version int
	Mode    string
	System  string
	User    string
}

// Fingerprint identifies the rendered prompt; it is attached to spans so two
// generations can be compared.
func (p Prompt) Fingerprint() string {
	h := sha256.Sum256([]byte(
		strings.TrimSpace(p.Name) + "|" +
			strconv.Itoa(p.Version) + "|" +
			strings.TrimSpace(p.System) + "|" +
			strings.TrimSpace(p.User),
	))
	return hex.EncodeToString(h[:])
}
