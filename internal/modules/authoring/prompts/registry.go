package prompts

import (
	"fmt"
	"sync"

	"github.com/yungbote/knowledgemap-backend/internal/platform/promptstyle"
)

type Template struct {
	Name     PromptName
	Version  int
	Mode     string
	System   func(Input) (string, error)
	User     func(Input) (string, error)
	Validate Validator
}

var (
	registryMu sync.RWMutex
	registry   = map[PromptName]Template{}
)

// Register registers a compiled Template, replacing any previous one.
func Register(t Template) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[t.Name] = t
}

func lookup(name PromptName) (Template, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	t, ok := registry[name]
	return t, ok
}

// Build renders a registered prompt for in. The catalogue is loaded on first use.
func Build(name PromptName, in Input) (Prompt, error) {
	if err := ensureLoaded(); err != nil {
		return Prompt{}, err
	}
	t, ok := lookup(name)
	if !ok {
		return Prompt{}, fmt.Errorf("unknown prompt: %s", string(name))
	}
	if t.System == nil || t.User == nil {
		return Prompt{}, fmt.Errorf("prompt %s missing system/user renderers", string(name))
	}
	if t.Validate != nil {
		if err := t.Validate(in); err != nil {
			return Prompt{}, fmt.Errorf("%s: %w", string(name), err)
		}
	}
	system, err := t.System(in)
	if err != nil {
		return Prompt{}, fmt.Errorf("%s system render: %w", string(name), err)
	}
	user, err := t.User(in)
	if err != nil {
		return Prompt{}, fmt.Errorf("%s user render: %w", string(name), err)
	}
	return Prompt{
		Name:    string(t.Name),
		Version: t.Version,
		Mode:    t.Mode,
		System:  promptstyle.ApplySystem(system, t.Mode),
		User:    user,
	}, nil
}

// Names lists registered prompts.
func Names() []PromptName {
	_ = ensureLoaded()
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]PromptName, 0, len(registry))
	for n := range registry {
		out = append(out, n)
	}
	return out
}
