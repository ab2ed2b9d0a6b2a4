package prompts

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// PromptCatalogEnv points at a YAML file that replaces the embedded catalogue.
const PromptCatalogEnv = "PROMPTS_YAML"

//go:embed prompts.yaml
var catalogFS embed.FS

type yamlCatalog struct {
	Catalog string       `yaml:"catalog"`
	Version int          `yaml:"version"`
	Prompts []yamlPrompt `yaml:"prompts"`
}

type yamlPrompt struct {
	Name    string `yaml:"name"`
	Version int    `yaml:"version"`
	Mode    string `yaml:"mode"`
	System  string `yaml:"system"`
	User    string `yaml:"user"`
}

var (
	loadOnce sync.Once
	loadErr  error
)

func ensureLoaded() error {
	loadOnce.Do(func() {
		data, err := readCatalog()
		if err != nil {
			loadErr = err
			return
		}
		loadErr = LoadCatalog(data)
	})
	return loadErr
}

func readCatalog() ([]byte, error) {
	if path := strings.TrimSpace(os.Getenv(PromptCatalogEnv)); path != "" {
		return os.ReadFile(path)
	}
	return catalogFS.ReadFile("prompts.yaml")
}

// LoadCatalog parses a YAML catalogue and registers every prompt in it.
func LoadCatalog(data []byte) error {
	var cat yamlCatalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return fmt.Errorf("parse prompt catalogue: %w", err)
	}
	if err := validateCatalog(&cat); err != nil {
		return err
	}
	for _, p := range cat.Prompts {
		name := PromptName(strings.TrimSpace(p.Name))
		t, err := MakeTemplate(Spec{
			Name:       name,
			Version:    p.Version,
			Mode:       strings.TrimSpace(p.Mode),
			System:     p.System,
			User:       p.User,
			Validators: validators[name],
		})
		if err != nil {
			return err
		}
		Register(t)
	}
	return nil
}

func validateCatalog(cat *yamlCatalog) error {
	if strings.TrimSpace(cat.Catalog) != "authoring" {
		return fmt.Errorf("unexpected catalogue: %s", cat.Catalog)
	}
	if len(cat.Prompts) == 0 {
		return errors.New("no prompts defined")
	}
	seen := map[string]bool{}
	for _, p := range cat.Prompts {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return errors.New("prompt name is required")
		}
		if seen[name] {
			return fmt.Errorf("duplicate prompt name: %s", name)
		}
		seen[name] = true
	}
	return nil
}
