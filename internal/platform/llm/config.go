package llm

import (
	"strings"
	"time"

	"github.com/yungbote/knowledgemap-backend/internal/platform/envutil"
)

type Config struct {
	// BaseURL of an OpenAI-compatible API, including the version segment.
	BaseURL   string
	APIKeys   []string
	Model     string
	FastModel string
	Timeout   time.Duration
	// DisableThinking sends enable_thinking=false, which reasoning models served
	// behind OpenAI-compatible gateways honour.
	DisableThinking bool
}

// ConfigFromEnv reads LLM_* variables. LLM_API_KEYS is a comma separated list;
// a single LLM_API_KEY is accepted too.
func ConfigFromEnv() Config {
	keys := envutil.List("LLM_API_KEYS")
	if len(keys) == 0 {
		keys = envutil.List("LLM_API_KEY")
	}
	return Config{
		BaseURL:         envutil.String("LLM_BASE_URL", "https://api.openai.com/v1"),
		APIKeys:         keys,
		Model:           envutil.String("LLM_MODEL", "gpt-4o-mini"),
		FastModel:       envutil.String("LLM_MODEL_FAST", ""),
		Timeout:         time.Duration(envutil.Int("LLM_TIMEOUT_SECONDS", 180)) * time.Second,
		DisableThinking: envutil.Bool("LLM_DISABLE_THINKING", true),
	}
}

func (c Config) normalized() Config {
	out := c
	out.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	out.Model = strings.TrimSpace(c.Model)
	out.FastModel = strings.TrimSpace(c.FastModel)
	if out.FastModel == "" {
		out.FastModel = out.Model
	}
	if out.Timeout <= 0 {
		out.Timeout = 180 * time.Second
	}
	var keys []string
	for _, k := range c.APIKeys {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	out.APIKeys = keys
	return out
}
