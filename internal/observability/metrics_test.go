package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWritePrometheusIsSortedAndLabelled(t *testing.T) {
	m := NewMetrics()
	m.ObserveLLMRequest("gpt", "smart", "200", 2*time.Second, 10, 20)
	m.ObserveLLMRequest("gpt", "fast", "429", 0, 0, 0)
	m.IncCredentialRotation()

	var buf bytes.Buffer
	require.NoError(t, m.WritePrometheus(&buf))
	out := buf.String()

	assert.Contains(t, out, `km_llm_requests_total{model="gpt",tier="fast",status="429"} 1`)
	assert.Contains(t, out, `km_llm_requests_total{model="gpt",tier="smart",status="200"} 1`)
	assert.Contains(t, out, `km_llm_tokens_total{model="gpt",direction="output"} 20`)
	assert.Contains(t, out, "km_llm_credential_rotations_total 1")
	assert.Contains(t, out, `km_llm_request_duration_seconds_bucket{model="gpt",tier="smart",le="+Inf"} 1`)
	assert.Less(t, strings.Index(out, `tier="fast"`), strings.Index(out, `tier="smart"`))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/x", "200", time.Millisecond)
	m.IncTaskAction("content", "ok")
	m.IncEventPublished("TaskProgress")
	assert.Zero(t, m.CredentialRotations())
	assert.NoError(t, m.WritePrometheus(&bytes.Buffer{}))
}

func TestEscapeLabel(t *testing.T) {
	assert.Equal(t, `{route="a\"b"}`, labelString([]string{"route"}, []string{`a"b`}))
	assert.Equal(t, `{route="unknown",le="1"}`, withLe(labelString([]string{"route"}, nil), "1"))
}
