package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeRedactsCredentialKeys(t *testing.T) {
	out := sanitizeKVs([]interface{}{"api_key", "sk-abcdefghijklmnopqrstuvwx", "course_id", "c1"})
	assert.Equal(t, []interface{}{"api_key", "[REDACTED]", "course_id", "c1"}, out)
}

func TestSanitizeRedactsKeyShapedValues(t *testing.T) {
	out := sanitizeKVs([]interface{}{"detail", "sk-abcdefghijklmnopqrstuvwx"})
	assert.Equal(t, "[REDACTED]", out[1])
}

func TestSanitizeHashesClientAddress(t *testing.T) {
	out := sanitizeKVs([]interface{}{"client_ip", "10.0.0.1"})
	got, ok := out[1].(string)
	assert.True(t, ok)
	assert.Contains(t, got, "hash:")
	assert.NotContains(t, got, "10.0.0.1")
}

func TestSanitizeKeepsDanglingKey(t *testing.T) {
	out := sanitizeKVs([]interface{}{"course_id", "c1", "orphan"})
	assert.Len(t, out, 3)
	assert.Equal(t, "orphan", out[2])
}
