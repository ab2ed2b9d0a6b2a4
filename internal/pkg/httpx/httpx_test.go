package httpx

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type statusErr int

func (s statusErr) Error() string       { return fmt.Sprintf("status %d", int(s)) }
func (s statusErr) HTTPStatusCode() int { return int(s) }

func TestStatusOfUnwraps(t *testing.T) {
	err := fmt.Errorf("call: %w", statusErr(429))
	assert.Equal(t, 429, StatusOf(err))
	assert.Equal(t, 0, StatusOf(fmt.Errorf("plain")))
}

func TestIsCredentialStatus(t *testing.T) {
	for _, code := range []int{401, 403, 429} {
		assert.True(t, IsCredentialStatus(code), code)
	}
	for _, code := range []int{400, 404, 500, 502} {
		assert.False(t, IsCredentialStatus(code), code)
	}
}

func TestRetryAfterDurationCapsAtMax(t *testing.T) {
	resp := &http.Response{Header: http.Header{"Retry-After": []string{"30"}}}
	assert.Equal(t, 5*time.Second, RetryAfterDuration(resp, time.Second, 5*time.Second))
	assert.Equal(t, time.Second, RetryAfterDuration(nil, time.Second, 0))
}
