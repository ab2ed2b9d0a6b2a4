package apierr

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	pkgerrors "github.com/yungbote/knowledgemap-backend/internal/pkg/errors"
)

func TestClassify(t *testing.T) {
	status, code := Classify(NotFound("course_not_found", "course %s", "c1"))
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "course_not_found", code)

	status, code = Classify(fmt.Errorf("wrap: %w", pkgerrors.ErrConflict))
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "conflict", code)

	status, _ = Classify(fmt.Errorf("boom"))
	assert.Equal(t, http.StatusInternalServerError, status)
}

func TestNotFoundWrapsSentinel(t *testing.T) {
	err := NotFound("node_not_found", "node %s", "n1")
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
	assert.Contains(t, err.Error(), "node n1")
}
