package response

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/knowledgemap-backend/internal/platform/apierr"
)

// RespondServiceError maps a service error onto its status and code.
func RespondServiceError(c *gin.Context, err error) {
	status, code := apierr.Classify(err)
	if status >= 500 {
		_ = c.Error(err)
	}
	RespondError(c, status, code, err)
}
