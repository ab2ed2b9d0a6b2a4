package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/knowledgemap-backend/internal/platform/ctxutil"
)

const (
	headerTraceID   = "X-Trace-Id"
	headerRequestID = "X-Request-Id"
)

// courseID reads the course a route is scoped to. Annotation routes are keyed
// by node and carry no course.
func courseID(c *gin.Context) string {
	if id := c.Param("id"); id != "" && strings.HasPrefix(c.FullPath(), "/api/courses/") {
		return id
	}
	if id := c.Query("course_id"); id != "" {
		return id
	}
	return ""
}

// AttachTraceContext stores request, trace and course ids on the request
// context and echoes the first two as response headers. It runs after
// otelgin so the active span's trace id wins over a client supplied one.
func AttachTraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())

		info := &ctxutil.RequestInfo{
			RequestID: strings.TrimSpace(c.GetHeader(headerRequestID)),
			CourseID:  courseID(c),
		}
		if info.RequestID == "" {
			info.RequestID = uuid.NewString()
		}
		if sc := span.SpanContext(); sc.HasTraceID() {
			info.TraceID = sc.TraceID().String()
		} else if tid := strings.TrimSpace(c.GetHeader(headerTraceID)); tid != "" {
			info.TraceID = tid
		} else {
			info.TraceID = uuid.NewString()
		}

		span.SetAttributes(attribute.String("http.request_id", info.RequestID))
		if info.CourseID != "" {
			span.SetAttributes(attribute.String("course.id", info.CourseID))
		}

		c.Request = c.Request.WithContext(ctxutil.WithRequestInfo(c.Request.Context(), info))
		c.Header(headerTraceID, info.TraceID)
		c.Header(headerRequestID, info.RequestID)
		c.Next()
	}
}
