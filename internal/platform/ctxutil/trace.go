package ctxutil

import "context"

type requestInfoKey struct{}

// RequestInfo identifies one API request across logs, spans and LLM calls.
type RequestInfo struct {
	TraceID   string
	RequestID string
	// CourseID is set for routes scoped to a course.
	CourseID string
}

// Default returns context.Background() when ctx is nil.
func Default(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

func WithRequestInfo(ctx context.Context, info *RequestInfo) context.Context {
	return context.WithValue(Default(ctx), requestInfoKey{}, info)
}

func GetRequestInfo(ctx context.Context) *RequestInfo {
	if ctx == nil {
		return nil
	}
	info, _ := ctx.Value(requestInfoKey{}).(*RequestInfo)
	return info
}

// LogFields renders the non-empty ids as logger key/value pairs.
func LogFields(ctx context.Context) []interface{} {
	info := GetRequestInfo(ctx)
	if info == nil {
		return nil
	}
	var out []interface{}
	if info.RequestID != "" {
		out = append(out, "request_id", info.RequestID)
	}
	if info.TraceID != "" {
		out = append(out, "trace_id", info.TraceID)
	}
	if info.CourseID != "" {
		out = append(out, "course_id", info.CourseID)
	}
	return out
}
