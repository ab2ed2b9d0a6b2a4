package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// textStream writes model deltas as a chunked text/plain body. Headers are
// sent with the first delta so an error raised before the model is called can
// still be answered with a JSON envelope.
type textStream struct {
	c       *gin.Context
	started bool
}

func newTextStream(c *gin.Context) *textStream { return &textStream{c: c} }

func (s *textStream) write(delta string) {
	if delta == "" {
		return
	}
	if !s.started {
		s.c.Header("Content-Type", "text/plain; charset=utf-8")
		s.c.Header("Cache-Control", "no-cache")
		s.c.Header("X-Accel-Buffering", "no")
		s.c.Status(http.StatusOK)
		s.started = true
	}
	if _, err := s.c.Writer.WriteString(delta); err != nil {
		return
	}
	s.c.Writer.Flush()
}

// finish sends an empty 200 body when nothing was streamed.
func (s *textStream) finish() {
	if !s.started {
		s.c.Header("Content-Type", "text/plain; charset=utf-8")
		s.c.Status(http.StatusOK)
		s.started = true
	}
}
