package handlers

import (
	"time"

	"account_store/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "requestId"
	requestLogKey   = "requestLog"
	maxRequestIDLen = 128
)

// requestID propagates the caller's X-Request-ID or assigns a fresh one.
func (h *Handler) requestID(c *gin.Context) {
	id := c.GetHeader(requestIDHeader)
	if id == "" || len(id) > maxRequestIDLen {
		id = uuid.NewString()
	}
	c.Set(requestIDKey, id)
	if h.log != nil {
		c.Set(requestLogKey, h.log.With("request_id", id))
	}
	c.Header(requestIDHeader, id)
	c.Next()
}

// reqLog returns the logger tagged with the request id, falling back to the
// handler logger outside the middleware chain. Nil when logging is off.
func (h *Handler) reqLog(c *gin.Context) *logger.Logger {
	if v, ok := c.Get(requestLogKey); ok {
		if l, ok := v.(*logger.Logger); ok {
			return l
		}
	}
	return h.log
}

func (h *Handler) accessLog(c *gin.Context) {
	start := time.Now()
	c.Next()

	log := h.reqLog(c)
	if log == nil {
		return
	}
	log.Infow("http_request",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"status", c.Writer.Status(),
		"latency_ms", time.Since(start).Milliseconds(),
		"client_ip", c.ClientIP(),
	)
}
