package gateway

import (
	"github.com/gin-gonic/gin"

	"github.com/viant/warden/internal/idgen"
)

const (
	traceHeader = "X-Trace-Id"
	traceKey    = "traceId"
)

// TraceID propagates the X-Trace-Id header, minting one when the caller did
// not supply it, and echoes it back on the response.
func TraceID() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(traceHeader)
		if traceID == "" {
			traceID = idgen.New()
		}
		c.Set(traceKey, traceID)
		c.Header(traceHeader, traceID)
		c.Next()
	}
}

func traceID(c *gin.Context) string {
	return c.GetString(traceKey)
}
