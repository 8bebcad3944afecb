package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	modelKey        = "model"
)

// logRequest tags every request with an id and logs it once it completes.
func logRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)

		start := time.Now()
		c.Next()

		fields := logrus.Fields{
			"request_id": id,
			"status":     c.Writer.Status(),
			"elapsed":    time.Since(start).Round(time.Millisecond),
		}
		if model := c.GetString(modelKey); model != "" {
			fields["model"] = model
		}
		log.WithFields(fields).Infof("%s -- %s -- %s", c.ClientIP(), c.Request.Method, c.Request.URL.Path)
	}
}

func logAndReturnError(c *gin.Context, httpResponseStr string, code int, consoleStr ...string) {
	// consoleStr is optional.
	entry := log.WithField("request_id", c.GetString(requestIDKey))
	if len(consoleStr) > 0 {
		entry.Errorln(consoleStr[0])
	} else {
		entry.Errorln(httpResponseStr)
	}
	c.String(code, httpResponseStr)
	c.Abort()
}
