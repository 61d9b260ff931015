package telemetry

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/newrelic"
)

// TransactionMiddleware starts a New Relic web transaction per request and
// stores it in the request context so StartSegment and RecordError attach to
// it. It is a no-op when the client is disabled.
func (n *NewRelicClient) TransactionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !n.Enabled() {
			c.Next()
			return
		}
		name := c.FullPath()
		if name == "" {
			name = "NotFound"
		}
		txn := n.app.StartTransaction(c.Request.Method + " " + name)
		defer txn.End()

		txn.SetWebRequestHTTP(c.Request)
		c.Request = c.Request.WithContext(newrelic.NewContext(c.Request.Context(), txn))
		c.Next()

		txn.AddAttribute("http.statusCode", c.Writer.Status())
	}
}
