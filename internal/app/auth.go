package app

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// metricsAuthMiddleware guards /metrics with Basic Auth. An empty password
// leaves the endpoint open.
func metricsAuthMiddleware(username, password string) gin.HandlerFunc {
	if password == "" {
		return func(c *gin.Context) { c.Next() }
	}

	wantUser, wantPass := []byte(username), []byte(password)
	return func(c *gin.Context) {
		user, pass, ok := c.Request.BasicAuth()
		// Evaluate both comparisons so timing does not reveal which one failed.
		userOK := subtle.ConstantTimeCompare([]byte(user), wantUser)
		passOK := subtle.ConstantTimeCompare([]byte(pass), wantPass)
		if !ok || userOK&passOK != 1 {
			c.Header("WWW-Authenticate", `Basic realm="metrics"`)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}
