package app

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newAuthRouter(username, password string) *gin.Engine {
	router := gin.New()
	router.GET("/metrics", metricsAuthMiddleware(username, password), func(c *gin.Context) {
		c.String(http.StatusOK, "metrics")
	})
	return router
}

func basicAuth(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

func TestMetricsAuthMiddleware_NoPasswordIsOpen(t *testing.T) {
	t.Parallel()
	router := newAuthRouter("prometheus", "")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "metrics", w.Body.String())
}

func TestMetricsAuthMiddleware_ValidCredentials(t *testing.T) {
	t.Parallel()
	router := newAuthRouter("prometheus", "secret123")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Authorization", basicAuth("prometheus", "secret123"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "metrics", w.Body.String())
}

func TestMetricsAuthMiddleware_Rejects(t *testing.T) {
	t.Parallel()
	router := newAuthRouter("prometheus", "secret123")

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong username", basicAuth("admin", "secret123")},
		{"wrong password", basicAuth("prometheus", "secret")},
		{"both wrong", basicAuth("admin", "hunter2")},
		{"only basic", "Basic"},
		{"invalid base64", "Basic notbase64!!!"},
		{"bearer token", "Bearer sometoken"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, `Basic realm="metrics"`, w.Header().Get("WWW-Authenticate"))
		})
	}
}
