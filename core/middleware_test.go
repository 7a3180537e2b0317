package core

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func originRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(OriginRefererMiddleware(Config{AllowedOrigins: []string{"https://shop.example.com/"}}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestOriginRefererMiddleware(t *testing.T) {
	r := originRouter()
	cases := []struct {
		name, method, header, value string
		status                      int
	}{
		{"no origin", http.MethodGet, "", "", http.StatusOK},
		{"allowed origin", http.MethodGet, "Origin", "https://SHOP.example.com", http.StatusOK},
		{"allowed referer", http.MethodGet, "Referer", "https://shop.example.com/products?id=1", http.StatusOK},
		{"foreign origin", http.MethodGet, "Origin", "https://evil.example", http.StatusForbidden},
		{"foreign referer", http.MethodGet, "Referer", "https://evil.example/page", http.StatusForbidden},
		{"preflight", http.MethodOptions, "Origin", "https://shop.example.com", http.StatusNoContent},
		{"foreign preflight", http.MethodOptions, "Origin", "https://evil.example", http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, "/x", nil)
			if tc.header != "" {
				req.Header.Set(tc.header, tc.value)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestOriginRefererMiddleware_CORSHeaders(t *testing.T) {
	r := originRouter()
	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	h := rec.Header()
	assert.Equal(t, "https://shop.example.com", h.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", h.Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, h.Get("Access-Control-Allow-Headers"), "X-CSRF-Token")
	assert.Contains(t, h.Get("Access-Control-Allow-Methods"), http.MethodDelete)
}

func TestOriginRefererMiddleware_ExposesCSRFHeader(t *testing.T) {
	r := originRouter()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "X-CSRF-Token", rec.Header().Get("Access-Control-Expose-Headers"))
}

func TestRandomToken(t *testing.T) {
	a, err := randomToken(32)
	assert.NoError(t, err)
	assert.Len(t, a, 32)
	b, _ := randomToken(32)
	assert.NotEqual(t, a, b)

	_, err = randomToken(0)
	assert.Error(t, err)
}
