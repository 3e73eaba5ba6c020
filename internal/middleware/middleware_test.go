package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"testcracker/internal/model"
	"testcracker/internal/util"
	"testcracker/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const secret = "middleware-test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func token(t *testing.T, role model.Role) string {
	t.Helper()
	tok, err := util.GenerateJWT(&model.User{ID: "u1", Email: "u@example.com", Role: role}, secret, time.Hour)
	require.NoError(t, err)
	return tok
}

func newRouter() *gin.Engine {
	r := gin.New()
	authed := r.Group("/", AuthMiddleware(secret))
	authed.GET("/me", func(c *gin.Context) {
		c.String(http.StatusOK, util.GetUserFromContext(c).UserID)
	})
	authed.GET("/admin", RoleMiddleware(model.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func do(r http.Handler, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := newRouter()

	w := do(r, "/me", "Bearer "+token(t, model.RoleStudent))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", w.Body.String())

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic abc"},
		{"empty token", "Bearer "},
		{"garbage token", "Bearer not-a-jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, http.StatusUnauthorized, do(r, "/me", tt.header).Code)
		})
	}

	other, err := util.GenerateJWT(&model.User{ID: "u1"}, "another-secret", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/me", "Bearer "+other).Code)

	expired, err := util.GenerateJWT(&model.User{ID: "u1"}, secret, -time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/me", "Bearer "+expired).Code)
}

func TestRoleMiddleware(t *testing.T) {
	r := newRouter()

	assert.Equal(t, http.StatusForbidden, do(r, "/admin", "Bearer "+token(t, model.RoleStudent)).Code)
	assert.Equal(t, http.StatusOK, do(r, "/admin", "Bearer "+token(t, model.RoleAdmin)).Code)

	bare := gin.New()
	bare.GET("/admin", RoleMiddleware(model.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })
	assert.Equal(t, http.StatusUnauthorized, do(bare, "/admin", "").Code)
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	orig := logger.Log
	logger.Log = zap.New(core)
	t.Cleanup(func() { logger.Log = orig })

	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	do(r, "/ok", "")
	do(r, "/boom", "")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
	assert.Equal(t, zap.ErrorLevel, entries[1].Level)
	assert.Equal(t, int64(500), entries[1].ContextMap()["status"])
}
