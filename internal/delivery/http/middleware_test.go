package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/braillearn/backend/internal/auth"
)

func protectedRouter(tokens *auth.TokenManager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", NewAuthMiddleware(tokens).RequireAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"username": c.GetString("username"),
			"role":     c.GetString("role"),
		})
	})
	return r
}

func TestRequireAuthAcceptsValidToken(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret")
	router := protectedRouter(tokens)

	token, err := tokens.Issue("maria", "teacher")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"username":"maria","role":"teacher"}`, w.Body.String())
}

func TestRequireAuthRejectsMissingHeader(t *testing.T) {
	router := protectedRouter(auth.NewTokenManager("test-secret"))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuthRejectsForeignToken(t *testing.T) {
	router := protectedRouter(auth.NewTokenManager("test-secret"))

	token, err := auth.NewTokenManager("other-secret").Issue("maria", "teacher")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}
