package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func runAuth(t *testing.T, authHeader string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/orders/my", nil)
	if authHeader != "" {
		c.Request.Header.Set("Authorization", authHeader)
	}
	AuthRequired()(c)
	return c, w
}

// Le secret est relu à chaque requête : un JWT_SECRET posé après l'init du
// package (via .env chargé dans main) doit valider le token
func TestAuthRequiredReadsSecretAtRequestTime(t *testing.T) {
	t.Setenv("JWT_SECRET", "clef-de-test")

	token := signToken(t, "clef-de-test", jwt.MapClaims{
		"user_id": "user-1",
		"email":   "claire@example.fr",
		"role":    "admin",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	c, w := runAuth(t, "Bearer "+token)
	assert.False(t, c.IsAborted())
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-1", c.GetString("user_id"))
	assert.True(t, IsAdmin(c))
}

func TestAuthRequiredRejectsBadSignature(t *testing.T) {
	t.Setenv("JWT_SECRET", "clef-de-test")

	token := signToken(t, "autre-clef", jwt.MapClaims{
		"user_id": "user-1",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	c, w := runAuth(t, "Bearer "+token)
	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRequiredRejectsExpiredToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "clef-de-test")

	token := signToken(t, "clef-de-test", jwt.MapClaims{
		"user_id": "user-1",
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})

	c, w := runAuth(t, "Bearer "+token)
	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRequiredRejectsMissingHeader(t *testing.T) {
	c, w := runAuth(t, "")
	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
