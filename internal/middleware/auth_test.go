package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quill/go-bookstore-api/internal/model"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func accessToken(t *testing.T, userID uuid.UUID, role string) string {
	return signToken(t, jwt.MapClaims{
		"sub":      userID.String(),
		"username": "alice",
		"role":     role,
		"typ":      "access",
		"exp":      time.Now().Add(time.Hour).Unix(),
		"iat":      time.Now().Unix(),
	})
}

func newTestRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	chain := append([]gin.HandlerFunc{AuthMiddleware(testSecret)}, handlers...)
	chain = append(chain, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":  GetUserID(c).String(),
			"role":     GetUserRole(c),
			"username": GetUsername(c),
		})
	})
	r.GET("/protected", chain...)
	return r
}

func doRequest(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware_NoHeader(t *testing.T) {
	w := doRequest(newTestRouter(), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	w := doRequest(newTestRouter(), "garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	userID := uuid.New()
	w := doRequest(newTestRouter(), accessToken(t, userID, model.RoleUser))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), userID.String())
	assert.Contains(t, w.Body.String(), "alice")
}

func TestAuthMiddleware_RejectsRefreshToken(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"sub": uuid.NewString(),
		"jti": uuid.NewString(),
		"typ": "refresh",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	w := doRequest(newTestRouter(), token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"sub": uuid.NewString(),
		"typ": "access",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	w := doRequest(newTestRouter(), token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminOnly_NonAdminForbidden(t *testing.T) {
	w := doRequest(newTestRouter(AdminOnly()), accessToken(t, uuid.New(), model.RoleUser))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminOnly_AdminAllowed(t *testing.T) {
	w := doRequest(newTestRouter(AdminOnly()), accessToken(t, uuid.New(), model.RoleAdmin))
	assert.Equal(t, http.StatusOK, w.Code)
}
