package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/freelancedesk/backend/internal/infrastructure/auth"
	"github.com/freelancedesk/backend/internal/infrastructure/config"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-access-secret-0123456789abcdef",
		RefreshSecret:          "test-refresh-secret-0123456789abcdef",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 168 * time.Hour,
		Issuer:                 "freelancedesk-test",
	})
}

func newTestRouter(cfg JWTMiddlewareConfig) *gin.Engine {
	router := gin.New()
	router.Use(JWTAuthMiddlewareWithConfig(cfg))
	router.GET("/api/v1/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetJWTUserID(c)})
	})
	router.GET("/api/v1/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

func doRequest(router *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	jwtService := newTestJWTService()
	router := newTestRouter(DefaultJWTConfig(jwtService))

	userID := uuid.New()
	pair, err := jwtService.GenerateTokenPair(userID, "dev@example.com")
	require.NoError(t, err)

	w := doRequest(router, "/api/v1/protected", pair.AccessToken)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), userID.String())
}

func TestJWTMiddleware_MissingHeader(t *testing.T) {
	router := newTestRouter(DefaultJWTConfig(newTestJWTService()))

	w := doRequest(router, "/api/v1/protected", "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTMiddleware_MalformedHeader(t *testing.T) {
	router := newTestRouter(DefaultJWTConfig(newTestJWTService()))

	req := httptest.NewRequest("GET", "/api/v1/protected", nil)
	req.Header.Set("Authorization", "Token abc123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTMiddleware_GarbageToken(t *testing.T) {
	router := newTestRouter(DefaultJWTConfig(newTestJWTService()))

	w := doRequest(router, "/api/v1/protected", "not.a.jwt")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTMiddleware_RefreshTokenRejectedOnAccessEndpoint(t *testing.T) {
	jwtService := newTestJWTService()
	router := newTestRouter(DefaultJWTConfig(jwtService))

	pair, err := jwtService.GenerateTokenPair(uuid.New(), "dev@example.com")
	require.NoError(t, err)

	w := doRequest(router, "/api/v1/protected", pair.RefreshToken)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTMiddleware_SkipPaths(t *testing.T) {
	router := newTestRouter(DefaultJWTConfig(newTestJWTService()))

	w := doRequest(router, "/api/v1/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJWTMiddleware_BlacklistedTokenRejected(t *testing.T) {
	jwtService := newTestJWTService()
	blacklist := auth.NewInMemoryTokenBlacklist()

	cfg := DefaultJWTConfig(jwtService)
	cfg.TokenBlacklist = blacklist
	router := newTestRouter(cfg)

	pair, err := jwtService.GenerateTokenPair(uuid.New(), "dev@example.com")
	require.NoError(t, err)

	w := doRequest(router, "/api/v1/protected", pair.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)

	claims, err := jwtService.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	require.NoError(t, blacklist.AddToBlacklist(context.Background(), claims.ID, time.Hour))

	w = doRequest(router, "/api/v1/protected", pair.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTMiddleware_UserInvalidationRejectsOlderTokens(t *testing.T) {
	jwtService := newTestJWTService()
	blacklist := auth.NewInMemoryTokenBlacklist()

	cfg := DefaultJWTConfig(jwtService)
	cfg.TokenBlacklist = blacklist
	router := newTestRouter(cfg)

	userID := uuid.New()
	pair, err := jwtService.GenerateTokenPair(userID, "dev@example.com")
	require.NoError(t, err)

	require.NoError(t, blacklist.AddUserTokensToBlacklist(context.Background(), userID.String(), time.Hour))

	w := doRequest(router, "/api/v1/protected", pair.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
