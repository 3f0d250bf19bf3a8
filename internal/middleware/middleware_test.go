package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"taskmind/internal/model"
	"taskmind/internal/repository"
	"taskmind/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

func newAuthenticator(t *testing.T) (*Authenticator, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.NewTestDB(t)
	return NewAuthenticator([]byte(testutil.TestSecret), repository.NewProfileRepository(db), time.Minute), db
}

func protectedRouter(auth *Authenticator) *gin.Engine {
	r := gin.New()
	r.GET("/me", auth.RequireAuth(), func(c *gin.Context) {
		id, _ := UserID(c)
		c.JSON(http.StatusOK, gin.H{"id": id.String(), "email": UserEmail(c)})
	})
	r.GET("/admin", auth.RequireAuth(), auth.RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func get(r http.Handler, path, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuthRejects(t *testing.T) {
	auth, _ := newAuthenticator(t)
	r := protectedRouter(auth)

	require.Equal(t, http.StatusUnauthorized, get(r, "/me", "").Code)
	require.Equal(t, http.StatusUnauthorized, get(r, "/me", "Token abc").Code)
	require.Equal(t, http.StatusUnauthorized, get(r, "/me", "Bearer not-a-jwt").Code)
}

func TestRequireAuthCreatesProfile(t *testing.T) {
	auth, db := newAuthenticator(t)
	r := protectedRouter(auth)
	user := uuid.New()

	w := get(r, "/me", "Bearer "+testutil.Token(t, user, "new@taskmind.test"))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), user.String())

	var profile model.Profile
	require.NoError(t, db.First(&profile, "id = ?", user).Error)
	require.Equal(t, model.RoleUser, profile.Role)
	require.Equal(t, "new@taskmind.test", profile.Email)

	require.Equal(t, http.StatusForbidden, get(r, "/admin", "Bearer "+testutil.Token(t, user, "new@taskmind.test")).Code)
}

func TestRoleCache(t *testing.T) {
	auth, db := newAuthenticator(t)
	r := protectedRouter(auth)
	p := testutil.CreateProfile(t, db, model.RoleUser)
	token := "Bearer " + testutil.Token(t, p.ID, p.Email)

	require.Equal(t, http.StatusForbidden, get(r, "/admin", token).Code)

	require.NoError(t, db.Model(&model.Profile{}).Where("id = ?", p.ID).Update("role", model.RoleAdmin).Error)
	require.Equal(t, http.StatusForbidden, get(r, "/admin", token).Code)

	auth.ClearRoleCache(p.ID.String())
	require.Equal(t, http.StatusNoContent, get(r, "/admin", token).Code)

	id, err := auth.AdminFromToken(context.Background(), testutil.Token(t, p.ID, p.Email))
	require.NoError(t, err)
	require.Equal(t, p.ID, id)

	_, err = auth.AdminFromToken(context.Background(), "")
	require.ErrorIs(t, err, ErrMissingToken)
}

func TestRateLimiter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := NewPerMinuteLimiter(2)
	r := gin.New()
	r.GET("/", limiter.Handler(), func(c *gin.Context) { c.Status(http.StatusOK) })

	require.Equal(t, http.StatusOK, get(r, "/", "").Code)
	require.Equal(t, http.StatusOK, get(r, "/", "").Code)
	w := get(r, "/", "")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.JSONEq(t, `{"error":"Too many requests, please try again later"}`, w.Body.String())

	limiter.Cleanup(0)
	require.Equal(t, http.StatusOK, get(r, "/", "").Code)
}

func TestAccessLogLevels(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)
	r := gin.New()
	r.Use(AccessLog(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	get(r, "/ok", "")
	get(r, "/boom", "")
	get(r, "/missing", "")

	entries := logs.All()
	require.Len(t, entries, 3)
	require.Equal(t, zap.InfoLevel, entries[0].Level)
	require.Equal(t, zap.ErrorLevel, entries[1].Level)
	require.Equal(t, zap.WarnLevel, entries[2].Level)
}
