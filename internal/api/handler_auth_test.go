package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"parking-gate-backend/config"
	"parking-gate-backend/internal/db"
	"parking-gate-backend/internal/store"
)

func newTestStore(t *testing.T) store.Store {
	gormDB, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(gormDB))
	return store.NewGormStore(gormDB)
}

func setupAuthRouter(t *testing.T) (*gin.Engine, *config.AuthConfig) {
	gin.SetMode(gin.TestMode)
	authCfg := &config.AuthConfig{JWTSecret: "test-secret", TokenTTLDays: 7}
	handler := NewHandler(newTestStore(t), nil, nil, nil, nil, authCfg, nil)

	r := gin.Default()
	r.POST("/api/user/register", handler.Register)
	r.POST("/api/user/login", handler.Login)
	authed := r.Group("/api", RequireAuth(authCfg))
	authed.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userId": currentUserID(c)})
	})
	return r, authCfg
}

func doJSON(router *gin.Engine, method, path, body, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestAuthFlow(t *testing.T) {
	router, _ := setupAuthRouter(t)

	register := `{"username":"asha","email":"asha@example.com","location":"Delhi","password":"hunter2hunter2"}`
	w := doJSON(router, "POST", "/api/user/register", register, "")
	require.Equal(t, http.StatusCreated, w.Code)

	// Wrong password is rejected without leaking which part was wrong.
	w = doJSON(router, "POST", "/api/user/login", `{"email":"asha@example.com","password":"wrong-password"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Wrong credentials"}`, w.Body.String())

	w = doJSON(router, "POST", "/api/user/login", `{"email":"nobody@example.com","password":"hunter2hunter2"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Wrong credentials"}`, w.Body.String())

	w = doJSON(router, "POST", "/api/user/login", `{"email":"asha@example.com","password":"hunter2hunter2"}`, "")
	require.Equal(t, http.StatusOK, w.Code)

	var login struct {
		ID    string `json:"id"`
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	require.NotEmpty(t, login.Token)
	require.NotEmpty(t, login.ID)

	// The issued token grants access and identifies the caller.
	w = doJSON(router, "GET", "/api/whoami", "", login.Token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"userId":"`+login.ID+`"}`, w.Body.String())
}

func TestRequireAuth_Rejections(t *testing.T) {
	router, _ := setupAuthRouter(t)

	w := doJSON(router, "GET", "/api/whoami", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(router, "GET", "/api/whoami", "", "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_WrongSecret(t *testing.T) {
	router, _ := setupAuthRouter(t)

	otherCfg := &config.AuthConfig{JWTSecret: "different-secret", TokenTTLDays: 7}
	token, err := signToken(otherCfg, "user-1")
	require.NoError(t, err)

	w := doJSON(router, "GET", "/api/whoami", "", token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegister_ValidationErrors(t *testing.T) {
	router, _ := setupAuthRouter(t)

	// Password below the minimum length.
	w := doJSON(router, "POST", "/api/user/register", `{"username":"a","email":"a@example.com","password":"short"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, "POST", "/api/user/register", `{"username":"a","email":"not-an-email","password":"hunter2hunter2"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
