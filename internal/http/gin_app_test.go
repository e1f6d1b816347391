package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"user-account-service/internal/common/config"
	"user-account-service/internal/common/logger"
	"user-account-service/internal/features/user/repository/memory"
	rediscache "user-account-service/internal/features/user/repository/redis"
	"user-account-service/internal/features/user/service"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.InitWithWriter(io.Discard, "app-test", false)
}

func testConfig() *config.Config {
	cfg := &config.Config{Debug: true, ServiceName: "user-account-service"}
	cfg.Server.Origins = []string{"http://localhost:3000"}
	return cfg
}

func newTestApp(t *testing.T, withCache bool) *gin.Engine {
	t.Helper()

	var cache service.UserCache
	if withCache {
		mr := miniredis.RunT(t)
		client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		cache = rediscache.NewUserCache(client, time.Minute)
	}

	svc := service.NewUserService(memory.NewMemoryRepository(), cache)
	return NewGinApp(testConfig(), svc)
}

type userJSON struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Token    string `json:"token"`
	Status   string `json:"status"`
}

func request(t *testing.T, app *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	app.ServeHTTP(w, req)
	return w
}

func createUser(t *testing.T, app *gin.Engine, username, password string) userJSON {
	t.Helper()
	w := request(t, app, http.MethodPost, "/users", `{"username":"`+username+`","password":"`+password+`"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var u userJSON
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &u))
	return u
}

func TestEndToEnd_CreateThenGet(t *testing.T) {
	for _, withCache := range []bool{false, true} {
		name := "memory"
		if withCache {
			name = "memory+redis"
		}
		t.Run(name, func(t *testing.T) {
			app := newTestApp(t, withCache)

			w := request(t, app, http.MethodPost, "/users", `{"username":"testUsername","password":"TestPassword"}`)
			require.Equal(t, http.StatusCreated, w.Code)
			assert.NotContains(t, w.Body.String(), "password")
			assert.NotContains(t, w.Body.String(), "TestPassword")

			var created userJSON
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
			assert.Equal(t, int64(1), created.ID)
			assert.Equal(t, "testUsername", created.Username)
			assert.NotEmpty(t, created.Token)
			assert.Equal(t, "ONLINE", created.Status)

			w = request(t, app, http.MethodGet, "/users/1?token="+created.Token, "")
			require.Equal(t, http.StatusOK, w.Code)

			var fetched userJSON
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
			assert.Equal(t, created.ID, fetched.ID)
			assert.Equal(t, created.Username, fetched.Username)
			assert.Equal(t, created.Status, fetched.Status)
		})
	}
}

func TestEndToEnd_DuplicateUsername(t *testing.T) {
	app := newTestApp(t, false)
	first := createUser(t, app, "testUsername", "TestPassword")

	w := request(t, app, http.MethodPost, "/users", `{"username":"testUsername","password":"other"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = request(t, app, http.MethodGet, "/users?token="+first.Token, "")
	require.Equal(t, http.StatusOK, w.Code)
	var users []userJSON
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	assert.Len(t, users, 1)
}

func TestEndToEnd_UnknownUser(t *testing.T) {
	app := newTestApp(t, false)
	u := createUser(t, app, "alice", "pw")

	w := request(t, app, http.MethodGet, "/users/42?token="+u.Token, "")
	require.Equal(t, http.StatusNotFound, w.Code)

	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "user with userId 42 was not found", body.Error.Message)
}

func TestEndToEnd_UpdateBirthday(t *testing.T) {
	app := newTestApp(t, true)
	u := createUser(t, app, "alice", "pw")
	target := "/users/1?token=" + u.Token

	w := request(t, app, http.MethodPut, target, `{"birthday":"2000-03-17"}`)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	w = request(t, app, http.MethodPut, target, `{"birthday":"17-03-2000"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = request(t, app, http.MethodPut, target, `{"birthday":""}`)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestEndToEnd_RenameIsVisible(t *testing.T) {
	app := newTestApp(t, true)
	u := createUser(t, app, "alice", "pw")

	// prime the cache
	w := request(t, app, http.MethodGet, "/users/1?token="+u.Token, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = request(t, app, http.MethodPut, "/users/1?token="+u.Token, `{"username":"alicia"}`)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = request(t, app, http.MethodGet, "/users/1?token="+u.Token, "")
	require.Equal(t, http.StatusOK, w.Code)
	var fetched userJSON
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	assert.Equal(t, "alicia", fetched.Username)
}

func TestEndToEnd_ListEveryUserOnce(t *testing.T) {
	app := newTestApp(t, false)
	a := createUser(t, app, "a", "pw")
	createUser(t, app, "b", "pw")
	createUser(t, app, "c", "pw")

	w := request(t, app, http.MethodGet, "/users?token="+a.Token, "")
	require.Equal(t, http.StatusOK, w.Code)

	var raw []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	require.Len(t, raw, 3)
	for i, item := range raw {
		assert.Len(t, item, 4)
		assert.Contains(t, item, "id")
		assert.Contains(t, item, "username")
		assert.Contains(t, item, "token")
		assert.Contains(t, item, "status")
		assert.NotContains(t, item, "password")
		assert.EqualValues(t, i+1, item["id"])
	}
}

func TestEndToEnd_TokenChecks(t *testing.T) {
	app := newTestApp(t, false)
	createUser(t, app, "alice", "pw")

	assert.Equal(t, http.StatusBadRequest, request(t, app, http.MethodGet, "/users", "").Code)
	assert.Equal(t, http.StatusUnauthorized, request(t, app, http.MethodGet, "/users?token=bogus", "").Code)
	assert.Equal(t, http.StatusUnauthorized, request(t, app, http.MethodGet, "/users/1?token=bogus", "").Code)
}

func TestEndToEnd_LoginLogout(t *testing.T) {
	app := newTestApp(t, true)
	alice := createUser(t, app, "alice", "pw")
	bob := createUser(t, app, "bob", "pw")

	w := request(t, app, http.MethodPost, "/users/1/logout?token="+bob.Token, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = request(t, app, http.MethodPost, "/users/1/logout?token="+alice.Token, "")
	require.Equal(t, http.StatusNoContent, w.Code)

	w = request(t, app, http.MethodGet, "/users/1?token="+bob.Token, "")
	require.Equal(t, http.StatusOK, w.Code)
	var offline userJSON
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &offline))
	assert.Equal(t, "OFFLINE", offline.Status)

	w = request(t, app, http.MethodPost, "/registered-users", `{"username":"alice","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = request(t, app, http.MethodPost, "/registered-users", `{"username":"nobody","password":"pw"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = request(t, app, http.MethodPost, "/registered-users", `{"username":"alice","password":"pw"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var online userJSON
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &online))
	assert.Equal(t, alice.Token, online.Token)
	assert.Equal(t, "ONLINE", online.Status)
}

type stubChecker struct{ err error }

func (s stubChecker) HealthCheck(context.Context) error { return s.err }

func TestProbes(t *testing.T) {
	svc := service.NewUserService(memory.NewMemoryRepository(), nil)

	app := NewGinApp(testConfig(), svc, ReadinessCheck{Name: "postgres", Checker: stubChecker{}})
	assert.Equal(t, http.StatusOK, request(t, app, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, request(t, app, http.MethodGet, "/live", "").Code)
	assert.Equal(t, http.StatusOK, request(t, app, http.MethodGet, "/ready", "").Code)

	app = NewGinApp(testConfig(), svc,
		ReadinessCheck{Name: "postgres", Checker: stubChecker{}},
		ReadinessCheck{Name: "redis", Checker: stubChecker{err: errors.New("connection refused")}},
	)
	w := request(t, app, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "redis unavailable")
}

func TestSwaggerUI(t *testing.T) {
	app := newTestApp(t, false)

	w := request(t, app, http.MethodGet, "/swagger/doc.json", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/registered-users")
}

func TestUnknownRoute(t *testing.T) {
	app := newTestApp(t, false)

	w := request(t, app, http.MethodGet, "/nowhere", "")
	require.Equal(t, http.StatusNotFound, w.Code)

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "NOT_FOUND", body.Error.Code)
}

func TestRequestIDHeader(t *testing.T) {
	app := newTestApp(t, false)

	w := request(t, app, http.MethodGet, "/health", "")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
