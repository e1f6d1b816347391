package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"user-account-service/internal/common/errors"
	"user-account-service/internal/common/logger"
	"user-account-service/internal/common/middleware"
	"user-account-service/internal/features/user/models"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.InitWithWriter(io.Discard, "handler-test", false)
}

type mockUserService struct {
	mock.Mock
}

func (m *mockUserService) CreateUser(ctx context.Context, creds models.Credentials) (*models.User, error) {
	args := m.Called(ctx, creds)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockUserService) GetUsers(ctx context.Context, token string) ([]*models.User, error) {
	args := m.Called(ctx, token)
	u, _ := args.Get(0).([]*models.User)
	return u, args.Error(1)
}

func (m *mockUserService) GetUser(ctx context.Context, id int64, token string) (*models.User, error) {
	args := m.Called(ctx, id, token)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockUserService) UpdateUser(ctx context.Context, id int64, token string, patch models.UserPatch) error {
	return m.Called(ctx, id, token, patch).Error(0)
}

func (m *mockUserService) CheckUser(ctx context.Context, creds models.Credentials) (*models.User, error) {
	args := m.Called(ctx, creds)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockUserService) LogoutUser(ctx context.Context, id int64, token string) error {
	return m.Called(ctx, id, token).Error(0)
}

func (m *mockUserService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	args := m.Called(ctx, token)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func setup(t *testing.T) (*gin.Engine, *mockUserService) {
	t.Helper()
	svc := new(mockUserService)
	t.Cleanup(func() { svc.AssertExpectations(t) })

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.ErrorHandler())
	NewUserHandler(svc).RegisterRoutes(r)
	return r, svc
}

func do(r *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) (string, string) {
	t.Helper()
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error.Code, body.Error.Message
}

var sampleUser = &models.User{
	ID:           1,
	Username:     "testUsername",
	Password:     "TestPassword",
	Token:        "tok-1",
	Status:       models.StatusOnline,
	CreationDate: time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC),
}

func TestCreateUser_Created(t *testing.T) {
	r, svc := setup(t)
	svc.On("CreateUser", mock.Anything, models.Credentials{Username: "testUsername", Password: "TestPassword"}).
		Return(sampleUser, nil).Once()

	w := do(r, http.MethodPost, "/users", `{"username":"testUsername","password":"TestPassword"}`)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"id":1,"username":"testUsername","token":"tok-1","status":"ONLINE"}`, w.Body.String())
	assert.NotContains(t, w.Body.String(), "TestPassword")
}

func TestCreateUser_BadBody(t *testing.T) {
	r, _ := setup(t)

	w := do(r, http.MethodPost, "/users", `{"username":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	code, _ := errorCode(t, w)
	assert.Equal(t, string(errors.ErrCodeBadRequest), code)
}

func TestCreateUser_Conflict(t *testing.T) {
	r, svc := setup(t)
	svc.On("CreateUser", mock.Anything, mock.Anything).
		Return(nil, errors.NewConflictError("user", "The username provided is not unique.")).Once()

	w := do(r, http.MethodPost, "/users", `{"username":"a","password":"b"}`)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGetUsers(t *testing.T) {
	r, svc := setup(t)
	svc.On("GetUsers", mock.Anything, "tok-1").Return([]*models.User{sampleUser}, nil).Once()

	w := do(r, http.MethodGet, "/users?token=tok-1", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"id":1,"username":"testUsername","token":"tok-1","status":"ONLINE"}]`, w.Body.String())
}

func TestGetUsers_EmptyListIsArray(t *testing.T) {
	r, svc := setup(t)
	svc.On("GetUsers", mock.Anything, "tok-1").Return([]*models.User{}, nil).Once()

	w := do(r, http.MethodGet, "/users?token=tok-1", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestGetUsers_MissingToken(t *testing.T) {
	r, _ := setup(t)

	w := do(r, http.MethodGet, "/users", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetUsers_UnknownToken(t *testing.T) {
	r, svc := setup(t)
	svc.On("GetUsers", mock.Anything, "nope").
		Return(nil, errors.NewUnauthorizedError("The token provided is not valid.")).Once()

	w := do(r, http.MethodGet, "/users?token=nope", "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetUser(t *testing.T) {
	r, svc := setup(t)
	svc.On("GetUser", mock.Anything, int64(1), "tok-1").Return(sampleUser, nil).Once()

	w := do(r, http.MethodGet, "/users/1?token=tok-1", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":1,"username":"testUsername","token":"tok-1","status":"ONLINE"}`, w.Body.String())
}

func TestGetUser_NotFound(t *testing.T) {
	r, svc := setup(t)
	svc.On("GetUser", mock.Anything, int64(99), "tok-1").Return(nil, errors.NewUserNotFoundError(99)).Once()

	w := do(r, http.MethodGet, "/users/99?token=tok-1", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	_, msg := errorCode(t, w)
	assert.Equal(t, "user with userId 99 was not found", msg)
}

func TestGetUser_BadID(t *testing.T) {
	r, _ := setup(t)

	for _, id := range []string{"abc", "0", "-3", "1.5"} {
		w := do(r, http.MethodGet, "/users/"+id+"?token=tok-1", "")
		assert.Equal(t, http.StatusBadRequest, w.Code, id)
	}
}

func TestUpdateUser(t *testing.T) {
	r, svc := setup(t)
	bday := time.Date(2000, 3, 17, 0, 0, 0, 0, time.UTC)
	svc.On("UpdateUser", mock.Anything, int64(1), "tok-1", mock.MatchedBy(func(p models.UserPatch) bool {
		return p.Username != nil && *p.Username == "renamed" &&
			p.Birthday != nil && p.Birthday.Equal(bday) && !p.ClearBirthday
	})).Return(nil).Once()

	w := do(r, http.MethodPut, "/users/1?token=tok-1", `{"username":"renamed","birthday":"2000-03-17"}`)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestUpdateUser_EmptyBirthdayClears(t *testing.T) {
	r, svc := setup(t)
	svc.On("UpdateUser", mock.Anything, int64(1), "tok-1", models.UserPatch{ClearBirthday: true}).Return(nil).Once()

	w := do(r, http.MethodPut, "/users/1?token=tok-1", `{"birthday":""}`)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestUpdateUser_BadBirthday(t *testing.T) {
	r, _ := setup(t)

	for _, b := range []string{"17-03-2000", "2000/03/17", "2001-02-29", "2000-02-30"} {
		w := do(r, http.MethodPut, "/users/1?token=tok-1", `{"birthday":"`+b+`"}`)
		require.Equal(t, http.StatusBadRequest, w.Code, b)
		_, msg := errorCode(t, w)
		assert.Equal(t, "Incorrect format for birthday YYYY-MM-DD", msg)
	}
}

func TestUpdateUser_NotFound(t *testing.T) {
	r, svc := setup(t)
	svc.On("UpdateUser", mock.Anything, int64(5), "tok-1", mock.Anything).Return(errors.NewUserNotFoundError(5)).Once()

	w := do(r, http.MethodPut, "/users/5?token=tok-1", `{"username":"x"}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCheckUser(t *testing.T) {
	r, svc := setup(t)
	svc.On("CheckUser", mock.Anything, models.Credentials{Username: "testUsername", Password: "TestPassword"}).
		Return(sampleUser, nil).Once()

	w := do(r, http.MethodPost, "/registered-users", `{"username":"testUsername","password":"TestPassword"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":1,"username":"testUsername","token":"tok-1","status":"ONLINE"}`, w.Body.String())
}

func TestCheckUser_WrongPassword(t *testing.T) {
	r, svc := setup(t)
	svc.On("CheckUser", mock.Anything, mock.Anything).
		Return(nil, errors.NewUnauthorizedError("The password provided is incorrect.")).Once()

	w := do(r, http.MethodPost, "/registered-users", `{"username":"testUsername","password":"nope"}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutUser(t *testing.T) {
	r, svc := setup(t)
	svc.On("LogoutUser", mock.Anything, int64(1), "tok-1").Return(nil).Once()

	w := do(r, http.MethodPost, "/users/1/logout?token=tok-1", "")

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestLogoutUser_Forbidden(t *testing.T) {
	r, svc := setup(t)
	svc.On("LogoutUser", mock.Anything, int64(2), "tok-1").
		Return(errors.NewForbiddenError("The token provided does not belong to this user.")).Once()

	w := do(r, http.MethodPost, "/users/2/logout?token=tok-1", "")

	assert.Equal(t, http.StatusForbidden, w.Code)
}
