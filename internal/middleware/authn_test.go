package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"task-tracker/backend/internal/middleware"
	"task-tracker/backend/internal/models"
	"task-tracker/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuthenticator struct {
	users map[string]*models.User
	err   error
	calls int
}

func (f *fakeAuthenticator) Authenticate(_ context.Context, token string) (*models.User, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	user, ok := f.users[token]
	if !ok {
		return nil, services.ErrUnauthorized
	}
	return user, nil
}

func newProtectedRouter(authn middleware.Authenticator, reached *bool) *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(middleware.Authenticate(authn))
	router.GET("/protected", func(c *gin.Context) {
		*reached = true
		user, ok := middleware.CurrentUser(c)
		if !ok {
			c.Status(http.StatusTeapot)
			return
		}
		c.JSON(http.StatusOK, gin.H{"username": user.Username})
	})
	return router
}

func TestAuthenticate_AttachesUser(t *testing.T) {
	alice := &models.User{ID: uuid.Must(uuid.NewV4()), Username: "alice"}
	authn := &fakeAuthenticator{users: map[string]*models.User{"good-token": alice}}
	reached := false
	router := newProtectedRouter(authn, &reached)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, reached)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "alice", body["username"])
}

func TestAuthenticate_RejectsBeforeHandler(t *testing.T) {
	authn := &fakeAuthenticator{users: map[string]*models.User{}}

	tests := []struct {
		name   string
		header string
		calls  int
	}{
		{"missing header", "", 0},
		{"wrong scheme", "Basic Zm9vOmJhcg==", 0},
		{"empty bearer", "Bearer ", 0},
		{"bare token", "good-token", 0},
		{"unknown token", "Bearer nope", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authn.calls = 0
			reached := false
			router := newProtectedRouter(authn, &reached)

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.False(t, reached, "handler must not run")
			assert.Equal(t, tt.calls, authn.calls)
			assert.Contains(t, w.Body.String(), `"error":"unauthorized"`)
		})
	}
}

func TestAuthenticate_StoreFailures(t *testing.T) {
	tests := []struct {
		err        error
		status     int
		retryAfter bool
	}{
		{fmt.Errorf("%w: deadline", services.ErrUnavailable), http.StatusServiceUnavailable, true},
		{errors.New("boom"), http.StatusInternalServerError, false},
		{fmt.Errorf("%w: context canceled", services.ErrCanceled), middleware.StatusClientClosedRequest, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			reached := false
			router := newProtectedRouter(&fakeAuthenticator{err: tt.err}, &reached)

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set("Authorization", "Bearer whatever")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.False(t, reached)
			assert.Equal(t, tt.retryAfter, w.Header().Get("Retry-After") != "")
			assert.NotContains(t, w.Body.String(), "boom")
		})
	}
}

func TestCurrentUser_Absent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, ok := middleware.CurrentUser(c)
	assert.False(t, ok)
}
