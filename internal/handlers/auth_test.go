package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"task-tracker/backend/internal/handlers"
	"task-tracker/backend/internal/services"

	"github.com/gin-gonic/gin"
)

type MockIdentity struct {
	signUpErr error
	signInErr error
	token     string
	calls     int
	last      services.Credentials
}

func (m *MockIdentity) SignUp(_ context.Context, creds services.Credentials) error {
	m.calls++
	m.last = creds
	return m.signUpErr
}

func (m *MockIdentity) SignIn(_ context.Context, creds services.Credentials) (string, error) {
	m.calls++
	m.last = creds
	if m.signInErr != nil {
		return "", m.signInErr
	}
	return m.token, nil
}

func setupAuthHandler() (*MockIdentity, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	identity := &MockIdentity{token: "signed.jwt.token"}
	handler := handlers.NewAuthHandler(identity)

	router := gin.New()
	router.POST("/auth/signup", handler.SignUp)
	router.POST("/auth/signin", handler.SignIn)
	return identity, router
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSignUp(t *testing.T) {
	identity, router := setupAuthHandler()

	w := postJSON(router, "/auth/signup", `{"username":"alice","password":"Secret123"}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}
	if w.Body.Len() != 0 {
		t.Errorf("Expected empty body, got %q", w.Body.String())
	}
	if identity.last.Username != "alice" || identity.last.Password != "Secret123" {
		t.Errorf("Unexpected credentials passed: %+v", identity.last)
	}
}

func TestSignUpDuplicate(t *testing.T) {
	identity, router := setupAuthHandler()
	identity.signUpErr = services.ErrUsernameTaken

	w := postJSON(router, "/auth/signup", `{"username":"alice","password":"Secret123"}`)

	if w.Code != http.StatusConflict {
		t.Errorf("Expected status %d, got %d", http.StatusConflict, w.Code)
	}
}

func TestCredentialsShapeValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `not json`},
		{"empty body", ``},
		{"unknown key", `{"username":"alice","password":"Secret123","admin":true}`},
		{"trailing object", `{"username":"alice","password":"Secret123"}{}`},
		{"missing username", `{"password":"Secret123"}`},
		{"short username", `{"username":"abc","password":"Secret123"}`},
		{"long username", `{"username":"abcdefghijklmnopqrstu","password":"Secret123"}`},
		{"short password", `{"username":"alice","password":"Sec123"}`},
		{"long password", `{"username":"alice","password":"Secret123Secret123Sec"}`},
		{"no upper case", `{"username":"alice","password":"secret123"}`},
		{"no lower case", `{"username":"alice","password":"SECRET123"}`},
		{"letters only", `{"username":"alice","password":"SecretPass"}`},
	}

	for _, path := range []string{"/auth/signup", "/auth/signin"} {
		for _, tt := range tests {
			t.Run(path+" "+tt.name, func(t *testing.T) {
				identity, router := setupAuthHandler()

				w := postJSON(router, path, tt.body)

				if w.Code != http.StatusBadRequest {
					t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
				}
				if identity.calls != 0 {
					t.Errorf("Expected identity service not to be called")
				}
			})
		}
	}
}

func TestSignIn(t *testing.T) {
	_, router := setupAuthHandler()

	w := postJSON(router, "/auth/signin", `{"username":"alice","password":"Secret123"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	var response map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response["accessToken"] != "signed.jwt.token" {
		t.Errorf("Expected accessToken, got %v", response)
	}
}

func TestSignInInvalidCredentials(t *testing.T) {
	identity, router := setupAuthHandler()
	identity.signInErr = services.ErrInvalidCredentials

	w := postJSON(router, "/auth/signin", `{"username":"alice","password":"Secret123"}`)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestStrongPassword(t *testing.T) {
	tests := []struct {
		password string
		want     bool
	}{
		{"Secret123", true},
		{"Secret!pass", true},
		{"Secret pass", true},
		{"secret123", false},
		{"SECRET123", false},
		{"SecretPass", false},
		{"Secret_pass", false},
		{".Secret123", false},
		{"Secret\n123", false},
	}

	for _, tt := range tests {
		if got := handlers.StrongPassword(tt.password); got != tt.want {
			t.Errorf("StrongPassword(%q) = %v, want %v", tt.password, got, tt.want)
		}
	}
}
