package app_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"task-tracker/backend/internal/app"
	"task-tracker/backend/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
)

func setupEnv(t *testing.T) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_SQLITE_PATH", ":memory:")
	t.Setenv("AUTH_PASSWORD_HASHER", "bcrypt")
	t.Setenv("BCRYPT_COST", "4")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("JWT_SECRET", "")
}

func newApplication(t *testing.T) *app.Application {
	t.Helper()
	cfg, err := config.LoadConfig()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		t.Fatalf("Failed to initialize application: %v", err)
	}
	t.Cleanup(func() {
		if err := application.Shutdown(); err != nil {
			t.Errorf("Shutdown failed: %v", err)
		}
	})
	return application
}

func call(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func signIn(t *testing.T, h http.Handler) string {
	t.Helper()
	creds := `{"username":"alice","password":"Secret123"}`
	if w := call(t, h, http.MethodPost, "/auth/signup", "", creds); w.Code != http.StatusCreated {
		t.Fatalf("signup: expected %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}
	w := call(t, h, http.MethodPost, "/auth/signin", "", creds)
	if w.Code != http.StatusOK {
		t.Fatalf("signin: expected %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to unmarshal signin response: %v", err)
	}
	return resp["accessToken"]
}

func TestApplicationStartup(t *testing.T) {
	setupEnv(t)
	application := newApplication(t)
	h := application.Handler()

	token := signIn(t, h)

	w := call(t, h, http.MethodPost, "/tasks", token, `{"title":"Write report","description":"Q3 numbers"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}

	w = call(t, h, http.MethodGet, "/tasks?status=OPEN", token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	if !strings.Contains(w.Body.String(), "Write report") {
		t.Errorf("Expected created task in listing, got %s", w.Body.String())
	}

	w = call(t, h, http.MethodGet, "/healthz", "", "")
	if w.Code != http.StatusOK {
		t.Errorf("Expected healthy status, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"database"`) {
		t.Errorf("Expected database check in health report, got %s", w.Body.String())
	}
}

func TestApplicationWithTaskCache(t *testing.T) {
	setupEnv(t)
	mr := miniredis.RunT(t)
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_HOST", mr.Host())
	t.Setenv("REDIS_PORT", mr.Port())

	application := newApplication(t)
	h := application.Handler()
	token := signIn(t, h)

	if w := call(t, h, http.MethodPost, "/tasks", token, `{"title":"t","description":"d"}`); w.Code != http.StatusCreated {
		t.Fatalf("Expected status %d, got %d", http.StatusCreated, w.Code)
	}
	if w := call(t, h, http.MethodGet, "/tasks", token, ""); w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	if len(mr.Keys()) == 0 {
		t.Errorf("Expected task listing to be cached")
	}

	if w := call(t, h, http.MethodDelete, "/tasks/1", token, ""); w.Code != http.StatusNoContent {
		t.Fatalf("Expected status %d, got %d", http.StatusNoContent, w.Code)
	}
	if keys := mr.Keys(); len(keys) != 0 {
		t.Errorf("Expected owner keys to be invalidated, got %v", keys)
	}

	w := call(t, h, http.MethodGet, "/metrics", "", "")
	if !strings.Contains(w.Body.String(), `"cache"`) {
		t.Errorf("Expected cache stats in metrics, got %s", w.Body.String())
	}
}

func TestApplicationRejectsProductionWithoutSecret(t *testing.T) {
	setupEnv(t)
	t.Setenv("ENVIRONMENT", "production")

	if _, err := config.LoadConfig(); err == nil {
		t.Fatal("Expected production config without JWT secret to fail validation")
	}
}
