package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// mockLogger реализует интерфейс logger для тестов
type mockLogger struct {
	requests  int
	responses []int
}

func (m *mockLogger) Info(msg string)                   {}
func (m *mockLogger) Infof(format string, args ...any)  {}
func (m *mockLogger) Error(msg string)                  {}
func (m *mockLogger) Errorf(format string, args ...any) {}
func (m *mockLogger) Debug(msg string)                  {}
func (m *mockLogger) Debugf(format string, args ...any) {}
func (m *mockLogger) Warnf(format string, args ...any)  {}
func (m *mockLogger) RequestLog(method string, path string) {
	m.requests++
}
func (m *mockLogger) ResponseLog(status int, size int, duration time.Duration) {
	m.responses = append(m.responses, status)
}

func TestTokenAuthMiddleware_BearerToken(t *testing.T) {
	validToken := "test-api-token-12345"

	tokenAuth := NewTokenAuth(TokenAuthConfig{
		APIToken: validToken,
		Logger:   &mockLogger{},
	})

	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("success"))
	})

	handler := tokenAuth.Middleware(nextHandler)

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
		description    string
	}{
		{
			name:           "ValidBearerToken",
			authHeader:     "Bearer " + validToken,
			expectedStatus: http.StatusOK,
			description:    "Запрос с правильным Bearer токеном должен пройти",
		},
		{
			name:           "InvalidBearerToken",
			authHeader:     "Bearer wrong-token",
			expectedStatus: http.StatusUnauthorized,
			description:    "Запрос с неправильным токеном должен вернуть 401",
		},
		{
			name:           "NoAuthHeader",
			authHeader:     "",
			expectedStatus: http.StatusUnauthorized,
			description:    "Запрос без заголовка Authorization должен вернуть 401",
		},
		{
			name:           "NoBearerPrefix",
			authHeader:     validToken,
			expectedStatus: http.StatusUnauthorized,
			description:    "Токен без префикса Bearer должен вернуть 401",
		},
		{
			name:           "WrongPrefix",
			authHeader:     "Basic " + validToken,
			expectedStatus: http.StatusUnauthorized,
			description:    "Токен с неправильным префиксом должен вернуть 401",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/render", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code, tt.description)
		})
	}
}

func TestTokenAuthMiddleware_EmptyTokenDisablesCheck(t *testing.T) {
	tokenAuth := NewTokenAuth(TokenAuthConfig{Logger: &mockLogger{}})

	handler := tokenAuth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/render", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code, "Без настроенного токена проверка не выполняется")
}

func TestHTTPLogHandler(t *testing.T) {
	log := &mockLogger{}
	hlog := NewHTTPLoger(log)

	handler := hlog.HTTPLogHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Path == "/empty" {
			return
		}
		w.Write([]byte("ok"))
	}))

	for _, path := range []string{"/", "/missing", "/empty"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 3, log.requests)
	assert.Equal(t, []int{http.StatusOK, http.StatusNotFound, http.StatusOK}, log.responses)
}
