package formserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockLogger struct{}

func (mockLogger) Info(msg string)                   {}
func (mockLogger) Infof(format string, args ...any)  {}
func (mockLogger) Error(msg string)                  {}
func (mockLogger) Errorf(format string, args ...any) {}
func (mockLogger) Debug(msg string)                  {}
func (mockLogger) Debugf(format string, args ...any) {}
func (mockLogger) Warnf(format string, args ...any)  {}

func header(name string) middlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("X-Chain", name)
			next.ServeHTTP(w, r)
		})
	}
}

func TestFormServer_MiddlewareOrder(t *testing.T) {
	mux := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	fs := NewFormServer("localhost:0", mux, mockLogger{})
	fs.AddMiddleware(header("inner"), header("outer"))

	rr := httptest.NewRecorder()
	fs.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTeapot, rr.Code)
	assert.Equal(t, []string{"outer", "inner"}, rr.Header().Values("X-Chain"))
}

func TestFormServer_ShutdownBeforeRun(t *testing.T) {
	fs := NewFormServer("localhost:0", http.NotFoundHandler(), mockLogger{})
	require.NoError(t, fs.Shutdown(context.Background()))

	// сервер, остановленный до запуска, не начинает слушать порт
	assert.NoError(t, fs.RunServer())
}

func TestFormServer_ShutdownWhileStarting(t *testing.T) {
	fs := NewFormServer("localhost:0", http.NotFoundHandler(), mockLogger{})

	done := make(chan error, 1)
	go func() { done <- fs.RunServer() }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, fs.Shutdown(ctx))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRunSweeper(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	done := make(chan struct{})

	go func() {
		RunSweeper(ctx, 5*time.Millisecond, time.Hour, func(idle time.Duration) int {
			assert.Equal(t, time.Hour, idle)
			calls.Add(1)
			return 0
		})
		close(done)
	}()

	assert.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}
