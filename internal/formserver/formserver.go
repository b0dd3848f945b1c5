package formserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/MrPunder/codeform/internal/logger"
)

type middlewareFunc func(next http.Handler) http.Handler

// FormServer - HTTP-сервер страницы формы с цепочкой middleware
type FormServer struct {
	Log         logger.Logger
	middlewares []middlewareFunc
	mux         http.Handler
	address     string
	server      *http.Server
}

func NewFormServer(address string, mux http.Handler, log logger.Logger) *FormServer {
	return &FormServer{
		address: address,
		mux:     mux,
		Log:     log,
		server: &http.Server{
			Addr:              address,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// AddMiddleware добавляет middleware; последний добавленный обрабатывает запрос первым
func (fs *FormServer) AddMiddleware(funcs ...middlewareFunc) {
	fs.middlewares = append(fs.middlewares, funcs...)
}

// Handler возвращает mux, обернутый всеми middleware
func (fs *FormServer) Handler() http.Handler {
	handler := fs.mux
	for _, f := range fs.middlewares {
		handler = f(handler)
	}
	return handler
}

// RunServer блокируется до остановки сервера. После Shutdown сразу возвращает nil.
func (fs *FormServer) RunServer() error {
	fs.server.Handler = fs.Handler()
	fs.Log.Infof("Starting server on %s", fs.address)
	if err := fs.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fs.Log.Errorf("starting server on %s error: %s", fs.address, err)
		return err
	}
	return nil
}

func (fs *FormServer) Shutdown(ctx context.Context) error {
	return fs.server.Shutdown(ctx)
}

// RunSweeper периодически удаляет простаивающих клиентов, пока ctx не отменен
func RunSweeper(ctx context.Context, interval, idle time.Duration, sweep func(time.Duration) int) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep(idle)
		}
	}
}
