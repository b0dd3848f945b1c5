package session

import (
	"context"
	"net/http"

	"github.com/MrPunder/codeform/internal/logger"
	"github.com/google/uuid"
)

// CookieName - cookie с подписанным идентификатором клиента
const CookieName = "codeform_client"

type ctxKey struct{}

// Middleware находит клиента по cookie или заводит нового
type Middleware struct {
	jwtManager *JWTManager
	registry   *Registry
	logger     logger.Logger
}

func NewMiddleware(jwtManager *JWTManager, registry *Registry, logger logger.Logger) *Middleware {
	return &Middleware{
		jwtManager: jwtManager,
		registry:   registry,
		logger:     logger,
	}
}

func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := m.clientID(r)
		if !ok {
			id = uuid.New()
			if err := m.setCookie(w, r, id); err != nil {
				m.logger.Errorf("failed to issue client cookie: %v", err)
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
		}

		client := m.registry.Get(id)
		next.ServeHTTP(w, r.WithContext(WithClient(r.Context(), client)))
	})
}

func (m *Middleware) clientID(r *http.Request) (uuid.UUID, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return uuid.Nil, false
	}
	id, err := m.jwtManager.ValidateToken(cookie.Value)
	if err != nil {
		m.logger.Debugf("client cookie rejected: %v", err)
		return uuid.Nil, false
	}
	return id, true
}

func (m *Middleware) setCookie(w http.ResponseWriter, r *http.Request, id uuid.UUID) error {
	token, err := m.jwtManager.GenerateToken(id)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.jwtManager.TTL().Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// WithClient кладет клиента в контекст запроса
func WithClient(ctx context.Context, c *Client) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// FromContext достает клиента, положенного Middleware
func FromContext(ctx context.Context) (*Client, bool) {
	c, ok := ctx.Value(ctxKey{}).(*Client)
	return c, ok
}
