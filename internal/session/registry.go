package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrPunder/codeform/internal/form"
	"github.com/MrPunder/codeform/internal/logger"
	"github.com/MrPunder/codeform/internal/render"
	"github.com/google/uuid"
)

// Client - состояние страницы одного посетителя
type Client struct {
	ID      uuid.UUID
	Form    *form.Controller
	Binding *render.Binding

	lastSeen atomic.Int64
}

func (c *Client) touch() {
	c.lastSeen.Store(time.Now().UnixNano())
}

// LastSeen возвращает время последнего обращения клиента
func (c *Client) LastSeen() time.Time {
	return time.Unix(0, c.lastSeen.Load())
}

// Registry хранит клиентов в памяти процесса
type Registry struct {
	clients sync.Map // uuid.UUID -> *Client
	log     logger.Logger
}

func NewRegistry(log logger.Logger) *Registry {
	return &Registry{log: log}
}

// Get возвращает клиента, создавая форму по умолчанию при первом обращении
func (r *Registry) Get(id uuid.UUID) *Client {
	if val, ok := r.clients.Load(id); ok {
		c := val.(*Client)
		c.touch()
		return c
	}

	c := r.newClient(id)
	actual, loaded := r.clients.LoadOrStore(id, c)
	if !loaded {
		r.log.Debugf("new client %s", id)
	}
	client := actual.(*Client)
	client.touch()
	return client
}

func (r *Registry) newClient(id uuid.UUID) *Client {
	c := &Client{
		ID:      id,
		Form:    form.NewController(),
		Binding: render.NewBinding(r.log),
	}
	c.Form.OnChange(c.Binding.Handle)
	return c
}

// Sweep удаляет клиентов, не обращавшихся дольше idle, и возвращает их количество
func (r *Registry) Sweep(idle time.Duration) int {
	deadline := time.Now().Add(-idle)
	removed := 0
	r.clients.Range(func(key, value interface{}) bool {
		if value.(*Client).LastSeen().Before(deadline) {
			r.clients.Delete(key)
			removed++
		}
		return true
	})
	if removed > 0 {
		r.log.Infof("removed %d idle clients", removed)
	}
	return removed
}

// Len возвращает число активных клиентов
func (r *Registry) Len() int {
	n := 0
	r.clients.Range(func(_, _ interface{}) bool {
		n++
		return true
	})
	return n
}
