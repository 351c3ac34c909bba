// Package restdocs captures HTTP exchanges and turns them into asciidoc
// documentation snippets.
package restdocs

import (
	"net/http"
	"net/url"
	"sync"
)

// Request is the captured request side of an exchange
type Request struct {
	Method string
	URL    *url.URL
	Header http.Header
	Body   []byte
}

// Response is the captured response side of an exchange
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Exchange is one request/response cycle as seen by the HTTP layer.
type Exchange struct {
	ID             string
	Request        Request
	Response       Response
	Route          string
	PathParameters map[string]string
}

// Observer receives every completed exchange. Implementations must be safe
// for concurrent use.
type Observer interface {
	Observe(ex Exchange)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(ex Exchange)

func (f ObserverFunc) Observe(ex Exchange) { f(ex) }

// Hub fans exchanges out to a changing set of subscribers.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[int]Observer
	next        int
}

func NewHub() *Hub {
	return &Hub{subscribers: make(map[int]Observer)}
}

// Subscribe registers o and returns a function that removes it
func (h *Hub) Subscribe(o Observer) func() {
	h.mu.Lock()
	id := h.next
	h.next++
	h.subscribers[id] = o
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.subscribers, id)
		h.mu.Unlock()
	}
}

func (h *Hub) Observe(ex Exchange) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, o := range h.subscribers {
		o.Observe(ex)
	}
}
