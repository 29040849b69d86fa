package channels

import (
	"fmt"
	"sync"

	"github.com/casapress/casapress/publishing/domain/channel"
	"github.com/casapress/casapress/publishing/domain/content"
)

// Registry holds the publisher for each supported channel. Dispatch happens
// once at orchestration time, never by branching on a string downstream.
type Registry struct {
	mu         sync.RWMutex
	publishers map[content.Channel]channel.Publisher
}

func NewRegistry() *Registry {
	return &Registry{publishers: make(map[content.Channel]channel.Publisher)}
}

func (r *Registry) Register(p channel.Publisher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.publishers[p.Channel()] = p
}

func (r *Registry) Get(ch content.Channel) (channel.Publisher, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.publishers[ch]
	if !ok {
		return nil, fmt.Errorf("no publisher registered for channel %q", ch)
	}
	return p, nil
}
