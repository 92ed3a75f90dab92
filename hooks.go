package cvmap

import (
	"sync"

	"github.com/agentstation/cvmap/pkg/vocab"
)

// Hook function types for run events
type (
	// AuthorityBuiltHook is called when an authority tree has been built.
	AuthorityBuiltHook func(authority *vocab.Authority)

	// AuthoritySavedHook is called when an authority has been persisted at location.
	AuthoritySavedHook func(authority *vocab.Authority, location string)
)

// hooks manages event callbacks
type hooks struct {
	mu      sync.RWMutex
	onBuilt []AuthorityBuiltHook
	onSaved []AuthoritySavedHook
}

func newHooks() *hooks {
	return &hooks{}
}

// OnAuthorityBuilt registers a callback for built authorities.
func (h *hooks) OnAuthorityBuilt(fn AuthorityBuiltHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onBuilt = append(h.onBuilt, fn)
}

// OnAuthoritySaved registers a callback for persisted authorities.
func (h *hooks) OnAuthoritySaved(fn AuthoritySavedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onSaved = append(h.onSaved, fn)
}

func (h *hooks) authorityBuilt(authority *vocab.Authority) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, hook := range h.onBuilt {
		hook(authority)
	}
}

func (h *hooks) authoritySaved(authority *vocab.Authority, location string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, hook := range h.onSaved {
		hook(authority, location)
	}
}
