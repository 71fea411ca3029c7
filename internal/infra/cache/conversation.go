package cache

import (
	"context"
	"time"

	chatdomain "github.com/boddenberg/bepit-bfa-go/internal/chat/domain"
	"github.com/boddenberg/bepit-bfa-go/internal/domain"
)

// ConversationCache adapts InMemory to port.ConversationCache.
// It stores copies so callers cannot mutate cached state in place.
type ConversationCache struct {
	mem *InMemory[chatdomain.ConversationState]
}

// NewConversationCache creates the in-process fallback. ttl == 0 keeps
// entries forever.
func NewConversationCache(ttl time.Duration) *ConversationCache {
	return &ConversationCache{mem: New[chatdomain.ConversationState](ttl)}
}

// Get returns a copy of the cached state.
func (c *ConversationCache) Get(_ context.Context, id string) (*chatdomain.ConversationState, bool) {
	cs, ok := c.mem.Get(id)
	if !ok {
		return nil, false
	}
	return cloneState(&cs), true
}

// Set stores a copy of state under id.
func (c *ConversationCache) Set(_ context.Context, id string, state *chatdomain.ConversationState) {
	if state == nil {
		return
	}
	c.mem.Set(id, *cloneState(state))
}

// Len reports how many conversations are held.
func (c *ConversationCache) Len() int {
	return c.mem.Len()
}

func cloneState(cs *chatdomain.ConversationState) *chatdomain.ConversationState {
	out := *cs
	if cs.FocusedItem != nil {
		item := *cs.FocusedItem
		out.FocusedItem = &item
	}
	if cs.SuggestedItems != nil {
		out.SuggestedItems = append([]domain.Item(nil), cs.SuggestedItems...)
	}
	return &out
}
