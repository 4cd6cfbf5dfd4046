package testutil

import (
	"github.com/hupe1980/agentcrew/core"
)

// ContextBuilder helps construct execution contexts with fluent chaining for
// tests. Defaults produce a valid context for user-1/thread-1 with a fresh
// run id.
type ContextBuilder struct {
	userID    string
	threadID  string
	runID     string
	requestID string
	channelID string
	metadata  map[string]any
	store     core.SessionStore
}

// NewContextBuilder creates a builder with valid defaults.
func NewContextBuilder() *ContextBuilder {
	return &ContextBuilder{userID: "user-1", threadID: "thread-1", runID: core.NewID(), metadata: map[string]any{}}
}

// User sets the user id (chainable).
func (b *ContextBuilder) User(id string) *ContextBuilder { b.userID = id; return b }

// Thread sets the thread id (chainable).
func (b *ContextBuilder) Thread(id string) *ContextBuilder { b.threadID = id; return b }

// Run sets the run id (chainable).
func (b *ContextBuilder) Run(id string) *ContextBuilder { b.runID = id; return b }

// Request sets the request id (chainable).
func (b *ContextBuilder) Request(id string) *ContextBuilder { b.requestID = id; return b }

// Channel sets the notification channel id (chainable).
func (b *ContextBuilder) Channel(id string) *ContextBuilder { b.channelID = id; return b }

// Meta sets a metadata key/value pair (chainable).
func (b *ContextBuilder) Meta(key string, val any) *ContextBuilder {
	b.metadata[key] = val
	return b
}

// UserRequest sets the user request text metadata field (chainable).
func (b *ContextBuilder) UserRequest(text string) *ContextBuilder {
	return b.Meta(core.MetadataUserRequest, text)
}

// Store attaches a session persistence handle (chainable).
func (b *ContextBuilder) Store(store core.SessionStore) *ContextBuilder { b.store = store; return b }

// Build constructs the *core.ExecutionContext value.
func (b *ContextBuilder) Build() *core.ExecutionContext {
	return core.NewExecutionContext(b.userID, b.threadID, b.runID, func(o *core.ExecutionContextOptions) {
		o.RequestID = b.requestID
		o.ChannelID = b.channelID
		o.Metadata = b.metadata
		o.Store = b.store
	})
}
