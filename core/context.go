package core

import (
	"fmt"
	"strings"
)

// MetadataUserRequest is the metadata key under which the raw user request
// text for a run is stored. The triage unit reads it to classify intent;
// callers may attach arbitrary additional keys alongside it.
const MetadataUserRequest = "user_request"

// Wire field names accepted by ExecutionContextFromMap. ChannelIDField is the
// single canonical name for the notification channel; the legacy
// DeprecatedChannelIDAlias is rejected so stale producers fail loudly instead
// of silently losing their event stream.
const (
	UserIDField              = "user_id"
	ThreadIDField            = "thread_id"
	RunIDField               = "run_id"
	RequestIDField           = "request_id"
	ChannelIDField           = "notification_channel_id"
	MetadataField            = "metadata"
	DeprecatedChannelIDAlias = "websocket_id"
)

// ExecutionContext carries the immutable identity of a single run through the
// whole execution path. It aggregates:
//
//   - Identifiers (UserID, ThreadID, RunID, RequestID) fixed at construction
//   - The notification channel id used to address lifecycle event delivery
//   - A string-keyed metadata bag (user request text, audit fields)
//   - The session store handle required for durable persistence
//
// Identifiers are never mutated after construction. Derived contexts are
// produced with the With* builders, which copy the receiver and its metadata
// so that concurrent runs for different users can never observe each other's
// state. The zero value is not usable; construct via NewExecutionContext or
// ExecutionContextFromMap.
type ExecutionContext struct {
	userID    string
	threadID  string
	runID     string
	requestID string
	channelID string
	metadata  map[string]any
	store     SessionStore
}

// ExecutionContextOptions configures optional ExecutionContext fields.
type ExecutionContextOptions struct {
	// RequestID correlates the run with the originating API request. A fresh
	// id is generated when empty.
	RequestID string
	// ChannelID addresses lifecycle event delivery. Empty means the run
	// produces no outward notifications.
	ChannelID string
	// Metadata seeds the context metadata bag. The map is copied.
	Metadata map[string]any
	// Store is the session persistence handle. Execution paths that persist
	// run state require it to be non-nil.
	Store SessionStore
}

// NewExecutionContext constructs an ExecutionContext for one run. The three
// identifiers are mandatory; Validate reports which one is missing. Optional
// fields are set through functional options:
//
//	ec := core.NewExecutionContext(userID, threadID, runID, func(o *core.ExecutionContextOptions) {
//	    o.ChannelID = channelID
//	    o.Metadata = map[string]any{core.MetadataUserRequest: text}
//	})
func NewExecutionContext(userID, threadID, runID string, optFns ...func(o *ExecutionContextOptions)) *ExecutionContext {
	opts := ExecutionContextOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.RequestID == "" {
		opts.RequestID = NewID()
	}
	md := make(map[string]any, len(opts.Metadata))
	for k, v := range opts.Metadata {
		md[k] = v
	}
	return &ExecutionContext{
		userID:    userID,
		threadID:  threadID,
		runID:     runID,
		requestID: opts.RequestID,
		channelID: opts.ChannelID,
		metadata:  md,
		store:     opts.Store,
	}
}

// ExecutionContextFromMap builds an ExecutionContext from a decoded wire
// payload, e.g. a JSON request body. Unknown keys are ignored. The deprecated
// channel alias is rejected with an *InvalidContextError so callers migrate
// to ChannelIDField rather than discovering missing notifications at runtime.
func ExecutionContextFromMap(m map[string]any) (*ExecutionContext, error) {
	if _, ok := m[DeprecatedChannelIDAlias]; ok {
		return nil, &InvalidContextError{
			Field:  DeprecatedChannelIDAlias,
			Reason: fmt.Sprintf("deprecated field %q: use %q", DeprecatedChannelIDAlias, ChannelIDField),
		}
	}
	str := func(key string) (string, error) {
		v, ok := m[key]
		if !ok || v == nil {
			return "", nil
		}
		s, ok := v.(string)
		if !ok {
			return "", &InvalidContextError{Field: key, Reason: fmt.Sprintf("expected string, got %T", v)}
		}
		return s, nil
	}
	userID, err := str(UserIDField)
	if err != nil {
		return nil, err
	}
	threadID, err := str(ThreadIDField)
	if err != nil {
		return nil, err
	}
	runID, err := str(RunIDField)
	if err != nil {
		return nil, err
	}
	requestID, err := str(RequestIDField)
	if err != nil {
		return nil, err
	}
	channelID, err := str(ChannelIDField)
	if err != nil {
		return nil, err
	}
	var md map[string]any
	if v, ok := m[MetadataField]; ok && v != nil {
		md, ok = v.(map[string]any)
		if !ok {
			return nil, &InvalidContextError{Field: MetadataField, Reason: fmt.Sprintf("expected map, got %T", v)}
		}
	}
	ec := NewExecutionContext(userID, threadID, runID, func(o *ExecutionContextOptions) {
		o.RequestID = requestID
		o.ChannelID = channelID
		o.Metadata = md
	})
	if err := ec.Validate(); err != nil {
		return nil, err
	}
	return ec, nil
}

// Validate checks that all mandatory identifiers are present and non-blank.
// It returns an *InvalidContextError naming the first offending field, or nil
// when the context is well formed.
func (ec *ExecutionContext) Validate() error {
	for _, f := range []struct{ field, value string }{
		{UserIDField, ec.userID},
		{ThreadIDField, ec.threadID},
		{RunIDField, ec.runID},
	} {
		if strings.TrimSpace(f.value) == "" {
			return &InvalidContextError{Field: f.field, Reason: "must be a non-empty string"}
		}
	}
	return nil
}

// UserID returns the id of the user the run executes on behalf of.
func (ec *ExecutionContext) UserID() string { return ec.userID }

// ThreadID returns the conversation thread id.
func (ec *ExecutionContext) ThreadID() string { return ec.threadID }

// RunID returns the unique id of this run.
func (ec *ExecutionContext) RunID() string { return ec.runID }

// RequestID returns the originating API request correlation id.
func (ec *ExecutionContext) RequestID() string { return ec.requestID }

// ChannelID returns the notification channel id, or "" when the run emits no
// outward notifications.
func (ec *ExecutionContext) ChannelID() string { return ec.channelID }

// Metadata returns the metadata value stored under k. The boolean reports
// whether the key was present.
func (ec *ExecutionContext) Metadata(k string) (any, bool) {
	v, ok := ec.metadata[k]
	return v, ok
}

// MetadataMap returns a copy of the metadata bag. Mutating the returned map
// does not affect the context.
func (ec *ExecutionContext) MetadataMap() map[string]any {
	md := make(map[string]any, len(ec.metadata))
	for k, v := range ec.metadata {
		md[k] = v
	}
	return md
}

// UserRequest returns the user request text from metadata, or "" when absent.
func (ec *ExecutionContext) UserRequest() string {
	if v, ok := ec.metadata[MetadataUserRequest]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Store returns the session persistence handle, which may be nil.
func (ec *ExecutionContext) Store() SessionStore { return ec.store }

// HasStore reports whether a session persistence handle is attached.
func (ec *ExecutionContext) HasStore() bool { return ec.store != nil }

// Clone returns a copy of the context with a deep-copied metadata bag. The
// session store handle is shared; everything else is value state.
func (ec *ExecutionContext) Clone() *ExecutionContext {
	c := &ExecutionContext{
		userID:    ec.userID,
		threadID:  ec.threadID,
		runID:     ec.runID,
		requestID: ec.requestID,
		channelID: ec.channelID,
		metadata:  make(map[string]any, len(ec.metadata)),
		store:     ec.store,
	}
	for k, v := range ec.metadata {
		c.metadata[k] = v
	}
	return c
}

// WithMetadata clones the context and sets metadata key k to v.
func (ec *ExecutionContext) WithMetadata(k string, v any) *ExecutionContext {
	c := ec.Clone()
	c.metadata[k] = v
	return c
}

// WithChannelID clones the context and sets the notification channel id.
func (ec *ExecutionContext) WithChannelID(id string) *ExecutionContext {
	c := ec.Clone()
	c.channelID = id
	return c
}

// WithStore clones the context and attaches the session persistence handle.
func (ec *ExecutionContext) WithStore(store SessionStore) *ExecutionContext {
	c := ec.Clone()
	c.store = store
	return c
}

// String renders the identifying fields for log correlation. Metadata values
// are deliberately omitted since they may carry user content.
func (ec *ExecutionContext) String() string {
	return fmt.Sprintf("ExecutionContext(user=%s thread=%s run=%s request=%s)", ec.userID, ec.threadID, ec.runID, ec.requestID)
}
