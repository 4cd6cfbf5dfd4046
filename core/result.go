package core

import "time"

// AgentResult is the normalized outcome of one agent unit execution. Every
// unit returns one, whether it succeeded or failed, so orchestration layers
// never have to branch on "did this stage produce anything at all".
//
// The invariant maintained by the constructors: a failed result always
// carries a non-empty Error string, and a successful one never does.
type AgentResult struct {
	AgentName string         `json:"agent_name"`
	Success   bool           `json:"success"`
	Data      map[string]any `json:"data,omitempty"`
	Error     string         `json:"error,omitempty"`
	Duration  time.Duration  `json:"duration"`
}

// NewAgentResult constructs a successful result carrying data.
func NewAgentResult(agentName string, data map[string]any) AgentResult {
	return AgentResult{AgentName: agentName, Success: true, Data: data}
}

// NewAgentErrorResult constructs a failed result from err. A nil err still
// produces a failed result with a generic message so the failure invariant
// holds for sloppy callers.
func NewAgentErrorResult(agentName string, err error) AgentResult {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return AgentResult{AgentName: agentName, Success: false, Error: msg}
}

// WithDuration returns a copy of the result with its wall-clock duration set.
func (r AgentResult) WithDuration(d time.Duration) AgentResult {
	r.Duration = d
	return r
}

// Get returns the data value stored under k. The boolean reports whether the
// key was present.
func (r AgentResult) Get(k string) (any, bool) {
	v, ok := r.Data[k]
	return v, ok
}

// DurationSeconds returns the execution duration as fractional seconds, the
// unit used in event payloads and public API responses.
func (r AgentResult) DurationSeconds() float64 { return r.Duration.Seconds() }

// DurationMS returns the execution duration in whole milliseconds.
func (r AgentResult) DurationMS() int64 { return r.Duration.Milliseconds() }
