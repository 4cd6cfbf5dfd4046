package agent

import "github.com/hupe1980/agentcrew/core"

// Provider supplies dynamic instruction text at runtime.
// Implementations can derive instructions from the execution context
// (user request, metadata, audit fields).
type Provider interface {
	Instructions(ec *core.ExecutionContext) (string, error)
}

// ProviderFunc is a functional adapter to allow ordinary functions to be used
// as Providers.
type ProviderFunc func(ec *core.ExecutionContext) (string, error)

// Instructions implements Provider.
func (f ProviderFunc) Instructions(ec *core.ExecutionContext) (string, error) { return f(ec) }

// Instruction represents either a static system prompt or a dynamic provider.
// This mirrors a union of string | provider in a Go-idiomatic way.
type Instruction struct {
	text     string
	provider Provider
}

// NewInstructionFromText creates an Instruction from a static string.
func NewInstructionFromText(text string) Instruction { return Instruction{text: text} }

// NewInstructionFromProvider creates an Instruction from a dynamic provider.
func NewInstructionFromProvider(p Provider) Instruction { return Instruction{provider: p} }

// NewInstructionFromFunc creates an Instruction from a function.
func NewInstructionFromFunc(f func(*core.ExecutionContext) (string, error)) Instruction {
	return Instruction{provider: ProviderFunc(f)}
}

// IsStatic returns true if the instruction is backed by a static string.
func (i Instruction) IsStatic() bool { return i.provider == nil }

// Resolve returns the instruction text, invoking the provider if needed.
func (i Instruction) Resolve(ec *core.ExecutionContext) (string, error) {
	if i.provider != nil {
		return i.provider.Instructions(ec)
	}
	return i.text, nil
}
