package agent

import (
	"errors"
	"fmt"
	"testing"

	"github.com/hupe1980/agentcrew/core"
)

type mockProvider struct {
	text string
	err  error
}

func (m mockProvider) Instructions(*core.ExecutionContext) (string, error) { return m.text, m.err }

func newTestExecutionContext() *core.ExecutionContext {
	return core.NewExecutionContext("user-1", "thread-1", "run-1", func(o *core.ExecutionContextOptions) {
		o.Metadata = map[string]any{core.MetadataUserRequest: "hello"}
	})
}

func TestInstruction_Static(t *testing.T) {
	inst := NewInstructionFromText("static instruction")
	if !inst.IsStatic() {
		t.Fatalf("expected static instruction")
	}
	got, err := inst.Resolve(newTestExecutionContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "static instruction" {
		t.Fatalf("expected 'static instruction', got %q", got)
	}
}

func TestInstruction_NewInstructionFromFunc(t *testing.T) {
	inst := NewInstructionFromFunc(func(ec *core.ExecutionContext) (string, error) {
		return fmt.Sprintf("dynamic for %s", ec.UserID()), nil
	})
	if inst.IsStatic() {
		t.Fatalf("expected dynamic instruction")
	}
	got, err := inst.Resolve(newTestExecutionContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "dynamic for user-1" {
		t.Fatalf("expected 'dynamic for user-1', got %q", got)
	}
}

func TestInstruction_NewInstructionFromProvider(t *testing.T) {
	inst := NewInstructionFromProvider(mockProvider{text: "provider text"})
	if inst.IsStatic() {
		t.Fatalf("expected dynamic instruction")
	}
	got, err := inst.Resolve(newTestExecutionContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "provider text" {
		t.Fatalf("expected 'provider text', got %q", got)
	}
}

func TestInstruction_ErrorPropagation(t *testing.T) {
	expectedErr := errors.New("boom")
	inst := NewInstructionFromProvider(mockProvider{err: expectedErr})
	_, err := inst.Resolve(newTestExecutionContext())
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if !errors.Is(err, expectedErr) {
		t.Fatalf("expected error %v, got %v", expectedErr, err)
	}
}
