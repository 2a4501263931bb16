package agent

import (
	"errors"
	"testing"
)

type mockProvider struct {
	text string
	err  error
}

func (m mockProvider) Instruction(InstructionContext) (string, error) { return m.text, m.err }

func TestInstruction_Static(t *testing.T) {
	inst := NewInstructionFromText("static instruction")
	if !inst.IsStatic() {
		t.Fatalf("expected static instruction")
	}
	got, err := inst.Resolve(InstructionContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "static instruction" {
		t.Fatalf("expected 'static instruction', got %q", got)
	}
}

func TestInstruction_Template(t *testing.T) {
	inst := NewInstructionFromText("You are {{.AgentName}}. Team: {{join \", \" .Participants}}. Today is {{.Date}}.")
	got, err := inst.Resolve(InstructionContext{AgentName: "agent_RCA", Participants: []string{"a", "b"}, Date: "2024-05-01"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "You are agent_RCA. Team: a, b. Today is 2024-05-01."; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestInstruction_NewInstructionFromFunc(t *testing.T) {
	inst := NewInstructionFromFunc(func(ic InstructionContext) (string, error) { return "dynamic for " + ic.AgentName, nil })
	if inst.IsStatic() {
		t.Fatalf("expected dynamic instruction")
	}
	got, err := inst.Resolve(InstructionContext{AgentName: "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "dynamic for x" {
		t.Fatalf("expected 'dynamic for x', got %q", got)
	}
}

func TestInstruction_ErrorPropagation(t *testing.T) {
	expectedErr := errors.New("boom")
	inst := NewInstructionFromProvider(mockProvider{err: expectedErr})
	_, err := inst.Resolve(InstructionContext{})
	if !errors.Is(err, expectedErr) {
		t.Fatalf("expected error %v, got %v", expectedErr, err)
	}
}

func TestInstruction_ZeroValue(t *testing.T) {
	got, err := Instruction{}.Resolve(InstructionContext{})
	if err != nil || got != "" {
		t.Fatalf("expected empty instruction, got %q, %v", got, err)
	}
}
