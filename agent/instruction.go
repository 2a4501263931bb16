package agent

import (
	"fmt"
	"time"

	"github.com/hupe1980/agentchat/internal/util"
)

// InstructionContext is the data available when rendering instructions.
// Static instructions are Go templates evaluated against it, so
// "You are {{.AgentName}}. Today is {{.Date}}." works out of the box.
type InstructionContext struct {
	AgentName    string
	Participants []string
	Date         string
	Data         map[string]any
}

// NewInstructionContext fills Date with today's date.
func NewInstructionContext(participants []string, data map[string]any) InstructionContext {
	return InstructionContext{
		Participants: participants,
		Date:         time.Now().Format("2006-01-02"),
		Data:         data,
	}
}

// Provider supplies dynamic instruction text at runtime.
type Provider interface {
	Instruction(InstructionContext) (string, error)
}

// Func is a functional adapter to allow ordinary functions to be used as Providers.
type Func func(InstructionContext) (string, error)

// Instruction implements Provider.
func (f Func) Instruction(ic InstructionContext) (string, error) { return f(ic) }

// Instruction is either a static (templated) string or a dynamic provider.
// The zero value yields no instructions.
type Instruction struct {
	text     string
	provider Provider
}

// NewInstructionFromText creates an Instruction from a static string.
func NewInstructionFromText(text string) Instruction { return Instruction{text: text} }

// NewInstructionFromProvider creates an Instruction from a dynamic provider.
func NewInstructionFromProvider(p Provider) Instruction { return Instruction{provider: p} }

// NewInstructionFromFunc creates an Instruction from a function.
func NewInstructionFromFunc(f func(InstructionContext) (string, error)) Instruction {
	return Instruction{provider: Func(f)}
}

// IsStatic returns true if the instruction is backed by a static string.
func (i Instruction) IsStatic() bool { return i.provider == nil }

// Resolve returns the instruction text, invoking the provider if needed.
func (i Instruction) Resolve(ic InstructionContext) (string, error) {
	if i.provider != nil {
		return i.provider.Instruction(ic)
	}
	out, err := util.RenderTemplate(i.text, ic)
	if err != nil {
		return "", fmt.Errorf("render instruction: %w", err)
	}
	return out, nil
}
