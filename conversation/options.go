package conversation

import (
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/hupe1980/agentchat/agent"
	"github.com/hupe1980/agentchat/core"
	"github.com/hupe1980/agentchat/logging"
	"github.com/hupe1980/agentchat/tool"
)

// DefaultMaxRounds bounds sessions that do not configure a limit.
const DefaultMaxRounds = 10

const tracerName = "github.com/hupe1980/agentchat/conversation"

// Observer receives session level measurements.
type Observer interface {
	agent.LLMObserver
	ObserveRound(kind, speaker string)
	ObserveSession(kind, state string, rounds int, dur time.Duration)
}

// Options are shared by pairwise and group sessions.
type Options struct {
	MaxRounds  int
	Registry   *tool.Registry
	Logger     logging.Logger
	Observer   Observer
	Tracer     trace.Tracer
	Summarizer Summarizer
	HumanInput agent.HumanInput
	Clock      func() time.Time
	Data       map[string]any // extra instruction template data
}

func defaultOptions() Options {
	return Options{MaxRounds: DefaultMaxRounds}
}

func (o *Options) normalize() {
	if o.MaxRounds <= 0 {
		o.MaxRounds = DefaultMaxRounds
	}
	o.Logger = logging.OrNoOp(o.Logger)
	if o.Tracer == nil {
		o.Tracer = otel.Tracer(tracerName)
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
}

// Result is what a finished session hands back to the caller.
type Result struct {
	ID         string
	Kind       string
	State      State
	Rounds     int
	Transcript *core.Transcript // closed
	Summary    string
	Duration   time.Duration
}

// Messages is shorthand for r.Transcript.Messages().
func (r *Result) Messages() []core.Message { return r.Transcript.Messages() }
