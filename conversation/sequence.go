package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/agentchat/agent"
)

// ChatStep is one pairwise chat of a Sequence.
type ChatStep struct {
	Recipient  *agent.Agent
	Message    string
	MaxRounds  int        // 0 keeps the shared option
	Summarizer Summarizer // nil uses LastMessage
}

// Sequence runs one pairwise chat per step, each opened by initiator. The
// summaries of all earlier steps are appended to a step's opening message as
// context. It stops at the first failing step and returns the results
// gathered so far, the failed one included.
func Sequence(ctx context.Context, initiator *agent.Agent, steps []ChatStep, optFns ...func(o *Options)) ([]*Result, error) {
	results := make([]*Result, 0, len(steps))
	var carryover []string

	for i, step := range steps {
		fns := append([]func(*Options){}, optFns...)
		fns = append(fns, func(o *Options) {
			if step.MaxRounds > 0 {
				o.MaxRounds = step.MaxRounds
			}
			switch {
			case step.Summarizer != nil:
				o.Summarizer = step.Summarizer
			case o.Summarizer == nil:
				o.Summarizer = LastMessage{}
			}
		})

		chat, err := NewPairwise(initiator, step.Recipient, fns...)
		if err != nil {
			return results, fmt.Errorf("chat %d: %w", i+1, err)
		}

		res, err := chat.Run(ctx, withCarryover(step.Message, carryover))
		if res != nil {
			results = append(results, res)
		}
		if err != nil {
			return results, fmt.Errorf("chat %d with %s: %w", i+1, step.Recipient.Name(), err)
		}
		if res.Summary != "" {
			carryover = append(carryover, res.Summary)
		}
	}
	return results, nil
}

func withCarryover(message string, carryover []string) string {
	if len(carryover) == 0 {
		return message
	}
	return message + "\nContext: \n" + strings.Join(carryover, "\n")
}

// Job runs one independent session.
type Job func(ctx context.Context) (*Result, error)

// RunParallel runs jobs with at most limit of them in flight (limit <= 0
// means no bound). Results are returned in job order. A failing job does not
// cancel the others; all errors are joined.
func RunParallel(ctx context.Context, limit int, jobs ...Job) ([]*Result, error) {
	results := make([]*Result, len(jobs))
	errs := make([]error, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, job := range jobs {
		g.Go(func() error {
			res, err := job(gctx)
			results[i] = res
			if err != nil {
				errs[i] = fmt.Errorf("job %d: %w", i+1, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	return results, errors.Join(errs...)
}
