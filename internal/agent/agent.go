// Package agent implements a bounded, tool-using reasoning loop in the
// zero-shot ReAct style: the model either names a tool to call or gives a
// final answer, until it answers or the iteration budget runs out.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mr1hm/disaster-scout/internal/llm"
)

const DefaultMaxIterations = 8

// Tool is a named capability the agent may invoke. Description is shown to
// the model and is how it decides when to use the tool.
type Tool struct {
	Name        string
	Description string
	Invoke      func(ctx context.Context, input string) (string, error)
}

type Agent struct {
	model         llm.Completer
	tools         []Tool
	byName        map[string]Tool
	maxIterations int
	observer      func(Event)
	logger        *slog.Logger
}

type Option func(*Agent)

func WithMaxIterations(n int) Option {
	return func(a *Agent) { a.maxIterations = n }
}

// WithObserver registers fn to receive every state transition.
func WithObserver(fn func(Event)) Option {
	return func(a *Agent) { a.observer = fn }
}

func WithLogger(l *slog.Logger) Option {
	return func(a *Agent) { a.logger = l }
}

func New(model llm.Completer, tools []Tool, opts ...Option) (*Agent, error) {
	if model == nil {
		return nil, errors.New("agent: model is required")
	}

	a := &Agent{
		model:         model,
		byName:        make(map[string]Tool, len(tools)),
		maxIterations: DefaultMaxIterations,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.maxIterations <= 0 {
		return nil, fmt.Errorf("agent: max iterations must be positive, got %d", a.maxIterations)
	}

	for _, t := range tools {
		if t.Name == "" || t.Invoke == nil {
			return nil, errors.New("agent: tool needs a name and an invoke func")
		}
		if _, dup := a.byName[t.Name]; dup {
			return nil, fmt.Errorf("agent: duplicate tool %q", t.Name)
		}
		a.byName[t.Name] = t
		a.tools = append(a.tools, t)
	}

	return a, nil
}

// Run drives the loop for one instruction and returns the final answer.
// Failures are reported as *Error.
func (a *Agent) Run(ctx context.Context, instruction string) (string, error) {
	var steps []step

	for i := 1; i <= a.maxIterations; i++ {
		a.emit(Event{Step: i, State: Thinking})

		prompt := buildPrompt(a.tools, instruction, steps)
		out, err := a.model.Complete(ctx, prompt, []string{observationStop})
		if err != nil {
			return "", a.fail(&Error{Kind: ErrUpstreamService, Step: i, Err: err})
		}

		d, ok := parseDecision(out)
		switch {
		case !ok:
			steps = append(steps, step{
				log:         out,
				observation: "Invalid Format: Missing 'Action:' after 'Thought:' or 'Final Answer:'",
			})
			a.logger.Debug("agent output not understood", "step", i, "output", out)
			continue
		case d.final:
			a.emit(Event{Step: i, State: Done, Output: d.answer})
			return d.answer, nil
		}

		t, known := a.byName[d.tool]
		if !known {
			// Only registered tools produce events; metrics label by tool name.
			a.logger.Debug("agent asked for unknown tool", "step", i, "tool", d.tool)
			steps = append(steps, step{log: out, tool: d.tool, input: d.input, observation: a.unknownTool(d.tool)})
			continue
		}

		a.emit(Event{Step: i, State: ToolCall, Tool: d.tool, Input: d.input})

		observation, err := t.Invoke(ctx, d.input)
		if err != nil {
			return "", a.fail(&Error{Kind: ErrToolInvocationFailed, Step: i, Tool: d.tool, Err: err})
		}

		a.emit(Event{Step: i, State: Observing, Tool: d.tool, Input: d.input, Output: observation})
		steps = append(steps, step{log: out, tool: d.tool, input: d.input, observation: observation})
	}

	return "", a.fail(&Error{Kind: ErrBudgetExhausted, Step: a.maxIterations})
}

func (a *Agent) unknownTool(name string) string {
	names := make([]string, 0, len(a.tools))
	for _, t := range a.tools {
		names = append(names, t.Name)
	}
	return fmt.Sprintf("%s is not a valid tool, try one of [%s].", name, strings.Join(names, ", "))
}

func (a *Agent) fail(err *Error) error {
	a.emit(Event{Step: err.Step, State: Failed, Tool: err.Tool, Err: err})
	return err
}

func (a *Agent) emit(e Event) {
	switch e.State {
	case ToolCall:
		a.logger.Debug("agent tool call", "step", e.Step, "tool", e.Tool, "input", e.Input)
	case Observing:
		a.logger.Debug("agent observation", "step", e.Step, "tool", e.Tool, "output", e.Output)
	case Failed:
		a.logger.Warn("agent failed", "step", e.Step, "error", e.Err)
	}
	if a.observer != nil {
		a.observer(e)
	}
}
