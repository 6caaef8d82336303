package operations

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

// DefaultCheckpointTimeout bounds the wait for a human decision before the
// run resumes on its own.
const DefaultCheckpointTimeout = 5 * time.Minute

// Checkpoint stages, in pipeline order.
var checkpointAfter = map[string]bool{
	StageIDQuality:    true,
	StageIDHypothesis: true,
	StageIDVisualize:  true,
}

// DecisionAction is what the reviewer chose at a checkpoint.
type DecisionAction string

const (
	ActionAccept DecisionAction = "accept"
	ActionAdjust DecisionAction = "adjust"
)

// Decision is a checkpoint answer. Adjust carries parameter overrides that
// are merged into the run config before the stage re-executes. Explicit marks
// a decision made by a human; auto-acceptance leaves it false and the report
// records the checkpoint as pending.
type Decision struct {
	Action   DecisionAction         `json:"action"`
	Params   map[string]interface{} `json:"params,omitempty"`
	Explicit bool                   `json:"explicit"`
}

// CheckpointOutcome is the resolved result of one checkpoint pause.
type CheckpointOutcome struct {
	Stage    string         `json:"stage"`
	Action   DecisionAction `json:"action"`
	Explicit bool           `json:"explicit"`
	Decided  time.Time      `json:"decided"`
}

// Gate decides what happens at a checkpoint. Decide blocks until a decision
// is available or the context expires.
type Gate interface {
	Decide(ctx context.Context, stage string, state *OperationState) (Decision, error)
}

// AutoGate accepts every checkpoint without a human in the loop.
type AutoGate struct{}

// Decide always accepts.
func (AutoGate) Decide(ctx context.Context, stage string, state *OperationState) (Decision, error) {
	return Decision{Action: ActionAccept}, nil
}

// StdinGate prompts on a terminal and reads the answer line. An empty line
// or "y" accepts; "adjust key=value ..." re-runs the stage with overrides.
type StdinGate struct {
	In  io.Reader
	Out io.Writer
}

// Decide prompts once and parses the reply.
func (g *StdinGate) Decide(ctx context.Context, stage string, state *OperationState) (Decision, error) {
	fmt.Fprintf(g.Out, "\nCheckpoint after %s stage. [Enter/y] accept, or: adjust key=value ...\n> ", stage)

	type reply struct {
		line string
		err  error
	}
	ch := make(chan reply, 1)
	go func() {
		scanner := bufio.NewScanner(g.In)
		if scanner.Scan() {
			ch <- reply{line: scanner.Text()}
			return
		}
		ch <- reply{err: scanner.Err()}
	}()

	select {
	case <-ctx.Done():
		return Decision{}, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return Decision{}, r.err
		}
		d, err := parseDecisionLine(r.line)
		if err != nil {
			return Decision{}, err
		}
		d.Explicit = true
		return d, nil
	}
}

func parseDecisionLine(line string) (Decision, error) {
	fields := strings.Fields(strings.TrimSpace(line))
	if len(fields) == 0 {
		return Decision{Action: ActionAccept}, nil
	}
	switch strings.ToLower(fields[0]) {
	case "y", "yes", "accept":
		return Decision{Action: ActionAccept}, nil
	case "adjust", "a":
		params := make(map[string]interface{})
		for _, f := range fields[1:] {
			key, value, ok := strings.Cut(f, "=")
			if !ok || key == "" {
				return Decision{}, fmt.Errorf("invalid adjustment %q, want key=value", f)
			}
			params[key] = value
		}
		return Decision{Action: ActionAdjust, Params: params}, nil
	default:
		return Decision{}, fmt.Errorf("unrecognised checkpoint answer %q", fields[0])
	}
}

// ChannelGate receives decisions from another goroutine, typically the HTTP
// or WebSocket layer. Waiting lists the stage currently blocked on an answer.
type ChannelGate struct {
	decisions chan Decision
	waiting   chan string
}

// NewChannelGate creates a gate with room for one queued decision.
func NewChannelGate() *ChannelGate {
	return &ChannelGate{
		decisions: make(chan Decision, 1),
		waiting:   make(chan string, 1),
	}
}

// Submit delivers a decision to the blocked checkpoint.
func (g *ChannelGate) Submit(d Decision) {
	g.decisions <- d
}

// Waiting yields the stage ID each time a checkpoint starts waiting.
func (g *ChannelGate) Waiting() <-chan string {
	return g.waiting
}

// Decide blocks until Submit is called or the context expires.
func (g *ChannelGate) Decide(ctx context.Context, stage string, state *OperationState) (Decision, error) {
	select {
	case g.waiting <- stage:
	default:
	}
	select {
	case <-ctx.Done():
		return Decision{}, ctx.Err()
	case d := <-g.decisions:
		d.Explicit = true
		return d, nil
	}
}

// hasCheckpoint reports whether a checkpoint follows the given stage.
func hasCheckpoint(stageID string) bool {
	return checkpointAfter[stageID]
}
