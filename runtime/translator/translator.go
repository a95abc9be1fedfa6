// Package translator builds the generated Temporal workflow function for
// one compiled service node: the event-union signal channels, the two
// timer variants, and the dispatch loop that drives a runtime.Kernel
// hosted behind Activities. It replaces what used to be a hardcoded
// three-step echo workflow with the actual per-service reactive kernel the
// runtime synthesizer describes (spec.md §4.7).
package translator

import (
	"time"

	"go.temporal.io/sdk/workflow"

	domainexpr "github.com/duragraph/duragraph/internal/domain/ir/expr"
	"github.com/duragraph/duragraph/internal/domain/node"
	dgruntime "github.com/duragraph/duragraph/internal/infrastructure/runtime"
)

// WorkflowInput starts one running service instance. Service is the
// compiled top-level node for this instance; SubNodes carries every node
// Service's equations may call into (the flattened reduced-graph registry
// the compiler produced), since a worker process has no other way to
// resolve those calls — it never shares memory with whatever compiled the
// service. DebounceWindow/HeartbeatTimeout are the two timer durations the
// synthesizer attached when it built Definition.
type WorkflowInput struct {
	InstanceID       string
	Definition       dgruntime.Definition
	Service          *node.Node
	SubNodes         map[int]*node.Node
	DebounceWindow   time.Duration
	HeartbeatTimeout time.Duration
}

// PrepareActivityName, ReactActivityName and EmitActivityName are the
// registered names workers/go-adapter binds Activities.Prepare/React/Emit
// under; the workflow only ever refers to activities by name, never by Go
// value, since that is what makes a worker process replaceable
// independently of the workflow history already recorded for a running
// instance.
const (
	PrepareActivityName = "RuntimeKernelPrepare"
	ReactActivityName    = "RuntimeKernelReact"
	EmitActivityName     = "RuntimeKernelEmit"
)

// PrepareRequest is PrepareActivity's input: everything Activities needs
// to construct and register the Kernel backing one running instance,
// before the workflow sends it its first event.
type PrepareRequest struct {
	InstanceID       string
	Service          *node.Node
	SubNodes         map[int]*node.Node
	DebounceWindow   time.Duration
	HeartbeatTimeout time.Duration
}

// ReactRequest is ReactActivity's input: which running instance, which
// event fired, and — for an input-flow event — which flow and what value.
type ReactRequest struct {
	InstanceID string
	Definition dgruntime.Definition
	Tag        dgruntime.EventTag
	FlowID     int
	Value      domainexpr.Constant
}

// ReactResult is ReactActivity's output: the kernel.Reaction the event
// produced, flattened to plain data so it survives the activity boundary.
type ReactResult struct {
	Outputs      map[int]domainexpr.Constant
	TimerActions []dgruntime.TimerAction
}

// EmitRequest is EmitActivity's input: one running instance's freshly
// computed public outputs.
type EmitRequest struct {
	InstanceID string
	Outputs    map[int]domainexpr.Constant
}

// StatusQuery is the query handler name a running workflow registers so a
// caller can read the instance's most recently emitted outputs without
// waiting for the workflow to complete — a reactive service runs forever,
// it never "returns" a result the way a request/response workflow would.
const StatusQuery = "status"

// ReactiveServiceWorkflow is the generated workflow function for a
// compiled service. It is the single-threaded cooperative task spec.md §5
// describes: a single loop owns all dispatch decisions, and the only two
// places it ever crosses a process boundary are the ReactActivity call
// (which runs one full reaction, including every internal sub-node `step`
// the reaction's schedule triggers) and the EmitActivity call (output
// emission). Everything else — which signal fired, which timer to
// (re)arm, when to fold simultaneous inputs into one combined reaction —
// is decided here, in-workflow, exactly as spec.md §5's suspension-point
// list requires (reading the next event, pushing an output, scheduling a
// timer are the only yield points).
func ReactiveServiceWorkflow(ctx workflow.Context, input WorkflowInput) error {
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Second,
	})

	prep := PrepareRequest{
		InstanceID:       input.InstanceID,
		Service:          input.Service,
		SubNodes:         input.SubNodes,
		DebounceWindow:   input.DebounceWindow,
		HeartbeatTimeout: input.HeartbeatTimeout,
	}
	if err := workflow.ExecuteActivity(ctx, PrepareActivityName, prep).Get(ctx, nil); err != nil {
		return err
	}

	signalChannels := make(map[string]workflow.ReceiveChannel, len(input.Definition.Events))
	flowIDByEvent := make(map[string]int, len(input.Definition.Events))
	for _, e := range input.Definition.Events {
		signalChannels[e.Name] = workflow.GetSignalChannel(ctx, e.Name)
		flowIDByEvent[e.Name] = e.FlowID
	}

	state := &loopState{
		ctx:            ctx,
		input:          input,
		signalChannels: signalChannels,
		flowIDByEvent:  flowIDByEvent,
		lastOutputs:    make(map[int]domainexpr.Constant),
	}

	// lastOutputs is rebuilt deterministically from the same sequence of
	// ReactActivity results on every replay, so closing over it here is
	// replay-safe even though the map itself is ordinary workflow-local
	// state rather than something Temporal persists directly.
	if err := workflow.SetQueryHandler(ctx, StatusQuery, func() (map[int]domainexpr.Constant, error) {
		return state.lastOutputs, nil
	}); err != nil {
		return err
	}

	return state.run()
}

type loopState struct {
	ctx            workflow.Context
	input          WorkflowInput
	signalChannels map[string]workflow.ReceiveChannel
	flowIDByEvent  map[string]int
	lastOutputs    map[int]domainexpr.Constant

	debounceTimer   workflow.Future
	debounceCancel  workflow.CancelFunc
	heartbeatTimer  workflow.Future
	heartbeatCancel workflow.CancelFunc
}

// run is the dispatch loop: it selects across every input-flow signal
// channel and whichever timers are currently armed, runs one reaction per
// event through ReactActivity, emits any fresh outputs, and applies the
// kernel's timer instructions before looping again. It returns when the
// workflow's own context is cancelled (spec.md §5: cancellation flushes no
// further events; outputs already queued by EmitActivity remain queued).
func (s *loopState) run() error {
	for {
		if s.ctx.Err() != nil {
			return s.ctx.Err()
		}

		selector := workflow.NewSelector(s.ctx)
		var reactErr error

		for name, ch := range s.signalChannels {
			name, ch := name, ch
			selector.AddReceive(ch, func(c workflow.ReceiveChannel, _ bool) {
				var value domainexpr.Constant
				c.Receive(s.ctx, &value)
				reactErr = s.reactAndApply(dgruntime.EventInput, s.flowIDByEvent[name], value)
			})
		}
		if s.debounceTimer != nil {
			selector.AddFuture(s.debounceTimer, func(workflow.Future) {
				s.debounceTimer = nil
				reactErr = s.reactAndApply(dgruntime.EventDebounceFired, 0, domainexpr.Constant{})
			})
		}
		if s.heartbeatTimer != nil {
			selector.AddFuture(s.heartbeatTimer, func(workflow.Future) {
				s.heartbeatTimer = nil
				reactErr = s.reactAndApply(dgruntime.EventHeartbeatFired, 0, domainexpr.Constant{})
			})
		}

		selector.Select(s.ctx)
		if reactErr != nil {
			return reactErr
		}
	}
}

func (s *loopState) reactAndApply(tag dgruntime.EventTag, flowID int, value domainexpr.Constant) error {
	req := ReactRequest{
		InstanceID: s.input.InstanceID,
		Definition: s.input.Definition,
		Tag:        tag,
		FlowID:     flowID,
		Value:      value,
	}
	var result ReactResult
	if err := workflow.ExecuteActivity(s.ctx, ReactActivityName, req).Get(s.ctx, &result); err != nil {
		return err
	}

	for _, action := range result.TimerActions {
		if action.Timer == dgruntime.TimerDebounce {
			s.applyTimerAction(action)
		}
	}

	if len(result.Outputs) > 0 {
		for id, v := range result.Outputs {
			s.lastOutputs[id] = v
		}
		emit := EmitRequest{InstanceID: s.input.InstanceID, Outputs: result.Outputs}
		if err := workflow.ExecuteActivity(s.ctx, EmitActivityName, emit).Get(s.ctx, nil); err != nil {
			return err
		}
	}

	for _, action := range result.TimerActions {
		if action.Timer != dgruntime.TimerDebounce {
			s.applyTimerAction(action)
		}
	}
	return nil
}

// applyTimerAction (re)arms or cancels the debounce/heartbeat timer
// per-reaction, in the order spec.md §5 requires: reactAndApply applies
// debounce-timer actions before output is sent and heartbeat actions
// after.
func (s *loopState) applyTimerAction(action dgruntime.TimerAction) {
	switch action.Timer {
	case dgruntime.TimerDebounce:
		if s.debounceCancel != nil {
			s.debounceCancel()
		}
		if action.Kind == dgruntime.TimerCancel {
			s.debounceTimer = nil
			return
		}
		timerCtx, cancel := workflow.WithCancel(s.ctx)
		s.debounceCancel = cancel
		s.debounceTimer = workflow.NewTimer(timerCtx, action.Delay)

	case dgruntime.TimerHeartbeat:
		if s.heartbeatCancel != nil {
			s.heartbeatCancel()
		}
		if action.Kind == dgruntime.TimerCancel {
			s.heartbeatTimer = nil
			return
		}
		timerCtx, cancel := workflow.WithCancel(s.ctx)
		s.heartbeatCancel = cancel
		s.heartbeatTimer = workflow.NewTimer(timerCtx, action.Delay)
	}
}
