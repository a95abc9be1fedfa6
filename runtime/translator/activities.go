package translator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/duragraph/duragraph/internal/domain/node"
	dgruntime "github.com/duragraph/duragraph/internal/infrastructure/runtime"
	"github.com/duragraph/duragraph/internal/infrastructure/monitoring"
	apperrors "github.com/duragraph/duragraph/internal/pkg/errors"
	"github.com/duragraph/duragraph/internal/pkg/eventbus"
)

// Activities is the only place a running service instance's state crosses
// a Temporal worker process boundary: one runtime.Kernel per InstanceID,
// registered by Prepare as the owning workflow's first step and looked up by React
// on every signal/timer dispatch. Emit publishes the instance's fresh
// outputs onto the shared event bus, the same publish/subscribe path
// CompileService uses for compilation lifecycle events, rather than
// inventing a second notification mechanism.
type Activities struct {
	bus     *eventbus.EventBus
	metrics *monitoring.Metrics

	mu      sync.Mutex
	kernels map[string]*dgruntime.Kernel
}

// NewActivities builds an Activities bound to bus for output emission.
func NewActivities(bus *eventbus.EventBus) *Activities {
	return &Activities{bus: bus, kernels: make(map[string]*dgruntime.Kernel)}
}

// WithMetrics attaches Prometheus metrics recording, mirroring
// CompileService.WithMetrics. Left unset, React simply skips recording.
func (a *Activities) WithMetrics(m *monitoring.Metrics) *Activities {
	a.metrics = m
	return a
}

// RegisterInstance creates and stores the Kernel backing instanceID, built
// from service's compiled Node and a lookup that resolves its sub-node
// calls. It must run before the corresponding ReactiveServiceWorkflow
// execution sends its first signal.
func (a *Activities) RegisterInstance(instanceID string, service *node.Node, lookup dgruntime.Lookup, debounceWindow, heartbeatTimeout time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.kernels[instanceID] = dgruntime.NewKernel(service, lookup, debounceWindow, heartbeatTimeout)
}

// ForgetInstance drops instanceID's Kernel once its workflow has ended.
func (a *Activities) ForgetInstance(instanceID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.kernels, instanceID)
}

// Prepare is the PrepareActivityName activity: it builds and registers the
// Kernel backing req.InstanceID from the service node and sub-node
// registry the workflow carried in from whoever started it. It is
// idempotent — re-running it on workflow replay just rebuilds the same
// Kernel from the same compiled nodes.
func (a *Activities) Prepare(ctx context.Context, req PrepareRequest) error {
	lookup := func(nodeID int) *node.Node {
		return req.SubNodes[nodeID]
	}
	a.RegisterInstance(req.InstanceID, req.Service, lookup, req.DebounceWindow, req.HeartbeatTimeout)
	return nil
}

func (a *Activities) kernel(instanceID string) (*dgruntime.Kernel, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	k, ok := a.kernels[instanceID]
	if !ok {
		return nil, fmt.Errorf("translator: no running kernel for instance %q", instanceID)
	}
	return k, nil
}

// React is the ReactActivityName activity: it dispatches req.Tag to the
// instance's Kernel and flattens the resulting Reaction into a ReactResult.
func (a *Activities) React(ctx context.Context, req ReactRequest) (ReactResult, error) {
	k, err := a.kernel(req.InstanceID)
	if err != nil {
		return ReactResult{}, err
	}

	var reaction *dgruntime.Reaction
	switch req.Tag {
	case dgruntime.EventInput:
		reaction, err = k.HandleInput(ctx, req.FlowID, req.Value, time.Now())
	case dgruntime.EventDebounceFired:
		reaction, err = k.HandleDebounceFired(ctx)
	case dgruntime.EventHeartbeatFired:
		reaction, err = k.HandleHeartbeatFired(ctx)
	default:
		return ReactResult{}, fmt.Errorf("translator: unknown event tag %d", req.Tag)
	}
	if err != nil {
		if a.metrics != nil && errors.Is(err, apperrors.ErrDebounceConflict) {
			a.metrics.RecordDebounceConflict()
		}
		return ReactResult{}, err
	}
	// HandleInput returns nil while a debounce window is open and the input
	// was only stored, not reacted to — nothing for the workflow to emit or
	// act on yet.
	if reaction == nil {
		return ReactResult{}, nil
	}
	if a.metrics != nil {
		a.metrics.RecordInstanceReaction(eventTagLabel(req.Tag), len(reaction.Outputs) > 0)
	}
	return ReactResult{Outputs: reaction.Outputs, TimerActions: reaction.TimerActions}, nil
}

func eventTagLabel(tag dgruntime.EventTag) string {
	switch tag {
	case dgruntime.EventInput:
		return "input"
	case dgruntime.EventDebounceFired:
		return "debounce_fired"
	case dgruntime.EventHeartbeatFired:
		return "heartbeat_fired"
	default:
		return "unknown"
	}
}

// Emit is the EmitActivityName activity: it publishes the instance's fresh
// outputs onto the event bus for whatever is observing that instance
// (an HTTP streaming handler, a test harness) to pick up.
func (a *Activities) Emit(ctx context.Context, req EmitRequest) error {
	return a.bus.Publish(ctx, dgruntime.OutputEmitted{InstanceID: req.InstanceID, Outputs: req.Outputs})
}
