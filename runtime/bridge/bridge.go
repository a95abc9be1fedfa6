package bridge

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.temporal.io/sdk/client"

	"github.com/duragraph/duragraph/runtime/translator"

	domainexpr "github.com/duragraph/duragraph/internal/domain/ir/expr"
	"github.com/duragraph/duragraph/internal/domain/node"
	dgruntime "github.com/duragraph/duragraph/internal/infrastructure/runtime"
)

// Bridge is the Temporal client wrapper that starts and queries one
// running service instance's ReactiveServiceWorkflow execution. It never
// sees a Kernel directly — that lives inside Activities, hosted by the
// worker process — it only starts workflow executions, signals them, and
// queries their last-emitted outputs.
type Bridge struct {
	temporalClient client.Client
	namespace      string
	taskQueue      string
}

// StartInstanceRequest starts one running instance of a compiled service:
// Service and SubNodes are the compiled top-level node and the registry of
// nodes its equations call into, exactly as the compiler produced them;
// Definition is what BuildDefinition derived from Service for the event/
// timer/context shape the generated workflow exposes.
type StartInstanceRequest struct {
	ServiceID        string
	InstanceID       string
	Definition       dgruntime.Definition
	Service          *node.Node
	SubNodes         map[int]*node.Node
	DebounceWindow   time.Duration
	HeartbeatTimeout time.Duration
}

// InstanceStatus is what QueryInstance returns: the instance's most
// recently emitted outputs, as published by the status query handler that
// ReactiveServiceWorkflow registers.
type InstanceStatus struct {
	InstanceID string
	Outputs    map[int]domainexpr.Constant
	Running    bool
}

// NewBridge dials a Temporal client against temporalHost/namespace. taskQueue
// is the queue workers/go-adapter polls for ReactiveServiceWorkflow and its
// React/Emit activities.
func NewBridge(temporalHost, namespace, taskQueue string) (*Bridge, error) {
	c, err := client.Dial(client.Options{
		HostPort:  temporalHost,
		Namespace: namespace,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Temporal client: %w", err)
	}

	return &Bridge{
		temporalClient: c,
		namespace:      namespace,
		taskQueue:      taskQueue,
	}, nil
}

func workflowID(serviceID, instanceID string) string {
	return fmt.Sprintf("duragraph-service-%s-instance-%s", serviceID, instanceID)
}

// StartInstance starts a new ReactiveServiceWorkflow execution for one
// running instance of a compiled service. The workflow's own first step
// is a Prepare activity call that registers req.Service/req.SubNodes as a
// Kernel on whichever worker picks the task up, so the caller never needs
// to reach the worker process directly.
func (b *Bridge) StartInstance(ctx context.Context, req StartInstanceRequest) (string, error) {
	id := workflowID(req.ServiceID, req.InstanceID)
	log.Printf("[bridge] starting instance %s for service %s", req.InstanceID, req.ServiceID)

	options := client.StartWorkflowOptions{
		ID:        id,
		TaskQueue: b.taskQueue,
	}
	input := translator.WorkflowInput{
		InstanceID:       req.InstanceID,
		Definition:       req.Definition,
		Service:          req.Service,
		SubNodes:         req.SubNodes,
		DebounceWindow:   req.DebounceWindow,
		HeartbeatTimeout: req.HeartbeatTimeout,
	}

	we, err := b.temporalClient.ExecuteWorkflow(ctx, options, translator.ReactiveServiceWorkflow, input)
	if err != nil {
		return "", fmt.Errorf("failed to start instance workflow: %w", err)
	}
	return we.GetRunID(), nil
}

// SignalInput delivers one input-flow event to a running instance by
// sending a signal on the event name the Definition assigned that flow.
func (b *Bridge) SignalInput(ctx context.Context, serviceID, instanceID, eventName string, value domainexpr.Constant) error {
	id := workflowID(serviceID, instanceID)
	return b.temporalClient.SignalWorkflow(ctx, id, "", eventName, value)
}

// QueryInstance reads a running instance's last-emitted outputs without
// waiting for the (normally never-ending) workflow to complete.
func (b *Bridge) QueryInstance(ctx context.Context, serviceID, instanceID string) (*InstanceStatus, error) {
	id := workflowID(serviceID, instanceID)

	resp, err := b.temporalClient.QueryWorkflow(ctx, id, "", translator.StatusQuery)
	if err != nil {
		return &InstanceStatus{InstanceID: instanceID, Running: false}, fmt.Errorf("query instance: %w", err)
	}

	var outputs map[int]domainexpr.Constant
	if err := resp.Get(&outputs); err != nil {
		return nil, fmt.Errorf("decode instance status: %w", err)
	}
	return &InstanceStatus{InstanceID: instanceID, Outputs: outputs, Running: true}, nil
}

// CancelInstance requests cancellation of a running instance's workflow.
// Per the runtime's cancellation semantics, no further events are
// delivered after this but any output already queued for emission remains
// queued.
func (b *Bridge) CancelInstance(ctx context.Context, serviceID, instanceID string) error {
	id := workflowID(serviceID, instanceID)
	return b.temporalClient.CancelWorkflow(ctx, id, "")
}

// Close closes the bridge and its underlying Temporal connection.
func (b *Bridge) Close() {
	if b.temporalClient != nil {
		b.temporalClient.Close()
	}
}
