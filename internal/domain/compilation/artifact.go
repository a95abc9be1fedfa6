// Package compilation holds the Artifact aggregate: the
// event-sourced record of one run of the compiler over a source program,
// from the moment it starts until every node has a schedule or the
// compilation has failed.
package compilation

import (
	"time"

	"github.com/duragraph/duragraph/internal/pkg/errors"
	"github.com/duragraph/duragraph/internal/pkg/eventbus"
)

// Status is the artifact's lifecycle state.
type Status string

const (
	StatusCompiling Status = "compiling"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// CompiledNode summarizes one compiled node for persistence and for the
// runtime synthesizer that reads the artifact afterwards.
type CompiledNode struct {
	ID              int    `json:"id"`
	Name            string `json:"name"`
	Inputs          []int  `json:"inputs"`
	Outputs         []int  `json:"outputs"`
	Schedule        []int  `json:"schedule"`
	BufferCount     int    `json:"buffer_count"`
	CalledNodeCount int    `json:"called_node_count"`
}

// Artifact is the compilation-run aggregate.
type Artifact struct {
	id         string
	sourceHash string
	status     Status
	nodes      []CompiledNode
	failedNode string
	failReason string
	createdAt  time.Time
	updatedAt  time.Time

	events []eventbus.Event
}

// New starts a new compilation, recording a Started event.
func New(id, sourceHash string) (*Artifact, error) {
	if id == "" {
		return nil, errors.InvalidInput("id", "id is required")
	}
	if sourceHash == "" {
		return nil, errors.InvalidInput("source_hash", "source_hash is required")
	}

	now := time.Now()
	a := &Artifact{
		id:         id,
		sourceHash: sourceHash,
		status:     StatusCompiling,
		createdAt:  now,
		updatedAt:  now,
		events:     make([]eventbus.Event, 0),
	}
	a.recordEvent(Started{ArtifactID: id, SourceHash: sourceHash, OccurredAt: now})
	return a, nil
}

// ReconstructArtifact rebuilds an Artifact from persisted projection data,
// without replaying RecordPassCompleted events individually — a finished
// (or failed) artifact's pass history isn't needed to answer
// GET /compilations/{id}, only its final status and node summaries.
func ReconstructArtifact(id, sourceHash string, status Status, nodes []CompiledNode, failedNode, failReason string, createdAt, updatedAt time.Time) *Artifact {
	if nodes == nil {
		nodes = make([]CompiledNode, 0)
	}
	return &Artifact{
		id:         id,
		sourceHash: sourceHash,
		status:     status,
		nodes:      nodes,
		failedNode: failedNode,
		failReason: failReason,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
		events:     make([]eventbus.Event, 0),
	}
}

func (a *Artifact) ID() string            { return a.id }
func (a *Artifact) SourceHash() string    { return a.sourceHash }
func (a *Artifact) Status() Status        { return a.status }
func (a *Artifact) Nodes() []CompiledNode { return a.nodes }
func (a *Artifact) FailedNode() string    { return a.failedNode }
func (a *Artifact) FailReason() string    { return a.failReason }
func (a *Artifact) CreatedAt() time.Time  { return a.createdAt }
func (a *Artifact) UpdatedAt() time.Time  { return a.updatedAt }

// RecordPassCompleted notes that one middle-end pass finished for one
// node, without changing the artifact's overall status.
func (a *Artifact) RecordPassCompleted(nodeName, pass string) {
	now := time.Now()
	a.updatedAt = now
	a.recordEvent(PassCompleted{ArtifactID: a.id, NodeName: nodeName, Pass: pass, OccurredAt: now})
}

// Succeed transitions the artifact to StatusSucceeded with its final
// per-node summaries.
func (a *Artifact) Succeed(nodes []CompiledNode) {
	now := time.Now()
	a.status = StatusSucceeded
	a.nodes = nodes
	a.updatedAt = now
	a.recordEvent(Succeeded{ArtifactID: a.id, Nodes: nodes, OccurredAt: now})
}

// Fail transitions the artifact to StatusFailed, naming the node and
// reason that stopped compilation.
func (a *Artifact) Fail(nodeName string, err error) {
	now := time.Now()
	a.status = StatusFailed
	a.failedNode = nodeName
	a.failReason = err.Error()
	a.updatedAt = now
	a.recordEvent(Failed{ArtifactID: a.id, NodeName: nodeName, Reason: a.failReason, OccurredAt: now})
}

// Events returns every event recorded so far but not yet cleared.
func (a *Artifact) Events() []eventbus.Event {
	return a.events
}

// ClearEvents drops every recorded event, called once the caller has
// published them.
func (a *Artifact) ClearEvents() {
	a.events = make([]eventbus.Event, 0)
}

func (a *Artifact) recordEvent(e eventbus.Event) {
	a.events = append(a.events, e)
}
