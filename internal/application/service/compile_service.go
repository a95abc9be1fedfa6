package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/duragraph/duragraph/internal/application/schedule"
	"github.com/duragraph/duragraph/internal/application/transform"
	"github.com/duragraph/duragraph/internal/domain/compilation"
	"github.com/duragraph/duragraph/internal/domain/ir/stream"
	"github.com/duragraph/duragraph/internal/domain/node"
	"github.com/duragraph/duragraph/internal/domain/symboltable"
	"github.com/duragraph/duragraph/internal/infrastructure/monitoring"
	"github.com/duragraph/duragraph/internal/pkg/errors"
	"github.com/duragraph/duragraph/internal/pkg/eventbus"
)

// Unit is a compilation unit: every node declared in one source program,
// keyed by id, together with the symbol table that assigned their signal
// ids. Nodes must be listed in an order where a node is never called
// before every node it calls.
type Unit struct {
	SourceHash string
	Nodes      []*node.Node
	Symbols    *symboltable.Table
}

// ArtifactRepository persists compilation artifacts.
type ArtifactRepository interface {
	Save(ctx context.Context, a *compilation.Artifact) error
	FindByID(ctx context.Context, id string) (*compilation.Artifact, error)
}

// CompileService runs the middle-end pipeline over a compilation unit:
// dependency annotation, normal-form transformation, memory extraction,
// selective inlining, scheduling, and reduced-graph propagation. Each
// node is fully compiled before any node that calls it, since inlining
// and reduced-graph propagation both need a callee's finished state.
type CompileService struct {
	artifacts ArtifactRepository
	eventBus  *eventbus.EventBus
	metrics   *monitoring.Metrics
}

// NewCompileService creates a CompileService.
func NewCompileService(artifacts ArtifactRepository, eventBus *eventbus.EventBus) *CompileService {
	return &CompileService{artifacts: artifacts, eventBus: eventBus}
}

// WithMetrics attaches Prometheus metrics recording to s, returning s for
// chaining at construction time. Left unset, Compile simply skips
// recording (the same nil-safe pattern flush already uses for eventBus).
func (s *CompileService) WithMetrics(m *monitoring.Metrics) *CompileService {
	s.metrics = m
	return s
}

// Artifacts exposes the underlying repository so a caller (the HTTP
// compilation handler) can look an artifact up by id without threading a
// second repository reference through its own constructor.
func (s *CompileService) Artifacts() ArtifactRepository {
	return s.artifacts
}

// Compile runs every pass over every node in unit, in the order given,
// recording and publishing progress against a new Artifact. It stops at
// the first node that fails a pass; nodes compiled before the failure
// keep whatever mutations the passes already made to them, but the
// artifact itself is marked failed and no reduced graph is published for
// the node that triggered it.
func (s *CompileService) Compile(ctx context.Context, id string, unit Unit) (*compilation.Artifact, error) {
	artifact, err := compilation.New(id, unit.SourceHash)
	if err != nil {
		return nil, err
	}
	if err := s.flush(ctx, artifact); err != nil {
		return nil, err
	}

	byID := make(map[int]*node.Node, len(unit.Nodes))
	for _, n := range unit.Nodes {
		byID[n.ID] = n
	}
	lookup := func(nodeID int) *node.Node { return byID[nodeID] }

	registry := node.NewRegistry()
	compiled := make([]compilation.CompiledNode, 0, len(unit.Nodes))

	for _, n := range unit.Nodes {
		if err := s.compileNode(n, unit.Symbols, registry, lookup, func(pass string) {
			artifact.RecordPassCompleted(n.Name, pass)
			if s.metrics != nil {
				s.metrics.RecordCompilationPass(pass)
			}
		}); err != nil {
			artifact.Fail(n.Name, err)
			_ = s.flush(ctx, artifact)
			if s.metrics != nil {
				s.metrics.RecordCompilationFinished(string(compilation.StatusFailed), len(compiled))
			}
			return artifact, fmt.Errorf("compiling node %q: %w", n.Name, err)
		}
		if err := s.flush(ctx, artifact); err != nil {
			return artifact, err
		}

		compiled = append(compiled, compilation.CompiledNode{
			ID:              n.ID,
			Name:            n.Name,
			Inputs:          n.Inputs,
			Outputs:         n.Outputs,
			Schedule:        n.Schedule,
			BufferCount:     len(n.Memory.Buffers),
			CalledNodeCount: len(n.Memory.CalledNodes),
		})
	}

	artifact.Succeed(compiled)
	if err := s.flush(ctx, artifact); err != nil {
		return artifact, err
	}
	if s.metrics != nil {
		s.metrics.RecordCompilationFinished(string(compilation.StatusSucceeded), len(compiled))
	}
	return artifact, nil
}

func (s *CompileService) compileNode(n *node.Node, st *symboltable.Table, registry *node.Registry, lookup transform.NodeLookup, onPass func(pass string)) error {
	transform.AnnotateNodeDependencies(n)
	onPass("annotate_dependencies")

	// Normal-form runs before memorize: lowering a rising edge mints a
	// brand new fby, and lifting a nested call hoists it into its own
	// top-level equation, so memorize only needs a single pass once the
	// final equation shape is settled, rather than one before and a
	// reconciling one after.
	transform.NormalFormNode(n, st, registry)
	onPass("normal_form")

	transform.Memorize(n, st)
	onPass("memorize")

	transform.InlineWhenNeeded(n, st, registry, lookup)
	onPass("inline")

	schedule.ComputeReducedGraph(n)

	order, err := schedule.Schedule(n)
	if err != nil {
		return err
	}
	n.Schedule = order

	scheduled, err := schedule.ScheduleEquations(n)
	if err != nil {
		return err
	}
	n.Equations = scheduled
	onPass("schedule")

	registry.Set(n.ID, schedule.ComputeReducedGraph(n))
	onPass("reduced_graph")

	return nil
}

func (s *CompileService) flush(ctx context.Context, artifact *compilation.Artifact) error {
	events := artifact.Events()
	artifact.ClearEvents()

	if s.artifacts != nil {
		if err := s.artifacts.Save(ctx, artifact); err != nil {
			return errors.Internal("saving compilation artifact", err)
		}
	}
	if s.eventBus == nil {
		return nil
	}
	for _, e := range events {
		if err := s.eventBus.Publish(ctx, e); err != nil {
			return errors.Internal("publishing compilation event", err)
		}
	}
	return nil
}

// TopologicalOrder returns unit's nodes ordered so that every node appears
// after every node it calls, derived from each node's KindNodeApplication
// equations. It does not panic on a call cycle: the cyclic nodes are left
// in visit order, and the call cycle itself is not reported as an error.
func TopologicalOrder(nodes []*node.Node) []*node.Node {
	byID := make(map[int]*node.Node, len(nodes))
	var ids []int
	for _, n := range nodes {
		byID[n.ID] = n
		ids = append(ids, n.ID)
	}
	sort.Ints(ids)

	visited := make(map[int]bool, len(nodes))
	var order []*node.Node
	var visit func(id int)
	visit = func(id int) {
		if visited[id] {
			return
		}
		visited[id] = true
		n := byID[id]
		if n == nil {
			return
		}
		for _, callee := range calledNodeIDs(n) {
			visit(callee)
		}
		order = append(order, n)
	}
	for _, id := range ids {
		visit(id)
	}
	return order
}

func calledNodeIDs(n *node.Node) []int {
	seen := make(map[int]bool)
	var out []int
	for _, eq := range n.Equations {
		if eq.Expr.Kind == stream.KindNodeApplication {
			id := eq.Expr.NodeApplicationCalledNode
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}
