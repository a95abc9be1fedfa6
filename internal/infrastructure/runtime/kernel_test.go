package runtime_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duragraph/duragraph/internal/domain/ir/core"
	"github.com/duragraph/duragraph/internal/domain/ir/expr"
	"github.com/duragraph/duragraph/internal/domain/ir/stream"
	"github.com/duragraph/duragraph/internal/domain/node"
	"github.com/duragraph/duragraph/internal/domain/symboltable"
	apperrors "github.com/duragraph/duragraph/internal/pkg/errors"

	dgruntime "github.com/duragraph/duragraph/internal/infrastructure/runtime"
)

// accumulatorNode builds the post-compile form of `count : int = 0 fby
// next; next = count + tick;` — a single input, a buffered identity
// (S1-shaped), used to exercise per-input handling and the heartbeat
// stutter.
func accumulatorNode(st *symboltable.Table) *node.Node {
	tick := st.InsertFreshSignal("tick", symboltable.Input, "int")
	count := st.InsertFreshSignal("count", symboltable.Output, "int")
	next := st.InsertFreshSignal("next", symboltable.Local, "int")

	n := node.New(1, "accumulator", []int{tick}, []int{count})
	st.SetNodeSignature(n.ID, n.Inputs, n.Outputs)

	n.Equations = []stream.Equation{
		{Pattern: core.Ident(count), Expr: stream.NewFollowedBy(next, stream.NewConstant(expr.Int(0), core.Builtin()), core.Builtin())},
		{Pattern: core.Ident(next), Expr: stream.NewExpression(expr.NewBinOp[*stream.Expr](expr.Add,
			stream.NewIdentifier(count, core.Builtin()),
			stream.NewIdentifier(tick, core.Builtin()),
		), core.Builtin())},
	}
	n.Memory.AddBuffer(next, "next", "int", stream.NewConstant(expr.Int(0), core.Builtin()))
	n.Schedule = []int{tick, count, next}
	return n
}

func noLookup(int) *node.Node { return nil }

func TestKernelHandleInputAccumulates(t *testing.T) {
	st := symboltable.New()
	n := accumulatorNode(st)
	k := dgruntime.NewKernel(n, noLookup, 20*time.Millisecond, time.Second)

	tickID := n.Inputs[0]
	countID := n.Outputs[0]

	r1, err := k.HandleInput(context.Background(), tickID, expr.Int(5), time.Now())
	require.NoError(t, err)
	assert.Equal(t, expr.Int(0), r1.Outputs[countID])
	assert.True(t, k.Debouncing())

	_, err = k.HandleDebounceFired(context.Background())
	require.NoError(t, err)
	assert.False(t, k.Debouncing())

	r2, err := k.HandleInput(context.Background(), tickID, expr.Int(7), time.Now())
	require.NoError(t, err)
	assert.Equal(t, expr.Int(5), r2.Outputs[countID])
}

func TestKernelHeartbeatEmitsStutterWithoutRecompute(t *testing.T) {
	st := symboltable.New()
	n := accumulatorNode(st)
	k := dgruntime.NewKernel(n, noLookup, 20*time.Millisecond, time.Second)

	countID := n.Outputs[0]
	_, err := k.HandleInput(context.Background(), n.Inputs[0], expr.Int(3), time.Now())
	require.NoError(t, err)

	stutter, err := k.HandleHeartbeatFired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, expr.Int(0), stutter.Outputs[countID])
	require.Len(t, stutter.TimerActions, 1)
	assert.Equal(t, dgruntime.TimerHeartbeat, stutter.TimerActions[0].Timer)
}

// debounceServiceNode builds a three-input pass-through service (a, b, c
// each feeding their own output directly) with no internal state, enough
// to exercise the debounce input store without an interpreter-level
// dependency on sub-node calls or fby buffers.
func debounceServiceNode(st *symboltable.Table) (*node.Node, map[string]int) {
	a := st.InsertFreshSignal("a", symboltable.Input, "int")
	b := st.InsertFreshSignal("b", symboltable.Input, "int")
	c := st.InsertFreshSignal("c", symboltable.Input, "int")
	oa := st.InsertFreshSignal("oa", symboltable.Output, "int")
	ob := st.InsertFreshSignal("ob", symboltable.Output, "int")
	oc := st.InsertFreshSignal("oc", symboltable.Output, "int")

	n := node.New(1, "merge", []int{a, b, c}, []int{oa, ob, oc})
	st.SetNodeSignature(n.ID, n.Inputs, n.Outputs)
	n.Equations = []stream.Equation{
		{Pattern: core.Ident(oa), Expr: stream.NewIdentifier(a, core.Builtin())},
		{Pattern: core.Ident(ob), Expr: stream.NewIdentifier(b, core.Builtin())},
		{Pattern: core.Ident(oc), Expr: stream.NewIdentifier(c, core.Builtin())},
	}
	n.Schedule = []int{a, b, c, oa, ob, oc}
	return n, map[string]int{"a": a, "b": b, "c": c, "oa": oa, "ob": ob, "oc": oc}
}

// TestKernelDebounceMergesSimultaneousInputs grounds scenario S6: the first
// of three simultaneous inputs is reacted to and opens the debounce window,
// the other two are stored, not reacted to individually, and a single
// combined reaction on debounce fire sees both of them as fresh at once.
func TestKernelDebounceMergesSimultaneousInputs(t *testing.T) {
	st := symboltable.New()
	n, ids := debounceServiceNode(st)
	k := dgruntime.NewKernel(n, noLookup, 20*time.Millisecond, time.Second)

	now := time.Now()
	r1, err := k.HandleInput(context.Background(), ids["a"], expr.Int(1), now)
	require.NoError(t, err)
	require.NotNil(t, r1)
	assert.True(t, k.Debouncing())

	r2, err := k.HandleInput(context.Background(), ids["b"], expr.Int(2), now)
	require.NoError(t, err)
	assert.Nil(t, r2) // stored, not reacted to yet

	r3, err := k.HandleInput(context.Background(), ids["c"], expr.Int(3), now)
	require.NoError(t, err)
	assert.Nil(t, r3)

	assert.ElementsMatch(t, []int{ids["b"], ids["c"]}, k.PendingFlows())

	combined, err := k.HandleDebounceFired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, expr.Int(2), combined.Outputs[ids["ob"]])
	assert.Equal(t, expr.Int(3), combined.Outputs[ids["oc"]])
	assert.False(t, k.Debouncing())
}

// TestKernelDebounceConflictAsserts grounds the "flow changes twice in the
// window" failure mode: a second input for a flow already pending is a
// hard error, not a silent overwrite.
func TestKernelDebounceConflictAsserts(t *testing.T) {
	st := symboltable.New()
	n, ids := debounceServiceNode(st)
	k := dgruntime.NewKernel(n, noLookup, 20*time.Millisecond, time.Second)

	now := time.Now()
	_, err := k.HandleInput(context.Background(), ids["a"], expr.Int(1), now)
	require.NoError(t, err)

	_, err = k.HandleInput(context.Background(), ids["a"], expr.Int(2), now)
	require.NoError(t, err)

	_, err = k.HandleInput(context.Background(), ids["a"], expr.Int(99), now)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrDebounceConflict)
}

func TestMergeEventsOrdersByTimeThenTagTieBreak(t *testing.T) {
	t0 := time.Now()
	events := []dgruntime.Event{
		{Tag: dgruntime.EventHeartbeatFired, At: t0},
		{Tag: dgruntime.EventInput, At: t0},
		{Tag: dgruntime.EventDebounceFired, At: t0},
		{Tag: dgruntime.EventInput, At: t0.Add(-time.Second)},
	}
	merged := dgruntime.MergeEvents(events)
	require.Len(t, merged, 4)
	assert.True(t, merged[0].At.Before(merged[1].At))
	assert.Equal(t, dgruntime.EventInput, merged[1].Tag)
	assert.Equal(t, dgruntime.EventDebounceFired, merged[2].Tag)
	assert.Equal(t, dgruntime.EventHeartbeatFired, merged[3].Tag)
}
