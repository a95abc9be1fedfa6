package runtime

import (
	"context"
	"fmt"

	"github.com/duragraph/duragraph/internal/domain/ir/core"
	domainexpr "github.com/duragraph/duragraph/internal/domain/ir/expr"
	"github.com/duragraph/duragraph/internal/domain/ir/stream"
	"github.com/duragraph/duragraph/internal/domain/node"
	apperrors "github.com/duragraph/duragraph/internal/pkg/errors"
)

// Stepper runs one reaction of a callee node given its memory slot and
// fresh input values, returning its output values keyed by the callee's
// own output signal ids. It is the one of the two process-boundary
// crossings the runtime synthesizer allows mid-reaction: a Temporal-backed
// Stepper (runtime/translator) wraps workflow.ExecuteActivity around a
// plain in-process Stepper like Interpreter.Step.
type Stepper interface {
	Step(ctx context.Context, calledNode int, memorySlot int, inputs map[int]domainexpr.Constant) (map[int]domainexpr.Constant, error)
}

// Emitter pushes a reaction's fresh public outputs downstream. It is the
// other process-boundary crossing; a Temporal-backed Emitter wraps an
// output-emission activity.
type Emitter interface {
	Emit(ctx context.Context, outputs map[int]domainexpr.Constant) error
}

// Interpreter evaluates one compiled node's equations directly, without
// generating code. It plays Stepper for its own sub-node calls by
// recursing into the callee's own equations, using a Lookup to find a
// called node's compiled Node by id and a per-memory-slot sub-Context to
// keep each call site's fby buffers distinct.
type Interpreter struct {
	lookup       Lookup
	subcontexts  map[int]*Context // memory slot id -> that call site's own Context
}

// Lookup resolves a node id to its compiled Node, mirroring
// transform.NodeLookup.
type Lookup func(nodeID int) *node.Node

// NewInterpreter creates an Interpreter that resolves sub-node calls
// through lookup.
func NewInterpreter(lookup Lookup) *Interpreter {
	return &Interpreter{lookup: lookup, subcontexts: make(map[int]*Context)}
}

// Step implements Stepper by running one full reaction of calledNode's
// equations in the Context owned by memorySlot, seeded with inputs.
func (ip *Interpreter) Step(ctx context.Context, calledNode int, memorySlot int, inputs map[int]domainexpr.Constant) (map[int]domainexpr.Constant, error) {
	n := ip.lookup(calledNode)
	if n == nil {
		return nil, apperrors.MissingSymbol(calledNode)
	}
	sub, ok := ip.subcontexts[memorySlot]
	if !ok {
		sub = NewContext()
		ip.subcontexts[memorySlot] = sub
	}

	sub.Reset()
	for id, v := range inputs {
		sub.Set(id, v)
	}

	if err := ip.react(sub, n); err != nil {
		return nil, err
	}

	out := make(map[int]domainexpr.Constant, len(n.Outputs))
	for _, id := range n.Outputs {
		if v, ok := sub.Get(id); ok {
			out[id] = v
		}
	}
	return out, nil
}

// react runs every equation of n, in schedule order, against c: ordinary
// equations always recompute (the synchronous "instant" abstraction), a
// node-application equation only steps its callee when one of its actual
// arguments is fresh, and every fby buffer is advanced once the full
// equation list has run.
func (ip *Interpreter) react(c *Context, n *node.Node) error {
	for _, eq := range n.Equations {
		if err := ip.evalEquation(c, eq); err != nil {
			return err
		}
	}
	for _, buf := range n.Memory.Buffers {
		if v, ok := c.Get(buf.ID); ok {
			c.AdvanceBuffer(buf.ID, v)
		}
	}
	return nil
}

func (ip *Interpreter) evalEquation(c *Context, eq stream.Equation) error {
	e := eq.Expr
	if e.Kind == stream.KindNodeApplication {
		return ip.evalNodeApplication(c, eq)
	}

	v, err := ip.evalExpr(c, e)
	if err != nil {
		return err
	}
	ids := eq.Pattern.Identifiers()
	if len(ids) != 1 {
		return apperrors.UnsupportedExpr("tuple-bound non-node-application equation")
	}
	c.Set(ids[0], v)
	return nil
}

func (ip *Interpreter) evalNodeApplication(c *Context, eq stream.Equation) error {
	e := eq.Expr
	var guard []int
	inputs := make(map[int]domainexpr.Constant, len(e.NodeApplicationInputs))
	for _, in := range e.NodeApplicationInputs {
		id := in.Expr.Expression.IdentifierID
		guard = append(guard, id)
		v, ok := c.Get(id)
		if !ok {
			return apperrors.MissingSymbol(id)
		}
		inputs[in.FormalInputID] = v
	}

	ids := eq.Pattern.Identifiers()
	firstStep := false
	for _, id := range ids {
		if _, ok := c.Get(id); !ok {
			firstStep = true
			break
		}
	}
	if !firstStep && !c.AnyNew(guard) {
		return nil // nothing the callee depends on changed: skip the step
	}
	if e.NodeApplicationMemoryID == nil {
		return apperrors.NotNormalised(fmt.Sprintf("node application to %d missing memory slot", e.NodeApplicationCalledNode))
	}

	outputs, err := ip.Step(context.Background(), e.NodeApplicationCalledNode, *e.NodeApplicationMemoryID, inputs)
	if err != nil {
		return err
	}

	callee := ip.lookup(e.NodeApplicationCalledNode)
	if callee == nil {
		return apperrors.MissingSymbol(e.NodeApplicationCalledNode)
	}
	for i, outID := range callee.Outputs {
		if i >= len(ids) {
			break
		}
		if v, ok := outputs[outID]; ok {
			c.Set(ids[i], v)
		}
	}
	return nil
}

func (ip *Interpreter) evalExpr(c *Context, e *stream.Expr) (domainexpr.Constant, error) {
	switch e.Kind {
	case stream.KindExpression:
		return ip.evalKind(c, &e.Expression)

	case stream.KindFollowedBy:
		initial, err := ip.evalExpr(c, e.FollowedByConstant)
		if err != nil {
			return domainexpr.Constant{}, err
		}
		return c.Buffer(e.FollowedByID, initial), nil

	case stream.KindSomeEvent:
		return ip.evalExpr(c, e.Inner)

	case stream.KindNoneEvent:
		return domainexpr.Constant{}, apperrors.UnsupportedExpr("absent-event constant")

	case stream.KindRisingEdge:
		return domainexpr.Constant{}, apperrors.UnresolvedRisingEdge(e.Loc.File, e.Loc.Line, e.Loc.Col)

	case stream.KindNodeApplication:
		return domainexpr.Constant{}, apperrors.NotNormalised("node application outside an equation root")

	default:
		return domainexpr.Constant{}, apperrors.UnsupportedExpr("unknown stream expression kind")
	}
}

func (ip *Interpreter) evalKind(c *Context, k *domainexpr.Kind[*stream.Expr]) (domainexpr.Constant, error) {
	switch k.Tag {
	case domainexpr.TagConstant:
		return k.ConstantValue, nil

	case domainexpr.TagIdentifier:
		v, ok := c.Get(k.IdentifierID)
		if !ok {
			return domainexpr.Constant{}, apperrors.MissingSymbol(k.IdentifierID)
		}
		return v, nil

	case domainexpr.TagUnOp:
		v, err := ip.evalExpr(c, k.UnOpExpr)
		if err != nil {
			return domainexpr.Constant{}, err
		}
		return evalUnOp(k.UnOpOp, v)

	case domainexpr.TagBinOp:
		l, err := ip.evalExpr(c, k.BinOpLft)
		if err != nil {
			return domainexpr.Constant{}, err
		}
		r, err := ip.evalExpr(c, k.BinOpRgt)
		if err != nil {
			return domainexpr.Constant{}, err
		}
		return evalBinOp(k.BinOpOp, l, r)

	case domainexpr.TagIfThenElse:
		cnd, err := ip.evalExpr(c, k.IfCnd)
		if err != nil {
			return domainexpr.Constant{}, err
		}
		if cnd.Kind != domainexpr.ConstBool {
			return domainexpr.Constant{}, apperrors.UnsupportedExpr("if condition not boolean")
		}
		if cnd.Bool {
			return ip.evalExpr(c, k.IfThn)
		}
		return ip.evalExpr(c, k.IfEls)

	case domainexpr.TagMatch:
		return ip.evalMatch(c, k)

	default:
		return domainexpr.Constant{}, apperrors.UnsupportedExpr(fmt.Sprintf("expression tag %d", k.Tag))
	}
}

// evalMatch supports the identifier/wildcard patterns a state-machine-style
// node body needs: an identifier pattern rebinds the scrutinee's value
// under the arm's own name so a guard or result can refer to it, a
// wildcard matches unconditionally. Structural patterns over enumerations
// or tuples are outside what Context's scalar value model can represent
// and are rejected explicitly rather than silently mishandled.
func (ip *Interpreter) evalMatch(c *Context, k *domainexpr.Kind[*stream.Expr]) (domainexpr.Constant, error) {
	scrutinee, err := ip.evalExpr(c, k.MatchExpr)
	if err != nil {
		return domainexpr.Constant{}, err
	}

	for _, arm := range k.MatchArms {
		switch arm.Pattern.Kind {
		case core.PatternWildcard:
		case core.PatternIdentifier:
			c.Set(arm.Pattern.ID, scrutinee)
		default:
			return domainexpr.Constant{}, apperrors.UnsupportedExpr("structural match pattern")
		}

		if arm.Guard != nil {
			g, err := ip.evalExpr(c, *arm.Guard)
			if err != nil {
				return domainexpr.Constant{}, err
			}
			if g.Kind != domainexpr.ConstBool || !g.Bool {
				continue
			}
		}

		for _, stmt := range arm.Body {
			if err := ip.evalEquation(c, stmt); err != nil {
				return domainexpr.Constant{}, err
			}
		}
		return ip.evalExpr(c, arm.Result)
	}
	return domainexpr.Constant{}, apperrors.UnsupportedExpr("match with no arm taken")
}

func evalUnOp(op domainexpr.UOp, v domainexpr.Constant) (domainexpr.Constant, error) {
	switch op {
	case domainexpr.Not:
		if v.Kind != domainexpr.ConstBool {
			return domainexpr.Constant{}, apperrors.UnsupportedExpr("not on non-bool")
		}
		return domainexpr.Bool(!v.Bool), nil
	case domainexpr.Neg:
		switch v.Kind {
		case domainexpr.ConstInt:
			return domainexpr.Int(-v.Int), nil
		case domainexpr.ConstFloat:
			return domainexpr.Float(-v.Float64), nil
		default:
			return domainexpr.Constant{}, apperrors.UnsupportedExpr("neg on non-numeric")
		}
	default:
		return domainexpr.Constant{}, apperrors.UnsupportedExpr("unknown unary operator")
	}
}

func evalBinOp(op domainexpr.BOp, l, r domainexpr.Constant) (domainexpr.Constant, error) {
	switch op {
	case domainexpr.And:
		return domainexpr.Bool(l.Bool && r.Bool), nil
	case domainexpr.Or:
		return domainexpr.Bool(l.Bool || r.Bool), nil
	case domainexpr.Eq:
		return domainexpr.Bool(l.Equal(r)), nil
	case domainexpr.Neq:
		return domainexpr.Bool(!l.Equal(r)), nil
	}

	if l.Kind == domainexpr.ConstFloat || r.Kind == domainexpr.ConstFloat {
		lf, rf := asFloat(l), asFloat(r)
		switch op {
		case domainexpr.Add:
			return domainexpr.Float(lf + rf), nil
		case domainexpr.Sub:
			return domainexpr.Float(lf - rf), nil
		case domainexpr.Mul:
			return domainexpr.Float(lf * rf), nil
		case domainexpr.Div:
			return domainexpr.Float(lf / rf), nil
		case domainexpr.Lt:
			return domainexpr.Bool(lf < rf), nil
		case domainexpr.Leq:
			return domainexpr.Bool(lf <= rf), nil
		case domainexpr.Gt:
			return domainexpr.Bool(lf > rf), nil
		case domainexpr.Geq:
			return domainexpr.Bool(lf >= rf), nil
		default:
			return domainexpr.Constant{}, apperrors.UnsupportedExpr("unsupported float operator")
		}
	}

	if l.Kind == domainexpr.ConstInt && r.Kind == domainexpr.ConstInt {
		switch op {
		case domainexpr.Add:
			return domainexpr.Int(l.Int + r.Int), nil
		case domainexpr.Sub:
			return domainexpr.Int(l.Int - r.Int), nil
		case domainexpr.Mul:
			return domainexpr.Int(l.Int * r.Int), nil
		case domainexpr.Div:
			return domainexpr.Int(l.Int / r.Int), nil
		case domainexpr.Mod:
			return domainexpr.Int(l.Int % r.Int), nil
		case domainexpr.Lt:
			return domainexpr.Bool(l.Int < r.Int), nil
		case domainexpr.Leq:
			return domainexpr.Bool(l.Int <= r.Int), nil
		case domainexpr.Gt:
			return domainexpr.Bool(l.Int > r.Int), nil
		case domainexpr.Geq:
			return domainexpr.Bool(l.Int >= r.Int), nil
		default:
			return domainexpr.Constant{}, apperrors.UnsupportedExpr("unsupported int operator")
		}
	}

	return domainexpr.Constant{}, apperrors.UnsupportedExpr("binary operator on incompatible operand kinds")
}

func asFloat(c domainexpr.Constant) float64 {
	if c.Kind == domainexpr.ConstInt {
		return float64(c.Int)
	}
	return c.Float64
}
