// Package expr defines the pure (non-stream) expression kinds: the
// pointwise operators, control flow, and data-structure operations that
// have no notion of time. Every kind is generic over the recursive
// expression type E it is embedded in, so the very same definitions serve
// both a "no nested stream expressions allowed" dialect and the full
// stream-expression language, by instantiating E accordingly. The stream
// package instantiates E as *stream.Expr.
package expr

import "github.com/duragraph/duragraph/internal/domain/ir/core"

// UOp is a unary pointwise operator.
type UOp int

const (
	Not UOp = iota
	Neg
)

func (op UOp) String() string {
	switch op {
	case Not:
		return "not"
	case Neg:
		return "neg"
	default:
		return "unknown"
	}
}

// BOp is a binary pointwise operator.
type BOp int

const (
	And BOp = iota
	Or
	Add
	Sub
	Mul
	Div
	Mod
	Eq
	Neq
	Lt
	Leq
	Gt
	Geq
)

func (op BOp) String() string {
	switch op {
	case And:
		return "and"
	case Or:
		return "or"
	case Add:
		return "add"
	case Sub:
		return "sub"
	case Mul:
		return "mul"
	case Div:
		return "div"
	case Mod:
		return "mod"
	case Eq:
		return "eq"
	case Neq:
		return "neq"
	case Lt:
		return "lt"
	case Leq:
		return "leq"
	case Gt:
		return "gt"
	case Geq:
		return "geq"
	default:
		return "unknown"
	}
}

// ConstantKind tags which field of Constant is meaningful.
type ConstantKind int

const (
	ConstInt ConstantKind = iota
	ConstBool
	ConstFloat
	ConstString
)

// Constant is a literal value. Type inference on literals is an external
// collaborator; the core only carries the value through.
type Constant struct {
	Kind    ConstantKind
	Int     int64
	Bool    bool
	Float64 float64
	Str     string
}

func Int(n int64) Constant      { return Constant{Kind: ConstInt, Int: n} }
func Bool(b bool) Constant       { return Constant{Kind: ConstBool, Bool: b} }
func Float(f float64) Constant   { return Constant{Kind: ConstFloat, Float64: f} }
func String(s string) Constant   { return Constant{Kind: ConstString, Str: s} }

// Equal reports whether c and other carry the same value, used by the
// runtime kernel's change detection (a context field is only marked fresh
// when its new value is unequal to what it already held).
func (c Constant) Equal(other Constant) bool {
	if c.Kind != other.Kind {
		return false
	}
	switch c.Kind {
	case ConstInt:
		return c.Int == other.Int
	case ConstBool:
		return c.Bool == other.Bool
	case ConstFloat:
		return c.Float64 == other.Float64
	case ConstString:
		return c.Str == other.Str
	default:
		return false
	}
}

// Tag discriminates the variant held by a Kind value.
type Tag int

const (
	TagConstant Tag = iota
	TagIdentifier
	TagUnOp
	TagBinOp
	TagIfThenElse
	TagApplication
	TagAbstraction
	TagStructure
	TagEnumeration
	TagArray
	TagTuple
	TagMatch
	TagFieldAccess
	TagTupleElementAccess
	TagMap
	TagFold
	TagSort
	TagZip
)

// Field is one named member of a Structure literal.
type Field[E any] struct {
	ID   int
	Expr E
}

// Arm is one branch of a Match: an optional guard, a sequence of local
// statements evaluated only when the arm is taken, and a result
// expression. Guard and Body are nil/empty outside match arms.
type Arm[E any] struct {
	Pattern core.Pattern
	Guard   *E
	Body    []core.Stmt[E]
	Result  E
}

// Kind is the sum of every pure-expression shape, parameterized over the
// recursive expression type E. Exactly one group of fields is meaningful,
// selected by Tag; the rest are zero. A tagged struct is used instead of
// one interface implementation per variant so that the middle-end passes
// (which must exhaustively handle every shape, often several times over)
// stay a single type switch on Tag rather than a type assertion per kind.
type Kind[E any] struct {
	Tag Tag

	ConstantValue Constant
	IdentifierID  int

	UnOpOp   UOp
	UnOpExpr E

	BinOpOp  BOp
	BinOpLft E
	BinOpRgt E

	IfCnd E
	IfThn E
	IfEls E

	AppFun    E
	AppInputs []E

	AbsInputs []int
	AbsExpr   E

	StructID     int
	StructFields []Field[E]

	EnumEnumID int
	EnumElemID int

	ArrayElements []E
	TupleElements []E

	MatchExpr E
	MatchArms []Arm[E]

	FieldAccessExpr  E
	FieldAccessField string

	TupleAccessExpr    E
	TupleAccessElement int

	MapExpr E
	MapFun  E

	FoldArray E
	FoldInit  E
	FoldFun   E

	SortExpr E
	SortFun  E

	ZipArrays []E
}

func NewConstant[E any](c Constant) Kind[E] { return Kind[E]{Tag: TagConstant, ConstantValue: c} }

func NewIdentifier[E any](id int) Kind[E] { return Kind[E]{Tag: TagIdentifier, IdentifierID: id} }

func NewUnOp[E any](op UOp, e E) Kind[E] { return Kind[E]{Tag: TagUnOp, UnOpOp: op, UnOpExpr: e} }

func NewBinOp[E any](op BOp, lft, rgt E) Kind[E] {
	return Kind[E]{Tag: TagBinOp, BinOpOp: op, BinOpLft: lft, BinOpRgt: rgt}
}

func NewIfThenElse[E any](cnd, thn, els E) Kind[E] {
	return Kind[E]{Tag: TagIfThenElse, IfCnd: cnd, IfThn: thn, IfEls: els}
}

func NewApplication[E any](fun E, inputs []E) Kind[E] {
	return Kind[E]{Tag: TagApplication, AppFun: fun, AppInputs: inputs}
}

func NewAbstraction[E any](inputs []int, e E) Kind[E] {
	return Kind[E]{Tag: TagAbstraction, AbsInputs: inputs, AbsExpr: e}
}

func NewStructure[E any](id int, fields []Field[E]) Kind[E] {
	return Kind[E]{Tag: TagStructure, StructID: id, StructFields: fields}
}

func NewEnumeration[E any](enumID, elemID int) Kind[E] {
	return Kind[E]{Tag: TagEnumeration, EnumEnumID: enumID, EnumElemID: elemID}
}

func NewArray[E any](elements []E) Kind[E] { return Kind[E]{Tag: TagArray, ArrayElements: elements} }

func NewTuple[E any](elements []E) Kind[E] { return Kind[E]{Tag: TagTuple, TupleElements: elements} }

func NewMatch[E any](e E, arms []Arm[E]) Kind[E] {
	return Kind[E]{Tag: TagMatch, MatchExpr: e, MatchArms: arms}
}

func NewFieldAccess[E any](e E, field string) Kind[E] {
	return Kind[E]{Tag: TagFieldAccess, FieldAccessExpr: e, FieldAccessField: field}
}

func NewTupleElementAccess[E any](e E, element int) Kind[E] {
	return Kind[E]{Tag: TagTupleElementAccess, TupleAccessExpr: e, TupleAccessElement: element}
}

func NewMap[E any](e, fun E) Kind[E] { return Kind[E]{Tag: TagMap, MapExpr: e, MapFun: fun} }

func NewFold[E any](array, init, fun E) Kind[E] {
	return Kind[E]{Tag: TagFold, FoldArray: array, FoldInit: init, FoldFun: fun}
}

func NewSort[E any](e, fun E) Kind[E] { return Kind[E]{Tag: TagSort, SortExpr: e, SortFun: fun} }

func NewZip[E any](arrays []E) Kind[E] { return Kind[E]{Tag: TagZip, ZipArrays: arrays} }

// Children returns every immediate sub-expression of k, in evaluation
// order. Match arms contribute their guard (if present) and result, but
// not their body statements: those are walked by the caller through
// core.Stmt, since a Stmt may itself recurse into further nested
// expressions that Children alone cannot see.
func (k Kind[E]) Children() []E {
	switch k.Tag {
	case TagConstant, TagIdentifier, TagEnumeration:
		return nil
	case TagUnOp:
		return []E{k.UnOpExpr}
	case TagBinOp:
		return []E{k.BinOpLft, k.BinOpRgt}
	case TagIfThenElse:
		return []E{k.IfCnd, k.IfThn, k.IfEls}
	case TagApplication:
		out := append([]E{k.AppFun}, k.AppInputs...)
		return out
	case TagAbstraction:
		return []E{k.AbsExpr}
	case TagStructure:
		out := make([]E, 0, len(k.StructFields))
		for _, f := range k.StructFields {
			out = append(out, f.Expr)
		}
		return out
	case TagArray:
		return append([]E(nil), k.ArrayElements...)
	case TagTuple:
		return append([]E(nil), k.TupleElements...)
	case TagMatch:
		out := []E{k.MatchExpr}
		for _, a := range k.MatchArms {
			if a.Guard != nil {
				out = append(out, *a.Guard)
			}
			out = append(out, a.Result)
		}
		return out
	case TagFieldAccess:
		return []E{k.FieldAccessExpr}
	case TagTupleElementAccess:
		return []E{k.TupleAccessExpr}
	case TagMap:
		return []E{k.MapExpr, k.MapFun}
	case TagFold:
		return []E{k.FoldArray, k.FoldInit, k.FoldFun}
	case TagSort:
		return []E{k.SortExpr, k.SortFun}
	case TagZip:
		return append([]E(nil), k.ZipArrays...)
	default:
		return nil
	}
}
