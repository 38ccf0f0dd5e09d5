package sqlbuilder

import (
	"github.com/goccy/go-json"

	"github.com/ajitpratap0/tabula/pkg/tabulaerrors"
	"github.com/ajitpratap0/tabula/pkg/value"
)

// Conjunction joins two filter terms.
type Conjunction int

const (
	And Conjunction = iota
	Or
)

func (c Conjunction) String() string {
	if c == Or {
		return "OR"
	}
	return "AND"
}

// Operator is the comparison of an Equation.
type Operator string

const (
	OpEqual        Operator = "eq"
	OpNotEqual     Operator = "ne"
	OpGreater      Operator = "gt"
	OpGreaterEqual Operator = "ge"
	OpLess         Operator = "lt"
	OpLessEqual    Operator = "le"
	OpIn           Operator = "in"
	OpBetween      Operator = "between"
	OpLike         Operator = "like"
	OpNot          Operator = "not"
)

// Equation is the right hand side of a condition. Build it with the
// constructors below; the operator decides which fields are meaningful.
type Equation struct {
	Op      Operator
	Values  []value.Value
	Pattern string
}

func Equal(v value.Value) Equation    { return Equation{Op: OpEqual, Values: []value.Value{v}} }
func NotEqual(v value.Value) Equation { return Equation{Op: OpNotEqual, Values: []value.Value{v}} }
func Greater(v value.Value) Equation  { return Equation{Op: OpGreater, Values: []value.Value{v}} }
func GreaterEqual(v value.Value) Equation {
	return Equation{Op: OpGreaterEqual, Values: []value.Value{v}}
}
func Less(v value.Value) Equation      { return Equation{Op: OpLess, Values: []value.Value{v}} }
func LessEqual(v value.Value) Equation { return Equation{Op: OpLessEqual, Values: []value.Value{v}} }
func In(vs ...value.Value) Equation    { return Equation{Op: OpIn, Values: vs} }
func Between(lo, hi value.Value) Equation {
	return Equation{Op: OpBetween, Values: []value.Value{lo, hi}}
}
func Like(pattern string) Equation { return Equation{Op: OpLike, Pattern: pattern} }
func Not() Equation                { return Equation{Op: OpNot} }

func (e Equation) validate() error {
	want := -1
	switch e.Op {
	case OpEqual, OpNotEqual, OpGreater, OpGreaterEqual, OpLess, OpLessEqual:
		want = 1
	case OpBetween:
		want = 2
	case OpLike, OpNot:
		want = 0
	case OpIn:
		if len(e.Values) == 0 {
			return tabulaerrors.New(tabulaerrors.ErrorTypeValidation, "IN needs at least one value")
		}
		return nil
	default:
		return tabulaerrors.Newf(tabulaerrors.ErrorTypeValidation, "unknown operator %q", e.Op)
	}
	if len(e.Values) != want {
		return tabulaerrors.Newf(tabulaerrors.ErrorTypeValidation,
			"operator %s takes %d values, got %d", e.Op, want, len(e.Values))
	}
	return nil
}

// Condition is a leaf predicate on one column.
type Condition struct {
	Column   string
	Equation Equation
}

// Cond builds a condition.
func Cond(column string, eq Equation) Condition {
	return Condition{Column: column, Equation: eq}
}

// Expression is one node of a filter: a Conjunction, a Condition or a Nest.
type Expression interface {
	expression()
}

// Nest is a parenthesised sub-filter.
type Nest struct {
	Expressions Expressions
}

func (Conjunction) expression() {}
func (Condition) expression()   {}
func (Nest) expression()        {}

// Expressions is an immutable, well formed filter: leaves and conjunctions
// alternate, starting and ending with a leaf. Values are produced by the
// builder or by JSON decoding, both of which enforce the shape.
type Expressions struct {
	nodes []Expression
}

// Nodes returns a copy of the node sequence.
func (e Expressions) Nodes() []Expression {
	return append([]Expression(nil), e.nodes...)
}

// Len is the number of top level nodes.
func (e Expressions) Len() int { return len(e.nodes) }

// IsEmpty reports whether the filter has no nodes; only the zero value is.
func (e Expressions) IsEmpty() bool { return len(e.nodes) == 0 }

// AfterLeaf is the builder state after a condition or a nested group. Only a
// conjunction may follow, or the filter may be finished.
type AfterLeaf struct {
	nodes []Expression
}

// AfterConjunction is the builder state after AND or OR. Only a condition or
// a nested group may follow; there is no way to finish from here.
type AfterConjunction struct {
	nodes []Expression
}

// FromCondition starts a filter with a single condition.
func FromCondition(c Condition) AfterLeaf {
	return AfterLeaf{nodes: []Expression{c}}
}

// FromExpressions starts a filter with a nested group.
func FromExpressions(e Expressions) AfterLeaf {
	return AfterLeaf{nodes: []Expression{Nest{Expressions: e}}}
}

func extend(nodes []Expression, n Expression) []Expression {
	out := make([]Expression, len(nodes)+1)
	copy(out, nodes)
	out[len(nodes)] = n
	return out
}

func (b AfterLeaf) Append(c Conjunction) AfterConjunction {
	return AfterConjunction{nodes: extend(b.nodes, c)}
}

func (b AfterLeaf) And() AfterConjunction { return b.Append(And) }
func (b AfterLeaf) Or() AfterConjunction  { return b.Append(Or) }

// Finish freezes the filter.
func (b AfterLeaf) Finish() Expressions {
	return Expressions{nodes: append([]Expression(nil), b.nodes...)}
}

func (b AfterConjunction) Condition(c Condition) AfterLeaf {
	return AfterLeaf{nodes: extend(b.nodes, c)}
}

func (b AfterConjunction) Nest(e Expressions) AfterLeaf {
	return AfterLeaf{nodes: extend(b.nodes, Nest{Expressions: e})}
}

// Where is shorthand for a filter of one condition.
func Where(column string, eq Equation) Expressions {
	return FromCondition(Cond(column, eq)).Finish()
}

type conditionWire struct {
	Column  string         `json:"column"`
	Op      Operator       `json:"op"`
	Values  []value.Tagged `json:"values,omitempty"`
	Pattern string         `json:"pattern,omitempty"`
}

type nodeWire struct {
	Conjunction *string        `json:"conjunction,omitempty"`
	Condition   *conditionWire `json:"condition,omitempty"`
	Nest        *Expressions   `json:"nest,omitempty"`
}

// MarshalJSON encodes the filter as an array of nodes.
func (e Expressions) MarshalJSON() ([]byte, error) {
	wire := make([]nodeWire, len(e.nodes))
	for i, n := range e.nodes {
		switch x := n.(type) {
		case Conjunction:
			s := x.String()
			wire[i].Conjunction = &s
		case Condition:
			wire[i].Condition = &conditionWire{
				Column:  x.Column,
				Op:      x.Equation.Op,
				Values:  value.TaggedSlice(x.Equation.Values),
				Pattern: x.Equation.Pattern,
			}
		case Nest:
			nested := x.Expressions
			wire[i].Nest = &nested
		}
	}
	return json.Marshal(wire)
}

// UnmarshalJSON decodes and re-checks the alternation of leaves and
// conjunctions, so a malformed filter cannot enter through JSON either.
func (e *Expressions) UnmarshalJSON(data []byte) error {
	var wire []nodeWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	if len(wire) == 0 {
		return tabulaerrors.New(tabulaerrors.ErrorTypeValidation, "filter must not be empty")
	}

	nodes := make([]Expression, len(wire))
	for i, w := range wire {
		set := 0
		if w.Conjunction != nil {
			set++
		}
		if w.Condition != nil {
			set++
		}
		if w.Nest != nil {
			set++
		}
		if set != 1 {
			return tabulaerrors.Newf(tabulaerrors.ErrorTypeValidation,
				"filter node %d must have exactly one of conjunction, condition, nest", i)
		}

		wantLeaf := i%2 == 0
		switch {
		case w.Conjunction != nil:
			if wantLeaf {
				return tabulaerrors.Newf(tabulaerrors.ErrorTypeValidation, "unexpected conjunction at node %d", i)
			}
			switch *w.Conjunction {
			case "AND":
				nodes[i] = And
			case "OR":
				nodes[i] = Or
			default:
				return tabulaerrors.Newf(tabulaerrors.ErrorTypeValidation, "unknown conjunction %q", *w.Conjunction)
			}
		case w.Condition != nil:
			if !wantLeaf {
				return tabulaerrors.Newf(tabulaerrors.ErrorTypeValidation, "expected conjunction at node %d", i)
			}
			c := Condition{
				Column: w.Condition.Column,
				Equation: Equation{
					Op:      w.Condition.Op,
					Values:  value.Untag(w.Condition.Values),
					Pattern: w.Condition.Pattern,
				},
			}
			if err := c.Equation.validate(); err != nil {
				return err
			}
			nodes[i] = c
		default:
			if !wantLeaf {
				return tabulaerrors.Newf(tabulaerrors.ErrorTypeValidation, "expected conjunction at node %d", i)
			}
			nodes[i] = Nest{Expressions: *w.Nest}
		}
	}
	if len(nodes)%2 == 0 {
		return tabulaerrors.New(tabulaerrors.ErrorTypeValidation, "filter must not end with a conjunction")
	}

	e.nodes = nodes
	return nil
}
