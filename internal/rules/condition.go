package rules

import (
	"encoding/json"
	"fmt"
)

// Op is a numeric comparison operator.
type Op string

const (
	OpEq         Op = "Eq"
	OpNeq        Op = "Neq"
	OpLt         Op = "Lt"
	OpLte        Op = "Lte"
	OpGt         Op = "Gt"
	OpGte        Op = "Gte"
	OpBetween    Op = "Between"
	OpNotBetween Op = "NotBetween"
)

// IsRange reports whether the operator takes two bounds.
func (o Op) IsRange() bool {
	return o == OpBetween || o == OpNotBetween
}

func (o Op) valid() bool {
	switch o {
	case OpEq, OpNeq, OpLt, OpLte, OpGt, OpGte, OpBetween, OpNotBetween:
		return true
	}
	return false
}

// Condition compares a value against one bound, or against the inclusive
// range [A, B] for Between and NotBetween.
type Condition struct {
	Op Op
	A  float32
	B  float32
}

func Eq(v float32) Condition  { return Condition{Op: OpEq, A: v} }
func Neq(v float32) Condition { return Condition{Op: OpNeq, A: v} }
func Lt(v float32) Condition  { return Condition{Op: OpLt, A: v} }
func Lte(v float32) Condition { return Condition{Op: OpLte, A: v} }
func Gt(v float32) Condition  { return Condition{Op: OpGt, A: v} }
func Gte(v float32) Condition { return Condition{Op: OpGte, A: v} }

func Between(a, b float32) Condition    { return Condition{Op: OpBetween, A: a, B: b} }
func NotBetween(a, b float32) Condition { return Condition{Op: OpNotBetween, A: a, B: b} }

// Eval reports whether v satisfies the condition.
func (c Condition) Eval(v float32) bool {
	switch c.Op {
	case OpEq:
		return v == c.A
	case OpNeq:
		return v != c.A
	case OpLt:
		return v < c.A
	case OpLte:
		return v <= c.A
	case OpGt:
		return v > c.A
	case OpGte:
		return v >= c.A
	case OpBetween:
		return c.A <= v && v <= c.B
	case OpNotBetween:
		return c.A > v || v > c.B
	}
	return false
}

// EvalCount is Eval on a count.
func (c Condition) EvalCount(n int) bool {
	return c.Eval(float32(n))
}

func (c Condition) String() string {
	if c.Op.IsRange() {
		return fmt.Sprintf("%s[%g, %g]", c.Op, c.A, c.B)
	}
	return fmt.Sprintf("%s %g", c.Op, c.A)
}

type conditionJSON struct {
	Type  Op              `json:"type"`
	Value json.RawMessage `json:"value"`
}

func (c Condition) MarshalJSON() ([]byte, error) {
	var value any = c.A
	if c.Op.IsRange() {
		value = [2]float32{c.A, c.B}
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(conditionJSON{Type: c.Op, Value: raw})
}

// UnmarshalJSON accepts {"type":"Gt","value":3} and
// {"type":"Between","value":[1,2]}.
func (c *Condition) UnmarshalJSON(data []byte) error {
	var aux conditionJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if !aux.Type.valid() {
		return fmt.Errorf("unknown condition type %q", aux.Type)
	}
	if len(aux.Value) == 0 {
		return fmt.Errorf("condition %s: value is required", aux.Type)
	}
	out := Condition{Op: aux.Type}
	if aux.Type.IsRange() {
		var bounds []float32
		if err := json.Unmarshal(aux.Value, &bounds); err != nil {
			return fmt.Errorf("condition %s: %w", aux.Type, err)
		}
		if len(bounds) != 2 {
			return fmt.Errorf("condition %s: expected 2 values, got %d", aux.Type, len(bounds))
		}
		out.A, out.B = bounds[0], bounds[1]
	} else if err := json.Unmarshal(aux.Value, &out.A); err != nil {
		return fmt.Errorf("condition %s: %w", aux.Type, err)
	}
	*c = out
	return nil
}
