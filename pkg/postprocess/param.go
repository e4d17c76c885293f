package postprocess

import (
	"fmt"
	"iter"
	"slices"

	"github.com/pkg/errors"

	"github.com/askiada/go-postprocess/internal/conv"
)

// Param is an operation parameter. It is either fixed when the operation is built,
// or a placeholder whose value is supplied later by a tuning process.
type Param struct {
	value   any
	tuneID  string
	tunable bool
	set     bool
}

// Fixed returns a parameter with a known value.
func Fixed(v any) Param {
	return Param{value: v, set: true}
}

// Tune returns a placeholder resolved at run time. An empty id defaults to the parameter name.
func Tune(id string) Param {
	return Param{tuneID: id, tunable: true, set: true}
}

// IsZero reports whether the parameter was never set.
func (p Param) IsZero() bool {
	return !p.set
}

func (p Param) Tunable() bool {
	return p.tunable
}

// Value returns the fixed value. It returns false for placeholders and unset parameters.
func (p Param) Value() (any, bool) {
	if !p.set || p.tunable {
		return nil, false
	}

	return p.value, true
}

func (p Param) String() string {
	switch {
	case !p.set:
		return "<unset>"
	case p.tunable && p.tuneID == "":
		return "tune()"
	case p.tunable:
		return fmt.Sprintf("tune(%q)", p.tuneID)
	}

	return fmt.Sprintf("%v", p.value)
}

// Params is the ordered parameter bag of an operation.
type Params struct {
	names  []string
	values map[string]Param
}

// With returns a copy of ps with name set to p. Unset parameters are skipped.
func (ps Params) With(name string, p Param) Params {
	if p.IsZero() {
		return ps
	}

	out := Params{
		names:  slices.Clone(ps.names),
		values: make(map[string]Param, len(ps.values)+1),
	}
	for k, v := range ps.values {
		out.values[k] = v
	}

	if _, ok := out.values[name]; !ok {
		out.names = append(out.names, name)
	}

	out.values[name] = p

	return out
}

func (ps Params) Get(name string) (Param, bool) {
	p, ok := ps.values[name]

	return p, ok
}

func (ps Params) Len() int {
	return len(ps.names)
}

// Names returns the parameter names in insertion order.
func (ps Params) Names() []string {
	return slices.Clone(ps.names)
}

// All iterates over the parameters in insertion order.
func (ps Params) All() iter.Seq2[string, Param] {
	return func(yield func(string, Param) bool) {
		for _, name := range ps.names {
			if !yield(name, ps.values[name]) {
				return
			}
		}
	}
}

// Tunable returns the names of the placeholder parameters.
func (ps Params) Tunable() []string {
	var names []string

	for name, p := range ps.All() {
		if p.Tunable() {
			names = append(names, name)
		}
	}

	return names
}

// ParamRef identifies one parameter of one operation.
type ParamRef struct {
	Operation string
	Parameter string
}

func (r ParamRef) String() string {
	return r.Operation + "." + r.Parameter
}

// Tunable describes a placeholder parameter a tuning process has to fill.
type Tunable struct {
	ParamRef
	ID string
}

// Values holds the tuned parameter values supplied to a run.
type Values map[ParamRef]any

// Set stores the value of parameter of operation and returns v for chaining.
func (v Values) Set(operation, parameter string, value any) Values {
	v[ParamRef{Operation: operation, Parameter: parameter}] = value

	return v
}

// Clone returns a shallow copy of v.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for k, val := range v {
		out[k] = val
	}

	return out
}

func tunables(op Operation) []Tunable {
	params := op.Params()

	out := make([]Tunable, 0, len(params.Tunable()))
	for _, name := range params.Tunable() {
		p, _ := params.Get(name)

		id := p.tuneID
		if id == "" {
			id = name
		}

		out = append(out, Tunable{ParamRef: ParamRef{Operation: op.Name(), Parameter: name}, ID: id})
	}

	return out
}

// Args are the parameter values an operation sees when it is applied.
type Args struct {
	operation string
	values    map[string]any
}

// NewArgs returns args for operation, mostly useful to apply an operation by hand.
func NewArgs(operation string, values map[string]any) Args {
	return Args{operation: operation, values: values}
}

func bindArgs(op Operation, values Values) (Args, error) {
	args := Args{operation: op.Name(), values: make(map[string]any, op.Params().Len())}

	for name, p := range op.Params().All() {
		if !p.Tunable() {
			args.values[name] = p.value

			continue
		}

		v, ok := values[ParamRef{Operation: op.Name(), Parameter: name}]
		if !ok || v == nil {
			return Args{}, &UnresolvedParameterError{Operation: op.Name(), Parameter: name}
		}

		args.values[name] = v
	}

	return args, nil
}

// Value returns the raw value of name.
func (a Args) Value(name string) (any, bool) {
	v, ok := a.values[name]

	return v, ok
}

func (a Args) Float(name string) (float64, error) {
	v, ok := a.values[name]
	if !ok {
		return 0, errors.Wrapf(ErrInvalidParameter, "%s: missing", name)
	}

	f, ok := conv.ToFloat64(v)
	if !ok {
		return 0, errors.Wrapf(ErrInvalidParameter, "%s: %v is not a number", name, v)
	}

	return f, nil
}

// FloatOr returns the value of name, or def when the parameter is absent.
func (a Args) FloatOr(name string, def float64) (float64, error) {
	if _, ok := a.values[name]; !ok {
		return def, nil
	}

	return a.Float(name)
}

func (a Args) String(name string) (string, error) {
	v, ok := a.values[name]
	if !ok {
		return "", errors.Wrapf(ErrInvalidParameter, "%s: missing", name)
	}

	s, ok := conv.ToString(v)
	if !ok {
		return "", errors.Wrapf(ErrInvalidParameter, "%s: %v is not a string", name, v)
	}

	return s, nil
}

// StringOr returns the value of name, or def when the parameter is absent.
func (a Args) StringOr(name, def string) (string, error) {
	if _, ok := a.values[name]; !ok {
		return def, nil
	}

	return a.String(name)
}
