package postprocess

import (
	"context"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/pkg/errors"

	"github.com/askiada/go-postprocess/pkg/postprocess/model"
)

var (
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

// mutateEnv returns the shared CEL environment. A row is exposed as
// row.id, row.probabilities, row.class, row.value and row.extra.
func mutateEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("row", cel.MapType(cel.StringType, cel.DynType)),
		)
	})

	return celEnv, celEnvErr
}

// Column is a derived column computed by a CEL expression.
type Column struct {
	Name string
	Expr string
}

// MutateConfig configures a Mutate operation.
type MutateConfig struct {
	Columns []Column
	// Kind restricts the tables the operation accepts. It defaults to model.KindAny.
	Kind model.Kind
}

// Mutate adds columns to the extra fields of every row. Columns are evaluated in
// order and later expressions can read earlier columns through row.extra.
type Mutate struct {
	base
	kind     model.Kind
	columns  []Column
	programs []cel.Program
}

func NewMutate(name string, priority float64, cfg MutateConfig) (*Mutate, error) {
	b, err := newBase(name, priority)
	if err != nil {
		return nil, err
	}

	if len(cfg.Columns) == 0 {
		return nil, errors.Wrapf(ErrInvalidParameter, "%s: at least one column is required", name)
	}

	if cfg.Kind == "" {
		cfg.Kind = model.KindAny
	}

	if !cfg.Kind.Valid() {
		return nil, errors.Wrapf(model.ErrInvalidKind, "%s: %q", name, cfg.Kind)
	}

	env, err := mutateEnv()
	if err != nil {
		return nil, errors.Wrap(err, "unable to create CEL environment")
	}

	m := &Mutate{base: b, kind: cfg.Kind, columns: make([]Column, 0, len(cfg.Columns))}
	for _, col := range cfg.Columns {
		if col.Name == "" {
			return nil, errors.Wrapf(ErrInvalidParameter, "%s: column name must be set", name)
		}

		if _, ok := m.params.Get(col.Name); ok {
			return nil, errors.Wrapf(ErrInvalidParameter, "%s: column %q defined twice", name, col.Name)
		}

		ast, issues := env.Compile(col.Expr)
		if issues != nil && issues.Err() != nil {
			return nil, errors.Wrapf(ErrInvalidParameter, "%s: column %q: %v", name, col.Name, issues.Err())
		}

		prg, err := env.Program(ast)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: column %q", name, col.Name)
		}

		m.columns = append(m.columns, col)
		m.programs = append(m.programs, prg)
		m.params = m.params.With(col.Name, Fixed(col.Expr))
	}

	return m, nil
}

func (*Mutate) Type() string {
	return "mutate"
}

func (m *Mutate) InputKind() model.Kind {
	return m.kind
}

func (m *Mutate) OutputKind() model.Kind {
	return m.kind
}

func (m *Mutate) Columns() []Column {
	return append([]Column(nil), m.columns...)
}

func (m *Mutate) Apply(ctx context.Context, in *model.Table, _ Args) (*model.Table, error) {
	return in.Map(in.Kind(), func(_ int, row model.Row) (model.Row, error) {
		probs := make(map[string]any, len(row.Probabilities))
		for k, v := range row.Probabilities {
			probs[k] = v
		}

		extra := make(map[string]any, len(row.Extra)+len(m.columns))
		for k, v := range row.Extra {
			extra[k] = v
		}

		activation := map[string]any{
			"row": map[string]any{
				"id":            row.ID,
				"probabilities": probs,
				"class":         row.Class,
				"value":         row.Value,
				"extra":         extra,
			},
		}

		for i, prg := range m.programs {
			out, _, err := prg.ContextEval(ctx, activation)
			if err != nil {
				return row, errors.Wrapf(err, "column %q", m.columns[i].Name)
			}

			extra[m.columns[i].Name] = out.Value()
		}

		row.Extra = extra

		return row, nil
	})
}
