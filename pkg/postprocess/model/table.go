package model

import (
	"encoding/json"
	"maps"
	"slices"

	"github.com/pkg/errors"
)

var (
	ErrMissingLevels = errors.New("class tables need at least two levels")
	ErrUnknownLevel  = errors.New("unknown level")
	ErrRowIndex      = errors.New("row index out of range")
)

// Row is a single sample of a prediction table.
// Which fields are meaningful depends on the kind of the table holding it.
type Row struct {
	ID            string             `json:"id,omitempty"`
	Probabilities map[string]float64 `json:"probabilities,omitempty"`
	Class         string             `json:"class,omitempty"`
	Value         float64            `json:"value,omitempty"`
	Extra         map[string]any     `json:"extra,omitempty"`
}

// Clone returns a deep copy of the row maps.
func (r Row) Clone() Row {
	r.Probabilities = maps.Clone(r.Probabilities)
	r.Extra = maps.Clone(r.Extra)

	return r
}

// Probability returns the probability of level.
func (r Row) Probability(level string) (float64, bool) {
	p, ok := r.Probabilities[level]

	return p, ok
}

// Table is an immutable batch of predictions.
// Every transformation returns a new table, the receiver is never modified.
type Table struct {
	kind   Kind
	levels []string
	rows   []Row
}

// NewTable creates a table after checking the rows against kind and levels.
func NewTable(kind Kind, levels []string, rows []Row) (*Table, error) {
	if !kind.Concrete() {
		return nil, errors.Wrapf(ErrInvalidKind, "table kind %q", kind)
	}

	if kind != KindRegressionPredictions && len(levels) < 2 {
		return nil, ErrMissingLevels
	}

	tbl := &Table{
		kind:   kind,
		levels: slices.Clone(levels),
		rows:   make([]Row, len(rows)),
	}
	for i, row := range rows {
		err := tbl.check(row)
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", i)
		}

		tbl.rows[i] = row.Clone()
	}

	return tbl, nil
}

// NewProbabilities creates a class probabilities table.
func NewProbabilities(levels []string, rows ...Row) (*Table, error) {
	return NewTable(KindClassProbabilities, levels, rows)
}

// NewClassPredictions creates a hard class predictions table.
func NewClassPredictions(levels []string, rows ...Row) (*Table, error) {
	return NewTable(KindClassPredictions, levels, rows)
}

// NewRegression creates a numeric predictions table.
func NewRegression(rows ...Row) (*Table, error) {
	return NewTable(KindRegressionPredictions, nil, rows)
}

func (t *Table) check(row Row) error {
	switch t.kind {
	case KindClassProbabilities:
		for level := range row.Probabilities {
			if !t.HasLevel(level) {
				return errors.Wrapf(ErrUnknownLevel, "%q", level)
			}
		}
	case KindClassPredictions:
		if row.Class != "" && row.Class != EquivocalClass && !t.HasLevel(row.Class) {
			return errors.Wrapf(ErrUnknownLevel, "%q", row.Class)
		}
	}

	return nil
}

// EquivocalClass marks a sample whose class could not be decided.
const EquivocalClass = "[EQ]"

func (t *Table) Kind() Kind {
	return t.kind
}

// Levels returns a copy of the class levels.
func (t *Table) Levels() []string {
	return slices.Clone(t.levels)
}

// HasLevel reports whether level is one of the table levels.
func (t *Table) HasLevel(level string) bool {
	return slices.Contains(t.levels, level)
}

func (t *Table) Len() int {
	return len(t.rows)
}

// Row returns a copy of the i-th row.
func (t *Table) Row(i int) (Row, error) {
	if i < 0 || i >= len(t.rows) {
		return Row{}, errors.Wrapf(ErrRowIndex, "%d", i)
	}

	return t.rows[i].Clone(), nil
}

// Rows returns a copy of every row.
func (t *Table) Rows() []Row {
	rows := make([]Row, len(t.rows))
	for i, row := range t.rows {
		rows[i] = row.Clone()
	}

	return rows
}

// Map builds a new table of kind by applying fn to a copy of every row.
// The new table keeps the receiver levels.
func (t *Table) Map(kind Kind, fn func(i int, row Row) (Row, error)) (*Table, error) {
	rows := make([]Row, len(t.rows))
	for i, row := range t.rows {
		out, err := fn(i, row.Clone())
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", i)
		}

		rows[i] = out
	}

	return NewTable(kind, t.levels, rows)
}

type tableJSON struct {
	Kind   Kind     `json:"kind"`
	Levels []string `json:"levels,omitempty"`
	Rows   []Row    `json:"rows"`
}

// regressionRowJSON always carries value, 0 being a valid estimate.
type regressionRowJSON struct {
	ID            string             `json:"id,omitempty"`
	Probabilities map[string]float64 `json:"probabilities,omitempty"`
	Class         string             `json:"class,omitempty"`
	Value         float64            `json:"value"`
	Extra         map[string]any     `json:"extra,omitempty"`
}

func (t *Table) MarshalJSON() ([]byte, error) {
	if t.kind != KindRegressionPredictions {
		return json.Marshal(tableJSON{Kind: t.kind, Levels: t.levels, Rows: t.rows})
	}

	rows := make([]regressionRowJSON, len(t.rows))
	for i, row := range t.rows {
		rows[i] = regressionRowJSON(row)
	}

	return json.Marshal(struct {
		Kind   Kind                `json:"kind"`
		Levels []string            `json:"levels,omitempty"`
		Rows   []regressionRowJSON `json:"rows"`
	}{Kind: t.kind, Levels: t.levels, Rows: rows})
}

func (t *Table) UnmarshalJSON(data []byte) error {
	var raw tableJSON

	err := json.Unmarshal(data, &raw)
	if err != nil {
		return errors.Wrap(err, "unable to decode table")
	}

	tbl, err := NewTable(raw.Kind, raw.Levels, raw.Rows)
	if err != nil {
		return err
	}

	*t = *tbl

	return nil
}
