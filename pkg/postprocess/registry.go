package postprocess

import (
	"iter"
	"slices"
)

// Registry holds operations by name and remembers their registration order.
// It is not safe for concurrent use, Pipeline guards it.
type Registry struct {
	ops   map[string]Operation
	order []string
}

func NewRegistry() *Registry {
	return &Registry{
		ops:   make(map[string]Operation),
		order: make([]string, 0),
	}
}

// Add registers op after every other operation.
func (r *Registry) Add(op Operation) error {
	err := checkOperation(op)
	if err != nil {
		return err
	}

	if _, ok := r.ops[op.Name()]; ok {
		return &DuplicateNameError{Name: op.Name()}
	}

	r.ops[op.Name()] = op
	r.order = append(r.order, op.Name())

	return nil
}

// Update replaces the operation registered as name. The replacement keeps the
// registration slot, and may be renamed as long as the new name is free.
func (r *Registry) Update(name string, op Operation) error {
	if _, ok := r.ops[name]; !ok {
		return &NotFoundError{Name: name}
	}

	err := checkOperation(op)
	if err != nil {
		return err
	}

	if op.Name() != name {
		if _, ok := r.ops[op.Name()]; ok {
			return &DuplicateNameError{Name: op.Name()}
		}

		delete(r.ops, name)
		r.order[slices.Index(r.order, name)] = op.Name()
	}

	r.ops[op.Name()] = op

	return nil
}

func (r *Registry) Remove(name string) error {
	if _, ok := r.ops[name]; !ok {
		return &NotFoundError{Name: name}
	}

	delete(r.ops, name)
	r.order = slices.DeleteFunc(r.order, func(n string) bool { return n == name })

	return nil
}

func (r *Registry) Get(name string) (Operation, error) {
	op, ok := r.ops[name]
	if !ok {
		return nil, &NotFoundError{Name: name}
	}

	return op, nil
}

func (r *Registry) Len() int {
	return len(r.order)
}

// List lazily yields the operations in registration order. This is not the execution order.
// The registry must not be modified while the sequence is consumed.
func (r *Registry) List() iter.Seq[Operation] {
	return func(yield func(Operation) bool) {
		for _, name := range r.order {
			if !yield(r.ops[name]) {
				return
			}
		}
	}
}

// snapshot returns the operations in registration order.
func (r *Registry) snapshot() []Operation {
	ops := make([]Operation, len(r.order))
	for i, name := range r.order {
		ops[i] = r.ops[name]
	}

	return ops
}

// Clone returns an independent copy of the registry.
func (r *Registry) Clone() *Registry {
	clone := NewRegistry()
	for _, op := range r.snapshot() {
		clone.ops[op.Name()] = op
		clone.order = append(clone.order, op.Name())
	}

	return clone
}

func listOf(ops []Operation) iter.Seq[Operation] {
	return func(yield func(Operation) bool) {
		for _, op := range ops {
			if !yield(op) {
				return
			}
		}
	}
}
