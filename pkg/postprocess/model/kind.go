package model

import "github.com/pkg/errors"

// Kind is the shape of the data an operation consumes or produces.
type Kind string

const (
	KindAny                   Kind = "any"
	KindClassProbabilities    Kind = "class_probabilities"
	KindClassPredictions      Kind = "class_predictions"
	KindRegressionPredictions Kind = "regression_predictions"
)

var ErrInvalidKind = errors.New("invalid kind")

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindAny, KindClassProbabilities, KindClassPredictions, KindRegressionPredictions:
		return true
	}

	return false
}

// Concrete reports whether k describes actual data, i.e. it is valid and not KindAny.
func (k Kind) Concrete() bool {
	return k.Valid() && k != KindAny
}

func (k Kind) String() string {
	return string(k)
}

// ParseKind returns the kind named s.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", errors.Wrapf(ErrInvalidKind, "%q", s)
	}

	return k, nil
}

// Compatible reports whether data produced as producer may be consumed as consumer.
func Compatible(producer, consumer Kind) bool {
	return producer == consumer || producer == KindAny || consumer == KindAny
}
