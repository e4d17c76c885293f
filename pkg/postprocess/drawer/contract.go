package drawer

import (
	"github.com/askiada/go-postprocess/pkg/postprocess/measure"
	"github.com/askiada/go-postprocess/pkg/postprocess/model"
)

// Drawer is an interface that defines the methods for drawing a resolved plan.
type Drawer interface {
	// AddStep adds a step producing kind to the drawing.
	AddStep(stepName string, kind model.Kind) error
	// AddLink adds a link carrying kind between parent and children steps.
	AddLink(parentStepName, childrenStepName string, kind model.Kind) error
	// Draw writes the graph.
	Draw() error
	// AddMeasure adds a measure to the drawing.
	AddMeasure(measure measure.Measure) error
}
