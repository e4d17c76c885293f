package measure

import (
	"time"

	"github.com/askiada/go-postprocess/pkg/postprocess/model"
)

type pipelineMeasure struct {
	Measure
}

func (pm *pipelineMeasure) OnOperationOutput(parent, op *model.OperationInfo, rows int, computation time.Duration) error {
	mt := pm.AddMetric(op.Name)
	mt.AddDuration(computation)
	mt.AddInput(parent.Name, rows)

	return nil
}

func (pm *pipelineMeasure) OnOperationError(op *model.OperationInfo, _ error) error {
	pm.AddMetric(op.Name).AddError()

	return nil
}

func (pm *pipelineMeasure) AfterRun(_ []*model.OperationInfo, total time.Duration) error {
	end := pm.AddMetric(model.EndOperation.Name)
	end.AddDuration(total)
	end.SetTotalDuration(total)

	return nil
}

// PipelineMeasure records the duration and the row counts of every operation into measure.
func PipelineMeasure(measure Measure) model.Observer {
	return &pipelineMeasure{measure}
}
