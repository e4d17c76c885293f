package drawer

import (
	"github.com/pkg/errors"

	"github.com/askiada/go-postprocess/pkg/postprocess"
	"github.com/askiada/go-postprocess/pkg/postprocess/measure"
	"github.com/askiada/go-postprocess/pkg/postprocess/model"
)

// DrawPlan draws the predictor, every step of plan and the end step, linked in
// execution order. msr is optional.
func DrawPlan(d Drawer, plan *postprocess.Plan, msr measure.Measure) error {
	if plan == nil {
		return postprocess.ErrPlanMustBeSet
	}

	predictor := plan.PredictorInfo()

	err := d.AddStep(predictor.Name, predictor.Output)
	if err != nil {
		return errors.Wrap(err, "unable to add predictor to drawer")
	}

	parent := predictor
	for _, info := range plan.Info() {
		err := d.AddStep(info.Name, info.Output)
		if err != nil {
			return err
		}

		err = d.AddLink(parent.Name, info.Name, parent.Output)
		if err != nil {
			return err
		}

		parent = info
	}

	err = d.AddStep(model.EndOperation.Name, plan.OutputKind())
	if err != nil {
		return errors.Wrap(err, "unable to add end step to drawer")
	}

	err = d.AddLink(parent.Name, model.EndOperation.Name, plan.OutputKind())
	if err != nil {
		return err
	}

	if msr != nil {
		err = d.AddMeasure(msr)
		if err != nil {
			return errors.Wrap(err, "unable to add measure")
		}
	}

	err = d.Draw()
	if err != nil {
		return errors.Wrap(err, "unable to draw plan")
	}

	return nil
}
