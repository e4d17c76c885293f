package measure

import (
	"sync"
	"time"
)

// InputInfo counts the rows an operation received from one parent.
type InputInfo struct {
	Rows  int64
	Total int64
}

type DefaultMetric struct {
	mu          sync.Mutex
	inputs      map[string]*InputInfo
	endDuration time.Duration
	stepElapsed time.Duration
	total       int64
	errors      int64
}

func (mt *DefaultMetric) AddDuration(elapsed time.Duration) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.total++
	mt.stepElapsed += elapsed
}

func (mt *DefaultMetric) AddError() {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.errors++
}

func (mt *DefaultMetric) SetTotalDuration(endDuration time.Duration) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.endDuration = endDuration
}

func (mt *DefaultMetric) GetTotalDuration() time.Duration {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	return mt.endDuration
}

func (mt *DefaultMetric) AddInput(parentName string, rows int) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	if mt.inputs[parentName] == nil {
		mt.inputs[parentName] = &InputInfo{}
	}
	in := mt.inputs[parentName]
	in.Rows += int64(rows)
	in.Total++
}

func (mt *DefaultMetric) Count() int64 {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	return mt.total
}

func (mt *DefaultMetric) Errors() int64 {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	return mt.errors
}

func (mt *DefaultMetric) AVGDuration() time.Duration {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	if mt.total == 0 {
		return time.Duration(0)
	}

	return round(time.Duration(float64(mt.stepElapsed) / float64(mt.total)))
}

// AllInputs returns a copy of the per parent counters.
func (mt *DefaultMetric) AllInputs() map[string]InputInfo {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	out := make(map[string]InputInfo, len(mt.inputs))
	for name, in := range mt.inputs {
		out[name] = *in
	}

	return out
}

func round(d time.Duration) time.Duration {
	switch {
	case d > time.Hour:
		d = d.Round(time.Minute)
	case d > time.Minute:
		d = d.Round(time.Second)
	case d > time.Second:
		d = d.Round(time.Millisecond)
	case d > time.Millisecond:
		d = d.Round(time.Microsecond)
	}

	return d
}
