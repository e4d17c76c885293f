package model

// OperationInfo describes one step of a resolved plan.
type OperationInfo struct {
	Name     string
	Type     string
	Index    int
	Priority float64
	Input    Kind
	Output   Kind
}

// EndOperation is the virtual step every plan finishes with.
var EndOperation = &OperationInfo{Name: "end", Index: -1, Input: KindAny, Output: KindAny}
