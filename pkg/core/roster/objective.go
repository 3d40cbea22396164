package roster

import "math"

// Weights of the minimized objective
//
//	cost = Wu·U + Wf·F + Wm·M + Wr·R
//
// U is the unassigned count, F the population variance of assigned counts across active
// professionals, M the number of skill-mismatched assignments and R the sum of the
// assigned professionals' rotation ranks.
type Weights struct {
	Coverage float64
	Fairness float64
	Mismatch float64
	Rotation float64
}

// EffectiveCoverageWeight raises the coverage weight so that covering one more demand
// always beats any change in the other terms. With D demands, F <= D², M <= D and R <= D.
func (w Weights) EffectiveCoverageWeight(demandCount int) float64 {
	d := float64(demandCount)
	floor := w.Fairness*d*d + w.Mismatch*d + w.Rotation*d + 1
	return math.Max(w.Coverage, floor)
}

// Cost is an evaluated objective with its components
type Cost struct {
	Unassigned int
	Fairness   float64
	Mismatched int
	Rotation   float64
	Value      float64
}

// Evaluate scores a demand -> professional vector against the instance
func Evaluate(inst *Instance, assigned []int, w Weights) Cost {
	loads := make([]int, len(inst.Professionals))
	var cost Cost
	for d, p := range assigned {
		if p == Unassigned {
			cost.Unassigned++
			continue
		}
		loads[p]++
		if inst.Mismatched(d, p) {
			cost.Mismatched++
		}
		cost.Rotation += inst.RotationRank(p)
	}
	cost.Fairness = Variance(inst, loads)
	cost.Value = w.EffectiveCoverageWeight(len(inst.Demands))*float64(cost.Unassigned) +
		w.Fairness*cost.Fairness +
		w.Mismatch*float64(cost.Mismatched) +
		w.Rotation*cost.Rotation
	return cost
}

// Variance returns the population variance of loads over active professionals
func Variance(inst *Instance, loads []int) float64 {
	n := inst.ActiveCount()
	if n == 0 {
		return 0
	}
	sum, sumSq := 0.0, 0.0
	for p, load := range loads {
		if !inst.Professionals[p].Active {
			continue
		}
		l := float64(load)
		sum += l
		sumSq += l * l
	}
	mean := sum / float64(n)
	return math.Max(sumSq/float64(n)-mean*mean, 0)
}
