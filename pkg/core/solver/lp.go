package solver

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/jakechorley/theatre-rota/pkg/core/roster"
)

// errLPTooLarge is returned when the relaxation would exceed the configured matrix size
var errLPTooLarge = errors.New("lp relaxation exceeds size limit")

// lpSolve points to the function used to solve the LP. It can be overridden in
// tests to simulate solver failures.
var lpSolve = func(c []float64, g *mat.Dense, h []float64, a *mat.Dense, b []float64) (float64, error) {
	cStd, aStd, bStd := lp.Convert(c, g, h, a, b)
	opt, _, err := lp.Simplex(cStd, aStd, bStd, 1e-7, nil)
	return opt, err
}

// coverageBound returns a lower bound on the number of demands any roster must leave
// unassigned, from the LP relaxation
//
//	min  Σ u[d]
//	s.t. Σ_p x[d,p] + u[d] = 1            for every demand d
//	     Σ_{d ∈ K} x[d,p] <= 1             for every professional p and clique K of
//	                                       p's eligible demands sharing a start instant
//	     x, u >= 0
//
// Cliques of an interval graph are found at demand start times, so these rows
// capture every overlap a single professional cannot absorb.
func coverageBound(inst *roster.Instance, maxCells int) (float64, error) {
	nd := len(inst.Demands)
	if nd == 0 {
		return 0, nil
	}

	// Variable layout: x[d,p] for eligible pairs, then u[d]
	type pair struct{ d, p int }
	var pairs []pair
	for d := range inst.Demands {
		for _, p := range inst.Candidates(d) {
			pairs = append(pairs, pair{d, p})
		}
	}
	pairIndex := make(map[pair]int, len(pairs))
	for i, pr := range pairs {
		pairIndex[pr] = i
	}
	nx := len(pairs)
	n := nx + nd

	cliques := professionalCliques(inst)
	if len(cliques) == 0 {
		// No professional faces overlapping eligible demands: only empty candidate
		// sets can force a demand out
		return float64(uncoverable(inst)), nil
	}

	rows := nd + len(cliques) + n
	if maxCells <= 0 || n*rows > maxCells {
		return 0, fmt.Errorf("%w: %d variables x %d rows", errLPTooLarge, n, rows)
	}

	c := make([]float64, n)
	for d := 0; d < nd; d++ {
		c[nx+d] = 1
	}

	a := mat.NewDense(nd, n, nil)
	b := make([]float64, nd)
	for i, pr := range pairs {
		a.Set(pr.d, i, 1)
	}
	for d := 0; d < nd; d++ {
		a.Set(d, nx+d, 1)
		b[d] = 1
	}

	// Clique rows, then -v <= 0 for every variable (general form leaves x free)
	g := mat.NewDense(len(cliques)+n, n, nil)
	h := make([]float64, len(cliques)+n)
	for r, k := range cliques {
		for _, d := range k.demands {
			g.Set(r, pairIndex[pair{d, k.professional}], 1)
		}
		h[r] = 1
	}
	for v := 0; v < n; v++ {
		g.Set(len(cliques)+v, v, -1)
	}

	opt, err := lpSolve(c, g, h, a, b)
	if err != nil {
		return 0, fmt.Errorf("lp relaxation: %w", err)
	}
	return math.Max(opt, float64(uncoverable(inst))), nil
}

type clique struct {
	professional int
	demands      []int
}

// professionalCliques returns, per professional, the distinct maximal sets of eligible
// demands active at some demand's start instant (only sets of two or more)
func professionalCliques(inst *roster.Instance) []clique {
	var cliques []clique
	for p := range inst.Professionals {
		var eligible []int
		for d := range inst.Demands {
			if inst.Eligible(d, p) {
				eligible = append(eligible, d)
			}
		}

		seen := make(map[string]bool)
		for _, d := range eligible {
			t := inst.Demands[d].Start
			var members []int
			for _, e := range eligible {
				de := inst.Demands[e]
				if !de.Start.After(t) && t.Before(de.End) {
					members = append(members, e)
				}
			}
			if len(members) < 2 {
				continue
			}
			slices.Sort(members)
			key := fmt.Sprint(members)
			if seen[key] {
				continue
			}
			seen[key] = true
			cliques = append(cliques, clique{professional: p, demands: members})
		}
	}
	return dropDominated(cliques)
}

// dropDominated removes cliques contained in another clique of the same professional
func dropDominated(cliques []clique) []clique {
	kept := cliques[:0:0]
	for i, k := range cliques {
		dominated := false
		for j, other := range cliques {
			if i == j || other.professional != k.professional || len(other.demands) <= len(k.demands) {
				continue
			}
			if containsAll(other.demands, k.demands) {
				dominated = true
				break
			}
		}
		if !dominated {
			kept = append(kept, k)
		}
	}
	return kept
}

func containsAll(set, subset []int) bool {
	for _, v := range subset {
		if _, found := slices.BinarySearch(set, v); !found {
			return false
		}
	}
	return true
}

// uncoverable counts demands without a single eligible professional
func uncoverable(inst *roster.Instance) int {
	count := 0
	for d := range inst.Demands {
		if len(inst.Candidates(d)) == 0 {
			count++
		}
	}
	return count
}
