package solver

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/jakechorley/theatre-rota/pkg/core/roster"
)

const epsilon = 1e-9

// search is the state shared by every branch-and-bound worker
type search struct {
	inst       *roster.Instance
	weights    roster.Weights
	coverage   float64
	checkEvery int

	// globalBound is a proven lower bound on the optimal cost; reaching it ends the search
	globalBound float64

	mu       sync.Mutex
	best     []int
	bestCost float64

	nodes atomic.Int64
	// expired is set once the context is cancelled or the time budget runs out
	expired atomic.Bool
	// proven is set once the incumbent meets globalBound
	proven atomic.Bool
}

func (s *search) incumbentCost() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bestCost
}

// offer replaces the incumbent if the complete roster is strictly cheaper
func (s *search) offer(assigned []int) {
	cost := roster.Evaluate(s.inst, assigned, s.weights).Value

	s.mu.Lock()
	defer s.mu.Unlock()
	if cost < s.bestCost-epsilon {
		s.best = slices.Clone(assigned)
		s.bestCost = cost
		if cost <= s.globalBound+epsilon {
			s.proven.Store(true)
		}
	}
}

// worker explores one subtree at a time depth-first
type worker struct {
	s   *search
	ctx context.Context

	assigned   []int
	loads      []int
	unassigned int
	mismatched int
	rotation   float64

	sinceCheck int
}

func newWorker(ctx context.Context, s *search) *worker {
	w := &worker{
		s:        s,
		ctx:      ctx,
		assigned: make([]int, len(s.inst.Demands)),
		loads:    make([]int, len(s.inst.Professionals)),
	}
	w.reset(nil)
	return w
}

// reset replays a prefix of decisions for the first len(prefix) demands
func (w *worker) reset(prefix []int) {
	for i := range w.assigned {
		w.assigned[i] = roster.Unassigned
	}
	clear(w.loads)
	w.unassigned, w.mismatched, w.rotation = 0, 0, 0

	for d, p := range prefix {
		if p == roster.Unassigned {
			w.unassigned++
			continue
		}
		w.assign(d, p)
	}
}

func (w *worker) assign(d, p int) {
	w.assigned[d] = p
	w.loads[p]++
	if w.s.inst.Mismatched(d, p) {
		w.mismatched++
	}
	w.rotation += w.s.inst.RotationRank(p)
}

func (w *worker) unassign(d, p int) {
	w.assigned[d] = roster.Unassigned
	w.loads[p]--
	if w.s.inst.Mismatched(d, p) {
		w.mismatched--
	}
	w.rotation -= w.s.inst.RotationRank(p)
}

// halted counts a node and reports whether the search must stop. The context is
// consulted every checkEvery nodes.
func (w *worker) halted() bool {
	w.s.nodes.Add(1)
	w.sinceCheck++
	if w.sinceCheck >= w.s.checkEvery {
		w.sinceCheck = 0
		if w.ctx.Err() != nil {
			w.s.expired.Store(true)
		}
	}
	return w.s.expired.Load() || w.s.proven.Load()
}

// booked reports whether p holds an already-decided demand overlapping d.
// Demands are decided in index order, so only conflicts below depth matter.
func (w *worker) booked(p, d, depth int) bool {
	for _, c := range w.s.inst.Conflicts(d) {
		if c < depth && w.assigned[c] == p {
			return true
		}
	}
	return false
}

// branches returns the free eligible professionals for demand d: full skill matches
// first, then least loaded, then rotation order
func (w *worker) branches(d int) []int {
	var free []int
	for _, p := range w.s.inst.Candidates(d) {
		if !w.booked(p, d, d) {
			free = append(free, p)
		}
	}
	inst := w.s.inst
	slices.SortStableFunc(free, func(a, b int) int {
		ma, mb := inst.Mismatched(d, a), inst.Mismatched(d, b)
		if ma != mb {
			if ma {
				return 1
			}
			return -1
		}
		if w.loads[a] != w.loads[b] {
			return w.loads[a] - w.loads[b]
		}
		return a - b
	})
	return free
}

// bound is a lower bound on the cost of any completion of the current node:
// coverage for demands already unassigned plus those every candidate is booked away
// from, mismatches and rotation so far. Fairness is non-negative and left out.
func (w *worker) bound(depth int) float64 {
	forced := 0
	for d := depth; d < len(w.assigned); d++ {
		available := false
		for _, p := range w.s.inst.Candidates(d) {
			if !w.booked(p, d, depth) {
				available = true
				break
			}
		}
		if !available {
			forced++
		}
	}
	return w.s.coverage*float64(w.unassigned+forced) +
		w.s.weights.Mismatch*float64(w.mismatched) +
		w.s.weights.Rotation*w.rotation
}

func (w *worker) dfs(depth int) {
	if w.halted() {
		return
	}
	if depth == len(w.assigned) {
		w.s.offer(w.assigned)
		return
	}
	if w.bound(depth) >= w.s.incumbentCost()-epsilon {
		return
	}

	for _, p := range w.branches(depth) {
		w.assign(depth, p)
		w.dfs(depth + 1)
		w.unassign(depth, p)
		if w.s.expired.Load() || w.s.proven.Load() {
			return
		}
	}

	w.unassigned++
	w.dfs(depth + 1)
	w.unassigned--
}

// children enumerates the decisions for the next demand after a prefix, in search order
func (w *worker) children(prefix []int) [][]int {
	w.reset(prefix)
	depth := len(prefix)

	var out [][]int
	for _, p := range w.branches(depth) {
		out = append(out, append(slices.Clone(prefix), p))
	}
	return append(out, append(slices.Clone(prefix), roster.Unassigned))
}

// rootPrefixes splits the tree breadth-first until there are enough subtrees to keep
// the workers busy. The prefixes stay in depth-first order.
func rootPrefixes(w *worker, workers int) [][]int {
	prefixes := [][]int{{}}
	if workers <= 1 {
		return prefixes
	}

	target := workers * 4
	for depth := 0; depth < len(w.assigned) && len(prefixes) < target; depth++ {
		var next [][]int
		for _, prefix := range prefixes {
			next = append(next, w.children(prefix)...)
		}
		prefixes = next
	}
	return prefixes
}
