// Copyright 2010-2024 Google LLC
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package lpsolver solves lpmodel models with a pure Go branch-and-bound search over
// bounded simplex relaxations.
//
// It is meant for the small and medium planning models of this module. Any other backend
// that accepts an *lpmodel.Model and returns an *lpmodel.Response can replace it.
package lpsolver

import (
	"container/heap"
	"errors"
	"math"
	"time"

	log "github.com/golang/glog"

	"github.com/crateplan/crateplan/planning/go/lpmodel"
)

// ErrNumerical is returned with an Abnormal status when the root relaxation cannot be
// solved.
var ErrNumerical = errors.New("simplex failed on the root relaxation")

// BranchAndBound is a branch-and-bound MILP solver. The zero value is ready to use.
//
// The search dives depth first until it finds a solution, then explores the open node with
// the best bound, always diving first into the child closest to the relaxation value.
type BranchAndBound struct{}

// New returns a BranchAndBound solver.
func New() *BranchAndBound {
	return &BranchAndBound{}
}

// SolveModel solves `m` with default parameters.
func SolveModel(m *lpmodel.Model) (*lpmodel.Response, error) {
	return SolveModelWithParameters(m, nil)
}

// SolveModelWithParameters solves `m` with the given parameters.
func SolveModelWithParameters(m *lpmodel.Model, params *lpmodel.Parameters) (*lpmodel.Response, error) {
	return New().Solve(m, params)
}

type node struct {
	lo, up []float64
	// bound is the relaxation objective of the parent in minimization sense.
	bound float64
	basis *basis
	depth int
	seq   int
}

// nodeQueue orders open nodes deepest first until byBound is set, then by bound.
type nodeQueue struct {
	nodes   []*node
	byBound bool
}

func (q *nodeQueue) Len() int { return len(q.nodes) }

func (q *nodeQueue) Less(i, j int) bool {
	a, b := q.nodes[i], q.nodes[j]
	if q.byBound && a.bound != b.bound {
		return a.bound < b.bound
	}
	if !q.byBound && a.depth != b.depth {
		return a.depth > b.depth
	}
	return a.seq > b.seq
}

func (q *nodeQueue) Swap(i, j int) { q.nodes[i], q.nodes[j] = q.nodes[j], q.nodes[i] }

func (q *nodeQueue) Push(x any) { q.nodes = append(q.nodes, x.(*node)) }

func (q *nodeQueue) Pop() any {
	n := q.nodes[len(q.nodes)-1]
	q.nodes = q.nodes[:len(q.nodes)-1]
	return n
}

// search holds the state of one Solve call. Objectives are in minimization sense and
// exclude the model offset.
type search struct {
	m      *lpmodel.Model
	p      lpmodel.Parameters
	sense  float64
	cost   []float64
	lp     *simplex
	gran   float64
	start  time.Time
	queue  nodeQueue
	seq    int
	nodes  int
	failed int

	incumbent []float64
	incObj    float64
	// pruned is the smallest bound of a node discarded by the gap limits.
	pruned float64
}

// Solve runs the search once and blocks until a terminal status is reached.
//
// The returned error is non-nil only for ModelInvalid and Abnormal statuses; infeasible and
// unbounded models are reported through Response.Status.
func (bb *BranchAndBound) Solve(m *lpmodel.Model, params *lpmodel.Parameters) (*lpmodel.Response, error) {
	start := time.Now()
	res := &lpmodel.Response{Status: lpmodel.NotSolved}
	defer func() { res.WallTime = time.Since(start) }()

	if err := lpmodel.Validate(m); err != nil {
		res.Status = lpmodel.ModelInvalid
		return res, err
	}
	log.V(1).Infof("lpsolver: solving %q with %d variables, %d constraints", m.Name, len(m.Variables), len(m.Constraints))

	s := newSearch(m, params.WithDefaults(), start)
	root, ok := s.presolve()
	if !ok {
		log.V(1).Infof("lpsolver: presolve proved %q infeasible", m.Name)
		res.Status = lpmodel.Infeasible
		return res, nil
	}
	s.lp = newSimplex(len(m.Variables), s.rows(), s.cost, root.lo, root.up)
	s.tryHint(root)

	status, err := s.run(root)
	res.Status = status
	res.Nodes = s.nodes
	if err != nil {
		return res, err
	}
	if s.incumbent != nil {
		res.VariableValues = s.incumbent
		res.ObjectiveValue = lpmodel.ObjectiveValue(m, s.incumbent)
		res.BestBound = s.sense*s.bestBound() + m.ObjectiveOffset
	}
	log.V(1).Infof("lpsolver: %v, objective %v, bound %v after %d nodes and %d pivots",
		res.Status, res.ObjectiveValue, res.BestBound, res.Nodes, s.lp.pivots)
	return res, nil
}

func newSearch(m *lpmodel.Model, p lpmodel.Parameters, start time.Time) *search {
	s := &search{
		m:      m,
		p:      p,
		sense:  1,
		cost:   make([]float64, len(m.Variables)),
		start:  start,
		incObj: math.Inf(1),
		pruned: math.Inf(1),
	}
	if m.Maximize {
		s.sense = -1
	}
	for j, v := range m.Variables {
		s.cost[j] = s.sense * v.ObjectiveCoefficient
	}
	s.gran = objectiveGranularity(m, s.cost)
	return s
}

// presolve tightens variable bounds with the rows on a single variable and rounds the
// bounds of integer variables. It reports false when a domain becomes empty.
func (s *search) presolve() (*node, bool) {
	dom := make([]lpmodel.Domain, len(s.m.Variables))
	for j, v := range s.m.Variables {
		dom[j] = lpmodel.NewDomain(v.LowerBound, v.UpperBound)
	}
	for _, ct := range s.m.Constraints {
		j, a, ok := singleton(ct)
		if !ok {
			continue
		}
		d := lpmodel.NewDomain(ct.LowerBound/a, ct.UpperBound/a)
		if a < 0 {
			d = lpmodel.NewDomain(ct.UpperBound/a, ct.LowerBound/a)
		}
		dom[j] = dom[j].Intersect(d)
	}
	root := &node{
		lo:    make([]float64, len(dom)),
		up:    make([]float64, len(dom)),
		bound: math.Inf(-1),
	}
	for j, d := range dom {
		if s.m.Variables[j].IsInteger {
			d = d.Integral(s.p.IntegralityTolerance)
		}
		if d.Start > d.End+s.p.PrimalTolerance || math.IsInf(d.Start, 1) || math.IsInf(d.End, -1) {
			return nil, false
		}
		root.lo[j], root.up[j] = d.Start, math.Max(d.Start, d.End)
	}
	return root, true
}

// singleton returns the variable and coefficient of a row with exactly one non-zero term.
func singleton(ct *lpmodel.LinearConstraint) (int, float64, bool) {
	j, a := -1, 0.0
	for k, ind := range ct.VarIndex {
		c := ct.Coefficient[k]
		if c == 0 {
			continue
		}
		if j >= 0 && int(ind) != j {
			return 0, 0, false
		}
		j = int(ind)
		a += c
	}
	return j, a, j >= 0 && a != 0
}

func (s *search) rows() []sparseRow {
	rows := make([]sparseRow, 0, len(s.m.Constraints))
	for _, ct := range s.m.Constraints {
		if math.IsInf(ct.LowerBound, -1) && math.IsInf(ct.UpperBound, 1) {
			continue
		}
		r := sparseRow{lo: ct.LowerBound, hi: ct.UpperBound}
		for k, j := range ct.VarIndex {
			if c := ct.Coefficient[k]; c != 0 {
				r.idx = append(r.idx, int(j))
				r.coef = append(r.coef, c)
			}
		}
		rows = append(rows, r)
	}
	return rows
}

// objectiveGranularity returns g > 0 when every objective value of an integer solution is
// a multiple of g, and 0 otherwise.
func objectiveGranularity(m *lpmodel.Model, cost []float64) float64 {
	var g int64
	for j, c := range cost {
		if c == 0 {
			continue
		}
		if !m.Variables[j].IsInteger || c != math.Trunc(c) || math.Abs(c) > 1<<52 {
			return 0
		}
		g = gcd(g, int64(math.Abs(c)))
	}
	return float64(g)
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// effectiveBound rounds a relaxation objective up to the next reachable integer value.
func (s *search) effectiveBound(z float64) float64 {
	if s.gran == 0 {
		return z
	}
	return math.Ceil(z/s.gran-1e-6) * s.gran
}

// cutoff is the objective a node must beat to be explored.
func (s *search) cutoff() float64 {
	if s.incumbent == nil {
		return math.Inf(1)
	}
	gap := s.p.RelativeGapLimit * math.Abs(s.incObj+s.sense*s.m.ObjectiveOffset)
	return s.incObj - math.Max(s.p.AbsoluteGapLimit, gap) - 1e-9
}

func (s *search) bestBound() float64 {
	b := math.Min(s.incObj, s.pruned)
	for _, n := range s.queue.nodes {
		b = math.Min(b, n.bound)
	}
	return b
}

func (s *search) limitReached() bool {
	return s.nodes >= s.p.NodeLimit || (s.p.TimeLimit > 0 && time.Since(s.start) > s.p.TimeLimit)
}

func (s *search) push(n *node) {
	heap.Push(&s.queue, n)
}

// next pops the best open node that can still improve on the incumbent.
func (s *search) next() *node {
	for s.queue.Len() > 0 {
		n := heap.Pop(&s.queue).(*node)
		if n.bound < s.cutoff() {
			return n
		}
		s.pruned = math.Min(s.pruned, n.bound)
	}
	return nil
}

func (s *search) run(root *node) (lpmodel.Status, error) {
	var (
		cur, pending *node
		last         *basis
	)
	cur = root
	for {
		if cur == nil {
			if cur = s.next(); cur == nil {
				break
			}
		}
		n := cur
		cur = nil
		if n.bound >= s.cutoff() {
			s.pruned = math.Min(s.pruned, n.bound)
			cur, pending = pending, nil
			continue
		}
		if s.limitReached() {
			s.push(n)
			if pending != nil {
				s.push(pending)
			}
			log.V(1).Infof("lpsolver: limit reached after %d nodes", s.nodes)
			if s.incumbent == nil {
				return lpmodel.NotSolved, nil
			}
			return lpmodel.Feasible, nil
		}
		s.nodes++

		s.lp.setBounds(n.lo, n.up)
		if n.basis != nil && n.basis != last {
			s.lp.restore(n.basis)
		}
		st := s.lp.solve()
		last = nil

		if st == lpInfeasible && pending != nil {
			cur, pending = pending, nil
			continue
		}
		if pending != nil {
			s.push(pending)
			pending = nil
		}
		switch st {
		case lpInfeasible:
			log.V(2).Infof("lpsolver: node %d (depth %d) infeasible", s.nodes, n.depth)
			continue
		case lpUnbounded:
			return lpmodel.Unbounded, nil
		case lpFailed:
			if n == root {
				return lpmodel.Abnormal, ErrNumerical
			}
			log.Warningf("lpsolver: relaxation of node %d failed, keeping its bound %v open", s.nodes, n.bound)
			s.failed++
			s.pruned = math.Min(s.pruned, n.bound)
			s.lp.restore(s.lp.snapshot())
			continue
		}

		z := s.effectiveBound(s.lp.objective())
		if z >= s.cutoff() {
			s.pruned = math.Min(s.pruned, z)
			continue
		}
		j := s.branchingVariable()
		if j < 0 {
			s.improve(s.roundIntegers(s.lp.x[:s.lp.n]), "relaxation")
			continue
		}
		s.roundingHeuristic()
		if z >= s.cutoff() {
			s.pruned = math.Min(s.pruned, z)
			continue
		}

		snap := s.lp.snapshot()
		last = snap
		v := s.lp.x[j]
		downUp := append([]float64(nil), n.up...)
		downUp[j] = math.Floor(v)
		upLo := append([]float64(nil), n.lo...)
		upLo[j] = math.Ceil(v)
		s.seq += 2
		down := &node{lo: n.lo, up: downUp, bound: z, basis: snap, depth: n.depth + 1, seq: s.seq - 1}
		up := &node{lo: upLo, up: n.up, bound: z, basis: snap, depth: n.depth + 1, seq: s.seq}
		if v-math.Floor(v) >= 0.5 {
			cur, pending = up, down
		} else {
			cur, pending = down, up
		}
	}

	switch {
	case s.incumbent == nil && s.failed > 0:
		return lpmodel.NotSolved, nil
	case s.incumbent == nil:
		return lpmodel.Infeasible, nil
	case s.failed > 0:
		return lpmodel.Feasible, nil
	}
	return lpmodel.Optimal, nil
}

// branchingVariable returns the fractional integer variable with the largest objective
// weight, ties going to the most fractional one, or -1 if the relaxation is integral.
func (s *search) branchingVariable() int {
	best, bestCost, bestFrac := -1, 0.0, 0.0
	for j, v := range s.m.Variables {
		if !v.IsInteger {
			continue
		}
		x := s.lp.x[j]
		frac := math.Min(x-math.Floor(x), math.Ceil(x)-x)
		if frac <= s.p.IntegralityTolerance {
			continue
		}
		c := math.Abs(s.cost[j])
		if best < 0 || c > bestCost || (c == bestCost && frac > bestFrac) {
			best, bestCost, bestFrac = j, c, frac
		}
	}
	return best
}

func (s *search) roundIntegers(x []float64) []float64 {
	out := append([]float64(nil), x...)
	for j, v := range s.m.Variables {
		if v.IsInteger {
			out[j] = math.Round(out[j])
		}
	}
	return out
}

// roundingHeuristic rounds the relaxation and keeps it if it satisfies every row.
func (s *search) roundingHeuristic() {
	s.improve(s.roundIntegers(s.lp.x[:s.lp.n]), "rounding")
}

// improve replaces the incumbent by `x` when `x` is feasible and better.
func (s *search) improve(x []float64, origin string) bool {
	obj := 0.0
	for j, c := range s.cost {
		obj += c * x[j]
	}
	if obj >= s.incObj {
		return false
	}
	tol := math.Max(s.p.PrimalTolerance, s.p.IntegralityTolerance)
	if worst, name := lpmodel.MaxViolation(s.m, x); worst > tol {
		log.V(2).Infof("lpsolver: %s solution violates %s by %v", origin, name, worst)
		return false
	}
	first := s.incumbent == nil
	s.incumbent, s.incObj = x, obj
	if first {
		s.queue.byBound = true
		heap.Init(&s.queue)
	}
	log.V(1).Infof("lpsolver: new incumbent %v from %s at node %d", s.sense*obj+s.m.ObjectiveOffset, origin, s.nodes)
	return true
}

// tryHint fixes the hinted variables, solves the remaining relaxation and keeps the
// result when it is integral.
func (s *search) tryHint(root *node) {
	h := s.m.SolutionHint
	if h == nil || len(h.VarIndex) == 0 {
		return
	}
	lo := append([]float64(nil), root.lo...)
	up := append([]float64(nil), root.up...)
	for k, ind := range h.VarIndex {
		v := h.VarValue[k]
		if s.m.Variables[ind].IsInteger {
			v = math.Round(v)
		}
		if v < lo[ind]-s.p.PrimalTolerance || v > up[ind]+s.p.PrimalTolerance {
			log.V(1).Infof("lpsolver: hint %v of variable %d is out of its bounds", v, ind)
			return
		}
		lo[ind], up[ind] = v, v
	}
	s.lp.setBounds(lo, up)
	if st := s.lp.solve(); st != lpOptimal {
		log.V(1).Infof("lpsolver: hinted relaxation is %v", st)
		return
	}
	if s.branchingVariable() >= 0 {
		log.V(1).Infof("lpsolver: hinted relaxation is fractional")
		return
	}
	s.improve(s.roundIntegers(s.lp.x[:s.lp.n]), "hint")
}
