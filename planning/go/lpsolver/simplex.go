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

package lpsolver

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

type varStatus int8

const (
	basic varStatus = iota
	atLower
	atUpper
	// free nonbasic variables sit at zero.
	atZero
)

type lpStatus int

const (
	lpOptimal lpStatus = iota
	lpInfeasible
	lpUnbounded
	// lpFailed covers iteration limits and loss of a usable basis.
	lpFailed
)

func (s lpStatus) String() string {
	switch s {
	case lpOptimal:
		return "optimal"
	case lpInfeasible:
		return "infeasible"
	case lpUnbounded:
		return "unbounded"
	}
	return "failed"
}

const (
	primalTolerance = 1e-7
	dualTolerance   = 1e-7
	pivotTolerance  = 1e-9

	// Pivots between recomputations of the basic values and between reinversions.
	recomputeFrequency = 20
	reinvertFrequency  = 100
	// Degenerate steps in a row after which pricing switches to Bland's rule.
	blandThreshold = 50
)

// sparseRow is `lo <= sum coef[k]*x[idx[k]] <= hi`.
type sparseRow struct {
	idx    []int
	coef   []float64
	lo, hi float64
}

// basis is a restartable copy of the basic columns and nonbasic statuses.
type basis struct {
	head   []int
	status []varStatus
}

// simplex is a bounded-variable primal simplex on a dense tableau. Every row i gets a
// logical column r_i = a_i.x bounded by the row bounds, so the system is
//
//	[A | -I] z = 0,  lo <= z <= up
//
// and the initial basis made of the logicals is always regular.
type simplex struct {
	n, m int
	// a is [A | -I] and is never modified. t is B^-1 [A | -I].
	a, t   *mat.Dense
	c      []float64
	lo, up []float64
	x      []float64
	head   []int
	status []varStatus

	// Scratch space reused by iterate.
	d, cb  []float64
	ratios []ratio

	maxIterations int
	sinceReinvert int
	pivots        int
}

type ratio struct {
	row    int
	exact  float64
	target varStatus
	alpha  float64
}

// newSimplex loads `rows` over `n` structural columns with costs `c` (minimization) and
// bounds `lo`, `up`.
func newSimplex(n int, rows []sparseRow, c, lo, up []float64) *simplex {
	m := len(rows)
	total := n + m
	s := &simplex{
		n:             n,
		m:             m,
		c:             make([]float64, total),
		lo:            make([]float64, total),
		up:            make([]float64, total),
		x:             make([]float64, total),
		head:          make([]int, m),
		status:        make([]varStatus, total),
		d:             make([]float64, total),
		cb:            make([]float64, m),
		ratios:        make([]ratio, 0, m),
		maxIterations: 50*total + 10000,
	}
	copy(s.c, c)
	copy(s.lo, lo)
	copy(s.up, up)
	if m > 0 {
		s.a = mat.NewDense(m, total, nil)
		s.t = mat.NewDense(m, total, nil)
	}
	for i, r := range rows {
		for k, j := range r.idx {
			s.a.Set(i, j, s.a.At(i, j)+r.coef[k])
		}
		s.a.Set(i, n+i, -1)
		s.lo[n+i], s.up[n+i] = r.lo, r.hi
		s.head[i] = n + i
	}
	for j := 0; j < n; j++ {
		s.status[j] = s.defaultStatus(j)
	}
	s.reinvert()
	return s
}

func (s *simplex) defaultStatus(j int) varStatus {
	switch {
	case !math.IsInf(s.lo[j], -1):
		return atLower
	case !math.IsInf(s.up[j], 1):
		return atUpper
	}
	return atZero
}

func (s *simplex) nonbasicValue(j int) float64 {
	switch s.status[j] {
	case atLower:
		return s.lo[j]
	case atUpper:
		return s.up[j]
	}
	return 0
}

// pivot makes column j the unit vector of row p.
func (s *simplex) pivot(p, j int) {
	rp := s.t.RawRowView(p)
	floats.Scale(1/rp[j], rp)
	rp[j] = 1
	for i := 0; i < s.m; i++ {
		if i == p {
			continue
		}
		ri := s.t.RawRowView(i)
		if f := ri[j]; f != 0 {
			floats.AddScaled(ri, -f, rp)
			ri[j] = 0
		}
	}
}

// reinvert rebuilds the tableau from the current head. Columns of the head that turn out
// dependent are made nonbasic and replaced by logicals.
func (s *simplex) reinvert() {
	s.sinceReinvert = 0
	if s.m == 0 {
		s.recompute()
		return
	}
	s.t.Copy(s.a)
	done := make([]bool, s.m)
	head := make([]int, s.m)
	for _, j := range s.head {
		best, bestAbs := -1, pivotTolerance
		for r := 0; r < s.m; r++ {
			if v := math.Abs(s.t.At(r, j)); !done[r] && v > bestAbs {
				best, bestAbs = r, v
			}
		}
		if best < 0 {
			s.status[j] = s.defaultStatus(j)
			continue
		}
		s.pivot(best, j)
		done[best] = true
		head[best] = j
	}
	for r := 0; r < s.m; r++ {
		if done[r] {
			continue
		}
		row := s.t.RawRowView(r)
		best, bestAbs := -1, 0.0
		for j := s.n; j < s.n+s.m; j++ {
			if v := math.Abs(row[j]); s.status[j] != basic && v > bestAbs {
				best, bestAbs = j, v
			}
		}
		s.pivot(r, best)
		done[r] = true
		head[r] = best
		s.status[best] = basic
	}
	s.head = head
	s.recompute()
}

// recompute sets nonbasic variables to their bound and solves for the basic ones.
func (s *simplex) recompute() {
	for j := range s.x {
		if s.status[j] != basic {
			s.x[j] = s.nonbasicValue(j)
		}
	}
	for i, b := range s.head {
		row := s.t.RawRowView(i)
		v := 0.0
		for j, xj := range s.x {
			if xj != 0 && s.status[j] != basic {
				v -= row[j] * xj
			}
		}
		s.x[b] = v
	}
}

// setBounds replaces the bounds of the structural columns and moves the nonbasic ones onto
// their new bounds.
func (s *simplex) setBounds(lo, up []float64) {
	copy(s.lo, lo)
	copy(s.up, up)
	for j := 0; j < s.n; j++ {
		s.fixStatus(j)
	}
	s.recompute()
}

func (s *simplex) fixStatus(j int) {
	switch st := s.status[j]; {
	case st == atLower && math.IsInf(s.lo[j], -1),
		st == atUpper && math.IsInf(s.up[j], 1),
		st == atZero && (!math.IsInf(s.lo[j], -1) || !math.IsInf(s.up[j], 1)):
		s.status[j] = s.defaultStatus(j)
	}
}

func (s *simplex) snapshot() *basis {
	return &basis{
		head:   append([]int(nil), s.head...),
		status: append([]varStatus(nil), s.status...),
	}
}

func (s *simplex) restore(b *basis) {
	copy(s.head, b.head)
	copy(s.status, b.status)
	for j := range s.status {
		if s.status[j] != basic {
			s.fixStatus(j)
		}
	}
	s.reinvert()
}

// objective returns c.x over the structural columns.
func (s *simplex) objective() float64 {
	return floats.Dot(s.c[:s.n], s.x[:s.n])
}

// solve runs the composite primal simplex from the current basis: while some basic value
// violates its bounds, the cost is the sum of infeasibilities, otherwise it is `c`.
func (s *simplex) solve() lpStatus {
	degenerate := 0
	for it := 0; it < s.maxIterations; it++ {
		if s.sinceReinvert >= reinvertFrequency {
			s.reinvert()
		}
		phase1 := s.reducedCosts()
		bland := degenerate > blandThreshold

		enter, dir, best := -1, 0.0, 0.0
		for j, dj := range s.d {
			st := s.status[j]
			if st == basic || s.up[j]-s.lo[j] <= 0 {
				continue
			}
			var score, sign float64
			switch {
			case dj < -dualTolerance && st != atUpper:
				score, sign = -dj, 1
			case dj > dualTolerance && st != atLower:
				score, sign = dj, -1
			default:
				continue
			}
			if bland {
				enter, dir = j, sign
				break
			}
			if score > best {
				enter, dir, best = j, sign, score
			}
		}
		if enter < 0 {
			if phase1 {
				return lpInfeasible
			}
			return lpOptimal
		}

		theta, leave, target, ok := s.ratioTest(enter, dir, phase1, bland)
		if !ok {
			if phase1 {
				return lpFailed
			}
			return lpUnbounded
		}
		s.step(enter, dir*theta)
		if leave < 0 {
			s.status[enter] = atLower
			if dir > 0 {
				s.status[enter] = atUpper
			}
			s.x[enter] = s.nonbasicValue(enter)
		} else {
			l := s.head[leave]
			s.status[l] = target
			s.x[l] = s.nonbasicValue(l)
			s.pivot(leave, enter)
			s.head[leave] = enter
			s.status[enter] = basic
			s.pivots++
			s.sinceReinvert++
			if s.sinceReinvert%recomputeFrequency == 0 {
				s.recompute()
			}
		}
		if theta < 1e-12 {
			degenerate++
		} else {
			degenerate = 0
		}
	}
	return lpFailed
}

// reducedCosts fills s.d and reports whether the basis is primal infeasible.
func (s *simplex) reducedCosts() bool {
	phase1 := false
	for i, b := range s.head {
		s.cb[i] = 0
		switch {
		case s.x[b] < s.lo[b]-primalTolerance:
			s.cb[i] = -1
			phase1 = true
		case s.x[b] > s.up[b]+primalTolerance:
			s.cb[i] = 1
			phase1 = true
		}
	}
	if phase1 {
		for j := range s.d {
			s.d[j] = 0
		}
	} else {
		copy(s.d, s.c)
		for i, b := range s.head {
			s.cb[i] = s.c[b]
		}
	}
	for i, f := range s.cb {
		if f != 0 {
			floats.AddScaled(s.d, -f, s.t.RawRowView(i))
		}
	}
	return phase1
}

// ratioTest is a two-pass Harris test for moving column `enter` in direction `dir`. A
// negative leaving row means the entering column flips to its opposite bound. In phase 1
// basic variables outside their bounds only block when moving toward them.
func (s *simplex) ratioTest(enter int, dir float64, phase1, bland bool) (theta float64, leave int, target varStatus, ok bool) {
	flip := math.Inf(1)
	if dir > 0 && !math.IsInf(s.up[enter], 1) {
		flip = s.up[enter] - s.x[enter]
	}
	if dir < 0 && !math.IsInf(s.lo[enter], -1) {
		flip = s.x[enter] - s.lo[enter]
	}

	maxTheta := math.Inf(1)
	s.ratios = s.ratios[:0]
	for i, b := range s.head {
		alpha := s.t.At(i, enter)
		if math.Abs(alpha) < pivotTolerance {
			continue
		}
		rate := -dir * alpha
		xb, lo, up := s.x[b], s.lo[b], s.up[b]
		var limit, exact float64
		var tgt varStatus
		switch {
		case phase1 && xb < lo-primalTolerance:
			if rate <= 0 {
				continue
			}
			limit, exact, tgt = (lo-xb+primalTolerance)/rate, (lo-xb)/rate, atLower
		case phase1 && xb > up+primalTolerance:
			if rate >= 0 {
				continue
			}
			limit, exact, tgt = (xb-up+primalTolerance)/-rate, (xb-up)/-rate, atUpper
		case rate < 0:
			if math.IsInf(lo, -1) {
				continue
			}
			limit, exact, tgt = (xb-lo+primalTolerance)/-rate, (xb-lo)/-rate, atLower
		default:
			if math.IsInf(up, 1) {
				continue
			}
			limit, exact, tgt = (up-xb+primalTolerance)/rate, (up-xb)/rate, atUpper
		}
		maxTheta = math.Min(maxTheta, limit)
		s.ratios = append(s.ratios, ratio{row: i, exact: exact, target: tgt, alpha: math.Abs(alpha)})
	}

	if !math.IsInf(flip, 1) && flip <= maxTheta {
		return flip, -1, 0, true
	}
	if math.IsInf(maxTheta, 1) {
		return 0, -1, 0, false
	}
	pick := -1
	for k, r := range s.ratios {
		if r.exact > maxTheta {
			continue
		}
		switch {
		case pick < 0:
			pick = k
		case bland && s.head[r.row] < s.head[s.ratios[pick].row]:
			pick = k
		case !bland && r.alpha > s.ratios[pick].alpha:
			pick = k
		}
	}
	r := s.ratios[pick]
	return math.Max(r.exact, 0), r.row, r.target, true
}

// step moves column j by `delta` and updates the basic values accordingly.
func (s *simplex) step(j int, delta float64) {
	if delta == 0 {
		return
	}
	s.x[j] += delta
	for i, b := range s.head {
		if alpha := s.t.At(i, j); alpha != 0 {
			s.x[b] -= alpha * delta
		}
	}
}
