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

// Package lpmodel offers a solver-agnostic API to build linear and mixed-integer models.
//
// The `Builder` struct wraps a `Model` and provides helper methods for adding variables,
// linear constraints and a linear objective.
// The `Var` and `Constraint` structs are references to specific entries of the `Model`
// and provide helpful methods for interacting with them.
// The `LinearExpr` struct provides helper methods for creating constraints and the
// objective from expressions with many variables and real coefficients.
//
// A built `Model` can be handed to any backend that accepts named, bounded, optionally
// integer variables, linear rows and a linear objective, and that reports a `Response`.
package lpmodel

import (
	"errors"
	"fmt"
	"math"
	"sort"

	log "github.com/golang/glog"
)

var (
	// ErrMixedModels holds the error when elements added to a model are different.
	ErrMixedModels = errors.New("elements are not part of the same model")
	// ErrDuplicateName is returned when a variable or constraint name is used twice.
	ErrDuplicateName = errors.New("duplicate name")
	// ErrBadCoefficient is returned for NaN or infinite coefficients.
	ErrBadCoefficient = errors.New("coefficient must be finite")
)

type (
	// VarIndex is the index of a variable in the model.
	VarIndex int32
	// ConstrIndex is the index of a constraint in the model.
	ConstrIndex int32
)

// LinearArgument provides an interface for Var and LinearExpr.
type LinearArgument interface {
	addToLinearExpr(e *LinearExpr, c float64)
	evaluateSolutionValue(values []float64) float64
}

// LinearExpr is a container for a linear expression.
type LinearExpr struct {
	varCoeffs []varCoeff
	offset    float64
	mb        *Builder
	mixed     bool
}

type varCoeff struct {
	ind   VarIndex
	coeff float64
}

// NewLinearExpr creates a new empty LinearExpr.
func NewLinearExpr() *LinearExpr {
	return &LinearExpr{}
}

// NewConstant creates and returns a LinearExpr containing the constant `c`.
func NewConstant(c float64) *LinearExpr {
	return &LinearExpr{offset: c}
}

// Add adds the linear argument term to the LinearExpr and returns itself.
func (l *LinearExpr) Add(la LinearArgument) *LinearExpr {
	l.AddTerm(la, 1)
	return l
}

// AddConstant adds the constant to the LinearExpr and returns itself.
func (l *LinearExpr) AddConstant(c float64) *LinearExpr {
	l.offset += c
	return l
}

// AddTerm adds the linear argument term with the given coefficient to the LinearExpr and returns itself.
func (l *LinearExpr) AddTerm(la LinearArgument, coeff float64) *LinearExpr {
	la.addToLinearExpr(l, coeff)
	return l
}

// AddSum adds the sum of the linear arguments to the LinearExpr and returns itself.
func (l *LinearExpr) AddSum(las ...LinearArgument) *LinearExpr {
	for _, la := range las {
		l.Add(la)
	}
	return l
}

// AddWeightedSum adds the linear arguments with the corresponding coefficients to the LinearExpr
// and returns itself.
func (l *LinearExpr) AddWeightedSum(las []LinearArgument, coeffs []float64) *LinearExpr {
	if len(coeffs) != len(las) {
		log.Fatalf("las and coeffs must be the same length: %v != %v", len(las), len(coeffs))
	}
	for i, la := range las {
		l.AddTerm(la, coeffs[i])
	}
	return l
}

// Offset returns the constant term of the expression.
func (l *LinearExpr) Offset() float64 {
	return l.offset
}

func (l *LinearExpr) attach(mb *Builder) {
	if mb == nil {
		return
	}
	if l.mb == nil {
		l.mb = mb
	} else if l.mb != mb {
		l.mixed = true
	}
}

func (l *LinearExpr) addToLinearExpr(e *LinearExpr, c float64) {
	for _, vc := range l.varCoeffs {
		e.varCoeffs = append(e.varCoeffs, varCoeff{ind: vc.ind, coeff: vc.coeff * c})
	}
	e.offset += l.offset * c
	e.attach(l.mb)
	if l.mixed {
		e.mixed = true
	}
}

func (l *LinearExpr) evaluateSolutionValue(values []float64) float64 {
	result := l.offset
	for _, vc := range l.varCoeffs {
		result += values[vc.ind] * vc.coeff
	}
	return result
}

// merged returns the terms of the expression with one entry per variable, in order of first
// appearance, dropping terms whose coefficients cancel out.
func (l *LinearExpr) merged() []varCoeff {
	pos := make(map[VarIndex]int, len(l.varCoeffs))
	var out []varCoeff
	for _, vc := range l.varCoeffs {
		if i, ok := pos[vc.ind]; ok {
			out[i].coeff += vc.coeff
			continue
		}
		pos[vc.ind] = len(out)
		out = append(out, vc)
	}
	kept := out[:0]
	for _, vc := range out {
		if vc.coeff != 0 {
			kept = append(kept, vc)
		}
	}
	return kept
}

// Var is a reference to a variable in the model.
type Var struct {
	ind VarIndex
	mb  *Builder
}

// Name returns the name of the variable.
func (v Var) Name() string {
	return v.mb.mpb.Variables[v.ind].Name
}

// Index returns the index of the variable.
func (v Var) Index() VarIndex {
	return v.ind
}

// Domain returns the bounds of the variable.
func (v Var) Domain() Domain {
	pv := v.mb.mpb.Variables[v.ind]
	return NewDomain(pv.LowerBound, pv.UpperBound)
}

// IsInteger reports whether the variable carries an integrality requirement.
func (v Var) IsInteger() bool {
	return v.mb.mpb.Variables[v.ind].IsInteger
}

// WithName sets the name of the variable. Names must be unique within a model.
func (v Var) WithName(s string) Var {
	pv := v.mb.mpb.Variables[v.ind]
	if s == pv.Name {
		return v
	}
	if _, ok := v.mb.varNames[s]; ok && s != "" {
		v.mb.setErr(fmt.Errorf("variable with name %s already exists: %w", s, ErrDuplicateName))
		return v
	}
	delete(v.mb.varNames, pv.Name)
	pv.Name = s
	if s != "" {
		v.mb.varNames[s] = v.ind
	}
	return v
}

func (v Var) addToLinearExpr(e *LinearExpr, c float64) {
	e.varCoeffs = append(e.varCoeffs, varCoeff{ind: v.ind, coeff: c})
	e.attach(v.mb)
}

func (v Var) evaluateSolutionValue(values []float64) float64 {
	return values[v.ind]
}

// Constraint is a reference to a linear constraint in the model.
type Constraint struct {
	ind ConstrIndex
	mb  *Builder
}

// WithName sets the name of the constraint. Names must be unique within a model.
func (c Constraint) WithName(s string) Constraint {
	ct := c.mb.mpb.Constraints[c.ind]
	if s == ct.Name {
		return c
	}
	if _, ok := c.mb.ctNames[s]; ok && s != "" {
		c.mb.setErr(fmt.Errorf("constraint with name %s already exists: %w", s, ErrDuplicateName))
		return c
	}
	delete(c.mb.ctNames, ct.Name)
	ct.Name = s
	if s != "" {
		c.mb.ctNames[s] = c.ind
	}
	return c
}

// Name returns the name of the constraint.
func (c Constraint) Name() string {
	return c.mb.mpb.Constraints[c.ind].Name
}

// Index returns the index of the constraint.
func (c Constraint) Index() ConstrIndex {
	return c.ind
}

// Domain returns the bounds on the activity of the constraint.
func (c Constraint) Domain() Domain {
	ct := c.mb.mpb.Constraints[c.ind]
	return NewDomain(ct.LowerBound, ct.UpperBound)
}

// Builder provides a wrapper for the Model under construction.
type Builder struct {
	mpb      *Model
	varNames map[string]VarIndex
	ctNames  map[string]ConstrIndex
	// The first and only the first error is reported in Model.
	err error
}

// NewBuilder creates and returns a new model Builder.
func NewBuilder(name string) *Builder {
	return &Builder{
		mpb:      &Model{Name: name},
		varNames: make(map[string]VarIndex),
		ctNames:  make(map[string]ConstrIndex),
	}
}

func (mb *Builder) setErr(err error) {
	log.Errorf("%v; use `-log_backtrace_at` flag to get the error stack", err)
	if mb.err == nil {
		mb.err = err
	}
}

// checkSameModelAndSetErrorf returns true if `expr` only refers to variables of `mb`.
// If false, an error with the error message `format` is set on `mb` if `mb.err` is nil.
func (mb *Builder) checkSameModelAndSetErrorf(expr *LinearExpr, format string, a ...any) bool {
	if !expr.mixed && (expr.mb == nil || expr.mb == mb) {
		return true
	}
	args := make([]any, len(a)+1)
	copy(args, a)
	args[len(a)] = ErrMixedModels
	mb.setErr(fmt.Errorf(format+": %w", args...))
	return false
}

func (mb *Builder) newVar(lb, ub float64, integer bool) Var {
	v := Var{mb: mb, ind: VarIndex(len(mb.mpb.Variables))}
	if math.IsNaN(lb) || math.IsNaN(ub) {
		mb.setErr(fmt.Errorf("variable %d has NaN bound: %w", v.ind, ErrBadCoefficient))
	} else if NewDomain(lb, ub).IsEmpty() {
		mb.setErr(fmt.Errorf("variable %d has empty domain [%v,%v]", v.ind, lb, ub))
	}
	mb.mpb.Variables = append(mb.mpb.Variables, &Variable{
		LowerBound: lb,
		UpperBound: ub,
		IsInteger:  integer,
	})
	return v
}

// NewIntVar creates a new integer variable with domain `[lb,ub]`. Use math.Inf(1) for an
// unbounded variable.
func (mb *Builder) NewIntVar(lb, ub float64) Var {
	return mb.newVar(lb, ub, true)
}

// NewNumVar creates a new continuous variable with domain `[lb,ub]`.
func (mb *Builder) NewNumVar(lb, ub float64) Var {
	return mb.newVar(lb, ub, false)
}

// NumVars returns the number of variables created so far.
func (mb *Builder) NumVars() int {
	return len(mb.mpb.Variables)
}

// NumConstraints returns the number of constraints created so far.
func (mb *Builder) NumConstraints() int {
	return len(mb.mpb.Constraints)
}

// LookupVar returns the variable with the given name.
func (mb *Builder) LookupVar(name string) (Var, bool) {
	i, ok := mb.varNames[name]
	if !ok {
		return Var{}, false
	}
	return Var{ind: i, mb: mb}, true
}

// LookupConstraint returns the constraint with the given name.
func (mb *Builder) LookupConstraint(name string) (Constraint, bool) {
	i, ok := mb.ctNames[name]
	if !ok {
		return Constraint{}, false
	}
	return Constraint{ind: i, mb: mb}, true
}

// addLinearConstraint adds a linear constraint that enforces the value of `le` to be in
// `[lb,ub]`. The constant offset of `le` is subtracted from both bounds.
func (mb *Builder) addLinearConstraint(le *LinearExpr, lb, ub float64) Constraint {
	ind := ConstrIndex(len(mb.mpb.Constraints))
	mb.checkSameModelAndSetErrorf(le, "invalid expression added to constraint %v", ind)

	ct := &LinearConstraint{
		LowerBound: lb - le.offset,
		UpperBound: ub - le.offset,
	}
	for _, vc := range le.merged() {
		if math.IsNaN(vc.coeff) || math.IsInf(vc.coeff, 0) {
			mb.setErr(fmt.Errorf("constraint %v, variable %v: %w", ind, vc.ind, ErrBadCoefficient))
		}
		ct.VarIndex = append(ct.VarIndex, int32(vc.ind))
		ct.Coefficient = append(ct.Coefficient, vc.coeff)
	}
	mb.mpb.Constraints = append(mb.mpb.Constraints, ct)

	return Constraint{mb: mb, ind: ind}
}

// AddLinearConstraint adds the linear constraint `lb <= expr <= ub`.
func (mb *Builder) AddLinearConstraint(expr LinearArgument, lb, ub float64) Constraint {
	linExpr := NewLinearExpr().Add(expr)
	return mb.addLinearConstraint(linExpr, lb, ub)
}

// AddLinearConstraintForDomain adds the linear constraint `expr` in `domain`.
func (mb *Builder) AddLinearConstraintForDomain(expr LinearArgument, domain Domain) Constraint {
	return mb.AddLinearConstraint(expr, domain.Start, domain.End)
}

// AddEquality adds the linear constraint `lhs == rhs`.
func (mb *Builder) AddEquality(lhs LinearArgument, rhs LinearArgument) Constraint {
	diff := NewLinearExpr().Add(lhs).AddTerm(rhs, -1)

	return mb.addLinearConstraint(diff, 0, 0)
}

// AddLessOrEqual adds the linear constraint `lhs <= rhs`.
func (mb *Builder) AddLessOrEqual(lhs LinearArgument, rhs LinearArgument) Constraint {
	diff := NewLinearExpr().Add(lhs).AddTerm(rhs, -1)

	return mb.addLinearConstraint(diff, math.Inf(-1), 0)
}

// AddGreaterOrEqual adds the linear constraint `lhs >= rhs`.
func (mb *Builder) AddGreaterOrEqual(lhs LinearArgument, rhs LinearArgument) Constraint {
	diff := NewLinearExpr().Add(lhs).AddTerm(rhs, -1)

	return mb.addLinearConstraint(diff, 0, math.Inf(1))
}

func (mb *Builder) setObjective(obj LinearArgument, maximize bool) {
	o := NewLinearExpr().Add(obj)
	if !mb.checkSameModelAndSetErrorf(o, "invalid objective") {
		return
	}

	for _, v := range mb.mpb.Variables {
		v.ObjectiveCoefficient = 0
	}
	for _, vc := range o.merged() {
		if math.IsNaN(vc.coeff) || math.IsInf(vc.coeff, 0) {
			mb.setErr(fmt.Errorf("objective, variable %v: %w", vc.ind, ErrBadCoefficient))
		}
		mb.mpb.Variables[vc.ind].ObjectiveCoefficient = vc.coeff
	}
	mb.mpb.ObjectiveOffset = o.offset
	mb.mpb.Maximize = maximize
}

// Minimize sets a linear minimization objective, replacing any previous objective.
func (mb *Builder) Minimize(obj LinearArgument) {
	mb.setObjective(obj, false)
}

// Maximize sets a linear maximization objective, replacing any previous objective.
func (mb *Builder) Maximize(obj LinearArgument) {
	mb.setObjective(obj, true)
}

// VariableHint is a suggested value for a variable.
type VariableHint struct {
	Variable Var
	Value    float64
}

// NewPartialSolution converts hints into a PartialSolution sorted by variable index. A
// later hint for the same variable replaces an earlier one.
func NewPartialSolution(hints []VariableHint) *PartialSolution {
	values := make(map[VarIndex]float64, len(hints))
	for _, h := range hints {
		values[h.Variable.ind] = h.Value
	}
	ps := &PartialSolution{}
	for ind := range values {
		ps.VarIndex = append(ps.VarIndex, int32(ind))
	}
	sort.Slice(ps.VarIndex, func(i, j int) bool { return ps.VarIndex[i] < ps.VarIndex[j] })
	for _, ind := range ps.VarIndex {
		ps.VarValue = append(ps.VarValue, values[VarIndex(ind)])
	}
	return ps
}

// SetHint sets the solution hint of the model, replacing any previous one.
func (mb *Builder) SetHint(hints []VariableHint) {
	for _, h := range hints {
		if h.Variable.mb != mb {
			mb.setErr(fmt.Errorf("invalid hint for variable %v: %w", h.Variable.ind, ErrMixedModels))
			return
		}
		if math.IsNaN(h.Value) || math.IsInf(h.Value, 0) {
			mb.setErr(fmt.Errorf("hint of variable %v: %w", h.Variable.ind, ErrBadCoefficient))
			return
		}
	}
	mb.mpb.SolutionHint = NewPartialSolution(hints)
}

// ClearHint clears any hint on the model.
func (mb *Builder) ClearHint() {
	mb.mpb.SolutionHint = nil
}

// Model returns the built model. The model returned is a pointer to the model in Builder,
// and if modified, future calls to the Builder API can fail or result in an invalid model.
//
// Model returns an error when invalid parameters have been used during model building (e.g.
// passing variables from other builders, or reusing a name).
func (mb *Builder) Model() (*Model, error) {
	if mb.err != nil {
		return nil, mb.err
	}
	return mb.mpb, nil
}
