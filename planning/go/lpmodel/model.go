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

package lpmodel

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidModel is returned by Validate for structurally broken models.
var ErrInvalidModel = errors.New("invalid model")

// Model is a linear (or mixed-integer linear) program:
//
//	optimize   sum_j ObjectiveCoefficient_j * x_j + ObjectiveOffset
//	subject to LowerBound_i <= sum_j Coefficient_ij * x_j <= UpperBound_i
//	           LowerBound_j <= x_j <= UpperBound_j, x_j integer if IsInteger.
type Model struct {
	Name            string
	Maximize        bool
	ObjectiveOffset float64
	Variables       []*Variable
	Constraints     []*LinearConstraint
	// SolutionHint suggests values for some variables. Solvers may ignore it.
	SolutionHint *PartialSolution
}

// PartialSolution assigns values to a subset of the variables of a Model.
type PartialSolution struct {
	VarIndex []int32
	VarValue []float64
}

// Variable is a decision variable of a Model.
type Variable struct {
	Name                 string
	LowerBound           float64
	UpperBound           float64
	ObjectiveCoefficient float64
	IsInteger            bool
}

// LinearConstraint is a sparse linear row of a Model. It is an equality when both bounds
// are equal.
type LinearConstraint struct {
	Name        string
	LowerBound  float64
	UpperBound  float64
	VarIndex    []int32
	Coefficient []float64
}

// Validate checks that every row refers to existing variables, that coefficients are
// finite and that no bound is NaN.
func Validate(m *Model) error {
	if m == nil {
		return fmt.Errorf("nil model: %w", ErrInvalidModel)
	}
	for i, v := range m.Variables {
		if math.IsNaN(v.LowerBound) || math.IsNaN(v.UpperBound) {
			return fmt.Errorf("variable %d (%s) has NaN bound: %w", i, v.Name, ErrInvalidModel)
		}
		if math.IsNaN(v.ObjectiveCoefficient) || math.IsInf(v.ObjectiveCoefficient, 0) {
			return fmt.Errorf("variable %d (%s) has objective coefficient %v: %w", i, v.Name, v.ObjectiveCoefficient, ErrInvalidModel)
		}
	}
	if math.IsNaN(m.ObjectiveOffset) || math.IsInf(m.ObjectiveOffset, 0) {
		return fmt.Errorf("objective offset %v: %w", m.ObjectiveOffset, ErrInvalidModel)
	}
	for i, ct := range m.Constraints {
		if len(ct.VarIndex) != len(ct.Coefficient) {
			return fmt.Errorf("constraint %d (%s): %d indices for %d coefficients: %w", i, ct.Name, len(ct.VarIndex), len(ct.Coefficient), ErrInvalidModel)
		}
		if math.IsNaN(ct.LowerBound) || math.IsNaN(ct.UpperBound) {
			return fmt.Errorf("constraint %d (%s) has NaN bound: %w", i, ct.Name, ErrInvalidModel)
		}
		for k, j := range ct.VarIndex {
			if j < 0 || int(j) >= len(m.Variables) {
				return fmt.Errorf("constraint %d (%s) refers to variable %d out of %d: %w", i, ct.Name, j, len(m.Variables), ErrInvalidModel)
			}
			if c := ct.Coefficient[k]; math.IsNaN(c) || math.IsInf(c, 0) {
				return fmt.Errorf("constraint %d (%s) has coefficient %v: %w", i, ct.Name, c, ErrInvalidModel)
			}
		}
	}
	if h := m.SolutionHint; h != nil {
		if len(h.VarIndex) != len(h.VarValue) {
			return fmt.Errorf("solution hint has %d indices for %d values: %w", len(h.VarIndex), len(h.VarValue), ErrInvalidModel)
		}
		for k, j := range h.VarIndex {
			if j < 0 || int(j) >= len(m.Variables) {
				return fmt.Errorf("solution hint refers to variable %d out of %d: %w", j, len(m.Variables), ErrInvalidModel)
			}
			if v := h.VarValue[k]; math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("solution hint of variable %d is %v: %w", j, v, ErrInvalidModel)
			}
		}
	}
	return nil
}

// ObjectiveValue evaluates the objective of `m` at `values`.
func ObjectiveValue(m *Model, values []float64) float64 {
	obj := m.ObjectiveOffset
	for j, v := range m.Variables {
		obj += v.ObjectiveCoefficient * values[j]
	}
	return obj
}

// Activities returns the value of every constraint row of `m` at `values`.
func Activities(m *Model, values []float64) []float64 {
	act := make([]float64, len(m.Constraints))
	for i, ct := range m.Constraints {
		for k, j := range ct.VarIndex {
			act[i] += ct.Coefficient[k] * values[j]
		}
	}
	return act
}

// MaxViolation returns the largest bound violation of any variable or constraint of `m`
// at `values`, together with the name of the offending entry. Integrality is not checked.
func MaxViolation(m *Model, values []float64) (float64, string) {
	worst, name := 0.0, ""
	for j, v := range m.Variables {
		if d := NewDomain(v.LowerBound, v.UpperBound).Violation(values[j]); d > worst {
			worst, name = d, v.Name
		}
	}
	for i, a := range Activities(m, values) {
		ct := m.Constraints[i]
		if d := NewDomain(ct.LowerBound, ct.UpperBound).Violation(a); d > worst {
			worst, name = d, ct.Name
		}
	}
	return worst, name
}
