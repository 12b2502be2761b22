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
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mustModel(t *testing.T, builder *Builder) *Model {
	t.Helper()
	m, err := builder.Model()
	if err != nil {
		t.Fatalf("builder.Model() returned with unexpected error %v", err)
	}
	return m
}

func TestVar_Name(t *testing.T) {
	testCases := []struct {
		name    string
		varName func() string
		want    string
	}{
		{
			name: "IntVarName",
			varName: func() string {
				model := NewBuilder("")
				return model.NewIntVar(0, 10).WithName("Q[A,0]").Name()
			},
			want: "Q[A,0]",
		},
		{
			name: "NumVarName",
			varName: func() string {
				model := NewBuilder("")
				return model.NewNumVar(0, 10).WithName("I[A,0]").Name()
			},
			want: "I[A,0]",
		},
		{
			name: "Renamed",
			varName: func() string {
				model := NewBuilder("")
				v := model.NewNumVar(0, 10).WithName("a").WithName("b")
				if _, ok := model.LookupVar("a"); ok {
					return "a still registered"
				}
				return v.Name()
			},
			want: "b",
		},
		{
			name: "Unnamed",
			varName: func() string {
				model := NewBuilder("")
				return model.NewIntVar(0, 10).Name()
			},
			want: "",
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			got := test.varName()
			if got != test.want {
				t.Errorf("test.varName() = %#v, want %#v", got, test.want)
			}
		})
	}
}

func TestVar_Domain(t *testing.T) {
	model := NewBuilder("")
	x := model.NewIntVar(0, 3)
	y := model.NewNumVar(-1.5, math.Inf(1))

	if got, want := x.Domain(), NewDomain(0, 3); got != want {
		t.Errorf("x.Domain() = %v, want %v", got, want)
	}
	if got, want := y.Domain(), NewDomain(-1.5, math.Inf(1)); got != want {
		t.Errorf("y.Domain() = %v, want %v", got, want)
	}
	if !x.IsInteger() || y.IsInteger() {
		t.Errorf("(x.IsInteger(), y.IsInteger()) = (%v, %v), want (true, false)", x.IsInteger(), y.IsInteger())
	}
	if got, want := x.Index(), VarIndex(0); got != want {
		t.Errorf("x.Index() = %v, want %v", got, want)
	}
	if got, want := y.Index(), VarIndex(1); got != want {
		t.Errorf("y.Index() = %v, want %v", got, want)
	}
}

func TestVar_EvaluateSolutionValue(t *testing.T) {
	model := NewBuilder("")
	x := model.NewIntVar(0, 10)
	y := model.NewNumVar(0, 10)
	res := &Response{Status: Optimal, VariableValues: []float64{3, 2.5}}

	testCases := []struct {
		name string
		la   LinearArgument
		want float64
	}{
		{name: "Var", la: x, want: 3},
		{name: "Constant", la: NewConstant(4), want: 4},
		{name: "Expr", la: NewLinearExpr().AddTerm(x, 2).AddTerm(y, -2).AddConstant(1), want: 2},
		{name: "NestedExpr", la: NewLinearExpr().AddTerm(NewLinearExpr().AddSum(x, y), 2), want: 11},
	}
	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			if got := SolutionValue(res, test.la); got != test.want {
				t.Errorf("SolutionValue() = %v, want %v", got, test.want)
			}
		})
	}
	if got, want := SolutionIntegerValue(res, y), int64(3); got != want {
		t.Errorf("SolutionIntegerValue(y) = %v, want %v", got, want)
	}
}

func TestLinearExpr(t *testing.T) {
	model := NewBuilder("")
	x := model.NewIntVar(0, 10)
	y := model.NewIntVar(0, 10)
	z := model.NewIntVar(0, 10)

	testCases := []struct {
		name      string
		expr      *LinearExpr
		wantIdx   []int32
		wantCoeff []float64
		wantLb    float64
	}{
		{
			name:      "AddSum",
			expr:      NewLinearExpr().AddSum(x, y, z),
			wantIdx:   []int32{0, 1, 2},
			wantCoeff: []float64{1, 1, 1},
		},
		{
			name:      "MergeTerms",
			expr:      NewLinearExpr().Add(x).AddTerm(y, 2).AddTerm(x, -1).AddTerm(y, 3),
			wantIdx:   []int32{1},
			wantCoeff: []float64{5},
		},
		{
			name:      "AddWeightedSum",
			expr:      NewLinearExpr().AddWeightedSum([]LinearArgument{z, x}, []float64{0.5, -2}),
			wantIdx:   []int32{2, 0},
			wantCoeff: []float64{0.5, -2},
		},
		{
			name:      "OffsetMovesToBounds",
			expr:      NewLinearExpr().Add(x).AddConstant(4),
			wantIdx:   []int32{0},
			wantCoeff: []float64{1},
			wantLb:    -4,
		},
	}
	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			c := model.AddLinearConstraint(test.expr, 0, math.Inf(1))
			m := mustModel(t, model)
			ct := m.Constraints[c.Index()]
			want := &LinearConstraint{
				LowerBound:  test.wantLb,
				UpperBound:  math.Inf(1),
				VarIndex:    test.wantIdx,
				Coefficient: test.wantCoeff,
			}
			if diff := cmp.Diff(want, ct); diff != "" {
				t.Errorf("AddLinearConstraint() returned with unexpected diff (-want+got):\n%s", diff)
			}
		})
	}
}

func TestBuilder_Constraints(t *testing.T) {
	testCases := []struct {
		name  string
		build func(model *Builder, x, y Var) Constraint
		want  *LinearConstraint
	}{
		{
			name: "AddEquality",
			build: func(model *Builder, x, y Var) Constraint {
				return model.AddEquality(NewLinearExpr().AddSum(x, y), NewConstant(15))
			},
			want: &LinearConstraint{LowerBound: 15, UpperBound: 15, VarIndex: []int32{0, 1}, Coefficient: []float64{1, 1}},
		},
		{
			name: "AddLessOrEqual",
			build: func(model *Builder, x, y Var) Constraint {
				return model.AddLessOrEqual(x, y)
			},
			want: &LinearConstraint{LowerBound: math.Inf(-1), UpperBound: 0, VarIndex: []int32{0, 1}, Coefficient: []float64{1, -1}},
		},
		{
			name: "AddGreaterOrEqual",
			build: func(model *Builder, x, y Var) Constraint {
				return model.AddGreaterOrEqual(NewLinearExpr().AddTerm(x, 2), NewLinearExpr().Add(y).AddConstant(3))
			},
			want: &LinearConstraint{LowerBound: 3, UpperBound: math.Inf(1), VarIndex: []int32{0, 1}, Coefficient: []float64{2, -1}},
		},
		{
			name: "AddLinearConstraintForDomain",
			build: func(model *Builder, x, y Var) Constraint {
				return model.AddLinearConstraintForDomain(NewLinearExpr().Add(y).AddTerm(x, 0.5), NewDomain(-1, 1))
			},
			want: &LinearConstraint{LowerBound: -1, UpperBound: 1, VarIndex: []int32{1, 0}, Coefficient: []float64{1, 0.5}},
		},
		{
			name: "Named",
			build: func(model *Builder, x, y Var) Constraint {
				return model.AddLessOrEqual(x, NewConstant(4)).WithName("storage_0")
			},
			want: &LinearConstraint{Name: "storage_0", LowerBound: math.Inf(-1), UpperBound: 4, VarIndex: []int32{0}, Coefficient: []float64{1}},
		},
	}
	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			model := NewBuilder(test.name)
			x := model.NewIntVar(0, 10)
			y := model.NewNumVar(0, 10)
			c := test.build(model, x, y)
			m := mustModel(t, model)
			if got, want := model.NumConstraints(), 1; got != want {
				t.Fatalf("NumConstraints() = %v, want %v", got, want)
			}
			if diff := cmp.Diff(test.want, m.Constraints[c.Index()]); diff != "" {
				t.Errorf("%v returned with unexpected diff (-want+got):\n%s", test.name, diff)
			}
			if got, want := c.Domain(), NewDomain(test.want.LowerBound, test.want.UpperBound); got != want {
				t.Errorf("c.Domain() = %v, want %v", got, want)
			}
		})
	}
}

func TestBuilder_Minimize(t *testing.T) {
	model := NewBuilder("")
	x := model.NewIntVar(-5, 5)
	y := model.NewIntVar(0, 10)

	model.Minimize(NewLinearExpr().AddTerm(x, 3).AddTerm(y, -1).AddConstant(7))

	m := mustModel(t, model)
	if m.Maximize {
		t.Errorf("Minimize() set Maximize = true, want false")
	}
	gotCoeffs := []float64{m.Variables[0].ObjectiveCoefficient, m.Variables[1].ObjectiveCoefficient}
	if diff := cmp.Diff([]float64{3, -1}, gotCoeffs); diff != "" {
		t.Errorf("Minimize() returned with unexpected objective diff (-want+got):\n%s", diff)
	}
	if got, want := m.ObjectiveOffset, 7.0; got != want {
		t.Errorf("Minimize() set ObjectiveOffset = %v, want %v", got, want)
	}
}

func TestBuilder_Maximize(t *testing.T) {
	model := NewBuilder("")
	x := model.NewIntVar(-5, 5)
	y := model.NewIntVar(0, 10)

	model.Minimize(x)
	model.Maximize(NewLinearExpr().AddTerm(y, 2))

	m := mustModel(t, model)
	if !m.Maximize {
		t.Errorf("Maximize() set Maximize = false, want true")
	}
	gotCoeffs := []float64{m.Variables[0].ObjectiveCoefficient, m.Variables[1].ObjectiveCoefficient}
	if diff := cmp.Diff([]float64{0, 2}, gotCoeffs); diff != "" {
		t.Errorf("Maximize() did not replace the previous objective (-want+got):\n%s", diff)
	}
}

func TestBuilder_Lookup(t *testing.T) {
	model := NewBuilder("")
	x := model.NewIntVar(0, 1).WithName("t[0]")
	c := model.AddLessOrEqual(x, NewConstant(1)).WithName("restock_truck_0")

	if got, ok := model.LookupVar("t[0]"); !ok || got.Index() != x.Index() {
		t.Errorf("LookupVar(t[0]) = (%v, %v), want (%v, true)", got.Index(), ok, x.Index())
	}
	if _, ok := model.LookupVar("t[1]"); ok {
		t.Errorf("LookupVar(t[1]) = true, want false")
	}
	if got, ok := model.LookupConstraint("restock_truck_0"); !ok || got.Name() != c.Name() {
		t.Errorf("LookupConstraint(restock_truck_0) = (%v, %v), want (%v, true)", got.Index(), ok, c.Index())
	}
}

func TestBuilder_ErrorHandling(t *testing.T) {
	testCases := []struct {
		name    string
		builder func() *Builder
		want    error
	}{
		{
			name: "MixedConstraint",
			builder: func() *Builder {
				model1 := NewBuilder("")
				model2 := NewBuilder("")
				model1.AddEquality(model2.NewIntVar(0, 10), NewConstant(1))
				return model1
			},
			want: ErrMixedModels,
		},
		{
			name: "MixedExpression",
			builder: func() *Builder {
				model1 := NewBuilder("")
				model2 := NewBuilder("")
				x := model1.NewIntVar(0, 10)
				y := model2.NewIntVar(0, 10)
				model1.AddLessOrEqual(NewLinearExpr().AddSum(x, y), NewConstant(3))
				return model1
			},
			want: ErrMixedModels,
		},
		{
			name: "MixedObjective",
			builder: func() *Builder {
				model1 := NewBuilder("")
				model2 := NewBuilder("")
				model1.Maximize(model2.NewNumVar(0, 1))
				return model1
			},
			want: ErrMixedModels,
		},
		{
			name: "MixedObjectiveTerms",
			builder: func() *Builder {
				model1 := NewBuilder("")
				model2 := NewBuilder("")
				x := model1.NewIntVar(0, 1)
				model2.NewNumVar(0, 1)
				model2.NewNumVar(0, 1)
				model1.Minimize(NewLinearExpr().Add(x).AddTerm(model2.NewNumVar(0, 1), 2))
				return model1
			},
			want: ErrMixedModels,
		},
		{
			name: "DuplicateVarName",
			builder: func() *Builder {
				model := NewBuilder("")
				model.NewIntVar(0, 1).WithName("x")
				model.NewIntVar(0, 1).WithName("x")
				return model
			},
			want: ErrDuplicateName,
		},
		{
			name: "DuplicateConstraintName",
			builder: func() *Builder {
				model := NewBuilder("")
				x := model.NewIntVar(0, 1)
				model.AddLessOrEqual(x, NewConstant(1)).WithName("c")
				model.AddGreaterOrEqual(x, NewConstant(0)).WithName("c")
				return model
			},
			want: ErrDuplicateName,
		},
		{
			name: "NaNCoefficient",
			builder: func() *Builder {
				model := NewBuilder("")
				x := model.NewNumVar(0, 1)
				model.AddLinearConstraint(NewLinearExpr().AddTerm(x, math.NaN()), 0, 1)
				return model
			},
			want: ErrBadCoefficient,
		},
		{
			name: "InfiniteObjective",
			builder: func() *Builder {
				model := NewBuilder("")
				x := model.NewNumVar(0, 1)
				model.Minimize(NewLinearExpr().AddTerm(x, math.Inf(1)))
				return model
			},
			want: ErrBadCoefficient,
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			got, err := test.builder().Model()
			if !errors.Is(err, test.want) {
				t.Errorf("test.Model() returned with unexpected error %v; want %v", err, test.want)
			}
			if got != nil {
				t.Errorf("test.Model() returned with unexpected model %v; want nil", got)
			}
		})
	}
}

func TestBuilder_SetHint(t *testing.T) {
	model := NewBuilder("hint")
	x := model.NewIntVar(0, 10)
	y := model.NewNumVar(0, 5)
	z := model.NewNumVar(0, 5)
	model.SetHint([]VariableHint{{Variable: z, Value: 1.5}, {Variable: x, Value: 3}, {Variable: z, Value: 2}})

	m, err := model.Model()
	if err != nil {
		t.Fatalf("Model() returned with unexpected error %v", err)
	}
	want := &PartialSolution{VarIndex: []int32{int32(x.Index()), int32(z.Index())}, VarValue: []float64{3, 2}}
	if diff := cmp.Diff(want, m.SolutionHint); diff != "" {
		t.Errorf("SolutionHint returned with unexpected diff (-want+got):\n%v", diff)
	}
	if y.Index() != 1 {
		t.Errorf("y.Index() = %v, want 1", y.Index())
	}

	model.ClearHint()
	if m.SolutionHint != nil {
		t.Errorf("SolutionHint = %v after ClearHint(), want nil", m.SolutionHint)
	}
}

func TestBuilder_SetHintErrors(t *testing.T) {
	model1 := NewBuilder("")
	model2 := NewBuilder("")
	model1.NewIntVar(0, 1)
	model1.SetHint([]VariableHint{{Variable: model2.NewIntVar(0, 1), Value: 1}})
	if _, err := model1.Model(); !errors.Is(err, ErrMixedModels) {
		t.Errorf("Model() returned with unexpected error %v; want %v", err, ErrMixedModels)
	}

	model := NewBuilder("")
	x := model.NewNumVar(0, 1)
	model.SetHint([]VariableHint{{Variable: x, Value: math.NaN()}})
	if _, err := model.Model(); !errors.Is(err, ErrBadCoefficient) {
		t.Errorf("Model() returned with unexpected error %v; want %v", err, ErrBadCoefficient)
	}
}

func TestBuilder_EmptyDomain(t *testing.T) {
	model := NewBuilder("")
	model.NewNumVar(3, 2)
	if _, err := model.Model(); err == nil {
		t.Errorf("Model() returned nil error for a variable with domain [3,2]")
	}
}

func TestBuilder_FirstErrorIsLatched(t *testing.T) {
	model := NewBuilder("")
	model.NewIntVar(0, 1).WithName("x")
	model.NewIntVar(0, 1).WithName("x")
	model.AddLinearConstraint(NewLinearExpr().AddTerm(model.NewNumVar(0, 1), math.NaN()), 0, 1)

	_, err := model.Model()
	if !errors.Is(err, ErrDuplicateName) {
		t.Errorf("Model() returned %v, want the first error %v", err, ErrDuplicateName)
	}
	if errors.Is(err, ErrBadCoefficient) {
		t.Errorf("Model() returned %v, want only the first error", err)
	}
}
