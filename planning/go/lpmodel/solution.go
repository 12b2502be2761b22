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
	"math"
	"time"
)

// Status is the terminal state reported by a solver.
type Status int

const (
	// NotSolved means the solver stopped (limit reached) before finding any solution.
	NotSolved Status = iota
	// Optimal means the reported solution is proven optimal within the gap limits.
	Optimal
	// Feasible means a solution was found but optimality was not proven.
	Feasible
	// Infeasible means the model admits no feasible point.
	Infeasible
	// Unbounded means the objective has no finite optimum.
	Unbounded
	// Abnormal means the solver itself failed (numerical trouble, internal error).
	Abnormal
	// ModelInvalid means the model could not be loaded by the solver.
	ModelInvalid
)

var statusNames = map[Status]string{
	NotSolved:    "NOT_SOLVED",
	Optimal:      "OPTIMAL",
	Feasible:     "FEASIBLE",
	Infeasible:   "INFEASIBLE",
	Unbounded:    "UNBOUNDED",
	Abnormal:     "ABNORMAL",
	ModelInvalid: "MODEL_INVALID",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return "UNKNOWN"
}

// Parameters groups the knobs understood by solvers. The zero value selects defaults.
type Parameters struct {
	// TimeLimit bounds the wall time of a solve. Zero means no limit.
	TimeLimit time.Duration
	// NodeLimit bounds the number of branch-and-bound nodes. Zero means the solver default.
	NodeLimit int
	// IntegralityTolerance is the distance to the nearest integer under which an integer
	// variable is considered integral.
	IntegralityTolerance float64
	// PrimalTolerance is the feasibility tolerance on bounds and rows.
	PrimalTolerance float64
	// RelativeGapLimit stops the search once |objective - bound| is at most this fraction of
	// |objective|. Zero selects DefaultRelativeGapLimit, a negative value asks for an exact
	// optimum.
	RelativeGapLimit float64
	// AbsoluteGapLimit stops the search once |objective - bound| is at most this value. Zero
	// selects DefaultAbsoluteGapLimit, a negative value asks for an exact optimum.
	AbsoluteGapLimit float64
}

// Default values for Parameters fields left at zero.
const (
	DefaultNodeLimit            = 200000
	DefaultIntegralityTolerance = 1e-6
	DefaultPrimalTolerance      = 1e-7
	DefaultRelativeGapLimit     = 1e-4
	DefaultAbsoluteGapLimit     = 1e-6
)

// WithDefaults returns a copy of `p` where zero fields are replaced by defaults. A nil
// receiver yields the defaults.
func (p *Parameters) WithDefaults() Parameters {
	var out Parameters
	if p != nil {
		out = *p
	}
	if out.NodeLimit == 0 {
		out.NodeLimit = DefaultNodeLimit
	}
	if out.IntegralityTolerance == 0 {
		out.IntegralityTolerance = DefaultIntegralityTolerance
	}
	if out.PrimalTolerance == 0 {
		out.PrimalTolerance = DefaultPrimalTolerance
	}
	switch {
	case out.RelativeGapLimit == 0:
		out.RelativeGapLimit = DefaultRelativeGapLimit
	case out.RelativeGapLimit < 0:
		out.RelativeGapLimit = 0
	}
	switch {
	case out.AbsoluteGapLimit == 0:
		out.AbsoluteGapLimit = DefaultAbsoluteGapLimit
	case out.AbsoluteGapLimit < 0:
		out.AbsoluteGapLimit = 0
	}
	return out
}

// Response is the outcome of a solve. VariableValues is only set for Optimal and Feasible
// statuses, in the order of Model.Variables.
type Response struct {
	Status         Status
	ObjectiveValue float64
	BestBound      float64
	VariableValues []float64
	Nodes          int
	WallTime       time.Duration
}

// HasSolution reports whether the response carries a primal solution.
func (r *Response) HasSolution() bool {
	return r != nil && (r.Status == Optimal || r.Status == Feasible) && r.VariableValues != nil
}

// SolutionValue returns the value of LinearArgument `la` in the response.
func SolutionValue(r *Response, la LinearArgument) float64 {
	return la.evaluateSolutionValue(r.VariableValues)
}

// SolutionIntegerValue returns the value of LinearArgument `la` in the response, rounded to
// the nearest integer.
func SolutionIntegerValue(r *Response, la LinearArgument) int64 {
	return int64(math.Round(SolutionValue(r, la)))
}
