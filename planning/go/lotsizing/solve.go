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

package lotsizing

import (
	"errors"
	"fmt"
	"time"

	log "github.com/golang/glog"
	"github.com/google/uuid"

	"github.com/crateplan/crateplan/planning/go/lpmodel"
)

var (
	// ErrInfeasible is wrapped when the solver proves the model infeasible.
	ErrInfeasible = errors.New("model is infeasible")
	// ErrUnbounded is wrapped when the solver proves the objective unbounded.
	ErrUnbounded = errors.New("model is unbounded")
	// ErrNoOptimalSolution is wrapped for any other non-optimal terminal status.
	ErrNoOptimalSolution = errors.New("no optimal solution found")
)

// Solver is any LP/MILP backend that accepts a standard-form model.
type Solver interface {
	Solve(m *lpmodel.Model, params *lpmodel.Parameters) (*lpmodel.Response, error)
}

// StatusError reports a solve that ended without a proven optimum.
type StatusError struct {
	Status   lpmodel.Status
	Response *lpmodel.Response
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("solver returned status %v: %v", e.Status, e.Unwrap())
}

// Unwrap returns ErrInfeasible, ErrUnbounded or ErrNoOptimalSolution.
func (e *StatusError) Unwrap() error {
	switch e.Status {
	case lpmodel.Infeasible:
		return ErrInfeasible
	case lpmodel.Unbounded:
		return ErrUnbounded
	default:
		return ErrNoOptimalSolution
	}
}

// NamedValue is the solved value of one model variable.
type NamedValue struct {
	Name  string
	Value int64
}

// Plan is the decoded optimal solution of a lot-sizing problem.
type Plan struct {
	RunID     uuid.UUID
	Name      string
	Profile   Profile
	Status    lpmodel.Status
	Objective float64
	// Products lists the product ids in model order.
	Products []ProductID
	// Orders and Inventory hold one value per period. The ending inventory of the last
	// period is 0 under ForbidCarryOver.
	Orders         map[ProductID][]int64
	Inventory      map[ProductID][]int64
	RestockTrucks  []int64
	DeliveryTrucks []int64
	// Variables holds every model variable in model order.
	Variables []NamedValue
	Nodes     int
	WallTime  time.Duration
}

// NonZero returns the variables with a non-zero value, in model order.
func (p *Plan) NonZero() []NamedValue {
	var out []NamedValue
	for _, v := range p.Variables {
		if v.Value != 0 {
			out = append(out, v)
		}
	}
	return out
}

// Solve builds the model of `profile`, hands it once to `solver` and decodes the optimum.
//
// A solver failure is returned as is. Any status other than Optimal is returned as a
// *StatusError and no plan.
func Solve(cfg *Config, profile Profile, solver Solver, params *lpmodel.Parameters) (*Plan, error) {
	pb, err := Build(cfg, profile)
	if err != nil {
		return nil, err
	}
	runID := uuid.New()
	log.Infof("lotsizing: run %s solving %s with %d variables", runID, profile.Name, len(pb.Model.Variables))

	res, err := solver.Solve(pb.Model, params)
	if err != nil {
		return nil, fmt.Errorf("run %s: solver failed: %w", runID, err)
	}
	if res.Status != lpmodel.Optimal || !res.HasSolution() {
		log.Warningf("lotsizing: run %s ended with status %v", runID, res.Status)
		return nil, &StatusError{Status: res.Status, Response: res}
	}
	plan := pb.Decode(res)
	plan.RunID = runID
	log.Infof("lotsizing: run %s optimal objective %v after %d nodes in %v", runID, plan.Objective, res.Nodes, res.WallTime)
	return plan, nil
}

// Decode reads the values of every variable of the problem from an optimal response.
func (pb *Problem) Decode(res *lpmodel.Response) *Plan {
	n := pb.Config.Horizon
	plan := &Plan{
		Name:           pb.Config.Name,
		Profile:        pb.Profile,
		Status:         res.Status,
		Objective:      res.ObjectiveValue,
		Orders:         make(map[ProductID][]int64, len(pb.Orders)),
		Inventory:      make(map[ProductID][]int64, len(pb.Inventory)),
		RestockTrucks:  make([]int64, n),
		DeliveryTrucks: make([]int64, n),
		Nodes:          res.Nodes,
		WallTime:       res.WallTime,
	}
	for _, p := range pb.Config.Products {
		plan.Products = append(plan.Products, p.ID)
		q := make([]int64, n)
		inv := make([]int64, n)
		for t := 0; t < n; t++ {
			q[t] = lpmodel.SolutionIntegerValue(res, pb.Orders[p.ID][t])
			if out := pb.Ending(p.ID, t); out != nil {
				inv[t] = lpmodel.SolutionIntegerValue(res, out)
			}
		}
		plan.Orders[p.ID] = q
		plan.Inventory[p.ID] = inv
	}
	for t := 0; t < n; t++ {
		plan.RestockTrucks[t] = lpmodel.SolutionIntegerValue(res, pb.Restock[t])
		plan.DeliveryTrucks[t] = lpmodel.SolutionIntegerValue(res, pb.Delivery[t])
	}
	for j, v := range pb.Model.Variables {
		plan.Variables = append(plan.Variables, NamedValue{Name: v.Name, Value: roundValue(res.VariableValues[j])})
	}
	return plan
}
