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

// Package lotsizing builds multi-period inventory lot-sizing models.
//
// Given per-product economics, crate capacities and a demand forecast, Build creates the
// order, inventory and truck variables of every period, the objective selected by a
// Profile and the inventory balance, storage, restock truck and delivery truck rows. The
// resulting lpmodel.Model can be handed to any Solver. Solve runs the whole cycle once and
// decodes the answer into a Plan.
package lotsizing

import (
	"fmt"
	"math"

	log "github.com/golang/glog"

	"github.com/crateplan/crateplan/planning/go/crates"
	"github.com/crateplan/crateplan/planning/go/lpmodel"
)

// Problem is an assembled lot-sizing model together with handles on its variables.
type Problem struct {
	Config  *Config
	Profile Profile
	Model   *lpmodel.Model

	// Orders holds Q[p,t] for every period.
	Orders map[ProductID][]lpmodel.Var
	// Inventory holds I[p,t]. Under ForbidCarryOver it has no entry for the last period.
	Inventory map[ProductID][]lpmodel.Var
	// Restock holds the restock truck count t[t].
	Restock []lpmodel.Var
	// Delivery holds the delivery truck count s[t].
	Delivery []lpmodel.Var
	// DeliveryCrates is the crate-equivalent demand of every period.
	DeliveryCrates []float64
}

// Entering returns the inventory entering period t for product id, or nil at t == 0.
func (pb *Problem) Entering(id ProductID, t int) lpmodel.LinearArgument {
	if t == 0 {
		return nil
	}
	return pb.Inventory[id][t-1]
}

// Ending returns the ending inventory variable of period t, or nil when the profile has
// none for that period.
func (pb *Problem) Ending(id ProductID, t int) lpmodel.LinearArgument {
	inv := pb.Inventory[id]
	if t >= len(inv) {
		return nil
	}
	return inv[t]
}

func orderName(id ProductID, t int) string     { return fmt.Sprintf("Q[%s,%d]", id, t) }
func inventoryName(id ProductID, t int) string { return fmt.Sprintf("I[%s,%d]", id, t) }

// Build validates `cfg` and assembles the model of `profile`.
func Build(cfg *Config, profile Profile) (*Problem, error) {
	if err := cfg.Validate(profile); err != nil {
		return nil, err
	}
	n := cfg.Horizon
	op := cfg.Operating
	totals, err := crates.PeriodTotals(cfg.Demand, cfg.CrateCapacities(), n)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidConfig)
	}

	mb := lpmodel.NewBuilder(cfg.Name + "/" + profile.Name)
	pb := &Problem{
		Config:         cfg,
		Profile:        profile,
		Orders:         make(map[ProductID][]lpmodel.Var, len(cfg.Products)),
		Inventory:      make(map[ProductID][]lpmodel.Var, len(cfg.Products)),
		DeliveryCrates: totals,
	}

	// Variables.
	inf := math.Inf(1)
	for _, p := range cfg.Products {
		q := make([]lpmodel.Var, n)
		var inv []lpmodel.Var
		for t := 0; t < n; t++ {
			q[t] = mb.NewIntVar(0, inf).WithName(orderName(p.ID, t))
			if profile.hasEndingInventory(t, n) {
				inv = append(inv, mb.NewIntVar(0, inf).WithName(inventoryName(p.ID, t)))
			}
		}
		pb.Orders[p.ID] = q
		pb.Inventory[p.ID] = inv
	}
	truckMax := inf
	if profile.CapRestockTrucks {
		truckMax = float64(op.RestockTruckMax)
	}
	pb.Restock = make([]lpmodel.Var, n)
	pb.Delivery = make([]lpmodel.Var, n)
	for t := 0; t < n; t++ {
		pb.Restock[t] = mb.NewIntVar(0, truckMax).WithName(fmt.Sprintf("t[%d]", t))
		pb.Delivery[t] = mb.NewIntVar(0, inf).WithName(fmt.Sprintf("s[%d]", t))
	}

	// Objective.
	obj := lpmodel.NewLinearExpr()
	for _, p := range cfg.Products {
		switch profile.Objective {
		case MarginObjective:
			margin := cfg.Margin(p).InexactFloat64()
			for _, q := range pb.Orders[p.ID] {
				obj.AddTerm(q, margin)
			}
		case PriceObjective:
			selling := p.SellingPrice.InexactFloat64()
			purchase := p.PurchasePrice.InexactFloat64()
			holding := cfg.HoldingCost(p).InexactFloat64()
			for t, q := range pb.Orders[p.ID] {
				obj.AddConstant(selling * float64(cfg.Demand[p.ID][t]))
				obj.AddTerm(q, -purchase)
			}
			for _, i := range pb.Inventory[p.ID] {
				obj.AddTerm(i, -holding)
			}
		default:
			return nil, fmt.Errorf("profile %s: unknown objective %v: %w", profile.Name, profile.Objective, ErrInvalidConfig)
		}
	}
	restockCost := op.RestockTruckCost.InexactFloat64()
	deliveryCost := op.DeliveryTripCost.InexactFloat64()
	for t := 0; t < n; t++ {
		obj.AddTerm(pb.Restock[t], -restockCost)
		obj.AddTerm(pb.Delivery[t], -deliveryCost)
	}
	obj.AddConstant(-op.AnnualLaborCost.InexactFloat64())
	mb.Maximize(obj)

	// Constraints.
	for t := 0; t < n; t++ {
		for _, p := range cfg.Products {
			balance := lpmodel.NewLinearExpr().Add(pb.Orders[p.ID][t])
			if in := pb.Entering(p.ID, t); in != nil {
				balance.Add(in)
			}
			if out := pb.Ending(p.ID, t); out != nil {
				balance.AddTerm(out, -1)
			}
			mb.AddEquality(balance, lpmodel.NewConstant(float64(cfg.Demand[p.ID][t]))).
				WithName(fmt.Sprintf("demand_%s_%d", p.ID, t))
		}

		storage := lpmodel.NewLinearExpr()
		restock := lpmodel.NewLinearExpr()
		for _, p := range cfg.Products {
			perCrate := 1 / float64(p.CrateCapacity)
			storage.AddTerm(pb.Orders[p.ID][t], perCrate)
			if in := pb.Entering(p.ID, t); in != nil {
				storage.AddTerm(in, perCrate)
			}
			restock.AddTerm(pb.Orders[p.ID][t], perCrate)
		}
		mb.AddLessOrEqual(storage, lpmodel.NewConstant(op.StorageCapacityCrates)).
			WithName(fmt.Sprintf("storage_%d", t))
		mb.AddLessOrEqual(restock, lpmodel.NewLinearExpr().AddTerm(pb.Restock[t], op.RestockTruckCapacityCrates)).
			WithName(fmt.Sprintf("restock_truck_%d", t))
		mb.AddGreaterOrEqual(lpmodel.NewLinearExpr().AddTerm(pb.Delivery[t], op.DeliveryTruckCapacityCrates), lpmodel.NewConstant(totals[t])).
			WithName(fmt.Sprintf("delivery_truck_%d", t))
	}

	m, err := mb.Model()
	if err != nil {
		return nil, fmt.Errorf("building %s model: %w", profile.Name, err)
	}
	pb.Model = m
	log.V(1).Infof("lotsizing: built %s model for %d products over %d periods: %d variables, %d constraints",
		profile.Name, len(cfg.Products), n, mb.NumVars(), mb.NumConstraints())
	return pb, nil
}
