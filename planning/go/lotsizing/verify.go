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
	"math"
)

// ErrPlanViolation is wrapped by every error returned by Verify.
var ErrPlanViolation = errors.New("plan violates the model")

func roundValue(v float64) int64 {
	return int64(math.Round(v))
}

func violationf(format string, a ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, a...), ErrPlanViolation)
}

// Verify re-checks a plan against the data it was solved for: non-negativity, exact
// inventory balance, storage, restock truck and delivery truck capacities, the restock
// truck cap and the terminal inventory policy of `profile`. Capacity rows are compared
// with an absolute tolerance `tol`. All violations are joined in the returned error.
func Verify(cfg *Config, profile Profile, plan *Plan, tol float64) error {
	if err := cfg.Validate(profile); err != nil {
		return err
	}
	n := cfg.Horizon
	op := cfg.Operating
	var errs []error

	if len(plan.RestockTrucks) != n || len(plan.DeliveryTrucks) != n {
		return violationf("plan has %d restock and %d delivery periods, want %d", len(plan.RestockTrucks), len(plan.DeliveryTrucks), n)
	}
	for _, p := range cfg.Products {
		if len(plan.Orders[p.ID]) != n || len(plan.Inventory[p.ID]) != n {
			return violationf("product %s: plan does not cover %d periods", p.ID, n)
		}
	}

	for t := 0; t < n; t++ {
		storage, restock, delivery := 0.0, 0.0, 0.0
		for _, p := range cfg.Products {
			q, inv := plan.Orders[p.ID], plan.Inventory[p.ID]
			var entering int64
			if t > 0 {
				entering = inv[t-1]
			}
			if q[t] < 0 || inv[t] < 0 {
				errs = append(errs, violationf("product %s, period %d: negative order %d or inventory %d", p.ID, t, q[t], inv[t]))
			}
			if got, want := entering+q[t]-inv[t], cfg.Demand[p.ID][t]; got != want {
				errs = append(errs, violationf("product %s, period %d: balance %d+%d-%d = %d, want demand %d", p.ID, t, entering, q[t], inv[t], got, want))
			}
			perCrate := 1 / float64(p.CrateCapacity)
			storage += float64(entering+q[t]) * perCrate
			restock += float64(q[t]) * perCrate
			delivery += float64(cfg.Demand[p.ID][t]) * perCrate
		}
		if storage > op.StorageCapacityCrates+tol {
			errs = append(errs, violationf("period %d: %v crates stored, capacity %v", t, storage, op.StorageCapacityCrates))
		}
		if capa := op.RestockTruckCapacityCrates * float64(plan.RestockTrucks[t]); restock > capa+tol {
			errs = append(errs, violationf("period %d: %v crates restocked with %d trucks of %v crates", t, restock, plan.RestockTrucks[t], op.RestockTruckCapacityCrates))
		}
		if capa := op.DeliveryTruckCapacityCrates * float64(plan.DeliveryTrucks[t]); delivery > capa+tol {
			errs = append(errs, violationf("period %d: %v crates delivered with %d trucks of %v crates", t, delivery, plan.DeliveryTrucks[t], op.DeliveryTruckCapacityCrates))
		}
		if plan.RestockTrucks[t] < 0 || plan.DeliveryTrucks[t] < 0 {
			errs = append(errs, violationf("period %d: negative truck count", t))
		}
		if profile.CapRestockTrucks && plan.RestockTrucks[t] > op.RestockTruckMax {
			errs = append(errs, violationf("period %d: %d restock trucks, at most %d", t, plan.RestockTrucks[t], op.RestockTruckMax))
		}
	}
	if profile.Terminal == ForbidCarryOver {
		for _, p := range cfg.Products {
			if last := plan.Inventory[p.ID][n-1]; last != 0 {
				errs = append(errs, violationf("product %s: %d units carried over past the horizon", p.ID, last))
			}
		}
	}
	return errors.Join(errs...)
}
