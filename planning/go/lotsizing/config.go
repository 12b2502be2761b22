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

	"github.com/shopspring/decimal"
)

// ErrInvalidConfig is wrapped by every configuration error.
var ErrInvalidConfig = errors.New("invalid lot-sizing configuration")

var monthsPerYear = decimal.NewFromInt(12)

// ProductID identifies a product, e.g. "A".
type ProductID string

// Product holds the static economics of one product.
type Product struct {
	ID            ProductID
	PurchasePrice decimal.Decimal
	SellingPrice  decimal.Decimal
	// Margin is the per-unit profit used by the margin objective. When not valid, the
	// margin is SellingPrice - PurchasePrice.
	Margin decimal.NullDecimal
	// CrateCapacity is the number of units that fit in one crate.
	CrateCapacity int64
}

// Operating holds the costs and capacities shared by all products.
type Operating struct {
	RestockTruckCost decimal.Decimal
	DeliveryTripCost decimal.Decimal
	// AnnualLaborCost is subtracted from the objective as a constant.
	AnnualLaborCost decimal.Decimal

	StorageCapacityCrates       float64
	RestockTruckCapacityCrates  float64
	DeliveryTruckCapacityCrates float64
	// RestockTruckMax bounds the restock trucks of a period for profiles that cap them.
	RestockTruckMax int64
}

// Config is the full static input of a lot-sizing problem.
type Config struct {
	Name     string
	Products []Product
	// Horizon is the number of periods N; periods are indexed 0..N-1.
	Horizon int
	// Demand holds N non-negative quantities per product.
	Demand map[ProductID][]int64
	// HoldingRate is the annual holding cost as a fraction of the purchase price.
	HoldingRate decimal.Decimal
	Operating   Operating
}

// HoldingCost returns the monthly holding cost of one unit of `p`.
func (c *Config) HoldingCost(p Product) decimal.Decimal {
	return c.HoldingRate.Div(monthsPerYear).Mul(p.PurchasePrice)
}

// Margin returns the per-unit margin of `p` used by the margin objective.
func (c *Config) Margin(p Product) decimal.Decimal {
	if p.Margin.Valid {
		return p.Margin.Decimal
	}
	return p.SellingPrice.Sub(p.PurchasePrice)
}

// Product returns the product with the given id.
func (c *Config) Product(id ProductID) (Product, bool) {
	for _, p := range c.Products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

// CrateCapacities returns the crate capacity of every product, keyed by id.
func (c *Config) CrateCapacities() map[ProductID]int64 {
	out := make(map[ProductID]int64, len(c.Products))
	for _, p := range c.Products {
		out[p.ID] = p.CrateCapacity
	}
	return out
}

func invalidf(format string, a ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, a...), ErrInvalidConfig)
}

// Validate checks that every declared product has non-negative economics, a positive crate
// capacity and a demand row for every period. It is run before any model construction.
// Zero prices are valid; telling a missing price from a zero one is left to the loader.
func (c *Config) Validate(profile Profile) error {
	if c == nil {
		return invalidf("nil config")
	}
	if c.Horizon <= 0 {
		return invalidf("horizon %d must be positive", c.Horizon)
	}
	if len(c.Products) == 0 {
		return invalidf("no products")
	}
	seen := make(map[ProductID]bool, len(c.Products))
	for _, p := range c.Products {
		if p.ID == "" {
			return invalidf("product with empty id")
		}
		if seen[p.ID] {
			return invalidf("product %s declared twice", p.ID)
		}
		seen[p.ID] = true
		if p.CrateCapacity <= 0 {
			return invalidf("product %s: crate capacity %d must be positive", p.ID, p.CrateCapacity)
		}
		if p.PurchasePrice.IsNegative() || p.SellingPrice.IsNegative() {
			return invalidf("product %s: negative price", p.ID)
		}
		row, ok := c.Demand[p.ID]
		if !ok {
			return invalidf("product %s: missing demand forecast", p.ID)
		}
		if len(row) != c.Horizon {
			return invalidf("product %s: %d periods of demand, want %d", p.ID, len(row), c.Horizon)
		}
		for t, d := range row {
			if d < 0 {
				return invalidf("product %s, period %d: negative demand %d", p.ID, t, d)
			}
		}
	}
	for id := range c.Demand {
		if !seen[id] {
			return invalidf("demand for undeclared product %s", id)
		}
	}
	if c.HoldingRate.IsNegative() {
		return invalidf("negative holding rate %v", c.HoldingRate)
	}

	op := c.Operating
	if op.RestockTruckCost.IsNegative() || op.DeliveryTripCost.IsNegative() || op.AnnualLaborCost.IsNegative() {
		return invalidf("negative operating cost")
	}
	for name, v := range map[string]float64{
		"storage":        op.StorageCapacityCrates,
		"restock truck":  op.RestockTruckCapacityCrates,
		"delivery truck": op.DeliveryTruckCapacityCrates,
	} {
		if !(v > 0) || math.IsInf(v, 0) {
			return invalidf("%s capacity %v must be positive and finite", name, v)
		}
	}
	if profile.CapRestockTrucks && op.RestockTruckMax < 0 {
		return invalidf("restock truck max %d must not be negative", op.RestockTruckMax)
	}
	return nil
}
