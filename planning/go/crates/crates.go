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

// Package crates converts unit demand into crate-equivalent volumes.
//
// It is used both to build the delivery capacity rows of a lot-sizing model and, on its
// own, to sanity-check configured truck capacities against realistic demand volumes.
package crates

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"
)

var (
	// ErrMissingCapacity is returned when a product with demand has no crate capacity.
	ErrMissingCapacity = errors.New("missing crate capacity")
	// ErrBadCapacity is returned for non-positive crate or truck capacities.
	ErrBadCapacity = errors.New("capacity must be positive")
	// ErrBadDemand is returned for short or negative demand rows.
	ErrBadDemand = errors.New("invalid demand forecast")
)

// UndersizedRatio is the ratio between the busiest period and the delivery truck capacity
// above which the configured capacity is reported as undersized.
const UndersizedRatio = 10

// PeriodTotals returns, for each period t in [0,horizon), the crate-equivalent demand
// sum_k demand[k][t] / capacity[k]. The division is real, not floor, division.
// Products are summed in key order so the result does not depend on map iteration.
func PeriodTotals[K cmp.Ordered](demand map[K][]int64, capacity map[K]int64, horizon int) ([]float64, error) {
	if horizon < 0 {
		return nil, fmt.Errorf("horizon %d: %w", horizon, ErrBadDemand)
	}
	keys := make([]K, 0, len(demand))
	for k := range demand {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	totals := make([]float64, horizon)
	for _, k := range keys {
		c, ok := capacity[k]
		if !ok {
			return nil, fmt.Errorf("product %v: %w", k, ErrMissingCapacity)
		}
		if c <= 0 {
			return nil, fmt.Errorf("product %v has crate capacity %d: %w", k, c, ErrBadCapacity)
		}
		row := demand[k]
		if len(row) < horizon {
			return nil, fmt.Errorf("product %v has %d periods of demand, want %d: %w", k, len(row), horizon, ErrBadDemand)
		}
		for t := 0; t < horizon; t++ {
			if row[t] < 0 {
				return nil, fmt.Errorf("product %v, period %d: negative demand %d: %w", k, t, row[t], ErrBadDemand)
			}
			totals[t] += float64(row[t]) / float64(c)
		}
	}
	return totals, nil
}

// DeliveryCheck compares per-period crate totals with a delivery truck capacity.
type DeliveryCheck struct {
	// TrucksNeeded is ceil(total/capacity) for each period.
	TrucksNeeded []int64
	// Busiest is the largest period total and BusiestPeriod its index (-1 when empty).
	Busiest       float64
	BusiestPeriod int
	// Undersized is set when the busiest period needs at least UndersizedRatio trucks.
	Undersized bool
}

// CheckDeliveryCapacity reports how many delivery trucks of `truckCapacity` crates each
// period needs. It does not change anything about the model; an undersized capacity is a
// caveat of the configured data.
func CheckDeliveryCapacity(totals []float64, truckCapacity float64) (*DeliveryCheck, error) {
	if !(truckCapacity > 0) || math.IsInf(truckCapacity, 0) {
		return nil, fmt.Errorf("delivery truck capacity %v: %w", truckCapacity, ErrBadCapacity)
	}
	dc := &DeliveryCheck{TrucksNeeded: make([]int64, len(totals)), BusiestPeriod: -1}
	for t, v := range totals {
		dc.TrucksNeeded[t] = int64(math.Ceil(v / truckCapacity))
		if dc.BusiestPeriod < 0 || v > dc.Busiest {
			dc.Busiest, dc.BusiestPeriod = v, t
		}
	}
	dc.Undersized = dc.BusiestPeriod >= 0 && dc.Busiest/truckCapacity >= UndersizedRatio
	return dc, nil
}
