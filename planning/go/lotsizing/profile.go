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
	"fmt"
	"strings"
)

// ObjectiveKind selects the revenue part of the objective.
type ObjectiveKind int

const (
	// MarginObjective maximizes sum margin[p] * Q[p,t].
	MarginObjective ObjectiveKind = iota
	// PriceObjective maximizes sum selling[p]*demand[p,t] - purchase[p]*Q[p,t] - holding[p]*I[p,t].
	PriceObjective
)

func (k ObjectiveKind) String() string {
	switch k {
	case MarginObjective:
		return "margin"
	case PriceObjective:
		return "price"
	}
	return fmt.Sprintf("ObjectiveKind(%d)", int(k))
}

// TerminalPolicy selects what happens to the inventory at the end of the horizon.
type TerminalPolicy int

const (
	// ForbidCarryOver has no ending inventory variable in the last period, so the last
	// period ends with an empty stock.
	ForbidCarryOver TerminalPolicy = iota
	// AllowCarryOver keeps an ending inventory variable for every period.
	AllowCarryOver
)

func (p TerminalPolicy) String() string {
	switch p {
	case ForbidCarryOver:
		return "forbid_carry_over"
	case AllowCarryOver:
		return "allow_carry_over"
	}
	return fmt.Sprintf("TerminalPolicy(%d)", int(p))
}

// Profile is a named formulation of the lot-sizing model. A single builder reproduces
// every formulation from its profile.
type Profile struct {
	Name             string
	Objective        ObjectiveKind
	Terminal         TerminalPolicy
	CapRestockTrucks bool
}

var (
	// Base is the margin formulation with an empty stock at the end of the horizon and
	// uncapped restock trucks.
	Base = Profile{Name: "base", Objective: MarginObjective, Terminal: ForbidCarryOver}
	// Extended is the price and holding cost formulation with carry-over inventory and at
	// most Operating.RestockTruckMax restock trucks per period.
	Extended = Profile{Name: "extended", Objective: PriceObjective, Terminal: AllowCarryOver, CapRestockTrucks: true}
)

// Profiles lists the named profiles.
func Profiles() []Profile {
	return []Profile{Base, Extended}
}

// ProfileByName returns the named profile, ignoring case.
func ProfileByName(name string) (Profile, error) {
	for _, p := range Profiles() {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	return Profile{}, fmt.Errorf("unknown profile %q: %w", name, ErrInvalidConfig)
}

func (p Profile) String() string {
	return fmt.Sprintf("%s(objective=%v, terminal=%v, cap_restock=%v)", p.Name, p.Objective, p.Terminal, p.CapRestockTrucks)
}

// hasEndingInventory reports whether I[p,t] exists for period t of a horizon of length n.
func (p Profile) hasEndingInventory(t, n int) bool {
	return p.Terminal == AllowCarryOver || t < n-1
}
