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

// The crate_demand_check command prints the crate-equivalent demand of every month of a
// scenario and the delivery trucks it needs.
package main

import (
	"flag"
	"fmt"
	"os"

	log "github.com/golang/glog"

	"github.com/crateplan/crateplan/planning/go/crates"
	"github.com/crateplan/crateplan/planning/go/report"
	"github.com/crateplan/crateplan/planning/go/scenario"
)

var scenarioFlag = flag.String("scenario", "base", "Builtin scenario name (base, extended) or path to a scenario file.")

func crateDemandCheck() error {
	sc, err := scenario.Open(*scenarioFlag)
	if err != nil {
		return fmt.Errorf("failed to load the scenario: %w", err)
	}
	cfg := sc.Config

	totals, err := crates.PeriodTotals(cfg.Demand, cfg.CrateCapacities(), cfg.Horizon)
	if err != nil {
		return fmt.Errorf("failed to compute crate totals: %w", err)
	}
	check, err := crates.CheckDeliveryCapacity(totals, cfg.Operating.DeliveryTruckCapacityCrates)
	if err != nil {
		return err
	}
	if check.Undersized {
		log.Warningf("%s: delivery truck capacity %v crates against %.3f crates in period %d",
			sc.Source, cfg.Operating.DeliveryTruckCapacityCrates, check.Busiest, check.BusiestPeriod)
	}
	return report.WriteCrates(os.Stdout, totals, check)
}

func main() {
	flag.Parse()
	if err := crateDemandCheck(); err != nil {
		log.Exitf("crateDemandCheck returned with error: %v", err)
	}
}
