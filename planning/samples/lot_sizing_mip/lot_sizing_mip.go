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

// The lot_sizing_mip command solves a twelve-month ordering and truck scheduling model
// and prints the optimal objective and every non-zero decision.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	log "github.com/golang/glog"

	"github.com/crateplan/crateplan/planning/go/lotsizing"
	"github.com/crateplan/crateplan/planning/go/lpmodel"
	"github.com/crateplan/crateplan/planning/go/lpsolver"
	"github.com/crateplan/crateplan/planning/go/report"
	"github.com/crateplan/crateplan/planning/go/scenario"
)

var (
	scenarioFlag = flag.String("scenario", "base", "Builtin scenario name (base, extended) or path to a scenario file.")
	profileFlag  = flag.String("profile", "", "Overrides the profile named by the scenario (base, extended).")
	formatFlag   = flag.String("format", "text", "Output format: text, schedule or json.")
	exportLP     = flag.String("export_lp", "", "If set, writes the model in LP format to this file.")
	nodeLimit    = flag.Int("node_limit", 0, "Maximum number of branch-and-bound nodes, 0 for the solver default.")
	timeLimit    = flag.Duration("time_limit", 0, "Wall time limit of the solve, 0 for no limit.")
)

func exportModel(cfg *lotsizing.Config, profile lotsizing.Profile, file string) error {
	pb, err := lotsizing.Build(cfg, profile)
	if err != nil {
		return err
	}
	lp, err := lpmodel.ExportModelAsLpFormat(pb.Model)
	if err != nil {
		return fmt.Errorf("failed to export the model: %w", err)
	}
	return os.WriteFile(file, []byte(lp), 0o644)
}

func lotSizingMip() error {
	sc, err := scenario.Open(*scenarioFlag)
	if err != nil {
		return fmt.Errorf("failed to load the scenario: %w", err)
	}
	profile := sc.Profile
	if *profileFlag != "" {
		if profile, err = lotsizing.ProfileByName(*profileFlag); err != nil {
			return err
		}
		if err := sc.CheckProfile(profile); err != nil {
			return err
		}
	}

	if *exportLP != "" {
		if err := exportModel(sc.Config, profile, *exportLP); err != nil {
			return err
		}
		log.Infof("wrote the %s model of %s to %s", profile.Name, sc.Source, *exportLP)
	}

	params := &lpmodel.Parameters{NodeLimit: *nodeLimit, TimeLimit: *timeLimit}
	start := time.Now()
	plan, err := lotsizing.Solve(sc.Config, profile, lpsolver.New(), params)
	log.Infof("solved %s with profile %s in %v", sc.Source, profile.Name, time.Since(start))

	return report.WriteOutcome(os.Stdout, report.Format(*formatFlag), plan, err)
}

func main() {
	flag.Parse()
	if err := lotSizingMip(); err != nil {
		log.Exitf("lotSizingMip returned with error: %v", err)
	}
}
