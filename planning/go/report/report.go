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

// Package report renders solved lot-sizing plans and crate volume checks.
package report

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/crateplan/crateplan/planning/go/crates"
	"github.com/crateplan/crateplan/planning/go/lotsizing"
)

// NoSolution is printed instead of a plan when the solve did not prove an optimum.
const NoSolution = "No optimal solution found."

// Format selects the renderer used by Write.
type Format string

const (
	// TextFormat prints the objective and the non-zero variables.
	TextFormat Format = "text"
	// ScheduleFormat prints one table row per period.
	ScheduleFormat Format = "schedule"
	// JSONFormat prints the whole plan as a JSON object.
	JSONFormat Format = "json"
)

// ErrUnknownFormat is returned by Write for unsupported formats.
var ErrUnknownFormat = errors.New("unknown report format")

func printer() *message.Printer {
	return message.NewPrinter(language.English)
}

// Write renders `plan` in format `f`.
func Write(w io.Writer, f Format, plan *lotsizing.Plan) error {
	switch f {
	case TextFormat:
		return WriteText(w, plan)
	case ScheduleFormat:
		return WriteSchedule(w, plan)
	case JSONFormat:
		return WriteJSON(w, plan)
	}
	return fmt.Errorf("%q: %w", f, ErrUnknownFormat)
}

// WriteOutcome renders the result of lotsizing.Solve. A *lotsizing.StatusError is printed
// as NoSolution and is not an error of the report. Other solve errors are returned.
func WriteOutcome(w io.Writer, f Format, plan *lotsizing.Plan, solveErr error) error {
	var statusErr *lotsizing.StatusError
	switch {
	case errors.As(solveErr, &statusErr):
		_, err := fmt.Fprintln(w, NoSolution)
		return err
	case solveErr != nil:
		return solveErr
	}
	return Write(w, f, plan)
}

// WriteText prints the optimal objective followed by one "name: value" line for every
// non-zero variable, in model order. Numbers use English digit grouping.
func WriteText(w io.Writer, plan *lotsizing.Plan) error {
	p := printer()
	if _, err := p.Fprintf(w, "Optimal Objective Value: %v\n", number.Decimal(plan.Objective, number.MaxFractionDigits(2))); err != nil {
		return err
	}
	for _, v := range plan.NonZero() {
		if _, err := p.Fprintf(w, "%s: %d\n", v.Name, v.Value); err != nil {
			return err
		}
	}
	return nil
}

// WriteSchedule prints the orders and ending inventory of every product, and the truck
// counts, one row per period.
func WriteSchedule(w io.Writer, plan *lotsizing.Plan) error {
	p := printer()
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	var err error
	printf := func(format string, a ...any) {
		if err == nil {
			_, err = p.Fprintf(tw, format, a...)
		}
	}

	printf("period\t")
	for _, id := range plan.Products {
		printf("Q(%s)\tI(%s)\t", id, id)
	}
	printf("restock\tdelivery\t\n")
	for t := range plan.RestockTrucks {
		printf("%d\t", t)
		for _, id := range plan.Products {
			printf("%d\t%d\t", plan.Orders[id][t], plan.Inventory[id][t])
		}
		printf("%d\t%d\t\n", plan.RestockTrucks[t], plan.DeliveryTrucks[t])
	}
	if err != nil {
		return err
	}
	return tw.Flush()
}

func int64List(values []int64) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// PlanStruct converts a plan into a structpb.Struct.
func PlanStruct(plan *lotsizing.Plan) (*structpb.Struct, error) {
	orders := make(map[string]any, len(plan.Orders))
	inventory := make(map[string]any, len(plan.Inventory))
	for _, id := range plan.Products {
		orders[string(id)] = int64List(plan.Orders[id])
		inventory[string(id)] = int64List(plan.Inventory[id])
	}
	nonZero := make(map[string]any)
	for _, v := range plan.NonZero() {
		nonZero[v.Name] = v.Value
	}
	return structpb.NewStruct(map[string]any{
		"run_id":          plan.RunID.String(),
		"name":            plan.Name,
		"profile":         plan.Profile.Name,
		"status":          plan.Status.String(),
		"objective":       plan.Objective,
		"orders":          orders,
		"inventory":       inventory,
		"restock_trucks":  int64List(plan.RestockTrucks),
		"delivery_trucks": int64List(plan.DeliveryTrucks),
		"non_zero":        nonZero,
		"nodes":           int64(plan.Nodes),
		"wall_time":       plan.WallTime.String(),
	})
}

// WriteJSON prints the plan as an indented JSON object.
func WriteJSON(w io.Writer, plan *lotsizing.Plan) error {
	s, err := PlanStruct(plan)
	if err != nil {
		return fmt.Errorf("converting plan %s: %w", plan.RunID, err)
	}
	b, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling plan %s: %w", plan.RunID, err)
	}
	_, err = w.Write(append(b, '\n'))
	return err
}

// WriteCrates prints the crate-equivalent demand of every period and the delivery trucks
// it needs, then a warning line when the configured truck capacity is undersized.
func WriteCrates(w io.Writer, totals []float64, check *crates.DeliveryCheck) error {
	p := printer()
	for t, v := range totals {
		if _, err := p.Fprintf(w, "period %d: %.3f crates, %d delivery trucks\n", t, v, check.TrucksNeeded[t]); err != nil {
			return err
		}
	}
	if check.Undersized {
		_, err := p.Fprintf(w, "warning: period %d needs %d delivery trucks; the delivery truck capacity looks undersized\n",
			check.BusiestPeriod, check.TrucksNeeded[check.BusiestPeriod])
		return err
	}
	return nil
}
