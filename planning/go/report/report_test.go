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

package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/crateplan/crateplan/planning/go/crates"
	"github.com/crateplan/crateplan/planning/go/lotsizing"
	"github.com/crateplan/crateplan/planning/go/lpmodel"
)

func samplePlan() *lotsizing.Plan {
	return &lotsizing.Plan{
		RunID:          uuid.MustParse("6f1c1a3e-8d0b-4a57-9a43-0c8f6f2a9b11"),
		Name:           "tiny",
		Profile:        lotsizing.Extended,
		Status:         lpmodel.Optimal,
		Objective:      -1234.5,
		Products:       []lotsizing.ProductID{"A"},
		Orders:         map[lotsizing.ProductID][]int64{"A": {1200, 30}},
		Inventory:      map[lotsizing.ProductID][]int64{"A": {0, 0}},
		RestockTrucks:  []int64{1, 1},
		DeliveryTrucks: []int64{2, 3},
		Variables: []lotsizing.NamedValue{
			{Name: "Q[A,0]", Value: 1200},
			{Name: "I[A,0]", Value: 0},
			{Name: "Q[A,1]", Value: 30},
			{Name: "I[A,1]", Value: 0},
			{Name: "t[0]", Value: 1},
			{Name: "s[0]", Value: 2},
			{Name: "t[1]", Value: 1},
			{Name: "s[1]", Value: 3},
		},
		Nodes: 3,
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteText(&buf, samplePlan()); err != nil {
		t.Fatalf("WriteText() returned with unexpected error %v", err)
	}
	want := `Optimal Objective Value: -1,234.5
Q[A,0]: 1,200
Q[A,1]: 30
t[0]: 1
s[0]: 2
t[1]: 1
s[1]: 3
`
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("WriteText() returned with unexpected diff (-want+got):\n%v", diff)
	}
}

func TestWriteSchedule(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSchedule(&buf, samplePlan()); err != nil {
		t.Fatalf("WriteSchedule() returned with unexpected error %v", err)
	}
	var got [][]string
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		got = append(got, strings.Fields(line))
	}
	want := [][]string{
		{"period", "Q(A)", "I(A)", "restock", "delivery"},
		{"0", "1,200", "0", "1", "2"},
		{"1", "30", "0", "1", "3"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("WriteSchedule() returned with unexpected diff (-want+got):\n%v", diff)
	}
}

type failingWriter struct{ err error }

func (w failingWriter) Write([]byte) (int, error) { return 0, w.err }

func TestWriters_PropagateWriteErrors(t *testing.T) {
	diskFull := errors.New("disk full")
	for _, f := range []Format{TextFormat, ScheduleFormat, JSONFormat} {
		t.Run(string(f), func(t *testing.T) {
			if err := Write(failingWriter{diskFull}, f, samplePlan()); !errors.Is(err, diskFull) {
				t.Errorf("Write(%q) = %v, want %v", f, err, diskFull)
			}
		})
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, samplePlan()); err != nil {
		t.Fatalf("WriteJSON() returned with unexpected error %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("WriteJSON() wrote invalid JSON %q: %v", buf.String(), err)
	}
	want := map[string]any{
		"run_id":          "6f1c1a3e-8d0b-4a57-9a43-0c8f6f2a9b11",
		"name":            "tiny",
		"profile":         "extended",
		"status":          "OPTIMAL",
		"objective":       -1234.5,
		"orders":          map[string]any{"A": []any{1200.0, 30.0}},
		"inventory":       map[string]any{"A": []any{0.0, 0.0}},
		"restock_trucks":  []any{1.0, 1.0},
		"delivery_trucks": []any{2.0, 3.0},
		"non_zero": map[string]any{
			"Q[A,0]": 1200.0, "Q[A,1]": 30.0,
			"t[0]": 1.0, "s[0]": 2.0, "t[1]": 1.0, "s[1]": 3.0,
		},
		"nodes":     3.0,
		"wall_time": "0s",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("WriteJSON() returned with unexpected diff (-want+got):\n%v", diff)
	}
}

func TestWrite_Formats(t *testing.T) {
	for _, f := range []Format{TextFormat, ScheduleFormat, JSONFormat} {
		var buf bytes.Buffer
		if err := Write(&buf, f, samplePlan()); err != nil {
			t.Errorf("Write(%v) returned with unexpected error %v", f, err)
		}
		if buf.Len() == 0 {
			t.Errorf("Write(%v) wrote nothing", f)
		}
	}
	if err := Write(&bytes.Buffer{}, "xml", samplePlan()); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Write(xml) = %v, want %v", err, ErrUnknownFormat)
	}
}

func TestWriteOutcome(t *testing.T) {
	solverFailure := errors.New("simplex failed")
	testCases := []struct {
		name     string
		plan     *lotsizing.Plan
		solveErr error
		want     string
		wantErr  error
	}{
		{
			name:     "Infeasible",
			solveErr: fmt.Errorf("run: %w", &lotsizing.StatusError{Status: lpmodel.Infeasible}),
			want:     "No optimal solution found.\n",
		},
		{
			name:     "LimitReached",
			solveErr: &lotsizing.StatusError{Status: lpmodel.Feasible},
			want:     "No optimal solution found.\n",
		},
		{
			name:     "SolverFailure",
			solveErr: solverFailure,
			wantErr:  solverFailure,
		},
		{
			name: "Optimal",
			plan: samplePlan(),
			want: "Optimal Objective Value: -1,234.5\nQ[A,0]: 1,200\nQ[A,1]: 30\nt[0]: 1\ns[0]: 2\nt[1]: 1\ns[1]: 3\n",
		},
	}
	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := WriteOutcome(&buf, TextFormat, test.plan, test.solveErr)
			if !errors.Is(err, test.wantErr) {
				t.Fatalf("WriteOutcome() = %v, want %v", err, test.wantErr)
			}
			if got := buf.String(); got != test.want {
				t.Errorf("WriteOutcome() wrote %q, want %q", got, test.want)
			}
		})
	}
}

func TestWriteCrates(t *testing.T) {
	totals := []float64{770.0/250 + 671.0/70, 572.0/250 + 597.0/70}
	testCases := []struct {
		name     string
		capacity float64
		want     string
	}{
		{
			name:     "Undersized",
			capacity: 1,
			want: "period 0: 12.666 crates, 13 delivery trucks\n" +
				"period 1: 10.817 crates, 11 delivery trucks\n" +
				"warning: period 0 needs 13 delivery trucks; the delivery truck capacity looks undersized\n",
		},
		{
			name:     "Sized",
			capacity: 2,
			want: "period 0: 12.666 crates, 7 delivery trucks\n" +
				"period 1: 10.817 crates, 6 delivery trucks\n",
		},
	}
	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			check, err := crates.CheckDeliveryCapacity(totals, test.capacity)
			if err != nil {
				t.Fatalf("CheckDeliveryCapacity() returned with unexpected error %v", err)
			}
			var buf bytes.Buffer
			if err := WriteCrates(&buf, totals, check); err != nil {
				t.Fatalf("WriteCrates() returned with unexpected error %v", err)
			}
			if diff := cmp.Diff(test.want, buf.String()); diff != "" {
				t.Errorf("WriteCrates() returned with unexpected diff (-want+got):\n%v", diff)
			}
		})
	}
}
