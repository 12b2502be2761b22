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

package lpmodel

import (
	"math"
	"testing"
)

func TestDomain_IsEmpty(t *testing.T) {
	testCases := []struct {
		d    Domain
		want bool
	}{
		{d: NewDomain(0, 1), want: false},
		{d: NewSingleDomain(-1), want: false},
		{d: NonNegative(), want: false},
		{d: NewDomain(math.Inf(-1), math.Inf(1)), want: false},
		{d: NewDomain(2, 1), want: true},
		{d: NewDomain(math.Inf(1), math.Inf(1)), want: true},
		{d: NewDomain(math.Inf(-1), math.Inf(-1)), want: true},
	}
	for _, test := range testCases {
		if got := test.d.IsEmpty(); got != test.want {
			t.Errorf("%v.IsEmpty() = %v, want %v", test.d, got, test.want)
		}
	}
}

func TestDomain_IsFixed(t *testing.T) {
	if !NewSingleDomain(3).IsFixed() {
		t.Errorf("NewSingleDomain(3).IsFixed() = false, want true")
	}
	if NewDomain(3, 4).IsFixed() {
		t.Errorf("NewDomain(3, 4).IsFixed() = true, want false")
	}
	if NewSingleDomain(math.Inf(1)).IsFixed() {
		t.Errorf("NewSingleDomain(+inf).IsFixed() = true, want false")
	}
}

func TestDomain_Contains(t *testing.T) {
	d := NewDomain(0, 10)
	testCases := []struct {
		x, tol float64
		want   bool
	}{
		{x: 0, want: true},
		{x: 10, want: true},
		{x: -1e-9, tol: 1e-7, want: true},
		{x: -1e-9, want: false},
		{x: 10.5, tol: 0.1, want: false},
	}
	for _, test := range testCases {
		if got := d.Contains(test.x, test.tol); got != test.want {
			t.Errorf("%v.Contains(%v, %v) = %v, want %v", d, test.x, test.tol, got, test.want)
		}
	}
}

func TestDomain_Intersect(t *testing.T) {
	got := NewDomain(0, 10).Intersect(NewDomain(5, math.Inf(1)))
	if want := NewDomain(5, 10); got != want {
		t.Errorf("Intersect() = %v, want %v", got, want)
	}
	if got := NewDomain(0, 1).Intersect(NewDomain(2, 3)); !got.IsEmpty() {
		t.Errorf("Intersect() = %v, want an empty domain", got)
	}
}

func TestDomain_Integral(t *testing.T) {
	testCases := []struct {
		d    Domain
		want Domain
	}{
		{d: NewDomain(0.5, 3.5), want: NewDomain(1, 3)},
		{d: NewDomain(-0.5, 0.5), want: NewDomain(0, 0)},
		{d: NewDomain(0.9999999999, 2.0000000001), want: NewDomain(1, 2)},
		{d: NonNegative(), want: NonNegative()},
	}
	for _, test := range testCases {
		if got := test.d.Integral(1e-6); got != test.want {
			t.Errorf("%v.Integral() = %v, want %v", test.d, got, test.want)
		}
	}
	if got := NewDomain(0.2, 0.8).Integral(1e-6); !got.IsEmpty() {
		t.Errorf("[0.2,0.8].Integral() = %v, want an empty domain", got)
	}
}

func TestDomain_Violation(t *testing.T) {
	d := NewDomain(1, 4)
	for x, want := range map[float64]float64{0: 1, 1: 0, 2.5: 0, 4: 0, 6: 2} {
		if got := d.Violation(x); got != want {
			t.Errorf("%v.Violation(%v) = %v, want %v", d, x, got, want)
		}
	}
}
