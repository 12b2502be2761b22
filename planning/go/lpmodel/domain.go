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
	"fmt"
	"math"
)

// Domain stores the closed interval `[Start,End]` of real values. Either end may be
// infinite. If `Start` is greater than `End`, the domain is considered empty.
type Domain struct {
	Start float64
	End   float64
}

// NewDomain creates a new domain `[left,right]`.
func NewDomain(left, right float64) Domain {
	return Domain{Start: left, End: right}
}

// NonNegative returns the domain `[0,+inf]`.
func NonNegative() Domain {
	return Domain{Start: 0, End: math.Inf(1)}
}

// NewSingleDomain creates a new singleton domain `[val]`.
func NewSingleDomain(val float64) Domain {
	return Domain{Start: val, End: val}
}

// IsEmpty reports whether the domain contains no value.
func (d Domain) IsEmpty() bool {
	return d.Start > d.End || math.IsInf(d.Start, 1) || math.IsInf(d.End, -1)
}

// IsFixed reports whether the domain contains exactly one value.
func (d Domain) IsFixed() bool {
	return d.Start == d.End && !math.IsInf(d.Start, 0)
}

// Contains reports whether `x` lies in the domain, allowing an absolute tolerance `tol`.
func (d Domain) Contains(x, tol float64) bool {
	return x >= d.Start-tol && x <= d.End+tol
}

// Intersect returns the intersection of both domains. The result may be empty.
func (d Domain) Intersect(o Domain) Domain {
	return Domain{Start: math.Max(d.Start, o.Start), End: math.Min(d.End, o.End)}
}

// Integral shrinks the domain to its integer points: `[ceil(Start),floor(End)]`. Values
// within `tol` of an integer are snapped to it first.
func (d Domain) Integral(tol float64) Domain {
	return Domain{Start: math.Ceil(d.Start - tol), End: math.Floor(d.End + tol)}
}

// Violation returns how far `x` lies outside the domain, or 0 if it is inside.
func (d Domain) Violation(x float64) float64 {
	switch {
	case x < d.Start:
		return d.Start - x
	case x > d.End:
		return x - d.End
	default:
		return 0
	}
}

func (d Domain) String() string {
	return fmt.Sprintf("[%v,%v]", d.Start, d.End)
}
