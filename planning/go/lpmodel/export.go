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
	"strconv"
	"strings"
)

// ExportModelAsLpFormat outputs the model as a string in CPLEX LP format.
//
// Names are made LP-safe: characters outside the LP name alphabet are replaced by '_' and
// square brackets become parentheses, so `Q[A,0]` is written `Q(A,0)`. Unnamed entries are
// written as `x<index>` and `c<index>`. Ranged rows are split in two rows suffixed `_lb`
// and `_ub`. The objective offset, which the format cannot carry, is written as a comment.
func ExportModelAsLpFormat(m *Model) (string, error) {
	if err := Validate(m); err != nil {
		return "", fmt.Errorf("cannot export an invalid model as LP format: %w", err)
	}
	varNames := make([]string, len(m.Variables))
	for j, v := range m.Variables {
		varNames[j] = lpName(v.Name, "x", j)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "\\ Model: %s\n", m.Name)
	if m.ObjectiveOffset != 0 {
		fmt.Fprintf(&sb, "\\ Objective offset: %s\n", formatNum(m.ObjectiveOffset))
	}
	if m.Maximize {
		sb.WriteString("Maximize\n")
	} else {
		sb.WriteString("Minimize\n")
	}
	var objIdx []int32
	var objCoef []float64
	for j, v := range m.Variables {
		if v.ObjectiveCoefficient != 0 {
			objIdx = append(objIdx, int32(j))
			objCoef = append(objCoef, v.ObjectiveCoefficient)
		}
	}
	sb.WriteString(" obj:")
	writeTerms(&sb, objIdx, objCoef, varNames)
	sb.WriteString("\n")

	sb.WriteString("Subject To\n")
	for i, ct := range m.Constraints {
		name := lpName(ct.Name, "c", i)
		if len(ct.VarIndex) == 0 {
			fmt.Fprintf(&sb, "\\ %s: empty row %s\n", name, NewDomain(ct.LowerBound, ct.UpperBound))
			continue
		}
		lbFinite, ubFinite := !math.IsInf(ct.LowerBound, -1), !math.IsInf(ct.UpperBound, 1)
		switch {
		case lbFinite && ubFinite && ct.LowerBound == ct.UpperBound:
			writeRow(&sb, name, ct, varNames, "=", ct.LowerBound)
		case lbFinite && ubFinite:
			writeRow(&sb, name+"_lb", ct, varNames, ">=", ct.LowerBound)
			writeRow(&sb, name+"_ub", ct, varNames, "<=", ct.UpperBound)
		case lbFinite:
			writeRow(&sb, name, ct, varNames, ">=", ct.LowerBound)
		case ubFinite:
			writeRow(&sb, name, ct, varNames, "<=", ct.UpperBound)
		default:
			fmt.Fprintf(&sb, "\\ %s: free row\n", name)
		}
	}

	sb.WriteString("Bounds\n")
	for j, v := range m.Variables {
		lb, ub := v.LowerBound, v.UpperBound
		switch {
		case lb == ub:
			fmt.Fprintf(&sb, " %s = %s\n", varNames[j], formatNum(lb))
		case math.IsInf(lb, -1) && math.IsInf(ub, 1):
			fmt.Fprintf(&sb, " %s free\n", varNames[j])
		case lb == 0 && math.IsInf(ub, 1):
			// LP default bounds.
		case math.IsInf(ub, 1):
			fmt.Fprintf(&sb, " %s >= %s\n", varNames[j], formatNum(lb))
		default:
			fmt.Fprintf(&sb, " %s <= %s <= %s\n", formatNum(lb), varNames[j], formatNum(ub))
		}
	}

	var ints []string
	for j, v := range m.Variables {
		if v.IsInteger {
			ints = append(ints, varNames[j])
		}
	}
	if len(ints) > 0 {
		sb.WriteString("General\n")
		for _, n := range ints {
			fmt.Fprintf(&sb, " %s\n", n)
		}
	}
	sb.WriteString("End\n")
	return sb.String(), nil
}

func writeRow(sb *strings.Builder, name string, ct *LinearConstraint, varNames []string, sense string, rhs float64) {
	fmt.Fprintf(sb, " %s:", name)
	writeTerms(sb, ct.VarIndex, ct.Coefficient, varNames)
	fmt.Fprintf(sb, " %s %s\n", sense, formatNum(rhs))
}

func writeTerms(sb *strings.Builder, idx []int32, coef []float64, varNames []string) {
	if len(idx) == 0 {
		sb.WriteString(" 0")
		return
	}
	for k, j := range idx {
		c := coef[k]
		sign := "+"
		if c < 0 {
			sign, c = "-", -c
		}
		if k == 0 && sign == "+" {
			fmt.Fprintf(sb, " %s %s", formatNum(c), varNames[j])
			continue
		}
		fmt.Fprintf(sb, " %s %s %s", sign, formatNum(c), varNames[j])
	}
}

func formatNum(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "+inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func lpName(name, prefix string, i int) string {
	if name == "" {
		return prefix + strconv.Itoa(i)
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r == '[':
			return '('
		case r == ']':
			return ')'
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case strings.ContainsRune("!\"#$%&()/,.;?@_`'{}|~", r):
			return r
		default:
			return '_'
		}
	}, name)
}
