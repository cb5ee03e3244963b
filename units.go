/*
Copyright © 2024 the histemis authors.
This file is part of histemis.

histemis is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

histemis is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with histemis.  If not, see <http://www.gnu.org/licenses/>.
*/

package histemis

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/ctessum/unit"
)

// PerYear is the rate suffix carried by all harmonized units.
const PerYear = "/yr"

// massPrefixes gives the mass in kilograms of each supported unit prefix,
// longest prefixes first so that "kg" is matched before "g".
var massPrefixes = []struct {
	prefix string
	kg     float64
}{
	{"kg", 1},
	{"kt", 1e6},
	{"Mt", 1e9},
	{"Gt", 1e12},
	{"g", 1e-3},
	{"t", 1e3},
}

// splitMassUnit splits a unit such as "ktCO2/yr" or "kg C" into its mass
// prefix, its mass in kilograms, and the remaining species label with any
// rate suffix removed.
func splitMassUnit(u string) (prefix string, kg float64, rest string, err error) {
	u = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(u), PerYear))
	for _, p := range massPrefixes {
		if !strings.HasPrefix(u, p.prefix) {
			continue
		}
		r := u[len(p.prefix):]
		if r == "" {
			return p.prefix, p.kg, "", nil
		}
		c := rune(r[0])
		if c == ' ' || c == '/' || unicode.IsUpper(c) {
			return p.prefix, p.kg, strings.TrimSpace(r), nil
		}
	}
	return "", 0, "", fmt.Errorf("histemis: unit %q does not start with a recognized mass prefix", u)
}

func prefixMass(prefix string) (float64, bool) {
	for _, p := range massPrefixes {
		if p.prefix == prefix {
			return p.kg, true
		}
	}
	return 0, false
}

// ConvertUnit rewrites the mass prefix of unit u to target (for example
// "kt" to "Mt") and returns the rewritten annual-rate unit together with
// the factor that values in u must be multiplied by to be expressed in the
// new unit.
func ConvertUnit(u, target string) (string, float64, error) {
	_, fromKg, rest, err := splitMassUnit(u)
	if err != nil {
		return "", 0, err
	}
	toKg, ok := prefixMass(target)
	if !ok {
		return "", 0, fmt.Errorf("histemis: invalid target mass prefix %q", target)
	}
	f := unit.Div(unit.New(fromKg, unit.Kilogram), unit.New(toKg, unit.Kilogram))
	if err := f.Check(unit.Dimless); err != nil {
		return "", 0, fmt.Errorf("histemis: converting unit %q: %v", u, err)
	}
	out := target
	if rest != "" {
		out += " " + rest
	}
	return out + PerYear, f.Value(), nil
}

// NormalizeUnit rewrites a kt-prefixed unit to its Mt equivalent and makes
// sure the unit carries an annual rate suffix. Units with other prefixes
// only gain the suffix. NormalizeUnit(NormalizeUnit(u)) == NormalizeUnit(u).
func NormalizeUnit(u string) string {
	u = strings.TrimSpace(u)
	if prefix, _, _, err := splitMassUnit(u); err == nil && prefix == "kt" {
		o, _, _ := ConvertUnit(u, "Mt")
		return o
	}
	if !strings.HasSuffix(u, PerYear) {
		u += PerYear
	}
	return u
}

// NormalizeUnits applies NormalizeUnit to every series in the table,
// scaling the values of series whose unit was converted from kt to Mt.
func (t *Table) NormalizeUnits() {
	*t = *t.rescale(func(u string) (string, float64) {
		if prefix, _, _, err := splitMassUnit(u); err == nil && prefix == "kt" {
			nu, f, _ := ConvertUnit(u, "Mt")
			return nu, f
		}
		return NormalizeUnit(u), 1
	})
}

func (t *Table) rescale(f func(string) (string, float64)) *Table {
	o := NewTable()
	for _, k := range t.keys {
		nu, factor := f(k.Unit)
		nk := k
		nk.Unit = nu
		for y, v := range t.data[k] {
			o.Add(nk, y, v*factor)
		}
	}
	return o
}

// HarmonizeUnits converts every series in the table to the target mass
// prefix, scaling its values accordingly.
func (t *Table) HarmonizeUnits(target string) error {
	for _, k := range t.keys {
		if _, _, err := ConvertUnit(k.Unit, target); err != nil {
			return err
		}
	}
	*t = *t.rescale(func(u string) (string, float64) {
		nu, f, _ := ConvertUnit(u, target)
		return nu, f
	})
	return nil
}

// JoinUnits keeps only the series whose unit equals the desired unit for
// their species in want. The removed series are returned.
func (t *Table) JoinUnits(want map[string]string) []SeriesKey {
	var dropped []SeriesKey
	for _, k := range t.Keys() {
		if u, ok := want[k.Species]; !ok || u != k.Unit {
			dropped = append(dropped, k)
		}
	}
	t.Remove(dropped...)
	return dropped
}

// DefaultUnits returns the desired unit for each gas, in the
// "Mt {gas}/yr" form.
func DefaultUnits(gases []string) map[string]string {
	o := make(map[string]string, len(gases))
	for _, g := range gases {
		o[g] = "Mt " + g + PerYear
	}
	return o
}
