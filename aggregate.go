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
	"sort"

	"gonum.org/v1/gonum/floats"
)

// World is the country code used for global totals.
const World = "World"

// CountryMerges maps combined-region codes to their constituent
// country codes.
type CountryMerges map[string][]string

// DefaultCountryMerges holds the combined regions used by the
// harmonization targets.
func DefaultCountryMerges() CountryMerges {
	return CountryMerges{
		"isr_pse": {"isr", "pse"},
		"sdn_ssd": {"ssd", "sdn"},
		"srb_ksv": {"srb", "srb (kosovo)"},
	}
}

// Regions returns the combined-region codes in sorted order.
func (m CountryMerges) Regions() []string {
	o := make([]string, 0, len(m))
	for r := range m {
		o = append(o, r)
	}
	sort.Strings(o)
	return o
}

// AggregateCountries adds a series for every combined region in m that is
// the sum of the matching series of its constituent countries. Constituent
// series are removed if replace is true and kept otherwise. Regions with
// no constituents present in the table are skipped. It is an error for a
// region code to already be present in the table.
func (t *Table) AggregateCountries(m CountryMerges, replace bool) error {
	present := make(map[string]bool)
	for _, k := range t.keys {
		present[k.Country] = true
	}
	for _, region := range m.Regions() {
		if present[region] {
			return fmt.Errorf("histemis: combined region %q already exists in the table", region)
		}
	}
	for _, region := range m.Regions() {
		members := make(map[string]bool)
		for _, c := range m[region] {
			members[c] = true
		}
		var constituents []SeriesKey
		for _, k := range t.keys {
			if members[k.Country] {
				constituents = append(constituents, k)
			}
		}
		sum := make(map[SeriesKey]map[int]float64)
		var order []SeriesKey
		for _, k := range constituents {
			rk := k
			rk.Country = region
			s, ok := sum[rk]
			if !ok {
				s = make(map[int]float64)
				sum[rk] = s
				order = append(order, rk)
			}
			for y, v := range t.data[k] {
				s[y] += v
			}
		}
		if replace {
			t.Remove(constituents...)
		}
		for _, rk := range order {
			for y, v := range sum[rk] {
				t.Set(rk, y, v)
			}
		}
	}
	return nil
}

// AddWorld appends a World series for every group of series that share
// all key fields except Country. Each World value is the sum of the
// values of the group's series in that year. Series of the countries in
// exclude do not contribute. The input may not already contain World
// series.
func (t *Table) AddWorld(exclude ...string) error {
	type member struct {
		country string
		s       map[int]float64
	}
	skip := make(map[string]bool, len(exclude))
	for _, c := range exclude {
		skip[c] = true
	}
	groups := make(map[SeriesKey][]member)
	var order []SeriesKey
	for _, k := range t.keys {
		if k.Country == World {
			return fmt.Errorf("histemis: table already contains a %s series for %+v", World, k)
		}
		if skip[k.Country] {
			continue
		}
		wk := k
		wk.Country = World
		if _, ok := groups[wk]; !ok {
			order = append(order, wk)
		}
		groups[wk] = append(groups[wk], member{country: k.Country, s: t.data[k]})
	}
	for _, wk := range order {
		g := groups[wk]
		sort.SliceStable(g, func(i, j int) bool { return g[i].country < g[j].country })
		yearVals := make(map[int][]float64)
		for _, m := range g {
			for y, v := range m.s {
				yearVals[y] = append(yearVals[y], v)
			}
		}
		for y, vals := range yearVals {
			t.Set(wk, y, floats.Sum(vals))
		}
	}
	return nil
}

// Rollup adds the combined regions in m and then the World totals. When
// the constituents of the combined regions are retained, the combined
// regions are left out of the World totals so that every country is
// counted once.
func (t *Table) Rollup(m CountryMerges, replace bool) error {
	if err := t.AggregateCountries(m, replace); err != nil {
		return err
	}
	if replace {
		return t.AddWorld()
	}
	return t.AddWorld(m.Regions()...)
}
