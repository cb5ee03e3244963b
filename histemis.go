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

// Package histemis holds the tabular data model shared by the historical
// emissions harmonization pipelines: long-format emissions series keyed by
// species, country, sector and unit and indexed by year, together with the
// harmonization steps (unit rewriting, country aggregation, global rollup)
// that are common to all input datasets.
package histemis

import (
	"sort"
)

// Version gives the version number.
const Version = "0.1.0"

// SeriesKey identifies a single emissions time series.
// Model, Scenario and Variable are tag columns that are only
// used for IAMC-style outputs; they are empty otherwise.
type SeriesKey struct {
	Species, Country, Sector, Unit string
	Model, Scenario, Variable      string
}

// Record is a single emissions value.
type Record struct {
	SeriesKey
	Year  int
	Value float64
}

// Table is a collection of emissions time series. Series are kept in
// insertion order until Sort is called.
type Table struct {
	keys []SeriesKey
	data map[SeriesKey]map[int]float64
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{data: make(map[SeriesKey]map[int]float64)}
}

func (t *Table) series(k SeriesKey) map[int]float64 {
	s, ok := t.data[k]
	if !ok {
		s = make(map[int]float64)
		t.data[k] = s
		t.keys = append(t.keys, k)
	}
	return s
}

// Set sets the value of series k in the given year, replacing any
// existing value.
func (t *Table) Set(k SeriesKey, year int, v float64) {
	t.series(k)[year] = v
}

// Add adds v to the value of series k in the given year.
func (t *Table) Add(k SeriesKey, year int, v float64) {
	t.series(k)[year] += v
}

// Value returns the value of series k in the given year and whether
// it exists.
func (t *Table) Value(k SeriesKey, year int) (float64, bool) {
	s, ok := t.data[k]
	if !ok {
		return 0, false
	}
	v, ok := s[year]
	return v, ok
}

// Has returns whether the table contains series k.
func (t *Table) Has(k SeriesKey) bool {
	_, ok := t.data[k]
	return ok
}

// Series returns a copy of the values of series k by year.
func (t *Table) Series(k SeriesKey) map[int]float64 {
	s := t.data[k]
	o := make(map[int]float64, len(s))
	for y, v := range s {
		o[y] = v
	}
	return o
}

// Keys returns the keys of all series in the table.
func (t *Table) Keys() []SeriesKey {
	o := make([]SeriesKey, len(t.keys))
	copy(o, t.keys)
	return o
}

// Len returns the number of series in the table.
func (t *Table) Len() int { return len(t.keys) }

// Remove deletes the series with keys ks from the table.
func (t *Table) Remove(ks ...SeriesKey) {
	n := 0
	for _, k := range ks {
		if _, ok := t.data[k]; ok {
			delete(t.data, k)
			n++
		}
	}
	if n == 0 {
		return
	}
	keep := t.keys[:0]
	for _, k := range t.keys {
		if _, ok := t.data[k]; ok {
			keep = append(keep, k)
		}
	}
	t.keys = keep
}

// Years returns the sorted list of all years present in the table.
func (t *Table) Years() []int {
	ym := make(map[int]struct{})
	for _, s := range t.data {
		for y := range s {
			ym[y] = struct{}{}
		}
	}
	o := make([]int, 0, len(ym))
	for y := range ym {
		o = append(o, y)
	}
	sort.Ints(o)
	return o
}

// Records returns all values in the table as records, in series order
// and then year order.
func (t *Table) Records() []Record {
	var o []Record
	for _, k := range t.keys {
		s := t.data[k]
		years := make([]int, 0, len(s))
		for y := range s {
			years = append(years, y)
		}
		sort.Ints(years)
		for _, y := range years {
			o = append(o, Record{SeriesKey: k, Year: y, Value: s[y]})
		}
	}
	return o
}

// Append adds all series in o to the receiver. Values for series and
// years that exist in both tables are summed.
func (t *Table) Append(o *Table) {
	for _, k := range o.keys {
		for y, v := range o.data[k] {
			t.Add(k, y, v)
		}
	}
}

// Concat concatenates tables into a new table.
func Concat(tables ...*Table) *Table {
	o := NewTable()
	for _, t := range tables {
		o.Append(t)
	}
	return o
}

// Map returns a new table where every series key has been replaced by the
// result of f. Series for which f returns false are dropped, and series
// that map onto the same key are summed.
func (t *Table) Map(f func(SeriesKey) (SeriesKey, bool)) *Table {
	o := NewTable()
	for _, k := range t.keys {
		nk, ok := f(k)
		if !ok {
			continue
		}
		for y, v := range t.data[k] {
			o.Add(nk, y, v)
		}
	}
	return o
}

// Filter returns a new table holding only the series for which keep
// returns true.
func (t *Table) Filter(keep func(SeriesKey) bool) *Table {
	return t.Map(func(k SeriesKey) (SeriesKey, bool) { return k, keep(k) })
}

// Scale multiplies all values of series k by factor.
func (t *Table) Scale(k SeriesKey, factor float64) {
	for y, v := range t.data[k] {
		t.data[k][y] = v * factor
	}
}

// Sort sorts the series in the table by Model, Scenario, Species,
// Country, Sector, Variable and Unit.
func (t *Table) Sort() {
	sort.SliceStable(t.keys, func(i, j int) bool {
		return keyLess(t.keys[i], t.keys[j])
	})
}

func keyLess(a, b SeriesKey) bool {
	as := [...]string{a.Model, a.Scenario, a.Species, a.Country, a.Sector, a.Variable, a.Unit}
	bs := [...]string{b.Model, b.Scenario, b.Species, b.Country, b.Sector, b.Variable, b.Unit}
	for i := range as {
		if as[i] != bs[i] {
			return as[i] < bs[i]
		}
	}
	return false
}
