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
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/kr/pretty"
)

const testTolerance = 1.e-10

func different(a, b, tolerance float64) bool {
	if 2*math.Abs(a-b)/math.Abs(a+b) > tolerance || math.IsNaN(a) || math.IsNaN(b) {
		return true
	}
	return false
}

func key(species, country, sector string) SeriesKey {
	return SeriesKey{Species: species, Country: country, Sector: sector, Unit: "Mt " + species + "/yr"}
}

func testTable() *Table {
	t := NewTable()
	for i, c := range []string{"usa", "isr", "pse", "srb", "srb (kosovo)"} {
		for j, s := range []string{"Energy Sector", "Industrial Sector"} {
			for y := 2000; y < 2003; y++ {
				t.Set(key("CO2", c, s), y, float64(10*i+j+y-2000))
				t.Set(key("SO2", c, s), y, 0.1*float64(i+1))
			}
		}
	}
	return t
}

func TestTable(t *testing.T) {
	tbl := NewTable()
	k := key("CO2", "usa", "Energy Sector")
	tbl.Add(k, 2001, 1)
	tbl.Add(k, 2001, 2)
	tbl.Set(k, 2000, 5)
	if v, ok := tbl.Value(k, 2001); !ok || v != 3 {
		t.Errorf("have %v, %v but want 3, true", v, ok)
	}
	if _, ok := tbl.Value(k, 1999); ok {
		t.Error("missing year should not exist")
	}
	if want := []int{2000, 2001}; !reflect.DeepEqual(tbl.Years(), want) {
		t.Errorf("have %v but want %v", tbl.Years(), want)
	}
	k2 := key("SO2", "usa", "Energy Sector")
	tbl.Set(k2, 2003, 1)
	if tbl.Len() != 2 {
		t.Errorf("have %d series but want 2", tbl.Len())
	}
	tbl.Remove(k)
	if tbl.Has(k) || tbl.Len() != 1 {
		t.Errorf("series was not removed: %v", tbl.Keys())
	}
	recs := tbl.Records()
	want := []Record{{SeriesKey: k2, Year: 2003, Value: 1}}
	if !reflect.DeepEqual(recs, want) {
		t.Errorf("records: %v", pretty.Diff(recs, want))
	}

	k3 := key("CH4", "usa", "Energy Sector")
	k4 := key("N2O", "usa", "Energy Sector")
	tbl.Set(k3, 2003, 2)
	tbl.Set(k4, 2003, 3)
	tbl.Remove(k2, k4, k)
	if want := []SeriesKey{k3}; !reflect.DeepEqual(tbl.Keys(), want) {
		t.Errorf("have keys %v but want %v", tbl.Keys(), want)
	}
	recs = tbl.Records()
	want = []Record{{SeriesKey: k3, Year: 2003, Value: 2}}
	if !reflect.DeepEqual(recs, want) {
		t.Errorf("records: %v", pretty.Diff(recs, want))
	}
}

func TestTableMap(t *testing.T) {
	tbl := testTable()
	o := tbl.Map(func(k SeriesKey) (SeriesKey, bool) {
		if k.Species == "SO2" {
			return k, false
		}
		k.Sector = "Total"
		return k, true
	})
	if o.Len() != 5 {
		t.Fatalf("have %d series but want 5", o.Len())
	}
	v, _ := o.Value(key("CO2", "isr", "Total"), 2002)
	if want := 10.0 + 2 + 11 + 2; v != want {
		t.Errorf("have %v but want %v", v, want)
	}
}

func TestConcat(t *testing.T) {
	a := NewTable()
	b := NewTable()
	k := key("CO2", "usa", "Energy Sector")
	a.Set(k, 2000, 1)
	b.Set(k, 2000, 2)
	b.Set(k, 2001, 3)
	c := Concat(a, b)
	if v, _ := c.Value(k, 2000); v != 3 {
		t.Errorf("have %v but want 3", v)
	}
	if v, _ := c.Value(k, 2001); v != 3 {
		t.Errorf("have %v but want 3", v)
	}
}

func TestTableSort(t *testing.T) {
	tbl := NewTable()
	tbl.Set(key("SO2", "usa", "b"), 2000, 1)
	tbl.Set(key("CO2", "usa", "b"), 2000, 1)
	tbl.Set(key("CO2", "can", "b"), 2000, 1)
	tbl.Set(key("CO2", "can", "a"), 2000, 1)
	tbl.Sort()
	want := []SeriesKey{key("CO2", "can", "a"), key("CO2", "can", "b"), key("CO2", "usa", "b"), key("SO2", "usa", "b")}
	if !reflect.DeepEqual(tbl.Keys(), want) {
		t.Errorf("sort: %v", pretty.Diff(tbl.Keys(), want))
	}
}

func TestAddWorld(t *testing.T) {
	tbl := testTable()
	if err := tbl.AddWorld(); err != nil {
		t.Fatal(err)
	}
	for _, k := range tbl.Keys() {
		if k.Country == World {
			continue
		}
		wk := k
		wk.Country = World
		if !tbl.Has(wk) {
			t.Fatalf("missing World series for %v", k)
		}
	}
	// World equals the sum over all countries for every key and year.
	for _, wk := range tbl.Keys() {
		if wk.Country != World {
			continue
		}
		for y, wv := range tbl.Series(wk) {
			var sum float64
			for _, k := range tbl.Keys() {
				if k.Country == World {
					continue
				}
				kk := k
				kk.Country = World
				if kk == wk {
					v, _ := tbl.Value(k, y)
					sum += v
				}
			}
			if different(wv, sum, testTolerance) {
				t.Errorf("%v %d: have %v but want %v", wk, y, wv, sum)
			}
		}
	}
	if err := tbl.AddWorld(); err == nil {
		t.Error("a second World rollup should fail")
	}
}

func TestAddWorldOrderIndependent(t *testing.T) {
	a := testTable()
	b := NewTable()
	keys := a.Keys()
	for i := len(keys) - 1; i >= 0; i-- {
		for y, v := range a.Series(keys[i]) {
			b.Set(keys[i], y, v)
		}
	}
	if err := a.AddWorld(); err != nil {
		t.Fatal(err)
	}
	if err := b.AddWorld(); err != nil {
		t.Fatal(err)
	}
	for _, k := range a.Keys() {
		if k.Country != World {
			continue
		}
		for y, v := range a.Series(k) {
			if v2, _ := b.Value(k, y); v != v2 {
				t.Errorf("%v %d: have %v but want %v", k, y, v2, v)
			}
		}
	}
}

func TestAggregateCountries(t *testing.T) {
	tbl := testTable()
	n := tbl.Len()
	if err := tbl.AggregateCountries(DefaultCountryMerges(), false); err != nil {
		t.Fatal(err)
	}
	// sdn_ssd has no constituents in the table.
	if want := n + 2*2*2; tbl.Len() != want {
		t.Errorf("have %d series but want %d", tbl.Len(), want)
	}
	for _, s := range []string{"CO2", "SO2"} {
		for _, sec := range []string{"Energy Sector", "Industrial Sector"} {
			for y := 2000; y < 2003; y++ {
				isr, _ := tbl.Value(key(s, "isr", sec), y)
				pse, _ := tbl.Value(key(s, "pse", sec), y)
				merged, ok := tbl.Value(key(s, "isr_pse", sec), y)
				if !ok {
					t.Fatalf("missing isr_pse %s %s %d", s, sec, y)
				}
				if different(merged, isr+pse, testTolerance) {
					t.Errorf("isr_pse %s %s %d: have %v but want %v", s, sec, y, merged, isr+pse)
				}
			}
		}
	}
	if !tbl.Has(key("CO2", "isr", "Energy Sector")) {
		t.Error("constituents should be retained")
	}
	if err := tbl.AggregateCountries(DefaultCountryMerges(), false); err == nil {
		t.Error("aggregating into an existing region should fail")
	}
}

func TestAggregateCountriesReplace(t *testing.T) {
	tbl := testTable()
	if err := tbl.AggregateCountries(DefaultCountryMerges(), true); err != nil {
		t.Fatal(err)
	}
	for _, k := range tbl.Keys() {
		switch k.Country {
		case "isr", "pse", "srb", "srb (kosovo)":
			t.Errorf("constituent %v should have been removed", k)
		}
	}
	v, _ := tbl.Value(key("SO2", "srb_ksv", "Energy Sector"), 2001)
	if different(v, 0.4+0.5, testTolerance) {
		t.Errorf("have %v but want %v", v, 0.9)
	}
}

func TestRollup(t *testing.T) {
	for _, replace := range []bool{false, true} {
		t.Run(fmt.Sprintf("replace=%v", replace), func(t *testing.T) {
			want := testTable()
			if err := want.AddWorld(); err != nil {
				t.Fatal(err)
			}
			tbl := testTable()
			if err := tbl.Rollup(DefaultCountryMerges(), replace); err != nil {
				t.Fatal(err)
			}
			for _, k := range want.Keys() {
				if k.Country != World {
					continue
				}
				for y, w := range want.Series(k) {
					v, ok := tbl.Value(k, y)
					if !ok || different(v, w, testTolerance) {
						t.Errorf("%+v %d: have %v but want %v", k, y, v, w)
					}
				}
			}
		})
	}
}

func TestDiagnostics(t *testing.T) {
	d := NewDiagnostics()
	if !d.Empty() {
		t.Error("new diagnostics should be empty")
	}
	d.AddUnmapped("sector", "b")
	d.AddUnmapped("sector", "a")
	d.AddUnmapped("sector", "a")
	d.DroppedUnits = append(d.DroppedUnits, SeriesKey{Species: "CO2", Unit: "Mt C/yr"})
	if want := []string{"b", "a"}; !reflect.DeepEqual(d.Unmapped["sector"], want) {
		t.Errorf("have %v but want %v", d.Unmapped["sector"], want)
	}
	tbl := d.Table()
	for _, s := range []string{"unmapped", "sector", "Mt C/yr"} {
		if !strings.Contains(tbl, s) {
			t.Errorf("diagnostics table missing %q:\n%s", s, tbl)
		}
	}
	if a, b := strings.Index(tbl, " a "), strings.Index(tbl, " b "); a < 0 || b < a {
		t.Errorf("unmapped values should be listed in sorted order:\n%s", tbl)
	}
}
