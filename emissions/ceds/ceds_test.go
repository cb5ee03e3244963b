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

package ceds

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/spatialmodel/histemis"
	"github.com/tealeg/xlsx"
)

const (
	testSheet     = "CEDS Mapping 2024"
	testSrcCol    = "59_Sectors_2024"
	testDstCol    = "Harmonization Sectors"
	testFileTempl = "[GAS]_CEDS_emissions_by_country_sector_vtest.csv"
)

func different(a, b, tolerance float64) bool {
	if 2*math.Abs(a-b)/math.Abs(a+b) > tolerance || math.IsNaN(a) || math.IsNaN(b) {
		return true
	}
	return false
}

// writeCrosswalk writes a sector mapping workbook and returns its path.
func writeCrosswalk(t *testing.T, dir string, rows [][2]string) string {
	f := xlsx.NewFile()
	notes, err := f.AddSheet("Notes")
	if err != nil {
		t.Fatal(err)
	}
	notes.AddRow().AddCell().SetString("sector mapping")
	s, err := f.AddSheet(testSheet)
	if err != nil {
		t.Fatal(err)
	}
	header := s.AddRow()
	header.AddCell().SetString("Description")
	header.AddCell().SetString(testSrcCol)
	header.AddCell().SetString(testDstCol)
	for _, r := range rows {
		row := s.AddRow()
		row.AddCell().SetString("x")
		row.AddCell().SetString(r[0])
		row.AddCell().SetString(r[1])
	}
	path := filepath.Join(dir, "sector_mapping.xlsx")
	if err := f.Save(path); err != nil {
		t.Fatal(err)
	}
	return path
}

var testMapping = [][2]string{
	{"1A1a_Electricity-public", "Energy Sector"},
	{"1A1b_Pet-refining", "Energy Sector"},
	{"1A1b_Pet-refining", "Energy Sector"},
	{"2A1_Cement-production", "Industrial Sector"},
	{"7A_Fossil-fuel-fires", ""},
}

func TestNewCrosswalk(t *testing.T) {
	cw, err := NewCrosswalk(testMapping)
	if err != nil {
		t.Fatal(err)
	}
	if cw.Len() != 3 {
		t.Errorf("have %d sectors but want 3", cw.Len())
	}
	want := []string{"1A1a_Electricity-public", "1A1b_Pet-refining", "2A1_Cement-production"}
	if !reflect.DeepEqual(cw.Sources(), want) {
		t.Errorf("have %v but want %v", cw.Sources(), want)
	}
	if s, ok := cw.Map(" 1A1b_Pet-refining "); !ok || s != "Energy Sector" {
		t.Errorf("have %q, %v", s, ok)
	}
	if _, ok := cw.Map("7A_Fossil-fuel-fires"); ok {
		t.Error("sector without harmonized value should not be mapped")
	}
	if want := []string{"7A_Fossil-fuel-fires"}; !reflect.DeepEqual(cw.Unmapped, want) {
		t.Errorf("have %v but want %v", cw.Unmapped, want)
	}
}

func TestNewCrosswalkConflict(t *testing.T) {
	_, err := NewCrosswalk([][2]string{{"a", "x"}, {"a", "y"}})
	if err == nil {
		t.Error("conflicting mapping should fail")
	}
}

func TestReadCrosswalk(t *testing.T) {
	dir := t.TempDir()
	path := writeCrosswalk(t, dir, testMapping)
	cw, err := ReadCrosswalk(path, testSheet, testSrcCol, testDstCol)
	if err != nil {
		t.Fatal(err)
	}
	if cw.Len() != 3 {
		t.Errorf("have %d sectors but want 3", cw.Len())
	}
	if _, err := ReadCrosswalk(path, "Missing", testSrcCol, testDstCol); err == nil {
		t.Error("missing sheet should fail")
	}
	if _, err := ReadCrosswalk(path, testSheet, "60_Sectors", testDstCol); err == nil {
		t.Error("missing column should fail")
	}
}

// writeInventory writes one inventory file per gas, each holding ten years
// of data for a single country.
func writeInventory(t *testing.T, dir string, gases []string) {
	for _, g := range gases {
		var b strings.Builder
		b.WriteString("em,country,sector,units")
		for y := 2000; y < 2010; y++ {
			fmt.Fprintf(&b, ",X%d", y)
		}
		b.WriteString("\n")
		for i, sec := range []string{"1A1a_Electricity-public", "1A1b_Pet-refining", "7A_Fossil-fuel-fires"} {
			fmt.Fprintf(&b, "%s,usa,%s,kt%s", g, sec, g)
			for y := 2000; y < 2010; y++ {
				fmt.Fprintf(&b, ",%d", 1000*(i+1)+y-2000)
			}
			b.WriteString("\n")
		}
		path := InventoryPath(dir, testFileTempl, g)
		if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestReadGases(t *testing.T) {
	dir := t.TempDir()
	writeInventory(t, dir, []string{"CO2", "SO2"})
	inv, err := ReadGases(dir, testFileTempl, []string{"CO2", "SO2"}, DefaultNumIndex)
	if err != nil {
		t.Fatal(err)
	}
	if inv.Len() != 6 {
		t.Errorf("have %d series but want 6", inv.Len())
	}
	if want := 10; len(inv.Years()) != want {
		t.Errorf("have %d years but want %d", len(inv.Years()), want)
	}
	if _, err := ReadGases(dir, testFileTempl, []string{"CH4"}, DefaultNumIndex); err == nil {
		t.Error("missing gas file should fail")
	}
}

func TestProcess(t *testing.T) {
	dir := t.TempDir()
	gases := []string{"CO2", "SO2"}
	writeInventory(t, dir, gases)
	cfg := &Config{
		InventoryDir:     dir,
		InventoryFile:    testFileTempl,
		Gases:            gases,
		CrosswalkFile:    writeCrosswalk(t, dir, testMapping),
		CrosswalkSheet:   testSheet,
		SourceColumn:     testSrcCol,
		HarmonizedColumn: testDstCol,
		CountryMerges:    histemis.DefaultCountryMerges(),
		Units:            histemis.DefaultUnits(Gases),
	}
	tbl, diag, err := Process(cfg)
	if err != nil {
		t.Fatal(err)
	}
	worlds := make(map[string]int)
	for _, k := range tbl.Keys() {
		if want := "Mt " + k.Species + "/yr"; k.Unit != want {
			t.Errorf("%v: have unit %q but want %q", k, k.Unit, want)
		}
		if k.Sector != "Energy Sector" {
			t.Errorf("%v: unexpected sector", k)
		}
		if k.Country == histemis.World {
			worlds[k.Species]++
		}
	}
	if want := map[string]int{"CO2": 1, "SO2": 1}; !reflect.DeepEqual(worlds, want) {
		t.Errorf("World rows: have %v but want %v", worlds, want)
	}
	if tbl.Len() != 4 {
		t.Errorf("have %d series but want 4: %v", tbl.Len(), tbl.Keys())
	}
	if len(tbl.Years()) != 10 {
		t.Errorf("have %d years but want 10", len(tbl.Years()))
	}
	for _, g := range gases {
		for y := 2000; y < 2010; y++ {
			usa, _ := tbl.Value(histemis.SeriesKey{Species: g, Country: "usa", Sector: "Energy Sector", Unit: "Mt " + g + "/yr"}, y)
			world, _ := tbl.Value(histemis.SeriesKey{Species: g, Country: histemis.World, Sector: "Energy Sector", Unit: "Mt " + g + "/yr"}, y)
			want := float64(1000+y-2000+2000+y-2000) * 1e-3
			if different(usa, want, 1e-10) {
				t.Errorf("%s %d: have %v but want %v", g, y, usa, want)
			}
			if different(world, usa, 1e-10) {
				t.Errorf("%s %d World: have %v but want %v", g, y, world, usa)
			}
		}
	}
	if want := []string{"7A_Fossil-fuel-fires"}; !reflect.DeepEqual(diag.Unmapped["sector"], want) {
		t.Errorf("unmapped sectors: have %v but want %v", diag.Unmapped["sector"], want)
	}
}

func TestHarmonizeDropsMissingUnits(t *testing.T) {
	cw, err := NewCrosswalk(testMapping)
	if err != nil {
		t.Fatal(err)
	}
	inv := histemis.NewTable()
	inv.Set(histemis.SeriesKey{Species: "CO", Country: "usa", Sector: "1A1a_Electricity-public"}, 2000, 1)
	inv.Set(histemis.SeriesKey{Species: "CO", Country: "usa", Sector: "1A1a_Electricity-public", Unit: "ktCO"}, 2000, 1)
	diag := histemis.NewDiagnostics()
	o := Harmonize(inv, cw, diag)
	if o.Len() != 1 {
		t.Errorf("have %d series but want 1", o.Len())
	}
	if len(diag.DroppedUnits) != 1 {
		t.Errorf("have %d dropped series but want 1", len(diag.DroppedUnits))
	}
}
