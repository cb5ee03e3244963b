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

package histemisutil

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/spatialmodel/histemis"
	"github.com/spatialmodel/histemis/emissions/gfed"
)

func TestReadTables(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "tables.toml")
	data := `
[CountryMerges]
aaa_bbb = ["aaa", "bbb"]

[CEDSUnits]
CO2 = "Gt CO2/yr"
`
	if err := os.WriteFile(file, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	tables, err := ReadTables(file)
	if err != nil {
		t.Fatal(err)
	}
	want := &Tables{
		CountryMerges:    histemis.CountryMerges{"aaa_bbb": {"aaa", "bbb"}},
		CEDSUnits:        map[string]string{"CO2": "Gt CO2/yr"},
		GFEDSectors:      gfed.DefaultSectorMapping(),
		GFEDSpeciesNames: gfed.DefaultSpeciesNames(),
	}
	if !reflect.DeepEqual(tables, want) {
		t.Errorf("have %+v but want %+v", tables, want)
	}

	bad := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(bad, []byte("[Sectors]\nAGRI = \"x\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadTables(bad); err == nil {
		t.Error("unknown table should fail")
	}
	if _, err := ReadTables(filepath.Join(dir, "missing.toml")); err == nil {
		t.Error("missing file should fail")
	}
}

func TestLoadTables(t *testing.T) {
	Cfg.Set("Tables", "")
	tables, err := loadTables(Cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(tables, DefaultTables()) {
		t.Errorf("have %+v but want the default tables", tables)
	}
}

func TestCEDSConfig(t *testing.T) {
	Cfg.Set("CEDS.Gases", []string{"CO2", "SO2"})
	defer Cfg.Set("CEDS.Gases", []string{"CO2"})
	c, err := CEDSConfig(Cfg, DefaultTables())
	if err != nil {
		t.Fatal(err)
	}
	if want := histemis.DefaultUnits([]string{"CO2", "SO2"}); !reflect.DeepEqual(c.Units, want) {
		t.Errorf("have units %v but want %v", c.Units, want)
	}
	units := map[string]string{"CO2": "Gt CO2/yr"}
	c, err = CEDSConfig(Cfg, &Tables{CEDSUnits: units})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(c.Units, units) {
		t.Errorf("have units %v but want %v", c.Units, units)
	}
}

func TestGFEDConfig(t *testing.T) {
	os.Setenv("HISTEMIS_TEST_DIR", "/data")
	defer os.Unsetenv("HISTEMIS_TEST_DIR")
	Cfg.Set("GFED.DataDir", "${HISTEMIS_TEST_DIR}/gfed")
	Cfg.Set("GFED.Gases", []string{"BC", "NMVOC"})
	Cfg.Set("GFED.VOCUnit", gfed.VOCUnitCarbon)
	Cfg.Set("GFED.Workers", 3)
	c, err := GFEDConfig(Cfg, DefaultTables())
	if err != nil {
		t.Fatal(err)
	}
	if c.DataDir != "/data/gfed" {
		t.Errorf("have data directory %q", c.DataDir)
	}
	if !reflect.DeepEqual(c.Gases, []string{"BC", "NMVOC"}) {
		t.Errorf("have gases %v", c.Gases)
	}
	if c.VOCUnit != gfed.VOCUnitCarbon || c.Workers != 3 {
		t.Errorf("have %q, %d", c.VOCUnit, c.Workers)
	}
	if !reflect.DeepEqual(c.SectorMapping, gfed.DefaultSectorMapping()) {
		t.Errorf("have sector mapping %v", c.SectorMapping)
	}

	Cfg.Set("GFED.VOCUnit", "kg")
	defer Cfg.Set("GFED.VOCUnit", gfed.VOCUnitMass)
	if _, err := GFEDConfig(Cfg, DefaultTables()); err == nil {
		t.Error("invalid VOC unit should fail")
	}
}

func TestCheckOutputFile(t *testing.T) {
	if _, err := checkOutputFile(""); err == nil {
		t.Error("empty output file should fail")
	}
	f := filepath.Join(t.TempDir(), "a", "b", "out.csv")
	o, err := checkOutputFile(f)
	if err != nil {
		t.Fatal(err)
	}
	if o != f {
		t.Errorf("have %q but want %q", o, f)
	}
	if _, err := os.Stat(filepath.Dir(f)); err != nil {
		t.Error(err)
	}
}
