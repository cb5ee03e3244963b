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

package gfed

import (
	"path/filepath"
	"reflect"
	"testing"
)

func TestYearFromFilename(t *testing.T) {
	y, err := YearFromFilename(filepath.Join("data_raw", "GFED4.1s_1997.hdf5"))
	if err != nil {
		t.Fatal(err)
	}
	if y != 1997 {
		t.Errorf("have %d but want 1997", y)
	}
	for _, f := range []string{"GFED4.1s.nc", "GFED4.1s_beta.nc"} {
		if _, err := YearFromFilename(f); err == nil {
			t.Errorf("%s: expected an error", f)
		}
	}
}

func TestReadYear(t *testing.T) {
	file := writeArchive(t, t.TempDir(), 2001, 1)
	a, err := ReadYear(file)
	if err != nil {
		t.Fatal(err)
	}
	if !a.Grid.Equal(testGrid()) {
		t.Errorf("have grid %+v", a.Grid)
	}
	if len(a.Fields) != 6 {
		t.Fatalf("have %d fields but want 6", len(a.Fields))
	}
	if want := []int{2001}; !reflect.DeepEqual(a.Years(), want) {
		t.Errorf("have years %v but want %v", a.Years(), want)
	}

	dm := a.Variable(DryMatter)
	type fieldID struct {
		month  int
		sector string
		value  float64
	}
	want := []fieldID{{1, "AGRI", 0.25}, {1, "SAVA", 0.75}, {2, "AGRI", 0.5}, {2, "SAVA", 1.5}}
	if len(dm) != len(want) {
		t.Fatalf("have %d dry matter fields but want %d", len(dm), len(want))
	}
	for i, f := range dm {
		have := fieldID{f.Month, f.Sector, f.Data.Elements[5]}
		if have != want[i] {
			t.Errorf("field %d: have %+v but want %+v", i, have, want[i])
		}
	}

	c := a.Variable("C")
	if len(c) != 2 || c[0].Sector != "" {
		t.Fatalf("have %+v", c)
	}
	if c[0].Data.Elements[0] != 0 || c[0].Data.Elements[1] != 5 {
		t.Errorf("missing values should be read as zero: have %v", c[0].Data.Elements[:2])
	}
}

func TestReadYearVariables(t *testing.T) {
	file := writeArchive(t, t.TempDir(), 2001, 1)
	a, err := ReadYear(file, DryMatter)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Fields) != 4 {
		t.Fatalf("have %d fields but want 4", len(a.Fields))
	}
	for _, f := range a.Fields {
		if f.Var != DryMatter {
			t.Errorf("unexpected variable %s", f.Var)
		}
	}

	a, err = ReadYear(file, "C")
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Fields) != 2 || a.Fields[0].Sector != "" {
		t.Errorf("have %+v", a.Fields)
	}
}

func TestReadYearNoEmissions(t *testing.T) {
	file := filepath.Join(t.TempDir(), "GFED4.1s_2001.nc")
	writeNC(t, file, testGrid(), []ncVar{{name: "burned_area", data: constant(testGrid(), 1)}})
	a, err := ReadYear(file)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Fields) != 0 || len(a.Years()) != 0 {
		t.Errorf("have %d fields and years %v but want none", len(a.Fields), a.Years())
	}
}

func TestReadCellArea(t *testing.T) {
	file := writeArchive(t, t.TempDir(), 2001, 1)
	area, g, err := ReadCellArea(file)
	if err != nil {
		t.Fatal(err)
	}
	if !g.Equal(testGrid()) {
		t.Errorf("have grid %+v", g)
	}
	if !reflect.DeepEqual(area.Elements, CellArea(g).Elements) {
		t.Errorf("have %v but want %v", area.Elements, CellArea(g).Elements)
	}
}

func TestArchiveFiles(t *testing.T) {
	dir := t.TempDir()
	writeArchive(t, dir, 2002, 1)
	writeArchive(t, dir, 2001, 1)
	files, err := ArchiveFiles(dir, "*.nc")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(dir, "GFED4.1s_2001.nc"), filepath.Join(dir, "GFED4.1s_2002.nc")}
	if !reflect.DeepEqual(files, want) {
		t.Errorf("have %v but want %v", files, want)
	}
	if _, err := ArchiveFiles(dir, "*.hdf5"); err == nil {
		t.Error("no matching files should fail")
	}
}
