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
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// GroupSep separates the group names in the flattened variable names
// of an archive file, for example "emissions__01__DM".
const GroupSep = "__"

const (
	emissionsGroup    = "emissions"
	partitioningGroup = "partitioning"
	cellAreaVar       = "ancill" + GroupSep + "grid_cell_area"
)

// Field is a single monthly gridded field of an archive variable. Sector
// is the source sector for variables that are partitioned into sectors
// and empty otherwise.
type Field struct {
	Year, Month int
	Var, Sector string
	Data        *sparse.DenseArray
}

// Archive holds gridded monthly fields, sorted by year, month,
// variable and sector.
type Archive struct {
	Grid   *Grid
	Fields []Field
}

// YearFromFilename parses the year from an archive file name such as
// "GFED4.1s_1997.nc".
func YearFromFilename(file string) (int, error) {
	stem := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	parts := strings.Split(stem, "_")
	if len(parts) < 2 {
		return 0, fmt.Errorf("gfed: archive file name %s does not contain a year", file)
	}
	y, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("gfed: archive file name %s does not contain a year: %v", file, err)
	}
	return y, nil
}

// ReadYear reads the monthly emissions fields from the archive file for
// a single year. Variables with a sector partitioning are split into one
// field per source sector. If vars is not empty, only the named variables
// are read. The returned archive has no fields if the file holds none of
// the requested variables.
func ReadYear(file string, vars ...string) (*Archive, error) {
	year, err := YearFromFilename(file)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("gfed: opening archive: %v", err)
	}
	defer f.Close()
	nc, err := cdf.Open(f)
	if err != nil {
		return nil, fmt.Errorf("gfed: opening archive %s: %v", file, err)
	}
	g, err := readGrid(nc)
	if err != nil {
		return nil, fmt.Errorf("gfed: archive %s: %v", file, err)
	}

	type monthVars struct {
		vars  map[string]string   // variable -> file variable name
		parts map[string][]string // variable -> partitioning variable names
	}
	want := make(map[string]bool, len(vars))
	for _, v := range vars {
		want[v] = true
	}
	keep := func(v string) bool { return len(want) == 0 || want[v] }
	months := make(map[int]*monthVars)
	month := func(m int) *monthVars {
		mv, ok := months[m]
		if !ok {
			mv = &monthVars{vars: make(map[string]string), parts: make(map[string][]string)}
			months[m] = mv
		}
		return mv
	}
	for _, v := range nc.Header.Variables() {
		p := strings.Split(v, GroupSep)
		if len(p) < 3 || p[0] != emissionsGroup {
			continue
		}
		m, err := strconv.Atoi(p[1])
		if err != nil {
			return nil, fmt.Errorf("gfed: archive %s: invalid month in variable %s", file, v)
		}
		switch {
		case len(p) == 3:
			if keep(p[2]) {
				month(m).vars[p[2]] = v
			}
		case len(p) == 4 && p[2] == partitioningGroup:
			vs := strings.SplitN(p[3], "_", 2)
			if len(vs) != 2 {
				return nil, fmt.Errorf("gfed: archive %s: invalid partitioning variable %s", file, v)
			}
			if keep(vs[0]) {
				mv := month(m)
				mv.parts[vs[0]] = append(mv.parts[vs[0]], v)
			}
		}
	}

	a := &Archive{Grid: g}
	for m, mv := range months {
		for vName, name := range mv.vars {
			data, err := readField(nc, name, g)
			if err != nil {
				return nil, fmt.Errorf("gfed: archive %s: %v", file, err)
			}
			parts := mv.parts[vName]
			if len(parts) == 0 {
				a.Fields = append(a.Fields, Field{Year: year, Month: m, Var: vName, Data: data})
				continue
			}
			for _, pName := range parts {
				frac, err := readField(nc, pName, g)
				if err != nil {
					return nil, fmt.Errorf("gfed: archive %s: %v", file, err)
				}
				for i, v := range data.Elements {
					frac.Elements[i] *= v
				}
				sector := strings.SplitN(pName[strings.LastIndex(pName, GroupSep)+len(GroupSep):], "_", 2)[1]
				a.Fields = append(a.Fields, Field{Year: year, Month: m, Var: vName, Sector: sector, Data: frac})
			}
		}
	}
	a.sort()
	return a, nil
}

func (a *Archive) sort() {
	sort.SliceStable(a.Fields, func(i, j int) bool {
		fi, fj := a.Fields[i], a.Fields[j]
		if fi.Year != fj.Year {
			return fi.Year < fj.Year
		}
		if fi.Month != fj.Month {
			return fi.Month < fj.Month
		}
		if fi.Var != fj.Var {
			return fi.Var < fj.Var
		}
		return fi.Sector < fj.Sector
	})
}

// Variable returns the fields of variable v.
func (a *Archive) Variable(v string) []Field {
	var o []Field
	for _, f := range a.Fields {
		if f.Var == v {
			o = append(o, f)
		}
	}
	return o
}

// Years returns the years present in the archive.
func (a *Archive) Years() []int {
	var o []int
	for _, f := range a.Fields {
		if len(o) == 0 || o[len(o)-1] != f.Year {
			o = append(o, f.Year)
		}
	}
	return o
}

// ReadCellArea reads the static grid cell area field [m²] from an
// archive file.
func ReadCellArea(file string) (*sparse.DenseArray, *Grid, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, nil, fmt.Errorf("gfed: opening archive: %v", err)
	}
	defer f.Close()
	nc, err := cdf.Open(f)
	if err != nil {
		return nil, nil, fmt.Errorf("gfed: opening archive %s: %v", file, err)
	}
	g, err := readGrid(nc)
	if err != nil {
		return nil, nil, fmt.Errorf("gfed: archive %s: %v", file, err)
	}
	area, err := readField(nc, cellAreaVar, g)
	if err != nil {
		return nil, nil, fmt.Errorf("gfed: archive %s: %v", file, err)
	}
	return area, g, nil
}

// ArchiveFiles returns the archive files in dir matching pattern, sorted
// by file name.
func ArchiveFiles(dir, pattern string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("gfed: listing archive files: %v", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("gfed: no archive files matching %s in %s", pattern, dir)
	}
	sort.Strings(files)
	return files, nil
}
