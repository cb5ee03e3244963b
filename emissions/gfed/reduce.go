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
	"runtime"
	"sort"
	"sync"

	"github.com/ctessum/sparse"
	"github.com/spatialmodel/histemis"
)

// AnnualField is the sum over all months of a year of an archive
// variable, for a single source sector.
type AnnualField struct {
	Year        int
	Var, Sector string
	Data        *sparse.DenseArray
}

// AnnualSums regrids the monthly fields of variable v in archive a with
// rg and sums them by year and source sector. Months without data do not
// contribute.
func AnnualSums(a *Archive, v string, rg *Regridder) []AnnualField {
	type key struct {
		year   int
		sector string
	}
	sums := make(map[key]*sparse.DenseArray)
	var order []key
	for _, f := range a.Variable(v) {
		k := key{year: f.Year, sector: f.Sector}
		d := rg.Regrid(f.Data)
		if s, ok := sums[k]; ok {
			s.AddDense(d)
		} else {
			sums[k] = d
			order = append(order, k)
		}
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].year != order[j].year {
			return order[i].year < order[j].year
		}
		return order[i].sector < order[j].sector
	})
	o := make([]AnnualField, len(order))
	for i, k := range order {
		o[i] = AnnualField{Year: k.year, Var: v, Sector: k.sector, Data: sums[k]}
	}
	return o
}

// CountryTotals calculates the total of each annual field within each
// country of mask m: Σ field × area × mask weight over all grid cells.
// Fields are per unit area and area gives the area of each grid cell, so
// the totals have the field's unit multiplied by area. The returned table
// has one series per country, variable and sector, with species set to
// the variable name and unit set to "kg <variable>".
// Countries are processed concurrently by the given number of workers.
// If workers is less than one, runtime.GOMAXPROCS workers are used.
func CountryTotals(fields []AnnualField, area *sparse.DenseArray, m *Mask, workers int) (*histemis.Table, error) {
	for _, f := range fields {
		if len(f.Data.Elements) != len(area.Elements) {
			return nil, fmt.Errorf("gfed: field %s %s %d has %d cells but the area has %d",
				f.Var, f.Sector, f.Year, len(f.Data.Elements), len(area.Elements))
		}
	}
	if workers < 1 {
		workers = runtime.GOMAXPROCS(-1)
	}

	// Each country's totals are written only to its own slot.
	results := make([][]float64, len(m.Codes))
	jobs := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for c := range jobs {
				r := make([]float64, len(fields))
				layer := m.Layers[c]
				// Iterate over cells in a fixed order so that results are
				// reproducible.
				cells := layer.Nonzero()
				sort.Ints(cells)
				for k, f := range fields {
					var sum float64
					for _, i := range cells {
						sum += f.Data.Elements[i] * area.Elements[i] * layer.Elements[i]
					}
					r[k] = sum
				}
				results[c] = r
			}
		}()
	}
	for c := range m.Codes {
		jobs <- c
	}
	close(jobs)
	wg.Wait()

	t := histemis.NewTable()
	for c, code := range m.Codes {
		for k, f := range fields {
			key := histemis.SeriesKey{
				Species: f.Var,
				Country: code,
				Sector:  f.Sector,
				Unit:    "kg " + f.Var,
			}
			t.Add(key, f.Year, results[c][k])
		}
	}
	return t, nil
}

// ApplyFactors converts dry matter totals into emissions of each species
// in the given per-DM factor table. Each dry matter series must have a
// source sector that is present in the factor table. units gives the
// output unit for each species.
func ApplyFactors(dm *histemis.Table, perDM *FactorTable, units map[string]string) (*histemis.Table, error) {
	o := histemis.NewTable()
	for _, k := range dm.Keys() {
		if k.Species != DryMatter {
			continue
		}
		if k.Sector == "" {
			return nil, fmt.Errorf("gfed: %s for country %s has no sector partitioning", DryMatter, k.Country)
		}
		j := perDM.Col(k.Sector)
		if j < 0 {
			return nil, fmt.Errorf("gfed: no emission factors for sector %s", k.Sector)
		}
		s := dm.Series(k)
		for i, sp := range perDM.Species {
			u, ok := units[sp]
			if !ok {
				return nil, fmt.Errorf("gfed: no unit for species %s", sp)
			}
			ek := k
			ek.Species = sp
			ek.Unit = u
			f := perDM.At(i, j)
			for y, v := range s {
				o.Add(ek, y, v*f)
			}
		}
	}
	return o, nil
}
