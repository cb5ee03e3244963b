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
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spatialmodel/histemis"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// seriesLabel returns the species and sector of k. For IAMC-style keys
// they are taken from the last two elements of the variable name.
func seriesLabel(k histemis.SeriesKey) (species, sector string) {
	if k.Species != "" || k.Variable == "" {
		return k.Species, k.Sector
	}
	parts := strings.Split(k.Variable, "|")
	if len(parts) < 2 {
		return k.Variable, ""
	}
	return parts[len(parts)-2], parts[len(parts)-1]
}

// WorldSeries reads the harmonized emissions file inputFile and returns the
// World time series of species, keyed by sector, together with their unit.
func WorldSeries(inputFile string, numIndex int, species string) (map[string]plotter.XYs, string, error) {
	f, err := os.Open(inputFile)
	if err != nil {
		return nil, "", fmt.Errorf("histemis: opening plot input: %v", err)
	}
	defer f.Close()
	t, err := histemis.ReadCSV(f, numIndex)
	if err != nil {
		return nil, "", err
	}
	o := make(map[string]plotter.XYs)
	var unit string
	for _, k := range t.Keys() {
		sp, sector := seriesLabel(k)
		if k.Country != histemis.World || sp != species {
			continue
		}
		if unit != "" && k.Unit != unit {
			return nil, "", fmt.Errorf("histemis: %s has more than one unit: %s and %s", species, unit, k.Unit)
		}
		unit = k.Unit
		s := t.Series(k)
		years := make([]int, 0, len(s))
		for y := range s {
			years = append(years, y)
		}
		sort.Ints(years)
		xy := make(plotter.XYs, len(years))
		for i, y := range years {
			xy[i].X = float64(y)
			xy[i].Y = s[y]
		}
		o[sector] = xy
	}
	if len(o) == 0 {
		return nil, "", fmt.Errorf("histemis: no World emissions of %s in %s", species, inputFile)
	}
	return o, unit, nil
}

// PlotWorld plots the World emissions of species in inputFile, with one
// line per sector, and saves the figure to outputFile.
func PlotWorld(inputFile string, numIndex int, species, outputFile string) error {
	series, unit, err := WorldSeries(inputFile, numIndex, species)
	if err != nil {
		return err
	}
	p, err := plot.New()
	if err != nil {
		return fmt.Errorf("histemis: creating plot: %v", err)
	}
	p.Title.Text = fmt.Sprintf("World %s emissions", species)
	p.X.Label.Text = "Year"
	p.Y.Label.Text = unit
	p.Legend.Top = true
	p.Legend.Left = true

	sectors := make([]string, 0, len(series))
	for s := range series {
		sectors = append(sectors, s)
	}
	sort.Strings(sectors)
	for i, s := range sectors {
		l, err := plotter.NewLine(series[s])
		if err != nil {
			return fmt.Errorf("histemis: plotting %s: %v", s, err)
		}
		l.Color = plotutil.Color(i)
		l.Dashes = plotutil.Dashes(i / len(plotutil.DefaultColors))
		p.Add(l)
		p.Legend.Add(s, l)
	}
	if err := p.Save(7*vg.Inch, 4*vg.Inch, outputFile); err != nil {
		return fmt.Errorf("histemis: saving plot: %v", err)
	}
	return nil
}
