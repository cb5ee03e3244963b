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
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/spatialmodel/histemis/internal/excel"
	"gonum.org/v1/gonum/mat"
)

const (
	// factorHeaderLine is the 1-based line number of the sector header
	// in the emission factor table.
	factorHeaderLine = 16
	factorMarker     = "SPECIE"

	// DryMatter is the name of the dry matter variable and factor row.
	DryMatter = "DM"

	// NMVOC is the name of the aggregate volatile organic compound
	// factor row.
	NMVOC = "NMVOC"
)

// Valid VOC aggregate units.
const (
	VOCUnitCarbon = "kg C"
	VOCUnitMass   = "kg VOC"
)

// FactorTable holds emission factors by species (rows) and source
// sector (columns).
type FactorTable struct {
	Species []string
	Sectors []string
	*mat.Dense
}

// Row returns the index of the given species, or -1 if it is not
// in the table.
func (f *FactorTable) Row(species string) int {
	for i, s := range f.Species {
		if s == species {
			return i
		}
	}
	return -1
}

// Col returns the index of the given sector, or -1 if it is not
// in the table.
func (f *FactorTable) Col(sector string) int {
	for i, s := range f.Sectors {
		if s == sector {
			return i
		}
	}
	return -1
}

// Factor returns the factor for the given species and sector.
func (f *FactorTable) Factor(species, sector string) (float64, error) {
	i, j := f.Row(species), f.Col(sector)
	if i < 0 {
		return math.NaN(), fmt.Errorf("gfed: no emission factor for species %s", species)
	}
	if j < 0 {
		return math.NaN(), fmt.Errorf("gfed: no emission factor for sector %s", sector)
	}
	return f.At(i, j), nil
}

// ReadFactors reads a whitespace-delimited emission factor table [g
// species / kg DM]. Line 16 of the table must be the header
// "# SPECIE <sector> ...", and other lines starting with "#" are comments.
func ReadFactors(r io.Reader) (*FactorTable, error) {
	s := bufio.NewScanner(r)
	var sectors []string
	var species []string
	var data []float64
	line := 0
	for s.Scan() {
		line++
		fields := strings.Fields(s.Text())
		if line == factorHeaderLine {
			if len(fields) < 3 || fields[1] != factorMarker {
				return nil, fmt.Errorf("gfed: emission factor header is not on line %d or has changed: %q",
					factorHeaderLine, s.Text())
			}
			sectors = fields[2:]
			continue
		}
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if sectors == nil {
			return nil, fmt.Errorf("gfed: emission factor data on line %d precedes the header", line)
		}
		if len(fields) != len(sectors)+1 {
			return nil, fmt.Errorf("gfed: emission factor line %d has %d values; want %d", line, len(fields)-1, len(sectors))
		}
		species = append(species, fields[0])
		for _, v := range fields[1:] {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("gfed: emission factor line %d: %v", line, err)
			}
			data = append(data, f)
		}
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("gfed: reading emission factors: %v", err)
	}
	if sectors == nil {
		return nil, fmt.Errorf("gfed: emission factor table has fewer than %d lines", factorHeaderLine)
	}
	if len(species) == 0 {
		return nil, fmt.Errorf("gfed: emission factor table contains no species")
	}
	return &FactorTable{
		Species: species,
		Sectors: sectors,
		Dense:   mat.NewDense(len(species), len(sectors), data),
	}, nil
}

// ReadFactorsFile reads the emission factor table in the named file.
func ReadFactorsFile(file string) (*FactorTable, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("gfed: opening emission factors: %v", err)
	}
	defer f.Close()
	return ReadFactors(f)
}

// AddVOC sets the NMVOC row of the table to the weighted sum of the
// factors of the individual VOC species, where weights is the weight of
// each species. Species that are not in the table are ignored. An
// existing NMVOC row is replaced.
func (f *FactorTable) AddVOC(weights map[string]float64) {
	r, c := f.Dims()
	w := mat.NewVecDense(r, nil)
	for i, s := range f.Species {
		if s == NMVOC {
			continue
		}
		w.SetVec(i, weights[s])
	}
	voc := mat.NewVecDense(c, nil)
	voc.MulVec(f.Dense.T(), w)

	if i := f.Row(NMVOC); i >= 0 {
		f.SetRow(i, voc.RawVector().Data)
		return
	}
	d := mat.NewDense(r+1, c, nil)
	d.Copy(f.Dense)
	d.SetRow(r, voc.RawVector().Data)
	f.Dense = d
	f.Species = append(f.Species, NMVOC)
}

// PerDM returns the factors for the given species divided by the dry
// matter factor for each sector, which are the emissions of each species
// per unit dry matter burned [kg species / kg DM].
func (f *FactorTable) PerDM(species []string) (*FactorTable, error) {
	dm := f.Row(DryMatter)
	if dm < 0 {
		return nil, fmt.Errorf("gfed: emission factor table has no %s row", DryMatter)
	}
	_, c := f.Dims()
	o := &FactorTable{
		Species: species,
		Sectors: f.Sectors,
		Dense:   mat.NewDense(len(species), c, nil),
	}
	for i, s := range species {
		r := f.Row(s)
		if r < 0 {
			return nil, fmt.Errorf("gfed: emission factor table has no %s row", s)
		}
		for j := 0; j < c; j++ {
			d := f.At(dm, j)
			if d == 0 {
				return nil, fmt.Errorf("gfed: %s emission factor for sector %s is zero", DryMatter, f.Sectors[j])
			}
			o.Set(i, j, f.At(r, j)/d)
		}
	}
	return o, nil
}

// VOCSpecies holds properties of individual volatile organic compounds.
type VOCSpecies struct {
	Names []string

	// NMVOC indicates whether each species is a non-methane VOC.
	NMVOC []bool

	// CarbonWeight and MolecularWeight are the carbon and total molecular
	// weights of each species [g/mol].
	CarbonWeight, MolecularWeight []float64
}

var vocNameRe = regexp.MustCompile(`^(\w+) *\(.*\)$`)

// ReadVOCSpecies reads VOC species properties from the first sheet of a
// Microsoft Excel file. Species names are in the first column, in the form
// "C2H6 (Ethane)", and are shortened to the part before the parentheses.
// Columns "NMVOC" (marked "y" for non-methane VOCs), "Carbon weight" and
// "Molecular weight" must be present.
func ReadVOCSpecies(file string) (*VOCSpecies, error) {
	s, err := excel.Sheet(file, "")
	if err != nil {
		return nil, fmt.Errorf("gfed: reading VOC species: %v", err)
	}
	cols, err := excel.Columns(s, "NMVOC", "Carbon weight", "Molecular weight")
	if err != nil {
		return nil, fmt.Errorf("gfed: reading VOC species: %v", err)
	}
	o := new(VOCSpecies)
	for _, n := range excel.TextColumn(s, 0, 1, -1) {
		o.Names = append(o.Names, vocNameRe.ReplaceAllString(n, "$1"))
	}
	for _, v := range excel.TextColumn(s, cols[0], 1, -1) {
		o.NMVOC = append(o.NMVOC, v == "y")
	}
	if o.CarbonWeight, err = excel.FloatColumn(s, cols[1], 1, -1); err != nil {
		return nil, fmt.Errorf("gfed: reading VOC species: %v", err)
	}
	if o.MolecularWeight, err = excel.FloatColumn(s, cols[2], 1, -1); err != nil {
		return nil, fmt.Errorf("gfed: reading VOC species: %v", err)
	}
	return o, nil
}

// VOCWeights returns the weight of each non-methane VOC species in
// the NMVOC aggregate. For unit "kg C" the weight is the carbon fraction
// of the species' molecular weight; for "kg VOC" it is one. Other units
// are not supported.
func VOCWeights(s *VOCSpecies, unit string) (map[string]float64, error) {
	if unit != VOCUnitCarbon && unit != VOCUnitMass {
		return nil, fmt.Errorf("gfed: VOC unit must be %q or %q, not %q", VOCUnitMass, VOCUnitCarbon, unit)
	}
	o := make(map[string]float64)
	for i, n := range s.Names {
		if !s.NMVOC[i] {
			continue
		}
		if unit == VOCUnitMass {
			o[n] = 1
			continue
		}
		w := s.CarbonWeight[i] / s.MolecularWeight[i]
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("gfed: VOC species %s has invalid carbon or molecular weight", n)
		}
		o[n] = w
	}
	return o, nil
}
