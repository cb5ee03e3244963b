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

// Package gfed aggregates the gridded Global Fire Emissions Database
// (GFED) archive into annual country-level emissions by species and
// sector.
package gfed

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/histemis"
)

// Gases are the species processed by default.
var Gases = []string{"BC", "CH4", "CO", "CO2", "N2O", "NH3", "NMVOC", "NOx", "OC", "SO2"}

// DefaultSectorMapping maps source sectors to harmonized sectors.
func DefaultSectorMapping() map[string]string {
	return map[string]string{
		"AGRI": "Agricultural Waste Burning",
		"BORF": "Forest Burning",
		"DEFO": "Forest Burning",
		"PEAT": "Peat Burning",
		"SAVA": "Grassland Burning",
		"TEMF": "Forest Burning",
	}
}

// DefaultSpeciesNames maps species names to their output names.
func DefaultSpeciesNames() map[string]string {
	return map[string]string{
		"SO2":   "Sulfur",
		"NMVOC": "VOC",
	}
}

// VariableTemplate is the template for output variable names, where
// {em} and {sector} are replaced by the species and harmonized sector.
const VariableTemplate = "CMIP7 History|Emissions|{em}|{sector}"

// Model is the model name of the output.
const Model = "History"

// SpeciesUnits returns the mass unit of each species after emission
// factors are applied. NMVOC is in vocUnit.
func SpeciesUnits(species []string, vocUnit string) map[string]string {
	o := make(map[string]string, len(species))
	for _, s := range species {
		o[s] = "kg " + s
	}
	o[NMVOC] = vocUnit
	return o
}

// Config holds the inputs to Process.
type Config struct {
	// DataDir holds the yearly archive files, which are the files in
	// DataDir matching FilePattern.
	DataDir, FilePattern string

	// Release is the archive release, used as the output scenario name.
	Release string

	// Gases are the species to calculate.
	Gases []string

	// EmissionFactors is the emission factor table file.
	EmissionFactors string

	// VOCSpecies is the VOC species properties workbook, and VOCUnit
	// is the unit of the NMVOC aggregate (kg VOC or kg C).
	VOCSpecies, VOCUnit string

	// Mask is the country mask file and GridTemplate is a file holding
	// the grid to aggregate on. The mask must be on the template grid.
	Mask, GridTemplate string

	// SectorMapping maps source sectors to harmonized sectors, and
	// SpeciesNames maps species to output names.
	SectorMapping, SpeciesNames map[string]string

	// CountryMerges are the combined regions to add. Constituent
	// countries are removed if ReplaceMerged is true.
	CountryMerges histemis.CountryMerges
	ReplaceMerged bool

	// Workers is the number of concurrent country reductions.
	Workers int

	Log logrus.FieldLogger
}

func (c *Config) log() logrus.FieldLogger {
	if c.Log == nil {
		return logrus.StandardLogger()
	}
	return c.Log
}

// Factors reads the emission factor table, adds the VOC aggregate and
// returns the factors per unit dry matter for the configured gases.
func (c *Config) Factors() (*FactorTable, error) {
	ef, err := ReadFactorsFile(c.EmissionFactors)
	if err != nil {
		return nil, err
	}
	voc, err := ReadVOCSpecies(c.VOCSpecies)
	if err != nil {
		return nil, err
	}
	w, err := VOCWeights(voc, c.VOCUnit)
	if err != nil {
		return nil, err
	}
	ef.AddVOC(w)
	return ef.PerDM(c.Gases)
}

// DryMatter calculates the annual dry matter burned in each country and
// source sector [kg DM]. Archive files are read one year at a time and
// appended to the result; years without dry matter data are skipped.
func (c *Config) DryMatter() (*histemis.Table, error) {
	log := c.log()
	files, err := ArchiveFiles(c.DataDir, c.FilePattern)
	if err != nil {
		return nil, err
	}
	template, err := ReadTemplateGrid(c.GridTemplate)
	if err != nil {
		return nil, err
	}
	mask, err := ReadMask(c.Mask)
	if err != nil {
		return nil, err
	}
	if err := mask.Check(template); err != nil {
		return nil, err
	}
	area := CellArea(template)

	dm := histemis.NewTable()
	var rg *Regridder
	for _, file := range files {
		a, err := ReadYear(file, DryMatter)
		if err != nil {
			return nil, err
		}
		if len(a.Fields) == 0 {
			year, _ := YearFromFilename(file)
			log.WithFields(logrus.Fields{
				"file": file,
				"year": year,
			}).Warnf("archive has no %s data; skipping year", DryMatter)
			continue
		}
		if rg == nil || !rg.from.Equal(a.Grid) {
			rg = NewRegridder(a.Grid, template)
		}
		annual := AnnualSums(a, DryMatter, rg)
		t, err := CountryTotals(annual, area, mask, c.Workers)
		if err != nil {
			return nil, err
		}
		dm.Append(t)
		log.WithFields(logrus.Fields{
			"file":  file,
			"years": a.Years(),
		}).Info("aggregated fire archive")
	}
	if dm.Len() == 0 {
		return nil, fmt.Errorf("gfed: none of the %d archive files in %s has %s data", len(files), c.DataDir, DryMatter)
	}
	return dm, nil
}

// Process calculates annual country-level fire emissions from the
// archive described by cfg. The returned table is in IAMC format, with
// model, scenario and variable set, and includes World totals.
func Process(cfg *Config) (*histemis.Table, *histemis.Diagnostics, error) {
	perDM, err := cfg.Factors()
	if err != nil {
		return nil, nil, err
	}
	dm, err := cfg.DryMatter()
	if err != nil {
		return nil, nil, err
	}
	emis, err := ApplyFactors(dm, perDM, SpeciesUnits(cfg.Gases, cfg.VOCUnit))
	if err != nil {
		return nil, nil, err
	}
	if err := emis.HarmonizeUnits("Mt"); err != nil {
		return nil, nil, err
	}
	diag := histemis.NewDiagnostics()
	t := Reformat(emis, cfg.SectorMapping, cfg.SpeciesNames, cfg.Release, diag)
	if err := t.Rollup(cfg.CountryMerges, cfg.ReplaceMerged); err != nil {
		return nil, nil, err
	}
	t.Sort()
	cfg.log().WithFields(logrus.Fields{
		"series": t.Len(),
		"years":  len(t.Years()),
	}).Info("harmonized fire emissions")
	return t, diag, nil
}

// Reformat maps source sectors to harmonized sectors, renames species
// and sets the IAMC model, scenario and variable of each series. Series
// with unmapped sectors are dropped and listed in diag.
func Reformat(t *histemis.Table, sectors, names map[string]string, scenario string, diag *histemis.Diagnostics) *histemis.Table {
	return t.Map(func(k histemis.SeriesKey) (histemis.SeriesKey, bool) {
		sector, ok := sectors[k.Sector]
		if !ok {
			diag.AddUnmapped("sector", k.Sector)
			return k, false
		}
		em := k.Species
		if n, ok := names[em]; ok {
			em = n
		}
		r := strings.NewReplacer("{em}", em, "{sector}", sector)
		return histemis.SeriesKey{
			Species:  em,
			Country:  k.Country,
			Sector:   sector,
			Unit:     k.Unit,
			Model:    Model,
			Scenario: scenario,
			Variable: r.Replace(VariableTemplate),
		}, true
	})
}
