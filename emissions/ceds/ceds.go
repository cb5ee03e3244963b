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

// Package ceds harmonizes the Community Emissions Data System (CEDS)
// country- and sector-level emissions inventory.
package ceds

import (
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/histemis"
)

// Gases are the inventory gases processed by default.
var Gases = []string{"BC", "CH4", "CO", "CO2", "N2O", "NH3", "NMVOC", "NOx", "OC", "SO2"}

// Config holds the inputs to Process.
type Config struct {
	// InventoryDir is the directory holding one inventory file per gas.
	InventoryDir string

	// InventoryFile is the inventory file name template, where
	// "[GAS]" is replaced by the gas name.
	InventoryFile string

	// Gases are the gases to read.
	Gases []string

	// NumIndex is the number of key columns in the inventory files.
	NumIndex int

	// CrosswalkFile is the sector mapping workbook, with source sectors
	// in column SourceColumn and harmonized sectors in column
	// HarmonizedColumn of sheet CrosswalkSheet.
	CrosswalkFile, CrosswalkSheet, SourceColumn, HarmonizedColumn string

	// CountryMerges are the combined regions to add. Constituent
	// countries are removed if ReplaceMerged is true.
	CountryMerges histemis.CountryMerges
	ReplaceMerged bool

	// Units gives the desired unit for each gas. Series in other units
	// are dropped.
	Units map[string]string

	Log logrus.FieldLogger
}

func (c *Config) log() logrus.FieldLogger {
	if c.Log == nil {
		return logrus.StandardLogger()
	}
	return c.Log
}

// Process reads and harmonizes the inventory described by cfg. The
// returned table holds one series per gas, country, harmonized sector and
// unit, including World totals. Excluded inputs are listed in the
// returned diagnostics.
func Process(cfg *Config) (*histemis.Table, *histemis.Diagnostics, error) {
	log := cfg.log()
	numIndex := cfg.NumIndex
	if numIndex == 0 {
		numIndex = DefaultNumIndex
	}
	diag := histemis.NewDiagnostics()

	cw, err := ReadCrosswalk(cfg.CrosswalkFile, cfg.CrosswalkSheet, cfg.SourceColumn, cfg.HarmonizedColumn)
	if err != nil {
		return nil, nil, err
	}
	for _, s := range cw.Unmapped {
		diag.AddUnmapped("crosswalk sector", s)
	}
	log.WithFields(logrus.Fields{
		"file":    cfg.CrosswalkFile,
		"sectors": cw.Len(),
	}).Info("read sector crosswalk")

	inv, err := ReadGases(cfg.InventoryDir, cfg.InventoryFile, cfg.Gases, numIndex)
	if err != nil {
		return nil, nil, err
	}
	log.WithFields(logrus.Fields{
		"gases":  len(cfg.Gases),
		"series": inv.Len(),
	}).Info("read inventory")

	t := Harmonize(inv, cw, diag)
	if err := t.Rollup(cfg.CountryMerges, cfg.ReplaceMerged); err != nil {
		return nil, nil, err
	}
	diag.DroppedUnits = append(diag.DroppedUnits, t.JoinUnits(cfg.Units)...)
	t.Sort()
	log.WithFields(logrus.Fields{
		"series": t.Len(),
		"years":  len(t.Years()),
	}).Info("harmonized inventory")
	return t, diag, nil
}

// Harmonize maps the source sectors of inv to harmonized sectors,
// drops series without units and converts units to the annual Mt form.
// Series that share a key after these steps are summed.
func Harmonize(inv *histemis.Table, cw *Crosswalk, diag *histemis.Diagnostics) *histemis.Table {
	t := inv.Map(func(k histemis.SeriesKey) (histemis.SeriesKey, bool) {
		sector, ok := cw.Map(k.Sector)
		if !ok {
			diag.AddUnmapped("sector", k.Sector)
			return k, false
		}
		if k.Unit == "" {
			diag.DroppedUnits = append(diag.DroppedUnits, k)
			return k, false
		}
		k.Sector = sector
		return k, true
	})
	t.NormalizeUnits()
	return t
}
