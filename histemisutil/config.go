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
	"path/filepath"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/histemis"
	"github.com/spatialmodel/histemis/emissions/ceds"
	"github.com/spatialmodel/histemis/emissions/gfed"
	"github.com/spf13/cast"
)

// expandStringSlice expands the environment variables in a slice of strings.
func expandStringSlice(s []string) []string {
	for i := 0; i < len(s); i++ {
		s[i] = os.ExpandEnv(s[i])
	}
	return s
}

// getStringSlice returns a []string from a viper configuration,
// accounting for the fact that it might be a space-separated list if it
// was set from an environment variable.
func getStringSlice(varName string, cfg *viper.Viper) ([]string, error) {
	s, err := cast.ToStringSliceE(cfg.Get(varName))
	if err != nil {
		return nil, fmt.Errorf("histemis: reading %s: %v", varName, err)
	}
	if len(s) == 0 {
		return nil, fmt.Errorf("histemis: %s is empty", varName)
	}
	return expandStringSlice(s), nil
}

// checkOutputFile makes sure that the output file is specified and its
// directory exists, and expands any environment variables.
func checkOutputFile(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf("histemis: you need to specify an output file")
	}
	f = os.ExpandEnv(f)
	if err := os.MkdirAll(filepath.Dir(f), os.ModePerm); err != nil {
		return f, fmt.Errorf("histemis: creating output directory: %v", err)
	}
	return f, nil
}

// loadTables returns the static tables in the file specified by the
// "Tables" configuration variable, or the default tables if none is
// specified.
func loadTables(cfg *viper.Viper) (*Tables, error) {
	f := os.ExpandEnv(cfg.GetString("Tables"))
	if f == "" {
		return DefaultTables(), nil
	}
	return ReadTables(f)
}

// CEDSConfig creates a CEDS inventory configuration from a viper
// configuration and the static tables.
func CEDSConfig(cfg *viper.Viper, t *Tables) (*ceds.Config, error) {
	gases, err := getStringSlice("CEDS.Gases", cfg)
	if err != nil {
		return nil, err
	}
	units := t.CEDSUnits
	if units == nil {
		units = histemis.DefaultUnits(gases)
	}
	return &ceds.Config{
		InventoryDir:     os.ExpandEnv(cfg.GetString("CEDS.InventoryDir")),
		InventoryFile:    cfg.GetString("CEDS.InventoryFile"),
		Gases:            gases,
		NumIndex:         cfg.GetInt("CEDS.NumIndex"),
		CrosswalkFile:    os.ExpandEnv(cfg.GetString("CEDS.SectorMapping")),
		CrosswalkSheet:   cfg.GetString("CEDS.SectorMappingSheet"),
		SourceColumn:     cfg.GetString("CEDS.SourceColumn"),
		HarmonizedColumn: cfg.GetString("CEDS.HarmonizedColumn"),
		CountryMerges:    t.CountryMerges,
		ReplaceMerged:    cfg.GetBool("ReplaceMerged"),
		Units:            units,
		Log:              logrus.StandardLogger(),
	}, nil
}

// GFEDConfig creates a fire emissions configuration from a viper
// configuration and the static tables.
func GFEDConfig(cfg *viper.Viper, t *Tables) (*gfed.Config, error) {
	gases, err := getStringSlice("GFED.Gases", cfg)
	if err != nil {
		return nil, err
	}
	vocUnit := cfg.GetString("GFED.VOCUnit")
	if vocUnit != gfed.VOCUnitMass && vocUnit != gfed.VOCUnitCarbon {
		return nil, fmt.Errorf("histemis: the GFED.VOCUnit variable needs to be set to either "+
			"%q or %q, but is currently set to %q", gfed.VOCUnitMass, gfed.VOCUnitCarbon, vocUnit)
	}
	return &gfed.Config{
		DataDir:         os.ExpandEnv(cfg.GetString("GFED.DataDir")),
		FilePattern:     cfg.GetString("GFED.FilePattern"),
		Release:         cfg.GetString("GFED.Release"),
		Gases:           gases,
		EmissionFactors: os.ExpandEnv(cfg.GetString("GFED.EmissionFactors")),
		VOCSpecies:      os.ExpandEnv(cfg.GetString("GFED.VOCSpecies")),
		VOCUnit:         vocUnit,
		Mask:            os.ExpandEnv(cfg.GetString("GFED.Mask")),
		GridTemplate:    os.ExpandEnv(cfg.GetString("GFED.GridTemplate")),
		SectorMapping:   t.GFEDSectors,
		SpeciesNames:    t.GFEDSpeciesNames,
		CountryMerges:   t.CountryMerges,
		ReplaceMerged:   cfg.GetBool("ReplaceMerged"),
		Workers:         cfg.GetInt("GFED.Workers"),
		Log:             logrus.StandardLogger(),
	}, nil
}
