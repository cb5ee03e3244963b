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

	"github.com/BurntSushi/toml"
	"github.com/spatialmodel/histemis"
	"github.com/spatialmodel/histemis/emissions/gfed"
)

// Tables holds the static lookup tables used by the pipelines.
type Tables struct {
	// CountryMerges maps combined region codes to their constituent
	// country codes.
	CountryMerges histemis.CountryMerges

	// CEDSUnits gives the desired output unit for each CEDS gas. If it
	// is nil, the unit of each gas is "Mt <gas>/yr".
	CEDSUnits map[string]string

	// GFEDSectors maps GFED source sectors to harmonized sectors.
	GFEDSectors map[string]string

	// GFEDSpeciesNames maps GFED species to their output names.
	GFEDSpeciesNames map[string]string
}

// DefaultTables returns the built-in static tables.
func DefaultTables() *Tables {
	return &Tables{
		CountryMerges:    histemis.DefaultCountryMerges(),
		GFEDSectors:      gfed.DefaultSectorMapping(),
		GFEDSpeciesNames: gfed.DefaultSpeciesNames(),
	}
}

// ReadTables reads static tables from a TOML file, for example:
//
//	[CountryMerges]
//	isr_pse = ["isr", "pse"]
//
//	[GFEDSectors]
//	AGRI = "Agricultural Waste Burning"
//
// Tables that are present in the file replace the corresponding default
// table; the others keep their default values.
func ReadTables(file string) (*Tables, error) {
	f := new(Tables)
	md, err := toml.DecodeFile(file, f)
	if err != nil {
		return nil, fmt.Errorf("histemis: reading static tables: %v", err)
	}
	if u := md.Undecoded(); len(u) > 0 {
		return nil, fmt.Errorf("histemis: unknown static tables in %s: %v", file, u)
	}
	t := DefaultTables()
	if md.IsDefined("CountryMerges") {
		t.CountryMerges = f.CountryMerges
	}
	if md.IsDefined("CEDSUnits") {
		t.CEDSUnits = f.CEDSUnits
	}
	if md.IsDefined("GFEDSectors") {
		t.GFEDSectors = f.GFEDSectors
	}
	if md.IsDefined("GFEDSpeciesNames") {
		t.GFEDSpeciesNames = f.GFEDSpeciesNames
	}
	return t, nil
}
