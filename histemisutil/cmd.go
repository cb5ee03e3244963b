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
	"strings"

	"github.com/lnashier/viper"
	"github.com/skratchdot/open-golang/open"
	"github.com/spatialmodel/histemis"
	"github.com/spatialmodel/histemis/emissions/ceds"
	"github.com/spatialmodel/histemis/emissions/gfed"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to histemis.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Tables",
			usage: `
              Tables is the path to a TOML file holding static lookup tables
              (CountryMerges, CEDSUnits, GFEDSectors, GFEDSpeciesNames). Tables
              present in the file replace the built-in defaults. It can include
              environment variables.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{cedsCmd.Flags(), gfedCmd.Flags()},
		},
		{
			name: "ReplaceMerged",
			usage: `
              ReplaceMerged specifies whether the constituent countries of
              combined regions (for example isr and pse for isr_pse) should be
              removed from the output. If false they are kept alongside the
              combined region.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{cedsCmd.Flags(), gfedCmd.Flags()},
		},
		{
			name: "CEDS.InventoryDir",
			usage: `
              CEDS.InventoryDir is the directory holding the CEDS inventory
              files. It can include environment variables.`,
			defaultVal: "data/national/ceds/data_raw",
			flagsets:   []*pflag.FlagSet{cedsCmd.Flags()},
		},
		{
			name: "CEDS.InventoryFile",
			usage: `
              CEDS.InventoryFile is the name of the inventory file for each gas,
              where [GAS] is replaced by the gas name.`,
			defaultVal: "[GAS]_CEDS_emissions_by_country_sector_v2024_07_08.csv",
			flagsets:   []*pflag.FlagSet{cedsCmd.Flags()},
		},
		{
			name: "CEDS.Gases",
			usage: `
              CEDS.Gases are the gases to process.`,
			defaultVal: ceds.Gases,
			flagsets:   []*pflag.FlagSet{cedsCmd.Flags()},
		},
		{
			name: "CEDS.NumIndex",
			usage: `
              CEDS.NumIndex is the number of leading identifier columns in the
              inventory files. The remaining columns hold one year each.`,
			defaultVal: ceds.DefaultNumIndex,
			flagsets:   []*pflag.FlagSet{cedsCmd.Flags()},
		},
		{
			name: "CEDS.SectorMapping",
			usage: `
              CEDS.SectorMapping is the Excel workbook mapping inventory sectors
              to harmonized sectors. It can include environment variables.`,
			defaultVal: "data/national/ceds/data_aux/sector_mapping.xlsx",
			flagsets:   []*pflag.FlagSet{cedsCmd.Flags()},
		},
		{
			name: "CEDS.SectorMappingSheet",
			usage: `
              CEDS.SectorMappingSheet is the sheet of CEDS.SectorMapping that
              holds the mapping.`,
			defaultVal: "CEDS Mapping 2024",
			flagsets:   []*pflag.FlagSet{cedsCmd.Flags()},
		},
		{
			name: "CEDS.SourceColumn",
			usage: `
              CEDS.SourceColumn is the header of the inventory sector column in
              the sector mapping sheet.`,
			defaultVal: "59_Sectors_2024",
			flagsets:   []*pflag.FlagSet{cedsCmd.Flags()},
		},
		{
			name: "CEDS.HarmonizedColumn",
			usage: `
              CEDS.HarmonizedColumn is the header of the harmonized sector column
              in the sector mapping sheet.`,
			defaultVal: "Harmonization Sectors",
			flagsets:   []*pflag.FlagSet{cedsCmd.Flags()},
		},
		{
			name: "CEDS.OutputFile",
			usage: `
              CEDS.OutputFile is the path where the harmonized inventory should
              be written. It can include environment variables.`,
			defaultVal: "data/national/ceds/processed/ceds_cmip7_alpha.csv",
			flagsets:   []*pflag.FlagSet{cedsCmd.Flags()},
		},
		{
			name: "GFED.Release",
			usage: `
              GFED.Release is the release of the fire emissions archive. It is
              used as the scenario name of the output.`,
			defaultVal: "GFED4.1s",
			flagsets:   []*pflag.FlagSet{gfedCmd.Flags()},
		},
		{
			name: "GFED.DataDir",
			usage: `
              GFED.DataDir is the directory holding the yearly archive files.
              It can include environment variables.`,
			defaultVal: "data/national/gfed/data_raw",
			flagsets:   []*pflag.FlagSet{gfedCmd.Flags()},
		},
		{
			name: "GFED.FilePattern",
			usage: `
              GFED.FilePattern is the pattern matching the archive files in
              GFED.DataDir.`,
			defaultVal: "*.nc",
			flagsets:   []*pflag.FlagSet{gfedCmd.Flags()},
		},
		{
			name: "GFED.Gases",
			usage: `
              GFED.Gases are the species to calculate emissions of.`,
			defaultVal: gfed.Gases,
			flagsets:   []*pflag.FlagSet{gfedCmd.Flags()},
		},
		{
			name: "GFED.EmissionFactors",
			usage: `
              GFED.EmissionFactors is the emission factor table, in g species
              per kg dry matter. It can include environment variables.`,
			defaultVal: "data/national/gfed/data_aux/GFED4_Emission_Factors.txt",
			flagsets:   []*pflag.FlagSet{gfedCmd.Flags()},
		},
		{
			name: "GFED.VOCSpecies",
			usage: `
              GFED.VOCSpecies is the Excel workbook holding the carbon and
              molecular weights of the individual VOC species. It can include
              environment variables.`,
			defaultVal: "data/national/gfed/data_aux/NMVOC-species.xlsx",
			flagsets:   []*pflag.FlagSet{gfedCmd.Flags()},
		},
		{
			name: "GFED.VOCUnit",
			usage: `
              GFED.VOCUnit is the unit of the VOC aggregate. Valid options are
              "kg VOC" and "kg C".`,
			defaultVal: gfed.VOCUnitMass,
			flagsets:   []*pflag.FlagSet{gfedCmd.Flags()},
		},
		{
			name: "GFED.Mask",
			usage: `
              GFED.Mask is the country mask file. The mask command writes it and
              the gfed command reads it. It can include environment variables.`,
			defaultVal: "data/national/gfed/data_aux/iso_mask.nc",
			flagsets:   []*pflag.FlagSet{gfedCmd.Flags(), maskCmd.Flags()},
		},
		{
			name: "GFED.GridTemplate",
			usage: `
              GFED.GridTemplate is a NetCDF file whose lat and lon coordinates
              define the grid that emissions are aggregated on. It can include
              environment variables.`,
			defaultVal: "data/national/gfed/data_aux/BC-em-openburning_input4MIPs_emissions_CMIP_REMIND-MAGPIE-SSP5-34-OS-V1_gn_201501-210012.nc",
			flagsets:   []*pflag.FlagSet{gfedCmd.Flags(), maskCmd.Flags()},
		},
		{
			name: "GFED.Workers",
			usage: `
              GFED.Workers is the number of countries that are aggregated
              concurrently. If less than one, the number of processors is used.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{gfedCmd.Flags()},
		},
		{
			name: "GFED.OutputFile",
			usage: `
              GFED.OutputFile is the path where the national fire emissions
              should be written. It can include environment variables.`,
			defaultVal: "data/national/gfed/processed/gfed_cmip7_national_alpha.csv",
			flagsets:   []*pflag.FlagSet{gfedCmd.Flags()},
		},
		{
			name: "Mask.Shapefile",
			usage: `
              Mask.Shapefile is the shapefile holding country boundaries. It can
              include environment variables.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{maskCmd.Flags()},
		},
		{
			name: "Mask.CodeField",
			usage: `
              Mask.CodeField is the attribute of Mask.Shapefile holding the
              country code.`,
			defaultVal: "ISO",
			flagsets:   []*pflag.FlagSet{maskCmd.Flags()},
		},
		{
			name: "Plot.InputFile",
			usage: `
              Plot.InputFile is the harmonized emissions file to plot. It can
              include environment variables.`,
			defaultVal: "data/national/ceds/processed/ceds_cmip7_alpha.csv",
			flagsets:   []*pflag.FlagSet{plotCmd.Flags()},
		},
		{
			name: "Plot.NumIndex",
			usage: `
              Plot.NumIndex is the number of leading identifier columns in
              Plot.InputFile.`,
			defaultVal: len(histemis.InventoryColumns),
			flagsets:   []*pflag.FlagSet{plotCmd.Flags()},
		},
		{
			name: "Plot.Species",
			usage: `
              Plot.Species is the species to plot.`,
			defaultVal: "CO2",
			flagsets:   []*pflag.FlagSet{plotCmd.Flags()},
		},
		{
			name: "Plot.OutputFile",
			usage: `
              Plot.OutputFile is the path of the plot image. The format is
              determined by the extension (for example .png, .svg or .pdf).`,
			defaultVal: "world.png",
			flagsets:   []*pflag.FlagSet{plotCmd.Flags()},
		},
		{
			name: "Plot.Open",
			usage: `
              Plot.Open specifies whether the plot should be opened in the
              default viewer after it is saved.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{plotCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("HISTEMIS")
	Cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(cedsCmd)
	Root.AddCommand(gfedCmd)
	Root.AddCommand(maskCmd)
	Root.AddCommand(plotCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(os.ExpandEnv(cfgpath))
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("histemis: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "histemis",
	Short: "Harmonized historical emissions.",
	Long: `histemis prepares national historical emissions from the CEDS
country-sector inventory and the GFED gridded fire emissions archive,
harmonizing their gases, sectors, countries and units.
Use the subcommands specified below to access the functionality.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'HISTEMIS_var' where 'var' is the
name of the variable to be set, with '.' replaced by '_'.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of histemis.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("histemis v%s\n", histemis.Version)
	},
	DisableAutoGenTag: true,
}

// cedsCmd is a command that harmonizes the CEDS inventory.
var cedsCmd = &cobra.Command{
	Use:   "ceds",
	Short: "Harmonize the CEDS inventory.",
	Long: `ceds reads the per-gas CEDS country-sector inventory files, maps their
sectors to harmonized sectors, converts units to Mt/yr, adds combined regions
and World totals, and writes the result.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tables, err := loadTables(Cfg)
		if err != nil {
			return err
		}
		c, err := CEDSConfig(Cfg, tables)
		if err != nil {
			return err
		}
		outputFile, err := checkOutputFile(Cfg.GetString("CEDS.OutputFile"))
		if err != nil {
			return err
		}
		return RunCEDS(c, outputFile)
	},
	DisableAutoGenTag: true,
}

// gfedCmd is a command that aggregates the GFED archive to countries.
var gfedCmd = &cobra.Command{
	Use:   "gfed",
	Short: "Aggregate GFED fire emissions to countries.",
	Long: `gfed reads the yearly GFED archive files, regrids dry matter burned to
the template grid, sums it within each country of the country mask, applies
emission factors and writes national emissions by species and sector.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tables, err := loadTables(Cfg)
		if err != nil {
			return err
		}
		c, err := GFEDConfig(Cfg, tables)
		if err != nil {
			return err
		}
		outputFile, err := checkOutputFile(Cfg.GetString("GFED.OutputFile"))
		if err != nil {
			return err
		}
		return RunGFED(c, outputFile)
	},
	DisableAutoGenTag: true,
}

// maskCmd is a command that creates a country mask.
var maskCmd = &cobra.Command{
	Use:   "mask",
	Short: "Create a country mask from a shapefile.",
	Long: `mask calculates the fraction of each cell of the template grid that is
covered by each country in a shapefile and saves the result as a country mask
for use by the gfed command.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		shapefile := os.ExpandEnv(Cfg.GetString("Mask.Shapefile"))
		if shapefile == "" {
			return fmt.Errorf("histemis: you need to specify a country shapefile (Mask.Shapefile)")
		}
		outputFile, err := checkOutputFile(Cfg.GetString("GFED.Mask"))
		if err != nil {
			return err
		}
		return CreateMask(
			shapefile,
			Cfg.GetString("Mask.CodeField"),
			os.ExpandEnv(Cfg.GetString("GFED.GridTemplate")),
			outputFile,
		)
	},
	DisableAutoGenTag: true,
}

// plotCmd is a command that plots World totals.
var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Plot World emissions totals.",
	Long: `plot reads a harmonized emissions file and plots the World total time
series of each sector of the selected species.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outputFile, err := checkOutputFile(Cfg.GetString("Plot.OutputFile"))
		if err != nil {
			return err
		}
		if err := PlotWorld(
			os.ExpandEnv(Cfg.GetString("Plot.InputFile")),
			Cfg.GetInt("Plot.NumIndex"),
			Cfg.GetString("Plot.Species"),
			outputFile,
		); err != nil {
			return err
		}
		if Cfg.GetBool("Plot.Open") {
			return open.Run(outputFile)
		}
		return nil
	},
	DisableAutoGenTag: true,
}
