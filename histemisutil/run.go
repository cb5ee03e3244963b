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
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/histemis"
	"github.com/spatialmodel/histemis/emissions/ceds"
	"github.com/spatialmodel/histemis/emissions/gfed"
)

// RunCEDS harmonizes the CEDS inventory described by c, logs any excluded
// inputs and writes the result to outputFile.
func RunCEDS(c *ceds.Config, outputFile string) error {
	t, diag, err := ceds.Process(c)
	if err != nil {
		return err
	}
	diag.Log(logrus.StandardLogger())
	if err := histemis.WriteCSVFile(outputFile, t, histemis.InventoryColumns); err != nil {
		return err
	}
	logrus.WithField("file", outputFile).Info("wrote harmonized CEDS inventory")
	return nil
}

// RunGFED aggregates the fire emissions archive described by c to
// countries, logs any excluded inputs and writes the result to outputFile
// in IAMC format.
func RunGFED(c *gfed.Config, outputFile string) error {
	t, diag, err := gfed.Process(c)
	if err != nil {
		return err
	}
	diag.Log(logrus.StandardLogger())
	if err := histemis.WriteCSVFile(outputFile, t, histemis.IAMCColumns); err != nil {
		return err
	}
	logrus.WithField("file", outputFile).Info("wrote national fire emissions")
	return nil
}

// CreateMask creates a country mask on the grid of templateFile from the
// country polygons in shapefile and writes it to outputFile.
func CreateMask(shapefile, codeField, templateFile, outputFile string) error {
	g, err := gfed.ReadTemplateGrid(templateFile)
	if err != nil {
		return err
	}
	m, err := gfed.MaskFromShapefile(shapefile, codeField, g)
	if err != nil {
		return err
	}
	if err := gfed.WriteMask(outputFile, m); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"file":      outputFile,
		"countries": len(m.Codes),
	}).Info("wrote country mask")
	return nil
}
