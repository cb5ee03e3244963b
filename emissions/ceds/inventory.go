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

package ceds

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spatialmodel/histemis"
)

// DefaultNumIndex is the number of key columns (em, country, sector,
// units) in an inventory file.
const DefaultNumIndex = 4

// GasPlaceholder is replaced with the gas name in inventory file templates.
const GasPlaceholder = "[GAS]"

// ReadInventory reads a single inventory table, where the first numIndex
// columns are key columns and the rest are year columns with headers such
// as "X1750".
func ReadInventory(r io.Reader, numIndex int) (*histemis.Table, error) {
	t, err := histemis.ReadCSV(r, numIndex)
	if err != nil {
		return nil, fmt.Errorf("ceds: reading inventory: %v", err)
	}
	return t, nil
}

// ReadInventoryFile reads the inventory table in the named file.
func ReadInventoryFile(path string, numIndex int) (*histemis.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ceds: opening inventory file: %v", err)
	}
	defer f.Close()
	t, err := ReadInventory(f, numIndex)
	if err != nil {
		return nil, fmt.Errorf("%v (file %s)", err, path)
	}
	return t, nil
}

// InventoryPath returns the path of the inventory file for gas.
func InventoryPath(dir, fileTemplate, gas string) string {
	return filepath.Join(dir, strings.Replace(fileTemplate, GasPlaceholder, gas, -1))
}

// ReadGases reads the inventory file for each gas in dir and concatenates
// them into a single table. fileTemplate is the file name pattern, where
// GasPlaceholder stands for the gas name.
func ReadGases(dir, fileTemplate string, gases []string, numIndex int) (*histemis.Table, error) {
	tables := make([]*histemis.Table, len(gases))
	for i, g := range gases {
		var err error
		tables[i], err = ReadInventoryFile(InventoryPath(dir, fileTemplate, g), numIndex)
		if err != nil {
			return nil, err
		}
	}
	return histemis.Concat(tables...), nil
}
