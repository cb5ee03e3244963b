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

package histemis

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"
)

// Column is a key column in a wide emissions table.
type Column struct {
	Name string
	Get  func(SeriesKey) string
	Set  func(*SeriesKey, string)
}

var (
	speciesCol = func(name string) Column {
		return Column{Name: name,
			Get: func(k SeriesKey) string { return k.Species },
			Set: func(k *SeriesKey, v string) { k.Species = v }}
	}
	countryCol = func(name string) Column {
		return Column{Name: name,
			Get: func(k SeriesKey) string { return k.Country },
			Set: func(k *SeriesKey, v string) { k.Country = v }}
	}
	sectorCol = Column{Name: "sector",
		Get: func(k SeriesKey) string { return k.Sector },
		Set: func(k *SeriesKey, v string) { k.Sector = v }}
	unitCol = func(name string) Column {
		return Column{Name: name,
			Get: func(k SeriesKey) string { return k.Unit },
			Set: func(k *SeriesKey, v string) { k.Unit = v }}
	}
	modelCol = Column{Name: "model",
		Get: func(k SeriesKey) string { return k.Model },
		Set: func(k *SeriesKey, v string) { k.Model = v }}
	scenarioCol = Column{Name: "scenario",
		Get: func(k SeriesKey) string { return k.Scenario },
		Set: func(k *SeriesKey, v string) { k.Scenario = v }}
	variableCol = Column{Name: "variable",
		Get: func(k SeriesKey) string { return k.Variable },
		Set: func(k *SeriesKey, v string) { k.Variable = v }}
)

// InventoryColumns are the key columns of harmonized inventory output.
var InventoryColumns = []Column{speciesCol("gas"), countryCol("country"), sectorCol, unitCol("unit")}

// IAMCColumns are the key columns of IAMC-style output.
var IAMCColumns = []Column{modelCol, scenarioCol, countryCol("country"), variableCol, unitCol("unit")}

// columnByName returns the key column matching a table header.
func columnByName(name string) (Column, bool) {
	switch n := strings.ToLower(strings.TrimSpace(name)); n {
	case "em", "gas", "species":
		return speciesCol(n), true
	case "country", "region", "iso":
		return countryCol(n), true
	case "sector":
		return sectorCol, true
	case "units", "unit":
		return unitCol(n), true
	case "model":
		return modelCol, true
	case "scenario":
		return scenarioCol, true
	case "variable":
		return variableCol, true
	}
	return Column{}, false
}

// ParseYear converts a year column header such as "X1750" or "1750" into
// an integer year.
func ParseYear(h string) (int, error) {
	ys := strings.TrimLeftFunc(strings.TrimSpace(h), func(r rune) bool { return !unicode.IsDigit(r) })
	y, err := strconv.Atoi(ys)
	if err != nil {
		return 0, fmt.Errorf("histemis: invalid year column header %q", h)
	}
	return y, nil
}

// ReadCSV reads a wide emissions table where the first numIndex columns
// are key columns identified by their header names and the remaining
// columns hold one year each. Empty value cells are skipped.
func ReadCSV(f io.Reader, numIndex int) (*Table, error) {
	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("histemis: reading CSV header: %v", err)
	}
	if len(header) < numIndex {
		return nil, fmt.Errorf("histemis: CSV has %d columns but %d index columns were requested", len(header), numIndex)
	}
	keyCols := make([]Column, numIndex)
	for i, h := range header[:numIndex] {
		c, ok := columnByName(h)
		if !ok {
			return nil, fmt.Errorf("histemis: unknown index column %q", h)
		}
		keyCols[i] = c
	}
	years := make([]int, len(header)-numIndex)
	for i, h := range header[numIndex:] {
		if years[i], err = ParseYear(h); err != nil {
			return nil, err
		}
	}
	t := NewTable()
	line := 1
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("histemis: reading CSV: %v", err)
		}
		line++
		var k SeriesKey
		for i, c := range keyCols {
			c.Set(&k, strings.TrimSpace(rec[i]))
		}
		for i, vs := range rec[numIndex:] {
			vs = strings.TrimSpace(vs)
			if vs == "" {
				continue
			}
			v, err := strconv.ParseFloat(vs, 64)
			if err != nil {
				return nil, fmt.Errorf("histemis: line %d, year %d: invalid value %q", line, years[i], vs)
			}
			t.Add(k, years[i], v)
		}
	}
	return t, nil
}

// WriteCSV writes t as a wide table with the given key columns followed
// by one column per year. Missing values are left empty.
func WriteCSV(f io.Writer, t *Table, cols []Column) error {
	w := csv.NewWriter(f)
	years := t.Years()
	header := make([]string, 0, len(cols)+len(years))
	for _, c := range cols {
		header = append(header, c.Name)
	}
	for _, y := range years {
		header = append(header, strconv.Itoa(y))
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("histemis: writing CSV: %v", err)
	}
	for _, k := range t.keys {
		row := make([]string, 0, len(header))
		for _, c := range cols {
			row = append(row, c.Get(k))
		}
		s := t.data[k]
		for _, y := range years {
			if v, ok := s[y]; ok {
				row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
			} else {
				row = append(row, "")
			}
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("histemis: writing CSV: %v", err)
		}
	}
	w.Flush()
	return w.Error()
}

// WriteCSVFile writes t to the named file, creating its directory
// if necessary.
func WriteCSVFile(path string, t *Table, cols []Column) error {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return fmt.Errorf("histemis: creating output directory: %v", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("histemis: creating output file: %v", err)
	}
	if err := WriteCSV(f, t, cols); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
