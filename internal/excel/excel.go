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

// Package excel reads tabular data from Microsoft Excel files.
package excel

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/ctessum/requestcache"
	"github.com/spatialmodel/histemis/internal/hash"
	"github.com/tealeg/xlsx"
)

// excelCache holds previously opened Microsoft Excel files
// to avoid reading the same file multiple times.
var excelCache *requestcache.Cache

var loadExcelCacheOnce sync.Once

// Open loads a Microsoft Excel file from disk, utilizing
// a cache to avoid loading the same file more than once.
// A file that has changed on disk since it was cached is loaded again.
func Open(fileName string) (*xlsx.File, error) {
	key, err := hash.File(fileName)
	if err != nil {
		return nil, fmt.Errorf("excel: %v", err)
	}
	loadExcelCacheOnce.Do(func() {
		excelCache = requestcache.NewCache(func(ctx context.Context, req interface{}) (interface{}, error) {
			filename := req.(string)
			f, err := xlsx.OpenFile(filename)
			if err != nil {
				return nil, fmt.Errorf("excel: opening xlsx file: %v", err)
			}
			return f, nil
		}, runtime.GOMAXPROCS(-1), requestcache.Memory(1000))
	})
	r := excelCache.NewRequest(context.Background(), fileName, key)
	fI, err := r.Result()
	if err != nil {
		return nil, err
	}
	return fI.(*xlsx.File), nil
}

// Sheet returns the named sheet from the given file. If sheet is empty,
// the first sheet in the file is returned.
func Sheet(fileName, sheet string) (*xlsx.Sheet, error) {
	f, err := Open(fileName)
	if err != nil {
		return nil, err
	}
	if sheet == "" {
		if len(f.Sheets) == 0 {
			return nil, fmt.Errorf("excel: file %s has no sheets", fileName)
		}
		return f.Sheets[0], nil
	}
	s, ok := f.Sheet[sheet]
	if !ok {
		return nil, fmt.Errorf("excel: file %s has no sheet %q", fileName, sheet)
	}
	return s, nil
}

// Columns returns the indices of the named columns in the first row of s.
func Columns(s *xlsx.Sheet, names ...string) ([]int, error) {
	idx := make(map[string]int)
	for i := 0; i < s.MaxCol; i++ {
		h := strings.TrimSpace(s.Cell(0, i).Value)
		if _, ok := idx[h]; !ok {
			idx[h] = i
		}
	}
	o := make([]int, len(names))
	for i, n := range names {
		c, ok := idx[n]
		if !ok {
			return nil, fmt.Errorf("excel: sheet %q has no column %q", s.Name, n)
		}
		o[i] = c
	}
	return o, nil
}

// TextColumn returns the trimmed contents of the given column between
// startRow (inclusive) and endRow (exclusive). An endRow less than zero
// means the last row of the sheet.
func TextColumn(s *xlsx.Sheet, column, startRow, endRow int) []string {
	if endRow < 0 {
		endRow = s.MaxRow
	}
	o := make([]string, endRow-startRow)
	for j := startRow; j < endRow; j++ {
		o[j-startRow] = strings.TrimSpace(s.Cell(j, column).Value)
	}
	return o
}

// FloatColumn returns the numeric contents of the given column between
// startRow (inclusive) and endRow (exclusive). Empty cells are returned as
// NaN. An endRow less than zero means the last row of the sheet.
func FloatColumn(s *xlsx.Sheet, column, startRow, endRow int) ([]float64, error) {
	text := TextColumn(s, column, startRow, endRow)
	o := make([]float64, len(text))
	for i, v := range text {
		if v == "" {
			o[i] = math.NaN()
			continue
		}
		var err error
		o[i], err = strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("excel: sheet %q row %d column %d: %v", s.Name, startRow+i, column, err)
		}
	}
	return o, nil
}
