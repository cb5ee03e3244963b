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
	"sort"
	"strings"

	"github.com/spatialmodel/histemis/internal/excel"
	"golang.org/x/text/unicode/norm"
)

// Crosswalk maps source sector codes to harmonized sector names.
type Crosswalk struct {
	m map[string]string

	// Unmapped holds the source codes that appeared in the crosswalk
	// without a harmonized sector.
	Unmapped []string
}

// normalizeKey trims and NFC-normalizes a crosswalk entry so that
// visually identical codes compare equal.
func normalizeKey(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// NewCrosswalk creates a crosswalk from (source, harmonized) pairs.
// Duplicate pairs are collapsed and pairs without a harmonized sector
// are dropped. It is an error for a source code to map to more than one
// harmonized sector.
func NewCrosswalk(pairs [][2]string) (*Crosswalk, error) {
	c := &Crosswalk{m: make(map[string]string)}
	unmapped := make(map[string]bool)
	for _, p := range pairs {
		src, dst := normalizeKey(p[0]), normalizeKey(p[1])
		if src == "" {
			continue
		}
		if dst == "" {
			unmapped[src] = true
			continue
		}
		if have, ok := c.m[src]; ok && have != dst {
			return nil, fmt.Errorf("ceds: source sector %q maps to both %q and %q", src, have, dst)
		}
		c.m[src] = dst
	}
	for src := range unmapped {
		if _, ok := c.m[src]; !ok {
			c.Unmapped = append(c.Unmapped, src)
		}
	}
	sort.Strings(c.Unmapped)
	return c, nil
}

// ReadCrosswalk reads a crosswalk from the given sheet of a Microsoft
// Excel file, where sourceColumn and harmonizedColumn are the header names
// of the columns holding source codes and harmonized sectors.
func ReadCrosswalk(file, sheet, sourceColumn, harmonizedColumn string) (*Crosswalk, error) {
	s, err := excel.Sheet(file, sheet)
	if err != nil {
		return nil, fmt.Errorf("ceds: reading sector crosswalk: %v", err)
	}
	cols, err := excel.Columns(s, sourceColumn, harmonizedColumn)
	if err != nil {
		return nil, fmt.Errorf("ceds: reading sector crosswalk: %v", err)
	}
	src := excel.TextColumn(s, cols[0], 1, -1)
	dst := excel.TextColumn(s, cols[1], 1, -1)
	pairs := make([][2]string, len(src))
	for i := range src {
		pairs[i] = [2]string{src[i], dst[i]}
	}
	return NewCrosswalk(pairs)
}

// Map returns the harmonized sector for the given source sector, and
// whether it exists.
func (c *Crosswalk) Map(source string) (string, bool) {
	s, ok := c.m[normalizeKey(source)]
	return s, ok
}

// Sources returns the mapped source sectors in sorted order.
func (c *Crosswalk) Sources() []string {
	o := make([]string, 0, len(c.m))
	for s := range c.m {
		o = append(o, s)
	}
	sort.Strings(o)
	return o
}

// Len returns the number of mapped source sectors.
func (c *Crosswalk) Len() int { return len(c.m) }
