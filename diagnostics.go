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
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/sirupsen/logrus"
)

// Diagnostics lists the input values that were excluded from a
// harmonized output.
type Diagnostics struct {
	// Unmapped holds categorical values (for example source sectors)
	// that have no harmonized counterpart, keyed by category name.
	Unmapped map[string][]string

	// DroppedUnits holds the series that were removed because their unit
	// did not match the desired unit for their species.
	DroppedUnits []SeriesKey

	seen map[string]map[string]bool
}

// NewDiagnostics returns an empty diagnostics listing.
func NewDiagnostics() *Diagnostics {
	return &Diagnostics{Unmapped: make(map[string][]string)}
}

// AddUnmapped records value as an unmapped member of category. Repeated
// values are recorded once, in the order they were first seen.
func (d *Diagnostics) AddUnmapped(category, value string) {
	if d.seen == nil {
		d.seen = make(map[string]map[string]bool)
	}
	if d.Unmapped == nil {
		d.Unmapped = make(map[string][]string)
	}
	c, ok := d.seen[category]
	if !ok {
		c = make(map[string]bool)
		d.seen[category] = c
	}
	if c[value] {
		return
	}
	c[value] = true
	d.Unmapped[category] = append(d.Unmapped[category], value)
}

// Empty returns whether nothing was excluded.
func (d *Diagnostics) Empty() bool {
	return len(d.Unmapped) == 0 && len(d.DroppedUnits) == 0
}

// Table renders the diagnostics as a human-readable table.
func (d *Diagnostics) Table() string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"reason", "category", "value"})
	cats := make([]string, 0, len(d.Unmapped))
	for c := range d.Unmapped {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	for _, c := range cats {
		values := append([]string(nil), d.Unmapped[c]...)
		sort.Strings(values)
		for _, v := range values {
			tw.AppendRow(table.Row{"unmapped", c, v})
		}
	}
	for _, k := range d.DroppedUnits {
		tw.AppendRow(table.Row{"unit", k.Species, k.Unit})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 3, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

// Log writes the diagnostics to log as a warning.
func (d *Diagnostics) Log(log logrus.FieldLogger) {
	if d.Empty() {
		return
	}
	n := len(d.DroppedUnits)
	for _, v := range d.Unmapped {
		n += len(v)
	}
	log.WithFields(logrus.Fields{
		"excluded": n,
	}).Warnf("values excluded from output:\n%s", d.Table())
}
