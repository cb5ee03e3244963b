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

package gfed

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/ctessum/cdf"
	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/index/rtree"
	"github.com/ctessum/geom/proj"
	"github.com/ctessum/sparse"
)

const (
	maskVar   = "iso_mask"
	maskCodes = "iso"
)

// Mask holds the fraction of each grid cell that belongs to each
// country. Cells that do not belong to a country are absent from
// its layer.
type Mask struct {
	Grid   *Grid
	Codes  []string
	Layers []*sparse.SparseArray
}

// Check returns an error if the mask is not defined on grid g.
func (m *Mask) Check(g *Grid) error {
	if !m.Grid.Equal(g) {
		return fmt.Errorf("gfed: country mask grid (%d×%d) does not match the template grid (%d×%d)",
			m.Grid.Ny(), m.Grid.Nx(), g.Ny(), g.Nx())
	}
	if len(m.Codes) != len(m.Layers) {
		return fmt.Errorf("gfed: country mask has %d codes but %d layers", len(m.Codes), len(m.Layers))
	}
	return nil
}

// ReadMask reads a country mask from a NetCDF file with an
// iso_mask(iso, lat, lon) variable whose "iso" attribute lists the
// comma-separated country codes.
func ReadMask(file string) (*Mask, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("gfed: opening country mask: %v", err)
	}
	defer f.Close()
	nc, err := cdf.Open(f)
	if err != nil {
		return nil, fmt.Errorf("gfed: opening country mask %s: %v", file, err)
	}
	g, err := readGrid(nc)
	if err != nil {
		return nil, fmt.Errorf("gfed: country mask %s: %v", file, err)
	}
	codesI := nc.Header.GetAttribute(maskVar, maskCodes)
	codesS, ok := codesI.(string)
	if !ok {
		return nil, fmt.Errorf("gfed: country mask %s: variable %s is missing the %q attribute", file, maskVar, maskCodes)
	}
	codes := strings.Split(codesS, ",")
	for i, c := range codes {
		codes[i] = strings.TrimSpace(c)
	}
	dims := nc.Header.Lengths(maskVar)
	if len(dims) != 3 || dims[0] != len(codes) || dims[1] != g.Ny() || dims[2] != g.Nx() {
		return nil, fmt.Errorf("gfed: country mask %s: %s has shape %v; want [%d %d %d]",
			file, maskVar, dims, len(codes), g.Ny(), g.Nx())
	}
	data, err := readFloatVar(nc, maskVar)
	if err != nil {
		return nil, fmt.Errorf("gfed: country mask %s: %v", file, err)
	}
	m := &Mask{Grid: g, Codes: codes, Layers: make([]*sparse.SparseArray, len(codes))}
	n := g.Ny() * g.Nx()
	for k := range codes {
		l := sparse.ZerosSparse(g.Ny(), g.Nx())
		for i, v := range data[k*n : (k+1)*n] {
			if v != 0 && !math.IsNaN(v) {
				l.Elements[i] = v
			}
		}
		m.Layers[k] = l
	}
	return m, nil
}

// WriteMask writes m to a NetCDF file in the format read by ReadMask.
func WriteMask(file string, m *Mask) error {
	g := m.Grid
	h := cdf.NewHeader([]string{maskCodes, "lat", "lon"}, []int{len(m.Codes), g.Ny(), g.Nx()})
	h.AddVariable("lat", []string{"lat"}, []float64{0})
	h.AddAttribute("lat", "units", "degrees_north")
	h.AddVariable("lon", []string{"lon"}, []float64{0})
	h.AddAttribute("lon", "units", "degrees_east")
	h.AddVariable(maskVar, []string{maskCodes, "lat", "lon"}, []float64{0})
	h.AddAttribute(maskVar, maskCodes, strings.Join(m.Codes, ","))
	h.AddAttribute(maskVar, "description", "Fraction of each grid cell within each country")
	h.Define()

	ff, err := os.Create(file)
	if err != nil {
		return fmt.Errorf("gfed: creating country mask file: %v", err)
	}
	f, err := cdf.Create(ff, h)
	if err != nil {
		ff.Close()
		return fmt.Errorf("gfed: creating country mask file: %v", err)
	}
	if err := writeVar(f, "lat", g.Lat); err != nil {
		ff.Close()
		return err
	}
	if err := writeVar(f, "lon", g.Lon); err != nil {
		ff.Close()
		return err
	}
	n := g.Ny() * g.Nx()
	data := make([]float64, len(m.Codes)*n)
	for k, l := range m.Layers {
		for i, v := range l.Elements {
			data[k*n+i] = v
		}
	}
	if err := writeVar(f, maskVar, data); err != nil {
		ff.Close()
		return err
	}
	if err := cdf.UpdateNumRecs(ff); err != nil {
		ff.Close()
		return fmt.Errorf("gfed: writing country mask file: %v", err)
	}
	return ff.Close()
}

func writeVar(f *cdf.File, v string, data []float64) error {
	end := f.Header.Lengths(v)
	start := make([]int, len(end))
	w := f.Writer(v, start, end)
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("gfed: writing variable %s: %v", v, err)
	}
	return nil
}

// CountryShape is a country boundary in longitude-latitude coordinates.
type CountryShape struct {
	geom.Polygonal
	Code string
}

// RasterizeMask creates a country mask on grid g where each cell weight
// is the fraction of the cell area covered by each country's shapes.
// Fractions are computed in longitude-latitude space.
func RasterizeMask(shapes []*CountryShape, g *Grid) *Mask {
	index := rtree.NewTree(25, 50)
	codeIndex := make(map[string]int)
	var codes []string
	for _, s := range shapes {
		index.Insert(s)
		if _, ok := codeIndex[s.Code]; !ok {
			codeIndex[s.Code] = 0
			codes = append(codes, s.Code)
		}
	}
	sort.Strings(codes)
	m := &Mask{Grid: g, Codes: codes, Layers: make([]*sparse.SparseArray, len(codes))}
	for i, c := range codes {
		codeIndex[c] = i
		m.Layers[i] = sparse.ZerosSparse(g.Ny(), g.Nx())
	}
	latE := cellEdges(g.Lat)
	lonE := cellEdges(g.Lon)
	for i := 0; i < g.Ny(); i++ {
		for j := 0; j < g.Nx(); j++ {
			b := cellBounds(latE, lonE, i, j)
			cell := geom.Polygon{{
				b.Min, {X: b.Max.X, Y: b.Min.Y}, b.Max, {X: b.Min.X, Y: b.Max.Y},
			}}
			cellArea := cell.Area()
			if cellArea == 0 {
				continue
			}
			for _, sI := range index.SearchIntersect(b) {
				s := sI.(*CountryShape)
				frac := cell.Intersection(s).Area() / cellArea
				if frac == 0 {
					continue
				}
				l := m.Layers[codeIndex[s.Code]]
				l.Set(math.Min(1, l.Get(i, j)+frac), i, j)
			}
		}
	}
	return m
}

// MaskFromShapefile creates a country mask on grid g from the polygons in
// a shapefile, where field is the attribute holding the country code.
func MaskFromShapefile(file, field string, g *Grid) (*Mask, error) {
	dec, err := shp.NewDecoder(file)
	if err != nil {
		return nil, fmt.Errorf("gfed: opening country shapefile: %v", err)
	}
	defer dec.Close()
	sr, err := dec.SR()
	if err != nil {
		return nil, fmt.Errorf("gfed: reading country shapefile projection: %v", err)
	}
	lonlat, err := proj.Parse("+proj=longlat")
	if err != nil {
		panic(err)
	}
	trans, err := sr.NewTransform(lonlat)
	if err != nil {
		return nil, fmt.Errorf("gfed: country shapefile projection: %v", err)
	}
	var shapes []*CountryShape
	for {
		shape, fields, more := dec.DecodeRowFields(field)
		if !more {
			break
		}
		gg, err := shape.Transform(trans)
		if err != nil {
			return nil, fmt.Errorf("gfed: transforming country shape: %v", err)
		}
		p, ok := gg.(geom.Polygonal)
		if !ok {
			return nil, fmt.Errorf("gfed: country shapes must be polygons; got %T", gg)
		}
		shapes = append(shapes, &CountryShape{Polygonal: p, Code: strings.TrimSpace(fields[field])})
	}
	if err := dec.Error(); err != nil {
		return nil, fmt.Errorf("gfed: reading country shapefile: %v", err)
	}
	return RasterizeMask(shapes, g), nil
}
