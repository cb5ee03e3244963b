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

	"github.com/ctessum/cdf"
	"github.com/ctessum/geom"
	"github.com/ctessum/sparse"
)

// EarthRadius is the radius of the spherical earth used for grid cell
// areas [m].
const EarthRadius = 6.371e6

// Grid is a regular or irregular rectilinear latitude-longitude grid,
// defined by its cell center coordinates in degrees.
type Grid struct {
	Lat, Lon []float64
}

// Ny returns the number of latitude rows.
func (g *Grid) Ny() int { return len(g.Lat) }

// Nx returns the number of longitude columns.
func (g *Grid) Nx() int { return len(g.Lon) }

// Equal returns whether g and o have identical coordinates.
func (g *Grid) Equal(o *Grid) bool {
	if len(g.Lat) != len(o.Lat) || len(g.Lon) != len(o.Lon) {
		return false
	}
	for i, v := range g.Lat {
		if o.Lat[i] != v {
			return false
		}
	}
	for i, v := range g.Lon {
		if o.Lon[i] != v {
			return false
		}
	}
	return true
}

// cellEdges returns the n+1 edges of the cells with the given centers.
// Interior edges are midway between centers and the outer edges are
// half a spacing beyond the outermost centers.
func cellEdges(centers []float64) []float64 {
	n := len(centers)
	e := make([]float64, n+1)
	if n == 1 {
		e[0], e[1] = centers[0]-0.5, centers[0]+0.5
		return e
	}
	for i := 1; i < n; i++ {
		e[i] = (centers[i-1] + centers[i]) / 2
	}
	e[0] = centers[0] - (e[1] - centers[0])
	e[n] = centers[n-1] + (centers[n-1] - e[n-1])
	return e
}

func clampLat(v float64) float64 {
	return math.Max(-90, math.Min(90, v))
}

// CellBounds returns the bounds of the cell in row i and column j,
// in degrees.
func (g *Grid) CellBounds(i, j int) *geom.Bounds {
	latE := cellEdges(g.Lat)
	lonE := cellEdges(g.Lon)
	return cellBounds(latE, lonE, i, j)
}

func cellBounds(latE, lonE []float64, i, j int) *geom.Bounds {
	b := geom.NewBoundsPoint(geom.Point{X: lonE[j], Y: clampLat(latE[i])})
	b.Extend(geom.NewBoundsPoint(geom.Point{X: lonE[j+1], Y: clampLat(latE[i+1])}))
	return b
}

// CellArea returns the area of each cell in grid g [m²], assuming
// a spherical earth.
func CellArea(g *Grid) *sparse.DenseArray {
	latE := cellEdges(g.Lat)
	lonE := cellEdges(g.Lon)
	o := sparse.ZerosDense(g.Ny(), g.Nx())
	const deg2rad = math.Pi / 180
	for i := 0; i < g.Ny(); i++ {
		s := math.Abs(math.Sin(clampLat(latE[i])*deg2rad) - math.Sin(clampLat(latE[i+1])*deg2rad))
		for j := 0; j < g.Nx(); j++ {
			dLon := math.Abs(lonE[j+1]-lonE[j]) * deg2rad
			o.Set(EarthRadius*EarthRadius*dLon*s, i, j)
		}
	}
	return o
}

// readFloatVar reads a floating point variable from a NetCDF file.
// Fill values are returned as NaN.
func readFloatVar(nc *cdf.File, v string) ([]float64, error) {
	if nc.Header.Lengths(v) == nil {
		return nil, fmt.Errorf("variable %s not in file", v)
	}
	r := nc.Reader(v, nil, nil)
	dataI := r.Zero(-1)
	if _, err := r.Read(dataI); err != nil {
		return nil, err
	}
	var data []float64
	switch d := dataI.(type) {
	case []float64:
		data = d
	case []float32:
		data = make([]float64, len(d))
		for i, v := range d {
			data[i] = float64(v)
		}
	default:
		return nil, fmt.Errorf("variable %s has type %T; it must be floating point", v, dataI)
	}

	noDataI := nc.Header.GetAttribute(v, "_FillValue")
	if noDataI != nil {
		var noData float64
		switch nd := noDataI.(type) {
		case []float32:
			noData = float64(nd[0])
		case []float64:
			noData = nd[0]
		default:
			return nil, fmt.Errorf("invalid type for FillValue: %T", noDataI)
		}
		for i, d := range data {
			if d == noData {
				data[i] = math.NaN()
			}
		}
	}
	return data, nil
}

// readField reads a latitude-longitude field. Missing values are
// treated as zero.
func readField(nc *cdf.File, v string, g *Grid) (*sparse.DenseArray, error) {
	dims := nc.Header.Lengths(v)
	if len(dims) != 2 || dims[0] != g.Ny() || dims[1] != g.Nx() {
		return nil, fmt.Errorf("variable %s has shape %v; want [%d %d]", v, dims, g.Ny(), g.Nx())
	}
	data, err := readFloatVar(nc, v)
	if err != nil {
		return nil, err
	}
	for i, d := range data {
		if math.IsNaN(d) {
			data[i] = 0
		}
	}
	o := sparse.ZerosDense(g.Ny(), g.Nx())
	o.Elements = data
	return o, nil
}

// readGrid reads the grid coordinates from a NetCDF file. The "lat" and
// "lon" variables may either be one-dimensional or two-dimensional
// (lat, lon) arrays, in which case the first column of lat and the first
// row of lon are used.
func readGrid(nc *cdf.File) (*Grid, error) {
	lat, err := readFloatVar(nc, "lat")
	if err != nil {
		return nil, fmt.Errorf("reading latitude: %v", err)
	}
	lon, err := readFloatVar(nc, "lon")
	if err != nil {
		return nil, fmt.Errorf("reading longitude: %v", err)
	}
	latDims := nc.Header.Lengths("lat")
	lonDims := nc.Header.Lengths("lon")
	switch {
	case len(latDims) == 1 && len(lonDims) == 1:
		return &Grid{Lat: lat, Lon: lon}, nil
	case len(latDims) == 2 && len(lonDims) == 2:
		ny, nx := latDims[0], latDims[1]
		if lonDims[0] != ny || lonDims[1] != nx {
			return nil, fmt.Errorf("lat shape %v does not match lon shape %v", latDims, lonDims)
		}
		g := &Grid{Lat: make([]float64, ny), Lon: make([]float64, nx)}
		for i := 0; i < ny; i++ {
			g.Lat[i] = lat[i*nx]
		}
		copy(g.Lon, lon[:nx])
		return g, nil
	default:
		return nil, fmt.Errorf("unsupported coordinate shapes lat %v, lon %v", latDims, lonDims)
	}
}

// ReadTemplateGrid reads the latitude and longitude coordinates of
// the named NetCDF file.
func ReadTemplateGrid(file string) (*Grid, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("gfed: opening grid template: %v", err)
	}
	defer f.Close()
	nc, err := cdf.Open(f)
	if err != nil {
		return nil, fmt.Errorf("gfed: opening grid template %s: %v", file, err)
	}
	g, err := readGrid(nc)
	if err != nil {
		return nil, fmt.Errorf("gfed: grid template %s: %v", file, err)
	}
	return g, nil
}

// axisWeights holds linear interpolation weights from a source axis to
// a destination axis: v = (1-w)*src[i0] + w*src[i1].
type axisWeights struct {
	i0, i1 []int
	w      []float64
}

// interpWeights calculates linear interpolation weights from src
// to dst. src must be monotonic. Destination points outside the range
// of src take the value of the nearest edge.
func interpWeights(src, dst []float64) axisWeights {
	n := len(src)
	o := axisWeights{i0: make([]int, len(dst)), i1: make([]int, len(dst)), w: make([]float64, len(dst))}
	if n == 0 {
		return o
	}
	descending := n > 1 && src[0] > src[n-1]
	asc := src
	if descending {
		asc = make([]float64, n)
		for i, v := range src {
			asc[n-1-i] = v
		}
	}
	for k, x := range dst {
		var i0, i1 int
		var w float64
		switch {
		case x <= asc[0]:
		case x >= asc[n-1]:
			i0, i1 = n-1, n-1
		default:
			j := sort.SearchFloat64s(asc, x)
			if asc[j] == x {
				i0, i1 = j, j
			} else {
				i0, i1 = j-1, j
				w = (x - asc[i0]) / (asc[i1] - asc[i0])
			}
		}
		if descending {
			i0, i1 = n-1-i0, n-1-i1
		}
		o.i0[k], o.i1[k], o.w[k] = i0, i1, w
	}
	return o
}

// Regridder bilinearly interpolates fields from one grid to another.
type Regridder struct {
	from, to *Grid
	lat, lon axisWeights
}

// NewRegridder returns a regridder from grid from to grid to.
func NewRegridder(from, to *Grid) *Regridder {
	return &Regridder{
		from: from,
		to:   to,
		lat:  interpWeights(from.Lat, to.Lat),
		lon:  interpWeights(from.Lon, to.Lon),
	}
}

// Regrid interpolates field, which must be on the source grid,
// onto the destination grid.
func (r *Regridder) Regrid(field *sparse.DenseArray) *sparse.DenseArray {
	if r.from.Equal(r.to) {
		return field.Copy()
	}
	o := sparse.ZerosDense(r.to.Ny(), r.to.Nx())
	nx := r.from.Nx()
	e := field.Elements
	for i := range r.lat.w {
		a0, a1, wi := r.lat.i0[i]*nx, r.lat.i1[i]*nx, r.lat.w[i]
		for j := range r.lon.w {
			b0, b1, wj := r.lon.i0[j], r.lon.i1[j], r.lon.w[j]
			v := (1-wi)*((1-wj)*e[a0+b0]+wj*e[a0+b1]) + wi*((1-wj)*e[a1+b0]+wj*e[a1+b1])
			o.Elements[i*r.to.Nx()+j] = v
		}
	}
	return o
}

// Regrid bilinearly interpolates field from grid from to grid to.
func Regrid(field *sparse.DenseArray, from, to *Grid) *sparse.DenseArray {
	return NewRegridder(from, to).Regrid(field)
}
