// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package grid generates the sample points that cover a bounding box.
package grid

import (
	"iter"
	"math"

	"github.com/paulmach/orb"

	"github.com/pdiddy/places-scan/pkg/types"
)

// epsilon absorbs floating-point drift so that a boundary that is an exact
// multiple of the step is always included.
const epsilon = 1e-9

// Grid is a row-major lattice over a bounding box. Rows run south to north
// and, within a row, columns run west to east. The zero value is not usable;
// construct with New.
type Grid struct {
	bounds types.Bounds
	step   float64
	rows   int
	cols   int
}

// New returns the grid for b with the given step in degrees. The box must be
// well formed and the step positive (see types.ScanConfig.Validate).
func New(b types.Bounds, step float64) *Grid {
	return &Grid{
		bounds: b,
		step:   step,
		rows:   count(b.North-b.South, step),
		cols:   count(b.East-b.West, step),
	}
}

func count(span, step float64) int {
	return int(math.Floor(span/step+epsilon)) + 1
}

// Rows returns the number of latitude rows.
func (g *Grid) Rows() int { return g.rows }

// Cols returns the number of longitude columns.
func (g *Grid) Cols() int { return g.cols }

// Len returns the total number of points.
func (g *Grid) Len() int { return g.rows * g.cols }

// At returns the point in row i, column j.
func (g *Grid) At(i, j int) types.GridPoint {
	return types.GridPoint{
		Lat: g.bounds.South + float64(i)*g.step,
		Lng: g.bounds.West + float64(j)*g.step,
	}
}

// Points yields every grid point in row-major order. The sequence is lazy
// and can be ranged over any number of times.
func (g *Grid) Points() iter.Seq[types.GridPoint] {
	return func(yield func(types.GridPoint) bool) {
		for i := 0; i < g.rows; i++ {
			for j := 0; j < g.cols; j++ {
				if !yield(g.At(i, j)) {
					return
				}
			}
		}
	}
}

// MultiPoint returns the grid as an orb.MultiPoint (x = longitude).
func (g *Grid) MultiPoint() orb.MultiPoint {
	mp := make(orb.MultiPoint, 0, g.Len())
	for p := range g.Points() {
		mp = append(mp, orb.Point{p.Lng, p.Lat})
	}
	return mp
}
