package types

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// Bounds is a latitude/longitude bounding box in degrees.
type Bounds struct {
	North float64 `json:"north" yaml:"north"`
	South float64 `json:"south" yaml:"south"`
	East  float64 `json:"east" yaml:"east"`
	West  float64 `json:"west" yaml:"west"`
}

// Validate reports whether the box is well formed.
func (b Bounds) Validate() error {
	if b.South > b.North {
		return fmt.Errorf("bounds: south %v is north of north %v", b.South, b.North)
	}
	if b.West > b.East {
		return fmt.Errorf("bounds: west %v is east of east %v", b.West, b.East)
	}
	if b.South < -90 || b.North > 90 {
		return fmt.Errorf("bounds: latitude out of range [%v, %v]", b.South, b.North)
	}
	if b.West < -180 || b.East > 180 {
		return fmt.Errorf("bounds: longitude out of range [%v, %v]", b.West, b.East)
	}
	return nil
}

// Bound converts the box to an orb.Bound (x = longitude, y = latitude).
func (b Bounds) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.West, b.South},
		Max: orb.Point{b.East, b.North},
	}
}

// MinCoverageRadius returns the smallest search radius, in meters, for which
// circles centred on a grid of the given step leave no gaps: the distance
// from a grid point to the centre of its cell. Longitude degrees are widest
// nearest the equator, so the distance is measured at that edge of the box.
func (b Bounds) MinCoverageRadius(step float64) float64 {
	lat := b.South
	if math.Abs(b.North) < math.Abs(b.South) {
		lat = b.North
	}
	if b.South <= 0 && b.North >= 0 {
		lat = 0
	}
	corner := orb.Point{b.West, lat}
	centre := orb.Point{b.West + step/2, lat + step/2}
	return geo.Distance(corner, centre)
}
