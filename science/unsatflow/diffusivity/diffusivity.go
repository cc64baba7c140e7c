/*
Copyright © 2019 the SoilWat authors.
This file is part of SoilWat.

SoilWat is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

SoilWat is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with SoilWat.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package diffusivity calculates unsaturated water flow between adjacent
// soil layers as a diffusive process driven by the difference in
// plant available water content.
package diffusivity

import (
	"fmt"
	"math"

	"github.com/spatialmodel/soilwat"
)

// maxDiffusivity bounds the diffusivity [mm²/day].
const maxDiffusivity = 10000.

// Flow is an unsaturated flow model, where the diffusivity is
// D = DiffusConst · exp(DiffusSlope · θ) and θ is the average plant
// available water content [mm/mm] of two adjacent layers.
type Flow struct {
	DiffusConst float64 // [mm²/day]
	DiffusSlope float64 // [1/(mm/mm)]
}

// Check returns an error if the parameters are out of range.
func (f *Flow) Check() error {
	if f.DiffusConst < 0 {
		return fmt.Errorf("diffusivity: DiffusConst is %g but must be >= 0", f.DiffusConst)
	}
	return nil
}

// Diffusivity returns the diffusivity [mm²/day] at available water
// content theta [mm/mm].
func (f *Flow) Diffusivity(theta float64) float64 {
	return math.Max(0, math.Min(maxDiffusivity, f.DiffusConst*math.Exp(f.DiffusSlope*theta)))
}

// UnsaturatedFlow implements soilwat.UnsaturatedFlow. flow[i] is the
// water moving up into layer i from layer i+1; negative values move
// water downward. Flow between two layers is limited to half of the
// amount that would equalize their available water contents, to the
// water above air-dry in the donor layer, and to the space below
// saturation in the receiving layer. There is no flow into the bottom
// layer.
func (f *Flow) UnsaturatedFlow(d *soilwat.Day) []float64 {
	p := d.Profile
	n := p.NumLayers()
	flow := make([]float64, n)
	w := make([]float64, n)
	copy(w, d.Water)
	for i := 0; i < n-1; i++ {
		up, down := p.Layer(i), p.Layer(i+1)
		th1 := math.Max(0, w[i]-up.LL15*up.Thickness) / up.Thickness
		th2 := math.Max(0, w[i+1]-down.LL15*down.Thickness) / down.Thickness
		dz := (up.Thickness + down.Thickness) / 2
		q := f.Diffusivity((th1+th2)/2) * (th2 - th1) / dz

		half := 0.5 * math.Abs(th2-th1) * up.Thickness * down.Thickness / (up.Thickness + down.Thickness)
		if q > 0 {
			q = math.Min(q, half)
			q = math.Min(q, w[i+1]-down.AirDry*down.Thickness)
			q = math.Min(q, up.SAT*up.Thickness-w[i])
			q = math.Max(q, 0)
		} else if q < 0 {
			q = math.Max(q, -half)
			q = math.Max(q, -(w[i] - up.AirDry*up.Thickness))
			q = math.Max(q, -(down.SAT*down.Thickness - w[i+1]))
			q = math.Min(q, 0)
		}
		flow[i] = q
		w[i] += q
		w[i+1] -= q
	}
	return flow
}
