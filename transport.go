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

package soilwat

// ShiftDown applies a downward flux to state in place. flux[i] is the
// amount moving from layer i into layer i+1; flux at the last index
// leaves the bottom of the profile.
func ShiftDown(state, flux []float64) {
	state[0] -= flux[0]
	for i := 1; i < len(state); i++ {
		state[i] += flux[i-1] - flux[i]
	}
}

// ShiftUp applies an upward flow to state in place. flow[i] is the
// amount moving into layer i from layer i+1; flow at the last index
// enters the profile from below. ShiftUp is the inverse of ShiftDown.
func ShiftUp(state, flow []float64) {
	state[0] += flow[0]
	for i := 1; i < len(state); i++ {
		state[i] += flow[i] - flow[i-1]
	}
}

// SoluteFluxDown returns the downward flux of a dissolved solute
// [kg/ha] out of each layer, given the solute mass in each layer,
// the water in each layer [mm], the downward water flux [mm], and the
// fraction of solute that moves with the water. The calculation runs
// from the surface downward, and solute leaving a layer is mixed
// with the solute of the layer below before that layer's flux is
// calculated.
func SoluteFluxDown(solute, water, flux []float64, efficiency float64) []float64 {
	out := make([]float64, len(solute))
	var in float64
	for i := range solute {
		w := water[i] + flux[i]
		if w > 0 {
			out[i] = efficiency * flux[i] * (solute[i] + in) / w
		}
		in = out[i]
	}
	return out
}

// SoluteFluxUp returns the upward flux of a dissolved solute [kg/ha]
// into each layer from the layer below it, given the solute mass in
// each layer, the water in each layer [mm], the upward water flow [mm],
// and the fraction of solute that moves with the water. The
// calculation runs from the bottom upward. The top layer has no
// inflow term.
func SoluteFluxUp(solute, water, flow []float64, efficiency float64) []float64 {
	n := len(solute)
	in := make([]float64, n)
	last := n - 1
	if last == 0 {
		return in
	}
	if w := water[last] - flow[last]; w > 0 {
		in[last] = efficiency * flow[last] * solute[last] / w
	}
	for i := last - 1; i > 0; i-- {
		if total := water[i] + flow[i] - flow[i-1]; total > 0 {
			in[i] = efficiency * flow[i] * solute[i] / total
		}
	}
	return in
}
