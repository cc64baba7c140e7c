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

// Package swcon calculates saturated (gravity driven) drainage through
// a soil profile. Each day a fixed fraction of the water above the
// drained upper limit drains out of each layer into the layer below.
package swcon

import (
	"fmt"

	"github.com/spatialmodel/soilwat"
)

// Drainage is a saturated flow model.
type Drainage struct {
	// SWCON is the fraction [0-1] of the water above the drained upper
	// limit that drains out of each layer per day.
	SWCON []float64

	// KS is the saturated conductivity [mm/day] of each layer. If KS
	// is nil, drainage is not limited by conductivity.
	KS []float64
}

// Check returns an error if the parameters don't match the profile or
// are out of range.
func (s *Drainage) Check(p *soilwat.Profile) error {
	if len(s.SWCON) != p.NumLayers() {
		return fmt.Errorf("swcon: %d SWCON values for %d layers", len(s.SWCON), p.NumLayers())
	}
	for i, v := range s.SWCON {
		if v < 0 || v > 1 {
			return fmt.Errorf("swcon: layer %d SWCON is %g but must be in [0, 1]", i, v)
		}
	}
	if s.KS != nil {
		if len(s.KS) != p.NumLayers() {
			return fmt.Errorf("swcon: %d KS values for %d layers", len(s.KS), p.NumLayers())
		}
		for i, v := range s.KS {
			if v < 0 {
				return fmt.Errorf("swcon: layer %d KS is %g but must be >= 0", i, v)
			}
		}
	}
	return nil
}

// SaturatedFlow implements soilwat.SaturatedFlow. Water drains from the
// top of the profile downward. Water above saturation always drains
// unless conductivity prevents it; any layer that would still end up
// above saturation pushes its excess back up to the layer above, and
// excess at the top of the profile is returned as backedUp.
func (s *Drainage) SaturatedFlow(d *soilwat.Day) (flux []float64, backedUp float64) {
	p := d.Profile
	n := p.NumLayers()
	flux = make([]float64, n)
	sat := p.SATMM()
	dul := p.DULMM()

	var in float64
	for i := 0; i < n; i++ {
		w := d.Water[i] + in
		var out float64
		if w > dul[i] {
			out = (w - dul[i]) * s.SWCON[i]
			if w-out > sat[i] {
				out = w - sat[i]
			}
			if s.KS != nil && out > s.KS[i] {
				out = s.KS[i]
			}
		}
		flux[i] = out
		in = out
	}

	// Push water that doesn't fit back up the profile.
	for i := n - 1; i > 0; i-- {
		w := d.Water[i] + flux[i-1] - flux[i]
		if excess := w - sat[i]; excess > 0 {
			if excess > flux[i-1] {
				excess = flux[i-1]
			}
			flux[i-1] -= excess
		}
	}
	if excess := d.Water[0] - flux[0] - sat[0]; excess > 0 {
		backedUp = excess
	}
	return flux, backedUp
}
