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

// Package klat calculates lateral outflow of water from soil layers
// that are wetter than their drained upper limit on a sloping site.
package klat

import (
	"fmt"
	"math"

	"github.com/spatialmodel/soilwat"
)

// LateralFlow is a lateral outflow model.
type LateralFlow struct {
	// KLAT is the lateral saturated conductivity [mm/day] of each layer.
	KLAT []float64

	Slope          float64 // slope of the site [m/m]
	DischargeWidth float64 // width of the downslope boundary of the catchment [m]
	CatchmentArea  float64 // [m²]
}

// Check returns an error if the parameters don't match the profile or
// are out of range.
func (l *LateralFlow) Check(p *soilwat.Profile) error {
	if len(l.KLAT) != p.NumLayers() {
		return fmt.Errorf("klat: %d KLAT values for %d layers", len(l.KLAT), p.NumLayers())
	}
	for i, v := range l.KLAT {
		if v < 0 {
			return fmt.Errorf("klat: layer %d KLAT is %g but must be >= 0", i, v)
		}
	}
	if l.Slope < 0 {
		return fmt.Errorf("klat: Slope is %g but must be >= 0", l.Slope)
	}
	if l.DischargeWidth < 0 {
		return fmt.Errorf("klat: DischargeWidth is %g but must be >= 0", l.DischargeWidth)
	}
	if l.CatchmentArea <= 0 {
		return fmt.Errorf("klat: CatchmentArea is %g but must be > 0", l.CatchmentArea)
	}
	return nil
}

// LateralOutflow implements soilwat.LateralFlow. Outflow from each layer
// is proportional to the layer's relative wetness between DUL and SAT
// and to the ratio of the layer's discharge cross section to the
// catchment area. It never removes more than the water above DUL.
func (l *LateralFlow) LateralOutflow(d *soilwat.Day) []float64 {
	p := d.Profile
	out := make([]float64, p.NumLayers())
	sinSlope := math.Sin(math.Atan(l.Slope))
	for i := range out {
		layer := p.Layer(i)
		dul, sat := layer.DUL*layer.Thickness, layer.SAT*layer.Thickness
		excess := d.Water[i] - dul
		if excess <= 0 {
			continue
		}
		section := l.DischargeWidth * layer.Thickness / 1000 // [m²]
		q := l.KLAT[i] * math.Min(1, excess/(sat-dul)) * sinSlope / (1 + sinSlope) * section / l.CatchmentArea
		out[i] = math.Min(q, excess)
	}
	return out
}
