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

// Package watertable calculates the depth to the water table in a soil
// profile.
package watertable

import (
	"fmt"

	"github.com/spatialmodel/soilwat"
)

// DefaultThreshold is the default saturated fraction above which a
// layer is considered saturated.
const DefaultThreshold = 0.999

// Depth is a water table model. The water table is at the top of the
// uppermost saturated layer, raised by the saturated fraction of the
// layer above it.
type Depth struct {
	// Threshold is the fraction of the way between DUL and SAT
	// at which a layer is considered saturated. If zero, DefaultThreshold
	// is used.
	Threshold float64
}

// Check returns an error if the parameters are out of range.
func (w *Depth) Check() error {
	if w.Threshold < 0 || w.Threshold > 1 {
		return fmt.Errorf("watertable: Threshold is %g but must be in [0, 1]", w.Threshold)
	}
	return nil
}

// saturatedFraction returns the fraction of the way between DUL and SAT
// of the water in layer i.
func saturatedFraction(d *soilwat.Day, i int) float64 {
	l := d.Profile.Layer(i)
	dul, sat := l.DUL*l.Thickness, l.SAT*l.Thickness
	return (d.Water[i] - dul) / (sat - dul)
}

// WaterTableDepth implements soilwat.WaterTable.
func (w *Depth) WaterTableDepth(d *soilwat.Day) float64 {
	threshold := w.Threshold
	if threshold == 0 {
		threshold = DefaultThreshold
	}
	var top float64 // depth to the top of layer i
	for i := 0; i < d.Profile.NumLayers(); i++ {
		if saturatedFraction(d, i) >= threshold {
			if i == 0 {
				return 0
			}
			if f := saturatedFraction(d, i-1); f > 0 {
				return top - f*d.Profile.Layer(i-1).Thickness
			}
			return top
		}
		top += d.Profile.Layer(i).Thickness
	}
	return soilwat.NoWaterTable
}
