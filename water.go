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

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// WaterState holds the amount of water [mm] in each layer of a profile.
// It is index-aligned with the Profile it was created for.
type WaterState struct {
	profile *Profile
	mm      []float64
}

// NewWaterState creates a water state for profile p from per-layer
// water amounts in mm.
func NewWaterState(p *Profile, mm []float64) (*WaterState, error) {
	if len(mm) != p.NumLayers() {
		return nil, fmt.Errorf("soilwat: %d initial water values for %d layers", len(mm), p.NumLayers())
	}
	w := &WaterState{profile: p, mm: make([]float64, len(mm))}
	copy(w.mm, mm)
	return w, nil
}

// NewWaterStateVolumetric creates a water state for profile p from
// per-layer volumetric water contents [mm/mm].
func NewWaterStateVolumetric(p *Profile, sw []float64) (*WaterState, error) {
	if len(sw) != p.NumLayers() {
		return nil, fmt.Errorf("soilwat: %d initial water values for %d layers", len(sw), p.NumLayers())
	}
	w := &WaterState{profile: p, mm: make([]float64, len(sw))}
	w.SetVolumetric(sw)
	return w, nil
}

// NewWaterStateAt creates a water state where every layer is at the
// named limit. Valid limits are "AirDry", "LL15", "DUL", and "SAT".
func NewWaterStateAt(p *Profile, limit string) (*WaterState, error) {
	var mm []float64
	switch strings.ToLower(limit) {
	case "airdry":
		mm = p.AirDryMM()
	case "ll15":
		mm = p.LL15MM()
	case "dul":
		mm = p.DULMM()
	case "sat":
		mm = p.SATMM()
	default:
		return nil, fmt.Errorf("soilwat: invalid initial water limit '%s'; valid options are AirDry, LL15, DUL, and SAT", limit)
	}
	return &WaterState{profile: p, mm: mm}, nil
}

// Len returns the number of layers.
func (w *WaterState) Len() int { return len(w.mm) }

// MM returns a copy of the water amount in each layer [mm].
func (w *WaterState) MM() []float64 {
	o := make([]float64, len(w.mm))
	copy(o, w.mm)
	return o
}

// Volumetric returns the volumetric water content of each layer [mm/mm].
func (w *WaterState) Volumetric() []float64 {
	o := make([]float64, len(w.mm))
	for i, v := range w.mm {
		o[i] = v / w.profile.layers[i].Thickness
	}
	return o
}

// SetVolumetric sets the water content from volumetric values [mm/mm].
// The absolute amounts are re-derived by multiplying by layer thickness.
func (w *WaterState) SetVolumetric(sw []float64) {
	for i, v := range sw {
		w.mm[i] = v * w.profile.layers[i].Thickness
	}
}

// Total returns the total amount of water in the profile [mm].
func (w *WaterState) Total() float64 {
	return floats.Sum(w.mm)
}
