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

	"github.com/spatialmodel/soilwat/internal/hash"
)

// particleDensity is the density of mineral soil particles [g/cm³].
const particleDensity = 2.65

// Layer holds the physical limits of a single soil layer.
type Layer struct {
	Thickness float64 `desc:"Layer thickness" units:"mm"`
	AirDry    float64 `desc:"Air-dry water content" units:"mm/mm"`
	LL15      float64 `desc:"Lower limit (15 bar)" units:"mm/mm"`
	DUL       float64 `desc:"Drained upper limit" units:"mm/mm"`
	SAT       float64 `desc:"Saturated water content" units:"mm/mm"`
	BD        float64 `desc:"Bulk density" units:"g/cm³"`
}

// MaxPorosity returns the largest saturated water content that is
// physically possible given the bulk density of the layer.
func (l Layer) MaxPorosity() float64 {
	return 1 - l.BD/particleDensity
}

// Profile is an ordered set of soil layers, from the surface
// downward. The index of a layer in the profile is its identity.
// A Profile is not modified after it is created.
type Profile struct {
	layers []Layer
	depth  []float64 // cumulative depth to the bottom of each layer [mm]
}

// NewProfile creates a new profile from the given layers,
// which must be ordered from the surface downward. The layers
// are copied. Physical consistency of the layers is checked
// separately by Validate.
func NewProfile(layers ...Layer) (*Profile, error) {
	if len(layers) == 0 {
		return nil, fmt.Errorf("soilwat: a profile must have at least one layer")
	}
	p := &Profile{
		layers: make([]Layer, len(layers)),
		depth:  make([]float64, len(layers)),
	}
	copy(p.layers, layers)
	var z float64
	for i, l := range p.layers {
		if !(l.Thickness > 0) {
			return nil, fmt.Errorf("soilwat: layer %d thickness is %g but must be > 0", i, l.Thickness)
		}
		z += l.Thickness
		p.depth[i] = z
	}
	return p, nil
}

// NumLayers returns the number of layers in the profile.
func (p *Profile) NumLayers() int { return len(p.layers) }

// Layer returns the layer at index i.
func (p *Profile) Layer(i int) Layer { return p.layers[i] }

// Layers returns a copy of the layers in the profile.
func (p *Profile) Layers() []Layer {
	o := make([]Layer, len(p.layers))
	copy(o, p.layers)
	return o
}

// Thickness returns the thickness of each layer [mm].
func (p *Profile) Thickness() []float64 {
	o := make([]float64, len(p.layers))
	for i, l := range p.layers {
		o[i] = l.Thickness
	}
	return o
}

// Depth returns the total depth of the profile [mm].
func (p *Profile) Depth() float64 { return p.depth[len(p.depth)-1] }

// LayerAtDepth returns the index of the first layer whose cumulative
// thickness is at least depth [mm]. Depths below the bottom of the
// profile return the bottom layer.
func (p *Profile) LayerAtDepth(depth float64) int {
	for i, z := range p.depth {
		if z >= depth {
			return i
		}
	}
	return len(p.depth) - 1
}

// limit returns the water amount [mm] in every layer for the
// given volumetric limit.
func (p *Profile) limit(f func(Layer) float64) []float64 {
	o := make([]float64, len(p.layers))
	for i, l := range p.layers {
		o[i] = f(l) * l.Thickness
	}
	return o
}

// AirDryMM returns the air-dry water amount in each layer [mm].
func (p *Profile) AirDryMM() []float64 { return p.limit(func(l Layer) float64 { return l.AirDry }) }

// LL15MM returns the lower limit water amount in each layer [mm].
func (p *Profile) LL15MM() []float64 { return p.limit(func(l Layer) float64 { return l.LL15 }) }

// DULMM returns the drained upper limit water amount in each layer [mm].
func (p *Profile) DULMM() []float64 { return p.limit(func(l Layer) float64 { return l.DUL }) }

// SATMM returns the saturated water amount in each layer [mm].
func (p *Profile) SATMM() []float64 { return p.limit(func(l Layer) float64 { return l.SAT }) }

// Hash returns a key that identifies the physical properties of the profile.
func (p *Profile) Hash() string {
	return hash.Hash(p.layers)
}
