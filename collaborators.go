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

// NoWaterTable is the water table depth [mm] reported when there is
// no saturated zone in the profile.
const NoWaterTable = 1000000.

// Day is a read-only view of the state of a soil column part way
// through a daily time step. It is passed to each of the sub-models,
// which return fluxes but never change the water state themselves.
type Day struct {
	// Profile is the soil profile being simulated.
	Profile *Profile

	// Water is a copy of the water in each layer [mm] at the time
	// the sub-model is called.
	Water []float64

	// PotentialInfiltration is the water available at the soil
	// surface today before runoff [mm].
	PotentialInfiltration float64

	// Infiltration and Runoff are the amounts of water [mm] that
	// have entered the profile or run off so far today.
	Infiltration, Runoff float64

	// PotentialEvapotranspiration is today's potential
	// evapotranspiration [mm].
	PotentialEvapotranspiration float64

	// Cover is the fraction of the surface covered by
	// vegetation or residue [0-1].
	Cover float64

	// Runon is water flowing onto the column from upslope [mm].
	Runon float64
}

// Volumetric returns the volumetric water content of layer i [mm/mm].
func (d *Day) Volumetric(i int) float64 {
	return d.Water[i] / d.Profile.layers[i].Thickness
}

// LateralFlow calculates the water [mm] leaving each layer sideways.
// The returned slice has one value per layer.
type LateralFlow interface {
	LateralOutflow(d *Day) []float64
}

// Runoff calculates surface runoff [mm] from the potential infiltration.
type Runoff interface {
	Runoff(d *Day) float64
}

// SaturatedFlow calculates gravity driven drainage [mm] out of the bottom
// of each layer. backedUp is surface water that could not enter the
// profile today.
type SaturatedFlow interface {
	SaturatedFlow(d *Day) (flux []float64, backedUp float64)
}

// UnsaturatedFlow calculates diffusive upward flow [mm] into each layer
// from the layer below it.
type UnsaturatedFlow interface {
	UnsaturatedFlow(d *Day) []float64
}

// Evaporation calculates soil evaporation [mm], which is removed from
// the top layer.
type Evaporation interface {
	Evaporation(d *Day) float64
}

// WaterTable calculates the depth [mm] to the water table, or
// NoWaterTable if there isn't one.
type WaterTable interface {
	WaterTableDepth(d *Day) float64
}

// SolutePool holds the mass [kg/ha] of a dissolved solute in each
// layer. Write replaces the entire contents of the pool.
type SolutePool interface {
	Read() []float64
	Write([]float64)
}

// Irrigation describes one day's irrigation event.
type Irrigation struct {
	// Applied is the amount of irrigation water [mm].
	Applied float64

	// Depth is the depth [mm] at which subsurface irrigation
	// is applied.
	Depth float64

	// WillRunoff indicates that the irrigation water is applied at
	// the surface and is subject to runoff.
	WillRunoff bool
}

// LateralFlowFunc adapts a function to the LateralFlow interface.
type LateralFlowFunc func(d *Day) []float64

// LateralOutflow calls f(d).
func (f LateralFlowFunc) LateralOutflow(d *Day) []float64 { return f(d) }

// RunoffFunc adapts a function to the Runoff interface.
type RunoffFunc func(d *Day) float64

// Runoff calls f(d).
func (f RunoffFunc) Runoff(d *Day) float64 { return f(d) }

// SaturatedFlowFunc adapts a function to the SaturatedFlow interface.
type SaturatedFlowFunc func(d *Day) ([]float64, float64)

// SaturatedFlow calls f(d).
func (f SaturatedFlowFunc) SaturatedFlow(d *Day) ([]float64, float64) { return f(d) }

// UnsaturatedFlowFunc adapts a function to the UnsaturatedFlow interface.
type UnsaturatedFlowFunc func(d *Day) []float64

// UnsaturatedFlow calls f(d).
func (f UnsaturatedFlowFunc) UnsaturatedFlow(d *Day) []float64 { return f(d) }

// EvaporationFunc adapts a function to the Evaporation interface.
type EvaporationFunc func(d *Day) float64

// Evaporation calls f(d).
func (f EvaporationFunc) Evaporation(d *Day) float64 { return f(d) }

// WaterTableFunc adapts a function to the WaterTable interface.
type WaterTableFunc func(d *Day) float64

// WaterTableDepth calls f(d).
func (f WaterTableFunc) WaterTableDepth(d *Day) float64 { return f(d) }
