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

// Package soilwat is a daily time step water and solute transport
// model for a single layered soil profile.
//
// Each day, water is removed by lateral outflow, partitioned between
// runoff and infiltration, drained downward by saturated flow, lost to
// evaporation from the top layer, and moved upward by unsaturated flow.
// Dissolved solutes such as nitrate and ammonium move with the water.
// The physics of each of these processes is supplied by sub-models
// that satisfy the interfaces in this package; implementations are
// available in the science directory.
package soilwat

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Version gives the version number.
const Version = "0.3.0"

// Names of the solutes that are commonly registered with AddSolute.
const (
	Nitrate  = "NO3"
	Ammonium = "NH4"
)

// ErrFailed is returned by AdvanceOneDay after a previous day
// produced a physically impossible water state.
var ErrFailed = errors.New("soilwat: simulation has already failed")

// solute is a dissolved species that moves with the water.
type solute struct {
	name           string
	pool           SolutePool
	downEfficiency float64
	upEfficiency   float64
}

// SoilWater simulates the water and solute balance of a single soil
// column. Only one day may be advanced at a time. A SoilWater must
// not be shared between goroutines.
type SoilWater struct {
	profile *Profile
	water   *WaterState
	solutes []solute

	// Sub-models. A nil sub-model contributes no flux.
	LateralFlow     LateralFlow
	Runoff          Runoff
	SaturatedFlow   SaturatedFlow
	UnsaturatedFlow UnsaturatedFlow
	Evaporation     Evaporation
	WaterTable      WaterTable

	// Log receives progress and error messages. The default
	// is the logrus standard logger.
	Log logrus.FieldLogger

	day    int
	failed bool
}

// NewSoilWater creates a simulation of the given profile starting from
// the given water state. It returns an error if the profile or the
// initial water is physically impossible.
func NewSoilWater(p *Profile, initial *WaterState) (*SoilWater, error) {
	if initial.Len() != p.NumLayers() {
		return nil, fmt.Errorf("soilwat: initial water has %d layers but profile has %d", initial.Len(), p.NumLayers())
	}
	if err := Validate(p, initial); err != nil {
		return nil, err
	}
	w := &WaterState{profile: p, mm: initial.MM()}
	return &SoilWater{
		profile: p,
		water:   w,
		Log:     logrus.StandardLogger(),
	}, nil
}

// AddSolute registers a solute pool that will be transported with the
// water. downEfficiency and upEfficiency are the fractions [0-1] of the
// solute that move with downward and upward water movement.
func (s *SoilWater) AddSolute(name string, pool SolutePool, downEfficiency, upEfficiency float64) error {
	for _, sol := range s.solutes {
		if sol.name == name {
			return fmt.Errorf("soilwat: solute '%s' is already registered", name)
		}
	}
	if n := len(pool.Read()); n != s.profile.NumLayers() {
		return fmt.Errorf("soilwat: solute '%s' has %d layers but profile has %d", name, n, s.profile.NumLayers())
	}
	s.solutes = append(s.solutes, solute{
		name:           name,
		pool:           pool,
		downEfficiency: downEfficiency,
		upEfficiency:   upEfficiency,
	})
	return nil
}

// Solutes returns the names of the registered solutes, in the order
// they were added.
func (s *SoilWater) Solutes() []string {
	o := make([]string, len(s.solutes))
	for i, sol := range s.solutes {
		o[i] = sol.name
	}
	return o
}

// Profile returns the soil profile being simulated.
func (s *SoilWater) Profile() *Profile { return s.profile }

// Water returns a copy of the current water state.
func (s *SoilWater) Water() *WaterState {
	return &WaterState{profile: s.profile, mm: s.water.MM()}
}

// Failed returns whether a previous day produced an invalid water state.
func (s *SoilWater) Failed() bool { return s.failed }

// DayInputs holds the boundary conditions for one day.
type DayInputs struct {
	// PotentialInfiltration is the water reaching the soil surface
	// from rainfall [mm].
	PotentialInfiltration float64

	// PotentialEvapotranspiration is the atmospheric demand [mm].
	PotentialEvapotranspiration float64

	// Cover is the fraction of the surface covered [0-1].
	Cover float64

	// Runon is water flowing onto the column from upslope [mm]. It is
	// added to the potential infiltration.
	Runon float64

	Irrigation Irrigation
}

// DayResult holds the water and solute fluxes calculated for one day.
type DayResult struct {
	Runoff       float64 // [mm]
	Infiltration float64 // [mm]
	Drainage     float64 // water leaving the bottom of the profile [mm]
	Evaporation  float64 // [mm]
	BackedUp     float64 // surface water that could not infiltrate [mm]

	// IrrigationApplied is irrigation water added below the surface [mm].
	IrrigationApplied float64

	LateralFlow []float64 // lateral outflow from each layer [mm]
	Flux        []float64 // saturated flow out of the bottom of each layer [mm]
	Flow        []float64 // unsaturated flow into each layer from below [mm]

	WaterTableDepth float64 // [mm]

	// Leached is the mass [kg/ha] of each solute leaving the bottom
	// of the profile.
	Leached map[string]float64

	// Solutes is the mass [kg/ha] of each solute in each layer at
	// the end of the day.
	Solutes map[string][]float64

	// Water is the water in each layer at the end of the day [mm].
	Water []float64
}

// NitrateLeachedAtBottom returns the nitrate leached out of the
// bottom of the profile [kg/ha].
func (r *DayResult) NitrateLeachedAtBottom() float64 { return r.Leached[Nitrate] }

// dayView returns a view of the current state for the sub-models.
func (s *SoilWater) dayView(in DayInputs, potential float64, r *DayResult) *Day {
	return &Day{
		Profile:                     s.profile,
		Water:                       s.water.MM(),
		PotentialInfiltration:       potential,
		Infiltration:                r.Infiltration,
		Runoff:                      r.Runoff,
		PotentialEvapotranspiration: in.PotentialEvapotranspiration,
		Cover:                       in.Cover,
		Runon:                       in.Runon,
	}
}

// AdvanceOneDay simulates one day of water and solute movement.
//
// If the resulting water state is physically impossible, the returned
// error wraps ErrAboveSaturation or ErrBelowAirDry, the partially
// completed DayResult is returned for diagnosis, the solute pools are
// left unchanged, and all subsequent calls return ErrFailed.
func (s *SoilWater) AdvanceOneDay(in DayInputs) (*DayResult, error) {
	if s.failed {
		return nil, ErrFailed
	}
	s.day++
	n := s.profile.NumLayers()
	last := n - 1
	w := s.water.mm
	r := &DayResult{
		LateralFlow: make([]float64, n),
		Flux:        make([]float64, n),
		Flow:        make([]float64, n),
		Leached:     make(map[string]float64),
		Solutes:     make(map[string][]float64),
	}

	soluteMass := make([][]float64, len(s.solutes))
	for i, sol := range s.solutes {
		soluteMass[i] = sol.pool.Read()
	}

	potential := in.PotentialInfiltration + in.Runon
	if in.Irrigation.WillRunoff {
		potential += in.Irrigation.Applied
	}

	// Lateral flow leaves the system.
	if s.LateralFlow != nil {
		r.LateralFlow = s.LateralFlow.LateralOutflow(s.dayView(in, potential, r))
		for i, v := range r.LateralFlow {
			w[i] -= v
		}
	}

	// Runoff and infiltration.
	if s.Runoff != nil {
		r.Runoff = s.Runoff.Runoff(s.dayView(in, potential, r))
	}
	r.Infiltration = potential - r.Runoff
	w[0] += r.Infiltration

	// Subsurface irrigation overwrites the water in the target layer.
	if !in.Irrigation.WillRunoff && in.Irrigation.Applied > 0 {
		layer := s.profile.LayerAtDepth(in.Irrigation.Depth)
		w[layer] = in.Irrigation.Applied
		r.Infiltration += in.Irrigation.Applied
		r.IrrigationApplied = in.Irrigation.Applied
	}

	// Saturated flow. Surface water that cannot enter the
	// profile becomes runoff.
	if s.SaturatedFlow != nil {
		r.Flux, r.BackedUp = s.SaturatedFlow.SaturatedFlow(s.dayView(in, potential, r))
	}
	if r.BackedUp > 0 {
		w[0] -= r.BackedUp
		r.Infiltration -= r.BackedUp
		r.Runoff += r.BackedUp
	}
	ShiftDown(w, r.Flux)
	r.Drainage = r.Flux[last]

	for i, sol := range s.solutes {
		down := SoluteFluxDown(soluteMass[i], w, r.Flux, sol.downEfficiency)
		ShiftDown(soluteMass[i], down)
		r.Leached[sol.name] = down[last]
	}

	if s.Evaporation != nil {
		r.Evaporation = s.Evaporation.Evaporation(s.dayView(in, potential, r))
		w[0] -= r.Evaporation
	}

	if s.UnsaturatedFlow != nil {
		r.Flow = s.UnsaturatedFlow.UnsaturatedFlow(s.dayView(in, potential, r))
	}
	ShiftUp(w, r.Flow)

	r.Water = s.water.MM()

	if err := Validate(s.profile, s.water); err != nil {
		s.failed = true
		s.Log.WithFields(logrus.Fields{
			"day":   s.day,
			"water": r.Water,
		}).Errorf("soilwat: invalid water state: %v", err)
		return r, err
	}

	r.WaterTableDepth = NoWaterTable
	if s.WaterTable != nil {
		r.WaterTableDepth = s.WaterTable.WaterTableDepth(s.dayView(in, potential, r))
	}

	for i, sol := range s.solutes {
		up := SoluteFluxUp(soluteMass[i], w, r.Flow, sol.upEfficiency)
		ShiftUp(soluteMass[i], up)
		sol.pool.Write(soluteMass[i])
		r.Solutes[sol.name] = soluteMass[i]
	}

	s.Log.WithFields(logrus.Fields{
		"day":          s.day,
		"runoff":       r.Runoff,
		"infiltration": r.Infiltration,
		"drainage":     r.Drainage,
		"evaporation":  r.Evaporation,
		"total water":  s.water.Total(),
	}).Debug("soilwat: day complete")
	return r, nil
}
