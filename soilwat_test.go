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
	"errors"
	"io/ioutil"
	"math"
	"testing"

	"github.com/kr/pretty"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

const testTolerance = 1.e-10

func different(a, b, tolerance float64) bool {
	return !floats.EqualWithinAbsOrRel(a, b, tolerance, tolerance) || math.IsNaN(a) || math.IsNaN(b)
}

// testProfile returns a three layer profile with 150 mm layers.
func testProfile(t *testing.T) *Profile {
	p, err := NewProfile(
		Layer{Thickness: 150, AirDry: 0.05, LL15: 0.10, DUL: 0.30, SAT: 0.45, BD: 0.9},
		Layer{Thickness: 150, AirDry: 0.06, LL15: 0.12, DUL: 0.28, SAT: 0.40, BD: 1.0},
		Layer{Thickness: 150, AirDry: 0.07, LL15: 0.15, DUL: 0.25, SAT: 0.35, BD: 1.1},
	)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

// quietLogger discards log output during tests.
func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.Out = ioutil.Discard
	return l
}

func testSoilWater(t *testing.T, initial string) *SoilWater {
	p := testProfile(t)
	w, err := NewWaterStateAt(p, initial)
	if err != nil {
		t.Fatal(err)
	}
	s, err := NewSoilWater(p, w)
	if err != nil {
		t.Fatal(err)
	}
	s.Log = quietLogger()
	return s
}

func fixedFlux(flux []float64, backedUp float64) SaturatedFlowFunc {
	return func(*Day) ([]float64, float64) {
		o := make([]float64, len(flux))
		copy(o, flux)
		return o, backedUp
	}
}

// The top layer ends the day at 73 mm, which is above saturation
// (67.5 mm), so the day must fail instead of clamping.
func TestAdvanceOneDayScenario(t *testing.T) {
	s := testSoilWater(t, "DUL")
	s.SaturatedFlow = fixedFlux([]float64{20, 10, 5}, 0)
	s.Evaporation = EvaporationFunc(func(*Day) float64 { return 2 })

	r, err := s.AdvanceOneDay(DayInputs{PotentialInfiltration: 50})
	if !errors.Is(err, ErrAboveSaturation) {
		t.Fatalf("want ErrAboveSaturation, have %v", err)
	}
	var le *LayerError
	if !errors.As(err, &le) || le.Layer != 0 {
		t.Errorf("want error in layer 0, have %#v", err)
	}
	want := []float64{73, 52, 42.5}
	if !floats.EqualApprox(r.Water, want, testTolerance) {
		t.Errorf("water: %v", pretty.Diff(r.Water, want))
	}
	if r.Drainage != 5 {
		t.Errorf("drainage: want 5, have %g", r.Drainage)
	}
	if r.Infiltration != 50 {
		t.Errorf("infiltration: want 50, have %g", r.Infiltration)
	}
	if !s.Failed() {
		t.Error("simulation should be marked failed")
	}
	if _, err := s.AdvanceOneDay(DayInputs{}); err != ErrFailed {
		t.Errorf("want ErrFailed, have %v", err)
	}
}

func TestAdvanceOneDayValid(t *testing.T) {
	s := testSoilWater(t, "DUL")
	s.SaturatedFlow = fixedFlux([]float64{20, 10, 5}, 0)
	s.Evaporation = EvaporationFunc(func(*Day) float64 { return 2 })

	r, err := s.AdvanceOneDay(DayInputs{PotentialInfiltration: 20})
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{43, 52, 42.5}
	if !floats.EqualApprox(r.Water, want, testTolerance) {
		t.Errorf("water: %v", pretty.Diff(r.Water, want))
	}
	if !floats.EqualApprox(s.Water().MM(), want, testTolerance) {
		t.Errorf("state: %v", pretty.Diff(s.Water().MM(), want))
	}
	if r.Evaporation != 2 || r.Drainage != 5 {
		t.Errorf("evaporation %g, drainage %g", r.Evaporation, r.Drainage)
	}
	if r.WaterTableDepth != NoWaterTable {
		t.Errorf("water table: %g", r.WaterTableDepth)
	}
}

func TestMassConservation(t *testing.T) {
	s := testSoilWater(t, "LL15")
	s.Runoff = RunoffFunc(func(d *Day) float64 { return 0.2 * d.PotentialInfiltration })
	s.SaturatedFlow = fixedFlux([]float64{8, 4, 1.5}, 3)
	s.UnsaturatedFlow = UnsaturatedFlowFunc(func(*Day) []float64 { return []float64{1, 0.5, 0} })

	before := s.Water().Total()
	r, err := s.AdvanceOneDay(DayInputs{PotentialInfiltration: 30})
	if err != nil {
		t.Fatal(err)
	}
	after := floats.Sum(r.Water)
	if different(after, before+r.Infiltration-r.Drainage, testTolerance) {
		t.Errorf("mass balance: before %g, after %g, infiltration %g, drainage %g",
			before, after, r.Infiltration, r.Drainage)
	}
	// 30 mm potential, 6 mm runoff, 3 mm backed up.
	if different(r.Runoff, 9, testTolerance) || different(r.Infiltration, 21, testTolerance) {
		t.Errorf("runoff %g, infiltration %g", r.Runoff, r.Infiltration)
	}
	if r.BackedUp != 3 {
		t.Errorf("backed up: %g", r.BackedUp)
	}
}

func TestIrrigationOverwrite(t *testing.T) {
	s := testSoilWater(t, "DUL")
	r, err := s.AdvanceOneDay(DayInputs{
		Irrigation: Irrigation{Applied: 30, Depth: 200},
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{45, 30, 37.5}
	if !floats.EqualApprox(r.Water, want, testTolerance) {
		t.Errorf("water: %v", pretty.Diff(r.Water, want))
	}
	if r.Infiltration != 30 {
		t.Errorf("infiltration: want 30, have %g", r.Infiltration)
	}
	if r.IrrigationApplied != 30 {
		t.Errorf("irrigation applied: %g", r.IrrigationApplied)
	}
}

func TestIrrigationRunoff(t *testing.T) {
	s := testSoilWater(t, "LL15")
	var potential float64
	s.Runoff = RunoffFunc(func(d *Day) float64 {
		potential = d.PotentialInfiltration
		return 0
	})
	r, err := s.AdvanceOneDay(DayInputs{
		PotentialInfiltration: 10,
		Runon:                 2,
		Irrigation:            Irrigation{Applied: 5, WillRunoff: true},
	})
	if err != nil {
		t.Fatal(err)
	}
	if potential != 17 {
		t.Errorf("potential infiltration: want 17, have %g", potential)
	}
	if r.IrrigationApplied != 0 {
		t.Errorf("surface irrigation should not be reported as subsurface: %g", r.IrrigationApplied)
	}
	if different(r.Water[0], 15+17, testTolerance) {
		t.Errorf("top layer: %g", r.Water[0])
	}
}

func TestLateralFlow(t *testing.T) {
	s := testSoilWater(t, "DUL")
	s.LateralFlow = LateralFlowFunc(func(*Day) []float64 { return []float64{1, 2, 3} })
	r, err := s.AdvanceOneDay(DayInputs{})
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{44, 40, 34.5}
	if !floats.EqualApprox(r.Water, want, testTolerance) {
		t.Errorf("water: %v", pretty.Diff(r.Water, want))
	}
}

func TestSoluteTransport(t *testing.T) {
	s := testSoilWater(t, "DUL")
	s.SaturatedFlow = fixedFlux([]float64{10, 5, 2}, 0)
	s.UnsaturatedFlow = UnsaturatedFlowFunc(func(*Day) []float64 { return []float64{1, 1, 0} })
	no3 := NewMemoryPool([]float64{10, 5, 2})
	nh4 := NewMemoryPool([]float64{3, 2, 1})
	if err := s.AddSolute(Nitrate, no3, 1, 1); err != nil {
		t.Fatal(err)
	}
	if err := s.AddSolute(Ammonium, nh4, 1, 1); err != nil {
		t.Fatal(err)
	}
	if err := s.AddSolute(Nitrate, no3, 1, 1); err == nil {
		t.Error("duplicate solute should be rejected")
	}
	no3Before, nh4Before := no3.Total(), nh4.Total()

	r, err := s.AdvanceOneDay(DayInputs{PotentialInfiltration: 10})
	if err != nil {
		t.Fatal(err)
	}
	if r.NitrateLeachedAtBottom() <= 0 {
		t.Errorf("nitrate should be leached: %g", r.NitrateLeachedAtBottom())
	}
	if r.Leached[Ammonium] <= 0 {
		t.Errorf("ammonium should be leached: %g", r.Leached[Ammonium])
	}
	if different(no3.Total(), no3Before-r.Leached[Nitrate], testTolerance) {
		t.Errorf("nitrate balance: before %g, after %g, leached %g", no3Before, no3.Total(), r.Leached[Nitrate])
	}
	if different(nh4.Total(), nh4Before-r.Leached[Ammonium], testTolerance) {
		t.Errorf("ammonium balance: before %g, after %g, leached %g", nh4Before, nh4.Total(), r.Leached[Ammonium])
	}
	for i, v := range no3.Read() {
		if v < 0 {
			t.Errorf("layer %d: negative nitrate %g", i, v)
		}
	}
}

func TestSolutePoolsUnchangedOnFailure(t *testing.T) {
	s := testSoilWater(t, "DUL")
	s.SaturatedFlow = fixedFlux([]float64{20, 10, 5}, 0)
	no3 := NewMemoryPool([]float64{10, 5, 2})
	if err := s.AddSolute(Nitrate, no3, 1, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AdvanceOneDay(DayInputs{PotentialInfiltration: 50}); err == nil {
		t.Fatal("expected a water bounds error")
	}
	want := []float64{10, 5, 2}
	if have := no3.Read(); !floats.Equal(have, want) {
		t.Errorf("pool changed: %v", pretty.Diff(have, want))
	}
}

func TestNewSoilWaterInvalid(t *testing.T) {
	p := testProfile(t)
	w, err := NewWaterState(p, []float64{100, 30, 30})
	if err != nil {
		t.Fatal(err)
	}
	_, err = NewSoilWater(p, w)
	if !IsWaterBoundsError(err) {
		t.Errorf("want water bounds error, have %v", err)
	}
}

func TestNaNFlowFails(t *testing.T) {
	s := testSoilWater(t, "DUL")
	s.UnsaturatedFlow = UnsaturatedFlowFunc(func(*Day) []float64 { return []float64{math.NaN(), 0, 0} })
	no3 := NewMemoryPool([]float64{10, 5, 2})
	if err := s.AddSolute(Nitrate, no3, 1, 1); err != nil {
		t.Fatal(err)
	}
	_, err := s.AdvanceOneDay(DayInputs{})
	var le *LayerError
	if !errors.As(err, &le) || le.Layer != 0 || le.Err != ErrAboveSaturation {
		t.Fatalf("want above saturation in layer 0, have %v", err)
	}
	if !s.Failed() {
		t.Error("simulation should be marked failed")
	}
	if have, want := no3.Read(), []float64{10, 5, 2}; !floats.Equal(have, want) {
		t.Errorf("pool changed: %v", pretty.Diff(have, want))
	}
}
