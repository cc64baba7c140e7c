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

package curvenumber

import (
	"math"
	"testing"

	"github.com/spatialmodel/soilwat"
	"gonum.org/v1/gonum/floats"
)

func testDay(t *testing.T, limit string) *soilwat.Day {
	p, err := soilwat.NewProfile(
		soilwat.Layer{Thickness: 150, AirDry: 0.05, LL15: 0.10, DUL: 0.30, SAT: 0.45, BD: 0.9},
		soilwat.Layer{Thickness: 300, AirDry: 0.06, LL15: 0.12, DUL: 0.28, SAT: 0.40, BD: 1.0},
		soilwat.Layer{Thickness: 300, AirDry: 0.07, LL15: 0.15, DUL: 0.25, SAT: 0.35, BD: 1.1},
	)
	if err != nil {
		t.Fatal(err)
	}
	w, err := soilwat.NewWaterStateAt(p, limit)
	if err != nil {
		t.Fatal(err)
	}
	return &soilwat.Day{Profile: p, Water: w.MM()}
}

func TestWeights(t *testing.T) {
	w := weights(testDay(t, "DUL").Profile)
	if !floats.EqualWithinAbsOrRel(floats.Sum(w), 1, 1e-12, 1e-12) {
		t.Errorf("weights should sum to 1: %v", w)
	}
	if w[2] != 0 {
		t.Errorf("layer below the effective depth should have no weight: %g", w[2])
	}
	if w[0] <= w[1]/2 {
		t.Errorf("shallow layer should be weighted more heavily per mm: %v", w)
	}
}

func TestRunoff(t *testing.T) {
	c := &CurveNumber{CN2Bare: 73, CNRed: 20, CNCov: 0.8}
	if err := c.Check(); err != nil {
		t.Fatal(err)
	}
	dry := testDay(t, "LL15")
	wet := testDay(t, "DUL")

	dry.PotentialInfiltration, wet.PotentialInfiltration = 60, 60
	rDry, rWet := c.Runoff(dry), c.Runoff(wet)
	if !(rWet > rDry) {
		t.Errorf("wet soil should produce more runoff: wet %g, dry %g", rWet, rDry)
	}

	// At DUL the curve number is CN3.
	cn3 := 73 / (0.4036 + 0.005964*73)
	if cn := c.CurveNumberToday(wet); math.Abs(cn-cn3) > 1e-10 {
		t.Errorf("curve number: want %g, have %g", cn3, cn)
	}
	s := 254 * (100/cn3 - 1)
	want := (60 - 0.2*s) * (60 - 0.2*s) / (60 + 0.8*s)
	if math.Abs(rWet-want) > 1e-10 {
		t.Errorf("runoff: want %g, have %g", want, rWet)
	}

	wet.Cover = 0.8
	if covered := c.Runoff(wet); !(covered < rWet) {
		t.Errorf("cover should reduce runoff: %g >= %g", covered, rWet)
	}

	wet.PotentialInfiltration = 1
	if r := c.Runoff(wet); r != 0 {
		t.Errorf("small storms should not run off: %g", r)
	}
}

func TestCheck(t *testing.T) {
	for _, c := range []CurveNumber{
		{CN2Bare: 0, CNRed: 0, CNCov: 0.5},
		{CN2Bare: 80, CNRed: 90, CNCov: 0.5},
		{CN2Bare: 80, CNRed: 10, CNCov: 0},
	} {
		if err := c.Check(); err == nil {
			t.Errorf("%+v should be invalid", c)
		}
	}
}
