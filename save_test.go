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
	"bytes"
	"errors"
	"testing"

	"github.com/kr/pretty"
	"gonum.org/v1/gonum/floats"
)

func TestSaveLoad(t *testing.T) {
	s := testSoilWater(t, "DUL")
	s.SaturatedFlow = fixedFlux([]float64{5, 3, 1}, 0)
	no3 := NewMemoryPool([]float64{10, 5, 2})
	if err := s.AddSolute(Nitrate, no3, 1, 1); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if _, err := s.AdvanceOneDay(DayInputs{PotentialInfiltration: 5}); err != nil {
			t.Fatal(err)
		}
	}
	buf := new(bytes.Buffer)
	if err := s.Save(buf); err != nil {
		t.Fatal(err)
	}

	s2 := testSoilWater(t, "LL15")
	no3b := NewMemoryPool([]float64{0, 0, 0})
	if err := s2.AddSolute(Nitrate, no3b, 1, 1); err != nil {
		t.Fatal(err)
	}
	if err := s2.Load(buf); err != nil {
		t.Fatal(err)
	}
	if !floats.Equal(s2.Water().MM(), s.Water().MM()) {
		t.Error(pretty.Diff(s2.Water().MM(), s.Water().MM()))
	}
	if !floats.Equal(no3b.Read(), no3.Read()) {
		t.Error(pretty.Diff(no3b.Read(), no3.Read()))
	}
	if s2.Day() != 2 {
		t.Errorf("day: want 2, have %d", s2.Day())
	}
}

func TestLoadDifferentProfile(t *testing.T) {
	s := testSoilWater(t, "DUL")
	buf := new(bytes.Buffer)
	if err := s.Save(buf); err != nil {
		t.Fatal(err)
	}
	p, err := NewProfile(Layer{Thickness: 100, AirDry: 0.05, LL15: 0.1, DUL: 0.3, SAT: 0.45, BD: 1.2})
	if err != nil {
		t.Fatal(err)
	}
	w, err := NewWaterStateAt(p, "DUL")
	if err != nil {
		t.Fatal(err)
	}
	s2, err := NewSoilWater(p, w)
	if err != nil {
		t.Fatal(err)
	}
	if err := s2.Load(buf); err == nil {
		t.Error("loading into a different profile should fail")
	}
}

func TestLoadMissingSolute(t *testing.T) {
	s := testSoilWater(t, "DUL")
	buf := new(bytes.Buffer)
	if err := s.Save(buf); err != nil {
		t.Fatal(err)
	}
	s2 := testSoilWater(t, "DUL")
	if err := s2.AddSolute(Ammonium, NewMemoryPool([]float64{1, 1, 1}), 1, 1); err != nil {
		t.Fatal(err)
	}
	err := s2.Load(buf)
	if err == nil || errors.Is(err, ErrAboveSaturation) {
		t.Errorf("want missing solute error, have %v", err)
	}
}
