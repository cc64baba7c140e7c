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

// Package ritchie calculates soil evaporation with Ritchie's two stage
// model. In the first stage, evaporation proceeds at the potential
// rate until a cumulative amount U has evaporated. In the second
// stage, cumulative evaporation is proportional to the square root of
// time since the start of the stage.
package ritchie

import (
	"fmt"
	"math"

	"github.com/spatialmodel/soilwat"
)

// Evaporation is a soil evaporation model. It keeps track of the
// cumulative evaporation since the soil surface was last wetted, so a
// separate Evaporation is needed for each soil column.
type Evaporation struct {
	U    float64 // cumulative first stage evaporation [mm]
	Cona float64 // second stage drying coefficient [mm/day^0.5]

	// CanopyCoef is the extinction coefficient for the reduction of
	// potential soil evaporation by surface cover.
	CanopyCoef float64

	sumes1, sumes2 float64 // cumulative first and second stage evaporation [mm]
	t              float64 // days since the start of the second stage
}

// Check returns an error if the parameters are out of range.
func (e *Evaporation) Check() error {
	if e.U < 0 {
		return fmt.Errorf("ritchie: U is %g but must be >= 0", e.U)
	}
	if e.Cona <= 0 {
		return fmt.Errorf("ritchie: Cona is %g but must be > 0", e.Cona)
	}
	if e.CanopyCoef < 0 {
		return fmt.Errorf("ritchie: CanopyCoef is %g but must be >= 0", e.CanopyCoef)
	}
	return nil
}

// Potential returns potential soil evaporation [mm] after reduction
// by surface cover.
func (e *Evaporation) Potential(d *soilwat.Day) float64 {
	return d.PotentialEvapotranspiration * math.Exp(-e.CanopyCoef*d.Cover)
}

// wet resets the drying stages after infiltration [mm].
func (e *Evaporation) wet(infiltration float64) {
	if infiltration <= 0 {
		return
	}
	if e.sumes1 >= e.U {
		if infiltration >= e.sumes2 {
			e.sumes1 = math.Max(0, e.sumes1-(infiltration-e.sumes2))
			e.sumes2 = 0
			e.t = 0
		} else {
			e.sumes2 -= infiltration
			e.t = math.Pow(e.sumes2/e.Cona, 2)
		}
	} else {
		e.sumes1 = math.Max(0, e.sumes1-infiltration)
	}
}

// Evaporation implements soilwat.Evaporation. Evaporation is limited
// to the water above air-dry in the top layer.
func (e *Evaporation) Evaporation(d *soilwat.Day) float64 {
	e.wet(d.Infiltration)
	eos := e.Potential(d)

	var es1, es2 float64
	if e.sumes1 < e.U {
		es1 = math.Min(eos, e.U-e.sumes1)
		e.sumes1 += es1
		if eos > es1 {
			// The second stage starts today.
			e.t = 1
			es2 = math.Min(eos-es1, math.Max(0, e.Cona*math.Sqrt(e.t)-e.sumes2))
			e.sumes2 += es2
		}
	} else {
		e.t++
		es2 = math.Min(eos, math.Max(0, e.Cona*math.Sqrt(e.t)-e.sumes2))
		e.sumes2 += es2
	}

	top := d.Profile.Layer(0)
	avail := math.Max(0, d.Water[0]-top.AirDry*top.Thickness)
	es := es1 + es2
	if es > avail {
		// Don't count evaporation that couldn't happen.
		over := es - avail
		if es2 >= over {
			e.sumes2 -= over
		} else {
			e.sumes1 -= over - es2
			e.sumes2 -= es2
		}
		es = avail
	}
	return es
}
