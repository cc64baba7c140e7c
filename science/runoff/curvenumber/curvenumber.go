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

// Package curvenumber calculates surface runoff with the USDA-SCS
// curve number method, adjusted for surface cover and for the wetness
// of the upper part of the soil profile.
package curvenumber

import (
	"fmt"
	"math"

	"github.com/spatialmodel/soilwat"
)

// EffectiveDepth is the depth [mm] of soil whose wetness influences
// runoff.
const EffectiveDepth = 450.

// CurveNumber is a runoff model.
type CurveNumber struct {
	CN2Bare float64 // curve number of bare soil at average antecedent moisture
	CNRed   float64 // maximum reduction in curve number due to cover
	CNCov   float64 // cover at which the maximum reduction occurs [0-1]
}

// Check returns an error if the parameters are out of range.
func (c *CurveNumber) Check() error {
	if c.CN2Bare <= 0 || c.CN2Bare > 100 {
		return fmt.Errorf("curvenumber: CN2Bare is %g but must be in (0, 100]", c.CN2Bare)
	}
	if c.CNRed < 0 || c.CNRed >= c.CN2Bare {
		return fmt.Errorf("curvenumber: CNRed is %g but must be in [0, CN2Bare)", c.CNRed)
	}
	if c.CNCov <= 0 || c.CNCov > 1 {
		return fmt.Errorf("curvenumber: CNCov is %g but must be in (0, 1]", c.CNCov)
	}
	return nil
}

// weights returns the contribution of each layer to the
// antecedent wetness. Shallow layers count more than deep ones and
// layers below EffectiveDepth don't count at all.
func weights(p *soilwat.Profile) []float64 {
	const k = 4.16
	scale := 1 / (1 - math.Exp(-k))
	w := make([]float64, p.NumLayers())
	var z, prev float64
	for i := range w {
		z = math.Min(z+p.Layer(i).Thickness, EffectiveDepth)
		cum := scale * (1 - math.Exp(-k*z/EffectiveDepth))
		w[i] = cum - prev
		prev = cum
	}
	return w
}

// wetness returns the weighted relative wetness of the soil between
// the lower limit and the drained upper limit [0-1].
func wetness(d *soilwat.Day) float64 {
	var wet float64
	for i, wf := range weights(d.Profile) {
		l := d.Profile.Layer(i)
		ll, dul := l.LL15*l.Thickness, l.DUL*l.Thickness
		f := (d.Water[i] - ll) / (dul - ll)
		wet += wf * math.Max(0, math.Min(1, f))
	}
	return wet
}

// CurveNumberToday returns the curve number adjusted for cover and
// soil wetness.
func (c *CurveNumber) CurveNumberToday(d *soilwat.Day) float64 {
	cn2 := c.CN2Bare - c.CNRed*math.Min(1, d.Cover/c.CNCov)
	cn1 := cn2 / (2.334 - 0.01334*cn2)
	cn3 := cn2 / (0.4036 + 0.005964*cn2)
	return cn1 + (cn3-cn1)*wetness(d)
}

// Runoff implements soilwat.Runoff.
func (c *CurveNumber) Runoff(d *soilwat.Day) float64 {
	p := d.PotentialInfiltration
	if p <= 0 {
		return 0
	}
	cn := c.CurveNumberToday(d)
	s := 254 * (100/cn - 1)
	x := p - 0.2*s
	if x <= 0 {
		return 0
	}
	return math.Min(p, x*x/(p+0.8*s))
}
