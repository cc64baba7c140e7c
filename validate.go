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
	"fmt"
)

// Configuration errors: the static soil parameters are physically impossible.
var (
	ErrAirDryNegative      = errors.New("air-dry water content is below zero")
	ErrLL15BelowAirDry     = errors.New("lower limit is below air-dry")
	ErrDULNotAboveLL15     = errors.New("drained upper limit is not above the lower limit")
	ErrSATNotAboveDUL      = errors.New("saturation is not above the drained upper limit")
	ErrSATAboveMaxPorosity = errors.New("saturation is above the maximum porosity allowed by bulk density")
)

// Water bounds errors: the water content has left the physically
// possible range for the layer.
var (
	ErrAboveSaturation = errors.New("water content is above saturation")
	ErrBelowAirDry     = errors.New("water content is below air-dry")
)

// LayerError describes the first physically impossible value found
// in a profile or water state.
type LayerError struct {
	Layer int     // index of the offending layer
	Value float64 // offending value [mm/mm]
	Limit float64 // bound that was violated [mm/mm]
	Err   error   // one of the Err* values in this package
}

func (e *LayerError) Error() string {
	return fmt.Sprintf("soilwat: layer %d: %v (value=%g, limit=%g)", e.Layer, e.Err, e.Value, e.Limit)
}

func (e *LayerError) Unwrap() error { return e.Err }

// IsConfigurationError returns whether err was caused by invalid
// static soil parameters.
func IsConfigurationError(err error) bool {
	for _, e := range []error{ErrAirDryNegative, ErrLL15BelowAirDry, ErrDULNotAboveLL15,
		ErrSATNotAboveDUL, ErrSATAboveMaxPorosity} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

// IsWaterBoundsError returns whether err was caused by a water content
// outside of the [air-dry, saturation] range.
func IsWaterBoundsError(err error) bool {
	return errors.Is(err, ErrAboveSaturation) || errors.Is(err, ErrBelowAirDry)
}

// checkLayer checks the static parameters of layer l, which has index i.
// The comparisons are written so that NaN fails them.
func checkLayer(i int, l Layer) error {
	switch {
	case !(l.AirDry >= 0):
		return &LayerError{Layer: i, Value: l.AirDry, Limit: 0, Err: ErrAirDryNegative}
	case !(l.LL15 >= l.AirDry):
		return &LayerError{Layer: i, Value: l.LL15, Limit: l.AirDry, Err: ErrLL15BelowAirDry}
	case !(l.DUL > l.LL15):
		return &LayerError{Layer: i, Value: l.DUL, Limit: l.LL15, Err: ErrDULNotAboveLL15}
	case !(l.SAT > l.DUL):
		return &LayerError{Layer: i, Value: l.SAT, Limit: l.DUL, Err: ErrSATNotAboveDUL}
	case !(l.SAT <= l.MaxPorosity()):
		return &LayerError{Layer: i, Value: l.SAT, Limit: l.MaxPorosity(), Err: ErrSATAboveMaxPorosity}
	}
	return nil
}

// Validate checks the static parameters of every layer in the profile,
// returning a *LayerError for the first violation found.
func (p *Profile) Validate() error {
	for i, l := range p.layers {
		if err := checkLayer(i, l); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the profile and the water state together, layer by
// layer from the surface downward. For each layer the soil parameters
// are checked first and then the water content. The first violation
// is returned as a *LayerError and no further checks are made.
func Validate(p *Profile, w *WaterState) error {
	for i, l := range p.layers {
		if err := checkLayer(i, l); err != nil {
			return err
		}
		sw := w.mm[i] / l.Thickness // NaN is reported as above saturation.
		if !(sw <= l.SAT) {
			return &LayerError{Layer: i, Value: sw, Limit: l.SAT, Err: ErrAboveSaturation}
		}
		if !(sw >= l.AirDry) {
			return &LayerError{Layer: i, Value: sw, Limit: l.AirDry, Err: ErrBelowAirDry}
		}
	}
	return nil
}
