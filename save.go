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
	"encoding/gob"
	"fmt"
	"io"
)

// checkpoint is the saved state of a SoilWater.
type checkpoint struct {
	ProfileHash string
	Day         int
	Water       []float64
	Solutes     map[string][]float64
}

// Save writes the current water and solute state to w so that the
// simulation can be resumed later with Load.
func (s *SoilWater) Save(w io.Writer) error {
	c := checkpoint{
		ProfileHash: s.profile.Hash(),
		Day:         s.day,
		Water:       s.water.MM(),
		Solutes:     make(map[string][]float64),
	}
	for _, sol := range s.solutes {
		c.Solutes[sol.name] = sol.pool.Read()
	}
	if err := gob.NewEncoder(w).Encode(c); err != nil {
		return fmt.Errorf("soilwat.SoilWater.Save: %v", err)
	}
	return nil
}

// Load restores a state previously written by Save. The saved state
// must have been created with an identical soil profile, and every
// registered solute must be present in it. The loaded state is
// validated before it is accepted.
func (s *SoilWater) Load(r io.Reader) error {
	var c checkpoint
	if err := gob.NewDecoder(r).Decode(&c); err != nil {
		return fmt.Errorf("soilwat.SoilWater.Load: %v", err)
	}
	if c.ProfileHash != s.profile.Hash() {
		return fmt.Errorf("soilwat.SoilWater.Load: saved state is for a different soil profile")
	}
	w, err := NewWaterState(s.profile, c.Water)
	if err != nil {
		return fmt.Errorf("soilwat.SoilWater.Load: %v", err)
	}
	if err := Validate(s.profile, w); err != nil {
		return fmt.Errorf("soilwat.SoilWater.Load: %w", err)
	}
	for _, sol := range s.solutes {
		v, ok := c.Solutes[sol.name]
		if !ok {
			return fmt.Errorf("soilwat.SoilWater.Load: saved state has no solute '%s'", sol.name)
		}
		if len(v) != s.profile.NumLayers() {
			return fmt.Errorf("soilwat.SoilWater.Load: solute '%s' has %d layers", sol.name, len(v))
		}
	}
	for _, sol := range s.solutes {
		sol.pool.Write(c.Solutes[sol.name])
	}
	s.water = w
	s.day = c.Day
	s.failed = false
	return nil
}

// Day returns the number of days that have been simulated.
func (s *SoilWater) Day() int { return s.day }
