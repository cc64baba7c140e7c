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

import "gonum.org/v1/gonum/floats"

// MemoryPool is a SolutePool that keeps its values in memory.
type MemoryPool struct {
	kgha []float64
}

// NewMemoryPool returns a pool holding a copy of the given
// per-layer solute masses [kg/ha].
func NewMemoryPool(kgha []float64) *MemoryPool {
	p := new(MemoryPool)
	p.Write(kgha)
	return p
}

// Read returns a copy of the solute mass in each layer.
func (p *MemoryPool) Read() []float64 {
	o := make([]float64, len(p.kgha))
	copy(o, p.kgha)
	return o
}

// Write replaces the contents of the pool with a copy of v.
func (p *MemoryPool) Write(v []float64) {
	p.kgha = make([]float64, len(v))
	copy(p.kgha, v)
}

// Total returns the total solute mass in the pool [kg/ha].
func (p *MemoryPool) Total() float64 { return floats.Sum(p.kgha) }
