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

package soilwatutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spatialmodel/soilwat"
	"github.com/spatialmodel/soilwat/science/evap/ritchie"
	"github.com/spatialmodel/soilwat/science/lateral/klat"
	"github.com/spatialmodel/soilwat/science/runoff/curvenumber"
	"github.com/spatialmodel/soilwat/science/satflow/swcon"
	"github.com/spatialmodel/soilwat/science/unsatflow/diffusivity"
	"github.com/spatialmodel/soilwat/science/watertable"
	"gopkg.in/yaml.v3"
)

// ProfileConfig describes a soil column: the physical properties of
// its layers, its initial water and solutes, and the parameters of the
// sub-models that move water through it. Per-layer properties are
// given as arrays ordered from the surface downward. Sub-model sections
// that are left out of the file are not simulated.
type ProfileConfig struct {
	// Name identifies the column. If it is blank, the name of the
	// profile file is used.
	Name string `toml:"Name" yaml:"Name"`

	Thickness []float64 `toml:"Thickness" yaml:"Thickness"` // [mm]
	AirDry    []float64 `toml:"AirDry" yaml:"AirDry"`       // [mm/mm]
	LL15      []float64 `toml:"LL15" yaml:"LL15"`           // [mm/mm]
	DUL       []float64 `toml:"DUL" yaml:"DUL"`             // [mm/mm]
	SAT       []float64 `toml:"SAT" yaml:"SAT"`             // [mm/mm]
	BD        []float64 `toml:"BD" yaml:"BD"`               // [g/cm³]

	// InitialWater is the limit each layer starts at: AirDry, LL15,
	// DUL, or SAT. It is ignored if InitialSW is set. The default is DUL.
	InitialWater string `toml:"InitialWater" yaml:"InitialWater"`

	// InitialSW is the initial volumetric water content of each
	// layer [mm/mm].
	InitialSW []float64 `toml:"InitialSW" yaml:"InitialSW"`

	// Solutes holds the dissolved solutes, by name.
	Solutes map[string]SoluteConfig `toml:"Solutes" yaml:"Solutes"`

	Runoff          *RunoffConfig          `toml:"Runoff" yaml:"Runoff"`
	SaturatedFlow   *SaturatedFlowConfig   `toml:"SaturatedFlow" yaml:"SaturatedFlow"`
	UnsaturatedFlow *UnsaturatedFlowConfig `toml:"UnsaturatedFlow" yaml:"UnsaturatedFlow"`
	Evaporation     *EvaporationConfig     `toml:"Evaporation" yaml:"Evaporation"`
	LateralFlow     *LateralFlowConfig     `toml:"LateralFlow" yaml:"LateralFlow"`
	WaterTable      *WaterTableConfig      `toml:"WaterTable" yaml:"WaterTable"`
}

// SoluteConfig describes a solute that moves with the water.
type SoluteConfig struct {
	// Initial is the solute in each layer [kg/ha].
	Initial []float64 `toml:"Initial" yaml:"Initial"`

	// DownEfficiency and UpEfficiency are the fractions [0-1] of the
	// solute that move with downward and upward water flow. Both
	// default to 1.
	DownEfficiency *float64 `toml:"DownEfficiency" yaml:"DownEfficiency"`
	UpEfficiency   *float64 `toml:"UpEfficiency" yaml:"UpEfficiency"`
}

// RunoffConfig holds curve number runoff parameters.
type RunoffConfig struct {
	CN2Bare float64 `toml:"CN2Bare" yaml:"CN2Bare"`
	CNRed   float64 `toml:"CNRed" yaml:"CNRed"`
	CNCov   float64 `toml:"CNCov" yaml:"CNCov"`
}

// SaturatedFlowConfig holds per-layer drainage parameters.
type SaturatedFlowConfig struct {
	SWCON []float64 `toml:"SWCON" yaml:"SWCON"`
	KS    []float64 `toml:"KS" yaml:"KS"`
}

// UnsaturatedFlowConfig holds diffusivity parameters.
type UnsaturatedFlowConfig struct {
	DiffusConst float64 `toml:"DiffusConst" yaml:"DiffusConst"`
	DiffusSlope float64 `toml:"DiffusSlope" yaml:"DiffusSlope"`
}

// EvaporationConfig holds two stage soil evaporation parameters.
type EvaporationConfig struct {
	U          float64 `toml:"U" yaml:"U"`
	Cona       float64 `toml:"Cona" yaml:"Cona"`
	CanopyCoef float64 `toml:"CanopyCoef" yaml:"CanopyCoef"`
}

// LateralFlowConfig holds lateral outflow parameters.
type LateralFlowConfig struct {
	KLAT           []float64 `toml:"KLAT" yaml:"KLAT"`
	Slope          float64   `toml:"Slope" yaml:"Slope"`
	DischargeWidth float64   `toml:"DischargeWidth" yaml:"DischargeWidth"`
	CatchmentArea  float64   `toml:"CatchmentArea" yaml:"CatchmentArea"`
}

// WaterTableConfig holds water table parameters.
type WaterTableConfig struct {
	Threshold float64 `toml:"Threshold" yaml:"Threshold"`
}

// ReadProfileFile reads a soil profile description from a TOML file
// (extension .toml) or a YAML file (extension .yaml or .yml).
func ReadProfileFile(filename string) (*ProfileConfig, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("soilwat: problem opening profile file: %v", err)
	}
	defer f.Close()
	config := new(ProfileConfig)
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".toml":
		err = decodeTOML(f, config)
	case ".yaml", ".yml":
		err = decodeYAML(f, config)
	default:
		return nil, fmt.Errorf("soilwat: unsupported profile file extension '%s'; valid options are .toml, .yaml, and .yml", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("soilwat: problem reading profile file %s: %v", filename, err)
	}
	if config.Name == "" {
		config.Name = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	}
	config.InitialWater = os.ExpandEnv(config.InitialWater)
	return config, nil
}

func decodeTOML(r io.Reader, config *ProfileConfig) error {
	md, err := toml.DecodeReader(r, config)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unrecognized configuration variable(s): %v", undecoded)
	}
	return nil
}

func decodeYAML(r io.Reader, config *ProfileConfig) error {
	d := yaml.NewDecoder(r)
	d.KnownFields(true)
	return d.Decode(config)
}

// Column is a soil column that is ready to be simulated.
type Column struct {
	Name string
	*soilwat.SoilWater

	// Pools holds the solute pools, by solute name.
	Pools map[string]*soilwat.MemoryPool
}

// NewColumn creates a soil column from the configuration. It returns
// an error if the layers, the initial water, or any sub-model parameters
// are invalid.
func (c *ProfileConfig) NewColumn() (*Column, error) {
	p, err := c.profile()
	if err != nil {
		return nil, err
	}
	var w *soilwat.WaterState
	if c.InitialSW != nil {
		w, err = soilwat.NewWaterStateVolumetric(p, c.InitialSW)
	} else {
		limit := c.InitialWater
		if limit == "" {
			limit = "DUL"
		}
		w, err = soilwat.NewWaterStateAt(p, limit)
	}
	if err != nil {
		return nil, err
	}
	sw, err := soilwat.NewSoilWater(p, w)
	if err != nil {
		return nil, err
	}
	col := &Column{
		Name:      c.Name,
		SoilWater: sw,
		Pools:     make(map[string]*soilwat.MemoryPool),
	}
	if err := c.addSolutes(col); err != nil {
		return nil, err
	}
	if err := c.setSubModels(col); err != nil {
		return nil, err
	}
	return col, nil
}

// profile creates the soil profile and checks that its layers are
// physically possible.
func (c *ProfileConfig) profile() (*soilwat.Profile, error) {
	n := len(c.Thickness)
	for name, v := range map[string][]float64{
		"AirDry": c.AirDry,
		"LL15":   c.LL15,
		"DUL":    c.DUL,
		"SAT":    c.SAT,
		"BD":     c.BD,
	} {
		if len(v) != n {
			return nil, fmt.Errorf("soilwat: %d %s values for %d layers", len(v), name, n)
		}
	}
	layers := make([]soilwat.Layer, n)
	for i := range layers {
		layers[i] = soilwat.Layer{
			Thickness: c.Thickness[i],
			AirDry:    c.AirDry[i],
			LL15:      c.LL15[i],
			DUL:       c.DUL[i],
			SAT:       c.SAT[i],
			BD:        c.BD[i],
		}
	}
	p, err := soilwat.NewProfile(layers...)
	if err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// addSolutes registers the solutes in alphabetical order.
func (c *ProfileConfig) addSolutes(col *Column) error {
	names := make([]string, 0, len(c.Solutes))
	for n := range c.Solutes {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		s := c.Solutes[n]
		down, up := efficiency(s.DownEfficiency), efficiency(s.UpEfficiency)
		if down < 0 || down > 1 || up < 0 || up > 1 {
			return fmt.Errorf("soilwat: solute %s efficiencies must be in [0, 1]", n)
		}
		for i, v := range s.Initial {
			if v < 0 {
				return fmt.Errorf("soilwat: solute %s layer %d is %g but must be >= 0", n, i, v)
			}
		}
		pool := soilwat.NewMemoryPool(s.Initial)
		if err := col.AddSolute(n, pool, down, up); err != nil {
			return err
		}
		col.Pools[n] = pool
	}
	return nil
}

func efficiency(e *float64) float64 {
	if e == nil {
		return 1
	}
	return *e
}

// setSubModels creates and checks the sub-models that are configured.
func (c *ProfileConfig) setSubModels(col *Column) error {
	p := col.Profile()
	if r := c.Runoff; r != nil {
		m := &curvenumber.CurveNumber{CN2Bare: r.CN2Bare, CNRed: r.CNRed, CNCov: r.CNCov}
		if err := m.Check(); err != nil {
			return err
		}
		col.Runoff = m
	}
	if s := c.SaturatedFlow; s != nil {
		m := &swcon.Drainage{SWCON: s.SWCON, KS: s.KS}
		if err := m.Check(p); err != nil {
			return err
		}
		col.SaturatedFlow = m
	}
	if u := c.UnsaturatedFlow; u != nil {
		m := &diffusivity.Flow{DiffusConst: u.DiffusConst, DiffusSlope: u.DiffusSlope}
		if err := m.Check(); err != nil {
			return err
		}
		col.UnsaturatedFlow = m
	}
	if e := c.Evaporation; e != nil {
		m := &ritchie.Evaporation{U: e.U, Cona: e.Cona, CanopyCoef: e.CanopyCoef}
		if err := m.Check(); err != nil {
			return err
		}
		col.Evaporation = m
	}
	if l := c.LateralFlow; l != nil {
		m := &klat.LateralFlow{
			KLAT:           l.KLAT,
			Slope:          l.Slope,
			DischargeWidth: l.DischargeWidth,
			CatchmentArea:  l.CatchmentArea,
		}
		if err := m.Check(p); err != nil {
			return err
		}
		col.LateralFlow = m
	}
	if w := c.WaterTable; w != nil {
		m := &watertable.Depth{Threshold: w.Threshold}
		if err := m.Check(); err != nil {
			return err
		}
		col.WaterTable = m
	}
	return nil
}
