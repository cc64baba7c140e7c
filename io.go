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
	"database/sql"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Knetic/govaluate"
	"github.com/tealeg/xlsx"
	"gonum.org/v1/gonum/floats"

	// sqlite driver for database output.
	_ "modernc.org/sqlite"
)

// outputVar describes a model variable that is available for output.
type outputVar struct {
	desc, units string
	vector      bool
	value       func(r *DayResult) interface{}
}

// modelVars returns the variables that can be used in output
// expressions for a simulation with the given solutes.
func modelVars(solutes []string) map[string]outputVar {
	scalar := func(desc, units string, f func(r *DayResult) float64) outputVar {
		return outputVar{desc: desc, units: units, value: func(r *DayResult) interface{} { return f(r) }}
	}
	vector := func(desc, units string, f func(r *DayResult) []float64) outputVar {
		return outputVar{desc: desc, units: units, vector: true, value: func(r *DayResult) interface{} { return f(r) }}
	}
	v := map[string]outputVar{
		"Runoff":            scalar("Surface runoff", "mm", func(r *DayResult) float64 { return r.Runoff }),
		"Infiltration":      scalar("Infiltration", "mm", func(r *DayResult) float64 { return r.Infiltration }),
		"Drainage":          scalar("Drainage out of the bottom of the profile", "mm", func(r *DayResult) float64 { return r.Drainage }),
		"Evaporation":       scalar("Soil evaporation", "mm", func(r *DayResult) float64 { return r.Evaporation }),
		"BackedUp":          scalar("Surface water unable to infiltrate", "mm", func(r *DayResult) float64 { return r.BackedUp }),
		"IrrigationApplied": scalar("Subsurface irrigation", "mm", func(r *DayResult) float64 { return r.IrrigationApplied }),
		"WaterTableDepth":   scalar("Depth to the water table", "mm", func(r *DayResult) float64 { return r.WaterTableDepth }),
		"TotalWater":        scalar("Water in the profile", "mm", func(r *DayResult) float64 { return floats.Sum(r.Water) }),
		"Water":             vector("Water in each layer", "mm", func(r *DayResult) []float64 { return r.Water }),
		"Flux":              vector("Saturated flow out of each layer", "mm", func(r *DayResult) []float64 { return r.Flux }),
		"Flow":              vector("Unsaturated flow into each layer", "mm", func(r *DayResult) []float64 { return r.Flow }),
		"LateralFlow":       vector("Lateral outflow from each layer", "mm", func(r *DayResult) []float64 { return r.LateralFlow }),
	}
	for _, s := range solutes {
		name := s
		v[name] = vector(name+" in each layer", "kg/ha", func(r *DayResult) []float64 { return r.Solutes[name] })
		v["Leached"+name] = scalar(name+" leached out of the bottom of the profile", "kg/ha",
			func(r *DayResult) float64 { return r.Leached[name] })
	}
	return v
}

// OutputOptions returns the names of the variables that can be used
// in output expressions, along with their descriptions and units.
func (s *SoilWater) OutputOptions() (names []string, descriptions []string, units []string) {
	vars := modelVars(s.Solutes())
	for n := range vars {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		descriptions = append(descriptions, vars[n].desc)
		units = append(units, vars[n].units)
	}
	return
}

// Outputter evaluates output expressions for each simulated day and
// writes the results to a file.
//
// fileName is where the output will be saved. The format is chosen by
// the extension: ".csv", ".xlsx", or ".sqlite".
//
// outputVariables maps the names of output columns to expressions
// that define how they are calculated. Expressions can use the model
// variables listed by SoilWater.OutputOptions, other output variables,
// and functions.
type Outputter struct {
	fileName        string
	outputVariables map[string]string
	modelVariables  []string
	outputFunctions map[string]govaluate.ExpressionFunction

	names       []string
	expressions []*govaluate.EvaluableExpression

	dates []time.Time
	rows  [][]float64
}

// NewOutputter initializes a new Outputter and adds a set of default
// output functions:
//
// 'exp(x)' which applies the exponential function e^x.
//
// 'sum(x)' which sums a per-layer variable across all layers.
//
// 'mean(x)' which averages a per-layer variable across all layers.
//
// 'layer(x, i)' which returns the value of a per-layer variable in layer i,
// counting from zero at the surface.
func NewOutputter(fileName string, outputVariables map[string]string, outputFunctions map[string]govaluate.ExpressionFunction) (*Outputter, error) {
	funcs := map[string]govaluate.ExpressionFunction{
		"exp": func(arg ...interface{}) (interface{}, error) {
			if len(arg) != 1 {
				return nil, fmt.Errorf("soilwat: got %d arguments for function 'exp', but needs 1", len(arg))
			}
			return math.Exp(arg[0].(float64)), nil
		},
		"sum": func(arg ...interface{}) (interface{}, error) {
			if len(arg) != 1 {
				return nil, fmt.Errorf("soilwat: got %d arguments for function 'sum', but needs 1", len(arg))
			}
			return floats.Sum(arg[0].([]float64)), nil
		},
		"mean": func(arg ...interface{}) (interface{}, error) {
			if len(arg) != 1 {
				return nil, fmt.Errorf("soilwat: got %d arguments for function 'mean', but needs 1", len(arg))
			}
			v := arg[0].([]float64)
			return floats.Sum(v) / float64(len(v)), nil
		},
		"layer": func(arg ...interface{}) (interface{}, error) {
			if len(arg) != 2 {
				return nil, fmt.Errorf("soilwat: got %d arguments for function 'layer', but needs 2", len(arg))
			}
			v := arg[0].([]float64)
			i := int(arg[1].(float64))
			if i < 0 || i >= len(v) {
				return nil, fmt.Errorf("soilwat: layer %d out of range [0, %d)", i, len(v))
			}
			return v[i], nil
		},
	}
	for key, val := range outputFunctions {
		funcs[key] = val
	}
	o := &Outputter{
		fileName:        os.ExpandEnv(fileName),
		outputVariables: make(map[string]string),
		outputFunctions: funcs,
	}
	for k, v := range outputVariables {
		o.outputVariables[k] = v
	}
	if err := o.checkForDerivatives(0); err != nil {
		return nil, err
	}
	for n := range o.outputVariables {
		o.names = append(o.names, n)
	}
	sort.Strings(o.names)
	for _, n := range o.names {
		e, err := govaluate.NewEvaluableExpressionWithFunctions(o.outputVariables[n], o.outputFunctions)
		if err != nil {
			return nil, fmt.Errorf("soilwat: output variable '%s': %v", n, err)
		}
		o.expressions = append(o.expressions, e)
	}
	return o, nil
}

// maxDerivativeDepth limits how deeply output variables can be
// defined in terms of each other.
const maxDerivativeDepth = 20

// checkForDerivatives replaces any output variable that appears in
// another output variable's expression with the expression that
// defines it, and records the unique model variables required to
// calculate the output.
func (o *Outputter) checkForDerivatives(depth int) error {
	if depth > maxDerivativeDepth {
		return fmt.Errorf("soilwat: output variables are defined in terms of each other in a cycle")
	}
	o.modelVariables = o.modelVariables[:0]
	for key, val := range o.outputVariables {
		expression, err := govaluate.NewEvaluableExpressionWithFunctions(val, o.outputFunctions)
		if err != nil {
			return fmt.Errorf("soilwat: output variable '%s': %v", key, err)
		}
		for _, v := range removeDuplicates(expression.Vars()) {
			def, ok := o.outputVariables[v]
			if !ok || def == v || v == key {
				o.modelVariables = append(o.modelVariables, v)
				continue
			}
			re := regexp.MustCompile(`\b` + regexp.QuoteMeta(v) + `\b`)
			o.outputVariables[key] = re.ReplaceAllString(val, "("+def+")")
			return o.checkForDerivatives(depth + 1)
		}
	}
	o.modelVariables = removeDuplicates(o.modelVariables)
	sort.Strings(o.modelVariables)
	return nil
}

// removeDuplicates returns the unique strings in s, in order.
func removeDuplicates(s []string) []string {
	result := make([]string, 0, len(s))
	seen := make(map[string]struct{})
	for _, val := range s {
		if _, ok := seen[val]; !ok {
			result = append(result, val)
			seen[val] = struct{}{}
		}
	}
	return result
}

// Names returns the names of the output variables in the order they
// are written.
func (o *Outputter) Names() []string { return o.names }

// CheckOutputVars ensures the output variables can be calculated from
// the variables available in s.
func (o *Outputter) CheckOutputVars(s *SoilWater) error {
	vars := modelVars(s.Solutes())
	for _, v := range o.modelVariables {
		if _, ok := vars[v]; !ok {
			return fmt.Errorf("soilwat: undefined variable name '%s'", v)
		}
	}
	return nil
}

// Record evaluates the output expressions for the day ending on date.
func (o *Outputter) Record(date time.Time, r *DayResult) error {
	solutes := make([]string, 0, len(r.Leached))
	for n := range r.Leached {
		solutes = append(solutes, n)
	}
	vars := modelVars(solutes)
	params := make(map[string]interface{}, len(o.modelVariables))
	for _, v := range o.modelVariables {
		mv, ok := vars[v]
		if !ok {
			return fmt.Errorf("soilwat: undefined variable name '%s'", v)
		}
		params[v] = mv.value(r)
	}
	row := make([]float64, len(o.expressions))
	for i, e := range o.expressions {
		v, err := e.Evaluate(params)
		if err != nil {
			return fmt.Errorf("soilwat: evaluating '%s' on %s: %v", o.names[i], date.Format(dateFormat), err)
		}
		f, ok := v.(float64)
		if !ok {
			return fmt.Errorf("soilwat: output variable '%s' is not a number; use a function such as sum() for per-layer variables", o.names[i])
		}
		row[i] = f
	}
	o.dates = append(o.dates, date)
	o.rows = append(o.rows, row)
	return nil
}

// Results returns the recorded values of each output variable.
func (o *Outputter) Results() map[string][]float64 {
	res := make(map[string][]float64, len(o.names))
	for j, n := range o.names {
		v := make([]float64, len(o.rows))
		for i, row := range o.rows {
			v[i] = row[j]
		}
		res[n] = v
	}
	return res
}

// dateFormat is the format of dates in input and output files.
const dateFormat = "2006-01-02"

// FileName returns the path the output is written to.
func (o *Outputter) FileName() string { return o.fileName }

// Output writes the recorded results to the output file.
func (o *Outputter) Output() error {
	if err := os.MkdirAll(filepath.Dir(o.fileName), os.ModePerm); err != nil {
		return fmt.Errorf("soilwat: creating output directory: %v", err)
	}
	switch ext := strings.ToLower(filepath.Ext(o.fileName)); ext {
	case ".csv":
		return o.writeCSV()
	case ".xlsx":
		return o.writeXLSX()
	case ".sqlite", ".db":
		return o.writeSQLite()
	default:
		return fmt.Errorf("soilwat: unsupported output file extension '%s'; valid options are .csv, .xlsx, and .sqlite", ext)
	}
}

func (o *Outputter) writeCSV() error {
	f, err := os.Create(o.fileName)
	if err != nil {
		return fmt.Errorf("soilwat: creating output file: %v", err)
	}
	w := csv.NewWriter(f)
	w.Write(append([]string{"date"}, o.names...))
	for i, row := range o.rows {
		rec := make([]string, len(row)+1)
		rec[0] = o.dates[i].Format(dateFormat)
		for j, v := range row {
			rec[j+1] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		w.Write(rec)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("soilwat: writing output file: %v", err)
	}
	return f.Close()
}

func (o *Outputter) writeXLSX() error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("SoilWat")
	if err != nil {
		return fmt.Errorf("soilwat: creating output sheet: %v", err)
	}
	header := sheet.AddRow()
	header.AddCell().SetString("date")
	for _, n := range o.names {
		header.AddCell().SetString(n)
	}
	for i, row := range o.rows {
		r := sheet.AddRow()
		r.AddCell().SetString(o.dates[i].Format(dateFormat))
		for _, v := range row {
			r.AddCell().SetFloat(v)
		}
	}
	if err := file.Save(o.fileName); err != nil {
		return fmt.Errorf("soilwat: writing output file: %v", err)
	}
	return nil
}

func (o *Outputter) writeSQLite() error {
	os.Remove(o.fileName)
	db, err := sql.Open("sqlite", o.fileName)
	if err != nil {
		return fmt.Errorf("soilwat: opening output database: %v", err)
	}
	defer db.Close()

	cols := make([]string, len(o.names))
	marks := make([]string, len(o.names))
	for i, n := range o.names {
		cols[i] = strconv.Quote(n) + " REAL"
		marks[i] = "?"
	}
	schema := fmt.Sprintf(`CREATE TABLE results (date TEXT PRIMARY KEY, %s)`, strings.Join(cols, ", "))
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("soilwat: creating output table: %v", err)
	}
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("soilwat: writing output database: %v", err)
	}
	stmt, err := tx.Prepare(fmt.Sprintf(`INSERT INTO results VALUES (?, %s)`, strings.Join(marks, ", ")))
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("soilwat: writing output database: %v", err)
	}
	defer stmt.Close()
	for i, row := range o.rows {
		args := make([]interface{}, len(row)+1)
		args[0] = o.dates[i].Format(dateFormat)
		for j, v := range row {
			args[j+1] = v
		}
		if _, err := stmt.Exec(args...); err != nil {
			tx.Rollback()
			return fmt.Errorf("soilwat: writing output database: %v", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("soilwat: writing output database: %v", err)
	}
	return nil
}
