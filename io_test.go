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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Knetic/govaluate"
	"github.com/kr/pretty"
	"github.com/tealeg/xlsx"
	"gonum.org/v1/gonum/floats"
)

func testOutputRun(t *testing.T, o *Outputter) {
	s := testSoilWater(t, "DUL")
	s.SaturatedFlow = fixedFlux([]float64{5, 3, 1}, 0)
	if err := s.AddSolute(Nitrate, NewMemoryPool([]float64{10, 5, 2}), 1, 1); err != nil {
		t.Fatal(err)
	}
	if err := s.AddSolute(Ammonium, NewMemoryPool([]float64{2, 1, 1}), 1, 1); err != nil {
		t.Fatal(err)
	}
	if err := o.CheckOutputVars(s); err != nil {
		t.Fatal(err)
	}
	date := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		r, err := s.AdvanceOneDay(DayInputs{PotentialInfiltration: 5})
		if err != nil {
			t.Fatal(err)
		}
		if err := o.Record(date.AddDate(0, 0, i), r); err != nil {
			t.Fatal(err)
		}
	}
}

func TestOutputterExpressions(t *testing.T) {
	o, err := NewOutputter("out.csv", map[string]string{
		"TotalN":    "sum(NO3) + sum(NH4)",
		"TopWater":  "layer(Water, 0)",
		"NetWater":  "Infiltration - Drainage",
		"DoubleNet": "NetWater * 2",
		"Leached":   "LeachedNO3 + LeachedNH4",
		"Triple":    "triple(Drainage)",
	}, map[string]govaluate.ExpressionFunction{
		"triple": func(arg ...interface{}) (interface{}, error) { return 3 * arg[0].(float64), nil },
	})
	if err != nil {
		t.Fatal(err)
	}
	wantVars := []string{"Drainage", "Infiltration", "LeachedNH4", "LeachedNO3", "NH4", "NO3", "Water"}
	if !equalStrings(o.modelVariables, wantVars) {
		t.Errorf("model variables: %v", pretty.Diff(o.modelVariables, wantVars))
	}
	testOutputRun(t, o)
	res := o.Results()
	if !floats.EqualApprox(res["NetWater"], []float64{4, 4, 4}, testTolerance) {
		t.Errorf("NetWater: %v", res["NetWater"])
	}
	if !floats.EqualApprox(res["DoubleNet"], []float64{8, 8, 8}, testTolerance) {
		t.Errorf("DoubleNet: %v", res["DoubleNet"])
	}
	if !floats.EqualApprox(res["Triple"], []float64{3, 3, 3}, testTolerance) {
		t.Errorf("Triple: %v", res["Triple"])
	}
	if !floats.EqualApprox(res["TopWater"], []float64{45, 45, 45}, testTolerance) {
		t.Errorf("TopWater: %v", res["TopWater"])
	}
	// Total nitrogen only decreases by leaching.
	for i := range res["TotalN"] {
		before := 21.
		if i > 0 {
			before = res["TotalN"][i-1]
		}
		if different(res["TotalN"][i], before-res["Leached"][i], 1.e-9) {
			t.Errorf("day %d: nitrogen balance: %g != %g - %g", i, res["TotalN"][i], before, res["Leached"][i])
		}
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestOutputterErrors(t *testing.T) {
	if _, err := NewOutputter("out.csv", map[string]string{"A": "B +"}, nil); err == nil {
		t.Error("invalid expression should be rejected")
	}
	if _, err := NewOutputter("out.csv", map[string]string{"A": "B", "B": "A"}, nil); err == nil {
		t.Error("cyclic definitions should be rejected")
	}
	o, err := NewOutputter("out.csv", map[string]string{"A": "Rainfall"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := o.CheckOutputVars(testSoilWater(t, "DUL")); err == nil {
		t.Error("undefined variable should be rejected")
	}
	o, err = NewOutputter("out.csv", map[string]string{"A": "Water"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	s := testSoilWater(t, "DUL")
	r, err := s.AdvanceOneDay(DayInputs{})
	if err != nil {
		t.Fatal(err)
	}
	if err := o.Record(time.Now(), r); err == nil {
		t.Error("per-layer output without a reducing function should be rejected")
	}
}

func TestOutputFormats(t *testing.T) {
	dir, err := os.MkdirTemp("", "soilwat")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	vars := map[string]string{"Drainage": "Drainage", "TotalWater": "TotalWater"}

	t.Run("csv", func(t *testing.T) {
		o, err := NewOutputter(filepath.Join(dir, "out.csv"), vars, nil)
		if err != nil {
			t.Fatal(err)
		}
		testOutputRun(t, o)
		if err := o.Output(); err != nil {
			t.Fatal(err)
		}
		f, err := os.Open(o.FileName())
		if err != nil {
			t.Fatal(err)
		}
		defer f.Close()
		recs, err := csv.NewReader(f).ReadAll()
		if err != nil {
			t.Fatal(err)
		}
		want := [][]string{
			{"date", "Drainage", "TotalWater"},
			{"2019-01-01", "1", "128.5"},
			{"2019-01-02", "1", "132.5"},
			{"2019-01-03", "1", "136.5"},
		}
		if diff := pretty.Diff(recs, want); len(diff) > 0 {
			t.Error(diff)
		}
	})

	t.Run("xlsx", func(t *testing.T) {
		o, err := NewOutputter(filepath.Join(dir, "out.xlsx"), vars, nil)
		if err != nil {
			t.Fatal(err)
		}
		testOutputRun(t, o)
		if err := o.Output(); err != nil {
			t.Fatal(err)
		}
		f, err := xlsx.OpenFile(o.FileName())
		if err != nil {
			t.Fatal(err)
		}
		sheet := f.Sheet["SoilWat"]
		if sheet == nil {
			t.Fatal("missing sheet")
		}
		if len(sheet.Rows) != 4 {
			t.Errorf("want 4 rows, have %d", len(sheet.Rows))
		}
		if v := sheet.Rows[0].Cells[1].Value; v != "Drainage" {
			t.Errorf("header: %s", v)
		}
	})

	t.Run("sqlite", func(t *testing.T) {
		o, err := NewOutputter(filepath.Join(dir, "out.sqlite"), vars, nil)
		if err != nil {
			t.Fatal(err)
		}
		testOutputRun(t, o)
		if err := o.Output(); err != nil {
			t.Fatal(err)
		}
		db, err := sql.Open("sqlite", o.FileName())
		if err != nil {
			t.Fatal(err)
		}
		defer db.Close()
		var total float64
		if err := db.QueryRow(`SELECT SUM("TotalWater") FROM results`).Scan(&total); err != nil {
			t.Fatal(err)
		}
		if different(total, 128.5+132.5+136.5, testTolerance) {
			t.Errorf("total: %g", total)
		}
	})

	t.Run("unsupported", func(t *testing.T) {
		o, err := NewOutputter(filepath.Join(dir, "out.shp"), vars, nil)
		if err != nil {
			t.Fatal(err)
		}
		if err := o.Output(); err == nil {
			t.Error("unsupported extension should be rejected")
		}
	})
}

func TestOutputOptions(t *testing.T) {
	s := testSoilWater(t, "DUL")
	if err := s.AddSolute(Nitrate, NewMemoryPool([]float64{1, 1, 1}), 1, 1); err != nil {
		t.Fatal(err)
	}
	names, descs, units := s.OutputOptions()
	if len(names) != len(descs) || len(names) != len(units) {
		t.Fatal("mismatched output options")
	}
	var found bool
	for i, n := range names {
		if n == "LeachedNO3" {
			found = true
			if units[i] != "kg/ha" {
				t.Errorf("units: %s", units[i])
			}
		}
	}
	if !found {
		t.Error("missing LeachedNO3")
	}
}
