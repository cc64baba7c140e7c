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
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spatialmodel/soilwat"
	"github.com/spf13/cast"
)

// dateFormat is the format of dates in forcing files.
const dateFormat = "2006-01-02"

// ForcingDay holds the weather and management inputs for one day.
type ForcingDay struct {
	Date time.Time
	soilwat.DayInputs
}

// forcingColumns are the recognized forcing file columns.
var forcingColumns = map[string]func(d *ForcingDay, v string) error{
	"date": func(d *ForcingDay, v string) (err error) {
		d.Date, err = time.Parse(dateFormat, v)
		return
	},
	"rain":             floatColumn(func(d *ForcingDay) *float64 { return &d.PotentialInfiltration }),
	"pet":              floatColumn(func(d *ForcingDay) *float64 { return &d.PotentialEvapotranspiration }),
	"cover":            floatColumn(func(d *ForcingDay) *float64 { return &d.Cover }),
	"runon":            floatColumn(func(d *ForcingDay) *float64 { return &d.Runon }),
	"irrigation":       floatColumn(func(d *ForcingDay) *float64 { return &d.Irrigation.Applied }),
	"irrigation_depth": floatColumn(func(d *ForcingDay) *float64 { return &d.Irrigation.Depth }),
	"irrigation_runoff": func(d *ForcingDay, v string) (err error) {
		if v == "" {
			return nil
		}
		d.Irrigation.WillRunoff, err = cast.ToBoolE(v)
		return
	},
}

func floatColumn(field func(d *ForcingDay) *float64) func(d *ForcingDay, v string) error {
	return func(d *ForcingDay, v string) (err error) {
		if v == "" {
			return nil
		}
		*field(d), err = cast.ToFloat64E(v)
		return
	}
}

// ReadForcing reads daily forcing data in CSV format. The header must
// contain the columns 'date' (YYYY-MM-DD) and 'rain' [mm], and can
// additionally contain 'pet' [mm], 'cover' [0-1], 'irrigation' [mm],
// 'irrigation_depth' [mm], 'irrigation_runoff' [true/false], and
// 'runon' [mm]. Blank values are zero. The days must be in order.
func ReadForcing(r io.Reader) ([]ForcingDay, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("soilwat: reading forcing header: %v", err)
	}
	setters := make([]func(d *ForcingDay, v string) error, len(header))
	found := make(map[string]bool)
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		f, ok := forcingColumns[h]
		if !ok {
			return nil, fmt.Errorf("soilwat: unrecognized forcing column '%s'", header[i])
		}
		setters[i] = f
		found[h] = true
	}
	for _, h := range []string{"date", "rain"} {
		if !found[h] {
			return nil, fmt.Errorf("soilwat: forcing file is missing the '%s' column", h)
		}
	}

	var days []ForcingDay
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("soilwat: reading forcing: %v", err)
		}
		var d ForcingDay
		for i, v := range rec {
			if err := setters[i](&d, strings.TrimSpace(v)); err != nil {
				return nil, fmt.Errorf("soilwat: forcing line %d column '%s': %v", line, header[i], err)
			}
		}
		if n := len(days); n > 0 && !d.Date.After(days[n-1].Date) {
			return nil, fmt.Errorf("soilwat: forcing line %d: date %s is not after %s",
				line, d.Date.Format(dateFormat), days[n-1].Date.Format(dateFormat))
		}
		days = append(days, d)
	}
	return days, nil
}

// ReadForcingFile reads the forcing file at path and returns the days
// between start and end, inclusive. A zero start or end leaves the
// range open on that side.
func ReadForcingFile(path string, start, end time.Time) ([]ForcingDay, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("soilwat: problem opening forcing file: %v", err)
	}
	defer f.Close()
	days, err := ReadForcing(f)
	if err != nil {
		return nil, err
	}
	var o []ForcingDay
	for _, d := range days {
		if !start.IsZero() && d.Date.Before(start) {
			continue
		}
		if !end.IsZero() && d.Date.After(end) {
			continue
		}
		o = append(o, d)
	}
	if len(o) == 0 {
		return nil, fmt.Errorf("soilwat: no forcing data between the start and end dates")
	}
	return o, nil
}
