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
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/soilwat"
	"github.com/spf13/cobra"
)

// newLogger returns a logger that writes to w.
func newLogger(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.Out = w
	l.Formatter = &logrus.TextFormatter{DisableColors: true, FullTimestamp: true}
	return l
}

// loadColumn reads a profile file and creates the soil column it
// describes.
func loadColumn(profileFile string) (*Column, error) {
	config, err := ReadProfileFile(profileFile)
	if err != nil {
		return nil, err
	}
	c, err := config.NewColumn()
	if err != nil {
		return nil, fmt.Errorf("soilwat: profile %s: %w", config.Name, err)
	}
	return c, nil
}

// simulate advances c through each of the days, recording the results
// in o. It stops at the first day that fails.
func simulate(ctx context.Context, c *Column, days []ForcingDay, o *soilwat.Outputter) error {
	for _, d := range days {
		if err := ctx.Err(); err != nil {
			return err
		}
		r, err := c.AdvanceOneDay(d.DayInputs)
		if err != nil {
			return fmt.Errorf("soilwat: column %s on %s: %w", c.Name, d.Date.Format(dateFormat), err)
		}
		if err := o.Record(d.Date, r); err != nil {
			return err
		}
	}
	return nil
}

// Run runs the model for a single soil column.
//
// CobraCommand is the cobra.Command instance where Run is called from.
// Log messages are written to its output as well as to LogFile.
//
// LogFile is the path to the desired logfile location.
//
// OutputFile is the path to the desired output file location, and
// OutputVariables specifies the expressions that are calculated for
// each day and written to it.
//
// ProfileFile and ForcingFile are the paths to the soil profile and
// daily forcing files.
//
// StartDate and EndDate give the range of days to simulate. Zero values
// leave the range open on that side.
//
// Checkpoint, if not empty, is where the state of the column is saved
// at the end of the simulation. If Resume is true, the state is loaded
// from Checkpoint before the simulation starts. Checkpoint may be a
// blob storage location, in which case it is downloaded for loading
// and the new state is uploaded back to it.
//
// If a day fails, the results of the preceding days are still written
// to OutputFile before the error is returned.
func Run(CobraCommand *cobra.Command, LogFile string, OutputFile string, OutputVariables map[string]string,
	ProfileFile, ForcingFile string, StartDate, EndDate time.Time, Checkpoint string, Resume bool) error {

	startTime := time.Now()
	ctx := context.TODO()

	var upload uploader

	logfile, err := os.Create(upload.maybeUpload(LogFile))
	if err != nil {
		return fmt.Errorf("soilwat: problem creating log file: %v", err)
	}
	logClosed := false
	defer func() {
		if !logClosed {
			logfile.Close()
		}
	}()
	log := newLogger(io.MultiWriter(CobraCommand.OutOrStdout(), logfile))

	o, err := soilwat.NewOutputter(upload.maybeUpload(OutputFile), OutputVariables, nil)
	if err != nil {
		return err
	}
	var checkpointOut string
	if Checkpoint != "" {
		checkpointOut = upload.maybeUpload(Checkpoint)
	}
	if upload.err != nil {
		return upload.err
	}

	log.Info("Reading soil profile...")
	c, err := loadColumn(ProfileFile)
	if err != nil {
		return err
	}
	c.Log = log.WithField("column", c.Name)
	if err := o.CheckOutputVars(c.SoilWater); err != nil {
		return err
	}

	if Resume {
		log.Infof("Loading checkpoint %s...", Checkpoint)
		if err := loadCheckpoint(ctx, c, Checkpoint); err != nil {
			return err
		}
	}

	log.Info("Reading forcing data...")
	days, err := ReadForcingFile(ForcingFile, StartDate, EndDate)
	if err != nil {
		return err
	}

	log.Infof("Simulating %d days from %s to %s...", len(days),
		days[0].Date.Format(dateFormat), days[len(days)-1].Date.Format(dateFormat))
	simErr := simulate(ctx, c, days, o)

	log.Infof("Writing output to %s...", OutputFile)
	if err := o.Output(); err != nil {
		return err
	}
	if simErr != nil {
		return simErr
	}

	if checkpointOut != "" {
		log.Infof("Saving checkpoint to %s...", Checkpoint)
		if err := saveCheckpoint(c, checkpointOut); err != nil {
			return err
		}
	}

	log.WithFields(logrus.Fields{
		"days":        len(days),
		"total water": c.Water().Total(),
	}).Infof("Simulation completed in %v.", time.Since(startTime))

	logClosed = true
	if err := logfile.Close(); err != nil {
		return fmt.Errorf("soilwat: closing log file: %v", err)
	}
	return upload.uploadOutput(ctx)
}

// loadCheckpoint loads the state of c from path, downloading it first
// if it is in blob storage or at a URL.
func loadCheckpoint(ctx context.Context, c *Column, path string) error {
	local := maybeDownload(ctx, path, nil)
	if local != path {
		defer os.RemoveAll(filepath.Dir(local))
	}
	f, err := os.Open(local)
	if err != nil {
		return fmt.Errorf("soilwat: opening checkpoint: %v", err)
	}
	defer f.Close()
	return c.Load(f)
}

func saveCheckpoint(c *Column, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("soilwat: creating checkpoint: %v", err)
	}
	if err := c.Save(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// columnOutputFile returns the output file for the column described by
// profileFile, which is outputFile with the name of the profile file
// appended.
func columnOutputFile(outputFile, profileFile string) string {
	ext := filepath.Ext(outputFile)
	name := strings.TrimSuffix(filepath.Base(profileFile), filepath.Ext(profileFile))
	return strings.TrimSuffix(outputFile, ext) + "_" + name + ext
}

// Validate checks the soil column described by profileFile and writes
// a summary to w. It returns the first problem found.
func Validate(w io.Writer, profileFile string) error {
	c, err := loadColumn(profileFile)
	if err != nil {
		return err
	}
	p := c.Profile()
	fmt.Fprintf(w, "Profile %s is valid: %d layers, %g mm deep, %.4g mm of water",
		c.Name, p.NumLayers(), p.Depth(), c.Water().Total())
	if s := c.Solutes(); len(s) > 0 {
		fmt.Fprintf(w, ", solutes %s", strings.Join(s, ", "))
	}
	fmt.Fprintln(w, ".")
	return nil
}

// OutputOptions writes the names, units, and descriptions of the model
// variables that are available for output from the soil column described
// by profileFile.
func OutputOptions(w io.Writer, profileFile string) error {
	c, err := loadColumn(profileFile)
	if err != nil {
		return err
	}
	names, descriptions, units := c.OutputOptions()
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "Name\tUnits\tDescription")
	for i, n := range names {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", n, units[i], descriptions[i])
	}
	return tw.Flush()
}
