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
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/soilwat"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// RunBatch runs the model for several independent soil columns, one
// for each of ProfileFiles, driven by the same forcing data. Each column
// is simulated in its own goroutine with its own state, and at most
// NumWorkers columns are simulated at once. If NumWorkers is less than
// one, all columns are simulated at once.
//
// The results for each column are written to OutputFile with the name
// of the profile file appended. The other arguments are the same as
// for Run. The first column to fail stops the others, and its error
// is returned.
func RunBatch(ctx context.Context, CobraCommand *cobra.Command, LogFile string, OutputFile string,
	OutputVariables map[string]string, ProfileFiles []string, ForcingFile string,
	StartDate, EndDate time.Time, NumWorkers int) error {

	startTime := time.Now()

	if len(ProfileFiles) == 0 {
		return fmt.Errorf("soilwat: no Profiles specified for the batch")
	}

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

	// The output paths are determined before the columns start
	// because the uploader is not safe for concurrent use.
	outputFiles := make([]string, len(ProfileFiles))
	seen := make(map[string]string)
	for i, p := range ProfileFiles {
		f := columnOutputFile(OutputFile, p)
		if other, ok := seen[f]; ok {
			return fmt.Errorf("soilwat: profiles %s and %s would both be written to %s", other, p, f)
		}
		seen[f] = p
		outputFiles[i] = upload.maybeUpload(f)
	}
	if upload.err != nil {
		return upload.err
	}

	log.Info("Reading forcing data...")
	days, err := ReadForcingFile(ForcingFile, StartDate, EndDate)
	if err != nil {
		return err
	}

	log.Infof("Simulating %d columns for %d days...", len(ProfileFiles), len(days))
	g, gctx := errgroup.WithContext(ctx)
	if NumWorkers > 0 {
		g.SetLimit(NumWorkers)
	}
	for i, profileFile := range ProfileFiles {
		i, profileFile := i, profileFile
		g.Go(func() error {
			return runColumn(gctx, log, profileFile, outputFiles[i], OutputVariables, days)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	log.Infof("Batch completed in %v.", time.Since(startTime))
	logClosed = true
	if err := logfile.Close(); err != nil {
		return fmt.Errorf("soilwat: closing log file: %v", err)
	}
	return upload.uploadOutput(ctx)
}

// runColumn simulates one column of a batch and writes its output.
func runColumn(ctx context.Context, log *logrus.Logger, profileFile, outputFile string,
	outputVariables map[string]string, days []ForcingDay) error {
	c, err := loadColumn(profileFile)
	if err != nil {
		return err
	}
	clog := log.WithField("column", c.Name)
	c.Log = clog
	o, err := soilwat.NewOutputter(outputFile, outputVariables, nil)
	if err != nil {
		return err
	}
	if err := o.CheckOutputVars(c.SoilWater); err != nil {
		return err
	}
	simErr := simulate(ctx, c, days, o)
	if err := o.Output(); err != nil {
		return err
	}
	if simErr != nil {
		return simErr
	}
	clog.WithField("total water", c.Water().Total()).Info("Column complete.")
	return nil
}
