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

// Package soilwatutil contains the command line interface to the
// SoilWat model, along with the functions that read model inputs and
// drive simulations.
package soilwatutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/soilwat"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to SoilWat.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "ProfileFile",
			usage: `
              ProfileFile is the path to the soil profile description, in
              TOML or YAML format. It can include environment variables and
              can be a URL or a blob storage location (gs://, s3://, file://).`,
			shorthand:  "p",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), validateCmd.Flags(), outputsCmd.Flags()},
		},
		{
			name: "Profiles",
			usage: `
              Profiles is a list of soil profile files to be simulated
              together with the batch command. Each profile is simulated
              as an independent soil column.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{batchCmd.Flags()},
		},
		{
			name: "ForcingFile",
			usage: `
              ForcingFile is the path to the daily weather and management
              CSV file. Its header must include 'date' and 'rain', and can
              include 'pet', 'cover', 'irrigation', 'irrigation_depth',
              'irrigation_runoff', and 'runon'. It can include environment
              variables and can be a URL or a blob storage location.`,
			shorthand:  "f",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), batchCmd.Flags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the path to the desired output file location. The
              format is chosen by the file extension: .csv, .xlsx, or .sqlite.
              It can include environment variables and can be a blob storage
              location. When running a batch, the name of each profile
              file is appended to the output file name.`,
			shorthand:  "o",
			defaultVal: "soilwat_output.csv",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), batchCmd.Flags()},
		},
		{
			name: "LogFile",
			usage: `
              LogFile is the path to the desired logfile location. It can include
              environment variables. If LogFile is left blank, the logfile will be saved in
              the same location as the OutputFile.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), batchCmd.Flags()},
		},
		{
			name: "OutputVariables",
			usage: `
              OutputVariables specifies which model variables should be included in the
              output file, as a map of column names to expressions. It can include
              environment variables. Run 'soilwat outputs' to list the available
              model variables.`,
			defaultVal: map[string]string{
				"Drainage":   "Drainage",
				"Runoff":     "Runoff",
				"TotalWater": "TotalWater",
			},
			flagsets: []*pflag.FlagSet{runCmd.Flags(), batchCmd.Flags()},
		},
		{
			name: "StartDate",
			usage: `
              StartDate is the first day to simulate, in the format YYYY-MM-DD.
              If it is blank, the simulation starts at the beginning of the
              forcing file.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), batchCmd.Flags()},
		},
		{
			name: "EndDate",
			usage: `
              EndDate is the last day to simulate, in the format YYYY-MM-DD.
              If it is blank, the simulation continues to the end of the
              forcing file.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), batchCmd.Flags()},
		},
		{
			name: "Checkpoint",
			usage: `
              Checkpoint is the path where the state of the soil column is
              saved at the end of the simulation. It can include environment
              variables and can be a blob storage location. If it is blank,
              no checkpoint is saved.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Resume",
			usage: `
              If Resume is true, the state of the soil column is loaded
              from the Checkpoint file before the simulation starts. Use
              StartDate to choose the day after the checkpoint was saved.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "NumWorkers",
			usage: `
              NumWorkers is the maximum number of soil columns simulated at
              the same time by the batch command. If it is less than one, all
              columns are simulated at once.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{batchCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("SOILWAT")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case map[string]string:
				b := bytes.NewBuffer(nil)
				e := json.NewEncoder(b)
				e.Encode(option.defaultVal)
				s := string(b.Bytes())
				if option.shorthand == "" {
					set.String(option.name, s, option.usage)
				} else {
					set.StringP(option.name, option.shorthand, s, option.usage)
				}
			default:
				panic("invalid argument type")
			}
		}
		Cfg.BindPFlag(option.name, option.flagsets[0].Lookup(option.name))
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(runCmd)
	Root.AddCommand(batchCmd)
	Root.AddCommand(validateCmd)
	Root.AddCommand(outputsCmd)
}

// outChan returns a channel printing to standard output.
func outChan() chan string {
	outChan := make(chan string)
	go func() {
		for {
			msg := <-outChan
			fmt.Println(msg)
		}
	}()
	return outChan
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("soilwat: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "soilwat",
	Short: "A daily soil water and solute transport model.",
	Long: `SoilWat simulates the daily water balance of a layered soil profile,
including runoff, drainage, evaporation, lateral and unsaturated flow,
and the leaching of nitrate and ammonium.
Use the subcommands specified below to access the model functionality.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'SOILWAT_var' where 'var' is the
name of the variable to be set. Many configuration variables are additionally
allowed to contain environment variables within them.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of SoilWat.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("SoilWat v%s\n", soilwat.Version)
	},
	DisableAutoGenTag: true,
}

// runCmd is a command that simulates a single soil column.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the model.",
	Long: `run simulates a single soil column described by ProfileFile over
the days in ForcingFile and writes the OutputVariables for each day to
OutputFile.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		outChan := outChan()

		outputFile, err := checkOutputFile(Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		vars, err := GetStringMapString("OutputVariables", Cfg)
		if err != nil {
			return err
		}
		vars, err = checkOutputVars(vars)
		if err != nil {
			return err
		}
		start, end, err := dateRange(Cfg.GetString("StartDate"), Cfg.GetString("EndDate"))
		if err != nil {
			return err
		}
		checkpoint := os.ExpandEnv(Cfg.GetString("Checkpoint"))
		resume := Cfg.GetBool("Resume")
		if resume && checkpoint == "" {
			return fmt.Errorf("soilwat: Resume is true but no Checkpoint file is specified")
		}
		return Run(cmd,
			checkLogFile(Cfg.GetString("LogFile"), outputFile),
			outputFile,
			vars,
			maybeDownload(ctx, os.ExpandEnv(Cfg.GetString("ProfileFile")), outChan),
			maybeDownload(ctx, os.ExpandEnv(Cfg.GetString("ForcingFile")), outChan),
			start, end,
			checkpoint, resume,
		)
	},
	DisableAutoGenTag: true,
}

// batchCmd is a command that simulates several soil columns at once.
var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run the model for several soil columns.",
	Long: `batch simulates each of the soil columns described by the Profiles
files over the days in ForcingFile. The columns are independent and are
simulated concurrently. The output for each column is written to a separate
file whose name is OutputFile with the name of the profile file appended.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		outChan := outChan()

		outputFile, err := checkOutputFile(Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		vars, err := GetStringMapString("OutputVariables", Cfg)
		if err != nil {
			return err
		}
		vars, err = checkOutputVars(vars)
		if err != nil {
			return err
		}
		start, end, err := dateRange(Cfg.GetString("StartDate"), Cfg.GetString("EndDate"))
		if err != nil {
			return err
		}
		profiles, err := cast.ToStringSliceE(Cfg.Get("Profiles"))
		if err != nil {
			return fmt.Errorf("soilwat: Profiles: %v", err)
		}
		profiles = expandStringSlice(profiles)
		for i, p := range profiles {
			profiles[i] = maybeDownload(ctx, p, outChan)
		}
		return RunBatch(ctx, cmd,
			checkLogFile(Cfg.GetString("LogFile"), outputFile),
			outputFile,
			vars,
			profiles,
			maybeDownload(ctx, os.ExpandEnv(Cfg.GetString("ForcingFile")), outChan),
			start, end,
			Cfg.GetInt("NumWorkers"),
		)
	},
	DisableAutoGenTag: true,
}

// validateCmd is a command that checks a soil profile.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a soil profile.",
	Long: `validate checks that the soil layers and initial water in ProfileFile
are physically possible and that the sub-model parameters are valid, and
reports the first problem found.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := maybeDownload(context.Background(), os.ExpandEnv(Cfg.GetString("ProfileFile")), outChan())
		return Validate(cmd.OutOrStdout(), f)
	},
	DisableAutoGenTag: true,
}

// outputsCmd is a command that lists the available output variables.
var outputsCmd = &cobra.Command{
	Use:   "outputs",
	Short: "List the available output variables.",
	Long: `outputs lists the model variables that can be used in the
OutputVariables expressions for the soil column in ProfileFile.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := maybeDownload(context.Background(), os.ExpandEnv(Cfg.GetString("ProfileFile")), outChan())
		return OutputOptions(cmd.OutOrStdout(), f)
	},
	DisableAutoGenTag: true,
}
