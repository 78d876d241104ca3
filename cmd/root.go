// Copyright © 2017 Will Rowe <will.rowe@stfc.ac.uk>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package cmd

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"strings"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/will-rowe/q2types/src/catalog"
	"github.com/will-rowe/q2types/src/format"
	"github.com/will-rowe/q2types/src/misc"
	"github.com/will-rowe/q2types/src/version"
)

// the persistent command line arguments
var (
	proc       *int    // number of processors to use
	logFile    *string // the log file, stdout if empty
	profiling  *bool   // if true, write a CPU profile
	configFile *string // optional YAML config with tool paths and the default level
)

// RootCmd is the base command, the subcommands register themselves with it
var RootCmd = &cobra.Command{
	Use:   "q2types",
	Short: "Validate and transform bioinformatics file and directory formats",
	Long: `q2types validates FASTA, FASTQ, manifest, taxonomy, GFF3, BIOM, Kraken2,
BLAST-6, NCBI taxonomy and index formats, and transforms between them.`,
}

// Execute runs the command line
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	proc = RootCmd.PersistentFlags().IntP("processors", "p", 1, "number of processors to use")
	logFile = RootCmd.PersistentFlags().String("log", "", "filename for log file, default = stdout")
	profiling = RootCmd.PersistentFlags().Bool("profiling", false, "create the files needed to profile q2types using the go tool pprof")
	configFile = RootCmd.PersistentFlags().String("config", "", "YAML config file setting the tool paths and the default validation level")
	RootCmd.PersistentFlags().String("samtools", "samtools", "samtools executable used to check BAM files")
	RootCmd.PersistentFlags().String("h5ls", "h5ls", "h5ls executable used to check BIOM 2.1 tables")
	RootCmd.PersistentFlags().String("h5dump", "h5dump", "h5dump executable used to check BIOM 2.1 tables")
	RootCmd.PersistentFlags().String("biom", "biom", "biom executable used to read BIOM 2.1 tables")
	RootCmd.PersistentFlags().String("level", "min", "validation level (min or max)")
	for _, key := range []string{"samtools", "h5ls", "h5dump", "biom", "level"} {
		viper.BindPFlag(key, RootCmd.PersistentFlags().Lookup(key))
	}
}

// initConfig reads the config file and Q2TYPES_* environment variables
func initConfig() {
	viper.SetEnvPrefix("q2types")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	if *configFile != "" {
		viper.SetConfigFile(*configFile)
		misc.ErrorCheck(viper.ReadInConfig())
	}
}

// options collects the resolved tool paths and level
func options() catalog.Options {
	level, err := format.ParseLevel(viper.GetString("level"))
	misc.ErrorCheck(err)
	return catalog.Options{
		Samtools: viper.GetString("samtools"),
		H5ls:     viper.GetString("h5ls"),
		H5dump:   viper.GetString("h5dump"),
		Biom:     viper.GetString("biom"),
		Level:    level,
	}
}

// start sets up profiling and logging for a subcommand, the returned func must be deferred
func start(name string) func() {
	var stops []func()
	if *profiling {
		p := profile.Start(profile.ProfilePath("./"))
		stops = append(stops, p.Stop)
	}
	if *logFile != "" {
		logFH := misc.StartLogging(*logFile)
		stops = append(stops, func() { logFH.Close() })
		log.SetOutput(logFH)
	} else {
		log.SetOutput(os.Stdout)
	}
	if *proc <= 0 || *proc > runtime.NumCPU() {
		*proc = runtime.NumCPU()
	}
	runtime.GOMAXPROCS(*proc)
	log.Printf("q2types (version %s)", version.VERSION)
	log.Printf("starting the %v subcommand", name)
	return func() {
		for i := len(stops) - 1; i >= 0; i-- {
			stops[i]()
		}
	}
}
