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
	"time"

	"github.com/spf13/cobra"
	"github.com/will-rowe/q2types/src/catalog"
	"github.com/will-rowe/q2types/src/misc"
	"github.com/will-rowe/q2types/src/pipeline"
	"github.com/will-rowe/q2types/src/version"
)

// the command line arguments
var (
	validateFormat *string   // the format every input is validated against
	validateInputs *[]string // files or directories to validate
	reportFile     *string   // where to dump the msgpack run report
	sniff          *bool     // list the file formats that claim each input instead of validating
)

// validateCmd is used by cobra
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate files or directories against a registered format",
	Long:  `Validate files or directories against a registered format, inputs are checked in parallel and reported in order`,
	Run: func(cmd *cobra.Command, args []string) {
		runValidate()
	},
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return misc.CheckRequiredFlags(cmd.Flags())
	},
}

func init() {
	validateFormat = validateCmd.Flags().StringP("format", "f", "", "name of the file or directory format - required unless --sniff is set")
	validateInputs = validateCmd.Flags().StringSliceP("input", "i", []string{}, "file(s) or directories to validate - required")
	reportFile = validateCmd.Flags().StringP("report", "r", "", "save a run report (msgpack) to this file")
	sniff = validateCmd.Flags().Bool("sniff", false, "if set, list the file formats that recognise each input")
	validateCmd.MarkFlagRequired("input")
	RootCmd.AddCommand(validateCmd)
}

// runValidate is the main function for the validate sub-command
func runValidate() {
	defer start("validate")()
	opts := options()
	reg, _ := catalog.New(opts)
	if *sniff {
		for _, path := range *validateInputs {
			log.Printf("\t%v: %v", path, reg.Sniff(path))
		}
		return
	}
	if *validateFormat == "" {
		misc.ErrorCheck(fmt.Errorf("no format specified - run `q2types formats` to list them"))
	}
	if _, ok := reg.Lookup(*validateFormat); !ok {
		misc.ErrorCheck(fmt.Errorf("unknown format %q - run `q2types formats` to list them", *validateFormat))
	}
	log.Printf("checking parameters...")
	log.Printf("\tformat: %v", *validateFormat)
	log.Printf("\tlevel: %v", opts.Level)
	log.Printf("\tprocessors: %d", *proc)
	log.Printf("\tnumber of inputs: %d", len(*validateInputs))
	jobs := make([]pipeline.Job, len(*validateInputs))
	for i, path := range *validateInputs {
		jobs[i] = pipeline.Job{Format: *validateFormat, Path: path}
	}
	info := &pipeline.Info{NumProc: *proc, Version: version.VERSION, Profiling: *profiling, Level: opts.Level.String()}
	info.Stamp(time.Now())
	log.Printf("validating...")
	results := pipeline.ValidateAll(reg, jobs, opts.Level, *proc)
	info.AddResults(results)
	for _, r := range results {
		if r.Err != nil {
			log.Printf("\tinvalid: %v", r.Err)
		} else {
			log.Printf("\tvalid: %v (%v)", r.Path, r.Elapsed)
		}
	}
	if *reportFile != "" {
		misc.ErrorCheck(info.Dump(*reportFile))
		log.Printf("saved run report to %v", *reportFile)
	}
	if n := info.Failures(); n > 0 {
		misc.ErrorCheck(fmt.Errorf("%d of %d inputs are invalid", n, len(results)))
	}
	log.Println("finished")
}
