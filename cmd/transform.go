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

	"github.com/spf13/cobra"
	"github.com/will-rowe/q2types/src/catalog"
	"github.com/will-rowe/q2types/src/misc"
)

// the command line arguments
var (
	fromFormat   *string   // source format
	toFormat     *string   // target format
	via          *[]string // intermediate formats of a composed transformation
	transformIn  *string   // the input file or directory
	transformOut *string   // the output directory, it must not exist
)

// transformCmd is used by cobra
var transformCmd = &cobra.Command{
	Use:   "transform",
	Short: "Transform a file or directory from one format to another",
	Long:  `Transform a file or directory from one format to another, the output directory only appears if the transformation succeeds`,
	Run: func(cmd *cobra.Command, args []string) {
		runTransform()
	},
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return misc.CheckRequiredFlags(cmd.Flags())
	},
}

func init() {
	fromFormat = transformCmd.Flags().String("from", "", "source format - required")
	toFormat = transformCmd.Flags().String("to", "", "target format - required")
	via = transformCmd.Flags().StringSlice("via", []string{}, "intermediate formats, to chain transformers")
	transformIn = transformCmd.Flags().StringP("input", "i", "", "input file or directory - required")
	transformOut = transformCmd.Flags().StringP("outDir", "o", "", "output directory, must not exist - required")
	transformCmd.MarkFlagRequired("from")
	transformCmd.MarkFlagRequired("to")
	transformCmd.MarkFlagRequired("input")
	transformCmd.MarkFlagRequired("outDir")
	RootCmd.AddCommand(transformCmd)
}

// runTransform is the main function for the transform sub-command
func runTransform() {
	defer start("transform")()
	reg, g := catalog.New(options())
	for _, name := range append([]string{*fromFormat, *toFormat}, *via...) {
		if _, ok := reg.Lookup(name); !ok {
			misc.ErrorCheck(fmt.Errorf("unknown format %q", name))
		}
	}
	log.Printf("\t%v -> %v", *fromFormat, *toFormat)
	if len(*via) == 0 {
		misc.ErrorCheck(g.Transform(*fromFormat, *toFormat, *transformIn, *transformOut))
		log.Printf("\tsaved to %v", *transformOut)
		log.Println("finished")
		return
	}
	path := append(append([]string{*fromFormat}, *via...), *toFormat)
	fn, err := g.Compose(path...)
	misc.ErrorCheck(err)
	misc.ErrorCheck(g.Run(fn, *toFormat, *transformIn, *transformOut))
	log.Printf("\tsaved to %v", *transformOut)
	log.Println("finished")
}
