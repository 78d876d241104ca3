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
	"strings"

	"github.com/spf13/cobra"
	"github.com/will-rowe/q2types/src/catalog"
	"github.com/will-rowe/q2types/src/misc"
)

var dumpFile *string // save the catalog (msgpack) to this file

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List the registered formats and transformers",
	Long:  `List the registered file formats, directory formats and transformers`,
	Run: func(cmd *cobra.Command, args []string) {
		runFormats()
	},
}

func init() {
	dumpFile = formatsCmd.Flags().String("dump", "", "save the catalog (msgpack) to this file")
	RootCmd.AddCommand(formatsCmd)
}

// runFormats prints the catalog to stdout
func runFormats() {
	reg, g := catalog.New(options())
	c := catalog.Describe(reg, g)
	fmt.Println("file formats:")
	for _, f := range c.Files {
		fmt.Printf("\t%v (%v)\n", f.Name, f.Medium)
	}
	fmt.Println("directory formats:")
	for _, d := range c.Dirs {
		var entries []string
		for _, e := range d.Entries {
			entries = append(entries, e.Path)
		}
		fmt.Printf("\t%v [%v]\n", d.Name, strings.Join(entries, ", "))
	}
	fmt.Println("transformers:")
	for _, e := range c.Edges {
		fmt.Printf("\t%v -> %v\n", e.From, e.To)
	}
	if *dumpFile != "" {
		misc.ErrorCheck(c.Dump(*dumpFile))
		log.Printf("saved catalog to %v", *dumpFile)
	}
}
