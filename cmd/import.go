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
	"log"

	"github.com/spf13/cobra"
	"github.com/will-rowe/q2types/src/misc"
	"github.com/will-rowe/q2types/src/ncbi"
)

// the command line arguments
var (
	taxdump      *string // the NCBI taxdump archive
	accessionMap *string // prot.accession2taxid.gz
	importOut    *string // the NCBITaxonomyDirFmt to create
)

var importCmd = &cobra.Command{
	Use:   "import-taxdump",
	Short: "Build an NCBI taxonomy directory from a taxdump archive",
	Long:  `Build an NCBI taxonomy directory from a taxdump archive (taxdump.tar.gz) and a prot.accession2taxid.gz map`,
	Run: func(cmd *cobra.Command, args []string) {
		runImport()
	},
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return misc.CheckRequiredFlags(cmd.Flags())
	},
}

func init() {
	taxdump = importCmd.Flags().StringP("taxdump", "t", "", "taxdump archive - required")
	accessionMap = importCmd.Flags().StringP("accessions", "a", "", "prot.accession2taxid.gz - required")
	importOut = importCmd.Flags().StringP("outDir", "o", "", "output directory, must not exist - required")
	importCmd.MarkFlagRequired("taxdump")
	importCmd.MarkFlagRequired("accessions")
	importCmd.MarkFlagRequired("outDir")
	RootCmd.AddCommand(importCmd)
}

// runImport is the main function for the import-taxdump sub-command
func runImport() {
	defer start("import-taxdump")()
	log.Printf("\ttaxdump: %v", *taxdump)
	log.Printf("\taccession map: %v", *accessionMap)
	misc.ErrorCheck(ncbi.ImportTaxdump(*taxdump, *accessionMap, *importOut))
	log.Printf("\tsaved to %v", *importOut)
	log.Println("finished")
}
