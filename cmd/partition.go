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
	"github.com/will-rowe/q2types/src/format"
	"github.com/will-rowe/q2types/src/misc"
	"github.com/will-rowe/q2types/src/partition"
)

// the command line arguments
var (
	collectionFormat *string   // directory format of the collection
	numPartitions    *int      // 0 means one partition per sample or MAG
	partitionIn      *string   // collection to split
	partitionOut     *string   // where the parts go, it must not exist
	collateParts     *[]string // parts to collate
	collateOut       *string   // the collated collection, it must not exist
)

var partitionCmd = &cobra.Command{
	Use:   "partition",
	Short: "Split a per-sample or per-MAG collection into parts",
	Long:  `Split a per-sample or per-MAG collection into parts, keyed by sample or MAG id when there is one per part`,
	Run: func(cmd *cobra.Command, args []string) {
		runPartition()
	},
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return misc.CheckRequiredFlags(cmd.Flags())
	},
}

var collateCmd = &cobra.Command{
	Use:   "collate",
	Short: "Merge parts back into one collection",
	Long:  `Merge parts back into one collection, members held by two parts must be identical`,
	Run: func(cmd *cobra.Command, args []string) {
		runCollate()
	},
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return misc.CheckRequiredFlags(cmd.Flags())
	},
}

func init() {
	collectionFormat = new(string)
	for _, c := range []*cobra.Command{partitionCmd, collateCmd} {
		c.Flags().StringVarP(collectionFormat, "format", "f", "SingleLanePerSampleSingleEndFastqDirFmt", "directory format of the collection")
	}
	numPartitions = partitionCmd.Flags().IntP("num", "n", 0, "number of partitions, 0 for one per sample or MAG")
	partitionIn = partitionCmd.Flags().StringP("input", "i", "", "collection to partition - required")
	partitionOut = partitionCmd.Flags().StringP("outDir", "o", "", "directory to write the parts to, must not exist - required")
	partitionCmd.MarkFlagRequired("input")
	partitionCmd.MarkFlagRequired("outDir")
	collateParts = collateCmd.Flags().StringSliceP("input", "i", []string{}, "parts to collate - required")
	collateOut = collateCmd.Flags().StringP("outDir", "o", "", "directory to write the collection to, must not exist - required")
	collateCmd.MarkFlagRequired("input")
	collateCmd.MarkFlagRequired("outDir")
	RootCmd.AddCommand(partitionCmd)
	RootCmd.AddCommand(collateCmd)
}

// collection looks up the directory format named by --format
func collection() *format.DirectoryFormat {
	reg, _ := catalog.New(options())
	d, ok := reg.Dir(*collectionFormat)
	if !ok {
		misc.ErrorCheck(fmt.Errorf("unknown directory format %q", *collectionFormat))
	}
	return d
}

// runPartition is the main function for the partition sub-command
func runPartition() {
	defer start("partition")()
	parts, err := partition.Partition(collection(), *partitionIn, *numPartitions, *partitionOut)
	misc.ErrorCheck(err)
	for _, p := range parts {
		log.Printf("\t%v", p)
	}
	log.Println("finished")
}

// runCollate is the main function for the collate sub-command
func runCollate() {
	defer start("collate")()
	misc.ErrorCheck(partition.Collate(collection(), *collateParts, *collateOut))
	log.Printf("\tcollated %d parts into %v", len(*collateParts), *collateOut)
	log.Println("finished")
}
