// Package index holds the bundle formats of prebuilt search indices (Bowtie2, HMMER, Kraken2), HMM profiles and BAM alignments
package index

import (
	"sort"
	"strings"

	"github.com/will-rowe/q2types/src/errs"
	"github.com/will-rowe/q2types/src/format"
)

// Bowtie2IndexFileFormat is opaque, only the directory layout of an index is checked
var Bowtie2IndexFileFormat = format.Opaque("Bowtie2IndexFileFormat", format.Binary)

// the six members of a Bowtie2 index, small (.bt2) or large (.bt2l)
var bowtie2Suffixes = []struct {
	name    string
	pattern string
	exclude string
	suffix  string
}{
	{"idx1", `.+\.1\.bt2l?`, `.+\.rev\.1\.bt2l?`, ".1.bt2"},
	{"idx2", `.+\.2\.bt2l?`, `.+\.rev\.2\.bt2l?`, ".2.bt2"},
	{"ref3", `.+\.3\.bt2l?`, "", ".3.bt2"},
	{"ref4", `.+\.4\.bt2l?`, "", ".4.bt2"},
	{"rev1", `.+\.rev\.1\.bt2l?`, "", ".rev.1.bt2"},
	{"rev2", `.+\.rev\.2\.bt2l?`, "", ".rev.2.bt2"},
}

// Bowtie2IndexDirFmt is a directory holding one Bowtie2 index
var Bowtie2IndexDirFmt = newBowtie2DirFmt()

func newBowtie2DirFmt() *format.DirectoryFormat {
	var entries []*format.Entry
	for _, s := range bowtie2Suffixes {
		e := format.Collection(s.name, s.pattern, Bowtie2IndexFileFormat)
		if s.exclude != "" {
			e = e.Excluding(s.exclude)
		}
		entries = append(entries, e)
	}
	return format.NewDirectoryFormat("Bowtie2IndexDirFmt", entries...).WithValidator(checkBowtie2Prefix)
}

// bowtie2Basename strips the index suffix from a member name
func bowtie2Basename(rel, suffix string) string {
	rel = strings.TrimSuffix(rel, "l")
	return strings.TrimSuffix(rel, suffix)
}

// checkBowtie2Prefix requires every member to share one basename
func checkBowtie2Prefix(v *format.View, level format.Level) error {
	bases := make(map[string]bool)
	for _, s := range bowtie2Suffixes {
		for _, rel := range v.Members(s.name) {
			bases[bowtie2Basename(rel, s.suffix)] = true
		}
	}
	if len(bases) > 1 {
		var names []string
		for b := range bases {
			names = append(names, b)
		}
		sort.Strings(names)
		return errs.New(errs.Structural, "index prefix", "The Bowtie2 index files do not share one basename, found %v.", names).With("basenames", names)
	}
	return nil
}

// Bowtie2Basename returns the shared basename of a bound, valid index, as passed to bowtie2 -x
func Bowtie2Basename(v *format.View) string {
	members := v.Members("ref3")
	if len(members) == 0 {
		return ""
	}
	return v.Abs(bowtie2Basename(members[0], ".3.bt2"))
}
