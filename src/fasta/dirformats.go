package fasta

import "github.com/will-rowe/q2types/src/format"

// DNASequencesFile is the fixed name of the sequences in DNASequencesDirectoryFormat
const DNASequencesFile = "dna-sequences.fasta"

// the single file sequence directories
var (
	DNASequencesDirectoryFormat = format.NewDirectoryFormat("DNASequencesDirectoryFormat",
		format.FixedFile("sequences", DNASequencesFile, DNAFASTAFormat))
	AlignedDNASequencesDirectoryFormat = format.NewDirectoryFormat("AlignedDNASequencesDirectoryFormat",
		format.FixedFile("sequences", "aligned-dna-sequences.fasta", AlignedDNAFASTAFormat))
	ProteinSequencesDirectoryFormat = format.NewDirectoryFormat("ProteinSequencesDirectoryFormat",
		format.FixedFile("sequences", "protein-sequences.fasta", ProteinFASTAFormat))
)
