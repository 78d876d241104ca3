package index

import "github.com/will-rowe/q2types/src/format"

// Kraken2DBFileFormat is opaque, kraken2-build output is only checked for presence
var Kraken2DBFileFormat = format.Opaque("Kraken2DBFormat", format.Binary)

// Kraken2DBDirFmt is a built Kraken 2 database
var Kraken2DBDirFmt = format.NewDirectoryFormat("Kraken2DBDirFmt",
	format.FixedFile("hash", "hash.k2d", Kraken2DBFileFormat),
	format.FixedFile("opts", "opts.k2d", Kraken2DBFileFormat),
	format.FixedFile("taxo", "taxo.k2d", Kraken2DBFileFormat))
