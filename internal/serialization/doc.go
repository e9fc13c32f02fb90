// Package serialization implements the .drift checkpoint container: a
// single-file binary format holding a named state dict (model weights,
// optimizer moments) plus training metadata, integrity-checked with a
// SHA-256 checksum.
//
// File layout:
//
//	[0:4]    magic "DRFT"
//	[4:8]    format version (uint32 LE)
//	[8:12]   header length in bytes (uint32 LE)
//	[12:44]  SHA-256 of header JSON + tensor data
//	[44:...] JSON header (Header)
//	[...]    tensor data section, offsets relative to its start
//
// Writers stage the full file in a temp sibling and rename it into
// place, so a snapshot on disk is always either the old file or the new
// one, never a torn write.
package serialization
