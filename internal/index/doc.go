// Package index stores embedding vectors and their chunk metadata for one
// universe.
//
// The vector index is a flat binary file searched exhaustively by inner
// product; the metadata log is a JSONL file whose line N describes index
// row N. Both files are append-only and grow in lockstep. A single build
// run owns them exclusively while writing; queries only read.
package index
