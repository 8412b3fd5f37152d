// Package indexer orchestrates one incremental build pass: discover files,
// skip unchanged ones via the file cache, extract and chunk the rest,
// embed through the durable embedding cache, and append the results to the
// universe's vector index and metadata log.
//
// Each file commits as a unit. When any chunk of a file fails to embed the
// whole file is deferred to the next run, and the index, metadata log, and
// file cache only persist together at the end of a successful pass, so the
// on-disk artifacts never drift out of row alignment.
package indexer
