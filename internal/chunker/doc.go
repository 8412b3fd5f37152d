// Package chunker splits document text into token-bounded, overlapping
// windows and maps chunk positions back to document sections.
//
// The window math is simple but load-bearing: a chunk covers tokens
// [start, end), the next window begins at end-overlap, and offsets are
// stored on every chunk so neighbors can be reassembled at query time.
// Tokenization goes through the Tokenizer interface; production code uses
// the cl100k_base BPE via tiktoken, tests use a cheap word tokenizer.
package chunker
