// Package mcp implements the Model Context Protocol server for docindex.
//
// The server speaks JSON-RPC 2.0 over stdio and exposes three tools:
//   - build_index: incrementally index a universe's documents
//   - search_docs: semantic search returning ranked hits with citation
//     metadata (no chunk text)
//   - get_doc_context: fetch full chunk text by chunk ids or doc id, with
//     adjacent-chunk or whole-document expansion
//
// Stdout carries the protocol; all logging goes to stderr. Tool results are
// the same structured payloads the CLI prints, serialized as indented JSON,
// so a client sees identical semantics through either surface.
package mcp
