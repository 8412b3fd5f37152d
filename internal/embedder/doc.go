// Package embedder generates embedding vectors for chunk and query text.
//
// The only production provider speaks the OpenAI embeddings wire format,
// which also covers local inference servers exposing the same endpoint.
// Calls retry with exponential backoff and honor context cancellation. An
// optional LRU layer deduplicates repeated texts within a process; durable
// caching across runs lives in the cache package, not here.
package embedder
