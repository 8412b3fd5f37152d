// Package searcher implements the query side of the pipeline: semantic
// search over a universe's vector index and full-text context fetches from
// its metadata log.
//
// Search returns ranked hits carrying curated metadata only; the heavier
// chunk text is fetched by GetContext, which can expand a hit to its
// neighboring chunks or, for guides, to the whole document. Results for
// repeated queries come from an in-memory LRU cache keyed by a hash of the
// request.
package searcher
