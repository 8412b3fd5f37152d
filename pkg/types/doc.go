// Package types provides shared type definitions for the docindex pipeline.
//
// This package defines the domain records used across components: the Chunk
// record persisted to the metadata log, the structured results returned by
// build/search/context operations, and shared sentinel errors.
//
// # Chunk records
//
// A Chunk is the smallest unit of text which receives its own embedding and
// is independently retrievable. The core fields (identity, position, text)
// are common to every universe; universe-specific data lives in tagged
// extension payloads so consumers can match on what is actually present
// instead of probing for optional keys:
//
//	chunk := &types.Chunk{
//	    ChunkID:   "3fa9c21d04be_0",
//	    Universe:  "meetings_weekly",
//	    BlockKind: types.BlockMeetingFull,
//	    Meeting:   &types.MeetingInfo{Date: "2025-03-14"},
//	}
//
// # Structured results
//
// Run-level soft failures (an empty input directory, a query against a
// universe that was never built) are reported as values with OK=false and a
// Reason, never as errors or panics:
//
//	res, err := idx.Build(ctx, opts)
//	if err == nil && !res.OK {
//	    fmt.Println("build skipped:", res.Reason)
//	}
package types
