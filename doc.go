// Package meetyai turns meeting transcripts into structured, deduplicated
// insights through a multi-stage model pipeline.
//
// A run classifies the transcript's context, extracts raw insights in four
// data-independent passes (each targeting a disjoint set of insight
// types), refines the combined list with a writing model, deduplicates by
// content hash, and persists the survivors. Transcript status is a
// persisted state machine with an append-only activity trail; a fully
// successful run records exactly six status transitions.
//
// Extraction passes tolerate partial failure: a pass whose response
// cannot be parsed is skipped and the run continues. Refinement degrades
// to the raw insights unchanged when its response cannot be parsed.
// Classification and orchestration errors fail the run and flip the
// transcript to StatusFailed.
//
// The pipeline is built on flowgraph; services (store, model clients,
// notifier) are injected through the context.
package meetyai
