// Package ingest turns raw text and tabular rows into analysis records.
//
// Policy runs score -> classify -> assemble for single texts and for batches. Batches detect
// their text column, honor a row cap, skip blank rows and score rows in parallel.
// Persisting the records is left to the caller.
package ingest
