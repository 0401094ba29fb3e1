// Package ingest reads the filename and prompt input files that seed a run.
//
// Both inputs are newline-delimited UTF-8 text. Blank lines are dropped, and
// line N of the filenames file pairs with line N of the prompts file. A count
// mismatch rejects the whole pair before any work item is created.
package ingest
