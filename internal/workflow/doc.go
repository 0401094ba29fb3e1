// Package workflow drives loaded work items to a terminal status.
//
// The Manager claims pending items in fixed-size batches, dispatches up to
// the configured number of batches to the metadata generator concurrently,
// and settles each batch back into the queue store as completed metadata or
// an error message. Dispatch is claim-first: item ids enter an in-memory
// claim set before the processing transition is written, so a scheduler
// wake-up racing with a finishing batch can never hand the same item to two
// batches. A slow batch holds only its own slot; remaining slots keep
// dispatching.
//
// A run ends once every item in the store is completed or errored. The
// manager emits run-level notifications when the first batch dispatches and
// when the last item settles, and closes its Done channel so callers can
// block on completion.
package workflow
