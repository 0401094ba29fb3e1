// Package preflight provides readiness checks for the filesystem paths,
// queue database, and generation API that Stocksmith depends on.
//
// These checks run in two contexts:
//   - The CLI "stocksmith run" command runs RunAll before loading work;
//     a failed check stops the run before any API spend.
//   - The CLI "stocksmith doctor" command renders every result so a
//     misconfigured install can be diagnosed without starting a run.
//
// Checks that would cost money or send traffic are kept minimal: the API
// check is a single tiny completion with retries disabled.
package preflight
