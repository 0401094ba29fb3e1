// Package metadata provides an OpenRouter chat client for stock photo
// metadata generation.
//
// The workflow scheduler sends each dispatched batch of image descriptions
// through this client and merges the returned titles, keywords, and
// categories back into the work items.
//
// # Batch Contract
//
// GenerateBatch submits a JSON array of {id, description} pairs as the user
// message alongside a fixed instruction prompt. The model responds with one
// entry per item: a 7-10 word title, 20-30 single-word keywords, and one of
// the 21 Adobe Stock category names. Entries are correlated by id and may
// arrive in any order; entries with ids that were not requested are ignored.
// Missing fields never fail an item: a blank title falls back to "Untitled"
// and an unrecognized category falls back to the default category.
//
// # Configuration
//
// Requires openrouter.api_key and openrouter.model, and optionally base_url,
// referer, title, timeout_seconds. A missing API key fails each request with
// an ordinary error; the scheduler records it per item rather than aborting
// the run.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.GenerateBatch: submit a batch of descriptions, receive per-item results.
// Client.HealthCheck: verify API key and model availability.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors and network timeouts with
// exponential backoff (base 1s, max 10s, up to 5 attempts by default).
// Context cancellation aborts retries immediately, so retries never outlive
// the batch deadline the scheduler imposes.
package metadata
