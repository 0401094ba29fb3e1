// Package categories defines the fixed Adobe Stock category taxonomy.
//
// All category validation and normalization is consolidated here so the
// generation client, CSV export, and CLI views agree on one canonical
// spelling for every category name.
package categories
