package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a work item.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

var allStatuses = []Status{
	StatusPending,
	StatusProcessing,
	StatusCompleted,
	StatusError,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// Item represents a work item persisted in SQLite. Keywords are stored as a
// single comma-separated string, matching the CSV column Adobe Stock imports.
type Item struct {
	ID           int64
	Filename     string
	Description  string
	Title        string
	Keywords     string
	Category     string
	Status       Status
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Seed carries the two ingested inputs that define a new work item.
type Seed struct {
	Filename    string
	Description string
}

// HealthSummary describes aggregated item counts per lifecycle state.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Completed  int
	Errored    int
}

// DatabaseHealth captures diagnostic information about the item database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    string
	TableExists      bool
	ColumnsPresent   []string
	MissingColumns   []string
	IntegrityCheck   bool
	TotalItems       int
	Error            string
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a status can no longer change. Items never move
// out of completed or error; a fresh run starts from a fresh item set.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusError
}

// IsTerminal reports whether the item has finished processing.
func (i Item) IsTerminal() bool {
	return i.Status.IsTerminal()
}

// SetError marks the item as errored with the given message and clears any
// partial generation output.
func (i *Item) SetError(message string) {
	i.Status = StatusError
	i.ErrorMessage = message
	i.Title = ""
	i.Keywords = ""
	i.Category = ""
}

// SetCompleted records generated metadata and marks the item completed.
func (i *Item) SetCompleted(title, keywords, category string) {
	i.Status = StatusCompleted
	i.Title = title
	i.Keywords = keywords
	i.Category = category
	i.ErrorMessage = ""
}
