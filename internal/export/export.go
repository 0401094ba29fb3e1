// Package export renders work items as the CSV file Adobe Stock's uploader
// imports.
//
// Every item in the current list is exported in creation order regardless of
// status; errored items simply carry empty metadata columns. Fields
// containing commas, quotes, or newlines are quoted per RFC 4180, which is
// exactly what stock upload tools expect.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"stocksmith/internal/fileutil"
	"stocksmith/internal/queue"
)

const (
	// DefaultFilename is the artifact name stock upload tools look for.
	DefaultFilename = "adobe_stock_metadata.csv"
	// MIMEType identifies the exported artifact when served over HTTP.
	MIMEType = "text/csv"
)

var header = []string{"Filename", "Title", "Keywords", "Category"}

// Write emits the CSV for the given items, one row per item in slice order,
// preceded by the header row.
func Write(w io.Writer, items []*queue.Item) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, item := range items {
		if item == nil {
			continue
		}
		record := []string{item.Filename, item.Title, item.Keywords, item.Category}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write csv row for %q: %w", item.Filename, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WriteFile renders the CSV and writes it to path atomically, so a reader
// never observes a half-written export.
func WriteFile(path string, items []*queue.Item) error {
	var buf bytes.Buffer
	if err := Write(&buf, items); err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}
	return nil
}
