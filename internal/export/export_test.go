package export_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"stocksmith/internal/export"
	"stocksmith/internal/queue"
)

func TestWriteEmitsHeaderAndRowsInOrder(t *testing.T) {
	items := []*queue.Item{
		{Filename: "sunset.jpg", Title: "Golden sunset over calm mountain lake in autumn", Keywords: "sunset, lake, mountain", Category: "Landscapes"},
		{Filename: "office.jpg", Title: "Young professionals collaborating around laptop in bright office", Keywords: "office, teamwork", Category: "Business"},
	}

	var sb strings.Builder
	if err := export.Write(&sb, items); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	lines := strings.Split(strings.TrimRight(sb.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), sb.String())
	}
	if lines[0] != "Filename,Title,Keywords,Category" {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "sunset.jpg,") {
		t.Fatalf("expected sunset.jpg first, got %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "office.jpg,") {
		t.Fatalf("expected office.jpg second, got %q", lines[2])
	}
}

func TestWriteEscapesSpecialCharacters(t *testing.T) {
	items := []*queue.Item{
		{Filename: "plain.jpg", Title: "a,b", Keywords: `He said "hi"`, Category: "People"},
	}

	var sb strings.Builder
	if err := export.Write(&sb, items); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	lines := strings.Split(strings.TrimRight(sb.String(), "\n"), "\n")
	row := lines[1]
	if !strings.Contains(row, `"a,b"`) {
		t.Fatalf("comma field not quoted: %q", row)
	}
	if !strings.Contains(row, `"He said ""hi"""`) {
		t.Fatalf("quote field not doubled: %q", row)
	}
	if !strings.HasPrefix(row, "plain.jpg,") {
		t.Fatalf("plain field should stay unquoted: %q", row)
	}
}

func TestWriteEscapesNewlines(t *testing.T) {
	items := []*queue.Item{
		{Filename: "multi.jpg", Title: "line one\nline two", Keywords: "a", Category: "Business"},
	}

	var sb strings.Builder
	if err := export.Write(&sb, items); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if !strings.Contains(sb.String(), "\"line one\nline two\"") {
		t.Fatalf("newline field not quoted: %q", sb.String())
	}
}

func TestWriteIncludesErroredItemsWithEmptyFields(t *testing.T) {
	items := []*queue.Item{
		{Filename: "good.jpg", Title: "Fresh green salad bowl with cherry tomatoes closeup", Keywords: "salad", Category: "Food", Status: queue.StatusCompleted},
		{Filename: "bad.jpg", Status: queue.StatusError, ErrorMessage: "Batch timed out after 45s"},
	}

	var sb strings.Builder
	if err := export.Write(&sb, items); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	lines := strings.Split(strings.TrimRight(sb.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected both items exported, got %d lines", len(lines))
	}
	if lines[2] != "bad.jpg,,," {
		t.Fatalf("errored item should export empty metadata columns, got %q", lines[2])
	}
}

func TestWriteFileCreatesArtifact(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "exports", export.DefaultFilename)

	items := []*queue.Item{
		{Filename: "one.jpg", Title: "Single red rose on white background studio shot", Keywords: "rose, flower", Category: "Plants and Flowers"},
	}
	if err := export.WriteFile(path, items); err != nil {
		t.Fatalf("WriteFile returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	content := string(data)
	if !strings.HasPrefix(content, "Filename,Title,Keywords,Category\n") {
		t.Fatalf("unexpected file header: %q", content)
	}
	if !strings.Contains(content, "one.jpg") {
		t.Fatalf("missing row: %q", content)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("read export dir: %v", err)
	}
	for _, entry := range entries {
		if strings.Contains(entry.Name(), ".tmp-") {
			t.Fatalf("temp file left behind: %s", entry.Name())
		}
	}
}
