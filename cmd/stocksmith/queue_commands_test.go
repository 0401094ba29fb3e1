package main

import (
	"context"
	"encoding/json"
	"testing"

	"stocksmith/internal/testsupport"
)

func TestCLIQueueStatusAndList(t *testing.T) {
	env := setupCLITestEnv(t)

	store := testsupport.MustOpenStore(t, env.cfg)
	items := testsupport.SeedItems(t, store, 3)
	items[0].SetCompleted("Misty Pines", "forest, fog, morning", "Plants and Flowers")
	items[1].SetError("Item missing from batch response")
	if err := store.UpdateAll(context.Background(), items[:2]); err != nil {
		t.Fatalf("update items: %v", err)
	}

	stdout, _, err := runCLI(t, []string{"queue", "status"}, env.configPath)
	if err != nil {
		t.Fatalf("queue status: %v", err)
	}
	requireContains(t, stdout, "Pending")
	requireContains(t, stdout, "Completed")
	requireContains(t, stdout, "Error")

	stdout, _, err = runCLI(t, []string{"queue", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	requireContains(t, stdout, "photo-01.jpg")
	requireContains(t, stdout, "Misty Pines")
	requireContains(t, stdout, "Item missing from batch response")

	stdout, _, err = runCLI(t, []string{"queue", "list", "--status", "error"}, env.configPath)
	if err != nil {
		t.Fatalf("queue list --status error: %v", err)
	}
	requireContains(t, stdout, "photo-02.jpg")
	requireNotContains(t, stdout, "photo-01.jpg")

	_, _, err = runCLI(t, []string{"queue", "list", "--status", "bogus"}, env.configPath)
	if err == nil {
		t.Fatal("expected unknown status error")
	}
	requireContains(t, err.Error(), "unknown status")
}

func TestCLIQueueStatusEmpty(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, _, err := runCLI(t, []string{"queue", "status"}, env.configPath)
	if err != nil {
		t.Fatalf("queue status: %v", err)
	}
	requireContains(t, stdout, "Queue is empty")
}

func TestCLIQueueStatusJSON(t *testing.T) {
	env := setupCLITestEnv(t)

	store := testsupport.MustOpenStore(t, env.cfg)
	testsupport.SeedItems(t, store, 2)

	stdout, _, err := runCLI(t, []string{"queue", "status", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("queue status --json: %v", err)
	}
	var report struct {
		Total  int            `json:"total"`
		Counts map[string]int `json:"counts"`
	}
	if err := json.Unmarshal([]byte(stdout), &report); err != nil {
		t.Fatalf("decode report: %v (output=%q)", err, stdout)
	}
	if report.Total != 2 {
		t.Fatalf("expected total 2, got %d", report.Total)
	}
	if report.Counts["pending"] != 2 {
		t.Fatalf("expected 2 pending, got %d", report.Counts["pending"])
	}
}

func TestCLIQueueListJSON(t *testing.T) {
	env := setupCLITestEnv(t)

	store := testsupport.MustOpenStore(t, env.cfg)
	items := testsupport.SeedItems(t, store, 2)
	items[0].SetCompleted("Harbor Dawn", "harbor, boats, dawn", "Travel")
	if err := store.UpdateAll(context.Background(), items[:1]); err != nil {
		t.Fatalf("update items: %v", err)
	}

	stdout, _, err := runCLI(t, []string{"queue", "list", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("queue list --json: %v", err)
	}
	var views []struct {
		ID       int64  `json:"id"`
		Filename string `json:"filename"`
		Title    string `json:"title"`
		Status   string `json:"status"`
		Keywords string `json:"keywords"`
	}
	if err := json.Unmarshal([]byte(stdout), &views); err != nil {
		t.Fatalf("decode views: %v (output=%q)", err, stdout)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 views, got %d", len(views))
	}
	if views[0].Filename != "photo-01.jpg" || views[0].Title != "Harbor Dawn" || views[0].Status != "completed" {
		t.Fatalf("unexpected first view: %+v", views[0])
	}
	if views[0].Keywords != "harbor, boats, dawn" {
		t.Fatalf("unexpected keywords: %q", views[0].Keywords)
	}
}

func TestCLIQueueClear(t *testing.T) {
	env := setupCLITestEnv(t)

	store := testsupport.MustOpenStore(t, env.cfg)
	items := testsupport.SeedItems(t, store, 4)
	items[0].SetCompleted("One", "a, b", "Business")
	items[1].SetCompleted("Two", "c, d", "Business")
	items[2].SetError("upstream unavailable")
	if err := store.UpdateAll(context.Background(), items[:3]); err != nil {
		t.Fatalf("update items: %v", err)
	}

	stdout, _, err := runCLI(t, []string{"queue", "clear", "--completed"}, env.configPath)
	if err != nil {
		t.Fatalf("queue clear --completed: %v", err)
	}
	requireContains(t, stdout, "Cleared 2 completed items")

	stdout, _, err = runCLI(t, []string{"queue", "clear", "--errored"}, env.configPath)
	if err != nil {
		t.Fatalf("queue clear --errored: %v", err)
	}
	requireContains(t, stdout, "Cleared 1 errored items")

	stdout, _, err = runCLI(t, []string{"queue", "clear"}, env.configPath)
	if err != nil {
		t.Fatalf("queue clear: %v", err)
	}
	requireContains(t, stdout, "Cleared 1 work items")

	stdout, _, err = runCLI(t, []string{"queue", "status"}, env.configPath)
	if err != nil {
		t.Fatalf("queue status: %v", err)
	}
	requireContains(t, stdout, "Queue is empty")

	_, _, err = runCLI(t, []string{"queue", "clear", "--completed", "--errored"}, env.configPath)
	if err == nil {
		t.Fatal("expected flag conflict error")
	}
	requireContains(t, err.Error(), "specify only one")
}
