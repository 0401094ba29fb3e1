package main

import (
	"fmt"
	"strings"
	"time"

	"stocksmith/internal/queue"
)

// cellWidthLimit caps filename, title, and error cells so one long value
// cannot push the table past a typical terminal width.
const cellWidthLimit = 40

// buildStatusRows orders counts by lifecycle stage rather than
// alphabetically so remaining work reads top-down.
func buildStatusRows(stats map[queue.Status]int) [][]string {
	rows := make([][]string, 0, len(stats))
	for _, status := range queue.AllStatuses() {
		count := stats[status]
		if count == 0 {
			continue
		}
		rows = append(rows, []string{formatStatusLabel(string(status)), fmt.Sprintf("%d", count)})
	}
	return rows
}

type statusReport struct {
	Total  int            `json:"total"`
	Counts map[string]int `json:"counts"`
}

func buildStatusReport(stats map[queue.Status]int) statusReport {
	report := statusReport{Counts: make(map[string]int, len(stats))}
	for status, count := range stats {
		report.Counts[string(status)] = count
		report.Total += count
	}
	return report
}

// buildItemRows keeps store order, which mirrors the ingested file order.
func buildItemRows(items []*queue.Item) [][]string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			fmt.Sprintf("%d", item.ID),
			truncateCell(item.Filename),
			truncateCell(item.Title),
			item.Category,
			formatStatusLabel(string(item.Status)),
			truncateCell(item.ErrorMessage),
		})
	}
	return rows
}

type itemView struct {
	ID           int64  `json:"id"`
	Filename     string `json:"filename"`
	Description  string `json:"description"`
	Title        string `json:"title"`
	Keywords     string `json:"keywords"`
	Category     string `json:"category"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

func buildItemViews(items []*queue.Item) []itemView {
	views := make([]itemView, 0, len(items))
	for _, item := range items {
		views = append(views, itemView{
			ID:           item.ID,
			Filename:     item.Filename,
			Description:  item.Description,
			Title:        item.Title,
			Keywords:     item.Keywords,
			Category:     item.Category,
			Status:       string(item.Status),
			ErrorMessage: item.ErrorMessage,
			CreatedAt:    formatItemTime(item.CreatedAt),
			UpdatedAt:    formatItemTime(item.UpdatedAt),
		})
	}
	return views
}

func formatStatusLabel(status string) string {
	status = strings.ToLower(strings.TrimSpace(status))
	if status == "" {
		return ""
	}
	return strings.ToUpper(status[:1]) + status[1:]
}

func statusNames() string {
	all := queue.AllStatuses()
	names := make([]string, len(all))
	for i, status := range all {
		names[i] = string(status)
	}
	return strings.Join(names, ", ")
}

func formatItemTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func truncateCell(value string) string {
	value = strings.TrimSpace(value)
	runes := []rune(value)
	if len(runes) <= cellWidthLimit {
		return value
	}
	return string(runes[:cellWidthLimit-3]) + "..."
}
