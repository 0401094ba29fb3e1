package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"stocksmith/internal/categories"
)

// FallbackTitle is substituted when the model omits an item's title.
const FallbackTitle = "Untitled"

// Request identifies one work item's description within a batch call.
type Request struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

// Result carries the normalized metadata generated for one requested item.
// Keywords are already joined into the comma-separated form the work item
// stores. Category is guaranteed to be a canonical Adobe Stock category.
type Result struct {
	ID       string
	Title    string
	Keywords string
	Category string
}

type wireItem struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Keywords []string `json:"keywords"`
	Category string   `json:"category"`
}

type batchEnvelope struct {
	Items []wireItem `json:"items"`
}

// GenerateBatch submits one batch of image descriptions and returns the
// generated metadata. Results are correlated by id and may come back in any
// order; entries whose id was not requested are dropped, and requested ids
// the model failed to answer are simply absent from the returned slice.
// Per-field gaps never fail an item: a blank title falls back to
// FallbackTitle and an unrecognized category falls back to the default
// category.
func (c *Client) GenerateBatch(ctx context.Context, requests []Request) ([]Result, error) {
	if len(requests) == 0 {
		return nil, errors.New("metadata generate: at least one request required")
	}
	requested := make(map[string]struct{}, len(requests))
	for _, req := range requests {
		id := strings.TrimSpace(req.ID)
		if id == "" {
			return nil, errors.New("metadata generate: request id required")
		}
		if _, dup := requested[id]; dup {
			return nil, fmt.Errorf("metadata generate: duplicate request id %q", id)
		}
		requested[id] = struct{}{}
	}
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return nil, errors.New("metadata generate: api key required")
	}

	encoded, err := json.MarshalIndent(requests, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("metadata generate: encode requests: %w", err)
	}

	payload := chatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: GenerationPrompt},
			{Role: "user", Content: string(encoded)},
		},
		Temperature:    0,
		ResponseFormat: map[string]string{"type": jsonResponseType},
	}
	content, err := c.completionContentWithRetry(ctx, payload, "metadata generate")
	if err != nil {
		return nil, err
	}

	items, err := decodeBatchPayload(content)
	if err != nil {
		return nil, fmt.Errorf("metadata generate: parse payload: %w", err)
	}

	results := make([]Result, 0, len(requests))
	for _, item := range items {
		id := strings.TrimSpace(item.ID)
		if _, ok := requested[id]; !ok {
			continue
		}
		// First answer per id wins; repeated entries are dropped.
		delete(requested, id)
		results = append(results, normalizeResult(id, item))
	}
	return results, nil
}

// decodeBatchPayload accepts the documented {"items": [...]} envelope as well
// as a bare top-level array, which some models emit despite the prompt.
func decodeBatchPayload(content string) ([]wireItem, error) {
	var envelope batchEnvelope
	envErr := DecodeModelJSON(content, &envelope)
	if envErr == nil && len(envelope.Items) > 0 {
		return envelope.Items, nil
	}

	var bare []wireItem
	if err := DecodeModelJSON(content, &bare); err == nil && len(bare) > 0 {
		return bare, nil
	}

	if envErr != nil {
		return nil, envErr
	}
	return nil, errors.New("response contains no items")
}

func normalizeResult(id string, item wireItem) Result {
	title := strings.TrimSpace(item.Title)
	if title == "" {
		title = FallbackTitle
	}
	return Result{
		ID:       id,
		Title:    title,
		Keywords: joinKeywords(item.Keywords),
		Category: categories.Normalize(item.Category),
	}
}

// joinKeywords flattens a keyword list into the comma-separated string the
// work item stores and the CSV export emits. Blank entries and
// case-insensitive duplicates are dropped; original casing is kept.
func joinKeywords(keywords []string) string {
	cleaned := make([]string, 0, len(keywords))
	seen := make(map[string]struct{}, len(keywords))
	for _, keyword := range keywords {
		keyword = strings.TrimSpace(keyword)
		if keyword == "" {
			continue
		}
		folded := strings.ToLower(keyword)
		if _, dup := seen[folded]; dup {
			continue
		}
		seen[folded] = struct{}{}
		cleaned = append(cleaned, keyword)
	}
	return strings.Join(cleaned, ", ")
}
