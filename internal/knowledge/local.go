// Package knowledge provides the lookup resolvers: a local knowledge base
// backed by JSON + policy files and a live web search. Which one handles
// lookups is an explicit configuration choice, never a silent fallback.
package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Base is a keyword-matched knowledge base. Values are either plain strings
// or string maps (e.g. order number -> status).
type Base struct {
	entries  map[string]any
	policies string
}

// NewBase loads the knowledge base JSON and the policies text file.
func NewBase(kbPath, policiesPath string) (*Base, error) {
	data, err := os.ReadFile(kbPath)
	if err != nil {
		return nil, fmt.Errorf("read knowledge base: %w", err)
	}

	var entries map[string]any
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode knowledge base %s: %w", kbPath, err)
	}

	policies, err := os.ReadFile(policiesPath)
	if err != nil {
		return nil, fmt.Errorf("read policies: %w", err)
	}

	return &Base{entries: entries, policies: string(policies)}, nil
}

// NewDemoBase returns a Base seeded with sample support data, for demos and
// tests that should not touch the filesystem.
func NewDemoBase() *Base {
	return &Base{
		entries: map[string]any{
			"order_status": map[string]any{
				"ORDER-12345": "Shipped - Expected delivery: 2 days",
				"ORDER-67890": "Processing - Expected ship date: Tomorrow",
			},
			"return_policy": "Items can be returned within 30 days of purchase",
			"shipping_info": "Standard shipping: 5-7 days, Express: 2-3 days",
		},
		policies: "Company policies: Customer satisfaction is our priority.",
	}
}

// Search does keyword matching against entry keys, exact matching against
// nested identifiers (order numbers), and a policy lookup for policy/return
// queries. Results come back in stable key order.
func (b *Base) Search(ctx context.Context, query string) (string, error) {
	queryLower := strings.ToLower(query)
	var results []string

	keys := make([]string, 0, len(b.entries))
	for k := range b.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if !keyMatches(key, queryLower) {
			continue
		}
		switch value := b.entries[key].(type) {
		case map[string]any:
			ids := make([]string, 0, len(value))
			for id := range value {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			for _, id := range ids {
				if strings.Contains(query, id) {
					results = append(results, fmt.Sprintf("%s: %v", id, value[id]))
				}
			}
		default:
			results = append(results, fmt.Sprintf("%s: %v", key, value))
		}
	}

	if strings.Contains(queryLower, "policy") || strings.Contains(queryLower, "return") {
		excerpt := b.policies
		if len(excerpt) > 200 {
			excerpt = excerpt[:200] + "..."
		}
		results = append(results, "Policy Information: "+excerpt)
	}

	if len(results) == 0 {
		return "No relevant information found. Please provide more details.", nil
	}
	return strings.Join(results, "\n"), nil
}

// keyMatches reports whether any underscore-separated keyword of the entry
// key appears in the query.
func keyMatches(key, queryLower string) bool {
	for _, keyword := range strings.Split(strings.ToLower(key), "_") {
		if keyword != "" && strings.Contains(queryLower, keyword) {
			return true
		}
	}
	return false
}
