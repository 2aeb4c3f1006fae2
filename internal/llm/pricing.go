package llm

import (
	"sort"
	"strings"
)

// ModelCost holds list prices in USD per million tokens. Image input is
// billed as input tokens by every supported provider, so it needs no
// separate rate.
type ModelCost struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

// Cost calculates the total USD cost for the given token counts.
func (c ModelCost) Cost(inputTokens, outputTokens int) float64 {
	return (float64(inputTokens)*c.InputPerMTok + float64(outputTokens)*c.OutputPerMTok) / 1_000_000
}

// LookupCost returns the pricing for a model ID, or nil if unknown.
//
// IDs are normalized first: OpenRouter's vendor prefix ("google/") and
// Vertex's resource path are dropped. An ID with no exact entry falls back
// to the longest known ID it starts with, which covers dated snapshots
// such as "gpt-4o-2024-11-20" or "gemini-2.5-flash-001".
func LookupCost(modelID string) *ModelCost {
	id := normalizeModelID(modelID)
	if c, ok := modelCosts[id]; ok {
		return &c
	}
	for _, known := range costPrefixes {
		if strings.HasPrefix(id, known+"-") {
			c := modelCosts[known]
			return &c
		}
	}
	return nil
}

func normalizeModelID(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	if i := strings.LastIndexByte(id, '/'); i >= 0 {
		id = id[i+1:]
	}
	// OpenRouter variants like ":free" or ":beta".
	id, _, _ = strings.Cut(id, ":")
	return id
}

// costPrefixes lists modelCosts keys longest first, so the most specific
// family wins.
var costPrefixes = func() []string {
	keys := make([]string, 0, len(modelCosts))
	for k := range modelCosts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}()

// modelCosts covers the vision-capable models this tool is run with.
// Source: models.dev, 2026-02-15.
var modelCosts = map[string]ModelCost{
	// Anthropic
	"claude-3-5-haiku":  {0.8, 4},
	"claude-3-5-sonnet": {3, 15},
	"claude-3-7-sonnet": {3, 15},
	"claude-haiku-4-5":  {1, 5},
	"claude-opus-4":     {15, 75},
	"claude-opus-4-1":   {15, 75},
	"claude-opus-4-5":   {5, 25},
	"claude-opus-4-6":   {5, 25},
	"claude-sonnet-4":   {3, 15},
	"claude-sonnet-4-5": {3, 15},

	// OpenAI
	"gpt-4-turbo":  {10, 30},
	"gpt-4.1":      {2, 8},
	"gpt-4.1-mini": {0.4, 1.6},
	"gpt-4.1-nano": {0.1, 0.4},
	"gpt-4o":       {2.5, 10},
	"gpt-4o-mini":  {0.15, 0.6},
	"gpt-5":        {1.25, 10},
	"gpt-5-mini":   {0.25, 2},
	"gpt-5-nano":   {0.05, 0.4},
	"gpt-5.1":      {1.25, 10},
	"gpt-5.2":      {1.75, 14},
	"o3":           {2, 8},
	"o4-mini":      {1.1, 4.4},

	// Google
	"gemini-2.0-flash":       {0.1, 0.4},
	"gemini-2.0-flash-lite":  {0.075, 0.3},
	"gemini-2.5-flash":       {0.3, 2.5},
	"gemini-2.5-flash-lite":  {0.1, 0.4},
	"gemini-2.5-pro":         {1.25, 10},
	"gemini-3-flash-preview": {0.5, 3},
	"gemini-3-pro-preview":   {2, 12},
}
