// Package usage accumulates token consumption and estimated spend across
// extraction runs. Vendors report token counts on synchronous completions;
// streaming responses usually omit them, so totals are a lower bound.
package usage

import (
	"fmt"
	"sort"
	"sync"

	"github.com/fieldlens/fieldlens/core/model"
	"github.com/fieldlens/fieldlens/providers/ai"
)

// ModelCost is the pricing structure for one model, in USD per million tokens.
type ModelCost struct {
	InputCostPerMillion  float64 `json:"input_cost_per_million"`
	OutputCostPerMillion float64 `json:"output_cost_per_million"`
}

// CalculateCost returns the estimated spend for the given token counts.
func (mc ModelCost) CalculateCost(inputTokens, outputTokens int) float64 {
	input := (float64(inputTokens) / 1_000_000.0) * mc.InputCostPerMillion
	output := (float64(outputTokens) / 1_000_000.0) * mc.OutputCostPerMillion
	return input + output
}

func (mc ModelCost) String() string {
	return fmt.Sprintf("Input: $%.6f/M, Output: $%.6f/M", mc.InputCostPerMillion, mc.OutputCostPerMillion)
}

// ModelUsage is the accumulated consumption for one model.
type ModelUsage struct {
	Model            string  `json:"model"`
	Provider         string  `json:"provider"`
	Requests         int     `json:"requests"`
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	EstimatedCostUSD float64 `json:"estimated_cost_usd"`
}

// Summary is a point-in-time snapshot of all accumulated usage.
type Summary struct {
	Models           []ModelUsage `json:"models"`
	TotalTokens      int          `json:"total_tokens"`
	EstimatedCostUSD float64      `json:"estimated_cost_usd"`

	// Currency is always "USD" for consistency
	Currency string `json:"currency"`
}

// Tracker accumulates usage across extractions. Safe for concurrent use; a
// single Tracker is typically shared by every submission in a process.
type Tracker struct {
	mu     sync.Mutex
	models map[string]*ModelUsage
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{models: map[string]*ModelUsage{}}
}

// Record adds one response's token counts to the running totals. A nil usage
// (streaming responses, vendors that omit accounting) is counted as a request
// with zero tokens so request totals stay accurate.
func (t *Tracker) Record(vendor model.Vendor, modelID string, reported *ai.Usage) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := string(vendor) + "/" + modelID
	entry, ok := t.models[key]
	if !ok {
		entry = &ModelUsage{Model: modelID, Provider: string(vendor)}
		t.models[key] = entry
	}

	entry.Requests++
	if reported == nil {
		return
	}

	entry.PromptTokens += reported.PromptTokens
	entry.CompletionTokens += reported.CompletionTokens
	total := reported.TotalTokens
	if total == 0 {
		total = reported.PromptTokens + reported.CompletionTokens
	}
	entry.TotalTokens += total

	if pricing, ok := PricingFor(modelID); ok {
		entry.EstimatedCostUSD += pricing.CalculateCost(reported.PromptTokens, reported.CompletionTokens)
	}
}

// Summary snapshots the accumulated usage, sorted by model name.
func (t *Tracker) Summary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	summary := Summary{Currency: "USD"}
	for _, entry := range t.models {
		summary.Models = append(summary.Models, *entry)
		summary.TotalTokens += entry.TotalTokens
		summary.EstimatedCostUSD += entry.EstimatedCostUSD
	}
	sort.Slice(summary.Models, func(i, j int) bool {
		return summary.Models[i].Model < summary.Models[j].Model
	})
	return summary
}
