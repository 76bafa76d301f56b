// Package usage accumulates token counts and derived cost across embedding
// and chat calls.
package usage

import (
	"fmt"
	"sync"
	"time"
)

// DayUsage is one calendar day's accumulated tokens and cost.
type DayUsage struct {
	Tokens int     `json:"tokens"`
	Cost   float64 `json:"cost"`
}

// Ledger is a snapshot of the tracker's counters. Daily buckets are keyed
// by UTC calendar date (2006-01-02).
type Ledger struct {
	EmbeddingTokens int                 `json:"embedding_tokens"`
	InputTokens     int                 `json:"input_tokens"`
	OutputTokens    int                 `json:"output_tokens"`
	TotalCost       float64             `json:"total_cost"`
	DailyUsage      map[string]DayUsage `json:"daily_usage"`
}

// Tracker is the process-wide usage ledger. It is an explicit injected
// service: every component that bills usage receives the same instance.
// Updates are atomic under one mutex; the ledger is never reset for the
// lifetime of the process.
type Tracker struct {
	mu         sync.Mutex
	embedModel string
	chatModel  string
	ledger     Ledger
	now        func() time.Time
}

func NewTracker(embedModel, chatModel string) *Tracker {
	return &Tracker{
		embedModel: embedModel,
		chatModel:  chatModel,
		ledger:     Ledger{DailyUsage: make(map[string]DayUsage)},
		now:        time.Now,
	}
}

// RecordEmbedding adds an embedding call's token usage and returns the cost
// billed for it. Callers record only after a call returns successfully.
func (t *Tracker) RecordEmbedding(tokens int) float64 {
	cost := EmbeddingCost(t.embedModel, tokens)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.ledger.EmbeddingTokens += tokens
	t.addLocked(tokens, cost)
	return cost
}

// RecordChat adds a chat completion call's token usage and returns the cost
// billed for it.
func (t *Tracker) RecordChat(inputTokens, outputTokens int) float64 {
	cost := ChatCost(t.chatModel, inputTokens, outputTokens)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.ledger.InputTokens += inputTokens
	t.ledger.OutputTokens += outputTokens
	t.addLocked(inputTokens+outputTokens, cost)
	return cost
}

func (t *Tracker) addLocked(tokens int, cost float64) {
	t.ledger.TotalCost += cost

	day := t.now().UTC().Format("2006-01-02")
	d := t.ledger.DailyUsage[day]
	d.Tokens += tokens
	d.Cost += cost
	t.ledger.DailyUsage[day] = d
}

// Summary returns a copy of the ledger.
func (t *Tracker) Summary() Ledger {
	t.mu.Lock()
	defer t.mu.Unlock()

	snapshot := t.ledger
	snapshot.DailyUsage = make(map[string]DayUsage, len(t.ledger.DailyUsage))
	for k, v := range t.ledger.DailyUsage {
		snapshot.DailyUsage[k] = v
	}
	return snapshot
}

// CheckDailyLimit returns a warning once today's accumulated cost reaches
// 80% of the limit. This is read-only and fail-open: it never blocks the
// call that triggered it.
func (t *Tracker) CheckDailyLimit(limit float64) (string, bool) {
	if limit <= 0 {
		return "", false
	}

	t.mu.Lock()
	today := t.ledger.DailyUsage[t.now().UTC().Format("2006-01-02")]
	t.mu.Unlock()

	if today.Cost < 0.8*limit {
		return "", false
	}
	pct := today.Cost / limit * 100
	return fmt.Sprintf("daily usage $%.4f has reached %.0f%% of the $%.2f limit", today.Cost, pct, limit), true
}
