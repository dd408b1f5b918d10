package llm

import "sync"

// UsageTotals accumulates token usage across every second-opinion call
// in a run. Safe for concurrent use.
type UsageTotals struct {
	mu               sync.Mutex
	requests         int
	promptTokens     int
	completionTokens int
}

// UsageSnapshot is a point-in-time copy of the totals, reported in the
// run summary.
type UsageSnapshot struct {
	Requests         int `json:"requests"`
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// Record adds one completion's usage to the totals.
func (u *UsageTotals) Record(c *Completion) {
	if c == nil {
		return
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.requests++
	u.promptTokens += c.PromptTokens
	u.completionTokens += c.CompletionTokens
}

// Snapshot returns a copy of the current totals.
func (u *UsageTotals) Snapshot() UsageSnapshot {
	u.mu.Lock()
	defer u.mu.Unlock()
	return UsageSnapshot{
		Requests:         u.requests,
		PromptTokens:     u.promptTokens,
		CompletionTokens: u.completionTokens,
		TotalTokens:      u.promptTokens + u.completionTokens,
	}
}
