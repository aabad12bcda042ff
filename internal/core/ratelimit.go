package core

import "time"

// UsageMetrics is a read-only snapshot of upstream request usage.
type UsageMetrics struct {
	TotalRequests      int64      `json:"totalRequests"`
	RequestsInLastHour int        `json:"requestsInLastHour"`
	RemainingRequests  int        `json:"remainingRequests"`
	Limit              int        `json:"limit"`
	WindowSeconds      int64      `json:"windowSeconds"`
	LastRequestTime    *time.Time `json:"lastRequestTime,omitempty"`
}
