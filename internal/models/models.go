package models

import (
	"time"
)

// Target defines an endpoint that must be kept awake.
type Target struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	URL         string `yaml:"url" json:"url"`
	MaxAttempts int    `yaml:"max_attempts" json:"max_attempts,omitempty"`
	DelayMS     int    `yaml:"delay_ms" json:"delay_ms,omitempty"`
}

// WakeCheck captures the outcome of waking a single target.
type WakeCheck struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	URL       string  `json:"url"`
	OK        bool    `json:"ok"`
	Attempts  int     `json:"attempts"`
	LatencyMS float64 `json:"latency_ms"`
	Kind      string  `json:"kind,omitempty"`
	Error     *string `json:"error,omitempty"`
}

// WakeEntry stores the results of one keep-warm round.
type WakeEntry struct {
	Timestamp time.Time   `json:"timestamp"`
	Checks    []WakeCheck `json:"checks"`
}
