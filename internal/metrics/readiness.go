package metrics

import (
	"math"
	"sort"
	"time"

	"clanwake/internal/models"
)

// TargetReadiness summarises how reliably a target woke up.
type TargetReadiness struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	ReadyPercent float64 `json:"ready_percent"`
	TotalWakes   int     `json:"total_wakes"`
	Ready        int     `json:"ready"`
	Exhausted    int     `json:"exhausted"`
	AvgAttempts  float64 `json:"avg_attempts"`
	AvgLatencyMS float64 `json:"avg_latency_ms"`
	LastOK       bool    `json:"last_ok"`
	LastError    string  `json:"last_error,omitempty"`
	LastUpdated  string  `json:"last_updated,omitempty"`
}

// ComputeReadiness aggregates wake statistics per target from history entries.
// Average latency only counts successful wakes.
func ComputeReadiness(entries []models.WakeEntry) []TargetReadiness {
	type acc struct {
		name      string
		ready     int
		exhausted int
		attempts  int
		latency   float64
		lastOK    bool
		lastError string
		lastTime  time.Time
	}
	state := make(map[string]*acc)
	for _, entry := range entries {
		for _, check := range entry.Checks {
			target := state[check.ID]
			if target == nil {
				target = &acc{name: check.Name}
				state[check.ID] = target
			}
			target.attempts += check.Attempts
			if check.OK {
				target.ready++
				target.latency += check.LatencyMS
			} else {
				target.exhausted++
			}
			if !entry.Timestamp.Before(target.lastTime) {
				target.lastTime = entry.Timestamp
				target.lastOK = check.OK
				target.lastError = ""
				if check.Error != nil {
					target.lastError = *check.Error
				}
			}
		}
	}
	if len(state) == 0 {
		return nil
	}

	keys := make([]string, 0, len(state))
	for k := range state {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	results := make([]TargetReadiness, 0, len(keys))
	for _, id := range keys {
		data := state[id]
		total := data.ready + data.exhausted
		result := TargetReadiness{
			ID:         id,
			Name:       data.name,
			TotalWakes: total,
			Ready:      data.ready,
			Exhausted:  data.exhausted,
			LastOK:     data.lastOK,
			LastError:  data.lastError,
		}
		if total > 0 {
			result.ReadyPercent = round2(float64(data.ready) / float64(total) * 100)
			result.AvgAttempts = round2(float64(data.attempts) / float64(total))
		}
		if data.ready > 0 {
			result.AvgLatencyMS = round2(data.latency / float64(data.ready))
		}
		if !data.lastTime.IsZero() {
			result.LastUpdated = data.lastTime.UTC().Format(time.RFC3339)
		}
		results = append(results, result)
	}
	return results
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
