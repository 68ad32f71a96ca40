package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clanwake/internal/models"
)

func strPtr(s string) *string { return &s }

func TestComputeReadiness(t *testing.T) {
	base := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	entries := []models.WakeEntry{
		{
			Timestamp: base,
			Checks: []models.WakeCheck{
				{ID: "web", Name: "Web", OK: true, Attempts: 3, LatencyMS: 2100},
				{ID: "api", Name: "API", OK: false, Attempts: 5, Error: strPtr("endpoint did not become ready after 5 attempt(s)")},
			},
		},
		{
			Timestamp: base.Add(10 * time.Minute),
			Checks: []models.WakeCheck{
				{ID: "web", Name: "Web", OK: true, Attempts: 1, LatencyMS: 100},
				{ID: "api", Name: "API", OK: true, Attempts: 2, LatencyMS: 900},
			},
		},
		{
			Timestamp: base.Add(20 * time.Minute),
			Checks: []models.WakeCheck{
				{ID: "api", Name: "API", OK: true, Attempts: 1, LatencyMS: 300},
			},
		},
	}

	got := ComputeReadiness(entries)
	require.Len(t, got, 2)

	api := got[0]
	assert.Equal(t, "api", api.ID)
	assert.Equal(t, 3, api.TotalWakes)
	assert.Equal(t, 2, api.Ready)
	assert.Equal(t, 1, api.Exhausted)
	assert.Equal(t, 66.67, api.ReadyPercent)
	assert.Equal(t, 2.67, api.AvgAttempts)
	assert.Equal(t, 600.0, api.AvgLatencyMS)
	assert.True(t, api.LastOK)
	assert.Empty(t, api.LastError)
	assert.Equal(t, "2026-10-19T08:20:00Z", api.LastUpdated)

	web := got[1]
	assert.Equal(t, "web", web.ID)
	assert.Equal(t, 100.0, web.ReadyPercent)
	assert.Equal(t, 2.0, web.AvgAttempts)
	assert.Equal(t, 1100.0, web.AvgLatencyMS)
}

func TestComputeReadinessEmpty(t *testing.T) {
	assert.Nil(t, ComputeReadiness(nil))
}
