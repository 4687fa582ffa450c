package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hasFact(facts []TriggerFact, want TriggerFact) bool {
	for _, f := range facts {
		if f == want {
			return true
		}
	}
	return false
}

func TestComputeTriggers(t *testing.T) {
	grid := ThresholdGrid{MaxDistanceKm: 20, DistanceStepKm: 10, WindStep: 5}
	dists := []TrackDistance{
		// Far and strong, near and weak.
		{RowID: 1, SID: "S1", Asap0ID: 7, DistanceM: 18_000, WMOWind: 12},
		{RowID: 2, SID: "S1", Asap0ID: 7, DistanceM: 4_000, WMOWind: 3},
		{RowID: 3, SID: "S2", Asap0ID: 7, DistanceM: 0, WMOWind: 5},
	}

	facts := ComputeTriggers(dists, grid)
	require.NotEmpty(t, facts)

	tests := []struct {
		name string
		fact TriggerFact
		want bool
	}{
		{"inside at zero wind", TriggerFact{SID: "S1", Asap0ID: 7, DistanceKm: 10, WindSpeed: 0}, true},
		{"weak fix does not reach 5", TriggerFact{SID: "S1", Asap0ID: 7, DistanceKm: 10, WindSpeed: 5}, false},
		{"strong fix reaches 10 at 20km", TriggerFact{SID: "S1", Asap0ID: 7, DistanceKm: 20, WindSpeed: 10}, true},
		{"wind grid stops at peak", TriggerFact{SID: "S1", Asap0ID: 7, DistanceKm: 20, WindSpeed: 15}, false},
		{"distance zero is inclusive", TriggerFact{SID: "S2", Asap0ID: 7, DistanceKm: 0, WindSpeed: 5}, true},
		{"S1 is outside zero km", TriggerFact{SID: "S1", Asap0ID: 7, DistanceKm: 0, WindSpeed: 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, hasFact(facts, tt.fact))
		})
	}

	t.Run("one fact per pair and ordered by distance then wind", func(t *testing.T) {
		seen := make(map[TriggerFact]bool)
		for i, f := range facts {
			assert.False(t, seen[f], "duplicate fact %+v", f)
			seen[f] = true
			if i == 0 {
				continue
			}
			prev := facts[i-1]
			assert.True(t, prev.DistanceKm < f.DistanceKm ||
				(prev.DistanceKm == f.DistanceKm && prev.WindSpeed <= f.WindSpeed))
		}
	})

	t.Run("lenient pair of the grid", func(t *testing.T) {
		th, ok := LenientThreshold(facts)
		require.True(t, ok)
		assert.Equal(t, Threshold{DistanceKm: 20, WindSpeed: 0}, th)
		lenient := FilterTriggers(facts, th)
		assert.Len(t, lenient, 2)
	})
}

func TestComputeTriggers_InvalidGrid(t *testing.T) {
	dists := []TrackDistance{{SID: "S1", Asap0ID: 1, WMOWind: 10}}
	assert.Nil(t, ComputeTriggers(dists, ThresholdGrid{MaxDistanceKm: 10}))
	assert.Nil(t, ComputeTriggers(nil, DefaultThresholdGrid))
}
