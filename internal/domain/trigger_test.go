package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestLenientThreshold(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, ok := LenientThreshold(nil)
		assert.False(t, ok)
	})

	t.Run("largest distance and smallest wind", func(t *testing.T) {
		th, ok := LenientThreshold([]TriggerFact{
			{DistanceKm: 100, WindSpeed: 50},
			{DistanceKm: 500, WindSpeed: 35},
			{DistanceKm: 250, WindSpeed: 0},
		})
		assert.True(t, ok)
		assert.Equal(t, Threshold{DistanceKm: 500, WindSpeed: 0}, th)
	})
}

func TestFilterTriggers(t *testing.T) {
	facts := []TriggerFact{
		{SID: "A", Asap0ID: 1, DistanceKm: 500, WindSpeed: 0},
		{SID: "A", Asap0ID: 1, DistanceKm: 500, WindSpeed: 5},
		{SID: "B", Asap0ID: 2, DistanceKm: 490, WindSpeed: 0},
		{SID: "C", Asap0ID: 3, DistanceKm: 500, WindSpeed: 0},
	}

	got := FilterTriggers(facts, Threshold{DistanceKm: 500, WindSpeed: 0})
	want := []TriggerFact{facts[0], facts[3]}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("FilterTriggers mismatch (-want +got):\n%s", diff)
	}
}

func TestTriggerIndex(t *testing.T) {
	idx := NewTriggerIndex([]TriggerFact{
		{SID: "A", Asap0ID: 1},
		{SID: "A", Asap0ID: 2},
		{SID: "B", Asap0ID: 2},
	})

	assert.Equal(t, 2, idx.Len())
	assert.True(t, idx.Triggered("A", 1))
	assert.True(t, idx.Triggered("A", 2))
	assert.True(t, idx.Triggered("B", 2))
	assert.False(t, idx.Triggered("B", 1))
	assert.False(t, idx.Triggered("missing", 1))

	var nilIdx *TriggerIndex
	assert.False(t, nilIdx.Triggered("A", 1))
	assert.Zero(t, nilIdx.Len())
}
