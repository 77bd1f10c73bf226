package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineDistance(t *testing.T) {
	loc := map[string][2]float64{
		"nyc":    {40.700000, -74.100000},
		"philly": {40.000000, -75.200000},
		"sf":     {37.800000, -122.500000},
		"sto":    {59.300000, 17.900000},
	}

	assert.InDelta(t, 121.438585, HaversineDistance(loc["nyc"][0], loc["nyc"][1], loc["philly"][0], loc["philly"][1]), 0.001)
	assert.InDelta(t, 4127.311071, HaversineDistance(loc["nyc"][0], loc["nyc"][1], loc["sf"][0], loc["sf"][1]), 0.001)
	assert.InDelta(t, 6318.636281, HaversineDistance(loc["nyc"][0], loc["nyc"][1], loc["sto"][0], loc["sto"][1]), 0.001)
	assert.InDelta(t, 4052.204563, HaversineDistance(loc["philly"][0], loc["philly"][1], loc["sf"][0], loc["sf"][1]), 0.001)

	// zero distance to self
	assert.InDelta(t, 0.0, HaversineDistance(loc["sf"][0], loc["sf"][1], loc["sf"][0], loc["sf"][1]), 0.000001)
}
