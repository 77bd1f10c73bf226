package transit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openfahrplan.dev/transit"
	"openfahrplan.dev/transit/testutil"
)

func stationsFixture(t *testing.T) *transit.Feed {
	return testutil.BuildFeed(t, map[string][]string{
		"stops.txt": {
			"stop_id,stop_name,stop_lat,stop_lon,location_type,parent_station",
			"hbf,Nürnberg Hbf,49.445,11.082,1,",
			"hbf:1,Nürnberg Hbf,49.445,11.082,0,hbf",
			"hbf:2,Nürnberg Hbf,49.4451,11.0821,0,hbf",
			"deich,Deichslerstraße,49.46,11.10,0,",
			"lorenz,Lorenzkirche,49.4508,11.0783,0,",
			"plaerrer,Plärrer,49.4479,11.0605,0,",
			"weiss,Weißenburger Str.,49.30,11.02,0,",
		},
		"transfers.txt": {
			"from_stop_id,to_stop_id,transfer_type,min_transfer_time",
			"lorenz,plaerrer,1,0",
			"plaerrer,deich,2,240",
			"deich,weiss,2,900",
			"hbf:1,lorenz,0,0",
			"hbf:2,lorenz,3,0",
		},
	})
}

func TestFindStation(t *testing.T) {
	feed := stationsFixture(t)

	// exact name wins
	matches := feed.FindStation("Nürnberg Hbf", 1)
	require.Len(t, matches, 1)
	assert.Equal(t, "Nürnberg Hbf", matches[0].Name)
	assert.Equal(t, 100, matches[0].Score)
	// the station record (location_type 1) is skipped, so the hit
	// is the first platform
	assert.Equal(t, "hbf:1", matches[0].StopID)

	// ß and Straße spellings normalize into each other
	matches = feed.FindStation("Deichslerstrasse", 1)
	require.Len(t, matches, 1)
	assert.Equal(t, "deich", matches[0].StopID)
	assert.Equal(t, 100, matches[0].Score)

	matches = feed.FindStation("Weissenburger Straße", 1)
	require.Len(t, matches, 1)
	assert.Equal(t, "weiss", matches[0].StopID)

	// ascii query against umlaut name
	matches = feed.FindStation("Plarrer", 1)
	require.Len(t, matches, 1)
	assert.Equal(t, "plaerrer", matches[0].StopID)

	// results are deduplicated by name and capped by limit
	matches = feed.FindStation("Nürnberg", 10)
	names := map[string]int{}
	for _, m := range matches {
		names[m.Name]++
	}
	assert.Equal(t, 1, names["Nürnberg Hbf"])

	matches = feed.FindStation("kirche", 2)
	assert.Len(t, matches, 2)

	// empty query is not an error
	assert.Empty(t, feed.FindStation("", 10))
	assert.Empty(t, feed.FindStation("  ,-  ", 10))
}

func TestFindSiblings(t *testing.T) {
	feed := stationsFixture(t)

	siblings := feed.FindSiblings("hbf:1", false)
	require.Len(t, siblings, 1)
	assert.Equal(t, "hbf:2", siblings[0].ID)

	siblings = feed.FindSiblings("hbf:1", true)
	require.Len(t, siblings, 2)
	assert.Equal(t, "hbf:1", siblings[0].ID)
	assert.Equal(t, "hbf:2", siblings[1].ID)

	// a stop without a parent is its own pseudo-parent
	siblings = feed.FindSiblings("hbf", false)
	require.Len(t, siblings, 2)

	// stop without parent or children
	assert.Empty(t, feed.FindSiblings("lorenz", false))

	// unknown stop
	assert.Empty(t, feed.FindSiblings("nope", false))
}

func TestFindMatchingNameStops(t *testing.T) {
	feed := stationsFixture(t)

	same := feed.FindMatchingNameStops("hbf:1", false)
	require.Len(t, same, 2)
	assert.Equal(t, "hbf", same[0].ID)
	assert.Equal(t, "hbf:2", same[1].ID)

	same = feed.FindMatchingNameStops("hbf:1", true)
	require.Len(t, same, 3)

	assert.Empty(t, feed.FindMatchingNameStops("deich", false))
	assert.Empty(t, feed.FindMatchingNameStops("nope", false))
}

func TestReachableTransfers(t *testing.T) {
	feed := stationsFixture(t)

	// type 1 edge with zero min time
	reachable := feed.ReachableTransfers("lorenz", 300, false)
	require.Len(t, reachable, 2)
	assert.Equal(t, "deich", reachable[0].ID)
	assert.Equal(t, "plaerrer", reachable[1].ID)

	// the graph is undirected
	reachable = feed.ReachableTransfers("deich", 300, false)
	require.Len(t, reachable, 2)

	// tighter budget cuts the second hop
	reachable = feed.ReachableTransfers("lorenz", 100, false)
	require.Len(t, reachable, 1)
	assert.Equal(t, "plaerrer", reachable[0].ID)

	// type 0 and 3 rows never participate
	assert.Empty(t, feed.ReachableTransfers("hbf:1", 300, false))
	assert.Empty(t, feed.ReachableTransfers("hbf:2", 300, false))

	// include_origin
	reachable = feed.ReachableTransfers("lorenz", 100, true)
	require.Len(t, reachable, 2)

	assert.Empty(t, feed.ReachableTransfers("nope", 300, false))
}

func TestFindRelatedStops(t *testing.T) {
	feed := stationsFixture(t)

	related := feed.FindRelatedStops("hbf:1")
	ids := []string{}
	for _, s := range related {
		ids = append(ids, s.ID)
	}
	// self first, then siblings and name matches, deduplicated
	assert.Equal(t, []string{"hbf:1", "hbf:2", "hbf"}, ids)

	related = feed.FindRelatedStops("lorenz")
	ids = ids[:0]
	for _, s := range related {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"lorenz", "deich", "plaerrer"}, ids)
}

func TestNearbyStops(t *testing.T) {
	feed := stationsFixture(t)

	stops, err := feed.NearbyStops(49.4508, 11.0783, 3)
	require.NoError(t, err)
	require.Len(t, stops, 3)
	// platforms hide behind their station
	assert.Equal(t, "lorenz", stops[0].ID)
	assert.Equal(t, "hbf", stops[1].ID)
	assert.Equal(t, "plaerrer", stops[2].ID)
}
