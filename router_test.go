package transit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openfahrplan.dev/transit"
	"openfahrplan.dev/transit/gtfstime"
	"openfahrplan.dev/transit/testutil"
)

func sec(t *testing.T, s string) int64 {
	v := gtfstime.Seconds(s)
	require.NotEqual(t, gtfstime.Infinity, v, "bad literal %q", s)
	return v
}

// The fixture network:
//
//	t1 (U1): a 08:00 -> b 08:10 -> c 08:20
//	t2 (U2): c 08:30 -> d 08:45
//	t3 (U2): a 08:05 -> d 09:30 (slow direct)
//	t4 (U1): e 08:20 -> f 08:40
//	t5 (U1): a 09:00 -> b 09:10 -> c 09:20
//	transfer b -> e, 300s
func routerFixture(t *testing.T) *transit.Router {
	return testutil.BuildRouter(t, map[string][]string{
		"stops.txt": {
			"stop_id,stop_name,stop_lat,stop_lon",
			"a,Stop A,1,1",
			"b,Stop B,2,2",
			"c,Stop C,3,3",
			"d,Stop D,4,4",
			"e,Stop E,2.1,2.1",
			"f,Stop F,5,5",
		},
		"routes.txt": {
			"route_id,route_short_name,route_type",
			"u1,U1,1",
			"u2,U2,1",
		},
		"trips.txt": {
			"trip_id,route_id,direction_id",
			"t1,u1,0",
			"t2,u2,0",
			"t3,u2,0",
			"t4,u1,0",
			"t5,u1,0",
		},
		"stop_times.txt": {
			"trip_id,stop_id,stop_sequence,arrival_time,departure_time",
			"t1,a,1,08:00:00,08:00:00",
			"t1,b,2,08:10:00,08:10:00",
			"t1,c,3,08:20:00,08:20:00",
			"t2,c,1,08:30:00,08:30:00",
			"t2,d,2,08:45:00,08:45:00",
			"t3,a,1,08:05:00,08:05:00",
			"t3,d,2,09:30:00,09:30:00",
			"t4,e,1,08:20:00,08:20:00",
			"t4,f,2,08:40:00,08:40:00",
			"t5,a,1,09:00:00,09:00:00",
			"t5,b,2,09:10:00,09:10:00",
			"t5,c,3,09:20:00,09:20:00",
		},
		"transfers.txt": {
			"from_stop_id,to_stop_id,transfer_type,min_transfer_time",
			"b,e,2,300",
		},
	})
}

// requireWellFormed checks the universal journey invariants: a
// contiguous leg chain from origin to destination, trip legs that
// ride real trips in stop-sequence order, and no more boardings than
// rounds allowed.
func requireWellFormed(t *testing.T, router *transit.Router, journey *transit.Journey, from, to string, maxRounds int) {
	require.NotEmpty(t, journey.Stops)
	assert.Equal(t, from, journey.Stops[0])
	assert.Equal(t, to, journey.Stops[len(journey.Stops)-1])

	if len(journey.Legs) > 0 {
		assert.Equal(t, from, journey.Legs[0].From)
		assert.Equal(t, to, journey.Legs[len(journey.Legs)-1].To)
	}
	for i := 1; i < len(journey.Legs); i++ {
		assert.Equal(t, journey.Legs[i-1].To, journey.Legs[i].From, "leg chain broken at %d", i)
	}

	boardings := 0
	lastTrip := ""
	for _, leg := range journey.Legs {
		if leg.Kind != transit.LegTrip {
			lastTrip = ""
			assert.GreaterOrEqual(t, leg.Walk, int64(0))
			continue
		}
		if leg.TripID != lastTrip {
			boardings++
			lastTrip = leg.TripID
		}
		_, ok := router.Feed().TripByID(leg.TripID)
		assert.True(t, ok, "trip leg references unknown trip %s", leg.TripID)
	}
	assert.LessOrEqual(t, boardings, maxRounds)
}

func TestConnectionDirect(t *testing.T) {
	router := routerFixture(t)

	journey := router.Connection("a", "c", sec(t, "07:50:00"), 0)
	require.NotNil(t, journey)
	requireWellFormed(t, router, journey, "a", "c", transit.DefaultMaxRounds)

	assert.Equal(t, sec(t, "08:20:00"), journey.Arrival)
	assert.Equal(t, []string{"a", "b", "c"}, journey.Stops)
	assert.Equal(t, []string{"t1", "t1"}, journey.TripIDs())
}

func TestConnectionWithTransfer(t *testing.T) {
	router := routerFixture(t)

	// t1 to c, then t2 beats the slow direct t3
	journey := router.Connection("a", "d", sec(t, "07:50:00"), 0)
	require.NotNil(t, journey)
	requireWellFormed(t, router, journey, "a", "d", transit.DefaultMaxRounds)

	assert.Equal(t, sec(t, "08:45:00"), journey.Arrival)
	assert.Equal(t, []string{"t1", "t1", "t2"}, journey.TripIDs())
}

func TestConnectionWithFootpath(t *testing.T) {
	router := routerFixture(t)

	journey := router.Connection("a", "f", sec(t, "07:50:00"), 0)
	require.NotNil(t, journey)
	requireWellFormed(t, router, journey, "a", "f", transit.DefaultMaxRounds)

	assert.Equal(t, sec(t, "08:40:00"), journey.Arrival)
	require.Len(t, journey.Legs, 3)
	assert.Equal(t, transit.LegTrip, journey.Legs[0].Kind)
	assert.Equal(t, "t1", journey.Legs[0].TripID)

	walk := journey.Legs[1]
	assert.Equal(t, transit.LegWalk, walk.Kind)
	assert.Equal(t, "b", walk.From)
	assert.Equal(t, "e", walk.To)
	assert.Equal(t, int64(300), walk.Walk)

	assert.Equal(t, "t4", journey.Legs[2].TripID)
}

func TestConnectionMaxRounds(t *testing.T) {
	router := routerFixture(t)

	// with a single round only the slow direct trip can make it
	journey := router.Connection("a", "d", sec(t, "07:50:00"), 1)
	require.NotNil(t, journey)
	requireWellFormed(t, router, journey, "a", "d", 1)
	assert.Equal(t, sec(t, "09:30:00"), journey.Arrival)
	assert.Equal(t, []string{"t3"}, journey.TripIDs())
}

func TestConnectionNoResult(t *testing.T) {
	router := routerFixture(t)

	// unknown stops
	assert.Nil(t, router.Connection("nope", "c", sec(t, "08:00:00"), 0))
	assert.Nil(t, router.Connection("a", "nope", sec(t, "08:00:00"), 0))

	// departure past the last reachable event
	assert.Nil(t, router.Connection("a", "c", sec(t, "23:00:00"), 0))

	// no path at all: f has no outgoing service
	assert.Nil(t, router.Connection("f", "a", sec(t, "06:00:00"), 0))

	// bad departure literal
	assert.Nil(t, router.ConnectionAt("a", "c", "8 o'clock", 0))
	assert.Nil(t, router.ConnectionAt("a", "c", "", 0))
}

func TestConnectionSameStop(t *testing.T) {
	router := routerFixture(t)

	dep := sec(t, "08:00:00")
	journey := router.Connection("a", "a", dep, 0)
	require.NotNil(t, journey)
	assert.Equal(t, []string{"a"}, journey.Stops)
	assert.Empty(t, journey.Legs)
	assert.Equal(t, dep, journey.Arrival)
}

func TestConnectionIdempotent(t *testing.T) {
	router := routerFixture(t)

	first := router.Connection("a", "d", sec(t, "07:50:00"), 0)
	second := router.Connection("a", "d", sec(t, "07:50:00"), 0)
	assert.Equal(t, first, second)
}

func TestConnectionMonotoneInDeparture(t *testing.T) {
	router := routerFixture(t)

	early := router.Connection("a", "c", sec(t, "07:50:00"), 0)
	late := router.Connection("a", "c", sec(t, "08:01:00"), 0)
	require.NotNil(t, early)
	require.NotNil(t, late)
	assert.Equal(t, sec(t, "09:20:00"), late.Arrival)
	assert.GreaterOrEqual(t, late.Arrival, early.Arrival)
}

func TestConnectionAt(t *testing.T) {
	router := routerFixture(t)

	journey := router.ConnectionAt("a", "c", "07:50:00", 0)
	require.NotNil(t, journey)
	assert.Equal(t, sec(t, "08:20:00"), journey.Arrival)
}

func TestDepartures(t *testing.T) {
	router := routerFixture(t)

	departures := router.Departures("a", 0, 0)
	require.Len(t, departures, 3)
	assert.Equal(t, "t1", departures[0].TripID)
	assert.Equal(t, "u1", departures[0].RouteID)
	assert.Equal(t, sec(t, "08:00:00"), departures[0].Time)
	assert.Equal(t, "t3", departures[1].TripID)
	assert.Equal(t, "t5", departures[2].TripID)

	// time filter and limit
	departures = router.Departures("a", sec(t, "08:01:00"), 1)
	require.Len(t, departures, 1)
	assert.Equal(t, "t3", departures[0].TripID)

	// the last stop of a trip is not a departure: c only has t2
	departures = router.Departures("c", 0, 0)
	require.Len(t, departures, 1)
	assert.Equal(t, "t2", departures[0].TripID)

	// unknown stop
	assert.Nil(t, router.Departures("nope", 0, 0))
}
