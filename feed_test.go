package transit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openfahrplan.dev/transit"
	"openfahrplan.dev/transit/model"
	"openfahrplan.dev/transit/storage"
	"openfahrplan.dev/transit/testutil"
)

func TestNewFeed(t *testing.T) {
	feed := testutil.BuildFeed(t, map[string][]string{
		"stops.txt": {
			"stop_id,stop_name,stop_lat,stop_lon",
			"a,Stop A,1,1",
			"b,Stop B,2,2",
		},
		"routes.txt": {
			"route_id,route_short_name,route_type",
			"r1,U1,1",
		},
		"trips.txt": {
			"trip_id,route_id",
			"t1,r1",
		},
		"stop_times.txt": {
			"trip_id,stop_id,stop_sequence,arrival_time,departure_time",
			"t1,a,1,08:00:00,08:00:00",
			"t1,b,2,08:10:00,08:10:00",
		},
	})

	assert.Len(t, feed.Stops, 2)
	assert.Len(t, feed.StopTimes, 2)

	stop, ok := feed.StopByID("a")
	require.True(t, ok)
	assert.Equal(t, "Stop A", stop.Name)

	_, ok = feed.StopByID("nope")
	assert.False(t, ok)

	route, ok := feed.RouteForTrip("t1")
	require.True(t, ok)
	assert.Equal(t, "U1", route.ShortName)

	_, ok = feed.RouteForTrip("nope")
	assert.False(t, ok)
}

func TestNewFeedErrors(t *testing.T) {
	// completely empty reader
	s := storage.NewMemoryStorage()
	writer, err := s.GetWriter("empty")
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	reader, err := s.GetReader("empty")
	require.NoError(t, err)

	_, err = transit.NewFeed(reader)
	require.Error(t, err)
	assert.ErrorIs(t, err, transit.ErrFeedLoad)

	// stop without a name
	s = storage.NewMemoryStorage()
	writer, err = s.GetWriter("anon")
	require.NoError(t, err)
	require.NoError(t, writer.WriteStop(model.Stop{ID: "a"}))
	require.NoError(t, writer.Close())

	reader, err = s.GetReader("anon")
	require.NoError(t, err)

	_, err = transit.NewFeed(reader)
	require.Error(t, err)
	assert.ErrorIs(t, err, transit.ErrSchema)

	// repeated stop id
	s = storage.NewMemoryStorage()
	writer, err = s.GetWriter("dup")
	require.NoError(t, err)
	require.NoError(t, writer.WriteStop(model.Stop{ID: "a", Name: "A"}))
	require.NoError(t, writer.WriteStop(model.Stop{ID: "a", Name: "A again"}))
	require.NoError(t, writer.Close())

	reader, err = s.GetReader("dup")
	require.NoError(t, err)

	_, err = transit.NewFeed(reader)
	require.Error(t, err)
	assert.ErrorIs(t, err, transit.ErrSchema)
}
